// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package dashboard exposes the tracking store over a small JSON API for
// monitoring repositories, branches, commits, and test events.
package dashboard

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forgeworks/forge/services/gitops"
	"github.com/forgeworks/forge/services/store"
)

// Handlers contains the HTTP handlers for the dashboard.
type Handlers struct {
	store *store.Store
}

// NewHandlers creates handlers backed by the given store.
func NewHandlers(s *store.Store) *Handlers {
	return &Handlers{store: s}
}

// HandleListRepos handles GET /v1/dashboard/repositories.
func (h *Handlers) HandleListRepos(c *gin.Context) {
	repos, err := h.store.Repositories(c.Request.Context())
	if err != nil {
		internalError(c, "ListRepos", err)
		return
	}
	c.JSON(http.StatusOK, repos)
}

// HandleGetRepo handles GET /v1/dashboard/repositories/:id.
func (h *Handlers) HandleGetRepo(c *gin.Context) {
	repo, err := h.store.Repository(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "GetRepo", err)
		return
	}
	c.JSON(http.StatusOK, repo)
}

// HandleRegisterRepo handles POST /v1/dashboard/repositories.
//
// Description:
//
//	Registers a local repository for tracking and runs an initial scan.
//	Registering an already tracked path returns the existing record.
//
// Response:
//
//	201 Created: RegisterRepoResponse
//	400 Bad Request: Validation error
//	500 Internal Server Error: Processing error
func (h *Handlers) HandleRegisterRepo(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "RegisterRepo")

	var req RegisterRepoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	name := req.Name
	if name == "" {
		name = filepath.Base(req.LocalPath)
	}

	ctx := c.Request.Context()
	repo, err := h.store.AddRepository(ctx, name, req.LocalPath, req.BaseBranch)
	if err != nil {
		internalError(c, "RegisterRepo", err)
		return
	}

	resp := RegisterRepoResponse{Repository: *repo}
	if scan, err := h.store.ScanRepository(ctx, repo.ID); err != nil {
		// Registration succeeds even when the initial scan cannot run.
		logger.Warn("Initial scan failed", "repo", repo.Name, "error", err)
	} else {
		resp.Scan = &ScanResponse{
			BranchesScanned: scan.BranchesScanned,
			CommitsRecorded: scan.CommitsRecorded,
		}
		if updated, err := h.store.Repository(ctx, repo.ID); err == nil {
			resp.Repository = *updated
		}
	}
	c.JSON(http.StatusCreated, resp)
}

// HandleScanRepo handles POST /v1/dashboard/repositories/:id/scan.
func (h *Handlers) HandleScanRepo(c *gin.Context) {
	ctx := c.Request.Context()
	scan, err := h.store.ScanRepository(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "ScanRepo", err)
		return
	}
	c.JSON(http.StatusOK, ScanResponse{
		BranchesScanned: scan.BranchesScanned,
		CommitsRecorded: scan.CommitsRecorded,
	})
}

// HandleDeleteRepo handles DELETE /v1/dashboard/repositories/:id.
func (h *Handlers) HandleDeleteRepo(c *gin.Context) {
	err := h.store.DeleteRepository(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "DeleteRepo", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// HandleListBranches handles GET /v1/dashboard/repositories/:id/branches.
func (h *Handlers) HandleListBranches(c *gin.Context) {
	ctx := c.Request.Context()
	repoID := c.Param("id")
	if _, err := h.store.Repository(ctx, repoID); errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	branches, err := h.store.Branches(ctx, repoID)
	if err != nil {
		internalError(c, "ListBranches", err)
		return
	}
	c.JSON(http.StatusOK, branches)
}

// HandleListCommits handles GET /v1/dashboard/repositories/:id/branches/:branchID/commits.
func (h *Handlers) HandleListCommits(c *gin.Context) {
	ctx := c.Request.Context()
	repoID := c.Param("id")
	if _, err := h.store.Repository(ctx, repoID); errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	commits, err := h.store.Commits(ctx, repoID, c.Param("branchID"))
	if err != nil {
		internalError(c, "ListCommits", err)
		return
	}
	c.JSON(http.StatusOK, commits)
}

// HandleListBranchChanges handles GET /v1/dashboard/repositories/:id/branches/:branchID/changes.
//
// Description:
//
//	Diffs the branch against its base (triple-dot, so only the branch's
//	own work counts) and returns per-file line and hunk stats.
func (h *Handlers) HandleListBranchChanges(c *gin.Context) {
	ctx := c.Request.Context()
	repo, err := h.store.Repository(ctx, c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "ListBranchChanges", err)
		return
	}

	branch, err := h.store.Branch(ctx, repo.ID, c.Param("branchID"))
	if errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	if err != nil {
		internalError(c, "ListBranchChanges", err)
		return
	}

	base := branch.BaseBranch
	if base == "" {
		base = repo.BaseBranch
	}
	if base == "" {
		base = "main"
	}

	runner := gitops.NewRunner(repo.LocalPath)
	changes, err := runner.DiffRange(ctx, base, branch.Name)
	if err != nil {
		internalError(c, "ListBranchChanges", err)
		return
	}
	c.JSON(http.StatusOK, changes)
}

// HandleListEvents handles GET /v1/dashboard/repositories/:id/events.
func (h *Handlers) HandleListEvents(c *gin.Context) {
	ctx := c.Request.Context()
	repoID := c.Param("id")
	if _, err := h.store.Repository(ctx, repoID); errors.Is(err, store.ErrNotFound) {
		notFound(c)
		return
	}
	events, err := h.store.TestEvents(ctx, repoID)
	if err != nil {
		internalError(c, "ListEvents", err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// HandleHealth handles GET /v1/dashboard/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
	})
}

// HandleReady handles GET /v1/dashboard/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	repos, err := h.store.Repositories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, ReadyResponse{Ready: false})
		return
	}
	c.JSON(http.StatusOK, ReadyResponse{Ready: true, RepoCount: len(repos)})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, ErrorResponse{
		Error: "Resource not found",
		Code:  "NOT_FOUND",
	})
}

func internalError(c *gin.Context, handler string, err error) {
	slog.Error("Handler failed", "handler", handler, "error", err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: "Internal server error",
		Code:  "INTERNAL_ERROR",
	})
}

func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
