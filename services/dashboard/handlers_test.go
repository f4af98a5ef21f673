// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeworks/forge/services/store"
)

func newTestServer(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := store.OpenDB(store.InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s := store.New(db)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), NewHandlers(s))
	return router, s
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthAndReady(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/health", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var health HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)

	w = doJSON(t, router, http.MethodGet, "/v1/dashboard/ready", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterRepo_Validation(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodPost, "/v1/dashboard/repositories", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(t, "INVALID_REQUEST", errResp.Code)
}

func TestRegisterRepo_SucceedsWithoutGit(t *testing.T) {
	router, _ := newTestServer(t)

	dir := t.TempDir()
	w := doJSON(t, router, http.MethodPost, "/v1/dashboard/repositories", RegisterRepoRequest{
		LocalPath: dir,
		Name:      "scratch",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp RegisterRepoResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "scratch", resp.Repository.Name)
	assert.NotEmpty(t, resp.Repository.ID)
	// Not a git repository, so the initial scan is skipped.
	assert.Nil(t, resp.Scan)
}

func TestGetRepo(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/"+repo.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got store.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, repo.ID, got.ID)

	w = doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListRepos(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	_, err := s.AddRepository(ctx, "beta", "/tmp/beta", "main")
	require.NoError(t, err)
	_, err = s.AddRepository(ctx, "alpha", "/tmp/alpha", "main")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var repos []store.Repository
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repos))
	require.Len(t, repos, 2)
	assert.Equal(t, "alpha", repos[0].Name)
}

func TestDeleteRepo(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	w := doJSON(t, router, http.MethodDelete, "/v1/dashboard/repositories/"+repo.ID, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/"+repo.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/v1/dashboard/repositories/"+repo.ID, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBranchesAndCommits(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	branch := &store.Branch{RepoID: repo.ID, Name: "main"}
	require.NoError(t, s.PutBranch(ctx, branch))
	require.NoError(t, s.PutCommit(ctx, &store.Commit{
		RepoID:    repo.ID,
		BranchID:  branch.ID,
		Hash:      "abc123",
		Author:    "Alice",
		Timestamp: time.Now().UTC(),
		Message:   "initial",
	}))

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/"+repo.ID+"/branches", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var branches []store.Branch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &branches))
	require.Len(t, branches, 1)

	w = doJSON(t, router, http.MethodGet,
		"/v1/dashboard/repositories/"+repo.ID+"/branches/"+branch.ID+"/commits", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var commits []store.Commit
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &commits))
	require.Len(t, commits, 1)
	assert.Equal(t, "initial", commits[0].Message)

	// Unknown repository is a 404 for the branches listing.
	w = doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/nope/branches", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCommits_UnknownRepoNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/nope/branches/b1/commits", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListBranchChanges_NotFound(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/nope/branches/b1/changes", nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	// Known repository but unknown branch.
	w = doJSON(t, router, http.MethodGet,
		"/v1/dashboard/repositories/"+repo.ID+"/branches/nope/changes", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEvents_UnknownRepoNotFound(t *testing.T) {
	router, _ := newTestServer(t)

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/nope/events", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListEvents(t *testing.T) {
	router, s := newTestServer(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)
	require.NoError(t, s.PutTestEvent(ctx, &store.TestEvent{
		RepoID:    repo.ID,
		Command:   "create-tests",
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		Timestamp: time.Now().UTC(),
		Status:    store.EventStatusSuccess,
	}))

	w := doJSON(t, router, http.MethodGet, "/v1/dashboard/repositories/"+repo.ID+"/events", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var events []store.TestEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "create-tests", events[0].Command)
}
