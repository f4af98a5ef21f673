// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/forgeworks/forge/services/gitops"
)

// ScanResult summarizes one repository scan.
type ScanResult struct {
	BranchesScanned int
	CommitsRecorded int
}

// ScanRepository walks every branch of a tracked repository and records its
// branches and commit history. Existing commits are re-read and overwritten
// keyed by hash, so repeated scans converge rather than duplicate.
//
// Per-branch failures are logged and skipped; the scan only fails outright
// when the repository itself cannot be read.
func (s *Store) ScanRepository(ctx context.Context, repoID string) (*ScanResult, error) {
	repo, err := s.Repository(ctx, repoID)
	if err != nil {
		return nil, err
	}
	if !gitops.IsGitRepo(repo.LocalPath) {
		return nil, fmt.Errorf("store: %s is not a git repository", repo.LocalPath)
	}
	runner := gitops.NewRunner(repo.LocalPath)

	base := repo.BaseBranch
	if base == "" {
		if detected, err := runner.DetectMainBranch(ctx); err == nil {
			base = detected
		} else {
			base = "main"
		}
	}

	names, err := runner.ListBranches(ctx)
	if err != nil {
		return nil, fmt.Errorf("store: scan %s: %w", repo.Name, err)
	}

	result := &ScanResult{}
	now := time.Now().UTC()
	for _, name := range names {
		if err := s.scanBranch(ctx, runner, repo, name, base, now, result); err != nil {
			slog.Warn("branch scan failed",
				slog.String("repo", repo.Name),
				slog.String("branch", name),
				slog.String("error", err.Error()))
		}
	}

	repo.BaseBranch = base
	repo.LastScannedAt = &now
	if err := s.UpdateRepository(ctx, repo); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) scanBranch(ctx context.Context, runner *gitops.Runner, repo *Repository, name, base string, now time.Time, result *ScanResult) error {
	branch, err := s.BranchByName(ctx, repo.ID, name)
	if errors.Is(err, ErrNotFound) {
		branch = &Branch{
			RepoID:     repo.ID,
			Name:       name,
			BaseBranch: base,
		}
	} else if err != nil {
		return err
	}

	// Branches we created carry their parent in the working-tree registry.
	if meta, ok := gitops.GetBranchMeta(repo.LocalPath, name); ok {
		branch.ParentBranch = meta.Base
		branch.Status = meta.Status
		if branch.CreatedAt == nil {
			if created, err := time.Parse(time.RFC3339, meta.CreatedAt); err == nil {
				branch.CreatedAt = &created
			}
		}
	}
	branch.LastSyncedAt = &now
	if err := s.PutBranch(ctx, branch); err != nil {
		return err
	}
	result.BranchesScanned++

	commits, err := runner.CommitLog(ctx, name)
	if err != nil {
		return err
	}
	for _, info := range commits {
		commit := &Commit{
			ID:           info.Hash,
			Hash:         info.Hash,
			RepoID:       repo.ID,
			BranchID:     branch.ID,
			Author:       info.Author,
			Timestamp:    info.Timestamp,
			Message:      info.Message,
			FilesChanged: info.FilesChanged,
			LinesAdded:   info.LinesAdded,
			LinesRemoved: info.LinesRemoved,
		}
		if err := s.PutCommit(ctx, commit); err != nil {
			return err
		}
		result.CommitsRecorded++
	}
	return nil
}
