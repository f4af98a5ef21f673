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
	"log/slog"
	"path/filepath"
	"time"
)

// EventStatus values recorded for test events.
const (
	EventStatusSuccess = "success"
	EventStatusFailure = "failure"
	EventStatusPartial = "partial"
)

// EnsureRepoTracked registers the repository at localPath if it is not
// already known and returns its record.
func (s *Store) EnsureRepoTracked(ctx context.Context, localPath, baseBranch string) (*Repository, error) {
	abs, err := filepath.Abs(localPath)
	if err != nil {
		return nil, err
	}
	return s.AddRepository(ctx, filepath.Base(abs), abs, baseBranch)
}

// TrackTestEvent records a test-generation or test-run invocation. Tracking
// is best effort: failures are logged, never propagated, so a broken
// database cannot block the command being tracked.
func (s *Store) TrackTestEvent(ctx context.Context, repoPath, branchName, command, provider, model, status string) {
	repo, err := s.EnsureRepoTracked(ctx, repoPath, "")
	if err != nil {
		slog.Warn("test event not recorded", slog.String("error", err.Error()))
		return
	}

	event := &TestEvent{
		RepoID:    repo.ID,
		Command:   command,
		Provider:  provider,
		Model:     model,
		Timestamp: time.Now().UTC(),
		Status:    status,
	}
	if branchName != "" {
		if branch, err := s.BranchByName(ctx, repo.ID, branchName); err == nil {
			event.BranchID = branch.ID
		}
	}
	if err := s.PutTestEvent(ctx, event); err != nil {
		slog.Warn("test event not recorded", slog.String("error", err.Error()))
	}
}
