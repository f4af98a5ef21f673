// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrRebaseInProgress indicates an unfinished rebase in the repository.
	ErrRebaseInProgress = errors.New("gitops: a rebase is in progress, complete or abort it first")

	// ErrMergeInProgress indicates an unfinished merge in the repository.
	ErrMergeInProgress = errors.New("gitops: a merge is in progress, complete or abort it first")

	// ErrDirtyWorkingTree indicates uncommitted changes in the working tree.
	ErrDirtyWorkingTree = errors.New("gitops: working tree has uncommitted changes, commit or stash them first")
)

// AssertGitRepo verifies path is inside a git repository and returns the
// repository root.
func AssertGitRepo(path string) (string, error) {
	current, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("gitops: resolving %s: %w", path, err)
	}
	for {
		if IsGitRepo(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New("gitops: not in a git repository")
		}
		current = parent
	}
}

// AssertNoRebase fails when a rebase or merge is in progress.
func AssertNoRebase(repoRoot string) error {
	gitDir := filepath.Join(repoRoot, ".git")

	for _, marker := range []string{"rebase-apply", "rebase-merge", "REBASE_HEAD"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return ErrRebaseInProgress
		}
	}
	for _, marker := range []string{"MERGE_HEAD", "MERGE_MODE"} {
		if _, err := os.Stat(filepath.Join(gitDir, marker)); err == nil {
			return ErrMergeInProgress
		}
	}
	return nil
}

// AssertCleanTree fails when the working tree is dirty. requireClean false
// disables the check so callers can thread a --no-require-clean flag through.
func AssertCleanTree(ctx context.Context, r *Runner, requireClean bool) error {
	if !requireClean {
		return nil
	}
	if !r.IsClean(ctx) {
		return ErrDirtyWorkingTree
	}
	return nil
}
