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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := OpenDB(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db)
}

func TestRepositoryCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "myproject", "/tmp/myproject", "main")
	require.NoError(t, err)
	require.NotEmpty(t, repo.ID)
	assert.Equal(t, "myproject", repo.Name)
	assert.False(t, repo.DateAdded.IsZero())

	fetched, err := s.Repository(ctx, repo.ID)
	require.NoError(t, err)
	assert.Equal(t, repo.LocalPath, fetched.LocalPath)

	byPath, err := s.RepositoryByPath(ctx, "/tmp/myproject")
	require.NoError(t, err)
	assert.Equal(t, repo.ID, byPath.ID)

	repos, err := s.Repositories(ctx)
	require.NoError(t, err)
	require.Len(t, repos, 1)
}

func TestAddRepository_SamePathReturnsExisting(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	second, err := s.AddRepository(ctx, "proj-again", "/tmp/proj", "develop")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "proj", second.Name)
}

func TestRepository_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Repository(context.Background(), "no-such-id")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.RepositoryByPath(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBranchesAndCommits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	branch := &Branch{RepoID: repo.ID, Name: "fg/feature", BaseBranch: "main"}
	require.NoError(t, s.PutBranch(ctx, branch))
	require.NotEmpty(t, branch.ID)

	other := &Branch{RepoID: repo.ID, Name: "main"}
	require.NoError(t, s.PutBranch(ctx, other))

	branches, err := s.Branches(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, branches, 2)
	assert.Equal(t, "fg/feature", branches[0].Name)

	found, err := s.BranchByName(ctx, repo.ID, "main")
	require.NoError(t, err)
	assert.Equal(t, other.ID, found.ID)

	_, err = s.BranchByName(ctx, repo.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	byID, err := s.Branch(ctx, repo.ID, branch.ID)
	require.NoError(t, err)
	assert.Equal(t, "fg/feature", byID.Name)

	_, err = s.Branch(ctx, repo.ID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	now := time.Now().UTC()
	for i, msg := range []string{"first", "second"} {
		commit := &Commit{
			Hash:      "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" + string(rune('0'+i)),
			RepoID:    repo.ID,
			BranchID:  branch.ID,
			Author:    "Alice",
			Timestamp: now.Add(time.Duration(i) * time.Minute),
			Message:   msg,
		}
		require.NoError(t, s.PutCommit(ctx, commit))
	}

	commits, err := s.Commits(ctx, repo.ID, branch.ID)
	require.NoError(t, err)
	require.Len(t, commits, 2)
	assert.Equal(t, "second", commits[0].Message, "commits must be newest first")
}

func TestDeleteRepository_Cascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	branch := &Branch{RepoID: repo.ID, Name: "main"}
	require.NoError(t, s.PutBranch(ctx, branch))
	require.NoError(t, s.PutCommit(ctx, &Commit{
		RepoID: repo.ID, BranchID: branch.ID, Hash: "abc", Timestamp: time.Now(),
	}))
	require.NoError(t, s.PutTestEvent(ctx, &TestEvent{
		RepoID: repo.ID, Command: "create-tests", Status: EventStatusSuccess, Timestamp: time.Now(),
	}))

	require.NoError(t, s.DeleteRepository(ctx, repo.ID))

	_, err = s.Repository(ctx, repo.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	branches, err := s.Branches(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, branches)

	commits, err := s.Commits(ctx, repo.ID, branch.ID)
	require.NoError(t, err)
	assert.Empty(t, commits)

	events, err := s.TestEvents(ctx, repo.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	// Path index must be freed so the path can be re-registered.
	again, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)
	assert.NotEqual(t, repo.ID, again.ID)
}

func TestTestEvents_NewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "proj", "/tmp/proj", "main")
	require.NoError(t, err)

	base := time.Now().UTC()
	for i, status := range []string{EventStatusFailure, EventStatusSuccess} {
		require.NoError(t, s.PutTestEvent(ctx, &TestEvent{
			RepoID:    repo.ID,
			Command:   "create-tests",
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Status:    status,
		}))
	}

	events, err := s.TestEvents(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventStatusSuccess, events[0].Status)
}

func TestTrackTestEvent_BestEffort(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	dir := t.TempDir()
	s.TrackTestEvent(ctx, dir, "", "create-tests", "openai", "gpt-4o-mini", EventStatusSuccess)

	repo, err := s.RepositoryByPath(ctx, dir)
	require.NoError(t, err, "tracking must auto-register the repository")

	events, err := s.TestEvents(ctx, repo.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "openai", events[0].Provider)
}

func TestScanRepository_NotAGitRepo(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	repo, err := s.AddRepository(ctx, "plain", t.TempDir(), "")
	require.NoError(t, err)

	_, err = s.ScanRepository(ctx, repo.ID)
	assert.Error(t, err)
}
