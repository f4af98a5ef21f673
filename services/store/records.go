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
	"fmt"
	"time"
)

// Repository is a tracked local git repository.
type Repository struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	LocalPath     string     `json:"local_path"`
	BaseBranch    string     `json:"base_branch"`
	DateAdded     time.Time  `json:"date_added"`
	LastScannedAt *time.Time `json:"last_scanned_at,omitempty"`
}

// Branch is one branch of a tracked repository.
type Branch struct {
	ID           string     `json:"id"`
	RepoID       string     `json:"repo_id"`
	Name         string     `json:"name"`
	ParentBranch string     `json:"parent_branch,omitempty"`
	BaseBranch   string     `json:"base_branch,omitempty"`
	CreatedAt    *time.Time `json:"created_at,omitempty"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	Status       string     `json:"status,omitempty"`
}

// Commit is one commit observed during a repository scan.
type Commit struct {
	ID           string    `json:"id"`
	Hash         string    `json:"hash"`
	RepoID       string    `json:"repo_id"`
	BranchID     string    `json:"branch_id"`
	Author       string    `json:"author"`
	Timestamp    time.Time `json:"timestamp"`
	Message      string    `json:"message"`
	FilesChanged int       `json:"files_changed"`
	LinesAdded   int       `json:"lines_added"`
	LinesRemoved int       `json:"lines_removed"`
}

// TestEvent records one test-generation or test-run invocation.
type TestEvent struct {
	ID        string    `json:"id"`
	RepoID    string    `json:"repo_id"`
	BranchID  string    `json:"branch_id,omitempty"`
	Command   string    `json:"command"`
	Provider  string    `json:"provider,omitempty"`
	Model     string    `json:"model,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

// Key layout. Secondary lookups (path) are separate index keys pointing at
// the primary record ID.

func repoKey(id string) []byte {
	return []byte("repo:" + id)
}

func repoPathKey(path string) []byte {
	return []byte("repo_path:" + path)
}

func branchKey(repoID, id string) []byte {
	return []byte(fmt.Sprintf("branch:%s:%s", repoID, id))
}

func branchPrefix(repoID string) []byte {
	return []byte("branch:" + repoID + ":")
}

func commitKey(repoID, branchID, id string) []byte {
	return []byte(fmt.Sprintf("commit:%s:%s:%s", repoID, branchID, id))
}

func commitPrefix(repoID, branchID string) []byte {
	return []byte(fmt.Sprintf("commit:%s:%s:", repoID, branchID))
}

func commitRepoPrefix(repoID string) []byte {
	return []byte("commit:" + repoID + ":")
}

func eventKey(repoID, id string) []byte {
	return []byte(fmt.Sprintf("event:%s:%s", repoID, id))
}

func eventPrefix(repoID string) []byte {
	return []byte("event:" + repoID + ":")
}
