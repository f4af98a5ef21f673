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
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: record not found")

// Store provides CRUD access to the tracking records.
//
// Thread Safety: safe for concurrent use; each operation runs in its own
// Badger transaction.
type Store struct {
	db *DB
}

// New creates a Store on top of an open database.
func New(db *DB) *Store {
	return &Store{db: db}
}

// AddRepository registers a repository. The local path must be unique;
// registering the same path twice returns the existing record.
func (s *Store) AddRepository(ctx context.Context, name, localPath, baseBranch string) (*Repository, error) {
	if existing, err := s.RepositoryByPath(ctx, localPath); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	repo := &Repository{
		ID:         uuid.NewString(),
		Name:       name,
		LocalPath:  localPath,
		BaseBranch: baseBranch,
		DateAdded:  time.Now().UTC(),
	}
	err := s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := setJSON(txn, repoKey(repo.ID), repo); err != nil {
			return err
		}
		return txn.Set(repoPathKey(localPath), []byte(repo.ID))
	})
	if err != nil {
		return nil, fmt.Errorf("store: add repository: %w", err)
	}
	return repo, nil
}

// Repository fetches a repository by ID.
func (s *Store) Repository(ctx context.Context, id string) (*Repository, error) {
	var repo Repository
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, repoKey(id), &repo)
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// RepositoryByPath fetches a repository by its local path.
func (s *Store) RepositoryByPath(ctx context.Context, localPath string) (*Repository, error) {
	var repo Repository
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(repoPathKey(localPath))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, repoKey(id), &repo)
	})
	if err != nil {
		return nil, err
	}
	return &repo, nil
}

// Repositories lists all tracked repositories sorted by name.
func (s *Store) Repositories(ctx context.Context) ([]Repository, error) {
	var repos []Repository
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, []byte("repo:"), func(data []byte) error {
			var r Repository
			if err := json.Unmarshal(data, &r); err != nil {
				return err
			}
			repos = append(repos, r)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list repositories: %w", err)
	}
	sort.Slice(repos, func(i, j int) bool { return repos[i].Name < repos[j].Name })
	return repos, nil
}

// UpdateRepository overwrites a repository record.
func (s *Store) UpdateRepository(ctx context.Context, repo *Repository) error {
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		if err := getJSON(txn, repoKey(repo.ID), &Repository{}); err != nil {
			return err
		}
		return setJSON(txn, repoKey(repo.ID), repo)
	})
}

// DeleteRepository removes a repository and all of its branches, commits,
// and events.
func (s *Store) DeleteRepository(ctx context.Context, id string) error {
	repo, err := s.Repository(ctx, id)
	if err != nil {
		return err
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		for _, prefix := range [][]byte{
			branchPrefix(id),
			commitRepoPrefix(id),
			eventPrefix(id),
		} {
			if err := deletePrefix(txn, prefix); err != nil {
				return err
			}
		}
		if err := txn.Delete(repoPathKey(repo.LocalPath)); err != nil {
			return err
		}
		return txn.Delete(repoKey(id))
	})
}

// PutBranch inserts or updates a branch record, assigning an ID when empty.
func (s *Store) PutBranch(ctx context.Context, branch *Branch) error {
	if branch.ID == "" {
		branch.ID = uuid.NewString()
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, branchKey(branch.RepoID, branch.ID), branch)
	})
}

// Branch fetches a branch of a repository by ID.
func (s *Store) Branch(ctx context.Context, repoID, branchID string) (*Branch, error) {
	var branch Branch
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return getJSON(txn, branchKey(repoID, branchID), &branch)
	})
	if err != nil {
		return nil, err
	}
	return &branch, nil
}

// Branches lists a repository's branches sorted by name.
func (s *Store) Branches(ctx context.Context, repoID string) ([]Branch, error) {
	var branches []Branch
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, branchPrefix(repoID), func(data []byte) error {
			var b Branch
			if err := json.Unmarshal(data, &b); err != nil {
				return err
			}
			branches = append(branches, b)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list branches: %w", err)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].Name < branches[j].Name })
	return branches, nil
}

// BranchByName finds a branch of a repository by its git name.
func (s *Store) BranchByName(ctx context.Context, repoID, name string) (*Branch, error) {
	branches, err := s.Branches(ctx, repoID)
	if err != nil {
		return nil, err
	}
	for i := range branches {
		if branches[i].Name == name {
			return &branches[i], nil
		}
	}
	return nil, ErrNotFound
}

// PutCommit inserts a commit record, assigning an ID when empty.
func (s *Store) PutCommit(ctx context.Context, commit *Commit) error {
	if commit.ID == "" {
		commit.ID = uuid.NewString()
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, commitKey(commit.RepoID, commit.BranchID, commit.ID), commit)
	})
}

// Commits lists a branch's commits, newest first.
func (s *Store) Commits(ctx context.Context, repoID, branchID string) ([]Commit, error) {
	var commits []Commit
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, commitPrefix(repoID, branchID), func(data []byte) error {
			var c Commit
			if err := json.Unmarshal(data, &c); err != nil {
				return err
			}
			commits = append(commits, c)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list commits: %w", err)
	}
	sort.Slice(commits, func(i, j int) bool { return commits[i].Timestamp.After(commits[j].Timestamp) })
	return commits, nil
}

// PutTestEvent inserts a test event, assigning an ID when empty.
func (s *Store) PutTestEvent(ctx context.Context, event *TestEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	return s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		return setJSON(txn, eventKey(event.RepoID, event.ID), event)
	})
}

// TestEvents lists a repository's test events, newest first.
func (s *Store) TestEvents(ctx context.Context, repoID string) ([]TestEvent, error) {
	var events []TestEvent
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		return scanJSON(txn, eventPrefix(repoID), func(data []byte) error {
			var e TestEvent
			if err := json.Unmarshal(data, &e); err != nil {
				return err
			}
			events = append(events, e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("store: list test events: %w", err)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.After(events[j].Timestamp) })
	return events, nil
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func scanJSON(txn *badger.Txn, prefix []byte, fn func(data []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			return fn(append([]byte(nil), val...))
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func deletePrefix(txn *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	it := txn.NewIterator(opts)

	var keys [][]byte
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
