// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeworks/forge/services/config"
	"github.com/forgeworks/forge/services/gitops"
	"github.com/forgeworks/forge/services/store"
)

// workspace bundles the resolved repository root, its configuration, and a
// git runner. Every command except init starts from one.
type workspace struct {
	Root   string
	Config *config.Config
	Git    *gitops.Runner
}

// openWorkspace locates the enclosing git repository and loads its
// configuration.
func openWorkspace() (*workspace, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := gitops.AssertGitRepo(cwd)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(root)
	if errors.Is(err, config.ErrNotInitialized) {
		return nil, fmt.Errorf("no %s found, run 'forge init' first", config.ConfigFileName)
	}
	if err != nil {
		return nil, err
	}
	return &workspace{
		Root:   root,
		Config: cfg,
		Git:    gitops.NewRunner(root),
	}, nil
}

// baseBranch resolves the configured base branch, detecting the main branch
// when the config leaves it empty.
func (w *workspace) baseBranch(ctx context.Context) (string, error) {
	if w.Config.BaseBranch != "" {
		return w.Config.BaseBranch, nil
	}
	return w.Git.DetectMainBranch(ctx)
}

// openTrackingStore opens the shared dashboard database under the user's
// home directory. A nil return means tracking is unavailable; callers treat
// that as best effort.
func openTrackingStore() (*store.Store, func()) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, func() {}
	}
	cfg := store.DefaultConfig()
	cfg.Path = filepath.Join(home, ".forge", "db")
	cfg.GCInterval = 0
	db, err := store.OpenDB(cfg)
	if err != nil {
		return nil, func() {}
	}
	return store.New(db), func() { db.Close() }
}
