// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package gitops wraps the git CLI for branch workflows. Everything runs
// through subprocess invocations; no libgit bindings.
package gitops

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Runner executes git commands in a fixed repository root.
//
// Thread Safety: Runner is safe for concurrent use; it holds no mutable state.
type Runner struct {
	repoRoot string
}

// NewRunner creates a Runner for the repository at repoRoot.
func NewRunner(repoRoot string) *Runner {
	return &Runner{repoRoot: repoRoot}
}

// RepoRoot returns the repository root this runner operates in.
func (r *Runner) RepoRoot() string { return r.repoRoot }

// run executes git with the given arguments and returns trimmed stdout.
func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoRoot

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = strings.TrimSpace(stdout.String())
		}
		if msg == "" {
			msg = "unknown git error"
		}
		return "", fmt.Errorf("gitops: git %s: %s: %w", strings.Join(args, " "), msg, err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// runQuiet executes git and reports only whether it exited zero.
func (r *Runner) runQuiet(ctx context.Context, args ...string) bool {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.repoRoot
	return cmd.Run() == nil
}

// IsGitRepo reports whether path contains a .git entry.
func IsGitRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil
}

// CurrentBranch returns the checked-out branch name.
func (r *Runner) CurrentBranch(ctx context.Context) (string, error) {
	return r.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// FetchOrigin fetches the latest refs from origin.
func (r *Runner) FetchOrigin(ctx context.Context) error {
	_, err := r.run(ctx, "fetch", "origin")
	return err
}

// SyncBranch rebases the current branch onto origin/base.
//
// Description:
//
//	Refuses to rebase the base branch onto itself. Fetches origin first so
//	the rebase target is current. A failed rebase surfaces git's conflict
//	output for the user to resolve manually.
func (r *Runner) SyncBranch(ctx context.Context, base string) error {
	current, err := r.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if current == base {
		return fmt.Errorf("gitops: cannot sync %s onto itself, switch to a feature branch first", base)
	}

	if err := r.FetchOrigin(ctx); err != nil {
		return err
	}

	if _, err := r.run(ctx, "rebase", "origin/"+base); err != nil {
		return fmt.Errorf("gitops: rebase failed, resolve conflicts manually: %w", err)
	}
	return nil
}

// BranchExistsLocal reports whether the branch exists as a local ref.
func (r *Runner) BranchExistsLocal(ctx context.Context, name string) bool {
	return r.runQuiet(ctx, "show-ref", "--verify", "--quiet", "refs/heads/"+name)
}

// BranchExists reports whether the branch exists locally or on origin.
func (r *Runner) BranchExists(ctx context.Context, name string) bool {
	if r.BranchExistsLocal(ctx, name) {
		return true
	}
	return r.runQuiet(ctx, "show-ref", "--verify", "--quiet", "refs/remotes/origin/"+name)
}

// mainBranchCandidates in detection order.
var mainBranchCandidates = []string{"main", "master", "fg/main", "fg/master"}

// DetectMainBranch finds the repository's main branch.
//
// Outputs:
//   - string: The first of main, master, fg/main, fg/master that exists.
//   - error: Non-nil when none do; the caller should ask for an explicit base.
func (r *Runner) DetectMainBranch(ctx context.Context) (string, error) {
	for _, name := range mainBranchCandidates {
		if r.BranchExistsLocal(ctx, name) {
			return name, nil
		}
	}
	return "", fmt.Errorf("gitops: could not find %s, specify a base branch explicitly",
		strings.Join(mainBranchCandidates, ", "))
}

// ChangedFilesSinceBase lists files changed relative to base.
//
// Description:
//
//	On a feature branch this is the triple-dot diff base...HEAD. On the
//	base branch itself there is nothing to compare against, so the staged
//	and unstaged change sets are unioned instead.
func (r *Runner) ChangedFilesSinceBase(ctx context.Context, base string) ([]string, error) {
	current, err := r.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}

	if !r.BranchExistsLocal(ctx, base) {
		branches, _ := r.ListBranches(ctx)
		return nil, fmt.Errorf("gitops: base branch %q does not exist, available branches: %s",
			base, strings.Join(branches, ", "))
	}

	if current == base {
		unstaged, err := r.run(ctx, "diff", "--name-only", "HEAD")
		if err != nil {
			return nil, err
		}
		staged, err := r.run(ctx, "diff", "--name-only", "--cached", "HEAD")
		if err != nil {
			return nil, err
		}
		seen := make(map[string]struct{})
		for _, f := range append(splitNonEmptyLines(unstaged), splitNonEmptyLines(staged)...) {
			seen[f] = struct{}{}
		}
		files := make([]string, 0, len(seen))
		for f := range seen {
			files = append(files, f)
		}
		sort.Strings(files)
		return files, nil
	}

	out, err := r.run(ctx, "diff", "--name-only", base+"...HEAD")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

// StageFiles stages the given files. A nil or empty list is a no-op.
func (r *Runner) StageFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := r.run(ctx, append([]string{"add"}, files...)...)
	return err
}

// Commit commits staged changes with the given message.
func (r *Runner) Commit(ctx context.Context, message string) error {
	_, err := r.run(ctx, "commit", "-m", message)
	return err
}

// PushBranch pushes the branch to origin with upstream tracking. An empty
// branch pushes the current one.
func (r *Runner) PushBranch(ctx context.Context, branch string) error {
	if branch == "" {
		current, err := r.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		branch = current
	}
	_, err := r.run(ctx, "push", "-u", "origin", branch)
	return err
}

// IsClean reports whether the working tree has no pending changes.
func (r *Runner) IsClean(ctx context.Context) bool {
	out, err := r.run(ctx, "status", "--porcelain")
	return err == nil && out == ""
}

// ListBranches lists all local branch names.
func (r *Runner) ListBranches(ctx context.Context) ([]string, error) {
	out, err := r.run(ctx, "branch", "--format=%(refname:short)")
	if err != nil {
		return nil, err
	}
	return splitNonEmptyLines(out), nil
}

// SwitchBranch checks out an existing local branch.
func (r *Runner) SwitchBranch(ctx context.Context, name string) error {
	if !r.BranchExistsLocal(ctx, name) {
		branches, _ := r.ListBranches(ctx)
		available := "none"
		if len(branches) > 0 {
			available = strings.Join(branches, ", ")
		}
		return fmt.Errorf("gitops: branch %q does not exist, available branches: %s", name, available)
	}
	_, err := r.run(ctx, "checkout", name)
	return err
}

// CreateBranch creates a branch from base and switches to it. An empty base
// branches off the current branch.
func (r *Runner) CreateBranch(ctx context.Context, name, base string) error {
	if base == "" {
		current, err := r.CurrentBranch(ctx)
		if err != nil {
			return err
		}
		base = current
	}

	if r.BranchExists(ctx, name) {
		return fmt.Errorf("gitops: branch %q already exists", name)
	}

	slog.Info("creating branch", slog.String("name", name), slog.String("base", base))
	_, err := r.run(ctx, "checkout", "-b", name, base)
	return err
}

// InitRepo initializes a repository at the runner's root. Used by tests and
// by forge init on bare directories.
func (r *Runner) InitRepo(ctx context.Context) error {
	_, err := r.run(ctx, "init")
	return err
}

func splitNonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
