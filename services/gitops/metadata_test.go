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
	"os"
	"path/filepath"
	"testing"
)

func TestBranchRegistry_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	if err := RegisterBranch(dir, "fg/my-feature", "main"); err != nil {
		t.Fatalf("register: %v", err)
	}

	meta, ok := GetBranchMeta(dir, "fg/my-feature")
	if !ok {
		t.Fatal("expected branch in registry")
	}
	if meta.Base != "main" {
		t.Errorf("expected base main, got %q", meta.Base)
	}
	if meta.Status != "in-progress" {
		t.Errorf("expected status in-progress, got %q", meta.Status)
	}
	if meta.CreatedAt == "" {
		t.Error("expected created_at timestamp")
	}
}

func TestBranchRegistry_MissingFileDegradesToEmpty(t *testing.T) {
	registry := LoadBranchRegistry(t.TempDir())

	if registry == nil || registry.Branches == nil {
		t.Fatal("expected usable empty registry")
	}
	if len(registry.Branches) != 0 {
		t.Errorf("expected no branches, got %d", len(registry.Branches))
	}
}

func TestBranchRegistry_CorruptedFileDegradesToEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, MetadataDir), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataDir, BranchesFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	registry := LoadBranchRegistry(dir)
	if len(registry.Branches) != 0 {
		t.Errorf("expected empty registry for corrupted file, got %d entries", len(registry.Branches))
	}

	// The registry must stay writable after corruption.
	if err := RegisterBranch(dir, "fg/recovered", "main"); err != nil {
		t.Fatalf("register after corruption: %v", err)
	}
	if _, ok := GetBranchMeta(dir, "fg/recovered"); !ok {
		t.Error("expected branch registered after corruption recovery")
	}
}

func TestUpdateBranch(t *testing.T) {
	dir := t.TempDir()
	if err := RegisterBranch(dir, "fg/feature", "develop"); err != nil {
		t.Fatal(err)
	}

	status := "tests-passing"
	generated := true
	passing := true
	if err := UpdateBranch(dir, "fg/feature", BranchUpdate{
		Status:         &status,
		TestsGenerated: &generated,
		TestsPassing:   &passing,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	meta, ok := GetBranchMeta(dir, "fg/feature")
	if !ok {
		t.Fatal("expected branch in registry")
	}
	if meta.Status != "tests-passing" || !meta.TestsGenerated || !meta.TestsPassing {
		t.Errorf("unexpected metadata after update: %+v", meta)
	}
	if meta.Base != "develop" {
		t.Errorf("update must preserve base, got %q", meta.Base)
	}
	if meta.UpdatedAt == "" {
		t.Error("expected updated_at to be set")
	}
}

func TestUpdateBranch_UnregisteredRegistersFirst(t *testing.T) {
	dir := t.TempDir()

	generated := true
	if err := UpdateBranch(dir, "fg/unknown", BranchUpdate{TestsGenerated: &generated}); err != nil {
		t.Fatalf("update: %v", err)
	}

	meta, ok := GetBranchMeta(dir, "fg/unknown")
	if !ok {
		t.Fatal("expected branch registered on update")
	}
	if meta.Base != "main" {
		t.Errorf("expected default base main, got %q", meta.Base)
	}
	if !meta.TestsGenerated {
		t.Error("expected tests_generated true")
	}
}

func TestAssertNoRebase(t *testing.T) {
	dir := t.TempDir()
	gitDir := filepath.Join(dir, ".git")
	if err := os.MkdirAll(gitDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if err := AssertNoRebase(dir); err != nil {
		t.Errorf("expected clean state, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(gitDir, "REBASE_HEAD"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AssertNoRebase(dir); err != ErrRebaseInProgress {
		t.Errorf("expected ErrRebaseInProgress, got %v", err)
	}

	os.Remove(filepath.Join(gitDir, "REBASE_HEAD"))
	if err := os.WriteFile(filepath.Join(gitDir, "MERGE_HEAD"), []byte("abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := AssertNoRebase(dir); err != ErrMergeInProgress {
		t.Errorf("expected ErrMergeInProgress, got %v", err)
	}
}

func TestAssertGitRepo(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	nested := filepath.Join(dir, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	root, err := AssertGitRepo(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantRoot, _ := filepath.EvalSymlinks(dir)
	gotRoot, _ := filepath.EvalSymlinks(root)
	if gotRoot != wantRoot {
		t.Errorf("expected root %q, got %q", wantRoot, gotRoot)
	}
}

func TestAssertGitRepo_NotARepo(t *testing.T) {
	if _, err := AssertGitRepo(t.TempDir()); err == nil {
		t.Fatal("expected error outside a repository")
	}
}
