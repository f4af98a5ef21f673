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
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	// MetadataDir holds tool state under the repository root.
	MetadataDir = ".forge"

	// BranchesFile is the branch registry inside MetadataDir.
	BranchesFile = "branches.json"
)

// BranchMeta is the registry entry for one managed branch.
type BranchMeta struct {
	Base           string `json:"base"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	TestsGenerated bool   `json:"tests_generated"`
	TestsPassing   bool   `json:"tests_passing"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

// BranchRegistry maps branch names to their metadata.
type BranchRegistry struct {
	Branches map[string]BranchMeta `json:"branches"`
}

func branchesPath(repoRoot string) string {
	return filepath.Join(repoRoot, MetadataDir, BranchesFile)
}

// LoadBranchRegistry reads the registry from the repository.
//
// Description:
//
//	A missing or corrupted registry degrades to an empty one; the registry
//	is advisory state and must never block a workflow.
func LoadBranchRegistry(repoRoot string) *BranchRegistry {
	empty := &BranchRegistry{Branches: make(map[string]BranchMeta)}

	data, err := os.ReadFile(branchesPath(repoRoot))
	if err != nil {
		return empty
	}

	var registry BranchRegistry
	if err := json.Unmarshal(data, &registry); err != nil {
		slog.Warn("corrupted branch registry, starting fresh",
			slog.String("path", branchesPath(repoRoot)),
			slog.String("error", err.Error()))
		return empty
	}
	if registry.Branches == nil {
		registry.Branches = make(map[string]BranchMeta)
	}
	return &registry
}

// SaveBranchRegistry writes the registry, creating the metadata dir if needed.
func SaveBranchRegistry(registry *BranchRegistry, repoRoot string) error {
	dir := filepath.Join(repoRoot, MetadataDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("gitops: creating %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("gitops: marshaling branch registry: %w", err)
	}
	if err := os.WriteFile(branchesPath(repoRoot), data, 0o644); err != nil {
		return fmt.Errorf("gitops: writing branch registry: %w", err)
	}
	return nil
}

// RegisterBranch adds a new branch to the registry with in-progress status.
func RegisterBranch(repoRoot, name, base string) error {
	registry := LoadBranchRegistry(repoRoot)
	registry.Branches[name] = BranchMeta{
		Base:      base,
		Status:    "in-progress",
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return SaveBranchRegistry(registry, repoRoot)
}

// BranchUpdate carries the optional fields UpdateBranch may change.
type BranchUpdate struct {
	Status         *string
	TestsGenerated *bool
	TestsPassing   *bool
}

// UpdateBranch applies the update, registering the branch first if the
// registry has never seen it.
func UpdateBranch(repoRoot, name string, update BranchUpdate) error {
	registry := LoadBranchRegistry(repoRoot)

	meta, ok := registry.Branches[name]
	if !ok {
		meta = BranchMeta{
			Base:      "main",
			Status:    "in-progress",
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
	}

	if update.Status != nil {
		meta.Status = *update.Status
	}
	if update.TestsGenerated != nil {
		meta.TestsGenerated = *update.TestsGenerated
	}
	if update.TestsPassing != nil {
		meta.TestsPassing = *update.TestsPassing
	}
	meta.UpdatedAt = time.Now().UTC().Format(time.RFC3339)

	registry.Branches[name] = meta
	return SaveBranchRegistry(registry, repoRoot)
}

// GetBranchMeta returns the registry entry for name, if any.
func GetBranchMeta(repoRoot, name string) (BranchMeta, bool) {
	registry := LoadBranchRegistry(repoRoot)
	meta, ok := registry.Branches[name]
	return meta, ok
}
