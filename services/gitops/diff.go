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
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// FileChange summarizes one file's hunks in a diff.
type FileChange struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
	Changed int    `json:"changed"`
	Hunks   int    `json:"hunks"`
}

// DiffSinceBase parses the unified diff between base and HEAD into per-file
// change summaries.
func (r *Runner) DiffSinceBase(ctx context.Context, base string) ([]FileChange, error) {
	return r.DiffRange(ctx, base, "HEAD")
}

// DiffRange parses the unified diff between two refs (triple-dot, so head is
// compared against the merge base) into per-file change summaries.
func (r *Runner) DiffRange(ctx context.Context, base, head string) ([]FileChange, error) {
	out, err := r.run(ctx, "diff", base+"..."+head)
	if err != nil {
		return nil, err
	}
	return parseFileChanges(out)
}

// parseFileChanges parses unified diff text into per-file summaries.
func parseFileChanges(out string) ([]FileChange, error) {
	if strings.TrimSpace(out) == "" {
		return []FileChange{}, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(out))
	if err != nil {
		return nil, fmt.Errorf("gitops: parsing diff output: %w", err)
	}

	changes := make([]FileChange, 0, len(fileDiffs))
	for _, fd := range fileDiffs {
		stat := fd.Stat()
		changes = append(changes, FileChange{
			Path:    stripDiffPrefix(fd.NewName),
			Added:   int(stat.Added),
			Deleted: int(stat.Deleted),
			Changed: int(stat.Changed),
			Hunks:   len(fd.Hunks),
		})
	}
	return changes, nil
}

// stripDiffPrefix removes the a/ b/ prefixes git puts on diff paths.
func stripDiffPrefix(name string) string {
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
