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
	"fmt"
	"regexp"
	"strings"
)

// BranchPrefix marks branches managed by this tool.
const BranchPrefix = "fg/"

var (
	spacesAndUnderscores = regexp.MustCompile(`[\s_]+`)
	invalidNameChars     = regexp.MustCompile(`[^a-z0-9/-]`)
	repeatedHyphens      = regexp.MustCompile(`-+`)
	repeatedSlashes      = regexp.MustCompile(`/+`)
	forbiddenRefChars    = regexp.MustCompile(`[~^:?*\[\]\\]`)
)

// NormalizeBranchName converts a free-form name into a managed branch name.
//
// Description:
//
//	Lowercases, collapses whitespace and underscores to hyphens, strips
//	characters outside [a-z0-9/-], collapses repeats, and prepends the
//	managed prefix when absent.
//
// Outputs:
//   - string: The normalized name, always carrying BranchPrefix.
//   - error: Non-nil when nothing survives normalization.
func NormalizeBranchName(name string) (string, error) {
	normalized := strings.ToLower(name)
	normalized = spacesAndUnderscores.ReplaceAllString(normalized, "-")
	normalized = invalidNameChars.ReplaceAllString(normalized, "")
	normalized = repeatedHyphens.ReplaceAllString(normalized, "-")
	normalized = strings.Trim(normalized, "-")

	if !strings.HasPrefix(normalized, BranchPrefix) {
		normalized = BranchPrefix + normalized
	}
	normalized = repeatedSlashes.ReplaceAllString(normalized, "/")

	if normalized == "" || normalized == BranchPrefix {
		return "", fmt.Errorf("gitops: invalid branch name %q", name)
	}
	return normalized, nil
}

// ValidateBranchName reports whether name satisfies git ref naming rules.
// Conservative: rejects some names git would technically accept.
func ValidateBranchName(name string) bool {
	if name == "" || len(name) > 255 {
		return false
	}
	if strings.Contains(name, "..") {
		return false
	}
	if strings.HasSuffix(name, ".lock") || strings.HasSuffix(name, ".") {
		return false
	}
	return !forbiddenRefChars.MatchString(name)
}
