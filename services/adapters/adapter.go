// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package adapters maps language-specific conventions (test file layout,
// source discovery, test runners) behind a common interface so the CLI can
// stay language agnostic.
package adapters

import (
	"context"
	"fmt"
)

// TestRunResult reports the outcome of a test-runner invocation.
type TestRunResult struct {
	Passed   bool
	ExitCode int
	Output   string
}

// Adapter describes one supported language.
type Adapter interface {
	// Language returns the adapter's language identifier, e.g. "python".
	Language() string

	// Detect reports whether the repository at root looks like this
	// adapter's language.
	Detect(root string) bool

	// TestFilePath maps a source file (relative to root) to its test file
	// path under testDir, preserving directory structure.
	TestFilePath(testDir, sourcePath string) string

	// SourceFiles discovers source files under root, honoring include and
	// exclude glob patterns. Paths are relative to root and sorted.
	SourceFiles(root string, include, exclude []string) ([]string, error)

	// RunTests executes the language's test runner against testDir.
	RunTests(ctx context.Context, root, testDir string) (*TestRunResult, error)
}

// ForLanguage returns the adapter for a language identifier.
func ForLanguage(language string) (Adapter, error) {
	switch language {
	case "python":
		return NewPytestAdapter(), nil
	default:
		return nil, fmt.Errorf("adapters: unsupported language %q", language)
	}
}
