// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// skipDirs are directory names never searched for sources.
var skipDirs = map[string]struct{}{
	".git":         {},
	".forge":       {},
	"venv":         {},
	".venv":        {},
	"node_modules": {},
	"__pycache__":  {},
	".tox":         {},
}

// PytestAdapter implements Adapter for Python projects using pytest.
type PytestAdapter struct{}

// NewPytestAdapter creates the Python adapter.
func NewPytestAdapter() *PytestAdapter {
	return &PytestAdapter{}
}

// Language returns "python".
func (a *PytestAdapter) Language() string { return "python" }

// Detect reports whether root contains Python project markers or sources.
func (a *PytestAdapter) Detect(root string) bool {
	for _, marker := range []string{"pyproject.toml", "setup.py", "requirements.txt"} {
		if _, err := os.Stat(filepath.Join(root, marker)); err == nil {
			return true
		}
	}
	files, err := a.SourceFiles(root, nil, nil)
	return err == nil && len(files) > 0
}

// TestFilePath maps src/mathlib.py to <testDir>/src/test_mathlib.py.
// Directory structure under the repository is preserved so generated tests
// never collide across packages.
func (a *PytestAdapter) TestFilePath(testDir, sourcePath string) string {
	dir, base := filepath.Split(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(testDir, dir, "test_"+stem+".py")
}

// SourceFiles walks root for .py files, skipping test files, the test
// directory conventions, and virtualenv or cache directories.
func (a *PytestAdapter) SourceFiles(root string, include, exclude []string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if _, skip := skipDirs[name]; skip && path != root {
				return filepath.SkipDir
			}
			if name == "tests" && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".py") {
			return nil
		}
		if strings.HasPrefix(name, "test_") || strings.HasSuffix(name, "_test.py") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if len(include) > 0 && !matchesAny(include, rel) {
			return nil
		}
		if matchesAny(exclude, rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("adapters: discover sources in %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}

// RunTests invokes pytest against testDir with the repository root on
// PYTHONPATH so generated tests can import the code under test.
func (a *PytestAdapter) RunTests(ctx context.Context, root, testDir string) (*TestRunResult, error) {
	cmd := exec.CommandContext(ctx, "pytest", testDir, "-v", "--tb=short")
	cmd.Dir = root

	pythonPath := root
	if existing := os.Getenv("PYTHONPATH"); existing != "" {
		pythonPath = root + string(os.PathListSeparator) + existing
	}
	cmd.Env = append(os.Environ(), "PYTHONPATH="+pythonPath)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	err := cmd.Run()
	result := &TestRunResult{Output: out.String()}
	if err == nil {
		result.Passed = true
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Test failures are a result, not an adapter error.
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	return nil, fmt.Errorf("adapters: run pytest: %w", err)
}

// matchesAny reports whether the relative path matches any pattern, either
// against the full relative path or its base name.
func matchesAny(patterns []string, rel string) bool {
	base := filepath.Base(rel)
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, rel); err == nil && ok {
			return true
		}
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
		// Directory prefix patterns like "generated/" exclude a subtree.
		if strings.HasSuffix(pattern, "/") && strings.HasPrefix(rel, pattern) {
			return true
		}
	}
	return false
}
