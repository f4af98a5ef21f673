// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package coverage diffs callable inventories against reference sets and
// slices source documents by callable span. Coverage here is name-level
// evidence that a test file exercises a callable, not executed-line
// coverage.
package coverage

import (
	"context"
	"sort"

	"github.com/forgeworks/forge/services/ast"
)

// ReferenceSet is the set of names a test document appears to exercise.
type ReferenceSet = map[string]struct{}

// Untested returns the inventory entries whose names do not appear in refs.
//
// Description:
//
//	Pure name subtraction. A callable counts as covered when its bare name
//	is present in the reference set, regardless of which import or call
//	produced the evidence. The result is ordered by ascending StartLine and
//	is stable for equal lines. An empty or nil reference set yields the
//	whole inventory.
//
// Outputs:
//   - []ast.Callable: Untested callables, never nil.
func Untested(inventory []ast.Callable, refs ReferenceSet) []ast.Callable {
	untested := make([]ast.Callable, 0, len(inventory))
	for _, c := range inventory {
		if _, ok := refs[c.Name]; !ok {
			untested = append(untested, c)
		}
	}
	sort.SliceStable(untested, func(i, j int) bool {
		return untested[i].StartLine < untested[j].StartLine
	})
	return untested
}

// Slice extracts the given callables' line spans from source.
//
// Description:
//
//	Each callable contributes the byte-exact lines StartLine through
//	EndLine (1-indexed, inclusive) of the source, in the order the
//	callables are given. Snippets are joined by one blank line. Spans
//	falling outside the document are clamped; a span entirely outside
//	contributes nothing.
//
// Outputs:
//   - string: Combined snippets. Empty when callables is empty.
func Slice(source string, callables []ast.Callable) string {
	lines := splitLines(source)

	var out []byte
	first := true
	for _, c := range callables {
		start := c.StartLine
		end := c.EndLine
		if start < 1 {
			start = 1
		}
		if end > len(lines) {
			end = len(lines)
		}
		if start > end || start > len(lines) {
			continue
		}
		if !first {
			out = append(out, "\n\n"...)
		}
		first = false
		for i := start; i <= end; i++ {
			if i > start {
				out = append(out, '\n')
			}
			out = append(out, lines[i-1]...)
		}
	}
	return string(out)
}

// SliceByName extracts spans for the named callables from source.
//
// Description:
//
//	Recomputes the inventory from the source so spans always describe the
//	current text. Names that do not resolve to a public callable are
//	skipped silently; the caller asked about names that no longer exist
//	and the remaining slices are still useful. When the inventory holds
//	duplicate names the last definition wins.
//
// Inputs:
//   - ctx: Context passed through to the inspector.
//   - insp: Language inspector for the source.
//   - source: Full document text.
//   - names: Callable names to extract, in output order.
func SliceByName(ctx context.Context, insp ast.Inspector, source string, names []string) string {
	inventory := insp.Inventory(ctx, []byte(source))

	byName := make(map[string]ast.Callable, len(inventory))
	for _, c := range inventory {
		byName[c.Name] = c
	}

	selected := make([]ast.Callable, 0, len(names))
	for _, name := range names {
		if c, ok := byName[name]; ok {
			selected = append(selected, c)
		}
	}
	return Slice(source, selected)
}

// splitLines splits on '\n' without dropping empty lines. A trailing
// newline does not produce a phantom final line.
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	var lines []string
	start := 0
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			lines = append(lines, source[start:i])
			start = i + 1
		}
	}
	if start < len(source) {
		lines = append(lines, source[start:])
	}
	return lines
}
