// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast extracts callable inventories and reference sets from source
// documents using tree-sitter.
//
// The package performs lexical/structural extraction only. It does not
// resolve types, scopes, or aliases, and it never fails hard on malformed
// input: a document that cannot be parsed yields an empty inventory or an
// empty reference set so that batch callers are never interrupted by a
// single bad file.
package ast

import (
	"context"
	"fmt"
)

const (
	// DefaultMaxFileSize is the maximum source size accepted by inspectors (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024

	// WarnFileSize triggers a slog warning for unusually large inputs (1MB).
	WarnFileSize = 1 * 1024 * 1024

	// MaxTraversalDepth bounds recursive tree walks to protect against
	// pathologically nested input.
	MaxTraversalDepth = 100
)

// Callable identifies one public callable definition in a source document.
//
// Description:
//
//	A Callable is a transient view over a specific in-memory document
//	snapshot: it is created fresh on every inventory pass, never mutated,
//	and never persisted. It becomes stale the instant the document text
//	changes.
//
// Invariants:
//   - Name is non-empty and does not begin with an underscore.
//   - StartLine and EndLine are 1-indexed, inclusive, EndLine >= StartLine.
//   - EnclosingType is set only for callables nested directly inside a
//     class definition; functions nested inside another function body do
//     not inherit the outer context.
type Callable struct {
	// Name is the callable's identifier as it appears in source.
	Name string `json:"name"`

	// StartLine is the 1-indexed line where the definition starts.
	// For decorated definitions this is the first decorator line.
	StartLine int `json:"start_line"`

	// EndLine is the 1-indexed line where the definition body ends.
	EndLine int `json:"end_line"`

	// EnclosingType is the containing class name for methods.
	// Empty for free functions.
	EnclosingType string `json:"enclosing_type,omitempty"`
}

// String returns a human-readable representation of the callable.
//
// Format: "name:start-end" or "Class.name:start-end" for methods.
func (c Callable) String() string {
	if c.EnclosingType != "" {
		return fmt.Sprintf("%s.%s:%d-%d", c.EnclosingType, c.Name, c.StartLine, c.EndLine)
	}
	return fmt.Sprintf("%s:%d-%d", c.Name, c.StartLine, c.EndLine)
}

// Inspector is the contract for language-specific callable extraction.
//
// Description:
//
//	Implementations walk a document's syntax tree and report public
//	callable definitions (Inventory) and names the document appears to
//	exercise (References). Both operations are pure functions of the
//	input bytes and degrade to empty results on malformed input.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use. Each call creates
//	its own tree-sitter parser instance internally.
type Inspector interface {
	// Inventory returns the public callable definitions in source order.
	// Malformed input yields an empty slice, never an error.
	Inventory(ctx context.Context, content []byte) []Callable

	// References returns the set of bare names the document appears to
	// invoke or import. Malformed input yields an empty set.
	References(ctx context.Context, content []byte) map[string]struct{}

	// Language returns the canonical language name, e.g. "python".
	Language() string

	// Extensions returns the file extensions this inspector handles.
	Extensions() []string
}
