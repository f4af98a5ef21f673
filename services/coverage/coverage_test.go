// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package coverage

import (
	"context"
	"testing"

	"github.com/forgeworks/forge/services/ast"
)

const mathSource = `def add(a, b):
    return a + b


def subtract(a, b):
    return a - b


def _helper(x):
    return x * 2
`

const mathTestSource = `from mathlib import add


def test_add():
    assert add(1, 2) == 3
`

func TestUntested_PartialCoverage(t *testing.T) {
	insp := ast.NewPythonInspector()
	ctx := context.Background()

	inventory := insp.Inventory(ctx, []byte(mathSource))
	refs := insp.References(ctx, []byte(mathTestSource))

	untested := Untested(inventory, refs)

	if len(untested) != 1 {
		t.Fatalf("expected exactly 1 untested callable, got %d: %v", len(untested), untested)
	}
	if untested[0].Name != "subtract" {
		t.Errorf("expected 'subtract' untested, got %q", untested[0].Name)
	}
}

func TestUntested_EmptyRefsReturnsFullInventory(t *testing.T) {
	inventory := []ast.Callable{
		{Name: "beta", StartLine: 5, EndLine: 7},
		{Name: "alpha", StartLine: 1, EndLine: 3},
	}

	untested := Untested(inventory, nil)

	if len(untested) != 2 {
		t.Fatalf("expected full inventory back, got %d entries", len(untested))
	}
	if untested[0].Name != "alpha" || untested[1].Name != "beta" {
		t.Errorf("expected ascending start-line order, got %v", untested)
	}
}

func TestUntested_FullCoverageReturnsEmpty(t *testing.T) {
	inventory := []ast.Callable{{Name: "add", StartLine: 1, EndLine: 2}}
	refs := ReferenceSet{"add": {}}

	untested := Untested(inventory, refs)

	if len(untested) != 0 {
		t.Errorf("expected no untested callables, got %v", untested)
	}
	if untested == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestUntested_StableForEqualStartLines(t *testing.T) {
	inventory := []ast.Callable{
		{Name: "first", StartLine: 3, EndLine: 4},
		{Name: "second", StartLine: 3, EndLine: 4},
	}

	untested := Untested(inventory, ReferenceSet{})

	if untested[0].Name != "first" || untested[1].Name != "second" {
		t.Errorf("expected input order preserved for equal lines, got %v", untested)
	}
}

func TestSlice_ByteExactSpans(t *testing.T) {
	callables := []ast.Callable{
		{Name: "add", StartLine: 1, EndLine: 2},
		{Name: "subtract", StartLine: 5, EndLine: 6},
	}

	got := Slice(mathSource, callables)
	want := "def add(a, b):\n    return a + b\n\ndef subtract(a, b):\n    return a - b"

	if got != want {
		t.Errorf("slice mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestSlice_EmptyCallables(t *testing.T) {
	if got := Slice(mathSource, nil); got != "" {
		t.Errorf("expected empty slice output, got %q", got)
	}
}

func TestSlice_SpanBeyondDocumentClamped(t *testing.T) {
	source := "line1\nline2\n"
	callables := []ast.Callable{{Name: "x", StartLine: 2, EndLine: 99}}

	if got := Slice(source, callables); got != "line2" {
		t.Errorf("expected clamped slice 'line2', got %q", got)
	}
}

func TestSliceByName_SkipsUnknownNames(t *testing.T) {
	insp := ast.NewPythonInspector()

	got := SliceByName(context.Background(), insp, mathSource, []string{"subtract", "missing", "add"})
	want := "def subtract(a, b):\n    return a - b\n\ndef add(a, b):\n    return a + b"

	if got != want {
		t.Errorf("slice mismatch:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestSliceByName_AllUnknown(t *testing.T) {
	insp := ast.NewPythonInspector()

	if got := SliceByName(context.Background(), insp, mathSource, []string{"nope"}); got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestMerge_Identities(t *testing.T) {
	if got := Merge("", "def test(): pass\n"); got != "def test(): pass\n" {
		t.Errorf("Merge(\"\", g) != g: %q", got)
	}
	if got := Merge("def test(): pass\n", ""); got != "def test(): pass\n" {
		t.Errorf("Merge(e, \"\") != e: %q", got)
	}
}

func TestMerge_BoundaryIsOneBlankLine(t *testing.T) {
	cases := []struct {
		name      string
		existing  string
		generated string
	}{
		{"no trailing newline", "def test_a(): pass", "def test_b(): pass"},
		{"single trailing newline", "def test_a(): pass\n", "def test_b(): pass"},
		{"many blank lines", "def test_a(): pass\n\n\n\n", "\n\n\ndef test_b(): pass"},
	}

	want := "def test_a(): pass\n\ndef test_b(): pass"
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Merge(tc.existing, tc.generated); got != want {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestMerge_AppendOnly(t *testing.T) {
	existing := "import pytest\n\n\ndef test_old():\n    assert True\n"
	generated := "def test_new():\n    assert False\n"

	got := Merge(existing, generated)

	if got[:len(existing)-1] != existing[:len(existing)-1] {
		t.Error("existing content must pass through unmodified")
	}
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"python tag", "```python\ndef test(): pass\n```", "def test(): pass"},
		{"py tag", "```py\ndef test(): pass\n```\n", "def test(): pass"},
		{"bare fence", "```\ndef test(): pass\n```", "def test(): pass"},
		{"no fences", "def test(): pass\n", "def test(): pass"},
		{"lone fence", "```", ""},
		{"opening only", "```python\ndef test(): pass", "def test(): pass"},
		{"surrounding whitespace", "\n\n```python\ndef test(): pass\n```   \n\n", "def test(): pass"},
		{"fence inside body kept", "```python\ns = \"```\"\nprint(s)\n```", "s = \"```\"\nprint(s)"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripFences(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}
