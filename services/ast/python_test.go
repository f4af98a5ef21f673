// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ast

import (
	"context"
	"sync"
	"testing"
)

const pythonModuleSource = `"""Small arithmetic module."""

import os
from typing import Optional


def add(a, b):
    """Add two numbers."""
    return a + b


def subtract(a, b):
    return a - b


def _helper(x):
    return x * 2


class Calculator:
    """Stateful calculator."""

    def __init__(self):
        self.total = 0

    def accumulate(self, value):
        self.total = add(self.total, value)
        return self.total

    def _reset(self):
        self.total = 0
`

func TestPythonInspector_Inventory(t *testing.T) {
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(pythonModuleSource))

	want := map[string]string{
		"add":        "",
		"subtract":   "",
		"accumulate": "Calculator",
	}

	if len(callables) != len(want) {
		t.Fatalf("expected %d callables, got %d: %v", len(want), len(callables), callables)
	}

	for _, c := range callables {
		enclosing, ok := want[c.Name]
		if !ok {
			t.Errorf("unexpected callable %q", c.Name)
			continue
		}
		if c.EnclosingType != enclosing {
			t.Errorf("callable %q: expected enclosing type %q, got %q", c.Name, enclosing, c.EnclosingType)
		}
		if c.StartLine < 1 || c.EndLine < c.StartLine {
			t.Errorf("callable %q: invalid span %d-%d", c.Name, c.StartLine, c.EndLine)
		}
	}
}

func TestPythonInspector_Inventory_ExcludesUnderscoreNames(t *testing.T) {
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(pythonModuleSource))

	for _, c := range callables {
		if c.Name == "_helper" || c.Name == "_reset" || c.Name == "__init__" {
			t.Errorf("underscore-prefixed callable %q should be excluded", c.Name)
		}
	}
}

func TestPythonInspector_Inventory_LineSpans(t *testing.T) {
	source := `def first():
    return 1


def second():
    x = 1
    return x
`
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(source))

	if len(callables) != 2 {
		t.Fatalf("expected 2 callables, got %d", len(callables))
	}

	if callables[0].Name != "first" || callables[0].StartLine != 1 || callables[0].EndLine != 2 {
		t.Errorf("first: expected span 1-2, got %v", callables[0])
	}

	if callables[1].Name != "second" || callables[1].StartLine != 5 || callables[1].EndLine != 7 {
		t.Errorf("second: expected span 5-7, got %v", callables[1])
	}
}

func TestPythonInspector_Inventory_DecoratedSpanIncludesDecorator(t *testing.T) {
	source := `import functools


@functools.cache
def cached(n):
    return n * n
`
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(source))

	if len(callables) != 1 {
		t.Fatalf("expected 1 callable, got %d: %v", len(callables), callables)
	}

	c := callables[0]
	if c.Name != "cached" {
		t.Fatalf("expected callable 'cached', got %q", c.Name)
	}
	if c.StartLine != 4 {
		t.Errorf("expected span to start at decorator line 4, got %d", c.StartLine)
	}
	if c.EndLine != 6 {
		t.Errorf("expected span to end at line 6, got %d", c.EndLine)
	}
}

func TestPythonInspector_Inventory_NestedFunctionIsFlat(t *testing.T) {
	source := `def outer():
    def inner():
        return 1
    return inner
`
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(source))

	if len(callables) != 2 {
		t.Fatalf("expected 2 callables, got %d: %v", len(callables), callables)
	}

	for _, c := range callables {
		if c.EnclosingType != "" {
			t.Errorf("callable %q: nested functions must not inherit an enclosing type, got %q", c.Name, c.EnclosingType)
		}
	}
}

func TestPythonInspector_Inventory_DecoratedMethod(t *testing.T) {
	source := `class Store:
    @classmethod
    def open(cls, path):
        return cls()
`
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(source))

	if len(callables) != 1 {
		t.Fatalf("expected 1 callable, got %d: %v", len(callables), callables)
	}

	c := callables[0]
	if c.Name != "open" || c.EnclosingType != "Store" {
		t.Errorf("expected Store.open, got %v", c)
	}
	if c.StartLine != 2 {
		t.Errorf("expected span to start at decorator line 2, got %d", c.StartLine)
	}
}

func TestPythonInspector_Inventory_MalformedSource(t *testing.T) {
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte("def broken(:\n    pass\n"))

	if len(callables) != 0 {
		t.Errorf("expected empty inventory for malformed source, got %v", callables)
	}
	if callables == nil {
		t.Error("expected empty slice, not nil")
	}
}

func TestPythonInspector_Inventory_EmptySource(t *testing.T) {
	insp := NewPythonInspector()
	callables := insp.Inventory(context.Background(), []byte(""))

	if len(callables) != 0 {
		t.Errorf("expected empty inventory for empty source, got %v", callables)
	}
}

func TestPythonInspector_Inventory_OversizedSource(t *testing.T) {
	insp := NewPythonInspector(WithMaxFileSize(16))
	callables := insp.Inventory(context.Background(), []byte("def hello():\n    return 1\n"))

	if len(callables) != 0 {
		t.Errorf("expected empty inventory for oversized source, got %v", callables)
	}
}

func TestPythonInspector_References_Imports(t *testing.T) {
	source := `import os
import os.path
import numpy as np
from mymodule import add, subtract
from helpers import multiply as mul
`
	insp := NewPythonInspector()
	refs := insp.References(context.Background(), []byte(source))

	for _, name := range []string{"os", "os.path", "numpy", "add", "subtract", "multiply"} {
		if _, ok := refs[name]; !ok {
			t.Errorf("expected reference %q, got %v", name, refs)
		}
	}

	// Local aliases are not the referenced names.
	if _, ok := refs["mul"]; ok {
		t.Error("alias 'mul' should not be recorded, only the original name")
	}
	if _, ok := refs["np"]; ok {
		t.Error("alias 'np' should not be recorded, only the module path")
	}
	if _, ok := refs["mymodule"]; ok {
		t.Error("from-import module path should not be recorded")
	}
}

func TestPythonInspector_References_Calls(t *testing.T) {
	source := `def test_add():
    result = add(1, 2)
    assert result == calc.expected(3)
    verify(normalize(result))
`
	insp := NewPythonInspector()
	refs := insp.References(context.Background(), []byte(source))

	for _, name := range []string{"add", "expected", "verify", "normalize"} {
		if _, ok := refs[name]; !ok {
			t.Errorf("expected reference %q, got %v", name, refs)
		}
	}

	if _, ok := refs["calc"]; ok {
		t.Error("attribute receiver 'calc' should not be recorded")
	}
}

func TestPythonInspector_References_ChainedReceiverSkipped(t *testing.T) {
	source := `def check():
    obj.inner.method()
`
	insp := NewPythonInspector()
	refs := insp.References(context.Background(), []byte(source))

	if _, ok := refs["method"]; ok {
		t.Error("attribute call with non-identifier receiver should not be recorded")
	}
}

func TestPythonInspector_References_MalformedSource(t *testing.T) {
	insp := NewPythonInspector()
	refs := insp.References(context.Background(), []byte("from import ???\n"))

	if len(refs) != 0 {
		t.Errorf("expected empty reference set for malformed source, got %v", refs)
	}
	if refs == nil {
		t.Error("expected empty map, not nil")
	}
}

func TestPythonInspector_ConcurrentUse(t *testing.T) {
	insp := NewPythonInspector()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			callables := insp.Inventory(context.Background(), []byte(pythonModuleSource))
			if len(callables) != 3 {
				t.Errorf("expected 3 callables, got %d", len(callables))
			}
			refs := insp.References(context.Background(), []byte(pythonModuleSource))
			if _, ok := refs["add"]; !ok {
				t.Error("expected reference 'add'")
			}
		}()
	}
	wg.Wait()
}
