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
	"testing"
)

const sampleDiff = `diff --git a/src/calc.py b/src/calc.py
index 83db48f..bf269f4 100644
--- a/src/calc.py
+++ b/src/calc.py
@@ -1,2 +1,4 @@
 def add(a, b):
     return a + b
+def sub(a, b):
+    return a - b
diff --git a/src/util.py b/src/util.py
index 9daeafb..4c5fd91 100644
--- a/src/util.py
+++ b/src/util.py
@@ -1,5 +1,4 @@
 import os
-import sys
 
-def old_name():
+def new_name():
     pass
`

func TestParseFileChanges(t *testing.T) {
	changes, err := parseFileChanges(sampleDiff)
	if err != nil {
		t.Fatalf("parseFileChanges: %v", err)
	}
	if len(changes) != 2 {
		t.Fatalf("expected 2 file changes, got %d", len(changes))
	}

	calc := changes[0]
	if calc.Path != "src/calc.py" {
		t.Errorf("expected path src/calc.py, got %q", calc.Path)
	}
	if calc.Added != 2 || calc.Deleted != 0 || calc.Changed != 0 {
		t.Errorf("calc.py stats = +%d -%d ~%d, want +2 -0 ~0", calc.Added, calc.Deleted, calc.Changed)
	}
	if calc.Hunks != 1 {
		t.Errorf("expected 1 hunk for calc.py, got %d", calc.Hunks)
	}

	util := changes[1]
	if util.Path != "src/util.py" {
		t.Errorf("expected path src/util.py, got %q", util.Path)
	}
	if util.Deleted != 1 || util.Changed != 1 {
		t.Errorf("util.py stats = +%d -%d ~%d, want -1 ~1", util.Added, util.Deleted, util.Changed)
	}
}

func TestParseFileChanges_Empty(t *testing.T) {
	for _, in := range []string{"", "   \n\t"} {
		changes, err := parseFileChanges(in)
		if err != nil {
			t.Fatalf("parseFileChanges(%q): %v", in, err)
		}
		if len(changes) != 0 {
			t.Errorf("parseFileChanges(%q) = %v, want empty", in, changes)
		}
	}
}

func TestStripDiffPrefix(t *testing.T) {
	cases := []struct{ in, want string }{
		{"b/src/calc.py", "src/calc.py"},
		{"a/src/calc.py", "src/calc.py"},
		{"src/calc.py", "src/calc.py"},
		{"b/", ""},
	}
	for _, tc := range cases {
		if got := stripDiffPrefix(tc.in); got != tc.want {
			t.Errorf("stripDiffPrefix(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
