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

import "testing"

func TestNormalizeBranchName(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "my-feature", "fg/my-feature"},
		{"spaces", "My New Feature", "fg/my-new-feature"},
		{"underscores", "fix_the_bug", "fg/fix-the-bug"},
		{"special chars", "Add OAuth2.0 support!", "fg/add-oauth20-support"},
		{"already prefixed", "fg/ready", "fg/ready"},
		{"repeated separators", "a  --  b", "fg/a-b"},
		{"leading trailing hyphens", "-edge-", "fg/edge"},
		{"duplicate slashes", "fg//double", "fg/double"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizeBranchName(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("NormalizeBranchName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeBranchName_Invalid(t *testing.T) {
	for _, in := range []string{"", "!!!", "---", "   "} {
		if got, err := NormalizeBranchName(in); err == nil {
			t.Errorf("expected error for %q, got %q", in, got)
		}
	}
}

func TestValidateBranchName(t *testing.T) {
	valid := []string{"fg/my-feature", "main", "feature/nested/name", "v1.2.3"}
	for _, name := range valid {
		if !ValidateBranchName(name) {
			t.Errorf("expected %q to be valid", name)
		}
	}

	invalid := []string{"", "bad..name", "name.lock", "trailing.", "with~tilde", "with:colon", "with?mark", "with*star", "with[bracket", "back\\slash"}
	for _, name := range invalid {
		if ValidateBranchName(name) {
			t.Errorf("expected %q to be invalid", name)
		}
	}
}
