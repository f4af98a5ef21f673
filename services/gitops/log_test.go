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

const sampleLog = `aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa|Alice|2025-06-01T10:00:00+00:00|Add parser
10	2	parser.go
5	0	parser_test.go
bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb|Bob|2025-06-02T11:30:00+00:00|Fix edge case | with pipe
3	1	parser.go
-	-	image.png
cccccccccccccccccccccccccccccccccccccccc|Alice|2025-06-03T09:15:00+00:00|Empty commit
`

func TestParseCommitLog(t *testing.T) {
	commits := parseCommitLog(sampleLog)

	if len(commits) != 3 {
		t.Fatalf("expected 3 commits, got %d", len(commits))
	}

	first := commits[0]
	if first.Hash != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("unexpected hash %q", first.Hash)
	}
	if first.Author != "Alice" || first.Message != "Add parser" {
		t.Errorf("unexpected header fields: %+v", first)
	}
	if first.FilesChanged != 2 || first.LinesAdded != 15 || first.LinesRemoved != 2 {
		t.Errorf("unexpected stats: %+v", first)
	}

	second := commits[1]
	if second.Message != "Fix edge case | with pipe" {
		t.Errorf("pipe in message must survive, got %q", second.Message)
	}
	// Binary files count as changed but add no line deltas.
	if second.FilesChanged != 2 || second.LinesAdded != 3 || second.LinesRemoved != 1 {
		t.Errorf("unexpected stats with binary file: %+v", second)
	}

	third := commits[2]
	if third.FilesChanged != 0 || third.LinesAdded != 0 {
		t.Errorf("empty commit must have zero stats: %+v", third)
	}
}

func TestParseCommitLog_Empty(t *testing.T) {
	if commits := parseCommitLog(""); len(commits) != 0 {
		t.Errorf("expected no commits, got %v", commits)
	}
}
