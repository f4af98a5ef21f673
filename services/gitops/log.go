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
	"context"
	"strconv"
	"strings"
	"time"
)

// CommitInfo is one commit with its aggregate change stats.
type CommitInfo struct {
	Hash         string
	Author       string
	Timestamp    time.Time
	Message      string
	FilesChanged int
	LinesAdded   int
	LinesRemoved int
}

// commitLogFormat separates header fields with a pipe; messages containing
// pipes are handled by limiting the split.
const commitLogFormat = "%H|%an|%ad|%s"

// CommitLog returns the commit history of a branch with numstat totals.
func (r *Runner) CommitLog(ctx context.Context, branch string) ([]CommitInfo, error) {
	out, err := r.run(ctx, "log", branch, "--pretty=format:"+commitLogFormat, "--date=iso-strict", "--numstat")
	if err != nil {
		return nil, err
	}
	return parseCommitLog(out), nil
}

// parseCommitLog parses `git log --pretty=format:%H|%an|%ad|%s --numstat`
// output. Each commit header is followed by zero or more numstat lines
// (added, removed, path separated by tabs); binary files report "-" and
// count as changed files with zero line deltas.
func parseCommitLog(out string) []CommitInfo {
	var commits []CommitInfo
	var current *CommitInfo

	flush := func() {
		if current != nil {
			commits = append(commits, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}

		if parts := strings.SplitN(line, "|", 4); len(parts) == 4 && len(parts[0]) == 40 && isHex(parts[0]) {
			flush()
			ts, err := time.Parse(time.RFC3339, parts[2])
			if err != nil {
				ts = time.Now().UTC()
			}
			current = &CommitInfo{
				Hash:      parts[0],
				Author:    parts[1],
				Timestamp: ts,
				Message:   parts[3],
			}
			continue
		}

		if current == nil {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != 3 {
			continue
		}
		added := parseStatNumber(fields[0])
		removed := parseStatNumber(fields[1])
		current.FilesChanged++
		current.LinesAdded += added
		current.LinesRemoved += removed
	}
	flush()
	return commits
}

func parseStatNumber(s string) int {
	if s == "-" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
