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

import "strings"

// Merge appends generated test code to existing test code.
//
// Description:
//
//	Append-only: existing content is never reordered or rewritten, and no
//	duplicate detection is attempted. The boundary between the two blocks
//	is normalized to exactly one blank line regardless of how much
//	trailing or leading whitespace either side carries.
//
// Identities:
//   - Merge("", generated) == generated
//   - Merge(existing, "") == existing
func Merge(existing, generated string) string {
	if strings.TrimSpace(existing) == "" {
		return generated
	}
	if strings.TrimSpace(generated) == "" {
		return existing
	}
	return strings.TrimRight(existing, "\n") + "\n\n" + strings.TrimLeft(generated, "\n")
}

// StripFences removes markdown code fences from the start and end of code.
//
// Description:
//
//	Generation backends asked for bare code still wrap it in fenced blocks
//	often enough that this runs on every response. The opening fence may
//	carry a language tag (```python); everything through its newline is
//	dropped. A closing fence on the final line is dropped along with the
//	whitespace before it. Input that is nothing but a lone fence collapses
//	to the empty string. Code without fences passes through with only the
//	surrounding whitespace trimmed.
func StripFences(code string) string {
	code = strings.TrimSpace(code)

	if strings.HasPrefix(code, "```") {
		if idx := strings.IndexByte(code, '\n'); idx != -1 {
			code = code[idx+1:]
		} else {
			if code == "```" {
				return ""
			}
			code = strings.TrimSpace(code[3:])
		}
	}

	code = strings.TrimRight(code, " \t\r\n")
	if strings.HasSuffix(code, "```") {
		if idx := strings.LastIndexByte(code, '\n'); idx != -1 {
			code = strings.TrimRight(code[:idx], " \t\r\n")
		} else {
			code = strings.TrimSpace(code[:len(code)-3])
		}
	}

	return code
}
