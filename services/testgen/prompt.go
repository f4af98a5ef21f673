// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package testgen

import (
	"fmt"
	"path/filepath"
	"strings"
)

// buildFilePrompt asks for tests covering a whole source file.
func buildFilePrompt(sourcePath, code string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	return fmt.Sprintf(`Generate pytest tests for the following Python file.

Rules:
- Only test public functions and methods (those not starting with _)
- Do not invent imports - only use imports that are actually in the file or standard library
- Use pytest
- Keep tests minimal and readable
- Test file should be named test_%s.py
- Import the module/function being tested correctly based on the file path
- Do not generate tests for private methods (starting with _)
- Focus on testing the public API

File: %s

`+"```python\n%s\n```"+`

Generate only the test code, without any explanations or markdown formatting.`, stem, sourcePath, code)
}

// buildFunctionPrompt asks for tests covering only the named callables,
// with their sliced definitions as context.
func buildFunctionPrompt(sourcePath, functionCode string, names []string) string {
	funcList := strings.Join(names, ", ")
	return fmt.Sprintf(`Generate pytest tests for the following functions from %s.

Functions to test: %s

Rules:
- Only test the specified functions (do not generate tests for functions not shown)
- Do not invent imports - only use imports that are actually in the file or standard library
- Use pytest
- Keep tests minimal and readable
- Import the module/function being tested correctly based on the file path
- Focus on testing the public API of these specific functions

`+"```python\n%s\n```"+`

Generate only the test code for these functions, without any explanations or markdown formatting.`, sourcePath, funcList, functionCode)
}
