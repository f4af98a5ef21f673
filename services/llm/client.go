// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package llm provides chat-completion backends for test generation.
// Backends speak their REST APIs over raw net/http; no vendor SDKs.
package llm

import "context"

// systemPrompt is sent to every backend that supports a system role.
const systemPrompt = "You are a Python testing expert. Generate minimal, readable pytest tests."

// Client is the interface every generation backend implements.
//
// Description:
//
//	A Client sends one prompt to its backend and returns the raw text
//	response. Responses may still carry markdown fencing; callers are
//	expected to sanitize.
//
// Thread Safety:
//
//	Implementations must be safe for concurrent use.
type Client interface {
	// Generate sends the prompt and returns the backend's text response.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)

	// Name returns the provider name, e.g. "openai".
	Name() string
}

// GenerationParams controls generation behavior across backends.
// Nil fields are omitted from the request so the backend default applies.
type GenerationParams struct {
	Temperature *float32
	TopK        *int
	TopP        *float32
	MaxTokens   *int
	Stop        []string
}

// SafeLogString prepares s for inclusion in error messages and logs: known
// secret formats are redacted and the result is truncated so a large or
// hostile response body cannot flood the log stream.
func SafeLogString(s string) string {
	const maxLen = 512
	s = redactSecrets(s)
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "...(truncated)"
}

// Float32Ptr returns a pointer to v. Convenience for GenerationParams.
func Float32Ptr(v float32) *float32 { return &v }

// IntPtr returns a pointer to v. Convenience for GenerationParams.
func IntPtr(v int) *int { return &v }
