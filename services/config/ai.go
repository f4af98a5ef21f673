// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"strings"
)

// AIOverrides carries CLI flag values that beat the config file.
// Zero values mean "not set".
type AIOverrides struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// ResolvedAI is the final generation backend configuration.
type ResolvedAI struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int
}

// ResolveAI merges AI settings with the precedence CLI flag > config file >
// environment variable > default.
//
// Description:
//
//	Provider falls back through FORGE_PROVIDER and FORGE_AI_PROVIDER to
//	"openai". Model defaults per provider. Temperature defaults to 0.3
//	when nothing sets it. MaxTokens has no default; nil lets the backend
//	decide.
func ResolveAI(cfg *Config, overrides AIOverrides) ResolvedAI {
	var section AISection
	if cfg != nil {
		section = cfg.AI
	}

	provider := overrides.Provider
	if provider == "" {
		provider = section.Provider
	}
	if provider == "" {
		provider = os.Getenv("FORGE_PROVIDER")
	}
	if provider == "" {
		provider = os.Getenv("FORGE_AI_PROVIDER")
	}
	if provider == "" {
		provider = "openai"
	}

	model := overrides.Model
	if model == "" {
		model = section.Model
	}
	if model == "" {
		model = defaultModel(provider)
	}

	temperature := overrides.Temperature
	if temperature == nil {
		temperature = section.Temperature
	}
	if temperature == nil {
		t := float32(0.3)
		temperature = &t
	}

	maxTokens := overrides.MaxTokens
	if maxTokens == nil {
		maxTokens = section.MaxTokens
	}

	return ResolvedAI{
		Provider:    provider,
		Model:       model,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
}

func defaultModel(provider string) string {
	switch strings.ToLower(provider) {
	case "gemini":
		return "gemini-2.0-flash-lite"
	default:
		return "gpt-4o-mini"
	}
}
