// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a Client for a provider. model may be empty, in which case
// the provider picks its default.
type Factory func(model string) (Client, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"openai": func(model string) (Client, error) { return NewOpenAIClient(model) },
		"gemini": func(model string) (Client, error) { return NewGeminiClient(model) },
	}
)

// Register adds or replaces a provider factory under the given name.
//
// Thread Safety: safe for concurrent use.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = factory
}

// Resolve instantiates the named provider.
//
// Description:
//
//	Provider names are case-insensitive. An unknown name returns an error
//	listing the registered providers so the caller can print a usable
//	message without consulting the registry itself.
//
// Outputs:
//   - Client: The instantiated backend.
//   - error: Non-nil for unknown providers or failed initialization.
func Resolve(provider, model string) (Client, error) {
	registryMu.RLock()
	factory, ok := registry[strings.ToLower(provider)]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q, available providers: %s",
			provider, strings.Join(AvailableProviders(), ", "))
	}

	client, err := factory(model)
	if err != nil {
		return nil, fmt.Errorf("llm: initializing provider %q: %w", provider, err)
	}
	return client, nil
}

// AvailableProviders returns the registered provider names, sorted.
func AvailableProviders() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
