// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package testgen orchestrates test regeneration: it decides per file
// whether a backend call is needed, builds the prompt, and sanitizes and
// merges the response into the existing test document.
package testgen

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/forgeworks/forge/services/ast"
	"github.com/forgeworks/forge/services/coverage"
	"github.com/forgeworks/forge/services/llm"
)

// Outcome classifies what Generate did for one file.
type Outcome string

const (
	// OutcomeGenerated means a test file was produced where none existed.
	OutcomeGenerated Outcome = "generated"

	// OutcomeUpdated means new tests were merged into an existing file.
	OutcomeUpdated Outcome = "updated"

	// OutcomeCovered means every public callable already had reference
	// evidence and no backend call was made.
	OutcomeCovered Outcome = "covered"
)

// FileRequest describes one source file to generate tests for.
type FileRequest struct {
	// SourcePath is used in prompts and results. Never read from disk here.
	SourcePath string

	// Source is the full source document text.
	Source string

	// ExistingTests is the current test document text, empty if none.
	ExistingTests string

	// Incremental requests coverage-diff mode: only untested callables are
	// sent to the backend and the response is appended to ExistingTests.
	Incremental bool
}

// FileResult is the outcome of Generate for one file.
type FileResult struct {
	SourcePath string

	// Tests is the full test document to write. For OutcomeCovered it is
	// the unchanged existing content.
	Tests string

	Outcome Outcome

	// Untested lists the callable names sent to the backend in incremental
	// mode. Empty in full mode.
	Untested []string
}

// Option configures a Service.
type Option func(*Service)

// WithParams sets the generation parameters sent with every backend call.
func WithParams(params llm.GenerationParams) Option {
	return func(s *Service) { s.params = params }
}

// WithInspector replaces the language inspector.
func WithInspector(insp ast.Inspector) Option {
	return func(s *Service) { s.inspector = insp }
}

// WithParallelism bounds concurrent backend calls in GenerateBatch.
// Values below 1 are ignored; the default is sequential.
func WithParallelism(n int) Option {
	return func(s *Service) {
		if n >= 1 {
			s.parallelism = n
		}
	}
}

// Service generates test documents through a chat-completion backend.
//
// Description:
//
//	Service owns the full regeneration flow. In full mode the whole source
//	file is sent and the response replaces the test document. In
//	incremental mode the inventory of the source is diffed against the
//	reference set of the existing tests and only the untested spans are
//	sent; the sanitized response is appended to the existing document.
//
// Thread Safety:
//
//	Service is safe for concurrent use once constructed.
type Service struct {
	client      llm.Client
	inspector   ast.Inspector
	params      llm.GenerationParams
	parallelism int
}

// NewService creates a Service using the given backend client.
func NewService(client llm.Client, opts ...Option) *Service {
	s := &Service{
		client:      client,
		inspector:   ast.NewPythonInspector(),
		parallelism: 1,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate produces the test document for one source file.
//
// Description:
//
//	Incremental mode with existing tests short-circuits before any backend
//	call when nothing is untested: the result carries OutcomeCovered and
//	the existing content unchanged. Incremental mode without existing
//	tests degrades to full mode, since the coverage diff would be the
//	whole inventory anyway.
//
// Outputs:
//   - *FileResult: Never nil on success.
//   - error: Backend or empty-response failures, wrapped with the source path.
func (s *Service) Generate(ctx context.Context, req FileRequest) (*FileResult, error) {
	if req.Incremental && strings.TrimSpace(req.ExistingTests) != "" {
		return s.generateIncremental(ctx, req)
	}
	return s.generateFull(ctx, req)
}

func (s *Service) generateFull(ctx context.Context, req FileRequest) (*FileResult, error) {
	prompt := buildFilePrompt(req.SourcePath, req.Source)

	raw, err := s.client.Generate(ctx, prompt, s.params)
	if err != nil {
		return nil, fmt.Errorf("testgen: generating tests for %s: %w", req.SourcePath, err)
	}

	tests := coverage.StripFences(raw)
	if tests == "" {
		return nil, fmt.Errorf("testgen: backend returned empty test code for %s", req.SourcePath)
	}

	outcome := OutcomeGenerated
	if req.ExistingTests != "" {
		outcome = OutcomeUpdated
	}

	slog.Info("generated tests",
		slog.String("file", req.SourcePath),
		slog.String("outcome", string(outcome)),
		slog.Int("test_len", len(tests)))

	return &FileResult{
		SourcePath: req.SourcePath,
		Tests:      tests,
		Outcome:    outcome,
	}, nil
}

func (s *Service) generateIncremental(ctx context.Context, req FileRequest) (*FileResult, error) {
	inventory := s.inspector.Inventory(ctx, []byte(req.Source))
	refs := s.inspector.References(ctx, []byte(req.ExistingTests))
	untested := coverage.Untested(inventory, refs)

	if len(untested) == 0 {
		slog.Debug("all public callables covered, skipping backend call",
			slog.String("file", req.SourcePath))
		return &FileResult{
			SourcePath: req.SourcePath,
			Tests:      req.ExistingTests,
			Outcome:    OutcomeCovered,
		}, nil
	}

	names := make([]string, 0, len(untested))
	for _, c := range untested {
		names = append(names, c.Name)
	}

	snippet := coverage.Slice(req.Source, untested)
	if strings.TrimSpace(snippet) == "" {
		return &FileResult{
			SourcePath: req.SourcePath,
			Tests:      req.ExistingTests,
			Outcome:    OutcomeCovered,
		}, nil
	}

	prompt := buildFunctionPrompt(req.SourcePath, snippet, names)

	raw, err := s.client.Generate(ctx, prompt, s.params)
	if err != nil {
		return nil, fmt.Errorf("testgen: generating tests for %s: %w", req.SourcePath, err)
	}

	generated := coverage.StripFences(raw)
	if generated == "" {
		return nil, fmt.Errorf("testgen: backend returned empty test code for %s", req.SourcePath)
	}

	slog.Info("generated incremental tests",
		slog.String("file", req.SourcePath),
		slog.Int("untested", len(names)))

	return &FileResult{
		SourcePath: req.SourcePath,
		Tests:      coverage.Merge(req.ExistingTests, generated),
		Outcome:    OutcomeUpdated,
		Untested:   names,
	}, nil
}

// FileFailure pairs a source path with the error that stopped it.
type FileFailure struct {
	SourcePath string
	Err        error
}

// BatchResult aggregates GenerateBatch outcomes.
type BatchResult struct {
	Results  []*FileResult
	Failures []FileFailure

	Generated int
	Updated   int
	Covered   int
}

// AllFailed reports whether no file completed.
func (b *BatchResult) AllFailed() bool {
	return len(b.Results) == 0 && len(b.Failures) > 0
}

// GenerateBatch runs Generate over every request.
//
// Description:
//
//	One file failing does not stop the batch; its error is collected and
//	the remaining files still complete. Backend calls run with at most the
//	configured parallelism (default sequential). Results preserve request
//	order.
//
// Outputs:
//   - *BatchResult: Per-file results, failures, and outcome counts. Never nil.
//   - error: Only a canceled context; per-file errors live in Failures.
func (s *Service) GenerateBatch(ctx context.Context, reqs []FileRequest) (*BatchResult, error) {
	results := make([]*FileResult, len(reqs))
	failures := make([]FileFailure, 0)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)

	for i, req := range reqs {
		i, req := i, req
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Generate(gctx, req)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				slog.Error("test generation failed",
					slog.String("file", req.SourcePath),
					slog.String("error", err.Error()))
				failures = append(failures, FileFailure{SourcePath: req.SourcePath, Err: err})
				return nil
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("testgen: batch canceled: %w", err)
	}

	batch := &BatchResult{Failures: failures}
	for _, res := range results {
		if res == nil {
			continue
		}
		batch.Results = append(batch.Results, res)
		switch res.Outcome {
		case OutcomeGenerated:
			batch.Generated++
		case OutcomeUpdated:
			batch.Updated++
		case OutcomeCovered:
			batch.Covered++
		}
	}
	return batch, nil
}
