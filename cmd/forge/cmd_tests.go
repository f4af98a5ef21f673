// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/pkg/ux"
	"github.com/forgeworks/forge/services/adapters"
	"github.com/forgeworks/forge/services/config"
	"github.com/forgeworks/forge/services/gitops"
	"github.com/forgeworks/forge/services/llm"
	"github.com/forgeworks/forge/services/store"
	"github.com/forgeworks/forge/services/testgen"
)

var (
	flagUpdate      bool
	flagIncremental bool
	flagAll         bool
	flagProvider    string
	flagModel       string
	flagTemperature float32
	flagMaxTokens   int
	flagParallel    int
)

var createTestsCmd = &cobra.Command{
	Use:   "create-tests [files...]",
	Short: "Generate tests for changed source files",
	Long: `Generates tests with the configured AI backend. Without arguments the
files changed since the base branch are targeted; pass file paths to target
them explicitly, or --all for every source file.

Files that already have tests are skipped unless --update (regenerate the
whole file) or --incremental (generate only for functions the existing
tests never reference, appending the result) is given.`,
	RunE: runCreateTests,
}

var runTestsCmd = &cobra.Command{
	Use:   "run-tests",
	Short: "Run the project's test suite",
	Args:  cobra.NoArgs,
	RunE:  runRunTests,
}

func init() {
	createTestsCmd.Flags().BoolVar(&flagUpdate, "update", false, "regenerate existing test files")
	createTestsCmd.Flags().BoolVar(&flagIncremental, "incremental", false, "only generate tests for untested functions")
	createTestsCmd.Flags().BoolVar(&flagAll, "all", false, "target every source file, not just changed ones")
	createTestsCmd.Flags().StringVar(&flagProvider, "provider", "", "AI provider (openai, gemini)")
	createTestsCmd.Flags().StringVar(&flagModel, "model", "", "model name")
	createTestsCmd.Flags().Float32Var(&flagTemperature, "temperature", -1, "sampling temperature")
	createTestsCmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "completion token limit")
	createTestsCmd.Flags().IntVar(&flagParallel, "parallel", 1, "concurrent backend calls")

	rootCmd.AddCommand(createTestsCmd, runTestsCmd)
}

func runCreateTests(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	adapter, err := adapters.ForLanguage(ws.Config.Language)
	if err != nil {
		return err
	}

	overrides := config.AIOverrides{Provider: flagProvider, Model: flagModel}
	if cmd.Flags().Changed("temperature") {
		overrides.Temperature = &flagTemperature
	}
	if cmd.Flags().Changed("max-tokens") {
		overrides.MaxTokens = &flagMaxTokens
	}
	resolved := config.ResolveAI(ws.Config, overrides)

	client, err := llm.Resolve(resolved.Provider, resolved.Model)
	if err != nil {
		return err
	}

	files, err := targetFiles(ctx, ws, adapter, args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		ux.Info("Nothing to do: no source files changed since the base branch.")
		return nil
	}

	reqs, skipped, err := buildRequests(ws, adapter, files, flagUpdate, flagIncremental)
	if err != nil {
		return err
	}
	for _, path := range skipped {
		ux.FileStatus(path, "skipped")
	}
	if len(reqs) == 0 {
		ux.Info("All targeted files already have tests. Use --update or --incremental.")
		return nil
	}

	ux.Title(fmt.Sprintf("Generating tests for %d file(s) with %s/%s",
		len(reqs), resolved.Provider, resolved.Model))

	svc := testgen.NewService(client,
		testgen.WithParams(llm.GenerationParams{
			Temperature: resolved.Temperature,
			MaxTokens:   resolved.MaxTokens,
		}),
		testgen.WithParallelism(flagParallel),
	)

	batch, err := svc.GenerateBatch(ctx, reqs)
	if err != nil {
		return err
	}

	for _, res := range batch.Results {
		if res.Outcome == testgen.OutcomeCovered {
			ux.FileStatus(res.SourcePath, "covered")
			continue
		}
		testPath := adapter.TestFilePath(filepath.Join(ws.Root, ws.Config.TestDir), res.SourcePath)
		if err := writeTestFile(testPath, res.Tests); err != nil {
			return err
		}
		ux.FileStatus(res.SourcePath, string(res.Outcome))
	}
	for _, failure := range batch.Failures {
		ux.FileStatus(failure.SourcePath, "failed")
		ux.Muted("  " + failure.Err.Error())
	}
	ux.Summary(batch.Generated, batch.Updated, batch.Covered, len(batch.Failures))

	trackEvent(ctx, ws, "create-tests", resolved.Provider, resolved.Model, eventStatus(batch))

	if batch.AllFailed() {
		return fmt.Errorf("all %d file(s) failed", len(batch.Failures))
	}
	return nil
}

func runRunTests(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	adapter, err := adapters.ForLanguage(ws.Config.Language)
	if err != nil {
		return err
	}

	result, err := adapter.RunTests(ctx, ws.Root, ws.Config.TestDir)
	if err != nil {
		return err
	}
	fmt.Print(result.Output)

	status := store.EventStatusSuccess
	if !result.Passed {
		status = store.EventStatusFailure
	}
	trackEvent(ctx, ws, "run-tests", "", "", status)

	if !result.Passed {
		return fmt.Errorf("tests failed (exit code %d)", result.ExitCode)
	}
	ux.Success("All tests passed")
	return nil
}

// targetFiles resolves which source files to generate for: explicit args,
// everything, or the diff against the base branch.
func targetFiles(ctx context.Context, ws *workspace, adapter adapters.Adapter, args []string) ([]string, error) {
	if len(args) > 0 {
		files := make([]string, 0, len(args))
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			rel, err := filepath.Rel(ws.Root, abs)
			if err != nil || strings.HasPrefix(rel, "..") {
				return nil, fmt.Errorf("%s is outside the repository", arg)
			}
			files = append(files, rel)
		}
		return files, nil
	}

	if flagAll {
		return adapter.SourceFiles(ws.Root, ws.Config.Include, ws.Config.Exclude)
	}

	base, err := ws.baseBranch(ctx)
	if err != nil {
		return nil, err
	}
	changed, err := ws.Git.ChangedFilesSinceBase(ctx, base)
	if err != nil {
		return nil, err
	}

	sources, err := adapter.SourceFiles(ws.Root, ws.Config.Include, ws.Config.Exclude)
	if err != nil {
		return nil, err
	}
	isSource := make(map[string]struct{}, len(sources))
	for _, s := range sources {
		isSource[s] = struct{}{}
	}

	var files []string
	for _, path := range changed {
		if _, ok := isSource[filepath.FromSlash(path)]; ok {
			files = append(files, filepath.FromSlash(path))
		}
	}
	return files, nil
}

// buildRequests reads sources and existing tests from disk. Files whose
// tests exist are skipped unless update or incremental mode is set.
func buildRequests(ws *workspace, adapter adapters.Adapter, files []string, update, incremental bool) ([]testgen.FileRequest, []string, error) {
	testRoot := filepath.Join(ws.Root, ws.Config.TestDir)

	var reqs []testgen.FileRequest
	var skipped []string
	for _, rel := range files {
		source, err := os.ReadFile(filepath.Join(ws.Root, rel))
		if err != nil {
			return nil, nil, fmt.Errorf("reading %s: %w", rel, err)
		}

		existing := ""
		testPath := adapter.TestFilePath(testRoot, rel)
		if data, err := os.ReadFile(testPath); err == nil {
			existing = string(data)
		}

		if existing != "" && !update && !incremental {
			skipped = append(skipped, rel)
			continue
		}

		reqs = append(reqs, testgen.FileRequest{
			SourcePath:    rel,
			Source:        string(source),
			ExistingTests: existing,
			Incremental:   incremental,
		})
	}
	return reqs, skipped, nil
}

func writeTestFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func eventStatus(batch *testgen.BatchResult) string {
	switch {
	case batch.AllFailed():
		return store.EventStatusFailure
	case len(batch.Failures) > 0:
		return store.EventStatusPartial
	default:
		return store.EventStatusSuccess
	}
}

// trackEvent records the invocation in the dashboard database, best effort.
func trackEvent(ctx context.Context, ws *workspace, command, provider, model, status string) {
	s, closeStore := openTrackingStore()
	if s == nil {
		return
	}
	defer closeStore()

	branch := ""
	if current, err := ws.Git.CurrentBranch(ctx); err == nil {
		branch = current
	}
	s.TrackTestEvent(ctx, ws.Root, branch, command, provider, model, status)

	if branch == "" || !strings.HasPrefix(branch, gitops.BranchPrefix) {
		return
	}
	var update gitops.BranchUpdate
	switch command {
	case "create-tests":
		generated := status != store.EventStatusFailure
		update.TestsGenerated = &generated
	case "run-tests":
		passing := status == store.EventStatusSuccess
		update.TestsPassing = &passing
	default:
		return
	}
	if err := gitops.UpdateBranch(ws.Root, branch, update); err != nil {
		ux.Muted("branch metadata not updated: " + err.Error())
	}
}
