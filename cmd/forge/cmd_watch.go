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
	"errors"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/pkg/ux"
	"github.com/forgeworks/forge/services/adapters"
	"github.com/forgeworks/forge/services/config"
	"github.com/forgeworks/forge/services/gitops"
	"github.com/forgeworks/forge/services/llm"
	"github.com/forgeworks/forge/services/testgen"
)

var flagWatchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch source files and regenerate tests on change",
	Long: `Watches the repository for source file changes and runs incremental
test generation for each changed file after a debounce interval. Only
functions the existing tests never reference are sent to the backend, so a
save with no new public functions costs nothing.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchDebounce, "debounce", 2*time.Second, "settle time before regenerating")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	adapter, err := adapters.ForLanguage(ws.Config.Language)
	if err != nil {
		return err
	}

	resolved := config.ResolveAI(ws.Config, config.AIOverrides{})
	client, err := llm.Resolve(resolved.Provider, resolved.Model)
	if err != nil {
		return err
	}
	svc := testgen.NewService(client, testgen.WithParams(llm.GenerationParams{
		Temperature: resolved.Temperature,
		MaxTokens:   resolved.MaxTokens,
	}))

	watcher, err := gitops.NewSourceWatcher([]string{ws.Root}, []string{".py"}, flagWatchDebounce)
	if err != nil {
		return err
	}
	defer watcher.Close()

	ux.Title("Watching " + ws.Root + " (Ctrl-C to stop)")

	err = watcher.Watch(ctx, func(files []string) {
		sources, err := adapter.SourceFiles(ws.Root, ws.Config.Include, ws.Config.Exclude)
		if err != nil {
			ux.Warning(err.Error())
			return
		}
		isSource := make(map[string]struct{}, len(sources))
		for _, s := range sources {
			isSource[filepath.Join(ws.Root, s)] = struct{}{}
		}

		for _, file := range files {
			if _, ok := isSource[file]; !ok {
				continue
			}
			rel, err := filepath.Rel(ws.Root, file)
			if err != nil {
				continue
			}
			regenerateOne(ctx, ws, adapter, svc, rel)
		}
	})
	if errors.Is(err, context.Canceled) {
		ux.Info("Watch stopped.")
		return nil
	}
	return err
}

// regenerateOne runs incremental generation for a single source file and
// reports the outcome. Watch keeps running through per-file failures.
func regenerateOne(ctx context.Context, ws *workspace, adapter adapters.Adapter, svc *testgen.Service, rel string) {
	req, err := buildRequestIncremental(ws, adapter, rel)
	if err != nil {
		ux.Warning(rel + ": " + err.Error())
		return
	}

	res, err := svc.Generate(ctx, req)
	if err != nil {
		ux.FileStatus(rel, "failed")
		ux.Muted("  " + err.Error())
		return
	}
	if res.Outcome == testgen.OutcomeCovered {
		ux.FileStatus(rel, "covered")
		return
	}

	testPath := adapter.TestFilePath(filepath.Join(ws.Root, ws.Config.TestDir), rel)
	if err := writeTestFile(testPath, res.Tests); err != nil {
		ux.Warning(rel + ": " + err.Error())
		return
	}
	ux.FileStatus(rel, string(res.Outcome))
}

// buildRequestIncremental builds a single incremental request for rel.
func buildRequestIncremental(ws *workspace, adapter adapters.Adapter, rel string) (testgen.FileRequest, error) {
	reqs, _, err := buildRequests(ws, adapter, []string{rel}, false, true)
	if err != nil {
		return testgen.FileRequest{}, err
	}
	if len(reqs) == 0 {
		return testgen.FileRequest{}, errors.New("nothing to generate")
	}
	return reqs[0], nil
}
