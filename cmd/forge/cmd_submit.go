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
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/pkg/ux"
	"github.com/forgeworks/forge/services/adapters"
	"github.com/forgeworks/forge/services/gitops"
)

var (
	flagSkipTests     bool
	flagCommitMessage string
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Commit and push the current forge branch",
	Long: `Runs the test suite, commits the generated tests, and pushes the branch
to origin. Refuses to run on the base branch or with a rebase in progress.`,
	Args: cobra.NoArgs,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&flagSkipTests, "skip-tests", false, "push without running the test suite")
	submitCmd.Flags().StringVarP(&flagCommitMessage, "message", "m", "", "commit message")
	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := gitops.AssertNoRebase(ws.Root); err != nil {
		return err
	}

	current, err := ws.Git.CurrentBranch(ctx)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(current, gitops.BranchPrefix) {
		return fmt.Errorf("submit only runs on %s branches, current branch is %s",
			gitops.BranchPrefix, current)
	}

	if !flagSkipTests {
		adapter, err := adapters.ForLanguage(ws.Config.Language)
		if err != nil {
			return err
		}
		ux.Info("Running tests before submit")
		result, err := adapter.RunTests(ctx, ws.Root, ws.Config.TestDir)
		if err != nil {
			return err
		}
		if !result.Passed {
			fmt.Print(result.Output)
			return fmt.Errorf("tests failed, fix them or use --skip-tests")
		}
		ux.Success("Tests passed")
	}

	if ws.Git.IsClean(ctx) {
		ux.Info("Nothing to commit, pushing existing commits")
	} else {
		if err := ws.Git.StageFiles(ctx, []string{ws.Config.TestDir, gitops.MetadataDir}); err != nil {
			return err
		}
		message := flagCommitMessage
		if message == "" {
			message = "Add generated tests"
		}
		if err := ws.Git.Commit(ctx, message); err != nil {
			return err
		}
		ux.Success("Committed: " + message)
	}

	if err := ws.Git.PushBranch(ctx, current); err != nil {
		return err
	}

	status := "submitted"
	if err := gitops.UpdateBranch(ws.Root, current, gitops.BranchUpdate{Status: &status}); err != nil {
		ux.Muted("branch metadata not updated: " + err.Error())
	}

	ux.Success("Pushed " + current + " to origin")
	return nil
}
