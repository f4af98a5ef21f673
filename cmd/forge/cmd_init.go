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
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeworks/forge/pkg/ux"
	"github.com/forgeworks/forge/services/config"
	"github.com/forgeworks/forge/services/gitops"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the current repository for forge",
	Long: `Creates a .forge.yaml configuration in the repository root, detects the
project language and main branch, and initializes git when missing.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	root, err := gitops.AssertGitRepo(cwd)
	if err != nil {
		runner := gitops.NewRunner(cwd)
		if err := runner.InitRepo(ctx); err != nil {
			return fmt.Errorf("git init failed: %w", err)
		}
		root = cwd
		ux.Info("Initialized empty git repository")
	}

	if _, err := config.Load(root); err == nil {
		ux.Warning(config.ConfigFileName + " already exists, leaving it unchanged")
		return nil
	}

	cfg := config.Default()
	cfg.Language = config.DetectLanguage(root)

	runner := gitops.NewRunner(root)
	if base, err := runner.DetectMainBranch(ctx); err == nil {
		cfg.BaseBranch = base
	}

	if err := config.Save(&cfg, root); err != nil {
		return err
	}

	ux.Success("Created " + config.ConfigFileName)
	ux.Info(fmt.Sprintf("Language: %s, framework: %s, base branch: %s",
		cfg.Language, cfg.TestFramework, cfg.BaseBranch))
	ux.Muted("Set OPENAI_API_KEY or GEMINI_API_KEY before generating tests.")
	return nil
}
