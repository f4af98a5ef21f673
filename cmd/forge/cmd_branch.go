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
	"github.com/forgeworks/forge/services/gitops"
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a forge working branch off the base branch",
	Long: `Normalizes the given name (lowercase, hyphens, fg/ prefix) and creates
it from the configured base branch. The branch is recorded in the working
tree registry so sync and submit know its parent.`,
	Args: cobra.ExactArgs(1),
	RunE: runBranch,
}

var switchCmd = &cobra.Command{
	Use:   "switch <name>",
	Short: "Switch to an existing branch",
	Args:  cobra.ExactArgs(1),
	RunE:  runSwitch,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Rebase the current branch onto the latest base branch",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

var branchesCmd = &cobra.Command{
	Use:   "branches",
	Short: "List branches with forge metadata",
	Args:  cobra.NoArgs,
	RunE:  runBranches,
}

func init() {
	rootCmd.AddCommand(branchCmd, switchCmd, syncCmd, branchesCmd)
}

func runBranch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := gitops.AssertNoRebase(ws.Root); err != nil {
		return err
	}

	name, err := gitops.NormalizeBranchName(args[0])
	if err != nil {
		return err
	}
	if !gitops.ValidateBranchName(name) {
		return fmt.Errorf("%q is not a valid branch name", name)
	}

	base, err := ws.baseBranch(ctx)
	if err != nil {
		return err
	}

	if err := ws.Git.CreateBranch(ctx, name, base); err != nil {
		return err
	}
	if err := gitops.RegisterBranch(ws.Root, name, base); err != nil {
		ux.Warning("branch created but not recorded: " + err.Error())
	}

	ux.Success(fmt.Sprintf("Created %s from %s", name, base))
	return nil
}

func runSwitch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	if err := gitops.AssertNoRebase(ws.Root); err != nil {
		return err
	}

	name := args[0]
	if err := ws.Git.SwitchBranch(ctx, name); err != nil {
		// Names given without the prefix still resolve to forge branches.
		if !strings.HasPrefix(name, gitops.BranchPrefix) {
			if normalized, nerr := gitops.NormalizeBranchName(name); nerr == nil {
				if serr := ws.Git.SwitchBranch(ctx, normalized); serr == nil {
					ux.Success("Switched to " + normalized)
					return nil
				}
			}
		}
		return err
	}

	ux.Success("Switched to " + name)
	return nil
}

func runSync(cmd *cobra.Command, args []string) error {
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

	base := ""
	if meta, ok := gitops.GetBranchMeta(ws.Root, current); ok {
		base = meta.Base
	}
	if base == "" {
		if base, err = ws.baseBranch(ctx); err != nil {
			return err
		}
	}

	ux.Info(fmt.Sprintf("Rebasing %s onto origin/%s", current, base))
	if err := ws.Git.SyncBranch(ctx, base); err != nil {
		return err
	}

	ux.Success("Branch is up to date with " + base)
	return nil
}

func runBranches(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	ws, err := openWorkspace()
	if err != nil {
		return err
	}

	names, err := ws.Git.ListBranches(ctx)
	if err != nil {
		return err
	}
	current, _ := ws.Git.CurrentBranch(ctx)

	for _, name := range names {
		marker := " "
		if name == current {
			marker = "*"
		}
		line := fmt.Sprintf("%s %s", marker, name)
		if meta, ok := gitops.GetBranchMeta(ws.Root, name); ok {
			line += fmt.Sprintf("  (base: %s, status: %s)", meta.Base, meta.Status)
		}
		if name == current {
			ux.Info(line)
		} else {
			ux.Muted(line)
		}
	}
	return nil
}
