// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// forge is the CLI for incremental AI test generation on feature branches.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/forgeworks/forge/pkg/ux"
)

var (
	verbose   bool
	plainMode bool
	logPath   string
)

var rootCmd = &cobra.Command{
	Use:   "forge",
	Short: "Generate and maintain AI-written tests on isolated branches",
	Long: `forge keeps test generation incremental: it inventories the public
functions of each source file, infers which ones the existing tests already
reference, and only asks the AI backend for the gap. Generated tests land on
fg/ prefixed branches so the main branch stays untouched until review.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if plainMode {
			ux.SetPlain(true)
		}
		configureLogger()
	},
}

// configureLogger routes slog to a rotating file so CLI output stays clean.
func configureLogger() {
	path := logPath
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		path = filepath.Join(home, ".forge", "forge.log")
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     14,
		Compress:   true,
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     level,
	})
	slog.SetDefault(slog.New(handler))
}

func main() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&plainMode, "plain", false, "disable styled terminal output")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "log file path (default ~/.forge/forge.log)")

	if err := rootCmd.Execute(); err != nil {
		ux.Error(err.Error())
		os.Exit(1)
	}
}
