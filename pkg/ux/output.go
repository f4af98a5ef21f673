// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ux provides terminal output styling for the forge CLI.
package ux

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Forge color palette - warm ember tones.
var (
	ColorEmber   = lipgloss.Color("#FF8C42") // Primary - highlights, titles
	ColorFlame   = lipgloss.Color("#E85D26") // Interactive elements
	ColorSuccess = lipgloss.Color("#58C27A")
	ColorWarning = lipgloss.Color("#F4D03F")
	ColorError   = lipgloss.Color("#E74C3C")
	ColorMuted   = lipgloss.Color("#6C7A80")
)

// plain disables styling for non-terminal output (pipes, CI).
var plain = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())

// SetPlain forces plain output on or off. Used by the --plain flag.
func SetPlain(v bool) { plain = v }

// Styles provides pre-configured lipgloss styles.
var Styles = struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorEmber),
	Bold:    lipgloss.NewStyle().Bold(true),
	Muted:   lipgloss.NewStyle().Foreground(ColorMuted),
	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
}

// Title prints a styled title line.
func Title(text string) {
	if plain {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Title.Render(text))
}

// Success prints a success message with a checkmark.
func Success(text string) {
	if plain {
		fmt.Printf("OK: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Success.Render("✓"), text)
}

// Warning prints a warning message.
func Warning(text string) {
	if plain {
		fmt.Fprintf(os.Stderr, "WARN: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Warning.Render("⚠"), Styles.Warning.Render(text))
}

// Error prints an error message.
func Error(text string) {
	if plain {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Error.Render("✗"), Styles.Error.Render(text))
}

// Info prints an informational message.
func Info(text string) {
	if plain {
		fmt.Println(text)
		return
	}
	fmt.Printf("%s %s\n", Styles.Muted.Render("│"), text)
}

// Muted prints secondary text.
func Muted(text string) {
	if plain {
		fmt.Println(text)
		return
	}
	fmt.Println(Styles.Muted.Render(text))
}

// FileStatus prints a file with its processing status.
func FileStatus(path, status string) {
	if plain {
		fmt.Printf("%s\t%s\n", status, path)
		return
	}
	var icon string
	switch status {
	case "generated", "updated":
		icon = Styles.Success.Render("✓")
	case "covered":
		icon = Styles.Muted.Render("○")
	case "failed":
		icon = Styles.Error.Render("✗")
	default:
		icon = Styles.Muted.Render("•")
	}
	fmt.Printf("%s %s %s\n", icon, path, Styles.Muted.Render("("+status+")"))
}

// Summary prints per-outcome counts after a batch run.
func Summary(generated, updated, covered, failed int) {
	if plain {
		fmt.Printf("SUMMARY: generated=%d updated=%d covered=%d failed=%d\n",
			generated, updated, covered, failed)
		return
	}
	fmt.Printf("\n%s %s  %s %s  %s %s  %s %s\n",
		Styles.Success.Render(fmt.Sprintf("%d", generated)), Styles.Muted.Render("generated"),
		Styles.Bold.Render(fmt.Sprintf("%d", updated)), Styles.Muted.Render("updated"),
		Styles.Muted.Render(fmt.Sprintf("%d", covered)), Styles.Muted.Render("covered"),
		Styles.Error.Render(fmt.Sprintf("%d", failed)), Styles.Muted.Render("failed"),
	)
}
