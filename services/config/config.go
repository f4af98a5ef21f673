// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads and saves the project configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project configuration file at the repository root.
const ConfigFileName = ".forge.yaml"

// ErrNotInitialized indicates the repository has no configuration file yet.
var ErrNotInitialized = errors.New("config: not initialized, run 'forge init' first")

// AISection holds generation backend settings from the config file.
// API keys never live here; they come from the environment only.
type AISection struct {
	Provider    string   `mapstructure:"provider" yaml:"provider,omitempty"`
	Model       string   `mapstructure:"model" yaml:"model,omitempty"`
	Temperature *float32 `mapstructure:"temperature" yaml:"temperature,omitempty"`
	MaxTokens   *int     `mapstructure:"max_tokens" yaml:"max_tokens,omitempty"`
}

// Config is the project configuration stored in .forge.yaml.
type Config struct {
	BaseBranch    string    `mapstructure:"base_branch" yaml:"base_branch"`
	Language      string    `mapstructure:"language" yaml:"language"`
	TestFramework string    `mapstructure:"test_framework" yaml:"test_framework"`
	TestDir       string    `mapstructure:"test_dir" yaml:"test_dir"`
	Include       []string  `mapstructure:"include" yaml:"include"`
	Exclude       []string  `mapstructure:"exclude" yaml:"exclude"`
	AI            AISection `mapstructure:"ai" yaml:"ai,omitempty"`
}

// Default returns a Config with the stock settings used by 'forge init'.
func Default() Config {
	return Config{
		BaseBranch:    "main",
		Language:      "python",
		TestFramework: "pytest",
		TestDir:       "tests/",
		Include:       []string{"src/"},
		Exclude:       []string{"venv/", "node_modules/"},
	}
}

// Load reads the configuration from repoRoot.
//
// Description:
//
//	Reads .forge.yaml through viper with FORGE_* environment overrides
//	(e.g. FORGE_BASE_BRANCH, FORGE_TEST_DIR). A missing file returns
//	ErrNotInitialized so commands can tell the user to run init.
//
// Outputs:
//   - *Config: The loaded configuration with defaults filled in.
//   - error: ErrNotInitialized, or a parse failure.
func Load(repoRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(".forge")
	v.SetConfigType("yaml")
	v.AddConfigPath(repoRoot)

	v.SetEnvPrefix("FORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := Default()
	v.SetDefault("base_branch", defaults.BaseBranch)
	v.SetDefault("language", defaults.Language)
	v.SetDefault("test_framework", defaults.TestFramework)
	v.SetDefault("test_dir", defaults.TestDir)
	v.SetDefault("include", defaults.Include)
	v.SetDefault("exclude", defaults.Exclude)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w (expected %s)", ErrNotInitialized, filepath.Join(repoRoot, ConfigFileName))
		}
		return nil, fmt.Errorf("config: reading %s: %w", ConfigFileName, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", ConfigFileName, err)
	}
	return &cfg, nil
}

// Save writes the configuration to repoRoot and keeps it out of version
// control by appending it to an existing .gitignore when absent there.
func Save(cfg *Config, repoRoot string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	path := filepath.Join(repoRoot, ConfigFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}

	gitignore := filepath.Join(repoRoot, ".gitignore")
	content, err := os.ReadFile(gitignore)
	if err != nil {
		return nil // no .gitignore, nothing to maintain
	}
	if !strings.Contains(string(content), ConfigFileName) {
		f, err := os.OpenFile(gitignore, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil
		}
		defer f.Close()
		fmt.Fprintf(f, "\n%s\n", ConfigFileName)
	}
	return nil
}

// FindRepoRoot walks upward from start looking for a .git directory.
//
// Outputs:
//   - string: Absolute repository root.
//   - error: Non-nil when no enclosing git repository exists.
func FindRepoRoot(start string) (string, error) {
	current, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("config: resolving %s: %w", start, err)
	}

	for {
		if _, err := os.Stat(filepath.Join(current, ".git")); err == nil {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", errors.New("config: not inside a git repository")
		}
		current = parent
	}
}

// DetectLanguage reports the repository's primary language. Only Python is
// recognized today; repositories without Python files fall back to python
// until more languages are supported.
func DetectLanguage(repoRoot string) string {
	if hasFilesWithExt(repoRoot, ".py") {
		return "python"
	}
	return "python"
}

func hasFilesWithExt(root, ext string) bool {
	found := false
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch d.Name() {
			case ".git", "venv", "node_modules", "__pycache__":
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasSuffix(path, ext) {
			found = true
			return filepath.SkipAll
		}
		return nil
	})
	return found
}
