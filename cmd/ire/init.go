// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/ire/internal/bootstrap"
)

// initFlags holds parsed flags for the init command.
type initFlags struct {
	force, nonInteractive  bool
	projectID, format      string
	databaseName, biosColl string
}

// runInit executes the 'init' CLI command, creating a .ire/project.yaml
// configuration file and the local data directory.
//
// Flags:
//   - --force: Overwrite existing configuration (default: false)
//   - -y: Non-interactive mode, use all defaults (default: false)
//   - --project-id: Project identifier (default: directory name)
//   - --format: Default import format (ecospold2, simapro)
//   - --db-name: Default database name for imports
//   - --biosphere: Biosphere database name for elementary flow linking
//
// Examples:
//
//	ire init                           Interactive setup
//	ire init -y                        Use all defaults
//	ire init --db-name ecoinvent-3.9   Set the import database name
func runInit(args []string) {
	flags := parseInitFlags(args)

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get current directory: %v\n", err)
		os.Exit(1)
	}

	configPath := ConfigPath(cwd)
	if _, err := os.Stat(configPath); err == nil && !flags.force {
		fmt.Fprintf(os.Stderr, "Error: %s already exists. Use --force to overwrite.\n", configPath)
		os.Exit(1)
	}

	cfg := createInitConfig(cwd, flags)

	if !flags.nonInteractive {
		runInteractiveConfig(bufio.NewReader(os.Stdin), cfg)
	}

	saveInitConfig(cwd, configPath, cfg)

	if _, err := bootstrap.InitProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
	}, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot initialize data directory: %v\n", err)
		os.Exit(1)
	}

	printNextSteps()
}

func parseInitFlags(args []string) initFlags {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var f initFlags
	fs.BoolVar(&f.force, "force", false, "Overwrite existing configuration")
	fs.BoolVar(&f.nonInteractive, "y", false, "Non-interactive mode (use defaults)")
	fs.StringVar(&f.projectID, "project-id", "", "Project identifier")
	fs.StringVar(&f.format, "format", "", "Default import format (ecospold2, simapro)")
	fs.StringVar(&f.databaseName, "db-name", "", "Default database name for imports")
	fs.StringVar(&f.biosColl, "biosphere", "", "Biosphere database name for elementary flow linking")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ire init [options]

Creates .ire/project.yaml configuration file and the local data directory.

Examples:
  ire init -y                           # Non-interactive with defaults
  ire init --db-name ecoinvent-3.9      # Set default import database name
  ire init --format simapro             # Default to SimaPro exports

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	return f
}

func createInitConfig(cwd string, f initFlags) *Config {
	pid := f.projectID
	if pid == "" {
		pid = filepath.Base(cwd)
	}
	cfg := DefaultConfig(pid)
	if f.format != "" {
		cfg.Import.Format = f.format
	}
	if f.databaseName != "" {
		cfg.Import.DatabaseName = f.databaseName
	}
	if f.biosColl != "" {
		cfg.Import.BiosphereDatabase = f.biosColl
	}
	return cfg
}

func runInteractiveConfig(reader *bufio.Reader, cfg *Config) {
	fmt.Println("ire Project Configuration")
	fmt.Println("=========================")
	fmt.Println()

	cfg.ProjectID = prompt(reader, "Project ID", cfg.ProjectID)

	fmt.Println()
	fmt.Println("Import formats: ecospold2, simapro")
	cfg.Import.Format = prompt(reader, "Default import format", cfg.Import.Format)
	cfg.Import.DatabaseName = prompt(reader, "Database name for imports", cfg.Import.DatabaseName)
	cfg.Import.BiosphereDatabase = prompt(reader, "Biosphere database (empty to skip)", cfg.Import.BiosphereDatabase)
	fmt.Println()
}

func saveInitConfig(cwd, configPath string, cfg *Config) {
	ireDir := ConfigDir(cwd)
	if err := os.MkdirAll(ireDir, 0750); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot create .ire directory: %v\n", err)
		os.Exit(1)
	}
	if err := SaveConfig(cfg, configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot save configuration: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created %s\n", configPath)
	addToGitignore(cwd)
}

func printNextSteps() {
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. Review and edit .ire/project.yaml if needed")
	fmt.Println("  2. Run 'ire import <path>' to import a database")
	fmt.Println("  3. Run 'ire status' to verify the inventory")
}

// prompt displays an interactive prompt and reads user input from stdin.
//
// If the user presses Enter without providing input, the defaultValue is
// returned.
func prompt(reader *bufio.Reader, label, defaultValue string) string {
	if defaultValue != "" {
		fmt.Printf("%s [%s]: ", label, defaultValue)
	} else {
		fmt.Printf("%s: ", label)
	}

	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)

	if input == "" {
		return defaultValue
	}
	return input
}

// addToGitignore adds .ire/ to the project's .gitignore file if not already
// present. If .gitignore does not exist or cannot be modified, the function
// silently returns.
func addToGitignore(dir string) {
	gitignorePath := filepath.Join(dir, ".gitignore")

	content, err := os.ReadFile(gitignorePath) //nolint:gosec // G304: gitignorePath built from project dir
	if err != nil {
		return
	}

	// Check if .ire/ is already in .gitignore
	lines := strings.Split(string(content), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == ".ire/" || line == ".ire" || line == "/.ire/" || line == "/.ire" {
			return // Already present
		}
	}

	f, err := os.OpenFile(gitignorePath, os.O_APPEND|os.O_WRONLY, 0600) //nolint:gosec // G304: gitignorePath built from project dir
	if err != nil {
		return
	}
	defer func() { _ = f.Close() }()

	// Add newline if file doesn't end with one
	if len(content) > 0 && content[len(content)-1] != '\n' {
		_, _ = f.WriteString("\n")
	}

	_, _ = f.WriteString("\n# ire configuration\n.ire/\n")
	fmt.Println("Added .ire/ to .gitignore")
}
