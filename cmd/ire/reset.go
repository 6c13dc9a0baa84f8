// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"
)

// runReset executes the 'reset' CLI command, deleting the local inventory
// data for the configured project.
func runReset(args []string, configPath string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	confirm := fs.Bool("yes", false, "Confirm the reset (required)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ire reset [options]

Resets the local project data, clearing all imported datasets.
This is useful before a full re-import to ensure a clean slate.

WARNING: This operation is destructive and cannot be undone!

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if !*confirm {
		fmt.Fprintf(os.Stderr, "Error: you must pass --yes to confirm the reset\n")
		fmt.Fprintf(os.Stderr, "This will delete all imported data for the project.\n")
		os.Exit(1)
	}

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Determine data directory
	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot get home directory: %v\n", err)
		os.Exit(1)
	}
	dataDir := filepath.Join(homeDir, ".ire", "data", cfg.ProjectID)

	// Check if data directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "No local data found for project %s\n", cfg.ProjectID)
		os.Exit(0)
	}

	fmt.Printf("Resetting project %s (deleting %s)...\n", cfg.ProjectID, dataDir)

	// Delete the data directory
	if err := os.RemoveAll(dataDir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to delete data: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Reset complete. All imported data has been deleted.")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  ire import <path>    Re-import your database")
}
