// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kraklabs/ire/internal/bootstrap"
	"github.com/kraklabs/ire/internal/output"
	"github.com/kraklabs/ire/internal/ui"
	"github.com/kraklabs/ire/pkg/storage"
)

// StatusResult represents the project status for JSON output.
type StatusResult struct {
	ProjectID          string         `json:"project_id"`
	DataDir            string         `json:"data_dir"`
	Connected          bool           `json:"connected"`
	Datasets           int            `json:"datasets"`
	Exchanges          int            `json:"exchanges"`
	Parameters         int            `json:"parameters"`
	UnlinkedExchanges  int            `json:"unlinked_exchanges"`
	DatasetsByDatabase map[string]int `json:"datasets_by_database,omitempty"`
	Error              string         `json:"error,omitempty"`
	Timestamp          time.Time      `json:"timestamp"`
}

// runStatus executes the 'status' CLI command, displaying inventory statistics.
//
// It queries the local database to count stored datasets, exchanges, and
// parameters, and reports how many exchanges remain unlinked. This helps
// users verify that an import completed and judge its link coverage.
//
// Flags:
//   - --json: Output results as JSON (default: false)
//
// Examples:
//
//	ire status           Display formatted status
//	ire status --json    Output as JSON for programmatic use
func runStatus(args []string, configPath string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	jsonOutput := fs.Bool("json", false, "Output as JSON")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ire status [options]

Shows local project status.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	// Load configuration
	cfg, err := LoadConfig(configPath)
	if err != nil {
		if *jsonOutput {
			outputStatusJSON(&StatusResult{
				Connected: false,
				Error:     err.Error(),
				Timestamp: time.Now(),
			})
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	dataDir := filepath.Join(homeDir, ".ire", "data", cfg.ProjectID)

	result := &StatusResult{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
		Timestamp: time.Now(),
	}

	// Check if data directory exists
	if _, err := os.Stat(dataDir); os.IsNotExist(err) {
		result.Connected = false
		result.Error = "Project not initialized yet. Run 'ire init' first."
		if *jsonOutput {
			outputStatusJSON(result)
		} else {
			fmt.Printf("Project '%s' not initialized yet.\n", cfg.ProjectID)
			fmt.Println("Run 'ire init' and then 'ire import <path>'.")
		}
		os.Exit(0)
	}

	// Open local backend
	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
		DataDir:   dataDir,
	}, nil)
	if err != nil {
		result.Connected = false
		result.Error = fmt.Sprintf("Cannot open database: %v", err)
		if *jsonOutput {
			outputStatusJSON(result)
		} else {
			fmt.Fprintf(os.Stderr, "Error: cannot open database: %v\n", err)
		}
		os.Exit(1)
	}
	defer func() { _ = backend.Close() }()

	stats, err := backend.Stats(context.Background())
	if err != nil {
		result.Connected = true
		result.Error = err.Error()
		if *jsonOutput {
			outputStatusJSON(result)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}

	result.Connected = true
	fillStatusCounts(result, stats)

	if *jsonOutput {
		outputStatusJSON(result)
	} else {
		printLocalStatus(result)
	}
}

func fillStatusCounts(result *StatusResult, stats *storage.Stats) {
	result.Datasets = stats.Datasets
	result.Exchanges = stats.Exchanges
	result.Parameters = stats.Parameters
	result.UnlinkedExchanges = stats.UnlinkedExchanges
	if len(stats.DatasetsByDatabase) > 0 {
		result.DatasetsByDatabase = stats.DatasetsByDatabase
	}
}

// outputStatusJSON writes the status result as formatted JSON to stdout.
func outputStatusJSON(result *StatusResult) {
	_ = output.JSON(result)
}

// printLocalStatus prints the status result as formatted text to stdout.
//
// Displays project information and inventory counts in a human-readable
// format. This is the default output when --json is not specified.
func printLocalStatus(result *StatusResult) {
	ui.Header("ire Project Status")
	fmt.Printf("%s    %s\n", ui.Label("Project ID:"), result.ProjectID)
	fmt.Printf("%s      %s\n", ui.Label("Data Dir:"), ui.DimText(result.DataDir))
	fmt.Println()

	ui.SubHeader("Inventory:")
	fmt.Printf("  Datasets:    %s\n", ui.CountText(result.Datasets))
	fmt.Printf("  Exchanges:   %s\n", ui.CountText(result.Exchanges))
	fmt.Printf("  Parameters:  %s\n", ui.CountText(result.Parameters))
	fmt.Printf("  Unlinked:    %s\n", ui.CountText(result.UnlinkedExchanges))

	if len(result.DatasetsByDatabase) > 0 {
		fmt.Println()
		ui.SubHeader("Databases:")
		names := make([]string, 0, len(result.DatasetsByDatabase))
		for name := range result.DatasetsByDatabase {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-20s %s\n", name, ui.CountText(result.DatasetsByDatabase[name]))
		}
	}

	if result.Error != "" {
		fmt.Printf("\nWarning: %s\n", result.Error)
	}
}
