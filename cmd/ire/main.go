// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package main implements the ire CLI for importing life cycle inventory
// databases and reconciling their exchanges against known datasets.
//
// Usage:
//
//	ire init                      Create .ire/project.yaml configuration
//	ire import <path>             Import and link an inventory database
//	ire status [--json]           Show project status
//	ire reset --yes               Delete local inventory data
package main

import (
	"flag"
	"fmt"
	"os"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags carries output-mode flags shared by all commands.
type GlobalFlags struct {
	// JSON selects machine-readable output. Implies Quiet.
	JSON bool

	// Quiet suppresses progress bars and informational output.
	Quiet bool

	// NoColor disables ANSI colors.
	NoColor bool

	// Verbose raises log verbosity (0 = info, 1+ = debug).
	Verbose int
}

// main is the entry point for the ire CLI.
//
// It parses global flags and dispatches to command handlers.
//
// Global flags:
//   - --version: Display version information and exit
//   - --config: Path to .ire/project.yaml configuration file
//
// Commands:
//   - init: Create .ire/project.yaml configuration
//   - import: Extract, link, and store an inventory database
//   - status: Show project status
//   - reset: Reset local project data (destructive!)
func main() {
	// Global flags
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to .ire/project.yaml (default: ./.ire/project.yaml)")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ire - Inventory Reconciliation Engine

ire imports life cycle inventory databases (EcoSpold 2 datasets,
SimaPro LCIA exports), normalizes them into canonical records, and
links every exchange to the dataset that produces it using
deterministic identity hashes.

Usage:
  ire <command> [options]

Commands:
  init          Create .ire/project.yaml configuration
  import        Import and link an inventory database
  status        Show project status
  reset         Reset local project data (destructive!)

Global Options:
  --config      Path to .ire/project.yaml
  --version     Show version and exit

Examples:
  ire init                               Create configuration interactively
  ire import ./datasets                  Import with configured defaults
  ire import --format simapro lcia.csv   Import a SimaPro LCIA export
  ire import --drop-unlinked ./datasets  Discard unresolved exchanges
  ire status                             Show stored inventory counts
  ire status --json                      Output as JSON

Getting Started:
  1. Initialize configuration:  ire init
  2. Import your database:      ire import <path>
  3. Check the inventory:       ire status

Data Storage:
  Data is stored locally in ~/.ire/data/<project_id>/

Environment Variables:
  IRE_SOFT_LIMIT_BYTES  Per-file size limit for imports (default 256 MiB)
  NO_COLOR              Disable colored output

For detailed command help: ire <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ire version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs)
	case "import":
		runImport(cmdArgs, *configPath)
	case "status":
		runStatus(cmdArgs, *configPath)
	case "reset":
		runReset(cmdArgs, *configPath)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
