// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package bootstrap handles ire project initialization and setup.
//
// This internal package provides the core initialization logic for ire
// projects. It creates the embedded SQLite database with the required schema
// for inventory storage and ensures all prerequisites are met before the
// project can be used.
//
// # Initialization Workflow
//
// A typical workflow for setting up a new ire project:
//
//	// Initialize the project (creates database and schema)
//	info, err := bootstrap.InitProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Project initialized at: %s\n", info.DataDir)
//
//	// Later, open the project for imports and queries
//	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
//	    ProjectID: "myproject",
//	}, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Idempotency
//
// The InitProject function is idempotent: calling it multiple times on the
// same project is safe and will not corrupt existing data. This makes it
// suitable for use in scripts and automated workflows.
//
// # Configuration
//
// ProjectConfig controls the initialization behavior:
//
//   - ProjectID: Required. Logical identifier for the project.
//   - DataDir: Optional. Where to store the database. Defaults to
//     ~/.ire/data/<project_id>.
//
// # Project Discovery
//
// List existing projects in the default data directory:
//
//	projects, err := bootstrap.ListProjects()
//	for _, id := range projects {
//	    fmt.Println(id)
//	}
package bootstrap
