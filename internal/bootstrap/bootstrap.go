// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kraklabs/ire/pkg/storage"
)

// ProjectConfig holds configuration for initializing a project.
type ProjectConfig struct {
	// ProjectID is the logical project identifier.
	ProjectID string

	// DataDir is the directory holding the SQLite database.
	// Defaults to ~/.ire/data/<project_id>
	DataDir string
}

// ProjectInfo holds information about an initialized project.
type ProjectInfo struct {
	ProjectID string
	DataDir   string
}

// InitProject initializes a new ire project with an embedded SQLite database.
// This function is idempotent: calling it multiple times is safe.
//
// The function:
//  1. Creates the data directory if it doesn't exist
//  2. Opens the SQLite database
//  3. Creates schema tables if they don't exist
//
// Parameters:
//   - config: project configuration
//   - logger: optional logger (nil uses default)
//
// Returns:
//   - ProjectInfo: information about the initialized project
//   - error: if initialization fails
func InitProject(config ProjectConfig, logger *slog.Logger) (*ProjectInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Validate project ID
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	// Set defaults
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".ire", "data", config.ProjectID)
	}

	logger.Info("bootstrap.project.init.start",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	// Create embedded backend (handles directory creation and schema)
	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir:   config.DataDir,
		ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	defer func() { _ = backend.Close() }()

	logger.Info("bootstrap.project.init.success",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	return &ProjectInfo{
		ProjectID: config.ProjectID,
		DataDir:   config.DataDir,
	}, nil
}

// OpenProject opens an existing ire project.
// Returns the storage backend for reading and writing inventory data.
func OpenProject(config ProjectConfig, logger *slog.Logger) (*storage.EmbeddedBackend, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// Validate project ID
	if config.ProjectID == "" {
		return nil, fmt.Errorf("project_id is required")
	}

	// Set defaults
	if config.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		config.DataDir = filepath.Join(homeDir, ".ire", "data", config.ProjectID)
	}

	// Check if data directory exists
	if _, err := os.Stat(config.DataDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("project not found: %s (run 'ire init' first)", config.DataDir)
	}

	logger.Debug("bootstrap.project.open",
		"project_id", config.ProjectID,
		"data_dir", config.DataDir,
	)

	// Open embedded backend
	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		DataDir:   config.DataDir,
		ProjectID: config.ProjectID,
	})
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}

	return backend, nil
}

// ListProjects returns a list of project IDs in the default data directory.
func ListProjects() ([]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	dataDir := filepath.Join(homeDir, ".ire", "data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // No projects yet
		}
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	return projects, nil
}
