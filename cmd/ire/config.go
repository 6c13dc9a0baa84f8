// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ire/internal/contract"
)

// Config represents the .ire/project.yaml configuration file.
type Config struct {
	// ProjectID is the logical project identifier, used to namespace the
	// local data directory.
	ProjectID string `yaml:"project_id"`

	// Import controls default behavior for 'ire import'.
	Import ImportConfig `yaml:"import"`
}

// ImportConfig holds defaults for the import command. Every field can be
// overridden by a command-line flag.
type ImportConfig struct {
	// Format is the default source format: "ecospold2" or "simapro".
	Format string `yaml:"format"`

	// DatabaseName is the name assigned to imported datasets.
	DatabaseName string `yaml:"database_name"`

	// LinkFields are the identity fields used when matching exchanges to
	// candidate datasets. Empty means the built-in default field set.
	LinkFields []string `yaml:"link_fields,omitempty"`

	// BiosphereDatabase names the flow list used to link elementary
	// exchanges. Empty disables biosphere linking.
	BiosphereDatabase string `yaml:"biosphere_database,omitempty"`

	// DropUnlinked removes exchanges that remain unresolved after all
	// linking passes instead of keeping them for inspection.
	DropUnlinked bool `yaml:"drop_unlinked"`
}

// ConfigDir returns the .ire directory path for a project rooted at dir.
func ConfigDir(dir string) string {
	return filepath.Join(dir, ".ire")
}

// ConfigPath returns the project.yaml path for a project rooted at dir.
func ConfigPath(dir string) string {
	return filepath.Join(ConfigDir(dir), "project.yaml")
}

// DefaultConfig returns a configuration with sensible defaults for the
// given project ID.
func DefaultConfig(projectID string) *Config {
	return &Config{
		ProjectID: projectID,
		Import: ImportConfig{
			Format:       "ecospold2",
			DatabaseName: projectID,
		},
	}
}

// LoadConfig reads and validates the configuration file.
//
// If path is empty, ./.ire/project.yaml is used. A missing file is an error
// directing the user to 'ire init'.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get current directory: %w", err)
		}
		path = ConfigPath(cwd)
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path supplied by the user
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no configuration found at %s (run 'ire init' first)", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%s: project_id is required", path)
	}
	if cfg.Import.DatabaseName != "" {
		if r := contract.ValidateDatabaseName(cfg.Import.DatabaseName); !r.OK {
			return nil, fmt.Errorf("%s: database_name: %s", path, r.Message)
		}
	}

	return &cfg, nil
}

// SaveConfig writes the configuration as YAML to the given path.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
