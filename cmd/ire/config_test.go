// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("myproject")

	if cfg.ProjectID != "myproject" {
		t.Errorf("ProjectID = %q, want %q", cfg.ProjectID, "myproject")
	}
	if cfg.Import.Format != "ecospold2" {
		t.Errorf("Import.Format = %q, want ecospold2", cfg.Import.Format)
	}
	if cfg.Import.DatabaseName != "myproject" {
		t.Errorf("Import.DatabaseName = %q, want %q", cfg.Import.DatabaseName, "myproject")
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.yaml")

	cfg := DefaultConfig("roundtrip")
	cfg.Import.Format = "simapro"
	cfg.Import.LinkFields = []string{"name", "unit", "location"}
	cfg.Import.BiosphereDatabase = "biosphere3"
	cfg.Import.DropUnlinked = true

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.ProjectID != "roundtrip" {
		t.Errorf("ProjectID = %q, want roundtrip", loaded.ProjectID)
	}
	if loaded.Import.Format != "simapro" {
		t.Errorf("Import.Format = %q, want simapro", loaded.Import.Format)
	}
	if len(loaded.Import.LinkFields) != 3 || loaded.Import.LinkFields[2] != "location" {
		t.Errorf("Import.LinkFields = %v", loaded.Import.LinkFields)
	}
	if !loaded.Import.DropUnlinked {
		t.Error("Import.DropUnlinked not preserved")
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "project.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !strings.Contains(err.Error(), "ire init") {
		t.Errorf("error should point at 'ire init', got: %v", err)
	}
}

func TestLoadConfig_MissingProjectID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte("import:\n  format: ecospold2\n"), 0600); err != nil {
		t.Fatal(err)
	}

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for missing project_id")
	}
	if !strings.Contains(err.Error(), "project_id") {
		t.Errorf("error should mention project_id, got: %v", err)
	}
}

func TestLoadConfig_InvalidDatabaseName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	content := "project_id: test\nimport:\n  database_name: \" padded \"\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for whitespace-padded database name")
	}
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.yaml")
	if err := os.WriteFile(path, []byte("project_id: [unclosed"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestConfigPath(t *testing.T) {
	if got := ConfigPath("/tmp/proj"); got != "/tmp/proj/.ire/project.yaml" {
		t.Errorf("ConfigPath = %q", got)
	}
	if got := ConfigDir("/tmp/proj"); got != "/tmp/proj/.ire" {
		t.Errorf("ConfigDir = %q", got)
	}
}
