// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"context"
	"testing"

	"github.com/kraklabs/ire/pkg/ingestion"
	"github.com/kraklabs/ire/pkg/storage"
)

// SetupTestBackend creates an in-memory inventory backend for testing.
// The backend is automatically cleaned up when the test finishes.
//
// This helper:
//   - Initializes an in-memory SQLite backend
//   - Ensures the inventory schema is created
//   - Registers cleanup to close the backend
//
// Example:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//
//	    // Backend is ready with the schema initialized
//	    ds := testing.MakeDataset("db", "code-1", "steel production")
//	    testing.SeedDatasets(t, backend, ds)
//
//	    // Run your tests...
//	}
func SetupTestBackend(t *testing.T) *storage.EmbeddedBackend {
	t.Helper()

	backend, err := storage.NewEmbeddedBackend(storage.EmbeddedConfig{
		InMemory: true,
	})
	if err != nil {
		t.Fatalf("failed to create test backend: %v", err)
	}

	// Register cleanup
	t.Cleanup(func() {
		backend.Close()
	})

	return backend
}

// MakeDataset builds a minimal dataset with a single production exchange.
// This is a convenience helper for seeding test data.
//
// Example:
//
//	ds := testing.MakeDataset("testdb", "a1", "steel production")
func MakeDataset(database, code, name string) *ingestion.Dataset {
	return &ingestion.Dataset{
		Database:         database,
		Code:             code,
		Name:             name,
		Unit:             "kilogram",
		Location:         "GLO",
		ReferenceProduct: name,
		ProductionAmount: 1.0,
		Exchanges: []*ingestion.Exchange{
			{
				Name:        name,
				Type:        ingestion.Production,
				Unit:        "kilogram",
				Amount:      1.0,
				Uncertainty: ingestion.Undefined(1.0),
			},
		},
	}
}

// MakeTechnosphereExchange builds an unlinked technosphere exchange.
//
// Example:
//
//	exc := testing.MakeTechnosphereExchange("electricity", "kilowatt hour", 2.5)
//	ds.Exchanges = append(ds.Exchanges, exc)
func MakeTechnosphereExchange(name, unit string, amount float64) *ingestion.Exchange {
	return &ingestion.Exchange{
		Name:        name,
		Type:        ingestion.Technosphere,
		Unit:        unit,
		Amount:      amount,
		Uncertainty: ingestion.Undefined(amount),
	}
}

// MakeBiosphereExchange builds an unlinked biosphere exchange.
//
// Example:
//
//	exc := testing.MakeBiosphereExchange("carbon dioxide", []string{"air"}, 1.8)
func MakeBiosphereExchange(name string, categories []string, amount float64) *ingestion.Exchange {
	return &ingestion.Exchange{
		Name:        name,
		Type:        ingestion.Biosphere,
		Unit:        "kilogram",
		Amount:      amount,
		Categories:  categories,
		Uncertainty: ingestion.Undefined(amount),
	}
}

// SeedDatasets writes datasets into the backend, failing the test on error.
//
// Example:
//
//	backend := testing.SetupTestBackend(t)
//	testing.SeedDatasets(t, backend,
//	    testing.MakeDataset("db", "a1", "steel production"),
//	    testing.MakeDataset("db", "a2", "electricity production"),
//	)
func SeedDatasets(t *testing.T, backend *storage.EmbeddedBackend, data ...*ingestion.Dataset) {
	t.Helper()

	if err := backend.SaveDatasets(context.Background(), data); err != nil {
		t.Fatalf("failed to seed datasets: %v", err)
	}
}

// CountStored returns the stored dataset count, failing the test on error.
//
// Example:
//
//	if got := testing.CountStored(t, backend); got != 2 {
//	    t.Errorf("stored %d datasets, want 2", got)
//	}
func CountStored(t *testing.T, backend *storage.EmbeddedBackend) int {
	t.Helper()

	stats, err := backend.Stats(context.Background())
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	return stats.Datasets
}
