// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// TestSetupTestBackend verifies the test backend is created correctly.
func TestSetupTestBackend(t *testing.T) {
	backend := SetupTestBackend(t)

	// Backend should not be nil
	require.NotNil(t, backend)

	// Should be able to query (schema should exist)
	assert.Equal(t, 0, CountStored(t, backend), "Should start with no datasets")
}

// TestMakeDataset verifies the dataset builder produces a valid record.
func TestMakeDataset(t *testing.T) {
	ds := MakeDataset("testdb", "a1", "steel production")

	assert.Equal(t, "testdb", ds.Database)
	assert.Equal(t, "a1", ds.Code)
	assert.Equal(t, "steel production", ds.Name)
	require.Len(t, ds.Exchanges, 1)
	assert.Equal(t, ingestion.Production, ds.Exchanges[0].Type)
}

// TestSeedDatasets verifies seeding and counting round-trip.
func TestSeedDatasets(t *testing.T) {
	backend := SetupTestBackend(t)

	SeedDatasets(t, backend,
		MakeDataset("db", "a1", "steel production"),
		MakeDataset("db", "a2", "electricity production"),
	)

	assert.Equal(t, 2, CountStored(t, backend))
}

// TestExchangeBuilders verifies the exchange helpers are unlinked by default.
func TestExchangeBuilders(t *testing.T) {
	tech := MakeTechnosphereExchange("electricity", "kilowatt hour", 2.5)
	assert.Equal(t, ingestion.Technosphere, tech.Type)
	assert.Nil(t, tech.Input, "builder exchanges start unlinked")
	assert.Equal(t, ingestion.UndefinedUncertainty, tech.Uncertainty.Kind)

	bio := MakeBiosphereExchange("carbon dioxide", []string{"air"}, 1.8)
	assert.Equal(t, ingestion.Biosphere, bio.Type)
	assert.Equal(t, []string{"air"}, bio.Categories)
}

// TestBackendIsolation verifies each test gets an isolated backend.
func TestBackendIsolation(t *testing.T) {
	// Create first backend and add data
	backend1 := SetupTestBackend(t)
	SeedDatasets(t, backend1, MakeDataset("db", "a1", "steel production"))

	// Create second backend - should be empty
	backend2 := SetupTestBackend(t)
	assert.Equal(t, 0, CountStored(t, backend2), "Second backend should be isolated from first")

	// Verify first backend still has data
	assert.Equal(t, 1, CountStored(t, backend1))

	// Both backends remain usable
	stats, err := backend1.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DatasetsByDatabase["db"])
}
