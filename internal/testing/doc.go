// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package testing provides test helpers for ire integration tests.
//
// This package wraps the embedded storage backend with schema setup and
// data seeding utilities so integration tests stay short.
//
// # Quick Start
//
// Use SetupTestBackend to create an in-memory backend with schema:
//
//	func TestMyFeature(t *testing.T) {
//	    backend := testing.SetupTestBackend(t)
//
//	    // Backend is ready with the schema initialized
//	    testing.SeedDatasets(t, backend,
//	        testing.MakeDataset("db", "a1", "steel production"))
//
//	    // Query and verify
//	    require.Equal(t, 1, testing.CountStored(t, backend))
//	}
//
// # Seeding Test Data
//
// The package provides builders for common test records:
//   - MakeDataset: A dataset with a single production exchange
//   - MakeTechnosphereExchange: An unlinked technosphere input
//   - MakeBiosphereExchange: An unlinked elementary flow
//   - SeedDatasets: Write datasets into a backend
//
// # Inspecting Test Data
//
// Helper functions for common assertions:
//   - CountStored: Number of datasets in the backend
package testing
