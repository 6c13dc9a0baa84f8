// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// Backend is the persistence contract for reconciled inventory data.
// Implementations must be safe for concurrent use.
type Backend interface {
	// SaveDatasets writes the given datasets and their exchanges and
	// parameters. Existing rows with the same (database_name, code) are
	// replaced, so re-importing a source is idempotent.
	SaveDatasets(ctx context.Context, data []*ingestion.Dataset) error

	// Stats reports aggregate counts over the stored inventory.
	Stats(ctx context.Context) (*Stats, error)

	// Close releases the underlying resources. The backend must not be
	// used after Close returns.
	Close() error
}

// Stats summarizes the stored inventory.
type Stats struct {
	Datasets           int            `json:"datasets"`
	Exchanges          int            `json:"exchanges"`
	Parameters         int            `json:"parameters"`
	UnlinkedExchanges  int            `json:"unlinked_exchanges"`
	DatasetsByDatabase map[string]int `json:"datasets_by_database"`
}
