// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// EmbeddedBackend implements Backend on an embedded SQLite database.
// This is the default backend for standalone ire.
type EmbeddedBackend struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// EmbeddedConfig configures the embedded backend.
type EmbeddedConfig struct {
	// DataDir is the directory holding the database file.
	// Defaults to ~/.ire/data/<project_id>
	DataDir string

	// ProjectID is used to namespace the data directory.
	ProjectID string

	// InMemory opens a transient in-memory database. Used by tests.
	InMemory bool
}

const schema = `
CREATE TABLE IF NOT EXISTS datasets (
	database_name      TEXT NOT NULL,
	code               TEXT NOT NULL,
	name               TEXT NOT NULL,
	type               TEXT NOT NULL DEFAULT '',
	unit               TEXT NOT NULL DEFAULT '',
	location           TEXT NOT NULL DEFAULT '',
	categories         TEXT NOT NULL DEFAULT '',
	reference_product  TEXT NOT NULL DEFAULT '',
	production_amount  REAL NOT NULL DEFAULT 0,
	comment            TEXT NOT NULL DEFAULT '',
	filename           TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (database_name, code)
);

CREATE TABLE IF NOT EXISTS exchanges (
	dataset_database   TEXT NOT NULL,
	dataset_code       TEXT NOT NULL,
	position           INTEGER NOT NULL,
	name               TEXT NOT NULL,
	type               TEXT NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	amount             REAL NOT NULL DEFAULT 0,
	location           TEXT NOT NULL DEFAULT '',
	categories         TEXT NOT NULL DEFAULT '',
	input_database     TEXT,
	input_code         TEXT,
	uncertainty_kind   INTEGER NOT NULL DEFAULT 0,
	loc                REAL NOT NULL DEFAULT 0,
	scale              REAL,
	shape              REAL,
	minimum            REAL,
	maximum            REAL,
	comment            TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (dataset_database, dataset_code, position)
);

CREATE TABLE IF NOT EXISTS parameters (
	dataset_database   TEXT NOT NULL,
	dataset_code       TEXT NOT NULL,
	name               TEXT NOT NULL,
	unit               TEXT NOT NULL DEFAULT '',
	amount             REAL NOT NULL DEFAULT 0,
	formula            TEXT NOT NULL DEFAULT '',
	uncertainty_kind   INTEGER NOT NULL DEFAULT 0,
	loc                REAL NOT NULL DEFAULT 0,
	scale              REAL,
	minimum            REAL,
	maximum            REAL,
	comment            TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (dataset_database, dataset_code, name)
);

CREATE INDEX IF NOT EXISTS idx_exchanges_input
	ON exchanges (input_database, input_code);
`

// NewEmbeddedBackend opens (or creates) the embedded database and ensures
// the schema exists.
func NewEmbeddedBackend(config EmbeddedConfig) (*EmbeddedBackend, error) {
	var dsn string
	if config.InMemory {
		// A single pooled connection (set below) keeps the transient
		// database alive for the backend's lifetime.
		dsn = ":memory:"
	} else {
		if config.DataDir == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("get home dir: %w", err)
			}
			config.DataDir = filepath.Join(homeDir, ".ire", "data")
			if config.ProjectID != "" {
				config.DataDir = filepath.Join(config.DataDir, config.ProjectID)
			}
		}
		if err := os.MkdirAll(config.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
		dsn = "file:" + filepath.Join(config.DataDir, "inventory.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc.org/sqlite serializes writes itself; a single connection
	// avoids SQLITE_BUSY on concurrent transactions.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &EmbeddedBackend{db: db}, nil
}

// SaveDatasets writes datasets transactionally, replacing any prior rows
// with the same identity.
func (b *EmbeddedBackend) SaveDatasets(ctx context.Context, data []*ingestion.Dataset) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("backend is closed")
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, ds := range data {
		if err := saveDataset(ctx, tx, ds); err != nil {
			return fmt.Errorf("save dataset %q: %w", ds.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func saveDataset(ctx context.Context, tx *sql.Tx, ds *ingestion.Dataset) error {
	_, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO datasets
			(database_name, code, name, type, unit, location, categories,
			 reference_product, production_amount, comment, filename)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ds.Database, ds.Code, ds.Name, ds.Type, ds.Unit, ds.Location,
		joinCategories(ds.Categories), ds.ReferenceProduct,
		ds.ProductionAmount, ds.Comment, ds.Filename)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	// Replace the dataset's exchanges and parameters wholesale; partial
	// updates would leave stale rows behind after a re-import.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM exchanges WHERE dataset_database = ? AND dataset_code = ?`,
		ds.Database, ds.Code); err != nil {
		return fmt.Errorf("clear exchanges: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM parameters WHERE dataset_database = ? AND dataset_code = ?`,
		ds.Database, ds.Code); err != nil {
		return fmt.Errorf("clear parameters: %w", err)
	}

	for i, exc := range ds.Exchanges {
		var inputDB, inputCode any
		if exc.Input != nil {
			inputDB = exc.Input.Database
			inputCode = exc.Input.Code
		}
		u := exc.Uncertainty
		_, err := tx.ExecContext(ctx, `
			INSERT INTO exchanges
				(dataset_database, dataset_code, position, name, type, unit,
				 amount, location, categories, input_database, input_code,
				 uncertainty_kind, loc, scale, shape, minimum, maximum, comment)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ds.Database, ds.Code, i, exc.Name, string(exc.Type), exc.Unit,
			exc.Amount, exc.Location, joinCategories(exc.Categories),
			inputDB, inputCode,
			int(u.Kind), u.Loc, u.Scale, u.Shape, u.Minimum, u.Maximum,
			exc.Comment)
		if err != nil {
			return fmt.Errorf("insert exchange %d: %w", i, err)
		}
	}

	for _, p := range ds.Parameters {
		u := p.Uncertainty
		_, err := tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO parameters
				(dataset_database, dataset_code, name, unit, amount, formula,
				 uncertainty_kind, loc, scale, minimum, maximum, comment)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ds.Database, ds.Code, p.Name, p.Unit, p.Amount, p.Formula,
			int(u.Kind), u.Loc, u.Scale, u.Minimum, u.Maximum, p.Comment)
		if err != nil {
			return fmt.Errorf("insert parameter %q: %w", p.Name, err)
		}
	}

	return nil
}

// Stats reports aggregate counts over the stored inventory.
func (b *EmbeddedBackend) Stats(ctx context.Context) (*Stats, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	stats := &Stats{DatasetsByDatabase: make(map[string]int)}

	row := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM datasets`)
	if err := row.Scan(&stats.Datasets); err != nil {
		return nil, fmt.Errorf("count datasets: %w", err)
	}
	row = b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`)
	if err := row.Scan(&stats.Exchanges); err != nil {
		return nil, fmt.Errorf("count exchanges: %w", err)
	}
	row = b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM parameters`)
	if err := row.Scan(&stats.Parameters); err != nil {
		return nil, fmt.Errorf("count parameters: %w", err)
	}
	row = b.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM exchanges
		WHERE input_code IS NULL AND type != ?`,
		string(ingestion.Production))
	if err := row.Scan(&stats.UnlinkedExchanges); err != nil {
		return nil, fmt.Errorf("count unlinked: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT database_name, COUNT(*) FROM datasets GROUP BY database_name`)
	if err != nil {
		return nil, fmt.Errorf("group datasets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan database count: %w", err)
		}
		stats.DatasetsByDatabase[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate database counts: %w", err)
	}

	return stats, nil
}

// LoadDatasets reads back every dataset belonging to the named database,
// with exchanges in their stored order.
func (b *EmbeddedBackend) LoadDatasets(ctx context.Context, databaseName string) ([]*ingestion.Dataset, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("backend is closed")
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT database_name, code, name, type, unit, location, categories,
		       reference_product, production_amount, comment, filename
		FROM datasets WHERE database_name = ? ORDER BY code`, databaseName)
	if err != nil {
		return nil, fmt.Errorf("query datasets: %w", err)
	}
	defer rows.Close()

	var result []*ingestion.Dataset
	for rows.Next() {
		ds := &ingestion.Dataset{}
		var categories string
		if err := rows.Scan(&ds.Database, &ds.Code, &ds.Name, &ds.Type,
			&ds.Unit, &ds.Location, &categories, &ds.ReferenceProduct,
			&ds.ProductionAmount, &ds.Comment, &ds.Filename); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		ds.Categories = splitCategories(categories)
		result = append(result, ds)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate datasets: %w", err)
	}

	for _, ds := range result {
		if err := b.loadExchanges(ctx, ds); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (b *EmbeddedBackend) loadExchanges(ctx context.Context, ds *ingestion.Dataset) error {
	rows, err := b.db.QueryContext(ctx, `
		SELECT name, type, unit, amount, location, categories,
		       input_database, input_code,
		       uncertainty_kind, loc, scale, shape, minimum, maximum, comment
		FROM exchanges
		WHERE dataset_database = ? AND dataset_code = ?
		ORDER BY position`, ds.Database, ds.Code)
	if err != nil {
		return fmt.Errorf("query exchanges: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		exc := &ingestion.Exchange{}
		var excType, categories string
		var inputDB, inputCode sql.NullString
		var kind int
		var scale, shape, minimum, maximum sql.NullFloat64
		if err := rows.Scan(&exc.Name, &excType, &exc.Unit, &exc.Amount,
			&exc.Location, &categories, &inputDB, &inputCode,
			&kind, &exc.Uncertainty.Loc, &scale, &shape,
			&minimum, &maximum, &exc.Comment); err != nil {
			return fmt.Errorf("scan exchange: %w", err)
		}
		exc.Type = ingestion.ExchangeType(excType)
		exc.Categories = splitCategories(categories)
		exc.Uncertainty.Kind = ingestion.UncertaintyKind(kind)
		exc.Uncertainty.Scale = nullableFloat(scale)
		exc.Uncertainty.Shape = nullableFloat(shape)
		exc.Uncertainty.Minimum = nullableFloat(minimum)
		exc.Uncertainty.Maximum = nullableFloat(maximum)
		if inputDB.Valid && inputCode.Valid {
			exc.Input = &ingestion.Key{Database: inputDB.String, Code: inputCode.String}
		}
		ds.Exchanges = append(ds.Exchanges, exc)
	}
	return rows.Err()
}

// Close closes the underlying database.
func (b *EmbeddedBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// joinCategories flattens a category path to a single column. The "::"
// separator never appears in real category segments.
func joinCategories(categories []string) string {
	return strings.Join(categories, "::")
}

// splitCategories is the inverse of joinCategories.
func splitCategories(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "::")
}
