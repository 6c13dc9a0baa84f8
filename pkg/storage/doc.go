// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package storage persists reconciled inventory data.
//
// The default backend is an embedded SQLite database (modernc.org/sqlite,
// CGO-free) holding three relations:
//
//	datasets    - process and impact-category records, keyed (database_name, code)
//	exchanges   - flows per dataset, with resolved input identity when linked
//	parameters  - named scalars per dataset
//
// The reconciliation core never talks to storage directly; the pipeline hands
// a fully or partially linked collection to a Backend at the end of a run.
package storage
