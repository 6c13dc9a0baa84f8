// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package extract converts vendor LCI file formats into the canonical record
// model of pkg/ingestion.
//
// Every format implements the one-operation Extractor interface, so the
// reconciliation core never branches on source format:
//
//	ex, err := extract.ForFormat("ecospold2", logger)
//	if err != nil { ... }
//	data, err := ex.Extract("datasets/")
//
// Supported formats:
//   - ecospold2: EcoSpold2 XML activity datasets (*.spold) plus the
//     IntermediateExchanges.xml / ElementaryExchanges.xml master lists
//   - simapro: SimaPro LCIA method export, delimited CSV with named
//     sections (cp1252 encoded)
//
// Extractors parse vendor uncertainty encodings into the canonical
// distribution representation and apply the demotion policy for malformed
// parameters at extraction time, exactly like the later pipeline validation
// step does.
package extract
