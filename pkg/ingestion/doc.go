// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package ingestion implements the canonical record model and the
// reconciliation core of IRE: fingerprinting, cross-dataset linking,
// uncertainty-distribution validation, and the strategy pipeline.
//
// # Data Flow
//
// Vendor extractors (see pkg/extract) produce []*Dataset in the canonical
// shape. A Pipeline then threads the collection through an ordered list of
// strategies:
//
//	data, result, err := ingestion.NewPipeline(logger,
//	    ingestion.NormalizeUnits(),
//	    ingestion.ConvertActivityParametersToList(),
//	    ingestion.AssignOnlyProductAsProduction(),
//	    ingestion.SetCodeByActivityHash(false),
//	    ingestion.LinkTechnosphereByActivityHash(nil, nil),
//	).Run(data)
//
// Each strategy takes ownership of the collection and returns a (possibly
// new) collection. A mid-pipeline failure surfaces the partially transformed
// collection of the last successful strategy; there is no rollback.
//
// # Linking
//
// Linking resolves an exchange's free-text reference to a concrete
// (database, code) pair by fingerprint equality. The candidate index is
// built fresh for every Link call and discarded afterwards; it is never
// cached across pipeline stages because earlier strategies may assign codes.
//
// Ambiguous fingerprints and candidates without identity are hard failures
// (AmbiguousLinkError, MissingIdentityError). Exchanges that match no
// candidate are left unresolved; that is normal and expected.
//
// # Uncertainty
//
// Uncertainty is a tagged variant (UncertaintyKind) carrying only the
// parameters its kind requires. Invalid distributions are never propagated:
// they are demoted to the undefined kind with the point amount as location
// and an audit note appended to the record's comment.
package ingestion
