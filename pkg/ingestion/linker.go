// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MissingIdentityError reports a candidate dataset that lacks the
// (database, code) identity pair required to serve as a link target.
//
// It is fatal to the linking call: the caller must assign identifiers
// upstream (for example with SetCodeByActivityHash) and retry.
type MissingIdentityError struct {
	// Dataset is the offending candidate.
	Dataset *Dataset
}

func (e *MissingIdentityError) Error() string {
	return fmt.Sprintf(
		"not all candidate datasets have database and code attributes (offender: %s)",
		recordSnapshot(e.Dataset, []string{"name", "unit", "location", "categories"}),
	)
}

// AmbiguousLinkError reports an exchange whose fingerprint matches more than
// one candidate. A silent arbitrary choice would corrupt downstream results,
// so this is a hard stop rather than a skip.
//
// The error carries the full attribute snapshot of the exchange and every
// colliding candidate so an operator can disambiguate by widening or
// narrowing the field list.
type AmbiguousLinkError struct {
	// Exchange is the exchange that matched an ambiguous fingerprint.
	Exchange *Exchange

	// Fields is the field list the fingerprint was computed over.
	Fields []string

	// Candidates are the colliding candidates recorded in the duplicates
	// registry. The first-seen candidate stays in the index, so at least one
	// competitor is not shown here.
	Candidates []*Dataset
}

func (e *AmbiguousLinkError) Error() string {
	fields := e.Fields
	if len(fields) == 0 {
		fields = DefaultFields
	}
	fields = append(append([]string{}, fields...), "filename")

	var targets []string
	for _, ds := range e.Candidates {
		targets = append(targets, recordSnapshot(ds, fields))
	}
	return fmt.Sprintf(
		"exchange in source data can't be uniquely linked to target database.\n"+
			"Problematic exchange is:\n%s\n"+
			"Possible targets include (at least one not shown):\n[%s]",
		recordSnapshot(e.Exchange, fields),
		strings.Join(targets, ",\n "),
	)
}

// recordSnapshot renders the given fields of a record for diagnostics,
// marking absent fields explicitly.
func recordSnapshot(rec Fielder, fields []string) string {
	snap := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := rec.Field(f); ok {
			snap[f] = v
		} else {
			snap[f] = "(missing)"
		}
	}
	// Filename is not part of the Fielder surface; pull it off datasets.
	if ds, ok := rec.(*Dataset); ok && ds.Filename != "" {
		snap["filename"] = ds.Filename
	}
	out, err := json.Marshal(snap)
	if err != nil {
		return fmt.Sprintf("%v", snap)
	}
	return string(out)
}

// LinkOptions configures one Link call.
type LinkOptions struct {
	// Fields is the fingerprint field subset. Empty means DefaultFields.
	Fields []string

	// Kinds restricts linking to exchanges of the listed types. Empty means
	// all exchange types.
	Kinds []ExchangeType

	// Internal uses the unlinked collection itself as the candidate pool.
	// Every record must then already carry database and code.
	Internal bool

	// Relink re-resolves exchanges that already have an input. Off by
	// default so a second pass leaves earlier links untouched.
	Relink bool
}

// Linker resolves exchange references against a candidate pool by
// fingerprint equality.
//
// A Linker is request-scoped: build one per linking call, never cache it
// across pipeline stages, because candidate pools change when earlier
// strategies assign identifiers.
type Linker struct {
	opts LinkOptions

	// index: fingerprint → identity of the first-seen candidate.
	index map[string]Key

	// duplicates: fingerprint → later candidates sharing it. The first-seen
	// candidate intentionally stays in the index so the existence check can
	// still flag ambiguity even when only one candidate mapped.
	duplicates map[string][]*Dataset
}

// NewLinker creates a linker with an empty candidate index.
func NewLinker(opts LinkOptions) *Linker {
	return &Linker{
		opts:       opts,
		index:      make(map[string]Key),
		duplicates: make(map[string][]*Dataset),
	}
}

// BuildIndex fingerprints every candidate and records its identity. It fails
// with a MissingIdentityError before any exchange is touched, so a failed
// build leaves the unlinked collection unmodified.
func (l *Linker) BuildIndex(candidates []*Dataset) error {
	for _, ds := range candidates {
		if ds.Database == "" || ds.Code == "" {
			return &MissingIdentityError{Dataset: ds}
		}
		key := ActivityHash(ds, l.opts.Fields)
		if _, seen := l.index[key]; seen {
			l.duplicates[key] = append(l.duplicates[key], ds)
			continue
		}
		l.index[key] = Key{Database: ds.Database, Code: ds.Code}
	}
	return nil
}

// Resolve walks every exchange of every unlinked dataset and sets Input where
// the fingerprint uniquely matches a candidate.
//
// An ambiguous fingerprint aborts the call with an AmbiguousLinkError before
// mutating the exchange in question; exchanges resolved earlier in the same
// call remain mutated. Callers needing all-or-nothing semantics must operate
// on a copy. Exchanges matching no candidate are left unresolved.
func (l *Linker) Resolve(unlinked []*Dataset) error {
	for _, ds := range unlinked {
		for _, exc := range ds.Exchanges {
			if !l.wants(exc) {
				continue
			}
			key := ActivityHash(exc, l.opts.Fields)
			if others, ambiguous := l.duplicates[key]; ambiguous {
				return &AmbiguousLinkError{Exchange: exc, Fields: l.opts.Fields, Candidates: others}
			}
			if target, ok := l.index[key]; ok {
				input := target
				exc.Input = &input
			}
		}
	}
	return nil
}

// wants applies the kind filter and the relink guard.
func (l *Linker) wants(exc *Exchange) bool {
	if exc.Input != nil && !l.opts.Relink {
		return false
	}
	if len(l.opts.Kinds) == 0 {
		return true
	}
	for _, kind := range l.opts.Kinds {
		if exc.Type == kind {
			return true
		}
	}
	return false
}

// Stats returns the sizes of the candidate index and duplicates registry.
func (l *Linker) Stats() (indexed, ambiguous int) {
	return len(l.index), len(l.duplicates)
}

// Link resolves exchanges in unlinked against candidates. With
// opts.Internal, candidates are ignored and the unlinked collection links
// against itself.
//
// The candidate index lives only for the duration of the call.
func Link(unlinked, candidates []*Dataset, opts LinkOptions) error {
	if opts.Internal {
		candidates = unlinked
	}
	linker := NewLinker(opts)
	if err := linker.BuildIndex(candidates); err != nil {
		return err
	}
	return linker.Resolve(unlinked)
}
