// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"errors"
	"strings"
	"testing"
)

func candidate(db, code, name, unit, location string) *Dataset {
	return &Dataset{Database: db, Code: code, Name: name, Unit: unit, Location: location}
}

func TestLink_ResolvesByFingerprint(t *testing.T) {
	candidates := []*Dataset{
		candidate("eco", "c1", "electricity, high voltage", "kilowatt hour", "CH"),
		candidate("eco", "c2", "tap water", "kilogram", "CH"),
	}
	exc := &Exchange{Name: "electricity, high voltage", Unit: "kilowatt hour", Location: "CH", Type: Technosphere}
	unlinked := []*Dataset{{
		Name:      "widget production",
		Exchanges: []*Exchange{exc},
	}}

	err := Link(unlinked, candidates, LinkOptions{})
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if exc.Input == nil {
		t.Fatal("exchange should be resolved")
	}
	if exc.Input.Database != "eco" || exc.Input.Code != "c1" {
		t.Errorf("resolved to %+v, want eco/c1", *exc.Input)
	}
}

func TestLink_NoMatchLeavesExchangeUnresolved(t *testing.T) {
	candidates := []*Dataset{candidate("eco", "c1", "tap water", "kilogram", "CH")}
	exc := &Exchange{Name: "deionized water", Unit: "kilogram", Location: "CH", Type: Technosphere}
	unlinked := []*Dataset{{Exchanges: []*Exchange{exc}}}

	if err := Link(unlinked, candidates, LinkOptions{}); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if exc.Input != nil {
		t.Errorf("unmatched exchange should stay unresolved, got %+v", *exc.Input)
	}
}

func TestLink_MissingIdentityIsFatal(t *testing.T) {
	candidates := []*Dataset{
		candidate("eco", "c1", "tap water", "kilogram", "CH"),
		{Name: "no code yet", Database: "eco"},
	}
	exc := &Exchange{Name: "tap water", Unit: "kilogram", Location: "CH", Type: Technosphere}
	unlinked := []*Dataset{{Exchanges: []*Exchange{exc}}}

	err := Link(unlinked, candidates, LinkOptions{})
	var missing *MissingIdentityError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingIdentityError, got %v", err)
	}
	if missing.Dataset.Name != "no code yet" {
		t.Errorf("error should carry the offending candidate, got %q", missing.Dataset.Name)
	}
	if exc.Input != nil {
		t.Error("a failed index build must not mutate any exchange")
	}
}

func TestLink_AmbiguousFingerprintIsHardStop(t *testing.T) {
	// Two candidates identical on the default fields but with distinct codes.
	candidates := []*Dataset{
		candidate("eco", "c1", "gravel, crushed", "kilogram", "CH"),
		candidate("eco", "c2", "gravel, crushed", "kilogram", "CH"),
	}
	resolved := &Exchange{Name: "tap water", Unit: "kilogram", Location: "CH", Type: Technosphere}
	ambiguous := &Exchange{Name: "gravel, crushed", Unit: "kilogram", Location: "CH", Type: Technosphere}
	unlinked := []*Dataset{{Exchanges: []*Exchange{resolved, ambiguous}}}

	withWater := append(candidates, candidate("eco", "c3", "tap water", "kilogram", "CH"))
	err := Link(unlinked, withWater, LinkOptions{})

	var ambErr *AmbiguousLinkError
	if !errors.As(err, &ambErr) {
		t.Fatalf("expected AmbiguousLinkError, got %v", err)
	}
	if ambErr.Exchange != ambiguous {
		t.Error("error should reference the ambiguous exchange")
	}
	if len(ambErr.Candidates) != 1 {
		t.Errorf("duplicates registry should hold the later candidate only, got %d", len(ambErr.Candidates))
	}
	if ambiguous.Input != nil {
		t.Error("the ambiguous exchange must not be mutated")
	}
	// Exchanges resolved before the stop keep their links.
	if resolved.Input == nil || resolved.Input.Code != "c3" {
		t.Error("exchanges resolved earlier in the call should stay resolved")
	}

	msg := err.Error()
	if !strings.Contains(msg, "can't be uniquely linked") {
		t.Errorf("error message should explain the ambiguity: %q", msg)
	}
	if !strings.Contains(msg, "gravel, crushed") {
		t.Errorf("error message should carry the exchange snapshot: %q", msg)
	}
}

func TestLink_KindFilter(t *testing.T) {
	candidates := []*Dataset{candidate("bio", "f1", "Methane, fossil", "kilogram", "")}
	tech := &Exchange{Name: "Methane, fossil", Unit: "kilogram", Type: Technosphere}
	bio := &Exchange{Name: "Methane, fossil", Unit: "kilogram", Type: Biosphere}
	unlinked := []*Dataset{{Exchanges: []*Exchange{tech, bio}}}

	opts := LinkOptions{Kinds: []ExchangeType{Biosphere}}
	if err := Link(unlinked, candidates, opts); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if bio.Input == nil {
		t.Error("biosphere exchange should be resolved")
	}
	if tech.Input != nil {
		t.Error("technosphere exchange is outside the kind filter and should be untouched")
	}
}

func TestLink_RelinkGuard(t *testing.T) {
	existing := &Key{Database: "old", Code: "k"}
	exc := &Exchange{Name: "tap water", Unit: "kilogram", Type: Technosphere, Input: existing}
	unlinked := []*Dataset{{Exchanges: []*Exchange{exc}}}
	candidates := []*Dataset{candidate("eco", "c1", "tap water", "kilogram", "")}

	if err := Link(unlinked, candidates, LinkOptions{}); err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if exc.Input != existing {
		t.Error("without Relink an already-resolved exchange must keep its input")
	}

	if err := Link(unlinked, candidates, LinkOptions{Relink: true}); err != nil {
		t.Fatalf("Link with relink failed: %v", err)
	}
	if exc.Input.Database != "eco" || exc.Input.Code != "c1" {
		t.Errorf("relink should re-resolve, got %+v", *exc.Input)
	}
}

func TestLink_Internal(t *testing.T) {
	producer := &Dataset{
		Database:         "db",
		Code:             "p1",
		Name:             "clinker production",
		ReferenceProduct: "clinker",
		Unit:             "kilogram",
		Location:         "EU",
	}
	exc := &Exchange{Name: "clinker production", Unit: "kilogram", Location: "EU", Type: Technosphere}
	consumer := &Dataset{
		Database:  "db",
		Code:      "p2",
		Name:      "cement production",
		Unit:      "kilogram",
		Location:  "EU",
		Exchanges: []*Exchange{exc},
	}

	collection := []*Dataset{producer, consumer}
	err := Link(collection, nil, LinkOptions{Internal: true, Fields: []string{"name", "unit", "location"}})
	if err != nil {
		t.Fatalf("internal link failed: %v", err)
	}
	if exc.Input == nil || exc.Input.Code != "p1" {
		t.Errorf("exchange should resolve against the collection itself, got %+v", exc.Input)
	}
}

func TestLinker_Stats(t *testing.T) {
	linker := NewLinker(LinkOptions{})
	candidates := []*Dataset{
		candidate("eco", "c1", "gravel", "kilogram", "CH"),
		candidate("eco", "c2", "gravel", "kilogram", "CH"),
		candidate("eco", "c3", "sand", "kilogram", "CH"),
	}
	if err := linker.BuildIndex(candidates); err != nil {
		t.Fatalf("BuildIndex failed: %v", err)
	}
	indexed, ambiguous := linker.Stats()
	if indexed != 2 {
		t.Errorf("indexed = %d, want 2 distinct fingerprints", indexed)
	}
	if ambiguous != 1 {
		t.Errorf("ambiguous = %d, want 1 colliding fingerprint", ambiguous)
	}
}

func TestMissingIdentityError_Message(t *testing.T) {
	err := &MissingIdentityError{Dataset: &Dataset{Name: "orphan", Unit: "kilogram"}}
	msg := err.Error()
	if !strings.Contains(msg, "database and code") {
		t.Errorf("message should name the missing attributes: %q", msg)
	}
	if !strings.Contains(msg, "orphan") {
		t.Errorf("message should carry the offender snapshot: %q", msg)
	}
	if !strings.Contains(msg, "(missing)") {
		t.Errorf("absent fields should be marked explicitly: %q", msg)
	}
}
