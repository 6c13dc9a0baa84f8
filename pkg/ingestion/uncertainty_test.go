// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"strings"
	"testing"
)

func TestUncertaintyRepair_ValidDistributionsKept(t *testing.T) {
	tests := []struct {
		name string
		u    Uncertainty
	}{
		{"undefined", Undefined(3.0)},
		{"no uncertainty", Uncertainty{Kind: NoUncertainty, Loc: 3.0}},
		{"lognormal", Uncertainty{Kind: LognormalUncertainty, Loc: 1.1, Scale: Float64(0.3)}},
		{"lognormal at ceiling", Uncertainty{Kind: LognormalUncertainty, Loc: 1.1, Scale: Float64(MaxLognormalScale)}},
		{"normal", Uncertainty{Kind: NormalUncertainty, Loc: 5.0, Scale: Float64(1.2)}},
		{"triangular", Uncertainty{Kind: TriangularUncertainty, Loc: 2.0, Minimum: Float64(1.0), Maximum: Float64(3.0)}},
		{"uniform", Uncertainty{Kind: UniformUncertainty, Loc: 2.0, Minimum: Float64(0.0), Maximum: Float64(4.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.u
			if u.Repair(2.0) {
				t.Errorf("valid %s distribution should not be demoted", tt.name)
			}
			if u.Kind != tt.u.Kind {
				t.Errorf("kind changed from %v to %v", tt.u.Kind, u.Kind)
			}
		})
	}
}

func TestUncertaintyRepair_InvalidDistributionsDemoted(t *testing.T) {
	tests := []struct {
		name string
		u    Uncertainty
	}{
		{"lognormal missing scale", Uncertainty{Kind: LognormalUncertainty, Loc: 1.0}},
		{"lognormal zero scale", Uncertainty{Kind: LognormalUncertainty, Loc: 1.0, Scale: Float64(0)}},
		{"lognormal negative scale", Uncertainty{Kind: LognormalUncertainty, Loc: 1.0, Scale: Float64(-0.5)}},
		{"lognormal over ceiling", Uncertainty{Kind: LognormalUncertainty, Loc: 1.0, Scale: Float64(30.0)}},
		{"normal missing scale", Uncertainty{Kind: NormalUncertainty, Loc: 1.0}},
		{"normal zero scale", Uncertainty{Kind: NormalUncertainty, Loc: 1.0, Scale: Float64(0)}},
		{"triangular missing bounds", Uncertainty{Kind: TriangularUncertainty, Loc: 2.0}},
		{"triangular inverted bounds", Uncertainty{Kind: TriangularUncertainty, Loc: 2.0, Minimum: Float64(3.0), Maximum: Float64(1.0)}},
		{"triangular equal bounds", Uncertainty{Kind: TriangularUncertainty, Loc: 2.0, Minimum: Float64(2.0), Maximum: Float64(2.0)}},
		{"uniform inverted bounds", Uncertainty{Kind: UniformUncertainty, Loc: 2.0, Minimum: Float64(4.0), Maximum: Float64(0.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := tt.u
			if !u.Repair(7.5) {
				t.Fatalf("invalid %s distribution should be demoted", tt.name)
			}
			if u.Kind != UndefinedUncertainty {
				t.Errorf("demoted kind = %v, want undefined", u.Kind)
			}
			if u.Loc != 7.5 {
				t.Errorf("demoted loc = %v, want the point amount 7.5", u.Loc)
			}
			if u.Scale != nil || u.Shape != nil || u.Minimum != nil || u.Maximum != nil {
				t.Error("demotion should drop all shape parameters")
			}
		})
	}
}

func TestUncertaintyRepair_Idempotent(t *testing.T) {
	u := Uncertainty{Kind: LognormalUncertainty, Loc: 1.0, Scale: Float64(30.0)}
	if !u.Repair(2.0) {
		t.Fatal("first repair should demote")
	}
	if u.Repair(2.0) {
		t.Error("a repaired distribution is valid; second repair should be a no-op")
	}
}

func TestExchangeRepairUncertainty_AppendsNote(t *testing.T) {
	exc := &Exchange{
		Name:        "heat, district",
		Amount:      12.0,
		Type:        Technosphere,
		Comment:     "from source file",
		Uncertainty: Uncertainty{Kind: NormalUncertainty, Loc: 12.0, Scale: Float64(-1.0)},
	}

	if !exc.RepairUncertainty() {
		t.Fatal("expected demotion")
	}
	if exc.Uncertainty.Kind != UndefinedUncertainty {
		t.Errorf("kind = %v, want undefined", exc.Uncertainty.Kind)
	}
	if exc.Uncertainty.Loc != 12.0 {
		t.Errorf("loc = %v, want the exchange amount", exc.Uncertainty.Loc)
	}
	want := "from source file" + DemotionNote
	if exc.Comment != want {
		t.Errorf("comment = %q, want %q", exc.Comment, want)
	}
}

func TestExchangeRepairUncertainty_ValidLeavesCommentAlone(t *testing.T) {
	exc := &Exchange{
		Amount:      1.0,
		Uncertainty: Uncertainty{Kind: LognormalUncertainty, Loc: 0.0, Scale: Float64(0.1)},
	}
	if exc.RepairUncertainty() {
		t.Fatal("valid distribution should not be demoted")
	}
	if strings.Contains(exc.Comment, DemotionNote) {
		t.Error("no note should be appended without a demotion")
	}
}

func TestParameterRepairUncertainty(t *testing.T) {
	param := &Parameter{
		Name:        "efficiency",
		Amount:      0.92,
		Uncertainty: Uncertainty{Kind: TriangularUncertainty, Loc: 0.92, Minimum: Float64(0.95), Maximum: Float64(0.90)},
	}
	if !param.RepairUncertainty() {
		t.Fatal("expected demotion")
	}
	if param.Uncertainty.Kind != UndefinedUncertainty {
		t.Errorf("kind = %v, want undefined", param.Uncertainty.Kind)
	}
	if !strings.Contains(param.Comment, DemotionNote) {
		t.Errorf("comment %q should carry the demotion note", param.Comment)
	}
}

func TestUndefined(t *testing.T) {
	u := Undefined(4.5)
	if u.Kind != UndefinedUncertainty || u.Loc != 4.5 {
		t.Errorf("Undefined(4.5) = %+v", u)
	}
}

func TestUncertaintyKindString(t *testing.T) {
	tests := []struct {
		kind UncertaintyKind
		want string
	}{
		{UndefinedUncertainty, "undefined"},
		{NoUncertainty, "no uncertainty"},
		{LognormalUncertainty, "lognormal"},
		{NormalUncertainty, "normal"},
		{UniformUncertainty, "uniform"},
		{TriangularUncertainty, "triangular"},
		{UncertaintyKind(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}
