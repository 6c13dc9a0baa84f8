// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

// UncertaintyKind tags the probability distribution attached to an exchange
// or parameter. The numeric values match the stats_arrays ids used across the
// LCA data ecosystem and are what gets persisted.
type UncertaintyKind int

const (
	// UndefinedUncertainty means no distribution: the value is a point
	// estimate stored in Loc.
	UndefinedUncertainty UncertaintyKind = 0

	// NoUncertainty is an explicit vendor statement that the value is exact.
	NoUncertainty UncertaintyKind = 1

	// LognormalUncertainty: Loc is the log-domain mean, Scale the variance
	// with pedigree adjustment.
	LognormalUncertainty UncertaintyKind = 2

	// NormalUncertainty: Loc is the linear-domain mean, Scale the variance
	// with pedigree adjustment.
	NormalUncertainty UncertaintyKind = 3

	// UniformUncertainty: bounded by Minimum/Maximum, Loc pinned to the
	// point amount.
	UniformUncertainty UncertaintyKind = 4

	// TriangularUncertainty: Minimum/Loc (most likely)/Maximum.
	TriangularUncertainty UncertaintyKind = 5
)

// String returns the canonical kind name.
func (k UncertaintyKind) String() string {
	switch k {
	case UndefinedUncertainty:
		return "undefined"
	case NoUncertainty:
		return "no uncertainty"
	case LognormalUncertainty:
		return "lognormal"
	case NormalUncertainty:
		return "normal"
	case UniformUncertainty:
		return "uniform"
	case TriangularUncertainty:
		return "triangular"
	}
	return "unknown"
}

// MaxLognormalScale is the ceiling for a lognormal variance. Values above it
// are numerically degenerate for the lognormal parameterization and are
// treated as malformed source data.
const MaxLognormalScale = 25.0

// DemotionNote is appended to a record's comment when an invalid distribution
// is demoted to the undefined kind.
const DemotionNote = "; Invalid parameters - set to undefined uncertainty."

// Pedigree indicator canonical names. Vendor field names map onto these
// regardless of source format.
const (
	PedigreeReliability  = "reliability"
	PedigreeCompleteness = "completeness"
	PedigreeTemporal     = "temporal correlation"
	PedigreeGeographical = "geographical correlation"
	PedigreeTechnology   = "further technological correlation"
)

// Uncertainty is the canonical distributional representation. Only the
// parameters the Kind requires are set; the rest stay nil.
type Uncertainty struct {
	Kind UncertaintyKind `json:"kind"`

	// Loc is the location parameter. For the undefined kind it equals the
	// point amount.
	Loc float64 `json:"loc"`

	Scale   *float64 `json:"scale,omitempty"`
	Shape   *float64 `json:"shape,omitempty"`
	Minimum *float64 `json:"minimum,omitempty"`
	Maximum *float64 `json:"maximum,omitempty"`

	// ScaleWithoutPedigree retains the bare variance reported alongside the
	// quality-adjusted one, for reference only.
	ScaleWithoutPedigree *float64 `json:"scale_without_pedigree,omitempty"`
}

// Undefined returns the canonical no-distribution representation for a point
// amount.
func Undefined(amount float64) Uncertainty {
	return Uncertainty{Kind: UndefinedUncertainty, Loc: amount}
}

// Float64 returns a pointer to v. Convenience for the optional parameters.
func Float64(v float64) *float64 { return &v }

// valid reports whether the distribution parameters are consistent with the
// kind.
//
// The numeric ceiling applies to lognormal only; the source data format never
// specified one for normal distributions and that asymmetry is preserved.
func (u *Uncertainty) valid() bool {
	switch u.Kind {
	case LognormalUncertainty:
		return u.Scale != nil && *u.Scale > 0 && *u.Scale <= MaxLognormalScale
	case NormalUncertainty:
		return u.Scale != nil && *u.Scale > 0
	case TriangularUncertainty, UniformUncertainty:
		return u.Minimum != nil && u.Maximum != nil && *u.Minimum < *u.Maximum
	}
	return true
}

// demote resets the distribution to the undefined kind with the point amount
// as location, dropping all shape fields.
func (u *Uncertainty) demote(amount float64) {
	u.Kind = UndefinedUncertainty
	u.Loc = amount
	u.Scale = nil
	u.Shape = nil
	u.Minimum = nil
	u.Maximum = nil
}

// Repair validates the distribution against amount and demotes it to the
// undefined kind if malformed. It reports whether a demotion happened; the
// caller owns appending DemotionNote to the record's comment.
//
// Malformed source data is common, and a point estimate is a safe
// degradation. An invalid distribution is never propagated downstream.
func (u *Uncertainty) Repair(amount float64) bool {
	if u.valid() {
		return false
	}
	u.demote(amount)
	return true
}

// RepairUncertainty validates the exchange's distribution and demotes it with
// an audit note if malformed.
func (e *Exchange) RepairUncertainty() bool {
	if !e.Uncertainty.Repair(e.Amount) {
		return false
	}
	e.Comment += DemotionNote
	return true
}

// RepairUncertainty validates the parameter's distribution and demotes it
// with an audit note if malformed.
func (p *Parameter) RepairUncertainty() bool {
	if !p.Uncertainty.Repair(p.Amount) {
		return false
	}
	p.Comment += DemotionNote
	return true
}
