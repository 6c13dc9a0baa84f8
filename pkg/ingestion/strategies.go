// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"fmt"
	"sort"
)

// StrategyFunc transforms a dataset collection. It takes ownership of the
// collection and returns a (possibly new) collection; the pipeline threads
// ownership through the sequence.
type StrategyFunc func(data []*Dataset) ([]*Dataset, error)

// Strategy is one named, composable transformation step.
type Strategy struct {
	Name  string
	Apply StrategyFunc
}

// NormalizeUnits maps every dataset, exchange, and parameter unit onto the
// canonical unit vocabulary. Idempotent.
func NormalizeUnits() Strategy {
	return Strategy{
		Name: "normalize_units",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				if ds.Unit != "" {
					ds.Unit = NormalizeUnit(ds.Unit)
				}
				for _, exc := range ds.Exchanges {
					if exc.Unit != "" {
						exc.Unit = NormalizeUnit(exc.Unit)
					}
				}
				for _, param := range ds.Parameters {
					if param.Unit != "" {
						param.Unit = NormalizeUnit(param.Unit)
					}
				}
			}
			return data, nil
		},
	}
}

// AddDatabaseName stamps every dataset with the given logical database
// namespace. Idempotent.
func AddDatabaseName(name string) Strategy {
	return Strategy{
		Name: "add_database_name",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				ds.Database = name
			}
			return data, nil
		},
	}
}

// AssignOnlyProductAsProduction derives the reference product for datasets
// with exactly one production exchange. Name, unit, and production amount are
// filled from the product where absent. Datasets with more than one
// production exchange are left alone: the reference product is then a
// modeling decision. Idempotent.
func AssignOnlyProductAsProduction() Strategy {
	return Strategy{
		Name: "assign_only_product_as_production",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				if ds.ReferenceProduct != "" {
					continue
				}
				products := ds.Production()
				if len(products) != 1 {
					continue
				}
				product := products[0]
				if product.Name == "" {
					return data, fmt.Errorf("production exchange without name in dataset %q", ds.Name)
				}
				ds.ReferenceProduct = product.Name
				ds.ProductionAmount = product.Amount
				if ds.Name == "" {
					ds.Name = product.Name
				}
				if ds.Unit == "" {
					if product.Unit != "" {
						ds.Unit = product.Unit
					} else {
						ds.Unit = "Unknown"
					}
				}
			}
			return data, nil
		},
	}
}

// SetCodeByActivityHash assigns each dataset a code derived from its
// fingerprint over the default fields. Existing codes are kept unless
// overwrite is set. Must run before any linking pass for record sets without
// externally supplied identifiers.
func SetCodeByActivityHash(overwrite bool) Strategy {
	return Strategy{
		Name: "set_code_by_activity_hash",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				if ds.Code == "" || overwrite {
					ds.Code = ActivityHash(ds, nil)
				}
			}
			return data, nil
		},
	}
}

// LinkTechnosphereByActivityHash links technosphere, substitution, and
// production exchanges by fingerprint. With a nil candidates pool the
// collection links against itself (every dataset must then already carry
// database and code). Not idempotent with relinking: rerunning skips
// already-resolved exchanges.
func LinkTechnosphereByActivityHash(candidates []*Dataset, fields []string) Strategy {
	return Strategy{
		Name: "link_technosphere_by_activity_hash",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			opts := LinkOptions{
				Fields:   fields,
				Kinds:    TechnosphereTypes,
				Internal: candidates == nil,
			}
			if err := Link(data, candidates, opts); err != nil {
				return data, err
			}
			return data, nil
		},
	}
}

// LinkBiosphereByActivityHash links biosphere exchanges against an elementary
// flow registry.
func LinkBiosphereByActivityHash(flows []*Dataset, fields []string) Strategy {
	return Strategy{
		Name: "link_biosphere_by_activity_hash",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			opts := LinkOptions{Fields: fields, Kinds: []ExchangeType{Biosphere}}
			if err := Link(data, flows, opts); err != nil {
				return data, err
			}
			return data, nil
		},
	}
}

// DropUnlinked removes every exchange that still has no resolved input.
// Production exchanges never carry an input and are always kept; a dataset
// must not lose its reference product to this cleanup. This is the nuclear
// option; it only runs when explicitly composed into the pipeline.
func DropUnlinked() Strategy {
	return Strategy{
		Name: "drop_unlinked",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				kept := ds.Exchanges[:0]
				for _, exc := range ds.Exchanges {
					if exc.Input != nil || exc.Type == Production {
						kept = append(kept, exc)
					}
				}
				ds.Exchanges = kept
			}
			return data, nil
		},
	}
}

// ConvertActivityParametersToList converts the field-name-keyed parameter
// mapping some extractors produce into the canonical sequence shape, sorted
// by name for determinism. Idempotent.
func ConvertActivityParametersToList() Strategy {
	return Strategy{
		Name: "convert_activity_parameters_to_list",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				if len(ds.RawParameters) == 0 {
					continue
				}
				names := make([]string, 0, len(ds.RawParameters))
				for name := range ds.RawParameters {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					param := ds.RawParameters[name]
					param.Name = name
					ds.Parameters = append(ds.Parameters, param)
				}
				ds.RawParameters = nil
			}
			return data, nil
		},
	}
}

// RepairUncertainty validates every distribution in the collection and
// demotes malformed ones to the undefined kind with an audit note. Safe to
// run multiple times: a repaired distribution is always valid.
func RepairUncertainty() Strategy {
	return Strategy{
		Name: "repair_uncertainty",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				for _, exc := range ds.Exchanges {
					if exc.RepairUncertainty() {
						metrics().distributionsDemoted.Inc()
					}
				}
				for _, param := range ds.Parameters {
					if param.RepairUncertainty() {
						metrics().distributionsDemoted.Inc()
					}
				}
			}
			return data, nil
		},
	}
}

// PruneUncertaintyFields drops distribution parameters that the uncertainty
// kind does not require, so that parameters present are always consistent
// with the kind. Idempotent.
func PruneUncertaintyFields() Strategy {
	prune := func(u *Uncertainty) {
		switch u.Kind {
		case LognormalUncertainty, NormalUncertainty:
			u.Minimum = nil
			u.Maximum = nil
			u.Shape = nil
		case TriangularUncertainty, UniformUncertainty:
			u.Scale = nil
			u.Shape = nil
			u.ScaleWithoutPedigree = nil
		case UndefinedUncertainty, NoUncertainty:
			u.Scale = nil
			u.Shape = nil
			u.Minimum = nil
			u.Maximum = nil
			u.ScaleWithoutPedigree = nil
		}
	}
	return Strategy{
		Name: "prune_uncertainty_fields",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			for _, ds := range data {
				for _, exc := range ds.Exchanges {
					prune(&exc.Uncertainty)
				}
				for _, param := range ds.Parameters {
					prune(&param.Uncertainty)
				}
			}
			return data, nil
		},
	}
}

// ExchangeFilter selects unlinked exchanges by exact attribute match. Zero
// fields are wildcards.
type ExchangeFilter struct {
	Name     string
	Location string
	Unit     string
}

func (f ExchangeFilter) matches(exc *Exchange) bool {
	if f.Name != "" && exc.Name != f.Name {
		return false
	}
	if f.Location != "" && exc.Location != f.Location {
		return false
	}
	if f.Unit != "" && exc.Unit != f.Unit {
		return false
	}
	return true
}

// ExchangeVariant describes the attribute changes applied to one copy of a
// split exchange. Zero fields keep the original value.
type ExchangeVariant struct {
	Name       string
	Location   string
	Unit       string
	Categories []string
}

// SplitExchanges splits every unlinked exchange matching filter into one copy
// per variant, allocating the original amount by the given factors (equal
// split when factors is nil; factors need not sum to one). Each copy's
// uncertainty resets to the undefined kind. Not idempotent.
func SplitExchanges(filter ExchangeFilter, variants []ExchangeVariant, factors []float64) Strategy {
	return Strategy{
		Name: "split_exchanges",
		Apply: func(data []*Dataset) ([]*Dataset, error) {
			if factors == nil {
				factors = make([]float64, len(variants))
				for i := range factors {
					factors[i] = 1
				}
			}
			if len(variants) != len(factors) {
				return data, fmt.Errorf("split_exchanges: %d variants but %d allocation factors", len(variants), len(factors))
			}
			var total float64
			for _, f := range factors {
				total += f
			}

			for _, ds := range data {
				var kept, added []*Exchange
				for _, exc := range ds.Exchanges {
					if exc.Input != nil || !filter.matches(exc) {
						kept = append(kept, exc)
						continue
					}
					for i, variant := range variants {
						split := *exc
						split.Amount = exc.Amount * factors[i] / total
						split.Uncertainty = Undefined(split.Amount)
						if variant.Name != "" {
							split.Name = variant.Name
						}
						if variant.Location != "" {
							split.Location = variant.Location
						}
						if variant.Unit != "" {
							split.Unit = variant.Unit
						}
						if variant.Categories != nil {
							split.Categories = variant.Categories
						}
						added = append(added, &split)
					}
				}
				if len(added) > 0 {
					ds.Exchanges = append(kept, added...)
				}
			}
			return data, nil
		},
	}
}
