// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import "strings"

// ExchangeType classifies the direction and sphere of an exchange.
type ExchangeType string

const (
	// Technosphere is an input consumed from another process.
	Technosphere ExchangeType = "technosphere"

	// Biosphere is an elementary flow to or from the environment.
	Biosphere ExchangeType = "biosphere"

	// Production is the reference output of a process.
	Production ExchangeType = "production"

	// Substitution is an avoided-product output credited against another process.
	Substitution ExchangeType = "substitution"
)

// TechnosphereTypes are the exchange types that consume candidates from the
// processed-goods index during technosphere linking. Products and by-products
// may be referenced either as productive outputs or as inputs elsewhere, so
// all three resolve against the same pool.
var TechnosphereTypes = []ExchangeType{Technosphere, Substitution, Production}

// Key identifies a record inside a logical database namespace.
type Key struct {
	Database string `json:"database"`
	Code     string `json:"code"`
}

// Exchange is one material, energy, or emission flow attached to a Dataset.
//
// Input is nil until linking succeeds. Flow and Activity carry vendor UUIDs
// (EcoSpold2) used by UUID-based linking strategies; biosphere exchanges never
// carry Activity.
type Exchange struct {
	Name       string       `json:"name"`
	Unit       string       `json:"unit,omitempty"`
	Amount     float64      `json:"amount"`
	Type       ExchangeType `json:"type"`
	Location   string       `json:"location,omitempty"`
	Categories []string     `json:"categories,omitempty"`
	Comment    string       `json:"comment,omitempty"`
	Formula    string       `json:"formula,omitempty"`
	CASNumber  string       `json:"cas_number,omitempty"`

	// Input is the resolved (database, code) target, set by linking.
	Input *Key `json:"input,omitempty"`

	// Flow is the vendor flow UUID (intermediate or elementary exchange id).
	Flow string `json:"flow,omitempty"`

	// Activity is the vendor activity link UUID. Technosphere only.
	Activity string `json:"activity,omitempty"`

	// ProductionVolume is the annual production volume reported by the vendor.
	ProductionVolume float64 `json:"production_volume,omitempty"`

	Uncertainty Uncertainty    `json:"uncertainty"`
	Pedigree    map[string]int `json:"pedigree,omitempty"`
}

// Parameter is a named scalar bound to a Dataset. It carries the same
// uncertainty shape as an Exchange but is never linked.
type Parameter struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Unit        string         `json:"unit,omitempty"`
	Comment     string         `json:"comment,omitempty"`
	Formula     string         `json:"formula,omitempty"`
	Amount      float64        `json:"amount"`
	Uncertainty Uncertainty    `json:"uncertainty"`
	Pedigree    map[string]int `json:"pedigree,omitempty"`
}

// Dataset is one industrial process or impact-category record together with
// its exchanges.
//
// (Database, Code) is the unique identity of a dataset once codes are
// assigned. Extractors may leave Code empty; SetCodeByActivityHash fills it.
type Dataset struct {
	Name             string   `json:"name"`
	Unit             string   `json:"unit,omitempty"`
	Location         string   `json:"location,omitempty"`
	Database         string   `json:"database,omitempty"`
	Code             string   `json:"code,omitempty"`
	Categories       []string `json:"categories,omitempty"`
	ReferenceProduct string   `json:"reference_product,omitempty"`
	ProductionAmount float64  `json:"production_amount,omitempty"`
	Comment          string   `json:"comment,omitempty"`
	Filename         string   `json:"filename,omitempty"`
	Type             string   `json:"type,omitempty"`

	// Activity is the vendor activity UUID (EcoSpold2).
	Activity string `json:"activity,omitempty"`

	Exchanges  []*Exchange  `json:"exchanges"`
	Parameters []*Parameter `json:"parameters,omitempty"`

	// RawParameters is the field-name-keyed shape some extractors produce.
	// ConvertActivityParametersToList moves it into Parameters.
	RawParameters map[string]*Parameter `json:"-"`
}

// Fielder exposes record attributes by canonical field name. It is the shape
// the fingerprint generator hashes over; values are stringified without type
// validation, and missing fields report ok == false.
type Fielder interface {
	Field(name string) (any, bool)
}

// Field returns the dataset attribute with the given canonical name.
func (d *Dataset) Field(name string) (any, bool) {
	switch name {
	case "name":
		return present(d.Name)
	case "unit":
		return present(d.Unit)
	case "location":
		return present(d.Location)
	case "database":
		return present(d.Database)
	case "code":
		return present(d.Code)
	case "categories":
		if len(d.Categories) == 0 {
			return nil, false
		}
		return d.Categories, true
	case "reference product":
		return present(d.ReferenceProduct)
	case "type":
		return present(d.Type)
	}
	return nil, false
}

// Field returns the exchange attribute with the given canonical name.
func (e *Exchange) Field(name string) (any, bool) {
	switch name {
	case "name":
		return present(e.Name)
	case "unit":
		return present(e.Unit)
	case "location":
		return present(e.Location)
	case "categories":
		if len(e.Categories) == 0 {
			return nil, false
		}
		return e.Categories, true
	case "type":
		return present(string(e.Type))
	case "flow":
		return present(e.Flow)
	case "activity":
		return present(e.Activity)
	}
	return nil, false
}

func present(s string) (any, bool) {
	if strings.TrimSpace(s) == "" {
		return nil, false
	}
	return s, true
}

// Production returns the production-type exchanges of the dataset.
func (d *Dataset) Production() []*Exchange {
	var out []*Exchange
	for _, exc := range d.Exchanges {
		if exc.Type == Production {
			out = append(out, exc)
		}
	}
	return out
}

// UnlinkedByType counts exchanges without a resolved input, per exchange type.
// Production exchanges are self-referential and never need linking, so they
// are excluded.
func UnlinkedByType(data []*Dataset) map[ExchangeType]int {
	counts := make(map[ExchangeType]int)
	for _, ds := range data {
		for _, exc := range ds.Exchanges {
			if exc.Input == nil && exc.Type != Production {
				counts[exc.Type]++
			}
		}
	}
	return counts
}
