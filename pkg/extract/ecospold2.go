// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package extract

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// pedigreeAttrs maps EcoSpold2 pedigree matrix attribute names onto the
// canonical indicator names.
var pedigreeAttrs = map[string]string{
	"reliability":                  ingestion.PedigreeReliability,
	"completeness":                 ingestion.PedigreeCompleteness,
	"temporalCorrelation":          ingestion.PedigreeTemporal,
	"geographicalCorrelation":      ingestion.PedigreeGeographical,
	"furtherTechnologyCorrelation": ingestion.PedigreeTechnology,
}

// emissionCategories maps top-level elementary compartments to record types.
var emissionCategories = map[string]string{
	"air":   "emission",
	"soil":  "emission",
	"water": "emission",
}

// Ecospold2Extractor reads EcoSpold2 activity datasets (*.spold files).
type Ecospold2Extractor struct {
	logger *slog.Logger

	// DatabaseName is stamped on every extracted dataset.
	DatabaseName string

	// Progress, when set, is called after each parsed file.
	Progress ProgressFunc
}

// NewEcospold2Extractor creates an EcoSpold2 extractor.
func NewEcospold2Extractor(logger *slog.Logger) *Ecospold2Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ecospold2Extractor{logger: logger}
}

// Extract parses one .spold file or every .spold file in a directory.
func (x *Ecospold2Extractor) Extract(path string) ([]*ingestion.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", path, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() && strings.EqualFold(filepath.Ext(entry.Name()), ".spold") {
				files = append(files, filepath.Join(path, entry.Name()))
			}
		}
	} else {
		files = []string{path}
	}

	data := make([]*ingestion.Dataset, 0, len(files))
	for i, file := range files {
		ds, err := x.extractActivity(file)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", filepath.Base(file), err)
		}
		data = append(data, ds)
		if x.Progress != nil {
			x.Progress(i+1, len(files))
		}
	}
	x.logger.Info("extract.ecospold2.done", "files", len(files), "datasets", len(data))
	return data, nil
}

// EcoSpold2 document shapes. Only the fields the canonical model needs are
// mapped.

type spoldFile struct {
	ActivityDataset      *spoldDataset `xml:"activityDataset"`
	ChildActivityDataset *spoldDataset `xml:"childActivityDataset"`
}

type spoldDataset struct {
	ActivityDescription spoldDescription `xml:"activityDescription"`
	FlowData            spoldFlowData    `xml:"flowData"`
}

type spoldDescription struct {
	Activity struct {
		ID                      string        `xml:"id,attr"`
		ActivityName            string        `xml:"activityName"`
		GeneralComment          multilineText `xml:"generalComment"`
		IncludedActivitiesStart spoldOptional `xml:"includedActivitiesStart"`
		IncludedActivitiesEnd   spoldOptional `xml:"includedActivitiesEnd"`
	} `xml:"activity"`
	Geography struct {
		Shortname string        `xml:"shortname"`
		Comment   multilineText `xml:"comment"`
	} `xml:"geography"`
	Technology struct {
		Comment multilineText `xml:"comment"`
	} `xml:"technology"`
	TimePeriod struct {
		Comment multilineText `xml:"comment"`
	} `xml:"timePeriod"`
}

type spoldOptional struct {
	Text string `xml:"text,attr"`
}

type spoldFlowData struct {
	Intermediate []spoldExchange  `xml:"intermediateExchange"`
	Elementary   []spoldExchange  `xml:"elementaryExchange"`
	Parameters   []spoldParameter `xml:"parameter"`
}

// multilineText is the EcoSpold2 multi-paragraph comment shape.
type multilineText struct {
	Texts     []string `xml:"text"`
	ImageURLs []string `xml:"imageUrl"`
}

// condense joins the text paragraphs followed by image references.
func (t multilineText) condense() string {
	parts := append([]string{}, t.Texts...)
	for _, url := range t.ImageURLs {
		parts = append(parts, "Image: "+url)
	}
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "\n")
}

type spoldExchange struct {
	Amount                 float64 `xml:"amount,attr"`
	IntermediateExchangeID string  `xml:"intermediateExchangeId,attr"`
	ElementaryExchangeID   string  `xml:"elementaryExchangeId,attr"`
	ActivityLinkID         string  `xml:"activityLinkId,attr"`
	ProductionVolumeAmount float64 `xml:"productionVolumeAmount,attr"`
	Formula                string  `xml:"formula,attr"`
	Name                   string  `xml:"name"`
	UnitName               string  `xml:"unitName"`
	Comment                string  `xml:"comment"`
	InputGroup             string  `xml:"inputGroup"`
	OutputGroup            string  `xml:"outputGroup"`
	Compartment            *struct {
		Compartment    string `xml:"compartment"`
		Subcompartment string `xml:"subcompartment"`
	} `xml:"compartment"`
	Uncertainty *spoldUncertainty `xml:"uncertainty"`
}

type spoldParameter struct {
	VariableName string            `xml:"variableName,attr"`
	Amount       float64           `xml:"amount,attr"`
	Formula      string            `xml:"formula,attr"`
	Name         string            `xml:"name"`
	UnitName     string            `xml:"unitName"`
	Comment      string            `xml:"comment"`
	Uncertainty  *spoldUncertainty `xml:"uncertainty"`
}

type spoldUncertainty struct {
	Lognormal *struct {
		Mu                   float64  `xml:"mu,attr"`
		Variance             *float64 `xml:"variance,attr"`
		VarianceWithPedigree float64  `xml:"varianceWithPedigreeUncertainty,attr"`
	} `xml:"lognormal"`
	Normal *struct {
		MeanValue            float64  `xml:"meanValue,attr"`
		Variance             *float64 `xml:"variance,attr"`
		VarianceWithPedigree float64  `xml:"varianceWithPedigreeUncertainty,attr"`
	} `xml:"normal"`
	Triangular *struct {
		MinValue        float64 `xml:"minValue,attr"`
		MostLikelyValue float64 `xml:"mostLikelyValue,attr"`
		MaxValue        float64 `xml:"maxValue,attr"`
	} `xml:"triangular"`
	Uniform *struct {
		MinValue float64 `xml:"minValue,attr"`
		MaxValue float64 `xml:"maxValue,attr"`
	} `xml:"uniform"`
	Undefined      *struct{}            `xml:"undefined"`
	PedigreeMatrix *spoldPedigreeMatrix `xml:"pedigreeMatrix"`
}

type spoldPedigreeMatrix struct {
	Reliability                  int `xml:"reliability,attr"`
	Completeness                 int `xml:"completeness,attr"`
	TemporalCorrelation          int `xml:"temporalCorrelation,attr"`
	GeographicalCorrelation      int `xml:"geographicalCorrelation,attr"`
	FurtherTechnologyCorrelation int `xml:"furtherTechnologyCorrelation,attr"`
}

func (m *spoldPedigreeMatrix) canonical() map[string]int {
	return map[string]int{
		ingestion.PedigreeReliability:  m.Reliability,
		ingestion.PedigreeCompleteness: m.Completeness,
		ingestion.PedigreeTemporal:     m.TemporalCorrelation,
		ingestion.PedigreeGeographical: m.GeographicalCorrelation,
		ingestion.PedigreeTechnology:   m.FurtherTechnologyCorrelation,
	}
}

func (x *Ecospold2Extractor) extractActivity(path string) (*ingestion.Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file spoldFile
	if err := xml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	stem := file.ActivityDataset
	if stem == nil {
		stem = file.ChildActivityDataset
	}
	if stem == nil {
		return nil, fmt.Errorf("no activityDataset or childActivityDataset element")
	}

	desc := stem.ActivityDescription
	ds := &ingestion.Dataset{
		Name:     desc.Activity.ActivityName,
		Location: desc.Geography.Shortname,
		Database: x.DatabaseName,
		Activity: desc.Activity.ID,
		Filename: filepath.Base(path),
		Type:     "process",
		Comment:  condenseActivityComment(desc),
	}

	for _, raw := range stem.FlowData.Intermediate {
		exc, err := extractSpoldExchange(raw, false)
		if err != nil {
			return nil, err
		}
		ds.Exchanges = append(ds.Exchanges, exc)
	}
	for _, raw := range stem.FlowData.Elementary {
		exc, err := extractSpoldExchange(raw, true)
		if err != nil {
			return nil, err
		}
		ds.Exchanges = append(ds.Exchanges, exc)
	}
	for _, raw := range stem.FlowData.Parameters {
		ds.Parameters = append(ds.Parameters, extractSpoldParameter(raw))
	}
	return ds, nil
}

func condenseActivityComment(desc spoldDescription) string {
	sections := []struct {
		prefix string
		text   string
	}{
		{"", desc.Activity.GeneralComment.condense()},
		{"Included activities start: ", desc.Activity.IncludedActivitiesStart.Text},
		{"Included activities end: ", desc.Activity.IncludedActivitiesEnd.Text},
		{"Geography: ", desc.Geography.Comment.condense()},
		{"Technology: ", desc.Technology.Comment.condense()},
		{"Time period: ", desc.TimePeriod.Comment.condense()},
	}
	var parts []string
	for _, s := range sections {
		if s.text != "" {
			parts = append(parts, s.prefix+s.text)
		}
	}
	return strings.Join(parts, "\n")
}

// extractSpoldExchange classifies an exchange by its input/output group and
// sphere, then parses its uncertainty block.
//
// Output groups 0 (reference product) and 2 (by-product) mark products; an
// elementary exchange can never be a product.
func extractSpoldExchange(raw spoldExchange, biosphere bool) (*ingestion.Exchange, error) {
	isProduct := raw.OutputGroup == "0" || raw.OutputGroup == "2"
	if biosphere && isProduct {
		return nil, fmt.Errorf("impossible output group %s on elementary exchange %q", raw.OutputGroup, raw.Name)
	}

	kind := ingestion.Technosphere
	switch {
	case isProduct:
		kind = ingestion.Production
	case biosphere:
		kind = ingestion.Biosphere
	}

	exc := &ingestion.Exchange{
		Name:             raw.Name,
		Unit:             ingestion.NormalizeUnit(raw.UnitName),
		Amount:           raw.Amount,
		Type:             kind,
		Comment:          raw.Comment,
		Formula:          raw.Formula,
		ProductionVolume: raw.ProductionVolumeAmount,
	}
	if biosphere {
		exc.Flow = raw.ElementaryExchangeID
		if raw.Compartment != nil {
			exc.Categories = []string{raw.Compartment.Compartment, raw.Compartment.Subcompartment}
		}
	} else {
		exc.Flow = raw.IntermediateExchangeID
		exc.Activity = raw.ActivityLinkID
	}

	uncertainty, pedigree, err := extractSpoldUncertainty(raw.Uncertainty, raw.Amount)
	if err != nil {
		return nil, fmt.Errorf("exchange %q: %w", raw.Name, err)
	}
	exc.Uncertainty = uncertainty
	exc.Pedigree = pedigree
	exc.RepairUncertainty()
	return exc, nil
}

func extractSpoldParameter(raw spoldParameter) *ingestion.Parameter {
	param := &ingestion.Parameter{
		Name:        raw.VariableName,
		Description: raw.Name,
		Amount:      raw.Amount,
		Formula:     raw.Formula,
		Comment:     raw.Comment,
	}
	if raw.UnitName != "" {
		param.Unit = ingestion.NormalizeUnit(raw.UnitName)
	}
	uncertainty, pedigree, err := extractSpoldUncertainty(raw.Uncertainty, raw.Amount)
	if err != nil {
		// Parameters with unrecognized encodings degrade to a point value.
		uncertainty = ingestion.Undefined(raw.Amount)
	}
	param.Uncertainty = uncertainty
	param.Pedigree = pedigree
	param.RepairUncertainty()
	return param
}

// extractSpoldUncertainty converts the vendor distribution block into the
// canonical representation. A missing block means an undefined distribution
// with the point amount as location.
func extractSpoldUncertainty(unc *spoldUncertainty, amount float64) (ingestion.Uncertainty, map[string]int, error) {
	if unc == nil {
		return ingestion.Undefined(amount), nil, nil
	}

	var pedigree map[string]int
	if unc.PedigreeMatrix != nil {
		pedigree = unc.PedigreeMatrix.canonical()
	}

	switch {
	case unc.Lognormal != nil:
		u := ingestion.Uncertainty{
			Kind:  ingestion.LognormalUncertainty,
			Loc:   unc.Lognormal.Mu,
			Scale: ingestion.Float64(unc.Lognormal.VarianceWithPedigree),
		}
		// A zero bare variance carries no information; only the adjusted one counts.
		if unc.Lognormal.Variance != nil && *unc.Lognormal.Variance != 0 {
			u.ScaleWithoutPedigree = ingestion.Float64(*unc.Lognormal.Variance)
		}
		return u, pedigree, nil
	case unc.Normal != nil:
		u := ingestion.Uncertainty{
			Kind:  ingestion.NormalUncertainty,
			Loc:   unc.Normal.MeanValue,
			Scale: ingestion.Float64(unc.Normal.VarianceWithPedigree),
		}
		if unc.Normal.Variance != nil && *unc.Normal.Variance != 0 {
			u.ScaleWithoutPedigree = ingestion.Float64(*unc.Normal.Variance)
		}
		return u, pedigree, nil
	case unc.Triangular != nil:
		return ingestion.Uncertainty{
			Kind:    ingestion.TriangularUncertainty,
			Loc:     unc.Triangular.MostLikelyValue,
			Minimum: ingestion.Float64(unc.Triangular.MinValue),
			Maximum: ingestion.Float64(unc.Triangular.MaxValue),
		}, pedigree, nil
	case unc.Uniform != nil:
		return ingestion.Uncertainty{
			Kind:    ingestion.UniformUncertainty,
			Loc:     amount,
			Minimum: ingestion.Float64(unc.Uniform.MinValue),
			Maximum: ingestion.Float64(unc.Uniform.MaxValue),
		}, pedigree, nil
	case unc.Undefined != nil:
		return ingestion.Undefined(amount), pedigree, nil
	}
	return ingestion.Uncertainty{}, pedigree, fmt.Errorf("unknown uncertainty encoding")
}

// flowList is the shape of the IntermediateExchanges.xml and
// ElementaryExchanges.xml master lists.
type flowList struct {
	Intermediate []flowListEntry `xml:"intermediateExchange"`
	Elementary   []flowListEntry `xml:"elementaryExchange"`
}

type flowListEntry struct {
	ID          string `xml:"id,attr"`
	Name        string `xml:"name"`
	UnitName    string `xml:"unitName"`
	Compartment *struct {
		Compartment    string `xml:"compartment"`
		Subcompartment string `xml:"subcompartment"`
	} `xml:"compartment"`
}

// ExtractElementaryFlows reads ElementaryExchanges.xml from dirpath and
// returns the elementary flow registry as candidate datasets for biosphere
// linking.
func ExtractElementaryFlows(dirpath, databaseName string) ([]*ingestion.Dataset, error) {
	path := filepath.Join(dirpath, "ElementaryExchanges.xml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var list flowList
	if err := xml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	flows := make([]*ingestion.Dataset, 0, len(list.Elementary))
	for _, entry := range list.Elementary {
		ds := &ingestion.Dataset{
			Name:     entry.Name,
			Unit:     ingestion.NormalizeUnit(entry.UnitName),
			Database: databaseName,
			Code:     entry.ID,
		}
		if entry.Compartment != nil {
			ds.Categories = []string{entry.Compartment.Compartment, entry.Compartment.Subcompartment}
			if t, ok := emissionCategories[entry.Compartment.Compartment]; ok {
				ds.Type = t
			} else {
				ds.Type = entry.Compartment.Compartment
			}
		}
		flows = append(flows, ds)
	}
	return flows, nil
}

// ExtractTechnosphereMetadata reads IntermediateExchanges.xml from dirpath
// and returns the master list of technosphere products.
func ExtractTechnosphereMetadata(dirpath, databaseName string) ([]*ingestion.Dataset, error) {
	path := filepath.Join(dirpath, "IntermediateExchanges.xml")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var list flowList
	if err := xml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	products := make([]*ingestion.Dataset, 0, len(list.Intermediate))
	for _, entry := range list.Intermediate {
		products = append(products, &ingestion.Dataset{
			Name:     entry.Name,
			Unit:     ingestion.NormalizeUnit(entry.UnitName),
			Database: databaseName,
			Code:     entry.ID,
		})
	}
	return products, nil
}
