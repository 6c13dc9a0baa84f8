// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package extract

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// skippableSections are SimaPro export sections that carry no method data.
var skippableSections = map[string]bool{
	"Airborne emissions":    true,
	"Economic issues":       true,
	"Emissions to soil":     true,
	"Final waste flows":     true,
	"Quantities":            true,
	"Raw materials":         true,
	"Units":                 true,
	"Waterborne emissions":  true,
	"Non material emission": true,
}

// SimaProLCIAExtractor reads SimaPro LCIA method exports: delimited CSV with
// named sections, cp1252 encoded.
type SimaProLCIAExtractor struct {
	logger *slog.Logger

	// Delimiter separates fields. SimaPro defaults to semicolons.
	Delimiter rune

	// DatabaseName is stamped on every extracted impact-category dataset.
	DatabaseName string
}

// NewSimaProLCIAExtractor creates a SimaPro LCIA method extractor.
func NewSimaProLCIAExtractor(logger *slog.Logger) *SimaProLCIAExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimaProLCIAExtractor{logger: logger, Delimiter: ';'}
}

// Extract reads an LCIA method export file and returns one dataset per
// impact category (and per normalization-weighting set), with the
// characterization factors as biosphere exchanges.
func (x *SimaProLCIAExtractor) Extract(path string) ([]*ingestion.Dataset, error) {
	lines, err := x.loadFile(path)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 || len(lines[0]) == 0 || !strings.Contains(lines[0][0], "SimaPro") {
		return nil, fmt.Errorf("%s is not a valid SimaPro export", path)
	}

	var datasets []*ingestion.Dataset
	index, ok := x.nextMethodIndex(lines, 0)
	for ok {
		ds, next, err := x.readMethod(lines, index, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", path, err)
		}
		datasets = append(datasets, ds...)
		index, ok = x.nextMethodIndex(lines, next)
	}

	x.logger.Info("extract.simapro.done", "path", path, "datasets", len(datasets))
	return datasets, nil
}

// loadFile reads the whole file into a line/field table, decoding cp1252 and
// stripping the stray ASCII delete characters SimaPro emits. Empty lines
// become empty records; the section walkers rely on them as terminators, so
// a csv.Reader (which silently drops blank lines) is not usable here.
func (x *SimaProLCIAExtractor) loadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var lines [][]string
	scanner := bufio.NewScanner(transform.NewReader(f, charmap.Windows1252.NewDecoder()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.ReplaceAll(scanner.Text(), "\x7f", "")
		if line == "" {
			lines = append(lines, nil)
			continue
		}
		lines = append(lines, strings.Split(line, string(x.Delimiter)))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// nextMethodIndex advances to the line after the next "Method" marker,
// skipping data sections that carry no method information. ok is false when
// the file ends first.
func (x *SimaProLCIAExtractor) nextMethodIndex(lines [][]string, index int) (int, bool) {
	for index < len(lines) {
		switch {
		case len(lines[index]) > 0 && skippableSections[lines[index][0]]:
			index = x.skipToSectionEnd(lines, index)
		case len(lines[index]) > 0 && lines[index][0] == "Method":
			return index + 1, true
		}
		index++
	}
	return index, false
}

func (x *SimaProLCIAExtractor) skipToSectionEnd(lines [][]string, index int) int {
	for index < len(lines) {
		if len(lines[index]) > 0 && strings.TrimSpace(lines[index][0]) == "End" {
			return index
		}
		index++
	}
	return index
}

// readMethod parses one method block: metadata, its impact categories, and
// any normalization-weighting sets.
func (x *SimaProLCIAExtractor) readMethod(lines [][]string, index int, filename string) ([]*ingestion.Dataset, int, error) {
	metadata, index, err := x.readMetadata(lines, index)
	if err != nil {
		return nil, index, err
	}
	methodName := metadata["Name"]
	description := metadata["Comment"]

	type category struct {
		name string
		unit string
		cfs  []*ingestion.Exchange
	}
	type weight struct {
		category string
		scale    float64
	}
	type weighting struct {
		name    string
		weights []weight
	}
	var categories []category
	var weightings []weighting

	for index < len(lines) && (len(lines[index]) == 0 || lines[index][0] != "End") {
		switch {
		case len(lines[index]) == 0 || lines[index][0] == "":
			index++
		case lines[index][0] == "Impact category":
			index++
			if index >= len(lines) || len(lines[index]) < 2 {
				return nil, index, fmt.Errorf("truncated impact category block at line %d", index)
			}
			cat := category{name: lines[index][0], unit: lines[index][1]}
			index += 2 // category line, then a blank separator
			if index >= len(lines) || len(lines[index]) == 0 || lines[index][0] != "Substances" {
				return nil, index, fmt.Errorf("expected Substances section at line %d", index)
			}
			index++
			for index < len(lines) && len(lines[index]) > 0 && lines[index][0] != "" {
				cf, err := x.parseCharacterizationFactor(lines[index])
				if err != nil {
					return nil, index, fmt.Errorf("line %d: %w", index, err)
				}
				cat.cfs = append(cat.cfs, cf)
				index++
			}
			categories = append(categories, cat)
		case lines[index][0] == "Normalization-Weighting set":
			index++
			if index >= len(lines) || len(lines[index]) == 0 {
				return nil, index, fmt.Errorf("truncated weighting block at line %d", index)
			}
			w := weighting{name: lines[index][0]}
			index += 2 // set name line, then a blank separator
			if index >= len(lines) || len(lines[index]) == 0 || lines[index][0] != "Weighting" {
				return nil, index, fmt.Errorf("expected Weighting section at line %d", index)
			}
			index++
			for index < len(lines) && len(lines[index]) > 0 && lines[index][0] != "" {
				if len(lines[index]) < 2 {
					return nil, index, fmt.Errorf("malformed weighting line %d", index)
				}
				scale, err := strconv.ParseFloat(lines[index][1], 64)
				if err != nil {
					return nil, index, fmt.Errorf("weighting line %d: %w", index, err)
				}
				if scale != 0 {
					w.weights = append(w.weights, weight{category: lines[index][0], scale: scale})
				}
				index++
			}
			weightings = append(weightings, w)
		default:
			return nil, index, fmt.Errorf("unexpected section %q at line %d", lines[index][0], index)
		}
	}

	var out []*ingestion.Dataset
	for _, cat := range categories {
		out = append(out, &ingestion.Dataset{
			Name:       methodName + ": " + cat.name,
			Unit:       cat.unit,
			Database:   x.DatabaseName,
			Categories: []string{methodName, cat.name},
			Comment:    description,
			Filename:   filename,
			Type:       "impact category",
			Exchanges:  cat.cfs,
		})
	}
	for _, w := range weightings {
		var cfs []*ingestion.Exchange
		for _, wt := range w.weights {
			for _, cat := range categories {
				if cat.name != wt.category {
					continue
				}
				for _, cf := range cat.cfs {
					scaled := *cf
					scaled.Amount *= wt.scale
					scaled.Uncertainty = ingestion.Undefined(scaled.Amount)
					cfs = append(cfs, &scaled)
				}
			}
		}
		out = append(out, &ingestion.Dataset{
			Name:       methodName + ": " + w.name,
			Unit:       metadata["Weighting unit"],
			Database:   x.DatabaseName,
			Categories: []string{methodName, w.name},
			Comment:    description,
			Filename:   filename,
			Type:       "impact category",
			Exchanges:  cfs,
		})
	}
	return out, index, nil
}

// readMetadata collects key/value pairs (key on one line, value on the next)
// until the first Impact category marker.
func (x *SimaProLCIAExtractor) readMetadata(lines [][]string, index int) (map[string]string, int, error) {
	metadata := make(map[string]string)
	for index < len(lines) {
		switch {
		case len(lines[index]) == 0 || lines[index][0] == "":
			index++
		case lines[index][0] == "Impact category":
			return metadata, index, nil
		case index+1 < len(lines) && len(lines[index+1]) > 0:
			metadata[lines[index][0]] = lines[index+1][0]
			index += 2
		default:
			index++
		}
	}
	return nil, index, fmt.Errorf("method block without impact categories")
}

// parseCharacterizationFactor converts one Substances line into a biosphere
// exchange. Layout: category, subcategory, flow name, CAS number, CF, unit.
func (x *SimaProLCIAExtractor) parseCharacterizationFactor(line []string) (*ingestion.Exchange, error) {
	if len(line) < 6 {
		return nil, fmt.Errorf("substance line has %d fields, want 6", len(line))
	}
	amount, err := strconv.ParseFloat(line[4], 64)
	if err != nil {
		return nil, fmt.Errorf("characterization factor %q: %w", line[4], err)
	}

	var categories []string
	if line[1] == "(unspecified)" {
		categories = []string{strings.ToLower(line[0])}
	} else {
		categories = []string{strings.ToLower(line[0]), strings.ToLower(line[1])}
	}

	return &ingestion.Exchange{
		Name:        line[2],
		Unit:        ingestion.NormalizeUnit(line[5]),
		Amount:      amount,
		Type:        ingestion.Biosphere,
		Categories:  categories,
		CASNumber:   line[3],
		Uncertainty: ingestion.Undefined(amount),
	}, nil
}
