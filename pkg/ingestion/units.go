// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import "strings"

// unitNormalization maps vendor unit spellings to the canonical vocabulary.
// Keys are matched case-insensitively after trimming.
var unitNormalization = map[string]string{
	"a":                  "year",
	"bq":                 "becquerel",
	"g":                  "gram",
	"gj":                 "gigajoule",
	"h":                  "hour",
	"ha":                 "hectare",
	"hr":                 "hour",
	"kbq":                "kilo becquerel",
	"kg":                 "kilogram",
	"kgkm":               "kilogram kilometer",
	"km":                 "kilometer",
	"kj":                 "kilojoule",
	"kwh":                "kilowatt hour",
	"l":                  "litre",
	"lu":                 "livestock unit",
	"m":                  "meter",
	"m*year":             "meter-year",
	"m2":                 "square meter",
	"m2*year":            "square meter-year",
	"m2a":                "square meter-year",
	"m3":                 "cubic meter",
	"m3*year":            "cubic meter-year",
	"m3a":                "cubic meter-year",
	"ma":                 "meter-year",
	"metric ton*km":      "ton kilometer",
	"mj":                 "megajoule",
	"my":                 "meter-year",
	"nm3":                "cubic meter",
	"p":                  "unit",
	"personkm":           "person kilometer",
	"person*km":          "person kilometer",
	"pkm":                "person kilometer",
	"t":                  "ton",
	"tkm":                "ton kilometer",
	"tn":                 "ton",
	"tonne":              "ton",
	"vkm":                "vehicle kilometer",
	"wh":                 "watt hour",
	"kg sw":              "kilogram separative work unit",
	"km*year":            "kilometer-year",
	"kg swu":             "kilogram separative work unit",
	"pound":              "pound",
	"lb":                 "pound",
	"sm3":                "standard cubic meter",
	"guest night":        "guest night",
	"kg/m3":              "kilogram per cubic meter",
	"mj/kg":              "megajoule per kilogram",
}

// NormalizeUnit maps a vendor unit string onto the canonical unit vocabulary.
// Unknown units pass through unchanged.
func NormalizeUnit(unit string) string {
	if canonical, ok := unitNormalization[strings.ToLower(strings.TrimSpace(unit))]; ok {
		return canonical
	}
	return unit
}
