// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import "testing"

func TestNormalizeUnit(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"kg", "kilogram"},
		{"KG", "kilogram"},
		{" kg ", "kilogram"},
		{"kWh", "kilowatt hour"},
		{"m2a", "square meter-year"},
		{"m2*year", "square meter-year"},
		{"tkm", "ton kilometer"},
		{"tonne", "ton"},
		{"p", "unit"},
		{"Nm3", "cubic meter"},
		{"kilogram", "kilogram"},     // already canonical, no entry needed
		{"parsecs", "parsecs"},       // unknown passes through
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeUnit(tt.in); got != tt.want {
			t.Errorf("NormalizeUnit(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
