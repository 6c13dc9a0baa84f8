// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package contract

import (
	"strings"
	"testing"
)

func TestSoftLimitBytes_EnvOverride(t *testing.T) {
	if got := SoftLimitBytes(); got != DefaultSoftLimitBytes {
		t.Errorf("SoftLimitBytes() = %d, want default %d", got, DefaultSoftLimitBytes)
	}

	t.Setenv("IRE_SOFT_LIMIT_BYTES", "1024")
	if got := SoftLimitBytes(); got != 1024 {
		t.Errorf("SoftLimitBytes() = %d, want 1024", got)
	}

	t.Setenv("IRE_SOFT_LIMIT_BYTES", "not-a-number")
	if got := SoftLimitBytes(); got != DefaultSoftLimitBytes {
		t.Errorf("invalid env: SoftLimitBytes() = %d, want default", got)
	}

	t.Setenv("IRE_SOFT_LIMIT_BYTES", "-5")
	if got := SoftLimitBytes(); got != DefaultSoftLimitBytes {
		t.Errorf("negative env: SoftLimitBytes() = %d, want default", got)
	}
}

func TestValidateSourceSize(t *testing.T) {
	if r := ValidateSourceSize(1024); !r.OK {
		t.Errorf("small file rejected: %s", r.Message)
	}
	if r := ValidateSourceSize(DefaultSoftLimitBytes + 1); r.OK {
		t.Error("oversized file accepted")
	}
}

func TestValidateDatabaseName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		wantOK bool
	}{
		{"valid", "ecoinvent-3.9", true},
		{"empty", "", false},
		{"leading space", " biosphere3", false},
		{"trailing space", "biosphere3 ", false},
		{"too long", strings.Repeat("x", DatabaseNameMaxBytes+1), false},
		{"exactly max", strings.Repeat("x", DatabaseNameMaxBytes), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if r := ValidateDatabaseName(tt.input); r.OK != tt.wantOK {
				t.Errorf("ValidateDatabaseName(%q).OK = %v, want %v (%s)",
					tt.input, r.OK, tt.wantOK, r.Message)
			}
		})
	}
}
