// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package contract

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultSoftLimitBytes is the baseline soft limit for a single source
	// file handed to an extractor.
	DefaultSoftLimitBytes = 256 << 20 // 256 MiB

	// DatabaseNameMaxBytes is the maximum length for a database name.
	DatabaseNameMaxBytes = 128
)

// SoftLimitBytes returns the effective soft limit for source file size.
// Controlled via env IRE_SOFT_LIMIT_BYTES; falls back to DefaultSoftLimitBytes.
func SoftLimitBytes() int64 {
	if v := os.Getenv("IRE_SOFT_LIMIT_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return DefaultSoftLimitBytes
}

// ValidationResult represents the result of a validation check.
type ValidationResult struct {
	OK      bool
	Message string
}

// ValidateSourceSize checks a source file's size against the soft limit
// before it is loaded into memory by an extractor.
func ValidateSourceSize(size int64) *ValidationResult {
	if limit := SoftLimitBytes(); size > limit {
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("source file is %d bytes, soft limit is %d", size, limit),
		}
	}
	return &ValidationResult{OK: true}
}

// ValidateDatabaseName checks that a database name is usable as a dataset
// identity component. Names are compared case-sensitively everywhere, so
// leading or trailing whitespace is rejected rather than trimmed.
func ValidateDatabaseName(name string) *ValidationResult {
	switch {
	case name == "":
		return &ValidationResult{OK: false, Message: "database name is empty"}
	case len(name) > DatabaseNameMaxBytes:
		return &ValidationResult{
			OK:      false,
			Message: fmt.Sprintf("database name exceeds %d bytes", DatabaseNameMaxBytes),
		}
	case name != strings.TrimSpace(name):
		return &ValidationResult{OK: false, Message: "database name has surrounding whitespace"}
	}
	return &ValidationResult{OK: true}
}
