// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package contract provides validation constants and utilities for ire.
//
// This internal package contains configuration constants and validation
// functions used throughout ire. It guards the import path against inputs
// that would exhaust memory or corrupt dataset identities.
//
// # Source Size Limits
//
// ire enforces a soft limit on individual source files before extraction:
//
//	// Default limit is 256 MiB
//	limit := contract.SoftLimitBytes()
//
//	// Validate a file before loading it
//	result := contract.ValidateSourceSize(info.Size())
//	if !result.OK {
//	    log.Printf("Validation failed: %s", result.Message)
//	}
//
// # Configuration via Environment
//
// The soft limit can be adjusted via the IRE_SOFT_LIMIT_BYTES environment
// variable. This is useful for environments with limited memory or when
// importing unusually large exports:
//
//	export IRE_SOFT_LIMIT_BYTES=33554432  # 32 MiB
//
// If the environment variable is not set or invalid, the default limit
// of 256 MiB (DefaultSoftLimitBytes) is used.
//
// # Constants
//
// The package exports these constants:
//
//   - DefaultSoftLimitBytes: Baseline soft limit (256 MiB)
//   - DatabaseNameMaxBytes: Maximum length for database names (128 bytes)
package contract
