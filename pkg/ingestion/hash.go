// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// DefaultFields is the standard field subset used for fingerprinting when no
// explicit list is given.
var DefaultFields = []string{"name", "categories", "unit", "reference product", "location"}

// ActivityHash produces a deterministic fingerprint over the given field
// subset of a record. Two records with identical fingerprints under the same
// field list are considered equivalent for linking and deduplication.
//
// Each field value is stringified, case-folded, and whitespace-normalized;
// missing fields contribute the empty marker. Values are joined in the given
// field order and hashed, so the result is independent of record insertion
// order and safe to compute concurrently.
func ActivityHash(rec Fielder, fields []string) string {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	var b strings.Builder
	for _, field := range fields {
		v, ok := rec.Field(field)
		if !ok {
			continue // missing field normalizes to the empty marker
		}
		b.WriteString(normalizeFieldValue(v))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// normalizeFieldValue stringifies an attribute value without type validation,
// then lowercases it and collapses internal whitespace.
func normalizeFieldValue(v any) string {
	var s string
	switch val := v.(type) {
	case string:
		s = val
	case []string:
		// Field separator keeps ("a", "b") distinct from ("ab",).
		s = strings.Join(val, "\x00")
	case float64:
		s = strconv.FormatFloat(val, 'g', -1, 64)
	case int:
		s = strconv.Itoa(val)
	case fmt.Stringer:
		s = val.String()
	default:
		s = fmt.Sprintf("%v", val)
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
