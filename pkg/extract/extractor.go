// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package extract

import (
	"fmt"
	"log/slog"

	"github.com/kraklabs/ire/pkg/ingestion"
)

// Extractor produces canonical records from a source path. Implementations
// populate exchanges but generally leave Input unset; linking happens later
// in the pipeline.
type Extractor interface {
	Extract(path string) ([]*ingestion.Dataset, error)
}

// ProgressFunc reports extraction progress (done out of total source files).
type ProgressFunc func(done, total int)

// ForFormat returns the extractor registered for the given format name.
func ForFormat(format string, logger *slog.Logger) (Extractor, error) {
	switch format {
	case "ecospold2":
		return NewEcospold2Extractor(logger), nil
	case "simapro":
		return NewSimaProLCIAExtractor(logger), nil
	}
	return nil, fmt.Errorf("unknown source format %q (supported: ecospold2, simapro)", format)
}

// Formats lists the supported source format names.
func Formats() []string {
	return []string{"ecospold2", "simapro"}
}
