// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/ire/pkg/extract"
)

// ProgressConfig determines if and how progress should be displayed.
type ProgressConfig struct {
	// Enabled indicates whether progress bars should be shown.
	// Disabled when --json, -q flags are used, or when stderr is not a TTY.
	Enabled bool

	// Writer is where progress output goes (always os.Stderr).
	Writer io.Writer

	// NoColor disables colored output in progress bars.
	NoColor bool
}

// NewProgressConfig creates a progress configuration based on global flags and TTY detection.
//
// Progress is disabled when:
//   - --json flag is set (quiet is auto-set)
//   - -q/--quiet flag is set
//   - stderr is not a TTY (piped output, CI environments, etc.)
func NewProgressConfig(globals GlobalFlags) ProgressConfig {
	enabled := !globals.Quiet && isatty.IsTerminal(os.Stderr.Fd())

	return ProgressConfig{
		Enabled: enabled,
		Writer:  os.Stderr,
		NoColor: globals.NoColor,
	}
}

// NewProgressBar creates a progress bar with consistent styling.
// Returns nil if progress is disabled, allowing callers to safely check for nil.
//
// Parameters:
//   - cfg: Progress configuration from NewProgressConfig
//   - total: Total number of items to process
//   - description: Short description shown before the progress bar
func NewProgressBar(cfg ProgressConfig, total int64, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions64(total,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionShowCount(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// NewSpinner creates an indeterminate progress spinner for operations
// where the total count is unknown.
// Returns nil if progress is disabled.
//
// Parameters:
//   - cfg: Progress configuration from NewProgressConfig
//   - description: Short description shown before the spinner
func NewSpinner(cfg ProgressConfig, description string) *progressbar.ProgressBar {
	if !cfg.Enabled {
		return nil
	}

	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(cfg.Writer),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionEnableColorCodes(!cfg.NoColor),
	)
}

// extractionProgress adapts the progress bar to the extractor callback.
// The bar is created on the first call, once the file total is known.
// Returns nil when progress is disabled.
func extractionProgress(cfg ProgressConfig) extract.ProgressFunc {
	if !cfg.Enabled {
		return nil
	}

	var bar *progressbar.ProgressBar
	return func(done, total int) {
		if bar == nil {
			bar = NewProgressBar(cfg, int64(total), phaseDescription("extracting"))
			if bar == nil {
				return
			}
		}
		_ = bar.Set(done)
		if done >= total {
			_ = bar.Finish()
		}
	}
}

// phaseDescription maps internal phase names to user-facing descriptions.
func phaseDescription(phase string) string {
	switch phase {
	case "extracting":
		return "Extracting datasets"
	case "linking":
		return "Linking exchanges"
	case "writing":
		return "Writing to database"
	default:
		return phase
	}
}
