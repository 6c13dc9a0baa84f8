// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"context"
	goerrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/ire/internal/bootstrap"
	"github.com/kraklabs/ire/internal/contract"
	"github.com/kraklabs/ire/internal/errors"
	"github.com/kraklabs/ire/internal/output"
	"github.com/kraklabs/ire/internal/ui"
	"github.com/kraklabs/ire/pkg/extract"
	"github.com/kraklabs/ire/pkg/ingestion"
)

// runImport executes the 'import' CLI command: extract source files into
// canonical records, run the reconciliation pipeline, and store the result.
//
// Flags:
//   - --format: Source format: ecospold2 or simapro (default from config)
//   - --db-name: Database name assigned to imported datasets
//   - --biosphere-dir: Directory holding ElementaryExchanges.xml for flow linking
//   - --drop-unlinked: Discard exchanges that remain unresolved
//   - --json: Output the run summary as JSON
//   - --quiet: Suppress progress output
//   - --no-color: Disable colored output
//   - --debug: Enable debug logging
//   - --metrics-addr: HTTP address for Prometheus metrics (default: disabled)
//
// Examples:
//
//	ire import ./datasets                  Import EcoSpold 2 directory
//	ire import --format simapro lcia.csv   Import a SimaPro LCIA export
//	ire import --drop-unlinked ./datasets  Discard unresolved exchanges
func runImport(args []string, configPath string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	format := fs.String("format", "", "Source format: ecospold2 or simapro (default from config)")
	dbName := fs.String("db-name", "", "Database name for imported datasets (default from config)")
	biosphereDir := fs.String("biosphere-dir", "", "Directory with ElementaryExchanges.xml for biosphere linking")
	dropUnlinked := fs.Bool("drop-unlinked", false, "Discard exchanges that remain unresolved after linking")
	jsonOutput := fs.Bool("json", false, "Output run summary as JSON")
	quiet := fs.BoolP("quiet", "q", false, "Suppress progress output")
	noColor := fs.Bool("no-color", false, "Disable colored output")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ire import [options] <path>

Imports an inventory database from <path> using configuration from
.ire/project.yaml. Datasets are normalized, exchanges are linked by
identity hash, and the result is stored in ~/.ire/data/<project_id>/

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}
	sourcePath := fs.Arg(0)

	globals := GlobalFlags{JSON: *jsonOutput, Quiet: *quiet || *jsonOutput, NoColor: *noColor}
	ui.InitColors(globals.NoColor)

	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load ire configuration",
			err.Error(),
			"Run 'ire init' to create a new configuration",
			err,
		), globals.JSON)
	}

	srcFormat := cfg.Import.Format
	if *format != "" {
		srcFormat = *format
	}
	database := cfg.Import.DatabaseName
	if *dbName != "" {
		database = *dbName
	}
	if r := contract.ValidateDatabaseName(database); !r.OK {
		errors.FatalError(errors.NewInputError(
			"Invalid database name",
			r.Message,
			"Pass a plain name via --db-name, e.g. --db-name ecoinvent-3.9",
		), globals.JSON)
	}

	// Setup logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	if globals.Quiet && !*debug {
		logLevel = slog.LevelWarn
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Start Prometheus metrics endpoint (optional)
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux}
			logger.Info("metrics.http.start", "addr", *metricsAddr, "path", "/metrics")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	// Setup signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		logger.Info("shutdown.signal", "signal", sig.String())
		cancel()
	}()

	validateSourcePath(sourcePath, globals)

	data := extractSource(srcFormat, sourcePath, database, logger, globals)

	flows := loadBiosphereFlows(*biosphereDir, cfg.Import.BiosphereDatabase, globals)
	products := loadTechnosphereProducts(*biosphereDir, database, globals)

	strategies := buildStrategies(database, cfg.Import.LinkFields, flows, products, *dropUnlinked)

	pipeline := ingestion.NewPipeline(logger, strategies...)
	linked, result, err := pipeline.Run(data)
	if err != nil {
		errors.FatalError(importError(err), globals.JSON)
	}

	storeResult(ctx, cfg, logger, linked, globals)
	printImportResult(result, globals)
}

// validateSourcePath applies the size contract to single-file sources.
// Directory sources are validated per file by the extractor walk.
func validateSourcePath(path string, globals GlobalFlags) {
	info, err := os.Stat(path)
	if err != nil {
		errors.FatalError(errors.NewNotFoundError(
			"Source path not found",
			fmt.Sprintf("Cannot stat %s: %v", path, err),
			"Check the path passed to 'ire import'",
		), globals.JSON)
	}
	if info.Mode().IsRegular() {
		if r := contract.ValidateSourceSize(info.Size()); !r.OK {
			errors.FatalError(errors.NewInputError(
				"Source file too large",
				r.Message,
				"Raise the limit via IRE_SOFT_LIMIT_BYTES if this is intentional",
			), globals.JSON)
		}
	}
}

// extractSource builds the extractor for the format and runs it.
func extractSource(format, path, database string, logger *slog.Logger, globals GlobalFlags) []*ingestion.Dataset {
	extractor, err := extract.ForFormat(format, logger)
	if err != nil {
		errors.FatalError(errors.NewInputError(
			"Invalid format",
			err.Error(),
			"Run 'ire import --format ecospold2 <dir>' or '--format simapro <file>'",
		), globals.JSON)
	}

	progressCfg := NewProgressConfig(globals)

	switch x := extractor.(type) {
	case *extract.Ecospold2Extractor:
		x.DatabaseName = database
		x.Progress = extractionProgress(progressCfg)
	case *extract.SimaProLCIAExtractor:
		x.DatabaseName = database
	}

	data, err := extractor.Extract(path)
	if err != nil {
		errors.FatalError(errors.NewDataError(
			"Extraction failed",
			err.Error(),
			"Check that the source files match the selected format",
			err,
		), globals.JSON)
	}
	if len(data) == 0 {
		errors.FatalError(errors.NewDataError(
			"No datasets found",
			fmt.Sprintf("The source at %s produced no datasets", path),
			"Check the path and the --format flag",
			nil,
		), globals.JSON)
	}
	return data
}

// loadBiosphereFlows reads the elementary flow list when a directory was
// given. Returns nil when biosphere linking is not configured.
func loadBiosphereFlows(dir, database string, globals GlobalFlags) []*ingestion.Dataset {
	if dir == "" {
		return nil
	}
	if database == "" {
		database = "biosphere"
	}
	flows, err := extract.ExtractElementaryFlows(dir, database)
	if err != nil {
		errors.FatalError(errors.NewDataError(
			"Cannot load elementary flows",
			err.Error(),
			"Check that the directory contains ElementaryExchanges.xml",
			err,
		), globals.JSON)
	}
	return flows
}

// loadTechnosphereProducts reads the technosphere master list shipped next to
// the elementary flow list. The file is optional; without it the master-list
// linking pass is skipped.
func loadTechnosphereProducts(dir, database string, globals GlobalFlags) []*ingestion.Dataset {
	if dir == "" {
		return nil
	}
	products, err := extract.ExtractTechnosphereMetadata(dir, database)
	if err != nil {
		if goerrors.Is(err, fs.ErrNotExist) {
			return nil
		}
		errors.FatalError(errors.NewDataError(
			"Cannot load technosphere metadata",
			err.Error(),
			"Check IntermediateExchanges.xml in the --biosphere-dir directory",
			err,
		), globals.JSON)
	}
	return products
}

// buildStrategies assembles the standard reconciliation order. Linking runs
// after every normalization step so hashes see canonical values.
func buildStrategies(database string, linkFields []string, flows, products []*ingestion.Dataset, dropUnlinked bool) []ingestion.Strategy {
	strategies := []ingestion.Strategy{
		ingestion.NormalizeUnits(),
		ingestion.AddDatabaseName(database),
		ingestion.AssignOnlyProductAsProduction(),
		ingestion.SetCodeByActivityHash(false),
		ingestion.RepairUncertainty(),
		ingestion.PruneUncertaintyFields(),
		ingestion.ConvertActivityParametersToList(),
		ingestion.LinkTechnosphereByActivityHash(nil, linkFields),
	}
	if len(products) > 0 {
		// Second technosphere pass against the master list picks up inputs no
		// imported activity produces. Resolved exchanges are left untouched.
		strategies = append(strategies, ingestion.LinkTechnosphereByActivityHash(products, linkFields))
	}
	if len(flows) > 0 {
		strategies = append(strategies, ingestion.LinkBiosphereByActivityHash(flows, nil))
	}
	if dropUnlinked {
		strategies = append(strategies, ingestion.DropUnlinked())
	}
	return strategies
}

// importError maps pipeline failures to user-facing errors.
func importError(err error) *errors.UserError {
	var ambiguous *ingestion.AmbiguousLinkError
	if goerrors.As(err, &ambiguous) {
		return errors.NewDataError(
			"Import failed during linking",
			err.Error(),
			"Add more identity fields (e.g. location) to link_fields to disambiguate",
			err,
		)
	}
	var missing *ingestion.MissingIdentityError
	if goerrors.As(err, &missing) {
		return errors.NewDataError(
			"Import failed during linking",
			err.Error(),
			"Ensure every candidate dataset carries database and code identity",
			err,
		)
	}
	return errors.NewInternalError(
		"Import failed",
		err.Error(),
		"Re-run with --debug for details; report at github.com/kraklabs/ire/issues if it persists",
		err,
	)
}

// storeResult writes the linked datasets into the project backend.
func storeResult(ctx context.Context, cfg *Config, logger *slog.Logger, data []*ingestion.Dataset, globals GlobalFlags) {
	backend, err := bootstrap.OpenProject(bootstrap.ProjectConfig{
		ProjectID: cfg.ProjectID,
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot open inventory database",
			err.Error(),
			"Run 'ire init' first, or check ~/.ire/data permissions",
			err,
		), globals.JSON)
	}
	defer func() { _ = backend.Close() }()

	if err := backend.SaveDatasets(ctx, data); err != nil {
		errors.FatalError(errors.NewDatabaseError(
			"Cannot store imported datasets",
			err.Error(),
			"Close other ire instances or run: ire reset --yes",
			err,
		), globals.JSON)
	}
}

// importSummary is the JSON shape of the run summary.
type importSummary struct {
	Datasets             int            `json:"datasets"`
	Exchanges            int            `json:"exchanges"`
	Linked               int            `json:"linked"`
	Unlinked             int            `json:"unlinked"`
	UnlinkedByType       map[string]int `json:"unlinked_by_type,omitempty"`
	DistributionsDemoted int            `json:"distributions_demoted"`
	StrategiesApplied    int            `json:"strategies_applied"`
	TotalDuration        string         `json:"total_duration"`
}

func outputImportJSON(result *ingestion.RunResult) {
	summary := importSummary{
		Datasets:             result.DatasetsProcessed,
		Exchanges:            result.ExchangesProcessed,
		Linked:               result.ExchangesLinked,
		Unlinked:             result.ExchangesUnlinked,
		DistributionsDemoted: result.DistributionsDemoted,
		StrategiesApplied:    result.StrategiesApplied,
		TotalDuration:        result.TotalDuration.String(),
	}
	if len(result.UnlinkedByType) > 0 {
		summary.UnlinkedByType = make(map[string]int, len(result.UnlinkedByType))
		for excType, n := range result.UnlinkedByType {
			summary.UnlinkedByType[string(excType)] = n
		}
	}
	if err := output.JSON(summary); err != nil {
		errors.FatalError(err, true)
	}
}

// printImportResult reports the run summary, honoring --json.
func printImportResult(result *ingestion.RunResult, globals GlobalFlags) {
	if globals.JSON {
		outputImportJSON(result)
		return
	}

	ui.Successf("Imported %d datasets (%d exchanges)", result.DatasetsProcessed, result.ExchangesProcessed)
	fmt.Printf("  Linked:   %d\n", result.ExchangesLinked)
	fmt.Printf("  Unlinked: %d\n", result.ExchangesUnlinked)
	if result.DistributionsDemoted > 0 {
		ui.Warningf("%d uncertainty distributions demoted to undefined", result.DistributionsDemoted)
	}
	if result.ExchangesUnlinked > 0 {
		for excType, n := range result.UnlinkedByType {
			fmt.Printf("    %s: %d\n", excType, n)
		}
		ui.Infof("Run with --drop-unlinked to discard unresolved exchanges")
	}
	fmt.Printf("  Total: %s\n", result.TotalDuration)
}
