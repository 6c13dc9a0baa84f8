// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Pipeline executes an ordered sequence of strategies over one fully
// materialized dataset collection. Execution is single-threaded and
// synchronous: a run either completes or stops at the first failing strategy
// with no rollback.
//
// Composition order is a modeling decision: taxonomy remapping before name
// remapping, unit normalization before strategies that branch on unit
// strings, and linking only after codes exist.
type Pipeline struct {
	logger     *slog.Logger
	strategies []Strategy
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	// DatasetsProcessed is the number of datasets in the final collection.
	DatasetsProcessed int

	// ExchangesProcessed is the total number of exchanges in the final
	// collection.
	ExchangesProcessed int

	// ExchangesLinked is the number of exchanges with a resolved input.
	ExchangesLinked int

	// ExchangesUnlinked is the number of linkable exchanges still without an
	// input. Unresolved references are expected and non-fatal.
	ExchangesUnlinked int

	// UnlinkedByType breaks ExchangesUnlinked down by exchange type.
	UnlinkedByType map[ExchangeType]int

	// DistributionsDemoted is the number of exchanges and parameters whose
	// invalid distribution was demoted to the undefined kind.
	DistributionsDemoted int

	// StrategiesApplied is the number of strategies that completed.
	StrategiesApplied int

	// TotalDuration is the wall time of the whole run.
	TotalDuration time.Duration
}

// NewPipeline creates a pipeline with the given strategy order.
func NewPipeline(logger *slog.Logger, strategies ...Strategy) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{logger: logger, strategies: strategies}
}

// Run threads the collection through every strategy in order.
//
// On failure the collection returned is the partially transformed state of
// the last successfully completed strategy (plus whatever the failing
// strategy mutated before stopping); the error is what the failing strategy
// reported, wrapped with its name. The result is populated either way.
func (p *Pipeline) Run(data []*Dataset) ([]*Dataset, *RunResult, error) {
	m := metrics()
	start := time.Now()

	var applied int
	var runErr error
	for _, strategy := range p.strategies {
		stepStart := time.Now()
		p.logger.Info("pipeline.strategy.start", "strategy", strategy.Name, "datasets", len(data))

		next, err := strategy.Apply(data)
		if next != nil {
			data = next
		}
		elapsed := time.Since(stepStart)
		m.strategyDuration.Observe(elapsed.Seconds())

		if err != nil {
			m.strategyFailures.Inc()
			if isLinkError(err) {
				m.linkFailures.Inc()
			}
			p.logger.Error("pipeline.strategy.failed", "strategy", strategy.Name, "err", err, "duration", elapsed)
			runErr = fmt.Errorf("strategy %s: %w", strategy.Name, err)
			break
		}

		applied++
		m.strategiesApplied.Inc()
		p.logger.Info("pipeline.strategy.done", "strategy", strategy.Name, "duration", elapsed)
	}

	result := summarize(data)
	result.StrategiesApplied = applied
	result.TotalDuration = time.Since(start)

	m.datasetsProcessed.Add(float64(result.DatasetsProcessed))
	m.exchangesProcessed.Add(float64(result.ExchangesProcessed))
	m.exchangesLinked.Add(float64(result.ExchangesLinked))
	m.exchangesUnlinked.Add(float64(result.ExchangesUnlinked))
	m.totalDuration.Observe(result.TotalDuration.Seconds())

	p.logger.Info("pipeline.run.done",
		"strategies", applied,
		"datasets", result.DatasetsProcessed,
		"linked", result.ExchangesLinked,
		"unlinked", result.ExchangesUnlinked,
		"demoted", result.DistributionsDemoted,
		"duration", result.TotalDuration,
	)
	return data, result, runErr
}

func summarize(data []*Dataset) *RunResult {
	result := &RunResult{
		DatasetsProcessed: len(data),
		UnlinkedByType:    make(map[ExchangeType]int),
	}
	for _, ds := range data {
		for _, exc := range ds.Exchanges {
			result.ExchangesProcessed++
			if exc.Input != nil {
				result.ExchangesLinked++
			} else if exc.Type != Production {
				result.ExchangesUnlinked++
				result.UnlinkedByType[exc.Type]++
			}
			if strings.Contains(exc.Comment, DemotionNote) {
				result.DistributionsDemoted++
			}
		}
		for _, param := range ds.Parameters {
			if strings.Contains(param.Comment, DemotionNote) {
				result.DistributionsDemoted++
			}
		}
	}
	return result
}

func isLinkError(err error) bool {
	var ambiguous *AmbiguousLinkError
	var missing *MissingIdentityError
	return errors.As(err, &ambiguous) || errors.As(err, &missing)
}
