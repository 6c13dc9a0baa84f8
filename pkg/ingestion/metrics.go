// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-only

package ingestion

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// metricsPipeline holds Prometheus metrics for the reconciliation pipeline.
type metricsPipeline struct {
	once sync.Once

	// Records
	datasetsProcessed  prometheus.Counter
	exchangesProcessed prometheus.Counter

	// Linking
	exchangesLinked   prometheus.Counter
	exchangesUnlinked prometheus.Counter
	linkFailures      prometheus.Counter

	// Uncertainty
	distributionsDemoted prometheus.Counter

	// Strategies
	strategiesApplied prometheus.Counter
	strategyFailures  prometheus.Counter

	// Durations
	strategyDuration prometheus.Histogram
	totalDuration    prometheus.Histogram
}

var pipelineMetrics metricsPipeline

func metrics() *metricsPipeline {
	pipelineMetrics.init()
	return &pipelineMetrics
}

func (m *metricsPipeline) init() {
	m.once.Do(func() {
		m.datasetsProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_pipeline_datasets_total", Help: "Datasets processed by pipeline runs"})
		m.exchangesProcessed = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_pipeline_exchanges_total", Help: "Exchanges processed by pipeline runs"})

		m.exchangesLinked = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_link_resolved_total", Help: "Exchanges with a resolved input after a run"})
		m.exchangesUnlinked = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_link_unresolved_total", Help: "Exchanges left without input after a run"})
		m.linkFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_link_failures_total", Help: "Fatal linking errors (ambiguity, missing identity)"})

		m.distributionsDemoted = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_uncertainty_demoted_total", Help: "Distributions demoted to undefined during validation"})

		m.strategiesApplied = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_strategies_applied_total", Help: "Strategies completed successfully"})
		m.strategyFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "ire_strategy_failures_total", Help: "Strategies aborted with an error"})

		buckets := []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
		m.strategyDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ire_strategy_seconds", Help: "Duration per strategy", Buckets: buckets})
		m.totalDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "ire_pipeline_seconds", Help: "Total pipeline run duration", Buckets: buckets})

		prometheus.MustRegister(
			m.datasetsProcessed, m.exchangesProcessed,
			m.exchangesLinked, m.exchangesUnlinked, m.linkFailures,
			m.distributionsDemoted,
			m.strategiesApplied, m.strategyFailures,
			m.strategyDuration, m.totalDuration,
		)
	})
}
