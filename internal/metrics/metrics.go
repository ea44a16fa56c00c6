// Package metrics provides Prometheus metrics for the feed pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "marketwire"

// Feed fetch outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeEmpty      = "empty"
	OutcomeHTTPError  = "http_error"
	OutcomeFetchError = "fetch_error"
	OutcomeParseError = "parse_error"
	OutcomePanic      = "panic"
)

var (
	// FeedFetchTotal counts per-feed fetches by source and outcome.
	FeedFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_fetch_total",
			Help:      "Total number of feed fetches",
		},
		[]string{"source", "outcome"},
	)

	// FeedFetchDuration measures fetch plus parse time per feed.
	FeedFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_fetch_duration_seconds",
			Help:      "Duration of feed fetch and parse in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// AggregationsTotal counts aggregation runs by category and whether the
	// report came from cache.
	AggregationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregations_total",
			Help:      "Total number of category aggregations",
		},
		[]string{"category", "cached"},
	)

	// AggregatedArticles is the article count of the latest report per category.
	AggregatedArticles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregated_articles",
			Help:      "Articles in the latest report for a category",
		},
		[]string{"category"},
	)

	// RefreshTotal counts orchestrator refreshes by trigger and resulting mode.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Total number of news snapshot refreshes",
		},
		[]string{"trigger", "mode"},
	)

	// SnapshotSuccessRatio is feedsSuccessful / feedsAttempted of the latest snapshot.
	SnapshotSuccessRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_feed_success_ratio",
			Help:      "Share of attempted feeds that produced items in the latest snapshot",
		},
	)
)

// RecordFeedFetch records a single feed fetch.
func RecordFeedFetch(source, outcome string, d time.Duration) {
	FeedFetchTotal.WithLabelValues(source, outcome).Inc()
	FeedFetchDuration.WithLabelValues(source).Observe(d.Seconds())
}

// RecordAggregation records a finished aggregation.
func RecordAggregation(category string, cached bool, articles int) {
	label := "false"
	if cached {
		label = "true"
	}
	AggregationsTotal.WithLabelValues(category, label).Inc()
	AggregatedArticles.WithLabelValues(category).Set(float64(articles))
}

// RecordRefresh records an orchestrator refresh.
func RecordRefresh(trigger, mode string, successRatio float64) {
	RefreshTotal.WithLabelValues(trigger, mode).Inc()
	SnapshotSuccessRatio.Set(successRatio)
}
