package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcome labels.
const (
	FetchStatusOK    = "ok"
	FetchStatusError = "error"
	FetchStatusPanic = "panic"
)

// Filter drop reasons.
const (
	DropNonEnglish = "non_english"
	DropMissing    = "missing"
	DropDuplicate  = "duplicate"
	DropIrrelevant = "irrelevant"
)

var (
	URLsDiscovered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_urls_discovered_total",
		Help: "The total number of candidate article URLs discovered per source",
	}, []string{"source"})

	URLsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_urls_rejected_total",
		Help: "The total number of discovered URLs rejected by the URL filter",
	}, []string{"reason"})

	FetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_fetch_total",
		Help: "Article downloads by outcome",
	}, []string{"status"})

	ArticlesAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impact_articles_accepted_total",
		Help: "Articles accepted by ingestion after the relevance check",
	})

	FilterDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "impact_filter_dropped_total",
		Help: "Articles dropped by the relevance and language filters",
	}, []string{"reason"})

	ArticlesScored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "impact_articles_scored_total",
		Help: "Articles that received an impact score",
	})

	ImpactScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "impact_score",
		Help:    "Distribution of impact scores",
		Buckets: prometheus.LinearBuckets(0, 0.1, 11),
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "impact_stage_duration_seconds",
		Help:    "Duration of a pipeline stage run",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})
)
