// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analysis metrics
	AnalysisRunsTotal   *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	RateLimitedRequests prometheus.Counter
	PositionsAnalyzed   prometheus.Counter
	CandidatesSelected  *prometheus.CounterVec

	// Chain metrics
	ChainFetchesTotal      *prometheus.CounterVec
	ChainFetchDuration     *prometheus.HistogramVec
	TransactionsNormalized *prometheus.CounterVec
	MalformedEventsDropped *prometheus.CounterVec

	// Oracle metrics
	OracleLookupDuration *prometheus.HistogramVec
	OracleLookupErrors   prometheus.Counter
	PriceFeedCacheHits   prometheus.Counter

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "oof_moments"
	}

	return &Metrics{
		// Analysis metrics
		AnalysisRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of analysis runs by status",
		}, []string{"status"}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Full analysis run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300},
		}),
		RateLimitedRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the cooldown gate",
		}),
		PositionsAnalyzed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "positions_analyzed_total",
			Help:      "Total number of token positions analyzed",
		}),
		CandidatesSelected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "candidates_selected_total",
			Help:      "Total number of moment candidates selected by category and rarity",
		}, []string{"category", "rarity"}),

		// Chain metrics
		ChainFetchesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chains",
			Name:      "fetches_total",
			Help:      "Total number of per-chain fetch units by chain and status",
		}, []string{"chain", "status"}),
		ChainFetchDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chains",
			Name:      "fetch_duration_seconds",
			Help:      "Per-chain fetch and accounting duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"chain"}),
		TransactionsNormalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chains",
			Name:      "transactions_normalized_total",
			Help:      "Total number of canonical transactions emitted by chain",
		}, []string{"chain"}),
		MalformedEventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chains",
			Name:      "malformed_events_dropped_total",
			Help:      "Total number of raw events dropped as malformed by chain",
		}, []string{"chain"}),

		// Oracle metrics
		OracleLookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "lookup_duration_seconds",
			Help:      "Price oracle lookup duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		OracleLookupErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "lookup_errors_total",
			Help:      "Total number of failed price oracle lookups",
		}),
		PriceFeedCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "oracle",
			Name:      "feed_cache_hits_total",
			Help:      "Total number of price lookups answered from the feed cache",
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordRun increments the analysis runs counter for a status.
func RecordRun(status string) {
	DefaultMetrics.AnalysisRunsTotal.WithLabelValues(status).Inc()
}

// RecordRateLimited increments the rate limited requests counter.
func RecordRateLimited() {
	DefaultMetrics.RateLimitedRequests.Inc()
}

// RecordCandidate increments the candidates selected counter.
func RecordCandidate(category, rarity string) {
	DefaultMetrics.CandidatesSelected.WithLabelValues(category, rarity).Inc()
}

// RecordChainFetch increments the chain fetches counter for a status.
func RecordChainFetch(chain, status string) {
	DefaultMetrics.ChainFetchesTotal.WithLabelValues(chain, status).Inc()
}
