// Package metrics holds the Prometheus collectors for foundermatch. Collectors
// register with the default registry on package init and are exposed at /metrics.
package metrics

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "foundermatch"

var (
	// Engine operations: search, recommend, keyword_search
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Duration of ranking operations in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)

	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total ranking operations by outcome",
		},
		[]string{"operation", "result"}, // result: "ok", "empty", "error"
	)

	RecommendBasis = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_basis_total",
			Help:      "Recommendations by the signal they were built from",
		},
		[]string{"basis"}, // "search_history", "skills", "preferences"
	)

	SpellCorrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "spell_corrections_total",
			Help:      "Search queries rewritten by spelling correction",
		},
		[]string{"mode"}, // "requested", "auto"
	)

	// Corpus
	CorpusStartups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "corpus_startups",
			Help:      "Number of startups in the fitted corpus",
		},
	)

	VocabularySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "vocabulary_size",
			Help:      "Number of tokens in the fitted TF-IDF vocabulary",
		},
	)

	ReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reloads_total",
			Help:      "Engine reloads by outcome",
		},
		[]string{"result"},
	)

	ReloadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reload_duration_seconds",
			Help:      "Duration of engine reloads in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	LastReloadSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_reload_success_timestamp_seconds",
			Help:      "Unix time of the last successful reload",
		},
	)

	ImportedFiles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imported_files_total",
			Help:      "Corpus files imported or removed",
		},
		[]string{"action", "result"}, // action: "import", "remove"
	)

	SearchQueriesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_queries_recorded_total",
			Help:      "Search queries appended to user history",
		},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total HTTP API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "HTTP API request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// ErrEmpty marks an operation that succeeded but could not rank anything, such
// as a recommendation for a user without history.
var ErrEmpty = errors.New("empty")

// RecordOperation records the duration and outcome of a ranking operation.
func RecordOperation(operation string, duration time.Duration, err error) {
	OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
	result := "ok"
	switch {
	case errors.Is(err, ErrEmpty):
		result = "empty"
	case err != nil:
		result = "error"
	}
	OperationsTotal.WithLabelValues(operation, result).Inc()
}

// RecordReload records a reload attempt. Gauges change only on success.
func RecordReload(duration time.Duration, startups, vocabulary int, err error) {
	ReloadDuration.Observe(duration.Seconds())
	if err != nil {
		ReloadsTotal.WithLabelValues("error").Inc()
		return
	}
	ReloadsTotal.WithLabelValues("ok").Inc()
	CorpusStartups.Set(float64(startups))
	VocabularySize.Set(float64(vocabulary))
	LastReloadSuccess.Set(float64(time.Now().Unix()))
}

// RecordFileEvent records an import or removal of a corpus file.
func RecordFileEvent(action string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	ImportedFiles.WithLabelValues(action, result).Inc()
}

// RecordAPIRequest records an HTTP request against its route pattern.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
