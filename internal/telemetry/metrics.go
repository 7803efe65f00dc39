// Package telemetry holds the process's Prometheus collectors: a
// package-level lazy-initialised collector set behind an Init/Enabled
// gate, registered once at startup.
package telemetry

import (
	"strconv"
	"sync/atomic"

	xx "github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

// Init registers every collector against r. Passing a nil registerer or
// isEnabled=false leaves every observe/inc call a no-op.
func Init(r prometheus.Registerer, isEnabled bool) {
	enabled.Store(isEnabled)
	if !isEnabled || r == nil {
		return
	}
	initCollectors(r)
}

func Enabled() bool { return enabled.Load() }

var (
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	queryRequestsTotal        *prometheus.CounterVec
	queryResultRowsTotal      prometheus.Counter
	queryProcessedBytesTotal  prometheus.Counter
	queryDurationSeconds      *prometheus.HistogramVec
	queryLimitReachedTotal    prometheus.Counter
	queryTimeoutExpiredTotal  prometheus.Counter
	busDecodeErrorsTotal      *prometheus.CounterVec
	busPublishErrorsTotal     *prometheus.CounterVec
	sessionRebuildTotal       prometheus.Counter
	coveredCellsGauge         *prometheus.GaugeVec
)

func initCollectors(r prometheus.Registerer) {
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "http_requests_total", Help: "Total number of HTTP requests."},
		[]string{"method", "route", "status"},
	)
	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "Duration of HTTP requests in seconds.", Buckets: prometheus.ExponentialBuckets(0.005, 2, 12)},
		[]string{"method", "route", "status"},
	)

	queryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "vehicle_query_requests_total", Help: "Vehicle query requests by terminal outcome."},
		[]string{"outcome"},
	)
	queryResultRowsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vehicle_query_result_rows_total", Help: "Total number of result rows published."},
	)
	queryProcessedBytesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vehicle_query_processed_bytes_total", Help: "Total bytes processed across all scanned batches."},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "vehicle_query_duration_seconds", Help: "End-to-end query executor latency in seconds.", Buckets: prometheus.ExponentialBuckets(0.005, 2, 14)},
		[]string{"outcome"},
	)
	queryLimitReachedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vehicle_query_limit_reached_total", Help: "Queries that stopped because limit was reached."},
	)
	queryTimeoutExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "vehicle_query_timeout_expired_total", Help: "Queries that stopped because the batch-boundary timeout elapsed."},
	)
	busDecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_decode_errors_total", Help: "Inbound message decode failures by subject."},
		[]string{"subject"},
	)
	busPublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bus_publish_errors_total", Help: "Outbound publish failures by subject."},
		[]string{"subject"},
	)
	sessionRebuildTotal = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "scan_session_rebuild_total", Help: "Number of times the scan session handle was replaced."},
	)
	coveredCellsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "geohash_cover_cells", Help: "Sampled covering-set size per query (hashed label to limit cardinality)."},
		[]string{"query_hash"},
	)

	r.MustRegister(
		httpRequestsTotal, httpRequestDurationSeconds,
		queryRequestsTotal, queryResultRowsTotal, queryProcessedBytesTotal,
		queryDurationSeconds, queryLimitReachedTotal, queryTimeoutExpiredTotal,
		busDecodeErrorsTotal, busPublishErrorsTotal,
		sessionRebuildTotal, coveredCellsGauge,
	)
}

// ObserveHTTP records one HTTP request on the liveness/metrics surface.
func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() || httpRequestsTotal == nil {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveQuery records one terminal query outcome.
func ObserveQuery(outcome string, durationSeconds float64, processedBytes int64, limitReached, timeoutExpired bool) {
	if !enabled.Load() {
		return
	}
	if outcome == "" {
		outcome = "unknown"
	}
	if queryRequestsTotal != nil {
		queryRequestsTotal.WithLabelValues(outcome).Inc()
	}
	if queryDurationSeconds != nil {
		queryDurationSeconds.WithLabelValues(outcome).Observe(durationSeconds)
	}
	if queryProcessedBytesTotal != nil {
		queryProcessedBytesTotal.Add(float64(processedBytes))
	}
	if limitReached && queryLimitReachedTotal != nil {
		queryLimitReachedTotal.Inc()
	}
	if timeoutExpired && queryTimeoutExpiredTotal != nil {
		queryTimeoutExpiredTotal.Inc()
	}
}

// IncResultRow records one selected and published result row.
func IncResultRow() {
	if !enabled.Load() || queryResultRowsTotal == nil {
		return
	}
	queryResultRowsTotal.Inc()
}

// IncDecodeError records an inbound message the dispatcher dropped.
func IncDecodeError(subject string) {
	if !enabled.Load() || busDecodeErrorsTotal == nil {
		return
	}
	busDecodeErrorsTotal.WithLabelValues(subject).Inc()
}

// IncPublishError records a failed outbound publish.
func IncPublishError(subject string) {
	if !enabled.Load() || busPublishErrorsTotal == nil {
		return
	}
	busPublishErrorsTotal.WithLabelValues(subject).Inc()
}

// IncSessionRebuild records a scan-session replacement.
func IncSessionRebuild() {
	if !enabled.Load() || sessionRebuildTotal == nil {
		return
	}
	sessionRebuildTotal.Inc()
}

// ObserveCoverSize samples the geohash covering-set size for 1% of
// queries (deterministic xxhash sample to keep label cardinality down).
func ObserveCoverSize(queryID string, size int) {
	if !enabled.Load() || coveredCellsGauge == nil || queryID == "" {
		return
	}
	const denom = uint64(100)
	h := xx.Sum64String(queryID)
	if h%denom != 0 {
		return
	}
	coveredCellsGauge.WithLabelValues(toShortHash(h)).Set(float64(size))
}

func toShortHash(h uint64) string {
	const width = 8
	x := h >> 32
	s := strconv.FormatUint(x, 16)
	if len(s) >= width {
		return s[len(s)-width:]
	}
	var b [width]byte
	pad := width - len(s)
	for i := range pad {
		b[i] = '0'
	}
	copy(b[pad:], s)
	return string(b[:])
}
