// Package observability wires RoadPulse's Prometheus metrics: HTTP,
// ingestion, cache, route-query, and community-report instrumentation.
package observability

import (
	"context"
	"errors"
	"strconv"
	"sync/atomic"
	"time"

	xx "github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
)

var enabled atomic.Bool

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
	upstreamLatencySeconds     *prometheus.HistogramVec

	ingestRunsTotal        *prometheus.CounterVec
	ingestDurationSeconds  *prometheus.HistogramVec
	ingestRecordsTotal     *prometheus.CounterVec
	feedStatusGauge        *prometheus.GaugeVec

	cacheOpTotal                  *prometheus.CounterVec
	redisOperationDurationSeconds *prometheus.HistogramVec

	routeCheckTotal           *prometheus.CounterVec
	routeCheckDurationSeconds prometheus.Histogram
	hazardsReturnedTotal      *prometheus.CounterVec

	reportVotesTotal  *prometheus.CounterVec
	reportSubmitTotal *prometheus.CounterVec

	rateLimitedTotal *prometheus.CounterVec

	zoneLookupsTotal *prometheus.CounterVec
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
	upstreamLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "upstream_latency_seconds", Help: "Latency of upstream calls in seconds.", Buckets: prometheus.ExponentialBuckets(0.005, 2, 12)},
		[]string{"upstream"},
	)

	ingestRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ingest_runs_total", Help: "Ingestion runs by feed and outcome."},
		[]string{"feed", "outcome"},
	)
	ingestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "ingest_duration_seconds", Help: "Duration of one adapter's ingest run.", Buckets: prometheus.ExponentialBuckets(0.01, 2, 14)},
		[]string{"feed"},
	)
	ingestRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "ingest_records_total", Help: "Records touched during ingest by feed and action."},
		[]string{"feed", "action"}, // action: inserted|updated|deactivated
	)
	feedStatusGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "feed_status", Help: "1 if the feed is healthy, 0 otherwise."},
		[]string{"feed"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "cache_op_total", Help: "Count of cache operations by op and outcome."},
		[]string{"op", "outcome"},
	)
	redisOperationDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: "redis_operation_duration_seconds", Help: "Latency of Redis operations in seconds.", Buckets: prometheus.ExponentialBuckets(0.001, 2, 15)},
		[]string{"op"},
	)

	routeCheckTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "route_check_total", Help: "Route-check requests by outcome."},
		[]string{"outcome"},
	)
	routeCheckDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "route_check_duration_seconds", Help: "End-to-end latency of a route check.", Buckets: prometheus.ExponentialBuckets(0.01, 2, 14)},
	)
	hazardsReturnedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "hazards_returned_total", Help: "Hazards returned by a route check, by kind."},
		[]string{"kind"},
	)

	reportVotesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "report_votes_total", Help: "Community report votes by resulting transition."},
		[]string{"transition"}, // cast_up|cast_down|removed
	)
	reportSubmitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "report_submit_total", Help: "Community report submissions by type."},
		[]string{"type"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "rate_limited_total", Help: "Requests rejected by a rate gate, by gate name."},
		[]string{"gate"},
	)

	zoneLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "zone_lookups_total", Help: "NWS zone polygon lookups by outcome."},
		[]string{"outcome"}, // hit|miss|not_found|error
	)

	r.MustRegister(
		httpRequestsTotal, httpRequestDurationSeconds, upstreamLatencySeconds,
		ingestRunsTotal, ingestDurationSeconds, ingestRecordsTotal, feedStatusGauge,
		cacheOpTotal, redisOperationDurationSeconds,
		routeCheckTotal, routeCheckDurationSeconds, hazardsReturnedTotal,
		reportVotesTotal, reportSubmitTotal,
		rateLimitedTotal,
		zoneLookupsTotal,
	)
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	if !enabled.Load() || httpRequestsTotal == nil {
		return
	}
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

func ObserveUpstreamLatency(upstream string, durationSeconds float64) {
	if !enabled.Load() || upstreamLatencySeconds == nil {
		return
	}
	upstreamLatencySeconds.WithLabelValues(upstream).Observe(durationSeconds)
}

func ObserveIngestRun(feed string, success bool, dur time.Duration, inserted, updated, deactivated int) {
	if !enabled.Load() || ingestRunsTotal == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	ingestRunsTotal.WithLabelValues(feed, outcome).Inc()
	ingestDurationSeconds.WithLabelValues(feed).Observe(dur.Seconds())
	ingestRecordsTotal.WithLabelValues(feed, "inserted").Add(float64(inserted))
	ingestRecordsTotal.WithLabelValues(feed, "updated").Add(float64(updated))
	ingestRecordsTotal.WithLabelValues(feed, "deactivated").Add(float64(deactivated))
	if feedStatusGauge != nil {
		v := 0.0
		if success {
			v = 1.0
		}
		feedStatusGauge.WithLabelValues(feed).Set(v)
	}
}

func ObserveCacheOp(op string, err error, durationSeconds float64) {
	if !enabled.Load() {
		return
	}
	if op == "" {
		op = "unknown"
	}
	outcome := "ok"
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome = "timeout"
		case errors.Is(err, context.Canceled):
			outcome = "canceled"
		default:
			outcome = "error"
		}
	}
	if cacheOpTotal != nil {
		cacheOpTotal.WithLabelValues(op, outcome).Inc()
	}
	if redisOperationDurationSeconds != nil {
		redisOperationDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
	}
}

func ObserveRouteCheck(outcome string, dur time.Duration, roadEvents, weatherAlerts, communityReports int) {
	if !enabled.Load() || routeCheckTotal == nil {
		return
	}
	routeCheckTotal.WithLabelValues(outcome).Inc()
	routeCheckDurationSeconds.Observe(dur.Seconds())
	hazardsReturnedTotal.WithLabelValues("road_event").Add(float64(roadEvents))
	hazardsReturnedTotal.WithLabelValues("weather_alert").Add(float64(weatherAlerts))
	hazardsReturnedTotal.WithLabelValues("community_report").Add(float64(communityReports))
}

func IncReportVote(transition string) {
	if !enabled.Load() || reportVotesTotal == nil {
		return
	}
	reportVotesTotal.WithLabelValues(transition).Inc()
}

func IncReportSubmit(reportType string) {
	if !enabled.Load() || reportSubmitTotal == nil {
		return
	}
	reportSubmitTotal.WithLabelValues(reportType).Inc()
}

func IncRateLimited(gate string) {
	if !enabled.Load() || rateLimitedTotal == nil {
		return
	}
	rateLimitedTotal.WithLabelValues(gate).Inc()
}

func IncZoneLookup(outcome string) {
	if !enabled.Load() || zoneLookupsTotal == nil {
		return
	}
	zoneLookupsTotal.WithLabelValues(outcome).Inc()
}

// ShortHash limits the cardinality of any label derived from a raw
// identifier (e.g. a feed URL) before it reaches a metric, the same
// xxhash-based technique the teacher's hotness gauge used for H3 cells.
func ShortHash(s string) string {
	const width = 8
	h := xx.Sum64String(s)
	x := h >> 32
	v := strconv.FormatUint(x, 16)
	if len(v) >= width {
		return v[len(v)-width:]
	}
	var b [width]byte
	pad := width - len(v)
	for i := range pad {
		b[i] = '0'
	}
	copy(b[pad:], v)
	return string(b[:])
}
