// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Visitor classification outcomes
// - Origin (ASN) lookups and cache occupancy
// - Store sizes and cleanup sweeps

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botsentry_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "botsentry_api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "botsentry_api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	// Classification Metrics
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botsentry_classifications_total",
			Help: "Total number of computed (non-cached) classifications by label",
		},
		[]string{"label"},
	)

	ClassificationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "botsentry_classification_cache_hits_total",
			Help: "Classifications served from the per-IP result cache",
		},
	)

	// Origin Metrics
	OriginLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botsentry_origin_lookups_total",
			Help: "Total number of ASN lookups by result",
		},
		[]string{"result"}, // "resolved", "unknown", "failed", "throttled", "breaker_open"
	)

	OriginLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "botsentry_origin_lookup_duration_seconds",
			Help:    "Duration of ASN lookups over DNS in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 3},
		},
	)

	OriginCacheSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "botsentry_origin_cache_entries",
			Help: "Number of cached ASN records",
		},
	)

	OriginBreakerOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "botsentry_origin_breaker_open",
			Help: "1 when the DNS resolver circuit breaker is open",
		},
	)

	// Store Metrics
	TrackedVisitors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "botsentry_tracked_visitors",
			Help: "Number of behavior windows held in memory",
		},
	)

	BlockedIPs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "botsentry_blocked_ips",
			Help: "Number of IPs on the admin blocklist",
		},
	)

	CleanupEvictions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botsentry_cleanup_evictions_total",
			Help: "Entries evicted by periodic cleanup, by store",
		},
		[]string{"store"}, // "behavior", "origin", "proof", "classification"
	)

	CleanupFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "botsentry_cleanup_failures_total",
			Help: "Store sweeps that failed during periodic cleanup",
		},
		[]string{"store"},
	)

	CleanupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "botsentry_cleanup_duration_seconds",
			Help:    "Duration of a full cleanup sweep in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordClassification counts a freshly computed classification.
func RecordClassification(label string) {
	ClassificationsTotal.WithLabelValues(label).Inc()
}

// RecordClassificationCacheHit counts a classification served from cache.
func RecordClassificationCacheHit() {
	ClassificationCacheHits.Inc()
}

// RecordOriginLookup records the outcome and duration of one ASN lookup.
// Zero durations (lookups that never reached the network) are not observed.
func RecordOriginLookup(result string, duration time.Duration) {
	OriginLookupsTotal.WithLabelValues(result).Inc()
	if duration > 0 {
		OriginLookupDuration.Observe(duration.Seconds())
	}
}

// SetOriginCacheSize updates the ASN cache gauge.
func SetOriginCacheSize(n int) {
	OriginCacheSize.Set(float64(n))
}

// SetOriginBreakerOpen updates the breaker gauge.
func SetOriginBreakerOpen(open bool) {
	if open {
		OriginBreakerOpen.Set(1)
		return
	}
	OriginBreakerOpen.Set(0)
}

// SetTrackedVisitors updates the behavior window gauge.
func SetTrackedVisitors(n int) {
	TrackedVisitors.Set(float64(n))
}

// SetBlockedIPs updates the blocklist gauge.
func SetBlockedIPs(n int) {
	BlockedIPs.Set(float64(n))
}

// RecordCleanupEvictions adds n evictions for store.
func RecordCleanupEvictions(store string, n int) {
	if n <= 0 {
		return
	}
	CleanupEvictions.WithLabelValues(store).Add(float64(n))
}

// RecordCleanupFailure counts a failed store sweep.
func RecordCleanupFailure(store string) {
	CleanupFailures.WithLabelValues(store).Inc()
}

// RecordCleanupDuration observes the wall time of one sweep.
func RecordCleanupDuration(duration time.Duration) {
	CleanupDuration.Observe(duration.Seconds())
}
