// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package metrics provides Prometheus metrics collection and export for observability.

Collectors are registered with the default registry through promauto at package
init. Call sites use the Record and Set helpers rather than touching collectors.

# Metrics Endpoint

Metrics are exposed at /metrics in Prometheus text format:

	curl http://localhost:8080/metrics

# Available Metrics

API:
  - botsentry_api_requests_total{method,endpoint,status}
  - botsentry_api_request_duration_seconds{method,endpoint}
  - botsentry_api_active_requests

Classification:
  - botsentry_classifications_total{label}
  - botsentry_classification_cache_hits_total

Origin lookups:
  - botsentry_origin_lookups_total{result}
  - botsentry_origin_lookup_duration_seconds
  - botsentry_origin_cache_entries
  - botsentry_origin_breaker_open

Stores and cleanup:
  - botsentry_tracked_visitors
  - botsentry_blocked_ips
  - botsentry_cleanup_evictions_total{store}
  - botsentry_cleanup_failures_total{store}
  - botsentry_cleanup_duration_seconds
*/
package metrics
