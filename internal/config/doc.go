// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package config loads BotSentry configuration with koanf v2.

# Sources

Layers are applied in order, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. A YAML file from CONFIG_PATH, ./config.yaml or /etc/botsentry/config.yaml
 3. Environment variables from an explicit mapping table

Unknown environment variables are ignored. List values (cors_origins,
scraper_signatures) may be given as comma-separated strings.

# Example

	server:
	  port: 8080
	security:
	  admin_key_hash: "$2a$10$..."
	detective:
	  behavior_ttl: 1h
	  expose_label: true
	  origin:
	    resolver: 1.1.1.1:53
	    lookups_per_second: 20

# Environment Variables

  - HTTP_HOST, HTTP_PORT, HTTP_READ_TIMEOUT, HTTP_WRITE_TIMEOUT,
    HTTP_IDLE_TIMEOUT, HTTP_SHUTDOWN_TIMEOUT, HTTP_UPSTREAM
  - ADMIN_KEY, ADMIN_KEY_HASH, RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW,
    DISABLE_RATE_LIMIT, PROOF_RATE_LIMIT_REQS, CORS_ORIGINS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER
  - BEHAVIOR_TTL, PROOF_TTL, CLASSIFICATION_TTL, MAX_TIMESTAMPS, MAX_PATHS,
    MAX_SET_MEMBERS, MAX_VALUE_LENGTH, CLEANUP_INTERVAL,
    SCRAPER_SIGNATURES, EXPOSE_VISITOR_CLASS
  - ASN_RESOLVER, ASN_SUFFIX, ASN_TIMEOUT, ASN_CACHE_TTL, ASN_CACHE_SIZE,
    ASN_LOOKUPS_PER_SECOND, ASN_LOOKUP_BURST, ASN_BREAKER_FAILURES,
    ASN_BREAKER_TIMEOUT
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_DECAY,
    SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

Without ADMIN_KEY or ADMIN_KEY_HASH every admin request is refused.
*/
package config
