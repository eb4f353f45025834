// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package middleware provides the HTTP middleware of BotSentry.

  - RealClientIP: resolves the visitor address once per request
  - Track: records every request with the detective service and rejects
    blocked IPs
  - PrometheusMetrics: request count, duration and in-flight gauge,
    labelled by chi route pattern
  - Compression: gzip for large JSON responses

All middleware uses the func(http.Handler) http.Handler shape so it
composes with chi:

	r := chi.NewRouter()
	r.Use(middleware.RealClientIP)
	r.Use(middleware.PrometheusMetrics)
	r.With(middleware.Track(svc, middleware.TrackOptions{})).Handle("/*", site)
*/
package middleware
