// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package middleware

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/detection"
	"github.com/tomtom215/botsentry/internal/logging"
)

// VisitorClassHeader carries the classification label when exposed.
const VisitorClassHeader = "X-Visitor-Class"

// Visitors is the subset of *detective.Service used by Track.
type Visitors interface {
	RecordRequest(ip, userAgent, path, referrer string)
	Classify(ip, userAgent string) detection.Result
	IsBlocked(ip string) bool
}

// TrackOptions configures Track.
type TrackOptions struct {
	// ExposeLabel sets X-Visitor-Class on every tracked response.
	ExposeLabel bool
}

// Track records every request with the visitor service. Requests from
// blocked IPs are recorded and then rejected with 403 before the wrapped
// handler runs.
func Track(visitors Visitors, opts TrackOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIPFromRequest(r)
			ua := r.UserAgent()

			visitors.RecordRequest(ip, ua, r.URL.Path, r.Referer())

			if visitors.IsBlocked(ip) {
				logging.Ctx(r.Context()).Debug().
					Str("ip", ip).
					Str("path", r.URL.Path).
					Msg("rejected blocked ip")
				writeForbidden(w)
				return
			}

			if opts.ExposeLabel {
				res := visitors.Classify(ip, ua)
				w.Header().Set(VisitorClassHeader, string(res.Label))
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": "Forbidden"}); err != nil {
		logging.Error().Err(err).Msg("failed to encode forbidden response")
	}
}
