// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
)

// UnknownClientIP is used when no address can be determined.
const UnknownClientIP = "unknown"

type contextKey string

const clientIPKey contextKey = "client_ip"

// ClientIP returns the visitor address for r. X-Forwarded-For is trusted
// only when the peer is the local reverse proxy (127.0.0.1 or ::1); its
// first entry is used then.
func ClientIP(r *http.Request) string {
	peer := r.RemoteAddr
	if host, _, err := net.SplitHostPort(peer); err == nil {
		peer = host
	}

	ip := peer
	if peer == "127.0.0.1" || peer == "::1" {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			ip = strings.TrimSpace(first)
		}
	}

	if ip == "" {
		return UnknownClientIP
	}
	return ip
}

// RealClientIP resolves the client address once and stores it in the
// request context for later middleware and handlers.
func RealClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), clientIPKey, ClientIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIPFromRequest returns the address stored by RealClientIP, or
// computes it when the middleware did not run.
func ClientIPFromRequest(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey).(string); ok {
		return ip
	}
	return ClientIP(r)
}
