// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"crypto/subtle"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/middleware"
)

// AdminKeyHeader carries the shared admin key.
const AdminKeyHeader = "X-Admin-Key"

// AdminAuth verifies the shared admin key. The plaintext key takes
// precedence over the bcrypt hash when both are set.
type AdminAuth struct {
	key  []byte
	hash []byte
}

// NewAdminAuth creates a verifier. With neither key nor hash set every
// request is rejected.
func NewAdminAuth(key, hash string) *AdminAuth {
	a := &AdminAuth{}
	if key != "" {
		a.key = []byte(key)
	}
	if hash != "" {
		a.hash = []byte(hash)
	}
	return a
}

// Configured reports whether a key or hash is set.
func (a *AdminAuth) Configured() bool {
	return len(a.key) > 0 || len(a.hash) > 0
}

// Verify reports whether provided matches the configured key.
func (a *AdminAuth) Verify(provided string) bool {
	if provided == "" {
		return false
	}
	switch {
	case len(a.key) > 0:
		return subtle.ConstantTimeCompare([]byte(provided), a.key) == 1
	case len(a.hash) > 0:
		return bcrypt.CompareHashAndPassword(a.hash, []byte(provided)) == nil
	default:
		return false
	}
}

// providedKey reads the key from the header, then the ?key= query.
func providedKey(r *http.Request) string {
	if k := r.Header.Get(AdminKeyHeader); k != "" {
		return k
	}
	return r.URL.Query().Get("key")
}

// RequireAdmin rejects requests without a valid admin key with 403.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.auth.Verify(providedKey(r)) {
			logging.Ctx(r.Context()).Warn().
				Str("ip", middleware.ClientIPFromRequest(r)).
				Str("path", r.URL.Path).
				Bool("configured", h.auth.Configured()).
				Msg("admin authentication failed")
			respondError(w, http.StatusForbidden, "Forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
