// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/detective"
	"github.com/tomtom215/botsentry/internal/origin"
)

func TestNewChiMiddleware_DefaultConfig(t *testing.T) {
	m := NewChiMiddleware(nil)

	if m.config.ProofRateLimitRequests != 30 {
		t.Errorf("ProofRateLimitRequests = %d, want 30", m.config.ProofRateLimitRequests)
	}
	if m.config.CORSMaxAge != 86400 {
		t.Errorf("CORSMaxAge = %d, want 86400", m.config.CORSMaxAge)
	}
}

func TestRateLimitProof_PerClientIP(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.ProofRateLimitRequests = 2
	f := newFakeDetective()
	router := newTestRouter(t, f, RouterConfig{Middleware: cfg})

	for i := 0; i < 2; i++ {
		if w := serve(router, http.MethodPost, "/api/bt-proof", "", nil); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, w.Code)
		}
	}

	w := serve(router, http.MethodPost, "/api/bt-proof", "", nil)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if msg := decodeError(t, w); msg != "Too many requests" {
		t.Errorf("error = %q", msg)
	}

	// A different visitor behind the local proxy has its own budget.
	req := httptest.NewRequest(http.MethodPost, "/api/bt-proof", nil)
	req.RemoteAddr = "127.0.0.1:40000"
	req.Header.Set("X-Forwarded-For", "198.51.100.20, 10.0.0.1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("forwarded client status = %d, want 204", rec.Code)
	}
	if _, ok := f.proofs["198.51.100.20"]; !ok {
		t.Error("proof not recorded under forwarded address")
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	cfg.ProofRateLimitRequests = 1
	router := newTestRouter(t, newFakeDetective(), RouterConfig{Middleware: cfg})

	for i := 0; i < 5; i++ {
		if w := serve(router, http.MethodPost, "/api/bt-proof", "", nil); w.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d, want 204", i, w.Code)
		}
	}
}

func TestNewSiteHandler_Proxy(t *testing.T) {
	var gotPath, gotXFF string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotXFF = r.Header.Get("X-Forwarded-For")
		w.WriteHeader(http.StatusTeapot)
	}))
	defer upstream.Close()

	site, err := NewSiteHandler(upstream.URL)
	if err != nil {
		t.Fatalf("NewSiteHandler() error = %v", err)
	}
	f := newFakeDetective()
	router := newTestRouter(t, f, RouterConfig{Site: site})

	w := serve(router, http.MethodGet, "/watch/abc", "", nil)

	if w.Code != http.StatusTeapot {
		t.Errorf("status = %d, want 418", w.Code)
	}
	if gotPath != "/watch/abc" {
		t.Errorf("upstream path = %q", gotPath)
	}
	if gotXFF != "192.0.2.1" {
		t.Errorf("upstream X-Forwarded-For = %q, want 192.0.2.1", gotXFF)
	}
	if paths := f.paths(); len(paths) != 1 || paths[0] != "/watch/abc" {
		t.Errorf("tracked paths = %v", paths)
	}
}

func TestNewSiteHandler_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	addr := upstream.URL
	upstream.Close()

	site, err := NewSiteHandler(addr)
	if err != nil {
		t.Fatalf("NewSiteHandler() error = %v", err)
	}

	w := httptest.NewRecorder()
	site.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestNewSiteHandler_Invalid(t *testing.T) {
	for _, upstream := range []string{"/relative", "://bad", "localhost"} {
		if _, err := NewSiteHandler(upstream); err == nil {
			t.Errorf("NewSiteHandler(%q) error = nil", upstream)
		}
	}
}

type noAnswerTXT struct{}

func (noAnswerTXT) LookupTXT(context.Context, string) (string, error) {
	return "", origin.ErrNoAnswer
}

func TestRouter_WithDetectiveService(t *testing.T) {
	svc, err := detective.New(detective.DefaultConfig(),
		detective.WithOriginOptions(origin.WithTXTResolver(noAnswerTXT{})),
	)
	if err != nil {
		t.Fatalf("detective.New() error = %v", err)
	}
	defer svc.Close()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	router := NewRouter(NewHandler(svc, NewAdminAuth(testAdminKey, "")), RouterConfig{
		Middleware:  cfg,
		ExposeLabel: true,
	}).SetupChi()

	w := serve(router, http.MethodGet, "/", "", map[string]string{"User-Agent": "curl/8.5.0"})
	if got := w.Header().Get("X-Visitor-Class"); got == "" {
		t.Error("X-Visitor-Class not set")
	}

	w = serve(router, http.MethodPost, "/api/admin/scrapers/block", `{"ip":"192.0.2.1"}`,
		map[string]string{AdminKeyHeader: testAdminKey})
	if w.Code != http.StatusOK {
		t.Fatalf("block status = %d", w.Code)
	}

	if w := serve(router, http.MethodGet, "/", "", nil); w.Code != http.StatusForbidden {
		t.Errorf("blocked visitor status = %d, want 403", w.Code)
	}

	w = serve(router, http.MethodGet, "/api/admin/scrapers/status", "", map[string]string{AdminKeyHeader: testAdminKey})
	var status detective.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if len(status.Blocked) != 1 || status.Blocked[0].IP != "192.0.2.1" {
		t.Errorf("status blocked = %+v", status.Blocked)
	}
	if status.Origin.Breaker != "closed" {
		t.Errorf("status breaker = %q, want closed", status.Origin.Breaker)
	}

	report := svc.Report()
	if report.Summary.Blocked != 1 {
		t.Errorf("Summary.Blocked = %d, want 1", report.Summary.Blocked)
	}
	if len(report.Visitors) != 1 || report.Visitors[0].RequestCount != 2 {
		t.Errorf("visitors = %+v, want one visitor with 2 requests", report.Visitors)
	}
}
