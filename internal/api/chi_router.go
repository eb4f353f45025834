// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/botsentry/internal/middleware"
)

// RouterConfig configures the HTTP surface.
type RouterConfig struct {
	Middleware *ChiMiddlewareConfig

	// ExposeLabel sets X-Visitor-Class on tracked responses.
	ExposeLabel bool

	// Site handles tracked traffic that matches no API route. Nil answers 404.
	Site http.Handler
}

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	track         func(http.Handler) http.Handler
	site          http.Handler
}

// NewRouter creates a Router.
func NewRouter(handler *Handler, cfg RouterConfig) *Router {
	site := cfg.Site
	if site == nil {
		site = http.HandlerFunc(notFound)
	}
	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(cfg.Middleware),
		track:         middleware.Track(handler.svc, middleware.TrackOptions{ExposeLabel: cfg.ExposeLabel}),
		site:          site,
	}
}

// SetupChi builds the route tree.
//
// Route map:
//
//	GET  /api/v1/health/live          liveness
//	GET  /metrics                     Prometheus
//	POST /api/bt-proof                tracked, CORS, proof rate limit
//	GET  /api/admin/scrapers          admin, gzip
//	GET  /api/admin/scrapers/status   admin
//	POST /api/admin/scrapers/block    admin
//	POST /api/admin/scrapers/unblock  admin
//	*    /*                           tracked site traffic
//
// Admin, health and metrics requests are not recorded as visitor traffic,
// so an operator cannot lock themselves out by blocking their own IP.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()
	h := router.handler
	m := router.chiMiddleware

	r.Use(RequestIDWithLogging())
	r.Use(middleware.RealClientIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)

	r.Get("/api/v1/health/live", h.HealthLive)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/bt-proof", func(r chi.Router) {
		r.Use(m.CORS())
		r.Use(router.track)
		r.Use(m.RateLimitProof())
		r.Post("/", h.BTProof)
	})

	r.Route("/api/admin/scrapers", func(r chi.Router) {
		r.Use(m.RateLimit())
		r.Use(h.RequireAdmin)
		r.With(middleware.Compression).Get("/", h.AdminScrapers)
		r.Get("/status", h.AdminStatus)
		r.Post("/block", h.AdminBlock)
		r.Post("/unblock", h.AdminUnblock)
	})

	r.With(router.track).Handle("/*", router.site)

	return r
}
