// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package api provides the HTTP surface of BotSentry.

# Endpoints

Public:
  - POST /api/bt-proof: JavaScript proof beacon, {"wd": bool, "pl": int}, 204
  - GET /api/v1/health/live: {"status":"ok"}
  - GET /metrics: Prometheus exposition

Admin (X-Admin-Key header or ?key= query):
  - GET /api/admin/scrapers: {timestamp, summary, visitors}
  - GET /api/admin/scrapers/status: {timestamp, blocked, detectors, engine, origin, cleanup}
  - POST /api/admin/scrapers/block: {"ip": "..."}
  - POST /api/admin/scrapers/unblock: {"ip": "..."}

Every other path is site traffic. It passes through middleware.Track and is
then proxied to the configured upstream, or answered with 404 when none
is configured.

# Errors

Error bodies are {"error": "<message>"}. Authentication failures are 403
{"error":"Forbidden"} whether the key is missing, wrong or unconfigured.

# Usage

	auth := api.NewAdminAuth(cfg.Security.AdminKey, cfg.Security.AdminKeyHash)
	site, err := api.NewSiteHandler(cfg.Server.Upstream)
	if err != nil {
		return err
	}
	router := api.NewRouter(api.NewHandler(svc, auth), api.RouterConfig{
		ExposeLabel: cfg.Detective.ExposeLabel,
		Site:        site,
	})
	srv := &http.Server{Handler: router.SetupChi()}
*/
package api
