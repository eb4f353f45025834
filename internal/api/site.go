// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/tomtom215/botsentry/internal/logging"
)

// NewSiteHandler returns the handler for tracked site traffic. With an
// upstream URL it reverse-proxies to it; otherwise it answers 404.
func NewSiteHandler(upstream string) (http.Handler, error) {
	if upstream == "" {
		return http.HandlerFunc(notFound), nil
	}

	target, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream %q: %w", upstream, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", upstream)
	}

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("upstream", target.Host).
				Str("path", r.URL.Path).
				Msg("upstream request failed")
			respondError(w, http.StatusBadGateway, "Bad gateway")
		},
	}, nil
}

func notFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, http.StatusNotFound, "Not found")
}
