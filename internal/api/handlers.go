// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"github.com/tomtom215/botsentry/internal/detective"
	"github.com/tomtom215/botsentry/internal/middleware"
	"github.com/tomtom215/botsentry/internal/proof"
)

// Detective is the subset of *detective.Service the HTTP layer uses.
type Detective interface {
	middleware.Visitors
	RecordProof(ip string, p proof.Payload)
	Report() detective.Report
	Status() detective.Status
	Block(ip string)
	Unblock(ip string) bool
}

// Handler serves the BotSentry endpoints.
type Handler struct {
	svc  Detective
	auth *AdminAuth
}

// NewHandler creates a Handler.
func NewHandler(svc Detective, auth *AdminAuth) *Handler {
	return &Handler{svc: svc, auth: auth}
}
