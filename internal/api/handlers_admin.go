// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/validation"
)

const maxAdminBodyBytes = 4 << 10

// IPRequest is the body of block and unblock requests.
type IPRequest struct {
	IP string `json:"ip" validate:"required,ip"`
}

// BlockResponse is returned by block and unblock.
type BlockResponse struct {
	OK        bool   `json:"ok"`
	Blocked   string `json:"blocked,omitempty"`
	Unblocked string `json:"unblocked,omitempty"`
}

// AdminScrapers returns the dashboard report.
func (h *Handler) AdminScrapers(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Report())
}

// AdminStatus returns the blocklist, detector switches, cache counters and
// resolver state.
func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.Status())
}

// AdminBlock adds an IP to the blocklist.
func (h *Handler) AdminBlock(w http.ResponseWriter, r *http.Request) {
	ip, ok := decodeIPRequest(w, r)
	if !ok {
		return
	}

	h.svc.Block(ip)
	logging.Ctx(r.Context()).Info().Str("ip", ip).Msg("admin blocked ip")
	respondJSON(w, http.StatusOK, BlockResponse{OK: true, Blocked: ip})
}

// AdminUnblock removes an IP from the blocklist. Unblocking an IP that
// is not blocked still succeeds.
func (h *Handler) AdminUnblock(w http.ResponseWriter, r *http.Request) {
	ip, ok := decodeIPRequest(w, r)
	if !ok {
		return
	}

	removed := h.svc.Unblock(ip)
	logging.Ctx(r.Context()).Info().Str("ip", ip).Bool("removed", removed).Msg("admin unblocked ip")
	respondJSON(w, http.StatusOK, BlockResponse{OK: true, Unblocked: ip})
}

// decodeIPRequest parses and validates the {ip} body. A body that does not
// decode is handled like one without an ip.
func decodeIPRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req IPRequest
	if r.Body != nil {
		body := http.MaxBytesReader(w, r.Body, maxAdminBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			req = IPRequest{}
		}
	}
	req.IP = strings.TrimSpace(req.IP)

	if verr := validation.ValidateStruct(&req); verr != nil {
		if verr.HasTag("required") {
			respondError(w, http.StatusBadRequest, "ip required")
		} else {
			respondError(w, http.StatusBadRequest, "invalid ip")
		}
		return "", false
	}
	return req.IP, true
}
