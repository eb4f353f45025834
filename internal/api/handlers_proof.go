// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/middleware"
	"github.com/tomtom215/botsentry/internal/proof"
)

// maxProofBodyBytes bounds the beacon body; the real payload is a few bytes.
const maxProofBodyBytes = 1 << 10

// BTProof records that the client executed JavaScript.
//
// The body is optional: {"wd": navigator.webdriver, "pl":
// navigator.plugins.length}. Each field is read on its own, so a field
// that is missing or has the wrong type counts as false without
// affecting the other. A body that is not a JSON object counts as {}.
func (h *Handler) BTProof(w http.ResponseWriter, r *http.Request) {
	ip := middleware.ClientIPFromRequest(r)

	var fields map[string]json.RawMessage
	if r.Body != nil {
		body := http.MaxBytesReader(w, r.Body, maxProofBodyBytes)
		if err := json.NewDecoder(body).Decode(&fields); err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Str("ip", ip).Msg("ignoring malformed proof payload")
			fields = nil
		}
	}

	h.svc.RecordProof(ip, proof.Payload{
		Webdriver: webdriverReported(fields["wd"]),
		NoPlugins: zeroPluginsReported(fields["pl"]),
	})

	w.WriteHeader(http.StatusNoContent)
}

func webdriverReported(raw json.RawMessage) bool {
	var wd bool
	if len(raw) == 0 || json.Unmarshal(raw, &wd) != nil {
		return false
	}
	return wd
}

// zeroPluginsReported is true only for an explicit numeric zero; null
// decodes without error and must not count.
func zeroPluginsReported(raw json.RawMessage) bool {
	var pl float64
	if len(raw) == 0 || string(raw) == "null" || json.Unmarshal(raw, &pl) != nil {
		return false
	}
	return pl == 0
}
