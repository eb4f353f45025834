// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

// Package validation wraps a shared go-playground/validator instance for
// request payloads.
//
//	type blockRequest struct {
//	    IP string `json:"ip" validate:"required,ip"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    if verr.HasTag("required") { ... }
//	}
package validation
