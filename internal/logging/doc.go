// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

// Package logging provides centralized zerolog-based structured logging for BotSentry.
//
// A single global logger is configured once at startup and shared by every
// package through the level helpers:
//
//	logging.Init(logging.Config{Level: "info", Format: "json"})
//	logging.Info().Str("ip", ip).Float64("score", score).Msg("visitor classified")
//
// Request-scoped fields are propagated through context:
//
//	ctx = logging.ContextWithRequestID(ctx, id)
//	logging.Ctx(ctx).Warn().Msg("admin key rejected")
//
// # slog Bridge
//
// The supervisor library logs through *slog.Logger. NewSlogLogger returns a
// logger whose records are written by zerolog:
//
//	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg)
//
// # Output Format
//
// JSON output uses "time", "level" and "message" field names. Console output
// is intended for local development only.
package logging
