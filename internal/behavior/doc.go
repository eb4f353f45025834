// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

// Package behavior records per-IP request history for behavioral scoring.
//
// Each IP owns one Window: ring buffers of the last 500 timestamps and
// 200 paths, counters for page, asset and API requests, and bounded sets
// of user agents and referrers. A window idle for more than an hour is
// discarded and the next request starts a fresh one.
//
// The Tracker serializes mutations behind one mutex. Readers take a
// Snapshot, a plain value copy, so classification never computes while
// holding the lock.
package behavior
