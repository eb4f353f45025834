// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package cache provides bounded in-memory data structures used by the
detection stores.

# Overview

The package provides:
  - ExpiringCache: a thread-safe generic TTL cache with an optional
    capacity. Eviction removes the entry with the oldest store timestamp.
  - Ring: a fixed-capacity circular buffer for per-visitor history.

Every structure is capacity-capped. Memory stays constant per key no matter
how much traffic a single visitor generates.

# Usage Example

	origins := cache.NewExpiringCache[string, Record](10000, 24*time.Hour, nil)
	origins.Set("203.0.113.7", rec)

	if rec, ok := origins.Get("203.0.113.7"); ok {
	    // fresh for 24h after Set
	}

	// Periodic reclamation of stale entries
	removed := origins.Sweep()

Ring buffers are not synchronized and are meant to live behind the owning
store's mutex:

	ts := cache.NewRing[time.Time](500)
	ts.Push(time.Now())
	history := ts.Values() // oldest first

# Clocks

NewExpiringCache accepts a clock function so TTL behavior can be driven
deterministically in tests. A nil clock uses time.Now.
*/
package cache
