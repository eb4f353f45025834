// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

// Package proof tracks client-reported browser execution proofs per IP.
//
// A page script POSTs a small beacon once it runs. Its fields (webdriver
// flag, plugin count) are taken as reported; nothing here verifies them.
package proof

import (
	"sync"
	"time"
)

// Record is the proof state of a single IP.
type Record struct {
	Proved    bool      `json:"proved"`
	ProvedAt  time.Time `json:"proved_at"`
	PageViews int       `json:"page_views"`
	Webdriver bool      `json:"webdriver_detected"`
	NoPlugins bool      `json:"no_plugins"`
}

// Payload carries the automation hints reported by the client script.
type Payload struct {
	Webdriver bool
	NoPlugins bool
}

// Tracker stores proof records keyed by IP.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]*Record
	ttl     time.Duration
	now     func() time.Time
}

// NewTracker creates a tracker whose proved records expire after ttl.
func NewTracker(ttl time.Duration, now func() time.Time) *Tracker {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		records: make(map[string]*Record),
		ttl:     ttl,
		now:     now,
	}
}

// RecordPageView increments the page view count for ip.
func (t *Tracker) RecordPageView(ip string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entry(ip).PageViews++
}

// RecordProof marks ip as proved. Automation hints are sticky: a later clean
// beacon does not clear an earlier webdriver or zero-plugin report.
func (t *Tracker) RecordProof(ip string, p Payload) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	rec := t.entry(ip)
	rec.Proved = true
	rec.ProvedAt = now
	if p.Webdriver {
		rec.Webdriver = true
	}
	if p.NoPlugins {
		rec.NoPlugins = true
	}
}

// Get returns a copy of the record for ip.
func (t *Tracker) Get(ip string) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.records[ip]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Sweep removes records proved longer ago than the TTL.
// Records never proved are kept; they carry the page view count that
// drives the missing-proof signal.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ip, rec := range t.records {
		if rec.Proved && now.Sub(rec.ProvedAt) > t.ttl {
			delete(t.records, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked IPs.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// entry returns the record for ip, creating it. Must be called with lock held.
func (t *Tracker) entry(ip string) *Record {
	rec, ok := t.records[ip]
	if !ok {
		rec = &Record{}
		t.records[ip] = rec
	}
	return rec
}
