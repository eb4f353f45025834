// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package behavior

import (
	"sync"
	"time"
)

// Config bounds per-visitor history.
type Config struct {
	// TTL is how long a window may stay idle before it is replaced.
	// Default: 1h
	TTL time.Duration

	// MaxTimestamps caps the timestamp ring per IP.
	// Default: 500
	MaxTimestamps int

	// MaxPaths caps the path ring per IP.
	// Default: 200
	MaxPaths int

	// MaxSetMembers caps the distinct user agents and referrers kept per IP.
	// Default: 64
	MaxSetMembers int

	// MaxValueLength truncates user agents and referrers (in runes).
	// Default: 128
	MaxValueLength int
}

// DefaultConfig returns the standard window bounds.
func DefaultConfig() Config {
	return Config{
		TTL:            time.Hour,
		MaxTimestamps:  500,
		MaxPaths:       200,
		MaxSetMembers:  64,
		MaxValueLength: 128,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.TTL <= 0 {
		c.TTL = d.TTL
	}
	if c.MaxTimestamps <= 0 {
		c.MaxTimestamps = d.MaxTimestamps
	}
	if c.MaxPaths <= 0 {
		c.MaxPaths = d.MaxPaths
	}
	if c.MaxSetMembers <= 0 {
		c.MaxSetMembers = d.MaxSetMembers
	}
	if c.MaxValueLength <= 0 {
		c.MaxValueLength = d.MaxValueLength
	}
}

// Tracker owns the IP to Window map. A single mutex serializes all access.
type Tracker struct {
	mu      sync.Mutex
	windows map[string]*Window
	config  Config
	now     func() time.Time
}

// NewTracker creates a tracker. A nil clock defaults to time.Now.
func NewTracker(config Config, now func() time.Time) *Tracker {
	config.applyDefaults()
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		windows: make(map[string]*Window),
		config:  config,
		now:     now,
	}
}

// Record ingests one request and returns its path kind.
// An expired window is replaced rather than reused.
func (t *Tracker) Record(ip, userAgent, path, referrer string) PathKind {
	kind := ClassifyPath(path)
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[ip]
	if !ok || w.expired(now, t.config.TTL) {
		w = newWindow(&t.config, now)
		t.windows[ip] = w
	}
	w.record(&t.config, now, userAgent, path, referrer, kind)

	return kind
}

// Snapshot copies the live window for ip. Expired windows report false.
func (t *Tracker) Snapshot(ip string) (Snapshot, bool) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[ip]
	if !ok || w.expired(now, t.config.TTL) {
		return Snapshot{}, false
	}
	return w.snapshot(ip), true
}

// Active returns snapshots of every live window in no particular order.
func (t *Tracker) Active() []Snapshot {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Snapshot, 0, len(t.windows))
	for ip, w := range t.windows {
		if w.expired(now, t.config.TTL) {
			continue
		}
		out = append(out, w.snapshot(ip))
	}
	return out
}

// RequestsSince counts retained timestamps newer than window across all IPs.
func (t *Tracker) RequestsSince(window time.Duration) int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	total := 0
	for _, w := range t.windows {
		for _, ts := range w.timestamps.Values() {
			if now.Sub(ts) < window {
				total++
			}
		}
	}
	return total
}

// Sweep evicts windows idle beyond the TTL and returns how many were removed.
func (t *Tracker) Sweep() int {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for ip, w := range t.windows {
		if w.expired(now, t.config.TTL) {
			delete(t.windows, ip)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored windows, live or not yet swept.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.windows)
}
