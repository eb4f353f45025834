// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

// Package blocklist holds the administrator-maintained set of blocked IPs.
//
// Entries have no TTL. They are independent of classification and are
// never touched by periodic cleanup; only Unblock removes them.
package blocklist

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/metrics"
)

// Entry is one blocked IP.
type Entry struct {
	IP        string    `json:"ip"`
	BlockedAt time.Time `json:"blocked_at"`
}

// Manager is a concurrency-safe blocklist.
type Manager struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewManager creates an empty blocklist. A nil clock uses time.Now.
func NewManager(now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{
		entries: make(map[string]time.Time),
		now:     now,
	}
}

// Block adds ip. It reports false if ip was already blocked, in which
// case the original block time is kept.
func (m *Manager) Block(ip string) bool {
	m.mu.Lock()
	if _, ok := m.entries[ip]; ok {
		m.mu.Unlock()
		return false
	}
	m.entries[ip] = m.now()
	n := len(m.entries)
	m.mu.Unlock()

	metrics.SetBlockedIPs(n)
	logging.Info().Str("ip", ip).Int("blocked_total", n).Msg("ip blocked")
	return true
}

// Unblock removes ip and reports whether it was present.
func (m *Manager) Unblock(ip string) bool {
	m.mu.Lock()
	if _, ok := m.entries[ip]; !ok {
		m.mu.Unlock()
		return false
	}
	delete(m.entries, ip)
	n := len(m.entries)
	m.mu.Unlock()

	metrics.SetBlockedIPs(n)
	logging.Info().Str("ip", ip).Int("blocked_total", n).Msg("ip unblocked")
	return true
}

// IsBlocked reports whether ip is blocked.
func (m *Manager) IsBlocked(ip string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.entries[ip]
	return ok
}

// Len returns the number of blocked IPs.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// List returns every entry, most recently blocked first.
func (m *Manager) List() []Entry {
	m.mu.RLock()
	out := make([]Entry, 0, len(m.entries))
	for ip, at := range m.entries {
		out = append(out, Entry{IP: ip, BlockedAt: at})
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockedAt.Equal(out[j].BlockedAt) {
			return out[i].IP < out[j].IP
		}
		return out[i].BlockedAt.After(out[j].BlockedAt)
	})
	return out
}
