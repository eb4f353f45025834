// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package behavior

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tomtom215/botsentry/internal/cache"
)

// PathKind is the request category derived from the path prefix.
type PathKind int

const (
	// KindPage is any path that is neither an asset nor an API call.
	KindPage PathKind = iota
	// KindAsset is a static resource (images, thumbnails, badges).
	KindAsset
	// KindAPI is a JSON API call.
	KindAPI
)

// String returns the lowercase kind name.
func (k PathKind) String() string {
	switch k {
	case KindAsset:
		return "asset"
	case KindAPI:
		return "api"
	default:
		return "page"
	}
}

// AssetPrefixes are path prefixes that count as asset requests.
var AssetPrefixes = []string{
	"/static/",
	"/thumbnails/",
	"/avatars/",
	"/avatar/",
	"/badge/",
	"/stats/",
	"/favicon.ico",
}

// APIPrefix marks API requests.
const APIPrefix = "/api/"

// ClassifyPath sorts a request path into page, asset, or API.
func ClassifyPath(path string) PathKind {
	if strings.HasPrefix(path, APIPrefix) {
		return KindAPI
	}
	for _, prefix := range AssetPrefixes {
		if strings.HasPrefix(path, prefix) {
			return KindAsset
		}
	}
	return KindPage
}

// Window is the bounded request history of a single IP.
// It is owned by a Tracker and only touched under the tracker lock.
type Window struct {
	timestamps *cache.Ring[time.Time]
	paths      *cache.Ring[string]

	assetCount int
	pageCount  int
	apiCount   int

	referrers  map[string]struct{}
	userAgents map[string]struct{}

	lastSeen time.Time
	created  time.Time
}

func newWindow(cfg *Config, now time.Time) *Window {
	return &Window{
		timestamps: cache.NewRing[time.Time](cfg.MaxTimestamps),
		paths:      cache.NewRing[string](cfg.MaxPaths),
		referrers:  make(map[string]struct{}),
		userAgents: make(map[string]struct{}),
		created:    now,
	}
}

// expired reports whether the window has been idle longer than ttl.
// A window that never recorded a request is always expired.
func (w *Window) expired(now time.Time, ttl time.Duration) bool {
	if w.lastSeen.IsZero() {
		return true
	}
	return now.Sub(w.lastSeen) > ttl
}

func (w *Window) record(cfg *Config, now time.Time, userAgent, path, referrer string, kind PathKind) {
	w.timestamps.Push(now)
	w.paths.Push(path)
	w.lastSeen = now

	addBounded(w.userAgents, truncate(userAgent, cfg.MaxValueLength), cfg.MaxSetMembers)
	if referrer != "" {
		addBounded(w.referrers, truncate(referrer, cfg.MaxValueLength), cfg.MaxSetMembers)
	}

	switch kind {
	case KindAPI:
		w.apiCount++
	case KindAsset:
		w.assetCount++
	default:
		w.pageCount++
	}
}

func (w *Window) snapshot(ip string) Snapshot {
	uas := make([]string, 0, len(w.userAgents))
	for ua := range w.userAgents {
		uas = append(uas, ua)
	}
	sort.Strings(uas)

	return Snapshot{
		IP:            ip,
		Timestamps:    w.timestamps.Values(),
		Paths:         w.paths.Values(),
		PageCount:     w.pageCount,
		AssetCount:    w.assetCount,
		APICount:      w.apiCount,
		UserAgents:    uas,
		ReferrerCount: len(w.referrers),
		LastSeen:      w.lastSeen,
		Created:       w.created,
	}
}

// Snapshot is an immutable copy of a Window taken under the tracker lock.
// Scoring works on snapshots so no lock is held during computation.
type Snapshot struct {
	IP            string
	Timestamps    []time.Time // oldest first
	Paths         []string    // oldest first
	PageCount     int
	AssetCount    int
	APICount      int
	UserAgents    []string // sorted
	ReferrerCount int
	LastSeen      time.Time
	Created       time.Time
}

// RequestCount returns the number of retained timestamps.
func (s *Snapshot) RequestCount() int {
	return len(s.Timestamps)
}

// UniquePaths returns the number of distinct retained paths.
func (s *Snapshot) UniquePaths() int {
	seen := make(map[string]struct{}, len(s.Paths))
	for _, p := range s.Paths {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// RecentPaths returns up to n of the most recent paths, oldest first.
func (s *Snapshot) RecentPaths(n int) []string {
	if n >= len(s.Paths) {
		out := make([]string, len(s.Paths))
		copy(out, s.Paths)
		return out
	}
	out := make([]string, n)
	copy(out, s.Paths[len(s.Paths)-n:])
	return out
}

// PrimaryUserAgent returns the first user agent in sorted order, or "".
func (s *Snapshot) PrimaryUserAgent() string {
	if len(s.UserAgents) == 0 {
		return ""
	}
	return s.UserAgents[0]
}

func addBounded(set map[string]struct{}, v string, max int) {
	if _, ok := set[v]; ok {
		return
	}
	if max > 0 && len(set) >= max {
		return
	}
	set[v] = struct{}{}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
