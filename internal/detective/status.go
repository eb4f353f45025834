// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detective

import (
	"time"

	"github.com/tomtom215/botsentry/internal/blocklist"
	"github.com/tomtom215/botsentry/internal/cache"
	"github.com/tomtom215/botsentry/internal/detection"
)

// DetectorStatus reports whether one detector is switched on.
type DetectorStatus struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// EngineStatus holds classification counters and the result cache.
type EngineStatus struct {
	Classifications  int64                     `json:"classifications"`
	CacheHits        int64                     `json:"cache_hits"`
	LastClassifiedAt time.Time                 `json:"last_classified_at"`
	ByLabel          map[detection.Label]int64 `json:"by_label"`
	Cache            cache.Stats               `json:"cache"`
}

// OriginStatus holds the ASN resolver state.
type OriginStatus struct {
	// Breaker is closed, half-open or open.
	Breaker string      `json:"breaker"`
	Pending int         `json:"pending"`
	Cache   cache.Stats `json:"cache"`
}

// CleanupStatus describes the sweep loop.
type CleanupStatus struct {
	Interval string `json:"interval"`
	Runs     int64  `json:"runs"`
}

// Status is the operational payload for the admin status endpoint.
type Status struct {
	Timestamp time.Time         `json:"timestamp"`
	Blocked   []blocklist.Entry `json:"blocked"`
	Detectors []DetectorStatus  `json:"detectors"`
	Engine    EngineStatus      `json:"engine"`
	Origin    OriginStatus      `json:"origin"`
	Cleanup   CleanupStatus     `json:"cleanup"`
}

// Status gathers the blocklist, detector switches, counters and
// background work state. It does not classify anyone.
func (s *Service) Status() Status {
	detectors := s.engine.Detectors()
	ds := make([]DetectorStatus, 0, len(detectors))
	for _, d := range detectors {
		ds = append(ds, DetectorStatus{Name: d.Name(), Enabled: d.Enabled()})
	}

	m := s.engine.Metrics()
	return Status{
		Timestamp: s.now(),
		Blocked:   s.Blocked(),
		Detectors: ds,
		Engine: EngineStatus{
			Classifications:  m.Classifications,
			CacheHits:        m.CacheHits,
			LastClassifiedAt: m.LastClassifiedAt,
			ByLabel:          m.ByLabel,
			Cache:            s.engine.CacheStats(),
		},
		Origin: OriginStatus{
			Breaker: s.origins.BreakerState(),
			Pending: s.origins.Pending(),
			Cache:   s.origins.CacheStats(),
		},
		Cleanup: CleanupStatus{
			Interval: s.cleanup.Interval().String(),
			Runs:     s.cleanup.Runs(),
		},
	}
}
