// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/origin"
)

// DetectorOrigin scores visitors arriving from hosting networks.
const DetectorOrigin = "origin"

// OriginConfig configures the origin detector.
type OriginConfig struct {
	// HostingWeight is added for a hosting ASN with no crawler claim.
	HostingWeight float64 `json:"hosting_weight"`

	// SpoofedWeight is added when a crawler user agent arrives from a
	// hosting ASN that does not operate that crawler.
	SpoofedWeight float64 `json:"spoofed_weight"`
}

// DefaultOriginConfig returns sensible defaults.
func DefaultOriginConfig() OriginConfig {
	return OriginConfig{HostingWeight: 0.3, SpoofedWeight: 0.6}
}

// OriginDetector emits legit_search_engine, spoofed_engine_ua or hosting_asn.
// Only hosting ASNs are considered; residential traffic produces nothing.
type OriginDetector struct {
	config  OriginConfig
	enabled bool
	mu      sync.RWMutex
}

// NewOriginDetector creates a new origin detector.
func NewOriginDetector() *OriginDetector {
	return &OriginDetector{
		config:  DefaultOriginConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *OriginDetector) Name() string {
	return DetectorOrigin
}

// Evaluate checks the origin record and any crawler claim in the user agent.
func (d *OriginDetector) Evaluate(in *Input) []Signal {
	if !in.Origin.Hosting {
		return nil
	}

	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	if sig, ok := origin.CrawlerSignature(in.UserAgent); ok {
		if origin.IsSearchEngine(in.Origin.ASN) {
			return []Signal{{Kind: SignalLegitSearchEngine, Weight: 0, Detail: sig}}
		}
		return []Signal{{Kind: SignalSpoofedEngineUA, Weight: config.SpoofedWeight, Detail: sig}}
	}

	return []Signal{{Kind: SignalHostingASN, Weight: config.HostingWeight, Detail: in.Origin.Name}}
}

// Configure updates the detector configuration. Fields absent from config
// keep their defaults.
func (d *OriginDetector) Configure(config json.RawMessage) error {
	newConfig := DefaultOriginConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.HostingWeight < 0 || newConfig.SpoofedWeight < 0 {
		return fmt.Errorf("weights must be non-negative")
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *OriginDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *OriginDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
