// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// DetectorUserAgent flags user agents of known scraping tools.
const DetectorUserAgent = "user_agent"

// DefaultScraperSignatures are matched case-insensitively as substrings.
var DefaultScraperSignatures = []string{
	"python-requests",
	"curl",
	"wget",
	"scrapy",
	"go-http-client",
	"httpx",
	"aiohttp",
	"headlesschrome",
	"phantomjs",
	"selenium",
	"puppeteer",
	"playwright",
	"gptbot",
	"ccbot",
	"bytespider",
	"ahrefsbot",
	"semrushbot",
	"mj12bot",
	"dotbot",
	"petalbot",
}

// UserAgentConfig configures the user agent detector.
type UserAgentConfig struct {
	// Signatures are tested in order; the first match wins.
	Signatures []string `json:"signatures"`

	// Weight added for a match.
	Weight float64 `json:"weight"`
}

// DefaultUserAgentConfig returns sensible defaults.
func DefaultUserAgentConfig() UserAgentConfig {
	sigs := make([]string, len(DefaultScraperSignatures))
	copy(sigs, DefaultScraperSignatures)
	return UserAgentConfig{Signatures: sigs, Weight: 0.5}
}

// UserAgentDetector emits known_scraper_ua.
type UserAgentDetector struct {
	config  UserAgentConfig
	lowered []string
	enabled bool
	mu      sync.RWMutex
}

// NewUserAgentDetector creates a detector. Empty signatures use the defaults.
func NewUserAgentDetector(signatures []string) *UserAgentDetector {
	cfg := DefaultUserAgentConfig()
	if len(signatures) > 0 {
		cfg.Signatures = append([]string(nil), signatures...)
	}
	return &UserAgentDetector{
		config:  cfg,
		lowered: lowerAll(cfg.Signatures),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *UserAgentDetector) Name() string {
	return DetectorUserAgent
}

// Evaluate matches the lowercased user agent against the signature table.
func (d *UserAgentDetector) Evaluate(in *Input) []Signal {
	if in.UserAgent == "" {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	for i, sig := range d.lowered {
		if sig != "" && strings.Contains(in.UserAgent, sig) {
			return []Signal{{
				Kind:   SignalKnownScraperUA,
				Weight: d.config.Weight,
				Detail: d.config.Signatures[i],
			}}
		}
	}
	return nil
}

// Configure updates the detector configuration. Fields absent from config
// keep their current values.
func (d *UserAgentDetector) Configure(config json.RawMessage) error {
	newConfig := d.Config()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.Weight < 0 {
		return fmt.Errorf("weight must be non-negative")
	}

	d.mu.Lock()
	d.config = newConfig
	d.lowered = lowerAll(newConfig.Signatures)
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *UserAgentDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *UserAgentDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}

// Config returns a copy of the current configuration.
func (d *UserAgentDetector) Config() UserAgentConfig {
	d.mu.RLock()
	defer d.mu.RUnlock()
	cfg := d.config
	cfg.Signatures = append([]string(nil), d.config.Signatures...)
	return cfg
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
