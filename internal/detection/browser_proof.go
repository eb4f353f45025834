// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
)

// DetectorProof scores the browser execution proof.
const DetectorProof = "proof"

// ProofConfig configures the proof detector.
type ProofConfig struct {
	// MinPageViews without a proof before no_js_proof fires.
	MinPageViews int `json:"min_page_views"`

	NoProofWeight   float64 `json:"no_proof_weight"`
	WebdriverWeight float64 `json:"webdriver_weight"`
	NoPluginsWeight float64 `json:"no_plugins_weight"`
}

// DefaultProofConfig returns sensible defaults.
func DefaultProofConfig() ProofConfig {
	return ProofConfig{
		MinPageViews:    3,
		NoProofWeight:   0.3,
		WebdriverWeight: 0.4,
		NoPluginsWeight: 0.1,
	}
}

// ProofDetector emits no_js_proof, webdriver and zero_plugins.
type ProofDetector struct {
	config  ProofConfig
	enabled bool
	mu      sync.RWMutex
}

// NewProofDetector creates a new proof detector.
func NewProofDetector() *ProofDetector {
	return &ProofDetector{
		config:  DefaultProofConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *ProofDetector) Name() string {
	return DetectorProof
}

// Evaluate checks the proof record, if any.
func (d *ProofDetector) Evaluate(in *Input) []Signal {
	if in.Proof == nil {
		return nil
	}

	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	var signals []Signal
	rec := in.Proof
	if rec.PageViews >= config.MinPageViews && !rec.Proved {
		signals = append(signals, Signal{
			Kind:   SignalNoJSProof,
			Weight: config.NoProofWeight,
			Detail: strconv.Itoa(rec.PageViews) + "_views",
		})
	}
	if rec.Webdriver {
		signals = append(signals, Signal{Kind: SignalWebdriver, Weight: config.WebdriverWeight, Detail: true})
	}
	if rec.NoPlugins {
		signals = append(signals, Signal{Kind: SignalZeroPlugins, Weight: config.NoPluginsWeight, Detail: true})
	}
	return signals
}

// Configure updates the detector configuration. Fields absent from config
// keep their defaults.
func (d *ProofDetector) Configure(config json.RawMessage) error {
	newConfig := DefaultProofConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.MinPageViews <= 0 {
		return fmt.Errorf("min_page_views must be positive")
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *ProofDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *ProofDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
