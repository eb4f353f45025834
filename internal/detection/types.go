// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"math"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/behavior"
	"github.com/tomtom215/botsentry/internal/origin"
	"github.com/tomtom215/botsentry/internal/proof"
)

// Label is the verdict for a visitor.
type Label string

const (
	LabelHuman      Label = "human"
	LabelSuspicious Label = "suspicious"
	LabelBot        Label = "bot"
)

// Score thresholds for labels.
const (
	BotThreshold        = 0.7
	SuspiciousThreshold = 0.4
)

// LabelFor maps a score to its label.
func LabelFor(score float64) Label {
	switch {
	case score >= BotThreshold:
		return LabelBot
	case score >= SuspiciousThreshold:
		return LabelSuspicious
	default:
		return LabelHuman
	}
}

// SignalKind identifies one piece of evidence.
type SignalKind string

// User agent and origin signals.
const (
	SignalKnownScraperUA    SignalKind = "known_scraper_ua"
	SignalLegitSearchEngine SignalKind = "legit_search_engine"
	SignalSpoofedEngineUA   SignalKind = "spoofed_engine_ua"
	SignalHostingASN        SignalKind = "hosting_asn"
)

// Browser proof signals.
const (
	SignalNoJSProof   SignalKind = "no_js_proof"
	SignalWebdriver   SignalKind = "webdriver"
	SignalZeroPlugins SignalKind = "zero_plugins"
)

// Behavioral signals.
const (
	SignalTimingUniform      SignalKind = "timing_uniform"
	SignalSequentialCrawl    SignalKind = "sequential_crawl"
	SignalHighPageAssetRatio SignalKind = "high_page_asset_ratio"
	SignalHighVelocity       SignalKind = "high_velocity"
	SignalDeepNoReferrer     SignalKind = "deep_no_referrer"
	SignalSingleUAManyPaths  SignalKind = "single_ua_many_paths"
	SignalAPIOnlyNoPages     SignalKind = "api_only_no_pages"
)

// Signal is one weighted piece of evidence. Detail is a string, bool,
// int or float64 explaining what triggered it.
type Signal struct {
	Kind   SignalKind `json:"kind"`
	Weight float64    `json:"weight"`
	Detail any        `json:"detail"`
}

// Result is the outcome of classifying one IP.
type Result struct {
	Label   Label    `json:"label"`
	Score   float64  `json:"score"`
	Signals []Signal `json:"signals"`
}

// Has reports whether the result carries a signal of kind.
func (r *Result) Has(kind SignalKind) bool {
	_, ok := r.Signal(kind)
	return ok
}

// Signal returns the first signal of kind.
func (r *Result) Signal(kind SignalKind) (Signal, bool) {
	for _, s := range r.Signals {
		if s.Kind == kind {
			return s, true
		}
	}
	return Signal{}, false
}

func (r *Result) clone() Result {
	out := *r
	out.Signals = make([]Signal, len(r.Signals))
	copy(out.Signals, r.Signals)
	return out
}

// Input is the evidence gathered for one classification. Proof and
// Behavior are nil when the IP has no record in the respective store.
type Input struct {
	IP string

	// UserAgent is already lowercased.
	UserAgent string

	Origin   origin.Record
	Proof    *proof.Record
	Behavior *behavior.Snapshot
}

// Detector evaluates one family of signals.
type Detector interface {
	// Name identifies the detector.
	Name() string

	// Evaluate returns the signals triggered by in, in a stable order.
	Evaluate(in *Input) []Signal

	// Configure applies a JSON configuration. Fields it omits keep their
	// previous or default values.
	Configure(config json.RawMessage) error

	// Enabled returns whether this detector is currently enabled.
	Enabled() bool

	// SetEnabled enables or disables the detector.
	SetEnabled(enabled bool)
}

// OriginSource provides the non-blocking origin record for an IP.
type OriginSource interface {
	Get(ip string) origin.Record
}

// ProofSource provides proof records.
type ProofSource interface {
	Get(ip string) (proof.Record, bool)
}

// BehaviorSource provides behavior snapshots.
type BehaviorSource interface {
	Snapshot(ip string) (behavior.Snapshot, bool)
}

// Round rounds x to places decimal places, half away from zero.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
