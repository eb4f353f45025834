// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/botsentry/internal/cache"
	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/metrics"
)

// Engine combines detector signals into a scored, labeled result per IP.
type Engine struct {
	origins   OriginSource
	proofs    ProofSource
	behaviors BehaviorSource

	mu        sync.RWMutex
	detectors []Detector
	index     map[string]int

	results *cache.ExpiringCache[string, Result]

	statsMu sync.Mutex
	stats   EngineMetrics
}

// EngineMetrics tracks classification counts.
type EngineMetrics struct {
	Classifications  int64
	CacheHits        int64
	LastClassifiedAt time.Time
	ByLabel          map[Label]int64
}

// EngineConfig configures the classification engine.
type EngineConfig struct {
	// CacheTTL is how long a result is served without recomputation.
	CacheTTL time.Duration `json:"cache_ttl"`

	// CacheSize bounds the result cache. Zero means unbounded; entries
	// still expire after CacheTTL and are reclaimed by Sweep.
	CacheSize int `json:"cache_size"`
}

// DefaultEngineConfig returns sensible defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{CacheTTL: 30 * time.Second}
}

// NewEngine creates an engine reading from the given stores. Detectors
// are added with RegisterDetector; see RegisterDefaults.
func NewEngine(origins OriginSource, proofs ProofSource, behaviors BehaviorSource, cfg EngineConfig, now func() time.Time) *Engine {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultEngineConfig().CacheTTL
	}
	return &Engine{
		origins:   origins,
		proofs:    proofs,
		behaviors: behaviors,
		index:     make(map[string]int),
		results:   cache.NewExpiringCache[string, Result](cfg.CacheSize, cfg.CacheTTL, now),
		stats: EngineMetrics{
			ByLabel: make(map[Label]int64),
		},
	}
}

// RegisterDefaults registers the user agent, origin, proof and behavior
// detectors in that order. Empty signatures use DefaultScraperSignatures.
func (e *Engine) RegisterDefaults(scraperSignatures []string) {
	e.RegisterDetector(NewUserAgentDetector(scraperSignatures))
	e.RegisterDetector(NewOriginDetector())
	e.RegisterDetector(NewProofDetector())
	e.RegisterDetector(NewBehaviorDetector())
}

// RegisterDetector adds a detector to the engine. A detector with the
// same name replaces the earlier one in place.
func (e *Engine) RegisterDetector(detector Detector) {
	e.mu.Lock()
	defer e.mu.Unlock()

	name := detector.Name()
	if i, ok := e.index[name]; ok {
		e.detectors[i] = detector
	} else {
		e.index[name] = len(e.detectors)
		e.detectors = append(e.detectors, detector)
	}

	logging.Info().Str("detector", name).Msg("registered detector")
}

// Detector returns the registered detector with name.
func (e *Engine) Detector(name string) (Detector, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	i, ok := e.index[name]
	if !ok {
		return nil, false
	}
	return e.detectors[i], true
}

// Detectors returns the registered detectors in evaluation order.
func (e *Engine) Detectors() []Detector {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Detector(nil), e.detectors...)
}

// Classify returns the memoized result for ip, computing it if the cached
// entry is missing or older than the cache TTL. New requests or proofs
// during the TTL do not refresh a cached result.
func (e *Engine) Classify(ip, userAgent string) Result {
	if cached, ok := e.results.Get(ip); ok {
		e.recordCacheHit()
		return cached.clone()
	}

	result := e.Evaluate(e.gather(ip, userAgent))
	e.results.Set(ip, result)
	e.recordClassification(result.Label)

	return result.clone()
}

// gather collects the evidence for ip from every store. Each store is
// read under its own lock; no lock is held across stores.
func (e *Engine) gather(ip, userAgent string) *Input {
	in := &Input{
		IP:        ip,
		UserAgent: strings.ToLower(userAgent),
	}
	if e.origins != nil {
		in.Origin = e.origins.Get(ip)
	}
	if e.proofs != nil {
		if rec, ok := e.proofs.Get(ip); ok {
			in.Proof = &rec
		}
	}
	if e.behaviors != nil {
		if snap, ok := e.behaviors.Snapshot(ip); ok {
			in.Behavior = &snap
		}
	}
	return in
}

// Evaluate runs every enabled detector against in without touching the cache.
func (e *Engine) Evaluate(in *Input) Result {
	e.mu.RLock()
	detectors := make([]Detector, 0, len(e.detectors))
	for _, d := range e.detectors {
		if d.Enabled() {
			detectors = append(detectors, d)
		}
	}
	e.mu.RUnlock()

	signals := make([]Signal, 0, 4)
	var score float64
	for _, d := range detectors {
		for _, s := range d.Evaluate(in) {
			score += s.Weight
			signals = append(signals, s)
		}
	}

	score = math.Min(math.Max(score, 0), 1)
	return Result{
		Label:   LabelFor(score),
		Score:   score,
		Signals: signals,
	}
}

// Sweep drops expired results and returns how many were removed.
func (e *Engine) Sweep() int {
	return e.results.Sweep()
}

// CacheStats reports the result cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.results.Stats()
}

// Len is the number of cached results.
func (e *Engine) Len() int {
	return e.results.Len()
}

func (e *Engine) recordCacheHit() {
	metrics.RecordClassificationCacheHit()

	e.statsMu.Lock()
	e.stats.CacheHits++
	e.statsMu.Unlock()
}

func (e *Engine) recordClassification(label Label) {
	metrics.RecordClassification(string(label))

	e.statsMu.Lock()
	e.stats.Classifications++
	e.stats.ByLabel[label]++
	e.stats.LastClassifiedAt = time.Now()
	e.statsMu.Unlock()
}

// Metrics returns a copy of the engine counters.
func (e *Engine) Metrics() EngineMetrics {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	out := e.stats
	out.ByLabel = make(map[Label]int64, len(e.stats.ByLabel))
	for k, v := range e.stats.ByLabel {
		out.ByLabel[k] = v
	}
	return out
}
