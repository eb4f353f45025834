// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detection

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/behavior"
)

// DetectorBehavior scores request timing and navigation patterns.
const DetectorBehavior = "behavior"

// BehaviorConfig configures the behavior detector. Weights map to the
// signal of the same name.
type BehaviorConfig struct {
	// MinSamples is the number of timestamps required before any
	// behavioral signal is evaluated.
	MinSamples int `json:"min_samples"`

	// TimingMaxCV is the coefficient of variation below which request
	// intervals count as machine-regular.
	TimingMaxCV float64 `json:"timing_max_cv"`

	// TimingMinMeanSeconds suppresses the timing check for bursts whose
	// mean interval is at or below this value.
	TimingMinMeanSeconds float64 `json:"timing_min_mean_seconds"`

	SequentialMinRuns  int     `json:"sequential_min_runs"`
	PageAssetRatioMax  float64 `json:"page_asset_ratio_max"`
	VelocityPer5MinMax float64 `json:"velocity_per_5min_max"`
	DeepPathMin        int     `json:"deep_path_min"`
	DeepPageMin        int     `json:"deep_page_min"`
	ManyPathsMin       int     `json:"many_paths_min"`
	APIOnlyMin         int     `json:"api_only_min"`

	TimingWeight     float64 `json:"timing_weight"`
	SequentialWeight float64 `json:"sequential_weight"`
	RatioWeight      float64 `json:"ratio_weight"`
	VelocityWeight   float64 `json:"velocity_weight"`
	DeepWeight       float64 `json:"deep_weight"`
	ManyPathsWeight  float64 `json:"many_paths_weight"`
	APIOnlyWeight    float64 `json:"api_only_weight"`
}

// DefaultBehaviorConfig returns sensible defaults.
func DefaultBehaviorConfig() BehaviorConfig {
	return BehaviorConfig{
		MinSamples:           5,
		TimingMaxCV:          0.1,
		TimingMinMeanSeconds: 0.001,
		SequentialMinRuns:    2,
		PageAssetRatioMax:    5,
		VelocityPer5MinMax:   100,
		DeepPathMin:          5,
		DeepPageMin:          5,
		ManyPathsMin:         30,
		APIOnlyMin:           5,

		TimingWeight:     0.2,
		SequentialWeight: 0.15,
		RatioWeight:      0.1,
		VelocityWeight:   0.3,
		DeepWeight:       0.05,
		ManyPathsWeight:  0.05,
		APIOnlyWeight:    0.25,
	}
}

// velocityWindowSeconds normalizes the request rate to requests per 5 minutes.
const velocityWindowSeconds = 300

// BehaviorDetector emits the behavioral signals.
type BehaviorDetector struct {
	config  BehaviorConfig
	enabled bool
	mu      sync.RWMutex
}

// NewBehaviorDetector creates a new behavior detector.
func NewBehaviorDetector() *BehaviorDetector {
	return &BehaviorDetector{
		config:  DefaultBehaviorConfig(),
		enabled: true,
	}
}

// Name returns the detector name.
func (d *BehaviorDetector) Name() string {
	return DetectorBehavior
}

// Evaluate runs every behavioral check against the snapshot.
func (d *BehaviorDetector) Evaluate(in *Input) []Signal {
	snap := in.Behavior
	if snap == nil {
		return nil
	}

	d.mu.RLock()
	config := d.config
	d.mu.RUnlock()

	if len(snap.Timestamps) < config.MinSamples {
		return nil
	}

	var signals []Signal
	add := func(kind SignalKind, weight float64, detail any) {
		signals = append(signals, Signal{Kind: kind, Weight: weight, Detail: detail})
	}

	if cv, ok := intervalCV(snap, config.TimingMinMeanSeconds); ok && cv < config.TimingMaxCV {
		add(SignalTimingUniform, config.TimingWeight, Round(cv, 4))
	}

	if runs := sequentialRuns(snap.Paths); runs >= config.SequentialMinRuns {
		add(SignalSequentialCrawl, config.SequentialWeight, runs)
	}

	if snap.PageCount > 0 {
		ratio := float64(snap.PageCount) / float64(max(snap.AssetCount, 1))
		if ratio > config.PageAssetRatioMax {
			add(SignalHighPageAssetRatio, config.RatioWeight, Round(ratio, 1))
		}
	}

	if rate, ok := requestsPer5Min(snap); ok && rate > config.VelocityPer5MinMax {
		add(SignalHighVelocity, config.VelocityWeight, Round(rate, 0))
	}

	if snap.ReferrerCount == 0 && snap.PageCount >= config.DeepPageMin {
		if deep := deepPaths(snap.Paths); deep >= config.DeepPathMin {
			add(SignalDeepNoReferrer, config.DeepWeight, deep)
		}
	}

	if len(snap.UserAgents) == 1 {
		if unique := snap.UniquePaths(); unique > config.ManyPathsMin {
			add(SignalSingleUAManyPaths, config.ManyPathsWeight, unique)
		}
	}

	if snap.APICount >= config.APIOnlyMin && snap.PageCount == 0 {
		add(SignalAPIOnlyNoPages, config.APIOnlyWeight, snap.APICount)
	}

	return signals
}

// intervalCV returns the coefficient of variation (population standard
// deviation over mean) of the gaps between timestamps. ok is false when
// the mean gap is not above minMean.
func intervalCV(snap *behavior.Snapshot, minMean float64) (float64, bool) {
	ts := snap.Timestamps
	if len(ts) < 2 {
		return 0, false
	}

	intervals := make([]float64, len(ts)-1)
	var sum float64
	for i := 1; i < len(ts); i++ {
		intervals[i-1] = ts[i].Sub(ts[i-1]).Seconds()
		sum += intervals[i-1]
	}
	mean := sum / float64(len(intervals))
	if mean <= minMean {
		return 0, false
	}

	var variance float64
	for _, iv := range intervals {
		variance += (iv - mean) * (iv - mean)
	}
	variance /= float64(len(intervals))

	return math.Sqrt(variance) / mean, true
}

// sequentialRuns counts consecutive path triples that share a parent and
// end in integers n, n+1, n+2 (for example /video/7, /video/8, /video/9).
func sequentialRuns(paths []string) int {
	runs := 0
	for i := 2; i < len(paths); i++ {
		p1, n1, ok1 := splitNumericTail(paths[i-2])
		p2, n2, ok2 := splitNumericTail(paths[i-1])
		p3, n3, ok3 := splitNumericTail(paths[i])
		if !ok1 || !ok2 || !ok3 || p1 != p2 || p2 != p3 {
			continue
		}
		if n2 == n1+1 && n3 == n2+1 {
			runs++
		}
	}
	return runs
}

// splitNumericTail splits "/a/b/12/" into ("/a/b", 12).
func splitNumericTail(path string) (string, int, bool) {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(path[i+1:])
	if err != nil {
		return "", 0, false
	}
	return path[:i], n, true
}

// requestsPer5Min scales the retained request count to a 5-minute rate.
func requestsPer5Min(snap *behavior.Snapshot) (float64, bool) {
	ts := snap.Timestamps
	if len(ts) < 2 {
		return 0, false
	}
	dur := ts[len(ts)-1].Sub(ts[0]).Seconds()
	if dur <= 0 {
		return 0, false
	}
	return float64(len(ts)) / (dur / velocityWindowSeconds), true
}

func deepPaths(paths []string) int {
	n := 0
	for _, p := range paths {
		if strings.Count(p, "/") >= 2 {
			n++
		}
	}
	return n
}

// Configure updates the detector configuration. Fields absent from config
// keep their defaults.
func (d *BehaviorDetector) Configure(config json.RawMessage) error {
	newConfig := DefaultBehaviorConfig()
	if err := json.Unmarshal(config, &newConfig); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if newConfig.MinSamples < 2 {
		return fmt.Errorf("min_samples must be at least 2")
	}

	d.mu.Lock()
	d.config = newConfig
	d.mu.Unlock()

	return nil
}

// Enabled returns whether this detector is enabled.
func (d *BehaviorDetector) Enabled() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.enabled
}

// SetEnabled enables or disables the detector.
func (d *BehaviorDetector) SetEnabled(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.enabled = enabled
}
