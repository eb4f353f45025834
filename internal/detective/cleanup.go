// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detective

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/metrics"
)

// DefaultCleanupInterval is the period between sweeps.
const DefaultCleanupInterval = 300 * time.Second

// Sweeper is a store that can drop its expired entries.
type Sweeper interface {
	Sweep() int
}

// SweeperFunc adapts a function to Sweeper.
type SweeperFunc func() int

// Sweep calls f.
func (f SweeperFunc) Sweep() int { return f() }

// SweepReport summarizes one pass over every store.
type SweepReport struct {
	Evicted  map[string]int `json:"evicted"`
	Failed   []string       `json:"failed,omitempty"`
	Duration time.Duration  `json:"duration"`
}

// Total returns the number of entries evicted across stores.
func (r SweepReport) Total() int {
	n := 0
	for _, v := range r.Evicted {
		n += v
	}
	return n
}

type namedSweeper struct {
	name  string
	store Sweeper
}

// CleanupLoop sweeps registered stores on a fixed period. Each store is
// swept independently: a panic in one store is recovered and logged, and
// the remaining stores and later ticks still run.
//
// CleanupLoop implements suture.Service.
type CleanupLoop struct {
	interval time.Duration

	mu      sync.Mutex
	stores  []namedSweeper
	onSweep func(SweepReport)

	runs atomic.Int64
}

// NewCleanupLoop creates a loop. A non-positive interval uses DefaultCleanupInterval.
func NewCleanupLoop(interval time.Duration) *CleanupLoop {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupLoop{interval: interval}
}

// Register adds a store. Stores are swept in registration order.
func (c *CleanupLoop) Register(name string, store Sweeper) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stores = append(c.stores, namedSweeper{name: name, store: store})
}

// OnSweep sets a callback invoked after every pass.
func (c *CleanupLoop) OnSweep(fn func(SweepReport)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSweep = fn
}

// Interval returns the sweep period.
func (c *CleanupLoop) Interval() time.Duration {
	return c.interval
}

// Runs returns the number of completed passes.
func (c *CleanupLoop) Runs() int64 {
	return c.runs.Load()
}

// RunOnce sweeps every store immediately.
func (c *CleanupLoop) RunOnce() SweepReport {
	c.mu.Lock()
	stores := make([]namedSweeper, len(c.stores))
	copy(stores, c.stores)
	onSweep := c.onSweep
	c.mu.Unlock()

	start := time.Now()
	report := SweepReport{Evicted: make(map[string]int, len(stores))}

	for _, s := range stores {
		n, err := sweepStore(s)
		if err != nil {
			report.Failed = append(report.Failed, s.name)
			metrics.RecordCleanupFailure(s.name)
			logging.Error().Err(err).Str("store", s.name).Msg("cleanup sweep failed")
			continue
		}
		report.Evicted[s.name] = n
		metrics.RecordCleanupEvictions(s.name, n)
	}

	report.Duration = time.Since(start)
	metrics.RecordCleanupDuration(report.Duration)
	c.runs.Add(1)

	if total := report.Total(); total > 0 || len(report.Failed) > 0 {
		logging.Debug().
			Int("evicted", total).
			Int("failed", len(report.Failed)).
			Dur("duration", report.Duration).
			Msg("cleanup sweep complete")
	}

	if onSweep != nil {
		onSweep(report)
	}
	return report
}

func sweepStore(s namedSweeper) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic sweeping %s: %v", s.name, r)
		}
	}()
	return s.store.Sweep(), nil
}

// Serve runs the loop until ctx is cancelled.
func (c *CleanupLoop) Serve(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	logging.Info().Dur("interval", c.interval).Msg("cleanup loop started")

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("cleanup loop stopped")
			return ctx.Err()
		case <-ticker.C:
			c.RunOnce()
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (c *CleanupLoop) String() string {
	return "cleanup-loop"
}
