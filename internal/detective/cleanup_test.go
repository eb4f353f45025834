// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detective

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func TestCleanupLoop_PanicIsolated(t *testing.T) {
	loop := NewCleanupLoop(time.Minute)

	var after atomic.Int32
	loop.Register("first", SweeperFunc(func() int { return 2 }))
	loop.Register("broken", SweeperFunc(func() int { panic("corrupt store") }))
	loop.Register("last", SweeperFunc(func() int {
		after.Add(1)
		return 1
	}))

	var seen SweepReport
	loop.OnSweep(func(r SweepReport) { seen = r })

	report := loop.RunOnce()

	if !reflect.DeepEqual(report.Failed, []string{"broken"}) {
		t.Errorf("Failed = %v, want [broken]", report.Failed)
	}
	if report.Evicted["first"] != 2 || report.Evicted["last"] != 1 {
		t.Errorf("Evicted = %v", report.Evicted)
	}
	if report.Total() != 3 {
		t.Errorf("Total() = %d, want 3", report.Total())
	}
	if after.Load() != 1 {
		t.Error("store after the panicking one was not swept")
	}
	if seen.Total() != 3 {
		t.Error("OnSweep callback not invoked with the report")
	}

	// A second pass still runs.
	loop.RunOnce()
	if loop.Runs() != 2 {
		t.Errorf("Runs() = %d, want 2", loop.Runs())
	}
}

func TestCleanupLoop_DefaultInterval(t *testing.T) {
	if got := NewCleanupLoop(0).Interval(); got != DefaultCleanupInterval {
		t.Errorf("Interval() = %s, want %s", got, DefaultCleanupInterval)
	}
}

func TestCleanupLoop_ServeTicksUntilCancelled(t *testing.T) {
	loop := NewCleanupLoop(5 * time.Millisecond)

	var sweeps atomic.Int32
	loop.Register("counter", SweeperFunc(func() int {
		sweeps.Add(1)
		return 0
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Serve(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for sweeps.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	if sweeps.Load() < 2 {
		t.Errorf("sweeps = %d, want at least 2", sweeps.Load())
	}
}
