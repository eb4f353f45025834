// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/botsentry/internal/detective"
)

var (
	_ suture.Service = (*CleanupService)(nil)
	_ suture.Service = (*CloserService)(nil)
	_ CleanupRunner  = (*detective.CleanupLoop)(nil)
)

func TestCleanupService_SweepsUnderSupervisor(t *testing.T) {
	loop := detective.NewCleanupLoop(5 * time.Millisecond)
	var sweeps atomic.Int32
	loop.Register("counter", detective.SweeperFunc(func() int {
		sweeps.Add(1)
		return 0
	}))

	svc := NewCleanupService(loop)
	if svc.String() != "cleanup-loop" {
		t.Errorf("String() = %q", svc.String())
	}

	sup := suture.New("test-sup", suture.Spec{Timeout: time.Second})
	sup.Add(svc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for sweeps.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-errCh

	if sweeps.Load() < 2 {
		t.Errorf("sweeps = %d, want at least 2", sweeps.Load())
	}
}

func TestCloserService_ClosesOnce(t *testing.T) {
	var closes atomic.Int32
	svc := NewCloserService("origin-resolver", func() { closes.Add(1) })

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	}

	if closes.Load() != 1 {
		t.Errorf("close calls = %d, want 1", closes.Load())
	}
	if svc.String() != "origin-resolver" {
		t.Errorf("String() = %q", svc.String())
	}
}
