// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package blocklist

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/botsentry/internal/metrics"
)

func TestManager_BlockUnblock(t *testing.T) {
	m := NewManager(nil)

	if m.IsBlocked("203.0.113.5") {
		t.Fatal("unexpected block on empty list")
	}
	if !m.Block("203.0.113.5") {
		t.Fatal("Block() = false on first block")
	}
	if !m.IsBlocked("203.0.113.5") {
		t.Fatal("IsBlocked() = false right after Block")
	}
	if m.Block("203.0.113.5") {
		t.Error("Block() = true on duplicate")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
	if got := testutil.ToFloat64(metrics.BlockedIPs); got != 1 {
		t.Errorf("blocked gauge = %v, want 1", got)
	}

	if !m.Unblock("203.0.113.5") {
		t.Error("Unblock() = false for blocked ip")
	}
	if m.Unblock("203.0.113.5") {
		t.Error("Unblock() = true for ip no longer blocked")
	}
	if m.IsBlocked("203.0.113.5") {
		t.Error("still blocked after Unblock")
	}
}

func TestManager_DuplicateKeepsOriginalTime(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	m := NewManager(clock)

	m.Block("198.51.100.1")
	first := m.List()[0].BlockedAt

	now = now.Add(time.Hour)
	m.Block("198.51.100.1")
	if got := m.List()[0].BlockedAt; !got.Equal(first) {
		t.Errorf("BlockedAt = %v, want %v", got, first)
	}
}

func TestManager_ListOrder(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManager(func() time.Time { return now })

	m.Block("10.0.0.1")
	now = now.Add(time.Minute)
	m.Block("10.0.0.3")
	m.Block("10.0.0.2")

	got := m.List()
	want := []string{"10.0.0.2", "10.0.0.3", "10.0.0.1"}
	if len(got) != len(want) {
		t.Fatalf("List() = %+v", got)
	}
	for i, e := range got {
		if e.IP != want[i] {
			t.Errorf("List()[%d] = %s, want %s", i, e.IP, want[i])
		}
	}
}

func TestManager_Concurrent(t *testing.T) {
	m := NewManager(nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ip := fmt.Sprintf("10.1.0.%d", i)
			m.Block(ip)
			_ = m.IsBlocked(ip)
			_ = m.List()
			if i%2 == 0 {
				m.Unblock(ip)
			}
		}(i)
	}
	wg.Wait()

	if m.Len() != 10 {
		t.Errorf("Len() = %d, want 10", m.Len())
	}
}
