// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package proof

import (
	"sync"
	"testing"
	"time"
)

func TestTracker_PageViewsAndProof(t *testing.T) {
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	tr := NewTracker(24*time.Hour, func() time.Time { return now })

	if _, ok := tr.Get("1.2.3.4"); ok {
		t.Fatal("unknown IP should have no record")
	}

	tr.RecordPageView("1.2.3.4")
	tr.RecordPageView("1.2.3.4")
	tr.RecordPageView("1.2.3.4")

	rec, ok := tr.Get("1.2.3.4")
	if !ok || rec.PageViews != 3 || rec.Proved {
		t.Fatalf("Get() = %+v, %v; want 3 views, unproved", rec, ok)
	}

	tr.RecordProof("1.2.3.4", Payload{})
	rec, _ = tr.Get("1.2.3.4")
	if !rec.Proved || !rec.ProvedAt.Equal(now) {
		t.Errorf("proof not recorded: %+v", rec)
	}
	if rec.PageViews != 3 {
		t.Errorf("PageViews = %d, proof must not reset views", rec.PageViews)
	}
}

func TestTracker_AutomationHintsAreSticky(t *testing.T) {
	tr := NewTracker(0, nil)

	tr.RecordProof("5.5.5.5", Payload{Webdriver: true, NoPlugins: true})
	tr.RecordProof("5.5.5.5", Payload{})

	rec, _ := tr.Get("5.5.5.5")
	if !rec.Webdriver || !rec.NoPlugins {
		t.Errorf("hints cleared by later beacon: %+v", rec)
	}
}

func TestTracker_ProofWithoutPageView(t *testing.T) {
	tr := NewTracker(0, nil)
	tr.RecordProof("7.7.7.7", Payload{NoPlugins: true})

	rec, ok := tr.Get("7.7.7.7")
	if !ok || !rec.Proved || rec.PageViews != 0 || !rec.NoPlugins || rec.Webdriver {
		t.Errorf("Get() = %+v, %v", rec, ok)
	}
}

func TestTracker_Sweep(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(d)
	}

	tr := NewTracker(24*time.Hour, clock)
	tr.RecordProof("old", Payload{})
	tr.RecordPageView("unproved")

	advance(12 * time.Hour)
	tr.RecordProof("recent", Payload{})

	advance(13 * time.Hour)

	if removed := tr.Sweep(); removed != 1 {
		t.Errorf("Sweep() = %d, want 1", removed)
	}
	if _, ok := tr.Get("old"); ok {
		t.Error("record proved 25h ago should be swept")
	}
	if _, ok := tr.Get("recent"); !ok {
		t.Error("record proved 13h ago should remain")
	}
	if _, ok := tr.Get("unproved"); !ok {
		t.Error("unproved record should remain")
	}
	if tr.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tr.Len())
	}
}

func TestTracker_Concurrent(t *testing.T) {
	tr := NewTracker(time.Hour, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.RecordPageView("c")
				if j%10 == 0 {
					tr.RecordProof("c", Payload{})
				}
				tr.Get("c")
			}
		}()
	}
	wg.Wait()

	rec, _ := tr.Get("c")
	if rec.PageViews != 2000 {
		t.Errorf("PageViews = %d, want 2000", rec.PageViews)
	}
}
