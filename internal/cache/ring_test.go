// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package cache

import (
	"reflect"
	"testing"
)

func TestRing(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		push     []int
		want     []int
	}{
		{"empty", 3, nil, []int{}},
		{"partial", 3, []int{1, 2}, []int{1, 2}},
		{"exactly full", 3, []int{1, 2, 3}, []int{1, 2, 3}},
		{"wraps once", 3, []int{1, 2, 3, 4}, []int{2, 3, 4}},
		{"wraps many", 3, []int{1, 2, 3, 4, 5, 6, 7}, []int{5, 6, 7}},
		{"capacity one", 1, []int{1, 2, 3}, []int{3}},
		{"zero capacity clamps", 0, []int{8, 9}, []int{9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing[int](tt.capacity)
			for _, v := range tt.push {
				r.Push(v)
			}

			got := r.Values()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Values() = %v, want %v", got, tt.want)
			}
			if r.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", r.Len(), len(tt.want))
			}
		})
	}
}

func TestRing_Last(t *testing.T) {
	r := NewRing[string](2)
	if _, ok := r.Last(); ok {
		t.Error("Last() on empty ring should report false")
	}

	r.Push("a")
	r.Push("b")
	r.Push("c")

	if v, ok := r.Last(); !ok || v != "c" {
		t.Errorf("Last() = %q, %v; want c, true", v, ok)
	}
}

func TestRing_ValuesIsCopy(t *testing.T) {
	r := NewRing[int](2)
	r.Push(1)

	vals := r.Values()
	vals[0] = 99

	if got := r.Values()[0]; got != 1 {
		t.Errorf("ring mutated through Values() copy: got %d", got)
	}
}
