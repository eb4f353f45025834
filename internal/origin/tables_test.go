// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import "testing"

func TestASNName(t *testing.T) {
	tests := []struct {
		asn  int
		want string
	}{
		{16509, "Amazon AWS"},
		{15169, "Google Cloud"}, // hosting name wins over search name
		{13238, "Yandex"},
		{64500, "AS64500"},
	}
	for _, tt := range tests {
		if got := ASNName(tt.asn); got != tt.want {
			t.Errorf("ASNName(%d) = %q, want %q", tt.asn, got, tt.want)
		}
	}
}

func TestTablesOverlap(t *testing.T) {
	if !IsHosting(15169) || !IsSearchEngine(15169) {
		t.Error("15169 must be both hosting and search engine")
	}
	if IsHosting(13238) {
		t.Error("Yandex is not a hosting network")
	}
	if IsSearchEngine(24940) {
		t.Error("Hetzner is not a search engine")
	}
}

func TestCrawlerSignature(t *testing.T) {
	tests := []struct {
		ua      string
		want    string
		wantHit bool
	}{
		{"mozilla/5.0 (compatible; googlebot/2.1; +http://www.google.com/bot.html)", "googlebot", true},
		{"mozilla/5.0 (compatible; bingbot/2.0)", "bingbot", true},
		{"mozilla/5.0 (windows nt 10.0; win64; x64) firefox/128.0", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CrawlerSignature(tt.ua)
		if got != tt.want || ok != tt.wantHit {
			t.Errorf("CrawlerSignature(%q) = %q, %v", tt.ua, got, ok)
		}
	}
}
