// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package detection classifies visitors as human, suspicious or bot.

The Engine gathers evidence for an IP from three stores (origin, proof and
behavior), runs every enabled Detector over it and sums the signal
weights. The sum is clamped to [0, 1] and mapped to a label:

	score >= 0.7  bot
	score >= 0.4  suspicious
	otherwise     human

# Detectors

  - user_agent: known scraping tools and headless browsers (known_scraper_ua)
  - origin: hosting networks and spoofed crawler claims (hosting_asn,
    spoofed_engine_ua, legit_search_engine)
  - proof: missing or suspicious browser execution proof (no_js_proof,
    webdriver, zero_plugins)
  - behavior: request timing and navigation shape (timing_uniform,
    sequential_crawl, high_page_asset_ratio, high_velocity,
    deep_no_referrer, single_ua_many_paths, api_only_no_pages)

Detectors run in registration order, so the signal list of a result is
stable. Each detector accepts a JSON configuration through Configure.

# Caching

Results are cached per IP for 30 seconds. Requests and proofs recorded
inside that window do not refresh the cached result; Sweep reclaims
expired entries.

	engine := detection.NewEngine(resolver, proofs, behaviors, detection.DefaultEngineConfig(), nil)
	engine.RegisterDefaults(nil)

	res := engine.Classify("203.0.113.9", r.UserAgent())
*/
package detection
