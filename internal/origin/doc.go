// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package origin resolves the network origin (ASN) of IPv4 visitors.

Lookups use the Team Cymru IP-to-ASN DNS service. For 1.2.3.4 the TXT
record of 4.3.2.1.origin.asn.cymru.com is fetched with a hand-built query
sent over a single UDP datagram, and the leading integer of the reply is
taken as the ASN.

# Resolver

Resolver.Get is safe to call on the request path: it returns a cached
record or a "pending" placeholder and schedules at most one background
lookup per IP. Results are cached for 24 hours in a bounded cache that
evicts the oldest entry when full.

	r := origin.NewResolver(origin.DefaultConfig())
	defer r.Close()

	rec := r.Get("203.0.113.9") // {0 pending false} on first sight

Outbound traffic passes a token bucket and a circuit breaker. Throttled,
failed and breaker-rejected lookups produce "lookup_failed" and are not
cached, and neither are TXT answers whose payload has no positive ASN.
Replies without a TXT answer produce "unknown" and are cached.

# Reputation Tables

HostingASNs and SearchEngineASNs classify the resolved ASN. Some networks
appear in both; the hosting name is preferred for display.
*/
package origin
