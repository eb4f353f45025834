// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import (
	"strconv"
	"strings"
)

// HostingASNs are cloud, hosting, VPN and proxy networks. Traffic from
// these ranges is rarely a person at a browser.
var HostingASNs = map[int]string{
	// Major cloud
	16509: "Amazon AWS", 14618: "Amazon AWS",
	8075: "Microsoft Azure", 8068: "Microsoft Azure",
	15169: "Google Cloud", 396982: "Google Cloud",
	13335: "Cloudflare", 20940: "Akamai",

	// Hosting
	14061: "DigitalOcean", 63949: "Linode/Akamai",
	20473: "Vultr", 24940: "Hetzner",
	16276: "OVHcloud", 12876: "Scaleway",
	51167: "Contabo", 46664: "VolumeDrive",
	36352: "ColoCrossing", 53667: "FranTech/BuyVM",
	55286: "ServerMania", 62567: "DigitalOcean",

	// VPN and proxy
	9009: "M247 (VPN)", 212238: "Datacamp (proxy)",
	202422: "GCore", 397423: "Mullvad VPN",

	// Chinese hosting
	4134: "ChinaNet", 4837: "China169",
	45090: "Tencent Cloud", 37963: "Alibaba Cloud",
}

// SearchEngineASNs are networks that legitimately operate crawlers.
var SearchEngineASNs = map[int]string{
	15169: "Google", 396982: "Google",
	8075: "Microsoft/Bing", 8068: "Microsoft/Bing",
	13238: "Yandex", 36647: "Yahoo",
	14618: "Amazon/Alexa",
	13414: "Twitter", 54113: "Fastly/Pinterest",
}

// CrawlerSignatures are lowercase user agent fragments claiming a
// search engine identity.
var CrawlerSignatures = []string{
	"googlebot",
	"bingbot",
	"yandex",
	"slurp",
	"baiduspider",
	"duckduckbot",
	"applebot",
	"linkedinbot",
}

// IsHosting reports whether asn is a hosting or VPN network.
func IsHosting(asn int) bool {
	_, ok := HostingASNs[asn]
	return ok
}

// IsSearchEngine reports whether asn operates a legitimate crawler.
func IsSearchEngine(asn int) bool {
	_, ok := SearchEngineASNs[asn]
	return ok
}

// ASNName returns the hosting name, then the search engine name, then "AS<n>".
func ASNName(asn int) string {
	if name, ok := HostingASNs[asn]; ok {
		return name
	}
	if name, ok := SearchEngineASNs[asn]; ok {
		return name
	}
	return "AS" + strconv.Itoa(asn)
}

// CrawlerSignature returns the first crawler signature contained in the
// lowercased user agent.
func CrawlerSignature(userAgentLower string) (string, bool) {
	for _, sig := range CrawlerSignatures {
		if strings.Contains(userAgentLower, sig) {
			return sig, true
		}
	}
	return "", false
}
