// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package main is the entry point for the BotSentry server.

BotSentry sits in front of (or beside) a website and classifies every
visitor IP as human, suspicious or bot from its network origin, whether
the browser executed a JavaScript proof beacon, and the shape of its
request history. Administrators inspect the live population and manage
a blocklist through a small JSON API.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("botsentry")
	├── DetectionSupervisor ("detection-layer")
	│   ├── Cleanup loop (expired store entries, every 300s)
	│   └── Detective service closer (stops pending origin lookups)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (chi router)

Initialization order:

 1. Configuration: Koanf v2 with defaults, YAML file and environment
 2. Logging: zerolog with JSON/console output modes
 3. Detective service: origin resolver, proof and behavior trackers,
    classification engine and blocklist
 4. HTTP router: proof beacon, admin API, health, metrics and tracked
    site traffic
 5. Supervisor tree

# Signals

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
HTTP_SHUTDOWN_TIMEOUT, then the detective service is closed.

# Configuration

See package config for every option. The minimum for a useful deployment:

	ADMIN_KEY=<at least 16 characters>
	HTTP_UPSTREAM=http://127.0.0.1:3000
*/
package main
