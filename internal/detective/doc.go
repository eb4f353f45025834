// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package detective wires the evidence stores, the classification engine and
the blocklist into a single Service.

A Service is created once at startup and shared by the HTTP layer:

	svc, err := detective.New(detective.DefaultConfig())
	if err != nil {
		return err
	}
	defer svc.Close()

	svc.RecordRequest(ip, r.UserAgent(), r.URL.Path, r.Referer())
	res := svc.Classify(ip, r.UserAgent())

The CleanupLoop returned by Cleanup sweeps expired behavior windows,
origin records, proof records and cached classifications every five
minutes. Blocked IPs are never swept.
*/
package detective
