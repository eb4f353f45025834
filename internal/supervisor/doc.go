// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package supervisor runs the long-lived services of BotSentry under a
suture v4 supervisor tree.

# Overview

	RootSupervisor ("botsentry")
	├── DetectionSupervisor ("detection-layer")
	│   ├── CleanupService   periodic store sweeps
	│   └── CloserService    stops background ASN lookups on shutdown
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Crashed services are restarted with backoff. Each layer counts failures
independently, so a misbehaving sweep does not take the HTTP server down.
Supervisor events are logged through sutureslog into the zerolog logger
(see logging.NewSlogLogger).

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), cfg.Supervisor)
	if err != nil {
		return err
	}
	tree.AddDetectionService(services.NewCleanupService(svc.Cleanup()))
	tree.AddDetectionService(services.NewCloserService("origin-resolver", svc.Close))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("supervisor tree stopped")
	}
*/
package supervisor
