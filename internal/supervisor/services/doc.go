// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

/*
Package services adapts BotSentry components to suture.Service.

Each wrapper translates a lifecycle (ListenAndServe/Shutdown, a ticker
loop, a Close method) into the context-aware Serve pattern and names
itself through fmt.Stringer for supervisor logs:

  - HTTPServerService: *http.Server with graceful drain
  - CleanupService: the periodic sweep of the detective stores
  - CloserService: runs a Close function when the tree shuts down

Serve returns ctx.Err() on a requested shutdown and a wrapped error on
failure, which suture uses to decide on a restart.
*/
package services
