// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package services

import (
	"context"
	"time"
)

// CleanupRunner is satisfied by *detective.CleanupLoop.
type CleanupRunner interface {
	// Serve sweeps on a fixed period until ctx is cancelled.
	Serve(ctx context.Context) error
	Interval() time.Duration
}

// CleanupService supervises the periodic store sweep. If the loop panics
// or returns early, suture restarts it with backoff.
type CleanupService struct {
	loop CleanupRunner
	name string
}

// NewCleanupService wraps loop.
func NewCleanupService(loop CleanupRunner) *CleanupService {
	return &CleanupService{
		loop: loop,
		name: "cleanup-loop",
	}
}

// Serve implements suture.Service.
func (c *CleanupService) Serve(ctx context.Context) error {
	return c.loop.Serve(ctx)
}

// String implements fmt.Stringer for supervisor logs.
func (c *CleanupService) String() string {
	return c.name
}
