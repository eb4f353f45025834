// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package services

import (
	"context"
	"sync"

	"github.com/tomtom215/botsentry/internal/logging"
)

// CloserService ties a component's shutdown to the supervisor tree. It
// idles until the tree stops and then calls close exactly once, even if
// the service was restarted in between.
type CloserService struct {
	name  string
	close func()
	once  sync.Once
}

// NewCloserService creates a service that runs close on shutdown.
func NewCloserService(name string, close func()) *CloserService {
	return &CloserService{name: name, close: close}
}

// Serve implements suture.Service.
func (c *CloserService) Serve(ctx context.Context) error {
	<-ctx.Done()
	c.once.Do(func() {
		logging.Info().Str("service", c.name).Msg("closing")
		c.close()
	})
	return ctx.Err()
}

// String implements fmt.Stringer for supervisor logs.
func (c *CloserService) String() string {
	return c.name
}
