// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/botsentry/internal/logging"
)

// bcryptPrefixes are the hash versions golang.org/x/crypto/bcrypt accepts.
var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

// minAdminKeyLength applies to plaintext admin keys.
const minAdminKeyLength = 16

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateDetective(); err != nil {
		return err
	}
	return c.validateSupervisor()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must not be negative")
	}
	if c.Server.Upstream != "" {
		u, err := url.Parse(c.Server.Upstream)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("HTTP_UPSTREAM must be an absolute http(s) URL")
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := &c.Security

	if s.AdminKey != "" && len(s.AdminKey) < minAdminKeyLength {
		return fmt.Errorf("ADMIN_KEY must be at least %d characters", minAdminKeyLength)
	}
	if s.AdminKeyHash != "" && !hasBcryptPrefix(s.AdminKeyHash) {
		return fmt.Errorf("ADMIN_KEY_HASH must be a bcrypt hash")
	}

	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQUESTS must be positive")
		}
		if s.ProofRateLimitReqs < 1 {
			return fmt.Errorf("PROOF_RATE_LIMIT_REQS must be positive")
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}

	for _, origin := range s.CORSOrigins {
		if origin == "*" && len(s.CORSOrigins) > 1 {
			return fmt.Errorf("CORS_ORIGINS must not mix * with explicit origins")
		}
	}
	return nil
}

func hasBcryptPrefix(hash string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(hash, p) {
			return true
		}
	}
	return false
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

func (c *Config) validateDetective() error {
	svc := c.Detective.ServiceConfig()
	if err := svc.Validate(); err != nil {
		return fmt.Errorf("detective: %w", err)
	}

	o := &c.Detective.Origin
	if o.Timeout <= 0 {
		return fmt.Errorf("ASN_TIMEOUT must be positive")
	}
	if o.CacheTTL <= 0 {
		return fmt.Errorf("ASN_CACHE_TTL must be positive")
	}
	if o.CacheSize < 1 {
		return fmt.Errorf("ASN_CACHE_SIZE must be positive")
	}
	if o.LookupsPerSecond < 0 {
		return fmt.Errorf("ASN_LOOKUPS_PER_SECOND must not be negative")
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := &c.Supervisor
	if s.FailureThreshold < 0 || s.FailureDecay < 0 {
		return fmt.Errorf("supervisor failure threshold and decay must not be negative")
	}
	if s.FailureBackoff < 0 || s.ShutdownTimeout < 0 {
		return fmt.Errorf("supervisor durations must not be negative")
	}
	return nil
}
