// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package config

import (
	"time"

	"github.com/tomtom215/botsentry/internal/detective"
	"github.com/tomtom215/botsentry/internal/origin"
	"github.com/tomtom215/botsentry/internal/supervisor"
)

// Config is the complete application configuration.
type Config struct {
	Server     ServerConfig          `koanf:"server"`
	Security   SecurityConfig        `koanf:"security"`
	Logging    LoggingConfig         `koanf:"logging"`
	Detective  DetectiveConfig       `koanf:"detective"`
	Supervisor supervisor.TreeConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Upstream is the site that tracked traffic is proxied to. When empty,
	// unmatched paths are still tracked and answered with 404.
	Upstream string `koanf:"upstream"`
}

// SecurityConfig holds admin authentication and request limits.
type SecurityConfig struct {
	// AdminKey is compared in constant time against X-Admin-Key or ?key=.
	AdminKey string `koanf:"admin_key"`

	// AdminKeyHash is a bcrypt hash checked when AdminKey is empty.
	AdminKeyHash string `koanf:"admin_key_hash"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// ProofRateLimitReqs limits beacon posts per client IP per window.
	ProofRateLimitReqs int `koanf:"proof_rate_limit_reqs"`

	CORSOrigins []string `koanf:"cors_origins"`
}

// AdminConfigured reports whether any admin credential is set.
func (s *SecurityConfig) AdminConfigured() bool {
	return s.AdminKey != "" || s.AdminKeyHash != ""
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller adds file:line to each entry.
	Caller bool `koanf:"caller"`
}

// DetectiveConfig holds store lifetimes, capacities and detector tables.
type DetectiveConfig struct {
	BehaviorTTL       time.Duration `koanf:"behavior_ttl"`
	ProofTTL          time.Duration `koanf:"proof_ttl"`
	ClassificationTTL time.Duration `koanf:"classification_ttl"`

	MaxTimestamps  int `koanf:"max_timestamps"`
	MaxPaths       int `koanf:"max_paths"`
	MaxSetMembers  int `koanf:"max_set_members"`
	MaxValueLength int `koanf:"max_value_length"`

	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// ScraperSignatures replaces the built-in known scraper table when set.
	ScraperSignatures []string `koanf:"scraper_signatures"`

	// ExposeLabel adds X-Visitor-Class to every tracked response.
	ExposeLabel bool `koanf:"expose_label"`

	// Detectors tunes built-in detectors by name (user_agent, origin,
	// proof, behavior). File only; there are no environment mappings.
	Detectors map[string]DetectorConfig `koanf:"detectors"`

	Origin OriginConfig `koanf:"origin"`
}

// DetectorConfig overrides one detector.
//
//	detectors:
//	  origin:
//	    settings:
//	      hosting_weight: 0.2
//	  behavior:
//	    enabled: false
type DetectorConfig struct {
	// Enabled switches the detector on or off. Unset leaves it on.
	Enabled *bool `koanf:"enabled"`

	// Settings uses the detector's JSON field names. Omitted keys keep
	// their defaults.
	Settings map[string]any `koanf:"settings"`
}

// OriginConfig holds ASN resolver settings.
type OriginConfig struct {
	// Resolver is a DNS server "host:port". Empty reads /etc/resolv.conf.
	Resolver         string        `koanf:"resolver"`
	Suffix           string        `koanf:"suffix"`
	Timeout          time.Duration `koanf:"timeout"`
	CacheTTL         time.Duration `koanf:"cache_ttl"`
	CacheSize        int           `koanf:"cache_size"`
	LookupsPerSecond float64       `koanf:"lookups_per_second"`
	LookupBurst      int           `koanf:"lookup_burst"`
	BreakerFailures  uint32        `koanf:"breaker_failures"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// ServiceConfig converts the section to the detective service config.
func (d *DetectiveConfig) ServiceConfig() detective.Config {
	return detective.Config{
		BehaviorTTL:       d.BehaviorTTL,
		ProofTTL:          d.ProofTTL,
		ClassificationTTL: d.ClassificationTTL,
		MaxTimestamps:     d.MaxTimestamps,
		MaxPaths:          d.MaxPaths,
		MaxSetMembers:     d.MaxSetMembers,
		MaxValueLength:    d.MaxValueLength,
		CleanupInterval:   d.CleanupInterval,
		ScraperSignatures: append([]string(nil), d.ScraperSignatures...),
		Detectors:         d.detectorSettings(),
		Origin: origin.Config{
			Server:           d.Origin.Resolver,
			Suffix:           d.Origin.Suffix,
			Timeout:          d.Origin.Timeout,
			CacheTTL:         d.Origin.CacheTTL,
			CacheSize:        d.Origin.CacheSize,
			LookupsPerSecond: d.Origin.LookupsPerSecond,
			LookupBurst:      d.Origin.LookupBurst,
			BreakerFailures:  d.Origin.BreakerFailures,
			BreakerTimeout:   d.Origin.BreakerTimeout,
		},
	}
}

func (d *DetectiveConfig) detectorSettings() map[string]detective.DetectorSettings {
	if len(d.Detectors) == 0 {
		return nil
	}
	out := make(map[string]detective.DetectorSettings, len(d.Detectors))
	for name, dc := range d.Detectors {
		out[name] = detective.DetectorSettings{
			Enabled:  dc.Enabled,
			Settings: dc.Settings,
		}
	}
	return out
}
