// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/botsentry/internal/detection"
	"github.com/tomtom215/botsentry/internal/detective"
	"github.com/tomtom215/botsentry/internal/origin"
	"github.com/tomtom215/botsentry/internal/supervisor"
)

// DefaultConfigPaths are searched in order; the first existing file wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/botsentry/config.yaml",
	"/etc/botsentry/config.yml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	svc := detective.DefaultConfig()
	org := origin.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitReqs:      120,
			RateLimitWindow:    time.Minute,
			ProofRateLimitReqs: 30,
			CORSOrigins:        []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Detective: DetectiveConfig{
			BehaviorTTL:       svc.BehaviorTTL,
			ProofTTL:          svc.ProofTTL,
			ClassificationTTL: svc.ClassificationTTL,
			MaxTimestamps:     svc.MaxTimestamps,
			MaxPaths:          svc.MaxPaths,
			MaxSetMembers:     svc.MaxSetMembers,
			MaxValueLength:    svc.MaxValueLength,
			CleanupInterval:   svc.CleanupInterval,
			ScraperSignatures: append([]string(nil), detection.DefaultScraperSignatures...),
			Origin: OriginConfig{
				Suffix:           org.Suffix,
				Timeout:          org.Timeout,
				CacheTTL:         org.CacheTTL,
				CacheSize:        org.CacheSize,
				LookupsPerSecond: org.LookupsPerSecond,
				LookupBurst:      org.LookupBurst,
				BreakerFailures:  org.BreakerFailures,
				BreakerTimeout:   org.BreakerTimeout,
			},
		},
		Supervisor: supervisor.DefaultTreeConfig(),
	}
}

// Load reads configuration in three layers, later layers winning:
//  1. built-in defaults
//  2. an optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. environment variables listed in envMappings
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when set by env.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"detective.scraper_signatures",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}

		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"http_upstream":         "server.upstream",

	// Security
	"admin_key":             "security.admin_key",
	"admin_key_hash":        "security.admin_key_hash",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"proof_rate_limit_reqs": "security.proof_rate_limit_reqs",
	"cors_origins":          "security.cors_origins",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Detective
	"behavior_ttl":         "detective.behavior_ttl",
	"proof_ttl":            "detective.proof_ttl",
	"classification_ttl":   "detective.classification_ttl",
	"max_timestamps":       "detective.max_timestamps",
	"max_paths":            "detective.max_paths",
	"max_set_members":      "detective.max_set_members",
	"max_value_length":     "detective.max_value_length",
	"cleanup_interval":     "detective.cleanup_interval",
	"scraper_signatures":   "detective.scraper_signatures",
	"expose_visitor_class": "detective.expose_label",

	// Origin resolver
	"asn_resolver":           "detective.origin.resolver",
	"asn_suffix":             "detective.origin.suffix",
	"asn_timeout":            "detective.origin.timeout",
	"asn_cache_ttl":          "detective.origin.cache_ttl",
	"asn_cache_size":         "detective.origin.cache_size",
	"asn_lookups_per_second": "detective.origin.lookups_per_second",
	"asn_lookup_burst":       "detective.origin.lookup_burst",
	"asn_breaker_failures":   "detective.origin.breaker_failures",
	"asn_breaker_timeout":    "detective.origin.breaker_timeout",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps an environment variable to its config path.
// Unmapped variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
