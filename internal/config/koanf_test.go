// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/botsentry/internal/detection"
)

// writeConfig writes a YAML file and points CONFIG_PATH at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Detective.BehaviorTTL != time.Hour {
		t.Errorf("BehaviorTTL = %v, want 1h", cfg.Detective.BehaviorTTL)
	}
	if cfg.Detective.ProofTTL != 24*time.Hour || cfg.Detective.Origin.CacheTTL != 24*time.Hour {
		t.Errorf("ProofTTL = %v, Origin.CacheTTL = %v", cfg.Detective.ProofTTL, cfg.Detective.Origin.CacheTTL)
	}
	if cfg.Detective.ClassificationTTL != 30*time.Second {
		t.Errorf("ClassificationTTL = %v, want 30s", cfg.Detective.ClassificationTTL)
	}
	if cfg.Detective.CleanupInterval != 300*time.Second {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.Detective.CleanupInterval)
	}
	if cfg.Detective.MaxTimestamps != 500 || cfg.Detective.MaxPaths != 200 || cfg.Detective.Origin.CacheSize != 10000 {
		t.Errorf("capacities = %d/%d/%d", cfg.Detective.MaxTimestamps, cfg.Detective.MaxPaths, cfg.Detective.Origin.CacheSize)
	}
	if cfg.Detective.Origin.Timeout != 3*time.Second {
		t.Errorf("Origin.Timeout = %v, want 3s", cfg.Detective.Origin.Timeout)
	}
	if !reflect.DeepEqual(cfg.Detective.ScraperSignatures, detection.DefaultScraperSignatures) {
		t.Error("ScraperSignatures should default to the built-in table")
	}
	if cfg.Security.AdminConfigured() {
		t.Error("admin credentials should be empty by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"HTTP_UPSTREAM", "server.upstream"},
		{"ADMIN_KEY", "security.admin_key"},
		{"LOG_LEVEL", "logging.level"},
		{"BEHAVIOR_TTL", "detective.behavior_ttl"},
		{"EXPOSE_VISITOR_CLASS", "detective.expose_label"},
		{"ASN_RESOLVER", "detective.origin.resolver"},
		{"SUPERVISOR_SHUTDOWN_TIMEOUT", "supervisor.shutdown_timeout"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			if got := envTransformFunc(tt.env); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
			}
		})
	}
}

func TestLoad_EnvVars(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ADMIN_KEY", "0123456789abcdef0123")
	t.Setenv("BEHAVIOR_TTL", "30m")
	t.Setenv("EXPOSE_VISITOR_CLASS", "true")
	t.Setenv("ASN_BREAKER_FAILURES", "9")
	t.Setenv("SCRAPER_SIGNATURES", "curl, wget ,,python-requests")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Security.AdminKey != "0123456789abcdef0123" {
		t.Errorf("AdminKey = %q", cfg.Security.AdminKey)
	}
	if cfg.Detective.BehaviorTTL != 30*time.Minute {
		t.Errorf("BehaviorTTL = %v, want 30m", cfg.Detective.BehaviorTTL)
	}
	if !cfg.Detective.ExposeLabel {
		t.Error("ExposeLabel = false, want true")
	}
	if cfg.Detective.Origin.BreakerFailures != 9 {
		t.Errorf("BreakerFailures = %d, want 9", cfg.Detective.Origin.BreakerFailures)
	}
	wantSigs := []string{"curl", "wget", "python-requests"}
	if !reflect.DeepEqual(cfg.Detective.ScraperSignatures, wantSigs) {
		t.Errorf("ScraperSignatures = %v, want %v", cfg.Detective.ScraperSignatures, wantSigs)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}

	// Unset values keep their defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Detective.ProofTTL != 24*time.Hour {
		t.Errorf("ProofTTL = %v, want default", cfg.Detective.ProofTTL)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	writeConfig(t, `
server:
  port: 7070
security:
  admin_key_hash: "$2a$10$abcdefghijklmnopqrstuuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0"
logging:
  format: console
detective:
  classification_ttl: 10s
  scraper_signatures:
    - scrapy
    - httpx
  origin:
    resolver: 127.0.0.1:5353
    lookups_per_second: 5
supervisor:
  failure_backoff: 2s
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070", cfg.Server.Port)
	}
	if !cfg.Security.AdminConfigured() {
		t.Error("AdminConfigured() = false with a hash set")
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q", cfg.Logging.Format)
	}
	if cfg.Detective.ClassificationTTL != 10*time.Second {
		t.Errorf("ClassificationTTL = %v, want 10s", cfg.Detective.ClassificationTTL)
	}
	if !reflect.DeepEqual(cfg.Detective.ScraperSignatures, []string{"scrapy", "httpx"}) {
		t.Errorf("ScraperSignatures = %v", cfg.Detective.ScraperSignatures)
	}
	if cfg.Detective.Origin.Resolver != "127.0.0.1:5353" || cfg.Detective.Origin.LookupsPerSecond != 5 {
		t.Errorf("Origin = %+v", cfg.Detective.Origin)
	}
	if cfg.Supervisor.FailureBackoff != 2*time.Second {
		t.Errorf("FailureBackoff = %v, want 2s", cfg.Supervisor.FailureBackoff)
	}
	if cfg.Supervisor.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want default", cfg.Supervisor.ShutdownTimeout)
	}
}

func TestLoad_DetectorSettings(t *testing.T) {
	writeConfig(t, `
detective:
  detectors:
    origin:
      settings:
        hosting_weight: 0.2
    behavior:
      enabled: false
`)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.Detective.Detectors) != 2 {
		t.Fatalf("Detectors = %+v, want origin and behavior", cfg.Detective.Detectors)
	}
	if w, ok := cfg.Detective.Detectors["origin"].Settings["hosting_weight"].(float64); !ok || w != 0.2 {
		t.Errorf("origin hosting_weight = %v", cfg.Detective.Detectors["origin"].Settings["hosting_weight"])
	}
	if cfg.Detective.Detectors["origin"].Enabled != nil {
		t.Error("origin Enabled set without an enabled key")
	}
	if en := cfg.Detective.Detectors["behavior"].Enabled; en == nil || *en {
		t.Errorf("behavior Enabled = %v, want false", en)
	}
}

func TestLoad_UnknownDetector(t *testing.T) {
	writeConfig(t, `
detective:
  detectors:
    honeypot:
      enabled: true
`)

	if _, err := Load(); err == nil || !strings.Contains(err.Error(), `unknown detector "honeypot"`) {
		t.Fatalf("Load() error = %v, want unknown detector", err)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	writeConfig(t, `
server:
  port: 7070
logging:
  level: warn
`)
	t.Setenv("HTTP_PORT", "6060")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 6060 {
		t.Errorf("Server.Port = %d, want env value 6060", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want file value warn", cfg.Logging.Level)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	writeConfig(t, "server: [not, a, map")
	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for malformed YAML")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("HTTP_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Error("Load() error = nil for out-of-range port")
	}
}
