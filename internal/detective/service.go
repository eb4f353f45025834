// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package detective

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/botsentry/internal/behavior"
	"github.com/tomtom215/botsentry/internal/blocklist"
	"github.com/tomtom215/botsentry/internal/detection"
	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/metrics"
	"github.com/tomtom215/botsentry/internal/origin"
	"github.com/tomtom215/botsentry/internal/proof"
)

// Store names used in sweep reports and metrics.
const (
	StoreBehavior       = "behavior"
	StoreOrigin         = "origin"
	StoreProof          = "proof"
	StoreClassification = "classification"
)

const (
	maxVisitorUserAgents = 3
	maxVisitorPaths      = 10
	maxTopScrapers       = 10
)

// Config holds every tunable of the service.
type Config struct {
	BehaviorTTL       time.Duration
	ProofTTL          time.Duration
	ClassificationTTL time.Duration

	MaxTimestamps  int
	MaxPaths       int
	MaxSetMembers  int
	MaxValueLength int

	CleanupInterval time.Duration

	// ScraperSignatures replaces the default known scraper table when non-empty.
	ScraperSignatures []string

	// Detectors tunes the built-in detectors by name.
	Detectors map[string]DetectorSettings

	Origin origin.Config
}

// DetectorSettings overrides one built-in detector.
type DetectorSettings struct {
	// Enabled switches the detector on or off when set.
	Enabled *bool

	// Settings is passed to the detector's Configure as JSON. Keys it
	// does not name keep their defaults.
	Settings map[string]any
}

// DetectorNames lists the built-in detectors in evaluation order.
var DetectorNames = []string{
	detection.DetectorUserAgent,
	detection.DetectorOrigin,
	detection.DetectorProof,
	detection.DetectorBehavior,
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	b := behavior.DefaultConfig()
	return Config{
		BehaviorTTL:       b.TTL,
		ProofTTL:          24 * time.Hour,
		ClassificationTTL: 30 * time.Second,
		MaxTimestamps:     b.MaxTimestamps,
		MaxPaths:          b.MaxPaths,
		MaxSetMembers:     b.MaxSetMembers,
		MaxValueLength:    b.MaxValueLength,
		CleanupInterval:   DefaultCleanupInterval,
		Origin:            origin.DefaultConfig(),
	}
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	durations := []struct {
		name string
		d    time.Duration
	}{
		{"behavior_ttl", c.BehaviorTTL},
		{"proof_ttl", c.ProofTTL},
		{"classification_ttl", c.ClassificationTTL},
		{"cleanup_interval", c.CleanupInterval},
	}
	for _, f := range durations {
		if f.d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", f.name, f.d))
		}
	}
	if c.MaxTimestamps < 5 {
		errs = append(errs, fmt.Errorf("max_timestamps must be at least 5, got %d", c.MaxTimestamps))
	}
	if c.MaxPaths < 3 {
		errs = append(errs, fmt.Errorf("max_paths must be at least 3, got %d", c.MaxPaths))
	}
	if c.MaxSetMembers < 1 {
		errs = append(errs, fmt.Errorf("max_set_members must be positive, got %d", c.MaxSetMembers))
	}
	if c.MaxValueLength < 1 {
		errs = append(errs, fmt.Errorf("max_value_length must be positive, got %d", c.MaxValueLength))
	}
	for _, name := range sortedKeys(c.Detectors) {
		if !slices.Contains(DetectorNames, name) {
			errs = append(errs, fmt.Errorf("unknown detector %q", name))
		}
	}
	return errors.Join(errs...)
}

// Option customizes a Service.
type Option func(*options)

type options struct {
	now       func() time.Time
	originOps []origin.Option
}

// WithClock sets the time source for every store.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithOriginOptions passes options to the origin resolver.
func WithOriginOptions(opts ...origin.Option) Option {
	return func(o *options) {
		o.originOps = append(o.originOps, opts...)
	}
}

// Service owns every store and exposes ingest, classification, blocking
// and reporting. It replaces a process-wide detector: callers construct
// one and pass it where needed.
type Service struct {
	now func() time.Time

	origins   *origin.Resolver
	proofs    *proof.Tracker
	behaviors *behavior.Tracker
	engine    *detection.Engine
	blocks    *blocklist.Manager
	cleanup   *CleanupLoop
}

// New builds a Service. Close must be called to stop background lookups.
func New(cfg Config, opts ...Option) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid detective config: %w", err)
	}

	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	originOpts := append([]origin.Option{origin.WithClock(o.now)}, o.originOps...)

	s := &Service{now: o.now}
	s.origins = origin.NewResolver(cfg.Origin, originOpts...)
	s.proofs = proof.NewTracker(cfg.ProofTTL, o.now)
	s.behaviors = behavior.NewTracker(behavior.Config{
		TTL:            cfg.BehaviorTTL,
		MaxTimestamps:  cfg.MaxTimestamps,
		MaxPaths:       cfg.MaxPaths,
		MaxSetMembers:  cfg.MaxSetMembers,
		MaxValueLength: cfg.MaxValueLength,
	}, o.now)
	s.blocks = blocklist.NewManager(o.now)

	s.engine = detection.NewEngine(s.origins, s.proofs, s.behaviors, detection.EngineConfig{
		CacheTTL: cfg.ClassificationTTL,
	}, o.now)
	s.engine.RegisterDefaults(cfg.ScraperSignatures)
	if err := s.configureDetectors(cfg.Detectors); err != nil {
		s.origins.Close()
		return nil, err
	}

	s.cleanup = NewCleanupLoop(cfg.CleanupInterval)
	s.cleanup.Register(StoreBehavior, s.behaviors)
	s.cleanup.Register(StoreOrigin, s.origins)
	s.cleanup.Register(StoreProof, s.proofs)
	s.cleanup.Register(StoreClassification, s.engine)
	s.cleanup.OnSweep(func(SweepReport) {
		metrics.SetTrackedVisitors(s.behaviors.Len())
	})

	logging.Info().
		Dur("behavior_ttl", cfg.BehaviorTTL).
		Dur("classification_ttl", cfg.ClassificationTTL).
		Dur("cleanup_interval", s.cleanup.Interval()).
		Msg("scraper detective initialized")

	return s, nil
}

// configureDetectors applies per-detector settings in name order.
func (s *Service) configureDetectors(settings map[string]DetectorSettings) error {
	for _, name := range sortedKeys(settings) {
		d, ok := s.engine.Detector(name)
		if !ok {
			return fmt.Errorf("unknown detector %q", name)
		}
		ds := settings[name]
		if len(ds.Settings) > 0 {
			raw, err := json.Marshal(ds.Settings)
			if err != nil {
				return fmt.Errorf("encode %s settings: %w", name, err)
			}
			if err := d.Configure(raw); err != nil {
				return fmt.Errorf("configure %s: %w", name, err)
			}
		}
		if ds.Enabled != nil {
			d.SetEnabled(*ds.Enabled)
		}
		logging.Info().Str("detector", name).Bool("enabled", d.Enabled()).Msg("detector configured")
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RecordRequest feeds one request into every evidence layer: it triggers
// the origin lookup, counts a page view for page paths and appends to the
// behavior window.
func (s *Service) RecordRequest(ip, userAgent, path, referrer string) {
	s.origins.Get(ip)

	if behavior.ClassifyPath(path) == behavior.KindPage {
		s.proofs.RecordPageView(ip)
	}
	s.behaviors.Record(ip, userAgent, path, referrer)
}

// Classify returns the (possibly cached) classification for ip.
func (s *Service) Classify(ip, userAgent string) detection.Result {
	return s.engine.Classify(ip, userAgent)
}

// RecordProof stores a browser proof beacon for ip.
func (s *Service) RecordProof(ip string, p proof.Payload) {
	s.proofs.RecordProof(ip, p)
}

// Block adds ip to the blocklist.
func (s *Service) Block(ip string) {
	s.blocks.Block(ip)
}

// Unblock removes ip from the blocklist and reports whether it was blocked.
func (s *Service) Unblock(ip string) bool {
	return s.blocks.Unblock(ip)
}

// IsBlocked reports whether ip is blocked.
func (s *Service) IsBlocked(ip string) bool {
	return s.blocks.IsBlocked(ip)
}

// Blocked lists blocked IPs.
func (s *Service) Blocked() []blocklist.Entry {
	return s.blocks.List()
}

// Visitor is the dashboard view of one active IP.
type Visitor struct {
	IP             string             `json:"ip"`
	ASN            string             `json:"asn"`
	ASNNum         int                `json:"asn_num"`
	IsHosting      bool               `json:"is_hosting"`
	Classification detection.Label    `json:"classification"`
	Confidence     float64            `json:"confidence"`
	Signals        []detection.Signal `json:"signals"`
	RequestCount   int                `json:"request_count"`
	PageCount      int                `json:"page_count"`
	AssetCount     int                `json:"asset_count"`
	APICount       int                `json:"api_count"`
	UserAgents     []string           `json:"user_agents"`
	LastSeen       time.Time          `json:"last_seen"`
	FirstSeen      time.Time          `json:"first_seen"`
	JSProved       bool               `json:"js_proved"`
	JSPageViews    int                `json:"js_page_views"`
	Webdriver      bool               `json:"webdriver"`
	PathsSample    []string           `json:"paths_sample"`
	UniquePaths    int                `json:"unique_paths"`
	IsBlocked      bool               `json:"is_blocked"`
}

// TopScraper is one entry of the summary leaderboard.
type TopScraper struct {
	IP       string  `json:"ip"`
	ASN      string  `json:"asn"`
	Requests int     `json:"requests"`
	Score    float64 `json:"score"`
}

// Summary aggregates the active visitor population.
type Summary struct {
	TotalActive    int          `json:"total_active"`
	Bots           int          `json:"bots"`
	Suspicious     int          `json:"suspicious"`
	Humans         int          `json:"humans"`
	Blocked        int          `json:"blocked"`
	RequestsPerMin int          `json:"requests_per_min"`
	ASNCacheSize   int          `json:"asn_cache_size"`
	TopScrapers    []TopScraper `json:"top_scrapers"`
}

// Report is the admin dashboard payload.
type Report struct {
	Timestamp time.Time `json:"timestamp"`
	Summary   Summary   `json:"summary"`
	Visitors  []Visitor `json:"visitors"`
}

// ActiveVisitors classifies every live behavior window, most recently seen first.
func (s *Service) ActiveVisitors() []Visitor {
	snaps := s.behaviors.Active()
	visitors := make([]Visitor, 0, len(snaps))

	for i := range snaps {
		snap := &snaps[i]
		res := s.engine.Classify(snap.IP, snap.PrimaryUserAgent())
		rec := s.origins.Get(snap.IP)
		pr, _ := s.proofs.Get(snap.IP)

		uas := snap.UserAgents
		if len(uas) > maxVisitorUserAgents {
			uas = uas[:maxVisitorUserAgents]
		}

		visitors = append(visitors, Visitor{
			IP:             snap.IP,
			ASN:            rec.Name,
			ASNNum:         rec.ASN,
			IsHosting:      rec.Hosting,
			Classification: res.Label,
			Confidence:     detection.Round(res.Score, 3),
			Signals:        res.Signals,
			RequestCount:   snap.RequestCount(),
			PageCount:      snap.PageCount,
			AssetCount:     snap.AssetCount,
			APICount:       snap.APICount,
			UserAgents:     append([]string(nil), uas...),
			LastSeen:       snap.LastSeen,
			FirstSeen:      snap.Created,
			JSProved:       pr.Proved,
			JSPageViews:    pr.PageViews,
			Webdriver:      pr.Webdriver,
			PathsSample:    snap.RecentPaths(maxVisitorPaths),
			UniquePaths:    snap.UniquePaths(),
			IsBlocked:      s.blocks.IsBlocked(snap.IP),
		})
	}

	sort.SliceStable(visitors, func(i, j int) bool {
		if visitors[i].LastSeen.Equal(visitors[j].LastSeen) {
			return visitors[i].IP < visitors[j].IP
		}
		return visitors[i].LastSeen.After(visitors[j].LastSeen)
	})
	return visitors
}

// Summary returns the header statistics for the dashboard.
func (s *Service) Summary() Summary {
	return s.summarize(s.ActiveVisitors())
}

// Report returns the summary and visitor list computed from one pass.
func (s *Service) Report() Report {
	visitors := s.ActiveVisitors()
	return Report{
		Timestamp: s.now(),
		Summary:   s.summarize(visitors),
		Visitors:  visitors,
	}
}

func (s *Service) summarize(visitors []Visitor) Summary {
	sum := Summary{
		TotalActive:    len(visitors),
		Blocked:        s.blocks.Len(),
		RequestsPerMin: s.behaviors.RequestsSince(time.Minute),
		ASNCacheSize:   s.origins.Len(),
		TopScrapers:    []TopScraper{},
	}

	for i := range visitors {
		v := &visitors[i]
		switch v.Classification {
		case detection.LabelBot:
			sum.Bots++
			sum.TopScrapers = append(sum.TopScrapers, TopScraper{
				IP:       v.IP,
				ASN:      v.ASN,
				Requests: v.RequestCount,
				Score:    v.Confidence,
			})
		case detection.LabelSuspicious:
			sum.Suspicious++
		default:
			sum.Humans++
		}
	}

	sort.SliceStable(sum.TopScrapers, func(i, j int) bool {
		return sum.TopScrapers[i].Requests > sum.TopScrapers[j].Requests
	})
	if len(sum.TopScrapers) > maxTopScrapers {
		sum.TopScrapers = sum.TopScrapers[:maxTopScrapers]
	}
	return sum
}

// Sweep runs one cleanup pass immediately.
func (s *Service) Sweep() SweepReport {
	return s.cleanup.RunOnce()
}

// Cleanup returns the cleanup loop for supervision.
func (s *Service) Cleanup() *CleanupLoop {
	return s.cleanup
}

// Close stops background origin lookups and waits for them to exit.
func (s *Service) Close() {
	s.origins.Close()
}
