// BotSentry - Visitor Classification and Scraper Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/botsentry

package origin

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/botsentry/internal/cache"
	"github.com/tomtom215/botsentry/internal/logging"
	"github.com/tomtom215/botsentry/internal/metrics"
)

// Placeholder names carried by records that do not describe a real ASN.
const (
	NamePending      = "pending"
	NameInvalidIP    = "invalid_ip"
	NameUnknown      = "unknown"
	NameLookupFailed = "lookup_failed"
)

// Lookup outcomes reported to metrics.
const (
	resultResolved    = "resolved"
	resultUnknown     = "unknown"
	resultFailed      = "failed"
	resultThrottled   = "throttled"
	resultBreakerOpen = "breaker_open"
	resultInvalid     = "invalid"
)

// ErrInvalidIP is returned by Lookup for anything that is not an IPv4 address.
var ErrInvalidIP = errors.New("origin: not an IPv4 address")

// ErrBadPayload is returned when a TXT answer carries no usable ASN.
var ErrBadPayload = errors.New("origin: unparseable asn payload")

// Record is the origin reputation of one IP.
type Record struct {
	ASN      int       `json:"asn"`
	Name     string    `json:"name"`
	Hosting  bool      `json:"hosting"`
	CachedAt time.Time `json:"cached_at,omitempty"`
}

// Config controls lookups, caching and outbound protection.
type Config struct {
	// Server is the DNS resolver ("host:port"). Empty uses resolv.conf.
	Server string

	// Suffix is appended to the reversed octets.
	Suffix string

	// Timeout bounds one lookup, including time spent waiting for a token.
	Timeout time.Duration

	CacheTTL  time.Duration
	CacheSize int

	// LookupsPerSecond throttles outbound queries. Zero disables throttling.
	LookupsPerSecond float64
	LookupBurst      int

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Suffix:           "origin.asn.cymru.com",
		Timeout:          3 * time.Second,
		CacheTTL:         24 * time.Hour,
		CacheSize:        10000,
		LookupsPerSecond: 50,
		LookupBurst:      100,
		BreakerFailures:  5,
		BreakerTimeout:   30 * time.Second,
	}
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Suffix == "" {
		c.Suffix = d.Suffix
	}
	if c.Timeout <= 0 {
		c.Timeout = d.Timeout
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = d.CacheTTL
	}
	if c.CacheSize <= 0 {
		c.CacheSize = d.CacheSize
	}
	if c.LookupBurst <= 0 {
		c.LookupBurst = d.LookupBurst
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = d.BreakerFailures
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = d.BreakerTimeout
	}
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithTXTResolver replaces the UDP client.
func WithTXTResolver(txt TXTResolver) Option {
	return func(r *Resolver) {
		r.txt = txt
	}
}

// WithClock sets the time source used for cache freshness.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// txtAnswer is the breaker payload. A reply without a TXT record is a
// successful exchange and must not count toward tripping the breaker.
type txtAnswer struct {
	txt   string
	found bool
}

// Resolver maps IPv4 addresses to ASN records with a background,
// deduplicated lookup per IP.
type Resolver struct {
	cfg     Config
	txt     TXTResolver
	now     func() time.Time
	cache   *cache.ExpiringCache[string, Record]
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[txtAnswer]

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewResolver creates a resolver. Background lookups stop on Close.
func NewResolver(cfg Config, opts ...Option) *Resolver {
	cfg.applyDefaults()

	ctx, cancel := context.WithCancel(context.Background())
	r := &Resolver{
		cfg:     cfg,
		now:     time.Now,
		pending: make(map[string]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.txt == nil {
		server := cfg.Server
		if server == "" {
			server = SystemResolver(DefaultResolvConf)
		}
		r.txt = NewClient(server, cfg.Timeout)
	}

	r.cache = cache.NewExpiringCache[string, Record](cfg.CacheSize, cfg.CacheTTL, r.now)

	limit := rate.Inf
	if cfg.LookupsPerSecond > 0 {
		limit = rate.Limit(cfg.LookupsPerSecond)
	}
	r.limiter = rate.NewLimiter(limit, cfg.LookupBurst)

	threshold := cfg.BreakerFailures
	r.breaker = gobreaker.NewCircuitBreaker[txtAnswer](gobreaker.Settings{
		Name:        "origin-dns",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.SetOriginBreakerOpen(to == gobreaker.StateOpen)
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("origin circuit breaker state changed")
		},
	})

	return r
}

// QueryName builds the reverse-octet lookup name for an IPv4 address.
func QueryName(addr netip.Addr, suffix string) string {
	octets := addr.As4()
	var b strings.Builder
	for i := 3; i >= 0; i-- {
		b.WriteString(strconv.Itoa(int(octets[i])))
		b.WriteByte('.')
	}
	b.WriteString(strings.Trim(suffix, "."))
	return b.String()
}

// Get returns the cached record for ip. On a miss it schedules a
// background lookup and returns a pending placeholder. Get never performs
// network I/O.
func (r *Resolver) Get(ip string) Record {
	if rec, ok := r.cache.Get(ip); ok {
		return rec
	}
	if _, ok := parseIPv4(ip); !ok {
		return Record{Name: NameInvalidIP}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Record{Name: NamePending}
	}
	if _, inflight := r.pending[ip]; inflight {
		return Record{Name: NamePending}
	}
	r.pending[ip] = struct{}{}
	r.wg.Add(1)
	go r.resolve(ip)

	return Record{Name: NamePending}
}

func (r *Resolver) resolve(ip string) {
	defer r.wg.Done()
	defer func() {
		r.mu.Lock()
		delete(r.pending, ip)
		r.mu.Unlock()
	}()

	if _, err := r.Lookup(r.ctx, ip); err != nil {
		logging.Debug().Str("ip", ip).Err(err).Msg("asn lookup failed")
	}
}

// Lookup resolves ip synchronously. Successful outcomes, including
// "unknown" for an empty answer, are cached. Failures, including an
// answer that does not parse, return a lookup_failed record with a
// non-nil error and are not cached.
func (r *Resolver) Lookup(ctx context.Context, ip string) (Record, error) {
	addr, ok := parseIPv4(ip)
	if !ok {
		metrics.RecordOriginLookup(resultInvalid, 0)
		return Record{Name: NameInvalidIP}, ErrInvalidIP
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	if err := r.limiter.Wait(ctx); err != nil {
		metrics.RecordOriginLookup(resultThrottled, 0)
		return Record{Name: NameLookupFailed}, fmt.Errorf("throttle %s: %w", ip, err)
	}

	name := QueryName(addr, r.cfg.Suffix)
	start := time.Now()
	answer, err := r.breaker.Execute(func() (txtAnswer, error) {
		txt, err := r.txt.LookupTXT(ctx, name)
		if errors.Is(err, ErrNoAnswer) {
			return txtAnswer{}, nil
		}
		if err != nil {
			return txtAnswer{}, err
		}
		return txtAnswer{txt: txt, found: true}, nil
	})
	elapsed := time.Since(start)

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordOriginLookup(resultBreakerOpen, 0)
		} else {
			metrics.RecordOriginLookup(resultFailed, elapsed)
		}
		return Record{Name: NameLookupFailed}, fmt.Errorf("lookup %s: %w", name, err)
	}

	rec, err := toRecord(answer)
	if err != nil {
		metrics.RecordOriginLookup(resultFailed, elapsed)
		return Record{Name: NameLookupFailed}, fmt.Errorf("lookup %s: %w", name, err)
	}
	if rec.ASN == 0 {
		metrics.RecordOriginLookup(resultUnknown, elapsed)
	} else {
		metrics.RecordOriginLookup(resultResolved, elapsed)
	}

	rec.CachedAt = r.now()
	r.cache.Set(ip, rec)
	metrics.SetOriginCacheSize(r.cache.Len())

	return rec, nil
}

// toRecord maps a TXT answer to a record. A missing answer is "unknown";
// a payload without a positive ASN is an error.
func toRecord(answer txtAnswer) (Record, error) {
	if !answer.found {
		return Record{Name: NameUnknown}, nil
	}
	asn, err := ParseASN(answer.txt)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	if asn <= 0 {
		return Record{}, fmt.Errorf("%w: asn %d", ErrBadPayload, asn)
	}
	return Record{ASN: asn, Name: ASNName(asn), Hosting: IsHosting(asn)}, nil
}

// Sweep removes stale cache entries and returns how many were dropped.
func (r *Resolver) Sweep() int {
	n := r.cache.Sweep()
	metrics.SetOriginCacheSize(r.cache.Len())
	return n
}

// Len is the number of cached records, fresh or stale.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// CacheStats reports the record cache counters.
func (r *Resolver) CacheStats() cache.Stats {
	return r.cache.Stats()
}

// Pending is the number of in-flight lookups.
func (r *Resolver) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// BreakerState reports the DNS circuit breaker state.
func (r *Resolver) BreakerState() string {
	return r.breaker.State().String()
}

// Wait blocks until every in-flight lookup has finished.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels in-flight lookups, refuses new ones and waits for the
// goroutines to exit.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()
}

func parseIPv4(ip string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}
