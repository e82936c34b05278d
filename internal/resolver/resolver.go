// Package resolver determines the caller's timezone from a prioritized chain
// of geolocation providers and remembers the first answer for its lifetime.
package resolver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/valpere/calrefine/internal/geoloc"
)

// Config holds the per-provider retry policy.
type Config struct {
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// DefaultConfig returns 3 attempts per provider, a 5s request deadline and a
// 1s backoff unit.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		Timeout:    5 * time.Second,
		RetryDelay: time.Second,
	}
}

// ZoneSet reports whether a zone name is known.
type ZoneSet interface {
	Contains(name string) bool
}

// Detection is a resolved zone and how it was obtained.
type Detection struct {
	Zone     string `json:"zone"`
	Provider string `json:"provider,omitempty"`
	Fallback bool   `json:"fallback"`
	Requests int    `json:"requests"`
}

// Resolver runs the provider chain at most once. Concurrent callers share a
// single in-flight resolution and every later call returns the cached result.
type Resolver struct {
	providers []geoloc.Provider
	zones     ZoneSet
	config    Config
	log       logrus.FieldLogger
	sleep     func(ctx context.Context, d time.Duration) error
	local     func() string

	group  singleflight.Group
	mu     sync.RWMutex
	cached *Detection
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for retry and fallback warnings.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithSleep replaces the backoff wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(r *Resolver) { r.sleep = sleep }
}

// WithLocalZone replaces the system timezone lookup used as last resort.
func WithLocalZone(local func() string) Option {
	return func(r *Resolver) { r.local = local }
}

// New creates a Resolver. Zero config fields take DefaultConfig values.
func New(providers []geoloc.Provider, zones ZoneSet, config Config, opts ...Option) *Resolver {
	def := DefaultConfig()
	if config.MaxRetries <= 0 {
		config.MaxRetries = def.MaxRetries
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = def.RetryDelay
	}

	r := &Resolver{
		providers: providers,
		zones:     zones,
		config:    config,
		log:       logrus.StandardLogger(),
		sleep:     sleepContext,
		local:     SystemTimezone,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Timezone returns the resolved zone name.
func (r *Resolver) Timezone(ctx context.Context) string {
	return r.Resolve(ctx).Zone
}

// Cached returns the stored detection, if any.
func (r *Resolver) Cached() (Detection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil {
		return Detection{}, false
	}
	return *r.cached, true
}

// Resolve returns the cached detection or runs the provider chain. It always
// yields a zone: when every provider fails the system zone is used. A
// resolution cut short by ctx is returned but not cached.
func (r *Resolver) Resolve(ctx context.Context) Detection {
	if d, ok := r.Cached(); ok {
		return d
	}

	v, _, _ := r.group.Do("timezone", func() (interface{}, error) {
		if d, ok := r.Cached(); ok {
			return d, nil
		}

		d := r.detect(ctx)
		if ctx.Err() == nil {
			r.mu.Lock()
			r.cached = &d
			r.mu.Unlock()
		}
		return d, nil
	})
	return v.(Detection)
}

func (r *Resolver) detect(ctx context.Context) Detection {
	requests := 0

	for i, p := range r.providers {
		for attempt := 0; attempt < r.config.MaxRetries; attempt++ {
			requests++
			zone, wait := r.try(ctx, p, attempt)
			if zone != "" {
				r.log.WithFields(logrus.Fields{
					"provider": p.Name(),
					"timezone": zone,
				}).Debug("timezone detected")
				return Detection{Zone: zone, Provider: p.Name(), Requests: requests}
			}

			if attempt < r.config.MaxRetries-1 {
				if err := r.sleep(ctx, wait); err != nil {
					return r.fallback(requests)
				}
			}
		}

		if i < len(r.providers)-1 {
			if err := r.sleep(ctx, r.config.RetryDelay); err != nil {
				return r.fallback(requests)
			}
		}
	}

	return r.fallback(requests)
}

// try makes one request and returns a valid zone, or the wait before the
// next attempt.
func (r *Resolver) try(ctx context.Context, p geoloc.Provider, attempt int) (string, time.Duration) {
	log := r.log.WithFields(logrus.Fields{
		"provider": p.Name(),
		"endpoint": p.Endpoint(),
		"attempt":  attempt + 1,
	})

	reqCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	res, err := p.Lookup(reqCtx)
	if err != nil {
		log.WithError(err).Warn("timezone provider request failed")
		return "", r.config.RetryDelay
	}

	switch {
	case res.StatusCode == http.StatusTooManyRequests:
		wait := r.config.RetryDelay * time.Duration(attempt+1)
		log.WithField("wait", wait).Warn("timezone provider rate limited")
		return "", wait
	case res.StatusCode == http.StatusOK && res.Timezone != "" && r.zones.Contains(res.Timezone):
		return res.Timezone, 0
	case res.StatusCode == http.StatusOK:
		log.WithField("timezone", res.Timezone).Warn("timezone provider returned an unknown zone")
	default:
		log.WithField("status", res.StatusCode).Warn("timezone provider returned unexpected status")
	}
	return "", r.config.RetryDelay
}

func (r *Resolver) fallback(requests int) Detection {
	zone := r.local()
	r.log.WithField("timezone", zone).Warn("all timezone providers failed, using system timezone")
	return Detection{Zone: zone, Fallback: true, Requests: requests}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
