// Package ratelimit implements the sliding-window quota gate of §4.8: one
// INCR against the cache, with the TTL set only on the count's first
// increment so the window rolls forward from first use rather than from a
// fixed clock boundary.
package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/core/observability"
)

// Gate names the counters from §4.8. cache.RateLimitKey writes every gate,
// the reports gate included, under the single "rl:" prefix; there is no
// separate "rate:" namespace, and the gate name is just a label within the
// one key namespace.
const (
	GateLogin    = "login"
	GateRegister = "register"
	GateGeocode  = "geocode"
	GateReports  = "reports"
)

type window struct {
	limit   int64
	seconds time.Duration
}

var windows = map[string]window{
	GateLogin:    {limit: 10, seconds: 15 * time.Minute},
	GateRegister: {limit: 5, seconds: time.Hour},
	GateGeocode:  {limit: 60, seconds: time.Minute},
	GateReports:  {limit: 10, seconds: time.Hour},
}

// Limiter evaluates quota gates against a shared cache backend.
type Limiter struct {
	cache cache.Interface
	log   zerolog.Logger
}

func New(c cache.Interface, log zerolog.Logger) *Limiter {
	return &Limiter{cache: c, log: log}
}

// Result is the outcome of one Allow check.
type Result struct {
	Allowed      bool
	Limit        int64
	Remaining    int64
	RetryAfter   time.Duration
	WindowExpiry time.Time
}

// Allow increments the counter for (gate, id) and reports whether the
// caller is still within quota. Any cache failure fails open: the caller
// is allowed through and the failure is logged, never propagated, per §7
// ("cache writes... never propagate").
func (l *Limiter) Allow(ctx context.Context, gate, id string) Result {
	w, ok := windows[gate]
	if !ok {
		return Result{Allowed: true}
	}

	key := cache.RateLimitKey(gate, id)
	count, err := l.cache.Incr(ctx, key)
	if err != nil {
		l.log.Warn().Err(err).Str("gate", gate).Msg("rate limit check failed open")
		return Result{Allowed: true, Limit: w.limit}
	}
	if count == 1 {
		if err := l.cache.Expire(ctx, key, w.seconds); err != nil {
			l.log.Warn().Err(err).Str("gate", gate).Msg("rate limit expire set failed")
		}
	}

	allowed := count <= w.limit
	if !allowed {
		observability.IncRateLimited(gate)
	}
	remaining := w.limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:      allowed,
		Limit:        w.limit,
		Remaining:    remaining,
		RetryAfter:   w.seconds,
		WindowExpiry: time.Now().Add(w.seconds),
	}
}
