package ratelimit

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/cache/redisstore"
)

func newMiniCache(t *testing.T) (cache.Interface, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rc, err := redisstore.New(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("redisstore.New: %v", err)
	}
	t.Cleanup(func() { _ = rc.Close() })
	return cache.New(rc), mr
}

func TestAllowWithinLimit(t *testing.T) {
	c, _ := newMiniCache(t)
	l := New(c, zerolog.Nop())
	for i := 0; i < 5; i++ {
		res := l.Allow(context.Background(), GateRegister, "1.2.3.4")
		if !res.Allowed {
			t.Fatalf("attempt %d: expected allowed", i)
		}
	}
}

func TestAllowExceedsLimit(t *testing.T) {
	c, _ := newMiniCache(t)
	l := New(c, zerolog.Nop())
	var last Result
	for i := 0; i < 6; i++ {
		last = l.Allow(context.Background(), GateRegister, "1.2.3.4")
	}
	if last.Allowed {
		t.Fatalf("expected 6th attempt to be denied")
	}
}

func TestAllowUnknownGatePasses(t *testing.T) {
	c, _ := newMiniCache(t)
	l := New(c, zerolog.Nop())
	if res := l.Allow(context.Background(), "unknown", "x"); !res.Allowed {
		t.Fatalf("expected unknown gate to pass through")
	}
}

func TestAllowFailsOpenOnCacheError(t *testing.T) {
	c, mr := newMiniCache(t)
	l := New(c, zerolog.Nop())
	mr.Close() // backend now unreachable; Incr must fail
	if res := l.Allow(context.Background(), GateLogin, "a@b.com"); !res.Allowed {
		t.Fatalf("expected fail-open on cache error")
	}
}

func TestAllowSetsExpiryOnlyOnFirstIncrement(t *testing.T) {
	c, mr := newMiniCache(t)
	l := New(c, zerolog.Nop())
	rlKey := cache.RateLimitKey(GateGeocode, "9.9.9.9")

	l.Allow(context.Background(), GateGeocode, "9.9.9.9")
	ttlAfterFirst := mr.TTL(rlKey)
	if ttlAfterFirst <= 0 {
		t.Fatalf("expected TTL set after first increment, got %v", ttlAfterFirst)
	}

	mr.FastForward(windows[GateGeocode].seconds / 2)
	l.Allow(context.Background(), GateGeocode, "9.9.9.9")
	ttlAfterSecond := mr.TTL(rlKey)
	if ttlAfterSecond <= 0 || ttlAfterSecond >= ttlAfterFirst {
		t.Fatalf("expected key to still carry the first TTL, not a reset one; got %v after %v", ttlAfterSecond, ttlAfterFirst)
	}
}
