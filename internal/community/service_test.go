package community

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/cache/redisstore"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/ratelimit"
	"github.com/ciprian87/roadpulse/internal/roaderr"
)

func TestInUSBounds(t *testing.T) {
	cases := []struct {
		lat, lng float64
		want     bool
	}{
		{40.0, -74.0, true},
		{18.0, -60.0, false}, // lng outside [-180,-65]
		{16.9, -100.0, false},
		{72.1, -150.0, false},
		{64.0, -150.0, true},
	}
	for _, c := range cases {
		if got := inUSBounds(c.lat, c.lng); got != c.want {
			t.Errorf("inUSBounds(%v, %v) = %v, want %v", c.lat, c.lng, got, c.want)
		}
	}
}

// newMiniLimiter backs a Limiter with a real Redis protocol server so the
// reports quota gate is exercised the same way it is in production,
// rather than against a hand-rolled counter.
func newMiniLimiter(t *testing.T) *ratelimit.Limiter {
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

	return ratelimit.New(cache.New(rc), zerolog.Nop())
}

// CreateReport checks the quota gate before it ever touches the store.
// Exhausting the gate directly (rather than by calling CreateReport
// GateReports.limit times, which would also exercise the nil store on
// every call that stays within quota) isolates the rejection path
// against a real miniredis-backed limiter without needing a Postgres
// connection.
func TestCreateReportRejectsOverQuotaBeforeTouchingStore(t *testing.T) {
	limiter := newMiniLimiter(t)
	svc := &Service{limiter: limiter, log: zerolog.Nop()}
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if res := limiter.Allow(ctx, ratelimit.GateReports, "driver-1"); !res.Allowed {
			t.Fatalf("attempt %d: expected quota warm-up call to be allowed", i)
		}
	}

	_, err := svc.CreateReport(ctx, "driver-1", CreateInput{
		Type:     model.ReportRoadHazard,
		Title:    "Debris in right lane",
		Lat:      39.7,
		Lng:      -104.9,
		Severity: "WARNING",
	})
	if err == nil {
		t.Fatal("expected the report to be rejected once the quota is exhausted")
	}
	if roaderr.As(err).Code != roaderr.CodeRateLimited {
		t.Fatalf("got %v, want CodeRateLimited", roaderr.As(err).Code)
	}
}

func TestCreateReportRejectsCoordinatesOutsideUSBounds(t *testing.T) {
	svc := &Service{limiter: newMiniLimiter(t), log: zerolog.Nop()}
	_, err := svc.CreateReport(context.Background(), "driver-1", CreateInput{
		Type:     model.ReportRoadHazard,
		Title:    "Not in range",
		Lat:      10.0,
		Lng:      10.0,
		Severity: "INFO",
	})
	if err == nil || roaderr.As(err).Code != roaderr.CodeInvalidCoords {
		t.Fatalf("got %v, want CodeInvalidCoords", err)
	}
}
