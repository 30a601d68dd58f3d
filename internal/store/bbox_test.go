package store

import (
	"strings"
	"testing"
)

func TestEnvelopeWKTFormatsBounds(t *testing.T) {
	f := BBoxFilter{MinLng: -105.5, MinLat: 39.5, MaxLng: -104.5, MaxLat: 40.5, HasBBox: true}
	got := envelopeWKT(f)
	if !strings.Contains(got, "ST_MakeEnvelope(") || !strings.Contains(got, "4326") {
		t.Errorf("unexpected envelope SQL: %q", got)
	}
}

func TestJoinAndSingleClause(t *testing.T) {
	if got := joinAnd([]string{"1=1"}); got != "1=1" {
		t.Errorf("got %q, want 1=1", got)
	}
}

func TestJoinAndMultipleClauses(t *testing.T) {
	got := joinAnd([]string{"1=1", "is_active", "state = $1"})
	want := "1=1 AND is_active AND state = $1"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
