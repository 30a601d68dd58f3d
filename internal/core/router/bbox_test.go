package router

import "testing"

func TestParseBBoxValid(t *testing.T) {
	f, err := parseBBox("-105.5,39.5,-104.5,40.5")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if f.MinLng != -105.5 || f.MinLat != 39.5 || f.MaxLng != -104.5 || f.MaxLat != 40.5 || !f.HasBBox {
		t.Fatalf("unexpected filter: %+v", f)
	}
}

func TestParseBBoxWrongArity(t *testing.T) {
	if _, err := parseBBox("1,2,3"); err == nil {
		t.Fatal("expected error for 3-value bbox")
	}
}

func TestParseBBoxNonNumeric(t *testing.T) {
	if _, err := parseBBox("a,b,c,d"); err == nil {
		t.Fatal("expected error for non-numeric bbox")
	}
}

func TestParseBBoxOutOfRange(t *testing.T) {
	cases := []string{
		"-200,0,10,10", // lng out of range
		"0,-100,10,10", // lat out of range
		"10,0,-10,10",  // west >= east
		"0,10,10,0",    // south >= north
	}
	for _, raw := range cases {
		if _, err := parseBBox(raw); err == nil {
			t.Errorf("parseBBox(%q): expected error", raw)
		}
	}
}

func TestParseBBoxSpanTooLarge(t *testing.T) {
	if _, err := parseBBox("-180,-90,180,90"); err == nil {
		t.Fatal("expected error for span exceeding 30 degrees per axis")
	}
}

func TestZoomDefaults(t *testing.T) {
	cases := []struct {
		zoom              int
		wantLimit, wantSF int
	}{
		{0, 500, 0},
		{3, 50, 4},
		{7, 150, 3},
		{12, 500, 0},
	}
	for _, c := range cases {
		limit, sf := zoomDefaults(c.zoom)
		if limit != c.wantLimit || sf != c.wantSF {
			t.Errorf("zoomDefaults(%d) = (%d, %d), want (%d, %d)", c.zoom, limit, sf, c.wantLimit, c.wantSF)
		}
	}
}

func TestParseIntParam(t *testing.T) {
	if got := parseIntParam("", 7); got != 7 {
		t.Errorf("empty: got %d, want 7", got)
	}
	if got := parseIntParam("42", 7); got != 42 {
		t.Errorf("valid: got %d, want 42", got)
	}
	if got := parseIntParam("nope", 7); got != 7 {
		t.Errorf("invalid: got %d, want 7", got)
	}
}

func TestParseBoolParam(t *testing.T) {
	if got := parseBoolParam("", true); got != true {
		t.Errorf("empty: got %v, want true", got)
	}
	if got := parseBoolParam("false", true); got != false {
		t.Errorf("valid: got %v, want false", got)
	}
	if got := parseBoolParam("nope", true); got != true {
		t.Errorf("invalid: got %v, want true", got)
	}
}
