package router

import (
	"strconv"
	"strings"

	"github.com/ciprian87/roadpulse/internal/roaderr"
	"github.com/ciprian87/roadpulse/internal/store"
)

// maxBBoxSpan is the §6 per-axis span ceiling: a bbox request spanning
// more than 30 degrees on either axis is rejected rather than silently
// clamped, the same "reject, don't coerce" posture the teacher's
// parseBBOX used for its EPSG check.
const maxBBoxSpan = 30.0

// parseBBox parses "W,S,E,N" into a store.BBoxFilter, enforcing the §6
// invariants: exactly 4 numbers, W<E, S<N, valid WGS-84 bounds, span <=30
// per axis.
func parseBBox(raw string) (store.BBoxFilter, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "bbox requires 4 comma-separated values: W,S,E,N").WithDetails("bbox")
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "bbox values must be numeric").WithDetails("bbox")
		}
		vals[i] = f
	}
	w, s, e, n := vals[0], vals[1], vals[2], vals[3]

	if w < -180 || w > 180 || e < -180 || e > 180 {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "longitude must be in [-180,180]").WithDetails("bbox")
	}
	if s < -90 || s > 90 || n < -90 || n > 90 {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "latitude must be in [-90,90]").WithDetails("bbox")
	}
	if w >= e {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "west must be less than east").WithDetails("bbox")
	}
	if s >= n {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "south must be less than north").WithDetails("bbox")
	}
	if e-w > maxBBoxSpan || n-s > maxBBoxSpan {
		return store.BBoxFilter{}, roaderr.New(roaderr.CodeInvalidBBox, "bbox span must not exceed 30 degrees per axis").WithDetails("bbox")
	}

	return store.BBoxFilter{MinLng: w, MinLat: s, MaxLng: e, MaxLat: n, HasBBox: true}, nil
}

// zoomDefaults derives the §6 default limit and severity floor from the
// map zoom level: low zoom shows fewer, more severe hazards; high zoom
// shows everything.
func zoomDefaults(zoom int) (limit int, severityFloor int) {
	switch {
	case zoom > 0 && zoom < 5:
		return 50, 4 // CRITICAL only
	case zoom > 0 && zoom < 8:
		return 150, 3 // WARNING and up
	default:
		return 500, 0
	}
}

func parseIntParam(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func parseBoolParam(raw string, def bool) bool {
	if raw == "" {
		return def
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return b
}
