package zone

import (
	"encoding/json"
	"fmt"
	"sort"
)

// mergeToMultiPolygon flattens a set of Polygon/MultiPolygon GeoJSON
// geometries into a single MultiPolygon, orienting and deduplicating rings
// the way the ring-normalization step of a geometry aggregator would: the
// outer ring goes counter-clockwise, holes go clockwise, and exact-duplicate
// rings across inputs collapse to one. Returns "" if geoms is empty or none
// parse as polygonal.
func mergeToMultiPolygon(geoms []string) (string, error) {
	var allPolys [][][][]float64
	seen := map[string]bool{}

	for _, g := range geoms {
		if g == "" {
			continue
		}
		var v struct {
			Type        string          `json:"type"`
			Coordinates json.RawMessage `json:"coordinates"`
		}
		if err := json.Unmarshal([]byte(g), &v); err != nil {
			return "", fmt.Errorf("parse zone geometry: %w", err)
		}
		switch v.Type {
		case "Polygon":
			var rings [][][]float64
			if err := json.Unmarshal(v.Coordinates, &rings); err != nil {
				return "", fmt.Errorf("parse polygon: %w", err)
			}
			rings = orientPolygonRings(rings)
			key := ringsKey(rings)
			if seen[key] {
				continue
			}
			seen[key] = true
			allPolys = append(allPolys, rings)
		case "MultiPolygon":
			var polys [][][][]float64
			if err := json.Unmarshal(v.Coordinates, &polys); err != nil {
				return "", fmt.Errorf("parse multipolygon: %w", err)
			}
			for _, rings := range polys {
				rings = orientPolygonRings(rings)
				key := ringsKey(rings)
				if seen[key] {
					continue
				}
				seen[key] = true
				allPolys = append(allPolys, rings)
			}
		default:
			continue
		}
	}

	if len(allPolys) == 0 {
		return "", nil
	}

	sort.Slice(allPolys, func(i, j int) bool {
		return ringsKey(allPolys[i]) < ringsKey(allPolys[j])
	})

	out := struct {
		Type        string        `json:"type"`
		Coordinates [][][][]float64 `json:"coordinates"`
	}{Type: "MultiPolygon", Coordinates: allPolys}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("marshal merged multipolygon: %w", err)
	}
	return string(b), nil
}

func ringsKey(rings [][][]float64) string {
	b, _ := json.Marshal(rings)
	return string(b)
}

func orientPolygonRings(rings [][][]float64) [][][]float64 {
	if len(rings) == 0 {
		return rings
	}
	out := make([][][]float64, len(rings))
	for i, r := range rings {
		ccw := isCCW(r)
		switch {
		case i == 0 && ccw, i != 0 && !ccw:
			out[i] = r
		default:
			out[i] = reverseRing(r)
		}
	}
	return out
}

func isCCW(r [][]float64) bool {
	var area float64
	for i := 0; i+1 < len(r); i++ {
		x1, y1 := r[i][0], r[i][1]
		x2, y2 := r[i+1][0], r[i+1][1]
		area += (x2 - x1) * (y2 + y1)
	}
	return area < 0
}

func reverseRing(r [][]float64) [][]float64 {
	n := len(r)
	out := make([][]float64, n)
	for i, pt := range r {
		out[n-1-i] = pt
	}
	return out
}
