// Package geo converts between GeoJSON and WKT, generalized from the
// Polygon/MultiPolygon-only conversion the teacher needed to the full set
// of geometry types RoadPulse's hazard variants carry: Point, LineString,
// MultiLineString, MultiPoint, Polygon, MultiPolygon.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// GeoJSONToWKT parses a GeoJSON geometry object and renders it as WKT
// suitable for ST_GeomFromText($n, 4326).
func GeoJSONToWKT(geojson string) (string, error) {
	var v struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal([]byte(geojson), &v); err != nil {
		return "", fmt.Errorf("parse geojson: %w", err)
	}
	switch strings.TrimSpace(v.Type) {
	case "Point":
		var xy []float64
		if err := json.Unmarshal(v.Coordinates, &xy); err != nil {
			return "", fmt.Errorf("parse point coords: %w", err)
		}
		return pointToWKT(xy)
	case "LineString":
		var line [][]float64
		if err := json.Unmarshal(v.Coordinates, &line); err != nil {
			return "", fmt.Errorf("parse linestring coords: %w", err)
		}
		return lineStringToWKT(line)
	case "MultiPoint":
		var pts [][]float64
		if err := json.Unmarshal(v.Coordinates, &pts); err != nil {
			return "", fmt.Errorf("parse multipoint coords: %w", err)
		}
		return multiPointToWKT(pts)
	case "MultiLineString":
		var lines [][][]float64
		if err := json.Unmarshal(v.Coordinates, &lines); err != nil {
			return "", fmt.Errorf("parse multilinestring coords: %w", err)
		}
		return multiLineStringToWKT(lines)
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(v.Coordinates, &rings); err != nil {
			return "", fmt.Errorf("parse polygon coords: %w", err)
		}
		return polygonToWKT(rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(v.Coordinates, &polys); err != nil {
			return "", fmt.Errorf("parse multipolygon coords: %w", err)
		}
		return multiPolygonToWKT(polys)
	default:
		return "", fmt.Errorf("unsupported type %q", v.Type)
	}
}

func fmtCoord(xy []float64) (string, error) {
	if len(xy) != 2 {
		return "", errors.New("coordinate must be [x,y]")
	}
	return fmt.Sprintf("%.8f %.8f", xy[0], xy[1]), nil
}

func pointToWKT(xy []float64) (string, error) {
	c, err := fmtCoord(xy)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("POINT(%s)", c), nil
}

func lineStringToWKT(line [][]float64) (string, error) {
	if len(line) < 2 {
		return "", errors.New("linestring has <2 points")
	}
	pts := make([]string, 0, len(line))
	for _, xy := range line {
		c, err := fmtCoord(xy)
		if err != nil {
			return "", err
		}
		pts = append(pts, c)
	}
	return fmt.Sprintf("LINESTRING(%s)", strings.Join(pts, ", ")), nil
}

func multiPointToWKT(points [][]float64) (string, error) {
	if len(points) == 0 {
		return "", errors.New("empty multipoint")
	}
	pts := make([]string, 0, len(points))
	for _, xy := range points {
		c, err := fmtCoord(xy)
		if err != nil {
			return "", err
		}
		pts = append(pts, "("+c+")")
	}
	return fmt.Sprintf("MULTIPOINT(%s)", strings.Join(pts, ", ")), nil
}

func multiLineStringToWKT(lines [][][]float64) (string, error) {
	if len(lines) == 0 {
		return "", errors.New("empty multilinestring")
	}
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		wkt, err := lineStringToWKT(line)
		if err != nil {
			return "", err
		}
		parts = append(parts, strings.TrimPrefix(wkt, "LINESTRING"))
	}
	return fmt.Sprintf("MULTILINESTRING(%s)", strings.Join(parts, ", ")), nil
}

func polygonToWKT(rings [][][]float64) (string, error) {
	if len(rings) == 0 {
		return "", errors.New("empty polygon")
	}
	outRings := make([]string, 0, len(rings))
	for _, ring := range rings {
		if len(ring) < 4 {
			return "", errors.New("polygon ring has <4 points")
		}
		pts := make([]string, 0, len(ring))
		for _, xy := range ring {
			c, err := fmtCoord(xy)
			if err != nil {
				return "", err
			}
			pts = append(pts, c)
		}
		outRings = append(outRings, fmt.Sprintf("(%s)", strings.Join(pts, ", ")))
	}
	return fmt.Sprintf("POLYGON(%s)", strings.Join(outRings, ", ")), nil
}

func multiPolygonToWKT(polys [][][][]float64) (string, error) {
	if len(polys) == 0 {
		return "", errors.New("empty multipolygon")
	}
	parts := make([]string, 0, len(polys))
	for _, poly := range polys {
		wkt, err := polygonToWKT(poly)
		if err != nil {
			return "", err
		}
		body := strings.TrimPrefix(wkt, "POLYGON")
		parts = append(parts, body)
	}
	return fmt.Sprintf("MULTIPOLYGON(%s)", strings.Join(parts, ", ")), nil
}

// PointGeoJSON builds a Point GeoJSON literal for lng/lat, used when
// persisting geocoded coordinates or community report locations.
func PointGeoJSON(lng, lat float64) string {
	return fmt.Sprintf(`{"type":"Point","coordinates":[%.8f,%.8f]}`, lng, lat)
}
