package cache

import (
	"fmt"
	"strings"
	"unicode"
)

// FeedRawKey is the cache key an ingestion engine reads/writes the raw
// feed payload under.
func FeedRawKey(feedName string) string {
	return "feed:" + sanitizeSegment(feedName) + ":raw"
}

// ZoneKey is the per-zone NWS polygon cache key, 24h TTL.
func ZoneKey(zoneID string) string {
	return "nws:zone:" + sanitizeSegment(zoneID)
}

// RouteCheckKey is the route-check response cache key, 300s TTL.
func RouteCheckKey(hash string) string {
	return "route:check:" + sanitizeSegment(hash)
}

// GeocodeKey caches one free-text geocode lookup.
func GeocodeKey(text string) string {
	return "geocode:" + sanitizeSegment(strings.ToLower(strings.TrimSpace(text)))
}

// RouteFetchKey caches one origin/destination HGV route fetch.
func RouteFetchKey(oLat, oLng, dLat, dLng float64) string {
	return fmt.Sprintf("route:fetch:%.5f:%.5f:%.5f:%.5f", oLat, oLng, dLat, dLng)
}

// RateLimitKey builds one of the sliding-window counter keys from §4.8.
func RateLimitKey(gate, id string) string {
	return "rl:" + sanitizeSegment(gate) + ":" + sanitizeSegment(id)
}

// sanitizeSegment mirrors the teacher's featurestore.sanitizeLayer: collapse
// whitespace to underscores, replace anything outside [A-Za-z0-9:_@.-] with a
// hyphen, and collapse runs of separator characters.
func sanitizeSegment(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		var out rune
		switch {
		case isASCIIWhitespace(r):
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-' || r == '@' || r == '.':
			out = r
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isASCIIWhitespace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f'
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsDigit(r)
}
