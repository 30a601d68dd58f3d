// Package config loads RoadPulse's process configuration from the
// environment, following the typed-getter convention used throughout the
// service (getenv/getint/getfloat/getduration).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPAddr             string
	LogLevel             string
	LogConsole           bool
	DatabaseURL          string
	RedisAddr            string
	ORSAPIKey            string
	ORSBaseURL           string
	GeocoderBaseURL      string
	NWSUserAgent         string
	SchedulerInterval    time.Duration
	CorridorDefaultMiles float64
	AdminToken           string
	AdminTokenFile       string
	RoadEventRetention   time.Duration
	FeedTTLOverrides     map[string]time.Duration

	FetchTimeout    time.Duration
	ZoneFetchTimeout time.Duration
	RouteTimeout    time.Duration
	ZoneConcurrency int

	DBPoolMaxConns int32
}

func FromEnv() Config {
	return Config{
		HTTPAddr:             getenv("HTTP_ADDR", ":8080"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		LogConsole:           getbool("LOG_CONSOLE", false),
		DatabaseURL:          getenv("DATABASE_URL", "postgres://localhost:5432/roadpulse"),
		RedisAddr:            getenv("REDIS_ADDR", "localhost:6379"),
		ORSAPIKey:            getenv("ORS_API_KEY", ""),
		ORSBaseURL:           getenv("ORS_BASE_URL", "https://api.openrouteservice.org"),
		GeocoderBaseURL:      getenv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		NWSUserAgent:         getenv("NWS_USER_AGENT", "roadpulse/1.0 (ops@roadpulse.example)"),
		SchedulerInterval:    getduration("SCHEDULER_INTERVAL", 5*time.Minute),
		CorridorDefaultMiles: getfloat("CORRIDOR_DEFAULT_MILES", 10.0),
		AdminToken:           getenv("ADMIN_TOKEN", ""),
		AdminTokenFile:       getenv("ADMIN_TOKEN_FILE", ""),
		RoadEventRetention:   getduration("ROAD_EVENT_RETENTION", 30*24*time.Hour),
		FeedTTLOverrides:     parseDurationMap(getenv("FEED_TTL_OVERRIDES", "")),

		FetchTimeout:     getduration("FEED_FETCH_TIMEOUT", 30*time.Second),
		ZoneFetchTimeout: getduration("ZONE_FETCH_TIMEOUT", 15*time.Second),
		RouteTimeout:     getduration("ROUTE_FETCH_TIMEOUT", 30*time.Second),
		ZoneConcurrency:  getint("ZONE_CONCURRENCY", 8),

		DBPoolMaxConns: int32(getint("DB_POOL_MAX_CONNS", 10)),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// parseDurationMap parses "feed_name=5m,other_feed=30s" into per-feed TTL
// overrides, e.g. for shortening a slow state DOT feed's cache window.
func parseDurationMap(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	s = strings.TrimSpace(s)
	if s == "" {
		return out
	}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		k := strings.TrimSpace(kv[0])
		v := strings.TrimSpace(kv[1])
		if k == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err == nil {
			out[k] = d
		}
	}
	return out
}
