// Command roadpulse-server runs the RoadPulse HTTP surface plus its
// background scheduler in one process: ingest feeds on a timer, serve
// hazard/route-check queries over HTTP. Structure follows the teacher's
// cmd/middleware entrypoint (config -> logger -> observability -> wired
// services -> server.Run under a signal-cancelled context).
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ciprian87/roadpulse/internal/cache"
	"github.com/ciprian87/roadpulse/internal/cache/redisstore"
	"github.com/ciprian87/roadpulse/internal/community"
	"github.com/ciprian87/roadpulse/internal/core/config"
	"github.com/ciprian87/roadpulse/internal/core/httpclient"
	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/core/router"
	"github.com/ciprian87/roadpulse/internal/core/server"
	"github.com/ciprian87/roadpulse/internal/feed"
	"github.com/ciprian87/roadpulse/internal/feed/nws"
	"github.com/ciprian87/roadpulse/internal/feed/tpims"
	"github.com/ciprian87/roadpulse/internal/feed/wzdx"
	"github.com/ciprian87/roadpulse/internal/hazardquery"
	"github.com/ciprian87/roadpulse/internal/ingest"
	"github.com/ciprian87/roadpulse/internal/logger"
	"github.com/ciprian87/roadpulse/internal/ratelimit"
	"github.com/ciprian87/roadpulse/internal/route"
	"github.com/ciprian87/roadpulse/internal/routecheck"
	"github.com/ciprian87/roadpulse/internal/scheduler"
	"github.com/ciprian87/roadpulse/internal/store"
	"github.com/ciprian87/roadpulse/internal/usage"
	"github.com/ciprian87/roadpulse/internal/zone"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   envInt("LOG_SAMPLE_N", 0),
		Service:   "roadpulse",
		Component: "main",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	metricsEnabled := os.Getenv("METRICS_ENABLED") != "false"
	observability.Init(prometheus.DefaultRegisterer, metricsEnabled)

	appLog.Info("starting roadpulse-server", "addr", cfg.HTTPAddr, "version", Version)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		appLog.Error("migration failed", "err", err)
		return 1
	}

	st, err := store.New(ctx, cfg.DatabaseURL, cfg.DBPoolMaxConns)
	if err != nil {
		appLog.Error("store init failed", "err", err)
		return 1
	}
	defer st.Close()

	redisClient, err := redisstore.New(ctx, cfg.RedisAddr)
	if err != nil {
		appLog.Error("redis init failed", "err", err)
		return 1
	}
	defer func() { _ = redisClient.Close() }()
	c := cache.New(redisClient)

	outbound := httpclient.NewOutbound()

	zones := zone.NewResolver(outbound, c, int64(cfg.ZoneConcurrency), cfg.ZoneFetchTimeout, zl)
	engine := ingest.New(st, c, zones, zl)

	adapters := buildAdapters(cfg, outbound)

	sched := scheduler.New(engine, st, adapters, int(cfg.SchedulerInterval.Minutes()), zl)
	sched.Start(ctx)
	defer sched.Stop()

	resolver := route.NewResolver(outbound, c, cfg.GeocoderBaseURL, cfg.ORSBaseURL, cfg.ORSAPIKey, cfg.FetchTimeout, cfg.RouteTimeout, zl)
	query := hazardquery.New(st)
	routeCheckSvc := routecheck.New(resolver, st, query, c, zl)

	limiter := ratelimit.New(c, zl)
	usageWriter := usage.NewWriter(st, 1024, zl)
	defer usageWriter.Close()
	communitySvc := community.New(st, limiter, usageWriter, zl)

	tokenSource := config.NewAdminTokenSource(cfg.AdminToken)
	if err := tokenSource.Watch(cfg.AdminTokenFile, zl); err != nil {
		appLog.Error("admin token watch failed", "err", err)
		return 1
	}
	defer func() { _ = tokenSource.Close() }()

	deps := router.Deps{
		Store:      st,
		RouteCheck: routeCheckSvc,
		Community:  communitySvc,
		Limiter:    limiter,
		Scheduler:  sched,
		AdminToken: tokenSource.Current,
	}

	if err := server.Run(ctx, cfg.HTTPAddr, appLog, deps); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}

// buildAdapters registers one wzdx.Adapter per state DOT WZDx endpoint
// RoadPulse tracks, plus the single nationwide nws.Adapter and a
// representative tpims.Adapter per §1's "~35 state DOT endpoints" and
// SPEC_FULL.md's supplemented parking-ingestion feature. Per-feed TTL
// overrides from cfg.FeedTTLOverrides replace the 300s default (NWS keeps
// its own 120s default per the §9 Open Question decision).
func buildAdapters(cfg config.Config, httpClient *http.Client) []feed.Adapter {
	const defaultTTL = 300 * time.Second
	const nwsTTL = 120 * time.Second

	ttlFor := func(name string, def time.Duration) time.Duration {
		if override, ok := cfg.FeedTTLOverrides[name]; ok {
			return override
		}
		return def
	}

	wzdxFeeds := []struct {
		name, url, state string
	}{
		{"wzdx:CO", "https://data.cotrip.org/api/v1/wzdx", "CO"},
		{"wzdx:AZ", "https://az511.com/api/wzdx/v4", "AZ"},
		{"wzdx:UT", "https://www.udottraffic.utah.gov/api/v2/get/wzdx", "UT"},
		{"wzdx:OH", "https://publicapi.dev.ohgo.com/api/v1/wzdx", "OH"},
		{"wzdx:TX", "https://its.txdot.gov/ITS_WEB/FrontEnd/wzdx/feed.json", "TX"},
		{"wzdx:VA", "https://api.vdot.virginia.gov/wzdx/v4/events", "VA"},
		{"wzdx:GA", "https://atms.dot.ga.gov/api/wzdx", "GA"},
		{"wzdx:WA", "https://wsdot.wa.gov/traffic/api/wzdx/v4", "WA"},
		{"wzdx:PA", "https://www.penndot.pa.gov/api/wzdx", "PA"},
		{"wzdx:MN", "https://511mn.org/api/wzdx", "MN"},
	}

	adapters := make([]feed.Adapter, 0, len(wzdxFeeds)+2)
	for _, f := range wzdxFeeds {
		adapters = append(adapters, wzdx.NewAdapter(f.name, f.url, f.state, ttlFor(f.name, defaultTTL), httpClient))
	}

	adapters = append(adapters, nws.NewAdapter(cfg.NWSUserAgent, ttlFor("nws", nwsTTL), httpClient))
	adapters = append(adapters, tpims.NewAdapter("tpims:national", "https://www.tpims.org/api/v1/facilities", "", ttlFor("tpims:national", defaultTTL), httpClient))

	return adapters
}

func envInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
