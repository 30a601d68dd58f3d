// Package router implements the §6 HTTP surface: thin handlers that
// parse and validate query parameters into a typed request, delegate to
// a domain service, and record observability.ObserveHTTP — the same
// parse-validate-delegate-record shape as the teacher's
// router.HandleQuery, generalized from one /query endpoint to the
// RoadPulse surface (events, clusters, weather alerts, reports, parking,
// route check, scheduler admin).
package router

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ciprian87/roadpulse/internal/community"
	"github.com/ciprian87/roadpulse/internal/hazardquery/cluster"
	"github.com/ciprian87/roadpulse/internal/httpctx"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/ratelimit"
	"github.com/ciprian87/roadpulse/internal/roaderr"
	"github.com/ciprian87/roadpulse/internal/routecheck"
	"github.com/ciprian87/roadpulse/internal/scheduler"
	"github.com/ciprian87/roadpulse/internal/store"
)

const maxRequestBody = 1 << 20 // 1 MiB; a larger body fails JSON decoding and is answered with BAD_REQUEST

// Deps wires every domain service the HTTP surface delegates to. Limiter
// may be nil, in which case the route-check rate gate is skipped; Store,
// Community, RouteCheck and Scheduler are used by the handlers without nil
// checks.
type Deps struct {
	Store      *store.Store
	RouteCheck *routecheck.Service
	Community  *community.Service
	Limiter    *ratelimit.Limiter
	Scheduler  *scheduler.Scheduler
	// AdminToken returns the current admin bearer token. A plain string
	// field would freeze the token at startup; a getter lets the caller
	// back it with config.AdminTokenSource so a hot-reloaded token takes
	// effect without a restart.
	AdminToken func() string
	Logger     *slog.Logger
}

// Mount registers every §6 endpoint onto r.
func Mount(r chi.Router, d Deps) {
	r.Get("/events", withRoute(d.Logger, "/events", d.handleEvents))
	r.Get("/events/clusters", withRoute(d.Logger, "/events/clusters", d.handleEventClusters))
	r.Get("/weather-alerts", withRoute(d.Logger, "/weather-alerts", d.handleWeatherAlerts))
	r.Get("/parking", withRoute(d.Logger, "/parking", d.handleParking))
	r.Get("/reports", withRoute(d.Logger, "/reports", d.handleReportsList))
	r.Post("/reports", withRoute(d.Logger, "/reports", d.handleReportsCreate))
	r.Post("/reports/{id}/vote", withRoute(d.Logger, "/reports/{id}/vote", d.handleReportsVote))
	r.Post("/route/check", withRoute(d.Logger, "/route/check", d.handleRouteCheck))

	r.Route("/admin/scheduler", func(sub chi.Router) {
		sub.Use(d.requireAdminToken)
		sub.Post("/", withRoute(d.Logger, "/admin/scheduler", d.handleSchedulerAdmin))
	})
}

func (d *Deps) requireAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := d.AdminToken()
		if want == "" {
			writeError(w, roaderr.New(roaderr.CodeForbidden, "admin surface disabled"))
			return
		}
		token := r.Header.Get("Authorization")
		const prefix = "Bearer "
		if len(token) <= len(prefix) || token[:len(prefix)] != prefix || token[len(prefix):] != want {
			writeError(w, roaderr.New(roaderr.CodeUnauthorized, "invalid or missing admin token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decodeJSON reads and decodes a size-capped JSON request body.
func decodeJSON(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxRequestBody)
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// --- /events ---------------------------------------------------------

type eventsResponse struct {
	Events  []roadEventDTO `json:"events"`
	Total   int            `json:"total"`
	Filters filtersDTO     `json:"filters"`
}

type filtersDTO struct {
	Zoom       int    `json:"zoom,omitempty"`
	ActiveOnly bool   `json:"activeOnly"`
	State      string `json:"state,omitempty"`
	Type       string `json:"type,omitempty"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

func (d *Deps) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := store.BBoxFilter{ActiveOnly: parseBoolParam(q.Get("active_only"), true)}
	if raw := q.Get("bbox"); raw != "" {
		parsed, err := parseBBox(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		f.HasBBox = true
		f.MinLng, f.MinLat, f.MaxLng, f.MaxLat = parsed.MinLng, parsed.MinLat, parsed.MaxLng, parsed.MaxLat
	}

	zoom := parseIntParam(q.Get("zoom"), 0)
	defaultLimit, severityFloor := zoomDefaults(zoom)
	f.Limit = parseIntParam(q.Get("limit"), defaultLimit)
	f.Offset = parseIntParam(q.Get("offset"), 0)
	f.State = q.Get("state")

	if raw := q.Get("severity"); raw != "" {
		f.SeverityFloor = model.SeverityRank(raw)
	} else {
		f.SeverityFloor = severityFloor
	}

	events, total, err := d.Store.RoadEventsInBBox(r.Context(), d.Store.Pool, f, q.Get("type"))
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "list events", err))
		return
	}

	dtos := make([]roadEventDTO, len(events))
	for i, e := range events {
		dtos[i] = toRoadEventDTO(e)
	}

	writeJSON(w, http.StatusOK, eventsResponse{
		Events: dtos,
		Total:  total,
		Filters: filtersDTO{
			Zoom:       zoom,
			ActiveOnly: f.ActiveOnly,
			State:      f.State,
			Type:       q.Get("type"),
			Limit:      f.Limit,
			Offset:     f.Offset,
		},
	})
}

// --- /events/clusters --------------------------------------------------

type clustersResponse struct {
	Clusters []clusterDTO `json:"clusters"`
}

type clusterDTO struct {
	Geometry    geometryDTO `json:"geometry"`
	Count       int         `json:"count"`
	HasCritical bool        `json:"has_critical"`
	HasWarning  bool        `json:"has_warning"`
}

type geometryDTO struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (d *Deps) handleEventClusters(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	raw := q.Get("bbox")
	if raw == "" {
		writeError(w, roaderr.New(roaderr.CodeMissingFields, "bbox is required").WithDetails("bbox"))
		return
	}
	f, err := parseBBox(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	f.ActiveOnly = true

	zoom := parseIntParam(q.Get("zoom"), 4)
	points, err := d.Store.HazardCentroidsInBBox(r.Context(), d.Store.Pool, f)
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "cluster events", err))
		return
	}

	cpts := make([]cluster.Point, len(points))
	for i, p := range points {
		cpts[i] = cluster.Point{Lat: p.Lat, Lng: p.Lng, Severity: p.Severity}
	}
	eps := cluster.EpsForZoom(zoom)
	clusters := cluster.DBSCAN(cpts, eps, cluster.MinPoints)

	dtos := make([]clusterDTO, len(clusters))
	for i, c := range clusters {
		dtos[i] = clusterDTO{
			Geometry:    geometryDTO{Type: "Point", Coordinates: []float64{c.Lng, c.Lat}},
			Count:       c.Count,
			HasCritical: c.HasCritical,
			HasWarning:  c.HasWarning,
		}
	}
	writeJSON(w, http.StatusOK, clustersResponse{Clusters: dtos})
}

// --- /weather-alerts -----------------------------------------------------

type weatherAlertsResponse struct {
	Alerts  []weatherAlertDTO `json:"alerts"`
	Total   int               `json:"total"`
	Filters filtersDTO        `json:"filters"`
}

func (d *Deps) handleWeatherAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.BBoxFilter{ActiveOnly: parseBoolParam(q.Get("active_only"), true)}
	if raw := q.Get("bbox"); raw != "" {
		parsed, err := parseBBox(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		f.HasBBox = true
		f.MinLng, f.MinLat, f.MaxLng, f.MaxLat = parsed.MinLng, parsed.MinLat, parsed.MaxLng, parsed.MaxLat
	}
	zoom := parseIntParam(q.Get("zoom"), 0)
	defaultLimit, severityFloor := zoomDefaults(zoom)
	f.Limit = parseIntParam(q.Get("limit"), defaultLimit)
	f.Offset = parseIntParam(q.Get("offset"), 0)
	if raw := q.Get("severity"); raw != "" {
		f.SeverityFloor = model.SeverityRank(raw)
	} else {
		f.SeverityFloor = severityFloor
	}

	alerts, total, err := d.Store.WeatherAlertsInBBox(r.Context(), d.Store.Pool, f)
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "list weather alerts", err))
		return
	}
	dtos := make([]weatherAlertDTO, len(alerts))
	for i, a := range alerts {
		dtos[i] = toWeatherAlertDTO(a)
	}
	writeJSON(w, http.StatusOK, weatherAlertsResponse{
		Alerts: dtos,
		Total:  total,
		Filters: filtersDTO{
			Zoom:       zoom,
			ActiveOnly: f.ActiveOnly,
			Limit:      f.Limit,
			Offset:     f.Offset,
		},
	})
}

// --- /parking ------------------------------------------------------------

type parkingResponse struct {
	Facilities []parkingDTO `json:"facilities"`
}

func (d *Deps) handleParking(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.BBoxFilter{ActiveOnly: parseBoolParam(q.Get("active_only"), true)}
	if raw := q.Get("bbox"); raw != "" {
		parsed, err := parseBBox(raw)
		if err != nil {
			writeError(w, err)
			return
		}
		f.HasBBox = true
		f.MinLng, f.MinLat, f.MaxLng, f.MaxLat = parsed.MinLng, parsed.MinLat, parsed.MaxLng, parsed.MaxLat
	}
	f.Limit = parseIntParam(q.Get("limit"), 500)
	f.Offset = parseIntParam(q.Get("offset"), 0)

	facilities, err := d.Store.ParkingInBBox(r.Context(), d.Store.Pool, f)
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "list parking facilities", err))
		return
	}
	dtos := make([]parkingDTO, len(facilities))
	for i, p := range facilities {
		dtos[i] = toParkingDTO(p)
	}
	writeJSON(w, http.StatusOK, parkingResponse{Facilities: dtos})
}

// --- /reports --------------------------------------------------------------

type reportsResponse struct {
	Reports []reportDTO `json:"reports"`
}

func (d *Deps) handleReportsList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	activeOnly := parseBoolParam(q.Get("active_only"), true)
	limit := parseIntParam(q.Get("limit"), 500)
	offset := parseIntParam(q.Get("offset"), 0)

	reports, err := d.Community.ListReports(r.Context(), activeOnly, limit, offset)
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "list reports", err))
		return
	}
	dtos := make([]reportDTO, len(reports))
	for i, rep := range reports {
		dtos[i] = toReportDTO(rep)
	}
	writeJSON(w, http.StatusOK, reportsResponse{Reports: dtos})
}

type createReportRequest struct {
	Type         string  `json:"type"`
	Title        string  `json:"title"`
	Description  *string `json:"description,omitempty"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	LocationDesc *string `json:"locationDescription,omitempty"`
	RouteName    *string `json:"routeName,omitempty"`
	State        *string `json:"state,omitempty"`
	Severity     string  `json:"severity"`
}

type createReportResponse struct {
	ID string `json:"id"`
}

func (d *Deps) handleReportsCreate(w http.ResponseWriter, r *http.Request) {
	var req createReportRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Title == "" || req.Type == "" {
		writeError(w, roaderr.New(roaderr.CodeMissingFields, "type and title are required").WithDetails("title"))
		return
	}

	userID := r.Header.Get("X-User-ID")
	id, err := d.Community.CreateReport(r.Context(), userID, community.CreateInput{
		Type:         model.ReportType(req.Type),
		Title:        req.Title,
		Description:  req.Description,
		Lat:          req.Lat,
		Lng:          req.Lng,
		LocationDesc: req.LocationDesc,
		RouteName:    req.RouteName,
		State:        req.State,
		Severity:     model.Severity(req.Severity),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createReportResponse{ID: id})
}

type voteRequest struct {
	Vote string `json:"vote"`
}

type voteResponse struct {
	Upvotes   int     `json:"upvotes"`
	Downvotes int     `json:"downvotes"`
	UserVote  *string `json:"user_vote"`
}

func (d *Deps) handleReportsVote(w http.ResponseWriter, r *http.Request) {
	reportID := chi.URLParam(r, "id")
	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		writeError(w, roaderr.New(roaderr.CodeUnauthorized, "X-User-ID header is required"))
		return
	}

	var req voteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "invalid request body"))
		return
	}
	vote := model.Vote(req.Vote)
	if vote != model.VoteUp && vote != model.VoteDown {
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "vote must be 'up' or 'down'").WithDetails("vote"))
		return
	}

	result, err := d.Community.VoteOnReport(r.Context(), reportID, userID, vote)
	if err != nil {
		writeError(w, roaderr.Wrap(roaderr.CodeQueryFailed, "vote on report", err))
		return
	}

	var userVote *string
	if result.UserVote != nil {
		s := string(*result.UserVote)
		userVote = &s
	}
	writeJSON(w, http.StatusOK, voteResponse{Upvotes: result.Upvotes, Downvotes: result.Downvotes, UserVote: userVote})
}

// --- /route/check ----------------------------------------------------------

type routeCheckRequest struct {
	OriginAddress      string   `json:"originAddress"`
	DestinationAddress string   `json:"destinationAddress"`
	OriginLat          *float64 `json:"originLat,omitempty"`
	OriginLng          *float64 `json:"originLng,omitempty"`
	DestinationLat     *float64 `json:"destinationLat,omitempty"`
	DestinationLng     *float64 `json:"destinationLng,omitempty"`
	CorridorMiles      *float64 `json:"corridorMiles,omitempty"`
}

func (d *Deps) handleRouteCheck(w http.ResponseWriter, r *http.Request) {
	var req routeCheckRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "invalid request body"))
		return
	}

	if d.Limiter != nil {
		ip := httpctx.ClientIP(r)
		if res := d.Limiter.Allow(r.Context(), ratelimit.GateGeocode, ip); !res.Allowed {
			writeError(w, roaderr.New(roaderr.CodeRateLimited, "too many route checks").WithRetryAfter(int(res.RetryAfter.Seconds())))
			return
		}
	}

	corridorMiles := 10.0
	if req.CorridorMiles != nil {
		corridorMiles = *req.CorridorMiles
		if corridorMiles < 1 || corridorMiles > 50 {
			writeError(w, roaderr.New(roaderr.CodeInvalidCorridor, "corridorMiles must be between 1 and 50").WithDetails("corridorMiles"))
			return
		}
	}

	resp, err := d.RouteCheck.Check(r.Context(), routecheck.Request{
		OriginAddress:      req.OriginAddress,
		DestinationAddress: req.DestinationAddress,
		OriginLat:          req.OriginLat,
		OriginLng:          req.OriginLng,
		DestinationLat:     req.DestinationLat,
		DestinationLng:     req.DestinationLng,
		CorridorMiles:      corridorMiles,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRouteCheckDTO(*resp))
}

// --- /admin/scheduler --------------------------------------------------------

type schedulerAdminRequest struct {
	Action          string `json:"action"`
	IntervalMinutes int    `json:"intervalMinutes,omitempty"`
}

type schedulerStatusDTO struct {
	IsPaused        bool   `json:"isPaused"`
	NextRunAt       string `json:"nextRunAt,omitempty"`
	LastRunAt       string `json:"lastRunAt,omitempty"`
	IntervalMinutes int    `json:"intervalMinutes"`
	ActiveCount     int    `json:"activeCount"`
	WaitingCount    int    `json:"waitingCount"`
}

func (d *Deps) handleSchedulerAdmin(w http.ResponseWriter, r *http.Request) {
	var req schedulerAdminRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "invalid request body"))
		return
	}

	switch req.Action {
	case "pause":
		d.Scheduler.Pause()
	case "resume":
		d.Scheduler.Resume()
	case "trigger":
		d.Scheduler.TriggerNow()
	case "set-interval":
		if req.IntervalMinutes <= 0 {
			writeError(w, roaderr.New(roaderr.CodeMissingFields, "intervalMinutes must be positive").WithDetails("intervalMinutes"))
			return
		}
		d.Scheduler.SetInterval(req.IntervalMinutes)
	default:
		writeError(w, roaderr.New(roaderr.CodeBadRequest, "unknown action").WithDetails("action"))
		return
	}

	writeJSON(w, http.StatusOK, toSchedulerStatusDTO(d.Scheduler.Status()))
}
