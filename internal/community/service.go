// Package community implements the crowdsourced report workflow of §4.7 on
// top of the spatial store, the quota gate, and the usage event sink.
package community

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ciprian87/roadpulse/internal/core/observability"
	"github.com/ciprian87/roadpulse/internal/geo"
	"github.com/ciprian87/roadpulse/internal/model"
	"github.com/ciprian87/roadpulse/internal/ratelimit"
	"github.com/ciprian87/roadpulse/internal/roaderr"
	"github.com/ciprian87/roadpulse/internal/store"
	"github.com/ciprian87/roadpulse/internal/usage"
)

// US bounds from §4.7, generous enough to cover the contiguous states plus
// Alaska's westward extent without admitting obviously bogus coordinates.
const (
	minLat = 17.0
	maxLat = 72.0
	minLng = -180.0
	maxLng = -65.0
)

type Service struct {
	store   *store.Store
	limiter *ratelimit.Limiter
	usage   *usage.Writer
	log     zerolog.Logger
}

func New(st *store.Store, limiter *ratelimit.Limiter, w *usage.Writer, log zerolog.Logger) *Service {
	return &Service{store: st, limiter: limiter, usage: w, log: log}
}

// CreateInput is the caller-supplied shape for a new report.
type CreateInput struct {
	Type         model.ReportType
	Title        string
	Description  *string
	Lat          float64
	Lng          float64
	LocationDesc *string
	RouteName    *string
	State        *string
	Severity     model.Severity
}

func inUSBounds(lat, lng float64) bool {
	return lat >= minLat && lat <= maxLat && lng >= minLng && lng <= maxLng
}

// CreateReport validates the coordinates, consults the per-user rate gate
// (failing open on a gate outage, never blocking a legitimate submission
// because the cache is down), computes the type-dependent expiry, persists
// the report, and emits a REPORT_SUBMIT usage event.
func (s *Service) CreateReport(ctx context.Context, userID string, in CreateInput) (string, error) {
	if !inUSBounds(in.Lat, in.Lng) {
		return "", roaderr.New(roaderr.CodeInvalidCoords, "coordinates outside supported region")
	}

	if s.limiter != nil {
		if res := s.limiter.Allow(ctx, ratelimit.GateReports, userID); !res.Allowed {
			return "", roaderr.New(roaderr.CodeRateLimited, "report submission rate limit exceeded")
		}
	}

	expiryHours, ok := model.ReportExpiryHours[in.Type]
	if !ok {
		expiryHours = model.ReportExpiryHours[model.ReportOther]
	}

	uid := userID
	rec := &model.CommunityReport{
		UserID:          &uid,
		Type:            in.Type,
		Title:           in.Title,
		Description:     in.Description,
		LocationGeoJSON: geo.PointGeoJSON(in.Lng, in.Lat),
		LocationDesc:    in.LocationDesc,
		RouteName:       in.RouteName,
		State:           in.State,
		Severity:        in.Severity,
		ExpiresAt:       time.Now().Add(time.Duration(expiryHours) * time.Hour),
	}

	id, err := s.store.CreateReport(ctx, s.store.Pool, rec)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if s.usage != nil {
		s.usage.Publish(model.UsageEvent{
			EventType: "REPORT_SUBMIT",
			UserID:    &uid,
			Metadata:  map[string]any{"reportType": string(in.Type)},
		})
	}
	observability.IncReportSubmit(string(in.Type))

	return id, nil
}

// VoteOnReport runs the toggle logic of §4.7 inside one transaction so the
// lock-then-read-then-write sequence is atomic.
func (s *Service) VoteOnReport(ctx context.Context, reportID, userID string, vote model.Vote) (*model.VoteResult, error) {
	tx, err := s.store.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin vote transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := s.store.VoteOnReport(ctx, tx, reportID, userID, vote)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit vote transaction: %w", err)
	}

	transition := "removed"
	if result.UserVote != nil {
		transition = "cast_" + string(*result.UserVote)
	}
	observability.IncReportVote(transition)

	return result, nil
}

// ListReports returns the soft-moderated-filtered report feed for the
// reports query surface.
func (s *Service) ListReports(ctx context.Context, activeOnly bool, limit, offset int) ([]model.CommunityReport, error) {
	return s.store.ListReports(ctx, s.store.Pool, activeOnly, limit, offset)
}

// ExpireOldReports is invoked by the scheduler on every tick.
func (s *Service) ExpireOldReports(ctx context.Context) (int, error) {
	return s.store.ExpireOldReports(ctx, s.store.Pool)
}
