package routecheck

import (
	"testing"

	"github.com/ciprian87/roadpulse/internal/model"
)

func TestSummarizeCountsBySeverityAndKind(t *testing.T) {
	hazards := []model.Hazard{
		{Kind: model.KindRoadEvent, Severity: "CRITICAL"},
		{Kind: model.KindRoadEvent, Severity: "INFO"},
		{Kind: model.KindWeatherAlert, Severity: "Severe"},
		{Kind: model.KindCommunityReport, Severity: "ADVISORY"},
	}
	s := summarize(hazards)
	if s.TotalHazards != 4 {
		t.Errorf("TotalHazards = %d, want 4", s.TotalHazards)
	}
	if s.CriticalCount != 1 || s.InfoCount != 1 || s.WarningCount != 1 || s.AdvisoryCount != 1 {
		t.Errorf("unexpected severity tally: %+v", s)
	}
	if s.RoadEventCount != 2 || s.WeatherAlertCount != 1 {
		t.Errorf("unexpected kind tally: %+v", s)
	}
}

func TestCheckHashStable(t *testing.T) {
	o := Endpoint{Lat: 40.0, Lng: -74.0}
	d := Endpoint{Lat: 40.5, Lng: -74.0}
	a := checkHash(o, d, 10)
	b := checkHash(o, d, 10)
	if a != b {
		t.Errorf("expected stable hash, got %q and %q", a, b)
	}
	c := checkHash(o, d, 11)
	if a == c {
		t.Errorf("expected different hash for different corridor radius")
	}
}
