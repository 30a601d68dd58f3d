package router

import (
	"encoding/json"
	"testing"

	"github.com/ciprian87/roadpulse/internal/model"
)

func TestRawGeometryPassesThroughWithoutEscaping(t *testing.T) {
	raw := rawGeometry(`{"type":"Point","coordinates":[-104.9,39.7]}`)
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("geometry did not round-trip as JSON: %v", err)
	}
	if decoded["type"] != "Point" {
		t.Fatalf("unexpected geometry: %+v", decoded)
	}
}

func TestRawGeometryEmptyBecomesNull(t *testing.T) {
	raw := rawGeometry("")
	if string(raw) != "null" {
		t.Fatalf("got %q, want null", raw)
	}
}

func TestToHazardDTOOmitsAbsentVariants(t *testing.T) {
	h := model.Hazard{
		Kind:     model.KindRoadEvent,
		ID:       "h1",
		Severity: "CRITICAL",
		Title:    "Bridge closed",
		RoadEvent: &model.RoadEvent{
			ID:     "re1",
			Source: "wzdx:CO",
			Type:   model.RoadEventClosure,
		},
	}
	dto := toHazardDTO(h)

	if dto.RoadEvent == nil || dto.RoadEvent.ID != "re1" {
		t.Fatalf("expected road event DTO to be populated, got %+v", dto.RoadEvent)
	}
	if dto.WeatherAlert != nil {
		t.Fatalf("expected nil weather alert DTO, got %+v", dto.WeatherAlert)
	}
	if dto.CommunityReport != nil {
		t.Fatalf("expected nil community report DTO, got %+v", dto.CommunityReport)
	}
}

func TestToReportDTOCarriesModerationStatus(t *testing.T) {
	r := model.CommunityReport{
		ID:               "r1",
		Type:             model.ReportRoadHazard,
		Title:            "Debris in lane",
		Severity:         "WARNING",
		ModerationStatus: model.ModerationApproved,
	}
	dto := toReportDTO(r)
	if dto.ModerationStatus != "approved" {
		t.Fatalf("got %q, want approved", dto.ModerationStatus)
	}
}
