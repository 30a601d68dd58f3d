package cluster

import "testing"

func TestEpsForZoomClampsAndInterpolates(t *testing.T) {
	if got := EpsForZoom(2); got != 2.0 {
		t.Errorf("EpsForZoom(2) = %v, want 2.0", got)
	}
	if got := EpsForZoom(4); got != 2.0 {
		t.Errorf("EpsForZoom(4) = %v, want 2.0", got)
	}
	if got := EpsForZoom(7); got != 0.25 {
		t.Errorf("EpsForZoom(7) = %v, want 0.25", got)
	}
	if got := EpsForZoom(10); got != 0.25 {
		t.Errorf("EpsForZoom(10) = %v, want 0.25", got)
	}
	mid := EpsForZoom(5)
	if mid >= 2.0 || mid <= 0.25 {
		t.Errorf("EpsForZoom(5) = %v, want strictly between 0.25 and 2.0", mid)
	}
}

func TestDBSCANGroupsNearbyPoints(t *testing.T) {
	points := []Point{
		{Lat: 39.0, Lng: -77.0, Severity: "CRITICAL"},
		{Lat: 39.001, Lng: -77.001, Severity: "WARNING"},
		{Lat: 45.0, Lng: -90.0, Severity: "INFO"},
	}
	clusters := DBSCAN(points, 0.25, 2)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters (one pair + one singleton), got %d", len(clusters))
	}
	var pair, singleton *Cluster
	for i := range clusters {
		if clusters[i].Count == 2 {
			pair = &clusters[i]
		} else {
			singleton = &clusters[i]
		}
	}
	if pair == nil || singleton == nil {
		t.Fatalf("expected one count-2 cluster and one singleton, got %+v", clusters)
	}
	if !pair.HasCritical || !pair.HasWarning {
		t.Errorf("expected the paired cluster to carry both severities, got %+v", pair)
	}
}

func TestDBSCANEmpty(t *testing.T) {
	if got := DBSCAN(nil, 1.0, 2); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}
