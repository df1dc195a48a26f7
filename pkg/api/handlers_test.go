package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"roadmap/pkg/border"
	"roadmap/pkg/geom"
	"roadmap/pkg/lane"
	"roadmap/pkg/mapmodel"
	"roadmap/pkg/quadtree"
)

func straightLaneMap(t *testing.T) *mapmodel.Map {
	t.Helper()
	var innerPts, outerPts []geom.MapPoint
	for x := 0.0; x <= 100; x += 5 {
		innerPts = append(innerPts, geom.MapPoint{X: x, Y: 0})
		outerPts = append(outerPts, geom.MapPoint{X: x, Y: 4})
	}
	inner := border.New("lane-1", innerPts)
	inner.ComputeSValues()
	inner.ComputeLength()
	outer := border.New("lane-1", outerPts)
	outer.ComputeSValues()
	outer.ComputeLength()

	l, err := lane.New("lane-1", "road-1", outer, inner, true, nil, 0.5)
	if err != nil {
		t.Fatalf("lane.New: %v", err)
	}
	l.SetType("driving", "asphalt", lane.CategoryTown)

	road := lane.NewRoad("road-1", "Test Rd", lane.CategoryTown, false)
	road.AddLane(l.ID)

	bounds := quadtree.Boundary{XMin: -10, XMax: 110, YMin: -10, YMax: 10}
	return mapmodel.New(bounds, 4, []*lane.Lane{l}, []*lane.Road{road}, nil)
}

func testHandlers(t *testing.T) *Handlers {
	return NewHandlers(straightLaneMap(t), zap.NewNop())
}

func TestHandleRouteSuccess(t *testing.T) {
	h := testHandlers(t)

	body := `{"start":{"x":0,"y":0},"end":{"x":100,"y":0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.LengthMeters <= 0 {
		t.Errorf("LengthMeters = %v, want > 0", resp.LengthMeters)
	}
	if len(resp.CenterLane) == 0 {
		t.Errorf("CenterLane is empty")
	}
}

func TestHandleRouteInvalidJSON(t *testing.T) {
	h := testHandlers(t)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRouteMissingContentType(t *testing.T) {
	h := testHandlers(t)

	body := `{"start":{"x":0,"y":0},"end":{"x":100,"y":0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRouteNoRouteFound(t *testing.T) {
	// A map with no lanes: neither endpoint projects onto a lane.
	bounds := quadtree.Boundary{XMin: -10, XMax: 110, YMin: -10, YMax: 10}
	h := NewHandlers(mapmodel.New(bounds, 4, nil, nil, nil), zap.NewNop())

	body := `{"start":{"x":1e9,"y":1e9},"end":{"x":100,"y":0}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestHandleNearestLane(t *testing.T) {
	h := testHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/nearest-lane?x=50&y=1.9", nil)
	w := httptest.NewRecorder()

	h.HandleNearestLane(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp NearestLaneResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.LaneID != "lane-1" {
		t.Errorf("LaneID = %q, want lane-1", resp.LaneID)
	}
	if !resp.OnRoad {
		t.Errorf("OnRoad = false, want true for a point inside the lane")
	}
}

func TestHandleHealth(t *testing.T) {
	h := testHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	h := testHandlers(t)

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.NumLanes != 1 {
		t.Errorf("NumLanes = %d, want 1", resp.NumLanes)
	}
	if resp.NumRoads != 1 {
		t.Errorf("NumRoads = %d, want 1", resp.NumRoads)
	}
}
