package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"roadmap/pkg/geom"
	"roadmap/pkg/mapmodel"
	"roadmap/pkg/route"
)

var errInvalidCoord = errors.New("invalid coordinate")

// Handlers holds the HTTP handlers and their dependencies: a read-only Map
// built once at startup (concurrent readers need no locking) and a logger.
type Handlers struct {
	m   *mapmodel.Map
	log *zap.Logger
}

// NewHandlers creates handlers serving m.
func NewHandlers(m *mapmodel.Map, log *zap.Logger) *Handlers {
	return &Handlers{m: m, log: log}
}

// HandleRoute handles POST /api/v1/route: builds a Route between two
// projected-frame points and returns its center-lane samples.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}
	if err := validatePoint(req.Start); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "start")
		return
	}
	if err := validatePoint(req.End); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_coordinates", "end")
		return
	}

	rt := route.New(
		geom.MapPoint{X: req.Start.X, Y: req.Start.Y},
		geom.MapPoint{X: req.End.X, Y: req.End.Y},
		h.m,
	)
	if len(rt.Sections) == 0 {
		writeError(w, http.StatusNotFound, "no_route_found", "")
		return
	}

	resp := RouteResponse{LengthMeters: rt.Length}
	for _, p := range rt.CenterLane {
		resp.CenterLane = append(resp.CenterLane, CenterPointJSON{X: p.X, Y: p.Y, RouteS: p.S})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// HandleNearestLane handles GET /api/v1/nearest-lane?x=&y=.
func (h *Handlers) HandleNearestLane(w http.ResponseWriter, r *http.Request) {
	x, errX := parseFloatParam(r, "x")
	y, errY := parseFloatParam(r, "y")
	if errX != nil || errY != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "")
		return
	}

	p := geom.MapPoint{X: x, Y: y}
	nearest, dist, found := h.m.Quadtree.GetNearestPoint(x, y, math.Inf(1), nil)
	if !found {
		writeError(w, http.StatusNotFound, "no_lane_found", "")
		return
	}

	l, ok := h.m.Lanes[nearest.ParentID]
	if !ok {
		writeError(w, http.StatusNotFound, "no_lane_found", "")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(NearestLaneResponse{
		LaneID:     l.ID,
		Distance:   dist,
		Width:      l.GetWidth(nearest.S),
		SpeedLimit: l.SpeedLimit,
		OnRoad:     h.m.IsPointOnRoad(p),
	})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatsResponse{
		NumLanes: len(h.m.Lanes),
		NumRoads: len(h.m.Roads),
	})
}

func validatePoint(p PointJSON) error {
	if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
		return errInvalidCoord
	}
	return nil
}

func parseFloatParam(r *http.Request, name string) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return 0, errInvalidCoord
	}
	var v float64
	_, err := fmt.Sscanf(s, "%g", &v)
	return v, err
}

func writeError(w http.ResponseWriter, status int, code, field string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: code, Field: field})
}
