package route

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"roadmap/pkg/border"
	"roadmap/pkg/geom"
	"roadmap/pkg/lane"
	"roadmap/pkg/mapmodel"
	"roadmap/pkg/quadtree"
)

func straightBorder(parentID string, y float64) *border.Border {
	var pts []geom.MapPoint
	for x := 0.0; x <= 100; x += 5 {
		pts = append(pts, geom.MapPoint{X: x, Y: y})
	}
	b := border.New(parentID, pts)
	b.ComputeSValues()
	b.ComputeLength()
	return b
}

func singleStraightLaneMap(t *testing.T) *mapmodel.Map {
	t.Helper()
	inner := straightBorder("lane-1", 0)
	outer := straightBorder("lane-1", 4)
	l, err := lane.New("lane-1", "road-1", outer, inner, true, nil, 0.5)
	require.NoError(t, err)
	l.SetType("driving", "asphalt", lane.CategoryTown)

	road := lane.NewRoad("road-1", "Straight Ave", lane.CategoryTown, false)
	road.AddLane(l.ID)

	bounds := quadtree.Boundary{XMin: -10, XMax: 110, YMin: -10, YMax: 10}
	return mapmodel.New(bounds, 4, []*lane.Lane{l}, []*lane.Road{road}, nil)
}

func TestRouteProjectionAndInterpolation(t *testing.T) {
	m := singleStraightLaneMap(t)
	r := New(geom.MapPoint{X: 0, Y: 0}, geom.MapPoint{X: 100, Y: 0}, m)
	require.NotEmpty(t, r.Sections)

	s := r.GetS(m, geom.MapPoint{X: 37, Y: 0.1})
	require.InDelta(t, 37.0, s, 0.1)

	pose, ok := r.InterpolateAtS(50)
	require.True(t, ok)
	require.InDelta(t, 50.0, pose.X, 1e-6)
	require.InDelta(t, 0.0, pose.Yaw, 1e-6)
}

func TestRouteEmptyWhenEndpointUnresolved(t *testing.T) {
	// A map with no lanes: the quadtree has no point for either endpoint to
	// project onto.
	bounds := quadtree.Boundary{XMin: -10, XMax: 110, YMin: -10, YMax: 10}
	m := mapmodel.New(bounds, 4, nil, nil, nil)
	r := New(geom.MapPoint{X: 0, Y: 0}, geom.MapPoint{X: 100, Y: 0}, m)
	require.Empty(t, r.Sections)
}

func TestLaneToSectionsMatchesSectionLanes(t *testing.T) {
	m := singleStraightLaneMap(t)
	r := New(geom.MapPoint{X: 0, Y: 0}, geom.MapPoint{X: 100, Y: 0}, m)

	want := make(map[string]bool)
	for _, s := range r.Sections {
		want[s.LaneID] = true
	}
	got := make(map[string]bool)
	for id := range r.LaneToSections {
		got[id] = true
	}
	require.Equal(t, want, got)
}

func TestGetShortenedRouteWindowsCenterLane(t *testing.T) {
	m := singleStraightLaneMap(t)
	r := New(geom.MapPoint{X: 0, Y: 0}, geom.MapPoint{X: 100, Y: 0}, m)

	window := r.GetShortenedRoute(10, 20)
	for _, p := range window {
		require.GreaterOrEqual(t, p.S, 10.0)
		require.LessOrEqual(t, p.S, 30.0)
	}
	require.NotEmpty(t, window)
}

func TestGetSReturnsInfWhenUnreachable(t *testing.T) {
	r := &Route{}
	m := singleStraightLaneMap(t)
	require.True(t, math.IsInf(r.GetS(m, geom.MapPoint{X: 0, Y: 0}), 1))
}
