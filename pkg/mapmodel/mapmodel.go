// Package mapmodel assembles Map: the quadtree of lane-border sample
// points, the lane/road registries, and the RoadGraph connecting them,
// plus submap extraction.
package mapmodel

import (
	"roadmap/pkg/geom"
	"roadmap/pkg/lane"
	"roadmap/pkg/quadtree"
	"roadmap/pkg/roadgraph"
)

// DefaultLaneSpeedLimit is returned by GetLaneSpeedLimit for an id the map
// doesn't know about.
const DefaultLaneSpeedLimit = 13.6 // m/s

// Map owns the full set of lanes and roads for a region, a quadtree seeded
// with every lane's inner/outer/center interpolated points, and the
// lane-to-lane RoadGraph. Lanes and roads are stored by id (arena+index);
// the quadtree and graph hold ids, not pointers, avoiding ownership cycles.
type Map struct {
	Lanes    map[string]*lane.Lane
	Roads    map[string]*lane.Road
	Quadtree *quadtree.Quadtree
	Graph    *roadgraph.RoadGraph
}

// New assembles a Map from lanes, roads, and graph connections. The
// quadtree is built over boundary with the given leaf capacity, seeded with
// every point of every lane's inner, outer, and center interpolated
// polylines.
func New(boundary quadtree.Boundary, capacity int, lanes []*lane.Lane, roads []*lane.Road, connections []roadgraph.Connection) *Map {
	m := &Map{
		Lanes:    make(map[string]*lane.Lane, len(lanes)),
		Roads:    make(map[string]*lane.Road, len(roads)),
		Quadtree: quadtree.New(boundary, capacity),
		Graph:    roadgraph.New(),
	}
	for _, l := range lanes {
		m.Lanes[l.ID] = l
		seedLane(m.Quadtree, l)
	}
	for _, r := range roads {
		m.Roads[r.ID] = r
	}
	for _, c := range connections {
		m.Graph.AddConnection(c)
	}
	return m
}

func seedLane(qt *quadtree.Quadtree, l *lane.Lane) {
	for _, side := range [][]geom.MapPoint{
		l.Borders.Inner.InterpolatedPoints,
		l.Borders.Outer.InterpolatedPoints,
		l.Borders.Center.InterpolatedPoints,
	} {
		for _, p := range side {
			p.ParentID = l.ID
			qt.Insert(p)
		}
	}
}

// GetLaneSpeedLimit returns the lane's speed limit, or DefaultLaneSpeedLimit
// if id is not in the map.
func (m *Map) GetLaneSpeedLimit(id string) float64 {
	l, ok := m.Lanes[id]
	if !ok {
		return DefaultLaneSpeedLimit
	}
	return l.SpeedLimit
}

// IsPointOnRoad reports whether the nearest quadtree point to p exists and
// its owning lane's half-width at that point's s exceeds the distance to p.
func (m *Map) IsPointOnRoad(p geom.MapPoint) bool {
	nearest, dist, found := m.Quadtree.GetNearestPoint(p.X, p.Y, 1e18, nil)
	if !found {
		return false
	}
	l, ok := m.Lanes[nearest.ParentID]
	if !ok {
		return false
	}
	return dist < l.GetWidth(nearest.S)/2
}

// GetSubmap window-queries the quadtree, collects the unique lane ids
// found, deep-copies those lanes (and the roads that own them, trimmed to
// only the copied lanes), rebuilds a submap quadtree from only the center
// interpolated points of the copied lanes, and restricts the lane graph to
// those ids via CreateSubgraph.
func (m *Map) GetSubmap(centerX, centerY, width, height float64) *Map {
	rng := quadtree.Boundary{
		XMin: centerX - width/2, XMax: centerX + width/2,
		YMin: centerY - height/2, YMax: centerY + height/2,
	}

	var hits []geom.MapPoint
	m.Quadtree.Query(rng, &hits)

	laneIDs := make(map[string]bool)
	var orderedIDs []string
	for _, p := range hits {
		if p.ParentID == "" || laneIDs[p.ParentID] {
			continue
		}
		laneIDs[p.ParentID] = true
		orderedIDs = append(orderedIDs, p.ParentID)
	}

	sub := &Map{
		Lanes:    make(map[string]*lane.Lane, len(orderedIDs)),
		Roads:    make(map[string]*lane.Road),
		Quadtree: quadtree.New(rng, m.Quadtree.Capacity),
		Graph:    m.Graph.CreateSubgraph(orderedIDs),
	}

	for _, id := range orderedIDs {
		l, ok := m.Lanes[id]
		if !ok {
			continue
		}
		laneCopy := *l
		laneCopy.Borders = l.Borders.Clone()
		sub.Lanes[id] = &laneCopy

		for _, cp := range l.Borders.Center.InterpolatedPoints {
			cp.ParentID = id
			sub.Quadtree.Insert(cp)
		}

		road, ok := m.Roads[l.RoadID]
		if !ok {
			continue
		}
		sr, ok := sub.Roads[road.ID]
		if !ok {
			roadCopy := *road
			roadCopy.LaneIDs = nil
			sr = &roadCopy
			sub.Roads[road.ID] = sr
		}
		sr.AddLane(id)
	}

	return sub
}
