// Package route builds a Route: a path through a Map's lane graph,
// reparameterized into a single continuous route_s arc-length and
// queried by projection/interpolation over it.
package route

import (
	"math"
	"sort"

	"roadmap/pkg/border"
	"roadmap/pkg/geom"
	"roadmap/pkg/mapmodel"
)

// Section is one lane's contribution to the route: the portion of its
// center border actually traversed, reparameterized so route_s is monotone
// ascending even when the lane itself is traversed back-to-front.
type Section struct {
	LaneID  string
	StartS  float64 // local s on the lane's center border
	EndS    float64
	Reverse bool
	RouteS0 float64 // route_s at the start of this section
	RouteS1 float64 // route_s at the end of this section
}

// Route is a continuous path across one or more lanes of a Map, exposing a
// single route_s arc-length coordinate over the concatenated lane centers.
type Route struct {
	Sections       []Section
	LaneToSections map[string][]int // lane id -> indices into Sections
	sToSections    []float64        // ascending RouteS0 per section, parallel to Sections
	CenterLane     []geom.MapPoint  // route_s -> point, ascending in S
	Length         float64
}

// New builds a Route from start to end over m. Returns an empty Route (nil
// Sections) if either endpoint fails to project onto a lane, or if the lane
// graph has no path between the resolved lane ids.
func New(start, end geom.MapPoint, m *mapmodel.Map) *Route {
	nearestStart, _, foundStart := m.Quadtree.GetNearestPoint(start.X, start.Y, math.Inf(1), nil)
	nearestEnd, _, foundEnd := m.Quadtree.GetNearestPoint(end.X, end.Y, math.Inf(1), nil)
	if !foundStart || !foundEnd || nearestStart.ParentID == "" || nearestEnd.ParentID == "" {
		return &Route{}
	}

	startLaneID := nearestStart.ParentID
	endLaneID := nearestEnd.ParentID

	path := m.Graph.GetBestPath(startLaneID, endLaneID)
	if len(path) == 0 {
		return &Route{}
	}

	r := &Route{LaneToSections: make(map[string][]int)}
	routeS := 0.0

	for i, laneID := range path {
		l, ok := m.Lanes[laneID]
		if !ok {
			return &Route{}
		}
		center := l.Borders.Center

		sStart := center.Points[0].S
		sEnd := center.Points[len(center.Points)-1].S
		if i == 0 {
			sStart = nearestStart.S
		}
		if i == len(path)-1 {
			sEnd = nearestEnd.S
		}

		addRouteSection(r, l.ID, center, sStart, sEnd, l.LeftOfReference, &routeS)
	}

	buildSToSections(r)
	buildCenterLane(r, m)
	if len(r.Sections) > 0 {
		r.Length = r.Sections[len(r.Sections)-1].RouteS1
	}
	return r
}

// addRouteSection appends one lane's contribution. When left_of_reference
// is true and the lane is traversed with sEnd < sStart on its own border,
// the section is flagged Reverse so CenterLane sampling walks it back to
// front while route_s still advances monotonically.
func addRouteSection(r *Route, laneID string, center *border.Border, sStart, sEnd float64, leftOfReference bool, routeS *float64) bool {
	reverse := leftOfReference && sStart > sEnd
	if reverse {
		sStart, sEnd = sEnd, sStart
	}

	length := sEnd - sStart
	if length < 0 {
		length = 0
	}

	sec := Section{
		LaneID:  laneID,
		StartS:  sStart,
		EndS:    sEnd,
		Reverse: reverse,
		RouteS0: *routeS,
		RouteS1: *routeS + length,
	}
	idx := len(r.Sections)
	r.Sections = append(r.Sections, sec)
	r.LaneToSections[laneID] = append(r.LaneToSections[laneID], idx)
	*routeS += length
	return reverse
}

func buildSToSections(r *Route) {
	r.sToSections = make([]float64, len(r.Sections))
	for i, s := range r.Sections {
		r.sToSections[i] = s.RouteS0
	}
}

// buildCenterLane samples each section's center border at a fixed spacing
// between StartS and EndS (respecting Reverse), converting local s to
// route_s via the section's linear mapping.
func buildCenterLane(r *Route, m *mapmodel.Map) {
	const spacing = 0.5
	var pts []geom.MapPoint

	for _, sec := range r.Sections {
		l, ok := m.Lanes[sec.LaneID]
		if !ok {
			continue
		}
		center := l.Borders.Center
		length := sec.EndS - sec.StartS

		var samples []float64
		for d := 0.0; d < length; d += spacing {
			samples = append(samples, d)
		}
		samples = append(samples, length)

		for _, d := range samples {
			var localS float64
			if sec.Reverse {
				localS = sec.EndS - d
			} else {
				localS = sec.StartS + d
			}
			p := samplePointAt(center, localS)
			p.S = sec.RouteS0 + d
			p.ParentID = sec.LaneID
			pts = append(pts, p)
		}
	}

	r.CenterLane = pts
}

// samplePointAt linearly interpolates a border's InterpolatedPoints at s.
func samplePointAt(b *border.Border, s float64) geom.MapPoint {
	pts := b.InterpolatedPoints
	n := len(pts)
	if n == 0 {
		return geom.MapPoint{}
	}
	if s <= pts[0].S {
		return pts[0]
	}
	if s >= pts[n-1].S {
		return pts[n-1]
	}
	i := sort.Search(n, func(i int) bool { return pts[i].S > s }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	a, c := pts[i], pts[i+1]
	span := c.S - a.S
	var t float64
	if span > 0 {
		t = (s - a.S) / span
	}
	return geom.MapPoint{X: a.X + t*(c.X-a.X), Y: a.Y + t*(c.Y-a.Y)}
}

// GetS projects state onto the route: nearest quadtree point filtered to
// lanes in LaneToSections, converted from local s to route_s via the
// containing section. Returns +Inf if no route lane is nearby.
func (r *Route) GetS(m *mapmodel.Map, state geom.MapPoint) float64 {
	if len(r.Sections) == 0 {
		return math.Inf(1)
	}
	filter := func(p geom.MapPoint) bool {
		_, ok := r.LaneToSections[p.ParentID]
		return ok
	}
	nearest, _, found := m.Quadtree.GetNearestPoint(state.X, state.Y, math.Inf(1), filter)
	if !found {
		return math.Inf(1)
	}

	indices := r.LaneToSections[nearest.ParentID]
	best := math.Inf(1)
	for _, idx := range indices {
		sec := r.Sections[idx]
		if nearest.S < sec.StartS || nearest.S > sec.EndS {
			continue
		}
		var routeS float64
		if sec.Reverse {
			routeS = sec.RouteS0 + (sec.EndS - nearest.S)
		} else {
			routeS = sec.RouteS0 + (nearest.S - sec.StartS)
		}
		if routeS < best {
			best = routeS
		}
	}
	return best
}

// InterpolateAtS linearly interpolates between the two CenterLane samples
// bracketing distance, setting Yaw from the bracketing segment's direction
// unless that segment is degenerate (zero length), in which case Yaw is
// left untouched (zero value).
func (r *Route) InterpolateAtS(distance float64) (geom.Pose2d, bool) {
	n := len(r.CenterLane)
	if n == 0 {
		return geom.Pose2d{}, false
	}
	if distance <= r.CenterLane[0].S {
		return geom.Pose2d{X: r.CenterLane[0].X, Y: r.CenterLane[0].Y}, true
	}
	if distance >= r.CenterLane[n-1].S {
		last := r.CenterLane[n-1]
		return geom.Pose2d{X: last.X, Y: last.Y}, true
	}

	i := sort.Search(n, func(i int) bool { return r.CenterLane[i].S > distance }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	a, c := r.CenterLane[i], r.CenterLane[i+1]
	span := c.S - a.S
	var t float64
	if span > 0 {
		t = (distance - a.S) / span
	}

	pose := geom.Pose2d{X: a.X + t*(c.X-a.X), Y: a.Y + t*(c.Y-a.Y)}
	dx, dy := c.X-a.X, c.Y-a.Y
	if dx != 0 || dy != 0 {
		pose.Yaw = math.Atan2(dy, dx)
	}
	return pose, true
}

// GetMapPointAtS returns the interpolated CenterLane position at s; the yaw
// computed by InterpolateAtS is dropped.
func (r *Route) GetMapPointAtS(s float64) (geom.MapPoint, bool) {
	pose, ok := r.InterpolateAtS(s)
	if !ok {
		return geom.MapPoint{}, false
	}
	return geom.MapPoint{X: pose.X, Y: pose.Y, S: s}, true
}

// GetPoseAtS returns the CenterLane pose (position + yaw) at s.
func (r *Route) GetPoseAtS(s float64) (geom.Pose2d, bool) {
	return r.InterpolateAtS(s)
}

// GetShortenedRoute returns the CenterLane points within [startS, startS+desiredLength].
func (r *Route) GetShortenedRoute(startS, desiredLength float64) []geom.MapPoint {
	endS := startS + desiredLength
	var out []geom.MapPoint
	for _, p := range r.CenterLane {
		if p.S >= startS && p.S <= endS {
			out = append(out, p)
		}
	}
	return out
}
