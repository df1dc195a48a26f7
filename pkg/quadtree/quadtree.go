// Package quadtree implements a generic, point-bearing adaptive spatial
// index: axis-aligned boundary, capacity-N leaves, and
// range/radius/predicate-filtered-nearest queries.
package quadtree

import (
	"math"
	"sort"

	"roadmap/pkg/geom"
)

// DefaultCapacity is the per-node point capacity used when none is given.
const DefaultCapacity = 10

// Boundary is an axis-aligned rectangle [XMin,XMax] x [YMin,YMax].
type Boundary struct {
	XMin, XMax, YMin, YMax float64
}

// Contains reports whether (x, y) lies within the boundary, inclusive.
func (b Boundary) Contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// Intersects reports whether two boundaries overlap.
func (b Boundary) Intersects(o Boundary) bool {
	return !(o.XMin > b.XMax || o.XMax < b.XMin || o.YMin > b.YMax || o.YMax < b.YMin)
}

// DistanceToPoint returns the distance from (x, y) to the nearest point of
// the boundary; 0 if (x, y) is inside.
func (b Boundary) DistanceToPoint(x, y float64) float64 {
	dx := math.Max(0, math.Max(b.XMin-x, x-b.XMax))
	dy := math.Max(0, math.Max(b.YMin-y, y-b.YMax))
	return math.Hypot(dx, dy)
}

// quadrants returns the four child boundaries in fixed NW, NE, SW, SE order.
func (b Boundary) quadrants() (nw, ne, sw, se Boundary) {
	midX := (b.XMin + b.XMax) / 2
	midY := (b.YMin + b.YMax) / 2
	nw = Boundary{XMin: b.XMin, XMax: midX, YMin: midY, YMax: b.YMax}
	ne = Boundary{XMin: midX, XMax: b.XMax, YMin: midY, YMax: b.YMax}
	sw = Boundary{XMin: b.XMin, XMax: midX, YMin: b.YMin, YMax: midY}
	se = Boundary{XMin: midX, XMax: b.XMax, YMin: b.YMin, YMax: midY}
	return
}

// Filter is a predicate capability used by GetNearestPoint to restrict
// candidates, e.g. "parent_id is one of the lanes on this route".
type Filter func(geom.MapPoint) bool

type storedPoint struct {
	pt  geom.MapPoint
	seq uint64
}

// Quadtree is a single node of the adaptive point index. A node either
// holds at most Capacity points (a leaf) or has four non-nil children that
// exactly partition its Boundary, and holds no points itself.
type Quadtree struct {
	Boundary Boundary
	Capacity int

	points  []storedPoint
	divided bool
	nw, ne, sw, se *Quadtree

	seq *uint64 // shared insertion counter, root-owned
}

// New creates an empty quadtree over boundary with the given per-node point
// capacity (DefaultCapacity if capacity <= 0).
func New(boundary Boundary, capacity int) *Quadtree {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	var seq uint64
	return &Quadtree{Boundary: boundary, Capacity: capacity, seq: &seq}
}

// Insert adds p to the tree. It returns false if the boundary excludes p.
func (qt *Quadtree) Insert(p geom.MapPoint) bool {
	if !qt.Boundary.Contains(p.X, p.Y) {
		return false
	}

	sp := storedPoint{pt: p, seq: *qt.seq}
	*qt.seq++

	return qt.insertStored(sp)
}

func (qt *Quadtree) insertStored(sp storedPoint) bool {
	if !qt.divided {
		if len(qt.points) < qt.Capacity {
			qt.points = append(qt.points, sp)
			return true
		}
		qt.subdivide()
	}

	for _, child := range qt.children() {
		if child.Boundary.Contains(sp.pt.X, sp.pt.Y) {
			return child.insertStored(sp)
		}
	}
	// Boundary partitioning guarantees one child always accepts a contained
	// point; unreachable for a well-formed boundary.
	return false
}

func (qt *Quadtree) subdivide() {
	nwB, neB, swB, seB := qt.Boundary.quadrants()
	qt.nw = &Quadtree{Boundary: nwB, Capacity: qt.Capacity, seq: qt.seq}
	qt.ne = &Quadtree{Boundary: neB, Capacity: qt.Capacity, seq: qt.seq}
	qt.sw = &Quadtree{Boundary: swB, Capacity: qt.Capacity, seq: qt.seq}
	qt.se = &Quadtree{Boundary: seB, Capacity: qt.Capacity, seq: qt.seq}
	qt.divided = true

	held := qt.points
	qt.points = nil
	for _, sp := range held {
		for _, child := range qt.children() {
			if child.Boundary.Contains(sp.pt.X, sp.pt.Y) {
				child.insertStored(sp)
				break
			}
		}
	}
}

// children returns the four children in fixed NW, NE, SW, SE order.
func (qt *Quadtree) children() [4]*Quadtree {
	return [4]*Quadtree{qt.nw, qt.ne, qt.sw, qt.se}
}

// Query appends to out every point in the subtree inside range, pruning
// sub-trees whose boundary is disjoint from it. Points are appended in
// subtree traversal order (NW, NE, SW, SE depth-first).
func (qt *Quadtree) Query(rng Boundary, out *[]geom.MapPoint) {
	if !qt.Boundary.Intersects(rng) {
		return
	}
	if !qt.divided {
		for _, sp := range qt.points {
			if rng.Contains(sp.pt.X, sp.pt.Y) {
				*out = append(*out, sp.pt)
			}
		}
		return
	}
	for _, child := range qt.children() {
		child.Query(rng, out)
	}
}

// QueryRange appends to out every point within radius of (cx, cy), pruning
// by circle-vs-rectangle distance.
func (qt *Quadtree) QueryRange(cx, cy, radius float64, out *[]geom.MapPoint) {
	if qt.Boundary.DistanceToPoint(cx, cy) > radius {
		return
	}
	if !qt.divided {
		for _, sp := range qt.points {
			if geom.Dist(sp.pt.X, sp.pt.Y, cx, cy) <= radius {
				*out = append(*out, sp.pt)
			}
		}
		return
	}
	for _, child := range qt.children() {
		child.QueryRange(cx, cy, radius, out)
	}
}

// nearestState tracks the best candidate found so far during a nearest
// search; seq breaks ties toward the earlier-inserted point.
type nearestState struct {
	point geom.MapPoint
	dist  float64
	seq   uint64
	found bool
}

// GetNearestPoint returns the nearest point satisfying filter (nil = no
// filter). minDist bounds the initial search radius — pass math.Inf(1) for
// an unrestricted query. Children are visited best-first by boundary
// distance to (qx, qy), pruning any child whose boundary distance is not
// less than the current best distance.
func (qt *Quadtree) GetNearestPoint(qx, qy float64, minDist float64, filter Filter) (geom.MapPoint, float64, bool) {
	st := &nearestStateWithQuery{nearestState: nearestState{dist: minDist}, qx: qx, qy: qy, filter: filter}
	qt.searchNearest(st)
	return st.point, st.dist, st.found
}

type nearestStateWithQuery struct {
	nearestState
	qx, qy float64
	filter Filter
}

func (qt *Quadtree) searchNearest(st *nearestStateWithQuery) {
	if qt.Boundary.DistanceToPoint(st.qx, st.qy) >= st.dist {
		return
	}

	if !qt.divided {
		for _, sp := range qt.points {
			if st.filter != nil && !st.filter(sp.pt) {
				continue
			}
			d := geom.Dist(sp.pt.X, sp.pt.Y, st.qx, st.qy)
			if d < st.dist || (st.found && d == st.dist && sp.seq < st.seq) {
				st.point = sp.pt
				st.dist = d
				st.seq = sp.seq
				st.found = true
			}
		}
		return
	}

	children := qt.children()
	order := []int{0, 1, 2, 3}
	sort.Slice(order, func(i, j int) bool {
		return children[order[i]].Boundary.DistanceToPoint(st.qx, st.qy) <
			children[order[j]].Boundary.DistanceToPoint(st.qx, st.qy)
	})
	for _, idx := range order {
		child := children[idx]
		if child.Boundary.DistanceToPoint(st.qx, st.qy) >= st.dist {
			continue
		}
		child.searchNearest(st)
	}
}
