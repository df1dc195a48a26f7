// Package mapbuild assembles a mapmodel.Map from a feed.BorderFeed: pairing
// lane-border records into Lanes, grouping them into Roads by reference
// line, and seeding the Map's quadtree and lane graph. Shared by the
// cmd/mapbuild and cmd/mapserver entry points so both build the same way.
package mapbuild

import (
	"math"

	"go.uber.org/zap"

	"roadmap/pkg/border"
	"roadmap/pkg/errs"
	"roadmap/pkg/feed"
	"roadmap/pkg/geom"
	"roadmap/pkg/lane"
	"roadmap/pkg/mapmodel"
	"roadmap/pkg/quadtree"
	"roadmap/pkg/roadgraph"
)

// LaneSpacingS is the default resampling spacing passed to lane.New.
const LaneSpacingS = 0.5

// orphanSearchRadius bounds the proximity lookup used to recover a lane
// border's parent reference line when its parent_id is missing.
const orphanSearchRadius = 5.0

// proximityFeed is implemented by BorderFeed adapters that index reference
// lines spatially (recordfeed.Feed). FromFeed uses it to recover a lane
// border's parent reference line by proximity when parent_id is absent,
// instead of dropping the border outright.
type proximityFeed interface {
	QueryReferenceLines(x, y, radius float64) []string
}

// FromFeed builds a Map from f: one Road per reference line, one Lane per
// left/right pair of lane-border records sharing a reference line's id as
// parent_id. Records that fail to build a valid border (degenerate or
// too-short polylines) are logged and skipped — ingestion continues over
// the accepted subset, per the error-handling design's propagation policy.
func FromFeed(f feed.BorderFeed, log *zap.Logger) (*mapmodel.Map, error) {
	refs, err := f.ReferenceLines()
	if err != nil {
		return nil, err
	}
	laneBorders, err := f.LaneBorders()
	if err != nil {
		return nil, err
	}

	bordersByParent := make(map[string][]feed.LaneBorderRecord)
	var orphans []feed.LaneBorderRecord
	for _, lb := range laneBorders {
		if lb.ParentID == "" || lb.ParentID == feed.NullString {
			orphans = append(orphans, lb)
			continue
		}
		bordersByParent[lb.ParentID] = append(bordersByParent[lb.ParentID], lb)
	}

	if pf, ok := f.(proximityFeed); ok {
		for _, lb := range orphans {
			cx, cy := centroid(lb.Points)
			candidates := pf.QueryReferenceLines(cx, cy, orphanSearchRadius)
			if len(candidates) == 0 {
				log.Debug("mapbuild: orphan lane border has no nearby reference line, dropping", zap.String("border_id", lb.ID))
				continue
			}
			parentID := candidates[0]
			bordersByParent[parentID] = append(bordersByParent[parentID], lb)
			log.Debug("mapbuild: recovered orphan lane border's parent by proximity",
				zap.String("border_id", lb.ID), zap.String("parent_id", parentID))
		}
	} else if len(orphans) > 0 {
		log.Debug("mapbuild: feed has no proximity index, dropping orphan lane borders", zap.Int("count", len(orphans)))
	}

	var lanes []*lane.Lane
	var roads []*lane.Road
	var connections []roadgraph.Connection
	var skipped int

	for _, ref := range refs {
		sides, ok := bordersByParent[ref.ID]
		if !ok || len(sides) < 2 {
			skipped++
			log.Debug("mapbuild: reference line without a left/right border pair, skipping", zap.String("ref_id", ref.ID))
			continue
		}

		refBorder := recordToBorder(ref.ID, ref.Points)
		refBorder.ComputeSValues()
		refBorder.ComputeLength()

		left := recordToBorder(ref.ID, sides[0].Points)
		right := recordToBorder(ref.ID, sides[1].Points)
		left.ComputeSValues()
		right.ComputeSValues()

		laneID := ref.ID
		l, err := lane.New(laneID, ref.ID, left, right, true, refBorder, LaneSpacingS)
		if err != nil {
			skipped++
			log.Warn("mapbuild: failed to build lane, skipping", zap.String("lane_id", laneID), zap.Error(err))
			continue
		}
		l.SetType(sides[0].LineType, sides[0].Material, ref.Category)

		road := lane.NewRoad(ref.ID, ref.StreetName, ref.Category, ref.OneWay)
		road.AddLane(laneID)

		lanes = append(lanes, l)
		roads = append(roads, road)

		if ref.SuccessorID != feed.NullString && ref.SuccessorID != "" {
			connections = append(connections, roadgraph.Connection{FromID: laneID, ToID: ref.SuccessorID, Weight: l.Length})
		}
	}

	if len(lanes) == 0 {
		return nil, errs.New(errs.InvalidInput, "mapbuild: no lanes could be built from the feed")
	}

	bounds := computeBounds(lanes)
	m := mapmodel.New(bounds, quadtree.DefaultCapacity, lanes, roads, connections)

	log.Info("mapbuild: map assembled",
		zap.Int("lanes", len(lanes)),
		zap.Int("roads", len(roads)),
		zap.Int("skipped_references", skipped),
	)
	return m, nil
}

func centroid(pts [][2]float64) (x, y float64) {
	if len(pts) == 0 {
		return 0, 0
	}
	for _, p := range pts {
		x += p[0]
		y += p[1]
	}
	n := float64(len(pts))
	return x / n, y / n
}

func recordToBorder(parentID string, pts [][2]float64) *border.Border {
	mapPoints := make([]geom.MapPoint, len(pts))
	for i, p := range pts {
		mapPoints[i] = geom.MapPoint{X: p[0], Y: p[1]}
	}
	return border.New(parentID, mapPoints)
}

func computeBounds(lanes []*lane.Lane) quadtree.Boundary {
	b := quadtree.Boundary{XMin: math.Inf(1), XMax: math.Inf(-1), YMin: math.Inf(1), YMax: math.Inf(-1)}
	for _, l := range lanes {
		for _, side := range [][]geom.MapPoint{l.Borders.Inner.InterpolatedPoints, l.Borders.Outer.InterpolatedPoints} {
			for _, p := range side {
				b.XMin = math.Min(b.XMin, p.X)
				b.XMax = math.Max(b.XMax, p.X)
				b.YMin = math.Min(b.YMin, p.Y)
				b.YMax = math.Max(b.YMax, p.Y)
			}
		}
	}
	const margin = 10
	b.XMin -= margin
	b.XMax += margin
	b.YMin -= margin
	b.YMax += margin
	return b
}
