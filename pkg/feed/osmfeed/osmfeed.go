// Package osmfeed implements feed.BorderFeed over an OSM PBF extract: it
// applies way/node accessibility and direction-of-travel rules to
// produce reference-line and lane-border records for map construction.
package osmfeed

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"

	"roadmap/pkg/feed"
	"roadmap/pkg/geo"
	"roadmap/pkg/lane"
)

// carHighways lists highway tag values accessible by car.
var carHighways = map[string]bool{
	"motorway":       true,
	"motorway_link":  true,
	"trunk":          true,
	"trunk_link":     true,
	"primary":        true,
	"primary_link":   true,
	"secondary":      true,
	"secondary_link": true,
	"tertiary":       true,
	"tertiary_link":  true,
	"unclassified":   true,
	"residential":    true,
	"living_street":  true,
	"service":        true,
}

// categoryByHighway maps an OSM highway tag to the lane-graph road category
// used for speed-limit derivation.
var categoryByHighway = map[string]lane.Category{
	"motorway":      lane.CategoryMotorway,
	"motorway_link": lane.CategoryMotorway,
	"trunk":         lane.CategoryRural,
	"trunk_link":    lane.CategoryRural,
	"primary":       lane.CategoryRural,
	"primary_link":  lane.CategoryRural,
	"secondary":     lane.CategoryRural,
	"secondary_link": lane.CategoryRural,
	"tertiary":      lane.CategoryTown,
	"tertiary_link": lane.CategoryTown,
	"unclassified":  lane.CategoryTown,
	"residential":   lane.CategoryTown,
	"living_street": lane.CategoryLowSpeed,
	"service":       lane.CategoryLowSpeed,
}

// defaultLaneHalfWidth is used to synthesize left/right lane-border
// offsets from a way's centerline; OSM way geometry alone carries no lane
// boundary data.
const defaultLaneHalfWidth = 1.75 // meters

func isCarAccessible(tags osm.Tags) bool {
	hw := tags.Find("highway")
	if !carHighways[hw] {
		return false
	}
	if tags.Find("area") == "yes" {
		return false
	}
	access := tags.Find("access")
	if access == "no" || access == "private" {
		return false
	}
	if tags.Find("motor_vehicle") == "no" {
		return false
	}
	return true
}

// directionFlags returns (forward, backward) based on highway type and
// oneway tags.
func directionFlags(tags osm.Tags) (forward, backward bool) {
	forward = true
	backward = true

	hw := tags.Find("highway")
	if hw == "motorway" || hw == "motorway_link" || tags.Find("junction") == "roundabout" {
		backward = false
	}

	switch tags.Find("oneway") {
	case "yes", "true", "1":
		forward, backward = true, false
	case "-1", "reverse":
		forward, backward = false, true
	case "no":
		forward, backward = true, true
	case "reversible":
		forward, backward = false, false
	}
	return forward, backward
}

type wayInfo struct {
	ID       string
	NodeIDs  []osm.NodeID
	Category lane.Category
	Forward  bool
	Backward bool
	Street   string
	Turn     string
}

// Feed adapts a parsed OSM PBF extract into feed.BorderFeed: one reference
// line and two lane borders (left/right, offset from the centerline by
// defaultLaneHalfWidth) per accessible way.
type Feed struct {
	refs    []feed.ReferenceLineRecord
	borders []feed.LaneBorderRecord
}

// Parse scans rs (an OSM PBF extract) and builds a Feed. rs must support
// seeking because nodes and ways are read in separate passes, mirroring the
// two-pass scan this module's graph-construction code was built on.
func Parse(ctx context.Context, rs io.ReadSeeker) (*Feed, error) {
	ways, referencedNodes, err := scanWays(ctx, rs)
	if err != nil {
		return nil, fmt.Errorf("osmfeed: %w", err)
	}

	nodePos, originLat, originLon, err := scanNodes(ctx, rs, referencedNodes)
	if err != nil {
		return nil, fmt.Errorf("osmfeed: %w", err)
	}

	f := &Feed{}
	for _, w := range ways {
		pts := make([][2]float64, 0, len(w.NodeIDs))
		for _, id := range w.NodeIDs {
			ll, ok := nodePos[id]
			if !ok {
				continue
			}
			x, y := geo.ProjectLocal(originLat, originLon, ll.Lat(), ll.Lon())
			pts = append(pts, [2]float64{x, y})
		}
		if len(pts) < 2 {
			continue
		}

		oneWay := w.Forward != w.Backward
		f.refs = append(f.refs, feed.ReferenceLineRecord{
			ID:         w.ID,
			Points:     roundAll(pts),
			StreetName: feed.NormalizeString(w.Street),
			Turn:       feed.NormalizeString(w.Turn),
			Category:   w.Category,
			OneWay:     oneWay,
			LineType:   feed.NullString,
		})

		left, right := offsetBorders(pts, defaultLaneHalfWidth)
		f.borders = append(f.borders,
			feed.LaneBorderRecord{ID: w.ID + ":left", Points: roundAll(left), ParentID: w.ID, Material: "asphalt", LineType: "driving"},
			feed.LaneBorderRecord{ID: w.ID + ":right", Points: roundAll(right), ParentID: w.ID, Material: "asphalt", LineType: "driving"},
		)
	}

	return f, nil
}

func (f *Feed) ReferenceLines() ([]feed.ReferenceLineRecord, error) { return f.refs, nil }
func (f *Feed) LaneBorders() ([]feed.LaneBorderRecord, error)       { return f.borders, nil }

func scanWays(ctx context.Context, rs io.ReadSeeker) ([]wayInfo, map[osm.NodeID]struct{}, error) {
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	defer scanner.Close()

	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok || !isCarAccessible(w.Tags) || len(w.Nodes) < 2 {
			continue
		}
		fwd, bwd := directionFlags(w.Tags)
		if !fwd && !bwd {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}

		category, ok := categoryByHighway[w.Tags.Find("highway")]
		if !ok {
			category = lane.CategoryUnknown
		}

		ways = append(ways, wayInfo{
			ID:       fmt.Sprintf("way/%d", w.ID),
			NodeIDs:  nodeIDs,
			Category: category,
			Forward:  fwd,
			Backward: bwd,
			Street:   w.Tags.Find("name"),
			Turn:     w.Tags.Find("turn"),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("pass 1 (ways): %w", err)
	}

	log.Printf("osmfeed: pass 1 complete: %d ways, %d referenced nodes", len(ways), len(referencedNodes))
	return ways, referencedNodes, nil
}

func scanNodes(ctx context.Context, rs io.ReadSeeker, referencedNodes map[osm.NodeID]struct{}) (map[osm.NodeID]orb.Point, float64, float64, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, 0, 0, fmt.Errorf("seek for pass 2: %w", err)
	}

	nodePos := make(map[osm.NodeID]orb.Point, len(referencedNodes))
	var originLat, originLon float64
	haveOrigin := false

	scanner := osmpbf.New(ctx, rs, 1)
	scanner.SkipWays = true
	scanner.SkipRelations = true
	defer scanner.Close()

	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		nodePos[n.ID] = orb.Point{n.Lon, n.Lat}
		if !haveOrigin {
			originLat, originLon = n.Lat, n.Lon
			haveOrigin = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, 0, fmt.Errorf("pass 2 (nodes): %w", err)
	}

	log.Printf("osmfeed: pass 2 complete: %d node coordinates collected", len(nodePos))
	return nodePos, originLat, originLon, nil
}

// offsetBorders synthesizes a left and right border by shifting the
// centerline perpendicular to its local tangent direction at each vertex.
func offsetBorders(center [][2]float64, halfWidth float64) (left, right [][2]float64) {
	n := len(center)
	left = make([][2]float64, n)
	right = make([][2]float64, n)

	for i, p := range center {
		var dx, dy float64
		switch {
		case i == 0:
			dx, dy = center[1][0]-p[0], center[1][1]-p[1]
		case i == n-1:
			dx, dy = p[0]-center[i-1][0], p[1]-center[i-1][1]
		default:
			dx, dy = center[i+1][0]-center[i-1][0], center[i+1][1]-center[i-1][1]
		}

		length := math.Hypot(dx, dy)
		var nx, ny float64
		if length > 0 {
			nx, ny = -dy/length, dx/length
		}

		left[i] = [2]float64{p[0] + nx*halfWidth, p[1] + ny*halfWidth}
		right[i] = [2]float64{p[0] - nx*halfWidth, p[1] - ny*halfWidth}
	}
	return left, right
}

func roundAll(pts [][2]float64) [][2]float64 {
	out := make([][2]float64, len(pts))
	for i, p := range pts {
		out[i] = feed.RoundPoint(p)
	}
	return out
}
