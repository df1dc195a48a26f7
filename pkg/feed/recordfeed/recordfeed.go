// Package recordfeed implements feed.BorderFeed over pre-loaded record
// slices (e.g. parsed from flat files or a database export), spatially
// indexing reference lines with an R-tree so map construction can look up
// "which reference lines are near this lane border" without a linear scan.
package recordfeed

import (
	"github.com/tidwall/rtree"

	"roadmap/pkg/feed"
	"roadmap/pkg/lane"
)

// Feed adapts raw reference-line and lane-border records into
// feed.BorderFeed, applying the ingest normalization rules and indexing
// reference lines by bounding box.
type Feed struct {
	refs    []feed.ReferenceLineRecord
	borders []feed.LaneBorderRecord
	index   rtree.RTreeG[int] // bbox -> index into refs
}

// New normalizes and indexes refs and borders.
func New(refs []feed.ReferenceLineRecord, borders []feed.LaneBorderRecord) *Feed {
	f := &Feed{
		refs:    make([]feed.ReferenceLineRecord, 0, len(refs)),
		borders: make([]feed.LaneBorderRecord, 0, len(borders)),
	}
	for _, r := range refs {
		norm := normalizeReferenceLine(r)
		idx := len(f.refs)
		f.refs = append(f.refs, norm)
		min, max := bbox(norm.Points)
		f.index.Insert(min, max, idx)
	}
	for _, b := range borders {
		f.borders = append(f.borders, normalizeLaneBorder(b))
	}
	return f
}

// ReferenceLines returns the normalized reference-line records.
func (f *Feed) ReferenceLines() ([]feed.ReferenceLineRecord, error) {
	return f.refs, nil
}

// LaneBorders returns the normalized lane-border records.
func (f *Feed) LaneBorders() ([]feed.LaneBorderRecord, error) {
	return f.borders, nil
}

// QueryReferenceLines returns the ids of reference lines whose bounding box
// intersects the square window of the given radius around (x, y).
func (f *Feed) QueryReferenceLines(x, y, radius float64) []string {
	min := [2]float64{x - radius, y - radius}
	max := [2]float64{x + radius, y + radius}

	var ids []string
	f.index.Search(min, max, func(_, _ [2]float64, idx int) bool {
		ids = append(ids, f.refs[idx].ID)
		return true
	})
	return ids
}

func bbox(points [][2]float64) (min, max [2]float64) {
	if len(points) == 0 {
		return
	}
	min, max = points[0], points[0]
	for _, p := range points[1:] {
		if p[0] < min[0] {
			min[0] = p[0]
		}
		if p[1] < min[1] {
			min[1] = p[1]
		}
		if p[0] > max[0] {
			max[0] = p[0]
		}
		if p[1] > max[1] {
			max[1] = p[1]
		}
	}
	return
}

func normalizeReferenceLine(r feed.ReferenceLineRecord) feed.ReferenceLineRecord {
	r.StreetName = feed.NormalizeString(r.StreetName)
	r.Turn = feed.NormalizeString(r.Turn)
	r.LineType = feed.NormalizeString(r.LineType)
	r.SuccessorID = feed.NormalizeString(r.SuccessorID)
	r.PredecessorID = feed.NormalizeString(r.PredecessorID)
	if r.Category == "" {
		r.Category = lane.CategoryUnknown
	}
	pts := make([][2]float64, len(r.Points))
	for i, p := range r.Points {
		pts[i] = feed.RoundPoint(p)
	}
	r.Points = pts
	return r
}

func normalizeLaneBorder(b feed.LaneBorderRecord) feed.LaneBorderRecord {
	b.Material = feed.NormalizeString(b.Material)
	b.LineType = feed.NormalizeString(b.LineType)
	pts := make([][2]float64, len(b.Points))
	for i, p := range b.Points {
		pts[i] = feed.RoundPoint(p)
	}
	b.Points = pts
	return b
}
