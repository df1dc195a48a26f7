// Package feed defines BorderFeed: the record shapes a map-building
// collaborator must produce, and the field-normalization rules applied
// to every record on ingest.
package feed

import (
	"math"

	"roadmap/pkg/lane"
)

// ReferenceLineRecord is the centerline polyline of a road segment, one per
// lane's parent road geometry.
type ReferenceLineRecord struct {
	ID                      string
	Points                  [][2]float64 // ordered (x,y), projected metric frame
	StreetName              string
	Turn                    string
	Category                lane.Category
	OneWay                  bool
	LineType                string
	SuccessorID             string
	PredecessorID           string
	DatasourceDescriptionID int
}

// LaneBorderRecord is the polyline of one side of a single lane, attached
// to a parent reference line.
type LaneBorderRecord struct {
	ID                      string
	Points                  [][2]float64
	ParentID                string
	Material                string
	LineType                string
	DatasourceDescriptionID int
}

// BorderFeed is the external collaborator the map core ingests records
// from. Implementations may source records from flat files, a database, or
// (osmfeed) an OSM PBF extract.
type BorderFeed interface {
	ReferenceLines() ([]ReferenceLineRecord, error)
	LaneBorders() ([]LaneBorderRecord, error)
}

// NullString is the normalized value for a missing string field.
const NullString = "NULL"

// NormalizeString returns NullString for an empty input, else s unchanged.
func NormalizeString(s string) string {
	if s == "" {
		return NullString
	}
	return s
}

// roundPlaces is 10^6, implementing "coordinates rounded to six decimal
// places on ingest".
const roundPlaces = 1e6

// RoundCoord rounds a projected coordinate to six decimal places.
func RoundCoord(v float64) float64 {
	return math.Round(v*roundPlaces) / roundPlaces
}

// RoundPoint rounds both components of a projected (x, y) pair.
func RoundPoint(p [2]float64) [2]float64 {
	return [2]float64{RoundCoord(p[0]), RoundCoord(p[1])}
}
