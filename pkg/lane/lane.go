// Package lane implements Lane and Road: a drivable segment paired from
// two Borders, its material/type classification, and the frozen
// speed-limit derivation table.
package lane

import (
	"strings"

	"roadmap/pkg/border"
	"roadmap/pkg/errs"
)

// Material is the surface classification of a lane.
type Material string

const (
	MaterialAsphalt    Material = "asphalt"
	MaterialConcrete   Material = "concrete"
	MaterialPavement   Material = "pavement"
	MaterialCobble     Material = "cobble"
	MaterialVegetation Material = "vegetation"
	MaterialSoil       Material = "soil"
	MaterialGravel     Material = "gravel"
)

var knownMaterials = map[Material]bool{
	MaterialAsphalt: true, MaterialConcrete: true, MaterialPavement: true,
	MaterialCobble: true, MaterialVegetation: true, MaterialSoil: true, MaterialGravel: true,
}

// Type is the lane-use classification driving speed-limit derivation.
type Type string

const (
	TypeDriving    Type = "driving"
	TypeParking    Type = "parking"
	TypeRestricted Type = "restricted"
	TypeSidewalk   Type = "sidewalk"
	TypeShoulder   Type = "shoulder"
	TypeBus        Type = "bus"
	TypeBiking     Type = "biking"
	TypeTram       Type = "tram"
	TypeNone       Type = "none"
)

// typeAliases maps incoming free-form strings to the canonical Type before
// lookup, per the External Interfaces type-string-alias table.
var typeAliases = map[string]Type{
	"walking":  TypeSidewalk,
	"Bicycle":  TypeBiking,
	"driving":  TypeDriving,
	"parking":  TypeParking,
	"restricted": TypeRestricted,
	"sidewalk": TypeSidewalk,
	"shoulder": TypeShoulder,
	"bus":      TypeBus,
	"biking":   TypeBiking,
	"tram":     TypeTram,
	"none":     TypeNone,
}

// Category is the road category used alongside Type to select a speed limit.
type Category string

const (
	CategoryUnknown   Category = "unknown"
	CategoryRural     Category = "rural"
	CategoryMotorway  Category = "motorway"
	CategoryTown      Category = "town"
	CategoryLowSpeed  Category = "low_speed"
	CategoryPedestrian Category = "pedestrian"
	CategoryBicycle   Category = "bicycle"
)

const defaultSpeedLimit = 2.0 // m/s, none/default row

// speedLimit is the frozen (type, category) -> m/s table from the External
// Interfaces section. Rows keyed "any" are represented with a blank category.
var speedLimit = map[Type]map[Category]float64{
	TypeDriving: {
		CategoryRural:    27.78,
		CategoryMotorway: 36.11,
		CategoryTown:     13.89,
		CategoryLowSpeed: 8.33,
		"":               27.78, // other
	},
	TypeParking:    {"": 1.39},
	TypeRestricted: {"": 2.78},
	TypeSidewalk:   {"": 1.39},
	TypeShoulder:   {"": 1.39},
	TypeBus:        {"": 1.39},
	TypeBiking:     {"": 6.94},
	TypeTram:       {"": 13.89},
}

// NormalizeType resolves a free-form type string (possibly aliased) to a
// canonical Type. Unrecognized strings fall back to TypeNone.
func NormalizeType(s string) Type {
	if t, ok := typeAliases[s]; ok {
		return t
	}
	if t, ok := typeAliases[strings.ToLower(s)]; ok {
		return t
	}
	return TypeNone
}

// NormalizeMaterial resolves a free-form material string to a known
// Material, falling back to MaterialAsphalt.
func NormalizeMaterial(s string) Material {
	m := Material(strings.ToLower(s))
	if knownMaterials[m] {
		return m
	}
	return MaterialAsphalt
}

// SpeedLimitFor looks up the frozen table for (t, category). driving rows
// are category-specific; all other known types use their "any" row;
// TypeNone (and any type absent from the table) returns the 2.0 m/s default.
func SpeedLimitFor(t Type, category Category) float64 {
	row, ok := speedLimit[t]
	if !ok {
		return defaultSpeedLimit
	}
	if t == TypeDriving {
		if v, ok := row[category]; ok {
			return v
		}
		return row[""]
	}
	return row[""]
}

// Lane is a drivable segment paired from an inner/outer border, with a
// derived center border, classification, and speed limit.
type Lane struct {
	ID              string
	RoadID          string
	Borders         *border.Borders
	Type            Type
	Material        Material
	SpeedLimit      float64
	LeftOfReference bool
	Length          float64
}

// New constructs a Lane from a left and right Border. Inner/outer selection,
// reparameterization, resampling, and center derivation are delegated to
// border.Build. Classification defaults to TypeNone / MaterialAsphalt until
// SetType is called.
func New(id, roadID string, left, right *border.Border, leftOfReference bool, reference *border.Border, spacingS float64) (*Lane, error) {
	borders, err := border.Build(id, left, right, leftOfReference, reference, spacingS)
	if err != nil {
		return nil, errs.Wrap(errs.InvalidInput, err, "lane: failed to build borders for "+id)
	}
	return &Lane{
		ID:              id,
		RoadID:          roadID,
		Borders:         borders,
		Type:            TypeNone,
		Material:        MaterialAsphalt,
		SpeedLimit:      defaultSpeedLimit,
		LeftOfReference: leftOfReference,
		Length:          borders.Center.Length,
	}, nil
}

// SetType normalizes typeStr and materialStr and derives SpeedLimit from the
// frozen table keyed by (type, roadCategory).
func (l *Lane) SetType(typeStr, materialStr string, roadCategory Category) {
	l.Type = NormalizeType(typeStr)
	l.Material = NormalizeMaterial(materialStr)
	l.SpeedLimit = SpeedLimitFor(l.Type, roadCategory)
}

// GetWidth returns dist(inner(s), outer(s)), clamped to the border domain.
func (l *Lane) GetWidth(s float64) float64 {
	return border.WidthAt(l.Borders.Inner, l.Borders.Outer, s)
}

// Road is a named group of lanes sharing a reference line; each lane
// belongs to exactly one road.
type Road struct {
	ID       string
	Name     string
	Category Category
	OneWay   bool
	LaneIDs  []string
}

// NewRoad returns an empty Road; lane ids are attached via AddLane.
func NewRoad(id, name string, category Category, oneWay bool) *Road {
	return &Road{ID: id, Name: name, Category: category, OneWay: oneWay}
}

// AddLane appends laneID to the road's lane set if not already present.
func (r *Road) AddLane(laneID string) {
	for _, id := range r.LaneIDs {
		if id == laneID {
			return
		}
	}
	r.LaneIDs = append(r.LaneIDs, laneID)
}
