package lane

import (
	"testing"

	"roadmap/pkg/border"
	"roadmap/pkg/geom"
)

func straightBorder(parentID string, y float64) *border.Border {
	var pts []geom.MapPoint
	for x := 0.0; x <= 100; x += 10 {
		pts = append(pts, geom.MapPoint{X: x, Y: y})
	}
	b := border.New(parentID, pts)
	b.ComputeSValues()
	b.ComputeLength()
	return b
}

func TestSpeedLimitTableDriving(t *testing.T) {
	cases := []struct {
		category Category
		want     float64
	}{
		{CategoryRural, 27.78},
		{CategoryMotorway, 36.11},
		{CategoryTown, 13.89},
		{CategoryLowSpeed, 8.33},
		{CategoryPedestrian, 27.78}, // "other" row
	}
	for _, c := range cases {
		got := SpeedLimitFor(TypeDriving, c.category)
		if got != c.want {
			t.Errorf("SpeedLimitFor(driving, %s) = %v, want %v", c.category, got, c.want)
		}
	}
}

func TestSpeedLimitTableNonDriving(t *testing.T) {
	cases := []struct {
		t    Type
		want float64
	}{
		{TypeParking, 1.39},
		{TypeRestricted, 2.78},
		{TypeSidewalk, 1.39},
		{TypeShoulder, 1.39},
		{TypeBus, 1.39},
		{TypeBiking, 6.94},
		{TypeTram, 13.89},
		{TypeNone, 2.0},
	}
	for _, c := range cases {
		got := SpeedLimitFor(c.t, CategoryRural)
		if got != c.want {
			t.Errorf("SpeedLimitFor(%s, rural) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestNormalizeTypeAliases(t *testing.T) {
	if got := NormalizeType("walking"); got != TypeSidewalk {
		t.Errorf("NormalizeType(walking) = %s, want sidewalk", got)
	}
	if got := NormalizeType("Bicycle"); got != TypeBiking {
		t.Errorf("NormalizeType(Bicycle) = %s, want biking", got)
	}
	if got := NormalizeType("spaceship"); got != TypeNone {
		t.Errorf("NormalizeType(spaceship) = %s, want none", got)
	}
}

func TestNormalizeMaterialUnknownFallsBackToAsphalt(t *testing.T) {
	if got := NormalizeMaterial("moon-dust"); got != MaterialAsphalt {
		t.Errorf("NormalizeMaterial(moon-dust) = %s, want asphalt", got)
	}
	if got := NormalizeMaterial("gravel"); got != MaterialGravel {
		t.Errorf("NormalizeMaterial(gravel) = %s, want gravel", got)
	}
}

func TestLaneWidthConstantOffset(t *testing.T) {
	inner := straightBorder("lane-1", 0)
	outer := straightBorder("lane-1", 4)

	l, err := New("lane-1", "road-1", outer, inner, true, nil, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	w := l.GetWidth(50)
	if w < 4.0-1e-6 || w > 4.0+1e-6 {
		t.Errorf("GetWidth(50) = %v, want 4.0", w)
	}
}

func TestSetTypeDerivesSpeedLimit(t *testing.T) {
	inner := straightBorder("lane-2", 0)
	outer := straightBorder("lane-2", 3)
	l, err := New("lane-2", "road-1", outer, inner, false, nil, 0.5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	l.SetType("driving", "asphalt", CategoryMotorway)
	if l.SpeedLimit != 36.11 {
		t.Errorf("SpeedLimit = %v, want 36.11", l.SpeedLimit)
	}
	if l.Type != TypeDriving || l.Material != MaterialAsphalt {
		t.Errorf("Type/Material = %s/%s, want driving/asphalt", l.Type, l.Material)
	}
}
