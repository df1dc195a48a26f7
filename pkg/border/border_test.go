package border

import (
	"math"
	"testing"

	"roadmap/pkg/geom"
)

func straightPoints(y float64, n int, spacing float64) []geom.MapPoint {
	pts := make([]geom.MapPoint, n)
	for i := 0; i < n; i++ {
		pts[i] = geom.MapPoint{X: float64(i) * spacing, Y: y}
	}
	return pts
}

func TestComputeSValuesStrictlyIncreasing(t *testing.T) {
	b := New("lane-1", []geom.MapPoint{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: 1, Y: 0}, // duplicate, dropped
		{X: 3, Y: 0},
	})
	b.ComputeSValues()

	for i := 1; i < len(b.Points); i++ {
		if b.Points[i].S <= b.Points[i-1].S {
			t.Fatalf("s not strictly increasing at %d: %v <= %v", i, b.Points[i].S, b.Points[i-1].S)
		}
	}
	if got, want := b.ComputeLength(), 3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("ComputeLength() = %v, want %v", got, want)
	}
}

func TestFindNearestSStraightLine(t *testing.T) {
	b := New("lane-1", straightPoints(0, 11, 10))
	b.ComputeSValues()

	s := b.FindNearestS(geom.MapPoint{X: 37, Y: 3})
	if math.Abs(s-37) > 1e-9 {
		t.Errorf("FindNearestS = %v, want 37", s)
	}
}

func TestMakeClippedPreservesParentAndBounds(t *testing.T) {
	b := New("lane-7", straightPoints(0, 11, 10))
	b.ComputeSValues()

	clipped, err := b.MakeClipped(15, 45)
	if err != nil {
		t.Fatalf("MakeClipped: %v", err)
	}
	if clipped.ParentID != "lane-7" {
		t.Errorf("ParentID = %q, want lane-7", clipped.ParentID)
	}
	if math.Abs(clipped.Points[0].S) > 1e-9 {
		t.Errorf("clipped first point s = %v, want 0 (relative)", clipped.Points[0].S)
	}
	if got, want := clipped.ComputeLength(), 30.0; math.Abs(got-want) > 1e-6 {
		t.Errorf("clipped length = %v, want %v", got, want)
	}
}

func TestWidthAtConstantOffset(t *testing.T) {
	inner := New("lane-w", straightPoints(0, 201, 0.5))
	outer := New("lane-w", straightPoints(4, 201, 0.5))
	inner.ComputeSValues()
	outer.ComputeSValues()
	if err := inner.ResampleUniform(0.5); err != nil {
		t.Fatalf("inner.ResampleUniform: %v", err)
	}
	if err := outer.ResampleUniform(0.5); err != nil {
		t.Fatalf("outer.ResampleUniform: %v", err)
	}

	w := WidthAt(inner, outer, 50)
	if math.Abs(w-4.0) > 1e-6 {
		t.Errorf("WidthAt(50) = %v, want 4.0", w)
	}
}

func TestPreprocessPointsForSplineDropsSharpKink(t *testing.T) {
	// A single interior point with a 90-degree turn, well past a 30-degree
	// threshold; only the endpoints should survive.
	b := New("lane-k", []geom.MapPoint{
		{X: 0, Y: 0},
		{X: 10, Y: 10},
		{X: 20, Y: 0},
	})
	out := b.PreprocessPointsForSpline(30)
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2 (spike dropped)", len(out))
	}
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	b := New("lane-c", straightPoints(0, 5, 10))
	b.ComputeSValues()

	clone := b.Clone()
	clone.Points[0].X = 999

	if b.Points[0].X == 999 {
		t.Fatalf("mutating clone.Points affected the original border")
	}
	if clone.ParentID != b.ParentID {
		t.Errorf("clone.ParentID = %q, want %q", clone.ParentID, b.ParentID)
	}
}

func TestPreprocessPointsForSplineKeepsGentleTurn(t *testing.T) {
	// A shallow turn under the threshold should survive.
	b := New("lane-g", []geom.MapPoint{
		{X: 0, Y: 0},
		{X: 10, Y: 0.1},
		{X: 20, Y: 0},
	})
	out := b.PreprocessPointsForSpline(30)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3 (gentle turn kept)", len(out))
	}
}
