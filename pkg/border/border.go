// Package border implements Border and Borders: an ordered polyline
// along a lane edge, its optional natural-cubic-spline
// smoothing, a uniformly resampled "interpolated points" view, and the
// operations a Lane needs to pair two borders into inner/outer/center.
package border

import (
	"math"
	"sort"

	"roadmap/pkg/errs"
	"roadmap/pkg/geom"
	"roadmap/pkg/spline"
)

const dedupEps = 1e-6

// Border carries a raw polyline, an optional spline fit over it, and a
// uniform-spacing resample used for width/center queries and the quadtree
// seed set.
type Border struct {
	ParentID           string
	Points             []geom.MapPoint // ordered, s ascending after ComputeSValues
	Spline             *spline.BorderSpline
	InterpolatedPoints []geom.MapPoint
	Length             float64
}

// New creates a Border from an ordered polyline. It does not compute s
// values or build the spline; call ComputeSValues and InitializeSpline
// explicitly (mirrors the source's incremental construction).
func New(parentID string, points []geom.MapPoint) *Border {
	pts := make([]geom.MapPoint, len(points))
	copy(pts, points)
	for i := range pts {
		pts[i].ParentID = parentID
	}
	return &Border{ParentID: parentID, Points: pts}
}

// ComputeSValues sets points[0].S = 0 and points[i].S = points[i-1].S +
// dist(points[i-1], points[i]), dropping points within 1e-6 chord length of
// their predecessor so the resulting s-sequence is strictly increasing.
func (b *Border) ComputeSValues() {
	if len(b.Points) == 0 {
		return
	}
	out := make([]geom.MapPoint, 0, len(b.Points))
	b.Points[0].S = 0
	out = append(out, b.Points[0])

	for i := 1; i < len(b.Points); i++ {
		d := geom.DistPoints(out[len(out)-1], b.Points[i])
		if d < dedupEps {
			continue
		}
		p := b.Points[i]
		p.S = out[len(out)-1].S + d
		out = append(out, p)
	}
	b.Points = out
}

// ComputeLength sets and returns Length = points.back().s - points.front().s.
// ComputeSValues must have been called first.
func (b *Border) ComputeLength() float64 {
	if len(b.Points) == 0 {
		b.Length = 0
		return 0
	}
	b.Length = b.Points[len(b.Points)-1].S - b.Points[0].S
	return b.Length
}

// InitializeSpline builds the BorderSpline from the current points.
func (b *Border) InitializeSpline() error {
	sp, err := spline.New(b.Points)
	if err != nil {
		return err
	}
	b.Spline = sp
	return nil
}

// InterpolateBorder evaluates the spline at each s in sValues, producing
// InterpolatedPoints in order. Requires InitializeSpline to have been called.
func (b *Border) InterpolateBorder(sValues []float64) error {
	if b.Spline == nil {
		return errs.New(errs.InvalidInput, "border: InterpolateBorder called without a spline")
	}
	pts := make([]geom.MapPoint, len(sValues))
	for i, s := range sValues {
		x, y := b.Spline.PointAt(s)
		pts[i] = geom.MapPoint{X: x, Y: y, S: s, ParentID: b.ParentID}
	}
	b.InterpolatedPoints = pts
	return nil
}

// ResampleUniform builds InterpolatedPoints at uniform spacing (in s) from
// the first to the last knot of the border's domain, via InitializeSpline +
// InterpolateBorder.
func (b *Border) ResampleUniform(spacingS float64) error {
	if b.Spline == nil {
		if err := b.InitializeSpline(); err != nil {
			return err
		}
	}
	total := b.Spline.TotalLength()
	start := b.Points[0].S
	if spacingS <= 0 {
		spacingS = 0.5
	}
	var sValues []float64
	for s := 0.0; s < total; s += spacingS {
		sValues = append(sValues, start+s)
	}
	sValues = append(sValues, start+total)
	return b.InterpolateBorder(sValues)
}

// PreprocessPointsForSpline drops internal points whose incoming/outgoing
// turning angle exceeds angleThresholdDeg, to remove sharp kinks that would
// destabilize the spline fit. Endpoints are always kept.
func (b *Border) PreprocessPointsForSpline(angleThresholdDeg float64) []geom.MapPoint {
	if len(b.Points) < 3 {
		out := make([]geom.MapPoint, len(b.Points))
		copy(out, b.Points)
		return out
	}

	thresholdRad := angleThresholdDeg * math.Pi / 180
	out := make([]geom.MapPoint, 0, len(b.Points))
	out = append(out, b.Points[0])

	for i := 1; i < len(b.Points)-1; i++ {
		prev := b.Points[i-1]
		cur := b.Points[i]
		next := b.Points[i+1]

		inX, inY := cur.X-prev.X, cur.Y-prev.Y
		outX, outY := next.X-cur.X, next.Y-cur.Y

		inLen := math.Hypot(inX, inY)
		outLen := math.Hypot(outX, outY)
		if inLen == 0 || outLen == 0 {
			continue // coincident with a neighbor; drop
		}

		cosAngle := (inX*outX + inY*outY) / (inLen * outLen)
		cosAngle = math.Max(-1, math.Min(1, cosAngle))
		angle := math.Acos(cosAngle)

		if angle <= thresholdRad {
			out = append(out, cur)
		}
	}

	out = append(out, b.Points[len(b.Points)-1])
	return out
}

// FindNearestS returns the arc-length of the nearest point on the current
// polyline to p, via piecewise-linear projection onto each segment. Ties are
// broken toward the smaller s.
func (b *Border) FindNearestS(p geom.MapPoint) float64 {
	if len(b.Points) == 0 {
		return 0
	}
	if len(b.Points) == 1 {
		return b.Points[0].S
	}

	bestDist := math.Inf(1)
	bestS := b.Points[0].S

	for i := 0; i < len(b.Points)-1; i++ {
		a := b.Points[i]
		c := b.Points[i+1]
		dist, t := geom.PointToSegment(p.X, p.Y, a.X, a.Y, c.X, c.Y)
		s := a.S + t*(c.S-a.S)
		if dist < bestDist || (dist == bestDist && s < bestS) {
			bestDist = dist
			bestS = s
		}
	}
	return bestS
}

// pointAtLinear evaluates the raw polyline (not the spline) at arc-length s
// via piecewise-linear interpolation, clamping to the domain.
func (b *Border) pointAtLinear(s float64) geom.MapPoint {
	n := len(b.Points)
	if n == 0 {
		return geom.MapPoint{}
	}
	if s <= b.Points[0].S {
		return b.Points[0]
	}
	if s >= b.Points[n-1].S {
		return b.Points[n-1]
	}

	i := sort.Search(n, func(i int) bool { return b.Points[i].S > s }) - 1
	if i < 0 {
		i = 0
	}
	if i > n-2 {
		i = n - 2
	}
	a, c := b.Points[i], b.Points[i+1]
	span := c.S - a.S
	var t float64
	if span > 0 {
		t = (s - a.S) / span
	}
	return geom.MapPoint{
		X:        a.X + t*(c.X-a.X),
		Y:        a.Y + t*(c.Y-a.Y),
		S:        s,
		ParentID: b.ParentID,
	}
}

// MakeClipped returns a new Border whose points are the subset of b.Points
// with s in [sStart, sEnd], plus interpolated endpoints at the boundaries.
// The parent id is preserved.
func (b *Border) MakeClipped(sStart, sEnd float64) (*Border, error) {
	if sEnd < sStart {
		return nil, errs.New(errs.InvalidInput, "border: MakeClipped requires sStart <= sEnd")
	}

	pts := []geom.MapPoint{b.pointAtLinear(sStart)}
	for _, p := range b.Points {
		if p.S > sStart && p.S < sEnd {
			pts = append(pts, p)
		}
	}
	pts = append(pts, b.pointAtLinear(sEnd))

	clipped := New(b.ParentID, pts)
	clipped.ComputeSValues()
	clipped.ComputeLength()
	return clipped, nil
}

// ReparameterizeBasedOnReference projects each point of reference onto b to
// compute an s mapping, then reassigns b's own point s-values into the
// reference line's s domain via piecewise-linear interpolation of that
// mapping. This is how a lane border's s-parameterization is aligned to its
// road's reference line.
func (b *Border) ReparameterizeBasedOnReference(reference *Border) error {
	if len(reference.Points) == 0 || len(b.Points) == 0 {
		return errs.New(errs.InvalidInput, "border: ReparameterizeBasedOnReference requires non-empty borders")
	}

	type pair struct{ thisS, refS float64 }
	pairs := make([]pair, 0, len(reference.Points))
	for _, rp := range reference.Points {
		thisS := b.FindNearestS(rp)
		pairs = append(pairs, pair{thisS: thisS, refS: rp.S})
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].thisS < pairs[j].thisS })

	// Deduplicate equal thisS keys, keeping the first (smallest refS, since
	// reference.Points is s-ascending and we sorted stably on thisS).
	dedup := pairs[:0:0]
	for i, pr := range pairs {
		if i == 0 || pr.thisS > dedup[len(dedup)-1].thisS {
			dedup = append(dedup, pr)
		}
	}
	pairs = dedup
	if len(pairs) < 2 {
		return errs.New(errs.NotFound, "border: reference projects to a single point; cannot reparameterize")
	}

	lookup := func(s float64) float64 {
		n := len(pairs)
		if s <= pairs[0].thisS {
			return pairs[0].refS
		}
		if s >= pairs[n-1].thisS {
			return pairs[n-1].refS
		}
		i := sort.Search(n, func(i int) bool { return pairs[i].thisS > s }) - 1
		if i < 0 {
			i = 0
		}
		if i > n-2 {
			i = n - 2
		}
		a, c := pairs[i], pairs[i+1]
		t := (s - a.thisS) / (c.thisS - a.thisS)
		return a.refS + t*(c.refS-a.refS)
	}

	for i := range b.Points {
		b.Points[i].S = lookup(b.Points[i].S)
	}
	b.ComputeLength()
	return nil
}

// Clone returns a deep copy of b's point slices. The underlying spline (if
// built) is shared rather than rebuilt: it is immutable once fit, and its
// coefficients don't depend on which Border instance holds the pointer.
func (b *Border) Clone() *Border {
	c := *b
	if b.Points != nil {
		c.Points = make([]geom.MapPoint, len(b.Points))
		copy(c.Points, b.Points)
	}
	if b.InterpolatedPoints != nil {
		c.InterpolatedPoints = make([]geom.MapPoint, len(b.InterpolatedPoints))
		copy(c.InterpolatedPoints, b.InterpolatedPoints)
	}
	return &c
}

// Borders is the inner/outer/center triple owned by a Lane. All three share
// the same parent lane id.
type Borders struct {
	Inner  *Border
	Outer  *Border
	Center *Border
}

// Clone returns a deep copy of b: new Inner/Outer/Center Borders, each with
// their own point slices (see Border.Clone).
func (b *Borders) Clone() *Borders {
	return &Borders{Inner: b.Inner.Clone(), Outer: b.Outer.Clone(), Center: b.Center.Clone()}
}

// Build pairs a left and right border into inner/outer (selected by
// leftOfReference: inner = right if left_of_reference else left), optionally
// reparameterizes both against a reference line, resamples both at spacingS,
// and derives the center border from pairwise means of the resampled points.
func Build(parentID string, left, right *Border, leftOfReference bool, reference *Border, spacingS float64) (*Borders, error) {
	var inner, outer *Border
	if leftOfReference {
		inner, outer = right, left
	} else {
		inner, outer = left, right
	}

	if reference != nil {
		if err := inner.ReparameterizeBasedOnReference(reference); err != nil {
			return nil, err
		}
		if err := outer.ReparameterizeBasedOnReference(reference); err != nil {
			return nil, err
		}
	}

	if err := inner.ResampleUniform(spacingS); err != nil {
		return nil, err
	}
	if err := outer.ResampleUniform(spacingS); err != nil {
		return nil, err
	}

	center, err := ProcessCenter(parentID, inner, outer)
	if err != nil {
		return nil, err
	}

	return &Borders{Inner: inner, Outer: outer, Center: center}, nil
}

// ProcessCenter takes pairwise means of inner and outer's interpolated
// points, index by index (both must have been resampled at the same
// spacing), producing the center Border.
func ProcessCenter(parentID string, inner, outer *Border) (*Border, error) {
	n := len(inner.InterpolatedPoints)
	if n == 0 || n != len(outer.InterpolatedPoints) {
		return nil, errs.New(errs.InvalidInput, "border: ProcessCenter requires equal, non-empty interpolated point counts")
	}

	pts := make([]geom.MapPoint, n)
	for i := 0; i < n; i++ {
		ip := inner.InterpolatedPoints[i]
		op := outer.InterpolatedPoints[i]
		pts[i] = geom.MapPoint{
			X:        (ip.X + op.X) / 2,
			Y:        (ip.Y + op.Y) / 2,
			ParentID: parentID,
		}
	}

	center := New(parentID, pts)
	center.ComputeSValues()
	center.ComputeLength()
	if err := center.InitializeSpline(); err != nil {
		return nil, err
	}
	if err := center.ResampleUniform(0.5); err != nil {
		return nil, err
	}
	return center, nil
}

// WidthAt returns dist(inner(s), outer(s)) with linear interpolation between
// resampled samples and clamping at the endpoints.
func WidthAt(inner, outer *Border, s float64) float64 {
	ip := sampleAt(inner.InterpolatedPoints, s)
	op := sampleAt(outer.InterpolatedPoints, s)
	return geom.DistPoints(ip, op)
}

// sampleAt linearly interpolates a resampled point slice (ordered, ascending
// s) at s, clamping at the endpoints.
func sampleAt(pts []geom.MapPoint, s float64) geom.MapPoint {
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
	return geom.MapPoint{X: a.X + t*(c.X-a.X), Y: a.Y + t*(c.Y-a.Y), S: s}
}
