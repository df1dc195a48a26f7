// Package spline implements the natural cubic spline used to smooth a
// Border's polyline, parameterized by cumulative chord length.
package spline

import (
	"math"
	"sort"

	"roadmap/pkg/errs"
	"roadmap/pkg/geom"
)

const dedupEps = 1e-6

// BorderSpline is a natural cubic spline in x(s) and y(s), where s is the
// cumulative chord length of the input polyline with coincident points
// dropped.
type BorderSpline struct {
	knots []float64 // s values at each retained knot, strictly increasing
	x     axis1D
	y     axis1D
}

// axis1D is one natural cubic spline axis (x or y) over shared knots.
type axis1D struct {
	a, b, c, d []float64 // per-knot coefficients; evaluated with ds = s - knot[i]
}

// New builds a BorderSpline from an ordered polyline. Coincident points
// (chord length < 1e-6 from the previous retained point) are dropped before
// fitting. Fails with errs.InvalidInput when fewer than two unique points
// remain, and with errs.NumericalFailure when the tridiagonal solve produces
// a non-finite coefficient.
func New(points []geom.MapPoint) (*BorderSpline, error) {
	if len(points) == 0 {
		return nil, errs.New(errs.InvalidInput, "spline: no points")
	}

	xs := make([]float64, 0, len(points))
	ys := make([]float64, 0, len(points))
	ks := make([]float64, 0, len(points))

	xs = append(xs, points[0].X)
	ys = append(ys, points[0].Y)
	ks = append(ks, 0)

	cum := 0.0
	for i := 1; i < len(points); i++ {
		d := geom.Dist(xs[len(xs)-1], ys[len(ys)-1], points[i].X, points[i].Y)
		if d < dedupEps {
			continue
		}
		cum += d
		xs = append(xs, points[i].X)
		ys = append(ys, points[i].Y)
		ks = append(ks, cum)
	}

	if len(ks) < 2 {
		return nil, errs.New(errs.InvalidInput, "spline: fewer than two unique points")
	}

	xAxis, err := fitAxis(ks, xs)
	if err != nil {
		return nil, err
	}
	yAxis, err := fitAxis(ks, ys)
	if err != nil {
		return nil, err
	}

	return &BorderSpline{knots: ks, x: xAxis, y: yAxis}, nil
}

// fitAxis solves the natural-cubic-spline tridiagonal system for one axis.
func fitAxis(ks, vs []float64) (axis1D, error) {
	n := len(ks) - 1 // number of intervals

	h := make([]float64, n)
	for i := 0; i < n; i++ {
		h[i] = ks[i+1] - ks[i]
	}

	// Build and solve the tridiagonal system for c (second-derivative
	// coefficients), with natural boundary conditions c[0] = c[n] = 0.
	alpha := make([]float64, n+1)
	for i := 1; i < n; i++ {
		alpha[i] = (3/h[i])*(vs[i+1]-vs[i]) - (3/h[i-1])*(vs[i]-vs[i-1])
	}

	l := make([]float64, n+1)
	mu := make([]float64, n+1)
	z := make([]float64, n+1)
	l[0] = 1

	for i := 1; i < n; i++ {
		l[i] = 2*(ks[i+1]-ks[i-1]) - h[i-1]*mu[i-1]
		if l[i] == 0 {
			return axis1D{}, errs.New(errs.NumericalFailure, "spline: singular tridiagonal system")
		}
		mu[i] = h[i] / l[i]
		z[i] = (alpha[i] - h[i-1]*z[i-1]) / l[i]
	}
	l[n] = 1

	c := make([]float64, n+1)
	b := make([]float64, n)
	d := make([]float64, n)

	for i := n - 1; i >= 0; i-- {
		c[i] = z[i] - mu[i]*c[i+1]
		b[i] = (vs[i+1]-vs[i])/h[i] - h[i]*(c[i+1]+2*c[i])/3
		d[i] = (c[i+1] - c[i]) / (3 * h[i])
	}

	a := make([]float64, n)
	copy(a, vs[:n])
	cOut := make([]float64, n)
	copy(cOut, c[:n])

	for i := 0; i < n; i++ {
		if !isFinite(a[i]) || !isFinite(b[i]) || !isFinite(cOut[i]) || !isFinite(d[i]) {
			return axis1D{}, errs.New(errs.NumericalFailure, "spline: non-finite coefficient")
		}
	}

	return axis1D{a: a, b: b, c: cOut, d: d}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// interval clamps s into [knots[0], knots[last]] and returns the predecessor
// knot index via binary search over the cumulative distance array.
func (sp *BorderSpline) interval(s float64) (int, float64) {
	lo, hi := sp.knots[0], sp.knots[len(sp.knots)-1]
	if s < lo {
		s = lo
	} else if s > hi {
		s = hi
	}

	// sort.Search finds the first knot index with knots[i] > s; the
	// predecessor is one before that, clamped to the last interval.
	i := sort.Search(len(sp.knots), func(i int) bool { return sp.knots[i] > s })
	i--
	if i < 0 {
		i = 0
	}
	if i > len(sp.knots)-2 {
		i = len(sp.knots) - 2
	}
	return i, s
}

func evalAxis(ax axis1D, i int, ds float64) float64 {
	// Horner form: a + ds*(b + ds*(c + ds*d))
	return ax.a[i] + ds*(ax.b[i]+ds*(ax.c[i]+ds*ax.d[i]))
}

func evalAxisPrime(ax axis1D, i int, ds float64) float64 {
	return ax.b[i] + ds*(2*ax.c[i]+3*ax.d[i]*ds)
}

func evalAxisDoublePrime(ax axis1D, i int, ds float64) float64 {
	return 2*ax.c[i] + 6*ax.d[i]*ds
}

// PointAt evaluates the spline at arc-length s, clamped to the knot domain.
func (sp *BorderSpline) PointAt(s float64) (x, y float64) {
	i, s := sp.interval(s)
	ds := s - sp.knots[i]
	return evalAxis(sp.x, i, ds), evalAxis(sp.y, i, ds)
}

// XPrime returns dx/ds at s.
func (sp *BorderSpline) XPrime(s float64) float64 {
	i, s := sp.interval(s)
	return evalAxisPrime(sp.x, i, s-sp.knots[i])
}

// YPrime returns dy/ds at s.
func (sp *BorderSpline) YPrime(s float64) float64 {
	i, s := sp.interval(s)
	return evalAxisPrime(sp.y, i, s-sp.knots[i])
}

// XDoublePrime returns d2x/ds2 at s.
func (sp *BorderSpline) XDoublePrime(s float64) float64 {
	i, s := sp.interval(s)
	return evalAxisDoublePrime(sp.x, i, s-sp.knots[i])
}

// YDoublePrime returns d2y/ds2 at s.
func (sp *BorderSpline) YDoublePrime(s float64) float64 {
	i, s := sp.interval(s)
	return evalAxisDoublePrime(sp.y, i, s-sp.knots[i])
}

// TotalLength returns the spline's s-domain length.
func (sp *BorderSpline) TotalLength() float64 {
	return sp.knots[len(sp.knots)-1] - sp.knots[0]
}
