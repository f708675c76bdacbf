package scheme

import (
	"math"
	"sort"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"
)

// CurveGeometry is what a curve scheme needs from a curve.
type CurveGeometry interface {
	ParamRange() (t0, t1 float64)
	Point(t float64) (geom.Point, error)
	D1(t float64) (geom.Vector, error)
	Length() float64
	IsClosed() bool
}

// MinCurveLength is the length below which a curve cannot be meshed.
const MinCurveLength = 1e-12

// MaxCurveIntervals caps the number of segments on one curve.
const MaxCurveIntervals = 1 << 20

const (
	// tableSegments is the number of parameter sub-intervals of the
	// cumulative tables used to place points along a curve.
	tableSegments = 512
	// tableQuadPoints is the Gauss-Legendre order per sub-interval.
	tableQuadPoints = 6
)

func checkCurve(c CurveGeometry, intervals int) error {
	if c.Length() < MinCurveLength {
		return errs.Errorf(errs.ErrDegenerateGeometry, "curve length %g is below %g", c.Length(), MinCurveLength)
	}
	if intervals > MaxCurveIntervals {
		return errs.Errorf(errs.ErrInvalidParameter, "%d intervals exceeds the limit of %d", intervals, MaxCurveIntervals)
	}
	if c.IsClosed() && intervals < 3 {
		return errs.Errorf(errs.ErrDegenerateGeometry, "closed curve needs at least 3 intervals, got %d", intervals)
	}
	return nil
}

// cumulative tabulates F(t) = integral of f from t0 to t over a uniform
// parameter grid.
type cumulative struct {
	ts []float64
	fs []float64
}

func integrate(c CurveGeometry, f func(t float64, d1 geom.Vector) float64) (*cumulative, error) {
	t0, t1 := c.ParamRange()
	ts := make([]float64, tableSegments+1)
	floats.Span(ts, t0, t1)

	var evalErr error
	g := func(t float64) float64 {
		d, err := c.D1(t)
		if err != nil && evalErr == nil {
			evalErr = err
		}
		return f(t, d)
	}
	fs := make([]float64, len(ts))
	for i := 1; i < len(ts); i++ {
		fs[i] = fs[i-1] + quad.Fixed(g, ts[i-1], ts[i], tableQuadPoints, nil, 0)
	}
	if evalErr != nil {
		return nil, evalErr
	}
	return &cumulative{ts: ts, fs: fs}, nil
}

func (c *cumulative) total() float64 { return c.fs[len(c.fs)-1] }

// invert returns the parameter at which F reaches target, interpolating
// linearly inside the table cell.
func (c *cumulative) invert(target float64) float64 {
	i := sort.SearchFloat64s(c.fs, target)
	switch {
	case i <= 0:
		return c.ts[0]
	case i >= len(c.fs):
		return c.ts[len(c.ts)-1]
	}
	f0, f1 := c.fs[i-1], c.fs[i]
	if f1 == f0 {
		return c.ts[i]
	}
	return c.ts[i-1] + (c.ts[i]-c.ts[i-1])*(target-f0)/(f1-f0)
}

// params places n-1 interior points where F equals each target and adds the
// exact curve ends.
func (c *cumulative) params(targets []float64) []float64 {
	out := make([]float64, 0, len(targets)+2)
	out = append(out, c.ts[0])
	for _, target := range targets {
		out = append(out, c.invert(target))
	}
	return append(out, c.ts[len(c.ts)-1])
}

func arcLength(_ float64, d1 geom.Vector) float64 { return d1.Norm() }

// equalCurve splits the parameter range into equal intervals.
func equalCurve(s *Scheme, c CurveGeometry) ([]float64, error) {
	n, err := s.Int("intervals")
	if err != nil {
		return nil, err
	}
	return uniformParams(c, n)
}

func uniformParams(c CurveGeometry, n int) ([]float64, error) {
	if err := checkCurve(c, n); err != nil {
		return nil, err
	}
	t0, t1 := c.ParamRange()
	out := make([]float64, n+1)
	floats.Span(out, t0, t1)
	return out, nil
}

// autoCurve uses one interval on open curves and three on closed ones.
func autoCurve(_ *Scheme, c CurveGeometry) ([]float64, error) {
	n := 1
	if c.IsClosed() {
		n = 3
	}
	return uniformParams(c, n)
}

// biasCurve grows segment lengths geometrically along arc length: segment k
// has length a*coef^k with a = L*(coef-1)/(coef^n-1).
func biasCurve(s *Scheme, c CurveGeometry) ([]float64, error) {
	n, err := s.Int("intervals")
	if err != nil {
		return nil, err
	}
	r, err := s.Float("coef")
	if err != nil {
		return nil, err
	}
	if err := checkCurve(c, n); err != nil {
		return nil, err
	}
	tab, err := integrate(c, arcLength)
	if err != nil {
		return nil, err
	}
	L := tab.total()
	targets := make([]float64, 0, n-1)
	if r == 1 {
		for k := 1; k < n; k++ {
			targets = append(targets, L*float64(k)/float64(n))
		}
	} else {
		a := L * (r - 1) / (math.Pow(r, float64(n)) - 1)
		for k := 1; k < n; k++ {
			targets = append(targets, a*(math.Pow(r, float64(k))-1)/(r-1))
		}
	}
	return tab.params(targets), nil
}

// bumpCurve concentrates points at both ends (coef < 1) or in the middle
// (coef > 1) using a quadratic density over the normalized parameter.
func bumpCurve(s *Scheme, c CurveGeometry) ([]float64, error) {
	n, err := s.Int("intervals")
	if err != nil {
		return nil, err
	}
	coef, err := s.Float("coef")
	if err != nil {
		return nil, err
	}
	if err := checkCurve(c, n); err != nil {
		return nil, err
	}
	L := c.Length()
	nPts := float64(n + 1)
	var a float64
	if coef > 1 {
		q := math.Sqrt(coef - 1)
		a = -4 * q * math.Atan2(1, q) / (nPts * L)
	} else {
		q := math.Sqrt(1 - coef)
		a = 2 * q * math.Log(math.Abs((1+1/q)/(1-1/q))) / (nPts * L)
	}
	b := -a * L * L / (4 * (coef - 1))

	t0, t1 := c.ParamRange()
	density := func(t float64, d1 geom.Vector) float64 {
		x := (t-t0)/(t1-t0)*L - L/2
		return d1.Norm() / (-a*x*x + b)
	}
	tab, err := integrate(c, density)
	if err != nil {
		return nil, err
	}
	total := tab.total()
	targets := make([]float64, 0, n-1)
	for k := 1; k < n; k++ {
		targets = append(targets, total*float64(k)/float64(n))
	}
	return tab.params(targets), nil
}

// sizeCurve steps along the curve by a fixed arc length. The last step is
// shortened so the final point lands on the curve end.
func sizeCurve(s *Scheme, c CurveGeometry) ([]float64, error) {
	h, err := s.Float("size")
	if err != nil {
		return nil, err
	}
	L := c.Length()
	if L < MinCurveLength {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "curve length %g is below %g", L, MinCurveLength)
	}
	if L/h > MaxCurveIntervals {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "size %g gives more than %d intervals on a curve of length %g", h, MaxCurveIntervals, L)
	}
	tol := 1e-6 * h
	var targets []float64
	for k := 1; float64(k)*h < L-tol; k++ {
		targets = append(targets, float64(k)*h)
	}
	if err := checkCurve(c, len(targets)+1); err != nil {
		return nil, err
	}
	tab, err := integrate(c, arcLength)
	if err != nil {
		return nil, err
	}
	// Rescale to the tabulated length so the inversion never overshoots.
	scale := tab.total() / L
	for i := range targets {
		targets[i] *= scale
	}
	return tab.params(targets), nil
}
