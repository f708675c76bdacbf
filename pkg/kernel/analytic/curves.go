package analytic

import (
	"math"

	"github.com/chazu/krado/pkg/geom"
	"gonum.org/v1/gonum/integrate/quad"
)

// curve is the geometry behind an edge.
type curve interface {
	bounds() (t0, t1 float64)
	point(t float64) geom.Point
	d1(t float64) geom.Vector
	length() float64
	transformed(tr geom.Trsf) curve
}

// line is parameterized by distance from a.
type line struct {
	a   geom.Point
	dir geom.Vector // unit
	len float64
}

func newLine(a, b geom.Point) (*line, bool) {
	d := b.Sub(a)
	n := d.Norm()
	if n < geom.LinearTolerance {
		return nil, false
	}
	return &line{a: a, dir: d.Scale(1 / n), len: n}, true
}

func (l *line) bounds() (float64, float64) { return 0, l.len }
func (l *line) point(t float64) geom.Point { return l.a.Add(l.dir.Scale(t)) }
func (l *line) d1(float64) geom.Vector     { return l.dir }
func (l *line) length() float64            { return l.len }

func (l *line) transformed(tr geom.Trsf) curve {
	a := tr.Point(l.a)
	b := tr.Point(l.point(l.len))
	nl, ok := newLine(a, b)
	if !ok {
		return nil
	}
	return nl
}

// arc is center + cos(t)*xv + sin(t)*yv for t in [a0, a1]. xv and yv carry
// the radius, so an affine image of a circle stays exact (it is an ellipse).
type arc struct {
	center geom.Point
	xv, yv geom.Vector
	a0, a1 float64
}

func (c *arc) bounds() (float64, float64) { return c.a0, c.a1 }

func (c *arc) point(t float64) geom.Point {
	return c.center.Add(c.xv.Scale(math.Cos(t))).Add(c.yv.Scale(math.Sin(t)))
}

func (c *arc) d1(t float64) geom.Vector {
	return c.xv.Scale(-math.Sin(t)).Add(c.yv.Scale(math.Cos(t)))
}

// arcQuadPoints is the Gauss-Legendre order used for non-circular arcs.
const arcQuadPoints = 64

func (c *arc) length() float64 {
	rx, ry := c.xv.Norm(), c.yv.Norm()
	if math.Abs(rx-ry) <= geom.LinearTolerance*math.Max(1, rx) &&
		math.Abs(c.xv.Dot(c.yv)) <= geom.LinearTolerance*math.Max(1, rx*ry) {
		return rx * (c.a1 - c.a0)
	}
	return quad.Fixed(func(t float64) float64 { return c.d1(t).Norm() }, c.a0, c.a1, arcQuadPoints, nil, 0)
}

func (c *arc) transformed(tr geom.Trsf) curve {
	return &arc{
		center: tr.Point(c.center),
		xv:     tr.Vector(c.xv),
		yv:     tr.Vector(c.yv),
		a0:     c.a0,
		a1:     c.a1,
	}
}

func (c *arc) closed() bool {
	return c.a1-c.a0 >= 2*math.Pi-geom.AngularTolerance
}
