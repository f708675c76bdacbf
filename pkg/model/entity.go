package model

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Vertex is a tagged geometric point.
type Vertex struct {
	tag   int
	shape kernel.Vertex
	point geom.Point
}

// Tag returns the vertex tag.
func (v *Vertex) Tag() int { return v.tag }

// Point returns the vertex position.
func (v *Vertex) Point() geom.Point { return v.point }

// Shape returns the kernel handle.
func (v *Vertex) Shape() kernel.Vertex { return v.shape }

// Curve is a tagged bounded curve.
type Curve struct {
	tag         int
	shape       kernel.Edge
	k           kernel.Kernel
	first, last *Vertex
	t0, t1      float64
	length      float64
}

func newCurve(k kernel.Kernel, tag int, e kernel.Edge, vertexOf map[kernel.Vertex]*Vertex) (*Curve, error) {
	a, b := e.Vertices()
	first, ok1 := vertexOf[a]
	last, ok2 := vertexOf[b]
	if !ok1 || !ok2 {
		return nil, errs.New("build model", "curve", tag, errs.ErrInvalidParameter, "edge vertices are not sub-shapes of the edge")
	}
	t0, t1, err := k.CurveRange(e)
	if err != nil {
		return nil, errs.Wrap("build model", "curve", tag, nil, err)
	}
	n, err := k.CurveLength(e)
	if err != nil {
		return nil, errs.Wrap("build model", "curve", tag, nil, err)
	}
	return &Curve{tag: tag, shape: e, k: k, first: first, last: last, t0: t0, t1: t1, length: n}, nil
}

// Tag returns the curve tag.
func (c *Curve) Tag() int { return c.tag }

// Shape returns the kernel handle.
func (c *Curve) Shape() kernel.Edge { return c.shape }

// Vertices returns the first and last bounding vertices. They are the same
// vertex for a closed curve.
func (c *Curve) Vertices() (first, last *Vertex) { return c.first, c.last }

// IsClosed reports whether the curve starts and ends on the same vertex.
func (c *Curve) IsClosed() bool { return c.first == c.last }

// ParamRange returns the parameter bounds.
func (c *Curve) ParamRange() (t0, t1 float64) { return c.t0, c.t1 }

// Length returns the arc length.
func (c *Curve) Length() float64 { return c.length }

// Point evaluates the curve at t.
func (c *Curve) Point(t float64) (geom.Point, error) { return c.k.CurvePoint(c.shape, t) }

// D1 returns the tangent at t.
func (c *Curve) D1(t float64) (geom.Vector, error) { return c.k.CurveD1(c.shape, t) }

func (c *Curve) String() string { return fmt.Sprintf("curve %d", c.tag) }

// CurveUse is a curve as traversed by a surface loop.
type CurveUse struct {
	Curve    *Curve
	Reversed bool
}

// Start returns the vertex the use starts from.
func (u CurveUse) Start() *Vertex {
	if u.Reversed {
		return u.Curve.last
	}
	return u.Curve.first
}

// End returns the vertex the use ends on.
func (u CurveUse) End() *Vertex {
	if u.Reversed {
		return u.Curve.first
	}
	return u.Curve.last
}

// Loop is a closed chain of curve uses.
type Loop []CurveUse

// Surface is a tagged bounded surface. Its first loop is the outer boundary.
type Surface struct {
	tag    int
	shape  kernel.Face
	k      kernel.Kernel
	loops  []Loop
	curves []*Curve
}

func newSurface(k kernel.Kernel, tag int, f kernel.Face, curveOf map[kernel.Edge]*Curve) (*Surface, error) {
	s := &Surface{tag: tag, shape: f, k: k}
	seen := make(map[*Curve]bool)
	for _, kl := range f.Loops() {
		loop := make(Loop, 0, len(kl))
		for _, oe := range kl {
			c, ok := curveOf[oe.Edge]
			if !ok {
				return nil, errs.New("build model", "surface", tag, errs.ErrInvalidParameter, "loop edge is not a sub-shape of the face")
			}
			loop = append(loop, CurveUse{Curve: c, Reversed: oe.Reversed})
			if !seen[c] {
				seen[c] = true
				s.curves = append(s.curves, c)
			}
		}
		s.loops = append(s.loops, loop)
	}
	if len(s.loops) == 0 {
		return nil, errs.New("build model", "surface", tag, errs.ErrInvalidParameter, "face has no loops")
	}
	return s, nil
}

// Tag returns the surface tag.
func (s *Surface) Tag() int { return s.tag }

// Shape returns the kernel handle.
func (s *Surface) Shape() kernel.Face { return s.shape }

// Loops returns the boundary loops, outer first.
func (s *Surface) Loops() []Loop { return s.loops }

// Curves returns the distinct boundary curves in loop order.
func (s *Surface) Curves() []*Curve { return append([]*Curve(nil), s.curves...) }

// Point evaluates the surface at (u, v).
func (s *Surface) Point(u, v float64) (geom.Point, error) { return s.k.SurfacePoint(s.shape, u, v) }

// Param projects p onto the surface.
func (s *Surface) Param(p geom.Point) (u, v float64, err error) { return s.k.SurfaceParam(s.shape, p) }

// Normal returns the unit normal at (u, v).
func (s *Surface) Normal(u, v float64) (geom.Vector, error) {
	return s.k.SurfaceNormal(s.shape, u, v)
}

func (s *Surface) String() string { return fmt.Sprintf("surface %d", s.tag) }

// Volume is a tagged solid.
type Volume struct {
	tag      int
	shape    kernel.Solid
	shells   [][]*Surface
	surfaces []*Surface
}

func newVolume(tag int, so kernel.Solid, surfaceOf map[kernel.Face]*Surface) (*Volume, error) {
	v := &Volume{tag: tag, shape: so}
	seen := make(map[*Surface]bool)
	for _, sh := range so.Shells() {
		shell := make([]*Surface, 0, len(sh))
		for _, f := range sh {
			s, ok := surfaceOf[f]
			if !ok {
				return nil, errs.New("build model", "volume", tag, errs.ErrInvalidParameter, "shell face is not a sub-shape of the solid")
			}
			shell = append(shell, s)
			if !seen[s] {
				seen[s] = true
				v.surfaces = append(v.surfaces, s)
			}
		}
		v.shells = append(v.shells, shell)
	}
	return v, nil
}

// Tag returns the volume tag.
func (v *Volume) Tag() int { return v.tag }

// Shape returns the kernel handle.
func (v *Volume) Shape() kernel.Solid { return v.shape }

// Shells returns the bounding shells.
func (v *Volume) Shells() [][]*Surface { return v.shells }

// Surfaces returns the distinct bounding surfaces in shell order.
func (v *Volume) Surfaces() []*Surface { return append([]*Surface(nil), v.surfaces...) }

func (v *Volume) String() string { return fmt.Sprintf("volume %d", v.tag) }
