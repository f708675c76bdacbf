package analytic

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Compile-time interface check.
var _ kernel.Kernel = (*Kernel)(nil)

// Kernel evaluates analytic shapes. It is stateless: every shape built by
// this package carries its own geometry.
type Kernel struct{}

// New returns a new analytic Kernel.
func New() *Kernel {
	return &Kernel{}
}

// unwrapEdge extracts the analytic edge behind a kernel.Edge.
func unwrapEdge(e kernel.Edge) (*edge, error) {
	ae, ok := e.(*edge)
	if !ok || ae == nil {
		return nil, fmt.Errorf("analytic: edge %T: %w", e, kernel.ErrForeignShape)
	}
	return ae, nil
}

// unwrapFace extracts the analytic face behind a kernel.Face.
func unwrapFace(f kernel.Face) (*face, error) {
	af, ok := f.(*face)
	if !ok || af == nil {
		return nil, fmt.Errorf("analytic: face %T: %w", f, kernel.ErrForeignShape)
	}
	return af, nil
}

// CurveRange returns the parameter bounds of e.
func (k *Kernel) CurveRange(e kernel.Edge) (float64, float64, error) {
	ae, err := unwrapEdge(e)
	if err != nil {
		return 0, 0, err
	}
	t0, t1 := ae.c.bounds()
	return t0, t1, nil
}

// CurvePoint evaluates e at parameter t.
func (k *Kernel) CurvePoint(e kernel.Edge, t float64) (geom.Point, error) {
	ae, err := unwrapEdge(e)
	if err != nil {
		return geom.Point{}, err
	}
	return ae.c.point(t), nil
}

// CurveD1 returns the first derivative of e at t.
func (k *Kernel) CurveD1(e kernel.Edge, t float64) (geom.Vector, error) {
	ae, err := unwrapEdge(e)
	if err != nil {
		return geom.Vector{}, err
	}
	return ae.c.d1(t), nil
}

// CurveLength returns the arc length of e.
func (k *Kernel) CurveLength(e kernel.Edge) (float64, error) {
	ae, err := unwrapEdge(e)
	if err != nil {
		return 0, err
	}
	return ae.c.length(), nil
}

// SurfacePoint evaluates f at (u, v).
func (k *Kernel) SurfacePoint(f kernel.Face, u, v float64) (geom.Point, error) {
	af, err := unwrapFace(f)
	if err != nil {
		return geom.Point{}, err
	}
	return af.point(u, v), nil
}

// SurfaceParam projects p onto f and returns its (u, v).
func (k *Kernel) SurfaceParam(f kernel.Face, p geom.Point) (float64, float64, error) {
	af, err := unwrapFace(f)
	if err != nil {
		return 0, 0, err
	}
	return af.param(p)
}

// SurfaceNormal returns the unit normal of f. Planar faces ignore (u, v).
func (k *Kernel) SurfaceNormal(f kernel.Face, _, _ float64) (geom.Vector, error) {
	af, err := unwrapFace(f)
	if err != nil {
		return geom.Vector{}, err
	}
	return af.xv.Cross(af.yv).Normalized()
}

func (f *face) point(u, v float64) geom.Point {
	return f.origin.Add(f.xv.Scale(u)).Add(f.yv.Scale(v))
}

// param solves the 2x2 normal equations of origin + u*xv + v*yv = p.
func (f *face) param(p geom.Point) (float64, float64, error) {
	d := p.Sub(f.origin)
	xx, xy, yy := f.xv.Dot(f.xv), f.xv.Dot(f.yv), f.yv.Dot(f.yv)
	det := xx*yy - xy*xy
	if det == 0 {
		return 0, 0, errs.Errorf(errs.ErrDegenerateGeometry, "analytic: face frame is singular")
	}
	bx, by := f.xv.Dot(d), f.yv.Dot(d)
	return (bx*yy - by*xy) / det, (by*xx - bx*xy) / det, nil
}
