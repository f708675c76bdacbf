// Package pattern generates families of rigid transforms, and the point
// sets that go with them, for copying shapes and meshes.
package pattern

import (
	"math"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
	"github.com/chazu/krado/pkg/kernel/analytic"
	"github.com/chazu/krado/pkg/umesh"
)

// Pattern is a rule producing transformed copies.
type Pattern interface {
	// Transforms returns one transform per copy, the first copy included.
	Transforms() []geom.Trsf
	// Points returns the characteristic points of the pattern.
	Points() []geom.Point
}

var (
	_ Pattern = (*Linear)(nil)
	_ Pattern = (*Circular)(nil)
	_ Pattern = (*Hexagonal)(nil)
)

// ----------------------------------------------------------------------------
// Linear
// ----------------------------------------------------------------------------

// Linear is a grid of Nx by Ny copies spaced Dx along the frame x direction
// and Dy along its y direction.
type Linear struct {
	Frame  geom.Axis2
	Nx, Ny int
	Dx, Dy float64
}

// NewLinear returns a one-row pattern of n copies spaced d apart.
func NewLinear(frame geom.Axis2, n int, d float64) (*Linear, error) {
	return NewLinearGrid(frame, n, 1, d, 0)
}

// NewLinearGrid returns an nx by ny grid pattern.
func NewLinearGrid(frame geom.Axis2, nx, ny int, dx, dy float64) (*Linear, error) {
	if nx < 1 || ny < 1 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: linear counts must be >= 1, got %d x %d", nx, ny)
	}
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: linear spacing must be finite")
	}
	return &Linear{Frame: frame, Nx: nx, Ny: ny, Dx: dx, Dy: dy}, nil
}

func (p *Linear) offset(i, j int) geom.Vector {
	return p.Frame.XDirection.Scale(float64(i) * p.Dx).Add(p.Frame.YDirection.Scale(float64(j) * p.Dy))
}

// Transforms returns the grid translations, x index fastest.
func (p *Linear) Transforms() []geom.Trsf {
	out := make([]geom.Trsf, 0, p.Nx*p.Ny)
	for j := 0; j < p.Ny; j++ {
		for i := 0; i < p.Nx; i++ {
			out = append(out, geom.TranslatedBy(p.offset(i, j)))
		}
	}
	return out
}

// Points returns the grid nodes starting at the frame origin.
func (p *Linear) Points() []geom.Point {
	out := make([]geom.Point, 0, p.Nx*p.Ny)
	for j := 0; j < p.Ny; j++ {
		for i := 0; i < p.Nx; i++ {
			out = append(out, p.Frame.Location.Add(p.offset(i, j)))
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Circular
// ----------------------------------------------------------------------------

// Circular is N copies rotated about the frame axis in equal steps, the
// first at StartAngle.
type Circular struct {
	Frame      geom.Axis2
	Radius     float64
	N          int
	StartAngle float64
}

// NewCircular validates and returns a circular pattern.
func NewCircular(frame geom.Axis2, radius float64, n int, start float64) (*Circular, error) {
	if n < 1 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: circular count must be >= 1, got %d", n)
	}
	if !(radius >= 0) || math.IsInf(radius, 0) {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: circular radius must be finite and >= 0, got %g", radius)
	}
	return &Circular{Frame: frame, Radius: radius, N: n, StartAngle: start}, nil
}

func (p *Circular) angle(i int) float64 {
	return p.StartAngle + float64(i)*2*math.Pi/float64(p.N)
}

// Transforms returns the rotations about the frame axis.
func (p *Circular) Transforms() []geom.Trsf {
	out := make([]geom.Trsf, p.N)
	for i := range out {
		out[i] = geom.RotatedAbout(p.Frame.Axis(), p.angle(i))
	}
	return out
}

// Points returns the point at Radius along the frame x direction, rotated
// into each copy.
func (p *Circular) Points() []geom.Point {
	base := p.Frame.Location.Add(p.Frame.XDirection.Scale(p.Radius))
	out := make([]geom.Point, p.N)
	for i, tr := range p.Transforms() {
		out[i] = tr.Point(base)
	}
	return out
}

// ----------------------------------------------------------------------------
// Hexagonal
// ----------------------------------------------------------------------------

// Hexagonal is the six-fold arrangement about the frame axis. Each copy is
// pushed out by RadialOffset along its own rotated x direction. Its points
// trace a regular hexagon with the given flat-to-flat size.
type Hexagonal struct {
	Frame        geom.Axis2
	FlatToFlat   float64
	SideSegments int
	RadialOffset float64
}

// NewHexagonal validates and returns a hexagonal pattern.
func NewHexagonal(frame geom.Axis2, flatToFlat float64, sideSegments int, radialOffset float64) (*Hexagonal, error) {
	if !(flatToFlat > 0) || math.IsInf(flatToFlat, 0) {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: flat-to-flat must be finite and > 0, got %g", flatToFlat)
	}
	if sideSegments < 1 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: side segments must be >= 1, got %d", sideSegments)
	}
	if math.IsNaN(radialOffset) || math.IsInf(radialOffset, 0) {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: radial offset must be finite")
	}
	return &Hexagonal{Frame: frame, FlatToFlat: flatToFlat, SideSegments: sideSegments, RadialOffset: radialOffset}, nil
}

// Radius returns the corner radius, flat-to-flat over sqrt(3).
func (p *Hexagonal) Radius() float64 { return p.FlatToFlat / math.Sqrt(3) }

// Transforms returns six copies 60 degrees apart.
func (p *Hexagonal) Transforms() []geom.Trsf {
	push := geom.TranslatedBy(p.Frame.XDirection.Scale(p.RadialOffset))
	out := make([]geom.Trsf, 6)
	for i := range out {
		out[i] = geom.RotatedAbout(p.Frame.Axis(), float64(i)*math.Pi/3).Mul(push)
	}
	return out
}

// Points returns SideSegments points per hexagon side, corners included
// once, counter-clockwise about the frame axis from the x direction.
func (p *Hexagonal) Points() []geom.Point {
	var corners [6]geom.Point
	base := p.Frame.Location.Add(p.Frame.XDirection.Scale(p.Radius()))
	for i := range corners {
		corners[i] = geom.RotatedAbout(p.Frame.Axis(), float64(i)*math.Pi/3).Point(base)
	}
	out := make([]geom.Point, 0, 6*p.SideSegments)
	for s := range corners {
		a, b := corners[s], corners[(s+1)%6]
		side := b.Sub(a)
		for i := 0; i < p.SideSegments; i++ {
			out = append(out, a.Add(side.Scale(float64(i)/float64(p.SideSegments))))
		}
	}
	return out
}

// ----------------------------------------------------------------------------
// Application
// ----------------------------------------------------------------------------

// ApplyMesh concatenates one transformed copy of m per pattern transform.
// When tol > 0, points of touching copies closer than tol are merged.
func ApplyMesh(m *umesh.Mesh, p Pattern, tol float64) (*umesh.Mesh, error) {
	trs := p.Transforms()
	if len(trs) == 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "pattern: no transforms")
	}
	out := m.Transformed(trs[0])
	for _, tr := range trs[1:] {
		out.Add(m.Transformed(tr))
	}
	if tol > 0 {
		out.RemoveDuplicatePoints(tol)
	}
	return out, nil
}

// ApplyShape returns one transformed copy of s per pattern transform. Shared
// sub-shapes stay shared within each copy; separate copies share nothing.
func ApplyShape(s kernel.Shape, p Pattern) ([]kernel.Shape, error) {
	trs := p.Transforms()
	out := make([]kernel.Shape, len(trs))
	for i, tr := range trs {
		c, err := analytic.Transformed(s, tr)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}
