// Package kernel defines the boundary-representation shape source and the
// exact-geometry kernel consumed by the meshing engine. Implementations
// (see kernel/analytic) own the geometry; the rest of the system only walks
// topology and asks the kernel to evaluate curves and surfaces.
package kernel

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
)

// ShapeKind is the topological kind of a shape.
type ShapeKind int

const (
	KindVertex ShapeKind = iota
	KindEdge
	KindFace
	KindSolid
	KindCompound
)

func (k ShapeKind) String() string {
	switch k {
	case KindVertex:
		return "vertex"
	case KindEdge:
		return "edge"
	case KindFace:
		return "face"
	case KindSolid:
		return "solid"
	case KindCompound:
		return "compound"
	}
	return fmt.Sprintf("ShapeKind(%d)", int(k))
}

// Shape is an opaque, comparable handle to a topological entity.
// Two uses of the same sub-shape must return the same handle.
type Shape interface {
	Kind() ShapeKind
	// SubShapes returns the direct children in a stable order:
	// edge -> vertices, face -> edges (loop order), solid -> faces,
	// compound -> members.
	SubShapes() []Shape
}

// Vertex is a topological point.
type Vertex interface {
	Shape
	Point() geom.Point
}

// Edge is a bounded curve. A closed edge returns the same vertex twice.
type Edge interface {
	Shape
	Vertices() (first, last Vertex)
}

// OrientedEdge is an edge as used by a loop.
type OrientedEdge struct {
	Edge     Edge
	Reversed bool
}

// Loop is a closed chain of oriented edges.
type Loop []OrientedEdge

// Face is a bounded surface. The outer loop comes first.
type Face interface {
	Shape
	Loops() []Loop
}

// Solid is a volume bounded by one or more shells.
type Solid interface {
	Shape
	Shells() [][]Face
}

// Kernel evaluates the geometry carried by shapes it owns. Calls on a shape
// from another kernel return an error wrapping ErrForeignShape.
type Kernel interface {
	// Curves
	CurveRange(e Edge) (t0, t1 float64, err error)
	CurvePoint(e Edge, t float64) (geom.Point, error)
	CurveD1(e Edge, t float64) (geom.Vector, error)
	CurveLength(e Edge) (float64, error)

	// Surfaces
	SurfacePoint(f Face, u, v float64) (geom.Point, error)
	SurfaceParam(f Face, p geom.Point) (u, v float64, err error)
	SurfaceNormal(f Face, u, v float64) (geom.Vector, error)
}

// ErrForeignShape is returned when a kernel is handed a shape it did not build.
var ErrForeignShape = fmt.Errorf("kernel: shape not owned by this kernel: %w", errs.ErrNotFound)

// Walk visits shape and its descendants depth-first, parents before
// children, calling fn once per distinct handle. Returning false from fn
// skips the children of that shape.
func Walk(fn func(Shape) bool, shapes ...Shape) {
	seen := make(map[Shape]bool)
	var visit func(s Shape)
	visit = func(s Shape) {
		if s == nil || seen[s] {
			return
		}
		seen[s] = true
		if !fn(s) {
			return
		}
		for _, c := range s.SubShapes() {
			visit(c)
		}
	}
	for _, s := range shapes {
		visit(s)
	}
}
