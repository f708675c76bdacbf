// Package analytic implements kernel.Kernel for exact lines, circular arcs and
// planar faces. It is small enough to embed in tests and scripts while still
// producing the shared-topology shapes a real CAD kernel would.
package analytic

import (
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Compile-time interface checks.
var (
	_ kernel.Vertex = (*vertex)(nil)
	_ kernel.Edge   = (*edge)(nil)
	_ kernel.Face   = (*face)(nil)
	_ kernel.Solid  = (*solid)(nil)
	_ kernel.Shape  = (*compound)(nil)
)

type vertex struct {
	p geom.Point
}

func (v *vertex) Kind() ShapeKind           { return kernel.KindVertex }
func (v *vertex) SubShapes() []kernel.Shape { return nil }
func (v *vertex) Point() geom.Point         { return v.p }

// ShapeKind is re-exported for brevity inside this package.
type ShapeKind = kernel.ShapeKind

type edge struct {
	first, last *vertex
	c           curve
}

func (e *edge) Kind() ShapeKind { return kernel.KindEdge }

func (e *edge) SubShapes() []kernel.Shape {
	if e.first == e.last {
		return []kernel.Shape{e.first}
	}
	return []kernel.Shape{e.first, e.last}
}

func (e *edge) Vertices() (kernel.Vertex, kernel.Vertex) { return e.first, e.last }

// face is a planar face: Point(u, v) = origin + u*xv + v*yv.
type face struct {
	origin geom.Point
	xv, yv geom.Vector
	loops  []kernel.Loop
}

func (f *face) Kind() ShapeKind { return kernel.KindFace }

// SubShapes returns the distinct edges in loop order.
func (f *face) SubShapes() []kernel.Shape {
	var out []kernel.Shape
	seen := make(map[kernel.Shape]bool)
	for _, l := range f.loops {
		for _, oe := range l {
			if !seen[oe.Edge] {
				seen[oe.Edge] = true
				out = append(out, oe.Edge)
			}
		}
	}
	return out
}

func (f *face) Loops() []kernel.Loop { return f.loops }

type solid struct {
	shells [][]kernel.Face
}

func (s *solid) Kind() ShapeKind { return kernel.KindSolid }

func (s *solid) SubShapes() []kernel.Shape {
	var out []kernel.Shape
	for _, sh := range s.shells {
		for _, f := range sh {
			out = append(out, f)
		}
	}
	return out
}

func (s *solid) Shells() [][]kernel.Face { return s.shells }

type compound struct {
	members []kernel.Shape
}

func (c *compound) Kind() ShapeKind           { return kernel.KindCompound }
func (c *compound) SubShapes() []kernel.Shape { return c.members }

// Compound groups shapes without adding topology of its own.
func Compound(shapes ...kernel.Shape) kernel.Shape {
	return &compound{members: append([]kernel.Shape(nil), shapes...)}
}
