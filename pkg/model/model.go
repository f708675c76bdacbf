// Package model builds the tagged geometric topology graph that meshing
// operates on. A Model mirrors the vertices, curves, surfaces and volumes of
// one or more kernel shapes and numbers each dimension from 1.
//
// A Model is immutable once built and safe for concurrent readers.
package model

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Model is the geometric topology of a set of shapes.
type Model struct {
	k kernel.Kernel

	vertices []*Vertex
	curves   []*Curve
	surfaces []*Surface
	volumes  []*Volume

	curvesOf   map[*Vertex][]*Curve
	surfacesOf map[*Curve][]*Surface
	volumesOf  map[*Surface][]*Volume
}

// New walks shapes depth-first and tags every distinct sub-shape. Tags are
// assigned per dimension in first-encounter order, so the same input always
// yields the same numbering. Compounds are flattened.
func New(k kernel.Kernel, shapes ...kernel.Shape) (*Model, error) {
	if k == nil {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "model: nil kernel")
	}
	m := &Model{
		k:          k,
		curvesOf:   make(map[*Vertex][]*Curve),
		surfacesOf: make(map[*Curve][]*Surface),
		volumesOf:  make(map[*Surface][]*Volume),
	}

	var (
		vs []kernel.Vertex
		es []kernel.Edge
		fs []kernel.Face
		ss []kernel.Solid
	)
	var walkErr error
	kernel.Walk(func(s kernel.Shape) bool {
		switch s.Kind() {
		case kernel.KindVertex:
			v, ok := s.(kernel.Vertex)
			if !ok {
				walkErr = fmt.Errorf("model: %T reports kind vertex but is not a kernel.Vertex", s)
			}
			vs = append(vs, v)
		case kernel.KindEdge:
			e, ok := s.(kernel.Edge)
			if !ok {
				walkErr = fmt.Errorf("model: %T reports kind edge but is not a kernel.Edge", s)
			}
			es = append(es, e)
		case kernel.KindFace:
			f, ok := s.(kernel.Face)
			if !ok {
				walkErr = fmt.Errorf("model: %T reports kind face but is not a kernel.Face", s)
			}
			fs = append(fs, f)
		case kernel.KindSolid:
			so, ok := s.(kernel.Solid)
			if !ok {
				walkErr = fmt.Errorf("model: %T reports kind solid but is not a kernel.Solid", s)
			}
			ss = append(ss, so)
		}
		return walkErr == nil
	}, shapes...)
	if walkErr != nil {
		return nil, walkErr
	}

	vertexOf := make(map[kernel.Vertex]*Vertex, len(vs))
	for i, v := range vs {
		mv := &Vertex{tag: i + 1, shape: v, point: v.Point()}
		m.vertices = append(m.vertices, mv)
		vertexOf[v] = mv
	}

	curveOf := make(map[kernel.Edge]*Curve, len(es))
	for i, e := range es {
		c, err := newCurve(k, i+1, e, vertexOf)
		if err != nil {
			return nil, err
		}
		m.curves = append(m.curves, c)
		curveOf[e] = c
		m.curvesOf[c.first] = append(m.curvesOf[c.first], c)
		if c.last != c.first {
			m.curvesOf[c.last] = append(m.curvesOf[c.last], c)
		}
	}

	surfaceOf := make(map[kernel.Face]*Surface, len(fs))
	for i, f := range fs {
		s, err := newSurface(k, i+1, f, curveOf)
		if err != nil {
			return nil, err
		}
		m.surfaces = append(m.surfaces, s)
		surfaceOf[f] = s
		for _, c := range s.curves {
			m.surfacesOf[c] = append(m.surfacesOf[c], s)
		}
	}

	for i, so := range ss {
		v, err := newVolume(i+1, so, surfaceOf)
		if err != nil {
			return nil, err
		}
		m.volumes = append(m.volumes, v)
		for _, s := range v.surfaces {
			m.volumesOf[s] = append(m.volumesOf[s], v)
		}
	}
	return m, nil
}

// Kernel returns the kernel that evaluates this model's geometry.
func (m *Model) Kernel() kernel.Kernel { return m.k }

// ----------------------------------------------------------------------------
// Lookups
// ----------------------------------------------------------------------------

func lookup[T any](items []*T, kind string, tag int) (*T, error) {
	if tag < 1 || tag > len(items) {
		return nil, errs.New("lookup", kind, tag, errs.ErrNotFound, "model has %d %ss", len(items), kind)
	}
	return items[tag-1], nil
}

// Vertex returns the vertex with the given tag.
func (m *Model) Vertex(tag int) (*Vertex, error) { return lookup(m.vertices, "vertex", tag) }

// Curve returns the curve with the given tag.
func (m *Model) Curve(tag int) (*Curve, error) { return lookup(m.curves, "curve", tag) }

// Surface returns the surface with the given tag.
func (m *Model) Surface(tag int) (*Surface, error) { return lookup(m.surfaces, "surface", tag) }

// Volume returns the volume with the given tag.
func (m *Model) Volume(tag int) (*Volume, error) { return lookup(m.volumes, "volume", tag) }

// Vertices returns all vertices in tag order.
func (m *Model) Vertices() []*Vertex { return append([]*Vertex(nil), m.vertices...) }

// Curves returns all curves in tag order.
func (m *Model) Curves() []*Curve { return append([]*Curve(nil), m.curves...) }

// Surfaces returns all surfaces in tag order.
func (m *Model) Surfaces() []*Surface { return append([]*Surface(nil), m.surfaces...) }

// Volumes returns all volumes in tag order.
func (m *Model) Volumes() []*Volume { return append([]*Volume(nil), m.volumes...) }

// CurvesOf returns the curves bounded by v, in tag order.
func (m *Model) CurvesOf(v *Vertex) []*Curve { return append([]*Curve(nil), m.curvesOf[v]...) }

// SurfacesOf returns the surfaces bounded by c, in tag order.
func (m *Model) SurfacesOf(c *Curve) []*Surface {
	return append([]*Surface(nil), m.surfacesOf[c]...)
}

// VolumesOf returns the volumes bounded by s, in tag order.
func (m *Model) VolumesOf(s *Surface) []*Volume {
	return append([]*Volume(nil), m.volumesOf[s]...)
}

// boundsSamples is the number of points sampled per curve for BoundingBox.
const boundsSamples = 16

// BoundingBox returns the box around every vertex and sampled curve point.
func (m *Model) BoundingBox() geom.BoundingBox {
	var bb geom.BoundingBox
	for _, v := range m.vertices {
		bb = bb.Include(v.point)
	}
	for _, c := range m.curves {
		for i := 0; i <= boundsSamples; i++ {
			t := c.t0 + (c.t1-c.t0)*float64(i)/boundsSamples
			if p, err := c.Point(t); err == nil {
				bb = bb.Include(p)
			}
		}
	}
	return bb
}
