package analytic

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Transformed returns a deep copy of s mapped by tr. Sub-shapes shared inside
// s stay shared inside the copy. A singular transform is rejected, and so is
// a mirroring one, which would turn outward face normals inward.
func Transformed(s kernel.Shape, tr geom.Trsf) (kernel.Shape, error) {
	det := tr.Determinant()
	if det == 0 {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "analytic: transform is singular")
	}
	if det < 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: mirroring transforms are not supported")
	}
	c := &copier{tr: tr, memo: make(map[kernel.Shape]kernel.Shape)}
	return c.shape(s)
}

type copier struct {
	tr   geom.Trsf
	memo map[kernel.Shape]kernel.Shape
}

func (c *copier) shape(s kernel.Shape) (kernel.Shape, error) {
	if out, ok := c.memo[s]; ok {
		return out, nil
	}
	var (
		out kernel.Shape
		err error
	)
	switch v := s.(type) {
	case *vertex:
		out = &vertex{p: c.tr.Point(v.p)}
	case *edge:
		out, err = c.edge(v)
	case *face:
		out, err = c.face(v)
	case *solid:
		out, err = c.solid(v)
	case *compound:
		members := make([]kernel.Shape, len(v.members))
		for i, m := range v.members {
			if members[i], err = c.shape(m); err != nil {
				return nil, err
			}
		}
		out = &compound{members: members}
	default:
		return nil, fmt.Errorf("analytic: transform %T: %w", s, kernel.ErrForeignShape)
	}
	if err != nil {
		return nil, err
	}
	c.memo[s] = out
	return out, nil
}

func (c *copier) edge(e *edge) (*edge, error) {
	first, err := c.shape(e.first)
	if err != nil {
		return nil, err
	}
	last, err := c.shape(e.last)
	if err != nil {
		return nil, err
	}
	nc := e.c.transformed(c.tr)
	if nc == nil {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "analytic: transformed edge collapsed")
	}
	return &edge{first: first.(*vertex), last: last.(*vertex), c: nc}, nil
}

func (c *copier) face(f *face) (*face, error) {
	loops := make([]kernel.Loop, len(f.loops))
	for i, l := range f.loops {
		nl := make(kernel.Loop, len(l))
		for j, oe := range l {
			ne, err := c.shape(oe.Edge)
			if err != nil {
				return nil, err
			}
			nl[j] = kernel.OrientedEdge{Edge: ne.(*edge), Reversed: oe.Reversed}
		}
		loops[i] = nl
	}
	return &face{
		origin: c.tr.Point(f.origin),
		xv:     c.tr.Vector(f.xv),
		yv:     c.tr.Vector(f.yv),
		loops:  loops,
	}, nil
}

func (c *copier) solid(s *solid) (*solid, error) {
	shells := make([][]kernel.Face, len(s.shells))
	for i, sh := range s.shells {
		shells[i] = make([]kernel.Face, len(sh))
		for j, f := range sh {
			nf, err := c.shape(f)
			if err != nil {
				return nil, err
			}
			shells[i][j] = nf.(*face)
		}
	}
	return &solid{shells: shells}, nil
}
