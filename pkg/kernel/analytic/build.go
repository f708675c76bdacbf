package analytic

import (
	"fmt"
	"math"
	"slices"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
)

// Vertex returns a new topological vertex at p.
func Vertex(p geom.Point) kernel.Vertex {
	return &vertex{p: p}
}

// Line returns a straight edge between two new vertices.
func Line(a, b geom.Point) (kernel.Edge, error) {
	return LineBetween(Vertex(a), Vertex(b))
}

// LineBetween returns a straight edge joining two existing vertices, so that
// edges built this way share their end points.
func LineBetween(a, b kernel.Vertex) (kernel.Edge, error) {
	va, ok1 := a.(*vertex)
	vb, ok2 := b.(*vertex)
	if !ok1 || !ok2 {
		return nil, fmt.Errorf("analytic: line: %w", kernel.ErrForeignShape)
	}
	l, ok := newLine(va.p, vb.p)
	if !ok {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "analytic: line from %v to %v has zero length", va.p, vb.p)
	}
	return &edge{first: va, last: vb, c: l}, nil
}

// Arc returns a circular arc of radius r in the frame's XY plane, from angle
// a0 to a1 (radians, counter-clockwise about the frame direction). A full
// turn yields a closed edge on a single vertex.
func Arc(frame geom.Axis2, r, a0, a1 float64) (kernel.Edge, error) {
	if r <= 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: arc radius must be > 0, got %g", r)
	}
	if a1 <= a0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: arc end angle %g must exceed start %g", a1, a0)
	}
	if a1-a0 > 2*math.Pi+geom.AngularTolerance {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: arc sweep %g exceeds a full turn", a1-a0)
	}
	c := &arc{
		center: frame.Location,
		xv:     frame.XDirection.Scale(r),
		yv:     frame.YDirection.Scale(r),
		a0:     a0,
		a1:     a1,
	}
	first := &vertex{p: c.point(a0)}
	last := first
	if !c.closed() {
		last = &vertex{p: c.point(a1)}
	}
	return &edge{first: first, last: last, c: c}, nil
}

// Circle returns a closed circular edge.
func Circle(frame geom.Axis2, r float64) (kernel.Edge, error) {
	return Arc(frame, r, 0, 2*math.Pi)
}

// PlanarFace builds a face on the frame's XY plane bounded by loops. The
// outer loop comes first and must run counter-clockwise about the frame
// direction; holes run clockwise.
func PlanarFace(frame geom.Axis2, loops ...kernel.Loop) (kernel.Face, error) {
	if len(loops) == 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: face needs at least one loop")
	}
	for i, l := range loops {
		if err := checkLoop(l); err != nil {
			return nil, fmt.Errorf("analytic: face loop %d: %w", i, err)
		}
	}
	return &face{
		origin: frame.Location,
		xv:     frame.XDirection,
		yv:     frame.YDirection,
		loops:  loops,
	}, nil
}

// checkLoop verifies that consecutive oriented edges join end to start.
func checkLoop(l kernel.Loop) error {
	if len(l) == 0 {
		return errs.Errorf(errs.ErrInvalidParameter, "empty loop")
	}
	for i, oe := range l {
		if _, err := unwrapEdge(oe.Edge); err != nil {
			return err
		}
		_, end := orient(oe)
		start, _ := orient(l[(i+1)%len(l)])
		if end != start {
			return errs.Errorf(errs.ErrInvalidParameter, "edge %d does not connect to edge %d", i, (i+1)%len(l))
		}
	}
	return nil
}

// orient returns the start and end vertices of an oriented edge.
func orient(oe kernel.OrientedEdge) (kernel.Vertex, kernel.Vertex) {
	a, b := oe.Edge.Vertices()
	if oe.Reversed {
		return b, a
	}
	return a, b
}

// polygonLoop joins vs in order with shared straight edges.
func polygonLoop(vs []kernel.Vertex) (kernel.Loop, error) {
	loop := make(kernel.Loop, len(vs))
	for i := range vs {
		e, err := LineBetween(vs[i], vs[(i+1)%len(vs)])
		if err != nil {
			return nil, err
		}
		loop[i] = kernel.OrientedEdge{Edge: e}
	}
	return loop, nil
}

// Polygon returns a planar face bounded by straight edges through pts. The
// face normal follows the winding of pts.
func Polygon(pts ...geom.Point) (kernel.Face, error) {
	return PolygonWithHoles(pts)
}

// PolygonWithHoles returns a planar polygon face with polygonal holes. The
// face normal follows the winding of outer; holes may wind either way and
// are stored clockwise about that normal.
func PolygonWithHoles(outer []geom.Point, holes ...[]geom.Point) (kernel.Face, error) {
	if len(outer) < 3 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: polygon needs at least 3 points, got %d", len(outer))
	}
	n := newellNormal(outer)
	frame, err := geom.NewAxis2WithX(outer[0], n, outer[1].Sub(outer[0]))
	if err != nil {
		return nil, fmt.Errorf("analytic: polygon: %w", err)
	}
	var bb geom.BoundingBox
	for _, p := range outer {
		bb = bb.Include(p)
	}
	tol := geom.LinearTolerance * math.Max(1, bb.Diagonal())
	rings := append([][]geom.Point{outer}, holes...)
	loops := make([]kernel.Loop, len(rings))
	for i, ring := range rings {
		if len(ring) < 3 {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: polygon hole %d needs at least 3 points, got %d", i, len(ring))
		}
		for _, p := range ring {
			if _, _, w := frame.Coordinates(p); math.Abs(w) > tol {
				return nil, errs.Errorf(errs.ErrInvalidParameter, "analytic: polygon point %v is not on the plane", p)
			}
		}
		if i > 0 && newellNormal(ring).Dot(n) > 0 {
			ring = slices.Clone(ring)
			slices.Reverse(ring)
		}
		vs := make([]kernel.Vertex, len(ring))
		for j, p := range ring {
			vs[j] = Vertex(p)
		}
		loop, err := polygonLoop(vs)
		if err != nil {
			return nil, fmt.Errorf("analytic: polygon: %w", err)
		}
		loops[i] = loop
	}
	return PlanarFace(frame, loops...)
}

// newellNormal returns the (unnormalized) polygon normal.
func newellNormal(pts []geom.Point) geom.Vector {
	var n geom.Vector
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return n
}

// Rectangle returns an axis-aligned face in the plane z = p0.Z spanning the
// XY extent of p0 and p1, with normal +Z.
func Rectangle(p0, p1 geom.Point) (kernel.Face, error) {
	x0, x1 := math.Min(p0.X, p1.X), math.Max(p0.X, p1.X)
	y0, y1 := math.Min(p0.Y, p1.Y), math.Max(p0.Y, p1.Y)
	z := p0.Z
	return Polygon(
		geom.NewPoint(x0, y0, z),
		geom.NewPoint(x1, y0, z),
		geom.NewPoint(x1, y1, z),
		geom.NewPoint(x0, y1, z),
	)
}

// CircleFace returns a disc of radius r centred at c with normal +Z. Its
// topology is one vertex, one closed edge and one face.
func CircleFace(c geom.Point, r float64) (kernel.Face, error) {
	frame := geom.DefaultAxis2()
	frame.Location = c
	e, err := Circle(frame, r)
	if err != nil {
		return nil, err
	}
	return PlanarFace(frame, kernel.Loop{{Edge: e}})
}

// Box returns an axis-aligned solid between p0 and p1. The faces share their
// edges and vertices and every face normal points outward.
func Box(p0, p1 geom.Point) (kernel.Solid, error) {
	lo := geom.NewPoint(math.Min(p0.X, p1.X), math.Min(p0.Y, p1.Y), math.Min(p0.Z, p1.Z))
	hi := geom.NewPoint(math.Max(p0.X, p1.X), math.Max(p0.Y, p1.Y), math.Max(p0.Z, p1.Z))
	d := hi.Sub(lo)
	if d.X < geom.LinearTolerance || d.Y < geom.LinearTolerance || d.Z < geom.LinearTolerance {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "analytic: box %v-%v has zero extent", lo, hi)
	}

	// Corners 0-3 on the bottom, 4-7 on the top, counter-clockwise from lo.
	var v [8]*vertex
	for i := range v {
		p := lo
		if i&3 == 1 || i&3 == 2 {
			p.X = hi.X
		}
		if i&3 >= 2 {
			p.Y = hi.Y
		}
		if i >= 4 {
			p.Z = hi.Z
		}
		v[i] = &vertex{p: p}
	}

	// Bottom ring, top ring, then verticals.
	pairs := [12][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 0},
		{4, 5}, {5, 6}, {6, 7}, {7, 4},
		{0, 4}, {1, 5}, {2, 6}, {3, 7},
	}
	var e [12]kernel.Edge
	for i, pr := range pairs {
		var err error
		if e[i], err = LineBetween(v[pr[0]], v[pr[1]]); err != nil {
			return nil, err
		}
	}

	// Each loop runs counter-clockwise seen from outside.
	type use struct {
		edge int
		rev  bool
	}
	faces := []struct {
		normal geom.Vector
		loop   []use
	}{
		{geom.NewVector(0, 0, -1), []use{{3, true}, {2, true}, {1, true}, {0, true}}},
		{geom.NewVector(0, 0, 1), []use{{4, false}, {5, false}, {6, false}, {7, false}}},
		{geom.NewVector(0, -1, 0), []use{{0, false}, {9, false}, {4, true}, {8, true}}},
		{geom.NewVector(0, 1, 0), []use{{2, false}, {11, false}, {6, true}, {10, true}}},
		{geom.NewVector(-1, 0, 0), []use{{3, false}, {8, false}, {7, true}, {11, true}}},
		{geom.NewVector(1, 0, 0), []use{{1, false}, {10, false}, {5, true}, {9, true}}},
	}

	shell := make([]kernel.Face, 0, len(faces))
	for _, fd := range faces {
		loop := make(kernel.Loop, len(fd.loop))
		for i, u := range fd.loop {
			loop[i] = kernel.OrientedEdge{Edge: e[u.edge], Reversed: u.rev}
		}
		start, end := orient(loop[0])
		frame, err := geom.NewAxis2WithX(start.Point(), fd.normal, end.Point().Sub(start.Point()))
		if err != nil {
			return nil, err
		}
		f, err := PlanarFace(frame, loop)
		if err != nil {
			return nil, err
		}
		shell = append(shell, f)
	}
	return &solid{shells: [][]kernel.Face{shell}}, nil
}
