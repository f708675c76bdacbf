package scheme

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// SurfaceGeometry is what a surface scheme needs from a surface.
type SurfaceGeometry interface {
	Point(u, v float64) (geom.Point, error)
	Param(p geom.Point) (u, v float64, err error)
	Normal(u, v float64) (geom.Vector, error)
}

// Node is an existing mesh node handed to a scheme. U and V are its
// parameters on the surface being meshed.
type Node struct {
	ID    int
	Point geom.Point
	U, V  float64
}

// SurfaceInput is the boundary of a surface to be meshed.
type SurfaceInput struct {
	Surface SurfaceGeometry
	// Loops are closed node chains, outer loop first. The last node
	// connects back to the first and is not repeated.
	Loops [][]Node
	// Sides splits the outer loop per boundary curve use. Each side holds
	// both of its end nodes.
	Sides [][]Node
}

// Cell is an element over node references. A reference >= 0 is the ID of an
// input node; a negative reference r names Output.Points[-r-1].
type Cell struct {
	Type  umesh.ElementType
	Nodes []int
}

// Output is what a surface or volume scheme produces.
type Output struct {
	Points []geom.Point
	Cells  []Cell
}

// NewRef returns the cell reference of Output.Points[i].
func NewRef(i int) int { return -(i + 1) }

// RefIndex returns the Output.Points index of a reference, and whether the
// reference names a new point at all.
func RefIndex(ref int) (int, bool) {
	if ref < 0 {
		return -ref - 1, true
	}
	return 0, false
}

// maxRefinePasses bounds max_area refinement.
const maxRefinePasses = 8

// surfaceBuilder accumulates new points and looks up coordinates by ref.
type surfaceBuilder struct {
	surf SurfaceGeometry
	out  *Output
	uv   map[int][2]float64
	pt   map[int]geom.Point
}

func newSurfaceBuilder(in *SurfaceInput) *surfaceBuilder {
	b := &surfaceBuilder{
		surf: in.Surface,
		out:  &Output{},
		uv:   make(map[int][2]float64),
		pt:   make(map[int]geom.Point),
	}
	for _, l := range in.Loops {
		for _, n := range l {
			b.uv[n.ID] = [2]float64{n.U, n.V}
			b.pt[n.ID] = n.Point
		}
	}
	return b
}

func (b *surfaceBuilder) add(u, v float64) (int, error) {
	p, err := b.surf.Point(u, v)
	if err != nil {
		return 0, err
	}
	ref := NewRef(len(b.out.Points))
	b.out.Points = append(b.out.Points, p)
	b.uv[ref] = [2]float64{u, v}
	b.pt[ref] = p
	return ref, nil
}

func (b *surfaceBuilder) area(t [3]int) float64 {
	a, p, q := b.pt[t[0]], b.pt[t[1]], b.pt[t[2]]
	return 0.5 * p.Sub(a).Cross(q.Sub(a)).Norm()
}

// triangleSurface ear-clips the boundary in (u, v) and optionally splits
// triangles larger than max_area at their centroids. Holes are bridged into
// the outer loop first.
func triangleSurface(s *Scheme, in *SurfaceInput) (*Output, error) {
	if len(in.Loops) == 0 || len(in.Loops[0]) < 3 {
		n := 0
		if len(in.Loops) > 0 {
			n = len(in.Loops[0])
		}
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "boundary has %d nodes, need at least 3", n)
	}
	b := newSurfaceBuilder(in)

	poly, err := bridgeHoles(in.Loops)
	if err != nil {
		return nil, err
	}
	uv := make([][2]float64, len(poly))
	for i, n := range poly {
		uv[i] = nodeUV(n)
	}
	local, err := earClip(uv)
	if err != nil {
		return nil, err
	}
	tris := make([][3]int, len(local))
	for i, t := range local {
		tris[i] = [3]int{poly[t[0]].ID, poly[t[1]].ID, poly[t[2]].ID}
	}

	if s.IsSet("max_area") {
		maxArea, err := s.Float("max_area")
		if err != nil {
			return nil, err
		}
		for pass := 0; pass < maxRefinePasses; pass++ {
			next := make([][3]int, 0, len(tris))
			split := false
			for _, t := range tris {
				if b.area(t) <= maxArea {
					next = append(next, t)
					continue
				}
				split = true
				u := (b.uv[t[0]][0] + b.uv[t[1]][0] + b.uv[t[2]][0]) / 3
				v := (b.uv[t[0]][1] + b.uv[t[1]][1] + b.uv[t[2]][1]) / 3
				c, err := b.add(u, v)
				if err != nil {
					return nil, err
				}
				next = append(next,
					[3]int{t[0], t[1], c},
					[3]int{t[1], t[2], c},
					[3]int{t[2], t[0], c},
				)
			}
			tris = next
			if !split {
				break
			}
		}
	}

	for _, t := range tris {
		b.out.Cells = append(b.out.Cells, Cell{Type: umesh.Tri3, Nodes: []int{t[0], t[1], t[2]}})
	}
	return b.out, nil
}

// earClip triangulates a simple polygon given in order. The returned
// triangles index into uv and wind counter-clockwise. Coincident entries,
// as left by hole bridges, never block an ear.
func earClip(uv [][2]float64) ([][3]int, error) {
	n := len(uv)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if signedArea(uv, idx) < 0 {
		slices.Reverse(idx)
	}

	var out [][3]int
	for len(idx) > 3 {
		ear := -1
		for i := range idx {
			a, b, c := idx[(i+len(idx)-1)%len(idx)], idx[i], idx[(i+1)%len(idx)]
			if isEar(uv, idx, a, b, c) {
				ear = i
				break
			}
		}
		if ear < 0 {
			return nil, errs.Errorf(errs.ErrDegenerateGeometry, "boundary polygon is not simple")
		}
		a, b, c := idx[(ear+len(idx)-1)%len(idx)], idx[ear], idx[(ear+1)%len(idx)]
		out = append(out, [3]int{a, b, c})
		idx = append(idx[:ear], idx[ear+1:]...)
	}
	if cross(uv[idx[0]], uv[idx[1]], uv[idx[2]]) <= 0 {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "boundary polygon has zero area")
	}
	return append(out, [3]int{idx[0], idx[1], idx[2]}), nil
}

func nodeUV(n Node) [2]float64 { return [2]float64{n.U, n.V} }

// loopArea is the signed (u, v) area of a closed node chain.
func loopArea(loop []Node) float64 {
	var a float64
	for i, n := range loop {
		p, q := nodeUV(n), nodeUV(loop[(i+1)%len(loop)])
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// oriented returns loop wound counter-clockwise when ccw is set and
// clockwise otherwise.
func oriented(loop []Node, ccw bool) []Node {
	out := slices.Clone(loop)
	if (loopArea(out) > 0) != ccw {
		slices.Reverse(out)
	}
	return out
}

// bridgeHoles joins every hole to the outer loop through a zero-width
// channel, giving one counter-clockwise polygon. Holes are taken right to
// left; each is cut in at its rightmost node.
func bridgeHoles(loops [][]Node) ([]Node, error) {
	poly := oriented(loops[0], true)
	holes := make([][]Node, 0, len(loops)-1)
	for i, h := range loops[1:] {
		if len(h) < 3 {
			return nil, errs.Errorf(errs.ErrDegenerateGeometry, "hole %d has %d nodes, need at least 3", i+1, len(h))
		}
		holes = append(holes, oriented(h, false))
	}
	slices.SortStableFunc(holes, func(a, b []Node) int {
		return cmp.Compare(nodeUV(b[rightmost(b)])[0], nodeUV(a[rightmost(a)])[0])
	})
	for i, h := range holes {
		var err error
		if poly, err = bridge(poly, h); err != nil {
			return nil, fmt.Errorf("hole %d: %w", i+1, err)
		}
	}
	return poly, nil
}

// rightmost returns the index of the node with the largest u, the largest
// v breaking ties.
func rightmost(loop []Node) int {
	best := 0
	for i, n := range loop {
		p, q := nodeUV(n), nodeUV(loop[best])
		if p[0] > q[0] || (p[0] == q[0] && p[1] > q[1]) {
			best = i
		}
	}
	return best
}

// bridge splices hole into the counter-clockwise poly. A ray cast along +u
// from the hole's rightmost node finds the nearest poly edge. The bridge
// goes to the node the ray hits, else to that edge's right end unless a
// reflex node inside the sight triangle hides it; then the reflex node
// closest in angle to the ray is used.
func bridge(poly, hole []Node) ([]Node, error) {
	m := rightmost(hole)
	mp := nodeUV(hole[m])
	n := len(poly)

	edge, hit := -1, math.Inf(1)
	for i := range poly {
		a, b := nodeUV(poly[i]), nodeUV(poly[(i+1)%n])
		if a[1] == b[1] || min(a[1], b[1]) > mp[1] || max(a[1], b[1]) < mp[1] {
			continue
		}
		x := a[0] + (mp[1]-a[1])/(b[1]-a[1])*(b[0]-a[0])
		if x >= mp[0] && x < hit {
			edge, hit = i, x
		}
	}
	if edge < 0 {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "hole is not inside the outer boundary")
	}

	ip := [2]float64{hit, mp[1]}
	cand := edge
	switch a, b := nodeUV(poly[edge]), nodeUV(poly[(edge+1)%n]); {
	case a == ip:
	case b == ip:
		cand = (edge + 1) % n
	default:
		if b[0] > a[0] {
			cand = (edge + 1) % n
		}
		pc := nodeUV(poly[cand])
		t0, t1, t2 := mp, ip, pc
		if cross(t0, t1, t2) < 0 {
			t1, t2 = t2, t1
		}
		bestAng := math.Atan2(math.Abs(pc[1]-mp[1]), pc[0]-mp[0])
		bestDist := math.Hypot(pc[0]-mp[0], pc[1]-mp[1])
		for j := range poly {
			q := nodeUV(poly[j])
			if j == cand || q == pc {
				continue
			}
			prev, next := nodeUV(poly[(j+n-1)%n]), nodeUV(poly[(j+1)%n])
			if cross(prev, q, next) > 0 || !inTriangle(q, t0, t1, t2) {
				continue
			}
			ang := math.Atan2(math.Abs(q[1]-mp[1]), q[0]-mp[0])
			dist := math.Hypot(q[0]-mp[0], q[1]-mp[1])
			if ang < bestAng || (ang == bestAng && dist < bestDist) {
				cand, bestAng, bestDist = j, ang, dist
			}
		}
	}

	// An earlier bridge may have duplicated the target; splice at the copy
	// whose interior wedge faces the hole.
	q := nodeUV(poly[cand])
	d := [2]float64{mp[0] - q[0], mp[1] - q[1]}
	for j := range poly {
		if nodeUV(poly[j]) == q && inWedge(poly, j, d) {
			cand = j
			break
		}
	}

	out := make([]Node, 0, n+len(hole)+2)
	out = append(out, poly[:cand+1]...)
	for k := 0; k <= len(hole); k++ {
		out = append(out, hole[(m+k)%len(hole)])
	}
	return append(out, poly[cand:]...), nil
}

// inWedge reports whether direction d leaves node j of a counter-clockwise
// polygon into its interior.
func inWedge(poly []Node, j int, d [2]float64) bool {
	n := len(poly)
	p, q, r := nodeUV(poly[(j+n-1)%n]), nodeUV(poly[j]), nodeUV(poly[(j+1)%n])
	x := [2]float64{q[0] + d[0], q[1] + d[1]}
	l1, l2 := cross(p, q, x) > 0, cross(q, r, x) > 0
	if cross(p, q, r) > 0 {
		return l1 && l2
	}
	return l1 || l2
}

func signedArea(uv [][2]float64, idx []int) float64 {
	var a float64
	for i := range idx {
		p, q := uv[idx[i]], uv[idx[(i+1)%len(idx)]]
		a += p[0]*q[1] - q[0]*p[1]
	}
	return a / 2
}

// cross is twice the signed area of triangle abc.
func cross(a, b, c [2]float64) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

func isEar(uv [][2]float64, idx []int, a, b, c int) bool {
	if cross(uv[a], uv[b], uv[c]) <= 0 {
		return false
	}
	for _, p := range idx {
		if p == a || p == b || p == c {
			continue
		}
		if uv[p] == uv[a] || uv[p] == uv[b] || uv[p] == uv[c] {
			continue
		}
		if inTriangle(uv[p], uv[a], uv[b], uv[c]) {
			return false
		}
	}
	return true
}

func inTriangle(p, a, b, c [2]float64) bool {
	return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
}

// transfiniteSurface builds a structured grid from four boundary sides with
// a Coons patch in (u, v).
func transfiniteSurface(s *Scheme, in *SurfaceInput) (*Output, error) {
	if len(in.Loops) != 1 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q does not support faces with holes (%d loops)", s.Name(), len(in.Loops))
	}
	if len(in.Sides) != 4 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q needs 4 boundary curves, got %d", s.Name(), len(in.Sides))
	}
	s0, s1, s2, s3 := in.Sides[0], in.Sides[1], in.Sides[2], in.Sides[3]
	if len(s0) != len(s2) || len(s1) != len(s3) {
		return nil, errs.Errorf(errs.ErrInvalidParameter,
			"opposite sides need equal node counts, got %d/%d and %d/%d", len(s0), len(s2), len(s1), len(s3))
	}
	for i := range in.Sides {
		a, b := in.Sides[i], in.Sides[(i+1)%4]
		if len(a) < 2 || a[len(a)-1].ID != b[0].ID {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "side %d does not end where side %d starts", i, (i+1)%4)
		}
	}
	triangulate, err := s.Bool("triangulate")
	if err != nil {
		return nil, err
	}

	nu, nv := len(s0)-1, len(s1)-1
	bottom := func(i int) Node { return s0[i] }
	right := func(j int) Node { return s1[j] }
	top := func(i int) Node { return s2[nu-i] }
	left := func(j int) Node { return s3[nv-j] }

	fb := chordFractions(nu, bottom)
	ft := chordFractions(nu, top)
	fl := chordFractions(nv, left)
	fr := chordFractions(nv, right)

	c0, c1, c2, c3 := s0[0], s0[nu], s1[nv], s2[nu]
	b := newSurfaceBuilder(in)
	grid := make([][]int, nu+1)
	for i := range grid {
		grid[i] = make([]int, nv+1)
		grid[i][0] = bottom(i).ID
		grid[i][nv] = top(i).ID
	}
	for j := 0; j <= nv; j++ {
		grid[0][j] = left(j).ID
		grid[nu][j] = right(j).ID
	}
	for i := 1; i < nu; i++ {
		for j := 1; j < nv; j++ {
			xi := (fb[i] + ft[i]) / 2
			eta := (fl[j] + fr[j]) / 2
			coons := func(get func(Node) float64) float64 {
				return (1-eta)*get(bottom(i)) + eta*get(top(i)) +
					(1-xi)*get(left(j)) + xi*get(right(j)) -
					((1-xi)*(1-eta)*get(c0) + xi*(1-eta)*get(c1) + xi*eta*get(c2) + (1-xi)*eta*get(c3))
			}
			ref, err := b.add(coons(func(n Node) float64 { return n.U }), coons(func(n Node) float64 { return n.V }))
			if err != nil {
				return nil, err
			}
			grid[i][j] = ref
		}
	}

	for i := 0; i < nu; i++ {
		for j := 0; j < nv; j++ {
			q := []int{grid[i][j], grid[i+1][j], grid[i+1][j+1], grid[i][j+1]}
			if triangulate {
				b.out.Cells = append(b.out.Cells,
					Cell{Type: umesh.Tri3, Nodes: []int{q[0], q[1], q[2]}},
					Cell{Type: umesh.Tri3, Nodes: []int{q[0], q[2], q[3]}},
				)
				continue
			}
			b.out.Cells = append(b.out.Cells, Cell{Type: umesh.Quad4, Nodes: q})
		}
	}
	return b.out, nil
}

// chordFractions returns the normalized cumulative chord length along a side.
func chordFractions(n int, at func(int) Node) []float64 {
	f := make([]float64, n+1)
	for i := 1; i <= n; i++ {
		f[i] = f[i-1] + at(i).Point.Distance(at(i-1).Point)
	}
	total := f[n]
	for i := range f {
		if total > 0 {
			f[i] /= total
		} else {
			f[i] = float64(i) / float64(n)
		}
	}
	return f
}
