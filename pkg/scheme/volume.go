package scheme

import (
	"math"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// VolumeInput is the closed boundary of a volume to be meshed.
type VolumeInput struct {
	// Nodes holds the position of every boundary node by ID.
	Nodes map[int]geom.Point
	// Facets are TRI3 or QUAD4 cells over node IDs. They should wind
	// outward, but tessellators must not rely on it.
	Facets []Cell
	// Tessellator fills the volume. Nil selects CentroidTessellator.
	Tessellator Tessellator
}

// Tessellator turns a closed surface mesh into tetrahedra.
type Tessellator interface {
	Tessellate(in *VolumeInput) (*Output, error)
}

// TessellatorFunc adapts a function to the Tessellator interface.
type TessellatorFunc func(in *VolumeInput) (*Output, error)

// Tessellate calls f.
func (f TessellatorFunc) Tessellate(in *VolumeInput) (*Output, error) { return f(in) }

// CentroidTessellator fans every boundary triangle to one interior node at
// the centroid of the boundary nodes. It is exact for volumes that are
// star-shaped about that centroid, which includes every convex solid.
type CentroidTessellator struct{}

var _ Tessellator = CentroidTessellator{}

// Tessellate implements Tessellator.
func (CentroidTessellator) Tessellate(in *VolumeInput) (*Output, error) {
	if len(in.Facets) == 0 || len(in.Nodes) == 0 {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "volume boundary is empty")
	}
	var sum geom.Vector
	for _, p := range in.Nodes {
		sum = sum.Add(p.AsVector())
	}
	centre := geom.Origin.Add(sum.Scale(1 / float64(len(in.Nodes))))

	var bb geom.BoundingBox
	for _, p := range in.Nodes {
		bb = bb.Include(p)
	}
	// Six times the volume of a tet that is flat to within the tolerance.
	flat := 1e-12 * math.Pow(math.Max(bb.Diagonal(), 1e-300), 3)

	out := &Output{Points: []geom.Point{centre}}
	c := NewRef(0)
	for fi, f := range in.Facets {
		for _, t := range facetTriangles(f) {
			a, b, d := in.Nodes[t[0]], in.Nodes[t[1]], in.Nodes[t[2]]
			v := signedVolume(a, b, d, centre)
			if math.Abs(v) <= flat {
				return nil, errs.Errorf(errs.ErrDegenerateGeometry,
					"facet %d is coplanar with the volume centroid; the volume is not star-shaped about it", fi)
			}
			nodes := []int{t[0], t[1], t[2], c}
			if v < 0 {
				nodes[1], nodes[2] = nodes[2], nodes[1]
			}
			out.Cells = append(out.Cells, Cell{Type: umesh.Tetra4, Nodes: nodes})
		}
	}
	return out, nil
}

// facetTriangles splits a facet into triangles. Quads are cut along the
// diagonal through their lowest node ID, so neighbouring splits agree.
func facetTriangles(f Cell) [][3]int {
	n := f.Nodes
	switch f.Type {
	case umesh.Tri3:
		return [][3]int{{n[0], n[1], n[2]}}
	case umesh.Quad4:
		lo := 0
		for i := 1; i < 4; i++ {
			if n[i] < n[lo] {
				lo = i
			}
		}
		if lo%2 == 0 {
			return [][3]int{{n[0], n[1], n[2]}, {n[0], n[2], n[3]}}
		}
		return [][3]int{{n[0], n[1], n[3]}, {n[1], n[2], n[3]}}
	}
	return nil
}

// signedVolume is six times the signed volume of tet abcd.
func signedVolume(a, b, c, d geom.Point) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a)))
}

func tetrahedralizeVolume(_ *Scheme, in *VolumeInput) (*Output, error) {
	for i, f := range in.Facets {
		if f.Type != umesh.Tri3 && f.Type != umesh.Quad4 {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "facet %d is %s, want TRI3 or QUAD4", i, f.Type)
		}
		for _, id := range f.Nodes {
			if _, ok := in.Nodes[id]; !ok {
				return nil, errs.Errorf(errs.ErrInvalidParameter, "facet %d references unknown node %d", i, id)
			}
		}
	}
	t := in.Tessellator
	if t == nil {
		t = CentroidTessellator{}
	}
	return t.Tessellate(in)
}
