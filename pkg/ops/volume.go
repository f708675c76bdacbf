package ops

import (
	"fmt"
	"math"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// ComputeVolume returns the measure of every block in ascending block ID
// order: length for 1D elements, area for 2D and volume for 3D. A mesh with
// no elements yields a single zero.
func ComputeVolume(m *umesh.Mesh) ([]float64, error) {
	by, err := ComputeVolumeByBlock(m)
	if err != nil {
		return nil, err
	}
	ids := m.BlockIDs()
	if len(ids) == 0 {
		return []float64{0}, nil
	}
	out := make([]float64, len(ids))
	for i, id := range ids {
		out[i] = by[id]
	}
	return out, nil
}

// ComputeVolumeByBlock returns the measure of every block keyed by block ID.
func ComputeVolumeByBlock(m *umesh.Mesh) (map[int]float64, error) {
	out := make(map[int]float64)
	for i, e := range m.Elements() {
		v, err := ElementMeasure(m, e)
		if err != nil {
			return nil, fmt.Errorf("ops: compute volume: element %d: %w", i, err)
		}
		out[e.Marker] += v
	}
	return out, nil
}

// ElementMeasure returns the length, area or volume of one element. Pyramids,
// prisms and hexahedra are measured through their tetrahedral split, which is
// exact for planar faces. POINT1 has no measure and is ErrInvalidParameter.
func ElementMeasure(m *umesh.Mesh, e umesh.Element) (float64, error) {
	p := func(i int) geom.Point { return m.Point(e.IDs[i]) }
	switch e.Type {
	case umesh.Line2:
		return p(1).Distance(p(0)), nil
	case umesh.Tri3:
		return triArea(p(0), p(1), p(2)), nil
	case umesh.Quad4:
		return triArea(p(0), p(1), p(2)) + triArea(p(0), p(2), p(3)), nil
	case umesh.Tetra4:
		return math.Abs(tetVolume(p(0), p(1), p(2), p(3))), nil
	case umesh.Pyramid5, umesh.Prism6, umesh.Hex8:
		tets, err := splitElement(e)
		if err != nil {
			return 0, err
		}
		var v float64
		for _, t := range tets {
			v += math.Abs(tetVolume(m.Point(t[0]), m.Point(t[1]), m.Point(t[2]), m.Point(t[3])))
		}
		return v, nil
	}
	return 0, errs.Errorf(errs.ErrInvalidParameter, "ops: no measure for %s elements", e.Type)
}

func triArea(a, b, c geom.Point) float64 {
	return 0.5 * b.Sub(a).Cross(c.Sub(a)).Norm()
}

// tetVolume is the signed volume of tet abcd, positive when d lies on the
// side of abc its right-hand normal points to.
func tetVolume(a, b, c, d geom.Point) float64 {
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a))) / 6
}
