package ops

import (
	"math"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// extrudedSide maps a side of a source element to the matching side of the
// element it extrudes into.
var extrudedSide = map[umesh.ElementType][]int{
	umesh.Line2: {3, 1},
	umesh.Tri3:  {1, 2, 3},
	umesh.Quad4: {0, 3, 1, 2},
}

// Extrude sweeps m along dir in len(thicknesses) layers. Layer k sits at
// the cumulative thickness of layers 0..k. LINE2 becomes QUAD4, TRI3 becomes
// PRISM6 and QUAD4 becomes HEX8; markers, block names and side sets carry
// over.
func Extrude(m *umesh.Mesh, dir geom.Vector, thicknesses []float64) (*umesh.Mesh, error) {
	n, err := dir.Normalized()
	if err != nil {
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "extrude: zero direction")
	}
	if len(thicknesses) == 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "extrude: no layers")
	}
	offsets := make([]geom.Vector, len(thicknesses)+1)
	total := 0.0
	for i, t := range thicknesses {
		if !(t > 0) || math.IsInf(t, 0) {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "extrude: layer %d thickness %g must be positive", i, t)
		}
		total += t
		offsets[i+1] = n.Scale(total)
	}
	return extrude(m, offsets)
}

// ExtrudeLayers sweeps m along dir by thickness in equal layers.
func ExtrudeLayers(m *umesh.Mesh, dir geom.Vector, layers int, thickness float64) (*umesh.Mesh, error) {
	if layers < 1 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "extrude: %d layers", layers)
	}
	ts := make([]float64, layers)
	for i := range ts {
		ts[i] = thickness / float64(layers)
	}
	return Extrude(m, dir, ts)
}

// ExtrudeAlong sweeps m through the points of path: layer k is m translated
// by path[k]-path[0].
func ExtrudeAlong(m *umesh.Mesh, path []geom.Point) (*umesh.Mesh, error) {
	if len(path) < 2 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "extrude: path needs at least 2 points, got %d", len(path))
	}
	offsets := make([]geom.Vector, len(path))
	for k := 1; k < len(path); k++ {
		if path[k].Distance(path[k-1]) <= geom.LinearTolerance {
			return nil, errs.Errorf(errs.ErrDegenerateGeometry, "extrude: path points %d and %d coincide", k-1, k)
		}
		offsets[k] = path[k].Sub(path[0])
	}
	return extrude(m, offsets)
}

// extrude builds len(offsets)-1 layers; offsets[0] must be zero.
func extrude(m *umesh.Mesh, offsets []geom.Vector) (*umesh.Mesh, error) {
	src := m.Elements()
	for i, e := range src {
		if _, ok := extrudedSide[e.Type]; !ok {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "extrude: element %d is %s, want LINE2, TRI3 or QUAD4", i, e.Type)
		}
	}

	base := m.Points()
	stride := len(base)
	points := make([]geom.Point, 0, stride*len(offsets))
	for _, off := range offsets {
		for _, p := range base {
			points = append(points, p.Add(off))
		}
	}

	layers := len(offsets) - 1
	elems := make([]umesh.Element, 0, len(src)*layers)
	for l := 0; l < layers; l++ {
		lo, hi := l*stride, (l+1)*stride
		for _, e := range src {
			id := e.IDs
			var ne umesh.Element
			switch e.Type {
			case umesh.Line2:
				ne = umesh.Element{Type: umesh.Quad4, IDs: []int{id[0] + lo, id[1] + lo, id[1] + hi, id[0] + hi}}
			case umesh.Tri3:
				ne = umesh.Element{Type: umesh.Prism6, IDs: []int{
					id[0] + lo, id[1] + lo, id[2] + lo,
					id[0] + hi, id[1] + hi, id[2] + hi,
				}}
			case umesh.Quad4:
				ne = umesh.Element{Type: umesh.Hex8, IDs: []int{
					id[0] + lo, id[1] + lo, id[2] + lo, id[3] + lo,
					id[0] + hi, id[1] + hi, id[2] + hi, id[3] + hi,
				}}
			}
			ne.Marker = e.Marker
			elems = append(elems, ne)
		}
	}

	out, err := umesh.New(points, elems)
	if err != nil {
		return nil, err
	}
	copyNames(out.SetBlockName, m.BlockNames())
	for _, id := range m.SideSetIDs() {
		sides, _ := m.SideSet(id)
		mapped := make([]umesh.Side, 0, len(sides)*layers)
		for l := 0; l < layers; l++ {
			for _, s := range sides {
				mapped = append(mapped, umesh.Side{
					Elem: s.Elem + l*len(src),
					Side: extrudedSide[src[s.Elem].Type][s.Side],
				})
			}
		}
		if err := out.SetSideSet(id, mapped); err != nil {
			return nil, err
		}
	}
	copyNames(out.SetSideSetName, m.SideSetNames())
	return out, nil
}
