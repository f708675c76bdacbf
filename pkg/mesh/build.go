package mesh

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// Build flattens the mesh into a umesh.Mesh.
//
// Live nodes are renumbered in arena order. Only elements of the highest
// meshed dimension are emitted, each tagged with its entity marker, and the
// entity names become block names. Every meshed curve also contributes its
// nodes to the node set keyed by its marker.
func (m *Mesh) Build() (*umesh.Mesh, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	index := make(map[*Vertex]int, len(m.nodes))
	var points []geom.Point
	for _, n := range m.nodes {
		if n != nil {
			index[n] = len(points)
			points = append(points, n.point)
		}
	}

	type block struct {
		marker int
		name   string
		elems  []Element
	}
	var blocks []block
	switch {
	case anyMeshed(m.volumes):
		for _, v := range m.volumes {
			if v.meshed {
				blocks = append(blocks, block{v.marker, v.geom.String(), v.cells})
			}
		}
	case anyMeshed(m.surfaces):
		for _, s := range m.surfaces {
			if s.meshed {
				blocks = append(blocks, block{s.marker, s.geom.String(), s.facets})
			}
		}
	case anyMeshed(m.curves):
		for _, c := range m.curves {
			if c.meshed {
				blocks = append(blocks, block{c.marker, c.geom.String(), c.segmentsLocked()})
			}
		}
	default:
		for _, v := range m.vertices {
			if v.meshed {
				blocks = append(blocks, block{v.marker, "", []Element{{Type: umesh.Point1, Nodes: []*Vertex{v.node}}}})
			}
		}
	}
	if len(blocks) == 0 {
		return nil, errs.Errorf(errs.ErrUnmeshedDependency, "mesh: nothing is meshed")
	}

	var elems []umesh.Element
	for _, b := range blocks {
		for _, e := range b.elems {
			ids := make([]int, len(e.Nodes))
			for i, n := range e.Nodes {
				ids[i] = index[n]
			}
			elems = append(elems, umesh.Element{Type: e.Type, IDs: ids, Marker: b.marker})
		}
	}
	out, err := umesh.New(points, elems)
	if err != nil {
		return nil, err
	}
	for _, b := range blocks {
		if b.name != "" && out.BlockName(b.marker) == "" {
			out.SetBlockName(b.marker, b.name)
		}
	}

	sets := make(map[int]*roaring.Bitmap)
	for _, c := range m.curves {
		if !c.meshed {
			continue
		}
		bm, ok := sets[c.marker]
		if !ok {
			bm = roaring.New()
			sets[c.marker] = bm
			out.SetNodeSetName(c.marker, c.geom.String())
		}
		for _, n := range c.nodes {
			bm.Add(uint32(index[n]))
		}
	}
	for id, bm := range sets {
		if err := out.SetNodeSet(id, bm); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func anyMeshed[T interface{ isMeshedLocked() bool }](items []T) bool {
	for _, it := range items {
		if it.isMeshedLocked() {
			return true
		}
	}
	return false
}

func (e *entity) isMeshedLocked() bool { return e.meshed }
