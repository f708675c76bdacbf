package umesh

import (
	"fmt"
	"maps"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
)

// Mesh is a flat unstructured mesh.
type Mesh struct {
	points   []geom.Point
	elements []Element

	blockNames   map[int]string
	sideSets     map[int][]Side
	sideSetNames map[int]string
	nodeSets     map[int]*roaring.Bitmap
	nodeSetNames map[int]string
}

// New builds a mesh and validates every element against the point array.
func New(points []geom.Point, elements []Element) (*Mesh, error) {
	for i, e := range elements {
		if len(e.IDs) != e.Type.NumNodes() {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "umesh: element %d (%s) has %d nodes, want %d",
				i, e.Type, len(e.IDs), e.Type.NumNodes())
		}
		for _, id := range e.IDs {
			if id < 0 || id >= len(points) {
				return nil, errs.Errorf(errs.ErrInvalidParameter, "umesh: element %d references point %d of %d", i, id, len(points))
			}
		}
	}
	m := empty()
	m.points = slices.Clone(points)
	m.elements = make([]Element, len(elements))
	for i, e := range elements {
		m.elements[i] = e.clone()
	}
	return m, nil
}

func empty() *Mesh {
	return &Mesh{
		blockNames:   make(map[int]string),
		sideSets:     make(map[int][]Side),
		sideSetNames: make(map[int]string),
		nodeSets:     make(map[int]*roaring.Bitmap),
		nodeSetNames: make(map[int]string),
	}
}

// NumPoints returns the number of points.
func (m *Mesh) NumPoints() int { return len(m.points) }

// NumElements returns the number of elements.
func (m *Mesh) NumElements() int { return len(m.elements) }

// Points returns a copy of the point array.
func (m *Mesh) Points() []geom.Point { return slices.Clone(m.points) }

// Point returns point i.
func (m *Mesh) Point(i int) geom.Point { return m.points[i] }

// Elements returns a copy of the element array.
func (m *Mesh) Elements() []Element {
	out := make([]Element, len(m.elements))
	for i, e := range m.elements {
		out[i] = e.clone()
	}
	return out
}

// Element returns element i.
func (m *Mesh) Element(i int) Element { return m.elements[i].clone() }

// BlockIDs returns the distinct element markers in ascending order.
func (m *Mesh) BlockIDs() []int {
	seen := make(map[int]bool)
	for _, e := range m.elements {
		seen[e.Marker] = true
	}
	return slices.Sorted(maps.Keys(seen))
}

// SetBlockName names a block.
func (m *Mesh) SetBlockName(id int, name string) { m.blockNames[id] = name }

// BlockName returns the name of a block, or "".
func (m *Mesh) BlockName(id int) string { return m.blockNames[id] }

// ----------------------------------------------------------------------------
// Side and node sets
// ----------------------------------------------------------------------------

// SetSideSet stores sides under id, replacing any previous set.
func (m *Mesh) SetSideSet(id int, sides []Side) error {
	for _, s := range sides {
		if s.Elem < 0 || s.Elem >= len(m.elements) {
			return errs.Errorf(errs.ErrInvalidParameter, "umesh: side set %d references element %d of %d", id, s.Elem, len(m.elements))
		}
		if n := len(m.elements[s.Elem].Type.Sides()); s.Side < 0 || s.Side >= n {
			return errs.Errorf(errs.ErrInvalidParameter, "umesh: side set %d: element %d has no side %d", id, s.Elem, s.Side)
		}
	}
	m.sideSets[id] = slices.Clone(sides)
	return nil
}

// SideSet returns the sides stored under id.
func (m *Mesh) SideSet(id int) ([]Side, error) {
	s, ok := m.sideSets[id]
	if !ok {
		return nil, errs.Errorf(errs.ErrNotFound, "umesh: side set %d", id)
	}
	return slices.Clone(s), nil
}

// SideSetIDs returns the side set IDs in ascending order.
func (m *Mesh) SideSetIDs() []int { return slices.Sorted(maps.Keys(m.sideSets)) }

// SetSideSetName names a side set.
func (m *Mesh) SetSideSetName(id int, name string) { m.sideSetNames[id] = name }

// SideSetName returns the name of a side set, or "".
func (m *Mesh) SideSetName(id int) string { return m.sideSetNames[id] }

// SetNodeSet stores the point indices in nodes under id.
func (m *Mesh) SetNodeSet(id int, nodes *roaring.Bitmap) error {
	if nodes == nil {
		nodes = roaring.New()
	}
	if !nodes.IsEmpty() && int(nodes.Maximum()) >= len(m.points) {
		return errs.Errorf(errs.ErrInvalidParameter, "umesh: node set %d references point %d of %d", id, nodes.Maximum(), len(m.points))
	}
	m.nodeSets[id] = nodes.Clone()
	return nil
}

// NodeSet returns a copy of the node set stored under id.
func (m *Mesh) NodeSet(id int) (*roaring.Bitmap, error) {
	b, ok := m.nodeSets[id]
	if !ok {
		return nil, errs.Errorf(errs.ErrNotFound, "umesh: node set %d", id)
	}
	return b.Clone(), nil
}

// NodeSetIDs returns the node set IDs in ascending order.
func (m *Mesh) NodeSetIDs() []int { return slices.Sorted(maps.Keys(m.nodeSets)) }

// SetNodeSetName names a node set.
func (m *Mesh) SetNodeSetName(id int, name string) { m.nodeSetNames[id] = name }

// NodeSetName returns the name of a node set, or "".
func (m *Mesh) NodeSetName(id int) string { return m.nodeSetNames[id] }

// BlockNames, SideSetNames and NodeSetNames return copies of the name maps.
func (m *Mesh) BlockNames() map[int]string   { return maps.Clone(m.blockNames) }
func (m *Mesh) SideSetNames() map[int]string { return maps.Clone(m.sideSetNames) }
func (m *Mesh) NodeSetNames() map[int]string { return maps.Clone(m.nodeSetNames) }

// ----------------------------------------------------------------------------
// Whole-mesh operations
// ----------------------------------------------------------------------------

// Duplicate returns a deep copy.
func (m *Mesh) Duplicate() *Mesh {
	out := empty()
	out.points = slices.Clone(m.points)
	out.elements = m.Elements()
	maps.Copy(out.blockNames, m.blockNames)
	maps.Copy(out.sideSetNames, m.sideSetNames)
	maps.Copy(out.nodeSetNames, m.nodeSetNames)
	for id, s := range m.sideSets {
		out.sideSets[id] = slices.Clone(s)
	}
	for id, b := range m.nodeSets {
		out.nodeSets[id] = b.Clone()
	}
	return out
}

// Add appends other to m. Point and element indices of other are offset;
// sets with the same ID are merged and existing names are kept.
func (m *Mesh) Add(other *Mesh) {
	pointOffset := len(m.points)
	elemOffset := len(m.elements)

	m.points = append(m.points, other.points...)
	for _, e := range other.elements {
		ne := e.clone()
		for i := range ne.IDs {
			ne.IDs[i] += pointOffset
		}
		m.elements = append(m.elements, ne)
	}
	for id, sides := range other.sideSets {
		for _, s := range sides {
			m.sideSets[id] = append(m.sideSets[id], Side{Elem: s.Elem + elemOffset, Side: s.Side})
		}
	}
	for id, b := range other.nodeSets {
		dst, ok := m.nodeSets[id]
		if !ok {
			dst = roaring.New()
			m.nodeSets[id] = dst
		}
		it := b.Iterator()
		for it.HasNext() {
			dst.Add(it.Next() + uint32(pointOffset))
		}
	}
	mergeNames(m.blockNames, other.blockNames)
	mergeNames(m.sideSetNames, other.sideSetNames)
	mergeNames(m.nodeSetNames, other.nodeSetNames)
}

func mergeNames(dst, src map[int]string) {
	for id, n := range src {
		if _, ok := dst[id]; !ok {
			dst[id] = n
		}
	}
}

// Transformed returns a copy with every point mapped by tr.
func (m *Mesh) Transformed(tr geom.Trsf) *Mesh {
	out := m.Duplicate()
	for i, p := range out.points {
		out.points[i] = tr.Point(p)
	}
	return out
}

// Scaled returns a copy scaled uniformly about the origin.
func (m *Mesh) Scaled(s float64) *Mesh { return m.Transformed(geom.Scaled(s)) }

// Translated returns a copy moved by (x, y, z).
func (m *Mesh) Translated(x, y, z float64) *Mesh { return m.Transformed(geom.Translated(x, y, z)) }

// RemapBlockIDs changes element markers according to mapping. Markers not in
// mapping are left alone. Block names follow their IDs.
func (m *Mesh) RemapBlockIDs(mapping map[int]int) {
	for i := range m.elements {
		if to, ok := mapping[m.elements[i].Marker]; ok {
			m.elements[i].Marker = to
		}
	}
	names := make(map[int]string, len(m.blockNames))
	for id, n := range m.blockNames {
		if to, ok := mapping[id]; ok {
			id = to
		}
		names[id] = n
	}
	m.blockNames = names
}

// BoundingBox returns the box around all points.
func (m *Mesh) BoundingBox() geom.BoundingBox {
	var bb geom.BoundingBox
	for _, p := range m.points {
		bb = bb.Include(p)
	}
	return bb
}

func (m *Mesh) String() string {
	return fmt.Sprintf("umesh.Mesh{points: %d, elements: %d, blocks: %v}", len(m.points), len(m.elements), m.BlockIDs())
}
