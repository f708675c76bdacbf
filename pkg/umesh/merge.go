package umesh

import (
	"github.com/RoaringBitmap/roaring/v2"
	"github.com/chazu/krado/pkg/geom"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// kdPoint adapts a mesh point for the kd-tree. idx is its new index.
type kdPoint struct {
	p   geom.Point
	idx int
}

var _ kdtree.Comparable = kdPoint{}

func (a kdPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return a.p.Coord(int(d)) - c.(kdPoint).p.Coord(int(d))
}

func (a kdPoint) Dims() int { return 3 }

// Distance returns the squared distance.
func (a kdPoint) Distance(c kdtree.Comparable) float64 {
	d := a.p.Sub(c.(kdPoint).p)
	return d.Dot(d)
}

// RemoveDuplicatePoints merges points closer than tol. The first occurrence
// of each point survives and keeps its relative order; element IDs and node
// sets are remapped. It returns the old-to-new index map.
func (m *Mesh) RemoveDuplicatePoints(tol float64) []int {
	var tree kdtree.Tree
	remap := make([]int, len(m.points))
	unique := make([]geom.Point, 0, len(m.points))
	tol2 := tol * tol

	for i, p := range m.points {
		q := kdPoint{p: p}
		if near, d2 := tree.Nearest(q); near != nil && d2 <= tol2 {
			remap[i] = near.(kdPoint).idx
			continue
		}
		q.idx = len(unique)
		tree.Insert(q, false)
		remap[i] = q.idx
		unique = append(unique, p)
	}

	m.points = unique
	for i := range m.elements {
		for j, id := range m.elements[i].IDs {
			m.elements[i].IDs[j] = remap[id]
		}
	}
	for id, b := range m.nodeSets {
		nb := roaring.New()
		it := b.Iterator()
		for it.HasNext() {
			nb.Add(uint32(remap[it.Next()]))
		}
		m.nodeSets[id] = nb
	}
	return remap
}
