package ops

import (
	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/umesh"
)

// Split tables for hexahedra, prisms and pyramids. Every element is first
// rotated so its lowest node ID comes first; each quad face is then cut
// along the diagonal through its lowest node ID. Two elements sharing a quad
// face therefore cut it the same way and the tets conform.

// hexNeighbours lists, per hex node, its three edge neighbours in x, y, z
// order of the rotated frame.
var hexNeighbours = [8][3]int{
	{1, 3, 4}, {0, 2, 5}, {3, 1, 6}, {2, 0, 7},
	{5, 7, 0}, {4, 6, 1}, {7, 5, 2}, {6, 4, 3},
}

// hexRotations[n][k] renumbers a hex so node n becomes node 0 and its k-th
// neighbour becomes node 1.
var hexRotations = [8][3][8]int{
	{{0, 1, 2, 3, 4, 5, 6, 7}, {0, 3, 7, 4, 1, 2, 6, 5}, {0, 4, 5, 1, 3, 7, 6, 2}},
	{{1, 0, 4, 5, 2, 3, 7, 6}, {1, 2, 3, 0, 5, 6, 7, 4}, {1, 5, 6, 2, 0, 4, 7, 3}},
	{{2, 3, 0, 1, 6, 7, 4, 5}, {2, 1, 5, 6, 3, 0, 4, 7}, {2, 6, 7, 3, 1, 5, 4, 0}},
	{{3, 2, 6, 7, 0, 1, 5, 4}, {3, 0, 1, 2, 7, 4, 5, 6}, {3, 7, 4, 0, 2, 6, 5, 1}},
	{{4, 5, 1, 0, 7, 6, 2, 3}, {4, 7, 6, 5, 0, 3, 2, 1}, {4, 0, 3, 7, 5, 1, 2, 6}},
	{{5, 4, 7, 6, 1, 0, 3, 2}, {5, 6, 2, 1, 4, 7, 3, 0}, {5, 1, 0, 4, 6, 2, 3, 7}},
	{{6, 7, 3, 2, 5, 4, 0, 1}, {6, 5, 4, 7, 2, 1, 0, 3}, {6, 2, 1, 5, 7, 3, 0, 4}},
	{{7, 6, 5, 4, 3, 2, 1, 0}, {7, 4, 0, 3, 6, 5, 1, 2}, {7, 3, 2, 6, 4, 0, 1, 5}},
}

// hexFaces: bottom, top, front, back, right, left.
var hexFaces = [6][4]int{
	{0, 1, 2, 3}, {4, 5, 6, 7}, {0, 1, 5, 4},
	{2, 3, 7, 6}, {1, 2, 6, 5}, {3, 0, 4, 7},
}

// hexCases are the reachable face diagonal patterns of a rotated hex, and
// hexTets the split for each.
var hexCases = [7][6]bool{
	{true, true, true, true, true, false},
	{true, true, true, true, false, false},
	{true, true, true, false, true, false},
	{true, false, true, true, true, false},
	{true, false, true, true, false, false},
	{true, false, true, false, true, false},
	{true, false, true, false, false, false},
}

var hexTets = [7][][4]int{
	{{0, 1, 2, 6}, {0, 5, 1, 6}, {0, 4, 5, 6}, {0, 2, 3, 7}, {0, 6, 2, 7}, {0, 4, 6, 7}},
	{{0, 1, 2, 5}, {0, 2, 6, 5}, {0, 6, 4, 5}, {0, 2, 3, 7}, {0, 6, 2, 7}, {0, 4, 6, 7}},
	{{0, 1, 2, 6}, {0, 5, 1, 6}, {0, 4, 5, 6}, {0, 7, 4, 6}, {0, 3, 7, 6}, {0, 2, 3, 6}},
	{{0, 7, 4, 5}, {0, 6, 7, 5}, {0, 1, 6, 5}, {0, 3, 7, 2}, {0, 7, 6, 2}, {0, 6, 1, 2}},
	{{0, 1, 2, 5}, {0, 2, 3, 7}, {4, 7, 5, 0}, {5, 7, 6, 2}, {0, 2, 7, 5}},
	{{0, 7, 4, 5}, {0, 6, 7, 5}, {0, 1, 6, 5}, {1, 6, 2, 0}, {2, 6, 3, 0}, {3, 6, 7, 0}},
	{{0, 4, 5, 7}, {0, 5, 6, 7}, {0, 6, 3, 7}, {0, 5, 1, 2}, {0, 6, 5, 2}, {0, 3, 6, 2}},
}

var prismRotations = [6][6]int{
	{0, 1, 2, 3, 4, 5}, {1, 2, 0, 4, 5, 3}, {2, 0, 1, 5, 3, 4},
	{3, 5, 4, 0, 2, 1}, {4, 3, 5, 1, 0, 2}, {5, 4, 3, 2, 1, 0},
}

var prismTets = [2][3][4]int{
	{{3, 5, 4, 0}, {1, 4, 2, 0}, {2, 4, 5, 0}},
	{{3, 5, 4, 0}, {1, 4, 5, 0}, {1, 5, 2, 0}},
}

var pyramidRotations = [4][5]int{
	{0, 1, 2, 3, 4}, {1, 2, 3, 0, 4}, {2, 3, 0, 1, 4}, {3, 0, 1, 2, 4},
}

var pyramidTets = [2][4]int{{0, 1, 2, 4}, {0, 2, 3, 4}}

// argmin returns the position of the smallest value.
func argmin(ids []int) int {
	lo := 0
	for i := 1; i < len(ids); i++ {
		if ids[i] < ids[lo] {
			lo = i
		}
	}
	return lo
}

// lowDiagonal reports whether a quad is cut along its 0-2 diagonal, which
// is the case when its lowest ID sits at position 0 or 2.
func lowDiagonal(a, b, c, d int) bool {
	return argmin([]int{a, b, c, d})%2 == 0
}

func mapTets(rot []int, ids []int, local [][4]int) [][4]int {
	out := make([][4]int, len(local))
	for i, t := range local {
		for j, k := range t {
			out[i][j] = ids[rot[k]]
		}
	}
	return out
}

// splitElement returns the tets of a HEX8, PRISM6 or PYRAMID5 as global
// point IDs. Any other type yields nil.
func splitElement(e umesh.Element) ([][4]int, error) {
	ids := e.IDs
	switch e.Type {
	case umesh.Hex8:
		lo := argmin(ids)
		nb := hexNeighbours[lo]
		sec := 0
		for k := 1; k < 3; k++ {
			if ids[nb[k]] < ids[nb[sec]] {
				sec = k
			}
		}
		rot := hexRotations[lo][sec]
		var r [8]int
		for i := range r {
			r[i] = ids[rot[i]]
		}
		var diag [6]bool
		for i, f := range hexFaces {
			diag[i] = lowDiagonal(r[f[0]], r[f[1]], r[f[2]], r[f[3]])
		}
		for c, pattern := range hexCases {
			if pattern == diag {
				return mapTets(rot[:], ids, hexTets[c]), nil
			}
		}
		return nil, errs.Errorf(errs.ErrDegenerateGeometry, "hex %v has no conforming split", ids)

	case umesh.Prism6:
		rot := prismRotations[argmin(ids)]
		d := 0
		if lowDiagonal(ids[rot[1]], ids[rot[2]], ids[rot[5]], ids[rot[4]]) {
			d = 1
		}
		return mapTets(rot[:], ids, prismTets[d][:]), nil

	case umesh.Pyramid5:
		rot := pyramidRotations[argmin(ids[:4])]
		return mapTets(rot[:], ids, pyramidTets[:]), nil
	}
	return nil, nil
}

// Tetrahedralize splits every HEX8, PRISM6 and PYRAMID5 of m into TETRA4
// elements; other elements are copied. A hex gives six tets (five in one
// diagonal configuration), a prism three and a pyramid two. Child tets are
// oriented to positive volume and keep the parent marker. Each side set
// entry is replaced by the child tet faces lying on it.
func Tetrahedralize(m *umesh.Mesh) (*umesh.Mesh, error) {
	points := m.Points()
	src := m.Elements()
	children := make([][]int, len(src))
	var elems []umesh.Element
	for i, e := range src {
		tets, err := splitElement(e)
		if err != nil {
			return nil, err
		}
		if tets == nil {
			children[i] = []int{len(elems)}
			elems = append(elems, e)
			continue
		}
		for _, t := range tets {
			if tetVolume(points[t[0]], points[t[1]], points[t[2]], points[t[3]]) < 0 {
				t[1], t[2] = t[2], t[1]
			}
			children[i] = append(children[i], len(elems))
			elems = append(elems, umesh.Element{Type: umesh.Tetra4, IDs: t[:], Marker: e.Marker})
		}
	}

	out, err := umesh.New(points, elems)
	if err != nil {
		return nil, err
	}
	copyNames(out.SetBlockName, m.BlockNames())
	for _, id := range m.NodeSetIDs() {
		ns, _ := m.NodeSet(id)
		if err := out.SetNodeSet(id, ns); err != nil {
			return nil, err
		}
	}
	copyNames(out.SetNodeSetName, m.NodeSetNames())

	for _, id := range m.SideSetIDs() {
		sides, _ := m.SideSet(id)
		var mapped []umesh.Side
		for _, s := range sides {
			parent := src[s.Elem]
			kids := children[s.Elem]
			if len(kids) == 1 && elems[kids[0]].Type == parent.Type {
				mapped = append(mapped, umesh.Side{Elem: kids[0], Side: s.Side})
				continue
			}
			on := make(map[int]bool)
			for _, k := range parent.Type.Sides()[s.Side] {
				on[parent.IDs[k]] = true
			}
			for _, k := range kids {
				for fi, f := range umesh.Tetra4.Sides() {
					if on[elems[k].IDs[f[0]]] && on[elems[k].IDs[f[1]]] && on[elems[k].IDs[f[2]]] {
						mapped = append(mapped, umesh.Side{Elem: k, Side: fi})
					}
				}
			}
		}
		if err := out.SetSideSet(id, mapped); err != nil {
			return nil, err
		}
	}
	copyNames(out.SetSideSetName, m.SideSetNames())
	return out, nil
}

func copyNames(set func(int, string), names map[int]string) {
	for id, n := range names {
		set(id, n)
	}
}
