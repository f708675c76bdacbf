package umesh

import (
	"errors"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pts(xyz ...float64) []geom.Point {
	out := make([]geom.Point, 0, len(xyz)/3)
	for i := 0; i+2 < len(xyz); i += 3 {
		out = append(out, geom.NewPoint(xyz[i], xyz[i+1], xyz[i+2]))
	}
	return out
}

func unitSquare(t *testing.T) *Mesh {
	t.Helper()
	m, err := New(
		pts(0, 0, 0, 1, 0, 0, 1, 1, 0, 0, 1, 0),
		[]Element{{Type: Tri3, IDs: []int{0, 1, 2}, Marker: 1}, {Type: Tri3, IDs: []int{0, 2, 3}, Marker: 1}},
	)
	require.NoError(t, err)
	return m
}

func TestElementType(t *testing.T) {
	tests := []struct {
		t     ElementType
		name  string
		nodes int
		dim   int
	}{
		{Point1, "POINT1", 1, 0},
		{Line2, "LINE2", 2, 1},
		{Tri3, "TRI3", 3, 2},
		{Quad4, "QUAD4", 4, 2},
		{Tetra4, "TETRA4", 4, 3},
		{Pyramid5, "PYRAMID5", 5, 3},
		{Prism6, "PRISM6", 6, 3},
		{Hex8, "HEX8", 8, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.t.String())
			assert.Equal(t, tt.nodes, tt.t.NumNodes())
			assert.Equal(t, tt.dim, tt.t.Dim())
			got, err := ParseElementType(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.t, got)
			for _, s := range tt.t.Sides() {
				for _, n := range s {
					assert.Less(t, n, tt.t.NumNodes())
				}
			}
		})
	}
	_, err := ParseElementType("HEX27")
	assert.Error(t, err)
}

func TestNewValidates(t *testing.T) {
	_, err := New(pts(0, 0, 0, 1, 0, 0), []Element{{Type: Line2, IDs: []int{0, 2}}})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter), "out of range id: %v", err)

	_, err = New(pts(0, 0, 0, 1, 0, 0), []Element{{Type: Tri3, IDs: []int{0, 1}}})
	assert.True(t, errors.Is(err, errs.ErrInvalidParameter), "short element: %v", err)
}

func TestRemoveDuplicatePoints(t *testing.T) {
	m, err := New(pts(
		0, 0, 0,
		1, 0, 0,
		2, 0, 0,
		3, 0, 0,
		1, 0, 0, // dup of 1
		4, 0, 0,
		3, 0, 1e-12, // dup of 3
		5, 0, 0,
	), []Element{
		{Type: Line2, IDs: []int{0, 1}},
		{Type: Line2, IDs: []int{4, 2}},
		{Type: Line2, IDs: []int{6, 7}},
	})
	require.NoError(t, err)
	require.NoError(t, m.SetNodeSet(1, roaring.BitmapOf(4, 6, 7)))

	remap := m.RemoveDuplicatePoints(1e-9)
	assert.Equal(t, []int{0, 1, 2, 3, 1, 4, 3, 5}, remap)
	assert.Equal(t, 6, m.NumPoints())
	assert.Equal(t, []int{1, 2}, m.Element(1).IDs)
	assert.Equal(t, []int{3, 5}, m.Element(2).IDs)

	ns, err := m.NodeSet(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 3, 5}, ns.ToArray())
}

func TestAdd(t *testing.T) {
	a := unitSquare(t)
	require.NoError(t, a.SetSideSet(10, []Side{{Elem: 0, Side: 0}}))
	require.NoError(t, a.SetNodeSet(5, roaring.BitmapOf(0, 1)))
	a.SetBlockName(1, "left")

	b := unitSquare(t).Translated(1, 0, 0)
	b.RemapBlockIDs(map[int]int{1: 2})
	b.SetBlockName(2, "right")
	require.NoError(t, b.SetSideSet(10, []Side{{Elem: 1, Side: 2}}))
	require.NoError(t, b.SetNodeSet(5, roaring.BitmapOf(3)))

	a.Add(b)
	assert.Equal(t, 8, a.NumPoints())
	assert.Equal(t, 4, a.NumElements())
	assert.Equal(t, []int{1, 2}, a.BlockIDs())
	assert.Equal(t, []int{4, 6, 7}, a.Element(3).IDs)
	assert.Equal(t, "right", a.BlockName(2))

	sides, err := a.SideSet(10)
	require.NoError(t, err)
	assert.Equal(t, []Side{{0, 0}, {3, 2}}, sides)

	ns, err := a.NodeSet(5)
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 1, 7}, ns.ToArray())

	a.RemoveDuplicatePoints(1e-9)
	assert.Equal(t, 6, a.NumPoints())
}

func TestDuplicateIsDeep(t *testing.T) {
	a := unitSquare(t)
	require.NoError(t, a.SetNodeSet(1, roaring.BitmapOf(2)))
	b := a.Duplicate()
	b.RemapBlockIDs(map[int]int{1: 9})
	b.RemoveDuplicatePoints(10) // collapses everything

	assert.Equal(t, []int{1}, a.BlockIDs())
	assert.Equal(t, 4, a.NumPoints())
	ns, _ := a.NodeSet(1)
	assert.Equal(t, []uint32{2}, ns.ToArray())
}

func TestTransforms(t *testing.T) {
	m := unitSquare(t).Scaled(2).Translated(1, 1, 1)
	bb := m.BoundingBox()
	assert.Equal(t, geom.NewPoint(1, 1, 1), bb.Min())
	assert.Equal(t, geom.NewPoint(3, 3, 1), bb.Max())
}

func TestSetValidation(t *testing.T) {
	m := unitSquare(t)
	assert.Error(t, m.SetSideSet(1, []Side{{Elem: 2, Side: 0}}))
	assert.Error(t, m.SetSideSet(1, []Side{{Elem: 0, Side: 3}}))
	assert.Error(t, m.SetNodeSet(1, roaring.BitmapOf(4)))

	_, err := m.SideSet(42)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
	_, err = m.NodeSet(42)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}
