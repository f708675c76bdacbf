package pattern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
	"github.com/chazu/krado/pkg/kernel/analytic"
	"github.com/chazu/krado/pkg/umesh"
)

const eps = 1e-9

func assertPoint(t *testing.T, want, got geom.Point) {
	t.Helper()
	assert.Truef(t, want.IsEqual(got, eps), "want %v, got %v", want, got)
}

func TestLinearGrid(t *testing.T) {
	p, err := NewLinearGrid(geom.DefaultAxis2(), 3, 2, 1.5, 2)
	require.NoError(t, err)

	pts := p.Points()
	require.Len(t, pts, 6)
	assertPoint(t, geom.NewPoint(0, 0, 0), pts[0])
	assertPoint(t, geom.NewPoint(3, 0, 0), pts[2])
	assertPoint(t, geom.NewPoint(1.5, 2, 0), pts[4])

	trs := p.Transforms()
	require.Len(t, trs, 6)
	for i, tr := range trs {
		assertPoint(t, pts[i], tr.Point(geom.Origin))
	}
}

func TestLinearFollowsFrame(t *testing.T) {
	frame, err := geom.NewAxis2WithX(geom.NewPoint(1, 1, 1), geom.NewVector(1, 0, 0), geom.NewVector(0, 1, 0))
	require.NoError(t, err)
	p, err := NewLinear(frame, 3, 2)
	require.NoError(t, err)
	pts := p.Points()
	require.Len(t, pts, 3)
	assertPoint(t, geom.NewPoint(1, 5, 1), pts[2])
}

func TestCircular(t *testing.T) {
	p, err := NewCircular(geom.DefaultAxis2(), 2, 4, math.Pi/4)
	require.NoError(t, err)

	pts := p.Points()
	require.Len(t, pts, 4)
	r := math.Sqrt2
	assertPoint(t, geom.NewPoint(r, r, 0), pts[0])
	assertPoint(t, geom.NewPoint(-r, r, 0), pts[1])
	assertPoint(t, geom.NewPoint(-r, -r, 0), pts[2])
	assertPoint(t, geom.NewPoint(r, -r, 0), pts[3])
	for _, q := range pts {
		assert.InDelta(t, 2, q.Distance(geom.Origin), eps)
	}
}

func TestHexagonalPoints(t *testing.T) {
	p, err := NewHexagonal(geom.DefaultAxis2(), math.Sqrt(3), 2, 0)
	require.NoError(t, err)
	assert.InDelta(t, 1, p.Radius(), eps)

	pts := p.Points()
	require.Len(t, pts, 12)
	assertPoint(t, geom.NewPoint(1, 0, 0), pts[0])
	assertPoint(t, geom.NewPoint(0.75, math.Sqrt(3)/4, 0), pts[1])
	assertPoint(t, geom.NewPoint(0.5, math.Sqrt(3)/2, 0), pts[2])
	for i := 0; i < len(pts); i += 2 {
		assert.InDelta(t, 1, pts[i].Distance(geom.Origin), eps, "corner %d", i)
	}
	for i := 1; i < len(pts); i += 2 {
		assert.InDelta(t, math.Sqrt(3)/2, pts[i].Distance(geom.Origin), eps, "midpoint %d", i)
	}
}

func TestHexagonalTransforms(t *testing.T) {
	p, err := NewHexagonal(geom.DefaultAxis2(), 1, 1, 3)
	require.NoError(t, err)
	trs := p.Transforms()
	require.Len(t, trs, 6)
	assertPoint(t, geom.NewPoint(3, 0, 0), trs[0].Point(geom.Origin))
	assertPoint(t, geom.NewPoint(-3, 0, 0), trs[3].Point(geom.Origin))
	assertPoint(t, geom.NewPoint(1.5, 3*math.Sqrt(3)/2, 0), trs[1].Point(geom.Origin))
}

func TestConstructorValidation(t *testing.T) {
	frame := geom.DefaultAxis2()
	for name, fn := range map[string]func() error{
		"linear zero count":   func() error { _, err := NewLinearGrid(frame, 0, 1, 1, 1); return err },
		"linear nan":          func() error { _, err := NewLinear(frame, 2, math.NaN()); return err },
		"circular zero count": func() error { _, err := NewCircular(frame, 1, 0, 0); return err },
		"circular radius":     func() error { _, err := NewCircular(frame, -1, 3, 0); return err },
		"hex size":            func() error { _, err := NewHexagonal(frame, 0, 1, 0); return err },
		"hex segments":        func() error { _, err := NewHexagonal(frame, 1, 0, 0); return err },
	} {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, fn(), errs.ErrInvalidParameter)
		})
	}
}

func unitQuad(t *testing.T) *umesh.Mesh {
	t.Helper()
	m, err := umesh.New(
		[]geom.Point{geom.NewPoint(0, 0, 0), geom.NewPoint(1, 0, 0), geom.NewPoint(1, 1, 0), geom.NewPoint(0, 1, 0)},
		[]umesh.Element{{Type: umesh.Quad4, IDs: []int{0, 1, 2, 3}, Marker: 1}},
	)
	require.NoError(t, err)
	return m
}

func TestApplyMeshMergesSharedEdges(t *testing.T) {
	p, err := NewLinearGrid(geom.DefaultAxis2(), 3, 2, 1, 1)
	require.NoError(t, err)

	out, err := ApplyMesh(unitQuad(t), p, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, 6, out.NumElements())
	assert.Equal(t, 12, out.NumPoints())
	bb := out.BoundingBox()
	assertPoint(t, geom.NewPoint(3, 2, 0), bb.Max())

	loose, err := ApplyMesh(unitQuad(t), p, 0)
	require.NoError(t, err)
	assert.Equal(t, 24, loose.NumPoints())
}

func TestApplyMeshLeavesInputAlone(t *testing.T) {
	m := unitQuad(t)
	p, err := NewCircular(geom.DefaultAxis2(), 0, 4, 0)
	require.NoError(t, err)
	_, err = ApplyMesh(m, p, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, 4, m.NumPoints())
	assert.Equal(t, 1, m.NumElements())
}

func TestApplyShape(t *testing.T) {
	face, err := analytic.Rectangle(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 0))
	require.NoError(t, err)
	p, err := NewLinear(geom.DefaultAxis2(), 3, 2)
	require.NoError(t, err)

	copies, err := ApplyShape(face, p)
	require.NoError(t, err)
	require.Len(t, copies, 3)

	var xs []float64
	kernel.Walk(func(s kernel.Shape) bool {
		if v, ok := s.(kernel.Vertex); ok {
			xs = append(xs, v.Point().X)
		}
		return true
	}, copies[2])
	require.Len(t, xs, 4)
	for _, x := range xs {
		assert.True(t, x >= 4-eps && x <= 5+eps, "x = %g", x)
	}
}
