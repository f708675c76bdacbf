package mesh

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
	"github.com/chazu/krado/pkg/kernel/analytic"
	"github.com/chazu/krado/pkg/logging"
	"github.com/chazu/krado/pkg/model"
	"github.com/chazu/krado/pkg/scheme"
	"github.com/chazu/krado/pkg/umesh"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMesh(t *testing.T, build func() (kernel.Shape, error), opts ...Option) *Mesh {
	t.Helper()
	s, err := build()
	require.NoError(t, err)
	gm, err := model.New(analytic.New(), s)
	require.NoError(t, err)
	m, err := New(gm, opts...)
	require.NoError(t, err)
	return m
}

func unitSquare() (kernel.Shape, error) {
	return analytic.Rectangle(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 0))
}

func unitDisc() (kernel.Shape, error) { return analytic.CircleFace(geom.Origin, 1) }

func unitBox() (kernel.Shape, error) {
	return analytic.Box(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 1))
}

func setEqual(t *testing.T, m *Mesh, n int, tags ...int) {
	t.Helper()
	for _, tag := range tags {
		c, err := m.Curve(tag)
		require.NoError(t, err)
		s, err := c.SetScheme("equal")
		require.NoError(t, err)
		require.NoError(t, s.Set("intervals", n))
	}
}

func facetArea(e Element) float64 {
	var a float64
	p := e.Nodes
	for i := 1; i+1 < len(p); i++ {
		a += 0.5 * p[i].Point().Sub(p[0].Point()).Cross(p[i+1].Point().Sub(p[0].Point())).Norm()
	}
	return a
}

func tetVolume(e Element) float64 {
	a, b, c, d := e.Nodes[0].Point(), e.Nodes[1].Point(), e.Nodes[2].Point(), e.Nodes[3].Point()
	return b.Sub(a).Dot(c.Sub(a).Cross(d.Sub(a))) / 6
}

func TestMirrorEntities(t *testing.T) {
	m := newMesh(t, unitBox)
	assert.Len(t, m.Vertices(), 8)
	assert.Len(t, m.Curves(), 12)
	assert.Len(t, m.Surfaces(), 6)
	assert.Len(t, m.Volumes(), 1)

	c, err := m.Curve(5)
	require.NoError(t, err)
	assert.Equal(t, 5, c.Tag())
	assert.Equal(t, 5, c.Marker())
	assert.False(t, c.IsMeshed())
	assert.Equal(t, "auto", c.Scheme().Name())

	c.SetMarker(100)
	assert.Equal(t, 100, c.Marker())

	_, err = m.Surface(7)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	_, err = m.Node(0)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = c.SetScheme("triangle")
	assert.ErrorIs(t, err, errs.ErrUnknownScheme)
}

func TestSetSchemeResetsParameters(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 4, 1)
	c, _ := m.Curve(1)
	assert.Equal(t, scheme.Params{"intervals": 4}, c.Scheme().Get())

	s, err := c.SetScheme("equal")
	require.NoError(t, err)
	assert.Empty(t, s.Get())
	assert.Same(t, s, c.Scheme())
}

func TestConfigureKeepsSchemeOnError(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 4, 1)
	c, _ := m.Curve(1)
	before := c.Scheme()

	_, err := c.Configure("bias", scheme.Params{"intervals": -2})
	require.ErrorIs(t, err, errs.ErrInvalidParameter)
	_, err = c.Configure("spline", nil)
	require.ErrorIs(t, err, errs.ErrUnknownScheme)
	assert.Same(t, before, c.Scheme())
	assert.Equal(t, scheme.Params{"intervals": 4}, c.Scheme().Get())

	sc, err := c.Configure("bias", scheme.Params{"intervals": 6, "coef": 1.5})
	require.NoError(t, err)
	assert.Same(t, sc, c.Scheme())
	assert.Equal(t, "bias", c.Scheme().Name())
}

func TestMeshCurveSharesVertices(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 4, 1, 2, 3, 4)
	require.NoError(t, m.MeshCurves(context.Background(), 1, 2, 3, 4))

	assert.Equal(t, 4+4*3, m.NumNodes())
	for tag := 1; tag <= 4; tag++ {
		c, _ := m.Curve(tag)
		require.True(t, c.IsMeshed())
		nodes := c.AllVertices()
		require.Len(t, nodes, 5)
		assert.Len(t, c.Segments(), 4)

		first, last := c.Geom().Vertices()
		v0, _ := m.Vertex(first.Tag())
		v1, _ := m.Vertex(last.Tag())
		assert.Same(t, v0.Node(), nodes[0])
		assert.Same(t, v1.Node(), nodes[4])
		for _, n := range nodes[1:4] {
			assert.Equal(t, Owner{Kind: OwnerCurve, Tag: tag}, n.Owner())
		}
		assert.Equal(t, Owner{Kind: OwnerVertex, Tag: first.Tag()}, nodes[0].Owner())
	}
}

func TestMeshCurveIsIdempotentOnVertices(t *testing.T) {
	m := newMesh(t, unitSquare)
	require.NoError(t, m.MeshVertex(1))
	v, _ := m.Vertex(1)
	n := v.Node()
	require.NoError(t, m.MeshVertex(1))
	assert.Same(t, n, v.Node())
	assert.Equal(t, 1, m.NumNodes())
}

func TestClosedCurve(t *testing.T) {
	m := newMesh(t, unitDisc)
	require.NoError(t, m.MeshCurve(1))
	c, _ := m.Curve(1)
	nodes := c.AllVertices()
	require.Len(t, nodes, 4)
	assert.Same(t, nodes[0], nodes[3])
	first, last := c.BoundingVertices()
	assert.Same(t, first, last)
	for _, n := range nodes {
		assert.InDelta(t, 1, n.Point().AsVector().Norm(), 1e-12)
	}
}

func TestMeshCurvesIsAllOrNothing(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 2, 1, 3, 4)
	c2, _ := m.Curve(2)
	s, err := c2.SetScheme("equal")
	require.NoError(t, err)

	err = m.MeshCurves(context.Background(), 1, 2, 3, 4)
	require.ErrorIs(t, err, errs.ErrMissingParameter)
	var ee *errs.EntityError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, 2, ee.Tag)
	assert.Equal(t, 0, m.NumNodes())
	for _, c := range m.Curves() {
		assert.False(t, c.IsMeshed())
	}

	require.NoError(t, s.Set("intervals", 2))
	require.NoError(t, m.MeshCurves(context.Background(), 1, 2, 3, 4))
	assert.Equal(t, 8, m.NumNodes())
}

func TestMeshCurvesHonoursContext(t *testing.T) {
	m := newMesh(t, unitBox, WithWorkers(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := m.MeshCurves(ctx, 1, 2, 3)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, m.NumNodes())
}

func TestMeshSurfaceNeedsCurves(t *testing.T) {
	m := newMesh(t, unitSquare)
	require.NoError(t, m.MeshCurves(context.Background(), 1, 3))

	err := m.MeshSurface(1)
	require.ErrorIs(t, err, errs.ErrUnmeshedDependency)
	assert.Contains(t, err.Error(), "curve 2")
	s, _ := m.Surface(1)
	assert.False(t, s.IsMeshed())
}

func TestMeshSurfaceTriangle(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 3, 1, 2, 3, 4)
	require.NoError(t, m.MeshAll(context.Background()))

	s, _ := m.Surface(1)
	require.True(t, s.IsMeshed())
	facets := s.Facets()
	assert.Len(t, facets, 12-2)
	assert.Len(t, s.Triangles(), len(facets))
	var area float64
	for _, f := range facets {
		area += facetArea(f)
	}
	assert.InDelta(t, 1, area, 1e-12)
	assert.Len(t, s.AllVertices(), 12)
	assert.Len(t, s.Curves(), 4)
}

func squareWithHole() (kernel.Shape, error) {
	return analytic.PolygonWithHoles(
		[]geom.Point{geom.NewPoint(0, 0, 0), geom.NewPoint(2, 0, 0), geom.NewPoint(2, 2, 0), geom.NewPoint(0, 2, 0)},
		[]geom.Point{geom.NewPoint(0.5, 0.5, 0), geom.NewPoint(1.5, 0.5, 0), geom.NewPoint(1.5, 1.5, 0), geom.NewPoint(0.5, 1.5, 0)},
	)
}

func TestMeshSurfaceWithHole(t *testing.T) {
	m := newMesh(t, squareWithHole)
	s, _ := m.Surface(1)
	require.Len(t, s.Curves(), 8)
	setEqual(t, m, 2, 1, 2, 3, 4, 5, 6, 7, 8)
	require.NoError(t, m.MeshAll(context.Background()))

	require.True(t, s.IsMeshed())
	facets := s.Facets()
	// 16 boundary nodes, one hole: V + 2h - 2 triangles.
	assert.Len(t, facets, 16)
	var area float64
	for _, f := range facets {
		a := facetArea(f)
		assert.Greater(t, a, 0.0)
		area += a
	}
	assert.InDelta(t, 3, area, 1e-12)
	assert.Len(t, s.AllVertices(), 16)

	um, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 16, um.NumElements())
}

func TestMeshSurfaceTransfinite(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 2, 1, 2, 3, 4)
	s, _ := m.Surface(1)
	_, err := s.SetScheme("transfinite")
	require.NoError(t, err)
	require.NoError(t, m.MeshAll(context.Background()))

	facets := s.Facets()
	require.Len(t, facets, 4)
	for _, f := range facets {
		assert.Equal(t, umesh.Quad4, f.Type)
		assert.InDelta(t, 0.25, facetArea(f), 1e-12)
	}
	vs := s.AllVertices()
	require.Len(t, vs, 9)
	centre := vs[8]
	assert.Equal(t, Owner{Kind: OwnerSurface, Tag: 1}, centre.Owner())
	assert.True(t, centre.Point().IsEqual(geom.NewPoint(0.5, 0.5, 0), 1e-12))
}

func TestMeshDisc(t *testing.T) {
	m := newMesh(t, unitDisc)
	setEqual(t, m, 16, 1)
	require.NoError(t, m.MeshAll(context.Background()))
	s, _ := m.Surface(1)
	var area float64
	for _, f := range s.Facets() {
		area += facetArea(f)
	}
	// Area of the inscribed 16-gon.
	assert.InDelta(t, 8*math.Sin(2*math.Pi/16), area, 1e-9)
}

func TestRemeshInvalidatesDependants(t *testing.T) {
	var buf bytes.Buffer
	m := newMesh(t, unitBox, WithLogger(logging.NewTextLoggerTo(&buf, slog.LevelDebug)))
	require.NoError(t, m.MeshAll(context.Background()))
	v, _ := m.Volume(1)
	require.True(t, v.IsMeshed())

	c1, _ := m.Curve(1)
	other, _ := m.Curve(7)
	before := other.AllVertices()
	setEqual(t, m, 2, 1)
	require.NoError(t, m.MeshCurve(1))

	assert.Len(t, c1.AllVertices(), 3)
	assert.Equal(t, before, other.AllVertices())
	assert.False(t, v.IsMeshed())
	assert.Empty(t, v.Cells())
	for _, gs := range m.Model().SurfacesOf(c1.Geom()) {
		s, _ := m.Surface(gs.Tag())
		assert.False(t, s.IsMeshed(), "surface %d", gs.Tag())
	}
	meshedSurfaces := 0
	for _, s := range m.Surfaces() {
		if s.IsMeshed() {
			meshedSurfaces++
		}
	}
	assert.Equal(t, 4, meshedSurfaces)
	assert.Contains(t, buf.String(), "mesh invalidated")

	// The volume's interior node is gone from the arena.
	for _, n := range m.Nodes() {
		assert.NotEqual(t, OwnerVolume, n.Owner().Kind)
	}

	require.NoError(t, m.MeshAll(context.Background()))
	assert.True(t, v.IsMeshed())
}

func TestMeshVolume(t *testing.T) {
	m := newMesh(t, unitBox)
	err := m.MeshVolume(1)
	require.ErrorIs(t, err, errs.ErrUnmeshedDependency)

	require.NoError(t, m.MeshAll(context.Background()))
	v, _ := m.Volume(1)
	cells := v.Cells()
	require.Len(t, cells, 12)
	var vol float64
	for _, c := range cells {
		assert.Equal(t, umesh.Tetra4, c.Type)
		cv := tetVolume(c)
		assert.Greater(t, cv, 0.0)
		vol += cv
	}
	assert.InDelta(t, 1, vol, 1e-12)
	assert.Len(t, v.AllVertices(), 9)
	assert.Len(t, v.Surfaces(), 6)
}

func TestCustomTessellator(t *testing.T) {
	called := 0
	tess := scheme.TessellatorFunc(func(in *scheme.VolumeInput) (*scheme.Output, error) {
		called++
		return scheme.CentroidTessellator{}.Tessellate(in)
	})
	m := newMesh(t, unitBox, WithTessellator(tess))
	require.NoError(t, m.MeshAll(context.Background()))
	assert.Equal(t, 1, called)
}

func TestBuild(t *testing.T) {
	m := newMesh(t, unitSquare)
	_, err := m.Build()
	require.ErrorIs(t, err, errs.ErrUnmeshedDependency)

	setEqual(t, m, 2, 1, 2, 3, 4)
	require.NoError(t, m.MeshCurves(context.Background(), 1, 2, 3, 4))
	c1, _ := m.Curve(1)
	c1.SetMarker(10)

	um, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, 8, um.NumPoints())
	assert.Equal(t, 8, um.NumElements())
	assert.Equal(t, []int{2, 3, 4, 10}, um.BlockIDs())
	assert.Equal(t, []int{2, 3, 4, 10}, um.NodeSetIDs())
	ns, err := um.NodeSet(10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), ns.GetCardinality())

	require.NoError(t, m.MeshSurface(1))
	s, _ := m.Surface(1)
	s.SetMarker(7)
	um, err = m.Build()
	require.NoError(t, err)
	assert.Equal(t, []int{7}, um.BlockIDs())
	for _, e := range um.Elements() {
		assert.Equal(t, umesh.Tri3, e.Type)
	}
	assert.Equal(t, "surface 1", um.BlockName(7))
}

func TestBuildRenumbersAfterRemesh(t *testing.T) {
	m := newMesh(t, unitSquare)
	setEqual(t, m, 4, 1, 2, 3, 4)
	require.NoError(t, m.MeshAll(context.Background()))
	setEqual(t, m, 1, 1)
	require.NoError(t, m.MeshCurve(1))

	// Removed nodes are tombstones: IDs of the survivors do not move.
	live := m.Nodes()
	assert.Equal(t, 4+3*3, len(live))
	_, err := m.Node(4)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	last := live[len(live)-1]
	n, err := m.Node(last.ID())
	require.NoError(t, err)
	assert.Same(t, last, n)

	um, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, len(live), um.NumPoints())
	assert.Equal(t, 1+3*4, um.NumElements())
}
