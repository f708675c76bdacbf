package mesh

import (
	"context"
	"fmt"
	"slices"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/scheme"
	"golang.org/x/sync/errgroup"
)

// Every Mesh* call computes into a plan without touching the mesh and then
// commits the plan. Commits cannot fail, so a failed call leaves the mesh
// exactly as it was.

// ----------------------------------------------------------------------------
// Vertices
// ----------------------------------------------------------------------------

// MeshVertex creates the node of a vertex. Meshing a meshed vertex is a
// no-op.
func (m *Mesh) MeshVertex(tag int) error {
	v, err := m.Vertex(tag)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meshVertexLocked(v)
	return nil
}

func (m *Mesh) meshVertexLocked(v *MeshVertex) *Vertex {
	if v.node == nil {
		v.node = m.addNode(v.geom.Point(), Owner{Kind: OwnerVertex, Tag: v.Tag()})
		v.meshed = true
		m.log.LogMeshed(context.Background(), "vertex", v.Tag(), 1, 0, nil)
	}
	return v.node
}

// ----------------------------------------------------------------------------
// Curves
// ----------------------------------------------------------------------------

type curvePlan struct {
	curve  *MeshCurve
	params []float64
	points []geom.Point // interior points only
}

func (m *Mesh) planCurve(c *MeshCurve, sc *scheme.Scheme) (*curvePlan, error) {
	ts, err := sc.DiscretizeCurve(c.geom)
	if err != nil {
		return nil, errs.Wrap("mesh", "curve", c.Tag(), nil, err)
	}
	t0, t1 := c.geom.ParamRange()
	if len(ts) < 2 {
		return nil, errs.New("mesh", "curve", c.Tag(), errs.ErrDegenerateGeometry,
			"scheme %q returned %d parameters", sc.Name(), len(ts))
	}
	for i := 1; i < len(ts); i++ {
		if !(ts[i] > ts[i-1]) {
			return nil, errs.New("mesh", "curve", c.Tag(), errs.ErrDegenerateGeometry,
				"scheme %q returned non-increasing parameters at %d", sc.Name(), i)
		}
	}
	if ts[0] < t0-m.cfg.Tolerance || ts[len(ts)-1] > t1+m.cfg.Tolerance {
		return nil, errs.New("mesh", "curve", c.Tag(), errs.ErrDegenerateGeometry,
			"scheme %q left the parameter range [%g, %g]", sc.Name(), t0, t1)
	}
	p := &curvePlan{curve: c, params: ts}
	for _, t := range ts[1 : len(ts)-1] {
		pt, err := c.geom.Point(t)
		if err != nil {
			return nil, errs.Wrap("mesh", "curve", c.Tag(), nil, err)
		}
		p.points = append(p.points, pt)
	}
	return p, nil
}

func (m *Mesh) commitCurve(ctx context.Context, p *curvePlan) {
	c := p.curve
	if c.meshed {
		m.invalidateCurveDependants(ctx, c)
		m.removeNodes(c.interior())
	}
	first, last := c.geom.Vertices()
	v0 := m.meshVertexLocked(m.vertices[first.Tag()-1])
	v1 := m.meshVertexLocked(m.vertices[last.Tag()-1])

	nodes := make([]*Vertex, 0, len(p.points)+2)
	nodes = append(nodes, v0)
	for _, pt := range p.points {
		nodes = append(nodes, m.addNode(pt, Owner{Kind: OwnerCurve, Tag: c.Tag()}))
	}
	c.nodes = append(nodes, v1)
	c.meshed = true
	m.log.WithScheme(c.scheme.Name()).LogMeshed(ctx, "curve", c.Tag(), len(c.nodes), len(c.nodes)-1, nil)
}

// MeshCurve discretizes one curve with its scheme. Unmeshed bounding
// vertices are meshed first. Re-meshing replaces the interior nodes and
// invalidates the surfaces built on the old ones.
func (m *Mesh) MeshCurve(tag int) error {
	return m.MeshCurves(context.Background(), tag)
}

// MeshCurves meshes several curves. Schemes are evaluated concurrently, up
// to the configured worker count, and the results are committed in tag
// order. If any curve fails, none is committed.
func (m *Mesh) MeshCurves(ctx context.Context, tags ...int) error {
	curves := make([]*MeshCurve, 0, len(tags))
	for _, tag := range tags {
		c, err := m.Curve(tag)
		if err != nil {
			return err
		}
		if !slices.Contains(curves, c) {
			curves = append(curves, c)
		}
	}
	slices.SortFunc(curves, func(a, b *MeshCurve) int { return a.Tag() - b.Tag() })

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshCurvesLocked(ctx, curves)
}

func (m *Mesh) meshCurvesLocked(ctx context.Context, curves []*MeshCurve) error {
	schemes := make([]*scheme.Scheme, len(curves))
	for i, c := range curves {
		sc, err := c.schemeLocked(scheme.Curve)
		if err != nil {
			return errs.Wrap("mesh", "curve", c.Tag(), nil, err)
		}
		schemes[i] = sc
	}

	plans := make([]*curvePlan, len(curves))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for i, c := range curves {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := m.planCurve(c, schemes[i])
			if err != nil {
				m.log.WithScheme(schemes[i].Name()).LogMeshed(ctx, "curve", c.Tag(), 0, 0, err)
				return err
			}
			plans[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	for _, p := range plans {
		m.commitCurve(ctx, p)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Surfaces
// ----------------------------------------------------------------------------

type surfacePlan struct {
	surface  *MeshSurface
	boundary []*Vertex
	out      *scheme.Output
}

// surfaceInput assembles the boundary loops of s from its curve meshes.
func (m *Mesh) surfaceInput(s *MeshSurface) (*scheme.SurfaceInput, []*Vertex, error) {
	for _, gc := range s.geom.Curves() {
		if c := m.curves[gc.Tag()-1]; !c.meshed {
			return nil, nil, errs.New("mesh", "surface", s.Tag(), errs.ErrUnmeshedDependency,
				"curve %d is not meshed", gc.Tag())
		}
	}

	toNode := func(v *Vertex) (scheme.Node, error) {
		u, w, err := s.geom.Param(v.point)
		if err != nil {
			return scheme.Node{}, err
		}
		return scheme.Node{ID: v.id, Point: v.point, U: u, V: w}, nil
	}

	in := &scheme.SurfaceInput{Surface: s.geom}
	var boundary []*Vertex
	seen := make(map[*Vertex]bool)
	for li, loop := range s.geom.Loops() {
		var ring []scheme.Node
		for _, use := range loop {
			cn := slices.Clone(m.curves[use.Curve.Tag()-1].nodes)
			if use.Reversed {
				slices.Reverse(cn)
			}
			side := make([]scheme.Node, len(cn))
			for i, v := range cn {
				n, err := toNode(v)
				if err != nil {
					return nil, nil, errs.Wrap("mesh", "surface", s.Tag(), nil, err)
				}
				side[i] = n
			}
			if li == 0 {
				in.Sides = append(in.Sides, side)
			}
			// The last node of each use is the first of the next one.
			for i, v := range cn[:len(cn)-1] {
				ring = append(ring, side[i])
				if !seen[v] {
					seen[v] = true
					boundary = append(boundary, v)
				}
			}
		}
		in.Loops = append(in.Loops, ring)
	}
	return in, boundary, nil
}

func (m *Mesh) planSurface(s *MeshSurface) (*surfacePlan, error) {
	sc, err := s.schemeLocked(scheme.Surface)
	if err != nil {
		return nil, errs.Wrap("mesh", "surface", s.Tag(), nil, err)
	}
	in, boundary, err := m.surfaceInput(s)
	if err != nil {
		return nil, err
	}
	out, err := sc.MeshSurface(in)
	if err != nil {
		return nil, errs.Wrap("mesh", "surface", s.Tag(), nil, err)
	}
	if err := checkOutput(out, boundary, 2); err != nil {
		return nil, errs.New("mesh", "surface", s.Tag(), errs.ErrDegenerateGeometry, "scheme %q: %v", sc.Name(), err)
	}
	return &surfacePlan{surface: s, boundary: boundary, out: out}, nil
}

func (m *Mesh) commitSurface(ctx context.Context, p *surfacePlan) {
	s := p.surface
	if s.meshed {
		m.invalidateSurfaceDependants(ctx, s)
		m.removeNodes(s.interior)
	}
	s.boundary = p.boundary
	s.interior = nil
	for _, pt := range p.out.Points {
		s.interior = append(s.interior, m.addNode(pt, Owner{Kind: OwnerSurface, Tag: s.Tag()}))
	}
	s.facets = m.resolveCells(p.out.Cells, s.interior)
	s.meshed = true
	m.log.WithScheme(s.scheme.Name()).LogMeshed(ctx, "surface", s.Tag(), len(s.boundary)+len(s.interior), len(s.facets), nil)
}

// MeshSurface meshes one surface. Every bounding curve must be meshed.
// Re-meshing replaces the interior nodes and invalidates the volumes built
// on the old facets.
func (m *Mesh) MeshSurface(tag int) error {
	s, err := m.Surface(tag)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshSurfaceLocked(context.Background(), s)
}

func (m *Mesh) meshSurfaceLocked(ctx context.Context, s *MeshSurface) error {
	p, err := m.planSurface(s)
	if err != nil {
		m.log.LogMeshed(ctx, "surface", s.Tag(), 0, 0, err)
		return err
	}
	m.commitSurface(ctx, p)
	return nil
}

// ----------------------------------------------------------------------------
// Volumes
// ----------------------------------------------------------------------------

type volumePlan struct {
	volume *MeshVolume
	out    *scheme.Output
}

func (m *Mesh) planVolume(v *MeshVolume) (*volumePlan, error) {
	sc, err := v.schemeLocked(scheme.Volume)
	if err != nil {
		return nil, errs.Wrap("mesh", "volume", v.Tag(), nil, err)
	}
	in := &scheme.VolumeInput{Nodes: make(map[int]geom.Point), Tessellator: m.cfg.Tessellator}
	var boundary []*Vertex
	for _, gs := range v.geom.Surfaces() {
		s := m.surfaces[gs.Tag()-1]
		if !s.meshed {
			return nil, errs.New("mesh", "volume", v.Tag(), errs.ErrUnmeshedDependency,
				"surface %d is not meshed", gs.Tag())
		}
		for _, f := range s.facets {
			ids := make([]int, len(f.Nodes))
			for i, n := range f.Nodes {
				ids[i] = n.id
				if _, ok := in.Nodes[n.id]; !ok {
					in.Nodes[n.id] = n.point
					boundary = append(boundary, n)
				}
			}
			in.Facets = append(in.Facets, scheme.Cell{Type: f.Type, Nodes: ids})
		}
	}
	out, err := sc.MeshVolume(in)
	if err != nil {
		return nil, errs.Wrap("mesh", "volume", v.Tag(), nil, err)
	}
	if err := checkOutput(out, boundary, 3); err != nil {
		return nil, errs.New("mesh", "volume", v.Tag(), errs.ErrDegenerateGeometry, "scheme %q: %v", sc.Name(), err)
	}
	return &volumePlan{volume: v, out: out}, nil
}

func (m *Mesh) commitVolume(ctx context.Context, p *volumePlan) {
	v := p.volume
	if v.meshed {
		m.removeNodes(v.interior)
	}
	v.interior = nil
	for _, pt := range p.out.Points {
		v.interior = append(v.interior, m.addNode(pt, Owner{Kind: OwnerVolume, Tag: v.Tag()}))
	}
	v.cells = m.resolveCells(p.out.Cells, v.interior)
	v.meshed = true
	m.log.WithScheme(v.scheme.Name()).LogMeshed(ctx, "volume", v.Tag(), len(v.interior), len(v.cells), nil)
}

// MeshVolume fills one volume. Every bounding surface must be meshed.
func (m *Mesh) MeshVolume(tag int) error {
	v, err := m.Volume(tag)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.meshVolumeLocked(context.Background(), v)
}

func (m *Mesh) meshVolumeLocked(ctx context.Context, v *MeshVolume) error {
	p, err := m.planVolume(v)
	if err != nil {
		m.log.LogMeshed(ctx, "volume", v.Tag(), 0, 0, err)
		return err
	}
	m.commitVolume(ctx, p)
	return nil
}

// ----------------------------------------------------------------------------
// Whole model
// ----------------------------------------------------------------------------

// MeshAll meshes everything not yet meshed, bottom-up: vertices, curves (in
// one MeshCurves batch), surfaces, then volumes. It stops at the first
// failure; entities meshed before it stay meshed.
func (m *Mesh) MeshAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, v := range m.vertices {
		m.meshVertexLocked(v)
	}
	var pending []*MeshCurve
	for _, c := range m.curves {
		if !c.meshed {
			pending = append(pending, c)
		}
	}
	if err := m.meshCurvesLocked(ctx, pending); err != nil {
		return err
	}
	for _, s := range m.surfaces {
		if s.meshed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.meshSurfaceLocked(ctx, s); err != nil {
			return err
		}
	}
	for _, v := range m.volumes {
		if v.meshed {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.meshVolumeLocked(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// ----------------------------------------------------------------------------
// Invalidation
// ----------------------------------------------------------------------------

func (m *Mesh) invalidateCurveDependants(ctx context.Context, c *MeshCurve) {
	for _, gs := range m.model.SurfacesOf(c.geom) {
		if s := m.surfaces[gs.Tag()-1]; s.meshed {
			m.invalidateSurface(ctx, s)
		}
	}
}

func (m *Mesh) invalidateSurfaceDependants(ctx context.Context, s *MeshSurface) {
	for _, gv := range m.model.VolumesOf(s.geom) {
		if v := m.volumes[gv.Tag()-1]; v.meshed {
			m.invalidateVolume(ctx, v)
		}
	}
}

func (m *Mesh) invalidateSurface(ctx context.Context, s *MeshSurface) {
	m.invalidateSurfaceDependants(ctx, s)
	m.removeNodes(s.interior)
	s.boundary, s.interior, s.facets = nil, nil, nil
	s.meshed = false
	m.log.LogInvalidated(ctx, "surface", s.Tag())
}

func (m *Mesh) invalidateVolume(ctx context.Context, v *MeshVolume) {
	m.removeNodes(v.interior)
	v.interior, v.cells = nil, nil
	v.meshed = false
	m.log.LogInvalidated(ctx, "volume", v.Tag())
}

// ----------------------------------------------------------------------------
// Scheme output
// ----------------------------------------------------------------------------

// checkOutput validates the references and element dimension of a scheme
// result against the boundary nodes it was given.
func checkOutput(out *scheme.Output, boundary []*Vertex, dim int) error {
	if out == nil || len(out.Cells) == 0 {
		return fmt.Errorf("no elements")
	}
	known := make(map[int]bool, len(boundary))
	for _, v := range boundary {
		known[v.id] = true
	}
	for i, c := range out.Cells {
		if c.Type.Dim() != dim {
			return fmt.Errorf("cell %d is %s, want a %dD element", i, c.Type, dim)
		}
		if len(c.Nodes) != c.Type.NumNodes() {
			return fmt.Errorf("cell %d has %d nodes, %s needs %d", i, len(c.Nodes), c.Type, c.Type.NumNodes())
		}
		for _, ref := range c.Nodes {
			if j, ok := scheme.RefIndex(ref); ok {
				if j >= len(out.Points) {
					return fmt.Errorf("cell %d references new point %d of %d", i, j, len(out.Points))
				}
			} else if !known[ref] {
				return fmt.Errorf("cell %d references node %d outside the boundary", i, ref)
			}
		}
	}
	return nil
}

// resolveCells maps scheme references to arena nodes. created holds the
// nodes made for Output.Points, in order.
func (m *Mesh) resolveCells(cells []scheme.Cell, created []*Vertex) []Element {
	out := make([]Element, len(cells))
	for i, c := range cells {
		nodes := make([]*Vertex, len(c.Nodes))
		for j, ref := range c.Nodes {
			if k, ok := scheme.RefIndex(ref); ok {
				nodes[j] = created[k]
			} else {
				nodes[j] = m.nodes[ref]
			}
		}
		out[i] = Element{Type: c.Type, Nodes: nodes}
	}
	return out
}
