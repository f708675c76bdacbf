package mesh

import (
	"fmt"
	"slices"

	"github.com/chazu/krado/pkg/model"
	"github.com/chazu/krado/pkg/scheme"
	"github.com/chazu/krado/pkg/umesh"
)

// entity is the state shared by every mirror entity.
type entity struct {
	mesh   *Mesh
	marker int
	meshed bool
}

// Marker returns the block or set ID the entity exports under.
func (e *entity) Marker() int {
	e.mesh.mu.Lock()
	defer e.mesh.mu.Unlock()
	return e.marker
}

// SetMarker changes the export marker.
func (e *entity) SetMarker(marker int) {
	e.mesh.mu.Lock()
	defer e.mesh.mu.Unlock()
	e.marker = marker
}

// IsMeshed reports whether the entity currently holds a mesh.
func (e *entity) IsMeshed() bool {
	e.mesh.mu.Lock()
	defer e.mesh.mu.Unlock()
	return e.meshed
}

// schemed adds a scheme slot to entities of dimension one and up.
type schemed struct {
	entity
	scheme *scheme.Scheme
}

// setScheme builds a fresh scheme with p applied and only then replaces
// the assigned one, so a rejected parameter leaves the entity unchanged.
func (s *schemed) setScheme(dim scheme.Dim, name string, p scheme.Params) (*scheme.Scheme, error) {
	sc, err := s.mesh.cfg.Registry.New(dim, name)
	if err != nil {
		return nil, err
	}
	if err := sc.SetAll(p); err != nil {
		return nil, err
	}
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	s.scheme = sc
	return sc, nil
}

// schemeLocked returns the assigned scheme, creating the auto scheme on
// first use. The caller holds the mesh lock.
func (s *schemed) schemeLocked(dim scheme.Dim) (*scheme.Scheme, error) {
	if s.scheme == nil {
		sc, err := s.mesh.cfg.Registry.New(dim, "auto")
		if err != nil {
			return nil, err
		}
		s.scheme = sc
	}
	return s.scheme, nil
}

func (s *schemed) getScheme(dim scheme.Dim) *scheme.Scheme {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	sc, err := s.schemeLocked(dim)
	if err != nil {
		return nil
	}
	return sc
}

// ----------------------------------------------------------------------------
// MeshVertex
// ----------------------------------------------------------------------------

// MeshVertex mirrors a geometric vertex. Once meshed it owns exactly one node.
type MeshVertex struct {
	entity
	geom *model.Vertex
	node *Vertex
}

// Tag returns the tag of the geometric vertex.
func (v *MeshVertex) Tag() int { return v.geom.Tag() }

// Geom returns the geometric vertex.
func (v *MeshVertex) Geom() *model.Vertex { return v.geom }

// Node returns the mesh node, or nil when the vertex is not meshed.
func (v *MeshVertex) Node() *Vertex {
	v.mesh.mu.Lock()
	defer v.mesh.mu.Unlock()
	return v.node
}

func (v *MeshVertex) String() string { return fmt.Sprintf("mesh vertex %d", v.Tag()) }

// ----------------------------------------------------------------------------
// MeshCurve
// ----------------------------------------------------------------------------

// MeshCurve mirrors a geometric curve.
type MeshCurve struct {
	schemed
	geom  *model.Curve
	nodes []*Vertex // parameter order, both ends included
}

// Tag returns the tag of the geometric curve.
func (c *MeshCurve) Tag() int { return c.geom.Tag() }

// Geom returns the geometric curve.
func (c *MeshCurve) Geom() *model.Curve { return c.geom }

// SetScheme assigns a fresh curve scheme with default parameters.
func (c *MeshCurve) SetScheme(name string) (*scheme.Scheme, error) {
	return c.setScheme(scheme.Curve, name, nil)
}

// Configure assigns a fresh curve scheme with p applied. On error the
// previous scheme stays in place.
func (c *MeshCurve) Configure(name string, p scheme.Params) (*scheme.Scheme, error) {
	return c.setScheme(scheme.Curve, name, p)
}

// Scheme returns the assigned scheme, auto until one is set.
func (c *MeshCurve) Scheme() *scheme.Scheme { return c.getScheme(scheme.Curve) }

// AllVertices returns the curve nodes in parameter order, bounding vertices
// included. A closed curve starts and ends on the same node.
func (c *MeshCurve) AllVertices() []*Vertex {
	c.mesh.mu.Lock()
	defer c.mesh.mu.Unlock()
	return slices.Clone(c.nodes)
}

// BoundingVertices returns the first and last node, or nils if unmeshed.
func (c *MeshCurve) BoundingVertices() (first, last *Vertex) {
	c.mesh.mu.Lock()
	defer c.mesh.mu.Unlock()
	if len(c.nodes) == 0 {
		return nil, nil
	}
	return c.nodes[0], c.nodes[len(c.nodes)-1]
}

// Segments returns the LINE2 elements between consecutive nodes.
func (c *MeshCurve) Segments() []Element {
	c.mesh.mu.Lock()
	defer c.mesh.mu.Unlock()
	return c.segmentsLocked()
}

func (c *MeshCurve) segmentsLocked() []Element {
	if len(c.nodes) < 2 {
		return nil
	}
	out := make([]Element, len(c.nodes)-1)
	for i := range out {
		out[i] = Element{Type: umesh.Line2, Nodes: []*Vertex{c.nodes[i], c.nodes[i+1]}}
	}
	return out
}

// interior returns the nodes owned by the curve itself.
func (c *MeshCurve) interior() []*Vertex {
	if len(c.nodes) < 2 {
		return nil
	}
	return c.nodes[1 : len(c.nodes)-1]
}

func (c *MeshCurve) String() string { return fmt.Sprintf("mesh curve %d", c.Tag()) }

// ----------------------------------------------------------------------------
// MeshSurface
// ----------------------------------------------------------------------------

// MeshSurface mirrors a geometric surface.
type MeshSurface struct {
	schemed
	geom     *model.Surface
	boundary []*Vertex // loop order, each node once
	interior []*Vertex
	facets   []Element
}

// Tag returns the tag of the geometric surface.
func (s *MeshSurface) Tag() int { return s.geom.Tag() }

// Geom returns the geometric surface.
func (s *MeshSurface) Geom() *model.Surface { return s.geom }

// SetScheme assigns a fresh surface scheme with default parameters.
func (s *MeshSurface) SetScheme(name string) (*scheme.Scheme, error) {
	return s.setScheme(scheme.Surface, name, nil)
}

// Configure assigns a fresh surface scheme with p applied. On error the
// previous scheme stays in place.
func (s *MeshSurface) Configure(name string, p scheme.Params) (*scheme.Scheme, error) {
	return s.setScheme(scheme.Surface, name, p)
}

// Scheme returns the assigned scheme, auto until one is set.
func (s *MeshSurface) Scheme() *scheme.Scheme { return s.getScheme(scheme.Surface) }

// AllVertices returns the boundary nodes followed by the interior nodes.
func (s *MeshSurface) AllVertices() []*Vertex {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	return append(slices.Clone(s.boundary), s.interior...)
}

// Facets returns the surface elements, TRI3 or QUAD4.
func (s *MeshSurface) Facets() []Element {
	s.mesh.mu.Lock()
	defer s.mesh.mu.Unlock()
	return cloneElements(s.facets)
}

// Triangles returns the TRI3 facets only.
func (s *MeshSurface) Triangles() []Element {
	var out []Element
	for _, f := range s.Facets() {
		if f.Type == umesh.Tri3 {
			out = append(out, f)
		}
	}
	return out
}

// Curves returns the mesh curves bounding the surface.
func (s *MeshSurface) Curves() []*MeshCurve {
	gc := s.geom.Curves()
	out := make([]*MeshCurve, len(gc))
	for i, c := range gc {
		out[i] = s.mesh.curves[c.Tag()-1]
	}
	return out
}

func (s *MeshSurface) String() string { return fmt.Sprintf("mesh surface %d", s.Tag()) }

// ----------------------------------------------------------------------------
// MeshVolume
// ----------------------------------------------------------------------------

// MeshVolume mirrors a geometric volume.
type MeshVolume struct {
	schemed
	geom     *model.Volume
	interior []*Vertex
	cells    []Element
}

// Tag returns the tag of the geometric volume.
func (v *MeshVolume) Tag() int { return v.geom.Tag() }

// Geom returns the geometric volume.
func (v *MeshVolume) Geom() *model.Volume { return v.geom }

// SetScheme assigns a fresh volume scheme with default parameters.
func (v *MeshVolume) SetScheme(name string) (*scheme.Scheme, error) {
	return v.setScheme(scheme.Volume, name, nil)
}

// Configure assigns a fresh volume scheme with p applied. On error the
// previous scheme stays in place.
func (v *MeshVolume) Configure(name string, p scheme.Params) (*scheme.Scheme, error) {
	return v.setScheme(scheme.Volume, name, p)
}

// Scheme returns the assigned scheme, auto until one is set.
func (v *MeshVolume) Scheme() *scheme.Scheme { return v.getScheme(scheme.Volume) }

// Cells returns the volume elements.
func (v *MeshVolume) Cells() []Element {
	v.mesh.mu.Lock()
	defer v.mesh.mu.Unlock()
	return cloneElements(v.cells)
}

// Surfaces returns the mesh surfaces bounding the volume.
func (v *MeshVolume) Surfaces() []*MeshSurface {
	gs := v.geom.Surfaces()
	out := make([]*MeshSurface, len(gs))
	for i, s := range gs {
		out[i] = v.mesh.surfaces[s.Tag()-1]
	}
	return out
}

// AllVertices returns every node the cells use, boundary first, each once.
func (v *MeshVolume) AllVertices() []*Vertex {
	v.mesh.mu.Lock()
	defer v.mesh.mu.Unlock()
	seen := make(map[*Vertex]bool)
	var out []*Vertex
	for _, c := range v.cells {
		for _, n := range c.Nodes {
			if !seen[n] && n.owner.Kind != OwnerVolume {
				seen[n] = true
				out = append(out, n)
			}
		}
	}
	return append(out, v.interior...)
}

func (v *MeshVolume) String() string { return fmt.Sprintf("mesh volume %d", v.Tag()) }

func cloneElements(es []Element) []Element {
	out := make([]Element, len(es))
	for i, e := range es {
		out[i] = Element{Type: e.Type, Nodes: slices.Clone(e.Nodes)}
	}
	return out
}
