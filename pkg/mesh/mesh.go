// Package mesh holds the topology mesh built on top of a geometric model.
//
// Every geometric entity gets a mirror entity carrying its scheme, marker
// and mesh nodes. Nodes live in a single arena and are shared by pointer:
// the end node of a curve is the very *Vertex of its bounding MeshVertex,
// and a surface boundary reuses the curve nodes.
package mesh

import (
	"fmt"
	"sync"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/logging"
	"github.com/chazu/krado/pkg/model"
	"github.com/chazu/krado/pkg/umesh"
)

// OwnerKind is the dimension of the entity that created a node.
type OwnerKind int

const (
	OwnerNone OwnerKind = iota
	OwnerVertex
	OwnerCurve
	OwnerSurface
	OwnerVolume
)

func (k OwnerKind) String() string {
	switch k {
	case OwnerVertex:
		return "vertex"
	case OwnerCurve:
		return "curve"
	case OwnerSurface:
		return "surface"
	case OwnerVolume:
		return "volume"
	}
	return "none"
}

// Owner names the entity a node belongs to. The zero Owner means an
// interior node with no geometric parent.
type Owner struct {
	Kind OwnerKind
	Tag  int
}

// Vertex is a mesh node. Its ID is its arena index and never changes.
type Vertex struct {
	id    int
	point geom.Point
	owner Owner
}

// ID returns the arena index.
func (v *Vertex) ID() int { return v.id }

// Point returns the node position.
func (v *Vertex) Point() geom.Point { return v.point }

// Owner returns the entity that created the node.
func (v *Vertex) Owner() Owner { return v.owner }

func (v *Vertex) String() string {
	return fmt.Sprintf("node %d %v (%s %d)", v.id, v.point, v.owner.Kind, v.owner.Tag)
}

// Element is a mesh element over arena nodes.
type Element struct {
	Type  umesh.ElementType
	Nodes []*Vertex
}

// Mesh is the topology mesh of one model. All mutators take the mesh lock,
// so there is at most one writer at a time.
type Mesh struct {
	mu    sync.Mutex
	model *model.Model
	cfg   Defaults
	log   *logging.Logger

	nodes []*Vertex // nil entries are removed nodes

	vertices []*MeshVertex
	curves   []*MeshCurve
	surfaces []*MeshSurface
	volumes  []*MeshVolume
}

// New creates the mirror entities of m. Nothing is meshed yet.
func New(m *model.Model, opts ...Option) (*Mesh, error) {
	if m == nil {
		return nil, fmt.Errorf("mesh: nil model: %w", errs.ErrInvalidParameter)
	}
	cfg := DefaultSettings()
	for _, o := range opts {
		o(&cfg)
	}
	ms := &Mesh{model: m, cfg: cfg, log: cfg.Logger}

	for _, v := range m.Vertices() {
		ms.vertices = append(ms.vertices, &MeshVertex{entity: entity{mesh: ms, marker: v.Tag()}, geom: v})
	}
	for _, c := range m.Curves() {
		ms.curves = append(ms.curves, &MeshCurve{
			schemed: schemed{entity: entity{mesh: ms, marker: c.Tag()}},
			geom:    c,
		})
	}
	for _, s := range m.Surfaces() {
		ms.surfaces = append(ms.surfaces, &MeshSurface{
			schemed: schemed{entity: entity{mesh: ms, marker: s.Tag()}},
			geom:    s,
		})
	}
	for _, v := range m.Volumes() {
		ms.volumes = append(ms.volumes, &MeshVolume{
			schemed: schemed{entity: entity{mesh: ms, marker: v.Tag()}},
			geom:    v,
		})
	}
	return ms, nil
}

// Model returns the geometric model being meshed.
func (m *Mesh) Model() *model.Model { return m.model }

// Settings returns the resolved mesh settings.
func (m *Mesh) Settings() Defaults { return m.cfg }

// ----------------------------------------------------------------------------
// Lookups
// ----------------------------------------------------------------------------

func lookup[T any](items []*T, kind string, tag int) (*T, error) {
	if tag < 1 || tag > len(items) {
		return nil, errs.New("lookup", kind, tag, errs.ErrNotFound, "mesh has %d %ss", len(items), kind)
	}
	return items[tag-1], nil
}

// Vertex returns the mesh vertex with the given tag.
func (m *Mesh) Vertex(tag int) (*MeshVertex, error) { return lookup(m.vertices, "vertex", tag) }

// Curve returns the mesh curve with the given tag.
func (m *Mesh) Curve(tag int) (*MeshCurve, error) { return lookup(m.curves, "curve", tag) }

// Surface returns the mesh surface with the given tag.
func (m *Mesh) Surface(tag int) (*MeshSurface, error) { return lookup(m.surfaces, "surface", tag) }

// Volume returns the mesh volume with the given tag.
func (m *Mesh) Volume(tag int) (*MeshVolume, error) { return lookup(m.volumes, "volume", tag) }

// Vertices returns every mesh vertex in tag order.
func (m *Mesh) Vertices() []*MeshVertex { return append([]*MeshVertex(nil), m.vertices...) }

// Curves returns every mesh curve in tag order.
func (m *Mesh) Curves() []*MeshCurve { return append([]*MeshCurve(nil), m.curves...) }

// Surfaces returns every mesh surface in tag order.
func (m *Mesh) Surfaces() []*MeshSurface { return append([]*MeshSurface(nil), m.surfaces...) }

// Volumes returns every mesh volume in tag order.
func (m *Mesh) Volumes() []*MeshVolume { return append([]*MeshVolume(nil), m.volumes...) }

// Node returns the live node with the given ID.
func (m *Mesh) Node(id int) (*Vertex, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 0 || id >= len(m.nodes) || m.nodes[id] == nil {
		return nil, errs.New("lookup", "node", id, errs.ErrNotFound, "no live node")
	}
	return m.nodes[id], nil
}

// Nodes returns the live nodes in ID order.
func (m *Mesh) Nodes() []*Vertex {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Vertex, 0, len(m.nodes))
	for _, n := range m.nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}

// NumNodes returns the number of live nodes.
func (m *Mesh) NumNodes() int { return len(m.Nodes()) }

// ----------------------------------------------------------------------------
// Arena
// ----------------------------------------------------------------------------

func (m *Mesh) addNode(p geom.Point, o Owner) *Vertex {
	v := &Vertex{id: len(m.nodes), point: p, owner: o}
	m.nodes = append(m.nodes, v)
	return v
}

func (m *Mesh) removeNodes(vs []*Vertex) {
	for _, v := range vs {
		if v.id < len(m.nodes) && m.nodes[v.id] == v {
			m.nodes[v.id] = nil
		}
	}
}
