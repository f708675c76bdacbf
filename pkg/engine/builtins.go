package engine

import (
	"context"
	"fmt"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
	"github.com/chazu/krado/pkg/kernel/analytic"
	"github.com/chazu/krado/pkg/mesh"
	"github.com/chazu/krado/pkg/meshio"
	"github.com/chazu/krado/pkg/model"
	"github.com/chazu/krado/pkg/scheme"
)

// state is shared by the builtins of a single evaluation.
type state struct {
	engine  *Engine
	session *Session
}

// currentMesh returns the mesh bound by the last (model ...) call.
func (st *state) currentMesh(fn string) (*mesh.Mesh, error) {
	if st.session.Mesh == nil {
		return nil, fmt.Errorf("%s: no model; call (model ...) first", fn)
	}
	return st.session.Mesh, nil
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpPoint wraps a geom.Point.
type sexpPoint struct {
	p geom.Point
}

func (p *sexpPoint) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(point %g %g %g)", p.p.X, p.p.Y, p.p.Z)
}
func (p *sexpPoint) Type() *zygo.RegisteredType { return nil }

// sexpShape wraps a kernel.Shape built by a geometry builtin.
type sexpShape struct {
	s kernel.Shape
}

func (s *sexpShape) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(shape %s)", s.s.Kind())
}
func (s *sexpShape) Type() *zygo.RegisteredType { return nil }

// sexpModel summarises the tagged model bound to the session.
type sexpModel struct {
	m *model.Model
}

func (m *sexpModel) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(model :vertices %d :curves %d :surfaces %d :volumes %d)",
		len(m.m.Vertices()), len(m.m.Curves()), len(m.m.Surfaces()), len(m.m.Volumes()))
}
func (m *sexpModel) Type() *zygo.RegisteredType { return nil }

func toShape(s zygo.Sexp) (kernel.Shape, error) {
	if sh, ok := s.(*sexpShape); ok {
		return sh.s, nil
	}
	return nil, fmt.Errorf("expected shape, got %T (%s)", s, s.SexpString(nil))
}

// shapesOf flattens shapes and lists of shapes, as returned by the pattern
// builtins.
func shapesOf(args []zygo.Sexp) ([]kernel.Shape, error) {
	var out []kernel.Shape
	for i, a := range args {
		if sh, ok := a.(*sexpShape); ok {
			out = append(out, sh.s)
			continue
		}
		items, err := listItems(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: expected shape, got %T (%s)", i+1, a, a.SexpString(nil))
		}
		for j, it := range items {
			s, err := toShape(it)
			if err != nil {
				return nil, fmt.Errorf("argument %d item %d: %w", i+1, j+1, err)
			}
			out = append(out, s)
		}
	}
	return out, nil
}

// schemeOf returns the scheme assigned to the entity.
func schemeOf(m *mesh.Mesh, dim scheme.Dim, tag int) (*scheme.Scheme, error) {
	switch dim {
	case scheme.Curve:
		c, err := m.Curve(tag)
		if err != nil {
			return nil, err
		}
		return c.Scheme(), nil
	case scheme.Surface:
		s, err := m.Surface(tag)
		if err != nil {
			return nil, err
		}
		return s.Scheme(), nil
	default:
		v, err := m.Volume(tag)
		if err != nil {
			return nil, err
		}
		return v.Scheme(), nil
	}
}

// configure assigns a named scheme with params to the entity. The params
// are checked against a fresh scheme first; on error the entity keeps the
// scheme it had.
func configure(m *mesh.Mesh, dim scheme.Dim, tag int, name string, p scheme.Params) (*scheme.Scheme, error) {
	switch dim {
	case scheme.Curve:
		c, err := m.Curve(tag)
		if err != nil {
			return nil, err
		}
		return c.Configure(name, p)
	case scheme.Surface:
		s, err := m.Surface(tag)
		if err != nil {
			return nil, err
		}
		return s.Configure(name, p)
	default:
		v, err := m.Volume(tag)
		if err != nil {
			return nil, err
		}
		return v.Configure(name, p)
	}
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the krado builtins into a zygomys environment.
// Builtins record their results on st.session.
//
// Source must go through rewriteSource first so that :keyword tokens and
// kebab-case names reach the builtins as registered.
func registerBuiltins(env *zygo.Zlisp, st *state) {
	registerGeometry(env, st)
	registerSchemes(env, st)
	registerMeshing(env, st)
	registerMeshOps(env, st)
}

func registerGeometry(env *zygo.Zlisp, st *state) {
	env.AddFunction("point", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := toFloats(args, 3)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("point: %w", err)
		}
		return &sexpPoint{p: geom.NewPoint(f[0], f[1], f[2])}, nil
	})

	env.AddFunction("box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := toFloats(args, 6)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		s, err := analytic.Box(geom.NewPoint(f[0], f[1], f[2]), geom.NewPoint(f[3], f[4], f[5]))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box: %w", err)
		}
		return &sexpShape{s: s}, nil
	})

	env.AddFunction("rectangle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := toFloats(args, 4)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rectangle: %w", err)
		}
		s, err := analytic.Rectangle(geom.NewPoint(f[0], f[1], 0), geom.NewPoint(f[2], f[3], 0))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rectangle: %w", err)
		}
		return &sexpShape{s: s}, nil
	})

	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		f, err := toFloats(args, 4)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		s, err := analytic.CircleFace(geom.NewPoint(f[0], f[1], f[2]), f[3])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: %w", err)
		}
		return &sexpShape{s: s}, nil
	})

	// (polygon p1 p2 p3 ...), (polygon (list p1 p2 p3)) or with holes
	// (polygon p1 p2 p3 p4 :holes (list (list h1 h2 h3)))
	env.AddFunction("polygon", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs("polygon", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		var holes [][]geom.Point
		if v, ok := a.option("holes"); ok {
			rings, err := listItems(v)
			if err != nil {
				return zygo.SexpNull, a.errorf(":holes: %w", err)
			}
			for i, r := range rings {
				h, err := toPoints(r)
				if err != nil {
					return zygo.SexpNull, a.errorf("hole %d: %w", i+1, err)
				}
				holes = append(holes, h)
			}
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		items := a.pos
		if len(items) == 1 {
			if l, err := listItems(items[0]); err == nil {
				items = l
			}
		}
		pts, err := pointsOf(items)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		s, err := analytic.PolygonWithHoles(pts, holes...)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		return &sexpShape{s: s}, nil
	})

	// (translate x dx dy dz) moves a shape or a built mesh.
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return zygo.SexpNull, fmt.Errorf("translate: expected a shape or mesh and 3 offsets, got %d arguments", len(args))
		}
		f, err := toFloats(args[1:], 3)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		return transformed("translate", args[0], geom.Translated(f[0], f[1], f[2]))
	})

	// (transform x :scale 2 :rotate-z 90 :translate (list 1 0 0)) applies
	// the steps in the order given. Angles are in degrees.
	env.AddFunction("transform", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs("transform", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.positional(1, 1); err != nil {
			return zygo.SexpNull, err
		}
		tr, err := trsfOf(a)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		return transformed("transform", a.pos[0], tr)
	})

	// (model shape ...) binds a new model and mesh to the session.
	env.AddFunction("model", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		shapes, err := shapesOf(args)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}
		if len(shapes) == 0 {
			return zygo.SexpNull, fmt.Errorf("model: at least one shape is required")
		}
		md, err := model.New(analytic.New(), shapes...)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}
		opts := append([]mesh.Option{mesh.WithLogger(st.engine.logger)}, st.engine.meshOpts...)
		m, err := mesh.New(md, opts...)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model: %w", err)
		}
		st.session.Model = md
		st.session.Mesh = m
		return &sexpModel{m: md}, nil
	})
}

// trsfOf composes the transform options of a in call order.
func trsfOf(a *callArgs) (geom.Trsf, error) {
	tr := geom.Identity()
	for _, step := range a.order {
		switch step {
		case "translate":
			v, err := a.vector(step, geom.Vector{})
			if err != nil {
				return tr, err
			}
			tr.Translate(v.X, v.Y, v.Z)
		case "scale":
			s, err := a.number(step, 1)
			if err != nil {
				return tr, err
			}
			tr.Scale(s)
		case "rotate_x", "rotate_y", "rotate_z":
			deg, err := a.number(step, 0)
			if err != nil {
				return tr, err
			}
			rad := geom.Radians(deg)
			switch step {
			case "rotate_x":
				tr.RotateX(rad)
			case "rotate_y":
				tr.RotateY(rad)
			default:
				tr.RotateZ(rad)
			}
		}
	}
	return tr, nil
}

func transformed(fn string, x zygo.Sexp, tr geom.Trsf) (zygo.Sexp, error) {
	switch v := x.(type) {
	case *sexpShape:
		out, err := analytic.Transformed(v.s, tr)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("%s: %w", fn, err)
		}
		return &sexpShape{s: out}, nil
	case *sexpMesh:
		return &sexpMesh{m: v.m.Transformed(tr)}, nil
	}
	return zygo.SexpNull, fmt.Errorf("%s: expected shape or mesh, got %T (%s)", fn, x, x.SexpString(nil))
}

func registerSchemes(env *zygo.Zlisp, st *state) {
	// (set-scheme :curve 1 "bias" :intervals 8 :coef 1.2)
	env.AddFunction("set_scheme", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := st.currentMesh("set-scheme")
		if err != nil {
			return zygo.SexpNull, err
		}
		a, err := splitArgs("set-scheme", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		dim, tag, err := a.entity()
		if err != nil {
			return zygo.SexpNull, err
		}
		if len(a.pos) != 1 {
			return zygo.SexpNull, a.errorf("expected a scheme name")
		}
		schemeName, err := toString(a.pos[0])
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		params, err := a.params()
		if err != nil {
			return zygo.SexpNull, err
		}
		sc, err := configure(m, dim, tag, schemeName, params)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		st.engine.logger.WithEntity(dim.String(), tag).WithScheme(sc.Name()).
			Debug("scheme assigned", "params", len(params))
		return &zygo.SexpStr{S: sc.Name()}, nil
	})

	// (scheme-param :curve 1 "intervals")
	env.AddFunction("scheme_param", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := st.currentMesh("scheme-param")
		if err != nil {
			return zygo.SexpNull, err
		}
		a, err := splitArgs("scheme-param", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		dim, tag, err := a.entity()
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		if len(a.pos) != 1 {
			return zygo.SexpNull, a.errorf("expected a parameter name")
		}
		param, err := toString(a.pos[0])
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		if k, ok := keyword(a.pos[0]); ok {
			param = k
		}
		sc, err := schemeOf(m, dim, tag)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		v, ok := sc.Get()[param]
		if !ok {
			return zygo.SexpNull, a.errorf("%s has no parameter %q", sc.Name(), param)
		}
		return fromParam(v), nil
	})
}

func registerMeshing(env *zygo.Zlisp, st *state) {
	// Each returns the number of elements the entity now owns.
	env.AddFunction("mesh_curve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, tag, err := st.tagged("mesh-curve", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := m.MeshCurve(tag); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh-curve: %w", err)
		}
		c, _ := m.Curve(tag)
		return &zygo.SexpInt{Val: int64(len(c.Segments()))}, nil
	})

	env.AddFunction("mesh_surface", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, tag, err := st.tagged("mesh-surface", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := m.MeshSurface(tag); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh-surface: %w", err)
		}
		s, _ := m.Surface(tag)
		return &zygo.SexpInt{Val: int64(len(s.Facets()))}, nil
	})

	env.AddFunction("mesh_volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, tag, err := st.tagged("mesh-volume", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := m.MeshVolume(tag); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh-volume: %w", err)
		}
		v, _ := m.Volume(tag)
		return &zygo.SexpInt{Val: int64(len(v.Cells()))}, nil
	})

	// (mesh-all) returns the node count.
	env.AddFunction("mesh_all", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := st.currentMesh("mesh-all")
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := m.MeshAll(context.Background()); err != nil {
			return zygo.SexpNull, fmt.Errorf("mesh-all: %w", err)
		}
		return &zygo.SexpInt{Val: int64(m.NumNodes())}, nil
	})

	// (vertex-count :surface 1)
	env.AddFunction("vertex_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, err := st.currentMesh("vertex-count")
		if err != nil {
			return zygo.SexpNull, err
		}
		a, err := splitArgs("vertex-count", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		dim, tag, err := a.entity()
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		var n int
		switch dim {
		case scheme.Curve:
			c, err := m.Curve(tag)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			n = len(c.AllVertices())
		case scheme.Surface:
			s, err := m.Surface(tag)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			n = len(s.AllVertices())
		default:
			v, err := m.Volume(tag)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			n = len(v.AllVertices())
		}
		return &zygo.SexpInt{Val: int64(n)}, nil
	})

	env.AddFunction("segment_count", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		m, tag, err := st.tagged("segment-count", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		c, err := m.Curve(tag)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("segment-count: %w", err)
		}
		return &zygo.SexpInt{Val: int64(len(c.Segments()))}, nil
	})

	// (export "name.kmsh") writes the built session mesh; (export "name.kmsh" m)
	// writes a mesh value.
	env.AddFunction("export", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs("export", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.positional(1, 2); err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		fname, err := toString(a.pos[0])
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		a.pos = a.pos[1:]
		um, err := st.meshArg(a)
		if err != nil {
			return zygo.SexpNull, err
		}
		if st.engine.store == nil {
			return zygo.SexpNull, a.errorf("no store configured")
		}
		err = meshio.ExportMesh(context.Background(), st.engine.store, fname, um,
			meshio.WithCompression(st.engine.compression),
			meshio.WithLogger(st.engine.logger))
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		st.session.Exports = append(st.session.Exports, fname)
		return &zygo.SexpStr{S: fname}, nil
	})
}

// tagged parses the single tag argument of a meshing builtin.
func (st *state) tagged(fn string, args []zygo.Sexp) (*mesh.Mesh, int, error) {
	m, err := st.currentMesh(fn)
	if err != nil {
		return nil, 0, err
	}
	if len(args) != 1 {
		return nil, 0, fmt.Errorf("%s: expected a tag", fn)
	}
	tag, err := toInt(args[0])
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", fn, err)
	}
	return m, tag, nil
}
