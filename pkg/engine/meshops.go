package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/ops"
	"github.com/chazu/krado/pkg/pattern"
	"github.com/chazu/krado/pkg/umesh"
)

// sexpMesh wraps a built unstructured mesh. Mesh values are immutable from
// the script side; every operation returns a new one.
type sexpMesh struct {
	m *umesh.Mesh
}

func (m *sexpMesh) SexpString(ps *zygo.PrintState) string {
	ids := m.m.BlockIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("(mesh :points %d :elements %d :blocks (%s))",
		m.m.NumPoints(), m.m.NumElements(), strings.Join(parts, " "))
}
func (m *sexpMesh) Type() *zygo.RegisteredType { return nil }

func toMesh(s zygo.Sexp) (*umesh.Mesh, error) {
	if m, ok := s.(*sexpMesh); ok {
		return m.m, nil
	}
	return nil, fmt.Errorf("expected mesh, got %T (%s)", s, s.SexpString(nil))
}

// meshArg returns the mesh passed as the first positional argument, or the
// built session mesh when there is none.
func (st *state) meshArg(a *callArgs) (*umesh.Mesh, error) {
	if len(a.pos) > 0 {
		m, err := toMesh(a.pos[0])
		if err != nil {
			return nil, a.errorf("%w", err)
		}
		return m, nil
	}
	m, err := st.currentMesh(a.fn)
	if err != nil {
		return nil, err
	}
	um, err := m.Build()
	if err != nil {
		return nil, a.errorf("%w", err)
	}
	return um, nil
}

// meshCall splits args and checks the leading mesh argument of a mesh
// operation.
func meshCall(fn string, args []zygo.Sexp, lo, hi int) (*callArgs, *umesh.Mesh, error) {
	a, err := splitArgs(fn, args)
	if err != nil {
		return nil, nil, err
	}
	if err := a.positional(lo, hi); err != nil {
		return nil, nil, err
	}
	m, err := toMesh(a.pos[0])
	if err != nil {
		return nil, nil, a.errorf("%w", err)
	}
	return a, m, nil
}

func floatList(vals []float64) zygo.Sexp {
	items := make([]zygo.Sexp, len(vals))
	for i, v := range vals {
		items[i] = &zygo.SexpFloat{Val: v}
	}
	return zygo.MakeList(items)
}

func registerMeshOps(env *zygo.Zlisp, st *state) {
	// (build) assembles the session mesh into a mesh value.
	env.AddFunction("build", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("build: takes no arguments")
		}
		m, err := st.currentMesh("build")
		if err != nil {
			return zygo.SexpNull, err
		}
		um, err := m.Build()
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("build: %w", err)
		}
		return &sexpMesh{m: um}, nil
	})

	// (extrude m :direction (list 0 0 1) :layers 4 :thickness 2) sweeps in
	// equal layers; :thicknesses (list 0.5 1.5) gives them one by one.
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, m, err := meshCall("extrude", args, 1, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		dir, err := a.vector("direction", geom.NewVector(0, 0, 1))
		if err != nil {
			return zygo.SexpNull, err
		}
		var out *umesh.Mesh
		if v, ok := a.option("thicknesses"); ok {
			items, err := listItems(v)
			if err != nil {
				return zygo.SexpNull, a.errorf(":thicknesses: %w", err)
			}
			ts, err := toFloats(items, len(items))
			if err != nil {
				return zygo.SexpNull, a.errorf(":thicknesses: %w", err)
			}
			if err := a.done(); err != nil {
				return zygo.SexpNull, err
			}
			out, err = ops.Extrude(m, dir, ts)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			return &sexpMesh{m: out}, nil
		}
		layers, err := a.count("layers", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		thickness, err := a.number("thickness", 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		out, err = ops.ExtrudeLayers(m, dir, layers, thickness)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		return &sexpMesh{m: out}, nil
	})

	// (extrude-along m (list p0 p1 p2)) puts one layer between each pair of
	// path points.
	env.AddFunction("extrude_along", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, m, err := meshCall("extrude-along", args, 2, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		path, err := toPoints(a.pos[1])
		if err != nil {
			return zygo.SexpNull, a.errorf("path: %w", err)
		}
		out, err := ops.ExtrudeAlong(m, path)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		return &sexpMesh{m: out}, nil
	})

	env.AddFunction("tetrahedralize", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, m, err := meshCall("tetrahedralize", args, 1, 1)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		out, err := ops.Tetrahedralize(m)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		return &sexpMesh{m: out}, nil
	})

	// (remap-blocks m 1 10 2 20) renumbers block 1 to 10 and 2 to 20 on a
	// copy of m.
	env.AddFunction("remap_blocks", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, m, err := meshCall("remap-blocks", args, 1, max(1, len(args)))
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		pairs := a.pos[1:]
		if len(pairs)%2 != 0 {
			return zygo.SexpNull, a.errorf("expected from/to pairs, got %d values", len(pairs))
		}
		mapping := make(map[int]int, len(pairs)/2)
		for i := 0; i < len(pairs); i += 2 {
			from, err := toInt(pairs[i])
			if err != nil {
				return zygo.SexpNull, a.errorf("pair %d: %w", i/2+1, err)
			}
			to, err := toInt(pairs[i+1])
			if err != nil {
				return zygo.SexpNull, a.errorf("pair %d: %w", i/2+1, err)
			}
			mapping[from] = to
		}
		out := m.Duplicate()
		out.RemapBlockIDs(mapping)
		return &sexpMesh{m: out}, nil
	})

	// (compute-volume [m]) lists the measure of every block in block order.
	env.AddFunction("compute_volume", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs("compute-volume", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.positional(0, 1); err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		um, err := st.meshArg(a)
		if err != nil {
			return zygo.SexpNull, err
		}
		vols, err := ops.ComputeVolume(um)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		return floatList(vols), nil
	})

	// (quality [m] :measure "eta") returns (min mean max) over the elements.
	env.AddFunction("quality", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs("quality", args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.positional(0, 1); err != nil {
			return zygo.SexpNull, err
		}
		measure, err := a.text("measure", ops.Gamma.String())
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}
		q, err := ops.ParseQualityMeasure(measure)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		um, err := st.meshArg(a)
		if err != nil {
			return zygo.SexpNull, err
		}
		vals, err := ops.QualityOf(um, q)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		qs := ops.SummarizeQuality(vals)
		return floatList([]float64{qs.Min, qs.Mean, qs.Max}), nil
	})

	// Patterns copy a shape into a list of shapes or a mesh into one merged
	// mesh. :origin and :normal place the pattern frame.

	// (linear-pattern x :count 3 :spacing 2 [:rows 2 :row-spacing 1])
	registerPattern(env, "linear-pattern", func(a *callArgs, frame geom.Axis2) (pattern.Pattern, error) {
		n, err := a.count("count", 1)
		if err != nil {
			return nil, err
		}
		d, err := a.number("spacing", 0)
		if err != nil {
			return nil, err
		}
		rows, err := a.count("rows", 1)
		if err != nil {
			return nil, err
		}
		dy, err := a.number("row_spacing", 0)
		if err != nil {
			return nil, err
		}
		return pattern.NewLinearGrid(frame, n, rows, d, dy)
	})

	// (circular-pattern x :count 6 [:radius 1 :start 30])
	registerPattern(env, "circular-pattern", func(a *callArgs, frame geom.Axis2) (pattern.Pattern, error) {
		n, err := a.count("count", 1)
		if err != nil {
			return nil, err
		}
		r, err := a.number("radius", 0)
		if err != nil {
			return nil, err
		}
		start, err := a.number("start", 0)
		if err != nil {
			return nil, err
		}
		return pattern.NewCircular(frame, r, n, geom.Radians(start))
	})

	// (hex-pattern x :flat-to-flat 2 [:segments 1 :offset 0.5])
	registerPattern(env, "hex-pattern", func(a *callArgs, frame geom.Axis2) (pattern.Pattern, error) {
		f, err := a.number("flat_to_flat", 0)
		if err != nil {
			return nil, err
		}
		segs, err := a.count("segments", 1)
		if err != nil {
			return nil, err
		}
		off, err := a.number("offset", 0)
		if err != nil {
			return nil, err
		}
		return pattern.NewHexagonal(frame, f, segs, off)
	})
}

// patternTolerance is the default merge distance for patterned meshes.
const patternTolerance = 1e-9

// frameOf reads :origin and :normal. Without either the pattern uses the
// global XYZ frame.
func frameOf(a *callArgs) (geom.Axis2, error) {
	_, hasOrigin := a.opts["origin"]
	_, hasNormal := a.opts["normal"]
	if !hasOrigin && !hasNormal {
		return geom.DefaultAxis2(), nil
	}
	origin, err := a.vector("origin", geom.Vector{})
	if err != nil {
		return geom.Axis2{}, err
	}
	normal, err := a.vector("normal", geom.NewVector(0, 0, 1))
	if err != nil {
		return geom.Axis2{}, err
	}
	frame, err := geom.NewAxis2(geom.NewPoint(origin.X, origin.Y, origin.Z), normal)
	if err != nil {
		return geom.Axis2{}, a.errorf(":normal: %w", err)
	}
	return frame, nil
}

func registerPattern(env *zygo.Zlisp, fn string, build func(*callArgs, geom.Axis2) (pattern.Pattern, error)) {
	env.AddFunction(strings.ReplaceAll(fn, "-", "_"), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		a, err := splitArgs(fn, args)
		if err != nil {
			return zygo.SexpNull, err
		}
		if err := a.positional(1, 1); err != nil {
			return zygo.SexpNull, err
		}
		frame, err := frameOf(a)
		if err != nil {
			return zygo.SexpNull, err
		}
		tol, err := a.number("tol", patternTolerance)
		if err != nil {
			return zygo.SexpNull, err
		}
		p, err := build(a, frame)
		if err != nil {
			return zygo.SexpNull, a.errorf("%w", err)
		}
		if err := a.done(); err != nil {
			return zygo.SexpNull, err
		}

		switch x := a.pos[0].(type) {
		case *sexpShape:
			shapes, err := pattern.ApplyShape(x.s, p)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			items := make([]zygo.Sexp, len(shapes))
			for i, s := range shapes {
				items[i] = &sexpShape{s: s}
			}
			return zygo.MakeList(items), nil
		case *sexpMesh:
			out, err := pattern.ApplyMesh(x.m, p, tol)
			if err != nil {
				return zygo.SexpNull, a.errorf("%w", err)
			}
			return &sexpMesh{m: out}, nil
		}
		return zygo.SexpNull, a.errorf("expected shape or mesh, got %T (%s)", a.pos[0], a.pos[0].SexpString(nil))
	})
}
