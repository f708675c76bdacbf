package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/scheme"
)

// keywordMark starts the string literal rewriteSource makes of a keyword.
const keywordMark = ":"

// keyword returns the name of a rewritten :keyword.
func keyword(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || len(str.S) < 2 || !strings.HasPrefix(str.S, keywordMark) {
		return "", false
	}
	return str.S[len(keywordMark):], true
}

// ---------------------------------------------------------------------------
// Call arguments
// ---------------------------------------------------------------------------

// callArgs is the argument list of one builtin call, split into positional
// values, :name value options and at most one :curve, :surface or :volume
// entity reference.
type callArgs struct {
	fn    string
	pos   []zygo.Sexp
	opts  map[string]zygo.Sexp
	order []string
	used  map[string]bool

	dim        scheme.Dim
	tag        int
	hasEntity  bool
	usedEntity bool
}

// splitArgs sorts args into a callArgs. Every keyword takes the value that
// follows it; a keyword naming a dimension takes an entity tag.
func splitArgs(fn string, args []zygo.Sexp) (*callArgs, error) {
	a := &callArgs{fn: fn, opts: make(map[string]zygo.Sexp), used: make(map[string]bool)}
	for i := 0; i < len(args); i++ {
		name, ok := keyword(args[i])
		if !ok {
			a.pos = append(a.pos, args[i])
			continue
		}
		if i+1 == len(args) {
			return nil, a.errorf(":%s has no value", name)
		}
		i++
		if dim, err := scheme.ParseDim(name); err == nil {
			if a.hasEntity {
				return nil, a.errorf("more than one entity keyword")
			}
			tag, err := toInt(args[i])
			if err != nil {
				return nil, a.errorf(":%s: %w", name, err)
			}
			a.dim, a.tag, a.hasEntity = dim, tag, true
			continue
		}
		if _, dup := a.opts[name]; dup {
			return nil, a.errorf(":%s given twice", name)
		}
		a.opts[name] = args[i]
		a.order = append(a.order, name)
	}
	return a, nil
}

func (a *callArgs) errorf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", a.fn, fmt.Errorf(format, args...))
}

// entity returns the referenced entity.
func (a *callArgs) entity() (scheme.Dim, int, error) {
	if !a.hasEntity {
		return 0, 0, a.errorf("expected one of :curve, :surface or :volume")
	}
	a.usedEntity = true
	return a.dim, a.tag, nil
}

// positional checks the positional count lies in [lo, hi].
func (a *callArgs) positional(lo, hi int) error {
	if n := len(a.pos); n < lo || n > hi {
		if lo == hi {
			return a.errorf("expected %d arguments, got %d", lo, n)
		}
		return a.errorf("expected %d to %d arguments, got %d", lo, hi, n)
	}
	return nil
}

func (a *callArgs) option(name string) (zygo.Sexp, bool) {
	v, ok := a.opts[name]
	if ok {
		a.used[name] = true
	}
	return v, ok
}

func (a *callArgs) number(name string, def float64) (float64, error) {
	v, ok := a.option(name)
	if !ok {
		return def, nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return 0, a.errorf(":%s: %w", name, err)
	}
	return f, nil
}

func (a *callArgs) count(name string, def int) (int, error) {
	v, ok := a.option(name)
	if !ok {
		return def, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, a.errorf(":%s: %w", name, err)
	}
	return n, nil
}

func (a *callArgs) text(name, def string) (string, error) {
	v, ok := a.option(name)
	if !ok {
		return def, nil
	}
	s, err := toString(v)
	if err != nil {
		return "", a.errorf(":%s: %w", name, err)
	}
	return s, nil
}

func (a *callArgs) vector(name string, def geom.Vector) (geom.Vector, error) {
	v, ok := a.option(name)
	if !ok {
		return def, nil
	}
	p, err := toPoint(v)
	if err != nil {
		return geom.Vector{}, a.errorf(":%s: %w", name, err)
	}
	return geom.NewVector(p.X, p.Y, p.Z), nil
}

// params converts every option not yet read into a scheme parameter.
func (a *callArgs) params() (scheme.Params, error) {
	p := make(scheme.Params)
	for _, name := range a.order {
		if a.used[name] {
			continue
		}
		v, err := toParam(a.opts[name])
		if err != nil {
			return nil, a.errorf(":%s: %w", name, err)
		}
		p[name] = v
		a.used[name] = true
	}
	return p, nil
}

// done rejects options and entity references the builtin never read.
func (a *callArgs) done() error {
	if a.hasEntity && !a.usedEntity {
		return a.errorf("unexpected :%s", a.dim)
	}
	for _, name := range a.order {
		if !a.used[name] {
			return a.errorf("unknown option :%s", name)
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Value conversions
// ---------------------------------------------------------------------------

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer; integral floats are accepted.
func toInt(s zygo.Sexp) (int, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		if v.Val == float64(int(v.Val)) {
			return int(v.Val), nil
		}
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

func toFloats(args []zygo.Sexp, n int) ([]float64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("expected %d numbers, got %d arguments", n, len(args))
	}
	out := make([]float64, n)
	for i, a := range args {
		f, err := toFloat64(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = f
	}
	return out, nil
}

// listItems returns the elements of a list or array. The empty list gives
// nil.
func listItems(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list, got %T (%s)", s, s.SexpString(nil))
}

// toPoint accepts a (point x y z) value or a list of three numbers.
func toPoint(s zygo.Sexp) (geom.Point, error) {
	if p, ok := s.(*sexpPoint); ok {
		return p.p, nil
	}
	items, err := listItems(s)
	if err != nil {
		return geom.Point{}, fmt.Errorf("expected point, got %T (%s)", s, s.SexpString(nil))
	}
	f, err := toFloats(items, 3)
	if err != nil {
		return geom.Point{}, fmt.Errorf("point: %w", err)
	}
	return geom.NewPoint(f[0], f[1], f[2]), nil
}

// toPoints converts a list of points.
func toPoints(s zygo.Sexp) ([]geom.Point, error) {
	items, err := listItems(s)
	if err != nil {
		return nil, err
	}
	return pointsOf(items)
}

func pointsOf(items []zygo.Sexp) ([]geom.Point, error) {
	out := make([]geom.Point, len(items))
	for i, it := range items {
		p, err := toPoint(it)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i+1, err)
		}
		out[i] = p
	}
	return out, nil
}

// toParam converts a script value to a scheme parameter value.
func toParam(s zygo.Sexp) (any, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return int(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	case *zygo.SexpBool:
		return v.Val, nil
	}
	return nil, fmt.Errorf("unsupported parameter value %T (%s)", s, s.SexpString(nil))
}

func fromParam(v any) zygo.Sexp {
	switch x := v.(type) {
	case int:
		return &zygo.SexpInt{Val: int64(x)}
	case float64:
		return &zygo.SexpFloat{Val: x}
	case bool:
		return &zygo.SexpBool{Val: x}
	}
	return zygo.SexpNull
}
