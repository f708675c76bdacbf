// Package scheme holds the registry of meshing schemes and their
// algorithms. A scheme is a named, parameterized discretization strategy for
// exactly one dimension (curve, surface or volume). Algorithms are pure: they
// read geometry and boundary nodes and return new points and cells without
// touching any mesh state.
package scheme

import (
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/chazu/krado/pkg/errs"
)

// Dim is the entity dimension a scheme applies to.
type Dim int

const (
	Curve Dim = iota + 1
	Surface
	Volume
)

func (d Dim) String() string {
	switch d {
	case Curve:
		return "curve"
	case Surface:
		return "surface"
	case Volume:
		return "volume"
	}
	return fmt.Sprintf("Dim(%d)", int(d))
}

// ParseDim maps "curve", "surface" and "volume" to a Dim.
func ParseDim(s string) (Dim, error) {
	for _, d := range []Dim{Curve, Surface, Volume} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, errs.Errorf(errs.ErrInvalidParameter, "scheme: unknown dimension %q", s)
}

// ParamKind is the value type of a scheme parameter.
type ParamKind int

const (
	IntParam ParamKind = iota
	FloatParam
	BoolParam
)

func (k ParamKind) String() string {
	switch k {
	case IntParam:
		return "int"
	case FloatParam:
		return "float"
	case BoolParam:
		return "bool"
	}
	return fmt.Sprintf("ParamKind(%d)", int(k))
}

// Param declares one scheme parameter.
type Param struct {
	Name     string
	Kind     ParamKind
	Required bool
	// Default is used when the parameter was never set. Nil means none.
	Default any
	// Check validates a normalized value (int, float64 or bool).
	Check func(v any) error
}

// Params maps parameter names to values.
type Params map[string]any

// Definition describes a scheme: its parameters and its algorithm. Exactly
// one of the algorithm fields matching Dim must be set.
type Definition struct {
	Name   string
	Dim    Dim
	Params []Param

	Curve   func(s *Scheme, c CurveGeometry) ([]float64, error)
	Surface func(s *Scheme, in *SurfaceInput) (*Output, error)
	Volume  func(s *Scheme, in *VolumeInput) (*Output, error)
}

func (d *Definition) param(name string) (Param, bool) {
	for _, p := range d.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func (d *Definition) validate() error {
	if d.Name == "" {
		return fmt.Errorf("scheme: definition has no name")
	}
	ok := false
	switch d.Dim {
	case Curve:
		ok = d.Curve != nil
	case Surface:
		ok = d.Surface != nil
	case Volume:
		ok = d.Volume != nil
	default:
		return fmt.Errorf("scheme: %q: invalid dimension %d", d.Name, d.Dim)
	}
	if !ok {
		return fmt.Errorf("scheme: %q: no %s algorithm", d.Name, d.Dim)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Registry
// ----------------------------------------------------------------------------

// Registry maps (dimension, name) to scheme definitions.
type Registry struct {
	mu   sync.RWMutex
	defs map[Dim]map[string]*Definition
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Dim]map[string]*Definition)}
}

// DefaultRegistry returns a new registry holding every built-in scheme.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, d := range builtins() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds def, replacing any scheme of the same name and dimension.
func (r *Registry) Register(def *Definition) error {
	if err := def.validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.defs[def.Dim] == nil {
		r.defs[def.Dim] = make(map[string]*Definition)
	}
	r.defs[def.Dim][def.Name] = def
	return nil
}

// New returns a fresh scheme handle with default parameters.
func (r *Registry) New(dim Dim, name string) (*Scheme, error) {
	r.mu.RLock()
	def, ok := r.defs[dim][name]
	r.mu.RUnlock()
	if !ok {
		return nil, errs.Errorf(errs.ErrUnknownScheme, "no %s scheme named %q", dim, name)
	}
	return &Scheme{def: def, values: make(Params)}, nil
}

// Names lists the schemes registered for dim in sorted order.
func (r *Registry) Names(dim Dim) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.defs[dim]))
	for n := range r.defs[dim] {
		out = append(out, n)
	}
	slices.Sort(out)
	return out
}

// ----------------------------------------------------------------------------
// Scheme handle
// ----------------------------------------------------------------------------

// Scheme is a scheme definition plus the parameter values set on it. A
// Scheme is not safe for concurrent mutation; the mesh that owns it
// serializes access.
type Scheme struct {
	def    *Definition
	values Params
}

// Name returns the scheme name.
func (s *Scheme) Name() string { return s.def.Name }

// Dim returns the dimension the scheme applies to.
func (s *Scheme) Dim() Dim { return s.def.Dim }

// Definition returns the scheme definition.
func (s *Scheme) Definition() *Definition { return s.def }

// Set assigns one parameter. Unknown names, wrong types and values rejected
// by the parameter check fail with errs.ErrInvalidParameter.
func (s *Scheme) Set(name string, value any) error {
	v, err := s.normalize(name, value)
	if err != nil {
		return err
	}
	s.values[name] = v
	return nil
}

// SetAll assigns several parameters at once. Either every value is applied
// or, on the first error, none is.
func (s *Scheme) SetAll(p Params) error {
	staged := make(Params, len(p))
	for name, value := range p {
		v, err := s.normalize(name, value)
		if err != nil {
			return err
		}
		staged[name] = v
	}
	for name, v := range staged {
		s.values[name] = v
	}
	return nil
}

// Get returns a copy of the parameters with defaults filled in.
func (s *Scheme) Get() Params {
	out := make(Params, len(s.def.Params))
	for _, p := range s.def.Params {
		if p.Default != nil {
			out[p.Name] = p.Default
		}
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Clone returns an independent copy of s.
func (s *Scheme) Clone() *Scheme {
	c := &Scheme{def: s.def, values: make(Params, len(s.values))}
	for k, v := range s.values {
		c.values[k] = v
	}
	return c
}

func (s *Scheme) lookup(name string, kind ParamKind) (any, error) {
	p, ok := s.def.param(name)
	if !ok || p.Kind != kind {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q has no %s parameter %q", s.def.Name, kind, name)
	}
	if v, ok := s.values[name]; ok {
		return v, nil
	}
	if p.Default != nil {
		return p.Default, nil
	}
	return nil, errs.Errorf(errs.ErrMissingParameter, "scheme %q needs parameter %q", s.def.Name, name)
}

// Int returns an int parameter, its default, or errs.ErrMissingParameter.
func (s *Scheme) Int(name string) (int, error) {
	v, err := s.lookup(name, IntParam)
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// Float returns a float parameter, its default, or errs.ErrMissingParameter.
func (s *Scheme) Float(name string) (float64, error) {
	v, err := s.lookup(name, FloatParam)
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Bool returns a bool parameter, its default, or errs.ErrMissingParameter.
func (s *Scheme) Bool(name string) (bool, error) {
	v, err := s.lookup(name, BoolParam)
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// IsSet reports whether a parameter was assigned explicitly.
func (s *Scheme) IsSet(name string) bool {
	_, ok := s.values[name]
	return ok
}

func (s *Scheme) normalize(name string, value any) (any, error) {
	p, ok := s.def.param(name)
	if !ok {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q has no parameter %q", s.def.Name, name)
	}
	v, ok := coerce(p.Kind, value)
	if !ok {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q parameter %q wants %s, got %T", s.def.Name, name, p.Kind, value)
	}
	if p.Check != nil {
		if err := p.Check(v); err != nil {
			return nil, errs.Errorf(errs.ErrInvalidParameter, "scheme %q parameter %q: %v", s.def.Name, name, err)
		}
	}
	return v, nil
}

// coerce converts value to the Go type used for kind. Integral floats are
// accepted for int parameters and integers for float parameters.
func coerce(kind ParamKind, value any) (any, bool) {
	switch kind {
	case IntParam:
		switch v := value.(type) {
		case int:
			return v, true
		case int32:
			return int(v), true
		case int64:
			return int(v), true
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return int(v), true
			}
		}
	case FloatParam:
		switch v := value.(type) {
		case float64:
			if !math.IsNaN(v) {
				return v, true
			}
		case float32:
			return float64(v), true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	case BoolParam:
		if v, ok := value.(bool); ok {
			return v, true
		}
	}
	return nil, false
}

// Algorithm entry points. Each checks the scheme dimension first.

// DiscretizeCurve returns increasing curve parameters, both ends included.
func (s *Scheme) DiscretizeCurve(c CurveGeometry) ([]float64, error) {
	if s.def.Dim != Curve {
		return nil, errs.Errorf(errs.ErrUnknownScheme, "%q is a %s scheme", s.def.Name, s.def.Dim)
	}
	return s.def.Curve(s, c)
}

// MeshSurface meshes the interior of a surface from its boundary nodes.
func (s *Scheme) MeshSurface(in *SurfaceInput) (*Output, error) {
	if s.def.Dim != Surface {
		return nil, errs.Errorf(errs.ErrUnknownScheme, "%q is a %s scheme", s.def.Name, s.def.Dim)
	}
	return s.def.Surface(s, in)
}

// MeshVolume fills a volume from its boundary facets.
func (s *Scheme) MeshVolume(in *VolumeInput) (*Output, error) {
	if s.def.Dim != Volume {
		return nil, errs.Errorf(errs.ErrUnknownScheme, "%q is a %s scheme", s.def.Name, s.def.Dim)
	}
	return s.def.Volume(s, in)
}

// ----------------------------------------------------------------------------
// Parameter checks
// ----------------------------------------------------------------------------

func positiveInt(v any) error {
	if v.(int) <= 0 {
		return fmt.Errorf("must be > 0, got %d", v.(int))
	}
	return nil
}

func positiveFloat(v any) error {
	if f := v.(float64); f <= 0 || math.IsInf(f, 0) {
		return fmt.Errorf("must be finite and > 0, got %g", f)
	}
	return nil
}

func bumpCoef(v any) error {
	if err := positiveFloat(v); err != nil {
		return err
	}
	if v.(float64) == 1 {
		return fmt.Errorf("must differ from 1")
	}
	return nil
}

func builtins() []*Definition {
	intervals := Param{Name: "intervals", Kind: IntParam, Required: true, Check: positiveInt}
	return []*Definition{
		{Name: "equal", Dim: Curve, Params: []Param{intervals}, Curve: equalCurve},
		{Name: "bias", Dim: Curve, Params: []Param{
			intervals,
			{Name: "coef", Kind: FloatParam, Default: 1.0, Check: positiveFloat},
		}, Curve: biasCurve},
		{Name: "bump", Dim: Curve, Params: []Param{
			intervals,
			{Name: "coef", Kind: FloatParam, Default: 0.5, Check: bumpCoef},
		}, Curve: bumpCurve},
		{Name: "size", Dim: Curve, Params: []Param{
			{Name: "size", Kind: FloatParam, Required: true, Check: positiveFloat},
		}, Curve: sizeCurve},
		{Name: "auto", Dim: Curve, Curve: autoCurve},

		{Name: "triangle", Dim: Surface, Params: []Param{
			{Name: "max_area", Kind: FloatParam, Check: positiveFloat},
		}, Surface: triangleSurface},
		{Name: "transfinite", Dim: Surface, Params: []Param{
			{Name: "triangulate", Kind: BoolParam, Default: false},
		}, Surface: transfiniteSurface},
		{Name: "auto", Dim: Surface, Params: []Param{
			{Name: "max_area", Kind: FloatParam, Check: positiveFloat},
		}, Surface: triangleSurface},

		{Name: "tetrahedralize", Dim: Volume, Volume: tetrahedralizeVolume},
		{Name: "auto", Dim: Volume, Volume: tetrahedralizeVolume},
	}
}
