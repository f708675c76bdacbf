package geom

import (
	"math"

	"github.com/chazu/krado/pkg/errs"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Trsf is an affine transform (linear part + translation) on points and
// vectors.
//
// Composition reads right to left: A.Mul(B) applied to p equals A applied to
// B applied to p. The fluent mutators (Scale, Translate, Rotate*) apply their
// operation after whatever the receiver already does, so
//
//	Identity().Scale(2).Translate(1, 0, 0)
//
// scales first and then translates, same as Translated(1,0,0).Mul(Scaled(2)).
//
// The zero value is the identity.
type Trsf struct {
	m   sdf.M44
	set bool
}

func fromM44(m sdf.M44) Trsf { return Trsf{m: m, set: true} }

func (t Trsf) matrix() sdf.M44 {
	if !t.set {
		return sdf.Identity3d()
	}
	return t.m
}

// M44 returns the sdfx matrix of t.
func (t Trsf) M44() sdf.M44 { return t.matrix() }

// Identity returns the identity transform.
func Identity() Trsf { return fromM44(sdf.Identity3d()) }

// Scaled returns an isotropic scale about the origin.
func Scaled(s float64) Trsf { return ScaledXYZ(s, s, s) }

// ScaledXYZ returns an anisotropic scale about the origin.
func ScaledXYZ(sx, sy, sz float64) Trsf {
	return fromM44(sdf.Scale3d(v3.Vec{X: sx, Y: sy, Z: sz}))
}

// Translated returns a translation by (x, y, z).
func Translated(x, y, z float64) Trsf {
	return fromM44(sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z}))
}

// TranslatedBy returns a translation by v.
func TranslatedBy(v Vector) Trsf { return Translated(v.X, v.Y, v.Z) }

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// RotatedX returns a right-handed rotation of a radians about the X axis.
func RotatedX(a float64) Trsf { return fromM44(sdf.RotateX(a)) }

// RotatedY returns a right-handed rotation of a radians about the Y axis.
func RotatedY(a float64) Trsf { return fromM44(sdf.RotateY(a)) }

// RotatedZ returns a right-handed rotation of a radians about the Z axis.
func RotatedZ(a float64) Trsf { return fromM44(sdf.RotateZ(a)) }

// RotatedAbout returns a right-handed rotation of a radians about ax, which
// need not pass through the origin.
func RotatedAbout(ax Axis1, a float64) Trsf {
	loc := ax.Location.AsVector()
	r := sdf.Rotate3d(ax.Direction.v3(), a)
	m := sdf.Translate3d(loc.v3()).Mul(r).Mul(sdf.Translate3d(loc.Neg().v3()))
	return fromM44(m)
}

// Mul returns the composition t*b: b is applied first.
func (t Trsf) Mul(b Trsf) Trsf {
	return fromM44(t.matrix().Mul(b.matrix()))
}

// Point maps p (translation applies).
func (t Trsf) Point(p Point) Point {
	return Point(t.matrix().MulPosition(p.v3()))
}

// Vector maps v through the linear part only.
func (t Trsf) Vector(v Vector) Vector {
	m := t.matrix()
	return Vector(m.MulPosition(v.v3()).Sub(m.MulPosition(v3.Vec{})))
}

// Determinant returns the determinant of the linear part.
func (t Trsf) Determinant() float64 {
	return t.matrix().Determinant()
}

// Inverse returns the inverse transform. Singular transforms (e.g. a zero
// scale) are reported as degenerate.
func (t Trsf) Inverse() (Trsf, error) {
	d := t.Determinant()
	if d == 0 || math.IsNaN(d) {
		return Trsf{}, errs.Errorf(errs.ErrDegenerateGeometry, "transform is singular")
	}
	return fromM44(t.matrix().Inverse()), nil
}

// IsEqual reports whether t and b map the origin and the unit points to
// positions within tol of each other.
func (t Trsf) IsEqual(b Trsf, tol float64) bool {
	samples := [...]Point{Origin, {X: 1}, {Y: 1}, {Z: 1}}
	for _, p := range samples {
		if !t.Point(p).IsEqual(b.Point(p), tol) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Fluent mutators
// ---------------------------------------------------------------------------

func (t *Trsf) then(op Trsf) *Trsf {
	*t = op.Mul(*t)
	return t
}

// Scale appends an isotropic scale.
func (t *Trsf) Scale(s float64) *Trsf { return t.then(Scaled(s)) }

// ScaleXYZ appends an anisotropic scale.
func (t *Trsf) ScaleXYZ(sx, sy, sz float64) *Trsf { return t.then(ScaledXYZ(sx, sy, sz)) }

// Translate appends a translation.
func (t *Trsf) Translate(x, y, z float64) *Trsf { return t.then(Translated(x, y, z)) }

// RotateX appends a rotation about X.
func (t *Trsf) RotateX(a float64) *Trsf { return t.then(RotatedX(a)) }

// RotateY appends a rotation about Y.
func (t *Trsf) RotateY(a float64) *Trsf { return t.then(RotatedY(a)) }

// RotateZ appends a rotation about Z.
func (t *Trsf) RotateZ(a float64) *Trsf { return t.then(RotatedZ(a)) }

// RotateAbout appends a rotation about ax.
func (t *Trsf) RotateAbout(ax Axis1, a float64) *Trsf { return t.then(RotatedAbout(ax, a)) }
