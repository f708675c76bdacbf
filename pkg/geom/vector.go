package geom

import (
	"fmt"

	"github.com/chazu/krado/pkg/errs"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Vector is a direction/displacement in 3D space.
type Vector struct {
	X, Y, Z float64
}

// NewVector returns the vector (x, y, z).
func NewVector(x, y, z float64) Vector {
	return Vector{X: x, Y: y, Z: z}
}

func (a Vector) v3() v3.Vec { return v3.Vec(a) }

// Add returns a + b.
func (a Vector) Add(b Vector) Vector { return Vector(a.v3().Add(b.v3())) }

// Sub returns a - b.
func (a Vector) Sub(b Vector) Vector { return Vector(a.v3().Sub(b.v3())) }

// Scale returns k * a.
func (a Vector) Scale(k float64) Vector { return Vector(a.v3().MulScalar(k)) }

// Neg returns -a.
func (a Vector) Neg() Vector { return Vector(a.v3().Neg()) }

// Dot returns the scalar product.
func (a Vector) Dot(b Vector) float64 { return a.v3().Dot(b.v3()) }

// Cross returns the vector product a x b.
func (a Vector) Cross(b Vector) Vector { return Vector(a.v3().Cross(b.v3())) }

// Norm returns the Euclidean length.
func (a Vector) Norm() float64 { return a.v3().Length() }

// Normalized returns a unit vector with the direction of a.
func (a Vector) Normalized() (Vector, error) {
	if a.Norm() == 0 {
		return Vector{}, errs.Errorf(errs.ErrDegenerateGeometry, "cannot normalize zero vector")
	}
	return Vector(a.v3().Normalize()), nil
}

// IsEqual reports whether every component of a and b differs by at most tol.
func (a Vector) IsEqual(b Vector, tol float64) bool {
	return a.v3().Equals(b.v3(), tol)
}

// AddAssign sets a = a + b.
func (a *Vector) AddAssign(b Vector) { *a = a.Add(b) }

// SubAssign sets a = a - b.
func (a *Vector) SubAssign(b Vector) { *a = a.Sub(b) }

// ScaleAssign sets a = k * a.
func (a *Vector) ScaleAssign(k float64) { *a = a.Scale(k) }

// Normalize scales a to unit length in place. A zero vector is left
// untouched and reported as degenerate.
func (a *Vector) Normalize() error {
	n, err := a.Normalized()
	if err != nil {
		return err
	}
	*a = n
	return nil
}

func (a Vector) String() string {
	return fmt.Sprintf("(%g, %g, %g)", a.X, a.Y, a.Z)
}
