package geom

import (
	"math"

	"github.com/chazu/krado/pkg/errs"
)

// Axis1 is a located direction: a point and a unit vector.
type Axis1 struct {
	Location  Point
	Direction Vector
}

// DefaultAxis1 is the Z axis through the origin.
func DefaultAxis1() Axis1 {
	return Axis1{Location: Origin, Direction: Vector{Z: 1}}
}

// NewAxis1 returns an axis through loc along dir. dir is normalized.
func NewAxis1(loc Point, dir Vector) (Axis1, error) {
	n, err := dir.Normalized()
	if err != nil {
		return Axis1{}, err
	}
	return Axis1{Location: loc, Direction: n}, nil
}

// IsEqual reports whether both location and direction match within tol.
func (a Axis1) IsEqual(b Axis1, tol float64) bool {
	return a.Location.IsEqual(b.Location, tol) && a.Direction.IsEqual(b.Direction, tol)
}

// Axis2 is a right-handed coordinate frame: a location, a main direction
// (the frame normal) and an X direction perpendicular to it.
type Axis2 struct {
	Location   Point
	Direction  Vector
	XDirection Vector
	YDirection Vector
}

// DefaultAxis2 is the global XYZ frame.
func DefaultAxis2() Axis2 {
	return Axis2{
		Location:   Origin,
		Direction:  Vector{Z: 1},
		XDirection: Vector{X: 1},
		YDirection: Vector{Y: 1},
	}
}

// NewAxis2 builds a frame at loc with main direction n. The X direction is
// picked perpendicular to n.
func NewAxis2(loc Point, n Vector) (Axis2, error) {
	nn, err := n.Normalized()
	if err != nil {
		return Axis2{}, err
	}
	// Use the global axis least aligned with n as the X reference.
	ax, ay, az := math.Abs(nn.X), math.Abs(nn.Y), math.Abs(nn.Z)
	ref := Vector{Z: 1}
	switch {
	case ax <= ay && ax <= az:
		ref = Vector{X: 1}
	case ay <= az:
		ref = Vector{Y: 1}
	}
	return NewAxis2WithX(loc, nn, ref)
}

// NewAxis2WithX builds a frame at loc with main direction n and X direction
// vx projected perpendicular to n. n and vx must not be parallel.
func NewAxis2WithX(loc Point, n, vx Vector) (Axis2, error) {
	nn, err := n.Normalized()
	if err != nil {
		return Axis2{}, err
	}
	// Remove the component of vx along n.
	px := vx.Sub(nn.Scale(vx.Dot(nn)))
	if px.Norm() < 1e-12*math.Max(1, vx.Norm()) {
		return Axis2{}, errs.Errorf(errs.ErrDegenerateGeometry, "normal %v and x direction %v are parallel", n, vx)
	}
	xd, _ := px.Normalized()
	return Axis2{
		Location:   loc,
		Direction:  nn,
		XDirection: xd,
		YDirection: nn.Cross(xd),
	}, nil
}

// Axis returns the main axis of the frame.
func (a Axis2) Axis() Axis1 {
	return Axis1{Location: a.Location, Direction: a.Direction}
}

// Local maps frame coordinates (u, v, w) to a global point.
func (a Axis2) Local(u, v, w float64) Point {
	return a.Location.
		Add(a.XDirection.Scale(u)).
		Add(a.YDirection.Scale(v)).
		Add(a.Direction.Scale(w))
}

// Coordinates returns the frame coordinates (u, v, w) of a global point.
func (a Axis2) Coordinates(p Point) (u, v, w float64) {
	d := p.Sub(a.Location)
	return d.Dot(a.XDirection), d.Dot(a.YDirection), d.Dot(a.Direction)
}

// Transformed maps the frame through t. Directions are renormalized.
func (a Axis2) Transformed(t Trsf) (Axis2, error) {
	return NewAxis2WithX(t.Point(a.Location), t.Vector(a.Direction), t.Vector(a.XDirection))
}
