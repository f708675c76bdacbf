package geom

import (
	"fmt"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// Point is a position in 3D space.
type Point struct {
	X, Y, Z float64
}

// NewPoint returns the point (x, y, z).
func NewPoint(x, y, z float64) Point {
	return Point{X: x, Y: y, Z: z}
}

// Origin is (0, 0, 0).
var Origin = Point{}

func (p Point) v3() v3.Vec { return v3.Vec(p) }

// Vec3 returns p in sdfx form.
func (p Point) Vec3() v3.Vec { return p.v3() }

// PointFromVec3 converts an sdfx vector to a Point.
func PointFromVec3(v v3.Vec) Point { return Point(v) }

// Add returns p displaced by v.
func (p Point) Add(v Vector) Point { return Point(p.v3().Add(v.v3())) }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Vector { return Vector(p.v3().Sub(q.v3())) }

// Distance returns |p - q|.
func (p Point) Distance(q Point) float64 { return p.Sub(q).Norm() }

// Scaled returns p with every coordinate multiplied by k.
func (p Point) Scaled(k float64) Point { return Point(p.v3().MulScalar(k)) }

// Translated returns p moved by (x, y, z).
func (p Point) Translated(x, y, z float64) Point {
	return Point{X: p.X + x, Y: p.Y + y, Z: p.Z + z}
}

// AsVector returns the position vector of p.
func (p Point) AsVector() Vector { return Vector(p) }

// IsEqual reports whether every coordinate of p and q differs by at most tol.
func (p Point) IsEqual(q Point, tol float64) bool {
	return p.v3().Equals(q.v3(), tol)
}

// Coord returns coordinate i (0=x, 1=y, 2=z).
func (p Point) Coord(i int) float64 {
	switch i {
	case 0:
		return p.X
	case 1:
		return p.Y
	case 2:
		return p.Z
	}
	panic(fmt.Sprintf("geom: coordinate index %d out of range", i))
}

// Centroid returns the arithmetic mean of pts. It returns the origin for an
// empty slice.
func Centroid(pts []Point) Point {
	if len(pts) == 0 {
		return Origin
	}
	var sum v3.Vec
	for _, p := range pts {
		sum = sum.Add(p.v3())
	}
	return Point(sum.DivScalar(float64(len(pts))))
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z)
}
