package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// BoundingBox is an axis-aligned box. The zero value is empty.
type BoundingBox struct {
	box   sdf.Box3
	valid bool
}

// Include grows b to contain p.
func (b BoundingBox) Include(p Point) BoundingBox {
	if !b.valid {
		return BoundingBox{box: sdf.Box3{Min: p.v3(), Max: p.v3()}, valid: true}
	}
	return BoundingBox{box: b.box.Include(p.v3()), valid: true}
}

// Union returns the smallest box containing b and o.
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	switch {
	case !b.valid:
		return o
	case !o.valid:
		return b
	}
	return BoundingBox{box: b.box.Extend(o.box), valid: true}
}

// Empty reports whether no point has been included.
func (b BoundingBox) Empty() bool { return !b.valid }

// Min returns the low corner.
func (b BoundingBox) Min() Point { return Point(b.box.Min) }

// Max returns the high corner.
func (b BoundingBox) Max() Point { return Point(b.box.Max) }

// Size returns the extent along axis (0=x, 1=y, 2=z).
func (b BoundingBox) Size(axis int) float64 {
	if !b.valid {
		return 0
	}
	return Point(b.box.Size()).Coord(axis)
}

// Center returns the box center.
func (b BoundingBox) Center() Point { return Point(b.box.Center()) }

// Diagonal returns the length of the box diagonal.
func (b BoundingBox) Diagonal() float64 {
	if !b.valid {
		return 0
	}
	return math.Sqrt(b.Size(0)*b.Size(0) + b.Size(1)*b.Size(1) + b.Size(2)*b.Size(2))
}

// Box3 returns the sdfx box.
func (b BoundingBox) Box3() sdf.Box3 { return b.box }
