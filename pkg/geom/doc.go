// Package geom provides the 3D value types used across krado: vectors,
// points, affine transforms, coordinate axes and bounding boxes.
//
// Arithmetic is delegated to github.com/deadsy/sdfx (vec/v3 for vectors,
// sdf.M44 for transforms, sdf.Box3 for boxes) so that mesh data can be
// handed to sdfx renderers without conversion.
package geom

const (
	// LinearTolerance is the default distance below which two points are
	// considered coincident.
	LinearTolerance = 1e-9

	// AngularTolerance is the default angle, in radians, below which two
	// directions are considered parallel.
	AngularTolerance = 1e-12
)
