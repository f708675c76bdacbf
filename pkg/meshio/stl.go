package meshio

import (
	"fmt"
	"slices"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// SurfaceTriangles returns the triangles an STL export writes: every 2D
// element, plus each 3D element face not shared with another 3D element.
// Boundary faces are turned to point away from their element.
func SurfaceTriangles(m *umesh.Mesh) [][3]geom.Point {
	pts := m.Points()
	elems := m.Elements()

	type face struct {
		ids   []int
		owner int
	}
	counts := make(map[string]int)
	var faces []face
	var out [][3]geom.Point

	for i, e := range elems {
		switch e.Type.Dim() {
		case 2:
			out = appendPolygon(out, pts, e.IDs)
		case 3:
			for _, side := range e.Type.Sides() {
				ids := make([]int, len(side))
				for k, s := range side {
					ids[k] = e.IDs[s]
				}
				k := faceKey(ids)
				counts[k]++
				faces = append(faces, face{ids: ids, owner: i})
			}
		}
	}

	for _, f := range faces {
		if counts[faceKey(f.ids)] != 1 {
			continue
		}
		owner := elems[f.owner]
		centre := centroid(pts, owner.IDs)
		fc := centroid(pts, f.ids)
		n := pts[f.ids[1]].Sub(pts[f.ids[0]]).Cross(pts[f.ids[2]].Sub(pts[f.ids[0]]))
		ids := f.ids
		if n.Dot(fc.Sub(centre)) < 0 {
			ids = slices.Clone(ids)
			slices.Reverse(ids)
		}
		out = appendPolygon(out, pts, ids)
	}
	return out
}

func faceKey(ids []int) string {
	s := slices.Sorted(slices.Values(ids))
	return fmt.Sprint(s)
}

func centroid(pts []geom.Point, ids []int) geom.Point {
	sel := make([]geom.Point, len(ids))
	for i, id := range ids {
		sel[i] = pts[id]
	}
	return geom.Centroid(sel)
}

// appendPolygon fans a triangle or quad into triangles.
func appendPolygon(out [][3]geom.Point, pts []geom.Point, ids []int) [][3]geom.Point {
	for k := 1; k+1 < len(ids); k++ {
		out = append(out, [3]geom.Point{pts[ids[0]], pts[ids[k]], pts[ids[k+1]]})
	}
	return out
}

// ExportSTL writes the surface triangles of m to a binary STL file.
func ExportSTL(path string, m *umesh.Mesh) error {
	tris := SurfaceTriangles(m)
	if len(tris) == 0 {
		return errs.Errorf(errs.ErrInvalidParameter, "meshio: %s: mesh has no surface elements", path)
	}
	mesh := make([]*sdf.Triangle3, len(tris))
	for i, t := range tris {
		mesh[i] = &sdf.Triangle3{t[0].Vec3(), t[1].Vec3(), t[2].Vec3()}
	}
	if err := render.SaveSTL(path, mesh); err != nil {
		return fmt.Errorf("meshio: stl %s: %w", path, err)
	}
	return nil
}
