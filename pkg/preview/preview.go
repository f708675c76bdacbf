// Package preview draws wireframe pictures of flat meshes.
package preview

import (
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/gogpu/gg"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// View is the projection used for the picture.
type View int

const (
	XY View = iota
	XZ
	YZ
	Iso
)

var viewNames = [...]string{"xy", "xz", "yz", "iso"}

func (v View) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return fmt.Sprintf("View(%d)", int(v))
	}
	return viewNames[v]
}

// ParseView maps "xy", "xz", "yz" or "iso" to a View.
func ParseView(s string) (View, error) {
	if i := slices.Index(viewNames[:], s); i >= 0 {
		return View(i), nil
	}
	return 0, errs.Errorf(errs.ErrInvalidParameter, "preview: unknown view %q", s)
}

// Options control the picture.
type Options struct {
	Width, Height int
	// Margin is kept free on every side, in pixels.
	Margin    float64
	View      View
	LineWidth float64
	// NodeRadius draws a dot on every point when positive.
	NodeRadius float64
}

// DefaultOptions returns an 800x600 isometric view.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Margin: 20, View: Iso, LineWidth: 1}
}

var (
	cos30 = math.Cos(math.Pi / 6)
	sin30 = 0.5
)

// project maps p to picture coordinates with y up.
func project(p geom.Point, v View) (float64, float64) {
	switch v {
	case XZ:
		return p.X, p.Z
	case YZ:
		return p.Y, p.Z
	case Iso:
		return (p.X - p.Y) * cos30, p.Z - (p.X+p.Y)*sin30
	default:
		return p.X, p.Y
	}
}

// edges returns the unique point pairs joined by element edges.
func edges(m *umesh.Mesh) [][2]int {
	seen := make(map[[2]int]bool)
	var out [][2]int
	for _, e := range m.Elements() {
		for _, ed := range e.Type.Edges() {
			a, b := e.IDs[ed[0]], e.IDs[ed[1]]
			if a > b {
				a, b = b, a
			}
			k := [2]int{a, b}
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}

type frame struct {
	minU, minV float64
	scale      float64
	offU, offV float64
	height     float64
}

func (f frame) screen(u, v float64) (float64, float64) {
	return f.offU + (u-f.minU)*f.scale, f.height - (f.offV + (v-f.minV)*f.scale)
}

func fit(uv [][2]float64, opts Options) frame {
	minU, minV := math.Inf(1), math.Inf(1)
	maxU, maxV := math.Inf(-1), math.Inf(-1)
	for _, p := range uv {
		minU, maxU = math.Min(minU, p[0]), math.Max(maxU, p[0])
		minV, maxV = math.Min(minV, p[1]), math.Max(maxV, p[1])
	}
	su, sv := maxU-minU, maxV-minV
	pad := math.Max(su, sv)
	if pad <= geom.LinearTolerance {
		pad = 1
	}
	if su <= geom.LinearTolerance {
		minU -= pad / 2
		su = pad
	}
	if sv <= geom.LinearTolerance {
		minV -= pad / 2
		sv = pad
	}
	w := float64(opts.Width) - 2*opts.Margin
	h := float64(opts.Height) - 2*opts.Margin
	scale := math.Min(w/su, h/sv)
	return frame{
		minU: minU, minV: minV,
		scale:  scale,
		offU:   opts.Margin + (w-su*scale)/2,
		offV:   opts.Margin + (h-sv*scale)/2,
		height: float64(opts.Height),
	}
}

// Draw renders m into a new context.
func Draw(m *umesh.Mesh, opts Options) (*gg.Context, error) {
	if m.NumPoints() == 0 {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "preview: mesh has no points")
	}
	if opts.Width <= 0 || opts.Height <= 0 || 2*opts.Margin >= float64(min(opts.Width, opts.Height)) {
		return nil, errs.Errorf(errs.ErrInvalidParameter, "preview: bad size %dx%d with margin %g", opts.Width, opts.Height, opts.Margin)
	}
	if opts.LineWidth <= 0 {
		opts.LineWidth = 1
	}

	pts := m.Points()
	uv := make([][2]float64, len(pts))
	for i, p := range pts {
		uv[i][0], uv[i][1] = project(p, opts.View)
	}
	f := fit(uv, opts)

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.ClearWithColor(gg.White)
	dc.SetRGB(0.1, 0.1, 0.2)
	dc.SetLineWidth(opts.LineWidth)
	for _, e := range edges(m) {
		x1, y1 := f.screen(uv[e[0]][0], uv[e[0]][1])
		x2, y2 := f.screen(uv[e[1]][0], uv[e[1]][1])
		dc.DrawLine(x1, y1, x2, y2)
	}
	if err := dc.Stroke(); err != nil {
		return nil, fmt.Errorf("preview: stroke: %w", err)
	}

	if opts.NodeRadius > 0 {
		dc.SetRGB(0.8, 0.1, 0.1)
		for _, p := range uv {
			x, y := f.screen(p[0], p[1])
			dc.DrawPoint(x, y, opts.NodeRadius)
		}
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("preview: fill: %w", err)
		}
	}
	return dc, nil
}

// Render writes a PNG picture of m to path.
func Render(m *umesh.Mesh, path string, opts Options) error {
	dc, err := Draw(m, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("preview: %s: %w", path, err)
	}
	return nil
}

// Encode writes a PNG picture of m to w.
func Encode(w io.Writer, m *umesh.Mesh, opts Options) error {
	dc, err := Draw(m, opts)
	if err != nil {
		return err
	}
	defer dc.Close()
	return dc.EncodePNG(w)
}
