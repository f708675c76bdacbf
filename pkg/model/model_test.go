package model

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/kernel"
	"github.com/chazu/krado/pkg/kernel/analytic"
)

func boxModel(t *testing.T) *Model {
	t.Helper()
	b, err := analytic.Box(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 1))
	if err != nil {
		t.Fatal(err)
	}
	m, err := New(analytic.New(), b)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestTagCounts(t *testing.T) {
	box, _ := analytic.Box(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 1))
	disc, _ := analytic.CircleFace(geom.Origin, 1)
	r1, _ := analytic.Rectangle(geom.NewPoint(0, 0, 0), geom.NewPoint(1, 1, 0))
	r2, _ := analytic.Rectangle(geom.NewPoint(2, 0, 0), geom.NewPoint(3, 1, 0))

	tests := []struct {
		name   string
		shapes []kernel.Shape
		want   [4]int
	}{
		{"box", []kernel.Shape{box}, [4]int{8, 12, 6, 1}},
		{"box twice", []kernel.Shape{box, analytic.Compound(box)}, [4]int{8, 12, 6, 1}},
		{"circle", []kernel.Shape{disc}, [4]int{1, 1, 1, 0}},
		{"two rectangles", []kernel.Shape{r1, r2}, [4]int{8, 8, 2, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(analytic.New(), tt.shapes...)
			if err != nil {
				t.Fatal(err)
			}
			got := [4]int{len(m.Vertices()), len(m.Curves()), len(m.Surfaces()), len(m.Volumes())}
			if got != tt.want {
				t.Errorf("counts = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTagsAreContiguousAndDeterministic(t *testing.T) {
	a := boxModel(t)
	b := boxModel(t)
	for i, c := range a.Curves() {
		if c.Tag() != i+1 {
			t.Errorf("curve at %d has tag %d", i, c.Tag())
		}
		va, vb := c.Vertices()
		wa, wb := b.Curves()[i].Vertices()
		if !va.Point().IsEqual(wa.Point(), 0) || !vb.Point().IsEqual(wb.Point(), 0) {
			t.Errorf("curve %d differs between identical builds", c.Tag())
		}
	}
	// The first vertex met is the start of the first edge of the first face.
	v1, err := a.Vertex(1)
	if err != nil {
		t.Fatal(err)
	}
	c1, _ := a.Curve(1)
	first, _ := c1.Vertices()
	if first != v1 {
		t.Errorf("vertex 1 is %v, want the start of curve 1 %v", v1.Point(), first.Point())
	}
}

func TestAdjacency(t *testing.T) {
	m := boxModel(t)
	for _, v := range m.Vertices() {
		if n := len(m.CurvesOf(v)); n != 3 {
			t.Errorf("vertex %d bounds %d curves, want 3", v.Tag(), n)
		}
	}
	for _, c := range m.Curves() {
		if n := len(m.SurfacesOf(c)); n != 2 {
			t.Errorf("curve %d bounds %d surfaces, want 2", c.Tag(), n)
		}
	}
	for _, s := range m.Surfaces() {
		if n := len(m.VolumesOf(s)); n != 1 {
			t.Errorf("surface %d bounds %d volumes, want 1", s.Tag(), n)
		}
		if n := len(s.Curves()); n != 4 {
			t.Errorf("surface %d has %d curves, want 4", s.Tag(), n)
		}
	}
	vol, _ := m.Volume(1)
	if n := len(vol.Surfaces()); n != 6 {
		t.Errorf("volume has %d surfaces, want 6", n)
	}
}

func TestLoopsAreConnected(t *testing.T) {
	m := boxModel(t)
	for _, s := range m.Surfaces() {
		for _, l := range s.Loops() {
			for i, u := range l {
				next := l[(i+1)%len(l)]
				if u.End() != next.Start() {
					t.Errorf("surface %d: use %d ends at vertex %d, next starts at %d",
						s.Tag(), i, u.End().Tag(), next.Start().Tag())
				}
			}
		}
	}
}

func TestLookupNotFound(t *testing.T) {
	m := boxModel(t)
	tests := []struct {
		name string
		err  error
	}{
		{"vertex 0", second(m.Vertex(0))},
		{"vertex 9", second(m.Vertex(9))},
		{"curve 13", second(m.Curve(13))},
		{"surface 7", second(m.Surface(7))},
		{"volume 2", second(m.Volume(2))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, errs.ErrNotFound) {
				t.Errorf("got %v, want ErrNotFound", tt.err)
			}
		})
	}
}

func TestCurveGeometry(t *testing.T) {
	disc, _ := analytic.CircleFace(geom.Origin, 2)
	m, err := New(analytic.New(), disc)
	if err != nil {
		t.Fatal(err)
	}
	c, _ := m.Curve(1)
	if !c.IsClosed() {
		t.Error("circle should be closed")
	}
	if math.Abs(c.Length()-4*math.Pi) > 1e-12 {
		t.Errorf("length = %v", c.Length())
	}
	bb := m.BoundingBox()
	if math.Abs(bb.Size(0)-4) > 1e-9 || math.Abs(bb.Size(1)-4) > 1e-9 {
		t.Errorf("bounding box %v-%v misses the circle extent", bb.Min(), bb.Max())
	}

	s, _ := m.Surface(1)
	n, err := s.Normal(0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsEqual(geom.NewVector(0, 0, 1), 1e-15) {
		t.Errorf("normal = %v", n)
	}
}

func TestNilKernel(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, errs.ErrInvalidParameter) {
		t.Errorf("got %v, want ErrInvalidParameter", err)
	}
}

func second[T any](_ T, err error) error { return err }
