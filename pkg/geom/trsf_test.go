package geom

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/krado/pkg/errs"
)

const tol = 1e-12

func TestTrsfIdentityExact(t *testing.T) {
	pts := []Point{NewPoint(0, 0, 0), NewPoint(1.5, -2.25, 3), NewPoint(1e6, 1e-6, -7)}
	var zero Trsf
	for _, p := range pts {
		if got := Identity().Point(p); got != p {
			t.Errorf("Identity().Point(%v) = %v", p, got)
		}
		if got := zero.Point(p); got != p {
			t.Errorf("zero Trsf maps %v to %v", p, got)
		}
	}
}

func TestTrsfScaleTranslate(t *testing.T) {
	p := NewPoint(2, 3, 4)
	if got := ScaledXYZ(2, 3, 4).Point(p); got != NewPoint(4, 9, 16) {
		t.Errorf("ScaledXYZ: got %v", got)
	}
	if got := Scaled(0.5).Point(p); got != NewPoint(1, 1.5, 2) {
		t.Errorf("Scaled: got %v", got)
	}
	if got := Translated(3, 5, 9).Point(p); got != NewPoint(5, 8, 13) {
		t.Errorf("Translated: got %v", got)
	}
	if got := Translated(3, 5, 9).Vector(NewVector(1, 1, 1)); got != NewVector(1, 1, 1) {
		t.Errorf("translation moved a vector: %v", got)
	}
}

func TestTrsfRotations(t *testing.T) {
	tests := []struct {
		name string
		tr   Trsf
		in   Point
		want Point
	}{
		{"x", RotatedX(math.Pi / 2), NewPoint(0, 2, 0), NewPoint(0, 0, 2)},
		{"y", RotatedY(math.Pi / 2), NewPoint(2, 0, 0), NewPoint(0, 0, -2)},
		{"z", RotatedZ(math.Pi / 2), NewPoint(2, 0, 0), NewPoint(0, 2, 0)},
		{"x unit", RotatedX(math.Pi / 2), NewPoint(0, 0, 1), NewPoint(0, -1, 0)},
		{"z unit", RotatedZ(math.Pi / 2), NewPoint(0, 1, 0), NewPoint(-1, 0, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tr.Point(tt.in); !got.IsEqual(tt.want, tol) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTrsfRotatedAbout(t *testing.T) {
	ax, err := NewAxis1(NewPoint(1, 0, 0), NewVector(0, 0, 2))
	if err != nil {
		t.Fatal(err)
	}
	got := RotatedAbout(ax, math.Pi/2).Point(NewPoint(2, 0, 5))
	if want := NewPoint(1, 1, 5); !got.IsEqual(want, tol) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestTrsfComposition(t *testing.T) {
	transforms := []Trsf{
		Identity(),
		Scaled(2),
		ScaledXYZ(1, -3, 0.5),
		Translated(1, 2, 3),
		RotatedX(0.3),
		RotatedY(-1.1),
		RotatedZ(2.7),
		Translated(-4, 0, 1).Mul(RotatedZ(0.5)),
	}
	pts := []Point{NewPoint(0, 0, 0), NewPoint(1, 2, 3), NewPoint(-5, 0.25, 7)}
	for i, a := range transforms {
		for j, b := range transforms {
			for _, p := range pts {
				got := a.Mul(b).Point(p)
				want := a.Point(b.Point(p))
				if !got.IsEqual(want, 1e-12*math.Max(1, want.AsVector().Norm())) {
					t.Errorf("A[%d]*B[%d] on %v: got %v, want %v", i, j, p, got, want)
				}
			}
		}
	}
}

func TestTrsfFluentMatchesExplicit(t *testing.T) {
	p := NewPoint(2, 3, 4)

	tr := Identity()
	tr.Scale(2).Translate(3, 5, 9)
	got := tr.Point(p)
	want := Translated(3, 5, 9).Mul(Scaled(2)).Point(p)
	if got != want {
		t.Fatalf("fluent %v != explicit %v", got, want)
	}
	if got != NewPoint(7, 11, 17) {
		t.Errorf("got %v, want (7, 11, 17)", got)
	}

	var r Trsf
	r.RotateZ(math.Pi/2).Translate(1, 0, 0)
	if got := r.Point(NewPoint(1, 0, 0)); !got.IsEqual(NewPoint(1, 1, 0), tol) {
		t.Errorf("rotate then translate: got %v", got)
	}
}

func TestTrsfInverse(t *testing.T) {
	tr := Translated(1, 2, 3).Mul(RotatedY(0.7)).Mul(Scaled(2))
	inv, err := tr.Inverse()
	if err != nil {
		t.Fatal(err)
	}
	p := NewPoint(4, -1, 2)
	if got := inv.Point(tr.Point(p)); !got.IsEqual(p, 1e-12) {
		t.Errorf("round trip: got %v, want %v", got, p)
	}

	_, err = ScaledXYZ(1, 0, 1).Inverse()
	if !errors.Is(err, errs.ErrDegenerateGeometry) {
		t.Errorf("expected ErrDegenerateGeometry, got %v", err)
	}
}
