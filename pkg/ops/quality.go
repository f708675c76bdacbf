package ops

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/chazu/krado/pkg/errs"
	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/umesh"
)

// QualityMeasure selects a shape quality metric. Both are 1 for the ideal
// element (equilateral triangle, square, regular tetrahedron) and fall to 0
// as the element degenerates.
type QualityMeasure int

const (
	// Gamma is the normalised inradius over circumradius ratio. Quads use
	// the Eta angle measure.
	Gamma QualityMeasure = iota
	// Eta is angle based for triangles and quads and edge-length based for
	// tetrahedra. Non-convex quads come out negative.
	Eta
)

func (q QualityMeasure) String() string {
	if q == Eta {
		return "eta"
	}
	return "gamma"
}

// ParseQualityMeasure maps "gamma" or "eta" to a QualityMeasure.
func ParseQualityMeasure(s string) (QualityMeasure, error) {
	switch s {
	case "gamma":
		return Gamma, nil
	case "eta":
		return Eta, nil
	}
	return 0, errs.Errorf(errs.ErrInvalidParameter, "ops: unknown quality measure %q", s)
}

// Quality returns the Gamma quality of every element of m, in element order.
// Only TRI3, QUAD4 and TETRA4 are rated; any other type is
// ErrInvalidParameter.
func Quality(m *umesh.Mesh) ([]float64, error) {
	return QualityOf(m, Gamma)
}

// QualityOf is Quality with a chosen measure.
func QualityOf(m *umesh.Mesh, q QualityMeasure) ([]float64, error) {
	out := make([]float64, m.NumElements())
	for i, e := range m.Elements() {
		v, err := ElementQuality(m, e, q)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ElementQuality rates a single element.
func ElementQuality(m *umesh.Mesh, e umesh.Element, q QualityMeasure) (float64, error) {
	p := func(i int) geom.Point { return m.Point(e.IDs[i]) }
	switch e.Type {
	case umesh.Tri3:
		if q == Eta {
			return triEta(p(0), p(1), p(2)), nil
		}
		return triGamma(p(0), p(1), p(2)), nil
	case umesh.Quad4:
		return quadEta(p(0), p(1), p(2), p(3)), nil
	case umesh.Tetra4:
		if q == Eta {
			return tetEta(p(0), p(1), p(2), p(3)), nil
		}
		return tetGamma(p(0), p(1), p(2), p(3)), nil
	}
	return 0, errs.Errorf(errs.ErrInvalidParameter, "ops: no %s quality for %s elements", q, e.Type)
}

// QualityStats summarises per-element quality values.
type QualityStats struct {
	Count          int
	Min, Mean, Max float64
}

// SummarizeQuality reduces values to their count, extremes and mean. An
// empty slice gives the zero QualityStats.
func SummarizeQuality(values []float64) QualityStats {
	if len(values) == 0 {
		return QualityStats{}
	}
	return QualityStats{
		Count: len(values),
		Min:   floats.Min(values),
		Mean:  stat.Mean(values, nil),
		Max:   floats.Max(values),
	}
}

// angleAt is the angle in degrees at b between ba and bc.
func angleAt(a, b, c geom.Point) float64 {
	u, v := a.Sub(b), c.Sub(b)
	return math.Atan2(u.Cross(v).Norm(), u.Dot(v)) * 180 / math.Pi
}

func triEta(a, b, c geom.Point) float64 {
	amin := min(angleAt(a, b, c), angleAt(b, c, a), angleAt(c, a, b))
	return 1 - math.Abs(60-amin)/60
}

func triGamma(a, b, c geom.Point) float64 {
	ea, eb, ec := c.Sub(b), a.Sub(c), b.Sub(a)
	if ea.Norm() == 0 || eb.Norm() == 0 || ec.Norm() == 0 {
		return 0
	}
	ea, eb, ec = ea.Scale(1/ea.Norm()), eb.Scale(1/eb.Norm()), ec.Scale(1/ec.Norm())
	sa := eb.Cross(ec).Norm()
	sb := ec.Cross(ea).Norm()
	sc := ea.Cross(eb).Norm()
	if sa+sb+sc == 0 {
		return 0
	}
	return 4 * sa * sb * sc / (sa + sb + sc)
}

func quadEta(p0, p1, p2, p3 geom.Point) float64 {
	v01, v12, v23, v30 := p1.Sub(p0), p2.Sub(p1), p3.Sub(p2), p0.Sub(p3)
	a := v01.Cross(v12)
	sign := 1.0
	if a.Dot(v12.Cross(v23)) < 0 || a.Dot(v23.Cross(v30)) < 0 || a.Dot(v30.Cross(v01)) < 0 {
		sign = -1
	}
	dev := 0.0
	for _, ang := range []float64{
		angleAt(p0, p1, p2), angleAt(p1, p2, p3), angleAt(p2, p3, p0), angleAt(p3, p0, p1),
	} {
		dev = max(dev, math.Abs(90-ang))
	}
	return sign * (1 - dev/90)
}

func sumSquaredEdges(p [4]geom.Point) float64 {
	var l float64
	for i := 0; i < 4; i++ {
		for j := i + 1; j < 4; j++ {
			d := p[j].Sub(p[i]).Norm()
			l += d * d
		}
	}
	return l
}

func tetEta(a, b, c, d geom.Point) float64 {
	l := sumSquaredEdges([4]geom.Point{a, b, c, d})
	if l == 0 {
		return 0
	}
	v := math.Abs(tetVolume(a, b, c, d))
	return 12 * math.Pow(3*v, 2.0/3) / l
}

// tetGamma is 3 * inradius / circumradius.
func tetGamma(a, b, c, d geom.Point) float64 {
	v := math.Abs(tetVolume(a, b, c, d))
	if v == 0 {
		return 0
	}
	sq := func(p, q geom.Point) float64 { n := q.Sub(p).Norm(); return n * n }
	// Products of opposite edge lengths.
	pa := math.Sqrt(sq(a, b) * sq(c, d))
	pb := math.Sqrt(sq(a, c) * sq(b, d))
	pc := math.Sqrt(sq(a, d) * sq(b, c))
	k := (pa + pb + pc) * (pa + pb - pc) * (pa - pb + pc) * (-pa + pb + pc)
	if k <= 0 {
		return 0
	}
	r := math.Sqrt(k) / 24 / v
	area := triArea(a, b, c) + triArea(a, c, d) + triArea(a, b, d) + triArea(b, c, d)
	rho := 9 * v / area
	return rho / r
}
