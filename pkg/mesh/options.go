package mesh

import (
	"runtime"

	"github.com/chazu/krado/pkg/geom"
	"github.com/chazu/krado/pkg/logging"
	"github.com/chazu/krado/pkg/scheme"
)

// Defaults holds mesh-wide settings. New starts from DefaultSettings and
// applies the options on top.
type Defaults struct {
	Tolerance   float64            // geometric tolerance for parameter checks
	Workers     int                // parallel curve evaluations in MeshCurves
	Logger      *logging.Logger    // never nil once resolved
	Registry    *scheme.Registry   // scheme lookup by name
	Tessellator scheme.Tessellator // nil means the volume scheme default
}

// DefaultSettings returns the settings used when no option overrides them.
func DefaultSettings() Defaults {
	return Defaults{
		Tolerance: geom.LinearTolerance,
		Workers:   runtime.GOMAXPROCS(0),
		Logger:    logging.NoopLogger(),
		Registry:  scheme.DefaultRegistry(),
	}
}

// Option configures a Mesh.
type Option func(*Defaults)

// WithLogger sets the logger for meshing events.
func WithLogger(l *logging.Logger) Option {
	return func(d *Defaults) {
		if l != nil {
			d.Logger = l
		}
	}
}

// WithRegistry sets the registry that SetScheme resolves names against.
func WithRegistry(r *scheme.Registry) Option {
	return func(d *Defaults) {
		if r != nil {
			d.Registry = r
		}
	}
}

// WithTessellator sets the tessellator handed to volume schemes.
func WithTessellator(t scheme.Tessellator) Option {
	return func(d *Defaults) { d.Tessellator = t }
}

// WithWorkers bounds concurrent curve evaluation. n < 1 means one.
func WithWorkers(n int) Option {
	return func(d *Defaults) {
		if n < 1 {
			n = 1
		}
		d.Workers = n
	}
}

// WithTolerance sets the geometric tolerance.
func WithTolerance(tol float64) Option {
	return func(d *Defaults) {
		if tol > 0 {
			d.Tolerance = tol
		}
	}
}
