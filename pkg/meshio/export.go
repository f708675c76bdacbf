package meshio

import (
	"context"

	"github.com/chazu/krado/pkg/blob"
	"github.com/chazu/krado/pkg/logging"
	"github.com/chazu/krado/pkg/umesh"
)

type exportConfig struct {
	compression Compression
	logger      *logging.Logger
}

// ExportOption configures ExportMesh.
type ExportOption func(*exportConfig)

// WithCompression selects the payload codec. The default is zstd.
func WithCompression(c Compression) ExportOption {
	return func(cfg *exportConfig) { cfg.compression = c }
}

// WithLogger sets the logger that reports exports.
func WithLogger(l *logging.Logger) ExportOption {
	return func(cfg *exportConfig) {
		if l != nil {
			cfg.logger = l
		}
	}
}

// ExportMesh encodes m and stores it under name.
func ExportMesh(ctx context.Context, store blob.Store, name string, m *umesh.Mesh, opts ...ExportOption) error {
	cfg := exportConfig{compression: CompressionZstd, logger: logging.NoopLogger()}
	for _, o := range opts {
		o(&cfg)
	}
	data, err := Marshal(m, cfg.compression)
	if err == nil {
		err = store.Put(ctx, name, data)
	}
	cfg.logger.LogExport(ctx, name, len(data), err)
	return err
}

// ImportMesh loads and decodes the mesh stored under name.
func ImportMesh(ctx context.Context, store blob.Store, name string) (*umesh.Mesh, error) {
	data, err := store.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return Unmarshal(data)
}
