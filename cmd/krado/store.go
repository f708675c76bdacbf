package main

import (
	"context"
	"fmt"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/cobra"

	"github.com/chazu/krado/pkg/blob"
	miniostore "github.com/chazu/krado/pkg/blob/minio"
	s3store "github.com/chazu/krado/pkg/blob/s3"
)

// storeFlags selects where exported meshes are written.
type storeFlags struct {
	kind     string // local, s3 or minio
	root     string // local directory
	bucket   string
	prefix   string
	endpoint string
	access   string
	secret   string
	insecure bool
}

func (f *storeFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.kind, "store", "local", "export store: local, s3 or minio")
	fs.StringVar(&f.root, "root", ".", "directory for the local store")
	fs.StringVar(&f.bucket, "bucket", "", "bucket for the s3 and minio stores")
	fs.StringVar(&f.prefix, "prefix", "", "key prefix inside the bucket")
	fs.StringVar(&f.endpoint, "endpoint", "", "minio endpoint host:port")
	fs.StringVar(&f.access, "access-key", "", "minio access key (default $MINIO_ACCESS_KEY)")
	fs.StringVar(&f.secret, "secret-key", "", "minio secret key (default $MINIO_SECRET_KEY)")
	fs.BoolVar(&f.insecure, "insecure", false, "connect to minio without TLS")
}

func (f *storeFlags) open(ctx context.Context) (blob.Store, error) {
	switch f.kind {
	case "local":
		return blob.NewLocalStore(f.root), nil
	case "s3":
		if f.bucket == "" {
			return nil, fmt.Errorf("store s3: --bucket is required")
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("store s3: load aws config: %w", err)
		}
		return s3store.NewStore(s3.NewFromConfig(cfg), f.bucket, f.prefix), nil
	case "minio":
		if f.bucket == "" || f.endpoint == "" {
			return nil, fmt.Errorf("store minio: --bucket and --endpoint are required")
		}
		access, secret := f.access, f.secret
		if access == "" {
			access = os.Getenv("MINIO_ACCESS_KEY")
		}
		if secret == "" {
			secret = os.Getenv("MINIO_SECRET_KEY")
		}
		client, err := miniostore.Dial(f.endpoint, access, secret, !f.insecure)
		if err != nil {
			return nil, fmt.Errorf("store minio: %w", err)
		}
		return miniostore.NewStore(client, f.bucket, f.prefix), nil
	}
	return nil, fmt.Errorf("unknown store %q", f.kind)
}
