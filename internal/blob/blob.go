// Package blob opens the artifact store that holds rendered phase diagrams
// and exported curves. The backend is picked from configuration.
package blob

import (
	"context"
	"fmt"
	"strings"

	"phasecore/internal/blob/core"
	fsstore "phasecore/internal/infra/blob/fs"
	memstore "phasecore/internal/infra/blob/memory"
	s3store "phasecore/internal/infra/blob/s3"
)

type (
	Store            = core.Store
	Info             = core.Info
	PutOptions       = core.PutOptions
	SignedURLOptions = core.SignedURLOptions
	Driver           = core.Driver
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrUnsupported = core.ErrUnsupported
	ErrNotFound    = core.ErrNotFound
	ErrExists      = core.ErrExists
	ErrInvalidKey  = core.ErrInvalidKey
)

// Environment variables read by ConfigFromEnv.
const (
	EnvDriver      = "PHASECORE_BLOB_DRIVER"
	EnvFSRoot      = "PHASECORE_BLOB_FS_ROOT"
	EnvS3Bucket    = "PHASECORE_BLOB_S3_BUCKET"
	EnvS3Region    = "PHASECORE_BLOB_S3_REGION"
	EnvS3Endpoint  = "PHASECORE_BLOB_S3_ENDPOINT"
	EnvS3PathStyle = "PHASECORE_BLOB_S3_PATH_STYLE"
)

// Config selects and parameterises a backend.
type Config struct {
	Driver Driver
	FSRoot string
	S3     s3store.Config
}

// ConfigFromEnv reads blob settings through getenv. The filesystem driver
// is the default.
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{
		Driver: Driver(strings.ToLower(strings.TrimSpace(getenv(EnvDriver)))),
		FSRoot: getenv(EnvFSRoot),
		S3: s3store.Config{
			Bucket:    getenv(EnvS3Bucket),
			Region:    getenv(EnvS3Region),
			Endpoint:  getenv(EnvS3Endpoint),
			PathStyle: strings.EqualFold(getenv(EnvS3PathStyle), "true"),
		},
	}
	if cfg.Driver == "" {
		cfg.Driver = DriverFilesystem
	}
	return cfg
}

// Open constructs the configured backend.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFilesystem, "":
		return fsstore.New(cfg.FSRoot)
	case DriverMemory:
		return memstore.New(), nil
	case DriverS3:
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("%s required for s3 driver", EnvS3Bucket)
		}
		return s3store.New(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown blob driver %q", cfg.Driver)
	}
}
