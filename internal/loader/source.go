package loader

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xxxsen/bookbot/internal/config"
)

type Source interface {
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

func newSource(ctx context.Context, cfg config.DocumentConfig) (Source, error) {
	switch cfg.Source {
	case "", "local":
		return localSource{}, nil
	case "s3":
		return newS3Source(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unsupported document source: %s", cfg.Source)
	}
}

type localSource struct{}

func (localSource) Open(_ context.Context, path string) (io.ReadCloser, error) {
	return os.Open(path)
}
