package loader

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/config"
	"github.com/xxxsen/bookbot/internal/model"
)

// Load reads the configured book and splits it into pages. skip_pages counts
// physical pages, blank ones included; blank pages are removed afterwards.
func Load(ctx context.Context, cfg config.DocumentConfig) (model.RawDocument, error) {
	src, err := newSource(ctx, cfg)
	if err != nil {
		return model.RawDocument{}, err
	}
	rc, err := src.Open(ctx, cfg.Path)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("open document %s: %w", cfg.Path, err)
	}
	defer rc.Close()

	pages, err := Parse(rc, cfg.Format, cfg.PageSelector)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("parse document %s: %w", cfg.Path, err)
	}
	total := len(pages)
	pages = dropBlankPages(skipPages(pages, cfg.SkipPages))
	logutil.GetLogger(ctx).Info("document loaded",
		zap.String("source", cfg.Source),
		zap.String("path", cfg.Path),
		zap.String("format", cfg.Format),
		zap.Int("pages", total),
		zap.Int("kept_pages", len(pages)),
	)
	return model.RawDocument{Name: path.Base(cfg.Path), Pages: pages}, nil
}

// Parse splits r into pages according to format.
func Parse(r io.Reader, format, pageSelector string) ([]string, error) {
	switch format {
	case "", "text":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ParseText(data), nil
	case "markdown":
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		return ParseMarkdown(data), nil
	case "html":
		return ParseHTML(r, pageSelector)
	default:
		return nil, fmt.Errorf("unsupported document format: %s", format)
	}
}

func skipPages(pages []string, n int) []string {
	if n <= 0 {
		return pages
	}
	if n >= len(pages) {
		return []string{}
	}
	return pages[n:]
}
