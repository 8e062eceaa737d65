package main

import (
	"context"
	"fmt"

	"github.com/xxxsen/bookbot/internal/config"
	"github.com/xxxsen/bookbot/internal/curation"
	"github.com/xxxsen/bookbot/internal/loader"
	"github.com/xxxsen/bookbot/internal/model"
)

func curationRules(cfg config.CurationConfig) curation.Rules {
	rules := curation.DefaultRules()
	if cfg.MinLength > 0 {
		rules.MinLength = cfg.MinLength
	}
	return rules.WithExtra(markers(cfg.ExtraCodeMarkers), markers(cfg.ExtraPublishers))
}

func markers(texts []string) []curation.Marker {
	out := make([]curation.Marker, 0, len(texts))
	for _, text := range texts {
		if text == "" {
			continue
		}
		out = append(out, curation.Marker{Text: text, FoldCase: true})
	}
	return out
}

func loadDocument(ctx context.Context, cfg *config.Config) (model.RawDocument, error) {
	doc, err := loader.Load(ctx, cfg.Document)
	if err != nil {
		return model.RawDocument{}, fmt.Errorf("load document: %w", err)
	}
	return doc, nil
}

// curateSeeds runs the curation pipeline over a loaded book. onPage may be
// nil.
func curateSeeds(cfg *config.Config, doc model.RawDocument, onPage func(index int)) ([]string, curation.Report) {
	return curation.NewPipeline(curationRules(cfg.Curation)).Curate(doc, onPage)
}
