package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/bookbot/internal/model"
)

const DefaultPromptTemplate = `You are continuing a passage from a book.
Write the text that naturally follows the sentence below, in the same voice and language.
- Do not repeat the sentence.
- Do not add explanations or quotes.
- Output ONLY the continuation.

SENTENCE:
%s`

type ContinuerConfig struct {
	Timeout        time.Duration
	PromptTemplate string
	// Raw sends the seed as-is, for completion models that continue text
	// without instructions.
	Raw bool
}

// Continuer turns a seed sentence into a continuation through a generator.
type Continuer struct {
	gen IGenerator
	cfg ContinuerConfig
}

func NewContinuer(gen IGenerator, cfg ContinuerConfig) *Continuer {
	if strings.TrimSpace(cfg.PromptTemplate) == "" {
		cfg.PromptTemplate = DefaultPromptTemplate
	}
	if !strings.Contains(cfg.PromptTemplate, "%s") {
		cfg.PromptTemplate += "\n\n%s"
	}
	return &Continuer{gen: gen, cfg: cfg}
}

func (c *Continuer) Generate(ctx context.Context, seed string, opts *model.GenerationOptions) (string, error) {
	if c.gen == nil {
		return "", ErrUnavailable
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}
	prompt := seed
	if !c.cfg.Raw {
		prompt = fmt.Sprintf(c.cfg.PromptTemplate, seed)
	}
	resp, err := c.gen.Generate(ctx, prompt, opts)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp)
	if text == "" {
		return "", fmt.Errorf("empty ai response")
	}
	return text, nil
}
