package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xxxsen/bookbot/internal/model"
)

var (
	ErrUnavailable = errors.New("ai provider unavailable")
	// ErrUnsupportedOption is returned when a provider rejects one of the
	// sampling parameters. Callers retry without options.
	ErrUnsupportedOption = errors.New("ai provider rejected generation option")
)

// IProvider talks to one model backend. A nil opts asks for the provider's
// own defaults.
type IProvider interface {
	Name() string
	Generate(ctx context.Context, model string, prompt string, opts *model.GenerationOptions) (string, error)
}

type IGenerator interface {
	Generate(ctx context.Context, prompt string, opts *model.GenerationOptions) (string, error)
}

type generator struct {
	provider IProvider
	model    string
}

func NewGenerator(p IProvider, model string) IGenerator {
	return &generator{provider: p, model: model}
}

func (g *generator) Generate(ctx context.Context, prompt string, opts *model.GenerationOptions) (string, error) {
	return g.provider.Generate(ctx, g.model, prompt, opts)
}

type ProviderFactory func(args interface{}) (IProvider, error)

var registry = map[string]ProviderFactory{}

func Register(name string, factory ProviderFactory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registry[key] = factory
}

func NewProvider(name string, args interface{}) (IProvider, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("ai provider name is required")
	}
	factory := registry[key]
	if factory == nil {
		return nil, fmt.Errorf("unsupported ai provider: %s", name)
	}
	return factory(args)
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode ai provider config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode ai provider config: %w", err)
	}
	return nil
}

var optionHints = []string{"temperature", "top_p", "topp", "top-p", "max_tokens", "max_output_tokens", "maxoutputtokens", "unsupported", "not supported"}

// asOptionError wraps err with ErrUnsupportedOption when a 4xx response
// names one of the sampling parameters.
func asOptionError(status int, err error) error {
	if err == nil || status < 400 || status >= 500 {
		return err
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range optionHints {
		if strings.Contains(msg, hint) {
			return fmt.Errorf("%w: %w", ErrUnsupportedOption, err)
		}
	}
	return err
}
