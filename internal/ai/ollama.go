package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/xxxsen/bookbot/internal/model"
)

const defaultOllamaURL = "http://localhost:11434"

type ollamaConfig struct {
	ServerURL string `json:"server_url"`
}

// ollamaProvider serves locally hosted models, the closest match to running
// an open-weights model next to the bot.
type ollamaProvider struct {
	serverURL string
}

func (p *ollamaProvider) Name() string {
	return "ollama"
}

func (p *ollamaProvider) Generate(ctx context.Context, modelName string, prompt string, opts *model.GenerationOptions) (string, error) {
	llm, err := ollama.New(ollama.WithModel(modelName), ollama.WithServerURL(p.serverURL))
	if err != nil {
		return "", fmt.Errorf("init ollama: %w", err)
	}
	var callOpts []llms.CallOption
	if opts != nil {
		callOpts = append(callOpts,
			llms.WithTemperature(opts.Temperature),
			llms.WithTopP(opts.TopP),
			llms.WithMaxTokens(opts.MaxTokens),
		)
	}
	out, err := llms.GenerateFromSinglePrompt(ctx, llm, prompt, callOpts...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func createOllamaFactory(args interface{}) (IProvider, error) {
	cfg := &ollamaConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	serverURL := strings.TrimSpace(cfg.ServerURL)
	if serverURL == "" {
		serverURL = defaultOllamaURL
	}
	return &ollamaProvider{serverURL: serverURL}, nil
}

func init() {
	Register("ollama", createOllamaFactory)
}
