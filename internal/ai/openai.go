package ai

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/xxxsen/bookbot/internal/model"
)

type openAIConfig struct {
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
}

// openAIProvider talks to any OpenAI compatible chat completion endpoint.
type openAIProvider struct {
	name   string
	client *openai.Client
	hasKey bool
}

func (p *openAIProvider) Name() string {
	return p.name
}

func (p *openAIProvider) Generate(ctx context.Context, modelName string, prompt string, opts *model.GenerationOptions) (string, error) {
	if !p.hasKey {
		return "", ErrUnavailable
	}
	req := openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if opts != nil {
		req.Temperature = sendableFloat(opts.Temperature)
		req.TopP = sendableFloat(opts.TopP)
		req.MaxTokens = opts.MaxTokens
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return "", asOptionError(apiErr.HTTPStatusCode, err)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) {
			return "", asOptionError(reqErr.HTTPStatusCode, err)
		}
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s response has no choices", p.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// sendableFloat keeps an explicit zero on the wire: go-openai drops zero
// sampling values through omitempty, so zero goes out as the smallest
// positive float32.
func sendableFloat(v float64) float32 {
	if v == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(v)
}

func createOpenAIFactory(args interface{}) (IProvider, error) {
	cfg := &openAIConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	}
	clientCfg := openai.DefaultConfig(key)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	return &openAIProvider{
		name:   "openai",
		client: openai.NewClientWithConfig(clientCfg),
		hasKey: key != "",
	}, nil
}

func init() {
	Register("openai", createOpenAIFactory)
}
