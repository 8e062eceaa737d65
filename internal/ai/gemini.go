package ai

import (
	"context"
	"os"
	"strings"

	"google.golang.org/genai"

	"github.com/xxxsen/bookbot/internal/model"
)

type geminiConfig struct {
	APIKey string `json:"api_key"`
}

type geminiProvider struct {
	apiKey string
}

func (p *geminiProvider) Name() string {
	return "gemini"
}

func (p *geminiProvider) Generate(ctx context.Context, modelName string, prompt string, opts *model.GenerationOptions) (string, error) {
	if p.apiKey == "" {
		return "", ErrUnavailable
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  p.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", err
	}
	resp, err := client.Models.GenerateContent(
		ctx,
		modelName,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		geminiGenerateConfig(opts),
	)
	if err != nil {
		return "", asOptionError(geminiStatus(err), err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func geminiGenerateConfig(opts *model.GenerationOptions) *genai.GenerateContentConfig {
	if opts == nil {
		return nil
	}
	return &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(opts.Temperature)),
		TopP:            genai.Ptr(float32(opts.TopP)),
		MaxOutputTokens: int32(opts.MaxTokens),
	}
}

// geminiStatus recovers the HTTP class of an API error from its message.
func geminiStatus(err error) int {
	msg := err.Error()
	if strings.Contains(msg, "INVALID_ARGUMENT") || strings.Contains(msg, "Error 400") {
		return 400
	}
	return 0
}

func createGeminiFactory(args interface{}) (IProvider, error) {
	cfg := &geminiConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	return &geminiProvider{apiKey: key}, nil
}

func init() {
	Register("gemini", createGeminiFactory)
}
