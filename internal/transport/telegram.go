package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	telegramMaxMessage     = 4096
)

type telegramConfig struct {
	BotToken   string  `json:"bot_token"`
	BaseURL    string  `json:"base_url"`
	RatePerSec float64 `json:"rate_per_sec"`
	Timeout    int     `json:"timeout"`
}

type telegramTransport struct {
	token   string
	baseURL string
	limiter *rate.Limiter
	client  *http.Client
}

type telegramSendRequest struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (t *telegramTransport) Name() string {
	return "telegram"
}

func (t *telegramTransport) Send(ctx context.Context, chatID string, text string) error {
	if chatID == "" {
		return fmt.Errorf("telegram chat id is required")
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}
	body, err := json.Marshal(telegramSendRequest{ChatID: chatID, Text: truncateRunes(text, telegramMaxMessage)})
	if err != nil {
		return err
	}
	endpoint := strings.TrimRight(t.baseURL, "/") + "/bot" + t.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out telegramResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	if !out.OK {
		return fmt.Errorf("telegram send failed: %s: %s", resp.Status, out.Description)
	}
	return nil
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

func createTelegramTransport(args interface{}) (Transport, error) {
	cfg := &telegramConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	token := strings.TrimSpace(cfg.BotToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
	}
	if token == "" {
		return nil, fmt.Errorf("telegram bot_token is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &telegramTransport{
		token:   token,
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func init() {
	Register("telegram", createTelegramTransport)
}
