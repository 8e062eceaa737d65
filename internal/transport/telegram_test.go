package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTelegramSend(t *testing.T) {
	var got telegramSendRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	tr, err := New("telegram", map[string]interface{}{
		"bot_token":    "123:abc",
		"base_url":     srv.URL,
		"rate_per_sec": 100,
	})
	require.NoError(t, err)
	require.Equal(t, "telegram", tr.Name())

	err = ForChat(tr, "-1001").Deliver(context.Background(), "It began quietly.", "Then the rain came.")
	require.NoError(t, err)
	require.Equal(t, "/bot123:abc/sendMessage", path)
	require.Equal(t, "-1001", got.ChatID)
	require.Equal(t, "It began quietly.\n\nThen the rain came.", got.Text)
}

func TestTelegramSend_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was kicked"}`))
	}))
	defer srv.Close()

	tr, err := New("telegram", map[string]interface{}{"bot_token": "t", "base_url": srv.URL, "rate_per_sec": 100})
	require.NoError(t, err)
	err = tr.Send(context.Background(), "42", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bot was kicked")

	require.Error(t, tr.Send(context.Background(), "", "hello"))
}

func TestTelegramFactory_RequiresToken(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	_, err := New("telegram", map[string]interface{}{})
	require.Error(t, err)

	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	tr, err := New("telegram", nil)
	require.NoError(t, err)
	require.Equal(t, "env-token", tr.(*telegramTransport).token)
}

func TestTruncateRunes(t *testing.T) {
	long := strings.Repeat("ж", telegramMaxMessage+10)
	require.Len(t, []rune(truncateRunes(long, telegramMaxMessage)), telegramMaxMessage)
	require.Equal(t, "short", truncateRunes("short", 10))
}

func TestNew_UnknownAndLog(t *testing.T) {
	_, err := New("carrier-pigeon", nil)
	require.Error(t, err)
	_, err = New("", nil)
	require.Error(t, err)

	tr, err := New("LOG", nil)
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), "1", "hi"))
}
