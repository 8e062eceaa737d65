package transport

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// logTransport writes messages to the log instead of a chat; used for dry
// runs while tuning curation rules.
type logTransport struct{}

func (logTransport) Name() string {
	return "log"
}

func (logTransport) Send(ctx context.Context, chatID string, text string) error {
	logutil.GetLogger(ctx).Info("message delivered", zap.String("chat_id", chatID), zap.String("text", text))
	return nil
}

func init() {
	Register("log", func(args interface{}) (Transport, error) {
		return logTransport{}, nil
	})
}
