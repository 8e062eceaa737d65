package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// Transport sends a text message to a chat.
type Transport interface {
	Name() string
	Send(ctx context.Context, chatID string, text string) error
}

type Factory func(args interface{}) (Transport, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func Register(name string, factory Factory) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" || factory == nil {
		return
	}
	registryMu.Lock()
	registry[key] = factory
	registryMu.Unlock()
}

func New(name string, args interface{}) (Transport, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return nil, fmt.Errorf("transport.type is required")
	}
	registryMu.RLock()
	factory := registry[key]
	registryMu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("unsupported transport type: %s", name)
	}
	return factory(args)
}

// Format renders a seed and its continuation as one chat message.
func Format(seed, continuation string) string {
	return strings.TrimSpace(seed) + "\n\n" + strings.TrimSpace(continuation)
}

// ChatDelivery binds a transport to one chat.
type ChatDelivery struct {
	transport Transport
	chatID    string
}

func ForChat(t Transport, chatID string) *ChatDelivery {
	return &ChatDelivery{transport: t, chatID: chatID}
}

func (d *ChatDelivery) Deliver(ctx context.Context, seed, continuation string) error {
	return d.transport.Send(ctx, d.chatID, Format(seed, continuation))
}

func decodeConfig(args interface{}, dst interface{}) error {
	if args == nil {
		return nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode transport config: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode transport config: %w", err)
	}
	return nil
}
