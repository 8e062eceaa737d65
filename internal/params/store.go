package params

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/model"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
)

// Persistence keeps generation options across restarts.
type Persistence interface {
	LoadOptions(ctx context.Context, sessionID string) (model.GenerationOptions, bool, error)
	SaveOptions(ctx context.Context, sessionID string, opts model.GenerationOptions) error
}

// Store serializes every read-modify-write of session options behind one
// mutex; the request rate is a handful of operator commands. Options written
// through the store live in values; the LRU only fronts reads of sessions
// loaded from persistence.
type Store struct {
	mu      sync.Mutex
	persist Persistence
	values  map[string]model.GenerationOptions
	cache   *expirable.LRU[string, model.GenerationOptions]
}

func NewStore(persist Persistence, cacheSize int, cacheTTL time.Duration) *Store {
	s := &Store{persist: persist, values: make(map[string]model.GenerationOptions)}
	if cacheSize > 0 && cacheTTL > 0 {
		s.cache = expirable.NewLRU[string, model.GenerationOptions](cacheSize, nil, cacheTTL)
	}
	return s
}

// Get returns the stored options for a session, or the defaults when the
// session has never changed them.
func (s *Store) Get(ctx context.Context, sessionID string) (model.GenerationOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(ctx, sessionID)
}

func (s *Store) Step(ctx context.Context, sessionID string, field model.OptionField, dir model.StepDirection) (model.GenerationOptions, error) {
	if !field.Valid() || !dir.Valid() {
		return model.GenerationOptions{}, fmt.Errorf("step %q %q: %w", field, dir, appErr.ErrInvalid)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.getLocked(ctx, sessionID)
	if err != nil {
		return model.GenerationOptions{}, err
	}
	next := current.Step(field, dir)
	if err := s.saveLocked(ctx, sessionID, next); err != nil {
		return model.GenerationOptions{}, err
	}
	logutil.GetLogger(ctx).Info("generation option stepped",
		zap.String("session_id", sessionID),
		zap.String("field", string(field)),
		zap.String("direction", string(dir)),
		zap.Float64("temperature", next.Temperature),
		zap.Float64("top_p", next.TopP),
		zap.Int("max_tokens", next.MaxTokens),
	)
	return next, nil
}

func (s *Store) Reset(ctx context.Context, sessionID string) (model.GenerationOptions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	opts := model.DefaultGenerationOptions()
	if err := s.saveLocked(ctx, sessionID, opts); err != nil {
		return model.GenerationOptions{}, err
	}
	logutil.GetLogger(ctx).Info("generation options reset", zap.String("session_id", sessionID))
	return opts, nil
}

// ForSession binds the store to one session for readers that only need the
// current options.
func (s *Store) ForSession(sessionID string) *SessionOptions {
	return &SessionOptions{store: s, sessionID: sessionID}
}

func (s *Store) getLocked(ctx context.Context, sessionID string) (model.GenerationOptions, error) {
	if opts, ok := s.values[sessionID]; ok {
		return opts, nil
	}
	if s.cache != nil {
		if opts, ok := s.cache.Get(sessionID); ok {
			return opts, nil
		}
	}
	opts := model.DefaultGenerationOptions()
	if s.persist != nil {
		loaded, ok, err := s.persist.LoadOptions(ctx, sessionID)
		if err != nil {
			return model.GenerationOptions{}, fmt.Errorf("load options: %w", err)
		}
		if ok {
			opts = loaded.Clamp()
		}
	}
	if s.cache != nil {
		s.cache.Add(sessionID, opts)
	}
	return opts, nil
}

func (s *Store) saveLocked(ctx context.Context, sessionID string, opts model.GenerationOptions) error {
	if s.persist != nil {
		if err := s.persist.SaveOptions(ctx, sessionID, opts); err != nil {
			return fmt.Errorf("save options: %w", err)
		}
	}
	s.values[sessionID] = opts
	if s.cache != nil {
		s.cache.Add(sessionID, opts)
	}
	return nil
}

type SessionOptions struct {
	store     *Store
	sessionID string
}

func (o *SessionOptions) Options(ctx context.Context) (model.GenerationOptions, error) {
	return o.store.Get(ctx, o.sessionID)
}
