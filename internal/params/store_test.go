package params

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookbot/internal/model"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
)

type memoryPersistence struct {
	mu    sync.Mutex
	data  map[string]model.GenerationOptions
	loads int
	fail  error
}

func newMemoryPersistence() *memoryPersistence {
	return &memoryPersistence{data: make(map[string]model.GenerationOptions)}
}

func (m *memoryPersistence) LoadOptions(ctx context.Context, sessionID string) (model.GenerationOptions, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.fail != nil {
		return model.GenerationOptions{}, false, m.fail
	}
	opts, ok := m.data[sessionID]
	return opts, ok, nil
}

func (m *memoryPersistence) SaveOptions(ctx context.Context, sessionID string, opts model.GenerationOptions) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data[sessionID] = opts
	return nil
}

func TestStoreGet_DefaultsWhenUnknown(t *testing.T) {
	store := NewStore(newMemoryPersistence(), 0, 0)
	opts, err := store.Get(context.Background(), "chat")
	require.NoError(t, err)
	require.Equal(t, model.DefaultGenerationOptions(), opts)
}

func TestStoreStep_PersistsAndSurvivesNewStore(t *testing.T) {
	ctx := context.Background()
	persist := newMemoryPersistence()
	store := NewStore(persist, 16, time.Minute)

	var opts model.GenerationOptions
	var err error
	for i := 0; i < 5; i++ {
		opts, err = store.Step(ctx, "chat", model.FieldMaxTokens, model.StepIncrease)
		require.NoError(t, err)
	}
	require.Equal(t, 336, opts.MaxTokens)

	restarted := NewStore(persist, 16, time.Minute)
	got, err := restarted.Get(ctx, "chat")
	require.NoError(t, err)
	require.Equal(t, opts, got)

	other, err := restarted.Get(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, model.DefaultGenerationOptions(), other)
}

func TestStoreStep_RejectsUnknownField(t *testing.T) {
	store := NewStore(newMemoryPersistence(), 0, 0)
	_, err := store.Step(context.Background(), "chat", "seed", model.StepIncrease)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = store.Step(context.Background(), "chat", model.FieldTopP, "up")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestStoreReset_RestoresDefaults(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryPersistence(), 16, time.Minute)
	for i := 0; i < 7; i++ {
		_, err := store.Step(ctx, "chat", model.FieldTemperature, model.StepIncrease)
		require.NoError(t, err)
		_, err = store.Step(ctx, "chat", model.FieldTopP, model.StepDecrease)
		require.NoError(t, err)
	}
	opts, err := store.Reset(ctx, "chat")
	require.NoError(t, err)
	require.Equal(t, model.GenerationOptions{Temperature: 0.5, TopP: 0.9, MaxTokens: 256}, opts)

	got, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	require.Equal(t, opts, got)
}

func TestStoreGet_UsesCache(t *testing.T) {
	ctx := context.Background()
	persist := newMemoryPersistence()
	store := NewStore(persist, 16, time.Minute)
	_, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	_, err = store.ForSession("chat").Options(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, persist.loads)
}

func TestStoreGet_ClampsStoredValues(t *testing.T) {
	persist := newMemoryPersistence()
	persist.data["chat"] = model.GenerationOptions{Temperature: 9, TopP: -1, MaxTokens: 99999}
	opts, err := NewStore(persist, 0, 0).Get(context.Background(), "chat")
	require.NoError(t, err)
	require.Equal(t, model.GenerationOptions{Temperature: 2, TopP: 0, MaxTokens: 2048}, opts)
}

func TestStore_PersistenceErrors(t *testing.T) {
	persist := newMemoryPersistence()
	persist.fail = errors.New("db down")
	store := NewStore(persist, 0, 0)
	_, err := store.Get(context.Background(), "chat")
	require.Error(t, err)
	_, err = store.Reset(context.Background(), "chat")
	require.Error(t, err)
}

func TestStore_ConcurrentSteps(t *testing.T) {
	ctx := context.Background()
	store := NewStore(newMemoryPersistence(), 16, time.Minute)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Step(ctx, "chat", model.FieldMaxTokens, model.StepIncrease)
		}()
	}
	wg.Wait()
	opts, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	require.Equal(t, 256+10*16, opts.MaxTokens)
}

func TestStore_KeepsStepsWithoutPersistenceOrCache(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, 0, 0)

	stepped, err := store.Step(ctx, "chat", model.FieldTemperature, model.StepIncrease)
	require.NoError(t, err)
	got, err := store.Get(ctx, "chat")
	require.NoError(t, err)
	require.Equal(t, stepped, got)
	require.InDelta(t, 0.6, got.Temperature, 1e-9)

	other, err := store.Get(ctx, "other")
	require.NoError(t, err)
	require.Equal(t, model.DefaultGenerationOptions(), other)

	_, err = store.Reset(ctx, "chat")
	require.NoError(t, err)
	got, err = store.ForSession("chat").Options(ctx)
	require.NoError(t, err)
	require.Equal(t, model.DefaultGenerationOptions(), got)
}

func TestStore_WrittenOptionsOutliveCacheEviction(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil, 1, time.Minute)
	_, err := store.Step(ctx, "a", model.FieldMaxTokens, model.StepDecrease)
	require.NoError(t, err)
	_, err = store.Step(ctx, "b", model.FieldMaxTokens, model.StepIncrease)
	require.NoError(t, err)

	a, err := store.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, 240, a.MaxTokens)
}
