package poster

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/bookbot/internal/model"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
	"github.com/xxxsen/bookbot/internal/rotation"
	"github.com/xxxsen/bookbot/internal/uptime"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls []*model.GenerationOptions
	fn    func(seed string, opts *model.GenerationOptions) (string, error)
}

func (g *fakeGenerator) Generate(_ context.Context, seed string, opts *model.GenerationOptions) (string, error) {
	g.mu.Lock()
	g.calls = append(g.calls, opts)
	g.mu.Unlock()
	if g.fn == nil {
		return "continued " + seed, nil
	}
	return g.fn(seed, opts)
}

func (g *fakeGenerator) Calls() []*model.GenerationOptions {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*model.GenerationOptions(nil), g.calls...)
}

type fakeDelivery struct {
	mu   sync.Mutex
	sent []string
	err  error
	ch   chan string
}

func (d *fakeDelivery) Deliver(_ context.Context, seed, _ string) error {
	if d.err != nil {
		return d.err
	}
	d.mu.Lock()
	d.sent = append(d.sent, seed)
	d.mu.Unlock()
	if d.ch != nil {
		d.ch <- seed
	}
	return nil
}

func (d *fakeDelivery) Sent() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.sent...)
}

type staticOptions struct {
	opts model.GenerationOptions
	err  error
}

func (o staticOptions) Options(context.Context) (model.GenerationOptions, error) {
	return o.opts, o.err
}

type memoryRecorder struct {
	mu    sync.Mutex
	posts []*model.Post
}

func (r *memoryRecorder) Record(_ context.Context, post *model.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts = append(r.posts, post)
	return nil
}

func neverFires(time.Duration) <-chan time.Time {
	return make(chan time.Time)
}

func seeds() *rotation.Store {
	return rotation.Build([]string{
		"The first seed sentence is here.",
		"The second seed sentence is here.",
		"The third seed sentence is here.",
	}, rand.New(rand.NewPCG(1, 2)))
}

func waitSent(t *testing.T, ch chan string) string {
	t.Helper()
	select {
	case seed := <-ch:
		return seed
	case <-time.After(2 * time.Second):
		t.Fatal("no delivery")
		return ""
	}
}

func TestStartEmptySequence(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSession("chat", Deps{
		Seeds:     rotation.Build(nil, nil),
		Generator: gen,
		Delivery:  &fakeDelivery{},
	}, Interval{Min: time.Second, Max: time.Second})

	err := s.Start(context.Background())
	require.True(t, errors.Is(err, appErr.ErrEmptySequence))
	require.Equal(t, StateIdle, s.State())
	require.Empty(t, gen.Calls())
}

func TestRunCycleFollowsRotationAndWraps(t *testing.T) {
	store := seeds()
	var want []string
	probe := store.Clone()
	for i := 0; i < 4; i++ {
		seed, err := probe.Take()
		require.NoError(t, err)
		want = append(want, seed)
	}

	delivery := &fakeDelivery{}
	s := NewSession("chat", Deps{
		Seeds:     store,
		Generator: &fakeGenerator{},
		Delivery:  delivery,
	}, Interval{})
	for i := 0; i < 4; i++ {
		post, err := s.RunCycle(context.Background())
		require.NoError(t, err)
		require.Equal(t, model.PostKindRotation, post.Kind)
		require.False(t, post.Fallback)
	}
	require.Equal(t, want, delivery.Sent())
	require.Equal(t, want[0], want[3])
	require.Equal(t, 1, store.Cursor())
}

func TestRunCycleUsesSessionOptions(t *testing.T) {
	gen := &fakeGenerator{}
	opts := model.GenerationOptions{Temperature: 1.2, TopP: 0.5, MaxTokens: 64}
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: gen,
		Delivery:  &fakeDelivery{},
		Options:   staticOptions{opts: opts},
	}, Interval{})

	post, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, opts, post.Options)
	calls := gen.Calls()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0])
	require.Equal(t, opts, *calls[0])
}

func TestRunCycleOptionsErrorUsesDefaults(t *testing.T) {
	gen := &fakeGenerator{}
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: gen,
		Delivery:  &fakeDelivery{},
		Options:   staticOptions{err: errors.New("db down")},
	}, Interval{})

	post, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.DefaultGenerationOptions(), post.Options)
}

func TestRunCycleFallsBackToSeedOnly(t *testing.T) {
	gen := &fakeGenerator{fn: func(seed string, opts *model.GenerationOptions) (string, error) {
		if opts != nil {
			return "", errors.New("top_p not supported")
		}
		return "plain " + seed, nil
	}}
	recorder := &memoryRecorder{}
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: gen,
		Delivery:  &fakeDelivery{},
		Recorder:  recorder,
	}, Interval{})

	post, err := s.RunCycle(context.Background())
	require.NoError(t, err)
	require.True(t, post.Fallback)
	require.Equal(t, "plain "+post.Seed, post.Continuation)
	calls := gen.Calls()
	require.Len(t, calls, 2)
	require.NotNil(t, calls[0])
	require.Nil(t, calls[1])
	require.Len(t, recorder.posts, 1)
	require.Equal(t, post.ID, recorder.posts[0].ID)
}

func TestRunCycleGenerationFailed(t *testing.T) {
	gen := &fakeGenerator{fn: func(string, *model.GenerationOptions) (string, error) {
		return "", errors.New("model offline")
	}}
	delivery := &fakeDelivery{}
	store := seeds()
	s := NewSession("chat", Deps{
		Seeds:     store,
		Generator: gen,
		Delivery:  delivery,
	}, Interval{})

	_, err := s.RunCycle(context.Background())
	require.True(t, errors.Is(err, appErr.ErrGenerationFailed))
	require.Len(t, gen.Calls(), 2)
	require.Empty(t, delivery.Sent())
	require.Equal(t, 1, store.Cursor())
	snap := s.Snapshot()
	require.EqualValues(t, 1, snap.Failures)
	require.Contains(t, snap.LastError, "model offline")
}

func TestRunCycleDeliveryFailed(t *testing.T) {
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  &fakeDelivery{err: errors.New("telegram 502")},
	}, Interval{})

	_, err := s.RunCycle(context.Background())
	require.True(t, errors.Is(err, appErr.ErrDeliveryFailed))
}

func TestStartStop(t *testing.T) {
	delivery := &fakeDelivery{ch: make(chan string, 4)}
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  delivery,
	}, Interval{Min: time.Minute, Max: 2 * time.Minute}, WithTimer(neverFires))

	require.NoError(t, s.Start(context.Background()))
	waitSent(t, delivery.ch)
	require.Equal(t, StatePosting, s.State())

	err := s.Start(context.Background())
	require.True(t, errors.Is(err, appErr.ErrConflict))

	require.True(t, s.Stop())
	snap := s.Snapshot()
	require.Equal(t, StateStopped, snap.State)
	require.Equal(t, StopReasonOperator, snap.StopReason)
	require.False(t, s.Stop())

	require.NoError(t, s.Start(context.Background()))
	waitSent(t, delivery.ch)
	require.True(t, s.Stop())
	require.Len(t, delivery.Sent(), 2)
}

func TestStopAbandonsSleep(t *testing.T) {
	delivery := &fakeDelivery{ch: make(chan string, 1)}
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  delivery,
	}, Interval{Min: time.Hour, Max: time.Hour})

	require.NoError(t, s.Start(context.Background()))
	waitSent(t, delivery.ch)

	begin := time.Now()
	require.True(t, s.Stop())
	require.Less(t, time.Since(begin), time.Second)
}

func TestLoopAdvancesOnTimer(t *testing.T) {
	delivery := &fakeDelivery{ch: make(chan string, 4)}
	tick := make(chan time.Time)
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  delivery,
	}, Interval{Min: time.Minute, Max: time.Minute}, WithTimer(func(time.Duration) <-chan time.Time {
		return tick
	}))

	require.NoError(t, s.Start(context.Background()))
	first := waitSent(t, delivery.ch)
	tick <- time.Now()
	second := waitSent(t, delivery.ch)
	require.NotEqual(t, first, second)
	require.True(t, s.Stop())
}

func TestContextCancelStopsLoop(t *testing.T) {
	delivery := &fakeDelivery{ch: make(chan string, 1)}
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  delivery,
	}, Interval{}, WithTimer(neverFires))

	require.NoError(t, s.Start(ctx))
	waitSent(t, delivery.ch)
	cancel()
	s.Wait()
	snap := s.Snapshot()
	require.Equal(t, StateStopped, snap.State)
	require.Equal(t, StopReasonCancelled, snap.StopReason)
}

func TestRestartSignalStopsLoop(t *testing.T) {
	delivery := &fakeDelivery{ch: make(chan string, 1)}
	budget := uptime.NewBudget(0)
	s := NewSession("chat", Deps{
		Seeds:     seeds(),
		Generator: &fakeGenerator{},
		Delivery:  delivery,
		Restart:   budget,
	}, Interval{}, WithTimer(neverFires))

	require.NoError(t, s.Start(context.Background()))
	waitSent(t, delivery.ch)
	budget.Trigger()
	s.Wait()
	snap := s.Snapshot()
	require.Equal(t, StateStopped, snap.State)
	require.Equal(t, StopReasonRestart, snap.StopReason)
}

func TestReplyOnceKeepsCursor(t *testing.T) {
	store := seeds()
	s := NewSession("chat", Deps{
		Seeds:     store,
		Generator: &fakeGenerator{},
		Delivery:  &fakeDelivery{},
	}, Interval{}, WithRand(rand.New(rand.NewPCG(7, 7))))

	for i := 0; i < 5; i++ {
		post, err := s.ReplyOnce(context.Background())
		require.NoError(t, err)
		require.Equal(t, model.PostKindReply, post.Kind)
	}
	require.Equal(t, 0, store.Cursor())
	require.Equal(t, StateIdle, s.State())
	require.EqualValues(t, 5, s.Snapshot().Posts)
}

func TestReplyOnceEmptySequence(t *testing.T) {
	s := NewSession("chat", Deps{
		Seeds:     rotation.Build(nil, nil),
		Generator: &fakeGenerator{},
		Delivery:  &fakeDelivery{},
	}, Interval{})
	_, err := s.ReplyOnce(context.Background())
	require.True(t, errors.Is(err, appErr.ErrEmptySequence))
}

func TestNextDelayWithinInterval(t *testing.T) {
	s := NewSession("chat", Deps{}, Interval{Min: 300 * time.Second, Max: 780 * time.Second},
		WithRand(rand.New(rand.NewPCG(3, 4))))
	for i := 0; i < 200; i++ {
		d := s.nextDelay()
		require.GreaterOrEqual(t, d, 300*time.Second)
		require.LessOrEqual(t, d, 780*time.Second)
	}

	fixed := NewSession("chat", Deps{}, Interval{Min: time.Minute, Max: time.Second})
	require.Equal(t, time.Minute, fixed.nextDelay())
}
