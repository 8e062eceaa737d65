package poster

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/model"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
	"github.com/xxxsen/bookbot/internal/pkg/timeutil"
	"github.com/xxxsen/bookbot/internal/rotation"
)

type State string

const (
	StateIdle    State = "idle"
	StatePosting State = "posting"
	StateStopped State = "stopped"
)

type StopReason string

const (
	StopReasonNone      StopReason = ""
	StopReasonOperator  StopReason = "operator"
	StopReasonCancelled StopReason = "cancelled"
	StopReasonRestart   StopReason = "restart"
)

// Generator produces a continuation for a seed. A nil opts is the minimal
// request form.
type Generator interface {
	Generate(ctx context.Context, seed string, opts *model.GenerationOptions) (string, error)
}

type Deliverer interface {
	Deliver(ctx context.Context, seed, continuation string) error
}

type OptionsSource interface {
	Options(ctx context.Context) (model.GenerationOptions, error)
}

// RestartSignal is closed when the process should wind down for a restart.
type RestartSignal interface {
	Requested() <-chan struct{}
}

type Recorder interface {
	Record(ctx context.Context, post *model.Post) error
}

type Deps struct {
	Seeds     *rotation.Store
	Generator Generator
	Delivery  Deliverer
	Options   OptionsSource
	Restart   RestartSignal
	Recorder  Recorder
}

// Interval bounds the random pause between two rotation posts.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

type Snapshot struct {
	ID         string     `json:"id"`
	State      State      `json:"state"`
	StopReason StopReason `json:"stop_reason,omitempty"`
	Cursor     int        `json:"cursor"`
	Seeds      int        `json:"seeds"`
	Posts      int64      `json:"posts"`
	Failures   int64      `json:"failures"`
	LastPostAt int64      `json:"last_post_at,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
}

type Option func(s *Session)

func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) {
		s.rnd = rnd
	}
}

// WithTimer replaces time.After for the pause between posts.
func WithTimer(after func(d time.Duration) <-chan time.Time) Option {
	return func(s *Session) {
		s.after = after
	}
}

// Session runs the posting loop for one chat. The loop and the one-shot
// reply path share a generator lock so at most one request is in flight,
// but a reply never waits on the loop's pause.
type Session struct {
	id       string
	deps     Deps
	interval Interval
	after    func(d time.Duration) <-chan time.Time

	mu         sync.Mutex
	state      State
	stopReason StopReason
	cancel     context.CancelFunc
	done       chan struct{}
	posts      int64
	failures   int64
	lastPostAt int64
	lastError  string

	genMu sync.Mutex
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewSession(id string, deps Deps, interval Interval, opts ...Option) *Session {
	if interval.Max < interval.Min {
		interval.Max = interval.Min
	}
	s := &Session{
		id:       id,
		deps:     deps,
		interval: interval,
		after:    time.After,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		ID:         s.id,
		State:      s.state,
		StopReason: s.stopReason,
		Posts:      s.posts,
		Failures:   s.failures,
		LastPostAt: s.lastPostAt,
		LastError:  s.lastError,
	}
	if s.deps.Seeds != nil {
		snap.Cursor = s.deps.Seeds.Cursor()
		snap.Seeds = s.deps.Seeds.Len()
	}
	return snap
}

// Start enters the posting state. ctx bounds the lifetime of the loop, so
// it must outlive the request that triggered the start.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StatePosting {
		return fmt.Errorf("session %s already posting: %w", s.id, appErr.ErrConflict)
	}
	if s.deps.Seeds == nil || s.deps.Seeds.Len() == 0 {
		return appErr.ErrEmptySequence
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.state = StatePosting
	s.stopReason = StopReasonNone
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(loopCtx, s.done)
	return nil
}

// Stop leaves the posting state and waits for the loop to exit. It reports
// whether the session was posting.
func (s *Session) Stop() bool {
	s.mu.Lock()
	if s.state != StatePosting {
		s.mu.Unlock()
		return false
	}
	s.stopReason = StopReasonOperator
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return true
}

// Wait blocks until the current loop, if any, has exited.
func (s *Session) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Session) run(ctx context.Context, done chan struct{}) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", s.id))
	logger.Info("posting started", zap.Int("seeds", s.deps.Seeds.Len()))

	var restart <-chan struct{}
	if s.deps.Restart != nil {
		restart = s.deps.Restart.Requested()
	}
	reason := StopReasonCancelled
	defer func() {
		s.finish(reason)
		logger.Info("posting stopped", zap.String("reason", string(s.Snapshot().StopReason)))
		close(done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-restart:
			reason = StopReasonRestart
			return
		default:
		}

		if _, err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("posting cycle failed", zap.Error(err))
		}

		delay := s.nextDelay()
		logger.Debug("waiting for next post", zap.Duration("delay", delay))
		select {
		case <-ctx.Done():
			return
		case <-restart:
			reason = StopReasonRestart
			return
		case <-s.after(delay):
		}
	}
}

func (s *Session) finish(reason StopReason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopReason == StopReasonNone {
		s.stopReason = reason
	}
	s.state = StateStopped
	if s.cancel != nil {
		s.cancel()
	}
}

// RunCycle posts the seed under the cursor and advances past it. The cursor
// moves even when generation or delivery fails.
func (s *Session) RunCycle(ctx context.Context) (*model.Post, error) {
	if s.deps.Seeds == nil {
		return nil, appErr.ErrEmptySequence
	}
	seed, err := s.deps.Seeds.Take()
	if err != nil {
		return nil, err
	}
	return s.produce(ctx, seed, model.PostKindRotation)
}

// ReplyOnce posts a random seed without touching the rotation cursor. It
// works in any state.
func (s *Session) ReplyOnce(ctx context.Context) (*model.Post, error) {
	if s.deps.Seeds == nil {
		return nil, appErr.ErrEmptySequence
	}
	s.rndMu.Lock()
	seed, err := s.deps.Seeds.Random(s.rnd)
	s.rndMu.Unlock()
	if err != nil {
		return nil, err
	}
	return s.produce(ctx, seed, model.PostKindReply)
}

func (s *Session) produce(ctx context.Context, seed string, kind model.PostKind) (*model.Post, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("session_id", s.id), zap.String("kind", string(kind)))
	opts := model.DefaultGenerationOptions()
	if s.deps.Options != nil {
		loaded, err := s.deps.Options.Options(ctx)
		if err != nil {
			logger.Warn("load generation options failed, using defaults", zap.Error(err))
		} else {
			opts = loaded
		}
	}

	s.genMu.Lock()
	continuation, fallback, err := s.generate(ctx, seed, opts)
	s.genMu.Unlock()
	if err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("%w: %w", appErr.ErrGenerationFailed, err)
	}
	if err := s.deps.Delivery.Deliver(ctx, seed, continuation); err != nil {
		s.recordFailure(err)
		return nil, fmt.Errorf("%w: %w", appErr.ErrDeliveryFailed, err)
	}

	post := &model.Post{
		ID:           uuid.NewString(),
		SessionID:    s.id,
		Seed:         seed,
		Continuation: continuation,
		Options:      opts,
		Fallback:     fallback,
		Kind:         kind,
		Ctime:        timeutil.NowUnix(),
	}
	s.recordSuccess(post.Ctime)
	if s.deps.Recorder != nil {
		if err := s.deps.Recorder.Record(ctx, post); err != nil {
			logger.Warn("record post failed", zap.Error(err))
		}
	}
	logger.Info("post delivered", zap.String("post_id", post.ID), zap.Bool("fallback", fallback))
	return post, nil
}

// generate asks with the session options first, then once more with the
// seed alone.
func (s *Session) generate(ctx context.Context, seed string, opts model.GenerationOptions) (string, bool, error) {
	out, err := s.deps.Generator.Generate(ctx, seed, &opts)
	if err == nil {
		return out, false, nil
	}
	if ctx.Err() != nil {
		return "", false, err
	}
	logutil.GetLogger(ctx).Warn("generation failed, retrying without options",
		zap.String("session_id", s.id), zap.Error(err))
	out, retryErr := s.deps.Generator.Generate(ctx, seed, nil)
	if retryErr != nil {
		return "", true, retryErr
	}
	return out, true, nil
}

func (s *Session) nextDelay() time.Duration {
	span := s.interval.Max - s.interval.Min
	if span <= 0 {
		return s.interval.Min
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return s.interval.Min + time.Duration(s.rnd.Int64N(int64(span)+1))
}

func (s *Session) recordSuccess(at int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts++
	s.lastPostAt = at
	s.lastError = ""
}

func (s *Session) recordFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures++
	s.lastError = err.Error()
}
