package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/bookbot/internal/curation"
	"github.com/xxxsen/bookbot/internal/model"
	"github.com/xxxsen/bookbot/internal/params"
	appErr "github.com/xxxsen/bookbot/internal/pkg/errors"
	"github.com/xxxsen/bookbot/internal/poster"
	"github.com/xxxsen/bookbot/internal/rotation"
	"github.com/xxxsen/bookbot/internal/transport"
)

const (
	defaultPostListLimit = 20
	maxPostListLimit     = 200
)

type SessionStore interface {
	SetActive(ctx context.Context, sessionID string, active bool) error
	ListActive(ctx context.Context) ([]string, error)
}

type PostStore interface {
	Record(ctx context.Context, post *model.Post) error
	ListBySession(ctx context.Context, sessionID string, limit, offset int) ([]model.Post, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}

type BotDeps struct {
	Seeds     *rotation.Store
	Report    curation.Report
	Generator poster.Generator
	Transport transport.Transport
	Params    *params.Store
	Sessions  SessionStore
	Posts     PostStore
	Restart   poster.RestartSignal
	Interval  poster.Interval
}

type SeedStats struct {
	Document   string         `json:"document"`
	Seeds      int            `json:"seeds"`
	Pages      int            `json:"pages"`
	Candidates int            `json:"candidates"`
	Accepted   int            `json:"accepted"`
	Duplicates int            `json:"duplicates"`
	Rejected   map[string]int `json:"rejected"`
}

type PostPage struct {
	Items []model.Post `json:"items"`
	Total int64        `json:"total"`
}

// BotService owns one poster per chat session. Every session walks its own
// cursor over the same frozen seed sequence.
type BotService struct {
	root     context.Context
	deps     BotDeps
	document string

	mu       sync.Mutex
	sessions map[string]*poster.Session
}

// NewBotService binds posting loops to root: cancelling it stops every
// session without touching the persisted active flags.
func NewBotService(root context.Context, document string, deps BotDeps) *BotService {
	return &BotService{
		root:     root,
		deps:     deps,
		document: document,
		sessions: make(map[string]*poster.Session),
	}
}

func (s *BotService) session(sessionID string) *poster.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[sessionID]; ok {
		return sess
	}
	var recorder poster.Recorder
	if s.deps.Posts != nil {
		recorder = s.deps.Posts
	}
	var options poster.OptionsSource
	if s.deps.Params != nil {
		options = s.deps.Params.ForSession(sessionID)
	}
	sess := poster.NewSession(sessionID, poster.Deps{
		Seeds:     s.deps.Seeds.Clone(),
		Generator: s.deps.Generator,
		Delivery:  transport.ForChat(s.deps.Transport, sessionID),
		Options:   options,
		Restart:   s.deps.Restart,
		Recorder:  recorder,
	}, s.deps.Interval)
	s.sessions[sessionID] = sess
	return sess
}

func (s *BotService) lookup(sessionID string) (*poster.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[sessionID]
	return sess, ok
}

// idleSnapshot describes a session this process has never started.
func (s *BotService) idleSnapshot(sessionID string) poster.Snapshot {
	return poster.Snapshot{ID: sessionID, State: poster.StateIdle, Seeds: s.deps.Seeds.Len()}
}

func normalizeSessionID(sessionID string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", fmt.Errorf("session id is required: %w", appErr.ErrInvalid)
	}
	return sessionID, nil
}

func (s *BotService) Start(ctx context.Context, sessionID string) (poster.Snapshot, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return poster.Snapshot{}, err
	}
	sess := s.session(sessionID)
	if err := sess.Start(s.root); err != nil {
		return poster.Snapshot{}, err
	}
	s.persistActive(ctx, sessionID, true)
	return sess.Snapshot(), nil
}

// Stop halts posting and clears the resume flag. Stopping a session that is
// not posting only clears the flag; reads and stops never register a session.
func (s *BotService) Stop(ctx context.Context, sessionID string) (poster.Snapshot, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return poster.Snapshot{}, err
	}
	s.persistActive(ctx, sessionID, false)
	sess, ok := s.lookup(sessionID)
	if !ok {
		return s.idleSnapshot(sessionID), nil
	}
	sess.Stop()
	return sess.Snapshot(), nil
}

func (s *BotService) Reply(ctx context.Context, sessionID string) (*model.Post, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	return s.session(sessionID).ReplyOnce(ctx)
}

func (s *BotService) Status(ctx context.Context, sessionID string) (poster.Snapshot, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return poster.Snapshot{}, err
	}
	if sess, ok := s.lookup(sessionID); ok {
		return sess.Snapshot(), nil
	}
	return s.idleSnapshot(sessionID), nil
}

func (s *BotService) Options(ctx context.Context, sessionID string) (model.GenerationOptions, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return model.GenerationOptions{}, err
	}
	return s.deps.Params.Get(ctx, sessionID)
}

func (s *BotService) StepOption(ctx context.Context, sessionID, field, direction string) (model.GenerationOptions, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return model.GenerationOptions{}, err
	}
	return s.deps.Params.Step(ctx, sessionID,
		model.OptionField(strings.ToLower(strings.TrimSpace(field))),
		model.StepDirection(strings.ToLower(strings.TrimSpace(direction))))
}

func (s *BotService) ResetOptions(ctx context.Context, sessionID string) (model.GenerationOptions, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return model.GenerationOptions{}, err
	}
	return s.deps.Params.Reset(ctx, sessionID)
}

func (s *BotService) Posts(ctx context.Context, sessionID string, limit, offset int) (*PostPage, error) {
	sessionID, err := normalizeSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	if s.deps.Posts == nil {
		return &PostPage{Items: []model.Post{}}, nil
	}
	if limit <= 0 {
		limit = defaultPostListLimit
	}
	if limit > maxPostListLimit {
		limit = maxPostListLimit
	}
	items, err := s.deps.Posts.ListBySession(ctx, sessionID, limit, offset)
	if err != nil {
		return nil, err
	}
	total, err := s.deps.Posts.CountBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return &PostPage{Items: items, Total: total}, nil
}

func (s *BotService) SeedStats() SeedStats {
	rejected := make(map[string]int, len(s.deps.Report.Rejected))
	for k, v := range s.deps.Report.Rejected {
		rejected[k] = v
	}
	return SeedStats{
		Document:   s.document,
		Seeds:      s.deps.Seeds.Len(),
		Pages:      s.deps.Report.Pages,
		Candidates: s.deps.Report.Candidates,
		Accepted:   s.deps.Report.Accepted,
		Duplicates: s.deps.Report.Duplicates,
		Rejected:   rejected,
	}
}

// Resume restarts posting for every session that was active when the
// process last went down.
func (s *BotService) Resume(ctx context.Context) error {
	if s.deps.Sessions == nil {
		return nil
	}
	ids, err := s.deps.Sessions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active sessions: %w", err)
	}
	logger := logutil.GetLogger(ctx)
	for _, id := range ids {
		if err := s.session(id).Start(s.root); err != nil {
			switch {
			case appErr.IsConflict(err):
				// already posting
			case appErr.IsEmptySequence(err):
				logger.Warn("resume skipped, no seed sentences", zap.String("session_id", id))
			default:
				logger.Error("resume session failed", zap.String("session_id", id), zap.Error(err))
			}
			continue
		}
		logger.Info("session resumed", zap.String("session_id", id))
	}
	return nil
}

// Wait blocks until every posting loop has exited.
func (s *BotService) Wait() {
	s.mu.Lock()
	sessions := make([]*poster.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.Wait()
	}
}

// Snapshots lists every known session, ordered by id.
func (s *BotService) Snapshots() []poster.Snapshot {
	s.mu.Lock()
	out := make([]poster.Snapshot, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.Snapshot())
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *BotService) persistActive(ctx context.Context, sessionID string, active bool) {
	if s.deps.Sessions == nil {
		return
	}
	if err := s.deps.Sessions.SetActive(ctx, sessionID, active); err != nil {
		logutil.GetLogger(ctx).Warn("persist session state failed",
			zap.String("session_id", sessionID), zap.Bool("active", active), zap.Error(err))
	}
}
