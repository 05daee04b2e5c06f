package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"learnquest/internal/cache"
	"learnquest/internal/domain"
	"learnquest/internal/logger"
	"learnquest/internal/metrics"
	"learnquest/internal/util"
)

const DefaultTTL = 30 * time.Minute

// ManagerConfig tunes a Manager. Zero values fall back to defaults.
type ManagerConfig struct {
	TTL               time.Duration
	QuestionTimeLimit time.Duration
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Manager owns the live sessions of this process. Sessions unused for TTL
// are abandoned and dropped. Each live session also leaves a marker hash in
// the shared cache so other instances can tell it exists.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry

	cache        domain.Cache
	ttl          time.Duration
	defaultLimit time.Duration

	afterFunc AfterFunc
	now       func() time.Time
}

func NewManager(c domain.Cache, cfg ManagerConfig) *Manager {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		sessions:     make(map[string]*entry),
		cache:        c,
		ttl:          ttl,
		defaultLimit: cfg.QuestionTimeLimit,
		afterFunc:    StdAfterFunc,
		now:          time.Now,
	}
}

// SetClock replaces the scheduler and clock used for new sessions.
func (m *Manager) SetClock(af AfterFunc, now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if af != nil {
		m.afterFunc = af
	}
	if now != nil {
		m.now = now
	}
}

// Create starts a new session for the quiz. userID may be empty for guests.
func (m *Manager) Create(ctx context.Context, quiz *domain.Quiz, userID string) (*Session, error) {
	m.mu.Lock()
	af, now := m.afterFunc, m.now
	m.mu.Unlock()

	opts := []Option{
		WithAfterFunc(af),
		WithClock(now),
		WithOnTimeout(func(s *Session) {
			logger.Get().Debug("Question timed out",
				zap.String("sessionID", s.ID()),
				zap.String("quizID", s.QuizID()))
		}),
	}
	if quiz != nil && quiz.QuestionTimeLimit <= 0 && m.defaultLimit > 0 {
		opts = append(opts, WithTimeLimit(m.defaultLimit))
	}

	s, err := New(util.NewULID(), userID, quiz, opts...)
	if err != nil {
		return nil, err
	}
	if err := s.Start(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.purgeLocked(ctx)
	m.sessions[s.ID()] = &entry{session: s, lastSeen: now()}
	m.mu.Unlock()

	metrics.SessionStarted()
	m.mark(ctx, s)
	return s, nil
}

// Get returns a live session and refreshes its idle deadline.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok && m.expiredLocked(e) {
		m.dropLocked(ctx, id, e)
		ok = false
	}
	if ok {
		e.lastSeen = m.now()
	}
	m.mu.Unlock()

	if !ok {
		return nil, domain.NewSessionNotFoundError(id)
	}
	if m.cache != nil {
		if err := m.cache.Expire(ctx, cache.SessionMarkerKey(id), m.ttl); err != nil {
			logger.Get().Warn("Failed to refresh session marker", zap.String("sessionID", id), zap.Error(err))
		}
	}
	return e.session, nil
}

// Remove abandons and forgets a session. Unknown ids are ignored.
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.sessions[id]; ok {
		m.dropLocked(ctx, id, e)
	}
}

// IsLive reports whether any instance holds a marker for the session.
func (m *Manager) IsLive(ctx context.Context, id string) (bool, error) {
	if m.cache == nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		_, ok := m.sessions[id]
		return ok, nil
	}
	fields, err := m.cache.HGetAll(ctx, cache.SessionMarkerKey(id))
	if errors.Is(err, domain.ErrCacheMiss) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(fields) > 0, nil
}

// Len counts sessions held by this process, expired ones included until the next purge.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Purge drops every idle session.
func (m *Manager) Purge(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.purgeLocked(ctx)
}

// Close abandons all sessions.
func (m *Manager) Close(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.sessions {
		m.dropLocked(ctx, id, e)
	}
}

func (m *Manager) expiredLocked(e *entry) bool {
	return m.now().Sub(e.lastSeen) >= m.ttl
}

func (m *Manager) purgeLocked(ctx context.Context) {
	for id, e := range m.sessions {
		if m.expiredLocked(e) {
			m.dropLocked(ctx, id, e)
		}
	}
}

func (m *Manager) dropLocked(ctx context.Context, id string, e *entry) {
	e.session.Abandon()
	delete(m.sessions, id)
	metrics.SessionEnded()
	if m.cache != nil {
		if err := m.cache.Delete(ctx, cache.SessionMarkerKey(id)); err != nil {
			logger.Get().Warn("Failed to delete session marker", zap.String("sessionID", id), zap.Error(err))
		}
	}
}

func (m *Manager) mark(ctx context.Context, s *Session) {
	if m.cache == nil {
		return
	}
	key := cache.SessionMarkerKey(s.ID())
	fields := map[string]string{
		"quizId":    s.QuizID(),
		"userId":    s.UserID(),
		"startedAt": m.now().UTC().Format(time.RFC3339),
	}
	if err := m.cache.HSet(ctx, key, fields); err != nil {
		logger.Get().Warn("Failed to write session marker", zap.String("sessionID", s.ID()), zap.Error(err))
		return
	}
	if err := m.cache.Expire(ctx, key, m.ttl); err != nil {
		logger.Get().Warn("Failed to set session marker expiry", zap.String("sessionID", s.ID()), zap.Error(err))
	}
}
