package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager keeps builder sessions in memory. Nothing is persisted:
// a session lives until it has been idle for longer than the TTL.
type SessionManager struct {
	cfg      SessionConfig
	exporter *Exporter
	picker   ImagePicker
	logger   *log.Logger
	ttl      time.Duration

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func NewSessionManager(cfg SessionConfig, exporter *Exporter, picker ImagePicker, ttl time.Duration, logger *log.Logger) *SessionManager {
	if logger == nil {
		logger = log.Default()
	}
	return &SessionManager{
		cfg:      cfg,
		exporter: exporter,
		picker:   picker,
		logger:   logger,
		ttl:      ttl,
		sessions: map[uuid.UUID]*Session{},
	}
}

func (m *SessionManager) Create() *Session {
	s := NewSession(uuid.New(), m.cfg, m.exporter, m.picker, m.logger)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.logger.Debug("session created", "id", s.ID())
	return s
}

func (m *SessionManager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *SessionManager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	return nil
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle since before now-TTL. Sessions that are
// exporting are kept.
func (m *SessionManager) Sweep(now time.Time) int {
	if m.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-m.ttl)
	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.State() == StateExporting || s.UpdatedAt().After(cutoff) {
			continue
		}
		expired = append(expired, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	for _, s := range expired {
		s.Close()
	}
	if len(expired) > 0 {
		m.logger.Info("expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Run sweeps every interval until ctx is done.
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			m.Sweep(now)
		}
	}
}
