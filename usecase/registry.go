package usecase

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/domain/entities"
	"github.com/nextstep-labs/interview-server/internal/metrics"
)

// DefaultUserName is used when a session is created without a candidate name.
const DefaultUserName = "Candidate"

// SessionRegistry maps session ids to live interviews. It is the only state
// shared between sessions.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*registryEntry

	deps   InterviewDeps
	cfg    InterviewConfig
	logger *zap.Logger
	now    func() time.Time
}

type registryEntry struct {
	interview *Interview
	createdAt time.Time
	attached  bool
}

// NewSessionRegistry creates an empty registry that builds interviews with deps and cfg.
func NewSessionRegistry(deps InterviewDeps, cfg InterviewConfig, logger *zap.Logger) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[string]*registryEntry),
		deps:     deps,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Create registers a new interview. It fails with ErrNotConfigured when no
// reasoning model is available, in which case nothing is registered.
func (r *SessionRegistry) Create(targetRole, userName string) (*Interview, error) {
	if r.deps.Model == nil {
		return nil, &NotConfiguredError{Key: r.deps.CredentialKey}
	}

	targetRole = strings.TrimSpace(targetRole)
	userName = strings.TrimSpace(userName)
	if userName == "" {
		userName = DefaultUserName
	}

	id, err := newSessionID()
	if err != nil {
		return nil, err
	}

	log := entities.NewSessionLog(id, targetRole, userName)
	interview := NewInterview(log, r.deps, r.cfg, r.logger)

	r.mu.Lock()
	r.sessions[id] = &registryEntry{interview: interview, createdAt: r.now()}
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.SessionsCreated().Inc()
	metrics.SessionsActive().Set(float64(size))
	r.logger.Info("Session created",
		zap.String("sessionID", id),
		zap.String("role", targetRole),
		zap.Bool("knownRole", IsKnownRole(targetRole)))
	return interview, nil
}

// Get returns the interview registered under id.
func (r *SessionRegistry) Get(id string) (*Interview, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.interview, nil
}

// Attach marks the session as connected. A session accepts one connection
// for its lifetime.
func (r *SessionRegistry) Attach(id string) (*Interview, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if entry.attached {
		return nil, ErrSessionAttached
	}
	entry.attached = true
	return entry.interview, nil
}

// Remove evicts a session. Removing an unknown id is a no-op.
func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	size := len(r.sessions)
	r.mu.Unlock()

	metrics.SessionsActive().Set(float64(size))
}

// Len returns the number of registered sessions.
func (r *SessionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle removes sessions that were never connected within ttl of their
// creation and returns their ids.
func (r *SessionRegistry) EvictIdle(ttl time.Duration) []string {
	cutoff := r.now().Add(-ttl)

	r.mu.Lock()
	var evicted []string
	for id, entry := range r.sessions {
		if entry.attached || entry.createdAt.After(cutoff) {
			continue
		}
		delete(r.sessions, id)
		evicted = append(evicted, id)
	}
	size := len(r.sessions)
	r.mu.Unlock()

	if len(evicted) > 0 {
		metrics.SessionsEvicted().Add(float64(len(evicted)))
		metrics.SessionsActive().Set(float64(size))
	}
	return evicted
}

// newSessionID returns a time-ordered identifier.
func newSessionID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return "interview_" + id.String(), nil
}
