package websocket

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nextstep-labs/interview-server/usecase"
)

// SessionCleanupService evicts sessions that were created but never connected.
type SessionCleanupService struct {
	registry *usecase.SessionRegistry
	idleTTL  time.Duration
	interval time.Duration
	logger   *zap.Logger

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewSessionCleanupService creates a new session cleanup service
func NewSessionCleanupService(registry *usecase.SessionRegistry, idleTTL, interval time.Duration, logger *zap.Logger) *SessionCleanupService {
	return &SessionCleanupService{
		registry: registry,
		idleTTL:  idleTTL,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

// Start begins the background cleanup process
func (s *SessionCleanupService) Start() {
	go s.cleanupLoop()
	s.logger.Info("Session cleanup service started",
		zap.Duration("idleTTL", s.idleTTL),
		zap.Duration("interval", s.interval))
}

// Stop gracefully stops the cleanup service
func (s *SessionCleanupService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
		s.logger.Info("Session cleanup service stopped")
	})
}

// cleanupLoop runs the cleanup process periodically
func (s *SessionCleanupService) cleanupLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCleanup()
		}
	}
}

// runCleanup evicts idle sessions and returns how many were removed.
func (s *SessionCleanupService) runCleanup() int {
	evicted := s.registry.EvictIdle(s.idleTTL)
	if len(evicted) > 0 {
		s.logger.Info("Evicted idle sessions",
			zap.Int("count", len(evicted)),
			zap.Strings("sessionIDs", evicted))
	}
	return len(evicted)
}
