package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrSessionNotFound = errors.New("server: session not found")
	ErrBadRejoinToken  = errors.New("server: rejoin token mismatch")
)

// Session ties a player to a match across reconnects. The rejoin token is
// handed to the client once at creation; only its bcrypt hash is kept.
type Session struct {
	ID        string
	MatchID   string
	PlayerID  string
	tokenHash []byte
	lastSeen  time.Time
}

// SessionManager tracks live sessions and expires those whose lease lapsed.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	leasePeriod time.Duration
	logger      *zap.Logger
}

// NewSessionManager creates a session manager with the given lease period.
func NewSessionManager(leasePeriod time.Duration, logger *zap.Logger) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		leasePeriod: leasePeriod,
		logger:      logger,
	}
}

// Create registers a session and returns it along with the one-time rejoin
// token the client must present to reconnect.
func (sm *SessionManager) Create(matchID, playerID string) (*Session, string, error) {
	token := uuid.NewString()
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	session := &Session{
		ID:        uuid.NewString(),
		MatchID:   matchID,
		PlayerID:  playerID,
		tokenHash: hash,
		lastSeen:  time.Now(),
	}
	sm.mu.Lock()
	sm.sessions[session.ID] = session
	sm.mu.Unlock()
	return session, token, nil
}

// Rejoin validates a rejoin token and refreshes the session lease.
func (sm *SessionManager) Rejoin(sessionID, token string) (*Session, error) {
	sm.mu.Lock()
	session, ok := sm.sessions[sessionID]
	sm.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if err := bcrypt.CompareHashAndPassword(session.tokenHash, []byte(token)); err != nil {
		return nil, ErrBadRejoinToken
	}
	sm.Touch(sessionID)
	return session, nil
}

// Touch refreshes the session lease.
func (sm *SessionManager) Touch(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if session, ok := sm.sessions[sessionID]; ok {
		session.lastSeen = time.Now()
	}
}

// Remove drops a session. Idempotent.
func (sm *SessionManager) Remove(sessionID string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, sessionID)
}

// CleanupExpiredSessions periodically drops sessions whose lease lapsed.
// Intended to run as a goroutine for the lifetime of the server.
func (sm *SessionManager) CleanupExpiredSessions(ctx context.Context) {
	ticker := time.NewTicker(sm.leasePeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-sm.leasePeriod)
			sm.mu.Lock()
			for id, session := range sm.sessions {
				if session.lastSeen.Before(cutoff) {
					delete(sm.sessions, id)
					sm.logger.Info("session expired",
						zap.String("session_id", id),
						zap.String("player_id", session.PlayerID),
					)
				}
			}
			sm.mu.Unlock()
		}
	}
}
