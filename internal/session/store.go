// Package session holds the authenticated-user state: who is logged in,
// the bearer token, and whether the store has finished rehydrating from
// disk. Nothing reads authorization state before Hydrated reports true —
// that is the guard against deciding "not logged in" while restore is still
// in flight.
package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/exotrack/exotrack-console/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// UserFetcher restores the session user from the backend
// (GET /auth/check-auth-status). Implemented by service.AuthService.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*domain.User, error)
}

// TokenStore is the durable token home (see TokenFile).
type TokenStore interface {
	Token() string
	SetToken(token string) error
	Clear() error
}

// snapshot is the persisted part of the store: the last known user. The
// token lives in its own file; persisting both lets Initialize skip a
// network round-trip when the pair is still coherent.
type snapshot struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// Store is the session state machine.
type Store struct {
	mu            sync.RWMutex
	user          *domain.User
	token         string
	authenticated bool
	hydrated      bool

	tokens       TokenStore
	snapshotPath string
	fetcher      UserFetcher
	logger       *zap.Logger
}

// NewStore creates an empty, un-hydrated session store.
func NewStore(tokens TokenStore, snapshotPath string, fetcher UserFetcher, logger *zap.Logger) *Store {
	return &Store{
		tokens:       tokens,
		snapshotPath: snapshotPath,
		fetcher:      fetcher,
		logger:       logger,
	}
}

// Login persists the token and records the authenticated user.
// The token is written before memory state so a crash cannot leave an
// in-memory session without a durable token.
func (s *Store) Login(user *domain.User, token string) error {
	if err := s.tokens.SetToken(token); err != nil {
		return err
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.authenticated = true
	s.hydrated = true
	s.mu.Unlock()

	s.saveSnapshot()
	return nil
}

// Logout clears the durable token and resets in-memory state.
func (s *Store) Logout() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()

	s.removeSnapshot()
	return err
}

// Invalidate is the 401 hook: same teardown as Logout, minus the token
// clear (the API client already did that).
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()

	s.removeSnapshot()
}

// Initialize restores the session from durable storage. Four cases:
//
//   - token + no cached user: verify with the backend via CurrentUser;
//     an invalid/expired token clears everything.
//   - token + cached user: mark authenticated (after a local expiry peek
//     at the JWT to skip a round-trip that is guaranteed to 401).
//   - no token: force logged-out state, even if a stale user snapshot
//     survived on disk.
//
// Whatever path runs, the store ends hydrated.
func (s *Store) Initialize(ctx context.Context) error {
	defer func() {
		s.mu.Lock()
		s.hydrated = true
		s.mu.Unlock()
	}()

	s.loadSnapshot()
	token := s.tokens.Token()

	s.mu.RLock()
	cachedUser := s.user
	s.mu.RUnlock()

	if token == "" {
		// A user snapshot without a token is stale state, not a session.
		s.mu.Lock()
		s.user = nil
		s.token = ""
		s.authenticated = false
		s.mu.Unlock()
		s.removeSnapshot()
		return nil
	}

	if cachedUser != nil {
		if tokenExpired(token) {
			s.logger.Debug("session: cached token expired, clearing")
			return s.clearAll()
		}
		s.mu.Lock()
		s.token = token
		s.authenticated = true
		s.mu.Unlock()
		return nil
	}

	user, err := s.fetcher.CurrentUser(ctx)
	if err != nil {
		s.logger.Warn("session: failed to restore, clearing", zap.Error(err))
		return s.clearAll()
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.authenticated = true
	s.mu.Unlock()
	s.saveSnapshot()
	return nil
}

func (s *Store) clearAll() error {
	err := s.tokens.Clear()

	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.authenticated = false
	s.mu.Unlock()

	s.removeSnapshot()
	return err
}

// User returns the session user, or nil.
func (s *Store) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the in-memory token.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether a user is logged in.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

// Hydrated reports whether Initialize has completed. Authorization
// decisions made before this returns true are premature.
func (s *Store) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hydrated
}

// IsAdmin reports whether the session user holds the admin role.
func (s *Store) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated && s.user != nil && s.user.Role == domain.RoleAdmin
}

// tokenExpired peeks at the JWT exp claim without verifying the signature.
// Verification is the backend's job; this only avoids a doomed round-trip.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false // opaque token: let the backend decide
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}

func (s *Store) saveSnapshot() {
	s.mu.RLock()
	snap := snapshot{User: s.user, IsAuthenticated: s.authenticated}
	s.mu.RUnlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o700); err != nil {
		return
	}
	if err := os.WriteFile(s.snapshotPath, data, 0o600); err != nil {
		s.logger.Debug("session: snapshot write failed", zap.Error(err))
	}
}

func (s *Store) loadSnapshot() {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return
	}
	s.mu.Lock()
	s.user = snap.User
	s.mu.Unlock()
}

func (s *Store) removeSnapshot() {
	_ = os.Remove(s.snapshotPath)
}
