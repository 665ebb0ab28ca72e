package client

import (
	"log"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/portoviejo/incidentes/services/jwt"
)

type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Session is the on-device authentication state. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	store  TokenStore
	token  string
	userID string
	now    func() time.Time
}

func NewSession(store TokenStore) *Session {
	return &Session{store: store, now: time.Now}
}

// Restore rehydrates the session from the store. A token that cannot be read,
// decoded, or is already expired is discarded.
func (s *Session) Restore() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, err := s.store.Load()
	if err != nil {
		if !errors.Is(err, ErrNoToken) {
			log.Printf("session: unable to read stored token: %v", err)
			s.discardLocked()
		}
		s.clearLocked()
		return Unauthenticated
	}

	userID, err := s.decode(token)
	if err != nil {
		log.Printf("session: discarding stored token: %v", err)
		s.discardLocked()
		s.clearLocked()
		return Unauthenticated
	}
	s.token, s.userID = token, userID
	return Authenticated
}

// Establish persists a token returned by login or register.
func (s *Session) Establish(token string) error {
	userID, err := s.decode(token)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(token); err != nil {
		return errors.Wrap(err, "save token")
	}
	s.token, s.userID = token, userID
	return nil
}

// Logout forgets the token locally and in the store.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	return errors.Wrap(s.store.Delete(), "delete token")
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return Unauthenticated
	}
	return Authenticated
}

func (s *Session) decode(token string) (string, error) {
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return "", err
	}
	if claims.ExpiresAt != 0 && !s.now().Before(claims.Expiry()) {
		return "", jwt.ErrExpiredToken
	}
	return claims.User.ID, nil
}

func (s *Session) discardLocked() {
	if err := s.store.Delete(); err != nil {
		log.Printf("session: unable to delete stored token: %v", err)
	}
}

func (s *Session) clearLocked() {
	s.token, s.userID = "", ""
}
