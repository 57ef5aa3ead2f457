package client

import (
	"fmt"
	"sync"
)

// TokenStore persists the session token between runs.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Session is the authentication context of a Client. The token is read
// from the store once, when the session is loaded, and written back on
// SignIn and SignOut.
type Session struct {
	mu    sync.RWMutex
	store TokenStore
	token string
}

// LoadSession creates a Session from the token held by store.
func LoadSession(store TokenStore) (*Session, error) {
	token, err := store.LoadToken()
	if err != nil {
		return nil, fmt.Errorf("loading session token: %w", err)
	}
	return &Session{store: store, token: token}, nil
}

// Token returns the current token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// LoggedIn reports whether the session holds a token.
func (s *Session) LoggedIn() bool {
	return s.Token() != ""
}

// SignIn stores token in memory and in the store.
func (s *Session) SignIn(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.SaveToken(token); err != nil {
		return fmt.Errorf("saving session token: %w", err)
	}
	s.token = token
	return nil
}

// SignOut forgets the token in memory and in the store.
func (s *Session) SignOut() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	if err := s.store.ClearToken(); err != nil {
		return fmt.Errorf("clearing session token: %w", err)
	}
	return nil
}

// MemoryTokenStore keeps the token in memory only.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) LoadToken() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) SaveToken(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) ClearToken() error {
	return m.SaveToken("")
}
