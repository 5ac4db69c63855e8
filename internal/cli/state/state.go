package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// TokenState stores the access token between CLI runs.
type TokenState struct {
	AccessToken string    `json:"access_token"`
	Username    string    `json:"username,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Store guards a TokenState backed by a file.
type Store struct {
	mu    sync.RWMutex
	path  string
	state TokenState
}

// Open loads the state at path. A missing or empty file is an empty state.
func Open(path string) (*Store, error) {
	st, err := load(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: st}, nil
}

func (s *Store) Path() string {
	return s.path
}

// AccessToken is suitable as a request token provider.
func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AccessToken
}

func (s *Store) Snapshot() TokenState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetAccessToken updates the token in memory only.
func (s *Store) SetAccessToken(token string) {
	s.mu.Lock()
	s.state.AccessToken = token
	s.state.UpdatedAt = time.Now()
	s.mu.Unlock()
}

// Update replaces the token and persists it.
func (s *Store) Update(token, username string) error {
	s.mu.Lock()
	s.state.AccessToken = token
	if username != "" {
		s.state.Username = username
	}
	s.state.UpdatedAt = time.Now()
	st := s.state
	s.mu.Unlock()
	return save(s.path, st)
}

// Clear forgets the token and removes the file.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.state = TokenState{}
	s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token state failed: %w", err)
	}
	return nil
}

func load(path string) (TokenState, error) {
	var st TokenState
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("read token state failed: %w", err)
	}
	if len(data) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(data, &st); err != nil {
		return st, fmt.Errorf("parse token state failed: %w", err)
	}
	return st, nil
}

func save(path string, st TokenState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create token state dir failed: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token state failed: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write token state failed: %w", err)
	}
	return nil
}
