// Package filestore keeps tokens in a small JSON file so a session survives
// restarts of the CLI, the way browser storage survives page reloads.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/water-dashboard/tokens"
	"github.com/rs/zerolog/log"
)

var _ tokens.Store = (*Store)(nil)

type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Get(_ context.Context, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadLocked()
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("token file unreadable, treating as empty")
		return "", false
	}
	v, ok := values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *Store) Set(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadLocked()
	if err != nil {
		// A corrupt file is overwritten rather than blocking a new login.
		values = map[string]string{}
	}
	values[name] = value
	return s.saveLocked(values)
}

func (s *Store) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.loadLocked()
	if err != nil {
		values = map[string]string{}
	}
	if _, ok := values[name]; !ok && err == nil {
		return nil
	}
	delete(values, name)
	return s.saveLocked(values)
}

// loadLocked reads the file without acquiring the mutex (caller must hold it).
func (s *Store) loadLocked() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading token file: %w", err)
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("parsing token file: %w", err)
	}
	return values, nil
}

// saveLocked writes the file without acquiring the mutex (caller must hold it).
func (s *Store) saveLocked(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling tokens: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replacing token file: %w", err)
	}
	return nil
}
