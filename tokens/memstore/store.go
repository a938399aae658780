// Package memstore is an in-memory tokens.Store. Nothing survives the process.
package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/water-dashboard/tokens"
)

var _ tokens.Store = (*Store)(nil)

type Store struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(_ context.Context, name string) (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.values[name]
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (s *Store) Set(_ context.Context, name, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[name] = value
	return nil
}

func (s *Store) Remove(_ context.Context, name string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, name)
	return nil
}

// Len returns how many keys are stored.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}
