// Package inmemory provides an in-memory artifact store, suitable for tests
// and single-process runs.
package inmemory

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/voicefin/voicefin/artifact"
)

var _ artifact.Store = (*Store)(nil)

var errNilArtifact = errors.New("artifact cannot be nil")

// Store keeps artifacts in a map guarded by a mutex.
type Store struct {
	mu        sync.RWMutex
	artifacts map[string]*artifact.Artifact
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		artifacts: make(map[string]*artifact.Artifact),
	}
}

// Save implements artifact.Store.
func (s *Store) Save(ctx context.Context, key string, art *artifact.Artifact) error {
	if art == nil {
		return errNilArtifact
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *art
	stored.Data = append([]byte(nil), art.Data...)
	s.artifacts[key] = &stored
	return nil
}

// Load implements artifact.Store.
func (s *Store) Load(ctx context.Context, key string) (*artifact.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	art, ok := s.artifacts[key]
	if !ok {
		return nil, nil
	}
	loaded := *art
	loaded.Data = append([]byte(nil), art.Data...)
	return &loaded, nil
}

// ListKeys implements artifact.Store.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.artifacts))
	for key := range s.artifacts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements artifact.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.artifacts, key)
	return nil
}
