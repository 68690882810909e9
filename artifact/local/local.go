// Package local provides a directory-backed artifact store.
package local

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/voicefin/voicefin/artifact"
)

var _ artifact.Store = (*Store)(nil)

// Store writes each artifact to a file under a base directory. The key is
// the file name; nested keys are rejected to keep the store contained.
type Store struct {
	dir string
}

// NewStore creates the base directory if necessary and returns the store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file path an artifact key maps to.
func (s *Store) Path(key string) string {
	return filepath.Join(s.dir, key)
}

func (s *Store) checkKey(key string) error {
	if key == "" || strings.Contains(key, string(os.PathSeparator)) || key == "." || key == ".." {
		return fmt.Errorf("invalid artifact key %q", key)
	}
	return nil
}

// Save implements artifact.Store.
func (s *Store) Save(ctx context.Context, key string, art *artifact.Artifact) error {
	if art == nil {
		return errors.New("artifact cannot be nil")
	}
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := os.WriteFile(s.Path(key), art.Data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", key, err)
	}
	return nil
}

// Load implements artifact.Store.
func (s *Store) Load(ctx context.Context, key string) (*artifact.Artifact, error) {
	if err := s.checkKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read artifact %s: %w", key, err)
	}
	return &artifact.Artifact{
		Data:     data,
		MimeType: mime.TypeByExtension(filepath.Ext(key)),
		Name:     key,
	}, nil
}

// ListKeys implements artifact.Store.
func (s *Store) ListKeys(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	keys := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			keys = append(keys, entry.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements artifact.Store.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete artifact %s: %w", key, err)
	}
	return nil
}
