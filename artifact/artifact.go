// Package artifact provides storage for binary artifacts produced by a run,
// such as synthesized audio. Runs save under unique keys so that concurrent
// runs never collide on a shared path.
package artifact

import "context"

// Artifact is a named piece of binary content.
type Artifact struct {
	// Data contains the raw bytes.
	Data []byte `json:"data,omitempty"`
	// MimeType is the IANA MIME type of the data.
	MimeType string `json:"mime_type,omitempty"`
	// Name is an optional display name.
	Name string `json:"name,omitempty"`
}

// Store persists and retrieves artifacts by key.
type Store interface {
	// Save stores an artifact under key, replacing any previous content.
	Save(ctx context.Context, key string, art *Artifact) error
	// Load returns the artifact stored under key, or nil if absent.
	Load(ctx context.Context, key string) (*Artifact, error)
	// ListKeys returns all stored keys.
	ListKeys(ctx context.Context) ([]string, error)
	// Delete removes the artifact stored under key. Deleting an absent key
	// is not an error.
	Delete(ctx context.Context, key string) error
}
