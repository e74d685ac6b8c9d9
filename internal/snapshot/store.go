// Package snapshot persists the remote session's sync state as a single JSON
// document on disk.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by Load when no snapshot exists yet. It is the
// normal first-run condition, not a failure.
var ErrNotFound = errors.New("snapshot not found")

// FormatError reports a snapshot file that exists but does not contain valid
// JSON. Callers treat this as fatal rather than silently re-syncing from
// scratch.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed snapshot at %s: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Store reads and writes the snapshot blob at a fixed path. The blob's
// structure is owned by the remote client; the store only verifies it is
// well-formed JSON.
type Store struct {
	path string
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Load() (json.RawMessage, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if !json.Valid(data) {
		return nil, &FormatError{Path: s.path, Err: errors.New("not valid JSON")}
	}
	return json.RawMessage(data), nil
}

// Save replaces the snapshot wholesale. The write goes to a temp file in the
// same directory followed by a rename, so a concurrent Load or a crash never
// observes a partial snapshot.
func (s *Store) Save(blob json.RawMessage) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(blob); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
