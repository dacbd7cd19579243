// Package storage persists bank snapshots as a single JSON document.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/simonkvalheim/oop-ledger/internal/model"
)

// ErrNoSnapshot is returned by every snapshot store when nothing has been saved yet
var ErrNoSnapshot = errors.New("no snapshot saved")

// StorageJSON identifies snapshots written by JSONStore
const StorageJSON = "json_snapshot"

// JSONStore keeps the snapshot in one file. Writes go to path.tmp first and
// are renamed over the real file, so a crashed write leaves the old snapshot.
type JSONStore struct {
	path string
	now  func() time.Time
}

// NewJSONStore creates a store backed by the file at path
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path, now: time.Now}
}

// Path returns the snapshot file location
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads and decodes the snapshot file
func (s *JSONStore) Load(ctx context.Context) (model.BankSnapshot, error) {
	var snap model.BankSnapshot
	if err := ctx.Err(); err != nil {
		return snap, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, ErrNoSnapshot
	}
	if err != nil {
		return snap, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return snap, fmt.Errorf("failed to decode snapshot %s: %w", s.path, err)
	}
	return snap, nil
}

// Save stamps the snapshot metadata and replaces the file atomically
func (s *JSONStore) Save(ctx context.Context, snap model.BankSnapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	snap.Meta.Storage = StorageJSON
	snap.Meta.Version = model.SnapshotVersion
	snap.Meta.SavedAt = s.now()

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
