package state

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"aurorawatch/internal/types"
)

const (
	// lockRetryInterval and lockAttempts bound how long a commit waits for
	// a concurrent invocation to release the lock file.
	lockRetryInterval = 100 * time.Millisecond
	lockAttempts      = 20

	// staleLockAge is the age beyond which a leftover lock file from a
	// crashed invocation is broken.
	staleLockAge = 2 * time.Minute
)

// FileStore persists alert state as a single JSON document on local disk.
// Writes are crash-safe: the document is written to a temporary file and
// renamed over the target. Commits hold an exclusive lock file for the
// read-compare-write cycle so overlapping invocations serialize.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore persisting to the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the state document. A missing file is the bootstrap state:
// every channel reads as "never fired".
func (s *FileStore) Load(_ context.Context) (map[string]types.AlertState, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]types.AlertState{}, nil
	}
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeStateLoad, "reading state file", err)
	}

	records := map[string]types.AlertState{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, types.NewAppError(types.ErrCodeStateLoad, "decoding state file", err)
		}
	}
	return records, nil
}

// Commit performs a locked read-compare-write-rename cycle. If the record
// on disk no longer matches prev, another invocation won the race and the
// commit fails with state_conflict.
func (s *FileStore) Commit(ctx context.Context, prev, next types.AlertState) error {
	if err := s.acquireLock(ctx); err != nil {
		return err
	}
	defer s.releaseLock()

	records, err := s.Load(ctx)
	if err != nil {
		return err
	}

	current, exists := records[next.ChannelID]
	if !exists {
		current = types.AlertState{ChannelID: next.ChannelID}
	}
	if !current.Equal(prev) {
		return types.NewAppError(types.ErrCodeStateConflict,
			"alert state changed since load; concurrent invocation committed first", nil)
	}

	records[next.ChannelID] = next
	return s.writeAtomic(records)
}

// writeAtomic serializes the records to a temp file in the target directory
// and renames it over the state file.
func (s *FileStore) writeAtomic(records map[string]types.AlertState) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrCodeStatePersist, "encoding state", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return types.NewAppError(types.ErrCodeStatePersist, "creating temp state file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeStatePersist, "writing temp state file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeStatePersist, "syncing temp state file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeStatePersist, "closing temp state file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return types.NewAppError(types.ErrCodeStatePersist, "replacing state file", err)
	}
	return nil
}

func (s *FileStore) lockPath() string {
	return s.path + ".lock"
}

// acquireLock takes the advisory lock file with O_EXCL. Lock files older
// than staleLockAge are assumed to belong to a crashed invocation and are
// broken.
func (s *FileStore) acquireLock(ctx context.Context) error {
	for attempt := 0; attempt < lockAttempts; attempt++ {
		f, err := os.OpenFile(s.lockPath(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			f.Close()
			return nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return types.NewAppError(types.ErrCodeStatePersist, "creating state lock file", err)
		}

		if info, statErr := os.Stat(s.lockPath()); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.Remove(s.lockPath())
			continue
		}

		select {
		case <-ctx.Done():
			return types.NewAppError(types.ErrCodeStatePersist, "waiting for state lock", ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
	return types.NewAppError(types.ErrCodeStateConflict,
		"state lock held by another invocation", nil)
}

func (s *FileStore) releaseLock() {
	os.Remove(s.lockPath())
}
