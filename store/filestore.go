package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/arloliu/vigil/internal/logging"
	"github.com/arloliu/vigil/internal/metrics"
	"github.com/arloliu/vigil/types"
)

const (
	recordPrefix = "hb-"
	recordSuffix = ".json"
	metaFileName = "meta.json"
	tmpSuffix    = ".tmp"

	dirPerm  = 0o755
	filePerm = 0o644
)

// FileStore implements types.HeartbeatStore on a shared state directory.
//
// Layout: one "hb-<hash>.json" file per instance, where <hash> is the xxh3
// of the session ID (session IDs are opaque caller-supplied strings and may
// contain characters that are not filesystem-safe), plus a "meta.json"
// holding the shared metadata.
//
// Writes go to a temp file in the same directory followed by an os.Rename,
// so a concurrent reader in another process never observes a half-written
// record. Unrecognized files in the directory are ignored on read.
type FileStore struct {
	dir     string
	logger  types.Logger
	metrics types.MetricsCollector
}

// Compile-time assertion that FileStore implements HeartbeatStore.
var _ types.HeartbeatStore = (*FileStore)(nil)

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithFileStoreLogger sets the logger for store-level diagnostics.
func WithFileStoreLogger(logger types.Logger) FileStoreOption {
	return func(s *FileStore) {
		s.logger = logger
	}
}

// WithFileStoreMetrics sets the metrics collector for store operation latency.
func WithFileStoreMetrics(collector types.MetricsCollector) FileStoreOption {
	return func(s *FileStore) {
		s.metrics = collector
	}
}

// NewFileStore creates a file-backed heartbeat store rooted at dir.
//
// The directory is created if it does not exist. Multiple processes may
// open the same directory concurrently; no cross-process locking is used.
//
// Parameters:
//   - dir: Shared state directory
//   - opts: Optional logger and metrics configuration
//
// Returns:
//   - *FileStore: New store instance
//   - error: Directory creation failure
//
// Example:
//
//	st, err := store.NewFileStore(filepath.Join(cacheDir, "crash-monitoring"))
func NewFileStore(dir string, opts ...FileStoreOption) (*FileStore, error) {
	s := &FileStore{
		dir:     dir,
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("failed to create state directory %s: %w", dir, err)
	}

	return s, nil
}

// Dir returns the store's state directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// SendHeartbeat upserts the instance's record with the given timestamp.
func (s *FileStore) SendHeartbeat(_ context.Context, sessionID string, at time.Time, meta types.HeartbeatMetadata) error {
	defer s.observe("heartbeat", time.Now())

	record := types.Instance{
		SessionID:     sessionID,
		LastHeartbeat: at.UnixMilli(),
		IsDebug:       meta.IsDebug,
	}

	return s.writeAtomic(s.recordPath(sessionID), record)
}

// ListInstances returns all instance records found in the state directory.
//
// Files that are not instance records, fail to parse, or lack a session ID
// are skipped; a missing directory yields an empty result. Read failures on
// the directory itself degrade to an empty result as well, since monitoring
// is best-effort and will retry on the next tick.
func (s *FileStore) ListInstances(_ context.Context) ([]types.Instance, error) {
	defer s.observe("list", time.Now())

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		s.logger.Warn("failed to read state directory, treating as empty", "dir", s.dir, "error", err)

		return nil, nil
	}

	var instances []types.Instance

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, recordPrefix) || !strings.HasSuffix(name, recordSuffix) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, name))
		if err != nil {
			// Record may have been removed between ReadDir and ReadFile.
			continue
		}

		var inst types.Instance
		if err := json.Unmarshal(data, &inst); err != nil || inst.SessionID == "" {
			s.logger.Debug("ignoring unrecognized entry in state directory", "file", name)
			continue
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

// RemoveInstance deletes one instance's record. Absent records are a no-op.
func (s *FileStore) RemoveInstance(_ context.Context, sessionID string) error {
	defer s.observe("remove", time.Now())

	err := os.Remove(s.recordPath(sessionID))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove record for session %s: %w", sessionID, err)
	}

	return nil
}

// ClearAll wipes every record and the shared metadata, leaving the directory
// itself in place. Files that do not belong to the store are left untouched.
func (s *FileStore) ClearAll(_ context.Context) error {
	defer s.observe("clear", time.Now())

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}

		return fmt.Errorf("failed to read state directory %s: %w", s.dir, err)
	}

	var firstErr error

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !s.ownsFile(name) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Meta returns the shared metadata, or the zero Meta if none exists yet or
// the file is unreadable.
func (s *FileStore) Meta(_ context.Context) (types.Meta, error) {
	defer s.observe("meta", time.Now())

	data, err := os.ReadFile(filepath.Join(s.dir, metaFileName))
	if err != nil {
		return types.Meta{}, nil
	}

	var meta types.Meta
	if err := json.Unmarshal(data, &meta); err != nil {
		s.logger.Debug("ignoring corrupt store metadata", "error", err)

		return types.Meta{}, nil
	}

	return meta, nil
}

// PutMeta overwrites the shared metadata.
func (s *FileStore) PutMeta(_ context.Context, meta types.Meta) error {
	defer s.observe("meta", time.Now())

	return s.writeAtomic(filepath.Join(s.dir, metaFileName), meta)
}

// writeAtomic marshals v and writes it via temp-file-then-rename so readers
// in other processes never see a partial record.
func (s *FileStore) writeAtomic(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	// Temp file must live in the same directory for the rename to be atomic.
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+tmpSuffix)
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to close temp record: %w", err)
	}

	if err := os.Chmod(tmp.Name(), filePerm); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to set record permissions: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())

		return fmt.Errorf("failed to commit record %s: %w", path, err)
	}

	return nil
}

// recordPath returns the record file path for a session ID. The ID is
// hashed because it is caller-supplied and may not be filesystem-safe.
func (s *FileStore) recordPath(sessionID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s%016x%s", recordPrefix, xxh3.HashString(sessionID), recordSuffix))
}

// ownsFile reports whether a directory entry belongs to this store.
func (s *FileStore) ownsFile(name string) bool {
	if name == metaFileName {
		return true
	}
	if strings.HasPrefix(name, recordPrefix) && strings.HasSuffix(name, recordSuffix) {
		return true
	}

	// Leftover temp files from interrupted writes.
	return strings.Contains(name, tmpSuffix)
}

func (s *FileStore) observe(op string, start time.Time) {
	s.metrics.RecordStoreOperation(op, time.Since(start).Seconds())
}
