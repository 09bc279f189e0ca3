package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/zeebo/xxh3"

	"github.com/arloliu/vigil/internal/kvutil"
	"github.com/arloliu/vigil/internal/logging"
	"github.com/arloliu/vigil/internal/metrics"
	"github.com/arloliu/vigil/types"
)

const (
	kvRecordPrefix = "hb."
	kvMetaKey      = "meta"
)

// KVStore implements types.HeartbeatStore on a NATS JetStream KeyValue bucket.
//
// Record keys are "hb.<hash>" where <hash> is the xxh3 of the session ID,
// keeping keys within the KV key charset regardless of the caller's ID
// format. The record value carries the full Instance as JSON. Shared
// metadata lives under the "meta" key.
//
// KV puts are individually atomic, so the store needs no additional
// coordination between processes.
type KVStore struct {
	kv      jetstream.KeyValue
	logger  types.Logger
	metrics types.MetricsCollector
}

// Compile-time assertion that KVStore implements HeartbeatStore.
var _ types.HeartbeatStore = (*KVStore)(nil)

// KVStoreOption configures a KVStore.
type KVStoreOption func(*KVStore)

// WithKVStoreLogger sets the logger for store-level diagnostics.
func WithKVStoreLogger(logger types.Logger) KVStoreOption {
	return func(s *KVStore) {
		s.logger = logger
	}
}

// WithKVStoreMetrics sets the metrics collector for store operation latency.
func WithKVStoreMetrics(collector types.MetricsCollector) KVStoreOption {
	return func(s *KVStore) {
		s.metrics = collector
	}
}

// NewKVStore creates a heartbeat store backed by an existing KV bucket.
//
// Parameters:
//   - kv: JetStream KV bucket shared by all monitored processes
//   - opts: Optional logger and metrics configuration
//
// Returns:
//   - *KVStore: New store instance
func NewKVStore(kv jetstream.KeyValue, opts ...KVStoreOption) *KVStore {
	s := &KVStore{
		kv:      kv,
		logger:  logging.NewNop(),
		metrics: metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewKVStoreFromJetStream creates or opens the named KV bucket and returns a
// store backed by it. Processes racing to create the bucket are handled.
//
// Parameters:
//   - ctx: Context for bucket creation
//   - js: JetStream context
//   - bucket: Bucket name shared by all monitored processes
//   - opts: Optional logger and metrics configuration
//
// Returns:
//   - *KVStore: New store instance
//   - error: Bucket creation/open failure
//
// Example:
//
//	js, _ := jetstream.New(nc)
//	st, err := store.NewKVStoreFromJetStream(ctx, js, "vigil-heartbeats")
func NewKVStoreFromJetStream(ctx context.Context, js jetstream.JetStream, bucket string, opts ...KVStoreOption) (*KVStore, error) {
	kv, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "vigil heartbeat records",
		Storage:     jetstream.FileStorage,
	}, 3)
	if err != nil {
		return nil, fmt.Errorf("failed to open heartbeat bucket: %w", err)
	}

	return NewKVStore(kv, opts...), nil
}

// SendHeartbeat upserts the instance's record with the given timestamp.
func (s *KVStore) SendHeartbeat(ctx context.Context, sessionID string, at time.Time, meta types.HeartbeatMetadata) error {
	defer s.observe("heartbeat", time.Now())

	record := types.Instance{
		SessionID:     sessionID,
		LastHeartbeat: at.UnixMilli(),
		IsDebug:       meta.IsDebug,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	if _, err := s.kv.Put(ctx, recordKey(sessionID), data); err != nil {
		return fmt.Errorf("failed to write heartbeat for session %s: %w", sessionID, err)
	}

	return nil
}

// ListInstances returns all instance records in the bucket.
//
// Keys outside the record namespace, unparseable values, and records
// deleted between listing and reading are skipped. An empty bucket yields
// an empty result.
func (s *KVStore) ListInstances(ctx context.Context) ([]types.Instance, error) {
	defer s.observe("list", time.Now())

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil, nil
		}
		s.logger.Warn("failed to list heartbeat keys, treating as empty", "error", err)

		return nil, nil
	}

	var instances []types.Instance

	for _, key := range keys {
		if !strings.HasPrefix(key, kvRecordPrefix) {
			continue
		}

		entry, err := s.kv.Get(ctx, key)
		if err != nil {
			// Removed between Keys and Get.
			continue
		}

		var inst types.Instance
		if err := json.Unmarshal(entry.Value(), &inst); err != nil || inst.SessionID == "" {
			s.logger.Debug("ignoring unrecognized heartbeat entry", "key", key)
			continue
		}

		instances = append(instances, inst)
	}

	return instances, nil
}

// RemoveInstance deletes one instance's record. Absent records are a no-op.
func (s *KVStore) RemoveInstance(ctx context.Context, sessionID string) error {
	defer s.observe("remove", time.Now())

	err := s.kv.Purge(ctx, recordKey(sessionID))
	if err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove record for session %s: %w", sessionID, err)
	}

	return nil
}

// ClearAll purges every record and the shared metadata.
func (s *KVStore) ClearAll(ctx context.Context) error {
	defer s.observe("clear", time.Now())

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		if errors.Is(err, jetstream.ErrNoKeysFound) {
			return nil
		}

		return fmt.Errorf("failed to list heartbeat keys: %w", err)
	}

	var firstErr error

	for _, key := range keys {
		if !strings.HasPrefix(key, kvRecordPrefix) && key != kvMetaKey {
			continue
		}
		if err := s.kv.Purge(ctx, key); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Meta returns the shared metadata, or the zero Meta if none exists yet.
func (s *KVStore) Meta(ctx context.Context) (types.Meta, error) {
	defer s.observe("meta", time.Now())

	entry, err := s.kv.Get(ctx, kvMetaKey)
	if err != nil {
		return types.Meta{}, nil
	}

	var meta types.Meta
	if err := json.Unmarshal(entry.Value(), &meta); err != nil {
		s.logger.Debug("ignoring corrupt store metadata", "error", err)

		return types.Meta{}, nil
	}

	return meta, nil
}

// PutMeta overwrites the shared metadata.
func (s *KVStore) PutMeta(ctx context.Context, meta types.Meta) error {
	defer s.observe("meta", time.Now())

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	if _, err := s.kv.Put(ctx, kvMetaKey, data); err != nil {
		return fmt.Errorf("failed to write store metadata: %w", err)
	}

	return nil
}

// recordKey returns the KV key for a session's record. The ID is hashed
// because KV keys allow a restricted character set.
func recordKey(sessionID string) string {
	return fmt.Sprintf("%s%016x", kvRecordPrefix, xxh3.HashString(sessionID))
}

func (s *KVStore) observe(op string, start time.Time) {
	s.metrics.RecordStoreOperation(op, time.Since(start).Seconds())
}
