package store_test

import (
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/vigil/store"
	vigiltest "github.com/arloliu/vigil/testing"
	"github.com/arloliu/vigil/types"
)

func newKVStore(t *testing.T, bucket string) *store.KVStore {
	t.Helper()

	_, nc := vigiltest.StartEmbeddedNATS(t)
	kv := vigiltest.CreateJetStreamKV(t, nc, bucket)

	return store.NewKVStore(kv, store.WithKVStoreLogger(vigiltest.NewTestLogger(t)))
}

func TestKVStore_SendHeartbeat(t *testing.T) {
	t.Run("writes and upserts records", func(t *testing.T) {
		ctx := t.Context()
		st := newKVStore(t, "test-kv-hb")

		first := time.Now()
		require.NoError(t, st.SendHeartbeat(ctx, "session-a", first, types.HeartbeatMetadata{}))
		require.NoError(t, st.SendHeartbeat(ctx, "session-b", first, types.HeartbeatMetadata{IsDebug: true}))
		require.NoError(t, st.SendHeartbeat(ctx, "session-a", first.Add(time.Second), types.HeartbeatMetadata{}))

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 2)

		byID := make(map[string]types.Instance)
		for _, inst := range instances {
			byID[inst.SessionID] = inst
		}
		require.Equal(t, first.Add(time.Second).UnixMilli(), byID["session-a"].LastHeartbeat)
		require.True(t, byID["session-b"].IsDebug)
	})
}

func TestKVStore_ListInstances(t *testing.T) {
	t.Run("empty bucket yields empty result", func(t *testing.T) {
		st := newKVStore(t, "test-kv-empty")

		instances, err := st.ListInstances(t.Context())
		require.NoError(t, err)
		require.Empty(t, instances)
	})

	t.Run("ignores keys outside the record namespace", func(t *testing.T) {
		ctx := t.Context()
		_, nc := vigiltest.StartEmbeddedNATS(t)
		kv := vigiltest.CreateJetStreamKV(t, nc, "test-kv-foreign")
		st := store.NewKVStore(kv)

		require.NoError(t, st.SendHeartbeat(ctx, "session-a", time.Now(), types.HeartbeatMetadata{}))
		_, err := kv.Put(ctx, "unrelated-key", []byte("hello"))
		require.NoError(t, err)
		_, err = kv.Put(ctx, "hb.garbage", []byte("{not json"))
		require.NoError(t, err)

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
		require.Equal(t, "session-a", instances[0].SessionID)
	})
}

func TestKVStore_RemoveInstance(t *testing.T) {
	t.Run("removes one record and tolerates absent records", func(t *testing.T) {
		ctx := t.Context()
		st := newKVStore(t, "test-kv-remove")

		require.NoError(t, st.SendHeartbeat(ctx, "session-a", time.Now(), types.HeartbeatMetadata{}))
		require.NoError(t, st.RemoveInstance(ctx, "session-a"))
		require.NoError(t, st.RemoveInstance(ctx, "session-a"))
		require.NoError(t, st.RemoveInstance(ctx, "never-registered"))

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Empty(t, instances)
	})
}

func TestKVStore_ClearAll(t *testing.T) {
	t.Run("wipes records and metadata", func(t *testing.T) {
		ctx := t.Context()
		st := newKVStore(t, "test-kv-clear")

		require.NoError(t, st.SendHeartbeat(ctx, "session-a", time.Now(), types.HeartbeatMetadata{}))
		require.NoError(t, st.SendHeartbeat(ctx, "session-b", time.Now(), types.HeartbeatMetadata{}))
		require.NoError(t, st.PutMeta(ctx, types.Meta{LastCheckMillis: 42}))

		require.NoError(t, st.ClearAll(ctx))

		instances, err := st.ListInstances(ctx)
		require.NoError(t, err)
		require.Empty(t, instances)

		meta, err := st.Meta(ctx)
		require.NoError(t, err)
		require.Zero(t, meta)
	})
}

func TestKVStore_Meta(t *testing.T) {
	t.Run("round-trips shared metadata", func(t *testing.T) {
		ctx := t.Context()
		st := newKVStore(t, "test-kv-meta")

		want := types.Meta{LastCheckMillis: time.Now().UnixMilli(), Epoch: "174000000"}
		require.NoError(t, st.PutMeta(ctx, want))

		got, err := st.Meta(ctx)
		require.NoError(t, err)
		require.Equal(t, want, got)
	})

	t.Run("missing metadata yields zero value", func(t *testing.T) {
		st := newKVStore(t, "test-kv-meta-missing")

		meta, err := st.Meta(t.Context())
		require.NoError(t, err)
		require.Zero(t, meta)
	})
}

func TestNewKVStoreFromJetStream(t *testing.T) {
	t.Run("creates the bucket and survives a create race", func(t *testing.T) {
		ctx := t.Context()
		_, nc := vigiltest.StartEmbeddedNATS(t)

		js, err := jetstream.New(nc)
		require.NoError(t, err)

		a, err := store.NewKVStoreFromJetStream(ctx, js, "vigil-race")
		require.NoError(t, err)

		// Second process opening the same bucket.
		b, err := store.NewKVStoreFromJetStream(ctx, js, "vigil-race")
		require.NoError(t, err)

		require.NoError(t, a.SendHeartbeat(ctx, "session-a", time.Now(), types.HeartbeatMetadata{}))

		instances, err := b.ListInstances(ctx)
		require.NoError(t, err)
		require.Len(t, instances, 1)
	})
}
