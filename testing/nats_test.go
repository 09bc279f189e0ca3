package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartEmbeddedNATS(t *testing.T) {
	ns, nc := StartEmbeddedNATS(t)

	require.NotNil(t, ns)
	require.NotNil(t, nc)
	require.True(t, nc.IsConnected())

	// Verify server is running
	require.True(t, ns.ReadyForConnections(1*time.Second))
}

func TestCreateJetStreamKV(t *testing.T) {
	_, nc := StartEmbeddedNATS(t)
	kv := CreateJetStreamKV(t, nc, "test-bucket")

	ctx := t.Context()
	_, err := kv.Put(ctx, "key", []byte("value"))
	require.NoError(t, err)

	entry, err := kv.Get(ctx, "key")
	require.NoError(t, err)
	require.Equal(t, []byte("value"), entry.Value())
}
