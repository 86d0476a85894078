package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/code-sigs/eureka-connector/pkg/connector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	t.Helper()
	mini := miniredis.RunT(t)
	client, err := NewRedisClient(context.Background(), &RedisConfig{Address: []string{mini.Addr()}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, mini
}

func TestNewRedisClientErrors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), &RedisConfig{})
	assert.Error(t, err)

	_, err = NewRedisClient(context.Background(), &RedisConfig{Address: []string{"127.0.0.1:1"}})
	assert.Error(t, err)
}

func TestSnapshotStore(t *testing.T) {
	client, mini := newTestClient(t)
	store := NewSnapshotStore(client, "eureka-connector:snapshot", time.Hour)
	ctx := context.Background()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)

	snap := &connector.Snapshot{
		Services: map[string][]connector.Endpoint{
			"USER-SERVICE": {{App: "USER-SERVICE", InstanceID: "user-1", HostName: "user-1.local", IPAddr: "10.0.0.1", Port: 9090, Status: connector.StatusUp}},
		},
		FetchedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, snap))
	assert.True(t, mini.Exists("eureka-connector:snapshot"))
	assert.Equal(t, time.Hour, mini.TTL("eureka-connector:snapshot"))

	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))
	assert.Equal(t, snap.Services, got.Services)

	require.NoError(t, store.Save(ctx, nil))
}

func TestSnapshotStoreCorrupt(t *testing.T) {
	client, mini := newTestClient(t)
	require.NoError(t, mini.Set("snap", "not json"))

	_, err := NewSnapshotStore(client, "snap", 0).Load(context.Background())
	assert.Error(t, err)
}

func TestSnapshotStoreUnavailable(t *testing.T) {
	client, mini := newTestClient(t)
	mini.Close()

	store := NewSnapshotStore(client, "snap", 0)
	assert.Error(t, store.Save(context.Background(), &connector.Snapshot{}))
	_, err := store.Load(context.Background())
	assert.Error(t, err)
	assert.False(t, IsNil(err))
}
