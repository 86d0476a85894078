package connector

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/connectivity"
)

func newTestManager(pub EventPublisher) *Manager {
	return NewManager(userConfig(), ManagerOptions{Logger: nopLogger(), Publisher: pub})
}

func TestManagerEnsureIdempotent(t *testing.T) {
	m := newTestManager(nil)
	defer m.Shutdown()
	ctx := context.Background()
	ep := Endpoint{App: "USER-SERVICE", InstanceID: "user-1", IPAddr: "10.0.0.1", Port: 9090, Status: StatusUp}

	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", ep))
	first, err := m.Get("USER-SERVICE")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1:9090", first.Target())
	assert.Equal(t, "UserService", first.Config().ServiceName)

	// 同一地址、不同实例信息也不会重建
	same := ep
	same.InstanceID = "user-1-renamed"
	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", same))
	second, err := m.Get("USER-SERVICE")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.NotEqual(t, connectivity.Shutdown, first.Conn().GetState())
}

func TestManagerEnsureReplaces(t *testing.T) {
	pub := &recordingPublisher{}
	m := newTestManager(pub)
	defer m.Shutdown()
	ctx := context.Background()
	a := Endpoint{App: "USER-SERVICE", IPAddr: "10.0.0.1", Port: 9090, Status: StatusUp}
	b := Endpoint{App: "USER-SERVICE", IPAddr: "10.0.0.2", Port: 9090, Status: StatusUp}

	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", a))
	old, err := m.Get("USER-SERVICE")
	require.NoError(t, err)

	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", b))
	current, err := m.Get("USER-SERVICE")
	require.NoError(t, err)
	assert.NotSame(t, old, current)
	assert.Equal(t, "10.0.0.2:9090", current.Target())
	assert.Equal(t, connectivity.Shutdown, old.Conn().GetState())

	events := pub.all()
	require.Len(t, events, 2)
	assert.Nil(t, events[0].Previous)
	assert.Equal(t, a, events[0].Current)
	require.NotNil(t, events[1].Previous)
	assert.Equal(t, a, *events[1].Previous)
	assert.Equal(t, b, events[1].Current)
}

func TestManagerUnconfigured(t *testing.T) {
	m := newTestManager(nil)
	defer m.Shutdown()

	err := m.Ensure(context.Background(), "BILLING-SERVICE", Endpoint{IPAddr: "10.0.0.1", Port: 1})
	assert.ErrorIs(t, err, ErrUnconfiguredService)
	_, err = m.Get("BILLING-SERVICE")
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.Empty(t, m.Bindings())
}

func TestManagerGet(t *testing.T) {
	m := newTestManager(nil)
	defer m.Shutdown()

	_, err := m.Get("USER-SERVICE")
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.Contains(t, err.Error(), "USER-SERVICE")

	require.NoError(t, m.Ensure(context.Background(), "USER-SERVICE", Endpoint{IPAddr: "10.0.0.1", Port: 9090}))
	c, err := m.Get("user-service")
	require.NoError(t, err)
	assert.Equal(t, "USER-SERVICE", c.Service())
}

func TestManagerGetCaseCollision(t *testing.T) {
	m := newTestManager(nil)
	defer m.Shutdown()
	ctx := context.Background()

	require.NoError(t, m.Ensure(ctx, "User-Service", Endpoint{IPAddr: "10.0.0.2", Port: 9090}))
	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", Endpoint{IPAddr: "10.0.0.1", Port: 9090}))
	require.NoError(t, m.Ensure(ctx, "user-SERVICE", Endpoint{IPAddr: "10.0.0.3", Port: 9090}))

	for i := 0; i < 50; i++ {
		c, err := m.Get("user-service")
		require.NoError(t, err)
		assert.Equal(t, "USER-SERVICE", c.Service())
	}
}

func TestManagerShutdown(t *testing.T) {
	m := newTestManager(nil)
	ctx := context.Background()
	require.NoError(t, m.Ensure(ctx, "USER-SERVICE", Endpoint{IPAddr: "10.0.0.1", Port: 9090}))
	c, err := m.Get("USER-SERVICE")
	require.NoError(t, err)

	m.Shutdown()
	m.Shutdown()

	assert.Equal(t, connectivity.Shutdown, c.Conn().GetState())
	_, err = m.Get("USER-SERVICE")
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.ErrorIs(t, m.Ensure(ctx, "USER-SERVICE", Endpoint{IPAddr: "10.0.0.2", Port: 9090}), ErrManagerClosed)
	assert.Empty(t, m.Bindings())
	assert.NoError(t, c.Close())
}

func TestManagerConcurrentReads(t *testing.T) {
	cfg := &Config{Apps: map[string]ServiceConfig{"A": {}, "B": {}}}
	m := NewManager(cfg.Service, ManagerOptions{Logger: nopLogger()})
	defer m.Shutdown()
	ctx := context.Background()
	require.NoError(t, m.Ensure(ctx, "A", Endpoint{IPAddr: "10.0.0.1", Port: 1}))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				c, err := m.Get("A")
				if assert.NoError(t, err) {
					assert.NotEmpty(t, c.Target())
				}
				_ = m.Bindings()
			}
		}()
	}
	for i := 0; i < 20; i++ {
		assert.NoError(t, m.Ensure(ctx, "A", Endpoint{IPAddr: "10.0.0.1", Port: uint16(i + 2)}))
		assert.NoError(t, m.Ensure(ctx, "B", Endpoint{IPAddr: "10.0.0.2", Port: uint16(i + 2)}))
	}
	close(stop)
	wg.Wait()
	assert.Len(t, m.Bindings(), 2)
}
