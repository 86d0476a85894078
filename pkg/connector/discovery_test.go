package connector

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/eureka"
	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/code-sigs/eureka-connector/pkg/registry/memory"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func serveFile(t *testing.T, name, contentType string) *httptest.Server {
	t.Helper()
	body, err := os.ReadFile(filepath.Join("..", "eureka", "testdata", name))
	require.NoError(t, err)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRefreshURLSource(t *testing.T) {
	srv := serveFile(t, "apps.json", "application/json")
	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	d := NewDiscoverer(&URLSource{URL: srv.URL, HTTP: srv.Client()}, DiscovererOptions{Logger: nopLogger(), Clock: clock})

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, clock.Now(), snap.FetchedAt)

	// CONFIG-SERVER 没有 gRPC_port，不应出现在快照中
	assert.Equal(t, []string{"USER-SERVICE"}, snap.Names())
	eps := snap.Services["USER-SERVICE"]
	require.Len(t, eps, 3)
	assert.Equal(t, "10.0.0.1:9090", eps[0].Addr())
	assert.Equal(t, "10.0.0.2:9090", eps[1].Addr())
	assert.Equal(t, StatusDown, eps[2].Status)
}

func TestRefreshURLSourceXML(t *testing.T) {
	srv := serveFile(t, "apps.xml", "application/xml; charset=utf-8")
	d := NewDiscoverer(&URLSource{URL: srv.URL, HTTP: srv.Client()}, DiscovererOptions{Logger: nopLogger()})

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)
	require.Contains(t, snap.Services, "ORDER-SERVICE")
	eps := snap.Services["ORDER-SERVICE"]
	require.Len(t, eps, 1)
	assert.Equal(t, uint16(9095), eps[0].Port)
}

func TestRefreshURLSourceErrors(t *testing.T) {
	f := newFakeEureka(t)
	d := NewDiscoverer(f.source(), DiscovererOptions{Logger: nopLogger()})

	f.setRaw(http.StatusServiceUnavailable, `{"error":"down"}`)
	_, err := d.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDiscovery)

	f.setRaw(http.StatusOK, `{"applications":`)
	_, err = d.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDiscovery)

	f.setRaw(http.StatusOK, ``)
	_, err = d.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.ErrorIs(t, err, eureka.ErrEmptyDocument)

	bad := NewDiscoverer(&URLSource{URL: "http://127.0.0.1:1/eureka/apps"}, DiscovererOptions{Logger: nopLogger()})
	_, err = bad.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrDiscovery)
}

func TestRefreshOmitsEmptyApps(t *testing.T) {
	f := newFakeEureka(t,
		userService("UP", "DOWN"),
		&eureka.Application{Name: "EMPTY-SERVICE"},
		&eureka.Application{Name: "NO-GRPC", Instances: []*eureka.Instance{newInstance("NO-GRPC", "n1", "10.0.9.1", "UP", "")}},
	)
	d := NewDiscoverer(f.source(), DiscovererOptions{Logger: nopLogger()})

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"USER-SERVICE"}, snap.Names())
	assert.Len(t, snap.Services["USER-SERVICE"], 2)
}

func TestRefreshCustomProcessor(t *testing.T) {
	f := newFakeEureka(t, userService("UP", "UP", "UP"))
	onlyFirst := func(inst *eureka.Instance, app *eureka.Application) (Endpoint, bool) {
		if inst.InstanceID != "user-1" {
			return Endpoint{}, false
		}
		return DefaultInstanceProcessor(inst, app)
	}
	d := NewDiscoverer(f.source(), DiscovererOptions{Logger: nopLogger(), Processor: onlyFirst})

	snap, err := d.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Services["USER-SERVICE"], 1)
	assert.Equal(t, "user-1", snap.Services["USER-SERVICE"][0].InstanceID)
}

func TestRefreshDebugLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	f := newFakeEureka(t, userService("UP", "UP", "DOWN"), &eureka.Application{Name: "EMPTY-SERVICE"})
	d := NewDiscoverer(f.source(), DiscovererOptions{Logger: zap.New(core), Debug: true})

	_, err := d.Refresh(context.Background())
	require.NoError(t, err)

	perApp := logs.FilterMessage("discovered app").All()
	require.Len(t, perApp, 2)
	assert.Equal(t, "USER-SERVICE", perApp[0].ContextMap()["app"])
	assert.Equal(t, int64(3), perApp[0].ContextMap()["instances"])
	summary := logs.FilterMessage("discovery finished").All()
	require.Len(t, summary, 1)
	assert.Equal(t, int64(2), summary[0].ContextMap()["apps"])
}

func TestRefreshDebugDisabled(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	f := newFakeEureka(t, userService("UP"))
	d := NewDiscoverer(f.source(), DiscovererOptions{Logger: zap.New(core)})

	_, err := d.Refresh(context.Background())
	require.NoError(t, err)
	assert.Zero(t, logs.Len())
}

func TestRefreshClientSource(t *testing.T) {
	reg := memory.NewMemoryRegistry()
	ctx := context.Background()
	for _, inst := range userService("UP", "UP", "DOWN").Instances {
		require.NoError(t, reg.Register(ctx, &registry.ServiceInfo{Name: "USER-SERVICE", Instance: inst}))
	}
	require.NoError(t, reg.Register(ctx, &registry.ServiceInfo{
		Name:     "ORDER-SERVICE",
		Instance: newInstance("ORDER-SERVICE", "order-1", "10.0.2.1", "UP", ""),
	}))

	d := NewDiscoverer(&ClientSource{Registry: reg, Apps: []string{"USER-SERVICE", "ORDER-SERVICE", "MISSING"}}, DiscovererOptions{Logger: nopLogger()})
	assert.Equal(t, "client:memory", d.Source().Name())

	snap, err := d.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"USER-SERVICE"}, snap.Names())
	assert.Len(t, snap.Services["USER-SERVICE"], 3)
}

type failingRegistry struct {
	*memory.MemoryRegistry
	fail string
}

func (r *failingRegistry) GetServiceInstances(ctx context.Context, name string) ([]*registry.ServiceInstance, error) {
	if name == r.fail {
		return nil, errors.New("backend unavailable")
	}
	return r.MemoryRegistry.GetServiceInstances(ctx, name)
}

func TestRefreshClientSourceAllOrNothing(t *testing.T) {
	reg := &failingRegistry{MemoryRegistry: memory.NewMemoryRegistry(), fail: "ORDER-SERVICE"}
	inst := newInstance("USER-SERVICE", "user-1", "10.0.0.1", "UP", "9090")
	require.NoError(t, reg.Register(context.Background(), &registry.ServiceInfo{Name: "USER-SERVICE", Instance: inst}))

	d := NewDiscoverer(&ClientSource{Registry: reg, Apps: []string{"USER-SERVICE", "ORDER-SERVICE"}}, DiscovererOptions{Logger: nopLogger()})
	snap, err := d.Refresh(context.Background())
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrDiscovery)
	assert.Contains(t, err.Error(), "ORDER-SERVICE")
}
