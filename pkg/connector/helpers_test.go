package connector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/code-sigs/eureka-connector/pkg/eureka"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newInstance(app, id, ip, status, grpcPort string) *eureka.Instance {
	inst := &eureka.Instance{
		InstanceID: id,
		HostName:   id + ".local",
		App:        app,
		IPAddr:     ip,
		Status:     status,
		Port:       &eureka.Port{Port: 8080, Enabled: true},
		Metadata:   eureka.Metadata{},
	}
	if grpcPort != "" {
		inst.Metadata[GRPCPortKey] = grpcPort
	}
	return inst
}

func userService(statuses ...string) *eureka.Application {
	app := &eureka.Application{Name: "USER-SERVICE"}
	ips := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	ports := []string{"9090", "9090", "9091"}
	for i, st := range statuses {
		app.Instances = append(app.Instances, newInstance("USER-SERVICE", "user-"+string(rune('1'+i)), ips[i], st, ports[i]))
	}
	return app
}

// fakeEureka 可在测试中修改响应内容的目录服务
type fakeEureka struct {
	mu     sync.Mutex
	body   []byte
	status int
	hits   atomic.Int32
	srv    *httptest.Server
}

func newFakeEureka(t *testing.T, apps ...*eureka.Application) *fakeEureka {
	t.Helper()
	f := &fakeEureka{status: http.StatusOK}
	f.setApps(t, apps...)
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		f.mu.Lock()
		status, body := f.status, f.body
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeEureka) setApps(t *testing.T, apps ...*eureka.Application) {
	t.Helper()
	body, err := eureka.EncodeJSON(&eureka.Applications{Applications: apps})
	require.NoError(t, err)
	f.mu.Lock()
	f.body, f.status = body, http.StatusOK
	f.mu.Unlock()
}

func (f *fakeEureka) setRaw(status int, body string) {
	f.mu.Lock()
	f.body, f.status = []byte(body), status
	f.mu.Unlock()
}

func (f *fakeEureka) url() string {
	return f.srv.URL + "/eureka/apps"
}

func (f *fakeEureka) source() *URLSource {
	return &URLSource{URL: f.url(), HTTP: f.srv.Client()}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*BindingEvent
}

func (p *recordingPublisher) Publish(_ context.Context, ev *BindingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) all() []*BindingEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*BindingEvent(nil), p.events...)
}

type memoryStore struct {
	mu    sync.Mutex
	snap  *Snapshot
	saves int
}

func (s *memoryStore) Save(_ context.Context, snap *Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap.clone()
	s.saves++
	return nil
}

func (s *memoryStore) Load(context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone(), nil
}

func userConfig() ServiceLookup {
	cfg := &Config{Apps: map[string]ServiceConfig{
		"user-service": {Package: "user", ProtoPath: "proto/user.pb", ServiceName: "UserService"},
	}}
	return cfg.Service
}

func nopLogger() *zap.Logger {
	return zap.NewNop()
}
