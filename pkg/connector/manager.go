package connector

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/code-sigs/eureka-connector/pkg/grpc/rpc"
	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/code-sigs/eureka-connector/pkg/trace"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

// Binding 服务当前绑定的实例
type Binding struct {
	Service  string    `json:"service"`
	Endpoint Endpoint  `json:"endpoint"`
	Client   *Client   `json:"-"`
	BoundAt  time.Time `json:"boundAt"`
}

// BindingEvent 绑定发生变化时发布
type BindingEvent struct {
	Service  string    `json:"service"`
	Previous *Endpoint `json:"previous,omitempty"`
	Current  Endpoint  `json:"current"`
	BoundAt  time.Time `json:"boundAt"`
	TraceID  string    `json:"traceId,omitempty"`
}

// EventPublisher 发布绑定变化事件，失败只记录日志
type EventPublisher interface {
	Publish(ctx context.Context, ev *BindingEvent) error
}

// ServiceLookup 按服务名查找静态配置
type ServiceLookup func(name string) (ServiceConfig, bool)

type ManagerOptions struct {
	Logger      *zap.Logger
	Clock       clockwork.Clock
	DialOptions []grpc.DialOption
	Publisher   EventPublisher
	Descriptors *DescriptorCache
}

// Manager 每个逻辑服务维护一个 Client，实例变化时重建
type Manager struct {
	lookup      ServiceLookup
	log         *zap.Logger
	clock       clockwork.Clock
	dialOpts    []grpc.DialOption
	publisher   EventPublisher
	descriptors *DescriptorCache

	mu       sync.RWMutex
	bindings map[string]*Binding
	closed   bool
}

func NewManager(lookup ServiceLookup, opt ManagerOptions) *Manager {
	m := &Manager{
		lookup:      lookup,
		log:         opt.Logger,
		clock:       opt.Clock,
		dialOpts:    opt.DialOptions,
		publisher:   opt.Publisher,
		descriptors: opt.Descriptors,
		bindings:    make(map[string]*Binding),
	}
	if m.log == nil {
		m.log = logger.L()
	}
	if m.clock == nil {
		m.clock = clockwork.NewRealClock()
	}
	if m.descriptors == nil {
		m.descriptors = NewDescriptorCache()
	}
	return m
}

// Ensure 保证 service 绑定到 ep，地址相同时不做任何事
func (m *Manager) Ensure(ctx context.Context, service string, ep Endpoint) error {
	sc, ok := m.lookup(service)
	if !ok {
		return errs.Wrapf(ErrUnconfiguredService, "service %s", service)
	}

	m.mu.RLock()
	closed, current := m.closed, m.bindings[service]
	m.mu.RUnlock()
	if closed {
		return ErrManagerClosed
	}
	if current != nil && current.Endpoint.Addr() == ep.Addr() {
		return nil
	}

	conn, err := rpc.NewGRPCConn(ctx, ep.Addr(), m.dialOpts...)
	if err != nil {
		return errs.Wrapf(err, "dial %s for %s", ep.Addr(), service)
	}
	now := m.clock.Now()
	client := &Client{
		service:     service,
		endpoint:    ep,
		config:      sc,
		conn:        conn,
		descriptors: m.descriptors,
		boundAt:     now,
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		_ = client.Close()
		return ErrManagerClosed
	}
	prev := m.bindings[service]
	m.bindings[service] = &Binding{Service: service, Endpoint: ep, Client: client, BoundAt: now}
	m.mu.Unlock()

	log := logger.WithTrace(ctx, m.log)
	ev := &BindingEvent{Service: service, Current: ep, BoundAt: now, TraceID: trace.GetTraceID(ctx)}
	if prev != nil {
		prevEp := prev.Endpoint
		ev.Previous = &prevEp
		if err := prev.Client.Close(); err != nil {
			log.Warn("close previous client failed", zap.String("service", service), zap.String("addr", prevEp.Addr()), zap.Error(err))
		}
	}
	log.Info("client bound", zap.String("service", service), zap.String("addr", ep.Addr()), zap.String("instance", ep.InstanceID))

	if m.publisher != nil {
		if err := m.publisher.Publish(ctx, ev); err != nil {
			log.Warn("publish binding event failed", zap.String("service", service), zap.Error(err))
		}
	}
	return nil
}

// Get 只读取已建立的绑定，不做任何 I/O
func (m *Manager) Get(service string) (*Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if b, ok := m.bindings[service]; ok {
		return b.Client, nil
	}
	// 仅大小写不同的多个绑定取字典序最小者
	var match *Binding
	for name, b := range m.bindings {
		if strings.EqualFold(name, service) && (match == nil || name < match.Service) {
			match = b
		}
	}
	if match != nil {
		return match.Client, nil
	}
	return nil, errs.Wrapf(ErrClientNotFound, "service %s", service)
}

// Bindings 按服务名排序返回当前绑定的副本
func (m *Manager) Bindings() []Binding {
	m.mu.RLock()
	out := make([]Binding, 0, len(m.bindings))
	for _, b := range m.bindings {
		out = append(out, *b)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Service < out[j].Service })
	return out
}

// Shutdown 关闭所有连接，之后的 Ensure 返回 ErrManagerClosed
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	bindings := m.bindings
	m.bindings = make(map[string]*Binding)
	m.mu.Unlock()

	for service, b := range bindings {
		if err := b.Client.Close(); err != nil {
			m.log.Warn("close client failed", zap.String("service", service), zap.Error(err))
		}
	}
}
