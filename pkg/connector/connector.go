// Package connector 基于 Eureka 注册中心发现服务实例，并为每个逻辑服务维护一个 gRPC 客户端。
//
// 后台定时拉取注册中心目录，过滤出带 gRPC_port 的实例，按策略在 UP 实例中选出一个，
// 地址变化时重建连接。调用方通过 GetClient / GetService 读取已建立的连接，不会阻塞在拉取上。
package connector

import (
	"context"
	"net/http"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/code-sigs/eureka-connector/pkg/registry"
	registryiface "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

type Connector struct {
	cfg        *Config
	log        *zap.Logger
	cache      *Cache
	discoverer *Discoverer
	manager    *Manager
	poller     *Poller
	owned      registryiface.Registry
}

// New 校验配置并组装各组件，不会访问注册中心
func New(cfg *Config, opts ...Option) (*Connector, error) {
	if cfg == nil {
		return nil, errs.WithCode(errs.New("config is required"), errs.ErrorArgs)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(o.registry != nil); err != nil {
		return nil, errs.WithCode(err, errs.ErrorArgs)
	}
	if o.log == nil {
		o.log = logger.L()
	}
	if o.clock == nil {
		o.clock = clockwork.NewRealClock()
	}
	if o.picker == nil {
		o.picker = NewPicker(cfg.Eureka.Strategy)
	}

	c := &Connector{cfg: cfg, log: o.log.Named("connector")}

	var source Source
	if cfg.Eureka.URL != "" {
		doer := o.httpClient
		if doer == nil {
			doer = &http.Client{Timeout: cfg.Eureka.Timeout}
		}
		source = &URLSource{URL: cfg.Eureka.URL, HTTP: doer}
	} else {
		reg := o.registry
		if reg == nil {
			var err error
			if reg, err = registry.NewRegistry(cfg.Eureka.Registry); err != nil {
				return nil, errs.Wrap(err, "create registry client")
			}
			c.owned = reg
		}
		source = &ClientSource{Registry: reg, Apps: cfg.Eureka.Apps}
	}

	c.cache = NewCache()
	c.discoverer = NewDiscoverer(source, DiscovererOptions{
		Processor: o.processor,
		Logger:    c.log,
		Clock:     o.clock,
		Debug:     cfg.Eureka.Debug,
	})
	c.manager = NewManager(cfg.Service, ManagerOptions{
		Logger:      c.log,
		Clock:       o.clock,
		DialOptions: o.dialOptions,
		Publisher:   o.publisher,
	})
	c.poller = NewPoller(c.discoverer, c.cache, o.picker, c.manager, PollerOptions{
		Interval: cfg.Eureka.PollInterval,
		Clock:    o.clock,
		Logger:   c.log,
		Store:    o.store,
	})
	return c, nil
}

// Start 同步完成第一次拉取和绑定后返回
func (c *Connector) Start(ctx context.Context) error {
	c.log.Info("connector starting",
		zap.String("source", c.discoverer.Source().Name()),
		zap.Duration("interval", c.cfg.Eureka.PollInterval),
		zap.String("strategy", c.cfg.Eureka.Strategy))
	return c.poller.Start(ctx)
}

// Refresh 立即执行一次完整周期
func (c *Connector) Refresh(ctx context.Context) error {
	return c.poller.RunOnce(ctx)
}

// Close 停止轮询并关闭所有连接
func (c *Connector) Close() error {
	c.poller.Stop()
	if c.owned != nil {
		return c.owned.Close()
	}
	return nil
}

// GetClient 返回服务当前绑定的客户端，未解析的服务返回 ErrClientNotFound
func (c *Connector) GetClient(name string) (*Client, error) {
	return c.manager.Get(name)
}

// GetService 返回服务的 stub，protoService 缺省时依次使用配置的 serviceName 和 name
func (c *Connector) GetService(name string, protoService ...string) (*Stub, error) {
	client, err := c.manager.Get(name)
	if err != nil {
		return nil, err
	}
	svc := ""
	if len(protoService) > 0 {
		svc = protoService[0]
	}
	if svc == "" {
		svc = client.Config().ServiceName
	}
	if svc == "" {
		svc = name
	}
	return client.GetService(svc)
}

// Snapshot 当前快照副本
func (c *Connector) Snapshot() *Snapshot {
	return c.cache.Snapshot()
}

func (c *Connector) Bindings() []Binding {
	return c.manager.Bindings()
}

func (c *Connector) Config() *Config {
	return c.cfg
}
