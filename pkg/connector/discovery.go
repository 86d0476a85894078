package connector

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/code-sigs/eureka-connector/pkg/eureka"
	"github.com/code-sigs/eureka-connector/pkg/logger"
	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxDocumentSize 目录文档的最大长度
const maxDocumentSize = 32 << 20

// HTTPDoer 发送 HTTP 请求，*http.Client 满足该接口
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Source 注册中心数据源，只有 URLSource 和 ClientSource 两种实现
type Source interface {
	Name() string
	discover(ctx context.Context) ([]*eureka.Application, error)
}

// URLSource 通过 HTTP 拉取 /eureka/apps 目录文档
type URLSource struct {
	URL  string
	HTTP HTTPDoer
}

func (s *URLSource) Name() string {
	return "url"
}

func (s *URLSource) discover(ctx context.Context) ([]*eureka.Application, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	doer := s.HTTP
	if doer == nil {
		doer = http.DefaultClient
	}
	resp, err := doer.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, s.URL)
	}
	apps, err := eureka.Decode(resp.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}
	return apps.Applications, nil
}

// ClientSource 通过注册中心客户端按应用名逐个查询
type ClientSource struct {
	Registry registry.Registry
	Apps     []string
}

func (s *ClientSource) Name() string {
	return "client:" + s.Registry.Name()
}

// discover 并发查询所有应用，任意一个失败则整体失败
func (s *ClientSource) discover(ctx context.Context) ([]*eureka.Application, error) {
	apps := make([]*eureka.Application, len(s.Apps))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range s.Apps {
		g.Go(func() error {
			instances, err := s.Registry.GetServiceInstances(gctx, name)
			if err != nil {
				return fmt.Errorf("query %s: %w", name, err)
			}
			apps[i] = &eureka.Application{Name: name, Instances: instances}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return apps, nil
}

// DiscovererOptions Discoverer 的可选参数
type DiscovererOptions struct {
	Processor InstanceProcessor
	Logger    *zap.Logger
	Clock     clockwork.Clock
	Debug     bool
}

// Discoverer 从数据源拉取一次完整拓扑并生成快照
type Discoverer struct {
	source  Source
	process InstanceProcessor
	log     *zap.Logger
	clock   clockwork.Clock
	debug   bool
}

func NewDiscoverer(source Source, opt DiscovererOptions) *Discoverer {
	d := &Discoverer{
		source:  source,
		process: opt.Processor,
		log:     opt.Logger,
		clock:   opt.Clock,
		debug:   opt.Debug,
	}
	if d.process == nil {
		d.process = DefaultInstanceProcessor
	}
	if d.log == nil {
		d.log = logger.L()
	}
	if d.clock == nil {
		d.clock = clockwork.NewRealClock()
	}
	return d
}

func (d *Discoverer) Source() Source {
	return d.source
}

// Refresh 拉取并归一化，失败时不返回部分结果
func (d *Discoverer) Refresh(ctx context.Context) (*Snapshot, error) {
	apps, err := d.source.discover(ctx)
	if err != nil {
		return nil, errs.Wrapf(fmt.Errorf("%w: %w", ErrDiscovery, err), "refresh from %s", d.source.Name())
	}

	services := make(map[string][]Endpoint)
	for _, app := range apps {
		if app == nil {
			continue
		}
		for _, inst := range app.Instances {
			ep, ok := d.process(inst, app)
			if !ok {
				continue
			}
			name := app.Name
			if name == "" {
				name = ep.App
			}
			if name == "" {
				continue
			}
			services[name] = append(services[name], ep)
		}
	}

	if d.debug {
		log := logger.WithTrace(ctx, d.log)
		for _, app := range apps {
			if app == nil {
				continue
			}
			log.Info("discovered app",
				zap.String("app", app.Name),
				zap.Int("instances", len(app.Instances)),
				zap.Int("endpoints", len(services[app.Name])))
		}
		log.Info("discovery finished", zap.String("source", d.source.Name()), zap.Int("apps", len(apps)), zap.Int("services", len(services)))
	}
	return &Snapshot{Services: services, FetchedAt: d.clock.Now()}, nil
}
