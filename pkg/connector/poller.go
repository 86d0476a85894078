package connector

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/code-sigs/eureka-connector/pkg/trace"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// SnapshotStore 持久化最近一次成功的快照，用于注册中心不可达时冷启动
type SnapshotStore interface {
	Save(ctx context.Context, s *Snapshot) error
	// Load 没有数据时返回 nil, nil
	Load(ctx context.Context) (*Snapshot, error)
}

type PollerOptions struct {
	Interval time.Duration
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Store    SnapshotStore
}

// Poller 定时执行 拉取 -> 替换快照 -> 选实例 -> 绑定 的完整周期，同一时刻只有一个周期在跑
type Poller struct {
	discoverer *Discoverer
	cache      *Cache
	picker     Picker
	manager    *Manager
	interval   time.Duration
	clock      clockwork.Clock
	log        *zap.Logger
	store      SnapshotStore

	cycleMu   sync.Mutex
	populated bool

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
	stopped bool
}

func NewPoller(d *Discoverer, cache *Cache, picker Picker, manager *Manager, opt PollerOptions) *Poller {
	p := &Poller{
		discoverer: d,
		cache:      cache,
		picker:     picker,
		manager:    manager,
		interval:   opt.Interval,
		clock:      opt.Clock,
		log:        opt.Logger,
		store:      opt.Store,
	}
	if p.interval <= 0 {
		p.interval = DefaultPollInterval
	}
	if p.clock == nil {
		p.clock = clockwork.NewRealClock()
	}
	if p.log == nil {
		p.log = logger.L()
	}
	if p.picker == nil {
		p.picker = RandomPicker{}
	}
	return p
}

// Start 用 ctx 同步执行第一个周期，之后按 interval 在后台轮询直到 Stop；
// 后台循环保留 ctx 中的值但不受其取消影响
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	switch {
	case p.stopped:
		p.mu.Unlock()
		return ErrManagerClosed
	case p.started:
		p.mu.Unlock()
		return errors.New("poller already started")
	}
	p.started = true
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	_ = p.RunOnce(ctx)

	ticker := p.clock.NewTicker(p.interval)
	go p.loop(loopCtx, ticker)
	return nil
}

func (p *Poller) loop(ctx context.Context, ticker clockwork.Ticker) {
	defer close(p.done)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if ctx.Err() != nil {
				return
			}
			_ = p.RunOnce(ctx)
		}
	}
}

// Stop 停止定时器并等待正在执行的周期结束，然后关闭所有连接，可重复调用
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	p.manager.Shutdown()
}

// RunOnce 执行一个完整周期，返回拉取错误；单个服务的失败不会中断其他服务
func (p *Poller) RunOnce(ctx context.Context) error {
	p.cycleMu.Lock()
	defer p.cycleMu.Unlock()

	ctx = trace.WithNewTraceID(ctx)
	log := logger.WithTrace(ctx, p.log)

	snap, err := p.discoverer.Refresh(ctx)
	if err != nil {
		log.Error("registry refresh failed, keeping previous snapshot", zap.Error(err))
		if p.populated || !p.warmStart(ctx, log) {
			return err
		}
	} else {
		p.cache.Replace(snap)
		p.populated = true
		if p.store != nil {
			if err := p.store.Save(ctx, snap); err != nil {
				log.Warn("save snapshot failed", zap.Error(err))
			}
		}
	}

	p.reconcile(ctx, log)
	return err
}

// warmStart 首次拉取失败时从 store 恢复上一次的快照
func (p *Poller) warmStart(ctx context.Context, log *zap.Logger) bool {
	if p.store == nil {
		return false
	}
	snap, err := p.store.Load(ctx)
	if err != nil {
		log.Warn("load stored snapshot failed", zap.Error(err))
		return false
	}
	if snap == nil {
		return false
	}
	p.cache.Replace(snap)
	p.populated = true
	log.Info("restored snapshot from store", zap.Int("services", len(snap.Services)), zap.Time("fetchedAt", snap.FetchedAt))
	return true
}

func (p *Poller) reconcile(ctx context.Context, log *zap.Logger) {
	all := p.cache.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ep, ok := Select(p.picker, name, all[name])
		if !ok {
			log.Debug("skip service", zap.String("service", name), zap.Error(ErrNoHealthyEndpoint))
			continue
		}
		err := p.manager.Ensure(ctx, name, ep)
		switch {
		case err == nil:
		case errors.Is(err, ErrUnconfiguredService):
			log.Debug("skip service", zap.String("service", name), zap.Error(err))
		case errors.Is(err, ErrManagerClosed):
			return
		default:
			log.Error("bind service failed", zap.String("service", name), zap.String("addr", ep.Addr()), zap.Error(err))
		}
	}
}
