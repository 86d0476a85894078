package connector

import (
	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

type options struct {
	log         *zap.Logger
	registry    registry.Registry
	httpClient  HTTPDoer
	processor   InstanceProcessor
	picker      Picker
	clock       clockwork.Clock
	store       SnapshotStore
	publisher   EventPublisher
	dialOptions []grpc.DialOption
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRegistry 使用调用方提供的注册中心客户端（客户端模式），连接器不会关闭它
func WithRegistry(r registry.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithHTTPClient URL 模式下使用的 HTTP 客户端
func WithHTTPClient(c HTTPDoer) Option {
	return func(o *options) { o.httpClient = c }
}

func WithInstanceProcessor(p InstanceProcessor) Option {
	return func(o *options) { o.processor = p }
}

// WithPicker 覆盖配置中的 strategy
func WithPicker(p Picker) Option {
	return func(o *options) { o.picker = p }
}

func WithClock(c clockwork.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithSnapshotStore 每次拉取成功后保存快照；缓存从未填充且首次拉取失败时，
// 会用 store 中的快照替换缓存，这是失败拉取不改动缓存的唯一例外
func WithSnapshotStore(s SnapshotStore) Option {
	return func(o *options) { o.store = s }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

// WithDialOptions 追加到默认 dial 选项之后
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *options) { o.dialOptions = append(o.dialOptions, opts...) }
}
