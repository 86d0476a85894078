package kafka

import (
	"context"

	"github.com/code-sigs/eureka-connector/pkg/connector"
	"github.com/code-sigs/eureka-connector/pkg/errs"
	"github.com/code-sigs/eureka-connector/pkg/trace"
)

// BindingPublisher 把连接绑定变化发送到 kafka，消息 key 为服务名
type BindingPublisher struct {
	producer *Producer[connector.BindingEvent]
}

var _ connector.EventPublisher = (*BindingPublisher)(nil)

func NewBindingPublisher(producer *Producer[connector.BindingEvent]) *BindingPublisher {
	return &BindingPublisher{producer: producer}
}

func (b *BindingPublisher) Publish(ctx context.Context, ev *connector.BindingEvent) error {
	var header map[string]string
	if traceID := trace.GetTraceID(ctx); traceID != "" {
		header = map[string]string{trace.MetadataKey: traceID}
	}
	return errs.Wrapf(b.producer.Send(ev.Service, ev, header), "publish binding of %s", ev.Service)
}

func (b *BindingPublisher) Close() error {
	return b.producer.Close()
}
