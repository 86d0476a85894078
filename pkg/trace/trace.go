package trace

import (
	"context"

	"github.com/google/uuid"
)

// MetadataKey 透传到 gRPC metadata 的 trace 头
const MetadataKey = "x-trace-id"

type traceKey struct{}

func GenerateTraceID() string {
	return uuid.NewString()
}

func WithNewTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateTraceID())
}

// WithTraceID 将指定 traceID 写入 ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceKey{}, traceID)
}

func GetTraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	val := ctx.Value(traceKey{})
	if val != nil {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}
