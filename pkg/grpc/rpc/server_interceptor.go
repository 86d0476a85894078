package rpc

import (
	"context"

	"github.com/code-sigs/eureka-connector/pkg/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RPCServerInterceptor 将 metadata 中的 traceID 放入 context
func RPCServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(trace.MetadataKey); len(values) > 0 && values[0] != "" {
				ctx = trace.WithTraceID(ctx, values[0])
			}
		}
		return handler(ctx, req)
	}
}
