package rpc

import (
	"context"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/code-sigs/eureka-connector/pkg/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// RPCClientInterceptor 将 traceID 注入到 gRPC metadata，并记录调用耗时
func RPCClientInterceptor() grpc.UnaryClientInterceptor {
	return func(
		ctx context.Context,
		method string,
		req, reply interface{},
		cc *grpc.ClientConn,
		invoker grpc.UnaryInvoker,
		opts ...grpc.CallOption,
	) error {
		traceID := trace.GetTraceID(ctx)
		if traceID == "" {
			ctx = trace.WithNewTraceID(ctx)
			traceID = trace.GetTraceID(ctx)
		}
		ctx = metadata.AppendToOutgoingContext(ctx, trace.MetadataKey, traceID)

		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			logger.Warnw(ctx, "grpc call failed", "method", method, "target", cc.Target(), "cost", time.Since(start), "err", err)
			return err
		}
		logger.Debugw(ctx, "grpc call", "method", method, "target", cc.Target(), "cost", time.Since(start))
		return nil
	}
}
