package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const maxMsgSize = 1024 * 1024 * 100 // 100MB

// NewGRPCServer 创建带有拦截器的 gRPC 服务端
func NewGRPCServer(opts ...grpc.ServerOption) *grpc.Server {
	base := []grpc.ServerOption{
		grpc.UnaryInterceptor(RPCServerInterceptor()),
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
		grpc.InitialWindowSize(1024 * 1024 * 10),
		grpc.InitialConnWindowSize(1024 * 1024 * 10),
	}
	return grpc.NewServer(append(base, opts...)...)
}

// NewGRPCConn 创建直连 target(ip:port) 的客户端连接，连接惰性建立，不会阻塞
func NewGRPCConn(ctx context.Context, target string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	base := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()), // 注意：生产环境中请使用安全连接
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(maxMsgSize),
			grpc.MaxCallRecvMsgSize(maxMsgSize),
		),
		grpc.WithUnaryInterceptor(RPCClientInterceptor()),
	}
	// 调用方选项放在后面，可覆盖默认凭证
	return grpc.NewClient("passthrough:///"+target, append(base, opts...)...)
}
