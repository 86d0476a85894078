package connector

import (
	"context"
	"fmt"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Stub 基于描述文件动态调用某个 gRPC 服务的一元方法
type Stub struct {
	conn grpc.ClientConnInterface
	desc protoreflect.ServiceDescriptor
}

func NewStub(conn grpc.ClientConnInterface, desc protoreflect.ServiceDescriptor) *Stub {
	return &Stub{conn: conn, desc: desc}
}

// Name 服务全限定名
func (s *Stub) Name() string {
	return string(s.desc.FullName())
}

func (s *Stub) Descriptor() protoreflect.ServiceDescriptor {
	return s.desc
}

// Methods 返回服务声明的全部方法名
func (s *Stub) Methods() []string {
	methods := s.desc.Methods()
	names := make([]string, 0, methods.Len())
	for i := 0; i < methods.Len(); i++ {
		names = append(names, string(methods.Get(i).Name()))
	}
	return names
}

func (s *Stub) method(name string) (protoreflect.MethodDescriptor, error) {
	md := s.desc.Methods().ByName(protoreflect.Name(name))
	if md == nil {
		return nil, errs.Wrapf(ErrMethodNotFound, "%s/%s", s.desc.FullName(), name)
	}
	if md.IsStreamingClient() || md.IsStreamingServer() {
		return nil, errs.Wrapf(ErrMethodNotFound, "%s/%s is a streaming method", s.desc.FullName(), name)
	}
	return md, nil
}

// NewRequest 创建方法的空请求消息
func (s *Stub) NewRequest(method string) (*dynamicpb.Message, error) {
	md, err := s.method(method)
	if err != nil {
		return nil, err
	}
	return dynamicpb.NewMessage(md.Input()), nil
}

// Invoke 调用一元方法，req 可以是生成代码的消息或 dynamicpb 消息
func (s *Stub) Invoke(ctx context.Context, method string, req proto.Message, opts ...grpc.CallOption) (proto.Message, error) {
	md, err := s.method(method)
	if err != nil {
		return nil, err
	}
	resp := dynamicpb.NewMessage(md.Output())
	fullMethod := fmt.Sprintf("/%s/%s", s.desc.FullName(), md.Name())
	if err := s.conn.Invoke(ctx, fullMethod, req, resp, opts...); err != nil {
		return nil, err
	}
	return resp, nil
}

// InvokeJSON 请求与响应均为 protojson 格式
func (s *Stub) InvokeJSON(ctx context.Context, method string, body []byte, opts ...grpc.CallOption) ([]byte, error) {
	req, err := s.NewRequest(method)
	if err != nil {
		return nil, err
	}
	if len(body) > 0 {
		if err := protojson.Unmarshal(body, req); err != nil {
			return nil, errs.WithCode(errs.Wrapf(err, "decode %s request", method), errs.ErrorArgs)
		}
	}
	resp, err := s.Invoke(ctx, method, req, opts...)
	if err != nil {
		return nil, err
	}
	return protojson.Marshal(resp)
}
