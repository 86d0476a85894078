package connector

import (
	"strings"
	"sync"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/errs"
	"google.golang.org/grpc"
)

// Client 绑定到某个实例的 gRPC 连接，由 Manager 持有，调用方只借用
type Client struct {
	service     string
	endpoint    Endpoint
	config      ServiceConfig
	conn        *grpc.ClientConn
	descriptors *DescriptorCache
	boundAt     time.Time
	closeOnce   sync.Once
	closeErr    error
}

func (c *Client) Service() string {
	return c.service
}

func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// Target 连接目标 ip:port
func (c *Client) Target() string {
	return c.endpoint.Addr()
}

func (c *Client) Config() ServiceConfig {
	return c.config
}

func (c *Client) BoundAt() time.Time {
	return c.boundAt
}

func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// GetService 创建服务 stub，protoService 未带包名时自动补全 package
func (c *Client) GetService(protoService string) (*Stub, error) {
	if c.config.ProtoPath == "" {
		return nil, errs.Wrapf(ErrDescriptor, "service %s has no protoPath", c.service)
	}
	return c.stub(c.fullServiceName(protoService))
}

func (c *Client) stub(fullName string) (*Stub, error) {
	sd, err := c.descriptors.Service(c.config.ProtoPath, fullName)
	if err != nil {
		return nil, err
	}
	return NewStub(c.conn, sd), nil
}

func (c *Client) fullServiceName(protoService string) string {
	if protoService == "" {
		protoService = c.config.ServiceName
	}
	pkg := strings.TrimSuffix(c.config.Package, ".")
	if pkg == "" || strings.HasPrefix(protoService, pkg+".") {
		return protoService
	}
	return pkg + "." + protoService
}

// Close 可重复调用
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.conn != nil {
			c.closeErr = c.conn.Close()
		}
	})
	return c.closeErr
}
