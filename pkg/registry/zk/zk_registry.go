package zk

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/go-zookeeper/zk"
)

const defaultRootPath = "/eureka-connector"

// ZkRegistry 实例以 JSON 存放在临时节点 <root>/<app>/<instanceId>
type ZkRegistry struct {
	conn     *zk.Conn
	rootPath string
}

func NewZkRegistry(servers []string, rootPath string, timeout time.Duration) (*ZkRegistry, error) {
	if len(servers) == 0 {
		return nil, errors.New("zk registry: servers are required")
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	conn, _, err := zk.Connect(servers, timeout)
	if err != nil {
		return nil, err
	}

	reg := &ZkRegistry{
		conn:     conn,
		rootPath: normalizeRoot(rootPath),
	}

	// 初始化根路径
	if err := reg.ensurePath(reg.rootPath); err != nil {
		conn.Close()
		return nil, err
	}
	return reg, nil
}

func normalizeRoot(rootPath string) string {
	if rootPath == "" {
		return defaultRootPath
	}
	return "/" + strings.Trim(rootPath, "/")
}

func (z *ZkRegistry) Name() string {
	return "zookeeper"
}

func (z *ZkRegistry) ensurePath(path string) error {
	exists, _, err := z.conn.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = z.conn.Create(path, nil, 0, zk.WorldACL(zk.PermAll))
	if err != nil && !errors.Is(err, zk.ErrNodeExists) {
		return err
	}
	return nil
}

func (z *ZkRegistry) Register(ctx context.Context, info *registry.ServiceInfo) error {
	if info == nil || info.Instance == nil {
		return errors.New("zk registry: instance is required")
	}
	if err := z.ensurePath(z.servicePath(info.Name)); err != nil {
		return err
	}
	data, err := registry.EncodeInstance(info.Instance)
	if err != nil {
		return err
	}
	path := z.instancePath(info.Name, info.InstanceID())

	exists, _, err := z.conn.Exists(path)
	if err != nil {
		return err
	}
	if exists {
		_ = z.conn.Delete(path, -1)
	}

	_, err = z.conn.Create(path, data, zk.FlagEphemeral, zk.WorldACL(zk.PermAll))
	return err
}

func (z *ZkRegistry) Unregister(ctx context.Context, info *registry.ServiceInfo) error {
	err := z.conn.Delete(z.instancePath(info.Name, info.InstanceID()), -1)
	if errors.Is(err, zk.ErrNoNode) {
		return nil
	}
	return err
}

// GetServiceInstances 服务节点不存在时返回空列表
func (z *ZkRegistry) GetServiceInstances(ctx context.Context, serviceName string) ([]*registry.ServiceInstance, error) {
	children, _, err := z.conn.Children(z.servicePath(serviceName))
	if errors.Is(err, zk.ErrNoNode) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(children)

	instances := make([]*registry.ServiceInstance, 0, len(children))
	for _, child := range children {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, _, err := z.conn.Get(z.instancePath(serviceName, child))
		if errors.Is(err, zk.ErrNoNode) {
			// 读取期间实例下线
			continue
		}
		if err != nil {
			return nil, err
		}
		if inst, ok := registry.DecodeInstance(data, serviceName); ok {
			instances = append(instances, inst)
		}
	}
	return instances, nil
}

func (z *ZkRegistry) servicePath(service string) string {
	return fmt.Sprintf("%s/%s", z.rootPath, strings.Trim(service, "/"))
}

func (z *ZkRegistry) instancePath(service, instanceID string) string {
	return fmt.Sprintf("%s/%s", z.servicePath(service), instanceID)
}

func (z *ZkRegistry) Close() error {
	z.conn.Close()
	return nil
}
