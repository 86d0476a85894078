package registry

import (
	"fmt"

	"github.com/code-sigs/eureka-connector/pkg/registry/etcd"
	"github.com/code-sigs/eureka-connector/pkg/registry/memory"
	"github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	"github.com/code-sigs/eureka-connector/pkg/registry/zk"
)

// RegistryType 定义注册中心类型
type RegistryType string

const (
	MemoryType RegistryType = "memory"
	EtcdType   RegistryType = "etcd"
	ZkType     RegistryType = "zookeeper"
)

// NewRegistry 根据配置创建注册中心客户端，默认 memory
func NewRegistry(cfg *RegistryConfig) (registry_interface.Registry, error) {
	if cfg == nil {
		return memory.NewMemoryRegistry(), nil
	}
	switch cfg.Type {
	case EtcdType:
		return etcd.NewEtcdRegistry(etcd.Options{
			Endpoints:   cfg.Etcd.Address,
			Username:    cfg.Etcd.Username,
			Password:    cfg.Etcd.Password,
			Prefix:      cfg.Etcd.RootDirectory,
			DialTimeout: cfg.Etcd.DialTimeout,
		})
	case ZkType:
		return zk.NewZkRegistry(cfg.Zookeeper.Servers, cfg.Zookeeper.RootPath, cfg.Zookeeper.Timeout)
	case MemoryType, "":
		return memory.NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unsupported registry type %q", cfg.Type)
	}
}
