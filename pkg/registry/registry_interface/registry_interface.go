package registry_interface

import (
	"context"
	"encoding/json"

	"github.com/code-sigs/eureka-connector/pkg/eureka"
)

// ServiceInstance 注册中心上报的原始实例记录
type ServiceInstance = eureka.Instance

// Registry 客户端模式下使用的注册中心客户端
type Registry interface {
	Register(ctx context.Context, info *ServiceInfo) error
	Unregister(ctx context.Context, info *ServiceInfo) error
	Name() string
	// GetServiceInstances 按应用名同步查询实例，每次调用都访问后端
	GetServiceInstances(ctx context.Context, serviceName string) ([]*ServiceInstance, error)
	Close() error
}

type ServiceInfo struct {
	Name     string
	Instance *ServiceInstance
	LeaseID  int64
}

// InstanceID 返回实例 ID，缺省时使用 ipAddr
func (s *ServiceInfo) InstanceID() string {
	if s.Instance == nil {
		return ""
	}
	if s.Instance.InstanceID != "" {
		return s.Instance.InstanceID
	}
	return s.Instance.IPAddr
}

// EncodeInstance 实例在 etcd/zk 中以 JSON 存放
func EncodeInstance(inst *ServiceInstance) ([]byte, error) {
	return json.Marshal(inst)
}

// DecodeInstance 解析后端存放的实例记录，app 为空时补上 serviceName；
// 无法解析的记录返回 false，由调用方跳过
func DecodeInstance(data []byte, serviceName string) (*ServiceInstance, bool) {
	var inst ServiceInstance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, false
	}
	if inst.App == "" {
		inst.App = serviceName
	}
	return &inst, true
}
