package memory

import (
	"context"
	"errors"
	"sort"
	"sync"

	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
)

type MemoryRegistry struct {
	mu       sync.RWMutex
	services map[string]map[string]*registry.ServiceInstance // serviceName -> instanceId -> instance
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		services: make(map[string]map[string]*registry.ServiceInstance),
	}
}

func (m *MemoryRegistry) Register(ctx context.Context, info *registry.ServiceInfo) error {
	if info == nil || info.Instance == nil {
		return errors.New("memory registry: instance is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.services[info.Name] == nil {
		m.services[info.Name] = make(map[string]*registry.ServiceInstance)
	}
	m.services[info.Name][info.InstanceID()] = cloneInstance(info.Instance)
	return nil
}

func (m *MemoryRegistry) Unregister(ctx context.Context, info *registry.ServiceInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.services[info.Name] != nil {
		delete(m.services[info.Name], info.InstanceID())
		if len(m.services[info.Name]) == 0 {
			delete(m.services, info.Name)
		}
	}
	return nil
}

// SetStatus 修改实例状态，模拟注册中心的状态变更
func (m *MemoryRegistry) SetStatus(serviceName, instanceID, status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.services[serviceName][instanceID]
	if !ok {
		return false
	}
	updated := cloneInstance(inst)
	updated.Status = status
	m.services[serviceName][instanceID] = updated
	return true
}

func (m *MemoryRegistry) Name() string {
	return "memory"
}

// GetServiceInstances 按 instanceId 排序返回副本
func (m *MemoryRegistry) GetServiceInstances(ctx context.Context, serviceName string) ([]*registry.ServiceInstance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	instances := make([]*registry.ServiceInstance, 0, len(m.services[serviceName]))
	for _, inst := range m.services[serviceName] {
		instances = append(instances, cloneInstance(inst))
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].InstanceID < instances[j].InstanceID
	})
	return instances, nil
}

func (m *MemoryRegistry) Close() error {
	return nil
}

func cloneInstance(in *registry.ServiceInstance) *registry.ServiceInstance {
	out := *in
	if in.Metadata != nil {
		out.Metadata = make(map[string]string, len(in.Metadata))
		for k, v := range in.Metadata {
			out.Metadata[k] = v
		}
	}
	return &out
}
