package connector

import (
	"sort"
	"sync/atomic"
	"time"
)

// Snapshot 某一时刻完整的服务拓扑，发布后只读
type Snapshot struct {
	Services  map[string][]Endpoint `json:"services"`
	FetchedAt time.Time             `json:"fetchedAt"`
}

// Names 按字典序返回服务名
func (s *Snapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Services))
	for name := range s.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	return &Snapshot{Services: copyServices(s.Services), FetchedAt: s.FetchedAt}
}

func copyServices(in map[string][]Endpoint) map[string][]Endpoint {
	out := make(map[string][]Endpoint, len(in))
	for name, eps := range in {
		out[name] = append([]Endpoint(nil), eps...)
	}
	return out
}

// Cache 保存最近一次成功拉取的快照，整体替换，读无锁
type Cache struct {
	current atomic.Pointer[Snapshot]
}

func NewCache() *Cache {
	c := &Cache{}
	c.current.Store(&Snapshot{Services: map[string][]Endpoint{}})
	return c
}

// Replace 整体替换快照，旧快照中不存在于新快照的服务会被丢弃
func (c *Cache) Replace(s *Snapshot) {
	if s == nil {
		return
	}
	next := s.clone()
	if next.Services == nil {
		next.Services = map[string][]Endpoint{}
	}
	c.current.Store(next)
}

// Get 未知服务返回空切片
func (c *Cache) Get(name string) []Endpoint {
	eps := c.current.Load().Services[name]
	if len(eps) == 0 {
		return []Endpoint{}
	}
	return append([]Endpoint(nil), eps...)
}

// All 返回全部服务的深拷贝
func (c *Cache) All() map[string][]Endpoint {
	return copyServices(c.current.Load().Services)
}

// Snapshot 返回当前快照的副本
func (c *Cache) Snapshot() *Snapshot {
	return c.current.Load().clone()
}
