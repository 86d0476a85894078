package connector

import (
	"math/rand/v2"
	"sync"
)

// Picker 从一组 UP 实例中选出一个
type Picker interface {
	Pick(service string, eps []Endpoint) (Endpoint, bool)
}

// Select 先过滤出 UP 实例再交给 picker，没有 UP 实例返回 false
func Select(p Picker, service string, eps []Endpoint) (Endpoint, bool) {
	up := make([]Endpoint, 0, len(eps))
	for _, ep := range eps {
		if ep.IsUp() {
			up = append(up, ep)
		}
	}
	if len(up) == 0 {
		return Endpoint{}, false
	}
	return p.Pick(service, up)
}

// RandomPicker 均匀随机
type RandomPicker struct{}

func (RandomPicker) Pick(_ string, eps []Endpoint) (Endpoint, bool) {
	if len(eps) == 0 {
		return Endpoint{}, false
	}
	return eps[rand.IntN(len(eps))], true
}

// RoundRobinPicker 每个服务独立计数轮询
type RoundRobinPicker struct {
	mu   sync.Mutex
	next map[string]uint64
}

func NewRoundRobinPicker() *RoundRobinPicker {
	return &RoundRobinPicker{next: make(map[string]uint64)}
}

func (p *RoundRobinPicker) Pick(service string, eps []Endpoint) (Endpoint, bool) {
	if len(eps) == 0 {
		return Endpoint{}, false
	}
	p.mu.Lock()
	if p.next == nil {
		p.next = make(map[string]uint64)
	}
	n := p.next[service]
	p.next[service] = n + 1
	p.mu.Unlock()
	return eps[n%uint64(len(eps))], true
}

// NewPicker 根据策略名创建 picker，默认随机
func NewPicker(strategy string) Picker {
	if strategy == StrategyRoundRobin {
		return NewRoundRobinPicker()
	}
	return RandomPicker{}
}
