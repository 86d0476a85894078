package connector

import (
	"net"
	"strconv"
	"strings"

	"github.com/code-sigs/eureka-connector/pkg/eureka"
)

// GRPCPortKey 实例元数据中携带 gRPC 端口的 key
const GRPCPortKey = "gRPC_port"

// InstanceProcessor 把注册中心的原始实例转换成 Endpoint，返回 false 表示丢弃该实例
type InstanceProcessor func(inst *eureka.Instance, app *eureka.Application) (Endpoint, bool)

// DefaultInstanceProcessor 要求元数据中存在合法的 gRPC_port
func DefaultInstanceProcessor(inst *eureka.Instance, app *eureka.Application) (Endpoint, bool) {
	if inst == nil {
		return Endpoint{}, false
	}
	port, ok := parsePort(inst.Metadata[GRPCPortKey])
	if !ok {
		return Endpoint{}, false
	}
	ip := inst.IPAddr
	if ip == "" {
		ip = inst.HostName
	}
	if ip == "" {
		return Endpoint{}, false
	}
	name := inst.App
	if name == "" && app != nil {
		name = app.Name
	}
	host := inst.HostName
	if host == "" {
		host = ip
	}
	id := inst.InstanceID
	if id == "" {
		id = net.JoinHostPort(host, strconv.Itoa(int(port)))
	}
	return Endpoint{
		App:        name,
		InstanceID: id,
		HostName:   host,
		IPAddr:     ip,
		Port:       port,
		Status:     ParseStatus(inst.Status),
	}, true
}

func parsePort(raw string) (uint16, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint16(v), true
}
