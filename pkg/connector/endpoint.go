package connector

import (
	"net"
	"strconv"
	"strings"

	"github.com/code-sigs/eureka-connector/pkg/eureka"
)

// Status 实例状态，未知取值统一归为 UNKNOWN
type Status string

const (
	StatusUp           Status = eureka.StatusUp
	StatusDown         Status = eureka.StatusDown
	StatusStarting     Status = eureka.StatusStarting
	StatusOutOfService Status = eureka.StatusOutOfService
	StatusUnknown      Status = eureka.StatusUnknown
)

// ParseStatus 大小写不敏感
func ParseStatus(s string) Status {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusUp, StatusDown, StatusStarting, StatusOutOfService:
		return st
	default:
		return StatusUnknown
	}
}

// Endpoint 归一化后的实例地址，值类型，创建后不再修改
type Endpoint struct {
	App        string `json:"app"`
	InstanceID string `json:"instanceId"`
	HostName   string `json:"hostName"`
	IPAddr     string `json:"ipAddr"`
	Port       uint16 `json:"port"`
	Status     Status `json:"status"`
}

// Addr 返回 ip:port，用于判断绑定是否变化
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.IPAddr, strconv.Itoa(int(e.Port)))
}

func (e Endpoint) IsUp() bool {
	return e.Status == StatusUp
}
