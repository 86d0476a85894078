package connector

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/registry"
)

const (
	DefaultPollInterval = 30 * time.Second

	StrategyRandom     = "random"
	StrategyRoundRobin = "round_robin"
)

// Config 连接器配置，对应 yaml 中的 connector 节点
type Config struct {
	Eureka EurekaConfig             `mapstructure:"eureka"`
	Apps   map[string]ServiceConfig `mapstructure:"apps"`
	Redis  SnapshotConfig           `mapstructure:"redis"`
	Kafka  EventConfig              `mapstructure:"kafka"`
	Admin  AdminConfig              `mapstructure:"admin"`
}

type EurekaConfig struct {
	URL          string                   `mapstructure:"url"`          // 目录接口地址，如 http://eureka:8761/eureka/apps
	PollInterval time.Duration            `mapstructure:"pollInterval"` // 轮询间隔
	Timeout      time.Duration            `mapstructure:"timeout"`      // 单次拉取超时，0 表示不限制
	Debug        bool                     `mapstructure:"debug"`
	Strategy     string                   `mapstructure:"strategy"` // random / round_robin
	Apps         []string                 `mapstructure:"apps"`     // 客户端模式下关注的应用
	Registry     *registry.RegistryConfig `mapstructure:"registry"` // 客户端模式使用的注册中心
}

// ServiceConfig 单个逻辑服务的 proto 信息
type ServiceConfig struct {
	Package     string `mapstructure:"package" json:"package"`
	ProtoPath   string `mapstructure:"protoPath" json:"protoPath"`
	ServiceName string `mapstructure:"serviceName" json:"serviceName"`
}

type SnapshotConfig struct {
	Enable bool          `mapstructure:"enable"`
	Key    string        `mapstructure:"key"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type EventConfig struct {
	Enable bool   `mapstructure:"enable"`
	Topic  string `mapstructure:"topic"`
}

type AdminConfig struct {
	Addr  string `mapstructure:"addr"`
	Debug bool   `mapstructure:"debug"`
}

// ApplyDefaults 填充默认值
func (c *Config) ApplyDefaults() {
	if c.Eureka.PollInterval <= 0 {
		c.Eureka.PollInterval = DefaultPollInterval
	}
	if c.Eureka.Timeout <= 0 {
		c.Eureka.Timeout = 10 * time.Second
	}
	if c.Eureka.Strategy == "" {
		c.Eureka.Strategy = StrategyRandom
	}
	if c.Redis.Key == "" {
		c.Redis.Key = "eureka-connector:snapshot"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "eureka-connector-bindings"
	}
	if c.Apps == nil {
		c.Apps = map[string]ServiceConfig{}
	}
}

// Validate 校验配置，hasRegistry 表示调用方是否通过 WithRegistry 注入了客户端
func (c *Config) Validate(hasRegistry bool) error {
	clientMode := hasRegistry || c.Eureka.Registry != nil
	switch {
	case c.Eureka.URL != "" && clientMode:
		return errors.New("eureka url and registry client are mutually exclusive")
	case c.Eureka.URL == "" && !clientMode:
		return errors.New("either eureka url or registry client is required")
	}
	if c.Eureka.URL != "" {
		u, err := url.Parse(c.Eureka.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid eureka url %q", c.Eureka.URL)
		}
	}
	if clientMode && len(c.Eureka.Apps) == 0 {
		return errors.New("eureka.apps is required in client mode")
	}
	switch c.Eureka.Strategy {
	case "", StrategyRandom, StrategyRoundRobin:
	default:
		return fmt.Errorf("unsupported strategy %q", c.Eureka.Strategy)
	}
	return nil
}

// Service 按服务名查找配置，先精确匹配再忽略大小写
func (c *Config) Service(name string) (ServiceConfig, bool) {
	if sc, ok := c.Apps[name]; ok {
		return sc, true
	}
	for k, sc := range c.Apps {
		if strings.EqualFold(k, name) {
			return sc, true
		}
	}
	return ServiceConfig{}, false
}
