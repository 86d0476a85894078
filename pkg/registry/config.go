package registry

import "time"

type RegistryConfig struct {
	Type      RegistryType `mapstructure:"type"` // memory / etcd / zookeeper
	Etcd      EtcdConfig   `mapstructure:"etcd"`
	Zookeeper ZkConfig     `mapstructure:"zookeeper"`
}

type EtcdConfig struct {
	RootDirectory string        `mapstructure:"rootDirectory"`
	Address       []string      `mapstructure:"address"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	DialTimeout   time.Duration `mapstructure:"dialTimeout"`
}

type ZkConfig struct {
	Servers  []string      `mapstructure:"servers"`
	RootPath string        `mapstructure:"rootPath"`
	Timeout  time.Duration `mapstructure:"timeout"`
}
