// config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/spf13/viper"
)

// LoadConfig 是一个泛型函数，用于加载指定 key 下的配置到任意结构体中
// 文件不存在时只使用环境变量
func LoadConfig[T any](configPath string, fileName string, envPrefix string, configKey string) (*T, error) {
	v := newViper(envPrefix)
	if configPath != "" {
		v.AddConfigPath(configPath)
	} else {
		v.AddConfigPath(".")
	}
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		logger.L().Warn("config file not found, using defaults and environment variables")
	}
	return unmarshalKey[T](v, configKey)
}

// LoadFile 从指定文件加载 configKey 下的配置，文件必须存在
func LoadFile[T any](file string, envPrefix string, configKey string) (*T, error) {
	v := newViper(envPrefix)
	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", file, err)
	}
	return unmarshalKey[T](v, configKey)
}

func newViper(envPrefix string) *viper.Viper {
	v := viper.New()
	// 自动读取环境变量（支持 CONNECTOR_EUREKA_URL=...）
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshalKey[T any](v *viper.Viper, configKey string) (*T, error) {
	cfg := new(T)
	if configKey == "" {
		if err := v.Unmarshal(cfg); err != nil {
			return nil, fmt.Errorf("unable to decode config into struct: %w", err)
		}
		return cfg, nil
	}
	if err := v.UnmarshalKey(configKey, cfg); err != nil {
		return nil, fmt.Errorf("unable to decode '%s' into struct: %w", configKey, err)
	}
	return cfg, nil
}
