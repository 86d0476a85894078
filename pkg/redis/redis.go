package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig Redis配置
type RedisConfig struct {
	Address      []string `mapstructure:"address"`      // 地址 host:port
	Password     string   `mapstructure:"password"`     // 密码
	DB           int      `mapstructure:"db"`           // 数据库编号
	PoolSize     int      `mapstructure:"poolSize"`     // 连接池大小
	MinIdleConns int      `mapstructure:"minIdleConns"` // 最小空闲连接数
	ReadTimeout  int64    `mapstructure:"readTimeout"`  // 读取超时(秒)
	WriteTimeout int64    `mapstructure:"writeTimeout"` // 写入超时(秒)
}

// RedisClient 封装后的Redis客户端
type RedisClient struct {
	client redis.UniversalClient
}

// NewRedisClient 多个地址时使用集群模式，创建后立即 Ping
func NewRedisClient(ctx context.Context, cfg *RedisConfig) (*RedisClient, error) {
	if cfg == nil || len(cfg.Address) == 0 {
		return nil, errors.New("redis address is required")
	}
	var rdb redis.UniversalClient
	if len(cfg.Address) > 1 {
		rdb = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:        cfg.Address,
			Password:     cfg.Password,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		})
	} else {
		rdb = redis.NewClient(&redis.Options{
			Addr:         cfg.Address[0],
			Password:     cfg.Password,
			DB:           cfg.DB,
			PoolSize:     cfg.PoolSize,
			MinIdleConns: cfg.MinIdleConns,
			ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
			WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		})
	}

	// 测试连接
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis failed: %w", err)
	}

	return &RedisClient{client: rdb}, nil
}

// NewRedisClientWith 复用已有的 go-redis 客户端
func NewRedisClientWith(rdb redis.UniversalClient) *RedisClient {
	return &RedisClient{client: rdb}
}

// GetUnmarshal 读取 JSON 并反序列化，键不存在时返回 redis.Nil
func (r *RedisClient) GetUnmarshal(ctx context.Context, key string, out interface{}) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (r *RedisClient) SetMarshal(ctx context.Context, key string, in interface{}, ttl time.Duration) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, key, jsonData, ttl).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// IsNil 判断是否为键不存在
func IsNil(err error) bool {
	return errors.Is(err, redis.Nil)
}
