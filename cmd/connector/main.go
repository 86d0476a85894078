package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/code-sigs/eureka-connector/pkg/config"
	"github.com/code-sigs/eureka-connector/pkg/connector"
	"github.com/code-sigs/eureka-connector/pkg/kafka"
	"github.com/code-sigs/eureka-connector/pkg/logger"
	"github.com/code-sigs/eureka-connector/pkg/redis"
	"github.com/code-sigs/eureka-connector/pkg/router"
	"github.com/spf13/pflag"
)

type logConfig struct {
	Dir    string `mapstructure:"dir"`
	Level  string `mapstructure:"level"`
	MaxAge int    `mapstructure:"maxAge"` // 天
	Stdout *bool  `mapstructure:"stdout"`
}

type appConfig struct {
	Log       logConfig         `mapstructure:"log"`
	Connector connector.Config  `mapstructure:"connector"`
	Redis     redis.RedisConfig `mapstructure:"redis"`
	Kafka     kafka.Config      `mapstructure:"kafka"`
}

func main() {
	configFile := pflag.StringP("config", "c", "config/connector.yaml", "config file path")
	pflag.Parse()

	if err := run(*configFile); err != nil {
		logger.Errorf(context.Background(), "connector exited: %+v", err)
		logger.Sync()
		os.Exit(1)
	}
}

func run(configFile string) error {
	cfg, err := config.LoadFile[appConfig](configFile, "CONNECTOR", "")
	if err != nil {
		return err
	}
	if err := initLogger(&cfg.Log); err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg.Connector.ApplyDefaults()
	var opts []connector.Option
	opts = append(opts, connector.WithLogger(logger.L()))

	if cfg.Connector.Redis.Enable {
		rc, err := redis.NewRedisClient(ctx, &cfg.Redis)
		if err != nil {
			return err
		}
		defer rc.Close()
		opts = append(opts, connector.WithSnapshotStore(redis.NewSnapshotStore(rc, cfg.Connector.Redis.Key, cfg.Connector.Redis.TTL)))
	}

	if cfg.Connector.Kafka.Enable {
		k, err := kafka.New[connector.BindingEvent](&cfg.Kafka)
		if err != nil {
			return err
		}
		producer, err := k.NewProducer(cfg.Connector.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("create kafka producer: %w", err)
		}
		pub := kafka.NewBindingPublisher(producer)
		defer pub.Close()
		opts = append(opts, connector.WithEventPublisher(pub))
	}

	c, err := connector.New(&cfg.Connector, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	if err := c.Start(ctx); err != nil {
		return err
	}

	if cfg.Connector.Admin.Addr == "" {
		<-ctx.Done()
		logger.Infof(ctx, "shutting down")
		return nil
	}
	r := router.New()
	router.RegisterAdmin(r, c)
	return r.Run(ctx, cfg.Connector.Admin.Addr, cfg.Connector.Admin.Debug)
}

func initLogger(c *logConfig) error {
	opts := []logger.Option{}
	if c.Level != "" {
		opts = append(opts, logger.WithLogLevel(c.Level))
	}
	if c.MaxAge > 0 {
		opts = append(opts, logger.WithMaxAge(c.MaxAge))
	}
	if c.Stdout != nil {
		opts = append(opts, logger.WithStdout(*c.Stdout))
	}
	return logger.Init(c.Dir, opts...)
}
