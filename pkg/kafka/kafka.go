package kafka

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/IBM/sarama"
)

type Config struct {
	Endpoints []string  `mapstructure:"endpoints"`
	Username  string    `mapstructure:"username"`
	Password  string    `mapstructure:"password"`
	TLS       TLSConfig `mapstructure:"tls"`
}

type TLSConfig struct {
	EnableTLS          bool   `mapstructure:"enableTLS"`
	CACert             string `mapstructure:"caCrt"`
	ClientCert         string `mapstructure:"clientCrt"`
	ClientKey          string `mapstructure:"clientKey"`
	InsecureSkipVerify bool   `mapstructure:"insecureSkipVerify"`
}

type Kafka[T any] struct {
	sarama *sarama.Config
	cfg    *Config
}

// Producer 同步发送 JSON 编码的 T
type Producer[T any] struct {
	topic    string
	producer sarama.SyncProducer
}

func New[T any](cfg *Config) (*Kafka[T], error) {
	kfa := &Kafka[T]{
		cfg: cfg,
	}
	kfa.sarama = sarama.NewConfig()
	kfa.sarama.Producer.Retry.Max = 1
	kfa.sarama.Producer.RequiredAcks = sarama.WaitForAll
	kfa.sarama.Producer.Return.Successes = true
	// sasl认证
	if cfg.Username != "" && cfg.Password != "" {
		kfa.sarama.Net.SASL.Enable = true
		kfa.sarama.Net.SASL.User = cfg.Username
		kfa.sarama.Net.SASL.Password = cfg.Password
	}
	if cfg.TLS.EnableTLS {
		tlsCfg, err := newTLSConfig(&cfg.TLS)
		if err != nil {
			return nil, err
		}
		kfa.sarama.Net.TLS.Enable = true
		kfa.sarama.Net.TLS.Config = tlsCfg
	}
	return kfa, nil
}

func newTLSConfig(c *TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{InsecureSkipVerify: c.InsecureSkipVerify}
	if c.CACert != "" {
		pem, err := os.ReadFile(c.CACert)
		if err != nil {
			return nil, fmt.Errorf("read kafka ca: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, errors.New("invalid kafka ca certificate")
		}
		tlsCfg.RootCAs = pool
	}
	if c.ClientCert != "" && c.ClientKey != "" {
		cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
		if err != nil {
			return nil, fmt.Errorf("load kafka client cert: %w", err)
		}
		tlsCfg.Certificates = []tls.Certificate{cert}
	}
	return tlsCfg, nil
}

// Sarama 返回底层配置，测试中用于创建 mock producer
func (k *Kafka[T]) Sarama() *sarama.Config {
	return k.sarama
}

func (k *Kafka[T]) NewProducer(topic string) (*Producer[T], error) {
	producer, err := sarama.NewSyncProducer(k.cfg.Endpoints, k.sarama)
	if err != nil {
		return nil, err
	}
	return NewProducerWith[T](producer, topic), nil
}

// NewProducerWith 使用已创建的 SyncProducer
func NewProducerWith[T any](producer sarama.SyncProducer, topic string) *Producer[T] {
	return &Producer[T]{topic: topic, producer: producer}
}

// Send key 为空时由分区器随机选择分区
func (p *Producer[T]) Send(key string, obj *T, header map[string]string) error {
	value, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Value: sarama.ByteEncoder(value),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}
	for k, v := range header {
		msg.Headers = append(msg.Headers, sarama.RecordHeader{
			Key:   []byte(k),
			Value: []byte(v),
		})
	}
	_, _, err = p.producer.SendMessage(msg)
	return err
}

func (p *Producer[T]) Close() error {
	return p.producer.Close()
}
