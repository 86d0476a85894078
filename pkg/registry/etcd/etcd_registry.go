package etcd

import (
	"context"
	"errors"
	"strings"
	"time"

	registry "github.com/code-sigs/eureka-connector/pkg/registry/registry_interface"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const (
	defaultPrefix   = "/eureka-connector/services"
	defaultLeaseTTL = 600
)

type Options struct {
	Endpoints   []string
	Username    string
	Password    string
	Prefix      string
	DialTimeout time.Duration
}

// EtcdRegistry 实例以 JSON 存放在 <prefix>/<app>/<instanceId>
type EtcdRegistry struct {
	cli    *clientv3.Client
	prefix string
	owned  bool
}

func NewEtcdRegistry(opt Options) (*EtcdRegistry, error) {
	if len(opt.Endpoints) == 0 {
		return nil, errors.New("etcd registry: endpoints are required")
	}
	dialTimeout := opt.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = 5 * time.Second
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   opt.Endpoints,
		Username:    opt.Username,
		Password:    opt.Password,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, err
	}
	reg := NewEtcdRegistryWithClient(cli, opt.Prefix)
	reg.owned = true
	return reg, nil
}

// NewEtcdRegistryWithClient 复用调用方的 etcd 客户端，Close 不会关闭它
func NewEtcdRegistryWithClient(cli *clientv3.Client, prefix string) *EtcdRegistry {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &EtcdRegistry{
		cli:    cli,
		prefix: strings.TrimRight(prefix, "/"),
	}
}

func (e *EtcdRegistry) key(serviceName, instanceID string) string {
	return e.servicePrefix(serviceName) + instanceID
}

func (e *EtcdRegistry) servicePrefix(serviceName string) string {
	return e.prefix + "/" + serviceName + "/"
}

func (e *EtcdRegistry) Register(ctx context.Context, info *registry.ServiceInfo) error {
	if info == nil || info.Instance == nil {
		return errors.New("etcd registry: instance is required")
	}
	key := e.key(info.Name, info.InstanceID())

	valBytes, err := registry.EncodeInstance(info.Instance)
	if err != nil {
		return err
	}

	leaseResp, err := e.cli.Grant(ctx, defaultLeaseTTL)
	if err != nil {
		return err
	}
	info.LeaseID = int64(leaseResp.ID)

	_, err = e.cli.Put(ctx, key, string(valBytes), clientv3.WithLease(leaseResp.ID))
	if err != nil {
		_, _ = e.cli.Revoke(context.Background(), leaseResp.ID)
		return err
	}

	ch, kaerr := e.cli.KeepAlive(ctx, leaseResp.ID)
	if kaerr != nil {
		_, _ = e.cli.Delete(context.Background(), key)
		_, _ = e.cli.Revoke(context.Background(), leaseResp.ID)
		return kaerr
	}

	go func() {
		for {
			select {
			case _, ok := <-ch:
				if !ok {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (e *EtcdRegistry) Unregister(ctx context.Context, info *registry.ServiceInfo) error {
	_, err := e.cli.Delete(ctx, e.key(info.Name, info.InstanceID()))
	if info.LeaseID != 0 {
		_, _ = e.cli.Revoke(ctx, clientv3.LeaseID(info.LeaseID))
	}
	return err
}

func (e *EtcdRegistry) Name() string {
	return "etcd"
}

// GetServiceInstances 直接读取 etcd，无法解析的记录会被跳过
func (e *EtcdRegistry) GetServiceInstances(ctx context.Context, serviceName string) ([]*registry.ServiceInstance, error) {
	resp, err := e.cli.Get(ctx, e.servicePrefix(serviceName), clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, err
	}
	instances := make([]*registry.ServiceInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		if inst, ok := registry.DecodeInstance(kv.Value, serviceName); ok {
			instances = append(instances, inst)
		}
	}
	return instances, nil
}

func (e *EtcdRegistry) Close() error {
	if !e.owned {
		return nil
	}
	return e.cli.Close()
}
