package redis

import (
	"context"
	"time"

	"github.com/code-sigs/eureka-connector/pkg/connector"
	"github.com/code-sigs/eureka-connector/pkg/errs"
)

// SnapshotStore 把最近一次成功拉取的快照以 JSON 保存在单个 key 中
type SnapshotStore struct {
	client *RedisClient
	key    string
	ttl    time.Duration
}

var _ connector.SnapshotStore = (*SnapshotStore)(nil)

// NewSnapshotStore ttl 为 0 表示不过期
func NewSnapshotStore(client *RedisClient, key string, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, key: key, ttl: ttl}
}

func (s *SnapshotStore) Save(ctx context.Context, snap *connector.Snapshot) error {
	if snap == nil {
		return nil
	}
	return errs.Wrapf(s.client.SetMarshal(ctx, s.key, snap, s.ttl), "save snapshot %s", s.key)
}

// Load key 不存在时返回 nil, nil
func (s *SnapshotStore) Load(ctx context.Context) (*connector.Snapshot, error) {
	var snap connector.Snapshot
	if err := s.client.GetUnmarshal(ctx, s.key, &snap); err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, errs.Wrapf(err, "load snapshot %s", s.key)
	}
	return &snap, nil
}
