package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"deptinbox/backend/internal/overflow"
)

var _ overflow.Mirror = (*Mirror)(nil)

// listAPI 是 Mirror 用到的列表命令，*goredis.Client 满足它
type listAPI interface {
	LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *goredis.StatusCmd
}

// Mirror 把溢出队列条目写入 Redis 列表，最新的在表头
type Mirror struct {
	rdb      listAPI
	key      string
	capacity int64
}

// NewMirror 创建列表镜像，列表长度与内存队列容量一致
func NewMirror(rdb listAPI, key string, capacity int) *Mirror {
	if capacity <= 0 {
		capacity = overflow.DefaultCapacity
	}
	return &Mirror{rdb: rdb, key: key, capacity: int64(capacity)}
}

// Push 以 JSON 写入条目并裁剪列表
func (m *Mirror) Push(ctx context.Context, entry overflow.Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis mirror: encode entry: %w", err)
	}
	if err := m.rdb.LPush(ctx, m.key, data).Err(); err != nil {
		return fmt.Errorf("redis mirror: lpush: %w", err)
	}
	if err := m.rdb.LTrim(ctx, m.key, 0, m.capacity-1).Err(); err != nil {
		return fmt.Errorf("redis mirror: ltrim: %w", err)
	}
	return nil
}
