package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"deptinbox/backend/internal/config"
)

// connectTimeout 建立连接和首次 PING 的超时
const connectTimeout = 5 * time.Second

// Client 是溢出队列镜像使用的 Redis 连接
type Client struct {
	rdb *goredis.Client
	log *zap.Logger
}

// New 连接 Redis，PING 失败时返回错误且不保留连接。
//
// 只承载每次提交的一次 LPUSH/LTRIM，连接池保持很小。
func New(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (*Client, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		ClientName:   "deptinbox-overflow",
		DialTimeout:  connectTimeout,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     4,
	})

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", cfg.Address, err)
	}

	log.Info("connected to Redis",
		zap.String("address", cfg.Address),
		zap.Int("db", cfg.DB),
		zap.String("overflow_key", cfg.OverflowKey),
	)
	return &Client{rdb: rdb, log: log}, nil
}

// Client 返回底层客户端，用于构造 Mirror
func (c *Client) Client() *goredis.Client {
	return c.rdb
}

// Close 关闭连接
func (c *Client) Close() error {
	if err := c.rdb.Close(); err != nil {
		c.log.Error("failed to close Redis connection", zap.Error(err))
		return err
	}
	return nil
}

// Ping 供健康检查使用
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
