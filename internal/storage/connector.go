package storage

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"deptinbox/backend/internal/domain"
)

// ErrConnectorClosed 连接器关闭后再次获取句柄
var ErrConnectorClosed = errors.New("storage connector closed")

// DialFunc 建立到后端的连接。
type DialFunc func(ctx context.Context) (MessageGateway, error)

// Connector 懒加载并缓存存储句柄。
//
// 首次成功连接后始终返回同一个句柄；连接失败不会被缓存，下一次调用会重试。
type Connector struct {
	dial DialFunc
	log  *zap.Logger

	mu     sync.Mutex
	gw     MessageGateway
	closed bool
}

// NewConnector 创建连接器，dial 在第一次使用时才被调用。
func NewConnector(dial DialFunc, log *zap.Logger) *Connector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Connector{dial: dial, log: log}
}

// Get 返回已缓存的句柄，必要时建立连接。
func (c *Connector) Get(ctx context.Context) (MessageGateway, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrConnectorClosed
	}
	if c.gw != nil {
		return c.gw, nil
	}

	gw, err := c.dial(ctx)
	if err != nil {
		c.log.Warn("storage connect failed", zap.Error(err))
		return nil, err
	}
	c.log.Info("storage connected")
	c.gw = gw
	return gw, nil
}

// Close 关闭已建立的连接；未连接时直接返回。
func (c *Connector) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.gw == nil {
		return nil
	}
	err := c.gw.Close(ctx)
	c.gw = nil
	return err
}

// Ping 建立（或复用）连接并做一次存活检查。
func (c *Connector) Ping(ctx context.Context) error {
	gw, err := c.Get(ctx)
	if err != nil {
		return err
	}
	return gw.Ping(ctx)
}

var _ MessageGateway = (*lazyGateway)(nil)

// lazyGateway 把 Connector 适配为 MessageGateway，每次调用前取句柄。
type lazyGateway struct {
	c *Connector
}

// Lazy 返回一个按需连接的 MessageGateway。
func (c *Connector) Lazy() MessageGateway {
	return &lazyGateway{c: c}
}

func (l *lazyGateway) Ping(ctx context.Context) error {
	return l.c.Ping(ctx)
}

func (l *lazyGateway) Insert(ctx context.Context, message *domain.Message) (InsertResult, error) {
	gw, err := l.c.Get(ctx)
	if err != nil {
		return InsertResult{}, err
	}
	return gw.Insert(ctx, message)
}

func (l *lazyGateway) Find(ctx context.Context, opts FindOptions) ([]domain.Message, error) {
	gw, err := l.c.Get(ctx)
	if err != nil {
		return nil, err
	}
	return gw.Find(ctx, opts)
}

func (l *lazyGateway) UpdateOne(ctx context.Context, id string, update StatusUpdate) (UpdateResult, error) {
	gw, err := l.c.Get(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	return gw.UpdateOne(ctx, id, update)
}

func (l *lazyGateway) DeleteOne(ctx context.Context, id string) (DeleteResult, error) {
	gw, err := l.c.Get(ctx)
	if err != nil {
		return DeleteResult{}, err
	}
	return gw.DeleteOne(ctx, id)
}

func (l *lazyGateway) Close(ctx context.Context) error {
	return l.c.Close(ctx)
}
