package storage

import (
	"context"
	"time"

	"deptinbox/backend/internal/domain"
)

// InsertResult 对应文档库 insertOne 的确认结果。
type InsertResult struct {
	Acknowledged bool
	ID           string
}

// UpdateResult 对应 updateOne 的匹配数量。
type UpdateResult struct {
	MatchedCount int64
}

// DeleteResult 对应 deleteOne 的删除数量。
type DeleteResult struct {
	DeletedCount int64
}

// StatusUpdate 是唯一允许的字段更新：状态与更新时间。
type StatusUpdate struct {
	Status    domain.Status
	UpdatedAt time.Time
}

// FindOptions 定义查询过滤条件，结果始终按 createdAt 倒序。
type FindOptions struct {
	Status *domain.Status // nil 表示全部
}

// Matches 判断留言是否满足过滤条件。
func (o FindOptions) Matches(m *domain.Message) bool {
	return o.Status == nil || m.Status == *o.Status
}

// MessageGateway 定义留言集合的文档存储操作。
//
// 每个方法对应一次存储调用，单文档更新的原子性由后端保证。
type MessageGateway interface {
	Ping(ctx context.Context) error
	Insert(ctx context.Context, message *domain.Message) (InsertResult, error)
	Find(ctx context.Context, opts FindOptions) ([]domain.Message, error)
	UpdateOne(ctx context.Context, id string, update StatusUpdate) (UpdateResult, error)
	DeleteOne(ctx context.Context, id string) (DeleteResult, error)
	Close(ctx context.Context) error
}

// Migrator 由需要建表或建索引的后端实现。
type Migrator interface {
	Migrate(ctx context.Context) error
}
