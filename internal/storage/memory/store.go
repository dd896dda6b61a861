package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

var _ storage.MessageGateway = (*Store)(nil)

// Store 使用内存保存留言，主要用于开发验证和测试。
type Store struct {
	mu       sync.RWMutex
	messages map[string]*entry
	seq      uint64
}

type entry struct {
	msg domain.Message
	seq uint64 // 插入顺序，用于 createdAt 相同时的稳定排序
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		messages: make(map[string]*entry),
	}
}

// Ping 内存存储始终可用。
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Insert 保存留言并分配 ID。
func (s *Store) Insert(ctx context.Context, message *domain.Message) (storage.InsertResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.InsertResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.seq++
	stored := *message
	stored.ID = id
	s.messages[id] = &entry{msg: stored, seq: s.seq}

	return storage.InsertResult{Acknowledged: true, ID: id}, nil
}

// Find 返回满足条件的留言快照，按 createdAt 倒序。
func (s *Store) Find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entries := make([]*entry, 0, len(s.messages))
	for _, e := range s.messages {
		if opts.Matches(&e.msg) {
			cp := *e
			entries = append(entries, &cp)
		}
	}
	s.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if !a.msg.CreatedAt.Equal(b.msg.CreatedAt) {
			return a.msg.CreatedAt.After(b.msg.CreatedAt)
		}
		return a.seq > b.seq
	})

	result := make([]domain.Message, 0, len(entries))
	for _, e := range entries {
		result = append(result, e.msg)
	}
	return result, nil
}

// UpdateOne 更新状态与更新时间。
func (s *Store) UpdateOne(ctx context.Context, id string, update storage.StatusUpdate) (storage.UpdateResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.UpdateResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.messages[id]
	if !ok {
		return storage.UpdateResult{MatchedCount: 0}, nil
	}
	updatedAt := update.UpdatedAt
	e.msg.Status = update.Status
	e.msg.UpdatedAt = &updatedAt

	return storage.UpdateResult{MatchedCount: 1}, nil
}

// DeleteOne 删除指定留言。
func (s *Store) DeleteOne(ctx context.Context, id string) (storage.DeleteResult, error) {
	if err := ctx.Err(); err != nil {
		return storage.DeleteResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.messages[id]; !ok {
		return storage.DeleteResult{DeletedCount: 0}, nil
	}
	delete(s.messages, id)

	return storage.DeleteResult{DeletedCount: 1}, nil
}

// Close 内存存储无需释放资源。
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// Len 返回当前留言数量。
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}
