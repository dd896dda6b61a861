package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

// TriageService 提供后台对留言的查看、标记与删除。
type TriageService struct {
	gateway storage.MessageGateway
	timeout time.Duration
	metrics Recorder
	log     *zap.Logger
	now     func() time.Time
}

// NewTriageService 创建留言管理服务。
func NewTriageService(gateway storage.MessageGateway, timeout time.Duration, log *zap.Logger) *TriageService {
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &TriageService{
		gateway: gateway,
		timeout: timeout,
		metrics: nopRecorder{},
		log:     log,
		now:     time.Now,
	}
}

// SetMetrics 设置指标接收器
func (s *TriageService) SetMetrics(r Recorder) {
	if r != nil {
		s.metrics = r
	}
}

// List 返回全部留言，按创建时间倒序；每次调用都重新查询。
func (s *TriageService) List(ctx context.Context) ([]domain.Message, error) {
	return s.find(ctx, storage.FindOptions{})
}

// ListByStatus 只返回指定状态的留言，状态非法时返回校验错误。
func (s *TriageService) ListByStatus(ctx context.Context, status string) ([]domain.Message, error) {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, storage.FindOptions{Status: &parsed})
}

func (s *TriageService) find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.gateway.Ping(ctx); err != nil {
		return nil, s.persistenceError("ping", "fetch messages", err)
	}

	messages, err := s.gateway.Find(ctx, opts)
	if err != nil {
		return nil, s.persistenceError("find", "fetch messages", err)
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return messages, nil
}

// UpdateStatus 修改留言状态，允许任意状态间切换（含相同状态）。
func (s *TriageService) UpdateStatus(ctx context.Context, id, status string) error {
	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NotFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.gateway.UpdateOne(ctx, id, storage.StatusUpdate{
		Status:    parsed,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return s.persistenceError("update", "update message", err)
	}
	if res.MatchedCount == 0 {
		return domain.NotFound(id)
	}

	s.metrics.RecordStatusTransition(parsed)
	s.log.Info("message status updated", zap.String("id", id), zap.String("status", string(parsed)))
	return nil
}

// Delete 永久删除留言。
func (s *TriageService) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.NotFound(id)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.gateway.DeleteOne(ctx, id)
	if err != nil {
		return s.persistenceError("delete", "delete message", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(id)
	}

	s.metrics.RecordDeleted()
	s.log.Info("message deleted", zap.String("id", id))
	return nil
}

func (s *TriageService) persistenceError(op, action string, err error) error {
	s.metrics.RecordPersistenceError(op)
	s.log.Error("storage operation failed", zap.String("operation", op), zap.Error(err))
	return domain.Persistence(action, err)
}
