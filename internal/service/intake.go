package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/overflow"
	"deptinbox/backend/internal/storage"
)

// DefaultOperationTimeout 单次存储调用的默认超时
const DefaultOperationTimeout = 10 * time.Second

// errNotAcknowledged 存储层未确认写入
var errNotAcknowledged = errors.New("write was not acknowledged by the database")

// IntakeService 接收访客提交的留言。
type IntakeService struct {
	gateway storage.MessageGateway
	queue   *overflow.Queue
	mirror  overflow.Mirror
	timeout time.Duration
	metrics Recorder
	log     *zap.Logger
	now     func() time.Time
}

// NewIntakeService 创建留言接收服务，queue 为 nil 时使用默认容量的新队列。
func NewIntakeService(gateway storage.MessageGateway, queue *overflow.Queue, timeout time.Duration, log *zap.Logger) *IntakeService {
	if queue == nil {
		queue = overflow.New(overflow.DefaultCapacity)
	}
	if timeout <= 0 {
		timeout = DefaultOperationTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &IntakeService{
		gateway: gateway,
		queue:   queue,
		timeout: timeout,
		metrics: nopRecorder{},
		log:     log,
		now:     time.Now,
	}
}

// SetMirror 设置溢出队列的外部镜像
func (s *IntakeService) SetMirror(m overflow.Mirror) {
	s.mirror = m
}

// SetMetrics 设置指标接收器
func (s *IntakeService) SetMetrics(r Recorder) {
	if r != nil {
		s.metrics = r
	}
}

// Queue 返回溢出队列
func (s *IntakeService) Queue() *overflow.Queue {
	return s.queue
}

// Submit 校验并保存一条留言，返回存储层分配的 ID。
func (s *IntakeService) Submit(ctx context.Context, in domain.Submission) (domain.MessageRef, error) {
	if err := in.Validate(); err != nil {
		return domain.MessageRef{}, err
	}

	msg := domain.NewMessage(in, s.now())
	s.enqueue(ctx, *msg)

	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.gateway.Insert(opCtx, msg)
	if err == nil && !res.Acknowledged {
		err = errNotAcknowledged
	}
	if err != nil {
		s.metrics.RecordPersistenceError("insert")
		s.log.Error("failed to save message", zap.Error(err))
		return domain.MessageRef{}, domain.Persistence("save message", err)
	}

	s.metrics.RecordSubmitted()
	s.log.Info("message submitted", zap.String("id", res.ID))
	return domain.MessageRef{ID: res.ID}, nil
}

// enqueue 追加到溢出队列，镜像失败只记录日志
func (s *IntakeService) enqueue(ctx context.Context, msg domain.Message) {
	entry := s.queue.Push(msg)
	s.metrics.SetOverflowLength(s.queue.Len())

	if s.mirror == nil {
		return
	}
	mctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.mirror.Push(mctx, entry); err != nil {
		s.log.Warn("overflow mirror push failed",
			zap.String("queue_id", entry.QueueID),
			zap.Error(err),
		)
	}
}
