package overflow

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"deptinbox/backend/internal/domain"
)

// DefaultCapacity 默认保留的条目数
const DefaultCapacity = 100

// Entry 是队列中的一条记录，QueueID 仅在队列内有效，与持久化 ID 无关
type Entry struct {
	QueueID    string         `json:"queueId"`
	Message    domain.Message `json:"message"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
}

// Mirror 把条目同步写到外部存储
type Mirror interface {
	Push(ctx context.Context, entry Entry) error
}

// Queue 是有界的内存环形队列，满时淘汰最旧的条目
type Queue struct {
	mu       sync.Mutex
	buf      []Entry
	head     int
	size     int
	capacity int
	now      func() time.Time
}

// New 创建队列，capacity <= 0 时使用 DefaultCapacity
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{
		buf:      make([]Entry, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Push 追加一份留言副本并返回生成的条目
func (q *Queue) Push(msg domain.Message) Entry {
	entry := Entry{
		QueueID:    uuid.NewString(),
		Message:    msg,
		EnqueuedAt: q.now().UTC(),
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	tail := (q.head + q.size) % q.capacity
	q.buf[tail] = entry
	if q.size < q.capacity {
		q.size++
	} else {
		q.head = (q.head + 1) % q.capacity
	}
	return entry
}

// Len 返回当前条目数
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

// Capacity 返回队列容量
func (q *Queue) Capacity() int {
	return q.capacity
}

// entries 按入队顺序（最旧在前）返回快照
func (q *Queue) entries() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%q.capacity]
	}
	return out
}
