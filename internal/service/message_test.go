package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/overflow"
	"deptinbox/backend/internal/storage"
	"deptinbox/backend/internal/storage/memory"
)

// MockGateway 模拟存储网关
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockGateway) Insert(ctx context.Context, message *domain.Message) (storage.InsertResult, error) {
	args := m.Called(ctx, message)
	return args.Get(0).(storage.InsertResult), args.Error(1)
}

func (m *MockGateway) Find(ctx context.Context, opts storage.FindOptions) ([]domain.Message, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockGateway) UpdateOne(ctx context.Context, id string, update storage.StatusUpdate) (storage.UpdateResult, error) {
	args := m.Called(ctx, id, update)
	return args.Get(0).(storage.UpdateResult), args.Error(1)
}

func (m *MockGateway) DeleteOne(ctx context.Context, id string) (storage.DeleteResult, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(storage.DeleteResult), args.Error(1)
}

func (m *MockGateway) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// fakeMirror 记录镜像写入
type fakeMirror struct {
	entries []overflow.Entry
	err     error
}

func (f *fakeMirror) Push(_ context.Context, entry overflow.Entry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

// tickingClock 每次调用前进一秒
func tickingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func newServices(t *testing.T) (*IntakeService, *TriageService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	clock := tickingClock(time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC))

	intake := NewIntakeService(store, overflow.New(10), time.Second, nil)
	intake.now = clock
	triage := NewTriageService(store, time.Second, nil)
	triage.now = clock
	return intake, triage, store
}

func TestIntakeService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("提交后可在列表中看到未读留言", func(t *testing.T) {
		intake, triage, _ := newServices(t)

		ref, err := intake.Submit(ctx, domain.Submission{
			Name:  "Ada Lovelace",
			Email: "ada@example.edu",
			Phone: "555-0100",
			Body:  "Question about admissions",
		})
		require.NoError(t, err)
		require.NotEmpty(t, ref.ID)

		messages, err := triage.List(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 1)

		m := messages[0]
		assert.Equal(t, ref.ID, m.ID)
		assert.Equal(t, "Ada Lovelace", m.Name)
		assert.Equal(t, "ada@example.edu", m.Email)
		assert.Equal(t, "555-0100", m.Phone)
		assert.Equal(t, "Question about admissions", m.Body)
		assert.Equal(t, domain.DefaultSubject, m.Subject)
		assert.Equal(t, domain.StatusUnread, m.Status)
		assert.Nil(t, m.UpdatedAt)
	})

	t.Run("字段原样保存不去空白", func(t *testing.T) {
		intake, triage, _ := newServices(t)

		body := "  1. first line\n  2. second line\n"
		_, err := intake.Submit(ctx, domain.Submission{
			Name:    " Ada ",
			Email:   "ada@example.edu ",
			Subject: " Labs ",
			Body:    body,
		})
		require.NoError(t, err)

		messages, err := triage.List(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, body, messages[0].Body)
		assert.Equal(t, " Ada ", messages[0].Name)
		assert.Equal(t, "ada@example.edu ", messages[0].Email)
		assert.Equal(t, " Labs ", messages[0].Subject)
	})

	t.Run("缺少必填字段不写入", func(t *testing.T) {
		intake, triage, _ := newServices(t)

		_, err := intake.Submit(ctx, domain.Submission{Name: "  ", Email: "", Body: "hi"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)

		var de *domain.Error
		require.ErrorAs(t, err, &de)
		assert.Equal(t, []string{"name", "email"}, de.Fields)

		messages, err := triage.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, messages)
		assert.Zero(t, intake.Queue().Len())
	})

	t.Run("成功提交写入溢出队列和镜像", func(t *testing.T) {
		intake, _, _ := newServices(t)
		mirror := &fakeMirror{}
		intake.SetMirror(mirror)

		_, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})
		require.NoError(t, err)

		assert.Equal(t, 1, intake.Queue().Len())
		require.Len(t, mirror.entries, 1)
		assert.Equal(t, "hello", mirror.entries[0].Message.Body)
		assert.Empty(t, mirror.entries[0].Message.ID)
	})

	t.Run("镜像失败不影响提交", func(t *testing.T) {
		intake, _, _ := newServices(t)
		intake.SetMirror(&fakeMirror{err: errors.New("redis down")})

		ref, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})
		require.NoError(t, err)
		assert.NotEmpty(t, ref.ID)
	})

	t.Run("存储失败返回持久化错误", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Insert", mock.Anything, mock.AnythingOfType("*domain.Message")).
			Return(storage.InsertResult{}, errors.New("connection refused"))

		intake := NewIntakeService(gw, nil, time.Second, nil)
		_, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.Contains(t, err.Error(), "connection refused")
		gw.AssertExpectations(t)
	})

	t.Run("未确认的写入视为失败", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Insert", mock.Anything, mock.Anything).
			Return(storage.InsertResult{Acknowledged: false}, nil)

		intake := NewIntakeService(gw, nil, time.Second, nil)
		_, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})

		assert.ErrorIs(t, err, domain.ErrPersistence)
	})

	t.Run("超时返回持久化错误", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Insert", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				<-args.Get(0).(context.Context).Done()
			}).
			Return(storage.InsertResult{}, context.DeadlineExceeded)

		intake := NewIntakeService(gw, nil, 20*time.Millisecond, nil)
		_, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})

		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestTriageService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("依次切换到每种状态", func(t *testing.T) {
		intake, triage, _ := newServices(t)
		ref, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})
		require.NoError(t, err)

		for _, status := range []domain.Status{domain.StatusRead, domain.StatusArchived, domain.StatusUnread} {
			require.NoError(t, triage.UpdateStatus(ctx, ref.ID, string(status)))

			messages, err := triage.List(ctx)
			require.NoError(t, err)
			require.Len(t, messages, 1)
			assert.Equal(t, status, messages[0].Status)
			require.NotNil(t, messages[0].UpdatedAt)
		}
	})

	t.Run("重复设置相同状态只刷新更新时间", func(t *testing.T) {
		intake, triage, _ := newServices(t)
		ref, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hello"})
		require.NoError(t, err)

		require.NoError(t, triage.UpdateStatus(ctx, ref.ID, "read"))
		first, err := triage.List(ctx)
		require.NoError(t, err)

		require.NoError(t, triage.UpdateStatus(ctx, ref.ID, "READ "))
		second, err := triage.List(ctx)
		require.NoError(t, err)

		assert.Equal(t, domain.StatusRead, second[0].Status)
		assert.True(t, second[0].UpdatedAt.After(*first[0].UpdatedAt))
	})

	t.Run("非法状态", func(t *testing.T) {
		_, triage, _ := newServices(t)
		err := triage.UpdateStatus(ctx, "any", "deleted")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("不存在的ID", func(t *testing.T) {
		_, triage, _ := newServices(t)
		assert.ErrorIs(t, triage.UpdateStatus(ctx, "missing", "read"), domain.ErrNotFound)
		assert.ErrorIs(t, triage.UpdateStatus(ctx, "  ", "read"), domain.ErrNotFound)
	})

	t.Run("存储错误", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("UpdateOne", mock.Anything, "abc", mock.MatchedBy(func(u storage.StatusUpdate) bool {
			return u.Status == domain.StatusArchived && !u.UpdatedAt.IsZero()
		})).Return(storage.UpdateResult{}, errors.New("write conflict"))

		triage := NewTriageService(gw, time.Second, nil)
		err := triage.UpdateStatus(ctx, "abc", "archived")
		assert.ErrorIs(t, err, domain.ErrPersistence)
		gw.AssertExpectations(t)
	})
}

func TestTriageService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("删除后列表不再包含且再次删除报不存在", func(t *testing.T) {
		intake, triage, _ := newServices(t)
		keep, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "keep"})
		require.NoError(t, err)
		gone, err := intake.Submit(ctx, domain.Submission{Name: "B", Email: "b@x", Body: "gone"})
		require.NoError(t, err)

		require.NoError(t, triage.Delete(ctx, gone.ID))

		messages, err := triage.List(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 1)
		assert.Equal(t, keep.ID, messages[0].ID)

		assert.ErrorIs(t, triage.Delete(ctx, gone.ID), domain.ErrNotFound)
	})

	t.Run("不存在的ID", func(t *testing.T) {
		_, triage, _ := newServices(t)
		assert.ErrorIs(t, triage.Delete(ctx, "missing"), domain.ErrNotFound)
	})
}

func TestTriageService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("按创建时间倒序", func(t *testing.T) {
		intake, triage, _ := newServices(t)
		var ids []string
		for _, name := range []string{"first", "second", "third"} {
			ref, err := intake.Submit(ctx, domain.Submission{Name: name, Email: "x@y", Body: "b"})
			require.NoError(t, err)
			ids = append(ids, ref.ID)
		}

		messages, err := triage.List(ctx)
		require.NoError(t, err)
		require.Len(t, messages, 3)
		assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{messages[0].ID, messages[1].ID, messages[2].ID})
		for i := 1; i < len(messages); i++ {
			assert.False(t, messages[i].CreatedAt.After(messages[i-1].CreatedAt))
		}
	})

	t.Run("空存储返回非nil空切片", func(t *testing.T) {
		_, triage, _ := newServices(t)
		messages, err := triage.List(ctx)
		require.NoError(t, err)
		assert.NotNil(t, messages)
		assert.Empty(t, messages)
	})

	t.Run("Ping失败时不查询", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Ping", mock.Anything).Return(errors.New("server selection error"))

		triage := NewTriageService(gw, time.Second, nil)
		_, err := triage.List(ctx)

		assert.ErrorIs(t, err, domain.ErrPersistence)
		assert.Contains(t, err.Error(), "server selection error")
		gw.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("查询失败", func(t *testing.T) {
		gw := new(MockGateway)
		gw.On("Ping", mock.Anything).Return(nil)
		gw.On("Find", mock.Anything, storage.FindOptions{}).Return(nil, errors.New("cursor killed"))

		triage := NewTriageService(gw, time.Second, nil)
		messages, err := triage.List(ctx)

		assert.Nil(t, messages)
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})
}

func TestEndToEnd_StatusCounts(t *testing.T) {
	ctx := context.Background()
	intake, triage, _ := newServices(t)

	var ids []string
	for _, name := range []string{"a", "b", "c"} {
		ref, err := intake.Submit(ctx, domain.Submission{Name: name, Email: name + "@x", Body: "hi"})
		require.NoError(t, err)
		ids = append(ids, ref.ID)
	}

	require.NoError(t, triage.UpdateStatus(ctx, ids[0], "read"))
	require.NoError(t, triage.UpdateStatus(ctx, ids[1], "archived"))

	messages, err := triage.List(ctx)
	require.NoError(t, err)

	counts := domain.StatusCounts(messages)
	assert.Equal(t, 1, counts[domain.StatusUnread])
	assert.Equal(t, 1, counts[domain.StatusRead])
	assert.Equal(t, 1, counts[domain.StatusArchived])
}

func TestTriageService_ListByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("只返回指定状态", func(t *testing.T) {
		intake, triage, _ := newServices(t)
		var ids []string
		for _, name := range []string{"a", "b", "c"} {
			ref, err := intake.Submit(ctx, domain.Submission{Name: name, Email: name + "@x", Body: "hi"})
			require.NoError(t, err)
			ids = append(ids, ref.ID)
		}
		require.NoError(t, triage.UpdateStatus(ctx, ids[1], "read"))

		read, err := triage.ListByStatus(ctx, "read")
		require.NoError(t, err)
		require.Len(t, read, 1)
		assert.Equal(t, ids[1], read[0].ID)

		archived, err := triage.ListByStatus(ctx, "archived")
		require.NoError(t, err)
		assert.NotNil(t, archived)
		assert.Empty(t, archived)
	})

	t.Run("非法状态不查询", func(t *testing.T) {
		gw := new(MockGateway)
		triage := NewTriageService(gw, time.Second, nil)

		_, err := triage.ListByStatus(ctx, "spam")

		assert.ErrorIs(t, err, domain.ErrValidation)
		gw.AssertNotCalled(t, "Ping", mock.Anything)
		gw.AssertNotCalled(t, "Find", mock.Anything, mock.Anything)
	})

	t.Run("过滤条件传给存储", func(t *testing.T) {
		gw := new(MockGateway)
		archived := domain.StatusArchived
		gw.On("Ping", mock.Anything).Return(nil)
		gw.On("Find", mock.Anything, storage.FindOptions{Status: &archived}).Return([]domain.Message{}, nil)

		triage := NewTriageService(gw, time.Second, nil)
		_, err := triage.ListByStatus(ctx, "archived")

		require.NoError(t, err)
		gw.AssertExpectations(t)
	})
}

type countingRecorder struct {
	nopRecorder
	submitted   int
	transitions []domain.Status
	deleted     int
	failures    []string
	overflow    int
}

func (r *countingRecorder) RecordSubmitted() { r.submitted++ }
func (r *countingRecorder) RecordStatusTransition(s domain.Status) {
	r.transitions = append(r.transitions, s)
}
func (r *countingRecorder) RecordDeleted()                   { r.deleted++ }
func (r *countingRecorder) RecordPersistenceError(op string) { r.failures = append(r.failures, op) }
func (r *countingRecorder) SetOverflowLength(n int)          { r.overflow = n }

func TestServices_RecordMetrics(t *testing.T) {
	ctx := context.Background()
	intake, triage, _ := newServices(t)
	rec := &countingRecorder{}
	intake.SetMetrics(rec)
	triage.SetMetrics(rec)

	ref, err := intake.Submit(ctx, domain.Submission{Name: "A", Email: "a@x", Body: "hi"})
	require.NoError(t, err)
	require.NoError(t, triage.UpdateStatus(ctx, ref.ID, "archived"))
	require.NoError(t, triage.Delete(ctx, ref.ID))
	require.Error(t, triage.Delete(ctx, ref.ID))

	assert.Equal(t, 1, rec.submitted)
	assert.Equal(t, []domain.Status{domain.StatusArchived}, rec.transitions)
	assert.Equal(t, 1, rec.deleted)
	assert.Equal(t, 1, rec.overflow)
	assert.Empty(t, rec.failures, "not found is not a persistence failure")
}
