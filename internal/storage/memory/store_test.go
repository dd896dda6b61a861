package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/storage"
)

func newMessage(name string, createdAt time.Time) *domain.Message {
	return &domain.Message{
		Name:      name,
		Email:     name + "@example.edu",
		Subject:   domain.DefaultSubject,
		Body:      "hello from " + name,
		Status:    domain.StatusUnread,
		CreatedAt: createdAt,
	}
}

func TestMemoryStore_MessageOperations(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()

	// Insert 分配 ID，且不修改调用方的对象
	input := newMessage("ada", now)
	res, err := store.Insert(ctx, input)
	require.NoError(t, err)
	assert.True(t, res.Acknowledged)
	assert.NotEmpty(t, res.ID)
	assert.Empty(t, input.ID)

	// Find
	messages, err := store.Find(ctx, storage.FindOptions{})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, res.ID, messages[0].ID)
	assert.Equal(t, "ada", messages[0].Name)

	// UpdateOne
	updatedAt := now.Add(time.Minute)
	upd, err := store.UpdateOne(ctx, res.ID, storage.StatusUpdate{Status: domain.StatusRead, UpdatedAt: updatedAt})
	require.NoError(t, err)
	assert.Equal(t, int64(1), upd.MatchedCount)

	messages, err = store.Find(ctx, storage.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRead, messages[0].Status)
	require.NotNil(t, messages[0].UpdatedAt)
	assert.True(t, messages[0].UpdatedAt.Equal(updatedAt))

	upd, err = store.UpdateOne(ctx, "missing", storage.StatusUpdate{Status: domain.StatusRead, UpdatedAt: updatedAt})
	require.NoError(t, err)
	assert.Equal(t, int64(0), upd.MatchedCount)

	// DeleteOne
	del, err := store.DeleteOne(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), del.DeletedCount)

	del, err = store.DeleteOne(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), del.DeletedCount)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_FindOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := make([]string, 0, 3)
	for i, name := range []string{"t1", "t2", "t3"} {
		res, err := store.Insert(ctx, newMessage(name, base.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err)
		ids = append(ids, res.ID)
	}

	messages, err := store.Find(ctx, storage.FindOptions{})
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{messages[0].Name, messages[1].Name, messages[2].Name})

	_, err = store.UpdateOne(ctx, ids[1], storage.StatusUpdate{Status: domain.StatusArchived, UpdatedAt: base})
	require.NoError(t, err)

	archived := domain.StatusArchived
	messages, err = store.Find(ctx, storage.FindOptions{Status: &archived})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, ids[1], messages[0].ID)
}

func TestMemoryStore_SameTimestampUsesInsertOrder(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	now := time.Now().UTC()

	_, err := store.Insert(ctx, newMessage("first", now))
	require.NoError(t, err)
	_, err = store.Insert(ctx, newMessage("second", now))
	require.NoError(t, err)

	messages, err := store.Find(ctx, storage.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "second", messages[0].Name)
	assert.Equal(t, "first", messages[1].Name)
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Insert(ctx, newMessage("x", time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Ping(ctx), context.Canceled)
}
