package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmission_Validate(t *testing.T) {
	t.Run("完整提交通过校验", func(t *testing.T) {
		s := Submission{Name: "Ada", Email: "ada@example.edu", Body: "Hello"}
		assert.NoError(t, s.Validate())
	})

	t.Run("主题与电话可选", func(t *testing.T) {
		s := Submission{Name: "Ada", Email: "ada@example.edu", Body: "Hello", Subject: "", Phone: ""}
		assert.NoError(t, s.Validate())
	})

	t.Run("列出全部缺失字段", func(t *testing.T) {
		err := Submission{Name: "  ", Email: "", Body: "\t"}.Validate()
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrValidation))

		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, []string{"name", "email", "message"}, de.Fields)
		assert.Contains(t, err.Error(), "name, email, message")
	})

	t.Run("仅缺少邮箱", func(t *testing.T) {
		err := Submission{Name: "Ada", Body: "Hello"}.Validate()
		var de *Error
		require.True(t, errors.As(err, &de))
		assert.Equal(t, []string{"email"}, de.Fields)
	})
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("CST", 8*3600))

	msg := NewMessage(Submission{
		Name:  " Ada Lovelace ",
		Email: "ada@example.edu ",
		Phone: " 555-0100",
		Body:  " Admission question ",
	}, now)

	assert.Empty(t, msg.ID)
	assert.Equal(t, " Ada Lovelace ", msg.Name)
	assert.Equal(t, "ada@example.edu ", msg.Email)
	assert.Equal(t, " 555-0100", msg.Phone)
	assert.Equal(t, DefaultSubject, msg.Subject)
	assert.Equal(t, " Admission question ", msg.Body)
	assert.Equal(t, StatusUnread, msg.Status)
	assert.Equal(t, time.UTC, msg.CreatedAt.Location())
	assert.True(t, msg.CreatedAt.Equal(now))
	assert.Nil(t, msg.UpdatedAt)

	msg = NewMessage(Submission{Name: "A", Email: "a@b", Body: "x", Subject: " Labs "}, now)
	assert.Equal(t, " Labs ", msg.Subject)

	msg = NewMessage(Submission{Name: "A", Email: "a@b", Body: "x", Subject: " \t"}, now)
	assert.Equal(t, DefaultSubject, msg.Subject)
}

func TestParseStatus(t *testing.T) {
	for _, s := range Statuses() {
		got, err := ParseStatus(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStatus(" Archived ")
	require.NoError(t, err)
	assert.Equal(t, StatusArchived, got)

	for _, bad := range []string{"", "deleted", "pending"} {
		_, err := ParseStatus(bad)
		assert.True(t, errors.Is(err, ErrValidation), bad)
		assert.False(t, errors.Is(err, ErrNotFound), bad)
	}
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("connection refused")
	err := Persistence("insert", cause)

	assert.True(t, errors.Is(err, ErrPersistence))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, KindPersistence, KindOf(err))
	assert.Equal(t, "insert failed: connection refused", err.Error())

	nf := NotFound("abc")
	assert.True(t, errors.Is(nf, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(nf))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestStatusCounts(t *testing.T) {
	counts := StatusCounts([]Message{
		{Status: StatusUnread},
		{Status: StatusRead},
		{Status: StatusRead},
	})
	assert.Equal(t, 1, counts[StatusUnread])
	assert.Equal(t, 2, counts[StatusRead])
	assert.Equal(t, 0, counts[StatusArchived])
}
