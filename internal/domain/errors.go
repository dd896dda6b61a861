package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind 区分三类业务错误。
type ErrorKind string

const (
	KindValidation  ErrorKind = "validation"
	KindNotFound    ErrorKind = "not_found"
	KindPersistence ErrorKind = "persistence"
)

// 供 errors.Is 匹配的哨兵错误
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("message not found")
	ErrPersistence = errors.New("persistence failure")
)

// Error 是服务层向外抛出的类型化错误。
type Error struct {
	Kind   ErrorKind
	Reason string
	Fields []string // 仅 validation：缺失或非法的字段
	Err    error    // 仅 persistence：底层存储的诊断信息
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is 让 errors.Is(err, ErrNotFound) 这类判断按 Kind 生效。
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrPersistence:
		return e.Kind == KindPersistence
	}
	return false
}

// MissingFields 构造缺少必填字段的校验错误。
func MissingFields(fields ...string) *Error {
	return &Error{
		Kind:   KindValidation,
		Reason: "missing required field(s): " + strings.Join(fields, ", "),
		Fields: fields,
	}
}

// InvalidStatus 构造非法状态值的校验错误。
func InvalidStatus(value string) *Error {
	allowed := make([]string, 0, 3)
	for _, s := range Statuses() {
		allowed = append(allowed, string(s))
	}
	return &Error{
		Kind:   KindValidation,
		Reason: fmt.Sprintf("invalid status %q, must be one of: %s", value, strings.Join(allowed, ", ")),
		Fields: []string{"status"},
	}
}

// NotFound 构造留言不存在错误。
func NotFound(id string) *Error {
	return &Error{
		Kind:   KindNotFound,
		Reason: fmt.Sprintf("message %q not found", id),
	}
}

// Persistence 包装存储层错误，保留原始诊断信息。
func Persistence(op string, err error) *Error {
	return &Error{
		Kind:   KindPersistence,
		Reason: op + " failed",
		Err:    err,
	}
}

// KindOf 返回 err 链中第一个 *Error 的 Kind，找不到时返回空串。
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}
