package domain

import (
	"strings"
	"time"
)

// DefaultSubject 未填写主题时使用的默认值
const DefaultSubject = "General Inquiry"

// Status 表示留言的处理状态。
type Status string

const (
	StatusUnread   Status = "unread"
	StatusRead     Status = "read"
	StatusArchived Status = "archived"
)

// Statuses 返回全部合法状态，顺序固定。
func Statuses() []Status {
	return []Status{StatusUnread, StatusRead, StatusArchived}
}

// ParseStatus 解析状态字符串（忽略大小写和首尾空白）。
func ParseStatus(value string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(value)))
	if !s.Valid() {
		return "", InvalidStatus(value)
	}
	return s, nil
}

// Valid 判断状态是否为三种合法值之一。
func (s Status) Valid() bool {
	switch s {
	case StatusUnread, StatusRead, StatusArchived:
		return true
	}
	return false
}

// Message 表示一条联系表单留言。
//
// 除 Status 与 UpdatedAt 外，创建后全部字段不可变。
type Message struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone,omitempty"`
	Subject   string     `json:"subject"`
	Body      string     `json:"message"`
	Status    Status     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// MessageRef 是写入成功后返回给调用方的引用。
type MessageRef struct {
	ID string `json:"id"`
}

// StatusCounts 按状态统计留言数量。
func StatusCounts(messages []Message) map[Status]int {
	counts := make(map[Status]int, 3)
	for _, s := range Statuses() {
		counts[s] = 0
	}
	for _, m := range messages {
		counts[m.Status]++
	}
	return counts
}
