package domain

import (
	"strings"
	"time"
)

// Submission 是联系表单提交的原始输入。
type Submission struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Body    string
}

// subject 返回主题，空白时使用默认值
func (s Submission) subject() string {
	if strings.TrimSpace(s.Subject) == "" {
		return DefaultSubject
	}
	return s.Subject
}

// Validate 检查必填字段，一次性列出所有缺失项。
//
// 邮箱格式由前端负责，这里只要求非空。
func (s Submission) Validate() error {
	var missing []string
	if strings.TrimSpace(s.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(s.Body) == "" {
		// 正文在 JSON 中的字段名是 message
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return MissingFields(missing...)
	}
	return nil
}

// NewMessage 由已校验的提交构造一条未读留言，ID 留给存储层分配。
//
// 去空白只用于必填校验，保存的字段与提交内容一致。
func NewMessage(s Submission, now time.Time) *Message {
	return &Message{
		Name:      s.Name,
		Email:     s.Email,
		Phone:     s.Phone,
		Subject:   s.subject(),
		Body:      s.Body,
		Status:    StatusUnread,
		CreatedAt: now.UTC(),
	}
}
