package httptransport

import (
	"github.com/gin-gonic/gin"

	"deptinbox/backend/internal/domain"
)

// Response 统一响应结构，success 与 HTTP 状态码保持一致
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SubmitResponse 提交成功
type SubmitResponse struct {
	Response
	ID string `json:"id"`
}

// ListResponse 留言列表，Counts 仅在未按状态过滤时返回
type ListResponse struct {
	Response
	Messages []domain.Message      `json:"messages"`
	Count    int                   `json:"count"`
	Counts   map[domain.Status]int `json:"counts,omitempty"`
}

// LoginResponse 登录成功
type LoginResponse struct {
	Response
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expiresIn"`
}

// ok 构造成功响应头部
func ok(msg string) Response {
	return Response{Success: true, Message: msg}
}

// Success 成功响应
func Success(c *gin.Context, status int, msg string) {
	c.JSON(status, ok(msg))
}

// Fail 失败响应
func Fail(c *gin.Context, status int, errMsg string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Error: errMsg})
}
