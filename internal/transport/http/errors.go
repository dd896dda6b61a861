package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"deptinbox/backend/internal/auth/jwt"
	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/service"
)

// 通用消息
const (
	MsgInvalidJSON        = "invalid JSON body"
	MsgMessageSubmitted   = "Message submitted successfully"
	MsgMessagesFetched    = "Messages retrieved successfully"
	MsgStatusUpdated      = "Message status updated"
	MsgMessageDeleted     = "Message deleted"
	MsgLoginSucceeded     = "Login successful"
	MsgInvalidCredentials = "invalid username or password"
	MsgAuthDisabled       = "admin authentication is not configured"
	MsgTokenExpired       = "token expired, please log in again"
	MsgTokenInvalid       = "invalid access token"
	MsgInternal           = "internal server error"
)

// StatusCode 把业务错误映射为 HTTP 状态码
func StatusCode(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindPersistence:
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, jwt.ErrInvalidToken),
		errors.Is(err, jwt.ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrAuthDisabled):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// ErrorMessage 返回给客户端的错误描述
//
// 业务错误原样返回（持久化错误带底层诊断信息），其余错误不外泄细节。
func ErrorMessage(err error) string {
	if domain.KindOf(err) != "" {
		return err.Error()
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return MsgInvalidCredentials
	case errors.Is(err, service.ErrAuthDisabled):
		return MsgAuthDisabled
	case errors.Is(err, jwt.ErrExpiredToken):
		return MsgTokenExpired
	case errors.Is(err, jwt.ErrInvalidToken):
		return MsgTokenInvalid
	}
	return MsgInternal
}

// respondError 按错误类型写出失败响应
func respondError(c *gin.Context, err error) {
	Fail(c, StatusCode(err), ErrorMessage(err))
}
