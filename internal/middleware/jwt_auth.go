package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"deptinbox/backend/internal/auth/jwt"
)

// ContextKeyAdmin 认证通过后写入上下文的管理员用户名
const ContextKeyAdmin = "admin"

// TokenValidator 校验访问令牌
type TokenValidator interface {
	ValidateToken(token string) (*jwt.Claims, error)
}

// AdminAuth 后台接口的 JWT 认证中间件
type AdminAuth struct {
	validator TokenValidator
	log       *zap.Logger
}

// NewAdminAuth 创建认证中间件，validator 为 nil 时不做认证（开发模式）
func NewAdminAuth(validator TokenValidator, log *zap.Logger) *AdminAuth {
	return &AdminAuth{validator: validator, log: log}
}

// RequireAdmin 要求有效的管理员令牌
func (a *AdminAuth) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.validator == nil {
			c.Next()
			return
		}

		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "authentication required",
			})
			return
		}

		claims, err := a.validator.ValidateToken(token)
		if err != nil {
			a.log.Warn("invalid admin token",
				zap.String("error", err.Error()),
				zap.String("ip", c.ClientIP()),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "invalid or expired token",
			})
			return
		}

		c.Set(ContextKeyAdmin, claims.Username)
		c.Next()
	}
}

// extractToken 从 Authorization 头或 cookie 中提取令牌
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}

	token, err := c.Cookie("access_token")
	if err == nil && token != "" {
		return token
	}

	return ""
}
