package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"deptinbox/backend/internal/service"
)

// AdminHandler 管理员登录
type AdminHandler struct {
	auth *service.AuthService
}

// NewAdminHandler 创建管理员处理器
func NewAdminHandler(auth *service.AuthService) *AdminHandler {
	return &AdminHandler{auth: auth}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login POST /admin/login
func (h *AdminHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "username and password are required")
		return
	}

	token, err := h.auth.Login(req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Response:  ok(MsgLoginSucceeded),
		Token:     token.AccessToken,
		ExpiresIn: token.ExpiresIn,
	})
}
