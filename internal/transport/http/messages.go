package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"deptinbox/backend/internal/domain"
	"deptinbox/backend/internal/service"
)

// MessageHandler 处理留言的提交与后台管理
type MessageHandler struct {
	intake *service.IntakeService
	triage *service.TriageService
}

// NewMessageHandler 创建留言处理器
func NewMessageHandler(intake *service.IntakeService, triage *service.TriageService) *MessageHandler {
	return &MessageHandler{intake: intake, triage: triage}
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// bindJSON 解析请求体，失败时已写出响应
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Fail(c, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		Fail(c, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

// Submit POST /messages
func (h *MessageHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindJSON(c, &req) {
		return
	}

	ref, err := h.intake.Submit(c.Request.Context(), domain.Submission{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Subject: req.Subject,
		Body:    req.Message,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{
		Response: ok(MsgMessageSubmitted),
		ID:       ref.ID,
	})
}

// List GET /messages[?status=unread|read|archived]
func (h *MessageHandler) List(c *gin.Context) {
	status, filtered := c.GetQuery("status")

	var (
		messages []domain.Message
		err      error
	)
	if filtered {
		messages, err = h.triage.ListByStatus(c.Request.Context(), status)
	} else {
		messages, err = h.triage.List(c.Request.Context())
	}
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ListResponse{
		Response: ok(MsgMessagesFetched),
		Messages: messages,
		Count:    len(messages),
	}
	if !filtered {
		resp.Counts = domain.StatusCounts(messages)
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateStatus PATCH /messages/:id
func (h *MessageHandler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.triage.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		respondError(c, err)
		return
	}

	Success(c, http.StatusOK, MsgStatusUpdated)
}

// Delete DELETE /messages/:id
func (h *MessageHandler) Delete(c *gin.Context) {
	if err := h.triage.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	Success(c, http.StatusOK, MsgMessageDeleted)
}
