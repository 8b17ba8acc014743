package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// NotificationHandler 站内通知 HTTP 处理器
type NotificationHandler struct {
	errorResponder
	notificationSvc service.NotificationService
}

// NewNotificationHandler 创建 NotificationHandler
func NewNotificationHandler(notificationSvc service.NotificationService, production bool) *NotificationHandler {
	return &NotificationHandler{errorResponder: errorResponder{production: production}, notificationSvc: notificationSvc}
}

// ListNotifications 当前用户的通知
// GET /api/v1/notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.NotificationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	list, err := h.notificationSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// UnreadCount 未读数量
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.CountResponse{Count: count})
}

// GetNotification 通知详情
// GET /api/v1/notifications/:id
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "通知ID")
	if !ok {
		return
	}

	n, err := h.notificationSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, n)
}

// MarkRead 标记已读
// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "通知ID")
	if !ok {
		return
	}

	n, err := h.notificationSvc.MarkRead(c.Request.Context(), caller, id)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, n)
}

// MarkAllRead 全部标记已读
// PATCH /api/v1/notifications/mark-all-read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.MarkAllRead(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.CountResponse{Message: "已全部标记为已读", Count: count})
}

// DeleteNotification 删除一条通知
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "通知ID")
	if !ok {
		return
	}

	if err := h.notificationSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "通知已删除"})
}

// DeleteRead 删除全部已读通知
// DELETE /api/v1/notifications/read/all
func (h *NotificationHandler) DeleteRead(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.DeleteRead(c.Request.Context(), caller)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.OK(c, dto.CountResponse{Message: "已读通知已清理", Count: count})
}

// CreateNotification 管理员发送通知
// POST /api/v1/notifications
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	n, err := h.notificationSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleNotificationError(c, err)
		return
	}

	response.Created(c, n)
}

// handleNotificationError 统一处理通知模块业务错误
func (h *NotificationHandler) handleNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotificationNotFound):
		response.NotFound(c, 18001, "通知不存在")
	case errors.Is(err, service.ErrRecipientNotFound):
		response.NotFound(c, 18002, "接收用户不存在")
	default:
		h.handleCommonError(c, err)
	}
}
