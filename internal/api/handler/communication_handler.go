package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// CommunicationHandler 公告与讨论 HTTP 处理器
type CommunicationHandler struct {
	errorResponder
	commSvc service.CommunicationService
}

// NewCommunicationHandler 创建 CommunicationHandler
func NewCommunicationHandler(commSvc service.CommunicationService, production bool) *CommunicationHandler {
	return &CommunicationHandler{errorResponder: errorResponder{production: production}, commSvc: commSvc}
}

// ── 公告 ──

// ListAnnouncements 当前用户可见的公告
// GET /api/v1/communication/announcements
func (h *CommunicationHandler) ListAnnouncements(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.commSvc.ListAnnouncements(c.Request.Context(), caller)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateAnnouncement 发布公告
// POST /api/v1/communication/announcements
func (h *CommunicationHandler) CreateAnnouncement(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	a, err := h.commSvc.CreateAnnouncement(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.Created(c, a)
}

// ── 讨论 ──

// ListDiscussions 讨论列表
// GET /api/v1/communication/discussions
func (h *CommunicationHandler) ListDiscussions(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.DiscussionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	list, err := h.commSvc.ListDiscussions(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateDiscussion 发起讨论
// POST /api/v1/communication/discussions
func (h *CommunicationHandler) CreateDiscussion(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateDiscussionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	d, err := h.commSvc.CreateDiscussion(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.Created(c, d)
}

// DeleteDiscussion 删除讨论
// DELETE /api/v1/communication/discussions/:id
func (h *CommunicationHandler) DeleteDiscussion(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "讨论ID")
	if !ok {
		return
	}

	if err := h.commSvc.DeleteDiscussion(c.Request.Context(), caller, id); err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "讨论已删除"})
}

// ListReplies 讨论回复
// GET /api/v1/communication/discussions/:id/replies
func (h *CommunicationHandler) ListReplies(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "讨论ID")
	if !ok {
		return
	}

	list, err := h.commSvc.ListReplies(c.Request.Context(), caller, id)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateReply 回复讨论
// POST /api/v1/communication/discussions/:id/replies
func (h *CommunicationHandler) CreateReply(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "讨论ID")
	if !ok {
		return
	}

	var req dto.CreateReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	reply, err := h.commSvc.CreateReply(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.Created(c, reply)
}

// ── 私信 ──

// ListConversations 当前用户参与的会话
// GET /api/v1/communication/conversations
func (h *CommunicationHandler) ListConversations(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	list, err := h.commSvc.ListConversations(c.Request.Context(), caller)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateConversation 创建会话
// POST /api/v1/communication/conversations
func (h *CommunicationHandler) CreateConversation(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	conv, err := h.commSvc.CreateConversation(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.Created(c, conv)
}

// ListMessages 会话消息，按时间正序
// GET /api/v1/communication/conversations/:id/messages
func (h *CommunicationHandler) ListMessages(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "会话ID")
	if !ok {
		return
	}

	list, err := h.commSvc.ListMessages(c.Request.Context(), caller, id)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// SendMessage 发送消息
// POST /api/v1/communication/conversations/:id/messages
func (h *CommunicationHandler) SendMessage(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "会话ID")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	msg, err := h.commSvc.SendMessage(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleCommunicationError(c, err)
		return
	}

	response.Created(c, msg)
}

// handleCommunicationError 统一处理交流模块业务错误
func (h *CommunicationHandler) handleCommunicationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrDiscussionNotFound):
		response.NotFound(c, 19001, "讨论不存在")
	case errors.Is(err, service.ErrConversationNotFound):
		response.NotFound(c, 19002, "会话不存在")
	case errors.Is(err, service.ErrTooFewParticipants):
		response.BadRequest(c, 19003, "会话至少需要两名参与者")
	case errors.Is(err, service.ErrParticipantNotFound):
		response.BadRequest(c, 19004, "参与者不存在或不在同一学院")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	default:
		h.handleCommonError(c, err)
	}
}
