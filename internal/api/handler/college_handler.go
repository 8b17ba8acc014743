package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// CollegeHandler 学院模块 HTTP 处理器
type CollegeHandler struct {
	errorResponder
	collegeSvc service.CollegeService
}

// NewCollegeHandler 创建 CollegeHandler
func NewCollegeHandler(collegeSvc service.CollegeService, production bool) *CollegeHandler {
	return &CollegeHandler{errorResponder: errorResponder{production: production}, collegeSvc: collegeSvc}
}

// ListPublic 注册页可选的已审核学院（无需认证）
// GET /api/v1/colleges/public/approved
func (h *CollegeHandler) ListPublic(c *gin.Context) {
	colleges, err := h.collegeSvc.ListPublic(c.Request.Context())
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": colleges})
}

// ListColleges 学院列表（可按状态筛选）
// GET /api/v1/colleges
func (h *CollegeHandler) ListColleges(c *gin.Context) {
	var req dto.CollegeListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}
	h.list(c, req.Status)
}

// ListApproved 已审核学院
// GET /api/v1/colleges/approved
func (h *CollegeHandler) ListApproved(c *gin.Context) {
	h.list(c, model.StatusApproved)
}

// ListPending 待审核学院
// GET /api/v1/colleges/pending
func (h *CollegeHandler) ListPending(c *gin.Context) {
	h.list(c, model.StatusPending)
}

func (h *CollegeHandler) list(c *gin.Context, status string) {
	colleges, err := h.collegeSvc.List(c.Request.Context(), status)
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, gin.H{"list": colleges})
}

// GetCollege 学院详情
// GET /api/v1/colleges/:id
func (h *CollegeHandler) GetCollege(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	college, err := h.collegeSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, college)
}

// CreateCollege 超级管理员创建学院
// POST /api/v1/colleges
func (h *CollegeHandler) CreateCollege(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	college, err := h.collegeSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.Created(c, college)
}

// UpdateCollege 更新学院信息
// PATCH /api/v1/colleges/:id
func (h *CollegeHandler) UpdateCollege(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	var req dto.UpdateCollegeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	college, err := h.collegeSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, college)
}

// ApproveCollege 审核通过
// POST /api/v1/colleges/:id/approve
func (h *CollegeHandler) ApproveCollege(c *gin.Context) {
	h.review(c, true)
}

// RejectCollege 审核拒绝
// POST /api/v1/colleges/:id/reject
func (h *CollegeHandler) RejectCollege(c *gin.Context) {
	h.review(c, false)
}

func (h *CollegeHandler) review(c *gin.Context, approve bool) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	var (
		college *dto.CollegeResponse
		err     error
		msg     string
	)
	if approve {
		college, err = h.collegeSvc.Approve(c.Request.Context(), caller, id)
		msg = "学院已通过审核"
	} else {
		college, err = h.collegeSvc.Reject(c.Request.Context(), caller, id)
		msg = "学院已被拒绝"
	}
	if err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, dto.ReviewCollegeResponse{College: college, Message: msg})
}

// DeleteCollege 删除学院（仍有关联数据时返回 400）
// DELETE /api/v1/colleges/:id
func (h *CollegeHandler) DeleteCollege(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	if err := h.collegeSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleCollegeError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "学院已删除"})
}

// handleCollegeError 统一处理学院模块业务错误
func (h *CollegeHandler) handleCollegeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCollegeNotFound):
		response.NotFound(c, 13001, "学院不存在")
	case errors.Is(err, service.ErrCollegeAlreadyReviewed):
		response.Conflict(c, 13002, err.Error())
	case errors.Is(err, service.ErrCollegeCodeExists):
		response.Conflict(c, 13003, "学院编码冲突，请重试")
	default:
		h.handleCommonError(c, err)
	}
}
