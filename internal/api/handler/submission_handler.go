package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// SubmissionHandler 数据提交 HTTP 处理器
type SubmissionHandler struct {
	errorResponder
	submissionSvc service.SubmissionService
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService, production bool) *SubmissionHandler {
	return &SubmissionHandler{errorResponder: errorResponder{production: production}, submissionSvc: submissionSvc}
}

// SaveDraft 保存草稿（学生+项目 幂等）
// POST /api/v1/data-submissions/draft
func (h *SubmissionHandler) SaveDraft(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SaveDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	resp, err := h.submissionSvc.SaveDraft(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	if resp.Created {
		response.Created(c, resp)
		return
	}
	response.OK(c, resp)
}

// ListSubmissions 提交列表
// GET /api/v1/data-submissions
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SubmissionListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	list, total, err := h.submissionSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// ListByStudent 指定学生的提交
// GET /api/v1/data-submissions/student/:id
func (h *SubmissionHandler) ListByStudent(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	studentID, ok := MustGetUUIDParam(c, "id", "学生ID")
	if !ok {
		return
	}

	req := dto.SubmissionListRequest{StudentID: studentID}
	req.PageSize = 100
	list, total, err := h.submissionSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list, "total": total})
}

// ListByProject 指定项目的提交
// GET /api/v1/data-submissions/project/:id
func (h *SubmissionHandler) ListByProject(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := MustGetUUIDParam(c, "id", "项目ID")
	if !ok {
		return
	}

	list, err := h.submissionSvc.ListByProject(c.Request.Context(), caller, projectID)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetSubmission 提交详情
// GET /api/v1/data-submissions/:id
func (h *SubmissionHandler) GetSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	sub, err := h.submissionSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// CreateSubmission 直接提交（pending）
// POST /api/v1/data-submissions
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	sub, err := h.submissionSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.Created(c, sub)
}

// SubmitDraft 草稿提交审核
// POST /api/v1/data-submissions/:id/submit
func (h *SubmissionHandler) SubmitDraft(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Submit(c.Request.Context(), caller, id)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// UpdateSubmission 更新提交内容
// PATCH /api/v1/data-submissions/:id
func (h *SubmissionHandler) UpdateSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	var req dto.UpdateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	sub, err := h.submissionSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// DeleteSubmission 删除提交
// DELETE /api/v1/data-submissions/:id
func (h *SubmissionHandler) DeleteSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	if err := h.submissionSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "数据提交已删除"})
}

// ApproveSubmission 审核通过
// PATCH /api/v1/data-submissions/:id/approve
func (h *SubmissionHandler) ApproveSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	sub, err := h.submissionSvc.Approve(c.Request.Context(), caller, id)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// RejectSubmission 驳回（原因必填）
// PATCH /api/v1/data-submissions/:id/reject
func (h *SubmissionHandler) RejectSubmission(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "提交ID")
	if !ok {
		return
	}

	// 空 body 交给 service 按“原因必填”处理
	var req dto.RejectSubmissionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.handleBindError(c, err)
			return
		}
	}

	sub, err := h.submissionSvc.Reject(c.Request.Context(), caller, id, req.RejectionReason)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, sub)
}

// Stats 按状态统计
// GET /api/v1/data-submissions/stats/summary
func (h *SubmissionHandler) Stats(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SubmissionStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	stats, err := h.submissionSvc.Stats(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleSubmissionError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleSubmissionError 统一处理数据提交业务错误
func (h *SubmissionHandler) handleSubmissionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 15001, "数据提交不存在")
	case errors.Is(err, service.ErrSubmissionNotPending):
		response.Conflict(c, 15002, err.Error())
	case errors.Is(err, service.ErrRejectionReasonRequired):
		response.BadRequest(c, 15003, "驳回原因不能为空")
	case errors.Is(err, service.ErrSubmissionNotDraft):
		response.Conflict(c, 15004, err.Error())
	case errors.Is(err, service.ErrSubmissionLocked):
		response.Conflict(c, 15005, "已审核的提交不能修改")
	case errors.Is(err, service.ErrSubmissionStudentNotFound):
		response.NotFound(c, 15006, "学生不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	default:
		h.handleCommonError(c, err)
	}
}
