package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// ReportHandler 科研报告 HTTP 处理器
type ReportHandler struct {
	errorResponder
	reportSvc service.ReportService
}

// NewReportHandler 创建 ReportHandler
func NewReportHandler(reportSvc service.ReportService, production bool) *ReportHandler {
	return &ReportHandler{errorResponder: errorResponder{production: production}, reportSvc: reportSvc}
}

// ListReports 报告列表
// GET /api/v1/reports
func (h *ReportHandler) ListReports(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ReportListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	reports, err := h.reportSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, gin.H{"list": reports})
}

// GetReport 报告详情
// GET /api/v1/reports/:id
func (h *ReportHandler) GetReport(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "报告ID")
	if !ok {
		return
	}

	report, err := h.reportSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// CreateReport 创建报告（草稿）
// POST /api/v1/reports
func (h *ReportHandler) CreateReport(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	report, err := h.reportSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.Created(c, report)
}

// UpdateReport 更新报告
// PATCH /api/v1/reports/:id
func (h *ReportHandler) UpdateReport(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "报告ID")
	if !ok {
		return
	}

	var req dto.UpdateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	report, err := h.reportSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// DeleteReport 删除报告
// DELETE /api/v1/reports/:id
func (h *ReportHandler) DeleteReport(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "报告ID")
	if !ok {
		return
	}

	if err := h.reportSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "报告已删除"})
}

// PublishReport 发布报告
// PATCH /api/v1/reports/:id/publish
func (h *ReportHandler) PublishReport(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "报告ID")
	if !ok {
		return
	}

	report, err := h.reportSvc.Publish(c.Request.Context(), caller, id)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, report)
}

// Stats 报告统计
// GET /api/v1/reports/stats/summary
func (h *ReportHandler) Stats(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ReportStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	stats, err := h.reportSvc.Stats(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleReportError(c, err)
		return
	}

	response.OK(c, stats)
}

// handleReportError 统一处理报告模块业务错误
func (h *ReportHandler) handleReportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReportNotFound):
		response.NotFound(c, 17001, "报告不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	default:
		h.handleCommonError(c, err)
	}
}
