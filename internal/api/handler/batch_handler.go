package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// BatchHandler 批量导入导出 HTTP 处理器
type BatchHandler struct {
	errorResponder
	batchSvc service.BatchService
}

// NewBatchHandler 创建 BatchHandler
func NewBatchHandler(batchSvc service.BatchService, production bool) *BatchHandler {
	return &BatchHandler{errorResponder: errorResponder{production: production}, batchSvc: batchSvc}
}

// ImportData 导入 CSV 数据
// POST /api/v1/batch/import/data  multipart: file, projectId
func (h *BatchHandler) ImportData(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	projectID := c.PostForm("projectId")
	if projectID == "" {
		response.BadRequest(c, 10001, "projectId 不能为空")
		return
	}

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			response.BadRequest(c, 22001, "请上传 CSV 文件")
			return
		}
		h.handleBindError(c, err)
		return
	}
	defer file.Close()

	resp, err := h.batchSvc.ImportData(c.Request.Context(), caller, projectID, file)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}

	response.Created(c, resp)
}

// ExportData 导出项目数据
// GET /api/v1/batch/export/data/:projectId?format=csv|xlsx
func (h *BatchHandler) ExportData(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	projectID, ok := MustGetUUIDParam(c, "projectId", "项目ID")
	if !ok {
		return
	}

	var req dto.ExportDataRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	file, err := h.batchSvc.ExportData(c.Request.Context(), caller, projectID, req.Format)
	if err != nil {
		h.handleBatchError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(file.Filename))
	c.Data(http.StatusOK, file.ContentType, file.Content.Bytes())
}

// handleBatchError 统一处理批量模块业务错误
func (h *BatchHandler) handleBatchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrImportEmpty):
		response.BadRequest(c, 22002, "CSV 文件为空或缺少表头")
	case errors.Is(err, service.ErrImportMalformed):
		response.BadRequest(c, 22003, err.Error())
	case errors.Is(err, service.ErrImportTooManyRows):
		response.BadRequest(c, 22004, err.Error())
	case errors.Is(err, service.ErrExportNoData):
		response.NotFound(c, 22005, "该项目暂无数据")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	case errors.Is(err, service.ErrExportGenerateFail):
		c.Error(err)
		response.InternalError(c)
	default:
		h.handleCommonError(c, err)
	}
}
