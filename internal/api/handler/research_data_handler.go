package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// ResearchDataHandler 科研数据条目 HTTP 处理器
type ResearchDataHandler struct {
	errorResponder
	dataSvc service.ResearchDataService
}

// NewResearchDataHandler 创建 ResearchDataHandler
func NewResearchDataHandler(dataSvc service.ResearchDataService, production bool) *ResearchDataHandler {
	return &ResearchDataHandler{errorResponder: errorResponder{production: production}, dataSvc: dataSvc}
}

// ListResearchData GET /api/v1/research-data
func (h *ResearchDataHandler) ListResearchData(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ResearchDataListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	list, err := h.dataSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleResearchDataError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// CreateResearchData POST /api/v1/research-data
func (h *ResearchDataHandler) CreateResearchData(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateResearchDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	entry, err := h.dataSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleResearchDataError(c, err)
		return
	}

	response.Created(c, entry)
}

// DeleteResearchData DELETE /api/v1/research-data/:id
func (h *ResearchDataHandler) DeleteResearchData(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "数据ID")
	if !ok {
		return
	}

	if err := h.dataSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleResearchDataError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "科研数据已删除"})
}

func (h *ResearchDataHandler) handleResearchDataError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrResearchDataNotFound):
		response.NotFound(c, 24001, "科研数据不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		h.handleCommonError(c, err)
	}
}
