package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// ModelHandler 机器学习模型登记 HTTP 处理器
type ModelHandler struct {
	errorResponder
	modelSvc service.ModelService
}

// NewModelHandler 创建 ModelHandler
func NewModelHandler(modelSvc service.ModelService, production bool) *ModelHandler {
	return &ModelHandler{errorResponder: errorResponder{production: production}, modelSvc: modelSvc}
}

// ListModels 模型列表
// GET /api/v1/ml-models
func (h *ModelHandler) ListModels(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.ModelListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	list, err := h.modelSvc.List(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleModelError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// GetModel 模型详情
// GET /api/v1/ml-models/:id
func (h *ModelHandler) GetModel(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "模型ID")
	if !ok {
		return
	}

	m, err := h.modelSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleModelError(c, err)
		return
	}

	response.OK(c, m)
}

// CreateModel 登记模型
// POST /api/v1/ml-models
func (h *ModelHandler) CreateModel(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.CreateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	m, err := h.modelSvc.Create(c.Request.Context(), caller, &req)
	if err != nil {
		h.handleModelError(c, err)
		return
	}

	response.Created(c, m)
}

// UpdateModel 更新模型
// PATCH /api/v1/ml-models/:id
func (h *ModelHandler) UpdateModel(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "模型ID")
	if !ok {
		return
	}

	var req dto.UpdateModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	m, err := h.modelSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleModelError(c, err)
		return
	}

	response.OK(c, m)
}

// DeleteModel 删除模型
// DELETE /api/v1/ml-models/:id
func (h *ModelHandler) DeleteModel(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "模型ID")
	if !ok {
		return
	}

	if err := h.modelSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleModelError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "模型已删除"})
}

func (h *ModelHandler) handleModelError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrModelNotFound):
		response.NotFound(c, 23001, "模型不存在")
	case errors.Is(err, service.ErrProjectNotFound):
		response.NotFound(c, 14001, "项目不存在")
	default:
		h.handleCommonError(c, err)
	}
}
