package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// SearchHandler 全局搜索 HTTP 处理器
type SearchHandler struct {
	errorResponder
	searchSvc service.SearchService
}

// NewSearchHandler 创建 SearchHandler
func NewSearchHandler(searchSvc service.SearchService, production bool) *SearchHandler {
	return &SearchHandler{errorResponder: errorResponder{production: production}, searchSvc: searchSvc}
}

// Search 按租户范围搜索
// GET /api/v1/search?q=&type=
func (h *SearchHandler) Search(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	var req dto.SearchRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.searchSvc.Search(c.Request.Context(), caller, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSearchQueryTooShort):
			response.BadRequest(c, 20001, "搜索关键词至少 2 个字符")
		case errors.Is(err, service.ErrSearchInvalidType):
			response.BadRequest(c, 20002, "无效的搜索类型")
		default:
			h.handleCommonError(c, err)
		}
		return
	}

	response.OK(c, result)
}
