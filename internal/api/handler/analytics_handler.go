package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// AnalyticsHandler 统计分析 HTTP 处理器
type AnalyticsHandler struct {
	errorResponder
	analyticsSvc service.AnalyticsService
}

// NewAnalyticsHandler 创建 AnalyticsHandler
func NewAnalyticsHandler(analyticsSvc service.AnalyticsService, production bool) *AnalyticsHandler {
	return &AnalyticsHandler{errorResponder: errorResponder{production: production}, analyticsSvc: analyticsSvc}
}

// Dashboard 仪表盘汇总（带缓存）
// GET /api/v1/analytics/dashboard
func (h *AnalyticsHandler) Dashboard(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	stats, err := h.analyticsSvc.Dashboard(c.Request.Context(), caller)
	if err != nil {
		h.handleCommonError(c, err)
		return
	}

	response.OK(c, stats)
}

// UsersByRole 按角色统计用户
// GET /api/v1/analytics/users/by-role
func (h *AnalyticsHandler) UsersByRole(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	groups, err := h.analyticsSvc.UsersByRole(c.Request.Context(), caller)
	if err != nil {
		h.handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": groups})
}

// ProjectsByStatus 按状态统计项目
// GET /api/v1/analytics/projects/by-status
func (h *AnalyticsHandler) ProjectsByStatus(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	groups, err := h.analyticsSvc.ProjectsByStatus(c.Request.Context(), caller)
	if err != nil {
		h.handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": groups})
}

// RecentActivity 最近动态
// GET /api/v1/analytics/activity/recent
func (h *AnalyticsHandler) RecentActivity(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	items, err := h.analyticsSvc.RecentActivity(c.Request.Context(), caller)
	if err != nil {
		h.handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": items})
}

// MonthlyGrowth 近 12 个月新增用户
// GET /api/v1/analytics/growth/monthly
func (h *AnalyticsHandler) MonthlyGrowth(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	months, err := h.analyticsSvc.MonthlyGrowth(c.Request.Context(), caller)
	if err != nil {
		h.handleCommonError(c, err)
		return
	}

	response.OK(c, gin.H{"list": months})
}
