package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// Pinger 可做存活探测的依赖
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	db      Pinger
	redis   Pinger // 未启用 Redis 时为 nil
	started time.Time
}

// NewHealthHandler 创建 HealthHandler
func NewHealthHandler(db, redis Pinger) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, started: time.Now()}
}

// HealthResponse 健康状态
type HealthResponse struct {
	Status   string  `json:"status"`
	Database string  `json:"database"`
	Redis    string  `json:"redis"`
	Uptime   float64 `json:"uptime_seconds"`
}

// Health 汇总依赖状态，数据库不可用时整体为 degraded
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:   "ok",
		Database: pingStatus(ctx, h.db),
		Redis:    pingStatus(ctx, h.redis),
		Uptime:   time.Since(h.started).Seconds(),
	}
	if resp.Database != "up" {
		resp.Status = "degraded"
	}

	response.OK(c, resp)
}

// Ready 数据库可用才视为就绪
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if status := pingStatus(ctx, h.db); status != "up" {
		response.ServiceUnavailable(c, gin.H{"database": status})
		return
	}
	response.OK(c, gin.H{"status": "ready"})
}

// Live 进程存活
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}
