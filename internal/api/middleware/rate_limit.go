package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// RateLimiter 滑动窗口限流器，由 pkg/redis.Client 实现
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimit 基于滑动窗口的速率限制中间件
// group: 限流分组（api | auth | register | upload），用于键名与指标标签
// limiter 为 nil、未配置额度或 Redis 出错时降级放行
func RateLimit(limiter RateLimiter, group string, cfg config.LimitConfig, m *metrics.Metrics, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil || cfg.Limit <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", group, c.ClientIP())
		allowed, err := limiter.CheckRateLimit(c.Request.Context(), key, cfg.Limit, cfg.Window)
		if err != nil {
			logger.Warn("限流检查失败，降级放行", zap.String("group", group), zap.Error(err))
			c.Next()
			return
		}

		if !allowed {
			m.ObserveRateLimited(group)
			response.TooManyRequests(c, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
