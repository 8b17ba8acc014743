package middleware

import (
	"fmt"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// Recovery 捕获 panic，记录日志并在配置了 Sentry 时上报
func Recovery(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			logger.Error("请求处理发生 panic",
				zap.Any("panic", rec),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(requestIDKey)),
				zap.Stack("stack"),
			)

			if hub := sentry.CurrentHub(); hub.Client() != nil {
				hub = hub.Clone()
				hub.Scope().SetRequest(c.Request)
				hub.Scope().SetTag("request_id", c.GetString(requestIDKey))
				hub.RecoverWithContext(c.Request.Context(), rec)
			}

			if !c.Writer.Written() {
				response.Error(c, http.StatusInternalServerError, 50000, "服务器内部错误")
			}
			c.Abort()
			_ = c.Error(fmt.Errorf("panic: %v", rec))
		}()

		c.Next()
	}
}

// CaptureServerErrors 将 5xx 响应上报 Sentry（未配置 DSN 时为空操作）
func CaptureServerErrors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Status() < http.StatusInternalServerError || len(c.Errors) == 0 {
			return
		}
		hub := sentry.CurrentHub()
		if hub.Client() == nil {
			return
		}
		hub = hub.Clone()
		hub.Scope().SetRequest(c.Request)
		hub.Scope().SetTag("route", c.FullPath())
		for _, e := range c.Errors.ByType(gin.ErrorTypePrivate) {
			hub.CaptureException(e.Err)
		}
	}
}
