package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/theAAcoderr/agrimodelbackend/internal/api/middleware"
	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果认证中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	s := c.GetString(middleware.CtxUserID)
	if s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetPrincipal 从 Gin 上下文中提取已解析的调用方
func MustGetPrincipal(c *gin.Context) (authz.Principal, bool) {
	v, exists := c.Get(middleware.CtxPrincipal)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return authz.Principal{}, false
	}
	p, ok := v.(authz.Principal)
	if !ok || p.ID == "" {
		response.Unauthorized(c, 10002, "未认证")
		return authz.Principal{}, false
	}
	return p, true
}

// MustGetParam 读取必填路径参数
func MustGetParam(c *gin.Context, name, label string) (string, bool) {
	v := c.Param(name)
	if v == "" {
		response.BadRequest(c, 10001, label+"不能为空")
		return "", false
	}
	return v, true
}

// MustGetUUIDParam 读取必填且格式为 UUID 的路径参数
func MustGetUUIDParam(c *gin.Context, name, label string) (string, bool) {
	v, ok := MustGetParam(c, name, label)
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(v); err != nil {
		response.BadRequest(c, 10001, label+"格式不正确")
		return "", false
	}
	return v, true
}
