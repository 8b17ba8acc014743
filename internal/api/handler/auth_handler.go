package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// AuthHandler 认证模块 HTTP 处理器
type AuthHandler struct {
	errorResponder
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService, production bool) *AuthHandler {
	return &AuthHandler{errorResponder: errorResponder{production: production}, authSvc: authSvc}
}

// Login 用户登录
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// Register 教授 / 学生 / 数据科学家注册
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// RegisterCollegeAdmin 学院管理员注册，同时创建待审核学院
// POST /api/v1/auth/register/college-admin
func (h *AuthHandler) RegisterCollegeAdmin(c *gin.Context) {
	var req dto.RegisterCollegeAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.RegisterCollegeAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// RegisterSuperAdmin 超级管理员注册（直接通过审核）
// POST /api/v1/auth/register/super-admin
func (h *AuthHandler) RegisterSuperAdmin(c *gin.Context) {
	var req dto.RegisterSuperAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.RegisterSuperAdmin(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.Created(c, result)
}

// Me 当前用户信息
// GET /api/v1/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	user, err := h.authSvc.Me(c.Request.Context(), userID)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, user)
}

// RefreshToken 刷新会话 Token
// POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// ForgotPassword 忘记密码，无论邮箱是否存在均返回成功
// POST /api/v1/auth/forgot-password
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	result, err := h.authSvc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// ResetPassword 凭重置 Token 设置新密码
// POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	if err := h.authSvc.ResetPassword(c.Request.Context(), &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "密码已重置"})
}

// ChangePassword 修改密码
// PUT /api/v1/auth/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "密码已修改"})
}

// Logout 登出
// 会话 Token 无服务端状态，由客户端丢弃
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	response.OK(c, dto.MessageResponse{Message: "已退出登录"})
}

// handleAuthError 统一处理认证模块业务错误
func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Unauthorized(c, 11001, "邮箱或密码错误")
	case errors.Is(err, service.ErrAccountInactive):
		response.Forbidden(c, 11002, "账号已停用，请联系管理员")
	case errors.Is(err, service.ErrEmailExists):
		response.Conflict(c, 11003, "该邮箱已注册")
	case errors.Is(err, service.ErrCollegeNotApproved):
		response.BadRequest(c, 11004, "学院不存在或尚未通过审核")
	case errors.Is(err, service.ErrInvalidRole):
		response.BadRequest(c, 11005, "该角色不允许自助注册")
	case errors.Is(err, service.ErrInvalidResetToken):
		response.BadRequest(c, 11006, "重置链接无效或已过期")
	case errors.Is(err, service.ErrOldPasswordWrong):
		response.BadRequest(c, 11007, "当前密码错误")
	case errors.Is(err, service.ErrSuperAdminExists):
		response.Conflict(c, 11008, "超级管理员已存在")
	case errors.Is(err, service.ErrCollegeCodeExists):
		response.Conflict(c, 13003, "学院编码冲突，请重试")
	case errors.Is(err, service.ErrInvalidRefreshToken):
		response.Unauthorized(c, 11009, "刷新 Token 无效")
	case errors.Is(err, service.ErrRefreshTokenExpired):
		response.Error(c, http.StatusUnauthorized, 11010, "刷新 Token 已过期，请重新登录")
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	default:
		h.handleCommonError(c, err)
	}
}
