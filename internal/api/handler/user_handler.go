package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// UserHandler 用户模块 HTTP 处理器
type UserHandler struct {
	errorResponder
	userSvc service.UserService
}

// NewUserHandler 创建 UserHandler
func NewUserHandler(userSvc service.UserService, production bool) *UserHandler {
	return &UserHandler{errorResponder: errorResponder{production: production}, userSvc: userSvc}
}

// ListUsers 用户列表（超级管理员）
// GET /api/v1/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// ListPending 待审核用户（队列内容由调用方角色决定）
// GET /api/v1/users/pending
func (h *UserHandler) ListPending(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}

	users, err := h.userSvc.ListPending(c.Request.Context(), caller)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// ListByCollege 学院全部用户
// GET /api/v1/users/by-college/:id
func (h *UserHandler) ListByCollege(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	collegeID, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	users, err := h.userSvc.ListByCollege(c.Request.Context(), caller, collegeID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// ListCollegeMembers 学院已审核成员
// GET /api/v1/users/college/:id
func (h *UserHandler) ListCollegeMembers(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	collegeID, ok := MustGetUUIDParam(c, "id", "学院ID")
	if !ok {
		return
	}

	users, err := h.userSvc.ListCollegeMembers(c.Request.Context(), caller, collegeID)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// ListByDepartment 按部门查询
// GET /api/v1/users/by-department/:department
func (h *UserHandler) ListByDepartment(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	department, ok := MustGetParam(c, "department", "部门")
	if !ok {
		return
	}

	users, err := h.userSvc.ListByDepartment(c.Request.Context(), caller, department)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, gin.H{"list": users})
}

// GetUser 用户详情
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	user, err := h.userSvc.GetByID(c.Request.Context(), caller, id)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// UpdateUser 更新用户
// PATCH /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleBindError(c, err)
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), caller, id, &req)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, user)
}

// ApproveUser 审核通过
// POST /api/v1/users/:id/approve
func (h *UserHandler) ApproveUser(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	user, err := h.userSvc.Approve(c.Request.Context(), caller, id)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, dto.ReviewUserResponse{User: user, Message: "用户已通过审核"})
}

// RejectUser 审核拒绝（原因可选）
// POST /api/v1/users/:id/reject
func (h *UserHandler) RejectUser(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	var req dto.RejectUserRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.handleBindError(c, err)
			return
		}
	}

	user, err := h.userSvc.Reject(c.Request.Context(), caller, id, req.Reason)
	if err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, dto.ReviewUserResponse{User: user, Message: "用户已被拒绝"})
}

// DeleteUser 删除用户
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	caller, ok := MustGetPrincipal(c)
	if !ok {
		return
	}
	id, ok := MustGetUUIDParam(c, "id", "用户ID")
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), caller, id); err != nil {
		h.handleUserError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "用户已删除"})
}

// handleUserError 统一处理用户模块业务错误
func (h *UserHandler) handleUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.NotFound(c, 12001, "用户不存在")
	case errors.Is(err, service.ErrUserAlreadyReviewed):
		response.Conflict(c, 12002, err.Error())
	case errors.Is(err, service.ErrUserSelfDelete):
		response.BadRequest(c, 12003, "不能删除自己")
	case errors.Is(err, service.ErrRoleChangeForbidden):
		response.Forbidden(c, 12004, "无权修改角色或启用状态")
	default:
		h.handleCommonError(c, err)
	}
}
