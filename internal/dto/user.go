package dto

import "time"

// ── 用户模块 DTO ──

// UserListRequest 用户列表查询参数
type UserListRequest struct {
	PaginationRequest
	Role      string `form:"role"      binding:"omitempty,oneof=super_admin college_admin professor student data_scientist"`
	Status    string `form:"status"    binding:"omitempty,oneof=pending approved rejected"`
	CollegeID string `form:"collegeId" binding:"omitempty,uuid"`
}

// UpdateUserRequest 更新用户信息请求
// Role / Status / IsActive 仅管理员可修改
type UpdateUserRequest struct {
	Name         *string `json:"name"              binding:"omitempty,min=2,max=100"`
	Phone        *string `json:"phone_number"      binding:"omitempty,max=30"`
	Department   *string `json:"department"        binding:"omitempty,max=100"`
	Bio          *string `json:"bio"               binding:"omitempty,max=2000"`
	ProfileImage *string `json:"profile_image_url" binding:"omitempty,url,max=1000"`
	Role         *string `json:"role"              binding:"omitempty,oneof=college_admin professor student data_scientist"`
	IsActive     *bool   `json:"is_active"`
}

// RejectUserRequest 拒绝用户（原因可选）
type RejectUserRequest struct {
	Reason string `json:"reason" binding:"omitempty,max=500"`
}

// ── 用户模块响应 ──

// UserResponse 用户信息（脱敏，不含密码哈希）
type UserResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	Status       string     `json:"status"`
	IsActive     bool       `json:"is_active"`
	CollegeID    string     `json:"college_id,omitempty"`
	Department   string     `json:"department,omitempty"`
	Phone        string     `json:"phone_number,omitempty"`
	Bio          string     `json:"bio,omitempty"`
	ProfileImage string     `json:"profile_image_url,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ReviewedBy   string     `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ReviewUserResponse 审核结果
type ReviewUserResponse struct {
	User    *UserResponse `json:"user"`
	Message string        `json:"message"`
}
