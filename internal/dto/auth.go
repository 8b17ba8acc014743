package dto

// ── 认证模块 DTO ──
// 请求字段名沿用前端既有约定（camelCase）

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest 教授 / 学生 / 数据科学家自助注册
type RegisterRequest struct {
	Name       string `json:"name"       binding:"required,min=2,max=100"`
	Email      string `json:"email"      binding:"required,email"`
	Password   string `json:"password"   binding:"required,min=8,max=72"`
	Role       string `json:"role"       binding:"required"`
	CollegeID  string `json:"collegeId"  binding:"required,uuid"`
	Department string `json:"department" binding:"omitempty,max=100"`
}

// RegisterCollegeAdminRequest 学院管理员注册（同时创建待审核学院）
type RegisterCollegeAdminRequest struct {
	Name            string `json:"name"            binding:"required,min=2,max=100"`
	Email           string `json:"email"           binding:"required,email"`
	Password        string `json:"password"        binding:"required,min=8,max=72"`
	CollegeName     string `json:"collegeName"     binding:"required,min=2,max=200"`
	CollegeAddress  string `json:"collegeAddress"  binding:"required,min=2"`
	CollegeLocation string `json:"collegeLocation" binding:"omitempty,max=200"`
}

// RegisterSuperAdminRequest 超级管理员注册
type RegisterSuperAdminRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// RefreshTokenRequest 刷新 Token 请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest 忘记密码
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest 凭重置 Token 设置新密码
type ResetPasswordRequest struct {
	Token       string `json:"token"       binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=8,max=72"`
}

// ChangePasswordRequest 修改密码请求
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword"     binding:"required,min=8,max=72"`
}

// ── 认证模块响应 ──

// AuthResponse 登录 / 超管注册 / 刷新后的会话信息
type AuthResponse struct {
	User         *UserResponse `json:"user"`
	Token        string        `json:"token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int           `json:"expires_in"` // 会话 Token 有效期（秒）
	Message      string        `json:"message,omitempty"`
}

// RegisterResponse 待审核注册的响应
type RegisterResponse struct {
	User    *UserResponse    `json:"user"`
	College *CollegeResponse `json:"college,omitempty"`
	Message string           `json:"message"`
}

// ForgotPasswordResponse 忘记密码响应
// ResetToken 仅在非生产环境返回，便于联调
type ForgotPasswordResponse struct {
	Message    string `json:"message"`
	ResetToken string `json:"reset_token,omitempty"`
}
