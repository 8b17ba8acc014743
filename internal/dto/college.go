package dto

import "time"

// ── 学院模块 DTO ──

// CollegeListRequest 学院列表查询
type CollegeListRequest struct {
	Status string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
}

// CreateCollegeRequest 超级管理员直接创建学院（直接为 approved）
type CreateCollegeRequest struct {
	Name     string `json:"name"     binding:"required,min=2,max=200"`
	Address  string `json:"address"  binding:"required,min=2"`
	Location string `json:"location" binding:"omitempty,max=200"`
}

// UpdateCollegeRequest 更新学院基本信息，状态只能通过审批接口变更
type UpdateCollegeRequest struct {
	Name     *string `json:"name"     binding:"omitempty,min=2,max=200"`
	Address  *string `json:"address"  binding:"omitempty,min=2"`
	Location *string `json:"location" binding:"omitempty,max=200"`
}

// ── 学院模块响应 ──

// CollegeResponse 学院信息
type CollegeResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	CollegeCode string     `json:"college_code"`
	Address     string     `json:"address,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      string     `json:"status"`
	ReviewedBy  string     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PublicCollegeResponse 注册页使用的公开学院信息
type PublicCollegeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CollegeCode string `json:"college_code"`
	Address     string `json:"address,omitempty"`
	Location    string `json:"location,omitempty"`
}

// ReviewCollegeResponse 学院审核结果
type ReviewCollegeResponse struct {
	College *CollegeResponse `json:"college"`
	Message string           `json:"message"`
}
