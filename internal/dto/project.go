package dto

import "encoding/json"

// ── 项目模块 DTO ──

// ProjectListRequest 项目列表筛选
type ProjectListRequest struct {
	Status     string `form:"status"     binding:"omitempty,max=30"`
	Type       string `form:"type"       binding:"omitempty,max=50"`
	Department string `form:"department" binding:"omitempty,max=100"`
	UserID     string `form:"userId"     binding:"omitempty,uuid"` // 创建者或团队成员
}

// CreateProjectRequest 创建项目
type CreateProjectRequest struct {
	Name          string          `json:"name"          binding:"required,min=2,max=200"`
	Description   string          `json:"description"   binding:"required"`
	Type          string          `json:"type"          binding:"required,max=50"`
	Status        string          `json:"status"        binding:"omitempty,max=30"`
	Department    string          `json:"department"    binding:"omitempty,max=100"`
	StartDate     string          `json:"start_date"    binding:"required,datetime=2006-01-02"`
	EndDate       string          `json:"end_date"      binding:"required,datetime=2006-01-02"`
	TeamMembers   []string        `json:"team_members"  binding:"omitempty,dive,uuid"`
	Configuration json.RawMessage `json:"configuration"`
}

// UpdateProjectRequest 更新项目（仅更新非空字段）
type UpdateProjectRequest struct {
	Name          *string         `json:"name"          binding:"omitempty,min=2,max=200"`
	Description   *string         `json:"description"`
	Type          *string         `json:"type"          binding:"omitempty,max=50"`
	Status        *string         `json:"status"        binding:"omitempty,max=30"`
	Department    *string         `json:"department"    binding:"omitempty,max=100"`
	StartDate     *string         `json:"start_date"    binding:"omitempty,datetime=2006-01-02"`
	EndDate       *string         `json:"end_date"      binding:"omitempty,datetime=2006-01-02"`
	TeamMembers   *[]string       `json:"team_members"  binding:"omitempty,dive,uuid"`
	Configuration json.RawMessage `json:"configuration"`
}
