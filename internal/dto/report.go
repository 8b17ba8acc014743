package dto

import "encoding/json"

// ── 报告模块 DTO ──

// ReportListRequest 报告筛选
type ReportListRequest struct {
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
	UserID    string `form:"userId"    binding:"omitempty,uuid"`
	Type      string `form:"type"      binding:"omitempty,max=50"`
	Status    string `form:"status"    binding:"omitempty,oneof=draft published archived"`
	Limit     int    `form:"limit"     binding:"omitempty,min=1,max=200"`
	Offset    int    `form:"offset"    binding:"omitempty,min=0"`
}

// CreateReportRequest 创建报告（默认草稿）
type CreateReportRequest struct {
	Title       string          `json:"title"       binding:"required,min=1,max=255"`
	Description string          `json:"description"`
	Type        string          `json:"type"        binding:"required,max=50"`
	ProjectID   *string         `json:"project_id"  binding:"omitempty,uuid"`
	Content     json.RawMessage `json:"content"`
	Data        json.RawMessage `json:"data"`
	FileURL     string          `json:"file_url"    binding:"omitempty,max=2048"`
	Status      string          `json:"status"      binding:"omitempty,oneof=draft published archived"`
}

// UpdateReportRequest 更新报告
type UpdateReportRequest struct {
	Title       *string         `json:"title"       binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Type        *string         `json:"type"        binding:"omitempty,max=50"`
	Content     json.RawMessage `json:"content"`
	Data        json.RawMessage `json:"data"`
	FileURL     *string         `json:"file_url"    binding:"omitempty,max=2048"`
	Status      *string         `json:"status"      binding:"omitempty,oneof=draft published archived"`
}

// ReportStatsRequest 报告统计筛选
type ReportStatsRequest struct {
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
}

// ── 报告模块响应 ──

// ReportStats 报告统计
type ReportStats struct {
	TotalReports        int64 `json:"total_reports"`
	DraftCount          int64 `json:"draft_count"`
	PublishedCount      int64 `json:"published_count"`
	ArchivedCount       int64 `json:"archived_count"`
	ProjectsWithReports int64 `json:"projects_with_reports"`
	UniqueAuthors       int64 `json:"unique_authors"`
}
