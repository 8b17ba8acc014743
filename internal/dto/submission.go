package dto

import "encoding/json"

// ── 数据提交模块 DTO ──

// SaveDraftRequest 保存草稿（按 学生+项目 幂等覆盖）
type SaveDraftRequest struct {
	StudentID      string          `json:"student_id"      binding:"omitempty,uuid"` // 为空时取当前用户
	ProjectID      *string         `json:"project_id"      binding:"omitempty,uuid"`
	DataContent    json.RawMessage `json:"data_content"    binding:"required"`
	SubmissionType string          `json:"submission_type" binding:"omitempty,max=30"`
}

// CreateSubmissionRequest 直接提交（状态为 pending）
type CreateSubmissionRequest struct {
	StudentID      string          `json:"student_id"      binding:"omitempty,uuid"`
	ProjectID      *string         `json:"project_id"      binding:"omitempty,uuid"`
	DataContent    json.RawMessage `json:"data_content"    binding:"required"`
	ImageURLs      []string        `json:"image_urls"`
	VideoURLs      []string        `json:"video_urls"`
	FileURLs       []string        `json:"file_urls"`
	AudioURLs      []string        `json:"audio_urls"`
	SubmissionType string          `json:"submission_type" binding:"omitempty,max=30"`
}

// UpdateSubmissionRequest 更新提交内容，审核状态不可通过此接口修改
type UpdateSubmissionRequest struct {
	DataContent  json.RawMessage `json:"data_content"`
	ImageURLs    *[]string       `json:"image_urls"`
	VideoURLs    *[]string       `json:"video_urls"`
	FileURLs     *[]string       `json:"file_urls"`
	AudioURLs    *[]string       `json:"audio_urls"`
	QualityScore *float64        `json:"quality_score" binding:"omitempty,min=0,max=100"`
}

// SubmissionListRequest 提交列表筛选
type SubmissionListRequest struct {
	PaginationRequest
	Status    string `form:"status"    binding:"omitempty,oneof=draft pending approved rejected"`
	StudentID string `form:"studentId" binding:"omitempty,uuid"`
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
}

// RejectSubmissionRequest 驳回提交，原因去除首尾空白后不能为空
type RejectSubmissionRequest struct {
	RejectionReason string `json:"rejectionReason"`
}

// SubmissionStatsRequest 统计筛选
type SubmissionStatsRequest struct {
	StudentID string `form:"studentId" binding:"omitempty,uuid"`
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
}

// ── 数据提交模块响应 ──

// SaveDraftResponse 草稿保存结果
type SaveDraftResponse struct {
	Message    string      `json:"message"`
	Created    bool        `json:"created"`
	Submission interface{} `json:"submission"`
}

// SubmissionStats 按状态计数
type SubmissionStats struct {
	Draft    int64 `json:"draft"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
