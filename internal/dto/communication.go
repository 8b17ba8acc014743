package dto

import "time"

// ── 交流模块 DTO ──

// CreateAnnouncementRequest 发布公告
// TargetRoles / TargetColleges 为空表示全体可见
type CreateAnnouncementRequest struct {
	Title          string     `json:"title"           binding:"required,min=1,max=255"`
	Content        string     `json:"content"         binding:"required"`
	Type           string     `json:"type"            binding:"omitempty,max=30"`
	Priority       string     `json:"priority"        binding:"omitempty,oneof=low normal medium high urgent"`
	TargetRoles    []string   `json:"target_roles"    binding:"omitempty,dive,oneof=super_admin college_admin professor student data_scientist"`
	TargetColleges []string   `json:"target_colleges" binding:"omitempty,dive,uuid"`
	ExpiresAt      *time.Time `json:"expires_at"`
}

// DiscussionListRequest 讨论列表筛选
type DiscussionListRequest struct {
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
	Category  string `form:"category"  binding:"omitempty,max=50"`
}

// CreateDiscussionRequest 发起讨论
type CreateDiscussionRequest struct {
	Title     string   `json:"title"      binding:"required,min=1,max=255"`
	Content   string   `json:"content"    binding:"required"`
	Category  string   `json:"category"   binding:"omitempty,max=50"`
	Tags      []string `json:"tags"       binding:"omitempty,max=20"`
	ProjectID *string  `json:"project_id" binding:"omitempty,uuid"`
}

// CreateReplyRequest 回复讨论
type CreateReplyRequest struct {
	Content       string   `json:"content"         binding:"required"`
	ParentReplyID *string  `json:"parent_reply_id" binding:"omitempty,uuid"`
	Attachments   []string `json:"attachments"     binding:"omitempty,max=10"`
}

// CreateConversationRequest 创建私信会话
// 调用者自动加入，无需出现在 participant_ids 中
type CreateConversationRequest struct {
	ParticipantIDs []string `json:"participant_ids" binding:"required,min=1,max=50,dive,uuid"`
	Title          *string  `json:"title"           binding:"omitempty,max=255"`
	Type           string   `json:"type"            binding:"omitempty,oneof=direct group project"`
	ProjectID      *string  `json:"project_id"      binding:"omitempty,uuid"`
}

// SendMessageRequest 发送消息
type SendMessageRequest struct {
	Content     string   `json:"content"      binding:"required,max=10000"`
	MessageType string   `json:"message_type" binding:"omitempty,oneof=text image file"`
	Attachments []string `json:"attachments"  binding:"omitempty,max=10"`
}
