package dto

// ── 通知模块 DTO ──

// NotificationListRequest 通知列表
type NotificationListRequest struct {
	UnreadOnly bool `form:"unreadOnly"`
	Limit      int  `form:"limit" binding:"omitempty,min=1,max=200"`
}

// CreateNotificationRequest 管理员向指定用户发送通知
type CreateNotificationRequest struct {
	UserID      string  `json:"user_id"      binding:"required,uuid"`
	Title       string  `json:"title"        binding:"required,min=1,max=200"`
	Message     string  `json:"message"      binding:"required"`
	Type        string  `json:"type"         binding:"omitempty,oneof=info success warning error"`
	RelatedType string  `json:"related_type" binding:"omitempty,max=30"`
	RelatedID   *string `json:"related_id"   binding:"omitempty,uuid"`
	ActionURL   string  `json:"action_url"   binding:"omitempty,max=2048"`
}
