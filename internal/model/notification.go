package model

import "time"

// Notification 站内通知表，对应 notifications
type Notification struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string     `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Title       string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Message     string     `gorm:"type:text;not null"                             json:"message"`
	Type        string     `gorm:"type:varchar(30);not null;default:'info'"       json:"type"`
	RelatedType string     `gorm:"type:varchar(30)"                               json:"related_type,omitempty"` // submission | project | college | user
	RelatedID   *string    `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	ActionURL   string     `gorm:"type:text"                                      json:"action_url,omitempty"`
	IsRead      bool       `gorm:"not null;default:false"                         json:"is_read"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Notification) TableName() string { return "notifications" }
