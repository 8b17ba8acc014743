package model

import (
	"time"

	"gorm.io/datatypes"
)

// ── 报告状态 ──

const (
	ReportDraft     = "draft"
	ReportPublished = "published"
	ReportArchived  = "archived"
)

// Report 研究报告表，对应 reports
type Report struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title       string         `gorm:"type:varchar(255);not null"                     json:"title"`
	Description string         `gorm:"type:text"                                      json:"description,omitempty"`
	Type        string         `gorm:"type:varchar(50)"                               json:"type,omitempty"`
	ProjectID   *string        `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	Content     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"content"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"data"`
	FileURL     string         `gorm:"type:text"                                      json:"file_url,omitempty"`
	Status      string         `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	CreatedBy   string         `gorm:"type:uuid;not null"                             json:"created_by"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Report) TableName() string { return "reports" }
