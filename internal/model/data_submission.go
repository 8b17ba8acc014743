package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ── 数据提交状态 ──

const (
	SubmissionDraft    = "draft"
	SubmissionPending  = "pending"
	SubmissionApproved = "approved"
	SubmissionRejected = "rejected"
)

// DataSubmission 学生野外数据提交表，对应 data_submissions
// 同一 (student_id, project_id) 最多存在一条 draft，由部分唯一索引保证
type DataSubmission struct {
	ID              string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	StudentID       string         `gorm:"type:uuid;not null"                             json:"student_id"`
	ProjectID       *string        `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	DataContent     datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"data_content"`
	ImageURLs       pq.StringArray `gorm:"column:image_urls;type:text[];not null;default:'{}'" json:"image_urls"`
	VideoURLs       pq.StringArray `gorm:"column:video_urls;type:text[];not null;default:'{}'" json:"video_urls"`
	FileURLs        pq.StringArray `gorm:"column:file_urls;type:text[];not null;default:'{}'"  json:"file_urls"`
	AudioURLs       pq.StringArray `gorm:"column:audio_urls;type:text[];not null;default:'{}'" json:"audio_urls"`
	Status          string         `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	SubmissionType  string         `gorm:"type:varchar(30)"                               json:"submission_type,omitempty"`
	QualityScore    *float64       `gorm:"type:numeric(5,2)"                              json:"quality_score,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	ReviewedBy      *string        `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time     `json:"reviewed_at,omitempty"`
	RejectionReason *string        `gorm:"type:text"                                      json:"rejection_reason,omitempty"`
	BaseModel

	// 关联
	Student *User    `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (DataSubmission) TableName() string { return "data_submissions" }
