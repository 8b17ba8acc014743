package model

import "time"

// College 学院（租户）表，对应 colleges
type College struct {
	ID          string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name        string     `gorm:"type:varchar(200);not null"                     json:"name"`
	CollegeCode string     `gorm:"type:varchar(20);not null"                      json:"college_code"`
	Address     string     `gorm:"type:text"                                      json:"address,omitempty"`
	Location    string     `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Status      string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	ReviewedBy  *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (College) TableName() string { return "colleges" }
