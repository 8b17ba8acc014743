package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ProjectStatusPlanning 新建项目的默认状态
const ProjectStatusPlanning = "PLANNING"

// Project 科研项目表，对应 projects
type Project struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Description   string         `gorm:"type:text"                                      json:"description,omitempty"`
	Type          string         `gorm:"type:varchar(50)"                               json:"type,omitempty"`
	Status        string         `gorm:"type:varchar(30);not null;default:'PLANNING'"   json:"status"`
	Department    string         `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	StartDate     *time.Time     `gorm:"type:date"                                      json:"start_date,omitempty"`
	EndDate       *time.Time     `gorm:"type:date"                                      json:"end_date,omitempty"`
	CreatedBy     string         `gorm:"type:uuid;not null"                             json:"created_by"`
	TeamMembers   pq.StringArray `gorm:"type:uuid[];not null;default:'{}'"              json:"team_members"`
	Configuration datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"configuration"`
	BaseModel
}

// TableName 指定表名
func (Project) TableName() string { return "projects" }
