package model

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ResearchData 科研数据条目表，对应 research_data
// 媒体字段保存上传后的对象 URL
type ResearchData struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID string         `gorm:"type:uuid;not null;index"                       json:"project_id"`
	UserID    string         `gorm:"type:uuid;not null;index"                       json:"user_id"`
	DataType  string         `gorm:"type:varchar(50);not null"                      json:"data_type"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	ImageURLs pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"image_urls"`
	VideoURLs pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"video_urls"`
	FileURLs  pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"file_urls"`
	AudioURLs pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"audio_urls"`
	BaseModel
}

// TableName 指定表名
func (ResearchData) TableName() string { return "research_data" }
