package model

import (
	"time"

	"gorm.io/datatypes"
)

// 模型生命周期状态
const (
	ModelStatusDraft    = "DRAFT"
	ModelStatusTraining = "TRAINING"
	ModelStatusTrained  = "TRAINED"
	ModelStatusDeployed = "DEPLOYED"
	ModelStatusArchived = "ARCHIVED"
)

// MLModel 机器学习模型登记表，对应 ml_models
// 进入 TRAINED / DEPLOYED 时分别记录 TrainedAt / DeployedAt
type MLModel struct {
	ID               string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name             string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Description      string         `gorm:"type:text"                                      json:"description,omitempty"`
	Type             string         `gorm:"type:varchar(50);not null"                      json:"type"`
	Framework        string         `gorm:"type:varchar(50);not null"                      json:"framework"`
	Status           string         `gorm:"type:varchar(20);not null;default:'DRAFT'"      json:"status"`
	Version          string         `gorm:"type:varchar(30);not null;default:'1.0.0'"      json:"version"`
	ProjectID        *string        `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	CreatedBy        string         `gorm:"type:uuid;not null"                             json:"created_by"`
	Hyperparameters  datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"hyperparameters"`
	TrainingConfig   datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"training_config"`
	Metrics          datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"metrics"`
	DeploymentConfig datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"deployment_config"`
	Accuracy         *float64       `json:"accuracy,omitempty"`
	ModelPath        *string        `gorm:"type:text"                                      json:"model_path,omitempty"`
	TrainedAt        *time.Time     `json:"trained_at,omitempty"`
	DeployedAt       *time.Time     `json:"deployed_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (MLModel) TableName() string { return "ml_models" }
