package dto

import "encoding/json"

// ── 模型与科研数据 DTO ──

// ModelListRequest 模型列表筛选
type ModelListRequest struct {
	Status    string `form:"status"    binding:"omitempty,oneof=DRAFT TRAINING TRAINED DEPLOYED ARCHIVED"`
	Type      string `form:"type"      binding:"omitempty,max=50"`
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
}

// CreateModelRequest 登记模型，初始状态为 DRAFT
type CreateModelRequest struct {
	Name            string          `json:"name"            binding:"required,min=1,max=200"`
	Description     string          `json:"description"`
	Type            string          `json:"type"            binding:"required,max=50"`
	Framework       string          `json:"framework"       binding:"required,max=50"`
	Version         string          `json:"version"         binding:"omitempty,max=30"`
	ProjectID       *string         `json:"project_id"      binding:"omitempty,uuid"`
	Hyperparameters json.RawMessage `json:"hyperparameters"`
	TrainingConfig  json.RawMessage `json:"training_config"`
}

// UpdateModelRequest 更新模型（仅更新非空字段，至少一个）
type UpdateModelRequest struct {
	Name             *string         `json:"name"              binding:"omitempty,min=1,max=200"`
	Description      *string         `json:"description"`
	Type             *string         `json:"type"              binding:"omitempty,max=50"`
	Framework        *string         `json:"framework"         binding:"omitempty,max=50"`
	Status           *string         `json:"status"            binding:"omitempty,oneof=DRAFT TRAINING TRAINED DEPLOYED ARCHIVED"`
	Version          *string         `json:"version"           binding:"omitempty,max=30"`
	Accuracy         *float64        `json:"accuracy"          binding:"omitempty,gte=0,lte=100"`
	ModelPath        *string         `json:"model_path"        binding:"omitempty,max=1000"`
	Hyperparameters  json.RawMessage `json:"hyperparameters"`
	TrainingConfig   json.RawMessage `json:"training_config"`
	Metrics          json.RawMessage `json:"metrics"`
	DeploymentConfig json.RawMessage `json:"deployment_config"`
}

// ResearchDataListRequest 科研数据筛选
type ResearchDataListRequest struct {
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
	UserID    string `form:"userId"    binding:"omitempty,uuid"`
	DataType  string `form:"dataType"  binding:"omitempty,max=50"`
}

// CreateResearchDataRequest 录入科研数据；user_id 缺省为调用者
type CreateResearchDataRequest struct {
	ProjectID string          `json:"project_id" binding:"required,uuid"`
	UserID    *string         `json:"user_id"    binding:"omitempty,uuid"`
	DataType  string          `json:"data_type"  binding:"required,max=50"`
	Metadata  json.RawMessage `json:"metadata"`
	ImageURLs []string        `json:"image_urls" binding:"omitempty,max=50,dive,url"`
	VideoURLs []string        `json:"video_urls" binding:"omitempty,max=50,dive,url"`
	FileURLs  []string        `json:"file_urls"  binding:"omitempty,max=50,dive,url"`
	AudioURLs []string        `json:"audio_urls" binding:"omitempty,max=50,dive,url"`
}
