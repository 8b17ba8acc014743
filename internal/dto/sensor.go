package dto

import (
	"encoding/json"
	"time"
)

// ── 传感器模块 DTO ──

// SensorListRequest 传感器列表筛选
type SensorListRequest struct {
	ProjectID string `form:"projectId" binding:"omitempty,uuid"`
	Status    string `form:"status"    binding:"omitempty,max=20"`
}

// CreateSensorRequest 创建传感器
type CreateSensorRequest struct {
	Name          string          `json:"name"          binding:"required,min=1,max=200"`
	Type          string          `json:"type"          binding:"required,max=50"`
	ProjectID     string          `json:"project_id"    binding:"required,uuid"`
	Location      string          `json:"location"      binding:"omitempty,max=200"`
	Configuration json.RawMessage `json:"configuration"`
}

// UpdateSensorRequest 更新传感器
type UpdateSensorRequest struct {
	Name          *string         `json:"name"     binding:"omitempty,min=1,max=200"`
	Type          *string         `json:"type"     binding:"omitempty,max=50"`
	Location      *string         `json:"location" binding:"omitempty,max=200"`
	Status        *string         `json:"status"   binding:"omitempty,oneof=active inactive maintenance"`
	Configuration json.RawMessage `json:"configuration"`
}

// ReadingListRequest 读数查询（时间为 RFC3339）
type ReadingListRequest struct {
	SensorID  string    `form:"sensorId"  binding:"omitempty,uuid"`
	ProjectID string    `form:"projectId" binding:"omitempty,uuid"`
	StartDate time.Time `form:"startDate" time_format:"2006-01-02T15:04:05Z07:00"`
	EndDate   time.Time `form:"endDate"   time_format:"2006-01-02T15:04:05Z07:00"`
	Limit     int       `form:"limit"     binding:"omitempty,min=1,max=1000"`
	Offset    int       `form:"offset"    binding:"omitempty,min=0"`
}

// CreateReadingRequest 写入读数
// SensorID 在 /sensors/:id/readings 路由下由路径参数覆盖
type CreateReadingRequest struct {
	SensorID       string          `json:"sensorId"        binding:"omitempty,uuid"`
	Value          *float64        `json:"value"`
	Unit           string          `json:"unit"            binding:"omitempty,max=20"`
	Timestamp      *time.Time      `json:"timestamp"`
	Temperature    *float64        `json:"temperature"`
	Humidity       *float64        `json:"humidity"`
	SoilMoisture   *float64        `json:"soil_moisture"`
	PHLevel        *float64        `json:"ph_level"`
	LightIntensity *float64        `json:"light_intensity"`
	Metadata       json.RawMessage `json:"metadata"`
	IsValid        *bool           `json:"isValid"`
	ErrorMessage   string          `json:"errorMessage"`
}

// UpdateReadingRequest 更新读数
type UpdateReadingRequest struct {
	Value          *float64        `json:"value"`
	Unit           *string         `json:"unit" binding:"omitempty,max=20"`
	Temperature    *float64        `json:"temperature"`
	Humidity       *float64        `json:"humidity"`
	SoilMoisture   *float64        `json:"soil_moisture"`
	PHLevel        *float64        `json:"ph_level"`
	LightIntensity *float64        `json:"light_intensity"`
	Metadata       json.RawMessage `json:"metadata"`
	IsValid        *bool           `json:"is_valid"`
	ErrorMessage   *string         `json:"error_message"`
}

// ── 传感器模块响应 ──

// ReadingStats 单个传感器的读数统计
type ReadingStats struct {
	TotalReadings   int64      `json:"total_readings"`
	AvgValue        *float64   `json:"avg_value"`
	MinValue        *float64   `json:"min_value"`
	MaxValue        *float64   `json:"max_value"`
	AvgTemperature  *float64   `json:"avg_temperature"`
	AvgHumidity     *float64   `json:"avg_humidity"`
	AvgSoilMoisture *float64   `json:"avg_soil_moisture"`
	AvgPHLevel      *float64   `json:"avg_ph_level"`
	FirstReading    *time.Time `json:"first_reading"`
	LastReading     *time.Time `json:"last_reading"`
}
