package model

import (
	"time"

	"gorm.io/datatypes"
)

// SensorStatusActive 新建传感器默认状态
const SensorStatusActive = "active"

// Sensor 田间传感器表，对应 sensors
type Sensor struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name          string         `gorm:"type:varchar(200);not null"                     json:"name"`
	Type          string         `gorm:"type:varchar(50);not null"                      json:"type"`
	ProjectID     string         `gorm:"type:uuid;not null"                             json:"project_id"`
	Location      string         `gorm:"type:varchar(200)"                              json:"location,omitempty"`
	Configuration datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"configuration"`
	Status        string         `gorm:"type:varchar(20);not null;default:'active'"     json:"status"`
	LastReading   *time.Time     `json:"last_reading,omitempty"`
	BaseModel

	// 关联
	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

// TableName 指定表名
func (Sensor) TableName() string { return "sensors" }

// SensorReading 传感器读数表，对应 sensor_readings
type SensorReading struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SensorID       string         `gorm:"type:uuid;not null;index"                       json:"sensor_id"`
	Value          *float64       `json:"value,omitempty"`
	Unit           string         `gorm:"type:varchar(20)"                               json:"unit,omitempty"`
	Timestamp      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"timestamp"`
	Temperature    *float64       `json:"temperature,omitempty"`
	Humidity       *float64       `json:"humidity,omitempty"`
	SoilMoisture   *float64       `json:"soil_moisture,omitempty"`
	PHLevel        *float64       `gorm:"column:ph_level"                                json:"ph_level,omitempty"`
	LightIntensity *float64       `json:"light_intensity,omitempty"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'"               json:"metadata"`
	IsValid        bool           `gorm:"not null;default:true"                          json:"is_valid"`
	ErrorMessage   string         `gorm:"type:text"                                      json:"error_message,omitempty"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

// TableName 指定表名
func (SensorReading) TableName() string { return "sensor_readings" }
