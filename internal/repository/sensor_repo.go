package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// SensorFilter 传感器列表筛选
type SensorFilter struct {
	ProjectID string
	Status    string
}

// ReadingFilter 读数查询条件，零值时间表示不限
type ReadingFilter struct {
	SensorID  string
	ProjectID string
	Start     time.Time
	End       time.Time
	Limit     int
	Offset    int
}

// ReadingAggregate 读数聚合结果
type ReadingAggregate struct {
	TotalReadings   int64
	AvgValue        *float64
	MinValue        *float64
	MaxValue        *float64
	AvgTemperature  *float64
	AvgHumidity     *float64
	AvgSoilMoisture *float64
	AvgPHLevel      *float64
	FirstReading    *time.Time
	LastReading     *time.Time
}

// SensorRepository 传感器与读数数据访问接口
type SensorRepository interface {
	Create(ctx context.Context, sensor *model.Sensor) error
	GetByID(ctx context.Context, id string) (*model.Sensor, error)
	List(ctx context.Context, filter SensorFilter, scope Scope) ([]model.Sensor, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error

	CreateReading(ctx context.Context, reading *model.SensorReading) error
	GetReading(ctx context.Context, id string) (*model.SensorReading, error)
	ListReadings(ctx context.Context, filter ReadingFilter, scope Scope) ([]model.SensorReading, error)
	UpdateReading(ctx context.Context, id string, fields map[string]interface{}) error
	DeleteReading(ctx context.Context, id string) error
	ReadingStats(ctx context.Context, sensorID string) (*ReadingAggregate, error)
}

type sensorRepo struct {
	db *gorm.DB
}

// NewSensorRepo 创建 SensorRepository 实例
func NewSensorRepo(db *gorm.DB) SensorRepository {
	return &sensorRepo{db: db}
}

// ── 传感器 ──

func (r *sensorRepo) Create(ctx context.Context, sensor *model.Sensor) error {
	return r.db.WithContext(ctx).Create(sensor).Error
}

func (r *sensorRepo) GetByID(ctx context.Context, id string) (*model.Sensor, error) {
	var sensor model.Sensor
	err := r.db.WithContext(ctx).
		Preload("Project").
		Where("id = ?", id).
		First(&sensor).Error
	if err != nil {
		return nil, err
	}
	return &sensor, nil
}

func (r *sensorRepo) List(ctx context.Context, filter SensorFilter, scope Scope) ([]model.Sensor, error) {
	var sensors []model.Sensor
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, sensorOwnerExpr))
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	err := db.Order("created_at DESC").Find(&sensors).Error
	return sensors, err
}

func (r *sensorRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Sensor{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sensorRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Sensor{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── 读数 ──

func (r *sensorRepo) CreateReading(ctx context.Context, reading *model.SensorReading) error {
	return r.db.WithContext(ctx).Create(reading).Error
}

func (r *sensorRepo) GetReading(ctx context.Context, id string) (*model.SensorReading, error) {
	var reading model.SensorReading
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reading).Error; err != nil {
		return nil, err
	}
	return &reading, nil
}

func (r *sensorRepo) ListReadings(ctx context.Context, filter ReadingFilter, scope Scope) ([]model.SensorReading, error) {
	var readings []model.SensorReading
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, readingOwnerExpr))
	if filter.SensorID != "" {
		db = db.Where("sensor_id = ?", filter.SensorID)
	}
	if filter.ProjectID != "" {
		db = db.Where("sensor_id IN (SELECT id FROM sensors WHERE project_id = ?)", filter.ProjectID)
	}
	if !filter.Start.IsZero() {
		db = db.Where("timestamp >= ?", filter.Start)
	}
	if !filter.End.IsZero() {
		db = db.Where("timestamp <= ?", filter.End)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	err := db.Order("timestamp DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&readings).Error
	return readings, err
}

func (r *sensorRepo) UpdateReading(ctx context.Context, id string, fields map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&model.SensorReading{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sensorRepo) DeleteReading(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SensorReading{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sensorRepo) ReadingStats(ctx context.Context, sensorID string) (*ReadingAggregate, error) {
	var agg ReadingAggregate
	err := r.db.WithContext(ctx).Model(&model.SensorReading{}).
		Select(`COUNT(*) AS total_readings,
			AVG(value) AS avg_value,
			MIN(value) AS min_value,
			MAX(value) AS max_value,
			AVG(temperature) AS avg_temperature,
			AVG(humidity) AS avg_humidity,
			AVG(soil_moisture) AS avg_soil_moisture,
			AVG(ph_level) AS avg_ph_level,
			MIN(timestamp) AS first_reading,
			MAX(timestamp) AS last_reading`).
		Where("sensor_id = ?", sensorID).
		Scan(&agg).Error
	if err != nil {
		return nil, err
	}
	return &agg, nil
}
