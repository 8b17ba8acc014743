package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ── 传感器模块业务错误 ──

var (
	ErrSensorNotFound  = errors.New("传感器不存在")
	ErrReadingNotFound = errors.New("传感器读数不存在")
)

const recentReadingsLimit = 50

// SensorService 传感器与读数业务接口
type SensorService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.SensorListRequest) ([]model.Sensor, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Sensor, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateSensorRequest) (*model.Sensor, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateSensorRequest) (*model.Sensor, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error

	ListReadings(ctx context.Context, caller authz.Principal, req *dto.ReadingListRequest) ([]model.SensorReading, error)
	RecentReadings(ctx context.Context, caller authz.Principal) ([]model.SensorReading, error)
	GetReading(ctx context.Context, caller authz.Principal, id string) (*model.SensorReading, error)
	CreateReading(ctx context.Context, caller authz.Principal, req *dto.CreateReadingRequest) (*model.SensorReading, error)
	UpdateReading(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateReadingRequest) (*model.SensorReading, error)
	DeleteReading(ctx context.Context, caller authz.Principal, id string) error
	ReadingStats(ctx context.Context, caller authz.Principal, sensorID string) (*dto.ReadingStats, error)
}

type sensorService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
	now    func() time.Time
}

// NewSensorService 创建 SensorService 实例
func NewSensorService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) SensorService {
	return &sensorService{repo: repo, authz: az, logger: logger, now: time.Now}
}

// ────────────────────── 传感器 ──────────────────────

func (s *sensorService) List(ctx context.Context, caller authz.Principal, req *dto.SensorListRequest) ([]model.Sensor, error) {
	sensors, err := s.repo.Sensor.List(ctx, repository.SensorFilter{
		ProjectID: req.ProjectID,
		Status:    req.Status,
	}, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询传感器列表失败", zap.Error(err))
		return nil, err
	}
	return sensors, nil
}

func (s *sensorService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Sensor, error) {
	sensor, _, err := s.load(ctx, caller, id)
	return sensor, err
}

// load 传感器归属于所在项目的创建者
// 1. 查询传感器（预加载项目）
// 2. 以项目创建者校验租户可见性
func (s *sensorService) load(ctx context.Context, caller authz.Principal, id string) (*model.Sensor, authz.Resource, error) {
	sensor, err := s.repo.Sensor.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Resource{}, ErrSensorNotFound
		}
		s.logger.Error("查询传感器失败", zap.String("id", id), zap.Error(err))
		return nil, authz.Resource{}, err
	}

	ownerID := ""
	if sensor.Project != nil {
		ownerID = sensor.Project.CreatedBy
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, ownerID)
	if err != nil {
		return nil, authz.Resource{}, err
	}
	if !ok {
		return nil, authz.Resource{}, ErrSensorNotFound
	}
	return sensor, authz.Resource{
		Type:      authz.ResourceSensor,
		ID:        sensor.ID,
		OwnerID:   ownerID,
		CollegeID: collegeID,
	}, nil
}

// Create 传感器挂在调用者可见的项目下，初始状态为 active
func (s *sensorService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateSensorRequest) (*model.Sensor, error) {
	project, err := s.repo.Project.GetByID(ctx, req.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	ok, _, err := visibleTo(ctx, s.repo.User, caller, project.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectNotFound
	}

	cfgJSON, err := jsonObject(req.Configuration, "configuration")
	if err != nil {
		return nil, err
	}

	sensor := &model.Sensor{
		Name:          req.Name,
		Type:          req.Type,
		ProjectID:     req.ProjectID,
		Location:      req.Location,
		Configuration: cfgJSON,
		Status:        model.SensorStatusActive,
	}
	if err := s.repo.Sensor.Create(ctx, sensor); err != nil {
		s.logger.Error("创建传感器失败", zap.String("project_id", req.ProjectID), zap.Error(err))
		return nil, err
	}
	return sensor, nil
}

func (s *sensorService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateSensorRequest) (*model.Sensor, error) {
	sensor, res, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionSensorUpdate, res) {
		return nil, ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = *req.Name
	}
	if req.Type != nil {
		fields["type"] = *req.Type
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if len(req.Configuration) > 0 {
		cfgJSON, err := jsonObject(req.Configuration, "configuration")
		if err != nil {
			return nil, err
		}
		fields["configuration"] = cfgJSON
	}
	if len(fields) == 0 {
		return sensor, nil
	}

	if err := s.repo.Sensor.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSensorNotFound
		}
		s.logger.Error("更新传感器失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Sensor.GetByID(ctx, id)
}

func (s *sensorService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	_, res, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionSensorDelete, res) {
		return ErrForbidden
	}
	if err := s.repo.Sensor.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSensorNotFound
		}
		s.logger.Error("删除传感器失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 读数 ──────────────────────

func (s *sensorService) ListReadings(ctx context.Context, caller authz.Principal, req *dto.ReadingListRequest) ([]model.SensorReading, error) {
	filter := repository.ReadingFilter{
		SensorID:  req.SensorID,
		ProjectID: req.ProjectID,
		Start:     req.StartDate,
		End:       req.EndDate,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() && filter.End.Before(filter.Start) {
		return nil, validationError("endDate 不能早于 startDate")
	}

	readings, err := s.repo.Sensor.ListReadings(ctx, filter, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询传感器读数失败", zap.Error(err))
		return nil, err
	}
	return readings, nil
}

// RecentReadings 最近 24 小时的读数
func (s *sensorService) RecentReadings(ctx context.Context, caller authz.Principal) ([]model.SensorReading, error) {
	return s.ListReadings(ctx, caller, &dto.ReadingListRequest{
		StartDate: s.now().Add(-24 * time.Hour),
		Limit:     recentReadingsLimit,
	})
}

func (s *sensorService) GetReading(ctx context.Context, caller authz.Principal, id string) (*model.SensorReading, error) {
	reading, _, err := s.loadReading(ctx, caller, id)
	return reading, err
}

func (s *sensorService) loadReading(ctx context.Context, caller authz.Principal, id string) (*model.SensorReading, authz.Resource, error) {
	reading, err := s.repo.Sensor.GetReading(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Resource{}, ErrReadingNotFound
		}
		s.logger.Error("查询传感器读数失败", zap.String("id", id), zap.Error(err))
		return nil, authz.Resource{}, err
	}
	_, res, err := s.load(ctx, caller, reading.SensorID)
	if err != nil {
		if errors.Is(err, ErrSensorNotFound) {
			return nil, authz.Resource{}, ErrReadingNotFound
		}
		return nil, authz.Resource{}, err
	}
	res.Type = authz.ResourceReading
	res.ID = reading.ID
	return reading, res, nil
}

// CreateReading 写入读数并刷新传感器 last_reading
// 时间戳缺省为当前时间，is_valid 缺省为 true
func (s *sensorService) CreateReading(ctx context.Context, caller authz.Principal, req *dto.CreateReadingRequest) (*model.SensorReading, error) {
	if req.SensorID == "" {
		return nil, validationError("sensorId 不能为空")
	}
	if _, _, err := s.load(ctx, caller, req.SensorID); err != nil {
		return nil, err
	}

	metadata, err := jsonObject(req.Metadata, "metadata")
	if err != nil {
		return nil, err
	}

	reading := &model.SensorReading{
		SensorID:       req.SensorID,
		Value:          req.Value,
		Unit:           req.Unit,
		Timestamp:      s.now(),
		Temperature:    req.Temperature,
		Humidity:       req.Humidity,
		SoilMoisture:   req.SoilMoisture,
		PHLevel:        req.PHLevel,
		LightIntensity: req.LightIntensity,
		Metadata:       metadata,
		IsValid:        true,
		ErrorMessage:   req.ErrorMessage,
	}
	if req.Timestamp != nil {
		reading.Timestamp = *req.Timestamp
	}
	if req.IsValid != nil {
		reading.IsValid = *req.IsValid
	}

	// 读数写入与 last_reading 刷新在同一事务中完成
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Sensor.CreateReading(ctx, reading); err != nil {
			return err
		}
		return tx.Sensor.Update(ctx, reading.SensorID, map[string]interface{}{
			"last_reading": reading.Timestamp,
		})
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSensorNotFound
		}
		s.logger.Error("写入传感器读数失败", zap.String("sensor_id", req.SensorID), zap.Error(err))
		return nil, err
	}
	return reading, nil
}

func (s *sensorService) UpdateReading(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateReadingRequest) (*model.SensorReading, error) {
	reading, res, err := s.loadReading(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionReadingUpdate, res) {
		return nil, ErrForbidden
	}

	fields := map[string]interface{}{}
	setFloat := func(column string, v *float64) {
		if v != nil {
			fields[column] = *v
		}
	}
	setFloat("value", req.Value)
	setFloat("temperature", req.Temperature)
	setFloat("humidity", req.Humidity)
	setFloat("soil_moisture", req.SoilMoisture)
	setFloat("ph_level", req.PHLevel)
	setFloat("light_intensity", req.LightIntensity)
	if req.Unit != nil {
		fields["unit"] = *req.Unit
	}
	if req.IsValid != nil {
		fields["is_valid"] = *req.IsValid
	}
	if req.ErrorMessage != nil {
		fields["error_message"] = *req.ErrorMessage
	}
	if len(req.Metadata) > 0 {
		metadata, err := jsonObject(req.Metadata, "metadata")
		if err != nil {
			return nil, err
		}
		fields["metadata"] = metadata
	}
	if len(fields) == 0 {
		return reading, nil
	}

	if err := s.repo.Sensor.UpdateReading(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReadingNotFound
		}
		s.logger.Error("更新传感器读数失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Sensor.GetReading(ctx, id)
}

func (s *sensorService) DeleteReading(ctx context.Context, caller authz.Principal, id string) error {
	_, res, err := s.loadReading(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionReadingDelete, res) {
		return ErrForbidden
	}
	if err := s.repo.Sensor.DeleteReading(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReadingNotFound
		}
		s.logger.Error("删除传感器读数失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *sensorService) ReadingStats(ctx context.Context, caller authz.Principal, sensorID string) (*dto.ReadingStats, error) {
	if _, _, err := s.load(ctx, caller, sensorID); err != nil {
		return nil, err
	}

	agg, err := s.repo.Sensor.ReadingStats(ctx, sensorID)
	if err != nil {
		s.logger.Error("统计传感器读数失败", zap.String("sensor_id", sensorID), zap.Error(err))
		return nil, err
	}
	return &dto.ReadingStats{
		TotalReadings:   agg.TotalReadings,
		AvgValue:        agg.AvgValue,
		MinValue:        agg.MinValue,
		MaxValue:        agg.MaxValue,
		AvgTemperature:  agg.AvgTemperature,
		AvgHumidity:     agg.AvgHumidity,
		AvgSoilMoisture: agg.AvgSoilMoisture,
		AvgPHLevel:      agg.AvgPHLevel,
		FirstReading:    agg.FirstReading,
		LastReading:     agg.LastReading,
	}, nil
}
