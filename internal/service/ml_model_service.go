package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ErrModelNotFound 模型不存在
var ErrModelNotFound = errors.New("模型不存在")

// ModelService 机器学习模型登记业务接口
type ModelService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.ModelListRequest) ([]model.MLModel, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.MLModel, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateModelRequest) (*model.MLModel, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateModelRequest) (*model.MLModel, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
}

type modelService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
	now    func() time.Time
}

// NewModelService 创建 ModelService 实例
func NewModelService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) ModelService {
	return &modelService{repo: repo, authz: az, logger: logger, now: time.Now}
}

func (s *modelService) List(ctx context.Context, caller authz.Principal, req *dto.ModelListRequest) ([]model.MLModel, error) {
	list, err := s.repo.Model.List(ctx, repository.ModelFilter{
		Status:    req.Status,
		Type:      req.Type,
		ProjectID: req.ProjectID,
	}, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询模型失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *modelService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.MLModel, error) {
	m, _, err := s.load(ctx, caller, id)
	return m, err
}

// load 读取模型，租户外的模型视为不存在
func (s *modelService) load(ctx context.Context, caller authz.Principal, id string) (*model.MLModel, authz.Resource, error) {
	m, err := s.repo.Model.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Resource{}, ErrModelNotFound
		}
		s.logger.Error("查询模型失败", zap.String("id", id), zap.Error(err))
		return nil, authz.Resource{}, err
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, m.CreatedBy)
	if err != nil {
		return nil, authz.Resource{}, err
	}
	if !ok {
		return nil, authz.Resource{}, ErrModelNotFound
	}
	return m, authz.Resource{Type: authz.ResourceModel, ID: m.ID, OwnerID: m.CreatedBy, CollegeID: collegeID}, nil
}

// ────────────────────── Create ──────────────────────

func (s *modelService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateModelRequest) (*model.MLModel, error) {
	if req.ProjectID != nil {
		if _, err := visibleProject(ctx, s.repo, caller, *req.ProjectID); err != nil {
			return nil, err
		}
	}
	hyper, err := jsonObject(req.Hyperparameters, "hyperparameters")
	if err != nil {
		return nil, err
	}
	training, err := jsonObject(req.TrainingConfig, "training_config")
	if err != nil {
		return nil, err
	}

	m := &model.MLModel{
		Name:             strings.TrimSpace(req.Name),
		Description:      req.Description,
		Type:             req.Type,
		Framework:        req.Framework,
		Status:           model.ModelStatusDraft,
		Version:          req.Version,
		ProjectID:        req.ProjectID,
		CreatedBy:        caller.ID,
		Hyperparameters:  hyper,
		TrainingConfig:   training,
		Metrics:          []byte("{}"),
		DeploymentConfig: []byte("{}"),
	}
	if m.Version == "" {
		m.Version = "1.0.0"
	}

	if err := s.repo.Model.Create(ctx, m); err != nil {
		s.logger.Error("登记模型失败", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, err
	}
	return m, nil
}

// ────────────────────── Update ──────────────────────

// Update 状态变为 TRAINED / DEPLOYED 时记录对应时间
func (s *modelService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateModelRequest) (*model.MLModel, error) {
	_, res, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionModelUpdate, res) {
		return nil, ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Type != nil {
		fields["type"] = *req.Type
	}
	if req.Framework != nil {
		fields["framework"] = *req.Framework
	}
	if req.Version != nil {
		fields["version"] = *req.Version
	}
	if req.Accuracy != nil {
		fields["accuracy"] = *req.Accuracy
	}
	if req.ModelPath != nil {
		fields["model_path"] = *req.ModelPath
	}
	for _, col := range []struct {
		name string
		raw  json.RawMessage
	}{
		{"hyperparameters", req.Hyperparameters},
		{"training_config", req.TrainingConfig},
		{"metrics", req.Metrics},
		{"deployment_config", req.DeploymentConfig},
	} {
		if len(col.raw) == 0 {
			continue
		}
		obj, err := jsonObject(col.raw, col.name)
		if err != nil {
			return nil, err
		}
		fields[col.name] = obj
	}
	if req.Status != nil {
		fields["status"] = *req.Status
		switch *req.Status {
		case model.ModelStatusTrained:
			fields["trained_at"] = s.now()
		case model.ModelStatusDeployed:
			fields["deployed_at"] = s.now()
		}
	}
	if len(fields) == 0 {
		return nil, validationError("没有需要更新的字段")
	}

	if err := s.repo.Model.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrModelNotFound
		}
		s.logger.Error("更新模型失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Model.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *modelService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	_, res, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionModelDelete, res) {
		return ErrForbidden
	}
	if err := s.repo.Model.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrModelNotFound
		}
		s.logger.Error("删除模型失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
