package service

import (
	"context"
	"errors"
	"slices"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ErrResearchDataNotFound 科研数据不存在
var ErrResearchDataNotFound = errors.New("科研数据不存在")

// 可代他人录入数据的角色
var onBehalfRoles = []string{model.RoleSuperAdmin, model.RoleCollegeAdmin, model.RoleProfessor}

// ResearchDataService 科研数据条目业务接口
type ResearchDataService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.ResearchDataListRequest) ([]model.ResearchData, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateResearchDataRequest) (*model.ResearchData, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
}

type researchDataService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewResearchDataService 创建 ResearchDataService 实例
func NewResearchDataService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) ResearchDataService {
	return &researchDataService{repo: repo, authz: az, logger: logger}
}

func (s *researchDataService) List(ctx context.Context, caller authz.Principal, req *dto.ResearchDataListRequest) ([]model.ResearchData, error) {
	list, err := s.repo.ResearchData.List(ctx, repository.ResearchDataFilter{
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
		DataType:  req.DataType,
	}, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询科研数据失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// Create 项目须在调用者租户内；代他人录入仅限审核角色且对象在同一租户
func (s *researchDataService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateResearchDataRequest) (*model.ResearchData, error) {
	if _, err := visibleProject(ctx, s.repo, caller, req.ProjectID); err != nil {
		return nil, err
	}

	userID := caller.ID
	if req.UserID != nil && *req.UserID != caller.ID {
		if !slices.Contains(onBehalfRoles, caller.Role) {
			return nil, ErrForbidden
		}
		owner, err := s.repo.User.GetByID(ctx, *req.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUserNotFound
			}
			return nil, err
		}
		if caller.Role != model.RoleSuperAdmin && (caller.CollegeID == "" || owner.CollegeIDValue() != caller.CollegeID) {
			return nil, ErrUserNotFound
		}
		userID = *req.UserID
	}

	metadata, err := jsonObject(req.Metadata, "metadata")
	if err != nil {
		return nil, err
	}

	entry := &model.ResearchData{
		ProjectID: req.ProjectID,
		UserID:    userID,
		DataType:  req.DataType,
		Metadata:  metadata,
		ImageURLs: stringArray(req.ImageURLs),
		VideoURLs: stringArray(req.VideoURLs),
		FileURLs:  stringArray(req.FileURLs),
		AudioURLs: stringArray(req.AudioURLs),
	}
	if err := s.repo.ResearchData.Create(ctx, entry); err != nil {
		s.logger.Error("录入科研数据失败",
			zap.String("project_id", req.ProjectID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		return nil, err
	}
	return entry, nil
}

func (s *researchDataService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	entry, err := s.repo.ResearchData.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResearchDataNotFound
		}
		s.logger.Error("查询科研数据失败", zap.String("id", id), zap.Error(err))
		return err
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, entry.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResearchDataNotFound
	}
	res := authz.Resource{Type: authz.ResourceResearchData, ID: entry.ID, OwnerID: entry.UserID, CollegeID: collegeID}
	if !s.authz.Can(caller, authz.ActionResearchDataDelete, res) {
		return ErrForbidden
	}

	if err := s.repo.ResearchData.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrResearchDataNotFound
		}
		s.logger.Error("删除科研数据失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
