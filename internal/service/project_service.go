package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ── 项目模块业务错误 ──

var (
	ErrProjectNotFound  = errors.New("项目不存在")
	ErrProjectDateRange = errors.New("结束日期不能早于开始日期")
)

const dateLayout = "2006-01-02"

// ProjectService 项目业务接口
type ProjectService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.ProjectListRequest) ([]model.Project, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Project, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateProjectRequest) (*model.Project, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateProjectRequest) (*model.Project, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
}

type projectService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewProjectService 创建 ProjectService 实例
func NewProjectService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) ProjectService {
	return &projectService{repo: repo, authz: az, logger: logger}
}

func (s *projectService) List(ctx context.Context, caller authz.Principal, req *dto.ProjectListRequest) ([]model.Project, error) {
	filter := repository.ProjectFilter{
		Status:     req.Status,
		Type:       req.Type,
		Department: req.Department,
		UserID:     req.UserID,
	}
	projects, err := s.repo.Project.List(ctx, filter, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询项目失败", zap.Error(err))
		return nil, err
	}
	return projects, nil
}

func (s *projectService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Project, error) {
	project, _, err := s.load(ctx, caller, id)
	return project, err
}

// load 查询项目并校验租户可见性，返回项目归属学院
func (s *projectService) load(ctx context.Context, caller authz.Principal, id string) (*model.Project, string, error) {
	project, err := s.repo.Project.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrProjectNotFound
		}
		s.logger.Error("查询项目失败", zap.String("id", id), zap.Error(err))
		return nil, "", err
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, project.CreatedBy)
	if err != nil {
		s.logger.Error("查询项目归属失败", zap.String("id", id), zap.Error(err))
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrProjectNotFound
	}
	return project, collegeID, nil
}

func projectResource(p *model.Project, collegeID string) authz.Resource {
	return authz.Resource{Type: authz.ResourceProject, ID: p.ID, OwnerID: p.CreatedBy, CollegeID: collegeID}
}

// ────────────────────── Create ──────────────────────

func (s *projectService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateProjectRequest) (*model.Project, error) {
	start, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, validationError("start_date 格式应为 YYYY-MM-DD")
	}
	end, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, validationError("end_date 格式应为 YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, ErrProjectDateRange
	}

	cfgJSON, err := jsonObject(req.Configuration, "configuration")
	if err != nil {
		return nil, err
	}

	project := &model.Project{
		Name:          strings.TrimSpace(req.Name),
		Description:   req.Description,
		Type:          req.Type,
		Status:        req.Status,
		Department:    req.Department,
		StartDate:     &start,
		EndDate:       &end,
		CreatedBy:     caller.ID,
		TeamMembers:   pq.StringArray(req.TeamMembers),
		Configuration: cfgJSON,
	}
	if project.Status == "" {
		project.Status = model.ProjectStatusPlanning
	}
	if project.TeamMembers == nil {
		project.TeamMembers = pq.StringArray{}
	}

	if err := s.repo.Project.Create(ctx, project); err != nil {
		s.logger.Error("创建项目失败", zap.Error(err))
		return nil, err
	}
	return project, nil
}

// ────────────────────── Update ──────────────────────

func (s *projectService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateProjectRequest) (*model.Project, error) {
	project, collegeID, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionProjectUpdate, projectResource(project, collegeID)) {
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
	if req.Status != nil {
		fields["status"] = *req.Status
	}
	if req.Department != nil {
		fields["department"] = *req.Department
	}

	start, end := project.StartDate, project.EndDate
	if req.StartDate != nil {
		t, err := time.Parse(dateLayout, *req.StartDate)
		if err != nil {
			return nil, validationError("start_date 格式应为 YYYY-MM-DD")
		}
		start = &t
		fields["start_date"] = t
	}
	if req.EndDate != nil {
		t, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			return nil, validationError("end_date 格式应为 YYYY-MM-DD")
		}
		end = &t
		fields["end_date"] = t
	}
	if start != nil && end != nil && end.Before(*start) {
		return nil, ErrProjectDateRange
	}

	if req.TeamMembers != nil {
		fields["team_members"] = pq.StringArray(*req.TeamMembers)
	}
	if len(req.Configuration) > 0 {
		cfgJSON, err := jsonObject(req.Configuration, "configuration")
		if err != nil {
			return nil, err
		}
		fields["configuration"] = cfgJSON
	}
	if len(fields) == 0 {
		return project, nil
	}

	if err := s.repo.Project.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		s.logger.Error("更新项目失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Project.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *projectService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	project, collegeID, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionProjectDelete, projectResource(project, collegeID)) {
		return ErrForbidden
	}
	if err := s.repo.Project.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		s.logger.Error("删除项目失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
