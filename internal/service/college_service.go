package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
)

// ── 学院模块业务错误 ──

var (
	ErrCollegeNotFound        = errors.New("学院不存在")
	ErrCollegeAlreadyReviewed = errors.New("该学院已审核")
	ErrCollegeCodeExists      = errors.New("学院编码冲突，请重试")
)

// CollegeService 学院业务接口
type CollegeService interface {
	ListPublic(ctx context.Context) ([]dto.PublicCollegeResponse, error)
	List(ctx context.Context, status string) ([]dto.CollegeResponse, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateCollegeRequest) (*dto.CollegeResponse, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateCollegeRequest) (*dto.CollegeResponse, error)
	Approve(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error)
	Reject(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
}

type collegeService struct {
	repo    *repository.Repository
	authz   *authz.Authorizer
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewCollegeService 创建 CollegeService 实例
func NewCollegeService(repo *repository.Repository, az *authz.Authorizer, m *metrics.Metrics, logger *zap.Logger) CollegeService {
	return &collegeService{repo: repo, authz: az, metrics: m, logger: logger}
}

// ────────────────────── List ──────────────────────

// ListPublic 注册页使用的已审核学院
func (s *collegeService) ListPublic(ctx context.Context) ([]dto.PublicCollegeResponse, error) {
	colleges, err := s.repo.College.ListApproved(ctx)
	if err != nil {
		s.logger.Error("查询已审核学院失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.PublicCollegeResponse, 0, len(colleges))
	for _, c := range colleges {
		result = append(result, dto.PublicCollegeResponse{
			ID:          c.ID,
			Name:        c.Name,
			CollegeCode: c.CollegeCode,
			Address:     c.Address,
			Location:    c.Location,
		})
	}
	return result, nil
}

func (s *collegeService) List(ctx context.Context, status string) ([]dto.CollegeResponse, error) {
	colleges, err := s.repo.College.List(ctx, status)
	if err != nil {
		s.logger.Error("查询学院失败", zap.String("status", status), zap.Error(err))
		return nil, err
	}
	return toCollegeResponses(colleges), nil
}

// ────────────────────── GetByID ──────────────────────

// GetByID 非超级管理员只能查看本学院或已审核学院
func (s *collegeService) GetByID(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error) {
	college, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.Role != model.RoleSuperAdmin && college.ID != caller.CollegeID && college.Status != model.StatusApproved {
		return nil, ErrCollegeNotFound
	}
	return toCollegeResponse(college), nil
}

func (s *collegeService) get(ctx context.Context, id string) (*model.College, error) {
	college, err := s.repo.College.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollegeNotFound
		}
		s.logger.Error("查询学院失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return college, nil
}

func collegeResource(c *model.College) authz.Resource {
	return authz.Resource{Type: authz.ResourceCollege, ID: c.ID, CollegeID: c.ID}
}

// ────────────────────── Create ──────────────────────

// Create 超级管理员直接创建的学院无需审核
func (s *collegeService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateCollegeRequest) (*dto.CollegeResponse, error) {
	now := time.Now()
	college := &model.College{
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		Location:    req.Location,
		Status:      model.StatusApproved,
		ReviewedBy:  &caller.ID,
		ReviewedAt:  &now,
	}
	err := withCollegeCode(college, now, s.logger, func() error {
		return s.repo.College.Create(ctx, college)
	})
	if err != nil {
		if isCollegeCodeConflict(err) {
			return nil, ErrCollegeCodeExists
		}
		s.logger.Error("创建学院失败", zap.Error(err))
		return nil, err
	}
	return toCollegeResponse(college), nil
}

// ────────────────────── Update ──────────────────────

func (s *collegeService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateCollegeRequest) (*dto.CollegeResponse, error) {
	college, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionCollegeUpdate, collegeResource(college)) {
		return nil, ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		fields["address"] = *req.Address
	}
	if req.Location != nil {
		fields["location"] = *req.Location
	}
	if len(fields) == 0 {
		return toCollegeResponse(college), nil
	}

	if err := s.repo.College.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollegeNotFound
		}
		s.logger.Error("更新学院失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toCollegeResponse(updated), nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *collegeService) Approve(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error) {
	return s.review(ctx, caller, id, model.StatusApproved, authz.ActionCollegeApprove)
}

func (s *collegeService) Reject(ctx context.Context, caller authz.Principal, id string) (*dto.CollegeResponse, error) {
	return s.review(ctx, caller, id, model.StatusRejected, authz.ActionCollegeReject)
}

func (s *collegeService) review(ctx context.Context, caller authz.Principal, id, toStatus string, action authz.Action) (*dto.CollegeResponse, error) {
	college, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, action, collegeResource(college)) {
		return nil, ErrForbidden
	}

	now := time.Now()
	if err := s.repo.College.Review(ctx, id, toStatus, caller.ID, now); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleStatus) {
			s.metrics.ObserveReview("college", "conflict")
			current, getErr := s.get(ctx, id)
			if getErr != nil {
				return nil, getErr
			}
			return nil, statusConflict(ErrCollegeAlreadyReviewed, current.Status)
		}
		s.logger.Error("审核学院失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveReview("college", toStatus)

	s.logger.Info("学院已审核",
		zap.String("college_id", id),
		zap.String("status", toStatus),
		zap.String("reviewer_id", caller.ID),
	)

	college.Status = toStatus
	college.ReviewedBy = &caller.ID
	college.ReviewedAt = &now
	return toCollegeResponse(college), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 仍有用户引用的学院由外键约束拒绝
func (s *collegeService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	college, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionCollegeDelete, collegeResource(college)) {
		return ErrForbidden
	}
	if err := s.repo.College.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCollegeNotFound
		}
		s.logger.Error("删除学院失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
