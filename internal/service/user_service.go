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

// ── 用户模块业务错误 ──

var (
	ErrUserSelfDelete      = errors.New("不能删除自己")
	ErrUserAlreadyReviewed = errors.New("该用户已审核")
	ErrNoPermission        = errors.New("无权操作")
	ErrRoleChangeForbidden = errors.New("无权修改角色或启用状态")
)

// UserService 用户业务接口
type UserService interface {
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	ListPending(ctx context.Context, caller authz.Principal) ([]dto.UserResponse, error)
	ListByCollege(ctx context.Context, caller authz.Principal, collegeID string) ([]dto.UserResponse, error)
	ListCollegeMembers(ctx context.Context, caller authz.Principal, collegeID string) ([]dto.UserResponse, error)
	ListByDepartment(ctx context.Context, caller authz.Principal, department string) ([]dto.UserResponse, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*dto.UserResponse, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error)
	Approve(ctx context.Context, caller authz.Principal, id string) (*dto.UserResponse, error)
	Reject(ctx context.Context, caller authz.Principal, id string, reason string) (*dto.UserResponse, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
}

type userService struct {
	repo     *repository.Repository
	authz    *authz.Authorizer
	notifier NotificationService
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewUserService 创建 UserService 实例
func NewUserService(
	repo *repository.Repository,
	az *authz.Authorizer,
	notifier NotificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) UserService {
	return &userService{repo: repo, authz: az, notifier: notifier, metrics: m, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	filter := repository.UserFilter{
		Role:      req.Role,
		Status:    req.Status,
		CollegeID: req.CollegeID,
	}
	users, total, err := s.repo.User.List(ctx, filter, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("列出用户失败", zap.Error(err))
		return nil, 0, err
	}
	return toUserResponses(users), total, nil
}

// ────────────────────── ListPending ──────────────────────

// ListPending 待审核队列由调用方角色决定
//   - 学院管理员：本学院待审核用户，不含学院管理员
//   - 超级管理员：待审核的学院管理员
func (s *userService) ListPending(ctx context.Context, caller authz.Principal) ([]dto.UserResponse, error) {
	var filter repository.PendingFilter
	switch caller.Role {
	case model.RoleSuperAdmin:
		filter.Role = model.RoleCollegeAdmin
	case model.RoleCollegeAdmin:
		if caller.CollegeID == "" {
			return []dto.UserResponse{}, nil
		}
		filter.CollegeID = caller.CollegeID
		filter.ExcludeRoles = []string{model.RoleCollegeAdmin, model.RoleSuperAdmin}
	default:
		return nil, ErrForbidden
	}

	users, err := s.repo.User.ListPending(ctx, filter)
	if err != nil {
		s.logger.Error("查询待审核用户失败", zap.Error(err))
		return nil, err
	}
	return toUserResponses(users), nil
}

// ────────────────────── ListByCollege ──────────────────────

// ListByCollege 学院全部用户（含待审核），仅本学院管理员或超级管理员
func (s *userService) ListByCollege(ctx context.Context, caller authz.Principal, collegeID string) ([]dto.UserResponse, error) {
	if caller.Role != model.RoleSuperAdmin &&
		!(caller.Role == model.RoleCollegeAdmin && caller.CollegeID == collegeID) {
		return nil, ErrForbidden
	}
	users, err := s.repo.User.ListByCollege(ctx, collegeID, false)
	if err != nil {
		s.logger.Error("查询学院用户失败", zap.String("college_id", collegeID), zap.Error(err))
		return nil, err
	}
	return toUserResponses(users), nil
}

// ListCollegeMembers 学院内已审核的在职成员，本学院成员可见
func (s *userService) ListCollegeMembers(ctx context.Context, caller authz.Principal, collegeID string) ([]dto.UserResponse, error) {
	if caller.Role != model.RoleSuperAdmin && caller.CollegeID != collegeID {
		return nil, ErrForbidden
	}
	users, err := s.repo.User.ListByCollege(ctx, collegeID, true)
	if err != nil {
		s.logger.Error("查询学院成员失败", zap.String("college_id", collegeID), zap.Error(err))
		return nil, err
	}
	return toUserResponses(users), nil
}

func (s *userService) ListByDepartment(ctx context.Context, caller authz.Principal, department string) ([]dto.UserResponse, error) {
	users, err := s.repo.User.ListByDepartment(ctx, department, scopeOf(caller))
	if err != nil {
		s.logger.Error("按部门查询用户失败", zap.String("department", department), zap.Error(err))
		return nil, err
	}
	return toUserResponses(users), nil
}

// ────────────────────── GetByID ──────────────────────

func (s *userService) GetByID(ctx context.Context, caller authz.Principal, id string) (*dto.UserResponse, error) {
	user, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// load 查询用户；租户范围外的用户视为不存在
func (s *userService) load(ctx context.Context, caller authz.Principal, id string) (*model.User, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if caller.Role != model.RoleSuperAdmin && caller.ID != user.ID {
		if caller.CollegeID == "" || user.CollegeIDValue() != caller.CollegeID {
			return nil, ErrUserNotFound
		}
	}
	return user, nil
}

func userResource(u *model.User) authz.Resource {
	return authz.Resource{
		Type:      authz.ResourceUser,
		ID:        u.ID,
		OwnerID:   u.ID,
		CollegeID: u.CollegeIDValue(),
		Role:      u.Role,
	}
}

// ────────────────────── Update ──────────────────────

func (s *userService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if !s.authz.Can(caller, authz.ActionUserUpdate, userResource(user)) {
		return nil, ErrNoPermission
	}

	// 角色与启用状态仅管理员可改，且不能改自己的
	if req.Role != nil || req.IsActive != nil {
		isAdmin := caller.Role == model.RoleSuperAdmin || caller.Role == model.RoleCollegeAdmin
		if !isAdmin || caller.ID == id {
			return nil, ErrRoleChangeForbidden
		}
		if req.Role != nil && *req.Role == model.RoleCollegeAdmin && caller.Role != model.RoleSuperAdmin {
			return nil, ErrRoleChangeForbidden
		}
	}

	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = *req.Phone
	}
	if req.Department != nil {
		fields["department"] = *req.Department
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
	}
	if req.ProfileImage != nil {
		fields["profile_image_url"] = *req.ProfileImage
	}
	if req.Role != nil {
		fields["role"] = *req.Role
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}
	if len(fields) == 0 {
		return toUserResponse(user), nil
	}

	if err := s.repo.User.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("更新用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	updated, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return toUserResponse(updated), nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *userService) Approve(ctx context.Context, caller authz.Principal, id string) (*dto.UserResponse, error) {
	return s.review(ctx, caller, id, model.StatusApproved, authz.ActionUserApprove, "")
}

func (s *userService) Reject(ctx context.Context, caller authz.Principal, id string, reason string) (*dto.UserResponse, error) {
	return s.review(ctx, caller, id, model.StatusRejected, authz.ActionUserReject, strings.TrimSpace(reason))
}

// review 审核用户
// 1. 查询目标用户并按策略表复核审核人资格（不依赖前端只展示了过滤后的队列）
// 2. 条件更新 pending → 目标状态，未命中时重新读取以返回当前状态
// 3. 通知被审核用户
func (s *userService) review(ctx context.Context, caller authz.Principal, id, toStatus string, action authz.Action, reason string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !s.authz.Can(caller, action, userResource(user)) {
		return nil, ErrForbidden
	}

	now := time.Now()
	if err := s.repo.User.Review(ctx, id, toStatus, caller.ID, now); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleStatus) {
			s.metrics.ObserveReview("user", "conflict")
			current, getErr := s.repo.User.GetByID(ctx, id)
			if getErr != nil {
				if errors.Is(getErr, gorm.ErrRecordNotFound) {
					return nil, ErrUserNotFound
				}
				return nil, getErr
			}
			return nil, statusConflict(ErrUserAlreadyReviewed, current.Status)
		}
		s.logger.Error("审核用户失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveReview("user", toStatus)

	s.logger.Info("用户已审核",
		zap.String("user_id", id),
		zap.String("status", toStatus),
		zap.String("reviewer_id", caller.ID),
	)

	user.Status = toStatus
	user.ReviewedBy = &caller.ID
	user.ReviewedAt = &now

	title, message := "账号审核通过", "您的账号已通过审核，现在可以使用全部功能"
	if toStatus == model.StatusRejected {
		title, message = "账号审核未通过", "您的账号注册申请未通过审核"
		if reason != "" {
			message += "：" + reason
		}
	}
	s.notifier.Notify(ctx, &model.Notification{
		UserID:      user.ID,
		Title:       title,
		Message:     message,
		Type:        reviewNotificationType(toStatus),
		RelatedType: "user",
		RelatedID:   &user.ID,
	})

	return toUserResponse(user), nil
}

func reviewNotificationType(status string) string {
	if status == model.StatusApproved {
		return "success"
	}
	return "warning"
}

// ────────────────────── Delete ──────────────────────

func (s *userService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	if id == caller.ID {
		return ErrUserSelfDelete
	}

	user, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionUserDelete, userResource(user)) {
		return ErrNoPermission
	}

	if err := s.repo.User.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("删除用户失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}
