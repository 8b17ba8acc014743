package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
)

// ── 认证模块业务错误 ──

var (
	ErrInvalidCredentials  = errors.New("邮箱或密码错误")
	ErrAccountInactive     = errors.New("账号已停用")
	ErrEmailExists         = errors.New("该邮箱已注册")
	ErrCollegeNotApproved  = errors.New("学院不存在或尚未通过审核")
	ErrInvalidRole         = errors.New("该角色不允许自助注册")
	ErrInvalidResetToken   = errors.New("重置链接无效或已过期")
	ErrOldPasswordWrong    = errors.New("当前密码错误")
	ErrSuperAdminExists    = errors.New("超级管理员已存在")
	ErrInvalidRefreshToken = errors.New("刷新 Token 无效")
	ErrRefreshTokenExpired = errors.New("刷新 Token 已过期，请重新登录")
	ErrUserNotFound        = errors.New("用户不存在")
)

const forgotPasswordGenericText = "如果该邮箱已注册，重置说明已发送"

// AuthService 认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	RegisterCollegeAdmin(ctx context.Context, req *dto.RegisterCollegeAdminRequest) (*dto.RegisterResponse, error)
	RegisterSuperAdmin(ctx context.Context, req *dto.RegisterSuperAdminRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID string) (*dto.UserResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) (*dto.ForgotPasswordResponse, error)
	ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type authService struct {
	cfg    *config.Config
	repo   *repository.Repository
	jwtMgr *jwt.Manager
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthService 创建 AuthService 实例
func NewAuthService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	logger *zap.Logger,
) AuthService {
	return &authService{
		cfg:    cfg,
		repo:   repo,
		jwtMgr: jwtMgr,
		logger: logger,
		now:    time.Now,
	}
}

// ────────────────────── Login ──────────────────────

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	// 1. 按邮箱查询用户（大小写不敏感）
	user, err := s.repo.User.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}

	// 2. 验证密码 (bcrypt)
	if !verifyPassword(req.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	// 3. 停用账号不能登录
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// 4. 签发 Token 对
	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	// 5. 记录最近登录时间（失败不影响登录）
	now := s.now()
	if err := s.repo.User.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("更新最近登录时间失败", zap.String("user_id", user.ID), zap.Error(err))
	} else {
		resp.User.LastLogin = &now
	}

	resp.Message = "登录成功"
	return resp, nil
}

// ────────────────────── Register ──────────────────────

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	// 1. 仅允许教授 / 学生 / 数据科学家自助注册
	if !slices.Contains(model.SelfRegisterRoles, req.Role) {
		return nil, ErrInvalidRole
	}

	// 2. 学院必须已通过审核
	college, err := s.repo.College.GetByID(ctx, req.CollegeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCollegeNotApproved
		}
		s.logger.Error("查询学院失败", zap.String("college_id", req.CollegeID), zap.Error(err))
		return nil, err
	}
	if college.Status != model.StatusApproved {
		return nil, ErrCollegeNotApproved
	}

	// 3. 邮箱唯一
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	// 4. 创建待审核用户
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         req.Role,
		Status:       model.StatusPending,
		IsActive:     true,
		CollegeID:    &college.ID,
		Department:   req.Department,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建用户失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("用户注册待审核",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role),
		zap.String("college_id", college.ID),
	)

	return &dto.RegisterResponse{
		User:    toUserResponse(user),
		Message: "注册成功，请等待学院管理员审核",
	}, nil
}

// ────────────────────── RegisterCollegeAdmin ──────────────────────

func (s *authService) RegisterCollegeAdmin(ctx context.Context, req *dto.RegisterCollegeAdminRequest) (*dto.RegisterResponse, error) {
	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	college := &model.College{
		Name:        strings.TrimSpace(req.CollegeName),
		Address:     req.CollegeAddress,
		Location:    req.CollegeLocation,
		Status:      model.StatusPending,
	}
	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         model.RoleCollegeAdmin,
		Status:       model.StatusPending,
		IsActive:     true,
	}

	// 学院与管理员在同一事务中创建，任一失败整体回滚
	// 学院编码冲突时以新编码重试整个事务
	err = withCollegeCode(college, s.now(), s.logger, func() error {
		return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := tx.College.Create(ctx, college); err != nil {
				return err
			}
			user.CollegeID = &college.ID
			return tx.User.Create(ctx, user)
		})
	})
	if err != nil {
		switch {
		case pkgerrors.IsUniqueViolation(err) && pkgerrors.ConstraintName(err) == "uk_users_email_lower":
			return nil, ErrEmailExists
		case isCollegeCodeConflict(err):
			return nil, ErrCollegeCodeExists
		}
		s.logger.Error("注册学院管理员失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("学院注册待审核",
		zap.String("college_id", college.ID),
		zap.String("college_code", college.CollegeCode),
		zap.String("admin_id", user.ID),
	)

	return &dto.RegisterResponse{
		User:    toUserResponse(user),
		College: toCollegeResponse(college),
		Message: "学院注册已提交，请等待超级管理员审核",
	}, nil
}

// ── 学院编码 ──

const (
	collegeCodeConstraint = "colleges_college_code_key"
	collegeCodeAttempts   = 3
)

// collegeCode 生成学院编码：CLG + 毫秒时间戳后 6 位
func collegeCode(now time.Time) string {
	return fmt.Sprintf("CLG%06d", now.UnixMilli()%1_000_000)
}

func isCollegeCodeConflict(err error) bool {
	return pkgerrors.IsUniqueViolation(err) && pkgerrors.ConstraintName(err) == collegeCodeConstraint
}

// withCollegeCode 为学院分配编码并执行 create，编码冲突时顺延 1ms 重新生成，最多 collegeCodeAttempts 次
func withCollegeCode(college *model.College, now time.Time, logger *zap.Logger, create func() error) error {
	var err error
	for attempt := 0; attempt < collegeCodeAttempts; attempt++ {
		college.CollegeCode = collegeCode(now.Add(time.Duration(attempt) * time.Millisecond))
		if err = create(); !isCollegeCodeConflict(err) {
			return err
		}
		logger.Warn("学院编码冲突，重新生成",
			zap.String("college_code", college.CollegeCode),
			zap.Int("attempt", attempt+1),
		)
	}
	return err
}

// ────────────────────── RegisterSuperAdmin ──────────────────────

func (s *authService) RegisterSuperAdmin(ctx context.Context, req *dto.RegisterSuperAdminRequest) (*dto.AuthResponse, error) {
	if !s.cfg.Auth.AllowMultipleSuperAdmins {
		count, err := s.repo.User.CountByRole(ctx, model.RoleSuperAdmin)
		if err != nil {
			s.logger.Error("统计超级管理员失败", zap.Error(err))
			return nil, err
		}
		if count > 0 {
			return nil, ErrSuperAdminExists
		}
	}

	if err := s.ensureEmailFree(ctx, req.Email); err != nil {
		return nil, err
	}

	hash, err := hashPassword(req.Password, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return nil, err
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		Status:       model.StatusApproved,
		IsActive:     true,
	}
	if err := s.repo.User.Create(ctx, user); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		s.logger.Error("创建超级管理员失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("超级管理员已注册", zap.String("user_id", user.ID))

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	resp.Message = "超级管理员注册成功"
	return resp, nil
}

// ────────────────────── Me ──────────────────────

func (s *authService) Me(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return nil, err
	}
	return toUserResponse(user), nil
}

// ────────────────────── RefreshToken ──────────────────────

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*dto.AuthResponse, error) {
	// 刷新路径区分"过期"与"无效"
	claims, err := s.jwtMgr.ParseTokenOfType(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrRefreshTokenExpired
		}
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.repo.User.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidRefreshToken
		}
		s.logger.Error("查询用户失败", zap.String("id", claims.UserID), zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	// 以当前角色/学院重新签发，角色变更即时生效
	return s.issueTokens(user)
}

// ────────────────────── ForgotPassword ──────────────────────

func (s *authService) ForgotPassword(ctx context.Context, email string) (*dto.ForgotPasswordResponse, error) {
	resp := &dto.ForgotPasswordResponse{Message: forgotPasswordGenericText}

	user, err := s.repo.User.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return resp, nil
		}
		s.logger.Error("查询用户失败", zap.Error(err))
		return nil, err
	}
	if !user.IsActive {
		return resp, nil
	}

	token, err := s.jwtMgr.GenerateResetToken(user.ID)
	if err != nil {
		s.logger.Error("生成重置 Token 失败", zap.Error(err))
		return nil, err
	}

	// 不接入邮件服务，重置 Token 写入日志供运维转交
	s.logger.Info("生成密码重置 Token",
		zap.String("user_id", user.ID),
		zap.String("reset_token", token),
	)

	if !s.cfg.Server.IsProduction() {
		resp.ResetToken = token
	}
	return resp, nil
}

// ────────────────────── ResetPassword ──────────────────────

func (s *authService) ResetPassword(ctx context.Context, req *dto.ResetPasswordRequest) error {
	claims, err := s.jwtMgr.ParseTokenOfType(req.Token, jwt.TokenTypePasswordReset)
	if err != nil {
		return ErrInvalidResetToken
	}

	hash, err := hashPassword(req.NewPassword, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, claims.UserID, hash); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		s.logger.Error("重置密码失败", zap.String("user_id", claims.UserID), zap.Error(err))
		return err
	}

	s.logger.Info("密码已重置", zap.String("user_id", claims.UserID))
	return nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *authService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error("查询用户失败", zap.String("id", userID), zap.Error(err))
		return err
	}

	if !verifyPassword(req.CurrentPassword, user.PasswordHash) {
		return ErrOldPasswordWrong
	}

	hash, err := hashPassword(req.NewPassword, s.cfg.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.User.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("修改密码失败", zap.String("id", userID), zap.Error(err))
		return err
	}
	return nil
}

// ── 内部工具 ──

func (s *authService) ensureEmailFree(ctx context.Context, email string) error {
	exists, err := s.repo.User.EmailExists(ctx, strings.TrimSpace(email))
	if err != nil {
		s.logger.Error("检查邮箱失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrEmailExists
	}
	return nil
}

func (s *authService) issueTokens(user *model.User) (*dto.AuthResponse, error) {
	token, err := s.jwtMgr.GenerateSessionToken(user.ID, user.Role, user.CollegeIDValue())
	if err != nil {
		s.logger.Error("生成会话 Token 失败", zap.Error(err))
		return nil, err
	}
	refresh, err := s.jwtMgr.GenerateRefreshToken(user.ID, user.Role, user.CollegeIDValue())
	if err != nil {
		s.logger.Error("生成刷新 Token 失败", zap.Error(err))
		return nil, err
	}
	return &dto.AuthResponse{
		User:         toUserResponse(user),
		Token:        token,
		RefreshToken: refresh,
		ExpiresIn:    int(s.jwtMgr.SessionTTL().Seconds()),
	}, nil
}
