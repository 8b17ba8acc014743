package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

// UserFilter 用户列表筛选
type UserFilter struct {
	Role      string
	Status    string
	CollegeID string
}

// PendingFilter 待审核队列筛选
// CollegeID 非空时限定学院；Role 非空时只看该角色；ExcludeRoles 中的角色被排除
type PendingFilter struct {
	CollegeID    string
	Role         string
	ExcludeRoles []string
}

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	CountByRole(ctx context.Context, role string) (int64, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
	UpdatePassword(ctx context.Context, id, hash string) error
	Review(ctx context.Context, id, toStatus, reviewerID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error)
	ListPending(ctx context.Context, filter PendingFilter) ([]model.User, error)
	ListByCollege(ctx context.Context, collegeID string, approvedOnly bool) ([]model.User, error)
	ListByDepartment(ctx context.Context, department string, scope Scope) ([]model.User, error)
}

// userRepo UserRepository 的 GORM 实现
type userRepo struct {
	db *gorm.DB
}

// NewUserRepo 创建 UserRepository 实例
func NewUserRepo(db *gorm.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmail 邮箱大小写不敏感查询
func (r *userRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?)", email).
		First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("LOWER(email) = LOWER(?)", email).
		Count(&count).Error
	return count > 0, err
}

func (r *userRepo) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("role = ?", role).
		Count(&count).Error
	return count, err
}

func (r *userRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.User{}).
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

func (r *userRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login", at).Error
}

func (r *userRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.Update(ctx, id, map[string]interface{}{"password_hash": hash})
}

// Review 条件更新：仅当当前状态为 pending 时写入审核结果
// 未命中返回 pkgerrors.ErrStaleStatus，由调用方区分不存在与已审核
func (r *userRepo) Review(ctx context.Context, id, toStatus, reviewerID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(map[string]interface{}{
			"status":      toStatus,
			"reviewed_by": reviewerID,
			"reviewed_at": at,
			"updated_at":  at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleStatus
	}
	return nil
}

func (r *userRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.User{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *userRepo) List(ctx context.Context, filter UserFilter, offset, limit int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	db := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.CollegeID != "" {
		db = db.Where("college_id = ?", filter.CollegeID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&users).Error; err != nil {
		return nil, 0, err
	}

	return users, total, nil
}

func (r *userRepo) ListPending(ctx context.Context, filter PendingFilter) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Where("status = ?", model.StatusPending)
	if filter.CollegeID != "" {
		db = db.Where("college_id = ?", filter.CollegeID)
	}
	if filter.Role != "" {
		db = db.Where("role = ?", filter.Role)
	}
	if len(filter.ExcludeRoles) > 0 {
		db = db.Where("role NOT IN ?", filter.ExcludeRoles)
	}
	err := db.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *userRepo) ListByCollege(ctx context.Context, collegeID string, approvedOnly bool) ([]model.User, error) {
	var users []model.User
	db := r.db.WithContext(ctx).Where("college_id = ?", collegeID)
	order := "created_at DESC"
	if approvedOnly {
		db = db.Where("status = ? AND is_active = ?", model.StatusApproved, true)
		order = "name ASC"
	}
	err := db.Order(order).Find(&users).Error
	return users, err
}

func (r *userRepo) ListByDepartment(ctx context.Context, department string, scope Scope) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(scope, "id")).
		Where("department = ? AND status = ? AND is_active = ?", department, model.StatusApproved, true).
		Order("name ASC").
		Find(&users).Error
	return users, err
}
