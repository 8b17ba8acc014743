package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

// CollegeRepository 学院数据访问接口
type CollegeRepository interface {
	Create(ctx context.Context, college *model.College) error
	GetByID(ctx context.Context, id string) (*model.College, error)
	List(ctx context.Context, status string) ([]model.College, error)
	ListApproved(ctx context.Context) ([]model.College, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Review(ctx context.Context, id, toStatus, reviewerID string, at time.Time) error
	Delete(ctx context.Context, id string) error
}

type collegeRepo struct {
	db *gorm.DB
}

// NewCollegeRepo 创建 CollegeRepository 实例
func NewCollegeRepo(db *gorm.DB) CollegeRepository {
	return &collegeRepo{db: db}
}

func (r *collegeRepo) Create(ctx context.Context, college *model.College) error {
	return r.db.WithContext(ctx).Create(college).Error
}

func (r *collegeRepo) GetByID(ctx context.Context, id string) (*model.College, error) {
	var college model.College
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&college).Error; err != nil {
		return nil, err
	}
	return &college, nil
}

func (r *collegeRepo) List(ctx context.Context, status string) ([]model.College, error) {
	var colleges []model.College
	db := r.db.WithContext(ctx)
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("created_at DESC").Find(&colleges).Error
	return colleges, err
}

func (r *collegeRepo) ListApproved(ctx context.Context) ([]model.College, error) {
	var colleges []model.College
	err := r.db.WithContext(ctx).
		Where("status = ?", model.StatusApproved).
		Order("name ASC").
		Find(&colleges).Error
	return colleges, err
}

func (r *collegeRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.College{}).
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

// Review 条件更新：pending → approved / rejected
func (r *collegeRepo) Review(ctx context.Context, id, toStatus, reviewerID string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.College{}).
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

// Delete 删除学院；仍有用户引用时由外键约束拒绝（23503）
func (r *collegeRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.College{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
