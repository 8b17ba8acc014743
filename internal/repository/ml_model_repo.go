package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// ModelFilter 模型列表筛选
type ModelFilter struct {
	Status    string
	Type      string
	ProjectID string
}

// ModelRepository 机器学习模型数据访问接口
type ModelRepository interface {
	Create(ctx context.Context, m *model.MLModel) error
	GetByID(ctx context.Context, id string) (*model.MLModel, error)
	List(ctx context.Context, filter ModelFilter, scope Scope) ([]model.MLModel, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
}

type modelRepo struct {
	db *gorm.DB
}

// NewModelRepo 创建 ModelRepository 实例
func NewModelRepo(db *gorm.DB) ModelRepository {
	return &modelRepo{db: db}
}

func (r *modelRepo) Create(ctx context.Context, m *model.MLModel) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *modelRepo) GetByID(ctx context.Context, id string) (*model.MLModel, error) {
	var m model.MLModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *modelRepo) List(ctx context.Context, filter ModelFilter, scope Scope) ([]model.MLModel, error) {
	var list []model.MLModel
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, "created_by"))
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *modelRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.MLModel{}).
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

func (r *modelRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.MLModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
