package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// ResearchDataFilter 科研数据筛选
type ResearchDataFilter struct {
	ProjectID string
	UserID    string
	DataType  string
}

// ResearchDataRepository 科研数据条目数据访问接口
type ResearchDataRepository interface {
	Create(ctx context.Context, entry *model.ResearchData) error
	GetByID(ctx context.Context, id string) (*model.ResearchData, error)
	List(ctx context.Context, filter ResearchDataFilter, scope Scope) ([]model.ResearchData, error)
	Delete(ctx context.Context, id string) error
}

type researchDataRepo struct {
	db *gorm.DB
}

// NewResearchDataRepo 创建 ResearchDataRepository 实例
func NewResearchDataRepo(db *gorm.DB) ResearchDataRepository {
	return &researchDataRepo{db: db}
}

func (r *researchDataRepo) Create(ctx context.Context, entry *model.ResearchData) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *researchDataRepo) GetByID(ctx context.Context, id string) (*model.ResearchData, error) {
	var entry model.ResearchData
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List 租户按录入人归属学院过滤
func (r *researchDataRepo) List(ctx context.Context, filter ResearchDataFilter, scope Scope) ([]model.ResearchData, error) {
	var list []model.ResearchData
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, "user_id"))
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	if filter.UserID != "" {
		db = db.Where("user_id = ?", filter.UserID)
	}
	if filter.DataType != "" {
		db = db.Where("data_type = ?", filter.DataType)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *researchDataRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.ResearchData{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
