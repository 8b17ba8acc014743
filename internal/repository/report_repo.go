package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// ReportFilter 报告筛选
type ReportFilter struct {
	ProjectID string
	UserID    string
	Type      string
	Status    string
	Limit     int
	Offset    int
}

// ReportAggregate 报告统计
type ReportAggregate struct {
	TotalReports        int64
	DraftCount          int64
	PublishedCount      int64
	ArchivedCount       int64
	ProjectsWithReports int64
	UniqueAuthors       int64
}

// ReportRepository 报告数据访问接口
type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	GetByID(ctx context.Context, id string) (*model.Report, error)
	List(ctx context.Context, filter ReportFilter, scope Scope) ([]model.Report, error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, projectID string, scope Scope) (*ReportAggregate, error)
}

type reportRepo struct {
	db *gorm.DB
}

// NewReportRepo 创建 ReportRepository 实例
func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Create(ctx context.Context, report *model.Report) error {
	return r.db.WithContext(ctx).Create(report).Error
}

func (r *reportRepo) GetByID(ctx context.Context, id string) (*model.Report, error) {
	var report model.Report
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error; err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *reportRepo) List(ctx context.Context, filter ReportFilter, scope Scope) ([]model.Report, error) {
	var reports []model.Report
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, "created_by"))
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	if filter.UserID != "" {
		db = db.Where("created_by = ?", filter.UserID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	err := db.Order("created_at DESC").
		Offset(filter.Offset).
		Limit(limit).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.Report{}).
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

func (r *reportRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Report{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reportRepo) Stats(ctx context.Context, projectID string, scope Scope) (*ReportAggregate, error) {
	var agg ReportAggregate
	db := r.db.WithContext(ctx).Model(&model.Report{}).
		Scopes(TenantScope(scope, "created_by")).
		Select(`COUNT(*) AS total_reports,
			COUNT(*) FILTER (WHERE status = 'draft') AS draft_count,
			COUNT(*) FILTER (WHERE status = 'published') AS published_count,
			COUNT(*) FILTER (WHERE status = 'archived') AS archived_count,
			COUNT(DISTINCT project_id) AS projects_with_reports,
			COUNT(DISTINCT created_by) AS unique_authors`)
	if projectID != "" {
		db = db.Where("project_id = ?", projectID)
	}
	if err := db.Scan(&agg).Error; err != nil {
		return nil, err
	}
	return &agg, nil
}
