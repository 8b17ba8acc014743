package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// DashboardCounts 仪表盘总数
type DashboardCounts struct {
	Users       int64
	Colleges    int64
	Projects    int64
	Submissions int64
	Sensors     int64
}

// KeyCount 分组计数行
type KeyCount struct {
	Key   string
	Count int64
}

// ActivityRow 近期动态行
type ActivityRow struct {
	Type      string
	Title     string
	UserID    string
	CreatedAt time.Time
}

// MonthCount 月度计数行
type MonthCount struct {
	Month time.Time
	Count int64
}

// AnalyticsRepository 统计查询
type AnalyticsRepository interface {
	Dashboard(ctx context.Context, scope Scope) (*DashboardCounts, error)
	UsersByRole(ctx context.Context, scope Scope) ([]KeyCount, error)
	ProjectsByStatus(ctx context.Context, scope Scope) ([]KeyCount, error)
	RecentActivity(ctx context.Context, scope Scope, limit int) ([]ActivityRow, error)
	MonthlyUserGrowth(ctx context.Context, scope Scope, since time.Time) ([]MonthCount, error)
}

type analyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepo 创建 AnalyticsRepository 实例
func NewAnalyticsRepo(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) Dashboard(ctx context.Context, scope Scope) (*DashboardCounts, error) {
	var c DashboardCounts
	db := r.db.WithContext(ctx)

	if err := db.Model(&model.User{}).Scopes(TenantScope(scope, "id")).Count(&c.Users).Error; err != nil {
		return nil, err
	}

	colleges := db.Model(&model.College{})
	if !scope.All {
		colleges = colleges.Where("id = ?", scope.CollegeID)
	}
	if err := colleges.Count(&c.Colleges).Error; err != nil {
		return nil, err
	}

	if err := db.Model(&model.Project{}).Scopes(TenantScope(scope, "created_by")).Count(&c.Projects).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.DataSubmission{}).Scopes(TenantScope(scope, "student_id")).Count(&c.Submissions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Sensor{}).Scopes(TenantScope(scope, sensorOwnerExpr)).Count(&c.Sensors).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *analyticsRepo) UsersByRole(ctx context.Context, scope Scope) ([]KeyCount, error) {
	var rows []KeyCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Scopes(TenantScope(scope, "id")).
		Select("role AS key, COUNT(*) AS count").
		Group("role").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) ProjectsByStatus(ctx context.Context, scope Scope) ([]KeyCount, error) {
	var rows []KeyCount
	err := r.db.WithContext(ctx).Model(&model.Project{}).
		Scopes(TenantScope(scope, "created_by")).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

// RecentActivity 最近创建的项目与提交，按时间倒序合并
func (r *analyticsRepo) RecentActivity(ctx context.Context, scope Scope, limit int) ([]ActivityRow, error) {
	db := r.db.WithContext(ctx)
	projects := db.Model(&model.Project{}).
		Scopes(TenantScope(scope, "created_by")).
		Select("'project' AS type, name AS title, created_by AS user_id, created_at")
	submissions := db.Model(&model.DataSubmission{}).
		Scopes(TenantScope(scope, "student_id")).
		Select("'submission' AS type, COALESCE(submission_type, 'data') AS title, student_id AS user_id, created_at")

	var rows []ActivityRow
	err := db.Raw("SELECT * FROM (? UNION ALL ?) AS activity ORDER BY created_at DESC LIMIT ?",
		projects, submissions, limit).
		Scan(&rows).Error
	return rows, err
}

func (r *analyticsRepo) MonthlyUserGrowth(ctx context.Context, scope Scope, since time.Time) ([]MonthCount, error) {
	var rows []MonthCount
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Scopes(TenantScope(scope, "id")).
		Select("date_trunc('month', created_at) AS month, COUNT(*) AS count").
		Where("created_at >= ?", since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}
