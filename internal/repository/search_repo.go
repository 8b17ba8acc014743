package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// SearchLimit 每类实体最多返回条数
const SearchLimit = 10

// SearchRepository 跨实体文本搜索
// 除学院外每类查询都经过 TenantScope
type SearchRepository interface {
	Users(ctx context.Context, q string, scope Scope) ([]model.User, error)
	Projects(ctx context.Context, q string, scope Scope) ([]model.Project, error)
	Colleges(ctx context.Context, q string) ([]model.College, error)
	Discussions(ctx context.Context, q string, scope Scope) ([]model.Discussion, error)
	Submissions(ctx context.Context, q string, scope Scope) ([]model.DataSubmission, error)
}

type searchRepo struct {
	db *gorm.DB
}

// NewSearchRepo 创建 SearchRepository 实例
func NewSearchRepo(db *gorm.DB) SearchRepository {
	return &searchRepo{db: db}
}

func (r *searchRepo) Users(ctx context.Context, q string, scope Scope) ([]model.User, error) {
	var users []model.User
	p := likePattern(q)
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(scope, "id")).
		Where("(name ILIKE ? OR email ILIKE ?)", p, p).
		Order("name ASC").
		Limit(SearchLimit).
		Find(&users).Error
	return users, err
}

func (r *searchRepo) Projects(ctx context.Context, q string, scope Scope) ([]model.Project, error) {
	var projects []model.Project
	p := likePattern(q)
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(scope, "created_by")).
		Where("(name ILIKE ? OR description ILIKE ?)", p, p).
		Order("created_at DESC").
		Limit(SearchLimit).
		Find(&projects).Error
	return projects, err
}

func (r *searchRepo) Colleges(ctx context.Context, q string) ([]model.College, error) {
	var colleges []model.College
	p := likePattern(q)
	err := r.db.WithContext(ctx).
		Where("(name ILIKE ? OR college_code ILIKE ? OR location ILIKE ?)", p, p, p).
		Order("name ASC").
		Limit(SearchLimit).
		Find(&colleges).Error
	return colleges, err
}

func (r *searchRepo) Discussions(ctx context.Context, q string, scope Scope) ([]model.Discussion, error) {
	var list []model.Discussion
	p := likePattern(q)
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(scope, "created_by")).
		Where("(title ILIKE ? OR content ILIKE ?)", p, p).
		Order("created_at DESC").
		Limit(SearchLimit).
		Find(&list).Error
	return list, err
}

func (r *searchRepo) Submissions(ctx context.Context, q string, scope Scope) ([]model.DataSubmission, error) {
	var subs []model.DataSubmission
	p := likePattern(q)
	err := r.db.WithContext(ctx).
		Scopes(TenantScope(scope, "student_id")).
		Where("(data_content::text ILIKE ? OR submission_type ILIKE ?)", p, p).
		Order("created_at DESC").
		Limit(SearchLimit).
		Find(&subs).Error
	return subs, err
}
