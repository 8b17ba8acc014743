package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

// SubmissionFilter 提交列表筛选
type SubmissionFilter struct {
	Status    string
	StudentID string
	ProjectID string
}

// BatchRowError 批量写入中单行失败
type BatchRowError struct {
	Index int
	Err   error
}

// SubmissionRepository 数据提交访问接口
type SubmissionRepository interface {
	Create(ctx context.Context, sub *model.DataSubmission) error
	GetByID(ctx context.Context, id string) (*model.DataSubmission, error)
	List(ctx context.Context, filter SubmissionFilter, scope Scope, offset, limit int) ([]model.DataSubmission, int64, error)
	ListByProject(ctx context.Context, projectID string, scope Scope) ([]model.DataSubmission, error)
	UpsertDraft(ctx context.Context, draft *model.DataSubmission) (created bool, err error)
	Update(ctx context.Context, id string, fields map[string]interface{}) error
	Submit(ctx context.Context, id string, at time.Time) error
	Review(ctx context.Context, id, toStatus, reviewerID string, reason *string, at time.Time) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context, filter SubmissionFilter, scope Scope) (map[string]int64, error)
	CreateBatch(ctx context.Context, subs []*model.DataSubmission) []BatchRowError
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, sub *model.DataSubmission) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.DataSubmission, error) {
	var sub model.DataSubmission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *submissionRepo) filtered(ctx context.Context, filter SubmissionFilter, scope Scope) *gorm.DB {
	db := r.db.WithContext(ctx).Model(&model.DataSubmission{}).
		Scopes(TenantScope(scope, "student_id"))
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.StudentID != "" {
		db = db.Where("student_id = ?", filter.StudentID)
	}
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	return db
}

func (r *submissionRepo) List(ctx context.Context, filter SubmissionFilter, scope Scope, offset, limit int) ([]model.DataSubmission, int64, error) {
	var subs []model.DataSubmission
	var total int64

	db := r.filtered(ctx, filter, scope)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&subs).Error; err != nil {
		return nil, 0, err
	}
	return subs, total, nil
}

func (r *submissionRepo) ListByProject(ctx context.Context, projectID string, scope Scope) ([]model.DataSubmission, error) {
	var subs []model.DataSubmission
	err := r.filtered(ctx, SubmissionFilter{ProjectID: projectID}, scope).
		Order("created_at ASC").
		Find(&subs).Error
	return subs, err
}

// UpsertDraft 按 (student_id, project_id) 保存唯一草稿
// 1. 行锁查找现有草稿，存在则覆盖内容
// 2. 不存在则插入；并发插入撞上唯一索引时回退为更新
func (r *submissionRepo) UpsertDraft(ctx context.Context, draft *model.DataSubmission) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := findDraft(tx, draft.StudentID, draft.ProjectID)
		if err != nil {
			return err
		}
		if existing == nil {
			draft.Status = model.SubmissionDraft
			err := tx.Create(draft).Error
			if err == nil {
				created = true
				return nil
			}
			if pkgerrors.IsUniqueViolation(err) {
				return errDraftRace
			}
			return err
		}
		return overwriteDraft(tx, existing, draft)
	})
	if errors.Is(err, errDraftRace) {
		// 并发插入失败后事务已中止，在新事务中以更新方式重试
		err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			existing, err := findDraft(tx, draft.StudentID, draft.ProjectID)
			if err != nil {
				return err
			}
			if existing == nil {
				return errors.New("草稿并发写入后未找到现有记录")
			}
			return overwriteDraft(tx, existing, draft)
		})
	}
	return created, err
}

var errDraftRace = errors.New("draft insert raced")

func findDraft(tx *gorm.DB, studentID string, projectID *string) (*model.DataSubmission, error) {
	var rows []model.DataSubmission
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("student_id = ? AND project_id IS NOT DISTINCT FROM ? AND status = ?",
			studentID, projectID, model.SubmissionDraft).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func overwriteDraft(tx *gorm.DB, existing, draft *model.DataSubmission) error {
	now := time.Now()
	if err := tx.Model(&model.DataSubmission{}).
		Where("id = ?", existing.ID).
		Updates(map[string]interface{}{
			"data_content":    draft.DataContent,
			"submission_type": draft.SubmissionType,
			"updated_at":      now,
		}).Error; err != nil {
		return err
	}
	existing.DataContent = draft.DataContent
	existing.SubmissionType = draft.SubmissionType
	existing.UpdatedAt = now
	*draft = *existing
	return nil
}

func (r *submissionRepo) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	result := r.db.WithContext(ctx).Model(&model.DataSubmission{}).
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

// Submit 条件更新：draft → pending
func (r *submissionRepo) Submit(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.DataSubmission{}).
		Where("id = ? AND status = ?", id, model.SubmissionDraft).
		Updates(map[string]interface{}{
			"status":       model.SubmissionPending,
			"submitted_at": at,
			"updated_at":   at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleStatus
	}
	return nil
}

// Review 条件更新：仅 pending 可被审核，未命中返回 pkgerrors.ErrStaleStatus
func (r *submissionRepo) Review(ctx context.Context, id, toStatus, reviewerID string, reason *string, at time.Time) error {
	fields := map[string]interface{}{
		"status":      toStatus,
		"reviewed_by": reviewerID,
		"reviewed_at": at,
		"updated_at":  at,
	}
	if reason != nil {
		fields["rejection_reason"] = *reason
	}
	result := r.db.WithContext(ctx).Model(&model.DataSubmission{}).
		Where("id = ? AND status = ?", id, model.SubmissionPending).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrStaleStatus
	}
	return nil
}

func (r *submissionRepo) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.DataSubmission{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

type statusCount struct {
	Status string
	Count  int64
}

func (r *submissionRepo) CountByStatus(ctx context.Context, filter SubmissionFilter, scope Scope) (map[string]int64, error) {
	var rows []statusCount
	err := r.filtered(ctx, filter, scope).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CreateBatch 单事务批量写入，每行使用 SAVEPOINT 隔离
// 失败行回滚到各自保存点并收集错误，其余行照常提交
func (r *submissionRepo) CreateBatch(ctx context.Context, subs []*model.DataSubmission) []BatchRowError {
	var rowErrs []BatchRowError
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, sub := range subs {
			sp := fmt.Sprintf("row_%d", i)
			if err := tx.SavePoint(sp).Error; err != nil {
				return err
			}
			if err := tx.Create(sub).Error; err != nil {
				rowErrs = append(rowErrs, BatchRowError{Index: i, Err: err})
				if rbErr := tx.RollbackTo(sp).Error; rbErr != nil {
					return rbErr
				}
			}
		}
		return nil
	})
	if err != nil {
		// 事务级失败：所有尚未记录的行都视为失败
		failed := make(map[int]bool, len(rowErrs))
		for _, e := range rowErrs {
			failed[e.Index] = true
		}
		for i := range subs {
			if !failed[i] {
				rowErrs = append(rowErrs, BatchRowError{Index: i, Err: err})
			}
		}
	}
	return rowErrs
}
