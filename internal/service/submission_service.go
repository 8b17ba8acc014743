package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
)

// ── 数据提交模块业务错误 ──

var (
	ErrSubmissionNotFound        = errors.New("数据提交不存在")
	ErrSubmissionNotPending      = errors.New("该提交不是待审核状态")
	ErrSubmissionNotDraft        = errors.New("只有草稿可以提交审核")
	ErrSubmissionLocked          = errors.New("已审核的提交不能修改")
	ErrRejectionReasonRequired   = errors.New("驳回原因不能为空")
	ErrSubmissionStudentNotFound = errors.New("学生不存在")
)

// SubmissionService 数据提交业务接口
type SubmissionService interface {
	SaveDraft(ctx context.Context, caller authz.Principal, req *dto.SaveDraftRequest) (*dto.SaveDraftResponse, error)
	List(ctx context.Context, caller authz.Principal, req *dto.SubmissionListRequest) ([]model.DataSubmission, int64, error)
	ListByProject(ctx context.Context, caller authz.Principal, projectID string) ([]model.DataSubmission, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateSubmissionRequest) (*model.DataSubmission, error)
	Submit(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateSubmissionRequest) (*model.DataSubmission, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
	Approve(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error)
	Reject(ctx context.Context, caller authz.Principal, id string, reason string) (*model.DataSubmission, error)
	Stats(ctx context.Context, caller authz.Principal, req *dto.SubmissionStatsRequest) (*dto.SubmissionStats, error)
}

type submissionService struct {
	repo     *repository.Repository
	authz    *authz.Authorizer
	notifier NotificationService
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(
	repo *repository.Repository,
	az *authz.Authorizer,
	notifier NotificationService,
	m *metrics.Metrics,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		repo:     repo,
		authz:    az,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// resolveStudent 确定提交归属的学生
// 学生只能为自己提交；教职人员代提交时学生必须在其租户范围内
func (s *submissionService) resolveStudent(ctx context.Context, caller authz.Principal, studentID string) (string, error) {
	if studentID == "" || studentID == caller.ID {
		return caller.ID, nil
	}
	if caller.Role == model.RoleStudent {
		return "", ErrForbidden
	}
	if _, err := s.repo.User.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSubmissionStudentNotFound
		}
		return "", err
	}
	ok, _, err := visibleTo(ctx, s.repo.User, caller, studentID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrForbidden
	}
	return studentID, nil
}

// ────────────────────── SaveDraft ──────────────────────

func (s *submissionService) SaveDraft(ctx context.Context, caller authz.Principal, req *dto.SaveDraftRequest) (*dto.SaveDraftResponse, error) {
	studentID, err := s.resolveStudent(ctx, caller, req.StudentID)
	if err != nil {
		return nil, err
	}
	content, err := jsonObject(req.DataContent, "data_content")
	if err != nil {
		return nil, err
	}

	draft := &model.DataSubmission{
		StudentID:      studentID,
		ProjectID:      req.ProjectID,
		DataContent:    content,
		SubmissionType: req.SubmissionType,
		ImageURLs:      pq.StringArray{},
		VideoURLs:      pq.StringArray{},
		FileURLs:       pq.StringArray{},
		AudioURLs:      pq.StringArray{},
	}
	created, err := s.repo.Submission.UpsertDraft(ctx, draft)
	if err != nil {
		s.logger.Error("保存草稿失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	msg := "草稿已更新"
	if created {
		msg = "草稿已保存"
	}
	return &dto.SaveDraftResponse{Message: msg, Created: created, Submission: draft}, nil
}

// ────────────────────── List ──────────────────────

// List 学生只能看到自己的提交，其余角色按租户过滤
func (s *submissionService) List(ctx context.Context, caller authz.Principal, req *dto.SubmissionListRequest) ([]model.DataSubmission, int64, error) {
	filter := repository.SubmissionFilter{
		Status:    req.Status,
		StudentID: req.StudentID,
		ProjectID: req.ProjectID,
	}
	if caller.Role == model.RoleStudent {
		if filter.StudentID != "" && filter.StudentID != caller.ID {
			return nil, 0, ErrForbidden
		}
		filter.StudentID = caller.ID
	}

	subs, total, err := s.repo.Submission.List(ctx, filter, scopeOf(caller), req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("查询数据提交失败", zap.Error(err))
		return nil, 0, err
	}
	return subs, total, nil
}

// ListByProject 项目下的全部提交，学生仅能看到自己的
func (s *submissionService) ListByProject(ctx context.Context, caller authz.Principal, projectID string) ([]model.DataSubmission, error) {
	subs, err := s.repo.Submission.ListByProject(ctx, projectID, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询项目数据提交失败", zap.String("project_id", projectID), zap.Error(err))
		return nil, err
	}
	if caller.Role != model.RoleStudent {
		return subs, nil
	}
	own := make([]model.DataSubmission, 0, len(subs))
	for _, sub := range subs {
		if sub.StudentID == caller.ID {
			own = append(own, sub)
		}
	}
	return own, nil
}

// ────────────────────── GetByID ──────────────────────

func (s *submissionService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error) {
	sub, _, err := s.load(ctx, caller, id)
	return sub, err
}

// load 查询提交并校验可见性，返回学生所属学院
func (s *submissionService) load(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, string, error) {
	sub, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrSubmissionNotFound
		}
		s.logger.Error("查询数据提交失败", zap.String("id", id), zap.Error(err))
		return nil, "", err
	}
	if caller.Role == model.RoleStudent && sub.StudentID != caller.ID {
		return nil, "", ErrSubmissionNotFound
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, sub.StudentID)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrSubmissionNotFound
	}
	return sub, collegeID, nil
}

func submissionResource(sub *model.DataSubmission, collegeID string) authz.Resource {
	return authz.Resource{Type: authz.ResourceSubmission, ID: sub.ID, OwnerID: sub.StudentID, CollegeID: collegeID}
}

// ────────────────────── Create ──────────────────────

func (s *submissionService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateSubmissionRequest) (*model.DataSubmission, error) {
	studentID, err := s.resolveStudent(ctx, caller, req.StudentID)
	if err != nil {
		return nil, err
	}
	content, err := jsonObject(req.DataContent, "data_content")
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &model.DataSubmission{
		StudentID:      studentID,
		ProjectID:      req.ProjectID,
		DataContent:    content,
		ImageURLs:      stringArray(req.ImageURLs),
		VideoURLs:      stringArray(req.VideoURLs),
		FileURLs:       stringArray(req.FileURLs),
		AudioURLs:      stringArray(req.AudioURLs),
		Status:         model.SubmissionPending,
		SubmissionType: req.SubmissionType,
		SubmittedAt:    &now,
	}
	if err := s.repo.Submission.Create(ctx, sub); err != nil {
		s.logger.Error("创建数据提交失败", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}
	return sub, nil
}

func stringArray(in []string) pq.StringArray {
	if in == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(in)
}

// ────────────────────── Submit ──────────────────────

// Submit 草稿提交审核：条件更新 draft → pending
func (s *submissionService) Submit(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error) {
	sub, _, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if sub.StudentID != caller.ID {
		return nil, ErrForbidden
	}

	now := s.now()
	if err := s.repo.Submission.Submit(ctx, id, now); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleStatus) {
			return nil, s.staleError(ctx, id, ErrSubmissionNotDraft)
		}
		s.logger.Error("提交草稿失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	sub.Status = model.SubmissionPending
	sub.SubmittedAt = &now
	return sub, nil
}

// ────────────────────── Update ──────────────────────

// Update 仅草稿或待审核状态可修改，审核状态不能通过此接口变更
func (s *submissionService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateSubmissionRequest) (*model.DataSubmission, error) {
	sub, collegeID, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionSubmissionUpdate, submissionResource(sub, collegeID)) {
		return nil, ErrForbidden
	}
	if sub.Status != model.SubmissionDraft && sub.Status != model.SubmissionPending {
		return nil, statusConflict(ErrSubmissionLocked, sub.Status)
	}

	fields := map[string]interface{}{}
	if len(req.DataContent) > 0 {
		content, err := jsonObject(req.DataContent, "data_content")
		if err != nil {
			return nil, err
		}
		fields["data_content"] = content
	}
	if req.ImageURLs != nil {
		fields["image_urls"] = stringArray(*req.ImageURLs)
	}
	if req.VideoURLs != nil {
		fields["video_urls"] = stringArray(*req.VideoURLs)
	}
	if req.FileURLs != nil {
		fields["file_urls"] = stringArray(*req.FileURLs)
	}
	if req.AudioURLs != nil {
		fields["audio_urls"] = stringArray(*req.AudioURLs)
	}
	if req.QualityScore != nil {
		fields["quality_score"] = *req.QualityScore
	}
	if len(fields) == 0 {
		return sub, nil
	}

	if err := s.repo.Submission.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		s.logger.Error("更新数据提交失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Submission.GetByID(ctx, id)
}

// ────────────────────── Delete ──────────────────────

func (s *submissionService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	sub, collegeID, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionSubmissionDelete, submissionResource(sub, collegeID)) {
		return ErrForbidden
	}
	if err := s.repo.Submission.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		s.logger.Error("删除数据提交失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Approve / Reject ──────────────────────

func (s *submissionService) Approve(ctx context.Context, caller authz.Principal, id string) (*model.DataSubmission, error) {
	return s.review(ctx, caller, id, model.SubmissionApproved, nil)
}

// Reject 驳回原因去除首尾空白后为空时，不触碰任何数据行
func (s *submissionService) Reject(ctx context.Context, caller authz.Principal, id string, reason string) (*model.DataSubmission, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	return s.review(ctx, caller, id, model.SubmissionRejected, &reason)
}

// review 审核提交
// 1. 可见性 + 策略表复核审核人资格
// 2. 单条 UPDATE ... WHERE status = 'pending'，影响行数为 0 时重新读取
// 3. 不存在返回 404，已被审核返回 409 并给出当前状态
func (s *submissionService) review(ctx context.Context, caller authz.Principal, id, toStatus string, reason *string) (*model.DataSubmission, error) {
	sub, collegeID, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionSubmissionReview, submissionResource(sub, collegeID)) {
		return nil, ErrForbidden
	}

	now := s.now()
	if err := s.repo.Submission.Review(ctx, id, toStatus, caller.ID, reason, now); err != nil {
		if errors.Is(err, pkgerrors.ErrStaleStatus) {
			s.metrics.ObserveReview("submission", "conflict")
			return nil, s.staleError(ctx, id, ErrSubmissionNotPending)
		}
		s.logger.Error("审核数据提交失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	s.metrics.ObserveReview("submission", toStatus)

	sub.Status = toStatus
	sub.ReviewedBy = &caller.ID
	sub.ReviewedAt = &now
	sub.RejectionReason = reason

	title, message := "数据提交已通过", "您提交的数据已通过审核"
	if toStatus == model.SubmissionRejected {
		title, message = "数据提交被驳回", "您提交的数据被驳回："+*reason
	}
	s.notifier.Notify(ctx, &model.Notification{
		UserID:      sub.StudentID,
		Title:       title,
		Message:     message,
		Type:        reviewNotificationType(toStatus),
		RelatedType: "submission",
		RelatedID:   &sub.ID,
	})

	return sub, nil
}

// staleError 条件更新未命中后重新读取：不存在返回 404，否则返回带当前状态的冲突
func (s *submissionService) staleError(ctx context.Context, id string, sentinel error) error {
	current, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}
	return statusConflict(sentinel, current.Status)
}

// ────────────────────── Stats ──────────────────────

func (s *submissionService) Stats(ctx context.Context, caller authz.Principal, req *dto.SubmissionStatsRequest) (*dto.SubmissionStats, error) {
	filter := repository.SubmissionFilter{StudentID: req.StudentID, ProjectID: req.ProjectID}
	if caller.Role == model.RoleStudent {
		filter.StudentID = caller.ID
	}

	counts, err := s.repo.Submission.CountByStatus(ctx, filter, scopeOf(caller))
	if err != nil {
		s.logger.Error("统计数据提交失败", zap.Error(err))
		return nil, err
	}

	stats := &dto.SubmissionStats{
		Draft:    counts[model.SubmissionDraft],
		Pending:  counts[model.SubmissionPending],
		Approved: counts[model.SubmissionApproved],
		Rejected: counts[model.SubmissionRejected],
	}
	stats.Total = stats.Draft + stats.Pending + stats.Approved + stats.Rejected
	return stats, nil
}
