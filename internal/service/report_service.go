package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ErrReportNotFound 报告不存在
var ErrReportNotFound = errors.New("报告不存在")

// ReportService 研究报告业务接口
type ReportService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.ReportListRequest) ([]model.Report, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Report, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateReportRequest) (*model.Report, error)
	Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateReportRequest) (*model.Report, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
	Publish(ctx context.Context, caller authz.Principal, id string) (*model.Report, error)
	Stats(ctx context.Context, caller authz.Principal, req *dto.ReportStatsRequest) (*dto.ReportStats, error)
}

type reportService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService 创建 ReportService 实例
func NewReportService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) ReportService {
	return &reportService{repo: repo, authz: az, logger: logger, now: time.Now}
}

func (s *reportService) List(ctx context.Context, caller authz.Principal, req *dto.ReportListRequest) ([]model.Report, error) {
	reports, err := s.repo.Report.List(ctx, repository.ReportFilter{
		ProjectID: req.ProjectID,
		UserID:    req.UserID,
		Type:      req.Type,
		Status:    req.Status,
		Limit:     req.Limit,
		Offset:    req.Offset,
	}, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询报告列表失败", zap.Error(err))
		return nil, err
	}
	return reports, nil
}

func (s *reportService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Report, error) {
	report, _, err := s.load(ctx, caller, id)
	return report, err
}

func (s *reportService) load(ctx context.Context, caller authz.Principal, id string) (*model.Report, authz.Resource, error) {
	report, err := s.repo.Report.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Resource{}, ErrReportNotFound
		}
		s.logger.Error("查询报告失败", zap.String("id", id), zap.Error(err))
		return nil, authz.Resource{}, err
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, report.CreatedBy)
	if err != nil {
		return nil, authz.Resource{}, err
	}
	if !ok {
		return nil, authz.Resource{}, ErrReportNotFound
	}
	return report, authz.Resource{
		Type:      authz.ResourceReport,
		ID:        report.ID,
		OwnerID:   report.CreatedBy,
		CollegeID: collegeID,
	}, nil
}

// Create 新建报告默认为草稿；直接以 published 创建时记录发布时间
func (s *reportService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateReportRequest) (*model.Report, error) {
	if req.ProjectID != nil {
		if _, err := visibleProject(ctx, s.repo, caller, *req.ProjectID); err != nil {
			return nil, err
		}
	}
	content, err := jsonObject(req.Content, "content")
	if err != nil {
		return nil, err
	}
	data, err := jsonObject(req.Data, "data")
	if err != nil {
		return nil, err
	}

	report := &model.Report{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		ProjectID:   req.ProjectID,
		Content:     content,
		Data:        data,
		FileURL:     req.FileURL,
		Status:      req.Status,
		CreatedBy:   caller.ID,
	}
	if report.Status == "" {
		report.Status = model.ReportDraft
	}
	if report.Status == model.ReportPublished {
		now := s.now()
		report.PublishedAt = &now
	}

	if err := s.repo.Report.Create(ctx, report); err != nil {
		s.logger.Error("创建报告失败", zap.Error(err))
		return nil, err
	}
	return report, nil
}

func (s *reportService) Update(ctx context.Context, caller authz.Principal, id string, req *dto.UpdateReportRequest) (*model.Report, error) {
	report, res, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionReportUpdate, res) {
		return nil, ErrForbidden
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Type != nil {
		fields["type"] = *req.Type
	}
	if req.FileURL != nil {
		fields["file_url"] = *req.FileURL
	}
	if req.Status != nil {
		fields["status"] = *req.Status
		if *req.Status == model.ReportPublished && report.PublishedAt == nil {
			fields["published_at"] = s.now()
		}
	}
	if len(req.Content) > 0 {
		content, err := jsonObject(req.Content, "content")
		if err != nil {
			return nil, err
		}
		fields["content"] = content
	}
	if len(req.Data) > 0 {
		data, err := jsonObject(req.Data, "data")
		if err != nil {
			return nil, err
		}
		fields["data"] = data
	}
	if len(fields) == 0 {
		return report, nil
	}

	return s.apply(ctx, id, fields)
}

func (s *reportService) apply(ctx context.Context, id string, fields map[string]interface{}) (*model.Report, error) {
	if err := s.repo.Report.Update(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReportNotFound
		}
		s.logger.Error("更新报告失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return s.repo.Report.GetByID(ctx, id)
}

func (s *reportService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	_, res, err := s.load(ctx, caller, id)
	if err != nil {
		return err
	}
	if !s.authz.Can(caller, authz.ActionReportDelete, res) {
		return ErrForbidden
	}
	if err := s.repo.Report.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReportNotFound
		}
		s.logger.Error("删除报告失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// Publish 发布报告，记录发布时间
func (s *reportService) Publish(ctx context.Context, caller authz.Principal, id string) (*model.Report, error) {
	_, res, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.Can(caller, authz.ActionReportPublish, res) {
		return nil, ErrForbidden
	}

	report, err := s.apply(ctx, id, map[string]interface{}{
		"status":       model.ReportPublished,
		"published_at": s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("报告已发布", zap.String("id", id), zap.String("by", caller.ID))
	return report, nil
}

func (s *reportService) Stats(ctx context.Context, caller authz.Principal, req *dto.ReportStatsRequest) (*dto.ReportStats, error) {
	agg, err := s.repo.Report.Stats(ctx, req.ProjectID, scopeOf(caller))
	if err != nil {
		s.logger.Error("统计报告失败", zap.Error(err))
		return nil, err
	}
	return &dto.ReportStats{
		TotalReports:        agg.TotalReports,
		DraftCount:          agg.DraftCount,
		PublishedCount:      agg.PublishedCount,
		ArchivedCount:       agg.ArchivedCount,
		ProjectsWithReports: agg.ProjectsWithReports,
		UniqueAuthors:       agg.UniqueAuthors,
	}, nil
}
