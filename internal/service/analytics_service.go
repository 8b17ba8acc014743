package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	"github.com/theAAcoderr/agrimodelbackend/pkg/cache"
)

const (
	dashboardCachePrefix = "analytics:dashboard:"
	defaultDashboardTTL  = 5 * time.Minute
	recentActivityLimit  = 20
	growthMonths         = 12
)

// AnalyticsService 统计分析业务接口
type AnalyticsService interface {
	Dashboard(ctx context.Context, caller authz.Principal) (*dto.DashboardStats, error)
	UsersByRole(ctx context.Context, caller authz.Principal) ([]dto.GroupCount, error)
	ProjectsByStatus(ctx context.Context, caller authz.Principal) ([]dto.GroupCount, error)
	RecentActivity(ctx context.Context, caller authz.Principal) ([]dto.ActivityItem, error)
	MonthlyGrowth(ctx context.Context, caller authz.Principal) ([]dto.MonthlyCount, error)
}

type analyticsService struct {
	repo   *repository.Repository
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

// NewAnalyticsService 创建 AnalyticsService 实例
func NewAnalyticsService(repo *repository.Repository, c cache.Cache, ttl time.Duration, logger *zap.Logger) AnalyticsService {
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &analyticsService{repo: repo, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

func dashboardCacheKey(caller authz.Principal) string {
	if caller.Role == model.RoleSuperAdmin {
		return dashboardCachePrefix + "all"
	}
	return dashboardCachePrefix + caller.CollegeID
}

// Dashboard 仪表盘总数
// 1. 按学院（超级管理员为 all）读取缓存，命中时标记 cached
// 2. 未命中时查询数据库并回写缓存；缓存读写失败只记录日志
func (s *analyticsService) Dashboard(ctx context.Context, caller authz.Principal) (*dto.DashboardStats, error) {
	key := dashboardCacheKey(caller)

	var cached dto.DashboardStats
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err == nil {
		cached.Cached = true
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("读取仪表盘缓存失败", zap.String("key", key), zap.Error(err))
	}

	counts, err := s.repo.Analytics.Dashboard(ctx, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询仪表盘统计失败", zap.Error(err))
		return nil, err
	}

	stats := &dto.DashboardStats{
		TotalUsers:       counts.Users,
		TotalColleges:    counts.Colleges,
		TotalProjects:    counts.Projects,
		TotalSubmissions: counts.Submissions,
		TotalSensors:     counts.Sensors,
		Timestamp:        s.now(),
	}
	if err := cache.SetJSON(ctx, s.cache, key, stats, s.ttl); err != nil {
		s.logger.Warn("写入仪表盘缓存失败", zap.String("key", key), zap.Error(err))
	}
	return stats, nil
}

func (s *analyticsService) UsersByRole(ctx context.Context, caller authz.Principal) ([]dto.GroupCount, error) {
	rows, err := s.repo.Analytics.UsersByRole(ctx, scopeOf(caller))
	if err != nil {
		s.logger.Error("按角色统计用户失败", zap.Error(err))
		return nil, err
	}
	return toGroupCounts(rows), nil
}

func (s *analyticsService) ProjectsByStatus(ctx context.Context, caller authz.Principal) ([]dto.GroupCount, error) {
	rows, err := s.repo.Analytics.ProjectsByStatus(ctx, scopeOf(caller))
	if err != nil {
		s.logger.Error("按状态统计项目失败", zap.Error(err))
		return nil, err
	}
	return toGroupCounts(rows), nil
}

func (s *analyticsService) RecentActivity(ctx context.Context, caller authz.Principal) ([]dto.ActivityItem, error) {
	rows, err := s.repo.Analytics.RecentActivity(ctx, scopeOf(caller), recentActivityLimit)
	if err != nil {
		s.logger.Error("查询近期动态失败", zap.Error(err))
		return nil, err
	}
	items := make([]dto.ActivityItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, dto.ActivityItem{Type: r.Type, Title: r.Title, UserID: r.UserID, CreatedAt: r.CreatedAt})
	}
	return items, nil
}

// MonthlyGrowth 最近 12 个月的新增用户
func (s *analyticsService) MonthlyGrowth(ctx context.Context, caller authz.Principal) ([]dto.MonthlyCount, error) {
	since := s.now().AddDate(0, -growthMonths, 0)
	rows, err := s.repo.Analytics.MonthlyUserGrowth(ctx, scopeOf(caller), since)
	if err != nil {
		s.logger.Error("查询月度增长失败", zap.Error(err))
		return nil, err
	}
	result := make([]dto.MonthlyCount, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.MonthlyCount{Month: r.Month, Count: r.Count})
	}
	return result, nil
}

func toGroupCounts(rows []repository.KeyCount) []dto.GroupCount {
	result := make([]dto.GroupCount, 0, len(rows))
	for _, r := range rows {
		result = append(result, dto.GroupCount{Key: r.Key, Count: r.Count})
	}
	return result
}
