package service

import (
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	"github.com/theAAcoderr/agrimodelbackend/pkg/cache"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/storage"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth          AuthService
	User          UserService
	College       CollegeService
	Project       ProjectService
	Submission    SubmissionService
	Sensor        SensorService
	Report        ReportService
	Notification  NotificationService
	Communication CommunicationService
	Model         ModelService
	ResearchData  ResearchDataService
	Search        SearchService
	Upload        UploadService
	Analytics     AnalyticsService
	Batch         BatchService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	az *authz.Authorizer,
	blob storage.BlobStore,
	c cache.Cache,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	notifier := NewNotificationService(repo, az, logger)

	return &Service{
		Auth:          NewAuthService(cfg, repo, jwtMgr, logger),
		User:          NewUserService(repo, az, notifier, m, logger),
		College:       NewCollegeService(repo, az, m, logger),
		Project:       NewProjectService(repo, az, logger),
		Submission:    NewSubmissionService(repo, az, notifier, m, logger),
		Sensor:        NewSensorService(repo, az, logger),
		Report:        NewReportService(repo, az, logger),
		Notification:  notifier,
		Communication: NewCommunicationService(repo, az, logger),
		Model:         NewModelService(repo, az, logger),
		ResearchData:  NewResearchDataService(repo, az, logger),
		Search:        NewSearchService(repo, logger),
		Upload:        NewUploadService(&cfg.Storage, blob, m, logger),
		Analytics:     NewAnalyticsService(repo, c, cfg.Cache.DefaultTTL, logger),
		Batch:         NewBatchService(repo, logger),
	}
}
