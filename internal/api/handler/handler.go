package handler

import "github.com/theAAcoderr/agrimodelbackend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth          *AuthHandler
	User          *UserHandler
	College       *CollegeHandler
	Project       *ProjectHandler
	Submission    *SubmissionHandler
	Sensor        *SensorHandler
	Report        *ReportHandler
	Notification  *NotificationHandler
	Communication *CommunicationHandler
	Model         *ModelHandler
	ResearchData  *ResearchDataHandler
	Search        *SearchHandler
	Upload        *UploadHandler
	Analytics     *AnalyticsHandler
	Batch         *BatchHandler
	Health        *HealthHandler
}

// NewHandler 创建 Handler 聚合
// production 为 true 时 500 响应不携带错误详情
func NewHandler(svc *service.Service, health *HealthHandler, production bool) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth, production),
		User:          NewUserHandler(svc.User, production),
		College:       NewCollegeHandler(svc.College, production),
		Project:       NewProjectHandler(svc.Project, production),
		Submission:    NewSubmissionHandler(svc.Submission, production),
		Sensor:        NewSensorHandler(svc.Sensor, production),
		Report:        NewReportHandler(svc.Report, production),
		Notification:  NewNotificationHandler(svc.Notification, production),
		Communication: NewCommunicationHandler(svc.Communication, production),
		Model:         NewModelHandler(svc.Model, production),
		ResearchData:  NewResearchDataHandler(svc.ResearchData, production),
		Search:        NewSearchHandler(svc.Search, production),
		Upload:        NewUploadHandler(svc.Upload, production),
		Analytics:     NewAnalyticsHandler(svc.Analytics, production),
		Batch:         NewBatchHandler(svc.Batch, production),
		Health:        health,
	}
}
