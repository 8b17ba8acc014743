package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	User          UserRepository
	College       CollegeRepository
	Project       ProjectRepository
	Submission    SubmissionRepository
	Sensor        SensorRepository
	Report        ReportRepository
	Notification  NotificationRepository
	Communication CommunicationRepository
	Model         ModelRepository
	ResearchData  ResearchDataRepository
	Search        SearchRepository
	Analytics     AnalyticsRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:            db,
		User:          NewUserRepo(db),
		College:       NewCollegeRepo(db),
		Project:       NewProjectRepo(db),
		Submission:    NewSubmissionRepo(db),
		Sensor:        NewSensorRepo(db),
		Report:        NewReportRepo(db),
		Notification:  NewNotificationRepo(db),
		Communication: NewCommunicationRepo(db),
		Model:         NewModelRepo(db),
		ResearchData:  NewResearchDataRepo(db),
		Search:        NewSearchRepo(db),
		Analytics:     NewAnalyticsRepo(db),
	}
}

// Transaction 在同一事务中执行 fn，fn 收到绑定到该事务的 Repository
// fn 返回错误时整体回滚
// 未绑定数据库（单元测试中手工组装的聚合）时直接以自身执行
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// Ping 数据库连通性检查
func (r *Repository) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
