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

// ── 通知模块业务错误 ──

var (
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrRecipientNotFound    = errors.New("接收用户不存在")
)

// NotificationService 站内通知业务接口
type NotificationService interface {
	List(ctx context.Context, caller authz.Principal, req *dto.NotificationListRequest) ([]model.Notification, error)
	UnreadCount(ctx context.Context, caller authz.Principal) (int64, error)
	GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Notification, error)
	MarkRead(ctx context.Context, caller authz.Principal, id string) (*model.Notification, error)
	MarkAllRead(ctx context.Context, caller authz.Principal) (int64, error)
	Delete(ctx context.Context, caller authz.Principal, id string) error
	DeleteRead(ctx context.Context, caller authz.Principal) (int64, error)
	Create(ctx context.Context, caller authz.Principal, req *dto.CreateNotificationRequest) (*model.Notification, error)
	// Notify 系统内部发送通知，失败只记录日志
	Notify(ctx context.Context, n *model.Notification)
}

type notificationService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例
func NewNotificationService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, authz: az, logger: logger}
}

func (s *notificationService) List(ctx context.Context, caller authz.Principal, req *dto.NotificationListRequest) ([]model.Notification, error) {
	list, err := s.repo.Notification.ListByUser(ctx, caller.ID, req.UnreadOnly, req.Limit)
	if err != nil {
		s.logger.Error("查询通知失败", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, caller authz.Principal) (int64, error) {
	count, err := s.repo.Notification.CountUnread(ctx, caller.ID)
	if err != nil {
		s.logger.Error("统计未读通知失败", zap.String("user_id", caller.ID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

// load 查询通知并按策略判定调用方是否为接收者
func (s *notificationService) load(ctx context.Context, caller authz.Principal, id string, action authz.Action) (*model.Notification, error) {
	n, err := s.repo.Notification.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		s.logger.Error("查询通知失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !s.authz.Can(caller, action, authz.Resource{
		Type:    authz.ResourceNotification,
		ID:      n.ID,
		OwnerID: n.UserID,
	}) {
		return nil, ErrForbidden
	}
	return n, nil
}

func (s *notificationService) GetByID(ctx context.Context, caller authz.Principal, id string) (*model.Notification, error) {
	return s.load(ctx, caller, id, authz.ActionNotificationUpdate)
}

func (s *notificationService) MarkRead(ctx context.Context, caller authz.Principal, id string) (*model.Notification, error) {
	n, err := s.load(ctx, caller, id, authz.ActionNotificationUpdate)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := s.repo.Notification.MarkRead(ctx, id, now); err != nil {
		s.logger.Error("标记通知已读失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	n.IsRead = true
	n.ReadAt = &now
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, caller authz.Principal) (int64, error) {
	count, err := s.repo.Notification.MarkAllRead(ctx, caller.ID, time.Now())
	if err != nil {
		s.logger.Error("全部标记已读失败", zap.String("user_id", caller.ID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (s *notificationService) Delete(ctx context.Context, caller authz.Principal, id string) error {
	if _, err := s.load(ctx, caller, id, authz.ActionNotificationDelete); err != nil {
		return err
	}
	if err := s.repo.Notification.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		s.logger.Error("删除通知失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

func (s *notificationService) DeleteRead(ctx context.Context, caller authz.Principal) (int64, error) {
	count, err := s.repo.Notification.DeleteRead(ctx, caller.ID)
	if err != nil {
		s.logger.Error("删除已读通知失败", zap.String("user_id", caller.ID), zap.Error(err))
		return 0, err
	}
	return count, nil
}

func (s *notificationService) Create(ctx context.Context, caller authz.Principal, req *dto.CreateNotificationRequest) (*model.Notification, error) {
	recipient, err := s.repo.User.GetByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipientNotFound
		}
		s.logger.Error("查询接收用户失败", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	// 学院管理员只能通知本学院用户
	if caller.Role != model.RoleSuperAdmin && recipient.CollegeIDValue() != caller.CollegeID {
		return nil, ErrForbidden
	}

	n := &model.Notification{
		UserID:      req.UserID,
		Title:       req.Title,
		Message:     req.Message,
		Type:        req.Type,
		RelatedType: req.RelatedType,
		RelatedID:   req.RelatedID,
		ActionURL:   req.ActionURL,
	}
	if n.Type == "" {
		n.Type = "info"
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Error("创建通知失败", zap.Error(err))
		return nil, err
	}
	return n, nil
}

func (s *notificationService) Notify(ctx context.Context, n *model.Notification) {
	if n.Type == "" {
		n.Type = "info"
	}
	if err := s.repo.Notification.Create(ctx, n); err != nil {
		s.logger.Warn("发送系统通知失败",
			zap.String("user_id", n.UserID),
			zap.String("related_type", n.RelatedType),
			zap.Error(err),
		)
	}
}
