package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// 交流模块业务错误
var (
	ErrDiscussionNotFound   = errors.New("讨论不存在")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrTooFewParticipants   = errors.New("会话至少需要两名参与者")
	ErrParticipantNotFound  = errors.New("参与者不存在")
)

// CommunicationService 公告与讨论区业务接口
type CommunicationService interface {
	ListAnnouncements(ctx context.Context, caller authz.Principal) ([]model.Announcement, error)
	CreateAnnouncement(ctx context.Context, caller authz.Principal, req *dto.CreateAnnouncementRequest) (*model.Announcement, error)

	ListDiscussions(ctx context.Context, caller authz.Principal, req *dto.DiscussionListRequest) ([]model.Discussion, error)
	CreateDiscussion(ctx context.Context, caller authz.Principal, req *dto.CreateDiscussionRequest) (*model.Discussion, error)
	DeleteDiscussion(ctx context.Context, caller authz.Principal, id string) error

	ListReplies(ctx context.Context, caller authz.Principal, discussionID string) ([]model.DiscussionReply, error)
	CreateReply(ctx context.Context, caller authz.Principal, discussionID string, req *dto.CreateReplyRequest) (*model.DiscussionReply, error)

	ListConversations(ctx context.Context, caller authz.Principal) ([]model.Conversation, error)
	CreateConversation(ctx context.Context, caller authz.Principal, req *dto.CreateConversationRequest) (*model.Conversation, error)
	ListMessages(ctx context.Context, caller authz.Principal, conversationID string) ([]model.Message, error)
	SendMessage(ctx context.Context, caller authz.Principal, conversationID string, req *dto.SendMessageRequest) (*model.Message, error)
}

type communicationService struct {
	repo   *repository.Repository
	authz  *authz.Authorizer
	logger *zap.Logger
	now    func() time.Time
}

// NewCommunicationService 创建 CommunicationService 实例
func NewCommunicationService(repo *repository.Repository, az *authz.Authorizer, logger *zap.Logger) CommunicationService {
	return &communicationService{repo: repo, authz: az, logger: logger, now: time.Now}
}

// ────────────────────── 公告 ──────────────────────

// ListAnnouncements 超级管理员可见全部；其余用户按角色与学院过滤，均排除已过期公告
func (s *communicationService) ListAnnouncements(ctx context.Context, caller authz.Principal) ([]model.Announcement, error) {
	list, err := s.repo.Communication.ListAnnouncements(ctx, repository.AnnouncementAudience{
		All:       caller.Role == model.RoleSuperAdmin,
		Role:      caller.Role,
		CollegeID: caller.CollegeID,
		Now:       s.now(),
	})
	if err != nil {
		s.logger.Error("查询公告失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

// CreateAnnouncement 非超级管理员只能向本学院发布
func (s *communicationService) CreateAnnouncement(ctx context.Context, caller authz.Principal, req *dto.CreateAnnouncementRequest) (*model.Announcement, error) {
	if !s.authz.Can(caller, authz.ActionAnnouncementCreate, authz.Resource{Type: authz.ResourceAnnouncement}) {
		return nil, ErrForbidden
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, validationError("expires_at 必须晚于当前时间")
	}

	targetColleges := stringArray(req.TargetColleges)
	if caller.Role != model.RoleSuperAdmin {
		if caller.CollegeID == "" {
			return nil, ErrForbidden
		}
		targetColleges = pq.StringArray{caller.CollegeID}
	}

	a := &model.Announcement{
		Title:          req.Title,
		Content:        req.Content,
		Type:           req.Type,
		Priority:       req.Priority,
		CreatedBy:      caller.ID,
		TargetRoles:    stringArray(req.TargetRoles),
		TargetColleges: targetColleges,
		ExpiresAt:      req.ExpiresAt,
	}
	if a.Type == "" {
		a.Type = "general"
	}
	if a.Priority == "" {
		a.Priority = "normal"
	}

	if err := s.repo.Communication.CreateAnnouncement(ctx, a); err != nil {
		s.logger.Error("发布公告失败", zap.Error(err))
		return nil, err
	}
	return a, nil
}

// ────────────────────── 讨论 ──────────────────────

func (s *communicationService) ListDiscussions(ctx context.Context, caller authz.Principal, req *dto.DiscussionListRequest) ([]model.Discussion, error) {
	list, err := s.repo.Communication.ListDiscussions(ctx, repository.DiscussionFilter{
		ProjectID: req.ProjectID,
		Category:  req.Category,
	}, scopeOf(caller))
	if err != nil {
		s.logger.Error("查询讨论失败", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *communicationService) CreateDiscussion(ctx context.Context, caller authz.Principal, req *dto.CreateDiscussionRequest) (*model.Discussion, error) {
	d := &model.Discussion{
		Title:     req.Title,
		Content:   req.Content,
		Category:  req.Category,
		Tags:      stringArray(req.Tags),
		ProjectID: req.ProjectID,
		CreatedBy: caller.ID,
	}
	if err := s.repo.Communication.CreateDiscussion(ctx, d); err != nil {
		s.logger.Error("创建讨论失败", zap.Error(err))
		return nil, err
	}
	return d, nil
}

func (s *communicationService) loadDiscussion(ctx context.Context, caller authz.Principal, id string) (*model.Discussion, string, error) {
	d, err := s.repo.Communication.GetDiscussion(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrDiscussionNotFound
		}
		s.logger.Error("查询讨论失败", zap.String("id", id), zap.Error(err))
		return nil, "", err
	}
	ok, collegeID, err := visibleTo(ctx, s.repo.User, caller, d.CreatedBy)
	if err != nil {
		return nil, "", err
	}
	if !ok {
		return nil, "", ErrDiscussionNotFound
	}
	return d, collegeID, nil
}

func (s *communicationService) DeleteDiscussion(ctx context.Context, caller authz.Principal, id string) error {
	d, collegeID, err := s.loadDiscussion(ctx, caller, id)
	if err != nil {
		return err
	}
	res := authz.Resource{Type: authz.ResourceDiscussion, ID: d.ID, OwnerID: d.CreatedBy, CollegeID: collegeID}
	if !s.authz.Can(caller, authz.ActionDiscussionDelete, res) {
		return ErrForbidden
	}
	if err := s.repo.Communication.DeleteDiscussion(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiscussionNotFound
		}
		s.logger.Error("删除讨论失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── 回复 ──────────────────────

func (s *communicationService) ListReplies(ctx context.Context, caller authz.Principal, discussionID string) ([]model.DiscussionReply, error) {
	if _, _, err := s.loadDiscussion(ctx, caller, discussionID); err != nil {
		return nil, err
	}
	replies, err := s.repo.Communication.ListReplies(ctx, discussionID)
	if err != nil {
		s.logger.Error("查询回复失败", zap.String("discussion_id", discussionID), zap.Error(err))
		return nil, err
	}
	return replies, nil
}

func (s *communicationService) CreateReply(ctx context.Context, caller authz.Principal, discussionID string, req *dto.CreateReplyRequest) (*model.DiscussionReply, error) {
	if _, _, err := s.loadDiscussion(ctx, caller, discussionID); err != nil {
		return nil, err
	}

	reply := &model.DiscussionReply{
		DiscussionID:  discussionID,
		ParentReplyID: req.ParentReplyID,
		Content:       req.Content,
		CreatedBy:     caller.ID,
		Attachments:   stringArray(req.Attachments),
	}
	if err := s.repo.Communication.CreateReply(ctx, reply); err != nil {
		s.logger.Error("创建回复失败", zap.String("discussion_id", discussionID), zap.Error(err))
		return nil, err
	}
	return reply, nil
}

// ────────────────────── 私信会话 ──────────────────────

// ListConversations 只返回调用者参与的会话
func (s *communicationService) ListConversations(ctx context.Context, caller authz.Principal) ([]model.Conversation, error) {
	list, err := s.repo.Communication.ListConversations(ctx, caller.ID)
	if err != nil {
		s.logger.Error("查询会话失败", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

// CreateConversation 调用者自动加入参与者，去重后至少两人
// 非超级管理员只能与本学院成员建立会话
func (s *communicationService) CreateConversation(ctx context.Context, caller authz.Principal, req *dto.CreateConversationRequest) (*model.Conversation, error) {
	participants := pq.StringArray{caller.ID}
	for _, id := range req.ParticipantIDs {
		if !slices.Contains(participants, id) {
			participants = append(participants, id)
		}
	}
	if len(participants) < 2 {
		return nil, ErrTooFewParticipants
	}

	for _, id := range participants[1:] {
		u, err := s.repo.User.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrParticipantNotFound
			}
			s.logger.Error("查询参与者失败", zap.String("user_id", id), zap.Error(err))
			return nil, err
		}
		if caller.Role != model.RoleSuperAdmin && (caller.CollegeID == "" || u.CollegeIDValue() != caller.CollegeID) {
			return nil, ErrParticipantNotFound
		}
	}

	if req.ProjectID != nil {
		if _, err := visibleProject(ctx, s.repo, caller, *req.ProjectID); err != nil {
			return nil, err
		}
	}

	kind := req.Type
	switch {
	case kind != "":
	case req.ProjectID != nil:
		kind = model.ConversationProject
	case len(participants) > 2:
		kind = model.ConversationGroup
	default:
		kind = model.ConversationDirect
	}

	conv := &model.Conversation{
		ParticipantIDs: participants,
		Title:          req.Title,
		Type:           kind,
		ProjectID:      req.ProjectID,
		CreatedBy:      caller.ID,
		LastMessageAt:  s.now(),
	}
	if err := s.repo.Communication.CreateConversation(ctx, conv); err != nil {
		s.logger.Error("创建会话失败", zap.String("user_id", caller.ID), zap.Error(err))
		return nil, err
	}
	return conv, nil
}

// loadConversation 非参与者（包括超级管理员）一律视为会话不存在
func (s *communicationService) loadConversation(ctx context.Context, caller authz.Principal, id string) (*model.Conversation, error) {
	conv, err := s.repo.Communication.GetConversation(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		s.logger.Error("查询会话失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if !conv.HasParticipant(caller.ID) {
		return nil, ErrConversationNotFound
	}
	return conv, nil
}

func (s *communicationService) ListMessages(ctx context.Context, caller authz.Principal, conversationID string) ([]model.Message, error) {
	if _, err := s.loadConversation(ctx, caller, conversationID); err != nil {
		return nil, err
	}
	list, err := s.repo.Communication.ListMessages(ctx, conversationID)
	if err != nil {
		s.logger.Error("查询消息失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}
	return list, nil
}

// SendMessage 写入消息并刷新会话 last_message_at，两步在同一事务中
func (s *communicationService) SendMessage(ctx context.Context, caller authz.Principal, conversationID string, req *dto.SendMessageRequest) (*model.Message, error) {
	if _, err := s.loadConversation(ctx, caller, conversationID); err != nil {
		return nil, err
	}

	msg := &model.Message{
		ConversationID: conversationID,
		SenderID:       caller.ID,
		Content:        req.Content,
		MessageType:    req.MessageType,
		Attachments:    stringArray(req.Attachments),
	}
	if msg.MessageType == "" {
		msg.MessageType = "text"
	}

	sentAt := s.now()
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Communication.CreateMessage(ctx, msg); err != nil {
			return err
		}
		return tx.Communication.TouchConversation(ctx, conversationID, sentAt)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		s.logger.Error("发送消息失败", zap.String("conversation_id", conversationID), zap.Error(err))
		return nil, err
	}
	return msg, nil
}
