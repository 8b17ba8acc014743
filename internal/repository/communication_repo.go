package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// AnnouncementAudience 公告可见范围
// All 为 true 时不按角色/学院过滤（super_admin）
type AnnouncementAudience struct {
	All       bool
	Role      string
	CollegeID string
	Now       time.Time
}

// DiscussionFilter 讨论筛选
type DiscussionFilter struct {
	ProjectID string
	Category  string
}

// CommunicationRepository 公告与讨论区数据访问接口
type CommunicationRepository interface {
	CreateAnnouncement(ctx context.Context, a *model.Announcement) error
	ListAnnouncements(ctx context.Context, audience AnnouncementAudience) ([]model.Announcement, error)

	CreateDiscussion(ctx context.Context, d *model.Discussion) error
	GetDiscussion(ctx context.Context, id string) (*model.Discussion, error)
	ListDiscussions(ctx context.Context, filter DiscussionFilter, scope Scope) ([]model.Discussion, error)
	DeleteDiscussion(ctx context.Context, id string) error

	CreateReply(ctx context.Context, reply *model.DiscussionReply) error
	ListReplies(ctx context.Context, discussionID string) ([]model.DiscussionReply, error)

	CreateConversation(ctx context.Context, c *model.Conversation) error
	GetConversation(ctx context.Context, id string) (*model.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]model.Conversation, error)
	TouchConversation(ctx context.Context, id string, at time.Time) error

	CreateMessage(ctx context.Context, m *model.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]model.Message, error)
}

type communicationRepo struct {
	db *gorm.DB
}

// NewCommunicationRepo 创建 CommunicationRepository 实例
func NewCommunicationRepo(db *gorm.DB) CommunicationRepository {
	return &communicationRepo{db: db}
}

// ── 公告 ──

func (r *communicationRepo) CreateAnnouncement(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListAnnouncements 未过期且目标角色/学院包含调用者（或目标为空）的公告
func (r *communicationRepo) ListAnnouncements(ctx context.Context, audience AnnouncementAudience) ([]model.Announcement, error) {
	var list []model.Announcement
	db := r.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", audience.Now)
	if !audience.All {
		db = db.Where("(cardinality(target_roles) = 0 OR ? = ANY(target_roles))", audience.Role)
		if audience.CollegeID != "" {
			db = db.Where("(cardinality(target_colleges) = 0 OR ?::uuid = ANY(target_colleges))", audience.CollegeID)
		} else {
			db = db.Where("cardinality(target_colleges) = 0")
		}
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

// ── 讨论 ──

func (r *communicationRepo) CreateDiscussion(ctx context.Context, d *model.Discussion) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *communicationRepo) GetDiscussion(ctx context.Context, id string) (*model.Discussion, error) {
	var d model.Discussion
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *communicationRepo) ListDiscussions(ctx context.Context, filter DiscussionFilter, scope Scope) ([]model.Discussion, error) {
	var list []model.Discussion
	db := r.db.WithContext(ctx).Scopes(TenantScope(scope, "created_by"))
	if filter.ProjectID != "" {
		db = db.Where("project_id = ?", filter.ProjectID)
	}
	if filter.Category != "" {
		db = db.Where("category = ?", filter.Category)
	}
	err := db.Order("created_at DESC").Find(&list).Error
	return list, err
}

func (r *communicationRepo) DeleteDiscussion(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Discussion{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ── 回复 ──

func (r *communicationRepo) CreateReply(ctx context.Context, reply *model.DiscussionReply) error {
	return r.db.WithContext(ctx).Create(reply).Error
}

func (r *communicationRepo) ListReplies(ctx context.Context, discussionID string) ([]model.DiscussionReply, error) {
	var list []model.DiscussionReply
	err := r.db.WithContext(ctx).
		Where("discussion_id = ?", discussionID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}

// ── 私信 ──

func (r *communicationRepo) CreateConversation(ctx context.Context, c *model.Conversation) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *communicationRepo) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var c model.Conversation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ListConversations 用户参与的会话，最近有消息的在前
func (r *communicationRepo) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	var list []model.Conversation
	err := r.db.WithContext(ctx).
		Where("?::uuid = ANY(participant_ids)", userID).
		Order("last_message_at DESC").
		Find(&list).Error
	return list, err
}

// TouchConversation 刷新会话的最后消息时间
func (r *communicationRepo) TouchConversation(ctx context.Context, id string, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&model.Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_message_at": at, "updated_at": at})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *communicationRepo) CreateMessage(ctx context.Context, m *model.Message) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *communicationRepo) ListMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	var list []model.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&list).Error
	return list, err
}
