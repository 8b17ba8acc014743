package model

import (
	"slices"
	"time"

	"github.com/lib/pq"
)

// 会话类型
const (
	ConversationDirect  = "direct"
	ConversationGroup   = "group"
	ConversationProject = "project"
)

// Announcement 公告表，对应 announcements
// TargetRoles / TargetColleges 为空表示对所有人可见
type Announcement struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title          string         `gorm:"type:varchar(255);not null"                     json:"title"`
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	Type           string         `gorm:"type:varchar(30);not null;default:'general'"    json:"type"`
	Priority       string         `gorm:"type:varchar(20);not null;default:'normal'"     json:"priority"`
	CreatedBy      string         `gorm:"type:uuid;not null"                             json:"created_by"`
	TargetRoles    pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"target_roles"`
	TargetColleges pq.StringArray `gorm:"type:uuid[];not null;default:'{}'"              json:"target_colleges"`
	ExpiresAt      *time.Time     `json:"expires_at,omitempty"`
	BaseModel
}

// TableName 指定表名
func (Announcement) TableName() string { return "announcements" }

// Discussion 讨论帖表，对应 discussions
type Discussion struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Title     string         `gorm:"type:varchar(255);not null"                     json:"title"`
	Content   string         `gorm:"type:text;not null"                             json:"content"`
	Category  string         `gorm:"type:varchar(50)"                               json:"category,omitempty"`
	Tags      pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"tags"`
	ProjectID *string        `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	CreatedBy string         `gorm:"type:uuid;not null"                             json:"created_by"`
	BaseModel
}

// TableName 指定表名
func (Discussion) TableName() string { return "discussions" }

// DiscussionReply 讨论回复表，对应 discussion_replies
type DiscussionReply struct {
	ID            string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DiscussionID  string         `gorm:"type:uuid;not null;index"                       json:"discussion_id"`
	ParentReplyID *string        `gorm:"type:uuid"                                      json:"parent_reply_id,omitempty"`
	Content       string         `gorm:"type:text;not null"                             json:"content"`
	CreatedBy     string         `gorm:"type:uuid;not null"                             json:"created_by"`
	Attachments   pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"attachments"`
	BaseModel
}

// TableName 指定表名
func (DiscussionReply) TableName() string { return "discussion_replies" }

// Conversation 私信会话表，对应 conversations
// 参与者至少两人，LastMessageAt 随新消息更新
type Conversation struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ParticipantIDs pq.StringArray `gorm:"type:uuid[];not null"                           json:"participant_ids"`
	Title          *string        `gorm:"type:varchar(255)"                              json:"title,omitempty"`
	Type           string         `gorm:"type:varchar(20);not null;default:'direct'"     json:"type"`
	ProjectID      *string        `gorm:"type:uuid"                                      json:"project_id,omitempty"`
	CreatedBy      string         `gorm:"type:uuid;not null"                             json:"created_by"`
	LastMessageAt  time.Time      `gorm:"not null"                                       json:"last_message_at"`
	BaseModel
}

// TableName 指定表名
func (Conversation) TableName() string { return "conversations" }

// HasParticipant 判断用户是否为会话成员
func (c *Conversation) HasParticipant(userID string) bool {
	return slices.Contains(c.ParticipantIDs, userID)
}

// Message 会话消息表，对应 messages
type Message struct {
	ID             string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ConversationID string         `gorm:"type:uuid;not null;index"                       json:"conversation_id"`
	SenderID       string         `gorm:"type:uuid;not null"                             json:"sender_id"`
	Content        string         `gorm:"type:text;not null"                             json:"content"`
	MessageType    string         `gorm:"type:varchar(20);not null;default:'text'"       json:"message_type"`
	Attachments    pq.StringArray `gorm:"type:text[];not null;default:'{}'"              json:"attachments"`
	BaseModel
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }
