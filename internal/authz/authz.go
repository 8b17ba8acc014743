package authz

import (
	_ "embed"
	"fmt"

	"github.com/cedar-policy/cedar-go"
	"go.uber.org/zap"
)

//go:embed policies.cedar
var policiesContent []byte

// Action 受策略表控制的操作
type Action string

const (
	ActionCollegeUpdate  Action = "college:update"
	ActionCollegeDelete  Action = "college:delete"
	ActionCollegeApprove Action = "college:approve"
	ActionCollegeReject  Action = "college:reject"

	ActionUserUpdate  Action = "user:update"
	ActionUserDelete  Action = "user:delete"
	ActionUserApprove Action = "user:approve"
	ActionUserReject  Action = "user:reject"

	ActionProjectUpdate Action = "project:update"
	ActionProjectDelete Action = "project:delete"

	ActionReportUpdate  Action = "report:update"
	ActionReportDelete  Action = "report:delete"
	ActionReportPublish Action = "report:publish"

	ActionSubmissionUpdate Action = "submission:update"
	ActionSubmissionDelete Action = "submission:delete"
	ActionSubmissionReview Action = "submission:review"

	ActionSensorUpdate  Action = "sensor:update"
	ActionSensorDelete  Action = "sensor:delete"
	ActionReadingUpdate Action = "reading:update"
	ActionReadingDelete Action = "reading:delete"

	ActionDiscussionDelete   Action = "discussion:delete"
	ActionAnnouncementCreate Action = "announcement:create"

	ActionNotificationUpdate Action = "notification:update"
	ActionNotificationDelete Action = "notification:delete"

	ActionModelUpdate        Action = "ml_model:update"
	ActionModelDelete        Action = "ml_model:delete"
	ActionResearchDataDelete Action = "research_data:delete"
)

// 资源类型
const (
	ResourceCollege      = "College"
	ResourceUser         = "User"
	ResourceProject      = "Project"
	ResourceReport       = "Report"
	ResourceSubmission   = "DataSubmission"
	ResourceSensor       = "Sensor"
	ResourceReading      = "SensorReading"
	ResourceDiscussion   = "Discussion"
	ResourceAnnouncement = "Announcement"
	ResourceNotification = "Notification"
	ResourceModel        = "MLModel"
	ResourceResearchData = "ResearchData"
)

// Principal 已认证的调用方
type Principal struct {
	ID        string
	Role      string
	CollegeID string
}

// Resource 被操作的资源
// OwnerID: 创建者/归属用户；对 User 资源为其自身 ID
// Role: 仅 User 资源使用，表示目标用户角色
type Resource struct {
	Type      string
	ID        string
	OwnerID   string
	CollegeID string
	Role      string
}

// Decision 授权结果
type Decision struct {
	Allowed bool
	Reasons []string
}

// Authorizer 基于 Cedar 策略表的统一授权判定
type Authorizer struct {
	policies *cedar.PolicySet
	logger   *zap.Logger
}

// NewAuthorizer 使用内嵌策略创建授权器
func NewAuthorizer(logger *zap.Logger) (*Authorizer, error) {
	return NewAuthorizerFromBytes(policiesContent, logger)
}

// NewAuthorizerFromBytes 使用给定策略文本创建授权器
func NewAuthorizerFromBytes(content []byte, logger *zap.Logger) (*Authorizer, error) {
	ps, err := cedar.NewPolicySetFromBytes("policies.cedar", content)
	if err != nil {
		return nil, fmt.Errorf("解析授权策略失败: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authorizer{policies: ps, logger: logger}, nil
}

// Can 判定 principal 能否对 resource 执行 action
func (a *Authorizer) Can(p Principal, action Action, r Resource) bool {
	return a.Decide(p, action, r).Allowed
}

// Decide 判定并返回命中的策略 ID
func (a *Authorizer) Decide(p Principal, action Action, r Resource) Decision {
	principalUID := cedar.NewEntityUID("Principal", cedar.String(p.ID))
	resourceType := r.Type
	if resourceType == "" {
		resourceType = "Resource"
	}
	resourceUID := cedar.NewEntityUID(cedar.EntityType(resourceType), cedar.String(r.ID))

	entities := cedar.EntityMap{
		principalUID: cedar.Entity{
			UID:     principalUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"id":         cedar.String(p.ID),
				"role":       cedar.String(p.Role),
				"college_id": cedar.String(p.CollegeID),
			}),
		},
		resourceUID: cedar.Entity{
			UID:     resourceUID,
			Parents: cedar.NewEntityUIDSet(),
			Attributes: cedar.NewRecord(cedar.RecordMap{
				"owner_id":   cedar.String(r.OwnerID),
				"college_id": cedar.String(r.CollegeID),
				"role":       cedar.String(r.Role),
			}),
		},
	}

	req := cedar.Request{
		Principal: principalUID,
		Action:    cedar.NewEntityUID("Action", cedar.String(action)),
		Resource:  resourceUID,
		Context:   cedar.NewRecord(cedar.RecordMap{}),
	}

	decision, diag := cedar.Authorize(a.policies, entities, req)

	reasons := make([]string, 0, len(diag.Reasons))
	for _, reason := range diag.Reasons {
		reasons = append(reasons, string(reason.PolicyID))
	}
	for _, e := range diag.Errors {
		a.logger.Error("授权策略求值错误",
			zap.String("policy", string(e.PolicyID)),
			zap.String("error", e.Message),
		)
	}

	result := Decision{Allowed: decision == cedar.Allow, Reasons: reasons}

	a.logger.Debug("授权判定",
		zap.String("principal", p.ID),
		zap.String("role", p.Role),
		zap.String("action", string(action)),
		zap.String("resource_type", r.Type),
		zap.String("resource_id", r.ID),
		zap.Bool("allowed", result.Allowed),
		zap.Strings("reasons", reasons),
	)

	return result
}

// PolicyCount 已加载策略数
func (a *Authorizer) PolicyCount() int {
	count := 0
	for range a.policies.All() {
		count++
	}
	return count
}
