package service

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) add(u *model.User) *model.User {
	if u.ID == "" {
		m.seq++
		u.ID = fmt.Sprintf("user-%d", m.seq)
	}
	if u.Status == "" {
		u.Status = model.StatusApproved
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, user.Email) {
			return fmt.Errorf("duplicate email: %s", user.Email)
		}
	}
	m.add(user)
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := m.GetByEmail(ctx, email)
	return err == nil, nil
}

func (m *mockUserRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, u := range m.users {
		if u.Role == role {
			n++
		}
	}
	return n, nil
}

func (m *mockUserRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	u, ok := m.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			u.Name = v.(string)
		case "role":
			u.Role = v.(string)
		case "is_active":
			u.IsActive = v.(bool)
		case "department":
			u.Department = v.(string)
		case "phone":
			u.Phone = v.(string)
		case "bio":
			u.Bio = v.(string)
		case "profile_image_url":
			u.ProfileImage = v.(string)
		}
	}
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(_ context.Context, id string, at time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id, hash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = hash
		return nil
	}
	return gorm.ErrRecordNotFound
}

// Review 与真实实现一致：仅 pending 行会被更新
func (m *mockUserRepo) Review(_ context.Context, id, toStatus, reviewerID string, at time.Time) error {
	u, ok := m.users[id]
	if !ok || u.Status != model.StatusPending {
		return pkgerrors.ErrStaleStatus
	}
	u.Status = toStatus
	u.ReviewedBy = &reviewerID
	u.ReviewedAt = &at
	return nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Status != "" && u.Status != filter.Status {
			continue
		}
		if filter.CollegeID != "" && u.CollegeIDValue() != filter.CollegeID {
			continue
		}
		all = append(all, *u)
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListPending(_ context.Context, filter repository.PendingFilter) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Status != model.StatusPending {
			continue
		}
		if filter.CollegeID != "" && u.CollegeIDValue() != filter.CollegeID {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		excluded := false
		for _, r := range filter.ExcludeRoles {
			if u.Role == r {
				excluded = true
			}
		}
		if !excluded {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListByCollege(_ context.Context, collegeID string, approvedOnly bool) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.CollegeIDValue() != collegeID {
			continue
		}
		if approvedOnly && (u.Status != model.StatusApproved || !u.IsActive) {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUserRepo) ListByDepartment(_ context.Context, department string, scope repository.Scope) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Department != department {
			continue
		}
		if !scope.All && (scope.CollegeID == "" || u.CollegeIDValue() != scope.CollegeID) {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

// ── Mock CollegeRepository ──

type mockCollegeRepo struct {
	colleges map[string]*model.College
	seq      int
	failNext error
	// codeConflicts 前 N 次写入模拟学院编码唯一约束冲突
	codeConflicts int
	triedCodes    []string
	// deleteErr 模拟删除时的数据库错误（如外键约束）
	deleteErr error
}

func newMockCollegeRepo() *mockCollegeRepo {
	return &mockCollegeRepo{colleges: make(map[string]*model.College)}
}

func (m *mockCollegeRepo) Create(_ context.Context, c *model.College) error {
	m.triedCodes = append(m.triedCodes, c.CollegeCode)
	if m.codeConflicts > 0 {
		m.codeConflicts--
		return &pgconn.PgError{Code: "23505", ConstraintName: "colleges_college_code_key"}
	}
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	if c.ID == "" {
		m.seq++
		c.ID = fmt.Sprintf("college-%d", m.seq)
	}
	m.colleges[c.ID] = c
	return nil
}

func (m *mockCollegeRepo) GetByID(_ context.Context, id string) (*model.College, error) {
	if c, ok := m.colleges[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCollegeRepo) List(_ context.Context, status string) ([]model.College, error) {
	var result []model.College
	for _, c := range m.colleges {
		if status == "" || c.Status == status {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCollegeRepo) ListApproved(ctx context.Context) ([]model.College, error) {
	return m.List(ctx, model.StatusApproved)
}

func (m *mockCollegeRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	c, ok := m.colleges[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["name"]; ok {
		c.Name = v.(string)
	}
	if v, ok := fields["address"]; ok {
		c.Address = v.(string)
	}
	return nil
}

func (m *mockCollegeRepo) Review(_ context.Context, id, toStatus, reviewerID string, at time.Time) error {
	c, ok := m.colleges[id]
	if !ok || c.Status != model.StatusPending {
		return pkgerrors.ErrStaleStatus
	}
	c.Status = toStatus
	c.ReviewedBy = &reviewerID
	c.ReviewedAt = &at
	return nil
}

func (m *mockCollegeRepo) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.colleges[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.colleges, id)
	return nil
}

// ── Mock ProjectRepository ──

type mockProjectRepo struct {
	projects map[string]*model.Project
	seq      int
}

func newMockProjectRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, p *model.Project) error {
	if p.ID == "" {
		m.seq++
		p.ID = fmt.Sprintf("project-%d", m.seq)
	}
	m.projects[p.ID] = p
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	if p, ok := m.projects[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProjectRepo) List(_ context.Context, _ repository.ProjectFilter, _ repository.Scope) ([]model.Project, error) {
	var result []model.Project
	for _, p := range m.projects {
		result = append(result, *p)
	}
	return result, nil
}

func (m *mockProjectRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	p, ok := m.projects[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			p.Name = v.(string)
		case "status":
			p.Status = v.(string)
		case "description":
			p.Description = v.(string)
		case "start_date":
			t := v.(time.Time)
			p.StartDate = &t
		case "end_date":
			t := v.(time.Time)
			p.EndDate = &t
		case "team_members":
			p.TeamMembers = v.(pq.StringArray)
		}
	}
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.projects, id)
	return nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	mu      sync.Mutex
	subs    map[string]*model.DataSubmission
	seq     int
	batches [][]*model.DataSubmission
	// failRows 批量写入时按下标模拟失败
	failRows map[int]error
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{subs: make(map[string]*model.DataSubmission)}
}

func (m *mockSubmissionRepo) insert(sub *model.DataSubmission) {
	if sub.ID == "" {
		m.seq++
		sub.ID = fmt.Sprintf("sub-%d", m.seq)
	}
	sub.CreatedAt = time.Now()
	m.subs[sub.ID] = sub
}

func (m *mockSubmissionRepo) Create(_ context.Context, sub *model.DataSubmission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insert(sub)
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.DataSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.subs[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) List(_ context.Context, filter repository.SubmissionFilter, _ repository.Scope, offset, limit int) ([]model.DataSubmission, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []model.DataSubmission
	for _, s := range m.subs {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		all = append(all, *s)
	}
	return all, int64(len(all)), nil
}

func (m *mockSubmissionRepo) ListByProject(_ context.Context, projectID string, _ repository.Scope) ([]model.DataSubmission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DataSubmission
	for _, s := range m.subs {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubmissionRepo) UpsertDraft(_ context.Context, draft *model.DataSubmission) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.subs {
		if s.Status == model.SubmissionDraft && s.StudentID == draft.StudentID && samePtr(s.ProjectID, draft.ProjectID) {
			s.DataContent = draft.DataContent
			s.SubmissionType = draft.SubmissionType
			*draft = *s
			return false, nil
		}
	}
	draft.Status = model.SubmissionDraft
	m.insert(draft)
	return true, nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (m *mockSubmissionRepo) Update(_ context.Context, id string, _ map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *mockSubmissionRepo) Submit(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Status != model.SubmissionDraft {
		return pkgerrors.ErrStaleStatus
	}
	s.Status = model.SubmissionPending
	s.SubmittedAt = &at
	return nil
}

// Review 单条条件更新：并发调用时只有一次能命中 pending
func (m *mockSubmissionRepo) Review(_ context.Context, id, toStatus, reviewerID string, reason *string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.subs[id]
	if !ok || s.Status != model.SubmissionPending {
		return pkgerrors.ErrStaleStatus
	}
	s.Status = toStatus
	s.ReviewedBy = &reviewerID
	s.ReviewedAt = &at
	s.RejectionReason = reason
	return nil
}

func (m *mockSubmissionRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.subs, id)
	return nil
}

func (m *mockSubmissionRepo) CountByStatus(_ context.Context, filter repository.SubmissionFilter, _ repository.Scope) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[string]int64{}
	for _, s := range m.subs {
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		counts[s.Status]++
	}
	return counts, nil
}

func (m *mockSubmissionRepo) CreateBatch(_ context.Context, subs []*model.DataSubmission) []repository.BatchRowError {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, subs)
	var errs []repository.BatchRowError
	for i, sub := range subs {
		if err, ok := m.failRows[i]; ok {
			errs = append(errs, repository.BatchRowError{Index: i, Err: err})
			continue
		}
		m.insert(sub)
	}
	return errs
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications map[string]*model.Notification
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{notifications: make(map[string]*model.Notification)}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.ID == "" {
		m.seq++
		n.ID = fmt.Sprintf("notification-%d", m.seq)
	}
	m.notifications[n.ID] = n
	return nil
}

func (m *mockNotificationRepo) GetByID(_ context.Context, id string) (*model.Notification, error) {
	if n, ok := m.notifications[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, _ int) ([]model.Notification, error) {
	var result []model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, *n)
		}
	}
	return result, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, id string, at time.Time) error {
	n, ok := m.notifications[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	n.IsRead = true
	n.ReadAt = &at
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string, at time.Time) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.notifications[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.notifications, id)
	return nil
}

func (m *mockNotificationRepo) DeleteRead(_ context.Context, userID string) (int64, error) {
	var count int64
	for id, n := range m.notifications {
		if n.UserID == userID && n.IsRead {
			delete(m.notifications, id)
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) forUser(userID string) []*model.Notification {
	var result []*model.Notification
	for _, n := range m.notifications {
		if n.UserID == userID {
			result = append(result, n)
		}
	}
	return result
}

// ── Mock SensorRepository ──

type mockSensorRepo struct {
	sensors  map[string]*model.Sensor
	readings map[string]*model.SensorReading
	projects *mockProjectRepo
	seq      int
}

func newMockSensorRepo(projects *mockProjectRepo) *mockSensorRepo {
	return &mockSensorRepo{
		sensors:  make(map[string]*model.Sensor),
		readings: make(map[string]*model.SensorReading),
		projects: projects,
	}
}

func (m *mockSensorRepo) Create(_ context.Context, sensor *model.Sensor) error {
	if sensor.ID == "" {
		m.seq++
		sensor.ID = fmt.Sprintf("sensor-%d", m.seq)
	}
	m.sensors[sensor.ID] = sensor
	return nil
}

// GetByID 与真实实现一致：预加载所属项目
func (m *mockSensorRepo) GetByID(_ context.Context, id string) (*model.Sensor, error) {
	sensor, ok := m.sensors[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *sensor
	if p, ok := m.projects.projects[sensor.ProjectID]; ok {
		pc := *p
		cp.Project = &pc
	}
	return &cp, nil
}

func (m *mockSensorRepo) List(_ context.Context, filter repository.SensorFilter, _ repository.Scope) ([]model.Sensor, error) {
	var result []model.Sensor
	for _, s := range m.sensors {
		if filter.ProjectID != "" && s.ProjectID != filter.ProjectID {
			continue
		}
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSensorRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	sensor, ok := m.sensors[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "name":
			sensor.Name = v.(string)
		case "status":
			sensor.Status = v.(string)
		case "last_reading":
			t := v.(time.Time)
			sensor.LastReading = &t
		}
	}
	return nil
}

func (m *mockSensorRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.sensors[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.sensors, id)
	return nil
}

func (m *mockSensorRepo) CreateReading(_ context.Context, reading *model.SensorReading) error {
	m.seq++
	reading.ID = fmt.Sprintf("reading-%d", m.seq)
	m.readings[reading.ID] = reading
	return nil
}

func (m *mockSensorRepo) GetReading(_ context.Context, id string) (*model.SensorReading, error) {
	if r, ok := m.readings[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSensorRepo) ListReadings(_ context.Context, filter repository.ReadingFilter, _ repository.Scope) ([]model.SensorReading, error) {
	var result []model.SensorReading
	for _, r := range m.readings {
		if filter.SensorID != "" && r.SensorID != filter.SensorID {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockSensorRepo) UpdateReading(_ context.Context, id string, _ map[string]interface{}) error {
	if _, ok := m.readings[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (m *mockSensorRepo) DeleteReading(_ context.Context, id string) error {
	if _, ok := m.readings[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.readings, id)
	return nil
}

func (m *mockSensorRepo) ReadingStats(_ context.Context, sensorID string) (*repository.ReadingAggregate, error) {
	agg := &repository.ReadingAggregate{}
	for _, r := range m.readings {
		if r.SensorID == sensorID {
			agg.TotalReadings++
		}
	}
	return agg, nil
}

// ── Mock ReportRepository ──

type mockReportRepo struct {
	reports map[string]*model.Report
	seq     int
}

func newMockReportRepo() *mockReportRepo {
	return &mockReportRepo{reports: make(map[string]*model.Report)}
}

func (m *mockReportRepo) Create(_ context.Context, report *model.Report) error {
	if report.ID == "" {
		m.seq++
		report.ID = fmt.Sprintf("report-%d", m.seq)
	}
	m.reports[report.ID] = report
	return nil
}

func (m *mockReportRepo) GetByID(_ context.Context, id string) (*model.Report, error) {
	if r, ok := m.reports[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockReportRepo) List(_ context.Context, filter repository.ReportFilter, _ repository.Scope) ([]model.Report, error) {
	var result []model.Report
	for _, r := range m.reports {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

func (m *mockReportRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	r, ok := m.reports[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range fields {
		switch k {
		case "title":
			r.Title = v.(string)
		case "status":
			r.Status = v.(string)
		case "published_at":
			t := v.(time.Time)
			r.PublishedAt = &t
		}
	}
	return nil
}

func (m *mockReportRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.reports[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *mockReportRepo) Stats(_ context.Context, _ string, _ repository.Scope) (*repository.ReportAggregate, error) {
	agg := &repository.ReportAggregate{TotalReports: int64(len(m.reports))}
	for _, r := range m.reports {
		if r.Status == model.ReportPublished {
			agg.PublishedCount++
		}
	}
	return agg, nil
}

// ── Mock CommunicationRepository ──

type mockCommunicationRepo struct {
	announcements []*model.Announcement
	discussions   map[string]*model.Discussion
	replies       []*model.DiscussionReply
	conversations map[string]*model.Conversation
	messages      []*model.Message
	seq           int
	// failMessage 模拟消息写入失败
	failMessage error
}

func newMockCommunicationRepo() *mockCommunicationRepo {
	return &mockCommunicationRepo{
		discussions:   make(map[string]*model.Discussion),
		conversations: make(map[string]*model.Conversation),
	}
}

func (m *mockCommunicationRepo) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func (m *mockCommunicationRepo) CreateAnnouncement(_ context.Context, a *model.Announcement) error {
	a.ID = m.nextID("announcement")
	m.announcements = append(m.announcements, a)
	return nil
}

// ListAnnouncements 仅按过期时间与目标角色过滤
func (m *mockCommunicationRepo) ListAnnouncements(_ context.Context, audience repository.AnnouncementAudience) ([]model.Announcement, error) {
	var result []model.Announcement
	for _, a := range m.announcements {
		if a.ExpiresAt != nil && !a.ExpiresAt.After(audience.Now) {
			continue
		}
		if !audience.All && len(a.TargetRoles) > 0 && !slices.Contains(a.TargetRoles, audience.Role) {
			continue
		}
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockCommunicationRepo) CreateDiscussion(_ context.Context, d *model.Discussion) error {
	d.ID = m.nextID("discussion")
	m.discussions[d.ID] = d
	return nil
}

func (m *mockCommunicationRepo) GetDiscussion(_ context.Context, id string) (*model.Discussion, error) {
	if d, ok := m.discussions[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommunicationRepo) ListDiscussions(_ context.Context, _ repository.DiscussionFilter, _ repository.Scope) ([]model.Discussion, error) {
	var result []model.Discussion
	for _, d := range m.discussions {
		result = append(result, *d)
	}
	return result, nil
}

func (m *mockCommunicationRepo) DeleteDiscussion(_ context.Context, id string) error {
	if _, ok := m.discussions[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.discussions, id)
	return nil
}

func (m *mockCommunicationRepo) CreateReply(_ context.Context, reply *model.DiscussionReply) error {
	reply.ID = m.nextID("reply")
	m.replies = append(m.replies, reply)
	return nil
}

func (m *mockCommunicationRepo) ListReplies(_ context.Context, discussionID string) ([]model.DiscussionReply, error) {
	var result []model.DiscussionReply
	for _, r := range m.replies {
		if r.DiscussionID == discussionID {
			result = append(result, *r)
		}
	}
	return result, nil
}

func (m *mockCommunicationRepo) CreateConversation(_ context.Context, c *model.Conversation) error {
	c.ID = m.nextID("conversation")
	m.conversations[c.ID] = c
	return nil
}

func (m *mockCommunicationRepo) GetConversation(_ context.Context, id string) (*model.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCommunicationRepo) ListConversations(_ context.Context, userID string) ([]model.Conversation, error) {
	var result []model.Conversation
	for _, c := range m.conversations {
		if c.HasParticipant(userID) {
			result = append(result, *c)
		}
	}
	slices.SortFunc(result, func(a, b model.Conversation) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
	return result, nil
}

func (m *mockCommunicationRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	c, ok := m.conversations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.LastMessageAt = at
	return nil
}

func (m *mockCommunicationRepo) CreateMessage(_ context.Context, msg *model.Message) error {
	if m.failMessage != nil {
		return m.failMessage
	}
	msg.ID = m.nextID("message")
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockCommunicationRepo) ListMessages(_ context.Context, conversationID string) ([]model.Message, error) {
	var result []model.Message
	for _, msg := range m.messages {
		if msg.ConversationID == conversationID {
			result = append(result, *msg)
		}
	}
	return result, nil
}

// ── Mock ModelRepository ──

type mockModelRepo struct {
	models map[string]*model.MLModel
	seq    int
	// lastFields 最近一次 Update 收到的字段
	lastFields map[string]interface{}
}

func newMockModelRepo() *mockModelRepo {
	return &mockModelRepo{models: make(map[string]*model.MLModel)}
}

func (m *mockModelRepo) Create(_ context.Context, ml *model.MLModel) error {
	m.seq++
	ml.ID = fmt.Sprintf("model-%d", m.seq)
	m.models[ml.ID] = ml
	return nil
}

func (m *mockModelRepo) GetByID(_ context.Context, id string) (*model.MLModel, error) {
	if ml, ok := m.models[id]; ok {
		cp := *ml
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockModelRepo) List(_ context.Context, filter repository.ModelFilter, _ repository.Scope) ([]model.MLModel, error) {
	var result []model.MLModel
	for _, ml := range m.models {
		if filter.Status != "" && ml.Status != filter.Status {
			continue
		}
		result = append(result, *ml)
	}
	return result, nil
}

func (m *mockModelRepo) Update(_ context.Context, id string, fields map[string]interface{}) error {
	ml, ok := m.models[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.lastFields = fields
	for k, v := range fields {
		switch k {
		case "name":
			ml.Name = v.(string)
		case "status":
			ml.Status = v.(string)
		case "trained_at":
			t := v.(time.Time)
			ml.TrainedAt = &t
		case "deployed_at":
			t := v.(time.Time)
			ml.DeployedAt = &t
		}
	}
	return nil
}

func (m *mockModelRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.models[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.models, id)
	return nil
}

// ── Mock ResearchDataRepository ──

type mockResearchDataRepo struct {
	entries map[string]*model.ResearchData
	seq     int
}

func newMockResearchDataRepo() *mockResearchDataRepo {
	return &mockResearchDataRepo{entries: make(map[string]*model.ResearchData)}
}

func (m *mockResearchDataRepo) Create(_ context.Context, entry *model.ResearchData) error {
	m.seq++
	entry.ID = fmt.Sprintf("data-%d", m.seq)
	m.entries[entry.ID] = entry
	return nil
}

func (m *mockResearchDataRepo) GetByID(_ context.Context, id string) (*model.ResearchData, error) {
	if e, ok := m.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockResearchDataRepo) List(_ context.Context, filter repository.ResearchDataFilter, _ repository.Scope) ([]model.ResearchData, error) {
	var result []model.ResearchData
	for _, e := range m.entries {
		if filter.ProjectID != "" && e.ProjectID != filter.ProjectID {
			continue
		}
		result = append(result, *e)
	}
	return result, nil
}

func (m *mockResearchDataRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.entries[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.entries, id)
	return nil
}

// ── Mock SearchRepository ──

type mockSearchRepo struct {
	collegeCalls int
	lastScope    repository.Scope
}

func (m *mockSearchRepo) Users(_ context.Context, _ string, scope repository.Scope) ([]model.User, error) {
	m.lastScope = scope
	return []model.User{}, nil
}

func (m *mockSearchRepo) Projects(_ context.Context, _ string, scope repository.Scope) ([]model.Project, error) {
	m.lastScope = scope
	return []model.Project{}, nil
}

func (m *mockSearchRepo) Colleges(_ context.Context, _ string) ([]model.College, error) {
	m.collegeCalls++
	return []model.College{{ID: "college-1", Name: "农学院"}}, nil
}

func (m *mockSearchRepo) Discussions(_ context.Context, _ string, scope repository.Scope) ([]model.Discussion, error) {
	m.lastScope = scope
	return []model.Discussion{}, nil
}

func (m *mockSearchRepo) Submissions(_ context.Context, _ string, scope repository.Scope) ([]model.DataSubmission, error) {
	m.lastScope = scope
	return []model.DataSubmission{}, nil
}

// ── Mock AnalyticsRepository ──

type mockAnalyticsRepo struct {
	dashboardCalls int
	lastScope      repository.Scope
}

func (m *mockAnalyticsRepo) Dashboard(_ context.Context, scope repository.Scope) (*repository.DashboardCounts, error) {
	m.dashboardCalls++
	m.lastScope = scope
	return &repository.DashboardCounts{Users: 12, Colleges: 2, Projects: 5, Submissions: 40, Sensors: 3}, nil
}

func (m *mockAnalyticsRepo) UsersByRole(context.Context, repository.Scope) ([]repository.KeyCount, error) {
	return []repository.KeyCount{{Key: model.RoleStudent, Count: 8}}, nil
}

func (m *mockAnalyticsRepo) ProjectsByStatus(context.Context, repository.Scope) ([]repository.KeyCount, error) {
	return []repository.KeyCount{{Key: model.ProjectStatusPlanning, Count: 5}}, nil
}

func (m *mockAnalyticsRepo) RecentActivity(context.Context, repository.Scope, int) ([]repository.ActivityRow, error) {
	return nil, nil
}

func (m *mockAnalyticsRepo) MonthlyUserGrowth(context.Context, repository.Scope, time.Time) ([]repository.MonthCount, error) {
	return nil, nil
}

// ── 测试夹具 ──

type testRepos struct {
	repo          *repository.Repository
	users         *mockUserRepo
	colleges      *mockCollegeRepo
	projects      *mockProjectRepo
	submissions   *mockSubmissionRepo
	notifications *mockNotificationRepo
	sensors       *mockSensorRepo
	reports       *mockReportRepo
	comm          *mockCommunicationRepo
	models        *mockModelRepo
	researchData  *mockResearchDataRepo
	search        *mockSearchRepo
	analytics     *mockAnalyticsRepo
}

// newTestRepos 组装内存仓储；Repository 未持有 db 时 Transaction 直接在当前仓储上执行
func newTestRepos() *testRepos {
	r := &testRepos{
		users:         newMockUserRepo(),
		colleges:      newMockCollegeRepo(),
		projects:      newMockProjectRepo(),
		submissions:   newMockSubmissionRepo(),
		notifications: newMockNotificationRepo(),
		reports:       newMockReportRepo(),
		comm:          newMockCommunicationRepo(),
		models:        newMockModelRepo(),
		researchData:  newMockResearchDataRepo(),
		search:        &mockSearchRepo{},
		analytics:     &mockAnalyticsRepo{},
	}
	r.sensors = newMockSensorRepo(r.projects)
	r.repo = &repository.Repository{
		User:          r.users,
		College:       r.colleges,
		Project:       r.projects,
		Submission:    r.submissions,
		Sensor:        r.sensors,
		Report:        r.reports,
		Notification:  r.notifications,
		Communication: r.comm,
		Model:         r.models,
		ResearchData:  r.researchData,
		Search:        r.search,
		Analytics:     r.analytics,
	}
	return r
}
