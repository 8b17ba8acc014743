package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

func setupTestReportService(t *testing.T) (*reportService, *testRepos) {
	repos := newTestRepos()
	svc := NewReportService(repos.repo, newTestAuthorizer(t), zap.NewNop()).(*reportService)
	return svc, repos
}

func addReport(repos *testRepos, owner *model.User) *model.Report {
	r := &model.Report{Title: "季度产量分析", Type: "summary", Status: model.ReportDraft, CreatedBy: owner.ID}
	_ = repos.reports.Create(context.Background(), r)
	return r
}

// ── 创建 ──

func TestReportService_Create_DefaultsDraft(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")

	report, err := svc.Create(context.Background(), principalOf(author), &dto.CreateReportRequest{
		Title: "病虫害监测",
		Type:  "monitoring",
	})
	if err != nil {
		t.Fatalf("创建报告失败: %v", err)
	}
	if report.Status != model.ReportDraft {
		t.Errorf("默认状态应为 draft，实际: %s", report.Status)
	}
	if report.PublishedAt != nil {
		t.Error("草稿不应有发布时间")
	}
}

func TestReportService_Create_PublishedStampsTime(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	fixed := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	report, err := svc.Create(context.Background(), principalOf(author), &dto.CreateReportRequest{
		Title:  "年度总结",
		Type:   "summary",
		Status: model.ReportPublished,
	})
	if err != nil {
		t.Fatalf("创建报告失败: %v", err)
	}
	if report.PublishedAt == nil || !report.PublishedAt.Equal(fixed) {
		t.Errorf("直接发布应记录发布时间，实际: %v", report.PublishedAt)
	}
}

func TestReportService_Create_ProjectOutsideCollege(t *testing.T) {
	svc, repos := setupTestReportService(t)
	owner := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c2")
	project := addProject(repos, owner)

	_, err := svc.Create(context.Background(), principalOf(author), &dto.CreateReportRequest{
		Title:     "越权报告",
		Type:      "summary",
		ProjectID: &project.ID,
	})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际: %v", err)
	}
	if len(repos.reports.reports) != 0 {
		t.Error("不应写入报告")
	}
}

// ── 发布 ──

func TestReportService_Publish_Owner(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	report := addReport(repos, author)
	fixed := time.Date(2026, 9, 15, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	published, err := svc.Publish(context.Background(), principalOf(author), report.ID)
	if err != nil {
		t.Fatalf("发布报告失败: %v", err)
	}
	if published.Status != model.ReportPublished {
		t.Errorf("期望状态 published，实际: %s", published.Status)
	}
	if published.PublishedAt == nil || !published.PublishedAt.Equal(fixed) {
		t.Errorf("发布时间应为 %v，实际: %v", fixed, published.PublishedAt)
	}
}

func TestReportService_Publish_CollegeAdmin(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	report := addReport(repos, author)

	if _, err := svc.Publish(context.Background(), principalOf(admin), report.ID); err != nil {
		t.Fatalf("本学院管理员发布失败: %v", err)
	}
	if repos.reports.reports[report.ID].Status != model.ReportPublished {
		t.Error("报告状态未更新")
	}
}

func TestReportService_Publish_OtherUserForbidden(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	peer := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	report := addReport(repos, author)

	_, err := svc.Publish(context.Background(), principalOf(peer), report.ID)
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
	if repos.reports.reports[report.ID].Status != model.ReportDraft {
		t.Error("报告不应被发布")
	}
}

func TestReportService_Publish_OtherCollegeNotFound(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c2")
	report := addReport(repos, author)

	_, err := svc.Publish(context.Background(), principalOf(admin), report.ID)
	if !errors.Is(err, ErrReportNotFound) {
		t.Errorf("期望 ErrReportNotFound，实际: %v", err)
	}
}

func TestReportService_Update_KeepsExistingPublishTime(t *testing.T) {
	svc, repos := setupTestReportService(t)
	author := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	report := addReport(repos, author)
	first := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return first }
	if _, err := svc.Publish(context.Background(), principalOf(author), report.ID); err != nil {
		t.Fatalf("发布报告失败: %v", err)
	}

	svc.now = func() time.Time { return first.Add(48 * time.Hour) }
	status := model.ReportPublished
	updated, err := svc.Update(context.Background(), principalOf(author), report.ID, &dto.UpdateReportRequest{Status: &status})
	if err != nil {
		t.Fatalf("更新报告失败: %v", err)
	}
	if updated.PublishedAt == nil || !updated.PublishedAt.Equal(first) {
		t.Errorf("再次设为 published 不应覆盖发布时间，实际: %v", updated.PublishedAt)
	}
}
