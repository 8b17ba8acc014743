package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

func setupTestCollegeService(t *testing.T) (CollegeService, *testRepos) {
	repos := newTestRepos()
	svc := NewCollegeService(repos.repo, newTestAuthorizer(t), nil, zap.NewNop())
	return svc, repos
}

func addCollege(repos *testRepos, id, status string) *model.College {
	c := &model.College{ID: id, Name: id + "-学院", CollegeCode: "CLG" + id, Status: status}
	repos.colleges.colleges[id] = c
	return c
}

// ── 审核 ──

func TestCollegeService_Approve_SuperAdmin(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	addCollege(repos, "c1", model.StatusPending)

	resp, err := svc.Approve(context.Background(), principalOf(super), "c1")
	if err != nil {
		t.Fatalf("审核学院失败: %v", err)
	}
	if resp.Status != model.StatusApproved {
		t.Errorf("期望状态 approved，实际: %s", resp.Status)
	}
	if resp.ReviewedBy != super.ID {
		t.Errorf("期望审核人 %s，实际: %s", super.ID, resp.ReviewedBy)
	}
	if repos.colleges.colleges["c1"].Status != model.StatusApproved {
		t.Error("仓储中的学院状态未更新")
	}
}

func TestCollegeService_Reject_SuperAdmin(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	addCollege(repos, "c1", model.StatusPending)

	resp, err := svc.Reject(context.Background(), principalOf(super), "c1")
	if err != nil {
		t.Fatalf("拒绝学院失败: %v", err)
	}
	if resp.Status != model.StatusRejected {
		t.Errorf("期望状态 rejected，实际: %s", resp.Status)
	}
}

func TestCollegeService_Approve_SecondTimeConflicts(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	addCollege(repos, "c1", model.StatusPending)

	if _, err := svc.Approve(context.Background(), principalOf(super), "c1"); err != nil {
		t.Fatalf("首次审核失败: %v", err)
	}
	_, err := svc.Approve(context.Background(), principalOf(super), "c1")
	if !errors.Is(err, ErrCollegeAlreadyReviewed) {
		t.Fatalf("期望 ErrCollegeAlreadyReviewed，实际: %v", err)
	}
	if !strings.Contains(err.Error(), model.StatusApproved) {
		t.Errorf("错误信息应包含当前状态，实际: %s", err.Error())
	}
}

func TestCollegeService_Approve_CollegeAdminForbidden(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	addCollege(repos, "c1", model.StatusPending)

	_, err := svc.Approve(context.Background(), principalOf(admin), "c1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("学院管理员不能审核学院，实际: %v", err)
	}
	if repos.colleges.colleges["c1"].Status != model.StatusPending {
		t.Error("被拒绝的审核不应修改状态")
	}
}

func TestCollegeService_Approve_NotFound(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")

	_, err := svc.Approve(context.Background(), principalOf(super), "missing")
	if !errors.Is(err, ErrCollegeNotFound) {
		t.Errorf("期望 ErrCollegeNotFound，实际: %v", err)
	}
}

// ── 更新 ──

func TestCollegeService_Update_OwnCollegeOnly(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	addCollege(repos, "c1", model.StatusApproved)
	addCollege(repos, "c2", model.StatusApproved)

	name := "新农学院"
	resp, err := svc.Update(context.Background(), principalOf(admin), "c1", &dto.UpdateCollegeRequest{Name: &name})
	if err != nil {
		t.Fatalf("更新本学院失败: %v", err)
	}
	if resp.Name != name {
		t.Errorf("期望名称 %s，实际: %s", name, resp.Name)
	}

	_, err = svc.Update(context.Background(), principalOf(admin), "c2", &dto.UpdateCollegeRequest{Name: &name})
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("更新其他学院应返回 ErrForbidden，实际: %v", err)
	}
	if repos.colleges.colleges["c2"].Name == name {
		t.Error("其他学院不应被修改")
	}
}

func TestCollegeService_Update_NoFieldsReturnsCurrent(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	addCollege(repos, "c1", model.StatusApproved)

	resp, err := svc.Update(context.Background(), principalOf(super), "c1", &dto.UpdateCollegeRequest{})
	if err != nil {
		t.Fatalf("空更新不应报错: %v", err)
	}
	if resp.Name != "c1-学院" {
		t.Errorf("期望原名称，实际: %s", resp.Name)
	}
}

// ── 查询 ──

func TestCollegeService_GetByID_HidesPendingFromOthers(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	addCollege(repos, "c1", model.StatusApproved)
	addCollege(repos, "c2", model.StatusPending)
	addCollege(repos, "c3", model.StatusApproved)

	if _, err := svc.GetByID(context.Background(), principalOf(student), "c1"); err != nil {
		t.Errorf("应能查看本学院: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), principalOf(student), "c3"); err != nil {
		t.Errorf("应能查看已审核学院: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), principalOf(student), "c2"); !errors.Is(err, ErrCollegeNotFound) {
		t.Errorf("其他学院的待审核记录应不可见，实际: %v", err)
	}
}

func TestCollegeService_ListPublic_OnlyApproved(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	addCollege(repos, "c1", model.StatusApproved)
	addCollege(repos, "c2", model.StatusPending)

	list, err := svc.ListPublic(context.Background())
	if err != nil {
		t.Fatalf("查询公开学院失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != "c1" {
		t.Errorf("期望只返回 c1，实际: %+v", list)
	}
}

// ── 创建与删除 ──

func TestCollegeService_Create_ApprovedWithCode(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")

	resp, err := svc.Create(context.Background(), principalOf(super), &dto.CreateCollegeRequest{
		Name:    "  园艺学院 ",
		Address: "南京市",
	})
	if err != nil {
		t.Fatalf("创建学院失败: %v", err)
	}
	if resp.Status != model.StatusApproved {
		t.Errorf("直接创建的学院应为 approved，实际: %s", resp.Status)
	}
	if resp.Name != "园艺学院" {
		t.Errorf("名称应去除首尾空白，实际: %q", resp.Name)
	}
	if !strings.HasPrefix(resp.CollegeCode, "CLG") {
		t.Errorf("学院编码格式不正确: %s", resp.CollegeCode)
	}
}

func TestCollegeService_Create_RetriesCodeConflict(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	repos.colleges.codeConflicts = 1

	resp, err := svc.Create(context.Background(), principalOf(super), &dto.CreateCollegeRequest{Name: "林学院", Address: "北京市"})
	if err != nil {
		t.Fatalf("编码冲突后应重试成功: %v", err)
	}
	if len(repos.colleges.triedCodes) != 2 {
		t.Fatalf("期望尝试 2 次，实际: %d", len(repos.colleges.triedCodes))
	}
	if resp.CollegeCode != repos.colleges.triedCodes[1] {
		t.Errorf("应使用第二次生成的编码，实际: %s", resp.CollegeCode)
	}
}

func TestCollegeService_Delete_ForeignKeyViolation(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	super := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	addCollege(repos, "c1", model.StatusApproved)
	repos.colleges.deleteErr = &pgconn.PgError{Code: "23503", ConstraintName: "users_college_id_fkey"}

	err := svc.Delete(context.Background(), principalOf(super), "c1")
	if err == nil {
		t.Fatal("仍被引用的学院不应删除成功")
	}
	if !pkgerrors.IsForeignKeyViolation(err) {
		t.Errorf("外键错误应原样返回供 Handler 映射为 400，实际: %v", err)
	}
}

func TestCollegeService_Delete_CollegeAdminForbidden(t *testing.T) {
	svc, repos := setupTestCollegeService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	addCollege(repos, "c1", model.StatusApproved)

	err := svc.Delete(context.Background(), principalOf(admin), "c1")
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("学院管理员不能删除学院，实际: %v", err)
	}
	if _, ok := repos.colleges.colleges["c1"]; !ok {
		t.Error("学院不应被删除")
	}
}
