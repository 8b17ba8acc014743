package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// ── 测试辅助 ──

func newTestAuthorizer(t *testing.T) *authz.Authorizer {
	t.Helper()
	az, err := authz.NewAuthorizer(zap.NewNop())
	if err != nil {
		t.Fatalf("加载授权策略失败: %v", err)
	}
	return az
}

func setupTestUserService(t *testing.T) (UserService, *testRepos) {
	repos := newTestRepos()
	az := newTestAuthorizer(t)
	notifier := NewNotificationService(repos.repo, az, zap.NewNop())
	svc := NewUserService(repos.repo, az, notifier, nil, zap.NewNop())
	return svc, repos
}

func addUser(repos *testRepos, role, status, collegeID string) *model.User {
	u := &model.User{
		Name:     role + "-user",
		Email:    role + "-" + status + "-" + collegeID + "@test.com",
		Role:     role,
		Status:   status,
		IsActive: true,
	}
	if collegeID != "" {
		u.CollegeID = &collegeID
	}
	return repos.users.add(u)
}

func principalOf(u *model.User) authz.Principal {
	return authz.Principal{ID: u.ID, Role: u.Role, CollegeID: u.CollegeIDValue()}
}

// ── 待审核队列 ──

func TestUserService_ListPending_CollegeAdmin(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusPending, "c1")
	addUser(repos, model.RoleStudent, model.StatusPending, "c2")      // 其他学院
	addUser(repos, model.RoleCollegeAdmin, model.StatusPending, "c1") // 学院管理员不在本队列
	addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")   // 已审核

	list, err := svc.ListPending(context.Background(), principalOf(admin))
	if err != nil {
		t.Fatalf("ListPending 失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != student.ID {
		t.Errorf("学院管理员应只看到本学院待审核的非管理员用户，实际=%v", list)
	}
}

func TestUserService_ListPending_SuperAdmin(t *testing.T) {
	svc, repos := setupTestUserService(t)
	root := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	pendingAdmin := addUser(repos, model.RoleCollegeAdmin, model.StatusPending, "c1")
	addUser(repos, model.RoleStudent, model.StatusPending, "c1")

	list, err := svc.ListPending(context.Background(), principalOf(root))
	if err != nil {
		t.Fatalf("ListPending 失败: %v", err)
	}
	if len(list) != 1 || list[0].ID != pendingAdmin.ID {
		t.Errorf("超级管理员队列应只包含待审核的学院管理员，实际=%v", list)
	}
}

func TestUserService_ListPending_StudentForbidden(t *testing.T) {
	svc, repos := setupTestUserService(t)
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")

	if _, err := svc.ListPending(context.Background(), principalOf(student)); !errors.Is(err, ErrForbidden) {
		t.Errorf("期望 ErrForbidden，实际: %v", err)
	}
}

// ── 审核 ──

func TestUserService_Approve_SameCollege(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusPending, "c1")

	resp, err := svc.Approve(context.Background(), principalOf(admin), student.ID)
	if err != nil {
		t.Fatalf("Approve 失败: %v", err)
	}
	if resp.Status != model.StatusApproved || resp.ReviewedBy != admin.ID {
		t.Errorf("审核结果不正确: status=%s reviewed_by=%s", resp.Status, resp.ReviewedBy)
	}
	if got := repos.notifications.forUser(student.ID); len(got) != 1 {
		t.Errorf("应向被审核用户发送 1 条通知，实际=%d", len(got))
	}
}

func TestUserService_Approve_Twice(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusPending, "c1")

	if _, err := svc.Approve(context.Background(), principalOf(admin), student.ID); err != nil {
		t.Fatalf("首次审核失败: %v", err)
	}
	_, err := svc.Reject(context.Background(), principalOf(admin), student.ID, "资料不全")
	if !errors.Is(err, ErrUserAlreadyReviewed) {
		t.Fatalf("期望 ErrUserAlreadyReviewed，实际: %v", err)
	}
	if !strings.Contains(err.Error(), model.StatusApproved) {
		t.Errorf("冲突信息应包含当前状态，实际: %v", err)
	}
	if repos.users.users[student.ID].Status != model.StatusApproved {
		t.Error("重复审核不应改变状态")
	}
}

func TestUserService_Approve_OtherCollegeForbidden(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusPending, "c2")

	if _, err := svc.Approve(context.Background(), principalOf(admin), student.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("跨学院审核期望 ErrForbidden，实际: %v", err)
	}
	if repos.users.users[student.ID].Status != model.StatusPending {
		t.Error("被拒绝的审核不应改变状态")
	}
}

func TestUserService_Approve_CollegeAdminCannotApproveAdmin(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	other := addUser(repos, model.RoleCollegeAdmin, model.StatusPending, "c1")

	if _, err := svc.Approve(context.Background(), principalOf(admin), other.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("学院管理员不能审核学院管理员，实际: %v", err)
	}
}

func TestUserService_Approve_SuperAdminAnyCollege(t *testing.T) {
	svc, repos := setupTestUserService(t)
	root := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	pendingAdmin := addUser(repos, model.RoleCollegeAdmin, model.StatusPending, "c9")

	if _, err := svc.Approve(context.Background(), principalOf(root), pendingAdmin.ID); err != nil {
		t.Errorf("超级管理员应可审核学院管理员: %v", err)
	}
}

func TestUserService_Approve_NotFound(t *testing.T) {
	svc, repos := setupTestUserService(t)
	root := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")

	if _, err := svc.Approve(context.Background(), principalOf(root), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound，实际: %v", err)
	}
}

func TestUserService_ProfessorCannotReview(t *testing.T) {
	svc, repos := setupTestUserService(t)
	prof := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusPending, "c1")

	if _, err := svc.Approve(context.Background(), principalOf(prof), student.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("教授不能审核用户，实际: %v", err)
	}
}

// ── 查询与更新 ──

func TestUserService_GetByID_OtherCollegeHidden(t *testing.T) {
	svc, repos := setupTestUserService(t)
	prof := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	outsider := addUser(repos, model.RoleStudent, model.StatusApproved, "c2")

	if _, err := svc.GetByID(context.Background(), principalOf(prof), outsider.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("其他学院用户应视为不存在，实际: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), principalOf(prof), prof.ID); err != nil {
		t.Errorf("查询自己应成功: %v", err)
	}
}

func TestUserService_Update_Self(t *testing.T) {
	svc, repos := setupTestUserService(t)
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	name := "  新名字  "

	resp, err := svc.Update(context.Background(), principalOf(student), student.ID, &dto.UpdateUserRequest{Name: &name})
	if err != nil {
		t.Fatalf("更新自己应成功: %v", err)
	}
	if resp.Name != "新名字" {
		t.Errorf("期望 name=新名字，实际=%s", resp.Name)
	}
}

func TestUserService_Update_ProfileFields(t *testing.T) {
	svc, repos := setupTestUserService(t)
	prof := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	bio := "研究方向：水稻抗旱育种"
	image := "https://cdn.example.com/avatars/prof.png"

	resp, err := svc.Update(context.Background(), principalOf(prof), prof.ID, &dto.UpdateUserRequest{
		Bio:          &bio,
		ProfileImage: &image,
	})
	if err != nil {
		t.Fatalf("更新个人资料应成功: %v", err)
	}
	if resp.Bio != bio || resp.ProfileImage != image {
		t.Errorf("个人资料未写入，实际 bio=%q image=%q", resp.Bio, resp.ProfileImage)
	}
	if repos.users.users[prof.ID].Bio != bio {
		t.Error("仓储中的 bio 应已更新")
	}
}

func TestUserService_Update_StudentCannotChangeOwnRole(t *testing.T) {
	svc, repos := setupTestUserService(t)
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	role := model.RoleProfessor

	_, err := svc.Update(context.Background(), principalOf(student), student.ID, &dto.UpdateUserRequest{Role: &role})
	if !errors.Is(err, ErrRoleChangeForbidden) {
		t.Errorf("期望 ErrRoleChangeForbidden，实际: %v", err)
	}
}

func TestUserService_Update_CollegeAdminCannotPromoteToAdmin(t *testing.T) {
	svc, repos := setupTestUserService(t)
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	prof := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	role := model.RoleCollegeAdmin

	_, err := svc.Update(context.Background(), principalOf(admin), prof.ID, &dto.UpdateUserRequest{Role: &role})
	if !errors.Is(err, ErrRoleChangeForbidden) {
		t.Errorf("期望 ErrRoleChangeForbidden，实际: %v", err)
	}

	// 改为学生角色允许
	role = model.RoleStudent
	if _, err := svc.Update(context.Background(), principalOf(admin), prof.ID, &dto.UpdateUserRequest{Role: &role}); err != nil {
		t.Errorf("学院管理员可调整本院非管理员角色: %v", err)
	}
}

func TestUserService_Update_CannotUpdateOthers(t *testing.T) {
	svc, repos := setupTestUserService(t)
	a := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	b := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	name := "篡改"

	_, err := svc.Update(context.Background(), principalOf(a), b.ID, &dto.UpdateUserRequest{Name: &name})
	if !errors.Is(err, ErrNoPermission) {
		t.Errorf("期望 ErrNoPermission，实际: %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	svc, repos := setupTestUserService(t)
	root := addUser(repos, model.RoleSuperAdmin, model.StatusApproved, "")
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")

	if err := svc.Delete(context.Background(), principalOf(root), root.ID); !errors.Is(err, ErrUserSelfDelete) {
		t.Errorf("期望 ErrUserSelfDelete，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), principalOf(root), student.ID); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, ok := repos.users.users[student.ID]; ok {
		t.Error("用户应已删除")
	}
}

func TestUserService_ListCollegeMembers(t *testing.T) {
	svc, repos := setupTestUserService(t)
	prof := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	addUser(repos, model.RoleStudent, model.StatusPending, "c1")

	list, err := svc.ListCollegeMembers(context.Background(), principalOf(prof), "c1")
	if err != nil {
		t.Fatalf("ListCollegeMembers 失败: %v", err)
	}
	if len(list) != 1 {
		t.Errorf("只应返回已审核成员，实际=%d", len(list))
	}
	if _, err := svc.ListCollegeMembers(context.Background(), principalOf(prof), "c2"); !errors.Is(err, ErrForbidden) {
		t.Errorf("其他学院成员列表期望 ErrForbidden，实际: %v", err)
	}
}
