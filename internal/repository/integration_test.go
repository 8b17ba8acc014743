//go:build integration

package repository_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
	"github.com/theAAcoderr/agrimodelbackend/pkg/database"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		dsn = "host=localhost port=5433 user=agrimodel password=agrimodel dbname=agrimodel_test sslmode=disable TimeZone=UTC"
	}

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "无法连接测试数据库: %v\n", err)
		os.Exit(1)
	}

	sqlDB, err := testDB.DB()
	if err != nil {
		fmt.Fprintf(os.Stderr, "获取连接池失败: %v\n", err)
		os.Exit(1)
	}
	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		fmt.Fprintf(os.Stderr, "执行迁移失败: %v\n", err)
		os.Exit(1)
	}

	os.Exit(m.Run())
}

// setupTestData 创建已审核学院与学生，返回清理函数
func setupTestData(t *testing.T) (college *model.College, student *model.User, cleanup func()) {
	t.Helper()
	ctx := context.Background()
	suffix := time.Now().UnixNano()

	college = &model.College{
		Name:        fmt.Sprintf("测试农学院-%d", suffix),
		CollegeCode: fmt.Sprintf("T%d", suffix%1_000_000_000),
		Status:      model.StatusApproved,
	}
	if err := testDB.WithContext(ctx).Create(college).Error; err != nil {
		t.Fatalf("创建学院失败: %v", err)
	}

	student = &model.User{
		Name:         "测试学生",
		Email:        fmt.Sprintf("student%d@agri.edu", suffix),
		PasswordHash: "$2a$10$placeholder",
		Role:         model.RoleStudent,
		Status:       model.StatusPending,
		IsActive:     true,
		CollegeID:    &college.ID,
	}
	if err := testDB.WithContext(ctx).Create(student).Error; err != nil {
		t.Fatalf("创建学生失败: %v", err)
	}

	cleanup = func() {
		testDB.Where("student_id = ?", student.ID).Delete(&model.DataSubmission{})
		testDB.Where("id = ?", student.ID).Delete(&model.User{})
		testDB.Where("id = ?", college.ID).Delete(&model.College{})
	}
	return
}

// ═══════════════════════════════════════════════════════════
// Test: Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_Rollback(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	var subID string
	err := repo.Transaction(ctx, func(tx *repository.Repository) error {
		sub := &model.DataSubmission{
			StudentID:   student.ID,
			DataContent: datatypes.JSON(`{"crop":"wheat"}`),
			Status:      model.SubmissionPending,
		}
		if err := tx.Submission.Create(ctx, sub); err != nil {
			return err
		}
		subID = sub.ID
		return errors.New("强制回滚")
	})
	if err == nil {
		t.Fatal("期望事务返回错误")
	}

	if _, err := repo.Submission.GetByID(ctx, subID); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("期望回滚后查不到提交，实际: %v", err)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Conditional Review
// ═══════════════════════════════════════════════════════════

func TestUserReview_SecondCallIsStale(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	if err := repo.User.Review(ctx, student.ID, model.StatusApproved, student.ID, time.Now()); err != nil {
		t.Fatalf("首次审核失败: %v", err)
	}
	err := repo.User.Review(ctx, student.ID, model.StatusRejected, student.ID, time.Now())
	if !errors.Is(err, pkgerrors.ErrStaleStatus) {
		t.Fatalf("二次审核期望 ErrStaleStatus，实际: %v", err)
	}

	got, _ := repo.User.GetByID(ctx, student.ID)
	if got.Status != model.StatusApproved {
		t.Errorf("状态应保持 approved，实际=%s", got.Status)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Draft Upsert
// ═══════════════════════════════════════════════════════════

func TestUpsertDraft_SingleRowPerStudentProject(t *testing.T) {
	_, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	first := &model.DataSubmission{StudentID: student.ID, DataContent: datatypes.JSON(`{"v":1}`)}
	created, err := repo.Submission.UpsertDraft(ctx, first)
	if err != nil || !created {
		t.Fatalf("首次保存草稿应创建记录: created=%v err=%v", created, err)
	}

	second := &model.DataSubmission{StudentID: student.ID, DataContent: datatypes.JSON(`{"v":2}`)}
	created, err = repo.Submission.UpsertDraft(ctx, second)
	if err != nil || created {
		t.Fatalf("再次保存草稿应更新记录: created=%v err=%v", created, err)
	}
	if second.ID != first.ID {
		t.Errorf("应覆盖同一草稿，first=%s second=%s", first.ID, second.ID)
	}

	var count int64
	testDB.Model(&model.DataSubmission{}).
		Where("student_id = ? AND status = ?", student.ID, model.SubmissionDraft).
		Count(&count)
	if count != 1 {
		t.Errorf("草稿数量期望 1，实际=%d", count)
	}
}

// ═══════════════════════════════════════════════════════════
// Test: Tenant Scope
// ═══════════════════════════════════════════════════════════

func TestSearchUsers_TenantScoped(t *testing.T) {
	college, student, cleanup := setupTestData(t)
	defer cleanup()

	repo := repository.NewRepository(testDB)
	ctx := context.Background()

	own, err := repo.Search.Users(ctx, "测试学生", repository.Scope{CollegeID: college.ID})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	found := false
	for _, u := range own {
		if u.ID == student.ID {
			found = true
		}
	}
	if !found {
		t.Error("本学院搜索应包含该学生")
	}

	other, err := repo.Search.Users(ctx, "测试学生", repository.Scope{CollegeID: "00000000-0000-0000-0000-000000000001"})
	if err != nil {
		t.Fatalf("搜索失败: %v", err)
	}
	for _, u := range other {
		if u.ID == student.ID {
			t.Error("其他学院的搜索不应看到该学生")
		}
	}
}

// ═══════════════════════════════════════════════════════════
// Migration Tests
// ═══════════════════════════════════════════════════════════

func TestMigrations_RollbackAndReapply(t *testing.T) {
	sqlDB, err := testDB.DB()
	if err != nil {
		t.Fatalf("获取连接池失败: %v", err)
	}

	before, err := database.MigrationStatus(sqlDB)
	if err != nil {
		t.Fatalf("读取迁移版本失败: %v", err)
	}
	if before.Dirty || before.Version < 2 {
		t.Fatalf("迁移状态异常: %+v", before)
	}

	if err := database.RollbackMigrations(sqlDB, 1, zap.NewNop()); err != nil {
		t.Fatalf("回退失败: %v", err)
	}
	mid, _ := database.MigrationStatus(sqlDB)
	if mid.Version != before.Version-1 {
		t.Errorf("回退后版本 = %d，期望 %d", mid.Version, before.Version-1)
	}

	if err := database.RunMigrations(sqlDB, zap.NewNop()); err != nil {
		t.Fatalf("重新应用迁移失败: %v", err)
	}
	after, _ := database.MigrationStatus(sqlDB)
	if after != before {
		t.Errorf("重新应用后状态 = %+v，期望 %+v", after, before)
	}

	if err := database.RollbackMigrations(sqlDB, 0, zap.NewNop()); err == nil {
		t.Error("回退 0 步应返回错误")
	}
}
