package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

func setupTestModelService(t *testing.T) (*modelService, *testRepos) {
	repos := newTestRepos()
	svc := NewModelService(repos.repo, newTestAuthorizer(t), zap.NewNop()).(*modelService)
	return svc, repos
}

func createTestModel(t *testing.T, svc *modelService, owner *model.User) *model.MLModel {
	t.Helper()
	m, err := svc.Create(context.Background(), principalOf(owner), &dto.CreateModelRequest{
		Name:      "产量预测",
		Type:      "regression",
		Framework: "xgboost",
	})
	if err != nil {
		t.Fatalf("登记模型失败: %v", err)
	}
	return m
}

func TestModelService_Create_Defaults(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")

	m := createTestModel(t, svc, ds)
	if m.Status != model.ModelStatusDraft {
		t.Errorf("初始状态应为 DRAFT，实际: %s", m.Status)
	}
	if m.Version != "1.0.0" {
		t.Errorf("默认版本应为 1.0.0，实际: %s", m.Version)
	}
	if m.CreatedBy != ds.ID {
		t.Errorf("创建者应为调用者，实际: %s", m.CreatedBy)
	}
	if string(m.Hyperparameters) != "{}" || string(m.Metrics) != "{}" {
		t.Errorf("JSON 字段缺省应为 {}: %s / %s", m.Hyperparameters, m.Metrics)
	}
}

func TestModelService_Create_InvalidHyperparameters(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")

	_, err := svc.Create(context.Background(), principalOf(ds), &dto.CreateModelRequest{
		Name:            "坏参数",
		Type:            "cnn",
		Framework:       "pytorch",
		Hyperparameters: json.RawMessage(`[1,2`),
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("期望 ErrValidation，实际: %v", err)
	}
}

func TestModelService_Create_ProjectOutsideCollege(t *testing.T) {
	svc, repos := setupTestModelService(t)
	owner := addUser(repos, model.RoleProfessor, model.StatusApproved, "c2")
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	project := addProject(repos, owner)

	_, err := svc.Create(context.Background(), principalOf(ds), &dto.CreateModelRequest{
		Name:      "越权模型",
		Type:      "cnn",
		Framework: "pytorch",
		ProjectID: &project.ID,
	})
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("期望 ErrProjectNotFound，实际: %v", err)
	}
}

func TestModelService_Update_StatusTimestamps(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	m := createTestModel(t, svc, ds)

	trainedAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return trainedAt }
	status := model.ModelStatusTrained
	updated, err := svc.Update(context.Background(), principalOf(ds), m.ID, &dto.UpdateModelRequest{Status: &status})
	if err != nil {
		t.Fatalf("更新状态失败: %v", err)
	}
	if updated.TrainedAt == nil || !updated.TrainedAt.Equal(trainedAt) {
		t.Errorf("TRAINED 应记录训练完成时间，实际: %v", updated.TrainedAt)
	}
	if updated.DeployedAt != nil {
		t.Error("未部署时不应有部署时间")
	}

	deployedAt := trainedAt.Add(72 * time.Hour)
	svc.now = func() time.Time { return deployedAt }
	status = model.ModelStatusDeployed
	updated, err = svc.Update(context.Background(), principalOf(ds), m.ID, &dto.UpdateModelRequest{Status: &status})
	if err != nil {
		t.Fatalf("部署失败: %v", err)
	}
	if updated.DeployedAt == nil || !updated.DeployedAt.Equal(deployedAt) {
		t.Errorf("DEPLOYED 应记录部署时间，实际: %v", updated.DeployedAt)
	}
	if !updated.TrainedAt.Equal(trainedAt) {
		t.Error("部署不应改动训练完成时间")
	}
}

func TestModelService_Update_NoFields(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	m := createTestModel(t, svc, ds)

	_, err := svc.Update(context.Background(), principalOf(ds), m.ID, &dto.UpdateModelRequest{})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("空更新应返回 ErrValidation，实际: %v", err)
	}
	if repos.models.lastFields != nil {
		t.Error("空更新不应写库")
	}
}

func TestModelService_Update_JSONColumns(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	m := createTestModel(t, svc, ds)

	_, err := svc.Update(context.Background(), principalOf(ds), m.ID, &dto.UpdateModelRequest{
		Metrics: json.RawMessage(`{"rmse":0.42}`),
	})
	if err != nil {
		t.Fatalf("更新指标失败: %v", err)
	}
	if _, ok := repos.models.lastFields["metrics"]; !ok {
		t.Errorf("应写入 metrics 列，实际字段: %v", repos.models.lastFields)
	}
	if _, ok := repos.models.lastFields["hyperparameters"]; ok {
		t.Error("未提供的 JSON 列不应写入")
	}
}

func TestModelService_Update_Permissions(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	peer := addUser(repos, model.RoleProfessor, model.StatusApproved, "c1")
	admin := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c1")
	outsider := addUser(repos, model.RoleCollegeAdmin, model.StatusApproved, "c2")
	m := createTestModel(t, svc, ds)
	name := "改名"

	tests := []struct {
		name   string
		caller *model.User
		want   error
	}{
		{"同学院其他用户", peer, ErrForbidden},
		{"其他学院管理员", outsider, ErrModelNotFound},
		{"本学院管理员", admin, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), principalOf(tt.caller), m.ID, &dto.UpdateModelRequest{Name: &name})
			if !errors.Is(err, tt.want) {
				t.Errorf("期望 %v，实际: %v", tt.want, err)
			}
		})
	}
}

func TestModelService_Delete(t *testing.T) {
	svc, repos := setupTestModelService(t)
	ds := addUser(repos, model.RoleDataScientist, model.StatusApproved, "c1")
	student := addUser(repos, model.RoleStudent, model.StatusApproved, "c1")
	m := createTestModel(t, svc, ds)

	if err := svc.Delete(context.Background(), principalOf(student), m.ID); !errors.Is(err, ErrForbidden) {
		t.Errorf("学生删除应返回 ErrForbidden，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), principalOf(ds), m.ID); err != nil {
		t.Fatalf("创建者删除失败: %v", err)
	}
	if _, err := svc.GetByID(context.Background(), principalOf(ds), m.ID); !errors.Is(err, ErrModelNotFound) {
		t.Errorf("删除后应返回 ErrModelNotFound，实际: %v", err)
	}
}
