package service

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/internal/repository"
)

// ── 模型 → 响应 ──

func toUserResponse(u *model.User) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         u.Role,
		Status:       u.Status,
		IsActive:     u.IsActive,
		CollegeID:    u.CollegeIDValue(),
		Department:   u.Department,
		Phone:        u.Phone,
		Bio:          u.Bio,
		ProfileImage: u.ProfileImage,
		LastLogin:    u.LastLogin,
		ReviewedAt:   u.ReviewedAt,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
	if u.ReviewedBy != nil {
		resp.ReviewedBy = *u.ReviewedBy
	}
	return resp
}

func toUserResponses(users []model.User) []dto.UserResponse {
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, *toUserResponse(&users[i]))
	}
	return result
}

func toCollegeResponse(c *model.College) *dto.CollegeResponse {
	resp := &dto.CollegeResponse{
		ID:          c.ID,
		Name:        c.Name,
		CollegeCode: c.CollegeCode,
		Address:     c.Address,
		Location:    c.Location,
		Status:      c.Status,
		ReviewedAt:  c.ReviewedAt,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if c.ReviewedBy != nil {
		resp.ReviewedBy = *c.ReviewedBy
	}
	return resp
}

func toCollegeResponses(colleges []model.College) []dto.CollegeResponse {
	result := make([]dto.CollegeResponse, 0, len(colleges))
	for i := range colleges {
		result = append(result, *toCollegeResponse(&colleges[i]))
	}
	return result
}

// ── JSONB 字段 ──

// jsonObject 校验并返回 JSON 值，空值时为 {}
func jsonObject(raw json.RawMessage, field string) (datatypes.JSON, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return datatypes.JSON("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, validationError("%s 不是合法的 JSON", field)
	}
	return datatypes.JSON(raw), nil
}

// ── 租户可见性 ──

// scopeOf 调用方的多租户查询范围
func scopeOf(p authz.Principal) repository.Scope {
	return repository.ScopeFor(p.Role, p.CollegeID)
}

// ownerCollege 返回资源归属用户的学院 ID
func ownerCollege(ctx context.Context, users repository.UserRepository, ownerID string) (string, error) {
	owner, err := users.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return owner.CollegeIDValue(), nil
}

// visibleTo 判断资源（由 ownerID 归属）对调用方是否在租户范围内
// 返回归属学院 ID，供策略判定使用
func visibleTo(ctx context.Context, users repository.UserRepository, p authz.Principal, ownerID string) (bool, string, error) {
	collegeID, err := ownerCollege(ctx, users, ownerID)
	if err != nil {
		return false, "", err
	}
	if p.Role == model.RoleSuperAdmin || ownerID == p.ID {
		return true, collegeID, nil
	}
	return p.CollegeID != "" && collegeID == p.CollegeID, collegeID, nil
}

// visibleProject 读取调用方租户范围内的项目，不可见时按不存在处理
func visibleProject(ctx context.Context, repo *repository.Repository, caller authz.Principal, projectID string) (*model.Project, error) {
	project, err := repo.Project.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	ok, _, err := visibleTo(ctx, repo.User, caller, project.CreatedBy)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrProjectNotFound
	}
	return project, nil
}
