package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/internal/model"
)

// Scope 多租户查询范围
// All=true 表示不做租户过滤（超级管理员或内部调用）
type Scope struct {
	All       bool
	CollegeID string
}

// AllTenants 不做租户过滤的范围，供内部读取使用
var AllTenants = Scope{All: true}

// ScopeFor 根据调用方角色与学院构造查询范围
func ScopeFor(role, collegeID string) Scope {
	if role == model.RoleSuperAdmin {
		return AllTenants
	}
	return Scope{CollegeID: collegeID}
}

// TenantScope 统一的租户过滤器
// ownerColumn 为指向 users.id 的列或表达式（如 created_by、student_id）
// 非超级管理员只能看到归属用户与自己同学院的记录；没有学院的调用方看不到任何记录
func TenantScope(s Scope, ownerColumn string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s.All {
			return db
		}
		if s.CollegeID == "" {
			return db.Where("1 = 0")
		}
		return db.Where(ownerColumn+" IN (SELECT id FROM users WHERE college_id = ?)", s.CollegeID)
	}
}

// 通过项目创建者归属学院的列表达式
const (
	sensorOwnerExpr  = "(SELECT p.created_by FROM projects p WHERE p.id = sensors.project_id)"
	readingOwnerExpr = "(SELECT p.created_by FROM sensors s JOIN projects p ON p.id = s.project_id WHERE s.id = sensor_readings.sensor_id)"
)

// likePattern 转义 LIKE 通配符后包裹为包含匹配
func likePattern(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(q) + "%"
}
