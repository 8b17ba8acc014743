package model

import "time"

// ── 角色 ──

const (
	RoleSuperAdmin    = "super_admin"
	RoleCollegeAdmin  = "college_admin"
	RoleProfessor     = "professor"
	RoleStudent       = "student"
	RoleDataScientist = "data_scientist"
)

// ── 审核状态（用户、学院共用） ──

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// SelfRegisterRoles 可通过 /auth/register 自助注册的角色
var SelfRegisterRoles = []string{RoleProfessor, RoleStudent, RoleDataScientist}

// User 用户表，对应 users
type User struct {
	ID           string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string     `gorm:"type:varchar(100);not null"                     json:"name"`
	Email        string     `gorm:"type:varchar(255);not null"                     json:"email"`
	PasswordHash string     `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string     `gorm:"type:varchar(20);not null"                      json:"role"`
	Status       string     `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	IsActive     bool       `gorm:"not null;default:true"                          json:"is_active"`
	CollegeID    *string    `gorm:"type:uuid"                                      json:"college_id,omitempty"`
	Department   string     `gorm:"type:varchar(100)"                              json:"department,omitempty"`
	Phone        string     `gorm:"type:varchar(30)"                               json:"phone,omitempty"`
	Bio          string     `gorm:"type:text"                                      json:"bio,omitempty"`
	ProfileImage string     `gorm:"column:profile_image_url;type:text"             json:"profile_image_url,omitempty"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ReviewedBy   *string    `gorm:"type:uuid"                                      json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time `json:"reviewed_at,omitempty"`
	BaseModel

	// 关联
	College *College `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
}

// TableName 指定表名
func (User) TableName() string { return "users" }

// CollegeIDValue 返回学院 ID，未归属学院时为空串
func (u *User) CollegeIDValue() string {
	if u.CollegeID == nil {
		return ""
	}
	return *u.CollegeID
}

// IsApproved 账号是否已通过审核
func (u *User) IsApproved() bool { return u.Status == StatusApproved }
