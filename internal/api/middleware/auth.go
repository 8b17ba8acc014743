package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// 上下文键
const (
	CtxUserID    = "user_id"
	CtxRole      = "role"
	CtxCollegeID = "college_id"
	CtxStatus    = "status"
	CtxPrincipal = "principal"
	CtxUser      = "user"
)

// UserLoader 按 ID 读取用户
type UserLoader interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// Authenticate 身份解析中间件
// 1. 从 Authorization: Bearer <token> 中提取会话 Token
// 2. 校验签名与有效期（无效与过期统一返回 401）
// 3. 读取用户并要求 is_active
// 4. 注入 user_id / role / college_id / status / principal
func Authenticate(jwtMgr *jwt.Manager, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, 10002, "缺少认证 Token")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseTokenOfType(token, jwt.TokenTypeAccess)
		if err != nil {
			response.Unauthorized(c, 10002, "Token 无效或已过期")
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			response.Unauthorized(c, 10002, "用户不存在或已停用")
			c.Abort()
			return
		}

		// 角色与学院以数据库为准，Token 签发后的变更立即生效
		collegeID := user.CollegeIDValue()
		c.Set(CtxUserID, user.ID)
		c.Set(CtxRole, user.Role)
		c.Set(CtxCollegeID, collegeID)
		c.Set(CtxStatus, user.Status)
		c.Set(CtxUser, user)
		c.Set(CtxPrincipal, authz.Principal{ID: user.ID, Role: user.Role, CollegeID: collegeID})

		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxRole)
		if role == "" {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if role == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}

// RequireApproved 要求账号已通过审核
func RequireApproved() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get(CtxUserID); !exists {
			response.Unauthorized(c, 10002, "未认证")
			c.Abort()
			return
		}
		if c.GetString(CtxStatus) != model.StatusApproved {
			response.Forbidden(c, 10003, "账号尚未通过审核")
			c.Abort()
			return
		}
		c.Next()
	}
}
