package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/api/middleware"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	pkgerrors "github.com/theAAcoderr/agrimodelbackend/pkg/errors"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// errorResponder 模块未识别错误的统一出口
// production 为 true 时不向客户端暴露原始错误信息
type errorResponder struct {
	production bool
}

// handleCommonError 全局错误分类
//   - 23505 唯一约束 → 409 / 10006
//   - 23503 外键约束 → 400 / 10007
//   - 22P02 非法输入 → 400 / 10001
//   - 权限不足 → 403 / 10003
//   - 参数校验 → 400 / 10001
//   - 其余 → 500 / 50000
func (r errorResponder) handleCommonError(c *gin.Context, err error) {
	switch {
	case pkgerrors.IsUniqueViolation(err):
		response.Conflict(c, 10006, "数据已存在")
	case pkgerrors.IsForeignKeyViolation(err):
		response.BadRequest(c, 10007, "数据仍被其他记录引用或关联记录不存在")
	case pkgerrors.IsInvalidInput(err):
		response.BadRequest(c, 10001, "参数格式不正确")
	case errors.Is(err, service.ErrForbidden), errors.Is(err, service.ErrNoPermission):
		response.Forbidden(c, 10003, err.Error())
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, 10001, err.Error())
	case middleware.IsBodyTooLarge(err):
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
	default:
		_ = c.Error(err)
		if r.production {
			response.InternalError(c)
			return
		}
		response.InternalErrorWithDetails(c, err.Error())
	}
}

// handleBindError 请求绑定失败
func (r errorResponder) handleBindError(c *gin.Context, err error) {
	if middleware.IsBodyTooLarge(err) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	if r.production {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
