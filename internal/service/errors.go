package service

import (
	"errors"
	"fmt"
)

// ── 通用业务错误 ──
// 未被各模块 handleXxxError 捕获时由全局分类器映射

var (
	ErrForbidden  = errors.New("无权执行该操作")
	ErrValidation = errors.New("参数校验失败")
)

// validationError 包装为可被 errors.Is(err, ErrValidation) 识别的校验错误
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// statusConflict 包装状态冲突错误并附带当前状态
func statusConflict(sentinel error, current string) error {
	return fmt.Errorf("%w（当前状态: %s）", sentinel, current)
}
