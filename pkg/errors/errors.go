package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrStaleStatus 条件更新未命中：记录状态已被其他操作改变
var ErrStaleStatus = errors.New("记录状态已被其他操作修改，请刷新后重试")

// ── PostgreSQL 错误码 ──

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

// IsUniqueViolation 是否为唯一约束冲突（如重复邮箱）
func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

// IsForeignKeyViolation 是否为外键约束冲突（如删除仍被引用的学院）
func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == pgForeignKeyViolation
}

// IsInvalidInput 参数无法转换为列类型（如非法 UUID）
func IsInvalidInput(err error) bool {
	return pgCode(err) == pgInvalidTextRepr
}

// ConstraintName 返回触发错误的约束名，非 PG 错误时为空
func ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
