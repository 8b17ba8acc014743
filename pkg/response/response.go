// Package response 统一 JSON 响应外壳
//
// 所有接口返回 {code, message, data?, details?}，code 为 0 表示成功，
// 业务错误码按模块分段（1xxxx 通用与各业务模块，5xxxx 服务端）。
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// 跨模块共用的业务码
const (
	CodeSuccess        = 0
	CodeTooManyRequest = 10004
	CodeInternal       = 50000
	CodeUnavailable    = 50300
)

const msgSuccess = "success"

// Response 响应外壳
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Details string `json:"details,omitempty"`
}

// ── 错误 ──

// Error 任意状态码 + 业务码
func Error(c *gin.Context, httpStatus, code int, message string) {
	c.JSON(httpStatus, Response{Code: code, Message: message})
}

// ErrorWithDetails 附带 details，仅开发环境或绑定错误使用
func ErrorWithDetails(c *gin.Context, httpStatus, code int, message, details string) {
	c.JSON(httpStatus, Response{Code: code, Message: message, Details: details})
}

func BadRequest(c *gin.Context, code int, message string) {
	Error(c, http.StatusBadRequest, code, message)
}

func Unauthorized(c *gin.Context, code int, message string) {
	Error(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code int, message string) {
	Error(c, http.StatusForbidden, code, message)
}

func NotFound(c *gin.Context, code int, message string) {
	Error(c, http.StatusNotFound, code, message)
}

func Conflict(c *gin.Context, code int, message string) {
	Error(c, http.StatusConflict, code, message)
}

// TooManyRequests 限流，业务码固定
func TooManyRequests(c *gin.Context, message string) {
	Error(c, http.StatusTooManyRequests, CodeTooManyRequest, message)
}

// InternalError 500，不带任何内部信息
func InternalError(c *gin.Context) {
	Error(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误")
}

// InternalErrorWithDetails 500，details 由调用方决定是否传入原始错误
func InternalErrorWithDetails(c *gin.Context, details string) {
	ErrorWithDetails(c, http.StatusInternalServerError, CodeInternal, "服务器内部错误", details)
}

// ServiceUnavailable 503，data 携带各依赖的检查结果
func ServiceUnavailable(c *gin.Context, data any) {
	c.JSON(http.StatusServiceUnavailable, Response{Code: CodeUnavailable, Message: "服务不可用", Data: data})
}

// ── 成功 ──

func OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: CodeSuccess, Message: msgSuccess, Data: data})
}

func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{Code: CodeSuccess, Message: msgSuccess, Data: data})
}

// ── 分页 ──

// Pagination 分页元数据
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// PageData 列表 + 分页
type PageData struct {
	List       any        `json:"list"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination pageSize 非正时 TotalPages 记为 0
func NewPagination(total int64, page, pageSize int) Pagination {
	p := Pagination{Page: page, PageSize: pageSize, Total: total}
	if pageSize > 0 {
		p.TotalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return p
}

// OKPage 200 分页列表
func OKPage(c *gin.Context, list any, total int64, page, pageSize int) {
	OK(c, PageData{List: list, Pagination: NewPagination(total, page, pageSize)})
}
