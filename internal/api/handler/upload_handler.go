package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/internal/service"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

// UploadHandler 文件上传 HTTP 处理器
type UploadHandler struct {
	errorResponder
	uploadSvc service.UploadService
}

// NewUploadHandler 创建 UploadHandler
func NewUploadHandler(uploadSvc service.UploadService, production bool) *UploadHandler {
	return &UploadHandler{errorResponder: errorResponder{production: production}, uploadSvc: uploadSvc}
}

// UploadSingle 上传单个文件
// POST /api/v1/uploads/single  multipart: file, fileType?, projectId?
func (h *UploadHandler) UploadSingle(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.handleUploadError(c, service.ErrFileRequired)
			return
		}
		h.handleBindError(c, err)
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.handleCommonError(c, err)
		return
	}
	defer f.Close()

	result, err := h.uploadSvc.Upload(c.Request.Context(), uploadFile(fh, f), uploadOptions(c))
	if err != nil {
		h.handleUploadError(c, err)
		return
	}

	msg := "文件上传成功"
	if result.IsFallback {
		msg = "对象存储不可用，文件已记录为本地占位"
	}
	response.Created(c, dto.UploadResponse{Message: msg, UploadResult: *result})
}

// UploadMultiple 上传多个文件（最多 10 个）
// POST /api/v1/uploads/multiple  multipart: files[], fileType?, projectId?
func (h *UploadHandler) UploadMultiple(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleBindError(c, err)
		return
	}

	headers := form.File["files"]
	if len(headers) > service.MaxFilesPerUpload {
		h.handleUploadError(c, service.ErrTooManyFiles)
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			h.handleCommonError(c, err)
			return
		}
		defer f.Close()
		files = append(files, uploadFile(fh, f))
	}

	resp, err := h.uploadSvc.UploadMany(c.Request.Context(), files, uploadOptions(c))
	if err != nil {
		h.handleUploadError(c, err)
		return
	}

	response.Created(c, resp)
}

// DeleteFile 删除对象
// DELETE /api/v1/uploads/delete/*key
func (h *UploadHandler) DeleteFile(c *gin.Context) {
	key := wildcardParam(c, "key")
	if err := h.uploadSvc.Delete(c.Request.Context(), key); err != nil {
		h.handleUploadError(c, err)
		return
	}

	response.OK(c, dto.MessageResponse{Message: "文件已删除"})
}

// FileInfo 对象元数据
// GET /api/v1/uploads/info/*key
func (h *UploadHandler) FileInfo(c *gin.Context) {
	info, err := h.uploadSvc.Info(c.Request.Context(), wildcardParam(c, "key"))
	if err != nil {
		h.handleUploadError(c, err)
		return
	}

	response.OK(c, info)
}

// ListFiles 列举目录
// GET /api/v1/uploads/list/*folder
func (h *UploadHandler) ListFiles(c *gin.Context) {
	list, err := h.uploadSvc.List(c.Request.Context(), wildcardParam(c, "folder"))
	if err != nil {
		h.handleUploadError(c, err)
		return
	}

	response.OK(c, list)
}

func uploadFile(fh *multipart.FileHeader, f multipart.File) service.UploadFile {
	return service.UploadFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Body:        f,
	}
}

func uploadOptions(c *gin.Context) service.UploadOptions {
	return service.UploadOptions{
		FileType:  c.PostForm("fileType"),
		ProjectID: c.PostForm("projectId"),
	}
}

// wildcardParam 通配路径参数带有前导 "/"
func wildcardParam(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

// handleUploadError 统一处理上传模块业务错误
func (h *UploadHandler) handleUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrFileRequired):
		response.BadRequest(c, 21001, "请选择要上传的文件")
	case errors.Is(err, service.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, 21002, err.Error())
	case errors.Is(err, service.ErrFileTypeNotAllowed):
		response.BadRequest(c, 21003, err.Error())
	case errors.Is(err, service.ErrTooManyFiles):
		response.BadRequest(c, 21004, "单次最多上传 10 个文件")
	case errors.Is(err, service.ErrInvalidFileKey):
		response.BadRequest(c, 21005, "无效的文件路径")
	case errors.Is(err, service.ErrInvalidUploadFolder):
		response.BadRequest(c, 21006, "无效的目录")
	case errors.Is(err, service.ErrFileNotFound):
		response.NotFound(c, 21007, "文件不存在")
	case errors.Is(err, service.ErrStorageUnavailable):
		response.Error(c, http.StatusServiceUnavailable, 50300, "对象存储暂不可用")
	default:
		h.handleCommonError(c, err)
	}
}
