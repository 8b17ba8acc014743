package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/dto"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/storage"
)

// ── 上传模块业务错误 ──

var (
	ErrFileRequired        = errors.New("未上传文件")
	ErrFileTooLarge        = errors.New("文件大小超过限制")
	ErrFileTypeNotAllowed  = errors.New("不支持的文件类型")
	ErrTooManyFiles        = errors.New("单次最多上传 10 个文件")
	ErrInvalidFileKey      = errors.New("无效的文件路径")
	ErrFileNotFound        = errors.New("文件不存在")
	ErrStorageUnavailable  = errors.New("对象存储暂不可用")
	ErrInvalidUploadFolder = errors.New("无效的目录")
)

const (
	// MaxFilesPerUpload 多文件上传的数量上限
	MaxFilesPerUpload = 10

	fallbackBucket  = "local-fallback"
	listMaxKeys     = 1000
	defaultMaxBytes = 10 << 20
)

var allowedMimeTypes = mimeSet(
	// 图片
	"image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp", "image/bmp",
	// 视频
	"video/mp4", "video/avi", "video/mov", "video/quicktime", "video/x-msvideo", "video/webm",
	// 音频
	"audio/mpeg", "audio/mp3", "audio/wav", "audio/aac", "audio/m4a", "audio/ogg",
	// 文档
	"application/pdf", "application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"text/csv", "application/json", "text/plain",
)

func mimeSet(types ...string) map[string]bool {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return set
}

var allowedExtensions = regexp.MustCompile(`(?i)\.(jpeg|jpg|png|gif|webp|bmp|mp4|avi|mov|mp3|wav|aac|m4a|ogg|pdf|doc|docx|xls|xlsx|csv|json|txt)$`)

var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}._-]+`)

// fileType → 目录名
var folderByFileType = map[string]string{
	"image":      "images",
	"video":      "videos",
	"audio":      "audio",
	"document":   "documents",
	"attachment": "attachments",
}

// UploadFile 待上传文件
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// UploadOptions 上传目录参数
type UploadOptions struct {
	FileType  string // image | video | audio | document | attachment，为空时按 MIME 推断
	ProjectID string
}

// UploadService 文件上传业务接口
type UploadService interface {
	Upload(ctx context.Context, file UploadFile, opts UploadOptions) (*dto.UploadResult, error)
	UploadMany(ctx context.Context, files []UploadFile, opts UploadOptions) (*dto.MultiUploadResponse, error)
	Delete(ctx context.Context, key string) error
	Info(ctx context.Context, key string) (*dto.FileInfo, error)
	List(ctx context.Context, folder string) (*dto.FileListResponse, error)
}

type uploadService struct {
	store   storage.BlobStore
	maxSize int64
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploadService 创建 UploadService 实例
func NewUploadService(cfg *config.StorageConfig, store storage.BlobStore, m *metrics.Metrics, logger *zap.Logger) UploadService {
	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = defaultMaxBytes
	}
	return &uploadService{store: store, maxSize: maxSize, metrics: m, logger: logger, now: time.Now}
}

// ────────────────────── Upload ──────────────────────

// Upload 上传单个文件
// 1. 校验大小与类型
// 2. 生成目录 [projects/<id>/]<类别>/<YYYY-MM-DD> 与对象键
// 3. 对象存储失败时返回本地占位地址，请求仍视为成功
func (s *uploadService) Upload(ctx context.Context, file UploadFile, opts UploadOptions) (*dto.UploadResult, error) {
	if err := s.validate(file); err != nil {
		return nil, err
	}

	now := s.now()
	fileType := opts.FileType
	if fileType == "" {
		fileType = fileTypeOf(file.ContentType)
	}
	name := safeFileName(file.Name)
	stamp := fmt.Sprintf("%d-%s", now.UnixMilli(), name)
	key := folderPath(fileType, opts.ProjectID, now) + "/" + stamp

	result := &dto.UploadResult{
		OriginalName: file.Name,
		Size:         file.Size,
		MimeType:     file.ContentType,
		FileType:     fileType,
	}

	obj, err := s.store.Upload(ctx, key, file.Body, file.Size, file.ContentType)
	if err != nil {
		s.logger.Warn("对象存储上传失败，使用本地占位地址",
			zap.String("key", key), zap.Error(err))
		s.metrics.ObserveUploadFallback()

		result.URL = "/uploads/" + stamp
		result.Key = "fallback-" + stamp
		result.Bucket = fallbackBucket
		result.IsFallback = true
		return result, nil
	}

	result.URL = obj.URL
	result.Key = obj.Key
	result.Bucket = obj.Bucket
	return result, nil
}

func (s *uploadService) validate(file UploadFile) error {
	if file.Body == nil || file.Name == "" {
		return ErrFileRequired
	}
	if file.Size > s.maxSize {
		return fmt.Errorf("%w（最大 %d 字节）", ErrFileTooLarge, s.maxSize)
	}
	mime := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	if !allowedMimeTypes[mime] && !allowedExtensions.MatchString(file.Name) {
		return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, file.ContentType)
	}
	return nil
}

// UploadMany 逐个上传，单个文件校验失败计入 failed，不影响其余文件
func (s *uploadService) UploadMany(ctx context.Context, files []UploadFile, opts UploadOptions) (*dto.MultiUploadResponse, error) {
	if len(files) == 0 {
		return nil, ErrFileRequired
	}
	if len(files) > MaxFilesPerUpload {
		return nil, ErrTooManyFiles
	}

	resp := &dto.MultiUploadResponse{
		Files:      make([]dto.UploadResult, 0, len(files)),
		TotalFiles: len(files),
	}
	for _, f := range files {
		result, err := s.Upload(ctx, f, opts)
		if err != nil {
			s.logger.Warn("文件上传被拒绝", zap.String("name", f.Name), zap.Error(err))
			resp.Failed++
			continue
		}
		resp.Files = append(resp.Files, *result)
		resp.Successful++
	}
	resp.Message = fmt.Sprintf("成功上传 %d 个文件", resp.Successful)
	return resp, nil
}

// ────────────────────── Delete / Info / List ──────────────────────

func (s *uploadService) Delete(ctx context.Context, key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, key); err != nil {
		return s.storeError("删除文件失败", key, err)
	}
	return nil
}

func (s *uploadService) Info(ctx context.Context, key string) (*dto.FileInfo, error) {
	key, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.store.Head(ctx, key)
	if err != nil {
		return nil, s.storeError("查询文件失败", key, err)
	}
	return toFileInfo(obj), nil
}

func (s *uploadService) List(ctx context.Context, folder string) (*dto.FileListResponse, error) {
	folder = strings.Trim(folder, "/")
	if folder == "" || strings.Contains(folder, "..") {
		return nil, ErrInvalidUploadFolder
	}

	objects, err := s.store.List(ctx, folder+"/", listMaxKeys)
	if err != nil {
		return nil, s.storeError("列举文件失败", folder, err)
	}

	files := make([]dto.FileInfo, 0, len(objects))
	for i := range objects {
		files = append(files, *toFileInfo(&objects[i]))
	}
	return &dto.FileListResponse{Folder: folder, Files: files, Count: len(files)}, nil
}

func (s *uploadService) storeError(msg, key string, err error) error {
	switch {
	case errors.Is(err, storage.ErrObjectNotFound):
		return ErrFileNotFound
	case errors.Is(err, storage.ErrUnavailable):
		return ErrStorageUnavailable
	}
	s.logger.Error(msg, zap.String("key", key), zap.Error(err))
	return err
}

// ── 辅助函数 ──

func toFileInfo(obj *storage.Object) *dto.FileInfo {
	return &dto.FileInfo{
		Key:          obj.Key,
		Size:         obj.Size,
		ContentType:  obj.ContentType,
		LastModified: obj.LastModified,
		URL:          obj.URL,
	}
}

func fileTypeOf(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "image"
	case strings.HasPrefix(mime, "video/"):
		return "video"
	case strings.HasPrefix(mime, "audio/"):
		return "audio"
	case strings.Contains(mime, "pdf"), strings.Contains(mime, "document"), strings.Contains(mime, "text"):
		return "document"
	default:
		return "attachment"
	}
}

func folderPath(fileType, projectID string, now time.Time) string {
	folder, ok := folderByFileType[fileType]
	if !ok {
		folder = "uploads"
	}
	folder += "/" + now.UTC().Format("2006-01-02")
	if projectID != "" {
		return "projects/" + projectID + "/" + folder
	}
	return folder
}

func safeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeNameChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "_" {
		return "file"
	}
	return name
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidFileKey
	}
	return key, nil
}
