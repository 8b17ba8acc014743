package dto

import "time"

// ── 上传模块响应 ──

// UploadResult 单个文件上传结果
type UploadResult struct {
	URL          string `json:"url"`
	Key          string `json:"key"`
	OriginalName string `json:"original_name"`
	Size         int64  `json:"size"`
	MimeType     string `json:"mimetype"`
	FileType     string `json:"file_type"`
	Bucket       string `json:"bucket"`
	IsFallback   bool   `json:"is_fallback"`
}

// UploadResponse 单文件上传响应
type UploadResponse struct {
	Message string `json:"message"`
	UploadResult
}

// MultiUploadResponse 多文件上传响应
type MultiUploadResponse struct {
	Message    string         `json:"message"`
	Files      []UploadResult `json:"files"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	TotalFiles int            `json:"total_files"`
}

// FileInfo 对象信息
type FileInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
	URL          string    `json:"url"`
}

// FileListResponse 目录列举结果
type FileListResponse struct {
	Folder string     `json:"folder"`
	Files  []FileInfo `json:"files"`
	Count  int        `json:"count"`
}
