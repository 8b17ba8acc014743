package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrObjectNotFound 对象不存在
	ErrObjectNotFound = errors.New("storage: object not found")
	// ErrUnavailable 对象存储未配置或不可达
	ErrUnavailable = errors.New("storage: blob store unavailable")
)

// Object 对象元信息
type Object struct {
	Key          string    `json:"key"`
	URL          string    `json:"url"`
	Bucket       string    `json:"bucket,omitempty"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// BlobStore 对象存储契约：上传、删除、查询、按前缀列举
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
	Head(ctx context.Context, key string) (*Object, error)
	List(ctx context.Context, prefix string, maxKeys int32) ([]Object, error)
	Bucket() string
}

// DisabledStore 未配置对象存储时使用，所有操作返回 ErrUnavailable
type DisabledStore struct{}

func (DisabledStore) Upload(context.Context, string, io.Reader, int64, string) (*Object, error) {
	return nil, ErrUnavailable
}
func (DisabledStore) Delete(context.Context, string) error { return ErrUnavailable }
func (DisabledStore) Head(context.Context, string) (*Object, error) {
	return nil, ErrUnavailable
}
func (DisabledStore) List(context.Context, string, int32) ([]Object, error) {
	return nil, ErrUnavailable
}
func (DisabledStore) Bucket() string { return "" }
