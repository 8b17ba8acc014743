package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/storage"
)

// memoryStore 记录上传键的内存对象存储
type memoryStore struct {
	objects map[string]storage.Object
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: make(map[string]storage.Object)}
}

func (m *memoryStore) Upload(_ context.Context, key string, body io.Reader, size int64, contentType string) (*storage.Object, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return nil, err
	}
	obj := storage.Object{Key: key, URL: "https://cdn.test/" + key, Bucket: "agri", Size: size, ContentType: contentType, LastModified: time.Now()}
	m.objects[key] = obj
	return &obj, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	if _, ok := m.objects[key]; !ok {
		return storage.ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

func (m *memoryStore) Head(_ context.Context, key string) (*storage.Object, error) {
	obj, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return &obj, nil
}

func (m *memoryStore) List(_ context.Context, prefix string, _ int32) ([]storage.Object, error) {
	var result []storage.Object
	for k, obj := range m.objects {
		if strings.HasPrefix(k, prefix) {
			result = append(result, obj)
		}
	}
	return result, nil
}

func (m *memoryStore) Bucket() string { return "agri" }

func newTestUploadService(store storage.BlobStore, m *metrics.Metrics) *uploadService {
	svc := NewUploadService(&config.StorageConfig{MaxFileSize: 1024}, store, m, zap.NewNop()).(*uploadService)
	svc.now = func() time.Time { return time.Date(2026, 3, 9, 23, 30, 0, 0, time.UTC) }
	return svc
}

func textFile(name string, size int) UploadFile {
	return UploadFile{Name: name, Size: int64(size), ContentType: "text/csv", Body: strings.NewReader(strings.Repeat("x", size))}
}

// ── 上传 ──

func TestUpload_Success(t *testing.T) {
	store := newMemoryStore()
	svc := newTestUploadService(store, nil)

	result, err := svc.Upload(context.Background(), textFile("yield 2026.csv", 100), UploadOptions{ProjectID: "p1"})
	if err != nil {
		t.Fatalf("Upload 失败: %v", err)
	}
	if result.IsFallback {
		t.Error("存储可用时不应降级")
	}
	wantPrefix := "projects/p1/documents/2026-03-09/"
	if !strings.HasPrefix(result.Key, wantPrefix) {
		t.Errorf("期望键以 %s 开头，实际=%s", wantPrefix, result.Key)
	}
	if !strings.HasSuffix(result.Key, "-yield_2026.csv") {
		t.Errorf("文件名应清洗空白字符，实际=%s", result.Key)
	}
	if result.FileType != "document" {
		t.Errorf("期望 document，实际=%s", result.FileType)
	}
	if _, ok := store.objects[result.Key]; !ok {
		t.Error("对象应写入存储")
	}
}

func TestUpload_FallbackWhenStoreUnavailable(t *testing.T) {
	m := metrics.New()
	svc := newTestUploadService(storage.DisabledStore{}, m)

	result, err := svc.Upload(context.Background(), textFile("plot.csv", 10), UploadOptions{})
	if err != nil {
		t.Fatalf("存储不可用时上传仍应成功: %v", err)
	}
	if !result.IsFallback || result.Bucket != "local-fallback" {
		t.Errorf("期望降级结果，实际=%+v", result)
	}
	if !strings.HasPrefix(result.Key, "fallback-") || !strings.HasPrefix(result.URL, "/uploads/") {
		t.Errorf("降级键与地址格式不正确: key=%s url=%s", result.Key, result.URL)
	}
}

func TestUpload_TooLarge(t *testing.T) {
	svc := newTestUploadService(newMemoryStore(), nil)

	if _, err := svc.Upload(context.Background(), textFile("big.csv", 2048), UploadOptions{}); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("期望 ErrFileTooLarge，实际: %v", err)
	}
}

func TestUpload_TypeNotAllowed(t *testing.T) {
	svc := newTestUploadService(newMemoryStore(), nil)

	file := UploadFile{Name: "run.exe", Size: 10, ContentType: "application/x-msdownload", Body: strings.NewReader("MZ")}
	if _, err := svc.Upload(context.Background(), file, UploadOptions{}); !errors.Is(err, ErrFileTypeNotAllowed) {
		t.Errorf("期望 ErrFileTypeNotAllowed，实际: %v", err)
	}

	// MIME 不在白名单但扩展名合法时放行
	file = UploadFile{Name: "photo.JPG", Size: 10, ContentType: "application/octet-stream", Body: strings.NewReader("x")}
	if _, err := svc.Upload(context.Background(), file, UploadOptions{}); err != nil {
		t.Errorf("合法扩展名应允许上传: %v", err)
	}
}

func TestUploadMany(t *testing.T) {
	svc := newTestUploadService(newMemoryStore(), nil)

	files := []UploadFile{textFile("a.csv", 10), textFile("b.csv", 4096), textFile("c.csv", 10)}
	resp, err := svc.UploadMany(context.Background(), files, UploadOptions{FileType: "attachment"})
	if err != nil {
		t.Fatalf("UploadMany 失败: %v", err)
	}
	if resp.Successful != 2 || resp.Failed != 1 || resp.TotalFiles != 3 {
		t.Errorf("期望成功 2 失败 1，实际=%+v", resp)
	}
	for _, f := range resp.Files {
		if !strings.HasPrefix(f.Key, "attachments/") {
			t.Errorf("指定 fileType 时应使用对应目录，实际=%s", f.Key)
		}
	}
}

func TestUploadMany_TooManyFiles(t *testing.T) {
	svc := newTestUploadService(newMemoryStore(), nil)

	files := make([]UploadFile, MaxFilesPerUpload+1)
	for i := range files {
		files[i] = textFile("f.csv", 1)
	}
	if _, err := svc.UploadMany(context.Background(), files, UploadOptions{}); !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("期望 ErrTooManyFiles，实际: %v", err)
	}
}

// ── 查询与删除 ──

func TestUpload_InfoAndDelete(t *testing.T) {
	store := newMemoryStore()
	svc := newTestUploadService(store, nil)

	result, err := svc.Upload(context.Background(), textFile("a.csv", 5), UploadOptions{})
	if err != nil {
		t.Fatalf("Upload 失败: %v", err)
	}

	info, err := svc.Info(context.Background(), "/"+result.Key)
	if err != nil {
		t.Fatalf("Info 失败: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("期望大小 5，实际=%d", info.Size)
	}

	list, err := svc.List(context.Background(), "documents")
	if err != nil || list.Count != 1 {
		t.Errorf("期望列出 1 个文件，实际=%v err=%v", list, err)
	}

	if err := svc.Delete(context.Background(), result.Key); err != nil {
		t.Fatalf("Delete 失败: %v", err)
	}
	if _, err := svc.Info(context.Background(), result.Key); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("删除后期望 ErrFileNotFound，实际: %v", err)
	}
}

func TestUpload_InvalidKeys(t *testing.T) {
	svc := newTestUploadService(newMemoryStore(), nil)

	for _, key := range []string{"", "/", "images/../../etc/passwd"} {
		if err := svc.Delete(context.Background(), key); !errors.Is(err, ErrInvalidFileKey) {
			t.Errorf("键 %q 期望 ErrInvalidFileKey，实际: %v", key, err)
		}
	}
	if _, err := svc.List(context.Background(), "../"); !errors.Is(err, ErrInvalidUploadFolder) {
		t.Errorf("期望 ErrInvalidUploadFolder，实际: %v", err)
	}
}

func TestUpload_StoreUnavailable(t *testing.T) {
	svc := newTestUploadService(storage.DisabledStore{}, nil)

	if _, err := svc.Info(context.Background(), "images/a.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("期望 ErrStorageUnavailable，实际: %v", err)
	}
	if err := svc.Delete(context.Background(), "images/a.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("期望 ErrStorageUnavailable，实际: %v", err)
	}
}
