package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		total     int64
		page      int
		size      int
		wantPages int
	}{
		{0, 1, 20, 0},
		{1, 1, 20, 1},
		{20, 1, 20, 1},
		{21, 2, 20, 2},
		{5, 1, 0, 0},
	}
	for _, tt := range tests {
		p := NewPagination(tt.total, tt.page, tt.size)
		if p.TotalPages != tt.wantPages {
			t.Errorf("total=%d size=%d: TotalPages = %d，期望 %d", tt.total, tt.size, p.TotalPages, tt.wantPages)
		}
		if p.Page != tt.page || p.PageSize != tt.size || p.Total != tt.total {
			t.Errorf("分页元数据未原样回填: %+v", p)
		}
	}
}

func TestOKPage(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	OKPage(c, []string{"a", "b"}, 41, 3, 20)

	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，得到 %d", w.Code)
	}
	var body struct {
		Code int `json:"code"`
		Data struct {
			List       []string   `json:"list"`
			Pagination Pagination `json:"pagination"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if body.Code != CodeSuccess || len(body.Data.List) != 2 || body.Data.Pagination.TotalPages != 3 {
		t.Errorf("分页响应不正确: %+v", body)
	}
}

func TestErrorOmitsEmptyFields(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Conflict(c, 13003, "学院代码已存在")

	if w.Code != http.StatusConflict {
		t.Fatalf("期望 409，得到 %d", w.Code)
	}
	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if _, ok := raw["data"]; ok {
		t.Error("错误响应不应包含 data")
	}
	if _, ok := raw["details"]; ok {
		t.Error("未传 details 时不应输出该字段")
	}
	if raw["code"].(float64) != 13003 {
		t.Errorf("业务码 = %v，期望 13003", raw["code"])
	}
}
