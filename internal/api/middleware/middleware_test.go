package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/theAAcoderr/agrimodelbackend/config"
	"github.com/theAAcoderr/agrimodelbackend/internal/authz"
	"github.com/theAAcoderr/agrimodelbackend/internal/model"
	"github.com/theAAcoderr/agrimodelbackend/pkg/jwt"
	"github.com/theAAcoderr/agrimodelbackend/pkg/metrics"
	"github.com/theAAcoderr/agrimodelbackend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ── 测试替身 ──

type fakeUsers map[string]*model.User

func (f fakeUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := f[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	return f.allowed, f.err
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:       "middleware-test-secret-2026",
		SessionTokenTTL: time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
	})
}

func testUsers() fakeUsers {
	college := "c1"
	return fakeUsers{
		"u-approved": {ID: "u-approved", Role: model.RoleProfessor, Status: model.StatusApproved, IsActive: true, CollegeID: &college},
		"u-pending":  {ID: "u-pending", Role: model.RoleStudent, Status: model.StatusPending, IsActive: true, CollegeID: &college},
		"u-inactive": {ID: "u-inactive", Role: model.RoleStudent, Status: model.StatusApproved, IsActive: false},
	}
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return resp
}

func authedRouter(mgr *jwt.Manager, users UserLoader, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(mgr, users)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		p, _ := c.Get(CtxPrincipal)
		c.JSON(http.StatusOK, p)
	})
	r.GET("/protected", handlers...)
	return r
}

func doGet(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ── 身份解析 ──

func TestAuthenticate_Success(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateSessionToken("u-approved", model.RoleProfessor, "c1")

	w := doGet(authedRouter(mgr, testUsers()), token)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	var p authz.Principal
	_ = json.Unmarshal(w.Body.Bytes(), &p)
	if p.ID != "u-approved" || p.Role != model.RoleProfessor || p.CollegeID != "c1" {
		t.Errorf("注入的调用方不正确: %+v", p)
	}
}

func TestAuthenticate_Failures(t *testing.T) {
	mgr := newTestJWT()
	refresh, _ := mgr.GenerateRefreshToken("u-approved", model.RoleProfessor, "c1")
	reset, _ := mgr.GenerateResetToken("u-approved")
	inactive, _ := mgr.GenerateSessionToken("u-inactive", model.RoleStudent, "")
	missing, _ := mgr.GenerateSessionToken("u-deleted", model.RoleStudent, "")

	tests := []struct {
		name  string
		token string
	}{
		{"缺少 Token", ""},
		{"伪造 Token", "not-a-token"},
		{"刷新 Token 不能访问接口", refresh},
		{"重置 Token 不能访问接口", reset},
		{"账号已停用", inactive},
		{"用户已删除", missing},
	}
	r := authedRouter(mgr, testUsers())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(r, tt.token)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("期望 401，实际 %d", w.Code)
			}
			if resp := parseBody(t, w); resp.Code != 10002 {
				t.Errorf("期望业务码 10002，实际 %d", resp.Code)
			}
		})
	}
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateSessionToken("u-approved", model.RoleProfessor, "c1")

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token "+token)
	w := httptest.NewRecorder()
	authedRouter(mgr, testUsers()).ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("非 Bearer 方案期望 401，实际 %d", w.Code)
	}
}

// ── 权限守卫 ──

func TestRequireApproved(t *testing.T) {
	mgr := newTestJWT()
	r := authedRouter(mgr, testUsers(), RequireApproved())

	pending, _ := mgr.GenerateSessionToken("u-pending", model.RoleStudent, "c1")
	w := doGet(r, pending)
	if w.Code != http.StatusForbidden {
		t.Fatalf("待审核用户期望 403，实际 %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 10003 {
		t.Errorf("期望业务码 10003，实际 %d", resp.Code)
	}

	approved, _ := mgr.GenerateSessionToken("u-approved", model.RoleProfessor, "c1")
	if w := doGet(r, approved); w.Code != http.StatusOK {
		t.Errorf("已审核用户期望 200，实际 %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateSessionToken("u-approved", model.RoleProfessor, "c1")

	denied := authedRouter(mgr, testUsers(), RoleAuth(model.RoleSuperAdmin, model.RoleCollegeAdmin))
	if w := doGet(denied, token); w.Code != http.StatusForbidden {
		t.Errorf("角色不符期望 403，实际 %d", w.Code)
	}

	allowed := authedRouter(mgr, testUsers(), RoleAuth(model.RoleProfessor))
	if w := doGet(allowed, token); w.Code != http.StatusOK {
		t.Errorf("角色匹配期望 200，实际 %d", w.Code)
	}
}

func TestRoleAuth_WithoutAuthenticate(t *testing.T) {
	r := gin.New()
	r.GET("/x", RoleAuth(model.RoleStudent), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("未认证期望 401，实际 %d", w.Code)
	}
}

// ── 限流 ──

func limitedRouter(l RateLimiter, m *metrics.Metrics) *gin.Engine {
	r := gin.New()
	cfg := config.LimitConfig{Limit: 5, Window: time.Minute}
	r.POST("/login", RateLimit(l, "auth", cfg, m, zap.NewNop()), func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimit_Rejects(t *testing.T) {
	l := &fakeLimiter{allowed: false}
	w := httptest.NewRecorder()
	limitedRouter(l, metrics.New()).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("期望 429，实际 %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 10004 {
		t.Errorf("期望业务码 10004，实际 %d", resp.Code)
	}
	if len(l.keys) != 1 || !strings.HasPrefix(l.keys[0], "rate_limit:auth:") {
		t.Errorf("限流键应包含分组，实际=%v", l.keys)
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	for name, l := range map[string]RateLimiter{
		"Redis 出错":  &fakeLimiter{err: errors.New("connection refused")},
		"未配置 Redis": nil,
	} {
		w := httptest.NewRecorder()
		limitedRouter(l, nil).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		if w.Code != http.StatusOK {
			t.Errorf("%s 时应放行，实际 %d", name, w.Code)
		}
	}
}

// ── 其他 ──

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(16))
	r.POST("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(strings.Repeat("x", 64))))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("期望 413，实际 %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 10005 {
		t.Errorf("期望业务码 10005，实际 %d", resp.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(zap.NewNop()))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("期望 500，实际 %d", w.Code)
	}
	if resp := parseBody(t, w); resp.Code != 50000 {
		t.Errorf("期望业务码 50000，实际 %d", resp.Code)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("应返回 X-Request-ID")
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://agri.example.com/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://agri.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("预检请求期望 204，实际 %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://agri.example.com" {
		t.Error("白名单来源应被放行")
	}

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("非白名单来源不应返回 CORS 头")
	}
}

// ── 访问日志 ──

func TestLogger_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/projects/:id", func(c *gin.Context) {
		c.Set(CtxUserID, "u-1")
		c.Set(CtxRole, model.RoleProfessor)
		c.Set(CtxCollegeID, "c1")
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/p-9?x=1", nil))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("期望 1 条访问日志，得到 %d", len(entries))
	}
	e := entries[0]
	if e.Level != zapcore.WarnLevel {
		t.Errorf("4xx 应记为 Warn，得到 %v", e.Level)
	}
	fields := e.ContextMap()
	want := map[string]string{
		"route":      "/projects/:id",
		"path":       "/projects/p-9",
		"query":      "x=1",
		"user_id":    "u-1",
		"role":       model.RoleProfessor,
		"college_id": "c1",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("字段 %s = %v，期望 %s", k, fields[k], v)
		}
	}
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   zapcore.Level
	}{
		{"/health", http.StatusOK, zapcore.DebugLevel},
		{"/metrics", http.StatusOK, zapcore.DebugLevel},
		{"/health", http.StatusServiceUnavailable, zapcore.ErrorLevel},
		{"/api/v1/projects", http.StatusOK, zapcore.InfoLevel},
		{"/api/v1/projects", http.StatusForbidden, zapcore.WarnLevel},
	}
	for _, tt := range tests {
		if got := accessLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("accessLevel(%s, %d) = %v，期望 %v", tt.path, tt.status, got, tt.want)
		}
	}
}

func TestLogger_SkipsDisabledLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	if logs.Len() != 0 {
		t.Errorf("Info 级别下探活请求不应记录，得到 %d 条", logs.Len())
	}
}
