package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \"0123456789abcdef0123\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Auth.SessionTokenTTL != 168*time.Hour {
		t.Errorf("期望 session_token_ttl=168h，实际=%v", cfg.Auth.SessionTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 720*time.Hour {
		t.Errorf("期望 refresh_token_ttl=720h，实际=%v", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Auth.BcryptCost != 10 {
		t.Errorf("期望 bcrypt_cost=10，实际=%d", cfg.Auth.BcryptCost)
	}
	if !cfg.Auth.AllowMultipleSuperAdmins {
		t.Error("期望默认允许多个超级管理员")
	}
	if cfg.Cache.DefaultTTL != 300*time.Second {
		t.Errorf("期望 cache.default_ttl=300s，实际=%v", cfg.Cache.DefaultTTL)
	}
	if cfg.RateLimit.Auth.Limit != 5 || cfg.RateLimit.Auth.Window != 15*time.Minute {
		t.Errorf("认证限流默认值错误: %+v", cfg.RateLimit.Auth)
	}
}

func TestLoad_ShortSecret(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \"short\"\n")

	if _, err := Load(path); err == nil {
		t.Fatal("短密钥应校验失败")
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "auth:\n  jwt_secret: \"0123456789abcdef0123\"\n")
	t.Setenv("AGRI_AUTH_ALLOW_MULTIPLE_SUPER_ADMINS", "false")
	t.Setenv("AGRI_SERVER_PORT", "9090")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if cfg.Auth.AllowMultipleSuperAdmins {
		t.Error("环境变量应关闭多超级管理员")
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("期望 port=9090，实际=%d", cfg.Server.Port)
	}
}

func TestValidate_RedisCacheRequiresRedis(t *testing.T) {
	cfg := &Config{
		Server:  ServerConfig{Port: 5000},
		Auth:    AuthConfig{JWTSecret: "0123456789abcdef0123", BcryptCost: 10},
		Cache:   CacheConfig{Driver: "redis"},
		Storage: StorageConfig{Driver: "s3"},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("cache.driver=redis 且未启用 redis 应校验失败")
	}

	cfg.Redis.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("启用 redis 后应通过校验: %v", err)
	}
}
