package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/theAAcoderr/agrimodelbackend/config"
)

var (
	ErrTokenExpired = errors.New("token 已过期")
	ErrTokenInvalid = errors.New("token 无效")
)

// ── Token 类型 ──

const (
	TokenTypeAccess        = "access"
	TokenTypeRefresh       = "refresh"
	TokenTypePasswordReset = "password_reset"
)

const issuer = "agrimodel"

// Claims 自定义 JWT 声明
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role,omitempty"`
	CollegeID string `json:"college_id,omitempty"`
	Type      string `json:"type"` // access | refresh | password_reset
	jwtv5.RegisteredClaims
}

// Manager JWT 管理器
// 仅做签名与有效期校验，不维护服务端吊销列表
type Manager struct {
	secret          []byte
	sessionTokenTTL time.Duration
	refreshTokenTTL time.Duration
	resetTokenTTL   time.Duration
	now             func() time.Time
}

// NewManager 创建 JWT 管理器
func NewManager(cfg *config.AuthConfig) *Manager {
	return &Manager{
		secret:          []byte(cfg.JWTSecret),
		sessionTokenTTL: cfg.SessionTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		resetTokenTTL:   cfg.ResetTokenTTL,
		now:             time.Now,
	}
}

// SessionTTL 会话 Token 有效期
func (m *Manager) SessionTTL() time.Duration { return m.sessionTokenTTL }

// GenerateSessionToken 生成会话 Token（默认 7 天）
func (m *Manager) GenerateSessionToken(userID, role, collegeID string) (string, error) {
	return m.sign(Claims{
		UserID:    userID,
		Role:      role,
		CollegeID: collegeID,
		Type:      TokenTypeAccess,
	}, m.sessionTokenTTL)
}

// GenerateRefreshToken 生成刷新 Token（默认 30 天）
func (m *Manager) GenerateRefreshToken(userID, role, collegeID string) (string, error) {
	return m.sign(Claims{
		UserID:    userID,
		Role:      role,
		CollegeID: collegeID,
		Type:      TokenTypeRefresh,
	}, m.refreshTokenTTL)
}

// GenerateResetToken 生成密码重置 Token（默认 1 小时，type=password_reset）
func (m *Manager) GenerateResetToken(userID string) (string, error) {
	return m.sign(Claims{
		UserID: userID,
		Type:   TokenTypePasswordReset,
	}, m.resetTokenTTL)
}

func (m *Manager) sign(claims Claims, ttl time.Duration) (string, error) {
	now := m.now()
	claims.RegisteredClaims = jwtv5.RegisteredClaims{
		ID:        uuid.New().String(),
		Subject:   claims.UserID,
		IssuedAt:  jwtv5.NewNumericDate(now),
		ExpiresAt: jwtv5.NewNumericDate(now.Add(ttl)),
		Issuer:    issuer,
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken 解析并验证 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(issuer), jwtv5.WithTimeFunc(m.now))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// ParseTokenOfType 解析 Token 并要求类型匹配
func (m *Manager) ParseTokenOfType(tokenString, tokenType string) (*Claims, error) {
	claims, err := m.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != tokenType {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
