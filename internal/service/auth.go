package service

import (
	"crypto/subtle"
	"errors"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"deptinbox/backend/internal/auth/jwt"
)

var (
	// ErrInvalidCredentials 用户名或密码错误
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrAuthDisabled 未配置管理员密码
	ErrAuthDisabled = errors.New("admin authentication is not configured")
)

// AuthService 校验管理员凭据并签发令牌。
type AuthService struct {
	username     string
	passwordHash []byte
	tokens       *jwt.Manager
	log          *zap.Logger
}

// NewAuthService 创建管理员认证服务，passwordHash 为 bcrypt 哈希。
func NewAuthService(username, passwordHash string, tokens *jwt.Manager, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		username:     username,
		passwordHash: []byte(passwordHash),
		tokens:       tokens,
		log:          log,
	}
}

// Enabled 是否配置了管理员密码
func (s *AuthService) Enabled() bool {
	return len(s.passwordHash) > 0 && s.tokens != nil
}

// Login 校验凭据，成功后返回访问令牌。
func (s *AuthService) Login(username, password string) (*jwt.Token, error) {
	if !s.Enabled() {
		return nil, ErrAuthDisabled
	}

	username = strings.TrimSpace(username)
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	// 用户名错误时同样执行 bcrypt 比较
	passErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !userOK || passErr != nil {
		s.log.Warn("admin login rejected", zap.String("username", username))
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(s.username)
	if err != nil {
		return nil, err
	}
	s.log.Info("admin logged in", zap.String("username", s.username))
	return token, nil
}

// ValidateToken 校验访问令牌
func (s *AuthService) ValidateToken(token string) (*jwt.Claims, error) {
	if s.tokens == nil {
		return nil, ErrAuthDisabled
	}
	return s.tokens.ValidateToken(token)
}

// HashPassword 生成 bcrypt 哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
