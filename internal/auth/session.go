package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	sessionIssuer = "petty-cash"

	// PrincipalKey gin 上下文中保存登录账户的键
	PrincipalKey = "principal"
)

var (
	// ErrInvalidSession 会话无效或已过期
	ErrInvalidSession = errors.New("invalid session")
)

// SessionClaims 会话令牌声明
type SessionClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// SessionManager 签发与校验会话令牌(HS256)
type SessionManager struct {
	secret     []byte
	lifetime   time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

// NewSessionManager 创建会话管理器
func NewSessionManager(secret string, lifetime time.Duration, cookieName string, secure bool) *SessionManager {
	if cookieName == "" {
		cookieName = "pettycash_session"
	}
	return &SessionManager{
		secret:     []byte(secret),
		lifetime:   lifetime,
		cookieName: cookieName,
		secure:     secure,
		now:        time.Now,
	}
}

// CookieName 返回会话 Cookie 名称
func (m *SessionManager) CookieName() string {
	return m.cookieName
}

// Lifetime 返回会话有效期
func (m *SessionManager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue 为账户签发会话令牌
func (m *SessionManager) Issue(p Principal) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(m.lifetime)

	claims := SessionClaims{
		Username: p.Username,
		Name:     p.FullName,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   strconv.FormatUint(uint64(p.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, expiresAt, nil
}

// Parse 校验会话令牌并返回登录账户
func (m *SessionManager) Parse(tokenString string) (*Principal, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if !token.Valid {
		return nil, ErrInvalidSession
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidSession)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, ErrUnknownRole)
	}

	return &Principal{
		ID:       uint(id),
		Username: claims.Username,
		FullName: claims.Name,
		Role:     claims.Role,
	}, nil
}

// SetCookie 写入会话 Cookie
func (m *SessionManager) SetCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, token, int(m.lifetime.Seconds()), "/", "", m.secure, true)
}

// ClearCookie 清除会话 Cookie
func (m *SessionManager) ClearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, "", -1, "/", "", m.secure, true)
}

// tokenFromRequest 从 Cookie 或 Authorization 头读取令牌
func (m *SessionManager) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimPrefix(header, "Bearer ")
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil {
		return cookie
	}
	return ""
}

// SessionMiddleware 会话认证中间件
func SessionMiddleware(m *SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.tokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "login required",
			})
			c.Abort()
			return
		}

		principal, err := m.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "invalid session",
			})
			c.Abort()
			return
		}

		c.Set(PrincipalKey, *principal)
		c.Set("user_id", strconv.FormatUint(uint64(principal.ID), 10))
		c.Next()
	}
}

// RequireCapability 能力检查中间件,每个请求在入口处只检查一次
func RequireCapability(capability Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := GetPrincipal(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code":    401,
				"message": "login required",
			})
			c.Abort()
			return
		}

		if !principal.Can(capability) {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"message": "forbidden",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetPrincipal 读取当前登录账户
func GetPrincipal(c *gin.Context) (Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
