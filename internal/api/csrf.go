package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// CSRFHeaderName CSRF Token 请求头
	CSRFHeaderName = "X-CSRF-Token"
	// CSRFFormField 表单提交时的 CSRF 字段
	CSRFFormField = "csrf_token"
)

// CSRFConfig CSRF 配置
type CSRFConfig struct {
	SecretKey      string        // HMAC 密钥
	TokenLength    int           // 随机部分长度
	TokenTTL       time.Duration // Token 有效期
	HeaderName     string        // Token 请求头名称
	CookieName     string        // Cookie 名称
	CookieSecure   bool          // Cookie 是否仅 HTTPS
	CookieSameSite http.SameSite // Cookie SameSite 属性
}

// DefaultCSRFConfig 默认 CSRF 配置
func DefaultCSRFConfig(secret string) *CSRFConfig {
	return &CSRFConfig{
		SecretKey:      secret,
		TokenLength:    32,
		TokenTTL:       24 * time.Hour,
		HeaderName:     CSRFHeaderName,
		CookieName:     "csrf_token",
		CookieSecure:   false,
		CookieSameSite: http.SameSiteStrictMode,
	}
}

// CSRFProtector 无状态 CSRF Token:随机数.过期时间.HMAC
// 不在服务端保存 token,也就不需要清理过期 token
type CSRFProtector struct {
	config *CSRFConfig
	now    func() time.Time
}

// NewCSRFProtector 创建 CSRF 保护器
func NewCSRFProtector(config *CSRFConfig) *CSRFProtector {
	return &CSRFProtector{config: config, now: time.Now}
}

// GenerateToken 生成 CSRF Token
func (p *CSRFProtector) GenerateToken() (string, error) {
	nonce := make([]byte, p.config.TokenLength)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(nonce) + "." +
		strconv.FormatInt(p.now().Add(p.config.TokenTTL).Unix(), 10)
	return payload + "." + p.sign(payload), nil
}

// ValidateToken 验证 CSRF Token 的签名与有效期
func (p *CSRFProtector) ValidateToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	payload := parts[0] + "." + parts[1]
	if !hmac.Equal([]byte(parts[2]), []byte(p.sign(payload))) {
		return false
	}
	expiresAt, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return false
	}
	return p.now().Unix() <= expiresAt
}

func (p *CSRFProtector) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(p.config.SecretKey))
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Issue 生成 token 并写入 Cookie
func (p *CSRFProtector) Issue(c *gin.Context) (string, error) {
	token, err := p.GenerateToken()
	if err != nil {
		return "", err
	}
	c.SetSameSite(p.config.CookieSameSite)
	c.SetCookie(
		p.config.CookieName,
		token,
		int(p.config.TokenTTL.Seconds()),
		"/",
		"",
		p.config.CookieSecure,
		true, // HttpOnly
	)
	return token, nil
}

// CSRFMiddleware CSRF 保护中间件(双重提交:Cookie 与请求头/表单字段一致且签名有效)
// 使用 Authorization 头认证的请求不依赖 Cookie,不做检查
func CSRFMiddleware(p *CSRFProtector) gin.HandlerFunc {
	return func(c *gin.Context) {
		// GET、HEAD、OPTIONS 请求不需要 CSRF 保护
		if c.Request.Method == http.MethodGet ||
			c.Request.Method == http.MethodHead ||
			c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}
		if strings.HasPrefix(c.GetHeader("Authorization"), "Bearer ") {
			c.Next()
			return
		}

		token := c.GetHeader(p.config.HeaderName)
		if token == "" {
			token = c.PostForm(CSRFFormField)
		}
		cookie, err := c.Cookie(p.config.CookieName)

		if err != nil || token == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(cookie)) != 1 ||
			!p.ValidateToken(token) {
			c.JSON(http.StatusForbidden, ErrorResponse{
				Code:    403,
				Message: T(c, "error.csrf"),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
