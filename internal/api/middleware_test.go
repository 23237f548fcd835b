package api_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/api"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(api.I18nMiddleware())
	router.Use(middleware...)
	return router
}

// TestRateLimitMiddleware 测试突发额度用完后返回 429
func TestRateLimitMiddleware(t *testing.T) {
	router := newTestRouter(api.RateLimitMiddleware(0.001, 2))
	router.POST("/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

// TestBodyLimitMiddleware 测试请求体上限
func TestBodyLimitMiddleware(t *testing.T) {
	router := newTestRouter(api.BodyLimitMiddleware(16))
	router.POST("/echo", func(c *gin.Context) {
		var body map[string]string
		if err := c.ShouldBindJSON(&body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				c.Status(http.StatusRequestEntityTooLarge)
				return
			}
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"b"}`)))
	assert.Equal(t, http.StatusOK, w.Code)

	// 声明的长度超限
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// 未声明长度时读取截断
	req := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader(`{"a":"`+strings.Repeat("x", 64)+`"}`))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

// TestHTTPSRedirectMiddleware 测试 HTTPS 重定向
func TestHTTPSRedirectMiddleware(t *testing.T) {
	router := newTestRouter(api.HTTPSRedirectMiddleware(true))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/page", ok)
	router.POST("/submit", ok)
	router.GET("/health", ok)

	tests := []struct {
		name     string
		method   string
		path     string
		proto    string
		code     int
		location string
	}{
		{"GET redirects", http.MethodGet, "/page?x=1", "", http.StatusMovedPermanently, "https://example.com/page?x=1"},
		{"POST keeps method", http.MethodPost, "/submit", "", http.StatusPermanentRedirect, "https://example.com/submit"},
		{"health exempt", http.MethodGet, "/health", "", http.StatusOK, ""},
		{"forwarded https", http.MethodGet, "/page", "https", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.Host = "example.com"
			if tt.proto != "" {
				req.Header.Set("X-Forwarded-Proto", tt.proto)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))
		})
	}

	disabled := newTestRouter(api.HTTPSRedirectMiddleware(false))
	disabled.GET("/page", ok)
	w := httptest.NewRecorder()
	disabled.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/page", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestSecurityHeadersMiddleware_HSTS 测试仅启用 HTTPS 时下发 HSTS
func TestSecurityHeadersMiddleware_HSTS(t *testing.T) {
	for _, hsts := range []bool{true, false} {
		router := newTestRouter(api.SecurityHeadersMiddleware(hsts))
		router.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, hsts, w.Header().Get("Strict-Transport-Security") != "")
	}
}

// TestRequestIDMiddleware 测试生成与沿用请求 ID
func TestRequestIDMiddleware(t *testing.T) {
	router := newTestRouter(api.RequestIDMiddleware())
	router.GET("/test", func(c *gin.Context) {
		meta := service.RequestMetaFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"request_id": c.GetString("request_id"), "meta": meta.RequestID})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get(api.RequestIDHeader)
	assert.NotEmpty(t, generated)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, generated, body["request_id"])
	assert.Equal(t, generated, body["meta"])

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(api.RequestIDHeader, "custom-request-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "custom-request-id", w.Header().Get(api.RequestIDHeader))
}

// TestCSRFProtector 测试 Token 签名与过期
func TestCSRFProtector(t *testing.T) {
	p := api.NewCSRFProtector(api.DefaultCSRFConfig("secret-a"))
	token, err := p.GenerateToken()
	require.NoError(t, err)
	assert.True(t, p.ValidateToken(token))
	assert.False(t, p.ValidateToken(token+"x"))
	assert.False(t, p.ValidateToken("garbage"))

	other := api.NewCSRFProtector(api.DefaultCSRFConfig("secret-b"))
	assert.False(t, other.ValidateToken(token))

	expired := api.DefaultCSRFConfig("secret-a")
	expired.TokenTTL = -time.Hour
	stale, err := api.NewCSRFProtector(expired).GenerateToken()
	require.NoError(t, err)
	assert.False(t, p.ValidateToken(stale))
}

// TestErrorHandlerMiddleware 测试未处理错误统一返回 500
func TestErrorHandlerMiddleware(t *testing.T) {
	router := newTestRouter(api.ErrorHandlerMiddleware())
	router.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("database exploded"))
	})
	router.GET("/teapot", func(c *gin.Context) {
		_ = c.Error(api.WrapError(errors.New("short and stout"), http.StatusTeapot, "teapot"))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "database exploded")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/teapot", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}

// TestI18n 测试按 Accept-Language 返回消息
func TestI18n(t *testing.T) {
	router := newTestRouter()
	router.GET("/msg", func(c *gin.Context) {
		c.String(http.StatusOK, api.T(c, "error.conflict"))
	})

	req := httptest.NewRequest(http.MethodGet, "/msg", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "报销单已不在待审批状态", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/msg", nil))
	assert.Equal(t, "Expense is no longer pending", w.Body.String())
}

// TestValidators 测试自定义校验规则
func TestValidators(t *testing.T) {
	require.NoError(t, api.RegisterValidators())

	router := newTestRouter()
	router.POST("/money", func(c *gin.Context) {
		var req api.CreateExpenseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})
	router.GET("/filter", func(c *gin.Context) {
		var q api.ExportQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	amounts := map[string]int{
		`"0"`:             http.StatusOK,
		`"12.5"`:          http.StatusOK,
		`19.99`:           http.StatusOK,
		`"9999999999.99"`: http.StatusOK,
		`"10000000000"`:   http.StatusBadRequest,
		`"-0.01"`:         http.StatusBadRequest,
		`"0.001"`:         http.StatusBadRequest,
	}
	for amount, code := range amounts {
		body := `{"purpose":"p","recipient_name":"r","amount":` + amount + `}`
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/money", bytes.NewBufferString(body)))
		assert.Equal(t, code, w.Code, "amount %s", amount)
	}

	filters := map[string]int{
		"":                 http.StatusOK,
		"?status=all":      http.StatusOK,
		"?status=Approved": http.StatusOK,
		"?status=draft":    http.StatusOK,
		"?status=unknown":  http.StatusBadRequest,
	}
	for query, code := range filters {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/filter"+query, nil))
		assert.Equal(t, code, w.Code, "query %q", query)
	}
}
