package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *auth.SessionManager {
	return auth.NewSessionManager("test-secret", time.Hour, "sid", false)
}

// TestSessionManager_IssueParse 测试签发与解析会话
func TestSessionManager_IssueParse(t *testing.T) {
	m := newTestManager()
	want := auth.Principal{ID: 7, Username: "jane", FullName: "Jane Doe", Role: auth.RoleEmployee}

	token, expiresAt, err := m.Issue(want)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	got, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, want, *got)
}

// TestSessionManager_WrongSecret 测试不同密钥签发的令牌被拒绝
func TestSessionManager_WrongSecret(t *testing.T) {
	token, _, err := auth.NewSessionManager("other", time.Hour, "sid", false).
		Issue(auth.Principal{ID: 1, Role: auth.RoleSenior})
	require.NoError(t, err)

	_, err = newTestManager().Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

// TestSessionManager_Expired 测试过期令牌
func TestSessionManager_Expired(t *testing.T) {
	m := auth.NewSessionManager("test-secret", -time.Minute, "sid", false)
	token, _, err := m.Issue(auth.Principal{ID: 1, Role: auth.RoleSenior})
	require.NoError(t, err)

	_, err = m.Parse(token)
	assert.ErrorIs(t, err, auth.ErrInvalidSession)
}

// TestSessionMiddleware 测试认证中间件与能力检查
func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := newTestManager()

	router := gin.New()
	router.Use(auth.SessionMiddleware(m))
	router.POST("/decide", auth.RequireCapability(auth.CapDecideExpense), func(c *gin.Context) {
		p, ok := auth.GetPrincipal(c)
		require.True(t, ok)
		c.String(http.StatusOK, p.Username)
	})

	// 未登录
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/decide", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 员工无审批能力
	employeeToken, _, _ := m.Issue(auth.Principal{ID: 1, Username: "emp", Role: auth.RoleEmployee})
	req := httptest.NewRequest(http.MethodPost, "/decide", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: employeeToken})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 主管通过 Bearer 令牌访问
	seniorToken, _, _ := m.Issue(auth.Principal{ID: 2, Username: "boss", Role: auth.RoleSenior})
	req = httptest.NewRequest(http.MethodPost, "/decide", nil)
	req.Header.Set("Authorization", "Bearer "+seniorToken)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "boss", w.Body.String())
}
