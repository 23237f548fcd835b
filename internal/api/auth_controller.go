package api

import (
	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/service"
)

// AuthController 登录会话控制器
type AuthController struct {
	accountSvc service.AccountService
	sessions   *auth.SessionManager
	csrf       *CSRFProtector
}

// NewAuthController 创建登录会话控制器
func NewAuthController(accountSvc service.AccountService, sessions *auth.SessionManager, csrf *CSRFProtector) *AuthController {
	return &AuthController{
		accountSvc: accountSvc,
		sessions:   sessions,
		csrf:       csrf,
	}
}

// Login 登录并写入会话 Cookie
func (h *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	account, err := h.accountSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	token, expiresAt, err := h.sessions.Issue(account.Principal())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	h.sessions.SetCookie(c, token)

	csrfToken, err := h.csrf.Issue(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	Success(c, &LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		CSRFToken: csrfToken,
		Account:   newAccountResponse(account, true),
	})
}

// Logout 清除会话 Cookie
func (h *AuthController) Logout(c *gin.Context) {
	h.sessions.ClearCookie(c)
	Success(c, gin.H{"message": T(c, "success.logged_out")})
}

// Me 当前登录账户
func (h *AuthController) Me(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	account, err := h.accountSvc.Get(c.Request.Context(), principal.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, newAccountResponse(account, true))
}

// CSRFToken 签发新的 CSRF Token
func (h *AuthController) CSRFToken(c *gin.Context) {
	token, err := h.csrf.Issue(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, gin.H{"csrf_token": token})
}
