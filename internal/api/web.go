package api

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/model"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

// signaturePad 页面上的签名区
type signaturePad struct {
	Name  string
	Label string
	Field string
}

// WebController 表单页面控制器
type WebController struct {
	sessions *auth.SessionManager
	csrf     *CSRFProtector
}

// NewWebController 创建表单页面控制器
func NewWebController(sessions *auth.SessionManager, csrf *CSRFProtector) *WebController {
	return &WebController{sessions: sessions, csrf: csrf}
}

// loadTemplates 解析内嵌模板
func loadTemplates() (*template.Template, error) {
	return template.ParseFS(webFS, "web/templates/*.html")
}

// staticFS 内嵌静态资源
func staticFS() (http.FileSystem, error) {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		return nil, err
	}
	return http.FS(sub), nil
}

// pageSession 页面会话检查,未登录时跳转到登录页
func (h *WebController) pageSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(h.sessions.CookieName())
		if err != nil || token == "" {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		principal, err := h.sessions.Parse(token)
		if err != nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		c.Set(auth.PrincipalKey, *principal)
		c.Next()
	}
}

// Login 登录页
func (h *WebController) Login(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

// NewExpense 报销单填写页,包含三个签名区
func (h *WebController) NewExpense(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	if !principal.Can(auth.CapCreateExpense) {
		Error(c, http.StatusForbidden, T(c, "error.forbidden"), "")
		return
	}

	token, err := h.csrf.Issue(c)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	pads := make([]signaturePad, 0, len(model.CreationSlots()))
	for _, slot := range model.CreationSlots() {
		pads = append(pads, signaturePad{
			Name:  string(slot),
			Label: slotTitle(slot),
			Field: slot.FieldName(),
		})
	}

	c.HTML(http.StatusOK, "expense_new.html", gin.H{
		"CSRFToken":  token,
		"CSRFField":  CSRFFormField,
		"Principal":  principal,
		"Pads":       pads,
		"MaxPurpose": model.MaxPurposeLength,
		"MaxName":    model.MaxRecipientLength,
	})
}

func slotTitle(slot model.SignatureSlot) string {
	switch slot {
	case model.SlotRecipient:
		return "Recipient Signature"
	case model.SlotEmployee:
		return "Employee Signature"
	case model.SlotSenior:
		return "Senior Signature"
	case model.SlotApproval:
		return "Approval Signature"
	}
	return string(slot)
}
