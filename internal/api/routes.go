package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/metrics"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/neekunjshah/petty-cash/internal/signature"
	"gorm.io/gorm"
)

// RouterDeps 路由依赖
type RouterDeps struct {
	Config         *config.Config
	DB             *gorm.DB
	Sessions       *auth.SessionManager
	AccountSvc     service.AccountService
	ExpenseSvc     service.ExpenseService
	ExportSvc      service.ExportService
	StatisticsSvc  service.StatisticsService
	SignatureStore signature.Store
	Metrics        *metrics.Collector
}

// SetupRoutes 配置路由
func SetupRoutes(deps *RouterDeps) (*gin.Engine, error) {
	cfg := deps.Config
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	tmpl, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)
	static, err := staticFS()
	if err != nil {
		return nil, err
	}

	// 中间件
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		GetLogger().WithField("request_id", c.GetString("request_id")).
			Errorf("panic recovered: %v", recovered)
		Error(c, http.StatusInternalServerError, T(c, "error.internal_error"), "")
	}))
	if cfg.Tracing.Enabled {
		router.Use(TracingMiddleware(cfg.Tracing.ServiceName))
	}
	router.Use(RequestIDMiddleware())
	router.Use(RequestLogMiddleware())
	router.Use(HTTPSRedirectMiddleware(cfg.Server.HTTPSRedirect))
	router.Use(SecurityHeadersMiddleware(cfg.Server.HTTPSRedirect))
	router.Use(CORSMiddleware(cfg.CORS))
	router.Use(I18nMiddleware())
	router.Use(BodyLimitMiddleware(cfg.Server.MaxBodyBytes))
	router.Use(ErrorHandlerMiddleware())

	csrfConfig := DefaultCSRFConfig(cfg.Session.Secret)
	csrfConfig.CookieSecure = cfg.Session.Secure
	csrf := NewCSRFProtector(csrfConfig)

	authController := NewAuthController(deps.AccountSvc, deps.Sessions, csrf)
	expenseController := NewExpenseController(deps.ExpenseSvc)
	exportController := NewExportController(deps.ExportSvc)
	dashboardController := NewDashboardController(deps.StatisticsSvc)
	webController := NewWebController(deps.Sessions, csrf)
	healthController := NewHealthController(deps.DB, deps.SignatureStore)

	// 健康检查与 Prometheus 指标端点
	router.GET("/health", healthController.Check)
	router.GET("/metrics", MetricsHandler(deps.Metrics))

	// 页面与静态资源
	router.StaticFS("/static", static)
	router.GET("/login", webController.Login)
	router.GET("/expenses/new", webController.pageSession(), webController.NewExpense)
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/expenses/new")
	})

	// API v1 路由组
	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/login", RateLimitMiddleware(cfg.RateLimit.LoginRPS, cfg.RateLimit.LoginBurst), authController.Login)

		authed := v1.Group("")
		authed.Use(auth.SessionMiddleware(deps.Sessions))
		authed.Use(CSRFMiddleware(csrf))
		{
			authed.POST("/auth/logout", authController.Logout)
			authed.GET("/auth/me", authController.Me)
			authed.GET("/auth/csrf", authController.CSRFToken)
			authed.GET("/dashboard", dashboardController.Get)

			// 报销单路由
			expenses := authed.Group("/expenses")
			{
				expenses.GET("", auth.RequireCapability(auth.CapListExpenses), expenseController.List)
				expenses.POST("", auth.RequireCapability(auth.CapCreateExpense), expenseController.Create)
				expenses.GET("/:id", expenseController.Get)
				expenses.GET("/:id/history", expenseController.History)
				expenses.GET("/:id/signatures/:slot", expenseController.Signature)
				expenses.POST("/:id/approve", auth.RequireCapability(auth.CapDecideExpense), expenseController.Approve)
				expenses.POST("/:id/reject", auth.RequireCapability(auth.CapDecideExpense), expenseController.Reject)
			}

			// 导出路由
			exports := authed.Group("/export", auth.RequireCapability(auth.CapExport))
			{
				exports.GET("/csv", exportController.CSV)
				exports.GET("/pdf/:id", exportController.PDF)
			}
		}
	}

	return router, nil
}
