package container

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/api"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/database"
	"github.com/neekunjshah/petty-cash/internal/export"
	"github.com/neekunjshah/petty-cash/internal/metrics"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/neekunjshah/petty-cash/internal/signature"
	"gorm.io/gorm"
)

// Container 依赖注入容器
// 管理所有应用依赖,包括数据库、签名存储、服务等
type Container struct {
	cfg            *config.Config
	db             *gorm.DB
	signatureStore signature.Store
	persister      *signature.Persister
	sessions       *auth.SessionManager
	collector      *metrics.Collector

	accountSvc    service.AccountService
	expenseSvc    service.ExpenseService
	exportSvc     service.ExportService
	statisticsSvc service.StatisticsService
}

// NewContainer 创建依赖注入容器
// 根据配置初始化所有依赖组件
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	// 1. 初始化数据库(带重试机制)
	// 默认重试 3 次,初始间隔 1 秒,指数退避
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// 执行数据库迁移
	if err := database.Migrate(db); err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// 2. 初始化签名存储(本地目录或 gs://bucket/prefix)
	store, err := signature.NewStore(ctx, cfg.Signature.Root)
	if err != nil {
		_ = database.Close(db)
		return nil, fmt.Errorf("failed to initialize signature store: %w", err)
	}
	persister := signature.NewPersister(store, cfg.Signature.MaxBytes)

	// 3. 初始化仓储与服务
	accountRepo := repository.NewAccountRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)
	historyRepo := repository.NewStateHistoryRepository(db)
	auditLogSvc := service.NewAuditLogService(repository.NewAuditLogRepository(db))

	expenseSvc := service.NewExpenseService(db, expenseRepo, historyRepo, persister, auditLogSvc)
	exportOpts := export.Options{
		CurrencySymbol: cfg.Export.CurrencySymbol,
		TimeFormat:     cfg.Export.TimeFormat,
	}

	return &Container{
		cfg:            cfg,
		db:             db,
		signatureStore: store,
		persister:      persister,
		sessions: auth.NewSessionManager(
			cfg.Session.Secret,
			cfg.Session.Lifetime,
			cfg.Session.CookieName,
			cfg.Session.Secure,
		),
		collector:     metrics.NewCollector(db, expenseRepo),
		accountSvc:    service.NewAccountService(accountRepo, auditLogSvc),
		expenseSvc:    expenseSvc,
		exportSvc:     service.NewExportService(expenseRepo, expenseSvc, persister, auditLogSvc, exportOpts),
		statisticsSvc: service.NewStatisticsService(db, expenseRepo),
	}, nil
}

// DB 获取数据库连接
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Persister 获取签名持久化器
func (c *Container) Persister() *signature.Persister {
	return c.persister
}

// Sessions 获取会话管理器
func (c *Container) Sessions() *auth.SessionManager {
	return c.sessions
}

// AccountService 获取账户服务
func (c *Container) AccountService() service.AccountService {
	return c.accountSvc
}

// ExpenseService 获取报销单服务
func (c *Container) ExpenseService() service.ExpenseService {
	return c.expenseSvc
}

// Router 创建 HTTP 路由
func (c *Container) Router() (*gin.Engine, error) {
	return api.SetupRoutes(&api.RouterDeps{
		Config:         c.cfg,
		DB:             c.db,
		Sessions:       c.sessions,
		AccountSvc:     c.accountSvc,
		ExpenseSvc:     c.expenseSvc,
		ExportSvc:      c.exportSvc,
		StatisticsSvc:  c.statisticsSvc,
		SignatureStore: c.signatureStore,
		Metrics:        c.collector,
	})
}

// Close 关闭容器,清理资源
func (c *Container) Close() error {
	var firstErr error
	if closer, ok := c.signatureStore.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			firstErr = err
		}
	}
	if c.db != nil {
		if err := database.Close(c.db); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
