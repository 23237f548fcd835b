package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/signature"
	"gorm.io/gorm"
)

// HealthController 健康检查控制器
type HealthController struct {
	db    *gorm.DB
	store signature.Store
}

// NewHealthController 创建健康检查控制器
func NewHealthController(db *gorm.DB, store signature.Store) *HealthController {
	return &HealthController{
		db:    db,
		store: store,
	}
}

// Check 健康检查
func (h *HealthController) Check(c *gin.Context) {
	status := "healthy"
	checks := make(map[string]string)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	// 检查数据库连接
	if h.db != nil {
		if err := h.checkDatabase(ctx); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy: " + err.Error()
		} else {
			checks["database"] = "healthy"
		}
	} else {
		checks["database"] = "not configured"
	}

	// 检查签名存储是否可写
	if h.store != nil {
		if err := h.store.Check(ctx); err != nil {
			status = "unhealthy"
			checks["signature_store"] = "unhealthy: " + err.Error()
		} else {
			checks["signature_store"] = "healthy"
		}
	} else {
		checks["signature_store"] = "not configured"
	}

	httpStatus := http.StatusOK
	if status == "unhealthy" {
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"timestamp": time.Now().Unix(),
		"checks":    checks,
	})
}

// checkDatabase 检查数据库连接
func (h *HealthController) checkDatabase(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
