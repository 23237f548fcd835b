package api

import (
	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/metrics"
)

// MetricsHandler Prometheus 指标处理器,抓取时刷新数据库相关指标
func MetricsHandler(collector *metrics.Collector) gin.HandlerFunc {
	handler := metrics.Handler(collector)
	return func(c *gin.Context) {
		handler.ServeHTTP(c.Writer, c.Request)
	}
}
