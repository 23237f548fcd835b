package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HTTPSRedirectMiddleware HTTPS 重定向中间件(生产环境强制 HTTPS)
// 健康检查与指标端点不重定向,便于负载均衡器与 Prometheus 通过内网 HTTP 访问
func HTTPSRedirectMiddleware(enabled bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !enabled || IsHTTPS(c) {
			c.Next()
			return
		}
		switch c.Request.URL.Path {
		case "/health", "/metrics":
			c.Next()
			return
		}

		host := c.Request.Host
		if host == "" {
			host = "localhost"
		}

		// GET 用 301,其他方法用 308 保留请求体
		code := http.StatusMovedPermanently
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			code = http.StatusPermanentRedirect
		}
		c.Redirect(code, "https://"+host+c.Request.RequestURI)
		c.Abort()
	}
}

// IsHTTPS 检查请求是否通过 HTTPS
func IsHTTPS(c *gin.Context) bool {
	// 优先检查 X-Forwarded-Proto 头
	if strings.ToLower(c.GetHeader("X-Forwarded-Proto")) == "https" {
		return true
	}

	// 检查 X-Forwarded-SSL 头(某些代理使用)
	if c.GetHeader("X-Forwarded-SSL") == "on" {
		return true
	}

	if c.Request.URL.Scheme == "https" {
		return true
	}

	// 检查 TLS 连接(直接连接时)
	return c.Request.TLS != nil
}
