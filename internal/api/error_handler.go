package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/service"
)

// APIError API 错误
type APIError struct {
	Code    int
	Message string
	Detail  string
}

func (e *APIError) Error() string {
	return e.Message
}

// ErrorHandlerMiddleware 错误处理中间件
func ErrorHandlerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 && !c.Writer.Written() {
			err := c.Errors.Last()

			var apiErr *APIError
			if errors.As(err, &apiErr) {
				Error(c, apiErr.Code, apiErr.Message, apiErr.Detail)
			} else {
				Error(c, http.StatusInternalServerError, T(c, "error.internal_error"), "")
			}
		}
	}
}

// WrapError 包装错误
func WrapError(err error, code int, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Detail:  err.Error(),
	}
}

// handleServiceError 将服务层错误映射为 HTTP 响应
// 未知错误只记录日志,不向客户端暴露细节
func handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		Error(c, http.StatusBadRequest, T(c, "error.validation"), err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		Error(c, http.StatusUnauthorized, T(c, "error.invalid_credentials"), "")
	case errors.Is(err, service.ErrForbidden):
		Error(c, http.StatusForbidden, T(c, "error.forbidden"), "")
	case errors.Is(err, service.ErrNotFound):
		Error(c, http.StatusNotFound, T(c, "error.not_found"), err.Error())
	case errors.Is(err, service.ErrConflict):
		Error(c, http.StatusConflict, T(c, "error.conflict"), err.Error())
	default:
		GetLogger().WithError(err).
			WithField("request_id", c.GetString("request_id")).
			Error("request failed")
		_ = c.Error(err)
	}
}

// badRequest 请求参数错误
// 读取时超出请求体上限的交给 ErrorHandlerMiddleware 输出 413
func badRequest(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		_ = c.Error(WrapError(err, http.StatusRequestEntityTooLarge, T(c, "error.too_large")))
		return
	}
	Error(c, http.StatusBadRequest, T(c, "error.bad_request"), err.Error())
}
