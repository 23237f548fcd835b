package service

import (
	"errors"
	"fmt"
)

// 服务层错误,由 API 层统一映射为 HTTP 状态码
var (
	// ErrValidation 输入校验失败(400)
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized 凭据错误(401)
	ErrUnauthorized = errors.New("invalid credentials")
	// ErrForbidden 无权访问(403)
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound 资源不存在(404)
	ErrNotFound = errors.New("not found")
	// ErrConflict 状态冲突,例如报销单已不在待审批状态(409)
	ErrConflict = errors.New("conflict")
)

// validationError 包装校验错误,保留原始错误以便 errors.Is 判断
func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
