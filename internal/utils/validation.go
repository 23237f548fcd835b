package utils

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_.-]+$`)

// SanitizeString 移除控制字符(保留换行符和制表符)
func SanitizeString(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		result.WriteRune(r)
	}
	return result.String()
}

// ValidateID 验证并解析路径中的记录 ID
func ValidateID(id string) (uint, error) {
	if id == "" {
		return 0, ErrEmptyID
	}
	n, err := strconv.ParseUint(id, 10, 32)
	if err != nil || n == 0 {
		return 0, ErrInvalidIDFormat
	}
	return uint(n), nil
}

// ValidateUsername 验证用户名
func ValidateUsername(username string) error {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(trimmed) > 80 {
		return ErrNameTooLong
	}
	if !usernamePattern.MatchString(trimmed) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidateEmail 验证邮箱地址
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil || addr.Address != strings.TrimSpace(email) {
		return ErrInvalidEmail
	}
	return nil
}

// TrimAndValidate 清理并验证字符串,长度按字符数计算
func TrimAndValidate(s string, maxLen int) (string, error) {
	trimmed := strings.TrimSpace(SanitizeString(s))

	if trimmed == "" {
		return "", ErrEmptyString
	}
	if maxLen > 0 && utf8.RuneCountInString(trimmed) > maxLen {
		return "", ErrStringTooLong
	}

	return trimmed, nil
}

// 错误定义
var (
	ErrEmptyName        = &ValidationError{Code: "EMPTY_NAME", Message: "name cannot be empty"}
	ErrNameTooLong      = &ValidationError{Code: "NAME_TOO_LONG", Message: "name exceeds maximum length"}
	ErrInvalidUsername  = &ValidationError{Code: "INVALID_USERNAME", Message: "username contains invalid characters"}
	ErrInvalidEmail     = &ValidationError{Code: "INVALID_EMAIL", Message: "email address is invalid"}
	ErrEmptyID          = &ValidationError{Code: "EMPTY_ID", Message: "id cannot be empty"}
	ErrInvalidIDFormat  = &ValidationError{Code: "INVALID_ID_FORMAT", Message: "id must be a positive integer"}
	ErrEmptyString      = &ValidationError{Code: "EMPTY_STRING", Message: "string cannot be empty"}
	ErrStringTooLong    = &ValidationError{Code: "STRING_TOO_LONG", Message: "string exceeds maximum length"}
	ErrPasswordTooShort = &ValidationError{Code: "PASSWORD_TOO_SHORT", Message: "password must be at least 8 characters"}
)

// ValidationError 验证错误
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
