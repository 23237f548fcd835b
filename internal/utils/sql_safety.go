package utils

import (
	"errors"
	"strings"
)

// expenseSortColumns 报销单列表允许的排序字段
var expenseSortColumns = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"amount":     "amount",
	"status":     "status",
	"id":         "id",
}

// ValidateSortField 验证排序字段,只接受白名单中的列,防止 SQL 注入
func ValidateSortField(field string) (string, error) {
	if field == "" {
		return "", errors.New("sort field cannot be empty")
	}
	column, ok := expenseSortColumns[strings.ToLower(field)]
	if !ok {
		return "", errors.New("invalid sort field")
	}
	return column, nil
}

// ValidateSortOrder 验证排序方向
func ValidateSortOrder(order string) error {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder != "ASC" && upperOrder != "DESC" {
		return errors.New("sort order must be ASC or DESC")
	}
	return nil
}

// SanitizeSortOrder 清理排序方向
func SanitizeSortOrder(order string) string {
	upperOrder := strings.ToUpper(strings.TrimSpace(order))
	if upperOrder == "ASC" || upperOrder == "DESC" {
		return upperOrder
	}
	return "DESC" // 默认降序
}
