package model

import (
	"errors"
	"strings"
	"time"

	"github.com/neekunjshah/petty-cash/internal/auth"
)

// AccountModel 账户数据模型
// 角色在创建时确定,之后没有修改路径
type AccountModel struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"type:varchar(80);not null;uniqueIndex"`
	Email        string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	FullName     string    `gorm:"type:varchar(120);not null"`
	Role         auth.Role `gorm:"type:varchar(20);not null;index"` // employee/senior
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName 指定表名
func (AccountModel) TableName() string {
	return "accounts"
}

// Validate 验证账户模型
func (am *AccountModel) Validate() error {
	if strings.TrimSpace(am.Username) == "" {
		return errors.New("username is required")
	}
	if !strings.Contains(am.Email, "@") {
		return errors.New("valid email is required")
	}
	if am.PasswordHash == "" {
		return errors.New("password hash is required")
	}
	if strings.TrimSpace(am.FullName) == "" {
		return errors.New("full name is required")
	}
	if !am.Role.Valid() {
		return errors.New("role must be employee or senior")
	}
	return nil
}

// Principal 转换为请求上下文中的登录账户
func (am *AccountModel) Principal() auth.Principal {
	return auth.Principal{
		ID:       am.ID,
		Username: am.Username,
		FullName: am.FullName,
		Role:     am.Role,
	}
}
