package model

import (
	"errors"
	"time"

	"github.com/neekunjshah/petty-cash/internal/workflow"
)

// StateHistoryModel 报销单状态变更历史
type StateHistoryModel struct {
	ID         string          `gorm:"primaryKey;type:varchar(64)"`
	ExpenseID  uint            `gorm:"not null;index"`
	FromStatus workflow.Status `gorm:"type:varchar(20)"`
	ToStatus   workflow.Status `gorm:"type:varchar(20);not null"`
	Reason     string          `gorm:"type:text"`
	OperatorID uint            `gorm:"not null"`
	CreatedAt  time.Time       `gorm:"not null;index"`
}

// TableName 指定表名
func (StateHistoryModel) TableName() string {
	return "expense_status_history"
}

// Validate 验证状态历史模型
func (shm *StateHistoryModel) Validate() error {
	if shm.ID == "" {
		return errors.New("history ID is required")
	}
	if shm.ExpenseID == 0 {
		return errors.New("expense ID is required")
	}
	if !shm.ToStatus.Valid() {
		return errors.New("to status is required")
	}
	if shm.OperatorID == 0 {
		return errors.New("operator is required")
	}
	return nil
}
