package repository

import (
	"context"

	"github.com/neekunjshah/petty-cash/internal/model"
	"gorm.io/gorm"
)

// StateHistoryRepository 状态历史仓储接口
type StateHistoryRepository interface {
	WithTx(tx *gorm.DB) StateHistoryRepository
	Save(ctx context.Context, history *model.StateHistoryModel) error
	FindByExpenseID(ctx context.Context, expenseID uint) ([]*model.StateHistoryModel, error)
}

// stateHistoryRepository 状态历史仓储实现
type stateHistoryRepository struct {
	db *gorm.DB
}

// NewStateHistoryRepository 创建状态历史仓储
func NewStateHistoryRepository(db *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: db}
}

func (r *stateHistoryRepository) WithTx(tx *gorm.DB) StateHistoryRepository {
	return &stateHistoryRepository{db: tx}
}

// Save 保存状态历史
func (r *stateHistoryRepository) Save(ctx context.Context, history *model.StateHistoryModel) error {
	return r.db.WithContext(ctx).Create(history).Error
}

// FindByExpenseID 根据报销单 ID 查找状态历史,按时间正序
func (r *stateHistoryRepository) FindByExpenseID(ctx context.Context, expenseID uint) ([]*model.StateHistoryModel, error) {
	var histories []*model.StateHistoryModel
	err := r.db.WithContext(ctx).
		Where("expense_id = ?", expenseID).
		Order("created_at ASC").
		Find(&histories).Error
	return histories, err
}
