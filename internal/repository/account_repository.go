package repository

import (
	"context"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/model"
	"gorm.io/gorm"
)

// AccountRepository 账户仓储接口
type AccountRepository interface {
	Create(ctx context.Context, account *model.AccountModel) error
	FindByID(ctx context.Context, id uint) (*model.AccountModel, error)
	FindByEmail(ctx context.Context, email string) (*model.AccountModel, error)
	FindByUsername(ctx context.Context, username string) (*model.AccountModel, error)
	CountByRole(ctx context.Context, role auth.Role) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// accountRepository 账户仓储实现
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository 创建账户仓储
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create 创建账户
func (r *accountRepository) Create(ctx context.Context, account *model.AccountModel) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// FindByID 根据 ID 查找账户
func (r *accountRepository) FindByID(ctx context.Context, id uint) (*model.AccountModel, error) {
	var account model.AccountModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail 根据邮箱查找账户
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.AccountModel, error) {
	var account model.AccountModel
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByUsername 根据用户名查找账户
func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*model.AccountModel, error) {
	var account model.AccountModel
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// CountByRole 统计某角色的账户数
func (r *accountRepository) CountByRole(ctx context.Context, role auth.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AccountModel{}).Where("role = ?", role).Count(&count).Error
	return count, err
}

// Count 统计账户总数
func (r *accountRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.AccountModel{}).Count(&count).Error
	return count, err
}
