package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"gorm.io/gorm"
)

// ExpenseRepository 报销单仓储接口
type ExpenseRepository interface {
	// WithTx 返回绑定到事务的仓储
	WithTx(tx *gorm.DB) ExpenseRepository
	Create(ctx context.Context, expense *model.ExpenseModel) error
	FindByID(ctx context.Context, id uint) (*model.ExpenseModel, error)
	FindByFilter(ctx context.Context, filter *ExpenseFilter) ([]*model.ExpenseModel, int64, error)
	// Decide 仅当记录仍处于 pending 时写入审批结果,返回是否命中
	Decide(ctx context.Context, id uint, decision *Decision) (bool, error)
	CountByStatus(ctx context.Context, creatorID *uint) (map[workflow.Status]int64, error)
}

// ExpenseFilter 报销单查询过滤器
type ExpenseFilter struct {
	CreatorID *uint
	Status    *workflow.Status
	SortBy    string // 已通过白名单校验的列名
	Order     string // ASC/DESC
	Page      int    // 从 1 开始,0 表示不分页
	PageSize  int
}

// Decision 审批结果
type Decision struct {
	Status            workflow.Status
	ApprovedByID      *uint
	ApprovedAt        *time.Time
	ApprovalSignature string
	RejectionReason   *string
}

// expenseRepository 报销单仓储实现
type expenseRepository struct {
	db *gorm.DB
}

// NewExpenseRepository 创建报销单仓储
func NewExpenseRepository(db *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: db}
}

// WithTx 返回绑定到事务的仓储
func (r *expenseRepository) WithTx(tx *gorm.DB) ExpenseRepository {
	return &expenseRepository{db: tx}
}

// Create 创建报销单
func (r *expenseRepository) Create(ctx context.Context, expense *model.ExpenseModel) error {
	return r.db.WithContext(ctx).Omit("Creator", "ApprovedBy").Create(expense).Error
}

// FindByID 根据 ID 查找报销单(包含创建人与审批人)
func (r *expenseRepository) FindByID(ctx context.Context, id uint) (*model.ExpenseModel, error) {
	var expense model.ExpenseModel
	err := r.db.WithContext(ctx).
		Preload("Creator").
		Preload("ApprovedBy").
		Where("id = ?", id).
		First(&expense).Error
	if err != nil {
		return nil, err
	}
	return &expense, nil
}

// FindByFilter 根据过滤器查找报销单,返回当前页与总数
func (r *expenseRepository) FindByFilter(ctx context.Context, filter *ExpenseFilter) ([]*model.ExpenseModel, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.ExpenseModel{})

	if filter == nil {
		filter = &ExpenseFilter{}
	}
	if filter.CreatorID != nil {
		query = query.Where("creator_id = ?", *filter.CreatorID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count expenses: %w", err)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	order := filter.Order
	if order != "ASC" {
		order = "DESC"
	}
	// id 作为第二排序键保证同一时间戳下顺序稳定
	query = query.Order(fmt.Sprintf("%s %s", sortBy, order)).Order("id " + order)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var expenses []*model.ExpenseModel
	if err := query.Preload("Creator").Preload("ApprovedBy").Find(&expenses).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to query expenses: %w", err)
	}
	return expenses, total, nil
}

// Decide 条件更新:WHERE id = ? AND status = 'pending'
func (r *expenseRepository) Decide(ctx context.Context, id uint, decision *Decision) (bool, error) {
	updates := map[string]interface{}{
		"status":     decision.Status,
		"updated_at": time.Now(),
	}
	if decision.ApprovedByID != nil {
		updates["approved_by_id"] = *decision.ApprovedByID
	}
	if decision.ApprovedAt != nil {
		updates["approved_at"] = *decision.ApprovedAt
	}
	if decision.ApprovalSignature != "" {
		updates["approval_signature"] = decision.ApprovalSignature
	}
	if decision.RejectionReason != nil {
		updates["rejection_reason"] = *decision.RejectionReason
	}

	result := r.db.WithContext(ctx).
		Model(&model.ExpenseModel{}).
		Where("id = ? AND status = ?", id, workflow.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// CountByStatus 按状态统计报销单数量,creatorID 非空时只统计该账户的记录
func (r *expenseRepository) CountByStatus(ctx context.Context, creatorID *uint) (map[workflow.Status]int64, error) {
	type row struct {
		Status workflow.Status
		Count  int64
	}
	var rows []row

	query := r.db.WithContext(ctx).Model(&model.ExpenseModel{}).Select("status, COUNT(*) AS count")
	if creatorID != nil {
		query = query.Where("creator_id = ?", *creatorID)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count expenses by status: %w", err)
	}

	counts := make(map[workflow.Status]int64, len(workflow.AllStatuses()))
	for _, st := range workflow.AllStatuses() {
		counts[st] = 0
	}
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}
	return counts, nil
}
