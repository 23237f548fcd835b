package service

import (
	"context"
	"fmt"
	"time"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// dashboardListSize 首页列表条数
const dashboardListSize = 10

// StatisticsService 统计服务接口
type StatisticsService interface {
	// Dashboard 主管看到待审批队列,员工看到自己的报销单
	Dashboard(ctx context.Context, p auth.Principal) (*Dashboard, error)
	GetExpenseStatisticsByDate(ctx context.Context, p auth.Principal) ([]*ExpenseStatisticsByDate, error)
	GetApprovalStatistics(ctx context.Context) (*ApprovalStatistics, error)
}

// Dashboard 首页数据
type Dashboard struct {
	Counts        map[workflow.Status]int64
	Total         int64
	PendingAmount decimal.Decimal
	Expenses      []*model.ExpenseModel
	Approval      *ApprovalStatistics // 仅主管
}

// ExpenseStatisticsByDate 按日期统计
type ExpenseStatisticsByDate struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// ApprovalStatistics 审批统计
type ApprovalStatistics struct {
	TotalDecisions      int64   `json:"total_decisions"`
	ApprovedCount       int64   `json:"approved_count"`
	RejectedCount       int64   `json:"rejected_count"`
	ApprovalRate        float64 `json:"approval_rate"`
	AverageApprovalTime float64 `json:"average_approval_time"` // 单位:秒,从提交到批准
}

// statisticsService 统计服务实现
type statisticsService struct {
	db          *gorm.DB
	expenseRepo repository.ExpenseRepository
}

// NewStatisticsService 创建统计服务
func NewStatisticsService(db *gorm.DB, expenseRepo repository.ExpenseRepository) StatisticsService {
	return &statisticsService{db: db, expenseRepo: expenseRepo}
}

// ownerScope 员工只统计自己的记录
func ownerScope(p auth.Principal) *uint {
	if p.Can(auth.CapViewAll) {
		return nil
	}
	id := p.ID
	return &id
}

// Dashboard 首页数据
func (s *statisticsService) Dashboard(ctx context.Context, p auth.Principal) (*Dashboard, error) {
	if !p.Can(auth.CapListExpenses) {
		return nil, ErrForbidden
	}
	creatorID := ownerScope(p)

	counts, err := s.expenseRepo.CountByStatus(ctx, creatorID)
	if err != nil {
		return nil, err
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	filter := &repository.ExpenseFilter{
		CreatorID: creatorID,
		Order:     "DESC",
		Page:      1,
		PageSize:  dashboardListSize,
	}
	if p.Can(auth.CapDecideExpense) {
		pending := workflow.StatusPending
		filter.Status = &pending
		// 待审批队列按提交先后处理
		filter.Order = "ASC"
	}
	expenses, _, err := s.expenseRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	pendingAmount, err := s.pendingAmount(ctx, creatorID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Counts:        counts,
		Total:         total,
		PendingAmount: pendingAmount,
		Expenses:      expenses,
	}
	if p.Can(auth.CapDecideExpense) {
		if dashboard.Approval, err = s.GetApprovalStatistics(ctx); err != nil {
			return nil, err
		}
	}
	return dashboard, nil
}

// pendingAmount 待审批金额合计,在应用侧用 decimal 求和避免浮点误差
func (s *statisticsService) pendingAmount(ctx context.Context, creatorID *uint) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	query := s.db.WithContext(ctx).Model(&model.ExpenseModel{}).Where("status = ?", workflow.StatusPending)
	if creatorID != nil {
		query = query.Where("creator_id = ?", *creatorID)
	}
	if err := query.Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending amount: %w", err)
	}
	sum := decimal.Zero
	for _, a := range amounts {
		sum = sum.Add(a)
	}
	return sum, nil
}

// GetExpenseStatisticsByDate 按提交日期统计报销单
func (s *statisticsService) GetExpenseStatisticsByDate(ctx context.Context, p auth.Principal) ([]*ExpenseStatisticsByDate, error) {
	if !p.Can(auth.CapListExpenses) {
		return nil, ErrForbidden
	}

	var results []struct {
		Date  string
		Count int64
	}

	query := s.db.WithContext(ctx).Model(&model.ExpenseModel{}).
		Select("DATE(created_at) as date, COUNT(*) as count")
	if creatorID := ownerScope(p); creatorID != nil {
		query = query.Where("creator_id = ?", *creatorID)
	}
	err := query.Group("DATE(created_at)").
		Order("date DESC").
		Scan(&results).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get expense statistics by date: %w", err)
	}

	stats := make([]*ExpenseStatisticsByDate, 0, len(results))
	for _, r := range results {
		stats = append(stats, &ExpenseStatisticsByDate{
			Date:  r.Date,
			Count: r.Count,
		})
	}

	return stats, nil
}

// GetApprovalStatistics 获取审批统计
func (s *statisticsService) GetApprovalStatistics(ctx context.Context) (*ApprovalStatistics, error) {
	counts, err := s.expenseRepo.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	approvedCount := counts[workflow.StatusApproved]
	rejectedCount := counts[workflow.StatusRejected]
	totalCount := approvedCount + rejectedCount

	approvalRate := 0.0
	if totalCount > 0 {
		approvalRate = float64(approvedCount) / float64(totalCount) * 100
	}

	var rows []struct {
		CreatedAt  time.Time
		ApprovedAt *time.Time
	}
	err = s.db.WithContext(ctx).Model(&model.ExpenseModel{}).
		Select("created_at, approved_at").
		Where("status = ? AND approved_at IS NOT NULL", workflow.StatusApproved).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load approval times: %w", err)
	}

	averageApprovalTime := 0.0
	if len(rows) > 0 {
		var sum time.Duration
		for _, r := range rows {
			sum += r.ApprovedAt.Sub(r.CreatedAt)
		}
		averageApprovalTime = (sum / time.Duration(len(rows))).Seconds()
	}

	return &ApprovalStatistics{
		TotalDecisions:      totalCount,
		ApprovedCount:       approvedCount,
		RejectedCount:       rejectedCount,
		ApprovalRate:        approvalRate,
		AverageApprovalTime: averageApprovalTime,
	}, nil
}
