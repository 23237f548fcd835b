package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/metrics"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/signature"
	"github.com/neekunjshah/petty-cash/internal/utils"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	// MaxRejectionReasonLength 拒绝原因最大长度
	MaxRejectionReasonLength = 1000
	// DefaultPageSize 默认分页大小
	DefaultPageSize = 20
	// MaxPageSize 最大分页大小
	MaxPageSize = 100
)

// ExpenseService 报销单服务接口
type ExpenseService interface {
	Create(ctx context.Context, p auth.Principal, req *CreateExpenseRequest) (*model.ExpenseModel, error)
	Get(ctx context.Context, p auth.Principal, id uint) (*model.ExpenseModel, error)
	List(ctx context.Context, p auth.Principal, req *ListExpensesRequest) (*ExpenseList, error)
	History(ctx context.Context, p auth.Principal, id uint) ([]*model.StateHistoryModel, error)
	Signature(ctx context.Context, p auth.Principal, id uint, slot string) ([]byte, error)
	Approve(ctx context.Context, p auth.Principal, id uint, req *ApproveRequest) (*model.ExpenseModel, error)
	Reject(ctx context.Context, p auth.Principal, id uint, req *RejectRequest) (*model.ExpenseModel, error)
}

// CreateExpenseRequest 提交报销单请求
// Signatures 的键为签名位,值为传输字符串(data URL 或 base64)
type CreateExpenseRequest struct {
	Purpose       string
	Amount        decimal.Decimal
	RecipientName string
	Signatures    map[model.SignatureSlot]string
}

// ListExpensesRequest 报销单列表请求
type ListExpensesRequest struct {
	Status   string // 空或 all 表示全部
	SortBy   string
	Order    string
	Page     int
	PageSize int
}

// ExpenseList 报销单分页结果
type ExpenseList struct {
	Items    []*model.ExpenseModel
	Total    int64
	Page     int
	PageSize int
}

// ApproveRequest 审批通过请求
type ApproveRequest struct {
	Signature string // 审批人签名传输字符串
	Comment   string
}

// RejectRequest 审批拒绝请求
type RejectRequest struct {
	Reason string
}

type expenseService struct {
	db          *gorm.DB
	expenseRepo repository.ExpenseRepository
	historyRepo repository.StateHistoryRepository
	persister   *signature.Persister
	auditLogSvc AuditLogService
	now         func() time.Time
}

// NewExpenseService 创建报销单服务
func NewExpenseService(
	db *gorm.DB,
	expenseRepo repository.ExpenseRepository,
	historyRepo repository.StateHistoryRepository,
	persister *signature.Persister,
	auditLogSvc AuditLogService,
) ExpenseService {
	return &expenseService{
		db:          db,
		expenseRepo: expenseRepo,
		historyRepo: historyRepo,
		persister:   persister,
		auditLogSvc: auditLogSvc,
		now:         time.Now,
	}
}

// Create 提交报销单
// 先解码全部签名,任何一个失败都不会写入文件或数据库;
// 签名文件写入失败同样在插入记录之前返回
func (s *expenseService) Create(ctx context.Context, p auth.Principal, req *CreateExpenseRequest) (*model.ExpenseModel, error) {
	if !p.Can(auth.CapCreateExpense) {
		return nil, ErrForbidden
	}
	if req == nil {
		return nil, validationError("request is required")
	}

	purpose, err := utils.TrimAndValidate(req.Purpose, model.MaxPurposeLength)
	if err != nil {
		return nil, validationError("purpose: %v", err)
	}
	recipient, err := utils.TrimAndValidate(req.RecipientName, model.MaxRecipientLength)
	if err != nil {
		return nil, validationError("recipient name: %v", err)
	}
	if req.Amount.IsNegative() {
		return nil, validationError("amount must not be negative")
	}

	decoded := make(map[model.SignatureSlot][]byte, len(model.CreationSlots()))
	for _, slot := range model.CreationSlots() {
		data, err := s.persister.Decode(req.Signatures[slot])
		if err != nil {
			return nil, fmt.Errorf("%w: %s signature: %w", ErrValidation, slot, err)
		}
		decoded[slot] = data
	}

	status, err := workflow.Transition(workflow.StatusDraft, workflow.ActionSubmit)
	if err != nil {
		return nil, err
	}

	expense := &model.ExpenseModel{
		Purpose:       purpose,
		Amount:        req.Amount.Round(2),
		RecipientName: recipient,
		Status:        status,
		CreatorID:     p.ID,
	}
	for _, slot := range model.CreationSlots() {
		name, err := s.persister.Write(ctx, string(slot), decoded[slot])
		if err != nil {
			return nil, fmt.Errorf("failed to store %s signature: %w", slot, err)
		}
		metrics.RecordSignatureStored(string(slot))
		expense.SetSignatureFile(slot, name)
	}
	if err := expense.Validate(); err != nil {
		return nil, validationError("%v", err)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.expenseRepo.WithTx(tx).Create(ctx, expense); err != nil {
			return fmt.Errorf("failed to create expense: %w", err)
		}
		if err := s.saveHistory(ctx, tx, expense.ID, workflow.StatusDraft, status, "", p.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, p.ID, AuditActionCreate, expense.ID, map[string]string{
			"amount":    expense.Amount.StringFixed(2),
			"recipient": expense.RecipientName,
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordExpenseCreated()

	return s.load(ctx, expense.ID)
}

// Get 获取报销单,区分不存在与无权查看
func (s *expenseService) Get(ctx context.Context, p auth.Principal, id uint) (*model.ExpenseModel, error) {
	expense, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanView(expense.CreatorID) {
		return nil, ErrForbidden
	}
	return expense, nil
}

// List 列出当前账户可见的报销单,按创建时间倒序
func (s *expenseService) List(ctx context.Context, p auth.Principal, req *ListExpensesRequest) (*ExpenseList, error) {
	if !p.Can(auth.CapListExpenses) {
		return nil, ErrForbidden
	}
	if req == nil {
		req = &ListExpensesRequest{}
	}

	filter, err := scopedFilter(p, req.Status)
	if err != nil {
		return nil, err
	}

	if req.SortBy != "" {
		column, err := utils.ValidateSortField(req.SortBy)
		if err != nil {
			return nil, validationError("%v", err)
		}
		filter.SortBy = column
	}
	if req.Order != "" {
		if err := utils.ValidateSortOrder(req.Order); err != nil {
			return nil, validationError("%v", err)
		}
	}
	filter.Order = utils.SanitizeSortOrder(req.Order)

	page, pageSize := req.Page, req.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	filter.Page = page
	filter.PageSize = pageSize

	items, total, err := s.expenseRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ExpenseList{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// History 报销单状态历史
func (s *expenseService) History(ctx context.Context, p auth.Principal, id uint) ([]*model.StateHistoryModel, error) {
	if _, err := s.Get(ctx, p, id); err != nil {
		return nil, err
	}
	return s.historyRepo.FindByExpenseID(ctx, id)
}

// Signature 读取报销单上某个签名位的 PNG
func (s *expenseService) Signature(ctx context.Context, p auth.Principal, id uint, slot string) ([]byte, error) {
	expense, err := s.Get(ctx, p, id)
	if err != nil {
		return nil, err
	}
	sigSlot, err := model.ParseSignatureSlot(slot)
	if err != nil {
		return nil, validationError("%v", err)
	}
	name := expense.SignatureFile(sigSlot)
	if name == "" {
		return nil, fmt.Errorf("%w: %s signature not recorded", ErrNotFound, sigSlot)
	}
	data, err := s.persister.Load(ctx, name)
	if err != nil {
		if errors.Is(err, signature.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s signature file missing", ErrNotFound, sigSlot)
		}
		return nil, err
	}
	return data, nil
}

// Approve 审批通过,仅待审批状态可操作
func (s *expenseService) Approve(ctx context.Context, p auth.Principal, id uint, req *ApproveRequest) (*model.ExpenseModel, error) {
	if !p.Can(auth.CapDecideExpense) {
		return nil, ErrForbidden
	}
	if req == nil {
		req = &ApproveRequest{}
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := workflow.Transition(current.Status, workflow.ActionApprove)
	if err != nil {
		metrics.RecordDecision(string(workflow.ActionApprove), "conflict")
		return nil, fmt.Errorf("%w: %w", ErrConflict, err)
	}

	data, err := s.persister.Decode(req.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %s signature: %w", ErrValidation, model.SlotApproval, err)
	}
	name, err := s.persister.Write(ctx, string(model.SlotApproval), data)
	if err != nil {
		return nil, fmt.Errorf("failed to store %s signature: %w", model.SlotApproval, err)
	}
	metrics.RecordSignatureStored(string(model.SlotApproval))

	approverID := p.ID
	approvedAt := s.now()
	decision := &repository.Decision{
		Status:            next,
		ApprovedByID:      &approverID,
		ApprovedAt:        &approvedAt,
		ApprovalSignature: name,
	}
	if err := s.decide(ctx, p, id, workflow.ActionApprove, decision, req.Comment); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// Reject 审批拒绝,必须填写原因,不记录审批人
func (s *expenseService) Reject(ctx context.Context, p auth.Principal, id uint, req *RejectRequest) (*model.ExpenseModel, error) {
	if !p.Can(auth.CapDecideExpense) {
		return nil, ErrForbidden
	}
	if req == nil {
		req = &RejectRequest{}
	}

	reason, err := utils.TrimAndValidate(req.Reason, MaxRejectionReasonLength)
	if err != nil {
		return nil, validationError("rejection reason: %v", err)
	}

	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := workflow.Transition(current.Status, workflow.ActionReject)
	if err != nil {
		metrics.RecordDecision(string(workflow.ActionReject), "conflict")
		return nil, fmt.Errorf("%w: %w", ErrConflict, err)
	}

	decision := &repository.Decision{
		Status:          next,
		RejectionReason: &reason,
	}
	if err := s.decide(ctx, p, id, workflow.ActionReject, decision, reason); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

// decide 在事务中执行条件更新,未命中时区分不存在与状态冲突
func (s *expenseService) decide(ctx context.Context, p auth.Principal, id uint, action workflow.Action, decision *repository.Decision, note string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.expenseRepo.WithTx(tx)
		ok, err := repo.Decide(ctx, id, decision)
		if err != nil {
			return fmt.Errorf("failed to %s expense: %w", action, err)
		}
		if !ok {
			if _, err := repo.FindByID(ctx, id); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrNotFound
				}
				return err
			}
			return fmt.Errorf("%w: expense %d is no longer pending", ErrConflict, id)
		}
		if err := s.saveHistory(ctx, tx, id, workflow.StatusPending, decision.Status, note, p.ID); err != nil {
			return err
		}
		return s.audit(ctx, tx, p.ID, auditActionFor(action), id, map[string]string{
			"status": decision.Status.String(),
			"note":   note,
		})
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrConflict) {
			outcome = "conflict"
		}
	}
	metrics.RecordDecision(string(action), outcome)
	return err
}

// scopedFilter 按角色限定可见范围,主管可按状态过滤
func scopedFilter(p auth.Principal, status string) (*repository.ExpenseFilter, error) {
	filter := &repository.ExpenseFilter{CreatorID: ownerScope(p)}

	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && status != "all" {
		st, err := workflow.ParseStatus(status)
		if err != nil {
			return nil, validationError("%v", err)
		}
		filter.Status = &st
	}
	return filter, nil
}

func (s *expenseService) load(ctx context.Context, id uint) (*model.ExpenseModel, error) {
	expense, err := s.expenseRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return expense, nil
}

func (s *expenseService) saveHistory(ctx context.Context, tx *gorm.DB, expenseID uint, from, to workflow.Status, reason string, operatorID uint) error {
	history := &model.StateHistoryModel{
		ID:         uuid.New().String(),
		ExpenseID:  expenseID,
		FromStatus: from,
		ToStatus:   to,
		Reason:     reason,
		OperatorID: operatorID,
		CreatedAt:  s.now(),
	}
	if err := s.historyRepo.WithTx(tx).Save(ctx, history); err != nil {
		return fmt.Errorf("failed to save status history: %w", err)
	}
	return nil
}

func (s *expenseService) audit(ctx context.Context, tx *gorm.DB, userID uint, action string, expenseID uint, details interface{}) error {
	if s.auditLogSvc == nil {
		return nil
	}
	if err := s.auditLogSvc.WithTx(tx).RecordAction(ctx, userID, action, "expense",
		strconv.FormatUint(uint64(expenseID), 10), details); err != nil {
		return fmt.Errorf("failed to record audit log: %w", err)
	}
	return nil
}
