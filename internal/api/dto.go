package api

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/neekunjshah/petty-cash/internal/workflow"
)

// LoginRequest 登录请求,Email 字段也接受用户名
type LoginRequest struct {
	Email    string `json:"email" form:"email" binding:"required,max=120"`
	Password string `json:"password" form:"password" binding:"required,max=128"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	CSRFToken string           `json:"csrf_token"`
	Account   *AccountResponse `json:"account"`
}

// AccountResponse 账户信息
type AccountResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// CreateExpenseRequest 提交报销单请求
// 签名字段名与表单隐藏字段一致: {slot}_signature
type CreateExpenseRequest struct {
	Purpose            string      `json:"purpose" form:"purpose" binding:"required,max=500"`
	Amount             json.Number `json:"amount" form:"amount" binding:"required,money"`
	RecipientName      string      `json:"recipient_name" form:"recipient_name" binding:"required,max=120"`
	RecipientSignature string      `json:"recipient_signature" form:"recipient_signature"`
	EmployeeSignature  string      `json:"employee_signature" form:"employee_signature"`
	SeniorSignature    string      `json:"senior_signature" form:"senior_signature"`
}

// ApproveExpenseRequest 审批通过请求
type ApproveExpenseRequest struct {
	ApprovalSignature string `json:"approval_signature" form:"approval_signature"`
	Comment           string `json:"comment" form:"comment" binding:"max=1000"`
}

// RejectExpenseRequest 审批拒绝请求
type RejectExpenseRequest struct {
	Reason string `json:"reason" form:"reason" binding:"max=1000"`
}

// ListExpensesQuery 列表查询参数
type ListExpensesQuery struct {
	Status   string `form:"status" binding:"omitempty,status_filter"`
	SortBy   string `form:"sort_by" binding:"omitempty,max=32"`
	Order    string `form:"order" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExportQuery 导出查询参数
type ExportQuery struct {
	Status string `form:"status" binding:"omitempty,status_filter"`
}

// ExpenseResponse 报销单信息
type ExpenseResponse struct {
	ID              uint              `json:"id"`
	Purpose         string            `json:"purpose"`
	Amount          string            `json:"amount"`
	RecipientName   string            `json:"recipient_name"`
	Status          workflow.Status   `json:"status"`
	Creator         *AccountResponse  `json:"creator,omitempty"`
	ApprovedBy      *AccountResponse  `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time        `json:"approved_at,omitempty"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	Signatures      map[string]string `json:"signatures"` // slot -> 下载地址
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// HistoryResponse 状态变更记录
type HistoryResponse struct {
	FromStatus workflow.Status `json:"from_status"`
	ToStatus   workflow.Status `json:"to_status"`
	Reason     string          `json:"reason,omitempty"`
	OperatorID uint            `json:"operator_id"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DashboardResponse 首页数据
type DashboardResponse struct {
	Counts        map[workflow.Status]int64          `json:"counts"`
	Total         int64                              `json:"total"`
	PendingAmount string                             `json:"pending_amount"`
	Expenses      []*ExpenseResponse                 `json:"expenses"`
	Approval      *service.ApprovalStatistics        `json:"approval,omitempty"`
	ByDate        []*service.ExpenseStatisticsByDate `json:"by_date,omitempty"`
}

func newAccountResponse(a *model.AccountModel, withEmail bool) *AccountResponse {
	if a == nil {
		return nil
	}
	resp := &AccountResponse{
		ID:       a.ID,
		Username: a.Username,
		FullName: a.FullName,
		Role:     a.Role.String(),
	}
	if withEmail {
		resp.Email = a.Email
	}
	return resp
}

func newExpenseResponse(e *model.ExpenseModel) *ExpenseResponse {
	resp := &ExpenseResponse{
		ID:              e.ID,
		Purpose:         e.Purpose,
		Amount:          e.Amount.StringFixed(2),
		RecipientName:   e.RecipientName,
		Status:          e.Status,
		Creator:         newAccountResponse(e.Creator, false),
		ApprovedBy:      newAccountResponse(e.ApprovedBy, false),
		ApprovedAt:      e.ApprovedAt,
		RejectionReason: e.RejectionReason,
		Signatures:      make(map[string]string),
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
	for _, slot := range model.AllSlots() {
		if e.SignatureFile(slot) != "" {
			resp.Signatures[string(slot)] = fmt.Sprintf("/api/v1/expenses/%d/signatures/%s", e.ID, slot)
		}
	}
	return resp
}

func newExpenseResponses(expenses []*model.ExpenseModel) []*ExpenseResponse {
	out := make([]*ExpenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, newExpenseResponse(e))
	}
	return out
}

func newHistoryResponses(histories []*model.StateHistoryModel) []*HistoryResponse {
	out := make([]*HistoryResponse, 0, len(histories))
	for _, h := range histories {
		out = append(out, &HistoryResponse{
			FromStatus: h.FromStatus,
			ToStatus:   h.ToStatus,
			Reason:     h.Reason,
			OperatorID: h.OperatorID,
			CreatedAt:  h.CreatedAt,
		})
	}
	return out
}
