package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
)

const (
	// MaxPurposeLength 用途最大长度
	MaxPurposeLength = 500
	// MaxRecipientLength 收款人姓名最大长度
	MaxRecipientLength = 120
)

// SignatureSlot 签名位
type SignatureSlot string

const (
	SlotRecipient SignatureSlot = "recipient" // 收款人
	SlotEmployee  SignatureSlot = "employee"  // 经办员工
	SlotSenior    SignatureSlot = "senior"    // 主管(提交时签署)
	SlotApproval  SignatureSlot = "approval"  // 审批时签署
)

// CreationSlots 提交报销单时必须填写的签名位
func CreationSlots() []SignatureSlot {
	return []SignatureSlot{SlotRecipient, SlotEmployee, SlotSenior}
}

// AllSlots 全部签名位
func AllSlots() []SignatureSlot {
	return []SignatureSlot{SlotRecipient, SlotEmployee, SlotSenior, SlotApproval}
}

// ParseSignatureSlot 解析签名位
func ParseSignatureSlot(s string) (SignatureSlot, error) {
	for _, slot := range AllSlots() {
		if string(slot) == s {
			return slot, nil
		}
	}
	return "", fmt.Errorf("unknown signature slot %q", s)
}

// FieldName 表单中承载签名的隐藏字段名
func (s SignatureSlot) FieldName() string {
	return string(s) + "_signature"
}

// ExpenseModel 报销单数据模型
// 记录不会被物理删除,只通过状态机迁移修改
type ExpenseModel struct {
	ID                 uint            `gorm:"primaryKey;autoIncrement"`
	Purpose            string          `gorm:"type:varchar(500);not null"`
	Amount             decimal.Decimal `gorm:"type:numeric(12,2);not null;check:chk_expenses_amount,amount >= 0"`
	RecipientName      string          `gorm:"type:varchar(120);not null"`
	Status             workflow.Status `gorm:"type:varchar(20);not null;index"`
	CreatorID          uint            `gorm:"not null;index"`
	Creator            *AccountModel   `gorm:"foreignKey:CreatorID"`
	RecipientSignature string          `gorm:"type:varchar(255)"`
	EmployeeSignature  string          `gorm:"type:varchar(255)"`
	SeniorSignature    string          `gorm:"type:varchar(255)"`
	ApprovalSignature  string          `gorm:"type:varchar(255)"`
	ApprovedByID       *uint           `gorm:"index"`
	ApprovedBy         *AccountModel   `gorm:"foreignKey:ApprovedByID"`
	ApprovedAt         *time.Time
	RejectionReason    *string   `gorm:"type:text"`
	CreatedAt          time.Time `gorm:"not null;index"`
	UpdatedAt          time.Time `gorm:"not null"`
}

// TableName 指定表名
func (ExpenseModel) TableName() string {
	return "expenses"
}

// SignatureFile 返回签名位对应的存储文件名
func (em *ExpenseModel) SignatureFile(slot SignatureSlot) string {
	switch slot {
	case SlotRecipient:
		return em.RecipientSignature
	case SlotEmployee:
		return em.EmployeeSignature
	case SlotSenior:
		return em.SeniorSignature
	case SlotApproval:
		return em.ApprovalSignature
	}
	return ""
}

// SetSignatureFile 设置签名位对应的存储文件名
func (em *ExpenseModel) SetSignatureFile(slot SignatureSlot, filename string) {
	switch slot {
	case SlotRecipient:
		em.RecipientSignature = filename
	case SlotEmployee:
		em.EmployeeSignature = filename
	case SlotSenior:
		em.SeniorSignature = filename
	case SlotApproval:
		em.ApprovalSignature = filename
	}
}

// CreatorName 创建人姓名
func (em *ExpenseModel) CreatorName() string {
	if em.Creator == nil {
		return ""
	}
	return em.Creator.FullName
}

// ApproverName 审批人姓名
func (em *ExpenseModel) ApproverName() string {
	if em.ApprovedBy == nil {
		return ""
	}
	return em.ApprovedBy.FullName
}

// Validate 验证报销单模型
func (em *ExpenseModel) Validate() error {
	if strings.TrimSpace(em.Purpose) == "" {
		return errors.New("purpose is required")
	}
	if utf8.RuneCountInString(em.Purpose) > MaxPurposeLength {
		return fmt.Errorf("purpose must be at most %d characters", MaxPurposeLength)
	}
	if em.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	if strings.TrimSpace(em.RecipientName) == "" {
		return errors.New("recipient name is required")
	}
	if utf8.RuneCountInString(em.RecipientName) > MaxRecipientLength {
		return fmt.Errorf("recipient name must be at most %d characters", MaxRecipientLength)
	}
	if em.CreatorID == 0 {
		return errors.New("creator is required")
	}
	if !em.Status.Valid() {
		return fmt.Errorf("invalid status %q", em.Status)
	}

	if em.Status != workflow.StatusDraft {
		for _, slot := range CreationSlots() {
			if em.SignatureFile(slot) == "" {
				return fmt.Errorf("%s signature is required", slot)
			}
		}
	}

	switch em.Status {
	case workflow.StatusApproved:
		if em.ApprovedByID == nil || em.ApprovedAt == nil || em.ApprovalSignature == "" {
			return errors.New("approved expense requires approver, timestamp and signature")
		}
	case workflow.StatusRejected:
		if em.RejectionReason == nil || strings.TrimSpace(*em.RejectionReason) == "" {
			return errors.New("rejected expense requires a reason")
		}
		if em.ApprovedByID != nil {
			return errors.New("rejected expense must not carry an approver")
		}
	case workflow.StatusDraft, workflow.StatusPending:
	}

	return nil
}
