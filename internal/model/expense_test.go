package model_test

import (
	"testing"
	"time"

	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func pendingExpense() *model.ExpenseModel {
	return &model.ExpenseModel{
		Purpose:            "Taxi",
		Amount:             decimal.RequireFromString("25.50"),
		RecipientName:      "Jane Doe",
		Status:             workflow.StatusPending,
		CreatorID:          1,
		RecipientSignature: "recipient_a.png",
		EmployeeSignature:  "employee_b.png",
		SeniorSignature:    "senior_c.png",
	}
}

// TestExpenseModelTableName 测试表名
func TestExpenseModelTableName(t *testing.T) {
	assert.Equal(t, "expenses", model.ExpenseModel{}.TableName())
	assert.Equal(t, "accounts", model.AccountModel{}.TableName())
	assert.Equal(t, "expense_status_history", model.StateHistoryModel{}.TableName())
	assert.Equal(t, "audit_logs", model.AuditLogModel{}.TableName())
}

// TestExpenseModelValidation 测试报销单验证
func TestExpenseModelValidation(t *testing.T) {
	assert.NoError(t, pendingExpense().Validate())

	// 金额为负
	em := pendingExpense()
	em.Amount = decimal.RequireFromString("-0.01")
	assert.Error(t, em.Validate())

	// 金额为零合法
	em = pendingExpense()
	em.Amount = decimal.Zero
	assert.NoError(t, em.Validate())

	// 离开草稿状态前必须具备三个签名
	em = pendingExpense()
	em.SeniorSignature = ""
	assert.ErrorContains(t, em.Validate(), "senior signature")

	em.Status = workflow.StatusDraft
	assert.NoError(t, em.Validate())

	// 批准需要审批人、时间与审批签名
	em = pendingExpense()
	em.Status = workflow.StatusApproved
	assert.Error(t, em.Validate())
	approver := uint(2)
	now := time.Now()
	em.ApprovedByID = &approver
	em.ApprovedAt = &now
	em.ApprovalSignature = "approval_d.png"
	assert.NoError(t, em.Validate())

	// 拒绝需要原因且不能有审批人
	em = pendingExpense()
	em.Status = workflow.StatusRejected
	assert.Error(t, em.Validate())
	reason := "duplicate"
	em.RejectionReason = &reason
	assert.NoError(t, em.Validate())
	em.ApprovedByID = &approver
	assert.Error(t, em.Validate())
}

// TestExpenseModel_SignatureFile 测试签名位读写
func TestExpenseModel_SignatureFile(t *testing.T) {
	em := &model.ExpenseModel{}
	for _, slot := range model.AllSlots() {
		em.SetSignatureFile(slot, string(slot)+"_x.png")
	}
	assert.Equal(t, "recipient_x.png", em.RecipientSignature)
	assert.Equal(t, "approval_x.png", em.SignatureFile(model.SlotApproval))
	assert.Equal(t, "employee_signature", model.SlotEmployee.FieldName())

	slot, err := model.ParseSignatureSlot("senior")
	assert.NoError(t, err)
	assert.Equal(t, model.SlotSenior, slot)
	_, err = model.ParseSignatureSlot("witness")
	assert.Error(t, err)
}
