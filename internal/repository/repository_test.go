package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/config"
	"github.com/neekunjshah/petty-cash/internal/database"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB 创建测试数据库
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := database.Connect(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "test.db"),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func createAccount(t *testing.T, repo repository.AccountRepository, name string, role auth.Role) *model.AccountModel {
	account := &model.AccountModel{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		FullName:     name,
		Role:         role,
	}
	require.NoError(t, repo.Create(context.Background(), account))
	return account
}

func createPending(t *testing.T, repo repository.ExpenseRepository, creatorID uint, amount string) *model.ExpenseModel {
	expense := &model.ExpenseModel{
		Purpose:            "Taxi",
		Amount:             decimal.RequireFromString(amount),
		RecipientName:      "Jane Doe",
		Status:             workflow.StatusPending,
		CreatorID:          creatorID,
		RecipientSignature: "recipient_1.png",
		EmployeeSignature:  "employee_1.png",
		SeniorSignature:    "senior_1.png",
	}
	require.NoError(t, repo.Create(context.Background(), expense))
	return expense
}

// TestAccountRepository 测试账户仓储
func TestAccountRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := repository.NewAccountRepository(db)
	ctx := context.Background()

	emp := createAccount(t, repo, "employee", auth.RoleEmployee)
	createAccount(t, repo, "senior", auth.RoleSenior)

	found, err := repo.FindByEmail(ctx, "employee@example.com")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, found.ID)
	assert.Equal(t, auth.RoleEmployee, found.Role)

	_, err = repo.FindByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// 邮箱唯一
	dup := &model.AccountModel{Username: "other", Email: "employee@example.com", PasswordHash: "x", FullName: "x", Role: auth.RoleEmployee}
	assert.Error(t, repo.Create(ctx, dup))

	n, err := repo.CountByRole(ctx, auth.RoleSenior)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

// TestExpenseRepository_CreateFind 测试报销单创建与查找
func TestExpenseRepository_CreateFind(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	repo := repository.NewExpenseRepository(db)
	ctx := context.Background()

	emp := createAccount(t, accounts, "employee", auth.RoleEmployee)
	created := createPending(t, repo, emp.ID, "25.50")

	found, err := repo.FindByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("25.50").Equal(found.Amount))
	assert.Equal(t, workflow.StatusPending, found.Status)
	require.NotNil(t, found.Creator)
	assert.Equal(t, "employee", found.Creator.FullName)
	assert.Nil(t, found.ApprovedBy)

	_, err = repo.FindByID(ctx, 9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// TestExpenseRepository_FindByFilter 测试过滤、排序与分页
func TestExpenseRepository_FindByFilter(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	repo := repository.NewExpenseRepository(db)
	ctx := context.Background()

	a := createAccount(t, accounts, "alice", auth.RoleEmployee)
	b := createAccount(t, accounts, "bob", auth.RoleEmployee)
	createPending(t, repo, a.ID, "1.00")
	createPending(t, repo, a.ID, "3.00")
	createPending(t, repo, b.ID, "2.00")

	all, total, err := repo.FindByFilter(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	own, total, err := repo.FindByFilter(ctx, &repository.ExpenseFilter{CreatorID: &a.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, e := range own {
		assert.Equal(t, a.ID, e.CreatorID)
	}

	sorted, _, err := repo.FindByFilter(ctx, &repository.ExpenseFilter{SortBy: "amount", Order: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, "1", sorted[0].Amount.String())
	assert.Equal(t, "3", sorted[2].Amount.String())

	page, total, err := repo.FindByFilter(ctx, &repository.ExpenseFilter{Page: 2, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, page, 1)

	approved := workflow.StatusApproved
	none, total, err := repo.FindByFilter(ctx, &repository.ExpenseFilter{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, none)
}

// TestExpenseRepository_Decide 测试只有 pending 记录可以被写入审批结果
func TestExpenseRepository_Decide(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	repo := repository.NewExpenseRepository(db)
	ctx := context.Background()

	emp := createAccount(t, accounts, "employee", auth.RoleEmployee)
	senior := createAccount(t, accounts, "senior", auth.RoleSenior)
	expense := createPending(t, repo, emp.ID, "25.50")

	now := time.Now()
	decision := &repository.Decision{
		Status:            workflow.StatusApproved,
		ApprovedByID:      &senior.ID,
		ApprovedAt:        &now,
		ApprovalSignature: "approval_1.png",
	}
	ok, err := repo.Decide(ctx, expense.ID, decision)
	require.NoError(t, err)
	assert.True(t, ok)

	// 第二次写入不再命中
	reason := "late"
	ok, err = repo.Decide(ctx, expense.ID, &repository.Decision{Status: workflow.StatusRejected, RejectionReason: &reason})
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusApproved, found.Status)
	assert.Nil(t, found.RejectionReason)
	require.NotNil(t, found.ApprovedBy)
	assert.Equal(t, senior.ID, found.ApprovedBy.ID)
	assert.Equal(t, "approval_1.png", found.ApprovalSignature)

	// 不存在的记录同样不命中
	ok, err = repo.Decide(ctx, 4242, decision)
	require.NoError(t, err)
	assert.False(t, ok)
}

// TestExpenseRepository_CountByStatus 测试按状态统计
func TestExpenseRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	repo := repository.NewExpenseRepository(db)
	ctx := context.Background()

	a := createAccount(t, accounts, "alice", auth.RoleEmployee)
	b := createAccount(t, accounts, "bob", auth.RoleEmployee)
	createPending(t, repo, a.ID, "1.00")
	createPending(t, repo, b.ID, "2.00")

	counts, err := repo.CountByStatus(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[workflow.StatusPending])
	assert.Equal(t, int64(0), counts[workflow.StatusApproved])
	assert.Len(t, counts, 4)

	counts, err = repo.CountByStatus(ctx, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[workflow.StatusPending])
}

// TestStateHistoryAndAuditRepository 测试历史与审计仓储
func TestStateHistoryAndAuditRepository(t *testing.T) {
	db := setupTestDB(t)
	accounts := repository.NewAccountRepository(db)
	expenses := repository.NewExpenseRepository(db)
	history := repository.NewStateHistoryRepository(db)
	audit := repository.NewAuditLogRepository(db)
	ctx := context.Background()

	emp := createAccount(t, accounts, "employee", auth.RoleEmployee)
	expense := createPending(t, expenses, emp.ID, "5.00")

	base := time.Now()
	require.NoError(t, history.Save(ctx, &model.StateHistoryModel{
		ID: "h2", ExpenseID: expense.ID, FromStatus: workflow.StatusPending, ToStatus: workflow.StatusApproved,
		OperatorID: emp.ID, CreatedAt: base.Add(time.Second),
	}))
	require.NoError(t, history.Save(ctx, &model.StateHistoryModel{
		ID: "h1", ExpenseID: expense.ID, FromStatus: workflow.StatusDraft, ToStatus: workflow.StatusPending,
		OperatorID: emp.ID, CreatedAt: base,
	}))

	items, err := history.FindByExpenseID(ctx, expense.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "h1", items[0].ID)

	require.NoError(t, audit.Save(ctx, &model.AuditLogModel{
		ID: "a1", UserID: "1", Action: "create", ResourceType: "expense", ResourceID: "1", CreatedAt: base,
	}))
	logs, err := audit.FindByResource(ctx, "expense", "1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	logs, err = audit.FindByUserID(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
