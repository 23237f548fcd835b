package auth_test

import (
	"testing"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/stretchr/testify/assert"
)

// TestRole_Can 测试角色能力矩阵
func TestRole_Can(t *testing.T) {
	assert.True(t, auth.RoleEmployee.Can(auth.CapCreateExpense))
	assert.False(t, auth.RoleEmployee.Can(auth.CapDecideExpense))
	assert.False(t, auth.RoleEmployee.Can(auth.CapViewAll))
	assert.True(t, auth.RoleEmployee.Can(auth.CapExport))

	assert.False(t, auth.RoleSenior.Can(auth.CapCreateExpense))
	assert.True(t, auth.RoleSenior.Can(auth.CapDecideExpense))
	assert.True(t, auth.RoleSenior.Can(auth.CapViewAll))
	assert.True(t, auth.RoleSenior.Can(auth.CapListExpenses))

	assert.False(t, auth.Role("admin").Can(auth.CapListExpenses))
}

// TestPrincipal_CanView 测试记录可见性
func TestPrincipal_CanView(t *testing.T) {
	employee := auth.Principal{ID: 1, Role: auth.RoleEmployee}
	senior := auth.Principal{ID: 2, Role: auth.RoleSenior}

	assert.True(t, employee.CanView(1))
	assert.False(t, employee.CanView(3))
	assert.True(t, senior.CanView(1))
	assert.True(t, senior.CanView(3))
}

// TestParseRole 测试角色解析
func TestParseRole(t *testing.T) {
	r, err := auth.ParseRole("senior")
	assert.NoError(t, err)
	assert.Equal(t, auth.RoleSenior, r)

	_, err = auth.ParseRole("manager")
	assert.ErrorIs(t, err, auth.ErrUnknownRole)
}
