package auth

import (
	"errors"
	"fmt"
)

// Role 账户角色(封闭集合,创建后不可修改)
type Role string

const (
	RoleEmployee Role = "employee" // 员工:提交报销
	RoleSenior   Role = "senior"   // 主管:审批报销
)

// Capability 请求入口处检查的操作能力
type Capability string

const (
	CapCreateExpense Capability = "expense:create" // 提交报销单
	CapDecideExpense Capability = "expense:decide" // 批准/拒绝报销单
	CapViewAll       Capability = "expense:view_all"
	CapListExpenses  Capability = "expense:list"
	CapExport        Capability = "expense:export"
)

// ErrUnknownRole 未知角色
var ErrUnknownRole = errors.New("unknown role")

// ParseRole 解析角色字符串
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleSenior:
		return true
	}
	return false
}

// Can 判断角色是否具备某项能力
func (r Role) Can(capability Capability) bool {
	switch r {
	case RoleEmployee:
		switch capability {
		case CapCreateExpense, CapListExpenses, CapExport:
			return true
		}
	case RoleSenior:
		switch capability {
		case CapDecideExpense, CapViewAll, CapListExpenses, CapExport:
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

// Principal 当前请求的登录账户
type Principal struct {
	ID       uint
	Username string
	FullName string
	Role     Role
}

// Can 判断当前账户是否具备某项能力
func (p Principal) Can(capability Capability) bool {
	return p.Role.Can(capability)
}

// CanView 判断是否可以查看 ownerID 名下的记录
// 主管可以查看全部记录,员工只能查看自己创建的记录
func (p Principal) CanView(ownerID uint) bool {
	return p.Role.Can(CapViewAll) || p.ID == ownerID
}
