// Package workflow 定义报销单状态机
//
// 状态为封闭枚举,所有 (状态, 动作) 组合都在 Transition 中显式处理。
package workflow

import (
	"errors"
	"fmt"
)

// Status 报销单状态
type Status string

const (
	StatusDraft    Status = "draft"    // 草稿(创建时的隐式初始状态)
	StatusPending  Status = "pending"  // 待审批
	StatusApproved Status = "approved" // 已批准
	StatusRejected Status = "rejected" // 已拒绝
)

// Action 状态迁移动作
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var (
	// ErrInvalidTransition 当前状态不允许该动作
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrTerminalState 记录已处于终态
	ErrTerminalState = errors.New("record is in a terminal state")
	// ErrUnknownStatus 未知状态
	ErrUnknownStatus = errors.New("unknown status")
)

// AllStatuses 返回全部状态,按生命周期顺序
func AllStatuses() []Status {
	return []Status{StatusDraft, StatusPending, StatusApproved, StatusRejected}
}

// ParseStatus 解析状态字符串
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return st, nil
}

// Valid 是否为合法状态
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal 是否为终态
func (s Status) Terminal() bool {
	switch s {
	case StatusApproved, StatusRejected:
		return true
	case StatusDraft, StatusPending:
		return false
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Valid 是否为合法动作
func (a Action) Valid() bool {
	switch a {
	case ActionSubmit, ActionApprove, ActionReject:
		return true
	}
	return false
}

// Transition 计算 from 状态执行 action 之后的状态
// 终态上的任何动作返回 ErrTerminalState,其余非法组合返回 ErrInvalidTransition
func Transition(from Status, action Action) (Status, error) {
	if !action.Valid() {
		return from, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	switch from {
	case StatusDraft:
		switch action {
		case ActionSubmit:
			return StatusPending, nil
		case ActionApprove, ActionReject:
			return from, fmt.Errorf("%w: cannot %s a draft", ErrInvalidTransition, action)
		}
	case StatusPending:
		switch action {
		case ActionApprove:
			return StatusApproved, nil
		case ActionReject:
			return StatusRejected, nil
		case ActionSubmit:
			return from, fmt.Errorf("%w: already submitted", ErrInvalidTransition)
		}
	case StatusApproved, StatusRejected:
		return from, fmt.Errorf("%w: %s", ErrTerminalState, from)
	}

	return from, fmt.Errorf("%w: %q", ErrUnknownStatus, from)
}
