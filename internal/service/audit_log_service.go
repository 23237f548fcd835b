package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var logger = logrus.StandardLogger()

// SetLogger 设置服务层日志记录器,在启动时调用
func SetLogger(l *logrus.Logger) {
	if l != nil {
		logger = l
	}
}

// 审计动作
const (
	AuditActionLogin   = "login"
	AuditActionCreate  = "create"
	AuditActionApprove = "approve"
	AuditActionReject  = "reject"
	AuditActionExport  = "export"
)

// AuditLogService 审计日志服务
type AuditLogService interface {
	// WithTx 返回写入同一事务的审计服务
	WithTx(tx *gorm.DB) AuditLogService
	RecordAction(ctx context.Context, userID uint, action string, resourceType string, resourceID string, details interface{}) error
	ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error)
}

// auditLogService 审计日志服务实现
type auditLogService struct {
	auditRepo repository.AuditLogRepository
}

// NewAuditLogService 创建审计日志服务
func NewAuditLogService(auditRepo repository.AuditLogRepository) AuditLogService {
	return &auditLogService{
		auditRepo: auditRepo,
	}
}

func (s *auditLogService) WithTx(tx *gorm.DB) AuditLogService {
	return &auditLogService{auditRepo: s.auditRepo.WithTx(tx)}
}

// RecordAction 记录操作审计日志
func (s *auditLogService) RecordAction(
	ctx context.Context,
	userID uint,
	action string,
	resourceType string,
	resourceID string,
	details interface{},
) error {
	// 序列化详情
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return err
	}

	meta := RequestMetaFrom(ctx)

	auditLog := &model.AuditLogModel{
		ID:           uuid.New().String(),
		UserID:       strconv.FormatUint(uint64(userID), 10),
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    meta.RequestID,
		IP:           meta.IP,
		UserAgent:    meta.UserAgent,
		Details:      string(detailsJSON),
		CreatedAt:    time.Now(),
	}
	if err := auditLog.Validate(); err != nil {
		return err
	}

	return s.auditRepo.Save(ctx, auditLog)
}

// recordBestEffort 记录不影响主流程结果的审计日志,写入失败只告警
func recordBestEffort(ctx context.Context, svc AuditLogService, userID uint, action string, resourceType string, resourceID string, details interface{}) {
	if svc == nil {
		return
	}
	if err := svc.RecordAction(ctx, userID, action, resourceType, resourceID, details); err != nil {
		logger.WithError(err).WithFields(logrus.Fields{
			"request_id":    RequestMetaFrom(ctx).RequestID,
			"user_id":       userID,
			"action":        action,
			"resource_type": resourceType,
			"resource_id":   resourceID,
		}).Warn("Failed to record audit log")
	}
}

// auditActionFor 审批动作对应的审计动作
func auditActionFor(action workflow.Action) string {
	if action == workflow.ActionReject {
		return AuditActionReject
	}
	return AuditActionApprove
}

// ListByResource 查询某个资源的审计日志
func (s *auditLogService) ListByResource(ctx context.Context, resourceType string, resourceID string) ([]*model.AuditLogModel, error) {
	return s.auditRepo.FindByResource(ctx, resourceType, resourceID)
}
