package service

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/export"
	"github.com/neekunjshah/petty-cash/internal/metrics"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/repository"
	"github.com/neekunjshah/petty-cash/internal/signature"
)

// ExportService 导出服务接口
type ExportService interface {
	// CSV 导出当前账户可见的报销单
	CSV(ctx context.Context, p auth.Principal, status string) ([]byte, error)
	// Voucher 生成单条报销单的 PDF 凭证
	Voucher(ctx context.Context, p auth.Principal, id uint) (*model.ExpenseModel, []byte, error)
}

type exportService struct {
	expenseRepo repository.ExpenseRepository
	expenseSvc  ExpenseService
	persister   *signature.Persister
	auditLogSvc AuditLogService
	opts        export.Options
}

// NewExportService 创建导出服务
func NewExportService(
	expenseRepo repository.ExpenseRepository,
	expenseSvc ExpenseService,
	persister *signature.Persister,
	auditLogSvc AuditLogService,
	opts export.Options,
) ExportService {
	return &exportService{
		expenseRepo: expenseRepo,
		expenseSvc:  expenseSvc,
		persister:   persister,
		auditLogSvc: auditLogSvc,
		opts:        opts,
	}
}

// CSV 主管导出全部记录(可按状态过滤),员工只导出自己的记录
func (s *exportService) CSV(ctx context.Context, p auth.Principal, status string) ([]byte, error) {
	if !p.Can(auth.CapExport) {
		return nil, ErrForbidden
	}

	filter, err := scopedFilter(p, "")
	if err != nil {
		return nil, err
	}
	if p.Can(auth.CapViewAll) {
		if filter, err = scopedFilter(p, status); err != nil {
			return nil, err
		}
	}
	filter.Order = "DESC"

	expenses, _, err := s.expenseRepo.FindByFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, expenses, s.opts); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}

	metrics.RecordExport("csv")
	recordBestEffort(ctx, s.auditLogSvc, p.ID, AuditActionExport, "expense", "csv",
		map[string]string{"rows": strconv.Itoa(len(expenses)), "status": status})
	return buf.Bytes(), nil
}

// Voucher 创建人或主管可以下载凭证
func (s *exportService) Voucher(ctx context.Context, p auth.Principal, id uint) (*model.ExpenseModel, []byte, error) {
	expense, err := s.expenseSvc.Get(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}

	signatures, err := export.LoadSignatures(ctx, s.persister, expense)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := export.RenderVoucher(&buf, expense, signatures, s.opts); err != nil {
		return nil, nil, fmt.Errorf("failed to render voucher: %w", err)
	}

	metrics.RecordExport("pdf")
	recordBestEffort(ctx, s.auditLogSvc, p.ID, AuditActionExport, "expense",
		strconv.FormatUint(uint64(id), 10), map[string]string{"format": "pdf"})
	return expense, buf.Bytes(), nil
}
