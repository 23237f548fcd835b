// Package export 生成报销单的 CSV 与 PDF 凭证
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/neekunjshah/petty-cash/internal/model"
)

// NotAvailable 缺失字段的占位文本
const NotAvailable = "N/A"

// CSVHeader CSV 列
var CSVHeader = []string{
	"ID", "Date", "Purpose", "Amount", "Recipient", "Status",
	"Created By", "Approved By", "Approved Date", "Rejection Reason",
}

// Options 导出格式选项
type Options struct {
	CurrencySymbol string
	TimeFormat     string
}

// DefaultOptions 默认导出选项
func DefaultOptions() Options {
	return Options{CurrencySymbol: "$", TimeFormat: "2006-01-02 15:04"}
}

func (o Options) normalize() Options {
	d := DefaultOptions()
	if o.TimeFormat == "" {
		o.TimeFormat = d.TimeFormat
	}
	return o
}

// FormatAmount 金额保留两位小数并加货币符号
func (o Options) FormatAmount(e *model.ExpenseModel) string {
	return o.CurrencySymbol + e.Amount.StringFixed(2)
}

// FormatTime 格式化时间,空值返回 N/A
func (o Options) FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Format(o.TimeFormat)
}

// WriteCSV 写出报销单 CSV,每条记录一行
func WriteCSV(w io.Writer, expenses []*model.ExpenseModel, opts Options) error {
	opts = opts.normalize()
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, e := range expenses {
		if err := cw.Write(csvRow(e, opts)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", e.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func csvRow(e *model.ExpenseModel, opts Options) []string {
	approvedBy := e.ApproverName()
	if approvedBy == "" {
		approvedBy = NotAvailable
	}
	reason := ""
	if e.RejectionReason != nil {
		reason = *e.RejectionReason
	}

	return []string{
		strconv.FormatUint(uint64(e.ID), 10),
		opts.FormatTime(&e.CreatedAt),
		safeCell(e.Purpose),
		opts.FormatAmount(e),
		safeCell(e.RecipientName),
		strings.ToUpper(e.Status.String()),
		safeCell(e.CreatorName()),
		safeCell(approvedBy),
		opts.FormatTime(e.ApprovedAt),
		safeCell(reason),
	}
}

// safeCell 防止表格软件把用户输入当作公式执行
func safeCell(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
