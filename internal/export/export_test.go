package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"image"
	"image/color"
	"image/png"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"github.com/neekunjshah/petty-cash/internal/export"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/signature"
	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleExpense() *model.ExpenseModel {
	approver := uint(2)
	approvedAt := time.Date(2024, 3, 2, 9, 30, 0, 0, time.UTC)
	return &model.ExpenseModel{
		ID:                 7,
		Purpose:            "Taxi",
		Amount:             decimal.RequireFromString("25.5"),
		RecipientName:      "Jane Doe",
		Status:             workflow.StatusApproved,
		CreatorID:          1,
		Creator:            &model.AccountModel{ID: 1, FullName: "John Employee"},
		RecipientSignature: "recipient_a.png",
		EmployeeSignature:  "employee_b.png",
		SeniorSignature:    "senior_c.png",
		ApprovalSignature:  "approval_d.png",
		ApprovedByID:       &approver,
		ApprovedBy:         &model.AccountModel{ID: 2, FullName: "Jane Senior"},
		ApprovedAt:         &approvedAt,
		CreatedAt:          time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC),
	}
}

// TestWriteCSV 测试 CSV 列与格式
func TestWriteCSV(t *testing.T) {
	reason := "=HYPERLINK(\"x\")"
	rejected := &model.ExpenseModel{
		ID:              8,
		Purpose:         "Lunch, team",
		Amount:          decimal.RequireFromString("0"),
		RecipientName:   "Cafe",
		Status:          workflow.StatusRejected,
		Creator:         &model.AccountModel{FullName: "John Employee"},
		RejectionReason: &reason,
		CreatedAt:       time.Date(2024, 3, 3, 8, 0, 0, 0, time.UTC),
	}

	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []*model.ExpenseModel{sampleExpense(), rejected}, export.DefaultOptions()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, export.CSVHeader, records[0])

	assert.Equal(t, []string{
		"7", "2024-03-01 14:05", "Taxi", "$25.50", "Jane Doe", "APPROVED",
		"John Employee", "Jane Senior", "2024-03-02 09:30", "",
	}, records[1])

	assert.Equal(t, "Lunch, team", records[2][2])
	assert.Equal(t, "$0.00", records[2][3])
	assert.Equal(t, "REJECTED", records[2][5])
	assert.Equal(t, export.NotAvailable, records[2][7])
	assert.Equal(t, export.NotAvailable, records[2][8])
	// 公式前缀被转义
	assert.Equal(t, "'"+reason, records[2][9])
}

// TestWriteCSV_Empty 测试空结果只输出表头
func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, nil, export.Options{CurrencySymbol: "€"}))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

type fakeSource struct {
	mu    sync.Mutex
	files map[string][]byte
	calls []string
	fail  error
}

func (f *fakeSource) Load(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if f.fail != nil {
		return nil, f.fail
	}
	data, ok := f.files[name]
	if !ok {
		return nil, signature.ErrNotExist
	}
	return data, nil
}

func signaturePNG(t *testing.T) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, 60, 30))
	for x := 5; x < 55; x++ {
		img.Set(x, 15, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// TestLoadSignatures 测试并发读取签名并跳过缺失文件
func TestLoadSignatures(t *testing.T) {
	e := sampleExpense()
	sig := signaturePNG(t)
	src := &fakeSource{files: map[string][]byte{
		"recipient_a.png": sig,
		"employee_b.png":  sig,
		"approval_d.png":  sig,
	}}

	got, err := export.LoadSignatures(context.Background(), src, e)
	require.NoError(t, err)
	assert.Len(t, got, 3)
	assert.Contains(t, got, model.SlotApproval)
	assert.NotContains(t, got, model.SlotSenior)
	assert.Len(t, src.calls, 4)

	// 空签名位不读取
	e.ApprovalSignature = ""
	src.calls = nil
	_, err = export.LoadSignatures(context.Background(), src, e)
	require.NoError(t, err)
	assert.Len(t, src.calls, 3)

	src.fail = errors.New("disk on fire")
	_, err = export.LoadSignatures(context.Background(), src, e)
	assert.ErrorContains(t, err, "disk on fire")
}

// TestRenderVoucher 测试生成 PDF 凭证
func TestRenderVoucher(t *testing.T) {
	e := sampleExpense()
	e.Purpose = "Airport taxi for the quarterly offsite, including tolls and a very long description " +
		"that needs to wrap across several lines in the voucher field table, café receipts attached."
	sig := signaturePNG(t)
	sigs := map[model.SignatureSlot][]byte{
		model.SlotRecipient: sig,
		model.SlotEmployee:  sig,
		model.SlotSenior:    sig,
		model.SlotApproval:  sig,
	}

	var buf bytes.Buffer
	require.NoError(t, export.RenderVoucher(&buf, e, sigs, export.DefaultOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "/Count 1")

	// 无签名同样可以生成
	buf.Reset()
	require.NoError(t, export.RenderVoucher(&buf, e, nil, export.DefaultOptions()))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

	// 损坏的签名数据返回错误
	buf.Reset()
	err := export.RenderVoucher(&buf, e, map[model.SignatureSlot][]byte{model.SlotRecipient: []byte("junk")}, export.DefaultOptions())
	assert.Error(t, err)
}

var imagePlacement = regexp.MustCompile(`q (-?[\d.]+) 0 0 (-?[\d.]+) (-?[\d.]+) (-?[\d.]+) cm /I\S+ Do Q`)

// placedImages 读取未压缩 PDF 中每张图片的 [宽, 高, x, y]
func placedImages(t *testing.T, pdf []byte) [][4]float64 {
	var boxes [][4]float64
	for _, m := range imagePlacement.FindAllStringSubmatch(string(pdf), -1) {
		var box [4]float64
		for i := range box {
			v, err := strconv.ParseFloat(m[i+1], 64)
			require.NoError(t, err)
			box[i] = v
		}
		boxes = append(boxes, box)
	}
	return boxes
}

// TestRenderVoucher_LongFieldsStayOnPage 测试最长字段下所有签名仍在同一页内
func TestRenderVoucher_LongFieldsStayOnPage(t *testing.T) {
	fpdf.SetDefaultCompression(false)
	t.Cleanup(func() { fpdf.SetDefaultCompression(true) })

	sig := signaturePNG(t)
	longName := strings.Repeat("W", model.MaxRecipientLength)

	approved := sampleExpense()
	approved.Purpose = strings.Repeat("Conference travel and lodging ", 20)[:model.MaxPurposeLength]
	approved.RecipientName = longName
	approved.Creator.FullName = longName
	approved.ApprovedBy.FullName = longName

	reason := strings.Repeat("Missing itemised receipt. ", 40)[:1000]
	rejected := sampleExpense()
	rejected.Purpose = strings.Repeat("W", model.MaxPurposeLength)
	rejected.RecipientName = longName
	rejected.Status = workflow.StatusRejected
	rejected.ApprovedByID = nil
	rejected.ApprovedBy = nil
	rejected.ApprovedAt = nil
	rejected.ApprovalSignature = ""
	rejected.RejectionReason = &reason

	tests := []struct {
		name    string
		expense *model.ExpenseModel
		slots   []model.SignatureSlot
	}{
		{"short approved", sampleExpense(), model.AllSlots()},
		{"long approved", approved, model.AllSlots()},
		{"long rejected", rejected, model.CreationSlots()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sigs := make(map[model.SignatureSlot][]byte, len(tt.slots))
			for _, slot := range tt.slots {
				sigs[slot] = sig
			}

			var buf bytes.Buffer
			require.NoError(t, export.RenderVoucher(&buf, tt.expense, sigs, export.DefaultOptions()))
			assert.Contains(t, buf.String(), "/Count 1")

			boxes := placedImages(t, buf.Bytes())
			require.Len(t, boxes, len(tt.slots))
			for _, b := range boxes {
				w, h, x, y := b[0], b[1], b[2], b[3]
				assert.Greater(t, h, 0.0)
				assert.GreaterOrEqual(t, x, 0.0, "image left edge off page: %v", b)
				assert.GreaterOrEqual(t, y, 0.0, "image bottom edge off page: %v", b)
				assert.LessOrEqual(t, x+w, 612.0, "image right edge off page: %v", b)
				assert.LessOrEqual(t, y+h, 792.0, "image top edge off page: %v", b)
			}
		})
	}
}
