package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/signature"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// 版面尺寸(pt)
const (
	pageMargin        = 56.0
	titleHeight       = 30.0
	titleGap          = 12.0
	sectionGap        = 20.0
	sigHeadHeight     = 20.0
	sigHeadGap        = 6.0
	labelWidth        = 150.0
	valueWidth        = 350.0
	lineHeight        = 18.0
	sigColumns        = 2
	sigCellWidth      = (labelWidth + valueWidth) / sigColumns
	sigImageWidth     = 150.0
	sigImageHeight    = 75.0
	minSigImageHeight = 24.0
	cellPadding       = 8.0
)

// 字段表放不下时依次尝试的字号
var fieldFontSizes = []float64{10, 9, 8, 7, 6, 5}

// SignatureSource 签名文件读取
type SignatureSource interface {
	Load(ctx context.Context, name string) ([]byte, error)
}

// LoadSignatures 并发读取报销单上已填写的签名,缺失文件被跳过
func LoadSignatures(ctx context.Context, src SignatureSource, e *model.ExpenseModel) (map[model.SignatureSlot][]byte, error) {
	slots := model.AllSlots()
	results := make([][]byte, len(slots))

	g, gctx := errgroup.WithContext(ctx)
	for i, slot := range slots {
		name := e.SignatureFile(slot)
		if name == "" {
			continue
		}
		i := i
		g.Go(func() error {
			data, err := src.Load(gctx, name)
			if err != nil {
				if errors.Is(err, signature.ErrNotExist) {
					return nil
				}
				return fmt.Errorf("load %s signature: %w", slots[i], err)
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[model.SignatureSlot][]byte, len(slots))
	for i, slot := range slots {
		if results[i] != nil {
			out[slot] = results[i]
		}
	}
	return out, nil
}

// RenderVoucher 生成单页 PDF 凭证
// 字段表与签名区按页面剩余高度排版,所有内容都落在同一页内
func RenderVoucher(w io.Writer, e *model.ExpenseModel, signatures map[model.SignatureSlot][]byte, opts Options) error {
	opts = opts.normalize()

	pdf := fpdf.New("P", "pt", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Expense Voucher #%d", e.ID), true)
	pdf.SetCreator("petty-cash", true)
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, titleHeight, "EXPENSE VOUCHER", "", 1, "C", false, 0, "")
	pdf.Ln(titleGap)

	slots := make([]model.SignatureSlot, 0, len(signatures))
	for _, slot := range model.AllSlots() {
		if _, ok := signatures[slot]; ok {
			slots = append(slots, slot)
		}
	}

	fields := voucherFields(e, opts)
	plan := planVoucher(pdf, tr, fields, len(slots))

	// 字段表
	pdf.SetFont("Helvetica", "", plan.fontSize)
	pdf.SetFillColor(211, 211, 211)
	for i, row := range fields {
		height := plan.lineHeight * float64(len(plan.lines[i]))
		pdf.CellFormat(labelWidth, height, " "+row[0], "1", 0, "LT", true, 0, "")
		pdf.MultiCell(valueWidth, plan.lineHeight, strings.Join(plan.lines[i], "\n"), "1", "L", false)
	}
	if len(slots) == 0 {
		return finish(pdf, w)
	}
	pdf.Ln(sectionGap)

	// 签名区,两列网格
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, sigHeadHeight, "Signatures:", "", 1, "L", false, 0, "")
	pdf.Ln(sigHeadGap)

	left, top := pdf.GetXY()
	cellHeight := plan.sigImageHeight + 2*cellPadding + 2*lineHeight
	for i, slot := range slots {
		x := left + float64(i%sigColumns)*sigCellWidth
		y := top + float64(i/sigColumns)*cellHeight
		if err := drawSignature(pdf, tr, x, y, plan.sigImageHeight, slot, signerName(e, slot), signatures[slot]); err != nil {
			return err
		}
	}
	return finish(pdf, w)
}

func finish(pdf *fpdf.Fpdf, w io.Writer) error {
	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to render voucher: %w", err)
	}
	return pdf.Output(w)
}

// voucherPlan 单页排版结果
type voucherPlan struct {
	fontSize       float64
	lineHeight     float64
	lines          [][]string
	sigImageHeight float64
}

// planVoucher 选择能让字段表和签名区同时放进一页的最大字号与签名高度
func planVoucher(pdf *fpdf.Fpdf, tr func(string) string, fields [][2]string, signatures int) voucherPlan {
	_, pageHeight := pdf.GetPageSize()
	free := pageHeight - pageMargin - pdf.GetY()
	sigRows := (signatures + sigColumns - 1) / sigColumns

	var plan voucherPlan
	for _, size := range fieldFontSizes {
		pdf.SetFont("Helvetica", "", size)
		plan = voucherPlan{
			fontSize:       size,
			lineHeight:     lineHeight * size / fieldFontSizes[0],
			lines:          make([][]string, len(fields)),
			sigImageHeight: minSigImageHeight,
		}
		tableHeight := 0.0
		for i, row := range fields {
			lines := pdf.SplitText(tr(row[1]), valueWidth)
			if len(lines) == 0 {
				lines = []string{""}
			}
			plan.lines[i] = lines
			tableHeight += plan.lineHeight * float64(len(lines))
		}

		remaining := free - tableHeight
		if sigRows == 0 {
			if remaining >= 0 {
				return plan
			}
			continue
		}
		perRow := (remaining-sectionGap-sigHeadHeight-sigHeadGap)/float64(sigRows) - 2*cellPadding - 2*lineHeight
		if perRow >= minSigImageHeight {
			plan.sigImageHeight = math.Min(perRow, sigImageHeight)
			return plan
		}
	}
	return plan
}

// voucherFields 凭证字段
func voucherFields(e *model.ExpenseModel, opts Options) [][2]string {
	rows := [][2]string{
		{"Expense ID:", fmt.Sprintf("#%d", e.ID)},
		{"Date:", opts.FormatTime(&e.CreatedAt)},
		{"Status:", strings.ToUpper(e.Status.String())},
		{"Purpose:", e.Purpose},
		{"Amount:", opts.FormatAmount(e)},
		{"Recipient:", e.RecipientName},
		{"Created By:", e.CreatorName()},
	}
	if e.ApprovedBy != nil {
		rows = append(rows,
			[2]string{"Approved By:", e.ApproverName()},
			[2]string{"Approved Date:", opts.FormatTime(e.ApprovedAt)},
		)
	}
	if e.RejectionReason != nil {
		rows = append(rows, [2]string{"Rejection Reason:", *e.RejectionReason})
	}
	return rows
}

// drawSignature 在 (x, y) 处绘制一个签名格:标题行、图片框、签名人行
func drawSignature(pdf *fpdf.Fpdf, tr func(string) string, x, y, imageHeight float64, slot model.SignatureSlot, signer string, data []byte) error {
	img, err := normalize(data)
	if err != nil {
		return fmt.Errorf("%s signature: %w", slot, err)
	}

	name := "sig_" + string(slot)
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	info := pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img))
	if info == nil {
		return fmt.Errorf("%s signature: %w", slot, pdf.Error())
	}

	// 保持宽高比缩放到签名框内
	w, h := info.Extent()
	scale := math.Min(sigImageWidth, sigCellWidth-2*cellPadding) / w
	if s := imageHeight / h; s < scale {
		scale = s
	}

	boxHeight := imageHeight + 2*cellPadding
	pdf.SetXY(x, y)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(sigCellWidth, lineHeight, " "+slotLabel(slot)+":", "1", 0, "L", true, 0, "")
	pdf.SetXY(x, y+lineHeight)
	pdf.CellFormat(sigCellWidth, boxHeight, "", "1", 0, "", false, 0, "")
	pdf.ImageOptions(name, x+cellPadding, y+lineHeight+cellPadding, w*scale, h*scale, false, opts, 0, "")

	// 签名人过长时只保留第一行,完整姓名已在字段表中
	pdf.SetFont("Helvetica", "", 10)
	signerLines := pdf.SplitText(tr(signer), sigCellWidth)
	if len(signerLines) == 0 {
		signerLines = []string{""}
	}
	pdf.SetXY(x, y+lineHeight+boxHeight)
	pdf.CellFormat(sigCellWidth, lineHeight, " "+signerLines[0], "1", 0, "L", false, 0, "")
	return nil
}

// normalize 转为 8 位 NRGBA PNG,PDF 不支持 16 位深度
func normalize(data []byte) ([]byte, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(src.Bounds())
	xdraw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, xdraw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func slotLabel(slot model.SignatureSlot) string {
	switch slot {
	case model.SlotRecipient:
		return "Recipient"
	case model.SlotEmployee:
		return "Employee"
	case model.SlotSenior:
		return "Senior"
	case model.SlotApproval:
		return "Approval"
	}
	return string(slot)
}

// signerName 签名人姓名
func signerName(e *model.ExpenseModel, slot model.SignatureSlot) string {
	switch slot {
	case model.SlotRecipient:
		return e.RecipientName
	case model.SlotEmployee:
		return e.CreatorName()
	case model.SlotSenior, model.SlotApproval:
		if name := e.ApproverName(); name != "" {
			return name
		}
	}
	return NotAvailable
}
