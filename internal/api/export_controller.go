package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/service"
)

// ExportController 导出控制器
type ExportController struct {
	exportSvc service.ExportService
}

// NewExportController 创建导出控制器
func NewExportController(exportSvc service.ExportService) *ExportController {
	return &ExportController{exportSvc: exportSvc}
}

// CSV 导出 CSV
func (h *ExportController) CSV(c *gin.Context) {
	var query ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	principal, _ := auth.GetPrincipal(c)
	data, err := h.exportSvc.CSV(c.Request.Context(), principal, query.Status)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("expenses_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// PDF 导出单条报销单凭证
func (h *ExportController) PDF(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	principal, _ := auth.GetPrincipal(c)
	expense, data, err := h.exportSvc.Voucher(c.Request.Context(), principal, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("voucher_%d.pdf", expense.ID)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
