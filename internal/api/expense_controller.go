package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/model"
	"github.com/neekunjshah/petty-cash/internal/service"
	"github.com/neekunjshah/petty-cash/internal/utils"
	"github.com/shopspring/decimal"
)

// ExpenseController 报销单控制器
type ExpenseController struct {
	expenseSvc service.ExpenseService
}

// NewExpenseController 创建报销单控制器
func NewExpenseController(expenseSvc service.ExpenseService) *ExpenseController {
	return &ExpenseController{expenseSvc: expenseSvc}
}

// parseID 解析路径中的报销单 ID
func parseID(c *gin.Context) (uint, bool) {
	id, err := utils.ValidateID(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return 0, false
	}
	return id, true
}

// Create 提交报销单
func (h *ExpenseController) Create(c *gin.Context) {
	var req CreateExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount.String())
	if err != nil {
		badRequest(c, err)
		return
	}

	principal, _ := auth.GetPrincipal(c)
	expense, err := h.expenseSvc.Create(c.Request.Context(), principal, &service.CreateExpenseRequest{
		Purpose:       req.Purpose,
		Amount:        amount,
		RecipientName: req.RecipientName,
		Signatures: map[model.SignatureSlot]string{
			model.SlotRecipient: req.RecipientSignature,
			model.SlotEmployee:  req.EmployeeSignature,
			model.SlotSenior:    req.SeniorSignature,
		},
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	Created(c, newExpenseResponse(expense))
}

// List 报销单列表
func (h *ExpenseController) List(c *gin.Context) {
	var query ListExpensesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		badRequest(c, err)
		return
	}

	principal, _ := auth.GetPrincipal(c)
	result, err := h.expenseSvc.List(c.Request.Context(), principal, &service.ListExpensesRequest{
		Status:   query.Status,
		SortBy:   query.SortBy,
		Order:    query.Order,
		Page:     query.Page,
		PageSize: query.PageSize,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	Paginated(c, newExpenseResponses(result.Items), NewPaginationInfo(result.Page, result.PageSize, result.Total))
}

// Get 报销单详情
func (h *ExpenseController) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	principal, _ := auth.GetPrincipal(c)
	expense, err := h.expenseSvc.Get(c.Request.Context(), principal, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, newExpenseResponse(expense))
}

// History 报销单状态历史
func (h *ExpenseController) History(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	principal, _ := auth.GetPrincipal(c)
	histories, err := h.expenseSvc.History(c.Request.Context(), principal, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	Success(c, newHistoryResponses(histories))
}

// Signature 下载签名图片
func (h *ExpenseController) Signature(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	principal, _ := auth.GetPrincipal(c)
	data, err := h.expenseSvc.Signature(c.Request.Context(), principal, id, c.Param("slot"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.Header("Cache-Control", "private, max-age=3600")
	c.Data(http.StatusOK, "image/png", data)
}

// Approve 审批通过
func (h *ExpenseController) Approve(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req ApproveExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	principal, _ := auth.GetPrincipal(c)
	expense, err := h.expenseSvc.Approve(c.Request.Context(), principal, id, &service.ApproveRequest{
		Signature: req.ApprovalSignature,
		Comment:   req.Comment,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: T(c, "success.approved"),
		Data:    newExpenseResponse(expense),
	})
}

// Reject 审批拒绝
func (h *ExpenseController) Reject(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req RejectExpenseRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	principal, _ := auth.GetPrincipal(c)
	expense, err := h.expenseSvc.Reject(c.Request.Context(), principal, id, &service.RejectRequest{
		Reason: req.Reason,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: T(c, "success.rejected"),
		Data:    newExpenseResponse(expense),
	})
}
