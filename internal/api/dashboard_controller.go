package api

import (
	"github.com/gin-gonic/gin"
	"github.com/neekunjshah/petty-cash/internal/auth"
	"github.com/neekunjshah/petty-cash/internal/service"
)

// DashboardController 首页控制器
type DashboardController struct {
	statisticsSvc service.StatisticsService
}

// NewDashboardController 创建首页控制器
func NewDashboardController(statisticsSvc service.StatisticsService) *DashboardController {
	return &DashboardController{statisticsSvc: statisticsSvc}
}

// Get 首页数据:主管看到待审批队列,员工看到自己的报销单
func (h *DashboardController) Get(c *gin.Context) {
	principal, _ := auth.GetPrincipal(c)
	ctx := c.Request.Context()

	dashboard, err := h.statisticsSvc.Dashboard(ctx, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	byDate, err := h.statisticsSvc.GetExpenseStatisticsByDate(ctx, principal)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	Success(c, &DashboardResponse{
		Counts:        dashboard.Counts,
		Total:         dashboard.Total,
		PendingAmount: dashboard.PendingAmount.StringFixed(2),
		Expenses:      newExpenseResponses(dashboard.Expenses),
		Approval:      dashboard.Approval,
		ByDate:        byDate,
	})
}
