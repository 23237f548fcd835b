package metrics

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

var (
	// API 请求计数器
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "path", "status"},
	)

	// API 请求响应时间
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// 报销单创建数
	expensesCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "expenses_created_total",
			Help: "Total number of expenses submitted",
		},
	)

	// 审批操作数
	expenseDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "expense_decisions_total",
			Help: "Total number of expense decisions",
		},
		[]string{"action", "outcome"}, // approve/reject, ok/conflict
	)

	// 签名写入数
	signaturesStoredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "signatures_stored_total",
			Help: "Total number of signature images written to storage",
		},
		[]string{"slot"},
	)

	// 导出次数
	exportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exports_total",
			Help: "Total number of exports",
		},
		[]string{"format"}, // csv, pdf
	)

	// 数据库连接数
	databaseConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		},
	)

	databaseConnectionsIdle = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	databaseConnectionsMax = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		},
	)

	// 报销单状态分布
	expensesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "expenses_by_status",
			Help: "Number of expenses by status",
		},
		[]string{"status"},
	)
)

var (
	once sync.Once
)

func init() {
	// 注册指标
	prometheus.MustRegister(apiRequestsTotal)
	prometheus.MustRegister(apiRequestDuration)
	prometheus.MustRegister(expensesCreatedTotal)
	prometheus.MustRegister(expenseDecisionsTotal)
	prometheus.MustRegister(signaturesStoredTotal)
	prometheus.MustRegister(exportsTotal)
	prometheus.MustRegister(databaseConnectionsActive)
	prometheus.MustRegister(databaseConnectionsIdle)
	prometheus.MustRegister(databaseConnectionsMax)
	prometheus.MustRegister(expensesByStatus)

	// 注册 Go 运行时指标（只注册一次）
	once.Do(func() {
		// 尝试注册 Go 运行时指标，如果已注册则忽略错误
		_ = prometheus.Register(prometheus.NewGoCollector())
		_ = prometheus.Register(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	})
}

// RecordAPIRequest 记录 API 请求
func RecordAPIRequest(method, path string, status int, duration float64) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	apiRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordExpenseCreated 记录报销单提交
func RecordExpenseCreated() {
	expensesCreatedTotal.Inc()
}

// RecordDecision 记录审批操作
func RecordDecision(action, outcome string) {
	expenseDecisionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordSignatureStored 记录签名写入
func RecordSignatureStored(slot string) {
	signaturesStoredTotal.WithLabelValues(slot).Inc()
}

// RecordExport 记录导出
func RecordExport(format string) {
	exportsTotal.WithLabelValues(format).Inc()
}

// UpdateDatabaseConnections 更新数据库连接数指标
func UpdateDatabaseConnections(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	stats := sqlDB.Stats()
	databaseConnectionsActive.Set(float64(stats.InUse))
	databaseConnectionsIdle.Set(float64(stats.Idle))
	databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))

	return nil
}

// UpdateExpensesByStatus 更新报销单状态分布指标
func UpdateExpensesByStatus(status string, count float64) {
	expensesByStatus.WithLabelValues(status).Set(count)
}
