package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/neekunjshah/petty-cash/internal/workflow"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"
)

// StatusCounter 按状态统计报销单
type StatusCounter interface {
	CountByStatus(ctx context.Context, creatorID *uint) (map[workflow.Status]int64, error)
}

// Collector 在抓取时刷新数据库相关指标,不启动后台 goroutine
type Collector struct {
	db      *gorm.DB
	counter StatusCounter
	timeout time.Duration
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, counter StatusCounter) *Collector {
	return &Collector{
		db:      db,
		counter: counter,
		timeout: 2 * time.Second,
	}
}

// Refresh 刷新连接池与状态分布指标
func (c *Collector) Refresh(ctx context.Context) error {
	if err := UpdateDatabaseConnections(c.db); err != nil {
		return err
	}
	if c.counter == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	counts, err := c.counter.CountByStatus(ctx, nil)
	if err != nil {
		return err
	}
	// 没有记录的状态置零
	for _, status := range workflow.AllStatuses() {
		UpdateExpensesByStatus(status.String(), float64(counts[status]))
	}
	return nil
}

// Handler 返回 Prometheus 指标处理器,每次抓取前刷新指标
func Handler(c *Collector) http.Handler {
	next := promhttp.Handler()
	if c == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 刷新失败时仍然输出已有指标
		_ = c.Refresh(r.Context())
		next.ServeHTTP(w, r)
	})
}
