package prometheus

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hatlonely/zorm/executor"
)

// MiddlewareBuilder 执行耗时指标中间件
type MiddlewareBuilder struct {
	Namespace string
	Subsystem string
	Name      string
	Help      string
}

// Build 构建中间件并注册指标
func (m MiddlewareBuilder) Build() executor.Middleware {
	vector := prometheus.NewSummaryVec(prometheus.SummaryOpts{
		Namespace: m.Namespace,
		Subsystem: m.Subsystem,
		Name:      m.Name,
		Help:      m.Help,
		Objectives: map[float64]float64{
			0.5:   0.01,
			0.75:  0.01,
			0.90:  0.01,
			0.99:  0.001,
			0.999: 0.0001,
		},
	}, []string{"type", "table"})
	prometheus.MustRegister(vector)
	return func(next executor.Handler) executor.Handler {
		return func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
			startTime := time.Now()
			defer func() {
				vector.WithLabelValues(ec.Type, ec.Table).
					Observe(float64(time.Since(startTime).Milliseconds()))
			}()
			return next(ctx, ec)
		}
	}
}
