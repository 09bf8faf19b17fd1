package slowquery

import (
	"context"
	"log/slog"
	"time"

	"github.com/hatlonely/zorm/executor"
)

// MiddlewareBuilder 慢查询中间件，执行耗时超过阈值时告警
type MiddlewareBuilder struct {
	threshold time.Duration
	logger    *slog.Logger
}

// NewMiddlewareBuilder 创建慢查询中间件构建器
func NewMiddlewareBuilder(threshold time.Duration) *MiddlewareBuilder {
	return &MiddlewareBuilder{threshold: threshold, logger: slog.Default()}
}

// Logger 替换默认 logger
func (m *MiddlewareBuilder) Logger(logger *slog.Logger) *MiddlewareBuilder {
	m.logger = logger
	return m
}

// Build 构建中间件
func (m *MiddlewareBuilder) Build() executor.Middleware {
	return func(next executor.Handler) executor.Handler {
		return func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
			startTime := time.Now()
			defer func() {
				duration := time.Since(startTime)
				if duration < m.threshold {
					return
				}
				m.logger.WarnContext(ctx, "slow query",
					"id", ec.ID, "type", ec.Type, "table", ec.Table,
					"sql", ec.SQL, "duration", duration)
			}()
			return next(ctx, ec)
		}
	}
}
