package querylog

import (
	"context"
	"log/slog"

	"github.com/hatlonely/zorm/executor"
)

// MiddlewareBuilder 查询日志中间件
// 在语句执行前记录 SQL 与绑定参数，通过执行 ID 与其他日志关联
type MiddlewareBuilder struct {
	logger *slog.Logger
}

// NewMiddlewareBuilder 创建查询日志中间件构建器
func NewMiddlewareBuilder() *MiddlewareBuilder {
	return &MiddlewareBuilder{logger: slog.Default()}
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
			m.logger.DebugContext(ctx, "execute statement",
				"id", ec.ID, "type", ec.Type, "table", ec.Table, "pool", ec.Pool,
				"sql", ec.SQL, "args", ec.Args)
			res := next(ctx, ec)
			if res.Err != nil {
				m.logger.ErrorContext(ctx, "statement failed", "id", ec.ID, "error", res.Err)
			}
			return res
		}
	}
}
