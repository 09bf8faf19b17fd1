package opentelemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/hatlonely/zorm/executor"
)

const instrumentationName = "github.com/hatlonely/zorm/middlewares/opentelemetry"

// MiddlewareBuilder 链路追踪中间件，每次语句执行产生一个 span
type MiddlewareBuilder struct {
	Tracer trace.Tracer
}

// Build 构建中间件
func (m MiddlewareBuilder) Build() executor.Middleware {
	if m.Tracer == nil {
		m.Tracer = otel.GetTracerProvider().Tracer(instrumentationName)
	}
	return func(next executor.Handler) executor.Handler {
		return func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
			spanCtx, span := m.Tracer.Start(ctx, fmt.Sprintf("%s-%s", ec.Type, ec.Table))
			defer span.End()
			// 不记录 args，绑定参数可能非常大
			span.SetAttributes(
				attribute.String("sql", ec.SQL),
				attribute.String("table", ec.Table),
				attribute.String("pool", ec.Pool),
				attribute.String("component", "zorm"),
			)
			res := next(spanCtx, ec)
			if res.Err != nil {
				span.RecordError(res.Err)
			}
			return res
		}
	}
}
