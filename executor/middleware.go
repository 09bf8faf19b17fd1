package executor

import (
	"context"
)

// ExecContext 一次语句执行的上下文，暴露给中间件
type ExecContext struct {
	// ID 本次执行的唯一标识，用于日志关联
	ID string
	// Type 语句类型：SELECT / UPDATE / DELETE / INSERT / RAW
	Type string
	// Table 目标表名，RAW 语句为空
	Table string
	// Pool 本次执行选中的连接池名
	Pool string

	SQL  string
	Args []any
}

// ExecResult 一次语句执行的结果
// SELECT 时 Records 有效，其余语句 Affected 有效
type ExecResult struct {
	Records  []Record
	Affected int64
	Err      error
}

// Handler 语句执行函数
type Handler func(ctx context.Context, ec *ExecContext) *ExecResult

// Middleware 包装 Handler，按注册顺序从外到内生效
type Middleware func(next Handler) Handler
