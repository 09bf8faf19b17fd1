package executor

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hatlonely/zorm/pool"
	"github.com/hatlonely/zorm/query"
	"github.com/hatlonely/zorm/schema"
)

var ErrRecordNotFound = errors.New("record not found")

// Options 执行器初始化选项
type Options struct {
	// Service 连接池服务名，对应配置中的 name
	Service string `toml:"service" validate:"required"`
	// MaxRows 返回行数上限，钳制所有查询的分页参数
	MaxRows int `toml:"maxRows" def:"10000" validate:"gte=1"`
}

// Executor 把查询/更新构建器和连接池管理器串起来执行语句
// 每次调用都重新向管理器获取连接池，不长期缓存句柄
type Executor struct {
	manager  *pool.Manager
	registry *schema.Registry
	service  string
	maxRows  int
	mdls     []Middleware
}

// NewExecutorWithOptions 创建执行器
func NewExecutorWithOptions(manager *pool.Manager, registry *schema.Registry, options *Options) (*Executor, error) {
	if manager == nil {
		return nil, errors.New("manager cannot be nil")
	}
	if options == nil || options.Service == "" {
		return nil, errors.New("options.Service is required")
	}
	if registry == nil {
		registry = schema.NewRegistry()
	}
	maxRows := options.MaxRows
	if maxRows <= 0 {
		maxRows = query.DefaultMaxRows
	}
	return &Executor{
		manager:  manager,
		registry: registry,
		service:  options.Service,
		maxRows:  maxRows,
	}, nil
}

// Use 注册中间件，按注册顺序从外到内生效
func (e *Executor) Use(mdls ...Middleware) *Executor {
	e.mdls = append(e.mdls, mdls...)
	return e
}

// acquire 向管理器获取连接池
// 拿到的句柄可能处于不可用状态，执行失败由调用方决定是否重试
func (e *Executor) acquire() (*pool.Pool, error) {
	p := e.manager.Get(e.service)
	if p == nil {
		return nil, errors.Wrap(pool.ErrPoolUnavailable, e.service)
	}
	return p, nil
}

// builder 用选中连接池的方言创建构建器
func (e *Executor) builder(entity any, p *pool.Pool) (*query.Builder, *schema.Model, error) {
	model, err := e.registry.Get(entity)
	if err != nil {
		return nil, nil, err
	}
	return query.NewBuilder(model, p.Dialect()).WithMaxRows(e.maxRows), model, nil
}

// execute 套上中间件链执行语句
func (e *Executor) execute(ctx context.Context, ec *ExecContext, p *pool.Pool, isQuery bool) *ExecResult {
	var root Handler = func(ctx context.Context, ec *ExecContext) *ExecResult {
		if isQuery {
			rows, err := p.QueryContext(ctx, ec.SQL, ec.Args...)
			if err != nil {
				return &ExecResult{Err: errors.Wrapf(err, "query failed on pool %s", p.Name())}
			}
			records, err := scanRows(rows)
			if err != nil {
				return &ExecResult{Err: err}
			}
			return &ExecResult{Records: records}
		}
		res, err := p.ExecContext(ctx, ec.SQL, ec.Args...)
		if err != nil {
			return &ExecResult{Err: errors.Wrapf(err, "exec failed on pool %s", p.Name())}
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return &ExecResult{Err: errors.Wrapf(err, "failed to read affected rows on pool %s", p.Name())}
		}
		return &ExecResult{Affected: affected}
	}
	for i := len(e.mdls) - 1; i >= 0; i-- {
		root = e.mdls[i](root)
	}
	return root(ctx, ec)
}

func newExecContext(typ string, table string, poolName string, stmt *query.Statement) *ExecContext {
	return &ExecContext{
		ID:    uuid.NewString(),
		Type:  typ,
		Table: table,
		Pool:  poolName,
		SQL:   stmt.SQL,
		Args:  stmt.Args,
	}
}

// Find 按查询条件返回多条记录
func (e *Executor) Find(ctx context.Context, entity any, q *query.Query) ([]Record, error) {
	p, err := e.acquire()
	if err != nil {
		return nil, err
	}
	b, model, err := e.builder(entity, p)
	if err != nil {
		return nil, err
	}
	stmt, err := b.BuildSelect(q)
	if err != nil {
		return nil, err
	}
	res := e.execute(ctx, newExecContext("SELECT", model.TableName(), p.Name(), stmt), p, true)
	return res.Records, res.Err
}

// FindOne 按查询条件返回单条记录，没有命中时返回 ErrRecordNotFound
func (e *Executor) FindOne(ctx context.Context, entity any, q *query.Query) (Record, error) {
	records, err := e.Find(ctx, entity, q.Limit(1))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrRecordNotFound
	}
	return records[0], nil
}

// Count 统计满足条件的记录数
func (e *Executor) Count(ctx context.Context, entity any, q *query.Query) (int64, error) {
	p, err := e.acquire()
	if err != nil {
		return 0, err
	}
	b, model, err := e.builder(entity, p)
	if err != nil {
		return 0, err
	}
	stmt, err := b.BuildCount(q)
	if err != nil {
		return 0, err
	}
	res := e.execute(ctx, newExecContext("SELECT", model.TableName(), p.Name(), stmt), p, true)
	if res.Err != nil {
		return 0, res.Err
	}
	if len(res.Records) == 0 {
		return 0, errors.Wrap(ErrDecode, "count query returned no rows")
	}
	for _, v := range res.Records[0] {
		switch n := v.(type) {
		case int64:
			return n, nil
		case []byte:
			count, err := parseInt(string(n))
			if err != nil {
				return 0, err
			}
			return count, nil
		}
	}
	return 0, errors.Wrap(ErrDecode, "count query returned no numeric column")
}

// Update 按查询条件执行更新，返回受影响的行数
// 所有更新子句都被丢弃时不发起语句，直接返回 0
func (e *Executor) Update(ctx context.Context, entity any, q *query.Query, m *query.Mutation) (int64, error) {
	p, err := e.acquire()
	if err != nil {
		return 0, err
	}
	b, model, err := e.builder(entity, p)
	if err != nil {
		return 0, err
	}
	stmt, err := b.BuildUpdate(q, m)
	if err != nil {
		return 0, err
	}
	if stmt == nil {
		return 0, nil
	}
	res := e.execute(ctx, newExecContext("UPDATE", model.TableName(), p.Name(), stmt), p, false)
	return res.Affected, res.Err
}

// Delete 按查询条件删除记录，返回受影响的行数
func (e *Executor) Delete(ctx context.Context, entity any, q *query.Query) (int64, error) {
	p, err := e.acquire()
	if err != nil {
		return 0, err
	}
	b, model, err := e.builder(entity, p)
	if err != nil {
		return 0, err
	}
	stmt, err := b.BuildDelete(q)
	if err != nil {
		return 0, err
	}
	res := e.execute(ctx, newExecContext("DELETE", model.TableName(), p.Name(), stmt), p, false)
	return res.Affected, res.Err
}

// Create 插入一条记录，record 可以是实体结构体或 Record
// 只有模型中可写的列参与插入，子句顺序与列声明顺序一致
func (e *Executor) Create(ctx context.Context, entity any, record any) error {
	p, err := e.acquire()
	if err != nil {
		return err
	}
	model, err := e.registry.Get(entity)
	if err != nil {
		return err
	}

	data, ok := record.(Record)
	if !ok {
		data = recordFromStruct(record)
	}

	dialect := p.Dialect()
	var cols, placeholders []string
	var args []any
	for _, col := range model.Columns() {
		value, exists := data[col.Name]
		if !exists || !col.Writable() {
			continue
		}
		cols = append(cols, dialect.Quote(col.Name))
		placeholders = append(placeholders, "?")
		args = append(args, value)
	}
	if len(cols) == 0 {
		return errors.New("no writable columns to insert")
	}

	sqlStr := "INSERT INTO " + dialect.Quote(model.TableName()) +
		" (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(placeholders, ", ") + ")"
	stmt := &query.Statement{SQL: dialect.FormatPlaceholders(sqlStr), Args: args}
	res := e.execute(ctx, newExecContext("INSERT", model.TableName(), p.Name(), stmt), p, false)
	return res.Err
}

// Query 执行手写 SQL 查询，支持 ${param} 与 #{param} 两种插值
func (e *Executor) Query(ctx context.Context, sqlStr string, params map[string]any) ([]Record, error) {
	p, err := e.acquire()
	if err != nil {
		return nil, err
	}
	resolved, args, err := query.ResolveRawSQL(sqlStr, params)
	if err != nil {
		return nil, err
	}
	stmt := &query.Statement{SQL: p.Dialect().FormatPlaceholders(resolved), Args: args}
	res := e.execute(ctx, newExecContext("RAW", "", p.Name(), stmt), p, true)
	return res.Records, res.Err
}

// Exec 执行手写变更语句，返回受影响的行数
func (e *Executor) Exec(ctx context.Context, sqlStr string, params map[string]any) (int64, error) {
	p, err := e.acquire()
	if err != nil {
		return 0, err
	}
	resolved, args, err := query.ResolveRawSQL(sqlStr, params)
	if err != nil {
		return 0, err
	}
	stmt := &query.Statement{SQL: p.Dialect().FormatPlaceholders(resolved), Args: args}
	res := e.execute(ctx, newExecContext("RAW", "", p.Name(), stmt), p, false)
	return res.Affected, res.Err
}
