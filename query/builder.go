package query

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/pkg/errors"

	"github.com/hatlonely/zorm/schema"
)

// DefaultMaxRows 进程级返回行数上限的默认值
const DefaultMaxRows = 10000

var ErrInvalidOperand = errors.New("invalid operand")

// Statement 构建完成的 SQL 片段与绑定参数
type Statement struct {
	SQL  string
	Args []any
}

// Builder 将结构化查询/更新表达式翻译为方言相关的 SQL
// Builder 本身是纯同步转换，不持有连接，可安全并发使用
type Builder struct {
	model   *schema.Model
	dialect Dialect
	maxRows int
}

// NewBuilder 创建构建器
func NewBuilder(model *schema.Model, dialect Dialect) *Builder {
	return &Builder{
		model:   model,
		dialect: dialect,
		maxRows: DefaultMaxRows,
	}
}

// WithMaxRows 设置返回行数上限，非法值回落到默认值
func (b *Builder) WithMaxRows(maxRows int) *Builder {
	if maxRows > 0 {
		b.maxRows = maxRows
	}
	return b
}

// Dialect 构建器使用的方言
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// BuildSelect 构建完整的 SELECT 语句
func (b *Builder) BuildSelect(q *Query) (*Statement, error) {
	projection, err := b.buildProjection(q)
	if err != nil {
		return nil, err
	}

	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT ")
	sb.WriteString(projection)
	sb.WriteString(" FROM ")
	sb.WriteString(b.dialect.Quote(b.model.TableName()))

	if err := b.appendWhere(&sb, &args, q); err != nil {
		return nil, err
	}
	b.appendSort(&sb, q)
	b.appendPagination(&sb, q)

	return &Statement{SQL: b.dialect.FormatPlaceholders(sb.String()), Args: args}, nil
}

// BuildCount 构建 SELECT count(*) 语句
func (b *Builder) BuildCount(q *Query) (*Statement, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString("SELECT count(*) FROM ")
	sb.WriteString(b.dialect.Quote(b.model.TableName()))
	if err := b.appendWhere(&sb, &args, q); err != nil {
		return nil, err
	}
	return &Statement{SQL: b.dialect.FormatPlaceholders(sb.String()), Args: args}, nil
}

// BuildDelete 构建 DELETE 语句
func (b *Builder) BuildDelete(q *Query) (*Statement, error) {
	var sb strings.Builder
	var args []any
	sb.WriteString("DELETE FROM ")
	sb.WriteString(b.dialect.Quote(b.model.TableName()))
	if err := b.appendWhere(&sb, &args, q); err != nil {
		return nil, err
	}
	return &Statement{SQL: b.dialect.FormatPlaceholders(sb.String()), Args: args}, nil
}

// BuildUpdate 构建 UPDATE 语句
// 所有更新子句都被丢弃时返回 (nil, nil)，调用方必须将其视为无事可做，
// 不得执行一个语法残缺的语句
func (b *Builder) BuildUpdate(q *Query, m *Mutation) (*Statement, error) {
	set, setArgs, err := b.BuildUpdates(m)
	if err != nil {
		return nil, err
	}
	if set == "" {
		return nil, nil
	}

	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(b.dialect.Quote(b.model.TableName()))
	sb.WriteString(" SET ")
	sb.WriteString(set)
	args := setArgs
	if err := b.appendWhere(&sb, &args, q); err != nil {
		return nil, err
	}
	return &Statement{SQL: b.dialect.FormatPlaceholders(sb.String()), Args: args}, nil
}

// BuildWhere 构建 WHERE 片段，没有有效条件时返回空串
func (b *Builder) BuildWhere(q *Query) (string, []any, error) {
	if q == nil || q.filter == nil {
		return "", nil, nil
	}
	clause, args, ok, err := b.buildExpr(q, q.filter)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, nil
	}
	return clause, args, nil
}

func (b *Builder) appendWhere(sb *strings.Builder, args *[]any, q *Query) error {
	clause, whereArgs, err := b.BuildWhere(q)
	if err != nil {
		return err
	}
	if clause == "" {
		return nil
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(clause)
	*args = append(*args, whereArgs...)
	return nil
}

// buildExpr 递归构建表达式树
// ok 为 false 表示该子树因字段越权被整体丢弃，上层需要跳过它
func (b *Builder) buildExpr(q *Query, expr Expr) (string, []any, bool, error) {
	switch e := expr.(type) {
	case Cond:
		return b.buildCond(q, e)
	case Group:
		return b.buildGroup(q, e)
	default:
		return "", nil, false, errors.Errorf("unsupported expression type %T", expr)
	}
}

func (b *Builder) buildGroup(q *Query, g Group) (string, []any, bool, error) {
	var clauses []string
	var args []any
	for _, child := range g.Exprs {
		clause, childArgs, ok, err := b.buildExpr(q, child)
		if err != nil {
			return "", nil, false, err
		}
		if !ok {
			continue
		}
		clauses = append(clauses, clause)
		args = append(args, childArgs...)
	}
	if len(clauses) == 0 {
		return "", nil, false, nil
	}

	switch g.Op {
	case OpNot:
		return "NOT (" + clauses[0] + ")", args, true, nil
	case OpOr:
		return b.joinClauses(clauses, " OR "), args, true, nil
	default:
		return b.joinClauses(clauses, " AND "), args, true, nil
	}
}

// joinClauses 显式加括号组合子片段，嵌套深度不影响优先级
func (b *Builder) joinClauses(clauses []string, sep string) string {
	if len(clauses) == 1 {
		return clauses[0]
	}
	wrapped := make([]string, len(clauses))
	for i, clause := range clauses {
		wrapped[i] = "(" + clause + ")"
	}
	return strings.Join(wrapped, sep)
}

func (b *Builder) buildCond(q *Query, c Cond) (string, []any, bool, error) {
	// $rand 不引用任何字段，跳过权限检查
	if c.Op == OpRand {
		return b.dialect.RandFunc() + " < ?", []any{c.Value}, true, nil
	}

	col, ok := b.model.ReadableColumn(c.Field)
	if !ok || !q.allowed(c.Field) {
		if q.mode == ModeStrict {
			return "", nil, false, errors.Wrap(ErrFieldRejected, c.Field)
		}
		q.reject(c.Field)
		return "", nil, false, nil
	}
	key := b.dialect.Quote(col.Name)

	if token, ok := comparisonOps[c.Op]; ok {
		return fmt.Sprintf("%s %s ?", key, token), []any{c.Value}, true, nil
	}

	switch c.Op {
	case OpIn, OpNin:
		values := toValueList(c.Value)
		if len(values) == 0 {
			// 空集合：IN 恒假，NOT IN 恒真
			if c.Op == OpIn {
				return "1 = 0", nil, true, nil
			}
			return "1 = 1", nil, true, nil
		}
		token := "IN"
		if c.Op == OpNin {
			token = "NOT IN"
		}
		placeholders := strings.Repeat("?, ", len(values))
		return fmt.Sprintf("%s %s (%s)", key, token, placeholders[:len(placeholders)-2]), values, true, nil
	case OpBetw:
		values := toValueList(c.Value)
		if len(values) != 2 {
			return "", nil, false, errors.Wrapf(ErrInvalidOperand, "%s expects [low, high] on field %s", OpBetw, c.Field)
		}
		return fmt.Sprintf("%s BETWEEN ? AND ?", key), values, true, nil
	case OpLike:
		return fmt.Sprintf("%s LIKE ?", key), []any{c.Value}, true, nil
	case OpILike:
		if b.dialect == DialectSQLite {
			return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", key), []any{c.Value}, true, nil
		}
		return fmt.Sprintf("%s ILIKE ?", key), []any{c.Value}, true, nil
	case OpRLike:
		switch b.dialect {
		case DialectPostgres:
			return fmt.Sprintf("%s ~* ?", key), []any{c.Value}, true, nil
		case DialectSQLite:
			return fmt.Sprintf("%s REGEXP ?", key), []any{c.Value}, true, nil
		default:
			return fmt.Sprintf("%s RLIKE ?", key), []any{c.Value}, true, nil
		}
	case OpIs:
		switch v := c.Value.(type) {
		case nil:
			return key + " IS NULL", nil, true, nil
		case string:
			if v == "null" {
				return key + " IS NULL", nil, true, nil
			}
			if v == "not_null" {
				return key + " IS NOT NULL", nil, true, nil
			}
		}
		return "", nil, false, errors.Wrapf(ErrInvalidOperand, "%s expects null or not_null on field %s", OpIs, c.Field)
	case OpText:
		switch b.dialect {
		case DialectPostgres:
			return fmt.Sprintf("to_tsvector(%s) @@ websearch_to_tsquery(?)", key), []any{c.Value}, true, nil
		case DialectSQLite:
			return fmt.Sprintf("%s MATCH ?", key), []any{c.Value}, true, nil
		default:
			return fmt.Sprintf("match(%s) against(?)", key), []any{c.Value}, true, nil
		}
	case OpSize:
		return b.buildSizeCond(key, c)
	default:
		return "", nil, false, errors.Wrapf(ErrUnsupportedOperator, "%s on field %s", c.Op, c.Field)
	}
}

// buildSizeCond 数组/JSON 长度比较
// 标量操作数是等值比较的简写，文档操作数支持单个比较运算符
func (b *Builder) buildSizeCond(key string, c Cond) (string, []any, bool, error) {
	expr := fmt.Sprintf("%s(%s)", b.dialect.SizeFunc(), key)
	if b.dialect == DialectPostgres {
		expr = fmt.Sprintf("%s(%s, 1)", b.dialect.SizeFunc(), key)
	}

	if sub, ok := c.Value.(map[string]any); ok {
		if len(sub) != 1 {
			return "", nil, false, errors.Wrapf(ErrInvalidOperand, "%s expects one comparison on field %s", OpSize, c.Field)
		}
		for op, value := range sub {
			token, ok := comparisonOps[op]
			if !ok {
				return "", nil, false, errors.Wrapf(ErrUnsupportedOperator, "%s inside %s on field %s", op, OpSize, c.Field)
			}
			return fmt.Sprintf("%s %s ?", expr, token), []any{value}, true, nil
		}
	}
	return expr + " = ?", []any{c.Value}, true, nil
}

// buildProjection 投影列表
// 空投影且无允许列表时返回 *，否则返回受限的可读列
func (b *Builder) buildProjection(q *Query) (string, error) {
	fields := q.projection
	if len(fields) == 0 {
		if len(q.fields) == 0 {
			return "*", nil
		}
		fields = q.fields
	}

	var cols []string
	for _, field := range fields {
		col, ok := b.model.ReadableColumn(field)
		if !ok || !q.allowed(field) {
			if q.mode == ModeStrict {
				return "", errors.Wrap(ErrFieldRejected, field)
			}
			q.reject(field)
			continue
		}
		cols = append(cols, b.dialect.Quote(col.Name))
	}
	if len(cols) == 0 {
		return "*", nil
	}
	return strings.Join(cols, ", "), nil
}

// appendSort 排序字段未知时直接丢弃，容忍调用方推测性的排序键
func (b *Builder) appendSort(sb *strings.Builder, q *Query) {
	var parts []string
	for _, sf := range q.sort {
		col, ok := b.model.ReadableColumn(sf.Field)
		if !ok || !q.allowed(sf.Field) {
			q.reject(sf.Field)
			continue
		}
		direction := "ASC"
		if sf.Desc {
			direction = "DESC"
		}
		parts = append(parts, b.dialect.Quote(col.Name)+" "+direction)
	}
	if q.sortRandom {
		parts = append(parts, b.dialect.RandFunc())
	}
	if len(parts) == 0 {
		return
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(strings.Join(parts, ", "))
}

// appendPagination 无论调用方传入什么，limit/offset 都被进程级上限钳制
func (b *Builder) appendPagination(sb *strings.Builder, q *Query) {
	limit := q.limit
	if limit <= 0 || limit > b.maxRows {
		limit = b.maxRows
	}
	fmt.Fprintf(sb, " LIMIT %d", limit)
	if q.offset > 0 {
		fmt.Fprintf(sb, " OFFSET %d", q.offset)
	}
}

// BuildUpdates 构建 SET 片段，子句顺序与声明顺序一致
// 没有任何字段通过校验时返回空串
func (b *Builder) BuildUpdates(m *Mutation) (string, []any, error) {
	var clauses []string
	var args []any
	for _, entry := range m.entries {
		col, ok := b.model.WritableColumn(entry.Field)
		if !ok || !m.allowed(entry.Field) {
			if m.mode == ModeStrict {
				return "", nil, errors.Wrap(ErrFieldRejected, entry.Field)
			}
			m.reject(entry.Field)
			continue
		}
		key := b.dialect.Quote(col.Name)

		switch entry.Op {
		case OpInc:
			clauses = append(clauses, fmt.Sprintf("%s = %s + ?", key, key))
		case OpMul:
			clauses = append(clauses, fmt.Sprintf("%s = %s * ?", key, key))
		case OpMin:
			clauses = append(clauses, fmt.Sprintf("%s = %s(?, %s)", key, b.dialect.LeastFunc(), key))
		case OpMax:
			clauses = append(clauses, fmt.Sprintf("%s = %s(?, %s)", key, b.dialect.GreatestFunc(), key))
		default:
			clauses = append(clauses, fmt.Sprintf("%s = ?", key))
		}
		args = append(args, entry.Value)
	}
	return strings.Join(clauses, ", "), args, nil
}

// toValueList 集合操作数兼容 []any 之外的切片类型
func toValueList(value any) []any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	values := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		values[i] = rv.Index(i).Interface()
	}
	return values
}
