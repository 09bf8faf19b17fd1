package query

import (
	"github.com/pkg/errors"
)

// ValidationMode 字段校验模式
// 宽容模式下未知或越权字段被静默丢弃并记录，严格模式下直接报错
type ValidationMode int

const (
	ModePermissive ValidationMode = iota
	ModeStrict
)

// ErrFieldRejected 过滤或更新表达式引用了未知或不允许的字段
var ErrFieldRejected = errors.New("field rejected")

// SortField 排序字段
type SortField struct {
	Field string
	Desc  bool
}

// Query 结构化查询，描述过滤、投影、排序与分页
// 字段允许列表为空时进入宽容模式：模型的所有已知字段都可用
type Query struct {
	filter     Expr
	fields     []string // 允许列表
	projection []string
	sort       []SortField
	sortRandom bool
	limit      int
	offset     int
	mode       ValidationMode

	rejected []string // 被丢弃的字段，宽容模式下记录供调用方检查
}

// NewQuery 创建查询
func NewQuery() *Query {
	return &Query{}
}

// NewQueryFromMap 从通用文档结构创建查询，文档形状见 ParseFilter
func NewQueryFromMap(doc map[string]any) (*Query, error) {
	filter, err := ParseFilter(doc)
	if err != nil {
		return nil, err
	}
	return &Query{filter: filter}, nil
}

// Filter 设置过滤表达式
func (q *Query) Filter(expr Expr) *Query {
	q.filter = expr
	return q
}

// AllowFields 设置字段允许列表，空列表表示宽容模式
func (q *Query) AllowFields(fields ...string) *Query {
	q.fields = fields
	return q
}

// Project 设置投影字段，空投影表示返回所有可读列
func (q *Query) Project(fields ...string) *Query {
	q.projection = fields
	return q
}

// OrderAsc 追加升序排序字段
func (q *Query) OrderAsc(field string) *Query {
	q.sort = append(q.sort, SortField{Field: field})
	return q
}

// OrderDesc 追加降序排序字段
func (q *Query) OrderDesc(field string) *Query {
	q.sort = append(q.sort, SortField{Field: field, Desc: true})
	return q
}

// OrderRandom 随机排序，生成的函数名依赖方言
func (q *Query) OrderRandom() *Query {
	q.sortRandom = true
	return q
}

// Limit 设置返回行数上限，最终会被进程级 max-rows 再次钳制
func (q *Query) Limit(limit int) *Query {
	q.limit = limit
	return q
}

// Offset 设置偏移量
func (q *Query) Offset(offset int) *Query {
	q.offset = offset
	return q
}

// Strict 切换到严格校验模式
func (q *Query) Strict() *Query {
	q.mode = ModeStrict
	return q
}

// Mode 当前校验模式
func (q *Query) Mode() ValidationMode {
	return q.mode
}

// RejectedFields 返回构建过程中被丢弃的字段
func (q *Query) RejectedFields() []string {
	return q.rejected
}

// allowed 字段是否在允许列表中，允许列表为空时全部放行
func (q *Query) allowed(field string) bool {
	if len(q.fields) == 0 {
		return true
	}
	for _, f := range q.fields {
		if f == field {
			return true
		}
	}
	return false
}

func (q *Query) reject(field string) {
	q.rejected = append(q.rejected, field)
}
