package query

import (
	"sort"

	"github.com/pkg/errors"
)

// 过滤与更新表达式支持的运算符
const (
	OpAnd  = "$and"
	OpOr   = "$or"
	OpNot  = "$not"
	OpEq   = "$eq"
	OpNe   = "$ne"
	OpLt   = "$lt"
	OpLe   = "$le"
	OpGt   = "$gt"
	OpGe   = "$ge"
	OpIn   = "$in"
	OpNin  = "$nin"
	OpBetw = "$betw"
	OpLike = "$like"
	OpILike = "$ilike"
	OpRLike = "$rlike"
	OpIs   = "$is"
	OpText = "$text"
	OpSize = "$size"
	OpRand = "$rand"

	OpInc = "$inc"
	OpMul = "$mul"
	OpMin = "$min"
	OpMax = "$max"
)

var ErrUnsupportedOperator = errors.New("unsupported operator")

// Expr 过滤表达式树节点
type Expr interface {
	expr()
}

// Cond 字段比较叶子节点
type Cond struct {
	Field string
	Op    string
	Value any
}

func (Cond) expr() {}

// Group 逻辑组合节点，AND/OR 组合多个子表达式，NOT 包装单个子表达式
type Group struct {
	Op    string
	Exprs []Expr
}

func (Group) expr() {}

// And 用 AND 组合多个表达式
func And(exprs ...Expr) Group {
	return Group{Op: OpAnd, Exprs: exprs}
}

// Or 用 OR 组合多个表达式
func Or(exprs ...Expr) Group {
	return Group{Op: OpOr, Exprs: exprs}
}

// Not 对单个表达式取反
func Not(e Expr) Group {
	return Group{Op: OpNot, Exprs: []Expr{e}}
}

// Eq 等值比较
func Eq(field string, value any) Cond { return Cond{Field: field, Op: OpEq, Value: value} }

// Ne 不等比较
func Ne(field string, value any) Cond { return Cond{Field: field, Op: OpNe, Value: value} }

// Lt 小于
func Lt(field string, value any) Cond { return Cond{Field: field, Op: OpLt, Value: value} }

// Le 小于等于
func Le(field string, value any) Cond { return Cond{Field: field, Op: OpLe, Value: value} }

// Gt 大于
func Gt(field string, value any) Cond { return Cond{Field: field, Op: OpGt, Value: value} }

// Ge 大于等于
func Ge(field string, value any) Cond { return Cond{Field: field, Op: OpGe, Value: value} }

// In 集合成员
func In(field string, values ...any) Cond { return Cond{Field: field, Op: OpIn, Value: values} }

// Nin 集合排除
func Nin(field string, values ...any) Cond { return Cond{Field: field, Op: OpNin, Value: values} }

// Between 范围比较，闭区间
func Between(field string, low, high any) Cond {
	return Cond{Field: field, Op: OpBetw, Value: []any{low, high}}
}

// Like 模式匹配
func Like(field string, pattern string) Cond { return Cond{Field: field, Op: OpLike, Value: pattern} }

// ILike 大小写无关的模式匹配
func ILike(field string, pattern string) Cond { return Cond{Field: field, Op: OpILike, Value: pattern} }

// RLike 正则匹配
func RLike(field string, pattern string) Cond { return Cond{Field: field, Op: OpRLike, Value: pattern} }

// IsNull 空值判断
func IsNull(field string) Cond { return Cond{Field: field, Op: OpIs, Value: nil} }

// IsNotNull 非空判断
func IsNotNull(field string) Cond { return Cond{Field: field, Op: OpIs, Value: "not_null"} }

// Text 全文检索
func Text(field string, value string) Cond { return Cond{Field: field, Op: OpText, Value: value} }

// Size 数组/JSON 长度比较
func Size(field string, n int) Cond { return Cond{Field: field, Op: OpSize, Value: n} }

// Rand 随机采样，rand() < threshold
func Rand(threshold float64) Cond { return Cond{Op: OpRand, Value: threshold} }

// ParseFilter 将通用文档结构解析为过滤表达式树
// Go 的 map 不保留插入顺序，为保证生成 SQL 可复现，map 键按字典序遍历；
// 需要精确控制子句顺序时应直接使用 Eq/And/Or 等构造函数
func ParseFilter(doc map[string]any) (Expr, error) {
	exprs, err := parseFilterEntries(doc)
	if err != nil {
		return nil, err
	}
	switch len(exprs) {
	case 0:
		return nil, nil
	case 1:
		return exprs[0], nil
	default:
		return And(exprs...), nil
	}
}

func parseFilterEntries(doc map[string]any) ([]Expr, error) {
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var exprs []Expr
	for _, key := range keys {
		value := doc[key]
		switch key {
		case OpAnd, OpOr:
			items, ok := value.([]any)
			if !ok {
				return nil, errors.Errorf("%s expects an array of documents, got %T", key, value)
			}
			var children []Expr
			for _, item := range items {
				sub, ok := item.(map[string]any)
				if !ok {
					return nil, errors.Errorf("%s expects an array of documents, got element %T", key, item)
				}
				child, err := ParseFilter(sub)
				if err != nil {
					return nil, err
				}
				if child != nil {
					children = append(children, child)
				}
			}
			if len(children) > 0 {
				exprs = append(exprs, Group{Op: key, Exprs: children})
			}
		case OpNot:
			sub, ok := value.(map[string]any)
			if !ok {
				return nil, errors.Errorf("%s expects a document, got %T", key, value)
			}
			child, err := ParseFilter(sub)
			if err != nil {
				return nil, err
			}
			if child != nil {
				exprs = append(exprs, Not(child))
			}
		case OpRand:
			exprs = append(exprs, Cond{Op: OpRand, Value: value})
		default:
			conds, err := parseFieldConds(key, value)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, conds...)
		}
	}
	return exprs, nil
}

// parseFieldConds 解析单个字段的比较条件
// 标量值是等值比较的简写，文档值的每个 $ 运算符产生一个叶子节点
func parseFieldConds(field string, value any) ([]Expr, error) {
	sub, ok := value.(map[string]any)
	if !ok {
		if value == nil {
			return []Expr{IsNull(field)}, nil
		}
		return []Expr{Eq(field, value)}, nil
	}

	ops := make([]string, 0, len(sub))
	for op := range sub {
		ops = append(ops, op)
	}
	sort.Strings(ops)

	var exprs []Expr
	for _, op := range ops {
		switch op {
		case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpIn, OpNin,
			OpBetw, OpLike, OpILike, OpRLike, OpIs, OpText, OpSize:
			exprs = append(exprs, Cond{Field: field, Op: op, Value: sub[op]})
		default:
			return nil, errors.Wrapf(ErrUnsupportedOperator, "%s on field %s", op, field)
		}
	}
	return exprs, nil
}
