package query

import (
	"sort"

	"github.com/pkg/errors"
)

// UpdateEntry 一条更新子句，Op 为空表示直接赋值
type UpdateEntry struct {
	Op    string
	Field string
	Value any
}

// Mutation 结构化更新表达式
// 子句按声明顺序生成，同一字段多次出现时以 SQL 中最后一条为准
type Mutation struct {
	entries []UpdateEntry
	fields  []string // 允许列表
	mode    ValidationMode

	rejected []string
}

// NewMutation 创建更新表达式
func NewMutation() *Mutation {
	return &Mutation{}
}

// NewMutationFromMap 从通用文档结构创建更新表达式
// 普通键为直接赋值，$inc/$mul/$min/$max 的值为 field → value 的文档；
// map 键按字典序遍历以保证生成 SQL 可复现
func NewMutationFromMap(doc map[string]any) (*Mutation, error) {
	m := NewMutation()
	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := doc[key]
		switch key {
		case OpInc, OpMul, OpMin, OpMax:
			sub, ok := value.(map[string]any)
			if !ok {
				return nil, errors.Errorf("%s expects a document of field updates, got %T", key, value)
			}
			fields := make([]string, 0, len(sub))
			for field := range sub {
				fields = append(fields, field)
			}
			sort.Strings(fields)
			for _, field := range fields {
				m.entries = append(m.entries, UpdateEntry{Op: key, Field: field, Value: sub[field]})
			}
		default:
			m.entries = append(m.entries, UpdateEntry{Field: key, Value: value})
		}
	}
	return m, nil
}

// Set 直接赋值
func (m *Mutation) Set(field string, value any) *Mutation {
	m.entries = append(m.entries, UpdateEntry{Field: field, Value: value})
	return m
}

// Inc 自增，col = col + value
func (m *Mutation) Inc(field string, value any) *Mutation {
	m.entries = append(m.entries, UpdateEntry{Op: OpInc, Field: field, Value: value})
	return m
}

// Mul 乘法，col = col * value
func (m *Mutation) Mul(field string, value any) *Mutation {
	m.entries = append(m.entries, UpdateEntry{Op: OpMul, Field: field, Value: value})
	return m
}

// Min 取小，col = LEAST(value, col)，SQLite 下为 MIN
func (m *Mutation) Min(field string, value any) *Mutation {
	m.entries = append(m.entries, UpdateEntry{Op: OpMin, Field: field, Value: value})
	return m
}

// Max 取大，col = GREATEST(value, col)，SQLite 下为 MAX
func (m *Mutation) Max(field string, value any) *Mutation {
	m.entries = append(m.entries, UpdateEntry{Op: OpMax, Field: field, Value: value})
	return m
}

// AllowFields 设置字段允许列表，空列表表示宽容模式
func (m *Mutation) AllowFields(fields ...string) *Mutation {
	m.fields = fields
	return m
}

// Strict 切换到严格校验模式
func (m *Mutation) Strict() *Mutation {
	m.mode = ModeStrict
	return m
}

// Entries 按声明顺序返回更新子句
func (m *Mutation) Entries() []UpdateEntry {
	return m.entries
}

// IsEmpty 是否没有任何更新子句
func (m *Mutation) IsEmpty() bool {
	return len(m.entries) == 0
}

// RejectedFields 返回构建过程中被丢弃的字段
func (m *Mutation) RejectedFields() []string {
	return m.rejected
}

func (m *Mutation) allowed(field string) bool {
	if len(m.fields) == 0 {
		return true
	}
	for _, f := range m.fields {
		if f == field {
			return true
		}
	}
	return false
}

func (m *Mutation) reject(field string) {
	m.rejected = append(m.rejected, field)
}
