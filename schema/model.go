package schema

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrInvalidEntity = errors.New("entity must be a struct or a pointer to struct")
	ErrNoPrimaryKey  = errors.New("model requires exactly one primary key column")
)

// TableNamer 实体可以通过实现 TableName 方法指定表名
type TableNamer interface {
	TableName() string
}

// Model 实体模型描述符，进程启动时构建一次，之后只读
// 所有针对该实体的操作共享同一个 Model
type Model struct {
	Name       string    // 实体名
	Table      string    // 表名
	columns    []*Column // 按声明顺序排列
	columnMap  map[string]*Column
	primaryKey *Column
}

// Columns 按声明顺序返回所有列
func (m *Model) Columns() []*Column {
	return m.columns
}

// Column 根据列名查找列
func (m *Model) Column(name string) (*Column, bool) {
	col, ok := m.columnMap[name]
	return col, ok
}

// ReadableColumn 查找可读列，列不存在或只写时返回 false
func (m *Model) ReadableColumn(name string) (*Column, bool) {
	col, ok := m.columnMap[name]
	if !ok || !col.Readable() {
		return nil, false
	}
	return col, true
}

// WritableColumn 查找可写列，列不存在或只读时返回 false
func (m *Model) WritableColumn(name string) (*Column, bool) {
	col, ok := m.columnMap[name]
	if !ok || !col.Writable() {
		return nil, false
	}
	return col, true
}

// PrimaryKey 主键列
func (m *Model) PrimaryKey() *Column {
	return m.primaryKey
}

// TableName 表名
func (m *Model) TableName() string {
	return m.Table
}

// ModelBuilder 模型构建器，从结构体定义构建 Model
type ModelBuilder struct {
	tablePrefix string
}

// NewModelBuilder 创建模型构建器
func NewModelBuilder() *ModelBuilder {
	return &ModelBuilder{}
}

// WithTablePrefix 设置表名前缀，对应配置中的 namespace
func (b *ModelBuilder) WithTablePrefix(prefix string) *ModelBuilder {
	b.tablePrefix = prefix
	return b
}

// FromStruct 从结构体构建 Model
// 支持的 tag 格式：
//
//	`zorm:"column_name,type=string,size=255,primary,required,readonly,writeonly,index=btree,default=x"`
//
// `zorm:"-"` 跳过该字段。重复列名和缺失主键是启动期的致命配置错误
func (b *ModelBuilder) FromStruct(v any) (*Model, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, errors.Wrapf(ErrInvalidEntity, "got %T", v)
	}

	model := &Model{
		Name:      rt.Name(),
		Table:     b.tableName(rt, v),
		columnMap: map[string]*Column{},
	}

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("zorm")
		if tag == "-" {
			continue
		}

		col, err := b.parseFieldTag(field, tag)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse field %s", field.Name)
		}
		if _, exists := model.columnMap[col.Name]; exists {
			return nil, errors.Errorf("duplicate column name %q in model %s", col.Name, model.Name)
		}
		model.columns = append(model.columns, col)
		model.columnMap[col.Name] = col
		if col.Primary {
			if model.primaryKey != nil {
				return nil, errors.Wrapf(ErrNoPrimaryKey, "model %s declares multiple primary keys", model.Name)
			}
			model.primaryKey = col
		}
	}

	if model.primaryKey == nil {
		return nil, errors.Wrapf(ErrNoPrimaryKey, "model %s", model.Name)
	}
	return model, nil
}

// tableName 表名优先取 TableName 方法，否则使用结构体名的小写形式
func (b *ModelBuilder) tableName(rt reflect.Type, v any) string {
	if namer, ok := v.(TableNamer); ok {
		return b.tablePrefix + namer.TableName()
	}
	if namer, ok := reflect.New(rt).Interface().(TableNamer); ok {
		return b.tablePrefix + namer.TableName()
	}
	return b.tablePrefix + strings.ToLower(rt.Name())
}

// parseFieldTag 解析字段的 zorm tag
func (b *ModelBuilder) parseFieldTag(field reflect.StructField, tag string) (*Column, error) {
	col := &Column{
		Name:   strings.ToLower(field.Name),
		GoName: field.Name,
		Type:   b.inferFieldType(field.Type),
	}

	if tag == "" {
		return col, nil
	}

	parts := strings.Split(tag, ",")
	if parts[0] != "" && !strings.Contains(parts[0], "=") {
		col.Name = parts[0]
		parts = parts[1:]
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, "=") {
			kv := strings.SplitN(part, "=", 2)
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])
			switch key {
			case "type":
				col.Type = FieldType(value)
			case "size":
				size, err := strconv.Atoi(value)
				if err != nil {
					return nil, errors.Wrapf(err, "invalid size %q", value)
				}
				col.Size = size
			case "default":
				col.Default = b.parseDefaultValue(value, col.Type)
			case "index":
				col.Index = IndexKind(value)
			default:
				return nil, errors.Errorf("unknown tag option %q", key)
			}
			continue
		}
		switch part {
		case "primary":
			col.Primary = true
			col.NotNull = true
		case "required":
			col.NotNull = true
		case "readonly":
			col.ReadOnly = true
		case "writeonly":
			col.WriteOnly = true
		case "nullable":
			col.NotNull = false
		case "index":
			col.Index = IndexKindBTree
		case "unique":
			col.Index = IndexKindUnique
		default:
			return nil, errors.Errorf("unknown tag option %q", part)
		}
	}
	return col, nil
}

// parseDefaultValue 按列类型解析 default tag 的值，解析失败时保留原始字符串
func (b *ModelBuilder) parseDefaultValue(value string, typ FieldType) any {
	switch typ {
	case FieldTypeInt:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case FieldTypeFloat:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	case FieldTypeBool:
		if v, err := strconv.ParseBool(value); err == nil {
			return v
		}
	}
	return value
}

// inferFieldType 根据 Go 类型推断列类型
func (b *ModelBuilder) inferFieldType(rt reflect.Type) FieldType {
	if rt == reflect.TypeOf(time.Time{}) || rt == reflect.TypeOf(&time.Time{}) {
		return FieldTypeDate
	}
	switch rt.Kind() {
	case reflect.String:
		return FieldTypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldTypeInt
	case reflect.Float32, reflect.Float64:
		return FieldTypeFloat
	case reflect.Bool:
		return FieldTypeBool
	case reflect.Ptr:
		return b.inferFieldType(rt.Elem())
	default:
		return FieldTypeJSON
	}
}
