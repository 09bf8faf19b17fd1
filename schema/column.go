package schema

// FieldType 字段类型
type FieldType string

const (
	FieldTypeString FieldType = "string"
	FieldTypeInt    FieldType = "int"
	FieldTypeFloat  FieldType = "float"
	FieldTypeBool   FieldType = "bool"
	FieldTypeDate   FieldType = "date"
	FieldTypeJSON   FieldType = "json"
)

// IndexKind 索引类型
type IndexKind string

const (
	IndexKindNone   IndexKind = ""
	IndexKindHash   IndexKind = "hash"
	IndexKindBTree  IndexKind = "btree"
	IndexKindGin    IndexKind = "gin"
	IndexKindUnique IndexKind = "unique"
	IndexKindText   IndexKind = "text"
)

// Column 列元数据，一个持久化字段对应一个 Column
// 注册完成后不可变，由声明它的 Model 持有
type Column struct {
	Name      string    // 列名
	GoName    string    // 结构体字段名
	Type      FieldType // 列类型
	Size      int       // 字段长度，如 VARCHAR(255)
	NotNull   bool      // 是否非空
	Default   any       // 默认值
	Index     IndexKind // 索引类型
	Primary   bool      // 是否主键
	ReadOnly  bool      // 只读列不允许出现在 SET 子句中
	WriteOnly bool      // 只写列不允许出现在查询投影和过滤条件中
}

// Readable 列是否可读
func (c *Column) Readable() bool {
	return !c.WriteOnly
}

// Writable 列是否可写
func (c *Column) Writable() bool {
	return !c.ReadOnly
}
