package executor

import (
	"database/sql"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

var ErrDecode = errors.New("failed to decode record")

// Record 一行查询结果，列名到值的映射
type Record map[string]any

// Get 取某一列的值
func (r Record) Get(column string) (any, bool) {
	v, ok := r[column]
	return v, ok
}

// Scan 将记录解码到结构体，列名匹配 zorm tag 或字段名的小写形式
func (r Record) Scan(dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.Wrapf(ErrDecode, "dest must be a non-nil pointer, got %T", dest)
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return errors.Wrapf(ErrDecode, "dest must point to a struct, got %T", dest)
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		column := columnName(field)
		if column == "-" {
			continue
		}
		value, ok := r[column]
		if !ok || value == nil {
			continue
		}
		if err := setFieldValue(rv.Field(i), value); err != nil {
			return errors.Wrapf(err, "failed to decode column %s into %s.%s", column, rt.Name(), field.Name)
		}
	}
	return nil
}

// columnName 字段对应的列名
func columnName(field reflect.StructField) string {
	tag := field.Tag.Get("zorm")
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return strings.ToLower(field.Name)
	}
	return name
}

// setFieldValue 数据库值到结构体字段的类型转换
// 驱动返回的整数统一是 int64，字符串可能以 []byte 出现
func setFieldValue(fieldValue reflect.Value, value any) error {
	if fieldValue.Kind() == reflect.Ptr {
		if fieldValue.IsNil() {
			fieldValue.Set(reflect.New(fieldValue.Type().Elem()))
		}
		fieldValue = fieldValue.Elem()
	}

	rv := reflect.ValueOf(value)
	if rv.Type() == fieldValue.Type() {
		fieldValue.Set(rv)
		return nil
	}

	switch fieldValue.Kind() {
	case reflect.String:
		switch v := value.(type) {
		case []byte:
			fieldValue.SetString(string(v))
		case string:
			fieldValue.SetString(v)
		default:
			return errors.Wrapf(ErrDecode, "cannot convert %T to string", value)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		switch v := value.(type) {
		case int64:
			fieldValue.SetInt(v)
		case int:
			fieldValue.SetInt(int64(v))
		case []byte:
			n, err := parseInt(string(v))
			if err != nil {
				return err
			}
			fieldValue.SetInt(n)
		default:
			return errors.Wrapf(ErrDecode, "cannot convert %T to int", value)
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch v := value.(type) {
		case int64:
			if v < 0 {
				return errors.Wrapf(ErrDecode, "cannot convert negative value to uint")
			}
			fieldValue.SetUint(uint64(v))
		case uint64:
			fieldValue.SetUint(v)
		default:
			return errors.Wrapf(ErrDecode, "cannot convert %T to uint", value)
		}
	case reflect.Float32, reflect.Float64:
		switch v := value.(type) {
		case float64:
			fieldValue.SetFloat(v)
		case float32:
			fieldValue.SetFloat(float64(v))
		case int64:
			fieldValue.SetFloat(float64(v))
		default:
			return errors.Wrapf(ErrDecode, "cannot convert %T to float", value)
		}
	case reflect.Bool:
		switch v := value.(type) {
		case bool:
			fieldValue.SetBool(v)
		case int64:
			fieldValue.SetBool(v != 0)
		default:
			return errors.Wrapf(ErrDecode, "cannot convert %T to bool", value)
		}
	case reflect.Struct:
		if fieldValue.Type() == reflect.TypeOf(time.Time{}) {
			switch v := value.(type) {
			case time.Time:
				fieldValue.Set(reflect.ValueOf(v))
			case []byte:
				t, err := parseTime(string(v))
				if err != nil {
					return err
				}
				fieldValue.Set(reflect.ValueOf(t))
			case string:
				t, err := parseTime(v)
				if err != nil {
					return err
				}
				fieldValue.Set(reflect.ValueOf(t))
			default:
				return errors.Wrapf(ErrDecode, "cannot convert %T to time.Time", value)
			}
			return nil
		}
		return errors.Wrapf(ErrDecode, "unsupported struct field type %s", fieldValue.Type())
	default:
		return errors.Wrapf(ErrDecode, "unsupported field kind %s", fieldValue.Kind())
	}
	return nil
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrDecode, "invalid integer %q", s)
	}
	return n, nil
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrDecode, "invalid time %q", s)
}

// scanRows 将查询结果集逐行扫描为 Record
func scanRows(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read result columns")
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, errors.Wrap(ErrDecode, err.Error())
		}
		record := make(Record, len(columns))
		for i, col := range columns {
			record[col] = values[i]
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate result rows")
	}
	return records, nil
}

// recordFromStruct 将结构体转换为列名到值的映射，跳过零值主键之外的逻辑由调用方决定
func recordFromStruct(v any) Record {
	record := Record{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return record
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		column := columnName(field)
		if column == "-" {
			continue
		}
		record[column] = rv.Field(i).Interface()
	}
	return record
}
