package query

import (
	"fmt"
	"strings"
)

// Dialect 支持的数据库方言
// mysql / mariadb / tidb 共享 MySQL 家族的语法
type Dialect string

const (
	DialectMySQL    Dialect = "mysql"
	DialectMariaDB  Dialect = "mariadb"
	DialectTiDB     Dialect = "tidb"
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// Valid 方言是否受支持
func (d Dialect) Valid() bool {
	switch d {
	case DialectMySQL, DialectMariaDB, DialectTiDB, DialectPostgres, DialectSQLite:
		return true
	}
	return false
}

// MySQLFamily 是否属于 MySQL 家族
func (d Dialect) MySQLFamily() bool {
	switch d {
	case DialectMySQL, DialectMariaDB, DialectTiDB:
		return true
	}
	return false
}

// DriverName 对应 database/sql 的驱动名
func (d Dialect) DriverName() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectSQLite:
		return "sqlite3"
	default:
		return "mysql"
	}
}

// Quote 引用标识符，MySQL 家族使用反引号，其余使用双引号
func (d Dialect) Quote(ident string) string {
	if d.MySQLFamily() {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// RandFunc 随机函数
func (d Dialect) RandFunc() string {
	switch d {
	case DialectPostgres:
		return "random()"
	case DialectSQLite:
		return "abs(random())"
	default:
		return "rand()"
	}
}

// SizeFunc 数组/JSON 长度函数
func (d Dialect) SizeFunc() string {
	switch d {
	case DialectPostgres:
		return "array_length"
	case DialectSQLite:
		return "json_array_length"
	default:
		return "json_length"
	}
}

// LeastFunc 取小函数，SQLite 使用 MIN，其余使用 LEAST
func (d Dialect) LeastFunc() string {
	if d == DialectSQLite {
		return "MIN"
	}
	return "LEAST"
}

// GreatestFunc 取大函数，SQLite 使用 MAX，其余使用 GREATEST
func (d Dialect) GreatestFunc() string {
	if d == DialectSQLite {
		return "MAX"
	}
	return "GREATEST"
}

// comparisonOps 与方言无关的比较运算符表
var comparisonOps = map[string]string{
	OpEq: "=",
	OpNe: "<>",
	OpLt: "<",
	OpLe: "<=",
	OpGt: ">",
	OpGe: ">=",
}

// FormatPlaceholders 将 `?` 占位符格式化为对应数据库的格式
// PostgreSQL 使用 $1, $2, $3... 其余方言保持 `?`
func (d Dialect) FormatPlaceholders(sqlStr string) string {
	if d != DialectPostgres {
		return sqlStr
	}
	count := 1
	for strings.Contains(sqlStr, "?") {
		sqlStr = strings.Replace(sqlStr, "?", fmt.Sprintf("$%d", count), 1)
		count++
	}
	return sqlStr
}
