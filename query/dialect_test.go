package query

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDialect(t *testing.T) {
	Convey("测试 Dialect 基础属性", t, func() {
		Convey("方言合法性", func() {
			So(DialectMySQL.Valid(), ShouldBeTrue)
			So(DialectMariaDB.Valid(), ShouldBeTrue)
			So(DialectTiDB.Valid(), ShouldBeTrue)
			So(DialectPostgres.Valid(), ShouldBeTrue)
			So(DialectSQLite.Valid(), ShouldBeTrue)
			So(Dialect("oracle").Valid(), ShouldBeFalse)
		})

		Convey("MySQL 家族", func() {
			So(DialectMySQL.MySQLFamily(), ShouldBeTrue)
			So(DialectMariaDB.MySQLFamily(), ShouldBeTrue)
			So(DialectTiDB.MySQLFamily(), ShouldBeTrue)
			So(DialectPostgres.MySQLFamily(), ShouldBeFalse)
			So(DialectSQLite.MySQLFamily(), ShouldBeFalse)
		})

		Convey("驱动名", func() {
			So(DialectMySQL.DriverName(), ShouldEqual, "mysql")
			So(DialectMariaDB.DriverName(), ShouldEqual, "mysql")
			So(DialectPostgres.DriverName(), ShouldEqual, "postgres")
			So(DialectSQLite.DriverName(), ShouldEqual, "sqlite3")
		})

		Convey("标识符引用", func() {
			So(DialectMySQL.Quote("user"), ShouldEqual, "`user`")
			So(DialectPostgres.Quote("user"), ShouldEqual, `"user"`)
			So(DialectSQLite.Quote("user"), ShouldEqual, `"user"`)
		})

		Convey("随机函数", func() {
			So(DialectMySQL.RandFunc(), ShouldEqual, "rand()")
			So(DialectPostgres.RandFunc(), ShouldEqual, "random()")
			So(DialectSQLite.RandFunc(), ShouldEqual, "abs(random())")
		})

		Convey("长度函数", func() {
			So(DialectMySQL.SizeFunc(), ShouldEqual, "json_length")
			So(DialectPostgres.SizeFunc(), ShouldEqual, "array_length")
			So(DialectSQLite.SizeFunc(), ShouldEqual, "json_array_length")
		})

		Convey("取小取大函数", func() {
			So(DialectMySQL.LeastFunc(), ShouldEqual, "LEAST")
			So(DialectSQLite.LeastFunc(), ShouldEqual, "MIN")
			So(DialectMySQL.GreatestFunc(), ShouldEqual, "GREATEST")
			So(DialectSQLite.GreatestFunc(), ShouldEqual, "MAX")
		})
	})
}

func TestFormatPlaceholders(t *testing.T) {
	Convey("测试占位符格式化", t, func() {
		Convey("PostgreSQL 转换为 $N", func() {
			So(DialectPostgres.FormatPlaceholders("a = ? AND b = ?"), ShouldEqual, "a = $1 AND b = $2")
			So(DialectPostgres.FormatPlaceholders("no placeholders"), ShouldEqual, "no placeholders")
		})

		Convey("其余方言保持 ?", func() {
			So(DialectMySQL.FormatPlaceholders("a = ? AND b = ?"), ShouldEqual, "a = ? AND b = ?")
			So(DialectSQLite.FormatPlaceholders("a = ?"), ShouldEqual, "a = ?")
		})
	})
}
