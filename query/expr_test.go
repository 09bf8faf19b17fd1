package query

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseFilter(t *testing.T) {
	Convey("测试 ParseFilter", t, func() {
		Convey("标量值是等值比较的简写", func() {
			expr, err := ParseFilter(map[string]any{"name": "tom"})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, Eq("name", "tom"))
		})

		Convey("nil 值解析为 IS NULL", func() {
			expr, err := ParseFilter(map[string]any{"name": nil})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, IsNull("name"))
		})

		Convey("文档值的每个运算符产生一个叶子", func() {
			expr, err := ParseFilter(map[string]any{
				"age": map[string]any{"$ge": 18, "$lt": 30},
			})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, And(
				Cond{Field: "age", Op: OpGe, Value: 18},
				Cond{Field: "age", Op: OpLt, Value: 30},
			))
		})

		Convey("多个键按字典序组合为 AND", func() {
			expr, err := ParseFilter(map[string]any{
				"status": "Active",
				"age":    map[string]any{"$ge": 18},
			})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, And(
				Cond{Field: "age", Op: OpGe, Value: 18},
				Eq("status", "Active"),
			))
		})

		Convey("$or 组合子文档", func() {
			expr, err := ParseFilter(map[string]any{
				"$or": []any{
					map[string]any{"status": "Active"},
					map[string]any{"status": "Inactive"},
				},
			})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, Group{Op: OpOr, Exprs: []Expr{
				Eq("status", "Active"),
				Eq("status", "Inactive"),
			}})
		})

		Convey("$not 包装子文档", func() {
			expr, err := ParseFilter(map[string]any{
				"$not": map[string]any{"status": "Active"},
			})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, Not(Eq("status", "Active")))
		})

		Convey("$rand 不关联字段", func() {
			expr, err := ParseFilter(map[string]any{"$rand": 0.5})
			So(err, ShouldBeNil)
			So(expr, ShouldResemble, Cond{Op: OpRand, Value: 0.5})
		})

		Convey("空文档解析为 nil", func() {
			expr, err := ParseFilter(map[string]any{})
			So(err, ShouldBeNil)
			So(expr, ShouldBeNil)
		})

		Convey("未知运算符报错", func() {
			_, err := ParseFilter(map[string]any{
				"age": map[string]any{"$foo": 1},
			})
			So(errors.Cause(err), ShouldEqual, ErrUnsupportedOperator)
		})

		Convey("$or 的值必须是文档数组", func() {
			_, err := ParseFilter(map[string]any{"$or": "oops"})
			So(err, ShouldNotBeNil)

			_, err = ParseFilter(map[string]any{"$or": []any{"oops"}})
			So(err, ShouldNotBeNil)
		})

		Convey("$not 的值必须是文档", func() {
			_, err := ParseFilter(map[string]any{"$not": "oops"})
			So(err, ShouldNotBeNil)
		})
	})
}
