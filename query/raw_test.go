package query

import (
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResolveRawSQL(t *testing.T) {
	Convey("测试 ResolveRawSQL", t, func() {
		Convey("${} 文本替换，#{} 绑定参数", func() {
			sqlStr, args, err := ResolveRawSQL(
				"SELECT * FROM ${table} WHERE id = #{id} AND status = #{status}",
				map[string]any{"table": "user", "id": int64(1), "status": "Active"},
			)
			So(err, ShouldBeNil)
			So(sqlStr, ShouldEqual, "SELECT * FROM user WHERE id = ? AND status = ?")
			So(args, ShouldResemble, []any{int64(1), "Active"})
		})

		Convey("没有插值时原样返回", func() {
			sqlStr, args, err := ResolveRawSQL("SELECT 1", nil)
			So(err, ShouldBeNil)
			So(sqlStr, ShouldEqual, "SELECT 1")
			So(args, ShouldBeEmpty)
		})

		Convey("$ 或 # 后面不是大括号时原样保留", func() {
			sqlStr, _, err := ResolveRawSQL("SELECT price # 2, $1 FROM t", nil)
			So(err, ShouldBeNil)
			So(sqlStr, ShouldEqual, "SELECT price # 2, $1 FROM t")
		})

		Convey("缺失参数报错", func() {
			_, _, err := ResolveRawSQL("SELECT * FROM t WHERE id = #{id}", nil)
			So(errors.Cause(err), ShouldEqual, ErrMissingParam)
		})

		Convey("未闭合的插值报错", func() {
			_, _, err := ResolveRawSQL("SELECT * FROM ${table", map[string]any{"table": "user"})
			So(err, ShouldNotBeNil)
		})

		Convey("数值参数的文本替换", func() {
			sqlStr, _, err := ResolveRawSQL("SELECT * FROM shard_${idx}", map[string]any{"idx": 3})
			So(err, ShouldBeNil)
			So(sqlStr, ShouldEqual, "SELECT * FROM shard_3")
		})
	})
}
