package config

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadFromString(t *testing.T) {
	Convey("测试配置加载", t, func() {
		Convey("最小配置，其余字段填默认值", func() {
			cfg, err := LoadFromString(`
[[mysql]]
name = "primary"
`)
			So(err, ShouldBeNil)
			So(cfg.Database.Type, ShouldEqual, "mysql")
			So(cfg.Database.MaxRows, ShouldEqual, 10000)

			services := cfg.Services()
			So(services, ShouldHaveLength, 1)
			So(services[0].Name, ShouldEqual, "primary")
			So(services[0].Dialect, ShouldEqual, "mysql")
			So(services[0].Host, ShouldEqual, "localhost")
			So(services[0].Charset, ShouldEqual, "utf8mb4")
			So(services[0].MaxConns, ShouldEqual, 10)
			So(services[0].MaxIdle, ShouldEqual, 5)
		})

		Convey("完整配置", func() {
			cfg, err := LoadFromString(`
[database]
type = "postgres"
namespace = "zz"
max-rows = 500
time-zone = "Asia/Shanghai"
auto-migration = false

[[postgres]]
name = "primary"
host = "127.0.0.1"
port = "5432"
database = "app"
username = "postgres"
password = "secret"
maxConns = 20

[[postgres]]
name = "replica"
host = "127.0.0.2"
`)
			So(err, ShouldBeNil)
			So(cfg.Database.Type, ShouldEqual, "postgres")
			So(cfg.Database.MaxRows, ShouldEqual, 500)
			So(cfg.NamespacePrefix(), ShouldEqual, "zz_")
			So(cfg.AutoMigration(), ShouldBeFalse)

			services := cfg.Services()
			So(services, ShouldHaveLength, 2)
			So(services[0].Dialect, ShouldEqual, "postgres")
			So(services[0].MaxConns, ShouldEqual, 20)
			So(services[1].Dialect, ShouldEqual, "postgres")
		})

		Convey("选中方言的服务数组缺失是致命错误", func() {
			_, err := LoadFromString(`
[database]
type = "postgres"

[[mysql]]
name = "primary"
`)
			So(errors.Cause(err), ShouldEqual, ErrMissingServiceConfig)
		})

		Convey("空配置同样缺少服务数组", func() {
			_, err := LoadFromString("")
			So(errors.Cause(err), ShouldEqual, ErrMissingServiceConfig)
		})

		Convey("服务缺少 name 无法通过校验", func() {
			_, err := LoadFromString(`
[[mysql]]
host = "127.0.0.1"
`)
			So(err, ShouldNotBeNil)
		})

		Convey("未知方言无法通过校验", func() {
			_, err := LoadFromString(`
[database]
type = "oracle"

[[mysql]]
name = "primary"
`)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestConfigHelpers(t *testing.T) {
	Convey("测试配置辅助方法", t, func() {
		Convey("namespace 为空时无前缀", func() {
			cfg := &Config{}
			So(cfg.NamespacePrefix(), ShouldBeEmpty)
		})

		Convey("auto-migration 未配置时默认开启", func() {
			cfg := &Config{}
			So(cfg.AutoMigration(), ShouldBeTrue)
		})
	})
}

func TestSetDefaults(t *testing.T) {
	type inner struct {
		Host    string        `def:"localhost"`
		Port    int           `def:"3306"`
		Timeout time.Duration `def:"5s"`
	}
	type outer struct {
		Name    string `def:"app"`
		Debug   bool   `def:"true"`
		Ratio   float64 `def:"0.5"`
		Inner   inner
		Inners  []inner
		Pointer *inner
	}

	Convey("测试默认值填充", t, func() {
		Convey("递归填充结构体、切片与指针", func() {
			o := &outer{
				Inners:  []inner{{Host: "explicit"}, {}},
				Pointer: &inner{},
			}
			So(SetDefaults(o), ShouldBeNil)
			So(o.Name, ShouldEqual, "app")
			So(o.Debug, ShouldBeTrue)
			So(o.Ratio, ShouldEqual, 0.5)
			So(o.Inner.Host, ShouldEqual, "localhost")
			So(o.Inner.Port, ShouldEqual, 3306)
			So(o.Inner.Timeout, ShouldEqual, 5*time.Second)
			So(o.Inners[0].Host, ShouldEqual, "explicit")
			So(o.Inners[1].Host, ShouldEqual, "localhost")
			So(o.Pointer.Port, ShouldEqual, 3306)
		})

		Convey("显式配置的值不被覆盖", func() {
			o := &outer{Name: "custom"}
			So(SetDefaults(o), ShouldBeNil)
			So(o.Name, ShouldEqual, "custom")
		})

		Convey("非指针入参报错", func() {
			So(SetDefaults(outer{}), ShouldNotBeNil)
			So(SetDefaults(nil), ShouldNotBeNil)
		})

		Convey("非法默认值报错", func() {
			type broken struct {
				Port int `def:"not a number"`
			}
			So(SetDefaults(&broken{}), ShouldNotBeNil)
		})
	})
}
