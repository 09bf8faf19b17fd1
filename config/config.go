package config

import (
	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/hatlonely/zorm/pool"
	"github.com/hatlonely/zorm/query"
)

var ErrMissingServiceConfig = errors.New("missing database service config")

// DatabaseOptions 进程级数据库设置
// 启动时构建一次，之后只读，通过共享引用传给构建器和连接池管理器
type DatabaseOptions struct {
	// Type 选用的方言，决定读取哪一组服务配置
	Type string `toml:"type" def:"mysql" validate:"omitempty,oneof=mysql mariadb tidb postgres sqlite"`
	// Namespace 命名空间，非空时作为表名前缀 <namespace>_
	Namespace string `toml:"namespace"`
	// TimeZone 数据库会话时区，可选
	TimeZone string `toml:"time-zone"`
	// MaxRows 查询返回行数的进程级上限
	MaxRows int `toml:"max-rows" def:"10000" validate:"gte=1"`
	// AutoMigration 是否自动迁移表结构
	AutoMigration *bool `toml:"auto-migration"`
	// DebugOnly 仅调试模式
	DebugOnly bool `toml:"debug-only"`
}

// Config 数据库配置，对应 TOML 配置文件：
//
//	[database]
//	type = "mysql"
//	namespace = "zz"
//	max-rows = 10000
//
//	[[mysql]]
//	name = "primary"
//	host = "127.0.0.1"
//	...
type Config struct {
	Database DatabaseOptions `toml:"database"`

	Mysql    []pool.Options `toml:"mysql" validate:"dive"`
	Mariadb  []pool.Options `toml:"mariadb" validate:"dive"`
	Tidb     []pool.Options `toml:"tidb" validate:"dive"`
	Postgres []pool.Options `toml:"postgres" validate:"dive"`
	Sqlite   []pool.Options `toml:"sqlite" validate:"dive"`
}

var validate = validator.New()

// Load 从 TOML 文件加载配置：解码 → 填默认值 → 校验
// 选中方言对应的服务数组缺失是致命的启动错误
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode config file %s", path)
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromString 从 TOML 文本加载配置，主要用于测试
func LoadFromString(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Init(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Init 填充默认值并校验，Load 之外手工构造的配置也应调用
func (c *Config) Init() error {
	if err := SetDefaults(c); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	services := c.Services()
	if len(services) == 0 {
		return errors.Wrapf(ErrMissingServiceConfig,
			"the %q field should be an array of tables; use [[%s]] to configure database services",
			c.Database.Type, c.Database.Type)
	}
	for i := range services {
		services[i].Dialect = c.Database.Type
	}
	return nil
}

// Services 选中方言对应的服务配置
func (c *Config) Services() []pool.Options {
	switch query.Dialect(c.Database.Type) {
	case query.DialectMariaDB:
		return c.Mariadb
	case query.DialectTiDB:
		return c.Tidb
	case query.DialectPostgres:
		return c.Postgres
	case query.DialectSQLite:
		return c.Sqlite
	default:
		return c.Mysql
	}
}

// NamespacePrefix 表名前缀，namespace 为空时无前缀
func (c *Config) NamespacePrefix() string {
	if c.Database.Namespace == "" {
		return ""
	}
	return c.Database.Namespace + "_"
}

// AutoMigration 是否自动迁移，未配置时默认开启
func (c *Config) AutoMigration() bool {
	if c.Database.AutoMigration == nil {
		return true
	}
	return *c.Database.AutoMigration
}

// NewManager 按配置创建连接池管理器
func (c *Config) NewManager() (*pool.Manager, error) {
	return pool.NewManagerWithOptions(&pool.ManagerOptions{Pools: c.Services()})
}
