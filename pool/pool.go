package pool

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/hatlonely/zorm/query"
)

var (
	ErrPoolClosed      = errors.New("pool closed")
	ErrPoolUnavailable = errors.New("pool unavailable")
)

// State 连接池状态
// Available/Unavailable 随健康检查反复迁移，Closed 是终态
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateAvailable
	StateUnavailable
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateAvailable:
		return "available"
	case StateUnavailable:
		return "unavailable"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Options 连接池初始化选项
type Options struct {
	Name            string        `toml:"name" validate:"required"`
	Dialect         string        `toml:"dialect" def:"mysql" validate:"omitempty,oneof=mysql mariadb tidb postgres sqlite"`
	DSN             string        `toml:"dsn"`
	Host            string        `toml:"host" def:"localhost"`
	Port            string        `toml:"port"`
	Database        string        `toml:"database"`
	Username        string        `toml:"username"`
	Password        string        `toml:"password"`
	Charset         string        `toml:"charset" def:"utf8mb4"`
	MaxConns        int           `toml:"maxConns" def:"10" validate:"gte=1"`
	MaxIdle         int           `toml:"maxIdle" def:"5" validate:"gte=0"`
	ConnMaxLifetime time.Duration `toml:"connMaxLifetime"`
}

// Pool 单个数据库服务的连接池
// 构造时不建立网络连接，首次使用或显式 CheckAvailability 时才会连库，
// 以避免进程启动顺序与数据库就绪状态耦合
type Pool struct {
	name    string
	dialect query.Dialect
	db      *sql.DB

	state     atomic.Int32
	closeOnce sync.Once
	closeErr  error
}

// NewPoolWithOptions 根据选项创建连接池
func NewPoolWithOptions(options *Options) (*Pool, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	dialect := query.Dialect(options.Dialect)
	if dialect == "" {
		dialect = query.DialectMySQL
	}
	if !dialect.Valid() {
		return nil, errors.Errorf("unsupported dialect %q", options.Dialect)
	}

	dsn := options.DSN
	if dsn == "" {
		dsn = buildDSN(dialect, options)
	}

	// sql.Open 不触发网络 IO，连接建立是惰性的
	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s pool %s", dialect, options.Name)
	}
	db.SetMaxOpenConns(options.MaxConns)
	db.SetMaxIdleConns(options.MaxIdle)
	if options.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(options.ConnMaxLifetime)
	}

	return &Pool{name: options.Name, dialect: dialect, db: db}, nil
}

// NewPoolWithDB 用现成的 *sql.DB 创建连接池，主要用于测试
func NewPoolWithDB(name string, dialect query.Dialect, db *sql.DB) *Pool {
	return &Pool{name: name, dialect: dialect, db: db}
}

// buildDSN 按方言拼接 DSN
func buildDSN(dialect query.Dialect, options *Options) string {
	switch dialect {
	case query.DialectPostgres:
		port := options.Port
		if port == "" {
			port = "5432"
		}
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
			options.Username, options.Password, options.Host, port, options.Database)
	case query.DialectSQLite:
		return options.Database
	default:
		port := options.Port
		if port == "" {
			port = "3306"
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=%s&parseTime=True&loc=Local",
			options.Username, options.Password, options.Host, port, options.Database, options.Charset)
	}
}

// Name 连接池名，对应配置中的服务名
func (p *Pool) Name() string {
	return p.name
}

// Dialect 连接池对应的方言
func (p *Pool) Dialect() query.Dialect {
	return p.dialect
}

// State 当前状态
func (p *Pool) State() State {
	return State(p.state.Load())
}

// IsAvailable 最近一次健康检查是否成功
func (p *Pool) IsAvailable() bool {
	return p.State() == StateAvailable
}

// CheckAvailability 主动探活并刷新可用状态
// 并发调用安全，可用标志以最后一次写入为准；池关闭后返回 ErrPoolClosed
func (p *Pool) CheckAvailability(ctx context.Context) error {
	if p.State() == StateClosed {
		return errors.Wrap(ErrPoolClosed, p.name)
	}
	p.state.CompareAndSwap(int32(StateUninitialized), int32(StateConnecting))

	err := p.db.PingContext(ctx)
	// Close 和 Ping 竞争时保持终态不被覆盖
	if p.State() == StateClosed {
		return errors.Wrap(ErrPoolClosed, p.name)
	}
	if err != nil {
		p.state.Store(int32(StateUnavailable))
		slog.Warn("database service is unavailable", "pool", p.name, "dialect", string(p.dialect), "error", err)
		return errors.Wrapf(err, "pool %s is unavailable", p.name)
	}
	p.state.Store(int32(StateAvailable))
	slog.Debug("database service is available", "pool", p.name, "dialect", string(p.dialect))
	return nil
}

// QueryContext 执行查询，池关闭后返回 ErrPoolClosed
// 语句被取消时连接由 database/sql 归还，不会泄漏
func (p *Pool) QueryContext(ctx context.Context, sqlStr string, args ...any) (*sql.Rows, error) {
	if p.State() == StateClosed {
		return nil, errors.Wrap(ErrPoolClosed, p.name)
	}
	return p.db.QueryContext(ctx, sqlStr, args...)
}

// ExecContext 执行变更语句，池关闭后返回 ErrPoolClosed
func (p *Pool) ExecContext(ctx context.Context, sqlStr string, args ...any) (sql.Result, error) {
	if p.State() == StateClosed {
		return nil, errors.Wrap(ErrPoolClosed, p.name)
	}
	return p.db.ExecContext(ctx, sqlStr, args...)
}

// Stats 底层连接池统计
func (p *Pool) Stats() sql.DBStats {
	return p.db.Stats()
}

// Close 释放底层连接资源，幂等；之后的操作返回 ErrPoolClosed
func (p *Pool) Close() error {
	p.closeOnce.Do(func() {
		p.state.Store(int32(StateClosed))
		p.closeErr = p.db.Close()
		slog.Info("database pool closed", "pool", p.name)
	})
	return p.closeErr
}
