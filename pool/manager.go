package pool

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Manager 按服务名管理一组连接池
// 注册表在启动后以读为主，Get 可以被并发调用
type Manager struct {
	pools []*Pool
}

// ManagerOptions 管理器初始化选项
type ManagerOptions struct {
	Pools []Options `toml:"pools"`
}

// NewManagerWithOptions 根据选项创建管理器
func NewManagerWithOptions(options *ManagerOptions) (*Manager, error) {
	if options == nil {
		return nil, errors.New("options cannot be nil")
	}
	m := &Manager{}
	for i := range options.Pools {
		p, err := NewPoolWithOptions(&options.Pools[i])
		if err != nil {
			return nil, errors.Wrapf(err, "failed to create pool %s", options.Pools[i].Name)
		}
		m.pools = append(m.pools, p)
	}
	return m, nil
}

// NewManager 用现成的连接池创建管理器
func NewManager(pools ...*Pool) *Manager {
	return &Manager{pools: pools}
}

// Register 追加一个连接池，应在启动期完成
func (m *Manager) Register(p *Pool) {
	m.pools = append(m.pools, p)
}

// Pools 所有注册的连接池
func (m *Manager) Pools() []*Pool {
	return m.pools
}

// Get 按服务名选择连接池
// 同名的池视为副本集：返回第一个可用的；全部不可用时返回最后一个被扫描到的，
// 让调用方拿到可重试的具体句柄而不是空值；没有该名字的池才返回 nil。
// 这是可用性优先的取舍，调用方必须容忍拿到的句柄执行失败并重新向管理器获取
func (m *Manager) Get(name string) *Pool {
	var last *Pool
	for _, p := range m.pools {
		if p.Name() != name {
			continue
		}
		if p.IsAvailable() {
			return p
		}
		last = p
	}
	return last
}

// ConnectAll 对所有连接池发起一次探活
// 单个池失败不影响其余池，返回第一个遇到的错误
func (m *Manager) ConnectAll(ctx context.Context) error {
	var eg errgroup.Group
	for _, p := range m.pools {
		p := p
		eg.Go(func() error {
			return p.CheckAvailability(ctx)
		})
	}
	return eg.Wait()
}

// CloseAll 优雅关闭所有连接池
// 单个池失败不影响其余池，返回第一个遇到的错误
func (m *Manager) CloseAll() error {
	var eg errgroup.Group
	for _, p := range m.pools {
		p := p
		eg.Go(func() error {
			return p.Close()
		})
	}
	return eg.Wait()
}
