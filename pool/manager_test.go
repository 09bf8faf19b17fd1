package pool

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerGet(t *testing.T) {
	ctx := context.Background()
	p1, mock1 := newMockPool(t, "primary")
	p2, mock2 := newMockPool(t, "primary")
	p3, _ := newMockPool(t, "replica")
	m := NewManager(p1, p2, p3)

	// 全部未探活时返回最后一个同名池
	assert.Same(t, p2, m.Get("primary"))

	// 有可用池时优先返回第一个可用的
	mock2.ExpectPing()
	require.NoError(t, p2.CheckAvailability(ctx))
	assert.Same(t, p2, m.Get("primary"))

	mock1.ExpectPing()
	require.NoError(t, p1.CheckAvailability(ctx))
	assert.Same(t, p1, m.Get("primary"))

	// 第一个失联后回落到仍然可用的副本
	mock1.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, p1.CheckAvailability(ctx))
	assert.Same(t, p2, m.Get("primary"))

	// 没有该名字的池才返回 nil
	assert.Same(t, p3, m.Get("replica"))
	assert.Nil(t, m.Get("missing"))
}

func TestManagerConnectAll(t *testing.T) {
	ctx := context.Background()
	p1, mock1 := newMockPool(t, "primary")
	p2, mock2 := newMockPool(t, "replica")
	m := NewManager(p1, p2)

	// 单个池失败不影响其余池的探活
	mock1.ExpectPing()
	mock2.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, m.ConnectAll(ctx))
	assert.True(t, p1.IsAvailable())
	assert.Equal(t, StateUnavailable, p2.State())

	assert.NoError(t, mock1.ExpectationsWereMet())
	assert.NoError(t, mock2.ExpectationsWereMet())
}

func TestManagerCloseAll(t *testing.T) {
	p1, mock1 := newMockPool(t, "primary")
	p2, mock2 := newMockPool(t, "replica")
	m := NewManager(p1, p2)

	mock1.ExpectClose()
	mock2.ExpectClose()
	require.NoError(t, m.CloseAll())
	assert.Equal(t, StateClosed, p1.State())
	assert.Equal(t, StateClosed, p2.State())

	// 再次关闭是幂等的
	require.NoError(t, m.CloseAll())
}

func TestNewManagerWithOptions(t *testing.T) {
	m, err := NewManagerWithOptions(&ManagerOptions{Pools: []Options{
		{Name: "primary", Dialect: "mysql", Host: "127.0.0.1", Database: "test", MaxConns: 10, MaxIdle: 5},
		{Name: "replica", Dialect: "mysql", Host: "127.0.0.2", Database: "test", MaxConns: 10, MaxIdle: 5},
	}})
	require.NoError(t, err)
	assert.Len(t, m.Pools(), 2)
	assert.NotNil(t, m.Get("primary"))

	_, err = NewManagerWithOptions(nil)
	assert.Error(t, err)

	_, err = NewManagerWithOptions(&ManagerOptions{Pools: []Options{{Name: "bad", Dialect: "oracle"}}})
	assert.Error(t, err)

	p := m.Get("primary")
	registered, _ := newMockPool(t, "extra")
	m.Register(registered)
	assert.Len(t, m.Pools(), 3)
	assert.Same(t, p, m.Get("primary"))
	assert.Same(t, registered, m.Get("extra"))
}
