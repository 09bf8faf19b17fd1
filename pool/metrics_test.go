package pool

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatsCollector(t *testing.T) {
	p1, _ := newMockPool(t, "primary")
	p2, _ := newMockPool(t, "replica")
	m := NewManager(p1, p2)

	registry := prometheus.NewPedanticRegistry()
	require.NoError(t, registry.Register(NewStatsCollector("zorm", m)))

	families, err := registry.Gather()
	require.NoError(t, err)

	names := make(map[string]int)
	for _, family := range families {
		names[family.GetName()] = len(family.GetMetric())
	}
	// 每个指标按连接池打标
	assert.Equal(t, 2, names["zorm_db_open_connections"])
	assert.Equal(t, 2, names["zorm_db_idle_connections"])
	assert.Equal(t, 2, names["zorm_db_in_use_connections"])
	assert.Equal(t, 2, names["zorm_db_wait_count_total"])
	assert.Equal(t, 2, names["zorm_db_wait_duration_seconds_total"])
	assert.Equal(t, 2, names["zorm_db_available"])
}
