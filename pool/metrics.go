package pool

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsCollector 导出每个连接池的 sql.DBStats 指标
type StatsCollector struct {
	manager *Manager

	openConns    *prometheus.Desc
	inUseConns   *prometheus.Desc
	idleConns    *prometheus.Desc
	waitCount    *prometheus.Desc
	waitDuration *prometheus.Desc
	available    *prometheus.Desc
}

// NewStatsCollector 创建指标采集器，注册到 prometheus 后生效
func NewStatsCollector(namespace string, manager *Manager) *StatsCollector {
	labels := []string{"pool", "dialect"}
	return &StatsCollector{
		manager: manager,
		openConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "open_connections"),
			"The number of established connections both in use and idle.", labels, nil),
		inUseConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "in_use_connections"),
			"The number of connections currently in use.", labels, nil),
		idleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "idle_connections"),
			"The number of idle connections.", labels, nil),
		waitCount: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "wait_count_total"),
			"The total number of connections waited for.", labels, nil),
		waitDuration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "wait_duration_seconds_total"),
			"The total time blocked waiting for a new connection.", labels, nil),
		available: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db", "available"),
			"Whether the pool passed its last availability check.", labels, nil),
	}
}

// Describe 实现 prometheus.Collector
func (c *StatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openConns
	ch <- c.inUseConns
	ch <- c.idleConns
	ch <- c.waitCount
	ch <- c.waitDuration
	ch <- c.available
}

// Collect 实现 prometheus.Collector
func (c *StatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, p := range c.manager.Pools() {
		stats := p.Stats()
		labels := []string{p.Name(), string(p.Dialect())}
		ch <- prometheus.MustNewConstMetric(c.openConns, prometheus.GaugeValue, float64(stats.OpenConnections), labels...)
		ch <- prometheus.MustNewConstMetric(c.inUseConns, prometheus.GaugeValue, float64(stats.InUse), labels...)
		ch <- prometheus.MustNewConstMetric(c.idleConns, prometheus.GaugeValue, float64(stats.Idle), labels...)
		ch <- prometheus.MustNewConstMetric(c.waitCount, prometheus.CounterValue, float64(stats.WaitCount), labels...)
		ch <- prometheus.MustNewConstMetric(c.waitDuration, prometheus.CounterValue, stats.WaitDuration.Seconds(), labels...)
		availability := 0.0
		if p.IsAvailable() {
			availability = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.available, prometheus.GaugeValue, availability, labels...)
	}
}
