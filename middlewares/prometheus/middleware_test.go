package prometheus

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hatlonely/zorm/executor"
)

func TestMiddleware(t *testing.T) {
	mdl := MiddlewareBuilder{
		Namespace: "zorm_test",
		Subsystem: "orm",
		Name:      "exec_duration",
		Help:      "statement execution duration in milliseconds",
	}.Build()

	handler := mdl(func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
		return &executor.ExecResult{Affected: 1}
	})
	res := handler(context.Background(), &executor.ExecContext{Type: "UPDATE", Table: "user"})
	assert.Equal(t, int64(1), res.Affected)

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var found bool
	for _, family := range families {
		if family.GetName() != "zorm_test_orm_exec_duration" {
			continue
		}
		found = true
		require.Len(t, family.GetMetric(), 1)
		assert.Equal(t, uint64(1), family.GetMetric()[0].GetSummary().GetSampleCount())
	}
	assert.True(t, found)
}
