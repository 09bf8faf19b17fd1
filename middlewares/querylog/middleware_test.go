package querylog

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/hatlonely/zorm/executor"
)

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mdl := NewMiddlewareBuilder().Logger(logger).Build()

	ec := &executor.ExecContext{
		ID: "exec-1", Type: "SELECT", Table: "user", Pool: "primary",
		SQL: "SELECT * FROM `user` WHERE `id` = ?", Args: []any{int64(1)},
	}

	handler := mdl(func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
		return &executor.ExecResult{Records: []executor.Record{{"id": int64(1)}}}
	})
	res := handler(context.Background(), ec)
	assert.NoError(t, res.Err)
	assert.Contains(t, buf.String(), "execute statement")
	assert.Contains(t, buf.String(), "exec-1")
	assert.Contains(t, buf.String(), "SELECT * FROM")

	buf.Reset()
	handler = mdl(func(ctx context.Context, ec *executor.ExecContext) *executor.ExecResult {
		return &executor.ExecResult{Err: errors.New("connection refused")}
	})
	res = handler(context.Background(), ec)
	assert.Error(t, res.Err)
	assert.Contains(t, buf.String(), "statement failed")
	assert.Contains(t, buf.String(), "connection refused")
}
