package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/carttrack/internal/metrics"
)

type ping struct{}

func unary(err error) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if err != nil {
			return nil, err
		}
		return connect.NewResponse(&ping{}), nil
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestLoggingInterceptor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel string
		wantMsg   string
	}{
		{"success", nil, `"level":"INFO"`, `"msg":"RPC ok"`},
		{"client error", connect.NewError(connect.CodeInvalidArgument, errors.New("bad price")), `"level":"WARN"`, `"msg":"RPC error"`},
		{"not found", connect.NewError(connect.CodeNotFound, errors.New("no session")), `"level":"WARN"`, `"msg":"RPC error"`},
		{"internal", connect.NewError(connect.CodeInternal, errors.New("disk full")), `"level":"ERROR"`, `"msg":"RPC error"`},
		{"plain error", errors.New("boom"), `"level":"ERROR"`, `"msg":"RPC error"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLogs(t)

			_, err := LoggingInterceptor()(unary(tt.err))(context.Background(), connect.NewRequest(&ping{}))
			assert.Equal(t, tt.err, err)

			out := buf.String()
			assert.Contains(t, out, tt.wantLevel)
			assert.Contains(t, out, tt.wantMsg)
			assert.Contains(t, out, `"duration_ms"`)
		})
	}
}

func TestMetricsInterceptor(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	interceptor := MetricsInterceptor(m)

	_, err := interceptor(unary(nil))(context.Background(), connect.NewRequest(&ping{}))
	require.NoError(t, err)

	notFound := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	_, err = interceptor(unary(notFound))(context.Background(), connect.NewRequest(&ping{}))
	assert.Equal(t, notFound, err)

	count, err := testutil.GatherAndCount(reg, "carttrack_rpc_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetricsInterceptorNilMetrics(t *testing.T) {
	_, err := MetricsInterceptor(nil)(unary(nil))(context.Background(), connect.NewRequest(&ping{}))
	assert.NoError(t, err)
}
