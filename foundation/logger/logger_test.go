package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/jcpaschoal/leasekeeper/foundation/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	traceIDFn := func(context.Context) string { return "trace-1" }

	log := logger.New(&buf, logger.LevelInfo, "LEASEKEEPER", traceIDFn)
	log.Info(context.Background(), "pass complete", "trigger", "daily", "tenants", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "pass complete", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "LEASEKEEPER", entry["service"])
	assert.Equal(t, "daily", entry["trigger"])
	assert.EqualValues(t, 2, entry["tenants"])
	assert.Equal(t, "trace-1", entry["trace_id"])
	assert.True(t, strings.HasPrefix(entry["file"].(string), "logger_test.go:"))
}

func Test_MinLevel(t *testing.T) {
	var buf bytes.Buffer

	log := logger.New(&buf, logger.LevelWarn, "LEASEKEEPER", nil)
	log.Debug(context.Background(), "hidden")
	log.Info(context.Background(), "hidden")
	assert.Zero(t, buf.Len())

	log.Warn(context.Background(), "shown")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.NotContains(t, buf.String(), "trace_id")
}

func Test_Events(t *testing.T) {
	var buf bytes.Buffer
	var got []logger.Record

	events := logger.Events{
		Error: func(ctx context.Context, r logger.Record) {
			got = append(got, r)
		},
	}

	log := logger.NewWithEvents(&buf, logger.LevelInfo, "LEASEKEEPER", nil, events)
	log.Info(context.Background(), "ignored")
	log.Error(context.Background(), "module failed", "module", "invoice_aging")

	require.Len(t, got, 1)
	assert.Equal(t, "module failed", got[0].Message)
	assert.Equal(t, logger.LevelError, got[0].Level)
	assert.Equal(t, "invoice_aging", got[0].Attributes["module"])
}
