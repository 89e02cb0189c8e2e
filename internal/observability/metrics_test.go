package observability

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RecordAndWriteTextfile(t *testing.T) {
	m := NewMetrics("test_ns")

	m.DrawsSimulated.WithLabelValues("societal").Inc()
	m.DrawsSimulated.WithLabelValues("societal").Inc()
	m.DBQueryErrors.WithLabelValues("postgres", "insert").Inc()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.DrawsSimulated.WithLabelValues("societal")))

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "test_ns_simulation_draws_total"))
	assert.True(t, strings.Contains(string(data), "test_ns_database_query_errors_total"))
}

func TestRecordDBQuery_CountsErrors(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("sqlite", "select"))

	RecordDBQuery("sqlite", "select", 0.01, nil)
	RecordDBQuery("sqlite", "select", 0.02, errors.New("boom"))

	after := testutil.ToFloat64(DefaultMetrics.DBQueryErrors.WithLabelValues("sqlite", "select"))
	assert.Equal(t, before+1, after)
}
