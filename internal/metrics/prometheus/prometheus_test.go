package prometheus

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daoTracker/internal/metrics"
)

func TestSinkLabels(t *testing.T) {
	sink, err := NewSink(metrics.DefaultTypes, nil)
	require.NoError(t, err)

	t.Run("declared labels are accepted", func(t *testing.T) {
		err := sink.Gauge(metrics.GaugeTreasuryBalance, 12.5, []metrics.Label{
			{Name: "treasury", Value: "Primary Treasury"},
			{Name: "coin", Value: "USDC"},
		})
		assert.NoError(t, err)
	})
	t.Run("missing labels are rejected", func(t *testing.T) {
		err := sink.Gauge(metrics.GaugeTreasuryBalance, 1, []metrics.Label{{Name: "coin", Value: "USDC"}})
		assert.Error(t, err)
	})
	t.Run("unexpected labels are rejected", func(t *testing.T) {
		err := sink.Incr(metrics.IncrEventsDecoded, []metrics.Label{{Name: "kind", Value: "Staked"}, {Name: "extra", Value: "x"}}, 1)
		assert.Error(t, err)
	})
	t.Run("unknown metric is ignored", func(t *testing.T) {
		assert.NoError(t, sink.Incr("nope", nil, 1))
	})
	t.Run("timing without labels", func(t *testing.T) {
		assert.NoError(t, sink.Timing(metrics.TimingBatchFetch, 150*time.Millisecond, nil))
	})
}

func TestSinkHandlerExportsOwnRegistry(t *testing.T) {
	first, err := NewSink(metrics.DefaultTypes, nil)
	require.NoError(t, err)
	second, err := NewSink(metrics.DefaultTypes, nil)
	require.NoError(t, err)

	require.NoError(t, first.Gauge(metrics.GaugeLastBlock, 42, nil))
	require.NoError(t, first.Incr(metrics.IncrEventsDecoded, []metrics.Label{{Name: "kind", Value: "Staked"}}, 3))
	require.NoError(t, second.Gauge(metrics.GaugeLastBlock, 1, nil))

	rec := httptest.NewRecorder()
	first.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "last_block 42")
	assert.Contains(t, string(body), `events_decoded{kind="Staked"} 3`)
}
