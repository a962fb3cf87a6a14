package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbiostore/mbio/telemetry"
)

func newTestMetrics(t *testing.T) *telemetry.Metrics {
	t.Helper()
	return telemetry.NewMetrics(prometheus.NewRegistry())
}

// TestMetrics_RecordEncode verifies sequence and failure counters.
func TestMetrics_RecordEncode(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordEncode("Fountain", "Natural", 12, 2, time.Millisecond)
	m.RecordEncode("Fountain", "Natural", 3, 0, time.Millisecond)

	assert.Equal(t, 15.0, testutil.ToFloat64(m.SequencesEncoded.WithLabelValues("Fountain", "Natural")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.UnitFailures.WithLabelValues("Fountain", telemetry.OpEncode)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

// TestMetrics_RecordDecode verifies outcome counters and the recovery histogram.
func TestMetrics_RecordDecode(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordDecode("Trellis", telemetry.OutcomeVerified, 0, 1, time.Millisecond)
	m.RecordDecode("Trellis", telemetry.OutcomePartial, 3, 0.5, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("Trellis", telemetry.OutcomeVerified)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Decodes.WithLabelValues("Trellis", telemetry.OutcomePartial)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.UnitFailures.WithLabelValues("Trellis", telemetry.OpDecode)))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RecoveryRate))
}

// TestMetrics_RecordStage verifies channel event counters per stage.
func TestMetrics_RecordStage(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordStage("sequencing", 4, 1, 2, 1)
	m.RecordSimulate(time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.ChannelEvents.WithLabelValues("sequencing", "substitution")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelEvents.WithLabelValues("sequencing", "insertion")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ChannelEvents.WithLabelValues("sequencing", "deletion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChannelEvents.WithLabelValues("sequencing", "dropout")))
	assert.Equal(t, 4, testutil.CollectAndCount(m.ChannelEvents))
}

// TestMetrics_Nil verifies a nil metric set is a no-op.
func TestMetrics_Nil(t *testing.T) {
	var m *telemetry.Metrics
	assert.NotPanics(t, func() {
		m.RecordEncode("k", "f", 1, 1, 0)
		m.RecordDecode("k", telemetry.OutcomeFailed, 1, 0, 0)
		m.RecordStage("s", 1, 1, 1, 1)
		m.RecordSimulate(0)
	})
}

// TestMetrics_Default verifies the global set is registered once.
func TestMetrics_Default(t *testing.T) {
	a := telemetry.Default()
	require.NotNil(t, a)
	assert.Same(t, a, telemetry.Default())
}

// TestSpan_EndWithError verifies spans close with and without an error on
// the no-op provider.
func TestSpan_EndWithError(t *testing.T) {
	_, span := telemetry.StartSpan(context.Background(), "decode")
	assert.NotPanics(t, func() { telemetry.EndSpan(span, errors.New("boom")) })
	_, span = telemetry.StartSpan(context.Background(), "encode")
	assert.NotPanics(t, func() { telemetry.EndSpan(span, nil) })
}
