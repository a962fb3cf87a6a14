package telemetry

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mbio"

// Decode outcomes.
const (
	OutcomeVerified = "verified"
	OutcomePartial  = "partial"
	OutcomeFailed   = "failed"
)

// Operations.
const (
	OpEncode   = "encode"
	OpSimulate = "simulate"
	OpDecode   = "decode"
)

// Metrics is the engine's metric set.
type Metrics struct {
	// SequencesEncoded counts emitted sequences.
	// Labels: kind, family
	SequencesEncoded *prometheus.CounterVec

	// UnitFailures counts failed units.
	// Labels: kind, operation (encode, decode)
	UnitFailures *prometheus.CounterVec

	// Decodes counts decode calls.
	// Labels: kind, outcome (verified, partial, failed)
	Decodes *prometheus.CounterVec

	// RecoveryRate observes the recovery rate of every decode.
	// Labels: kind
	RecoveryRate *prometheus.HistogramVec

	// ChannelEvents counts simulated channel events.
	// Labels: stage, event (substitution, insertion, deletion, dropout)
	ChannelEvents *prometheus.CounterVec

	// Duration measures operation latency.
	// Labels: operation (encode, simulate, decode)
	Duration *prometheus.HistogramVec
}

// NewMetrics registers a fresh metric set on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		SequencesEncoded: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "encode",
			Name:      "sequences_total",
			Help:      "Sequences emitted by encoders",
		}, []string{"kind", "family"}),
		UnitFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unit_failures_total",
			Help:      "Units that failed to encode or decode",
		}, []string{"kind", "operation"}),
		Decodes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "total",
			Help:      "Decode calls by outcome",
		}, []string{"kind", "outcome"}),
		RecoveryRate: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "recovery_rate",
			Help:      "Fraction of payload bytes recovered",
			Buckets:   []float64{0, 0.1, 0.25, 0.5, 0.75, 0.9, 0.99, 1},
		}, []string{"kind"}),
		ChannelEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "channel",
			Name:      "events_total",
			Help:      "Simulated channel events by stage",
		}, []string{"stage", "event"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Engine operation latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"operation"}),
	}
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// Default returns the metric set registered on prometheus.DefaultRegisterer.
func Default() *Metrics {
	defaultOnce.Do(func() { defaultMetrics = NewMetrics(prometheus.DefaultRegisterer) })
	return defaultMetrics
}

// RecordEncode records one finished encode.
func (m *Metrics) RecordEncode(kind, family string, sequences, failures int, d time.Duration) {
	if m == nil {
		return
	}
	m.SequencesEncoded.WithLabelValues(kind, family).Add(float64(sequences))
	m.UnitFailures.WithLabelValues(kind, OpEncode).Add(float64(failures))
	m.Duration.WithLabelValues(OpEncode).Observe(d.Seconds())
}

// RecordDecode records one finished decode.
func (m *Metrics) RecordDecode(kind, outcome string, failures int, recovery float64, d time.Duration) {
	if m == nil {
		return
	}
	m.Decodes.WithLabelValues(kind, outcome).Inc()
	m.UnitFailures.WithLabelValues(kind, OpDecode).Add(float64(failures))
	m.RecoveryRate.WithLabelValues(kind).Observe(recovery)
	m.Duration.WithLabelValues(OpDecode).Observe(d.Seconds())
}

// RecordStage records the events of one simulated stage.
func (m *Metrics) RecordStage(stage string, substitutions, insertions, deletions, dropped int) {
	if m == nil {
		return
	}
	m.ChannelEvents.WithLabelValues(stage, "substitution").Add(float64(substitutions))
	m.ChannelEvents.WithLabelValues(stage, "insertion").Add(float64(insertions))
	m.ChannelEvents.WithLabelValues(stage, "deletion").Add(float64(deletions))
	m.ChannelEvents.WithLabelValues(stage, "dropout").Add(float64(dropped))
}

// RecordSimulate records the latency of one simulator run.
func (m *Metrics) RecordSimulate(d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(OpSimulate).Observe(d.Seconds())
}
