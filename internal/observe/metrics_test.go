package observe

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	require.NoError(t, err)
	return m, reader
}

func findMetric(t *testing.T, reader *sdkmetric.ManualReader, name string) *metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestRecordUtterance(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordUtterance(ctx, OutcomeDelivered)
	m.RecordUtterance(ctx, OutcomeDelivered)
	m.RecordUtterance(ctx, OutcomeNoise)

	got := findMetric(t, reader, "voicetyper.utterances")
	require.NotNil(t, got)
	sum, ok := got.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byOutcome := map[string]int64{}
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		byOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, int64(2), byOutcome[OutcomeDelivered])
	assert.Equal(t, int64(1), byOutcome[OutcomeNoise])
}

func TestRecordRecognition(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordRecognition(context.Background(), "vosk", 300*time.Millisecond)

	got := findMetric(t, reader, "voicetyper.recognition.duration")
	require.NotNil(t, got)
	hist, ok := got.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
	assert.InDelta(t, 0.3, hist.DataPoints[0].Sum, 1e-9)
}

func TestListeningGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.ListeningDelta(ctx, 1)
	m.ListeningDelta(ctx, 1)
	m.ListeningDelta(ctx, -1)

	got := findMetric(t, reader, "voicetyper.listening")
	require.NotNil(t, got)
	sum := got.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

func TestNilMetricsAreNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordUtterance(ctx, OutcomeEmpty)
		m.RecordRecognition(ctx, "x", time.Second)
		m.RecordFlush(ctx, "silence")
		m.RecordFallback(ctx)
		m.ListeningDelta(ctx, 1)
	})
}

func TestSetupLoggerLevel(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })

	var buf bytes.Buffer
	SetupLoggerTo(&buf, "warn", false)
	assert.Equal(t, zerolog.WarnLevel, log.Logger.GetLevel())

	log.Info().Msg("hidden")
	log.Warn().Str("k", "v").Msg("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"k":"v"`)

	SetupLoggerTo(&buf, "nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, log.Logger.GetLevel())
}
