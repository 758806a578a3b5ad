package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "voicetyper"

// Исходы обработки фразы.
const (
	OutcomeDelivered = "delivered"
	OutcomeNoise     = "noise"
	OutcomeEmpty     = "empty"
	OutcomeDiscarded = "discarded"
)

// Metrics - инструменты OpenTelemetry конвейера распознавания.
// Все методы безопасны для nil получателя.
type Metrics struct {
	RecognitionDuration metric.Float64Histogram
	Utterances          metric.Int64Counter
	Flushes             metric.Int64Counter
	CloudFallbacks      metric.Int64Counter
	Listening           metric.Int64UpDownCounter
}

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16}

// NewMetrics создаёт инструменты через переданный MeterProvider.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	met := &Metrics{}
	var err error

	if met.RecognitionDuration, err = m.Float64Histogram("voicetyper.recognition.duration",
		metric.WithDescription("Длительность распознавания одной фразы."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.Utterances, err = m.Int64Counter("voicetyper.utterances",
		metric.WithDescription("Фразы по исходу обработки."),
	); err != nil {
		return nil, err
	}
	if met.Flushes, err = m.Int64Counter("voicetyper.flushes",
		metric.WithDescription("Завершённые фразы по причине завершения."),
	); err != nil {
		return nil, err
	}
	if met.CloudFallbacks, err = m.Int64Counter("voicetyper.cloud.fallbacks",
		metric.WithDescription("Повторные распознавания через облако."),
	); err != nil {
		return nil, err
	}
	if met.Listening, err = m.Int64UpDownCounter("voicetyper.listening",
		metric.WithDescription("Активные сессии прослушивания."),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics возвращает метрики глобального MeterProvider.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: не удалось создать метрики: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordRecognition фиксирует длительность распознавания.
func (m *Metrics) RecordRecognition(ctx context.Context, backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.RecognitionDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("backend", backend)))
}

// RecordUtterance фиксирует исход обработки фразы.
func (m *Metrics) RecordUtterance(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.Utterances.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordFlush фиксирует завершение фразы.
func (m *Metrics) RecordFlush(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.Flushes.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordFallback фиксирует обращение к облаку после пустого результата.
func (m *Metrics) RecordFallback(ctx context.Context) {
	if m == nil {
		return
	}
	m.CloudFallbacks.Add(ctx, 1)
}

// ListeningDelta меняет число активных сессий.
func (m *Metrics) ListeningDelta(ctx context.Context, delta int64) {
	if m == nil {
		return
	}
	m.Listening.Add(ctx, delta)
}
