package listen

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"voicetyper/internal/audio"
	"voicetyper/internal/observe"
)

func testUtterance() audio.Utterance {
	return audio.NewUtterance(stamp(pattern(5)))
}

type scriptedRecognizer struct {
	text  string
	err   error
	panic bool
}

func (r scriptedRecognizer) Recognize(context.Context, audio.Utterance) (string, error) {
	if r.panic {
		panic("boom")
	}
	return r.text, r.err
}

func (r scriptedRecognizer) Name() string { return "scripted" }
func (r scriptedRecognizer) Close() error { return nil }

func TestDispatcherDelivery(t *testing.T) {
	tests := []struct {
		name    string
		rec     scriptedRecognizer
		deliver bool
	}{
		{"text", scriptedRecognizer{text: "  hello there "}, true},
		{"empty", scriptedRecognizer{text: ""}, false},
		{"noise", scriptedRecognizer{text: "um"}, false},
		{"error", scriptedRecognizer{text: "partial", err: errors.New("backend down")}, false},
		{"panic", scriptedRecognizer{panic: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDispatcher(NewNoiseFilter("en"), time.Second, nil)

			var got []string
			require.True(t, d.Dispatch(context.Background(), testUtterance(), tt.rec, func(s string) {
				got = append(got, s)
			}))
			require.True(t, d.Wait(time.Second))
			assert.False(t, d.Busy())

			if tt.deliver {
				assert.Equal(t, []string{"hello there"}, got)
			} else {
				assert.Empty(t, got)
			}
		})
	}
}

func TestDispatcherSingleSlot(t *testing.T) {
	rec := &countingRecognizer{text: "one", release: make(chan struct{}), started: make(chan struct{}, 1)}
	d := NewDispatcher(NewNoiseFilter("en"), time.Second, nil)

	delivered := make(chan string, 2)
	require.True(t, d.Dispatch(context.Background(), testUtterance(), rec, func(s string) { delivered <- s }))
	<-rec.started

	assert.True(t, d.Busy())
	assert.False(t, d.Dispatch(context.Background(), testUtterance(), rec, func(s string) { delivered <- s }))
	assert.False(t, d.Wait(20*time.Millisecond))

	close(rec.release)
	require.True(t, d.Wait(time.Second))
	assert.False(t, d.Busy())
	assert.Equal(t, int32(1), rec.calls.Load())
	assert.Equal(t, "one", <-delivered)
}

func TestDispatcherSetFilter(t *testing.T) {
	d := NewDispatcher(NewNoiseFilter("en"), time.Second, nil)
	d.SetFilter(NewNoiseFilter("ar"))

	var got string
	d.Dispatch(context.Background(), testUtterance(), scriptedRecognizer{text: "اه"}, func(s string) { got = s })
	require.True(t, d.Wait(time.Second))
	assert.Empty(t, got)
}

func TestDispatcherMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	m, err := observe.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	d := NewDispatcher(NewNoiseFilter("en"), time.Second, m)
	for _, text := range []string{"hello world", "um", ""} {
		d.Dispatch(context.Background(), testUtterance(), scriptedRecognizer{text: text}, func(string) {})
		require.True(t, d.Wait(time.Second))
	}

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	outcomes := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != "voicetyper.utterances" {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				v, _ := dp.Attributes.Value("outcome")
				outcomes[v.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, map[string]int64{"delivered": 1, "noise": 1, "empty": 1}, outcomes)
}
