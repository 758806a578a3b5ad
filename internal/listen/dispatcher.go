package listen

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/observe"
	"voicetyper/internal/speech"
)

// DefaultRecognitionTimeout ограничивает одно распознавание.
const DefaultRecognitionTimeout = 60 * time.Second

const minWait = 10 * time.Millisecond

// Dispatcher распознаёт фразы вне цикла захвата.
// Одновременно выполняется не больше одной задачи: слот занимается в Dispatch
// и освобождается после доставки результата.
type Dispatcher struct {
	slot    chan struct{}
	wg      sync.WaitGroup
	filter  atomic.Pointer[NoiseFilter]
	timeout time.Duration
	metrics *observe.Metrics
}

// NewDispatcher создаёт диспетчер.
func NewDispatcher(filter *NoiseFilter, timeout time.Duration, m *observe.Metrics) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultRecognitionTimeout
	}
	d := &Dispatcher{
		slot:    make(chan struct{}, 1),
		timeout: timeout,
		metrics: m,
	}
	d.filter.Store(filter)
	return d
}

// SetFilter заменяет фильтр шума для следующих задач.
func (d *Dispatcher) SetFilter(f *NoiseFilter) {
	d.filter.Store(f)
}

// Busy сообщает, выполняется ли распознавание.
func (d *Dispatcher) Busy() bool {
	return len(d.slot) == 1
}

// Dispatch запускает распознавание фразы в отдельной горутине.
// deliver вызывается из этой горутины только для непустого текста, прошедшего фильтр.
// Возвращает false, если слот занят; фраза при этом не принимается.
func (d *Dispatcher) Dispatch(ctx context.Context, u audio.Utterance, rec speech.Recognizer, deliver func(string)) bool {
	select {
	case d.slot <- struct{}{}:
	default:
		return false
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() { <-d.slot }()
		d.run(ctx, u, rec, deliver)
	}()
	return true
}

func (d *Dispatcher) run(ctx context.Context, u audio.Utterance, rec speech.Recognizer, deliver func(string)) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	text, err := recognize(ctx, rec, u)
	elapsed := time.Since(start)
	d.metrics.RecordRecognition(ctx, rec.Name(), elapsed)

	logger := log.With().Str("utterance", u.ID).Str("engine", rec.Name()).Logger()
	if err != nil {
		logger.Warn().Err(err).Msg("Ошибка распознавания")
		text = ""
	}

	text = strings.TrimSpace(text)
	switch {
	case text == "":
		logger.Debug().Dur("elapsed", elapsed).Msg("Речь не распознана")
		d.metrics.RecordUtterance(ctx, observe.OutcomeEmpty)
	case d.filter.Load().IsNoise(text):
		logger.Debug().Str("text", text).Msg("Отброшен шум")
		d.metrics.RecordUtterance(ctx, observe.OutcomeNoise)
	default:
		logger.Info().Str("text", text).Dur("elapsed", elapsed).Msg("Распознано")
		d.metrics.RecordUtterance(ctx, observe.OutcomeDelivered)
		deliver(text)
	}
}

// recognize превращает панику движка в ошибку, чтобы цикл прослушивания выжил.
func recognize(ctx context.Context, rec speech.Recognizer, u audio.Utterance) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("паника в движке %s: %v", rec.Name(), r)
		}
	}()
	return rec.Recognize(ctx, u)
}

// Wait ждёт завершения задачи не дольше timeout. Возвращает false по таймауту.
func (d *Dispatcher) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	t := time.NewTimer(max(timeout, minWait))
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
