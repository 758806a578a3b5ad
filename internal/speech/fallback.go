package speech

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/observe"
)

// Fallback повторяет пустой офлайн результат через облако, не более одного раза на фразу.
type Fallback struct {
	primary Recognizer
	cloud   Recognizer
	metrics *observe.Metrics
}

// NewFallback оборачивает офлайн распознаватель облачным.
func NewFallback(primary, cloud Recognizer, m *observe.Metrics) *Fallback {
	return &Fallback{primary: primary, cloud: cloud, metrics: m}
}

// Name возвращает название основного движка.
func (f *Fallback) Name() string {
	return f.primary.Name() + "+" + f.cloud.Name()
}

// Recognize распознаёт офлайн; при пустом результате один раз обращается к облаку.
func (f *Fallback) Recognize(ctx context.Context, u audio.Utterance) (string, error) {
	text, err := f.primary.Recognize(ctx, u)
	if err != nil {
		log.Warn().Err(err).Str("engine", f.primary.Name()).Msg("Ошибка офлайн распознавания")
	}
	if strings.TrimSpace(text) != "" {
		return text, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}

	f.metrics.RecordFallback(ctx)
	log.Debug().Str("utterance", u.ID).Str("cloud", f.cloud.Name()).Msg("Пустой результат, повтор через облако")
	return f.cloud.Recognize(ctx, u)
}

// Close закрывает оба распознавателя.
func (f *Fallback) Close() error {
	return errors.Join(f.primary.Close(), f.cloud.Close())
}
