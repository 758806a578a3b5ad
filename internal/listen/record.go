package listen

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/speech"
)

// ErrNothingRecorded - запись закончилась раньше первого кадра.
var ErrNothingRecorded = errors.New("ничего не записано")

// RecordOnce записывает одну фразу и распознаёт её целиком.
// Запись идёт, пока не отменён ctx или не истекла длительность limit.
// Шум по filter (nil - общий фильтр) превращается в пустую строку.
// Используется в режиме "нажми и говори".
func RecordOnce(ctx context.Context, src audio.Source, rec speech.Recognizer, filter *NoiseFilter, limit time.Duration) (string, error) {
	if err := src.Open(); err != nil {
		_ = src.Close()
		return "", err
	}

	var frames []audio.Frame
	var offset int64
	var recorded time.Duration

	for ctx.Err() == nil && (limit <= 0 || recorded < limit) {
		frame, err := src.Read(audio.FrameSamples)
		if err != nil {
			if errors.Is(err, audio.ErrClosed) {
				break
			}
			_ = src.Close()
			return "", err
		}
		frame.Offset = offset
		offset += int64(frame.Samples())
		recorded += frame.Duration()
		frames = append(frames, frame)
	}

	if err := src.Close(); err != nil {
		log.Warn().Err(err).Msg("Ошибка закрытия источника")
	}

	if len(frames) == 0 {
		return "", ErrNothingRecorded
	}

	u := audio.NewUtterance(frames)
	log.Debug().Dur("duration", u.Duration()).Msg("Запись завершена, распознаём")

	// ctx уже отменён отпусканием клавиши, распознаём без него
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultRecognitionTimeout)
	defer cancel()
	text, err := recognize(rctx, rec, u)
	if err != nil {
		return "", err
	}

	if filter == nil {
		filter = NewNoiseFilter("")
	}
	text = strings.TrimSpace(text)
	if text != "" && filter.IsNoise(text) {
		log.Debug().Str("text", text).Msg("Отброшен шум")
		return "", nil
	}
	return text, nil
}
