// Package speech предоставляет абстракцию для движков распознавания речи.
package speech

import (
	"context"
	"errors"
	"fmt"

	"voicetyper/internal/audio"
)

// Kind - вариант движка распознавания.
type Kind string

const (
	// KindStreaming - офлайн движок с потоковой подачей (Vosk).
	KindStreaming Kind = "offline-streaming"
	// KindFile - офлайн движок, распознающий WAV файл целиком (Whisper).
	KindFile Kind = "offline-file"
	// KindCloud - облачный API распознавания.
	KindCloud Kind = "cloud"
)

// ErrEngineUnavailable - ни один движок не удалось создать.
var ErrEngineUnavailable = errors.New("нет доступного движка распознавания")

// ErrInvalidEngineConfig - недопустимое сочетание настроек движка.
var ErrInvalidEngineConfig = errors.New("недопустимая конфигурация движка")

// Recognizer - интерфейс для движков распознавания речи.
type Recognizer interface {
	// Recognize распознаёт фразу. Пустая строка - речи нет.
	Recognize(ctx context.Context, u audio.Utterance) (string, error)

	// Name возвращает название движка (для логирования).
	Name() string

	// Close освобождает ресурсы движка.
	Close() error
}

// EngineConfig содержит настройки выбора движка.
type EngineConfig struct {
	// Kind - предпочтительный вариант; пусто - автоматический выбор.
	Kind Kind

	// Language - двухбуквенный код языка ("ar", "en", "auto").
	Language string

	// ModelPath - путь к офлайн модели: директория Vosk или файл Whisper.
	ModelPath string

	// FallbackToCloud - повторять пустой результат через облако.
	FallbackToCloud bool

	// OfflineOnly - запрет сети; отключает FallbackToCloud.
	OfflineOnly bool
}

// Normalize применяет правило offline-only.
func (c EngineConfig) Normalize() EngineConfig {
	if c.OfflineOnly {
		c.FallbackToCloud = false
	}
	return c
}

// Validate проверяет сочетание настроек.
func (c EngineConfig) Validate() error {
	switch c.Kind {
	case "", KindStreaming, KindFile, KindCloud:
	default:
		return fmt.Errorf("%w: неизвестный движок %q", ErrInvalidEngineConfig, c.Kind)
	}
	if c.OfflineOnly && c.Kind == KindCloud {
		return fmt.Errorf("%w: облачный движок в режиме offline-only", ErrInvalidEngineConfig)
	}
	return nil
}
