package speech

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/observe"
	"voicetyper/internal/resilience"
)

// Factory создаёт распознаватели по настройкам с учётом доступных движков.
type Factory struct {
	caps    Capabilities
	cloud   CloudConfig
	tempDir string
	metrics *observe.Metrics
	breaker *resilience.Breaker

	openStreaming func(modelPath string) (Recognizer, error)
	openFile      func(modelPath, lang string) (Recognizer, error)
	openCloud     func(lang string) (Recognizer, error)
}

// NewFactory создаёт фабрику распознавателей.
func NewFactory(caps Capabilities, cloud CloudConfig, tempDir string, m *observe.Metrics) *Factory {
	f := &Factory{
		caps:    caps,
		cloud:   cloud,
		tempDir: tempDir,
		metrics: m,
		breaker: resilience.New(resilience.Config{Name: "cloud-" + cloud.provider()}),
	}
	f.openStreaming = openVosk
	f.openFile = func(modelPath, lang string) (Recognizer, error) {
		return openWhisper(f.caps, modelPath, lang, f.tempDir)
	}
	f.openCloud = func(lang string) (Recognizer, error) {
		return openCloud(f.cloud, lang, f.breaker)
	}
	return f
}

// Capabilities возвращает результат проверки движков.
func (f *Factory) Capabilities() Capabilities {
	return f.caps
}

// Build создаёт распознаватель. Сначала пробуется предпочтительный вариант,
// затем офлайн потоковый, затем файловый, облако - только если разрешено.
func (f *Factory) Build(cfg EngineConfig) (Recognizer, error) {
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var errs []error
	for _, kind := range f.order(cfg) {
		if !f.caps.Has(kind) {
			errs = append(errs, fmt.Errorf("%s: нет в этой сборке", kind))
			continue
		}
		rec, err := f.open(kind, cfg)
		if err != nil {
			log.Warn().Err(err).Str("kind", string(kind)).Msg("Движок недоступен")
			errs = append(errs, fmt.Errorf("%s: %w", kind, err))
			continue
		}

		log.Info().Str("engine", rec.Name()).Str("lang", cfg.Language).Msg("Распознаватель создан")
		if kind != KindCloud && cfg.FallbackToCloud && f.caps.Has(KindCloud) {
			cloud, err := f.openCloud(cfg.Language)
			if err != nil {
				log.Warn().Err(err).Msg("Облачный резерв недоступен")
				return rec, nil
			}
			return NewFallback(rec, cloud, f.metrics), nil
		}
		return rec, nil
	}

	if len(errs) == 0 {
		return nil, ErrEngineUnavailable
	}
	return nil, fmt.Errorf("%w: %w", ErrEngineUnavailable, errors.Join(errs...))
}

func (f *Factory) order(cfg EngineConfig) []Kind {
	var out []Kind
	if cfg.Kind != "" {
		out = append(out, cfg.Kind)
	}
	for _, k := range []Kind{KindStreaming, KindFile} {
		if !slices.Contains(out, k) {
			out = append(out, k)
		}
	}
	if !cfg.OfflineOnly && cfg.FallbackToCloud && !slices.Contains(out, KindCloud) {
		out = append(out, KindCloud)
	}
	return out
}

func (f *Factory) open(kind Kind, cfg EngineConfig) (Recognizer, error) {
	switch kind {
	case KindStreaming:
		if err := checkModel(cfg.ModelPath, true); err != nil {
			return nil, err
		}
		return f.openStreaming(cfg.ModelPath)
	case KindFile:
		if err := checkModel(cfg.ModelPath, false); err != nil {
			return nil, err
		}
		return f.openFile(cfg.ModelPath, cfg.Language)
	case KindCloud:
		return f.openCloud(cfg.Language)
	default:
		return nil, fmt.Errorf("неизвестный движок %q", kind)
	}
}

// checkModel проверяет путь к модели: директория для Vosk, файл для Whisper.
func checkModel(path string, dir bool) error {
	if path == "" {
		return errors.New("модель не задана")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("модель не найдена: %w", err)
	}
	if dir && !info.IsDir() {
		return fmt.Errorf("модель %s должна быть директорией", path)
	}
	if !dir && !info.Mode().IsRegular() {
		return fmt.Errorf("модель %s должна быть файлом", path)
	}
	return nil
}
