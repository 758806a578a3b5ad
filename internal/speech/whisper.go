//go:build whisper_cpp

package speech

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	whisper "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
)

const whisperCompiled = true

// whisperLib распознаёт через встроенный whisper.cpp.
type whisperLib struct {
	mu    sync.Mutex
	model whisper.Model
	lang  string
}

func openWhisperLib(modelPath, lang string) (fileTranscriber, error) {
	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("model", modelPath).Msg("Модель Whisper загружена")
	return &whisperLib{model: model, lang: lang}, nil
}

func (w *whisperLib) Name() string { return "whisper" }

// TranscribeFile читает WAV и распознаёт его.
func (w *whisperLib) TranscribeFile(ctx context.Context, path string) (string, error) {
	samples, _, err := audio.ReadWAVFile(path)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model == nil {
		return "", errors.New("модель закрыта")
	}

	wctx, err := w.model.NewContext()
	if err != nil {
		return "", err
	}

	// Отключаем перевод - только транскрипция
	wctx.SetTranslate(false)

	if w.lang != "" {
		if err := wctx.SetLanguage(w.lang); err != nil {
			log.Warn().Err(err).Str("lang", w.lang).Msg("Whisper: язык не поддерживается, автоопределение")
		}
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", err
	}

	var result strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		result.WriteString(segment.Text)
	}
	return strings.TrimSpace(result.String()), nil
}

func (w *whisperLib) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.model != nil {
		err := w.model.Close()
		w.model = nil
		return err
	}
	return nil
}
