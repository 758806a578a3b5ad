//go:build vosk

package speech

import (
	"fmt"
	"os"

	vosk "github.com/alphacep/vosk-api/go"
	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
)

const voskCompiled = true

// openVosk загружает модель Vosk из директории.
func openVosk(modelPath string) (Recognizer, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("модель Vosk не найдена: %s", modelPath)
	}

	model, err := vosk.NewModel(modelPath)
	if err != nil {
		return nil, fmt.Errorf("ошибка загрузки модели Vosk: %w", err)
	}

	rec, err := vosk.NewRecognizer(model, float64(audio.SampleRate))
	if err != nil {
		model.Free()
		return nil, err
	}
	rec.SetWords(1)

	log.Info().Str("model", modelPath).Msg("Модель Vosk загружена")
	return newStreaming("vosk", rec, func() {
		rec.Free()
		model.Free()
	}), nil
}
