package speech

import (
	"context"
	"errors"
	"sync"

	"voicetyper/internal/audio"
)

// fileTranscriber распознаёт WAV файл за один вызов.
type fileTranscriber interface {
	TranscribeFile(ctx context.Context, path string) (string, error)
	Name() string
	Close() error
}

// File сохраняет фразу во временный WAV и распознаёт его целиком.
// Временный файл удаляется при любом исходе.
type File struct {
	mu   sync.Mutex
	tr   fileTranscriber
	name string
	dir  string
}

func newFile(tr fileTranscriber, tempDir string) *File {
	return &File{tr: tr, name: tr.Name(), dir: tempDir}
}

// Name возвращает название движка.
func (f *File) Name() string {
	return f.name
}

// Recognize распознаёт фразу через временный файл.
func (f *File) Recognize(ctx context.Context, u audio.Utterance) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tr == nil {
		return "", errors.New("распознаватель закрыт")
	}

	path, cleanup, err := audio.WriteTempWAV(f.dir, u)
	if err != nil {
		return "", err
	}
	defer cleanup()

	return f.tr.TranscribeFile(ctx, path)
}

// Close освобождает ресурсы.
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.tr == nil {
		return nil
	}
	err := f.tr.Close()
	f.tr = nil
	return err
}

// openWhisper выбирает встроенный whisper.cpp или внешний whisper-cli.
func openWhisper(caps Capabilities, modelPath, lang, tempDir string) (Recognizer, error) {
	if caps.WhisperLib {
		tr, err := openWhisperLib(modelPath, lang)
		if err == nil {
			return newFile(tr, tempDir), nil
		}
		if caps.WhisperCLI == "" {
			return nil, err
		}
	}
	if caps.WhisperCLI == "" {
		return nil, errors.New("whisper недоступен")
	}
	return newFile(newWhisperCLI(caps.WhisperCLI, modelPath, lang), tempDir), nil
}
