package models

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Progress информация о прогрессе загрузки.
type Progress struct {
	ModelID    string
	Downloaded int64
	Total      int64
	Done       bool
	Error      error
}

// Manager управляет моделями.
type Manager struct {
	modelsDir string
	client    *http.Client
	mu        sync.RWMutex
}

// NewManager создаёт менеджер моделей.
// Пустой dir - директория models/ рядом с бинарником.
func NewManager(dir string) (*Manager, error) {
	if dir == "" {
		execPath, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("не удалось определить путь к бинарнику: %w", err)
		}
		execPath, err = filepath.EvalSymlinks(execPath)
		if err != nil {
			return nil, fmt.Errorf("не удалось разрешить симлинки: %w", err)
		}
		dir = filepath.Join(filepath.Dir(execPath), "models")
	}

	// Создаём директории для моделей
	for _, engine := range []Engine{EngineWhisper, EngineVosk} {
		if err := os.MkdirAll(filepath.Join(dir, string(engine)), 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать директорию %s: %w", engine, err)
		}
	}

	return &Manager{modelsDir: dir, client: http.DefaultClient}, nil
}

// ModelsDir возвращает путь к директории моделей.
func (m *Manager) ModelsDir() string {
	return m.modelsDir
}

// GetModelPath возвращает полный путь к модели.
func (m *Manager) GetModelPath(info ModelInfo) string {
	return filepath.Join(m.modelsDir, string(info.Engine), info.Filename)
}

// IsDownloaded проверяет, скачана ли модель.
func (m *Manager) IsDownloaded(info ModelInfo) bool {
	stat, err := os.Stat(m.GetModelPath(info))
	if err != nil {
		return false
	}

	// Для Vosk проверяем что это директория
	if info.IsZip {
		return stat.IsDir()
	}

	// Для Whisper проверяем что файл не пустой
	return stat.Mode().IsRegular() && stat.Size() > 0
}

// ListDownloaded возвращает список скачанных моделей.
func (m *Manager) ListDownloaded() []ModelInfo {
	var downloaded []ModelInfo
	for _, model := range Registry {
		if m.IsDownloaded(model) {
			downloaded = append(downloaded, model)
		}
	}
	return downloaded
}

// ModelPath возвращает путь к скачанной модели для языка.
// modelID из настроек имеет приоритет; затем модели движка prefer;
// пустой prefer - сначала Vosk, потом Whisper. false - модели нет.
func (m *Manager) ModelPath(lang string, prefer Engine, modelID string) (string, bool) {
	if modelID != "" {
		if info, ok := GetModel(modelID); ok && m.IsDownloaded(info) &&
			(info.Language == "" || strings.EqualFold(info.Language, lang)) {
			return m.GetModelPath(info), true
		}
		log.Debug().Str("model", modelID).Str("lang", lang).Msg("Выбранная модель не подходит или не скачана")
	}

	engines := []Engine{EngineVosk, EngineWhisper}
	if prefer != "" {
		engines = []Engine{prefer}
	}
	for _, engine := range engines {
		for _, info := range ForLanguage(lang, engine) {
			if m.IsDownloaded(info) {
				return m.GetModelPath(info), true
			}
		}
	}
	return "", false
}

// Download скачивает модель.
// progress канал получает обновления о прогрессе (можно nil).
func (m *Manager) Download(ctx context.Context, info ModelInfo, progress chan<- Progress) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.IsDownloaded(info) {
		sendDone(progress, info)
		return nil
	}

	log.Info().Str("model", info.ID).Str("url", info.URL).Msg("Скачивание модели")

	destPath := m.GetModelPath(info)
	tmpPath := destPath + ".tmp"
	defer os.Remove(tmpPath)

	if err := m.fetch(ctx, info, tmpPath, progress); err != nil {
		return err
	}

	if info.IsZip {
		// Архив Vosk содержит директорию с именем модели
		if err := unzip(tmpPath, filepath.Dir(destPath)); err != nil {
			return fmt.Errorf("ошибка распаковки: %w", err)
		}
		if !m.IsDownloaded(info) {
			return fmt.Errorf("в архиве нет директории %s", info.Filename)
		}
	} else if err := os.Rename(tmpPath, destPath); err != nil {
		return err
	}

	sendDone(progress, info)
	log.Info().Str("model", info.ID).Msg("Модель скачана")
	return nil
}

// fetch скачивает URL модели во временный файл.
func (m *Manager) fetch(ctx context.Context, info ModelInfo, path string, progress chan<- Progress) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.URL, nil)
	if err != nil {
		return err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("ошибка скачивания: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP ошибка: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = info.Size
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	pw := &progressWriter{id: info.ID, total: total, ch: progress}
	_, err = io.Copy(io.MultiWriter(file, pw), resp.Body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return err
	}
	return nil
}

type progressWriter struct {
	id         string
	downloaded int64
	total      int64
	ch         chan<- Progress
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.downloaded += int64(len(b))
	if p.ch != nil {
		select {
		case p.ch <- Progress{ModelID: p.id, Downloaded: p.downloaded, Total: p.total}:
		default:
		}
	}
	return len(b), nil
}

func sendDone(progress chan<- Progress, info ModelInfo) {
	if progress != nil {
		progress <- Progress{ModelID: info.ID, Downloaded: info.Size, Total: info.Size, Done: true}
	}
}

func unzip(src, destDir string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	root := filepath.Clean(destDir) + string(os.PathSeparator)
	for _, f := range r.File {
		fpath := filepath.Join(destDir, f.Name)
		if !strings.HasPrefix(fpath, root) {
			return fmt.Errorf("недопустимый путь в архиве: %s", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0o755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0o755); err != nil {
			return err
		}
		if err := extractFile(f, fpath); err != nil {
			return err
		}
	}

	return nil
}

func extractFile(f *zip.File, path string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode().Perm()|0o600)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	return errors.Join(err, out.Close())
}

// Delete удаляет модель.
func (m *Manager) Delete(info ModelInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return os.RemoveAll(m.GetModelPath(info))
}
