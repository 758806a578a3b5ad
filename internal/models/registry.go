// Package models управляет моделями распознавания речи.
package models

import "strings"

// Engine тип движка распознавания.
type Engine string

const (
	EngineWhisper Engine = "whisper"
	EngineVosk    Engine = "vosk"
)

// ModelInfo информация о модели.
type ModelInfo struct {
	ID       string // Уникальный идентификатор: "vosk-ar"
	Engine   Engine // Движок: whisper или vosk
	Language string // Код языка; пусто - многоязычная модель
	Name     string // Отображаемое имя
	Filename string // Имя файла/директории: "ggml-tiny-q5_1.bin"
	URL      string // URL для скачивания
	Size     int64  // Размер в байтах (для прогресса)
	IsZip    bool   // Нужно ли распаковывать
}

const (
	mb          = 1024 * 1024
	voskBaseURL = "https://alphacephei.com/vosk/models/"
	ggmlBaseURL = "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/"
)

func vosk(lang, name, dir string, size int64) ModelInfo {
	return ModelInfo{
		ID:       "vosk-" + lang,
		Engine:   EngineVosk,
		Language: lang,
		Name:     name,
		Filename: dir,
		URL:      voskBaseURL + dir + ".zip",
		Size:     size * mb,
		IsZip:    true,
	}
}

func whisper(id, name, file string, size int64) ModelInfo {
	return ModelInfo{
		ID:       id,
		Engine:   EngineWhisper,
		Name:     name,
		Filename: file,
		URL:      ggmlBaseURL + file,
		Size:     size * mb,
	}
}

// Registry все доступные модели.
var Registry = []ModelInfo{
	// Whisper - многоязычные квантизированные модели
	whisper("whisper-tiny-q5", "Whisper Tiny Q5", "ggml-tiny-q5_1.bin", 32),
	whisper("whisper-base-q5", "Whisper Base Q5", "ggml-base-q5_1.bin", 60),
	whisper("whisper-small-q5", "Whisper Small Q5", "ggml-small-q5_1.bin", 190),
	whisper("whisper-turbo", "Whisper Large v3 Turbo", "ggml-large-v3-turbo-q5_0.bin", 574),

	// Vosk - по одной небольшой модели на язык
	vosk("ar", "Arabic (MGB2)", "vosk-model-ar-mgb2-0.4", 318),
	vosk("en", "English US Small", "vosk-model-small-en-us-0.15", 40),
	vosk("fr", "French Small", "vosk-model-small-fr-0.22", 41),
	vosk("de", "German Small", "vosk-model-small-de-0.15", 45),
	vosk("es", "Spanish Small", "vosk-model-small-es-0.42", 39),
	vosk("it", "Italian Small", "vosk-model-small-it-0.22", 48),
	vosk("pt", "Portuguese Small", "vosk-model-small-pt-0.3", 31),
	vosk("zh", "Chinese Small", "vosk-model-small-cn-0.22", 42),
	vosk("ja", "Japanese Small", "vosk-model-small-ja-0.22", 48),
	vosk("ko", "Korean Small", "vosk-model-small-ko-0.22", 82),
	vosk("ru", "Russian Small", "vosk-model-small-ru-0.22", 45),
	vosk("tr", "Turkish Small", "vosk-model-small-tr-0.3", 35),
	vosk("fa", "Persian Small", "vosk-model-small-fa-0.42", 53),
	vosk("hi", "Hindi Small", "vosk-model-small-hi-0.22", 42),
	vosk("nl", "Dutch Small", "vosk-model-small-nl-0.22", 39),
	vosk("pl", "Polish Small", "vosk-model-small-pl-0.22", 50),
	vosk("uk", "Ukrainian Small", "vosk-model-small-uk-v3-small", 133),
	vosk("vi", "Vietnamese Small", "vosk-model-small-vn-0.4", 32),
	vosk("ca", "Catalan Small", "vosk-model-small-ca-0.4", 42),
	vosk("cs", "Czech Small", "vosk-model-small-cs-0.4-rhasspy", 44),
	vosk("el", "Greek", "vosk-model-el-gr-0.7", 1100),
}

// DefaultModelID модель по умолчанию.
func DefaultModelID() string {
	return "whisper-tiny-q5"
}

// GetModel возвращает модель по ID.
func GetModel(id string) (ModelInfo, bool) {
	for _, m := range Registry {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// GetModelsByEngine возвращает модели для указанного движка.
func GetModelsByEngine(engine Engine) []ModelInfo {
	var result []ModelInfo
	for _, m := range Registry {
		if m.Engine == engine {
			result = append(result, m)
		}
	}
	return result
}

// ForLanguage возвращает модели движка, которые понимают язык.
// Многоязычные модели подходят для любого языка.
func ForLanguage(lang string, engine Engine) []ModelInfo {
	lang = strings.ToLower(lang)
	var result []ModelInfo
	for _, m := range GetModelsByEngine(engine) {
		if m.Language == "" || m.Language == lang {
			result = append(result, m)
		}
	}
	return result
}

// EngineName возвращает отображаемое имя движка.
func EngineName(e Engine) string {
	switch e {
	case EngineWhisper:
		return "Whisper"
	case EngineVosk:
		return "Vosk"
	default:
		return string(e)
	}
}
