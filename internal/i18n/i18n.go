// Package i18n provides internationalization support.
package i18n

import "sync"

// Language represents a UI language.
type Language string

const (
	RU Language = "ru"
	EN Language = "en"
)

var (
	mu      sync.RWMutex
	current = RU // Default language
)

// Translations for all supported languages.
var translations = map[Language]map[string]string{
	RU: {
		// App
		"app_name":    "Voicetyper",
		"app_tooltip": "Voicetyper - голосовой ввод",

		// Tray menu
		"tray_ready":              "Готов к работе",
		"tray_listening":          "Слушаю...",
		"tray_stopping":           "Остановка...",
		"tray_recording":          "Запись...",
		"tray_processing":         "Распознавание...",
		"tray_start":              "Начать прослушивание",
		"tray_start_hint":         "Непрерывный голосовой ввод",
		"tray_stop":               "Остановить прослушивание",
		"tray_stop_hint":          "Завершить голосовой ввод",
		"tray_language":           "Язык",
		"tray_lang_select":        "Выбор языка распознавания",
		"tray_engine":             "Движок",
		"tray_engine_hint":        "Способ распознавания речи",
		"engine_auto":             "Автовыбор",
		"engine_offline-streaming": "Офлайн потоковый (Vosk)",
		"engine_offline-file":     "Офлайн файловый (Whisper)",
		"engine_cloud":            "Облачный",
		"tray_llm":                "Коррекция текста (LLM)",
		"tray_llm_hint":           "Исправлять ошибки распознавания через Ollama",
		"tray_translate":          "Перевод",
		"tray_translate_hint":     "Переводить текст через LibreTranslate",
		"tray_notifications":      "Уведомления",
		"tray_notifications_hint": "Показывать уведомления",
		"tray_hotkey":             "Горячая клавиша...",
		"tray_hotkey_hint":        "Изменить горячую клавишу",
		"tray_ui_language":        "Язык интерфейса",
		"tray_quit":               "Выход",
		"tray_quit_hint":          "Закрыть приложение",

		// Notifications
		"notify_listening":       "Слушаю",
		"notify_listening_hint":  "Говорите, текст появится в активном окне",
		"notify_stopped":         "Прослушивание остановлено",
		"notify_recording":       "Запись...",
		"notify_recording_hint":  "Говорите в микрофон",
		"notify_processing":      "Распознаю...",
		"notify_processing_hint": "Пожалуйста, подождите",
		"notify_done":            "Готово",
		"notify_empty":           "Не удалось распознать",
		"notify_empty_hint":      "Попробуйте ещё раз",
		"notify_error":           "Ошибка",
		"notify_ready":           "Voicetyper готов к работе",

		// Overlay
		"overlay_title":     "Voicetyper",
		"overlay_idle":      "Ожидание",
		"overlay_listening": "Слушаю",
		"overlay_stopping":  "Остановка",
		"overlay_last":      "Последний текст:",

		// Dialogs
		"dialog_hotkey_modifiers":       "Выберите модификаторы:",
		"dialog_hotkey_modifiers_title": "Горячая клавиша - модификаторы",
		"dialog_hotkey_key":             "Выберите клавишу:",
		"dialog_hotkey_key_title":       "Горячая клавиша - клавиша",
		"dialog_hotkey_no_modifiers":    "Необходимо выбрать хотя бы один модификатор",

		// Errors
		"error_model_not_downloaded":   "Модель для языка не скачана. Выполните: voicetyper models download",
		"error_engine_unavailable":     "Нет доступного движка распознавания",
		"error_recognition":            "Ошибка распознавания",
		"error_input":                  "Ошибка ввода",
		"error_hotkey_register":        "Не удалось зарегистрировать горячую клавишу",
		"error_listening_fault":        "Прослушивание прервано из-за ошибок микрофона",
		"error_busy":                   "Сначала остановите прослушивание",
		"error_device_no_device":       "Микрофон не найден. Подключите микрофон и попробуйте снова.",
		"error_device_permission":      "Нет доступа к микрофону. Разрешите доступ в настройках системы.",
		"error_device_wrong_device":    "Выбранное устройство не поддерживает запись. Проверьте audio.device в настройках.",
		"error_device_backend_missing": "Нет системы записи звука. Установите PortAudio или arecord/parec.",

		// Success messages
		"success_model_loaded": "Модель загружена",
	},

	EN: {
		// App
		"app_name":    "Voicetyper",
		"app_tooltip": "Voicetyper - voice input",

		// Tray menu
		"tray_ready":              "Ready",
		"tray_listening":          "Listening...",
		"tray_stopping":           "Stopping...",
		"tray_recording":          "Recording...",
		"tray_processing":         "Processing...",
		"tray_start":              "Start listening",
		"tray_start_hint":         "Continuous voice typing",
		"tray_stop":               "Stop listening",
		"tray_stop_hint":          "Stop voice typing",
		"tray_language":           "Language",
		"tray_lang_select":        "Select recognition language",
		"tray_engine":             "Engine",
		"tray_engine_hint":        "Speech recognition method",
		"engine_auto":             "Automatic",
		"engine_offline-streaming": "Offline streaming (Vosk)",
		"engine_offline-file":     "Offline file (Whisper)",
		"engine_cloud":            "Cloud",
		"tray_llm":                "Text correction (LLM)",
		"tray_llm_hint":           "Fix recognition errors with Ollama",
		"tray_translate":          "Translation",
		"tray_translate_hint":     "Translate text with LibreTranslate",
		"tray_notifications":      "Notifications",
		"tray_notifications_hint": "Show notifications",
		"tray_hotkey":             "Hotkey...",
		"tray_hotkey_hint":        "Change the hotkey",
		"tray_ui_language":        "Interface language",
		"tray_quit":               "Quit",
		"tray_quit_hint":          "Close application",

		// Notifications
		"notify_listening":       "Listening",
		"notify_listening_hint":  "Speak, text goes to the focused window",
		"notify_stopped":         "Listening stopped",
		"notify_recording":       "Recording...",
		"notify_recording_hint":  "Speak into the microphone",
		"notify_processing":      "Processing...",
		"notify_processing_hint": "Please wait",
		"notify_done":            "Done",
		"notify_empty":           "Could not recognize",
		"notify_empty_hint":      "Please try again",
		"notify_error":           "Error",
		"notify_ready":           "Voicetyper is ready",

		// Overlay
		"overlay_title":     "Voicetyper",
		"overlay_idle":      "Idle",
		"overlay_listening": "Listening",
		"overlay_stopping":  "Stopping",
		"overlay_last":      "Last text:",

		// Dialogs
		"dialog_hotkey_modifiers":       "Select modifiers:",
		"dialog_hotkey_modifiers_title": "Hotkey - modifiers",
		"dialog_hotkey_key":             "Select key:",
		"dialog_hotkey_key_title":       "Hotkey - key",
		"dialog_hotkey_no_modifiers":    "Select at least one modifier",

		// Errors
		"error_model_not_downloaded":   "No model downloaded for this language. Run: voicetyper models download",
		"error_engine_unavailable":     "No speech recognition engine is available",
		"error_recognition":            "Recognition error",
		"error_input":                  "Input error",
		"error_hotkey_register":        "Could not register hotkey",
		"error_listening_fault":        "Listening stopped after repeated microphone errors",
		"error_busy":                   "Stop listening first",
		"error_device_no_device":       "No microphone found. Connect a microphone and try again.",
		"error_device_permission":      "Microphone access denied. Allow access in system settings.",
		"error_device_wrong_device":    "The selected device cannot record. Check audio.device in the config.",
		"error_device_backend_missing": "No audio capture system. Install PortAudio or arecord/parec.",

		// Success messages
		"success_model_loaded": "Model loaded",
	},
}

// T returns the translation for the given key.
func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()

	if strings, ok := translations[current]; ok {
		if s, ok := strings[key]; ok {
			return s
		}
	}
	// Fallback to key itself
	return key
}

// SetLanguage sets the current UI language.
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()
	current = lang
}

// GetLanguage returns the current UI language.
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Parse returns the UI language for a code, falling back to EN.
func Parse(code string) Language {
	for _, l := range AvailableLanguages() {
		if string(l) == code {
			return l
		}
	}
	return EN
}

// AvailableLanguages returns list of supported languages.
func AvailableLanguages() []Language {
	return []Language{RU, EN}
}

// LanguageName returns display name for a language.
func LanguageName(lang Language) string {
	switch lang {
	case RU:
		return "Русский"
	case EN:
		return "English"
	default:
		return string(lang)
	}
}
