// Package config предоставляет конфигурацию приложения с сохранением в YAML файл.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"voicetyper/internal/speech"
)

// FileName - имя файла конфигурации рядом с бинарником.
const FileName = "config.yaml"

// EngineConfig - выбор движка распознавания.
type EngineConfig struct {
	// Kind: пусто (авто), offline-streaming, offline-file, cloud.
	Kind            string `yaml:"kind"`
	ModelID         string `yaml:"model_id,omitempty"`
	FallbackToCloud bool   `yaml:"fallback_to_cloud"`
	OfflineOnly     bool   `yaml:"offline_only"`
}

// ListeningConfig - параметры разбиения потока на фразы.
type ListeningConfig struct {
	PauseThreshold   time.Duration `yaml:"pause_threshold"`
	MaxPhrase        time.Duration `yaml:"max_phrase"`
	SilenceThreshold int           `yaml:"silence_threshold"`
	FrameSamples     int           `yaml:"frame_samples"`
	// Detector: peak или webrtc.
	Detector    string        `yaml:"detector"`
	WebRTCMode  int           `yaml:"webrtc_mode"`
	JoinTimeout time.Duration `yaml:"join_timeout"`
}

// AudioConfig - источник звука.
type AudioConfig struct {
	// Backend: auto, portaudio, command.
	Backend string   `yaml:"backend"`
	Device  string   `yaml:"device,omitempty"`
	Command []string `yaml:"command,omitempty"`
}

// TypingConfig - вставка текста и постобработка.
type TypingConfig struct {
	// Method: type (нажатия клавиш) или paste (через буфер обмена).
	Method        string            `yaml:"method"`
	VoiceCommands bool              `yaml:"voice_commands"`
	Corrections   map[string]string `yaml:"corrections,omitempty"`
}

// LLMConfig хранит настройки LLM для исправления текста.
type LLMConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Model   string `yaml:"model"`
}

// TranslateConfig - перевод распознанного текста через LibreTranslate.
type TranslateConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Target  string `yaml:"target"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// LogConfig - настройки логирования.
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// MetricsConfig - адрес HTTP сервера Prometheus; пусто - выключен.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Settings - содержимое файла конфигурации.
type Settings struct {
	Language      string             `yaml:"language"`
	UILanguage    string             `yaml:"ui_language"`
	Notifications bool               `yaml:"notifications"`
	Overlay       bool               `yaml:"overlay"`
	Hotkey        HotkeyConfig       `yaml:"hotkey"`
	Engine        EngineConfig       `yaml:"engine"`
	Listening     ListeningConfig    `yaml:"listening"`
	Audio         AudioConfig        `yaml:"audio"`
	Cloud         speech.CloudConfig `yaml:"cloud"`
	Typing        TypingConfig       `yaml:"typing"`
	LLM           LLMConfig          `yaml:"llm"`
	Translate     TranslateConfig    `yaml:"translate"`
	Log           LogConfig          `yaml:"log"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// Defaults возвращает настройки по умолчанию.
func Defaults() Settings {
	return Settings{
		Language:      "en",
		UILanguage:    "ru",
		Notifications: true,
		Overlay:       true,
		Hotkey: HotkeyConfig{
			Modifiers: []Modifier{ModCtrl, ModShift},
			Key:       KeySpace,
		},
		Listening: ListeningConfig{
			PauseThreshold:   800 * time.Millisecond,
			MaxPhrase:        8 * time.Second,
			SilenceThreshold: 500,
			FrameSamples:     2000,
			Detector:         "peak",
			WebRTCMode:       2,
			JoinTimeout:      time.Second,
		},
		Audio: AudioConfig{Backend: "auto"},
		Cloud: speech.CloudConfig{
			Provider: speech.ProviderGoogle,
			Timeout:  15 * time.Second,
		},
		Typing: TypingConfig{
			Method:        "type",
			VoiceCommands: true,
		},
		LLM: LLMConfig{
			URL:   "http://localhost:11434",
			Model: "qwen2.5:1.5b",
		},
		Translate: TranslateConfig{
			URL:    "http://localhost:5000",
			Target: "en",
		},
		Log: LogConfig{Level: "info", Console: true},
	}
}

// Normalize применяет зависимые настройки: offline_only выключает облачный резерв.
func (s *Settings) Normalize() {
	if s.Engine.OfflineOnly {
		s.Engine.FallbackToCloud = false
	}
}

// Validate проверяет все настройки и возвращает все найденные ошибки.
func (s Settings) Validate() error {
	var errs []error
	if s.Language == "" {
		errs = append(errs, errors.New("language: не задан"))
	}
	switch speech.Kind(s.Engine.Kind) {
	case "", speech.KindStreaming, speech.KindFile, speech.KindCloud:
	default:
		errs = append(errs, fmt.Errorf("engine.kind: неизвестный движок %q", s.Engine.Kind))
	}
	if s.Engine.OfflineOnly && speech.Kind(s.Engine.Kind) == speech.KindCloud {
		errs = append(errs, errors.New("engine: cloud несовместим с offline_only"))
	}
	if s.Listening.PauseThreshold <= 0 {
		errs = append(errs, errors.New("listening.pause_threshold: должен быть положительным"))
	}
	if s.Listening.MaxPhrase <= s.Listening.PauseThreshold {
		errs = append(errs, errors.New("listening.max_phrase: должен быть больше pause_threshold"))
	}
	if s.Listening.SilenceThreshold <= 0 || s.Listening.SilenceThreshold > 32767 {
		errs = append(errs, fmt.Errorf("listening.silence_threshold: %d вне диапазона 1..32767", s.Listening.SilenceThreshold))
	}
	if s.Listening.FrameSamples <= 0 {
		errs = append(errs, errors.New("listening.frame_samples: должен быть положительным"))
	}
	switch s.Listening.Detector {
	case "peak", "webrtc":
	default:
		errs = append(errs, fmt.Errorf("listening.detector: неизвестный детектор %q", s.Listening.Detector))
	}
	if s.Listening.WebRTCMode < 0 || s.Listening.WebRTCMode > 3 {
		errs = append(errs, fmt.Errorf("listening.webrtc_mode: %d вне диапазона 0..3", s.Listening.WebRTCMode))
	}
	switch s.Audio.Backend {
	case "auto", "portaudio", "command":
	default:
		errs = append(errs, fmt.Errorf("audio.backend: неизвестный бэкенд %q", s.Audio.Backend))
	}
	switch s.Cloud.Provider {
	case "", speech.ProviderGoogle, speech.ProviderDeepgram:
	default:
		errs = append(errs, fmt.Errorf("cloud.provider: неизвестный провайдер %q", s.Cloud.Provider))
	}
	switch s.Typing.Method {
	case "type", "paste":
	default:
		errs = append(errs, fmt.Errorf("typing.method: неизвестный способ %q", s.Typing.Method))
	}
	if s.Hotkey.Key == "" {
		errs = append(errs, errors.New("hotkey.key: не задана"))
	}
	if s.Translate.Enabled && s.Translate.Target == "" {
		errs = append(errs, errors.New("translate.target: не задан"))
	}
	return errors.Join(errs...)
}

// EngineConfig собирает настройки движка для фабрики распознавателей.
func (s Settings) EngineConfig(modelPath string) speech.EngineConfig {
	return speech.EngineConfig{
		Kind:            speech.Kind(s.Engine.Kind),
		Language:        s.Language,
		ModelPath:       modelPath,
		FallbackToCloud: s.Engine.FallbackToCloud,
		OfflineOnly:     s.Engine.OfflineOnly,
	}.Normalize()
}

// Decode читает YAML поверх настроек по умолчанию. Неизвестные поля - ошибка.
func Decode(r io.Reader) (Settings, error) {
	s := Defaults()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return s, fmt.Errorf("разбор конфигурации: %w", err)
	}
	s.Normalize()
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("проверка конфигурации: %w", err)
	}
	return s, nil
}

// Config хранит настройки приложения.
type Config struct {
	mu             sync.RWMutex
	data           Settings
	configPath     string
	onHotkeyChange func(HotkeyConfig)
}

// DefaultPath возвращает путь к файлу конфигурации рядом с бинарником.
func DefaultPath() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	// Резолвим симлинки
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(execPath), FileName)
}

// Load загружает конфигурацию из файла. Отсутствующий файл - настройки по умолчанию.
// Пустой path - файл рядом с бинарником.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}
	c := &Config{data: Defaults(), configPath: path}
	if path == "" {
		return c, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Файл конфигурации не найден, используем значения по умолчанию")
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("чтение конфигурации: %w", err)
	}

	s, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	c.data = s
	return c, nil
}

// New создаёт конфигурацию в памяти без файла.
func New(s Settings) *Config {
	s.Normalize()
	return &Config{data: s}
}

// Path возвращает путь к файлу конфигурации.
func (c *Config) Path() string {
	return c.configPath
}

// save сохраняет конфигурацию в файл. Вызывается под блокировкой.
func (c *Config) save() {
	if c.configPath == "" {
		return
	}

	data, err := yaml.Marshal(c.data)
	if err != nil {
		log.Error().Err(err).Msg("Ошибка сериализации конфигурации")
		return
	}

	// В файле может быть ключ облачного API
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		log.Error().Err(err).Str("path", c.configPath).Msg("Ошибка сохранения конфигурации")
	}
}

// Save записывает текущие настройки в файл.
func (c *Config) Save() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	c.save()
}

// Snapshot возвращает копию всех настроек.
func (c *Config) Snapshot() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.data
	s.Hotkey.Modifiers = append([]Modifier(nil), c.data.Hotkey.Modifiers...)
	return s
}

// SetLanguage устанавливает язык распознавания.
func (c *Config) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Language = lang
	c.save()
}

// Language возвращает текущий язык распознавания.
func (c *Config) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Language
}

// ToggleNotifications переключает состояние уведомлений.
func (c *Config) ToggleNotifications() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Notifications = !c.data.Notifications
	c.save()
	return c.data.Notifications
}

// NotificationsEnabled возвращает true если уведомления включены.
func (c *Config) NotificationsEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Notifications
}

// OverlayEnabled возвращает true если окно статуса включено.
func (c *Config) OverlayEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Overlay
}

// Hotkey возвращает текущую горячую клавишу.
func (c *Config) Hotkey() HotkeyConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Hotkey
}

// SetHotkey устанавливает горячую клавишу.
func (c *Config) SetHotkey(hk HotkeyConfig) {
	c.mu.Lock()
	c.data.Hotkey = hk
	callback := c.onHotkeyChange
	c.save()
	c.mu.Unlock()

	if callback != nil {
		callback(hk)
	}
}

// OnHotkeyChange устанавливает callback для изменения горячей клавиши.
func (c *Config) OnHotkeyChange(fn func(HotkeyConfig)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onHotkeyChange = fn
}

// Engine возвращает настройки движка.
func (c *Config) Engine() EngineConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Engine
}

// SetEngine устанавливает настройки движка. offline_only выключает облачный резерв.
func (c *Config) SetEngine(e EngineConfig) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Engine = e
	c.data.Normalize()
	c.save()
}

// SetModelID устанавливает ID модели распознавания.
func (c *Config) SetModelID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Engine.ModelID = id
	c.save()
}

// Listening возвращает параметры прослушивания.
func (c *Config) Listening() ListeningConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Listening
}

// Audio возвращает настройки источника звука.
func (c *Config) Audio() AudioConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Audio
}

// Cloud возвращает настройки облачного распознавания.
func (c *Config) Cloud() speech.CloudConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Cloud
}

// Typing возвращает настройки вставки текста.
func (c *Config) Typing() TypingConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Typing
}

// LLM возвращает текущие настройки LLM.
func (c *Config) LLM() LLMConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.LLM
}

// ToggleLLM включает/выключает LLM коррекцию.
func (c *Config) ToggleLLM() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.LLM.Enabled = !c.data.LLM.Enabled
	c.save()
	return c.data.LLM.Enabled
}

// Translate возвращает настройки перевода.
func (c *Config) Translate() TranslateConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Translate
}

// ToggleTranslate включает/выключает перевод.
func (c *Config) ToggleTranslate() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.Translate.Enabled = !c.data.Translate.Enabled
	c.save()
	return c.data.Translate.Enabled
}

// UILanguage возвращает язык интерфейса.
func (c *Config) UILanguage() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.UILanguage
}

// SetUILanguage устанавливает язык интерфейса.
func (c *Config) SetUILanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data.UILanguage = lang
	c.save()
}
