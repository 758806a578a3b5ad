// Package app связывает прослушивание, постобработку текста и ввод.
package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/config"
	"voicetyper/internal/listen"
	"voicetyper/internal/llm"
	"voicetyper/internal/models"
	"voicetyper/internal/observe"
	"voicetyper/internal/speech"
	"voicetyper/internal/textproc"
	"voicetyper/internal/translate"
	"voicetyper/internal/vad"
)

// postTimeout ограничивает постобработку одной фразы (LLM, перевод).
const postTimeout = 20 * time.Second

// Core - конвейер без GUI: микрофон -> фразы -> распознавание -> постобработка.
// Используется и приложением в трее, и консольной командой listen.
type Core struct {
	config  *config.Config
	models  *models.Manager
	factory *speech.Factory
	ctrl    *listen.Controller
	metrics *observe.Metrics
	source  listen.SourceFunc

	mu   sync.Mutex
	post *textproc.Pipeline

	// Распознаватель для записи по клавише, пересоздаётся при смене настроек
	onceMu  sync.Mutex
	onceRec speech.Recognizer
	onceCfg speech.EngineConfig
}

// NewCore собирает конвейер по настройкам.
func NewCore(cfg *config.Config, mgr *models.Manager, m *observe.Metrics) (*Core, error) {
	s := cfg.Snapshot()

	det, err := NewDetector(s.Listening)
	if err != nil {
		return nil, err
	}

	caps := speech.Probe(s.Cloud)
	log.Info().
		Bool("vosk", caps.Streaming).
		Bool("whisper_lib", caps.WhisperLib).
		Str("whisper_cli", caps.WhisperCLI).
		Bool("cloud", caps.Cloud).
		Msg("Доступные движки распознавания")

	c := &Core{
		config:  cfg,
		models:  mgr,
		factory: speech.NewFactory(caps, s.Cloud, os.TempDir(), m),
		metrics: m,
		source:  NewSourceFunc(s.Audio, s.Listening.FrameSamples),
	}

	engine := s.EngineConfig(c.modelPath(s.Language, speech.Kind(s.Engine.Kind), s.Engine.ModelID))
	c.ctrl = listen.NewController(ListenConfig(s.Listening, det), engine, c.factory, c.source, m)
	c.RebuildPost()
	return c, nil
}

// NewDetector создаёт детектор тишины по настройкам.
func NewDetector(l config.ListeningConfig) (vad.Detector, error) {
	switch l.Detector {
	case "webrtc":
		w, err := vad.NewWebRTC(l.WebRTCMode)
		if err != nil {
			return nil, fmt.Errorf("webrtc vad: %w", err)
		}
		return w, nil
	default:
		return vad.NewPeak(l.SilenceThreshold), nil
	}
}

// NewSourceFunc возвращает конструктор источника звука.
// auto - PortAudio с переходом на утилиту записи.
func NewSourceFunc(a config.AudioConfig, frameSamples int) listen.SourceFunc {
	return func() audio.Source {
		switch a.Backend {
		case "portaudio":
			return audio.NewPortAudioSource(a.Device, frameSamples)
		case "command":
			return audio.NewCommandSource(a.Command)
		default:
			return audio.NewFallbackSource(
				audio.NewPortAudioSource(a.Device, frameSamples),
				audio.NewCommandSource(a.Command),
			)
		}
	}
}

// ListenConfig переводит настройки в параметры контроллера.
func ListenConfig(l config.ListeningConfig, det vad.Detector) listen.Config {
	return listen.Config{
		PauseThreshold: l.PauseThreshold,
		MaxPhrase:      l.MaxPhrase,
		FrameSamples:   l.FrameSamples,
		JoinTimeout:    l.JoinTimeout,
		Detector:       det,
	}
}

// modelPath ищет скачанную модель для языка и движка. Пусто - модели нет;
// фабрика тогда пропустит офлайн варианты.
func (c *Core) modelPath(lang string, kind speech.Kind, modelID string) string {
	if c.models == nil {
		return ""
	}
	var prefer models.Engine
	switch kind {
	case speech.KindStreaming:
		prefer = models.EngineVosk
	case speech.KindFile:
		prefer = models.EngineWhisper
	case speech.KindCloud:
		return ""
	}
	path, ok := c.models.ModelPath(lang, prefer, modelID)
	if !ok {
		log.Warn().Str("lang", lang).Str("kind", string(kind)).Msg("Модель для языка не скачана")
	}
	return path
}

// Controller возвращает контроллер прослушивания.
func (c *Core) Controller() *listen.Controller {
	return c.ctrl
}

// Start начинает прослушивание. out получает обработанный текст по порядку.
func (c *Core) Start(out func(text string)) error {
	return c.ctrl.Start(func(text string) {
		if processed := c.process(text); processed != "" {
			out(processed)
		}
	})
}

// Stop останавливает прослушивание.
func (c *Core) Stop() {
	c.ctrl.Stop()
}

func (c *Core) process(text string) string {
	c.mu.Lock()
	post := c.post
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()
	return post.Run(ctx, text)
}

// SwitchLanguage меняет язык распознавания. Только в режиме ожидания.
func (c *Core) SwitchLanguage(code string) error {
	e := c.config.Engine()
	path := c.modelPath(code, speech.Kind(e.Kind), e.ModelID)
	if err := c.ctrl.SwitchLanguage(code, path); err != nil {
		return err
	}
	c.config.SetLanguage(code)
	c.RebuildPost()
	log.Info().Str("lang", code).Str("backend", c.ctrl.EngineName()).Msg("Язык распознавания изменён")
	return nil
}

// SetEngineKind меняет вариант движка. Только в режиме ожидания.
func (c *Core) SetEngineKind(kind string) error {
	s := c.config.Snapshot()
	s.Engine.Kind = kind
	next := s.EngineConfig(c.modelPath(s.Language, speech.Kind(kind), s.Engine.ModelID))
	if err := c.ctrl.SetEngineConfig(next); err != nil {
		return err
	}
	c.config.SetEngine(s.Engine)
	log.Info().Str("kind", kind).Str("backend", c.ctrl.EngineName()).Msg("Движок распознавания изменён")
	return nil
}

// RebuildPost пересобирает постобработку после смены языка или настроек.
func (c *Core) RebuildPost() {
	s := c.config.Snapshot()
	p := NewPostProcessor(s)

	c.mu.Lock()
	c.post = p
	c.mu.Unlock()
}

// NewPostProcessor собирает цепочку: исправления, голосовые команды, LLM, перевод.
func NewPostProcessor(s config.Settings) *textproc.Pipeline {
	p := textproc.NewPipeline().
		Use("corrections", textproc.CorrectorStage(textproc.NewCorrector(s.Typing.Corrections)))

	if s.Typing.VoiceCommands {
		p.Use("commands", textproc.CommandsStage(textproc.NewCommands(s.Language)))
	}

	if s.LLM.Enabled {
		client := llm.New(llm.Config{URL: s.LLM.URL, Model: s.LLM.Model})
		langName := s.Language
		if l, ok := models.LookupLanguage(s.Language); ok {
			langName = l.Name
		}
		p.Use("llm", textproc.StageFunc(func(ctx context.Context, text string) (string, error) {
			return client.CorrectText(ctx, text, langName)
		}))
	}

	if s.Translate.Enabled {
		client := translate.New(s.Translate.URL, s.Translate.APIKey, 0)
		source, target := s.Language, s.Translate.Target
		p.Use("translate", textproc.StageFunc(func(ctx context.Context, text string) (string, error) {
			return client.Translate(ctx, text, source, target)
		}))
	}
	return p
}

// RecordOnce записывает до limit (или отмены ctx) и распознаёт один раз.
// Отдельный распознаватель не мешает контроллеру.
func (c *Core) RecordOnce(ctx context.Context, limit time.Duration) (string, error) {
	c.onceMu.Lock()
	defer c.onceMu.Unlock()

	s := c.config.Snapshot()
	cfg := s.EngineConfig(c.modelPath(s.Language, speech.Kind(s.Engine.Kind), s.Engine.ModelID))
	if c.onceRec == nil || c.onceCfg != cfg {
		rec, err := c.factory.Build(cfg)
		if err != nil {
			return "", err
		}
		c.closeOnce()
		c.onceRec, c.onceCfg = rec, cfg
	}

	text, err := listen.RecordOnce(ctx, c.source(), c.onceRec, listen.NewNoiseFilter(s.Language), limit)
	if err != nil {
		return "", fmt.Errorf("запись: %w", err)
	}
	return c.process(text), nil
}

func (c *Core) closeOnce() {
	if c.onceRec == nil {
		return
	}
	if err := c.onceRec.Close(); err != nil {
		log.Warn().Err(err).Str("engine", c.onceRec.Name()).Msg("Ошибка закрытия распознавателя")
	}
	c.onceRec = nil
}

// Close останавливает прослушивание и освобождает распознаватель.
func (c *Core) Close() error {
	c.onceMu.Lock()
	c.closeOnce()
	c.onceMu.Unlock()
	return c.ctrl.Close()
}
