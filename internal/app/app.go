package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/config"
	"voicetyper/internal/dialog"
	"voicetyper/internal/hotkey"
	"voicetyper/internal/i18n"
	"voicetyper/internal/input"
	"voicetyper/internal/listen"
	"voicetyper/internal/models"
	"voicetyper/internal/notify"
	"voicetyper/internal/overlay"
	"voicetyper/internal/speech"
	"voicetyper/internal/tray"
)

const (
	// MaxPushToTalk - предел записи, пока клавиша удерживается.
	MaxPushToTalk = 60 * time.Second

	// focusDelay - пауза перед вводом, чтобы фокус вернулся в окно после меню.
	focusDelay = 150 * time.Millisecond
)

// App представляет приложение в системном трее.
type App struct {
	mu       sync.Mutex
	config   *config.Config
	core     *Core
	typer    input.Typer
	phrases  *input.Joiner
	notifier *notify.Notifier
	tray     *tray.Tray
	hotkey   *hotkey.Handler
	overlay  *overlay.Window

	// Запись по клавише (push-to-talk)
	pttCancel context.CancelFunc

	closeOnce sync.Once
}

// New создаёт приложение поверх готового конвейера.
func New(cfg *config.Config, core *Core) (*App, error) {
	i18n.SetLanguage(i18n.Parse(cfg.UILanguage()))

	typer, err := input.New(cfg.Typing().Method)
	if err != nil {
		return nil, err
	}

	app := &App{
		config:   cfg,
		core:     core,
		typer:    typer,
		phrases:  input.NewJoiner(typer),
		notifier: notify.New(cfg.NotificationsEnabled()),
		overlay:  overlay.New(),
	}

	// Создаём обработчик горячих клавиш
	app.hotkey = hotkey.New(app.onHotkeyPress, app.onHotkeyRelease)
	cfg.OnHotkeyChange(func(hk config.HotkeyConfig) { app.registerHotkey(hk) })

	core.Controller().OnFault(app.onFault)

	s := cfg.Snapshot()
	engines := []string{""}
	for _, k := range []speech.Kind{speech.KindStreaming, speech.KindFile, speech.KindCloud} {
		engines = append(engines, string(k))
	}

	// Создаём системный трей с обработчиками
	app.tray = tray.New(tray.Callbacks{
		OnToggleListening: app.Toggle,
		OnLanguage:        app.onLanguage,
		OnEngine:          app.onEngine,
		OnLLMToggle: func() bool {
			enabled := cfg.ToggleLLM()
			core.RebuildPost()
			return enabled
		},
		OnTranslateToggle: func() bool {
			enabled := cfg.ToggleTranslate()
			core.RebuildPost()
			return enabled
		},
		OnNotificationsToggle: func() bool {
			enabled := cfg.ToggleNotifications()
			app.notifier.SetEnabled(enabled)
			return enabled
		},
		OnHotkeyClick: app.onHotkeyClick,
		OnUILanguage: func(lang i18n.Language) {
			i18n.SetLanguage(lang)
			cfg.SetUILanguage(string(lang))
		},
		OnQuit: app.Close,
	}, tray.Options{
		Languages:     models.Languages,
		Language:      s.Language,
		Engines:       engines,
		Engine:        s.Engine.Kind,
		Notifications: s.Notifications,
		LLM:           s.LLM.Enabled,
		Translate:     s.Translate.Enabled,
	})

	return app, nil
}

// Run запускает приложение. Блокирует до выхода из трея.
func (a *App) Run() {
	a.tray.Run(func() {
		// Регистрируем горячую клавишу после инициализации трея
		hk := a.config.Hotkey()
		if a.registerHotkey(hk) {
			a.notifier.Info(i18n.T("notify_ready") + ": " + hotkey.Label(hk))
		}
	})
}

func (a *App) registerHotkey(hk config.HotkeyConfig) bool {
	if err := a.hotkey.Register(hk); err != nil {
		a.notifier.Error(i18n.T("error_hotkey_register") + ": " + hotkey.Label(hk))
		return false
	}
	a.tray.SetHotkey(hotkey.Label(hk))
	return true
}

// Toggle запускает или останавливает непрерывное прослушивание.
func (a *App) Toggle() {
	switch a.core.Controller().State() {
	case listen.StateIdle:
		a.startListening()
	case listen.StateListening:
		go a.stopListening()
	}
}

func (a *App) startListening() {
	a.phrases.Reset()
	if err := a.core.Start(a.deliver); err != nil {
		a.reportStartError(err)
		return
	}

	lang := a.config.Language()
	a.tray.SetState(tray.StateListening)
	a.showOverlay(overlay.StateListening)
	a.notifier.Listening(lang)
	log.Info().Str("lang", lang).Str("backend", a.core.Controller().EngineName()).Msg("Прослушивание начато")
}

func (a *App) stopListening() {
	a.tray.SetState(tray.StateStopping)
	a.showOverlay(overlay.StateStopping)

	a.core.Stop()

	a.tray.SetState(tray.StateIdle)
	a.overlay.Hide()
	a.notifier.Stopped()
	log.Info().Msg("Прослушивание остановлено")
}

// deliver вызывается по порядку из рабочей горутины контроллера.
func (a *App) deliver(text string) {
	a.overlay.SetText(text)
	if err := a.phrases.Type(text); err != nil {
		log.Error().Err(err).Msg("Ошибка ввода текста")
		a.notifier.Error(i18n.T("error_input") + ": " + err.Error())
	}
}

func (a *App) showOverlay(state overlay.State) {
	if !a.config.OverlayEnabled() {
		return
	}
	a.overlay.Set(state, a.config.Language(), a.core.Controller().EngineName())
	a.overlay.Show()
}

// onFault вызывается, когда сессия остановилась из-за ошибок микрофона.
func (a *App) onFault(err error) {
	a.tray.SetState(tray.StateIdle)
	a.overlay.Hide()

	msg := i18n.T("error_listening_fault")
	var devErr *audio.DeviceError
	if errors.As(err, &devErr) {
		msg += "\n" + i18n.T(devErr.Hint())
	}
	a.notifier.Error(msg)
}

// reportStartError показывает пользователю, что делать дальше.
func (a *App) reportStartError(err error) {
	log.Error().Err(err).Msg("Не удалось начать прослушивание")

	var devErr *audio.DeviceError
	switch {
	case errors.As(err, &devErr):
		dialog.ShowError(i18n.T("notify_error"), i18n.T(devErr.Hint()))
	case errors.Is(err, speech.ErrEngineUnavailable):
		dialog.ShowError(i18n.T("error_engine_unavailable"), i18n.T("error_model_not_downloaded")+"\n\n"+err.Error())
	default:
		a.notifier.Error(err.Error())
	}
	a.tray.SetState(tray.StateIdle)
}

func (a *App) onLanguage(code string) bool {
	if err := a.core.SwitchLanguage(code); err != nil {
		a.reportSwitchError(err)
		return false
	}
	return true
}

func (a *App) onEngine(kind string) bool {
	if err := a.core.SetEngineKind(kind); err != nil {
		a.reportSwitchError(err)
		return false
	}
	return true
}

func (a *App) reportSwitchError(err error) {
	if errors.Is(err, listen.ErrInvalidState) {
		a.notifier.Error(i18n.T("error_busy"))
		return
	}
	log.Warn().Err(err).Msg("Не удалось сменить распознаватель")
	if errors.Is(err, speech.ErrEngineUnavailable) {
		a.notifier.Error(i18n.T("error_model_not_downloaded"))
		return
	}
	a.notifier.Error(err.Error())
}

func (a *App) onHotkeyClick() {
	hk, err := dialog.SelectHotkey(a.config.Hotkey())
	if err != nil {
		if !dialog.IsCancel(err) {
			dialog.ShowError(i18n.T("notify_error"), err.Error())
		}
		return
	}
	a.config.SetHotkey(hk)
}

func (a *App) onHotkeyPress() {
	if !a.config.Hotkey().PushToTalk {
		a.Toggle()
		return
	}

	// Push-to-talk не пересекается с непрерывным прослушиванием
	if a.core.Controller().State() != listen.StateIdle {
		return
	}

	a.mu.Lock()
	if a.pttCancel != nil {
		a.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.pttCancel = cancel
	a.mu.Unlock()

	a.tray.SetState(tray.StateRecording)
	a.notifier.Recording()

	go a.recordOnce(ctx)
}

func (a *App) onHotkeyRelease() {
	a.mu.Lock()
	cancel := a.pttCancel
	a.mu.Unlock()
	if cancel != nil {
		cancel()
		a.tray.SetState(tray.StateProcessing)
	}
}

func (a *App) recordOnce(ctx context.Context) {
	defer func() {
		a.mu.Lock()
		a.pttCancel = nil
		a.mu.Unlock()
		a.tray.SetState(tray.StateIdle)
	}()

	text, err := a.core.RecordOnce(ctx, MaxPushToTalk)
	switch {
	case errors.Is(err, listen.ErrNothingRecorded):
		return
	case err != nil:
		a.reportStartError(err)
		return
	case text == "":
		a.notifier.Empty()
		return
	}

	time.Sleep(focusDelay)
	if err := a.typer.Type(text); err != nil {
		log.Error().Err(err).Msg("Ошибка ввода текста")
		a.notifier.Error(i18n.T("error_input") + ": " + err.Error())
		return
	}
	a.notifier.Success(text)
}

// Quit закрывает приложение из другой горутины (например, по сигналу).
func (a *App) Quit() {
	a.Close()
	a.tray.Quit()
}

// Close останавливает прослушивание и снимает горячую клавишу.
// Конвейер закрывает владелец Core.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		if a.pttCancel != nil {
			a.pttCancel()
		}
		a.mu.Unlock()

		if err := a.hotkey.Unregister(); err != nil {
			log.Warn().Err(err).Msg("Ошибка отмены горячей клавиши")
		}
		a.overlay.Hide()
		a.core.Stop()
	})
}
