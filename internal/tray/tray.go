// Package tray предоставляет системный трей с меню.
package tray

import (
	"sync"

	"github.com/getlantern/systray"

	"voicetyper/embedded"
	"voicetyper/internal/i18n"
	"voicetyper/internal/models"
)

// State представляет состояние приложения для отображения в трее.
type State int

const (
	StateIdle State = iota
	StateListening
	StateStopping
	StateRecording
	StateProcessing
)

// Callbacks содержит обработчики событий меню.
// Обработчики выбора возвращают false, если выбор не применён.
type Callbacks struct {
	OnToggleListening     func()
	OnLanguage            func(code string) bool
	OnEngine              func(kind string) bool
	OnLLMToggle           func() bool
	OnTranslateToggle     func() bool
	OnNotificationsToggle func() bool
	OnHotkeyClick         func()
	OnUILanguage          func(lang i18n.Language)
	OnQuit                func()
}

// Options - начальное состояние меню.
type Options struct {
	Languages     []models.Language
	Language      string
	Engines       []string // "" - автовыбор
	Engine        string
	Notifications bool
	LLM           bool
	Translate     bool
}

// Tray управляет иконкой в системном трее.
type Tray struct {
	callbacks Callbacks
	opts      Options

	mu        sync.Mutex
	state     State
	status    *systray.MenuItem
	toggle    *systray.MenuItem
	langMenu  *systray.MenuItem
	langItems map[string]*systray.MenuItem
	engMenu   *systray.MenuItem
	engItems  map[string]*systray.MenuItem
	uiMenu    *systray.MenuItem
	uiItems   map[i18n.Language]*systray.MenuItem
	llm       *systray.MenuItem
	translate *systray.MenuItem
	notifyOn  *systray.MenuItem
	hotkeyBtn *systray.MenuItem
	hotkey    string
	quitBtn   *systray.MenuItem
}

// New создаёт новый Tray.
func New(callbacks Callbacks, opts Options) *Tray {
	return &Tray{
		callbacks: callbacks,
		opts:      opts,
		langItems: make(map[string]*systray.MenuItem),
		engItems:  make(map[string]*systray.MenuItem),
		uiItems:   make(map[i18n.Language]*systray.MenuItem),
	}
}

// Run запускает системный трей. Блокирующая функция.
func (t *Tray) Run(onReady func()) {
	systray.Run(func() {
		t.onReady()
		if onReady != nil {
			onReady()
		}
	}, t.onExit)
}

func (t *Tray) onReady() {
	t.mu.Lock()
	defer t.mu.Unlock()

	systray.SetIcon(embedded.IconIdle)
	systray.SetTitle(i18n.T("app_name"))
	systray.SetTooltip(i18n.T("app_tooltip"))

	// Статус
	t.status = systray.AddMenuItem(i18n.T("tray_ready"), "")
	t.status.Disable()

	t.toggle = systray.AddMenuItem(i18n.T("tray_start"), i18n.T("tray_start_hint"))

	systray.AddSeparator()

	// Язык распознавания
	t.langMenu = systray.AddMenuItem(i18n.T("tray_language"), i18n.T("tray_lang_select"))
	for _, l := range t.opts.Languages {
		item := t.langMenu.AddSubMenuItemCheckbox(l.Native, l.Name, l.Code == t.opts.Language)
		t.langItems[l.Code] = item
		go t.onLanguageClick(l.Code, item)
	}

	// Движок
	t.engMenu = systray.AddMenuItem(i18n.T("tray_engine"), i18n.T("tray_engine_hint"))
	for _, kind := range t.opts.Engines {
		item := t.engMenu.AddSubMenuItemCheckbox(engineLabel(kind), "", kind == t.opts.Engine)
		t.engItems[kind] = item
		go t.onEngineClick(kind, item)
	}

	// Обработка текста
	t.llm = systray.AddMenuItemCheckbox(i18n.T("tray_llm"), i18n.T("tray_llm_hint"), t.opts.LLM)
	t.translate = systray.AddMenuItemCheckbox(i18n.T("tray_translate"), i18n.T("tray_translate_hint"), t.opts.Translate)

	systray.AddSeparator()

	// Уведомления
	t.notifyOn = systray.AddMenuItemCheckbox(i18n.T("tray_notifications"), i18n.T("tray_notifications_hint"), t.opts.Notifications)

	// Горячая клавиша
	t.hotkeyBtn = systray.AddMenuItem(t.hotkeyTitle(), i18n.T("tray_hotkey_hint"))

	// Язык интерфейса
	t.uiMenu = systray.AddMenuItem(i18n.T("tray_ui_language"), "")
	for _, l := range i18n.AvailableLanguages() {
		item := t.uiMenu.AddSubMenuItemCheckbox(i18n.LanguageName(l), "", l == i18n.GetLanguage())
		t.uiItems[l] = item
		go t.onUILanguageClick(l, item)
	}

	systray.AddSeparator()

	// Выход
	t.quitBtn = systray.AddMenuItem(i18n.T("tray_quit"), i18n.T("tray_quit_hint"))

	// Обработка событий меню
	go t.handleMenuEvents()
}

func engineLabel(kind string) string {
	if kind == "" {
		return i18n.T("engine_auto")
	}
	return i18n.T("engine_" + kind)
}

func (t *Tray) handleMenuEvents() {
	for {
		select {
		case <-t.toggle.ClickedCh:
			if t.callbacks.OnToggleListening != nil {
				t.callbacks.OnToggleListening()
			}

		case <-t.llm.ClickedCh:
			if t.callbacks.OnLLMToggle != nil {
				setChecked(t.llm, t.callbacks.OnLLMToggle())
			}

		case <-t.translate.ClickedCh:
			if t.callbacks.OnTranslateToggle != nil {
				setChecked(t.translate, t.callbacks.OnTranslateToggle())
			}

		// Уведомления
		case <-t.notifyOn.ClickedCh:
			if t.callbacks.OnNotificationsToggle != nil {
				setChecked(t.notifyOn, t.callbacks.OnNotificationsToggle())
			}

		case <-t.hotkeyBtn.ClickedCh:
			if t.callbacks.OnHotkeyClick != nil {
				t.callbacks.OnHotkeyClick()
			}

		// Выход
		case <-t.quitBtn.ClickedCh:
			if t.callbacks.OnQuit != nil {
				t.callbacks.OnQuit()
			}
			systray.Quit()
			return
		}
	}
}

func (t *Tray) onLanguageClick(code string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.callbacks.OnLanguage != nil && t.callbacks.OnLanguage(code) {
			t.SetLanguage(code)
		} else {
			t.SetLanguage(t.currentLanguage())
		}
	}
}

func (t *Tray) onEngineClick(kind string, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.callbacks.OnEngine != nil && t.callbacks.OnEngine(kind) {
			t.SetEngine(kind)
		} else {
			t.SetEngine(t.currentEngine())
		}
	}
}

func (t *Tray) onUILanguageClick(lang i18n.Language, item *systray.MenuItem) {
	for range item.ClickedCh {
		if t.callbacks.OnUILanguage != nil {
			t.callbacks.OnUILanguage(lang)
		}
		t.mu.Lock()
		for l, it := range t.uiItems {
			setChecked(it, l == lang)
		}
		t.mu.Unlock()
		t.RefreshUI()
	}
}

func (t *Tray) currentLanguage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts.Language
}

func (t *Tray) currentEngine() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.opts.Engine
}

// SetLanguage отмечает выбранный язык распознавания.
func (t *Tray) SetLanguage(code string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.Language = code
	for c, item := range t.langItems {
		setChecked(item, c == code)
	}
}

// SetEngine отмечает выбранный движок.
func (t *Tray) SetEngine(kind string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.opts.Engine = kind
	for k, item := range t.engItems {
		setChecked(item, k == kind)
	}
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

// SetState устанавливает состояние приложения и обновляет иконку.
func (t *Tray) SetState(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = state
	t.applyState()
}

func (t *Tray) applyState() {
	var icon []byte
	var key string
	switch t.state {
	case StateListening:
		icon, key = embedded.IconListening, "tray_listening"
	case StateStopping:
		icon, key = embedded.IconProcessing, "tray_stopping"
	case StateRecording:
		icon, key = embedded.IconRecording, "tray_recording"
	case StateProcessing:
		icon, key = embedded.IconProcessing, "tray_processing"
	default:
		icon, key = embedded.IconIdle, "tray_ready"
	}

	systray.SetIcon(icon)
	systray.SetTooltip(i18n.T("app_name") + " - " + i18n.T(key))
	if t.status != nil {
		t.status.SetTitle(i18n.T(key))
	}
	if t.toggle == nil {
		return
	}

	active := t.state == StateListening || t.state == StateStopping
	if active {
		t.toggle.SetTitle(i18n.T("tray_stop"))
		t.toggle.SetTooltip(i18n.T("tray_stop_hint"))
	} else {
		t.toggle.SetTitle(i18n.T("tray_start"))
		t.toggle.SetTooltip(i18n.T("tray_start_hint"))
	}
	if t.state == StateStopping {
		t.toggle.Disable()
	} else {
		t.toggle.Enable()
	}

	// Язык и движок меняются только в режиме ожидания
	if active {
		t.langMenu.Disable()
		t.engMenu.Disable()
	} else {
		t.langMenu.Enable()
		t.engMenu.Enable()
	}
}

func (t *Tray) onExit() {
	// Cleanup при выходе
}

// Quit закрывает системный трей.
func (t *Tray) Quit() {
	systray.Quit()
}

// SetHotkey показывает текущее сочетание в пункте меню.
func (t *Tray) SetHotkey(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.hotkey = label
	if t.hotkeyBtn != nil {
		t.hotkeyBtn.SetTitle(t.hotkeyTitle())
	}
}

func (t *Tray) hotkeyTitle() string {
	if t.hotkey == "" {
		return i18n.T("tray_hotkey")
	}
	return i18n.T("tray_hotkey") + " " + t.hotkey
}

// RefreshUI обновляет все тексты меню на текущем языке.
func (t *Tray) RefreshUI() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == nil {
		return
	}
	systray.SetTitle(i18n.T("app_name"))
	t.applyState()

	t.langMenu.SetTitle(i18n.T("tray_language"))
	t.langMenu.SetTooltip(i18n.T("tray_lang_select"))
	t.engMenu.SetTitle(i18n.T("tray_engine"))
	t.engMenu.SetTooltip(i18n.T("tray_engine_hint"))
	for kind, item := range t.engItems {
		item.SetTitle(engineLabel(kind))
	}
	t.llm.SetTitle(i18n.T("tray_llm"))
	t.llm.SetTooltip(i18n.T("tray_llm_hint"))
	t.translate.SetTitle(i18n.T("tray_translate"))
	t.translate.SetTooltip(i18n.T("tray_translate_hint"))
	t.notifyOn.SetTitle(i18n.T("tray_notifications"))
	t.notifyOn.SetTooltip(i18n.T("tray_notifications_hint"))
	t.hotkeyBtn.SetTitle(t.hotkeyTitle())
	t.hotkeyBtn.SetTooltip(i18n.T("tray_hotkey_hint"))
	t.uiMenu.SetTitle(i18n.T("tray_ui_language"))
	t.quitBtn.SetTitle(i18n.T("tray_quit"))
	t.quitBtn.SetTooltip(i18n.T("tray_quit_hint"))
}
