// Package hotkey предоставляет глобальные горячие клавиши.
package hotkey

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.design/x/hotkey"
	"golang.design/x/hotkey/mainthread"

	"voicetyper/internal/config"
)

// Handler обрабатывает события горячих клавиш.
type Handler struct {
	mu        sync.Mutex
	hk        *hotkey.Hotkey
	onPress   func()
	onRelease func()
	current   config.HotkeyConfig
	stopCh    chan struct{}
}

// New создаёт обработчик горячей клавиши. onRelease вызывается
// только в режиме push-to-talk.
func New(onPress, onRelease func()) *Handler {
	return &Handler{
		onPress:   onPress,
		onRelease: onRelease,
	}
}

// Register регистрирует горячую клавишу.
func (h *Handler) Register(cfg config.HotkeyConfig) error {
	log.Info().Str("hotkey", cfg.String()).Bool("push_to_talk", cfg.PushToTalk).Msg("Регистрация горячей клавиши")

	mods, key, err := resolve(cfg)
	if err != nil {
		return err
	}

	h.mu.Lock()

	// Останавливаем предыдущий listener
	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}

	// Даём время listener'у завершиться
	oldHk := h.hk
	h.hk = nil
	h.mu.Unlock()

	// Небольшая задержка чтобы listener завершился
	time.Sleep(50 * time.Millisecond)

	// Отменяем предыдущую регистрацию в горутине с таймаутом
	if oldHk != nil {
		done := make(chan struct{})
		go func() {
			oldHk.Unregister()
			close(done)
		}()
		select {
		case <-done:
		case <-time.After(500 * time.Millisecond):
			log.Warn().Msg("Таймаут отмены регистрации горячей клавиши")
		}
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.hk = hotkey.New(mods, key)
	h.current = cfg
	h.stopCh = make(chan struct{})

	if err := h.hk.Register(); err != nil {
		log.Error().Err(err).Str("hotkey", cfg.String()).Msg("Ошибка регистрации горячей клавиши")
		h.hk = nil
		h.stopCh = nil
		return err
	}

	log.Info().Str("hotkey", Label(cfg)).Msg("Горячая клавиша зарегистрирована")
	go h.listen(h.stopCh, cfg.PushToTalk)
	return nil
}

// resolve переводит настройки в модификаторы и клавишу библиотеки.
func resolve(cfg config.HotkeyConfig) ([]hotkey.Modifier, hotkey.Key, error) {
	mods := make([]hotkey.Modifier, 0, len(cfg.Modifiers))
	for _, m := range cfg.Modifiers {
		mod, ok := modifiers[m]
		if !ok {
			return nil, 0, fmt.Errorf("неизвестный модификатор %q", m)
		}
		mods = append(mods, mod.key)
	}

	key, ok := keyMap[cfg.Key]
	if !ok {
		return nil, 0, fmt.Errorf("неизвестная клавиша %q", cfg.Key)
	}
	return mods, key, nil
}

func (h *Handler) listen(stopCh chan struct{}, pushToTalk bool) {
	h.mu.Lock()
	hk := h.hk
	h.mu.Unlock()

	if hk == nil {
		return
	}

	var lastKeydown time.Time
	const debounceInterval = 300 * time.Millisecond // Защита от key repeat
	pressed := false

	for {
		select {
		case <-stopCh:
			return
		case _, ok := <-hk.Keydown():
			if !ok {
				return
			}
			if pushToTalk {
				// Повторы keydown при удержании игнорируем до keyup
				if pressed {
					continue
				}
				pressed = true
			} else {
				// Debounce: игнорируем повторные keydown от key repeat
				now := time.Now()
				if now.Sub(lastKeydown) < debounceInterval {
					continue
				}
				lastKeydown = now
			}
			if h.onPress != nil {
				h.onPress()
			}
		case _, ok := <-hk.Keyup():
			if !ok {
				return
			}
			// В toggle режиме keyup игнорируется
			if pushToTalk && pressed {
				pressed = false
				if h.onRelease != nil {
					h.onRelease()
				}
			}
		}
	}
}

// Unregister отменяет регистрацию горячей клавиши.
func (h *Handler) Unregister() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.stopCh != nil {
		close(h.stopCh)
		h.stopCh = nil
	}

	if h.hk != nil {
		err := h.hk.Unregister()
		h.hk = nil
		return err
	}
	return nil
}

// Current возвращает текущую зарегистрированную горячую клавишу.
func (h *Handler) Current() config.HotkeyConfig {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

// RunOnMainThread запускает функцию в главном потоке (требование для macOS).
func RunOnMainThread(fn func()) {
	mainthread.Init(fn)
}

// modifier - модификатор библиотеки и его подпись на этой платформе.
// Таблица modifiers задана в modifiers_<os>.go.
type modifier struct {
	key   hotkey.Modifier
	label string
}

// Label возвращает сочетание в привычной для платформы записи: "Ctrl+Shift+Space", "⌃⇧Space".
func Label(cfg config.HotkeyConfig) string {
	sep := "+"
	if runtime.GOOS == "darwin" {
		sep = ""
	}
	parts := make([]string, 0, len(cfg.Modifiers)+1)
	for _, m := range cfg.Modifiers {
		if mod, ok := modifiers[m]; ok {
			parts = append(parts, mod.label)
		} else {
			parts = append(parts, string(m))
		}
	}
	parts = append(parts, cfg.Key.Label())
	return strings.Join(parts, sep)
}

// keyMap маппинг config.Key -> hotkey.Key
var keyMap = map[config.Key]hotkey.Key{
	config.KeySpace:  hotkey.KeySpace,
	config.KeyReturn: hotkey.KeyReturn,
	config.KeyTab:    hotkey.KeyTab,
	config.KeyF1:     hotkey.KeyF1,
	config.KeyF2:     hotkey.KeyF2,
	config.KeyF3:     hotkey.KeyF3,
	config.KeyF4:     hotkey.KeyF4,
	config.KeyF5:     hotkey.KeyF5,
	config.KeyF6:     hotkey.KeyF6,
	config.KeyF7:     hotkey.KeyF7,
	config.KeyF8:     hotkey.KeyF8,
	config.KeyF9:     hotkey.KeyF9,
	config.KeyF10:    hotkey.KeyF10,
	config.KeyF11:    hotkey.KeyF11,
	config.KeyF12:    hotkey.KeyF12,
}

var letterKeys = [26]hotkey.Key{
	hotkey.KeyA, hotkey.KeyB, hotkey.KeyC, hotkey.KeyD, hotkey.KeyE, hotkey.KeyF,
	hotkey.KeyG, hotkey.KeyH, hotkey.KeyI, hotkey.KeyJ, hotkey.KeyK, hotkey.KeyL,
	hotkey.KeyM, hotkey.KeyN, hotkey.KeyO, hotkey.KeyP, hotkey.KeyQ, hotkey.KeyR,
	hotkey.KeyS, hotkey.KeyT, hotkey.KeyU, hotkey.KeyV, hotkey.KeyW, hotkey.KeyX,
	hotkey.KeyY, hotkey.KeyZ,
}

func init() {
	for i, k := range letterKeys {
		keyMap[config.Key(string(rune('a'+i)))] = k
	}
}
