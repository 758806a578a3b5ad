package input

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
	"github.com/rs/zerolog/log"
)

const (
	// pasteSettle - пауза, чтобы приложение успело прочитать буфер
	// до восстановления старого содержимого.
	pasteSettle = 50 * time.Millisecond

	// uinput на Linux не принимает события сразу после создания устройства.
	uinputWarmup = 2 * time.Second
)

// pasteTyper вставляет текст через буфер обмена и Ctrl+V (Cmd+V на macOS).
// Подходит для письменностей, которые эмуляция клавиш искажает.
type pasteTyper struct {
	mu     sync.Mutex
	read   func() (string, error)
	write  func(string) error
	press  func() error
	settle time.Duration
}

func newPasteTyper() (Typer, error) {
	if clipboard.Unsupported {
		return nil, errors.New("буфер обмена недоступен: установите xclip, xsel или wl-clipboard")
	}

	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("эмуляция клавиатуры: %w", err)
	}
	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}

	ready := time.Now()
	if runtime.GOOS == "linux" {
		ready = ready.Add(uinputWarmup)
	}

	return &pasteTyper{
		read:  clipboard.ReadAll,
		write: clipboard.WriteAll,
		press: func() error {
			if wait := time.Until(ready); wait > 0 {
				time.Sleep(wait)
			}
			return kb.Launching()
		},
		settle: pasteSettle,
	}, nil
}

func (t *pasteTyper) Type(text string) error {
	if text == "" {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	previous, readErr := t.read()
	if readErr != nil {
		log.Debug().Err(readErr).Msg("Не удалось прочитать буфер обмена")
	}

	if err := t.write(text); err != nil {
		return fmt.Errorf("запись в буфер обмена: %w", err)
	}

	pressErr := t.press()
	time.Sleep(t.settle)

	if readErr == nil {
		if err := t.write(previous); err != nil {
			log.Warn().Err(err).Msg("Не удалось восстановить буфер обмена")
		}
	}

	if pressErr != nil {
		return fmt.Errorf("вставка: %w", pressErr)
	}
	return nil
}
