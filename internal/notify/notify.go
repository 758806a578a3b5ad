// Package notify предоставляет системные уведомления.
package notify

import (
	"sync/atomic"

	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog/log"

	"voicetyper/internal/i18n"
)

const (
	appName  = "Voicetyper"
	maxRunes = 100
)

// Notifier отправляет системные уведомления.
type Notifier struct {
	enabled atomic.Bool
	send    func(title, message string) error
}

// New создаёт новый Notifier.
func New(enabled bool) *Notifier {
	n := &Notifier{send: func(title, message string) error {
		return beeep.Notify(title, message, "")
	}}
	n.enabled.Store(enabled)
	return n
}

// SetEnabled включает/выключает уведомления.
func (n *Notifier) SetEnabled(enabled bool) {
	n.enabled.Store(enabled)
}

// Listening показывает уведомление о начале прослушивания.
func (n *Notifier) Listening(lang string) {
	n.notify(i18n.T("notify_listening")+" ("+lang+")", i18n.T("notify_listening_hint"))
}

// Stopped показывает уведомление об остановке прослушивания.
func (n *Notifier) Stopped() {
	n.notify("", i18n.T("notify_stopped"))
}

// Recording показывает уведомление о начале записи.
func (n *Notifier) Recording() {
	n.notify(i18n.T("notify_recording"), i18n.T("notify_recording_hint"))
}

// Processing показывает уведомление об обработке.
func (n *Notifier) Processing() {
	n.notify(i18n.T("notify_processing"), i18n.T("notify_processing_hint"))
}

// Success показывает уведомление об успешном распознавании.
func (n *Notifier) Success(text string) {
	n.notify(i18n.T("notify_done"), truncate(text))
}

// Empty показывает уведомление о пустом результате.
func (n *Notifier) Empty() {
	n.notify(i18n.T("notify_empty"), i18n.T("notify_empty_hint"))
}

// Error показывает уведомление об ошибке.
func (n *Notifier) Error(msg string) {
	n.notify(i18n.T("notify_error"), msg)
}

// Info показывает информационное уведомление.
func (n *Notifier) Info(msg string) {
	n.notify("", truncate(msg))
}

// truncate обрезает по рунам, чтобы не порвать UTF-8 посередине символа.
func truncate(s string) string {
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}

func (n *Notifier) notify(title, message string) {
	if !n.enabled.Load() {
		return
	}
	full := appName
	if title != "" {
		full += ": " + title
	}
	// Ошибки уведомлений не критичны
	if err := n.send(full, message); err != nil {
		log.Debug().Err(err).Msg("Уведомление не отправлено")
	}
}
