// Package input предоставляет ввод текста в активное поле.
package input

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// Способы ввода.
const (
	MethodType  = "type"
	MethodPaste = "paste"
)

// Typer вводит текст в активное поле ввода.
type Typer interface {
	// Type вводит текст в текущее активное поле.
	Type(text string) error
}

// New создаёт Typer для способа ввода.
// "type" - платформенная эмуляция клавиш, "paste" - через буфер обмена.
func New(method string) (Typer, error) {
	switch method {
	case "", MethodType:
		return newTyper()
	case MethodPaste:
		return newPasteTyper()
	default:
		return nil, fmt.Errorf("неизвестный способ ввода: %q", method)
	}
}

// Joiner вводит фразы одну за другой, разделяя их пробелом.
// Пробел не ставится в начале, после перевода строки и перед знаком препинания.
type Joiner struct {
	typer Typer

	mu   sync.Mutex
	last rune
}

// NewJoiner оборачивает Typer для непрерывной диктовки.
func NewJoiner(t Typer) *Joiner {
	return &Joiner{typer: t}
}

// Type вводит фразу. После ошибки ввода следующая фраза начинается без пробела.
func (j *Joiner) Type(text string) error {
	if text == "" {
		return nil
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if needsSpace(j.last, text) {
		text = " " + text
	}
	if err := j.typer.Type(text); err != nil {
		j.last = 0
		return err
	}
	j.last, _ = utf8.DecodeLastRuneInString(text)
	return nil
}

// Reset начинает новый абзац: следующая фраза вводится без пробела.
func (j *Joiner) Reset() {
	j.mu.Lock()
	j.last = 0
	j.mu.Unlock()
}

func needsSpace(last rune, next string) bool {
	if last == 0 || unicode.IsSpace(last) {
		return false
	}
	first, _ := utf8.DecodeRuneInString(next)
	if unicode.IsSpace(first) {
		return false
	}
	return !strings.ContainsRune(".,!?;:)،؛؟", first)
}
