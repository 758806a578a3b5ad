//go:build windows

package input

import (
	"fmt"
	"syscall"
	"unicode/utf16"
	"unsafe"
)

var (
	user32        = syscall.NewLazyDLL("user32.dll")
	procSendInput = user32.NewProc("SendInput")
)

const (
	inputKeyboard    = 1
	keyEventFKeyUp   = 0x0002
	keyEventFUnicode = 0x0004

	vkReturn = 0x0D
	vkTab    = 0x09
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   uint64
}

type windowsTyper struct{}

func newTyper() (Typer, error) {
	return &windowsTyper{}, nil
}

// keyPair возвращает нажатие и отпускание. Перевод строки и табуляция
// отправляются виртуальными клавишами: Unicode 0x0A многие поля игнорируют.
func keyPair(unit uint16) [2]input {
	var ki keyboardInput
	switch unit {
	case '\n':
		ki.wVk = vkReturn
	case '\t':
		ki.wVk = vkTab
	case '\r':
		return [2]input{}
	default:
		ki.wScan = unit
		ki.dwFlags = keyEventFUnicode
	}
	up := ki
	up.dwFlags |= keyEventFKeyUp
	return [2]input{
		{inputType: inputKeyboard, ki: ki},
		{inputType: inputKeyboard, ki: up},
	}
}

func (t *windowsTyper) Type(text string) error {
	units := utf16.Encode([]rune(text))
	inputs := make([]input, 0, len(units)*2)
	for _, u := range units {
		pair := keyPair(u)
		if pair[0].inputType == 0 {
			continue
		}
		inputs = append(inputs, pair[0], pair[1])
	}

	if len(inputs) == 0 {
		return nil
	}

	sent, _, err := procSendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		uintptr(unsafe.Sizeof(inputs[0])),
	)
	if int(sent) != len(inputs) {
		return fmt.Errorf("SendInput: отправлено %d из %d: %w", sent, len(inputs), err)
	}
	return nil
}
