//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"voicetyper/internal/config"
)

var modifiers = map[config.Modifier]modifier{
	config.ModCtrl:  {key: hotkey.ModCtrl, label: "Ctrl"},
	config.ModShift: {key: hotkey.ModShift, label: "Shift"},
	config.ModAlt:   {key: hotkey.ModAlt, label: "Alt"},
	config.ModSuper: {key: hotkey.ModWin, label: "Win"},
}
