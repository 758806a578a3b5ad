//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"voicetyper/internal/config"
)

// В X11 Alt - Mod1, Super - Mod4.
var modifiers = map[config.Modifier]modifier{
	config.ModCtrl:  {key: hotkey.ModCtrl, label: "Ctrl"},
	config.ModShift: {key: hotkey.ModShift, label: "Shift"},
	config.ModAlt:   {key: hotkey.Mod1, label: "Alt"},
	config.ModSuper: {key: hotkey.Mod4, label: "Super"},
}
