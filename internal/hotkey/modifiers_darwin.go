//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"voicetyper/internal/config"
)

var modifiers = map[config.Modifier]modifier{
	config.ModCtrl:  {key: hotkey.ModCtrl, label: "⌃"},
	config.ModShift: {key: hotkey.ModShift, label: "⇧"},
	config.ModAlt:   {key: hotkey.ModOption, label: "⌥"},
	config.ModSuper: {key: hotkey.ModCmd, label: "⌘"},
}
