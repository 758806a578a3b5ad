package config

import "strings"

// Modifier представляет модификатор клавиши.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super" // Win/Cmd
)

// Key представляет клавишу.
type Key string

const (
	KeySpace  Key = "space"
	KeyReturn Key = "return"
	KeyTab    Key = "tab"
	KeyF1     Key = "f1"
	KeyF2     Key = "f2"
	KeyF3     Key = "f3"
	KeyF4     Key = "f4"
	KeyF5     Key = "f5"
	KeyF6     Key = "f6"
	KeyF7     Key = "f7"
	KeyF8     Key = "f8"
	KeyF9     Key = "f9"
	KeyF10    Key = "f10"
	KeyF11    Key = "f11"
	KeyF12    Key = "f12"
)

// Label возвращает подпись клавиши: "Space", "Q", "F9".
func (k Key) Label() string {
	s := string(k)
	switch {
	case s == "":
		return ""
	case len(s) == 1:
		return strings.ToUpper(s)
	case s[0] == 'f':
		return "F" + s[1:]
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// HotkeyConfig хранит настройки горячей клавиши.
type HotkeyConfig struct {
	Modifiers []Modifier `yaml:"modifiers"`
	Key       Key        `yaml:"key"`
	// PushToTalk: запись, пока клавиша удерживается, вместо переключения прослушивания.
	PushToTalk bool `yaml:"push_to_talk,omitempty"`
}

// String возвращает строковое представление горячей клавиши.
func (h HotkeyConfig) String() string {
	parts := make([]string, 0, len(h.Modifiers)+1)
	for _, m := range h.Modifiers {
		parts = append(parts, string(m))
	}
	parts = append(parts, string(h.Key))
	return strings.Join(parts, "+")
}

// AvailableModifiers возвращает список доступных модификаторов.
func AvailableModifiers() []Modifier {
	return []Modifier{ModCtrl, ModShift, ModAlt, ModSuper}
}

// AvailableKeys возвращает список доступных клавиш.
func AvailableKeys() []Key {
	keys := []Key{KeySpace, KeyReturn, KeyTab}
	for r := 'a'; r <= 'z'; r++ {
		keys = append(keys, Key(string(r)))
	}
	return append(keys,
		KeyF1, KeyF2, KeyF3, KeyF4, KeyF5, KeyF6,
		KeyF7, KeyF8, KeyF9, KeyF10, KeyF11, KeyF12,
	)
}
