// Package dialog предоставляет нативные диалоги для настройки и ошибок.
package dialog

import (
	"errors"

	"github.com/ncruces/zenity"
	"github.com/rs/zerolog/log"

	"voicetyper/internal/config"
	"voicetyper/internal/i18n"
)

var modifierLabels = map[config.Modifier]string{
	config.ModCtrl:  "Ctrl",
	config.ModShift: "Shift",
	config.ModAlt:   "Alt",
	config.ModSuper: "Super (Win/Cmd)",
}

// SelectHotkey открывает диалог выбора горячей клавиши.
// Возвращает выбранную конфигурацию или ошибку если пользователь отменил.
func SelectHotkey(current config.HotkeyConfig) (config.HotkeyConfig, error) {
	// Шаг 1: Выбор модификаторов
	mods := config.AvailableModifiers()
	modOptions := make([]string, len(mods))
	for i, m := range mods {
		modOptions[i] = modifierLabels[m]
	}

	currentMods := make([]string, 0, len(current.Modifiers))
	for _, m := range current.Modifiers {
		currentMods = append(currentMods, modifierLabels[m])
	}

	selectedMods, err := zenity.ListMultiple(
		i18n.T("dialog_hotkey_modifiers"),
		modOptions,
		zenity.Title(i18n.T("dialog_hotkey_modifiers_title")),
		zenity.DefaultItems(currentMods...),
	)
	if err != nil {
		return current, err // Пользователь отменил
	}

	newMods := make([]config.Modifier, 0, len(selectedMods))
	for _, s := range selectedMods {
		for i, opt := range modOptions {
			if s == opt {
				newMods = append(newMods, mods[i])
				break
			}
		}
	}
	if len(newMods) == 0 {
		return current, errors.New(i18n.T("dialog_hotkey_no_modifiers"))
	}

	// Шаг 2: Выбор клавиши
	keys := config.AvailableKeys()
	keyOptions := make([]string, len(keys))
	for i, k := range keys {
		keyOptions[i] = k.Label()
	}

	selectedKey, err := zenity.List(
		i18n.T("dialog_hotkey_key"),
		keyOptions,
		zenity.Title(i18n.T("dialog_hotkey_key_title")),
		zenity.DefaultItems(current.Key.Label()),
	)
	if err != nil {
		return current, err
	}

	newKey := current.Key
	for i, opt := range keyOptions {
		if selectedKey == opt {
			newKey = keys[i]
			break
		}
	}

	return config.HotkeyConfig{
		Modifiers:  newMods,
		Key:        newKey,
		PushToTalk: current.PushToTalk,
	}, nil
}

// IsCancel сообщает, что пользователь закрыл диалог.
func IsCancel(err error) bool {
	return errors.Is(err, zenity.ErrCanceled)
}

// ShowInfo показывает информационное сообщение.
func ShowInfo(title, message string) {
	if err := zenity.Info(message, zenity.Title(title)); err != nil && !IsCancel(err) {
		log.Debug().Err(err).Msg("Диалог не показан")
	}
}

// ShowError показывает сообщение об ошибке.
func ShowError(title, message string) {
	if err := zenity.Error(message, zenity.Title(title)); err != nil && !IsCancel(err) {
		log.Debug().Err(err).Msg("Диалог не показан")
	}
}
