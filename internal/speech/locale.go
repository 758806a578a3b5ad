package speech

import "strings"

// cloudLocales - коды языков облачных API.
var cloudLocales = map[string]string{
	"ar": "ar-SA",
	"en": "en-US",
	"fr": "fr-FR",
	"es": "es-ES",
	"de": "de-DE",
	"it": "it-IT",
	"pt": "pt-BR",
	"ru": "ru-RU",
	"zh": "zh-CN",
	"ja": "ja-JP",
	"ko": "ko-KR",
	"tr": "tr-TR",
	"hi": "hi-IN",
	"nl": "nl-NL",
	"pl": "pl-PL",
}

// Locale переводит двухбуквенный код в локаль облачного API.
// Неизвестные коды возвращаются без изменений.
func Locale(code string) string {
	if loc, ok := cloudLocales[strings.ToLower(code)]; ok {
		return loc
	}
	return code
}
