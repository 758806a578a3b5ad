package models

import "strings"

// Language - поддерживаемый язык распознавания.
type Language struct {
	Code   string
	Name   string
	Native string
	RTL    bool
}

// Languages - языки, для которых есть офлайн модель или облачная локаль.
var Languages = []Language{
	{Code: "ar", Name: "Arabic", Native: "العربية", RTL: true},
	{Code: "en", Name: "English", Native: "English"},
	{Code: "fr", Name: "French", Native: "Français"},
	{Code: "es", Name: "Spanish", Native: "Español"},
	{Code: "de", Name: "German", Native: "Deutsch"},
	{Code: "it", Name: "Italian", Native: "Italiano"},
	{Code: "pt", Name: "Portuguese", Native: "Português"},
	{Code: "ru", Name: "Russian", Native: "Русский"},
	{Code: "zh", Name: "Chinese", Native: "中文"},
	{Code: "ja", Name: "Japanese", Native: "日本語"},
	{Code: "ko", Name: "Korean", Native: "한국어"},
	{Code: "tr", Name: "Turkish", Native: "Türkçe"},
	{Code: "fa", Name: "Persian", Native: "فارسی", RTL: true},
	{Code: "hi", Name: "Hindi", Native: "हिन्दी"},
	{Code: "nl", Name: "Dutch", Native: "Nederlands"},
	{Code: "pl", Name: "Polish", Native: "Polski"},
	{Code: "uk", Name: "Ukrainian", Native: "Українська"},
	{Code: "vi", Name: "Vietnamese", Native: "Tiếng Việt"},
	{Code: "ca", Name: "Catalan", Native: "Català"},
	{Code: "cs", Name: "Czech", Native: "Čeština"},
	{Code: "el", Name: "Greek", Native: "Ελληνικά"},
}

// LookupLanguage ищет язык по коду.
func LookupLanguage(code string) (Language, bool) {
	code = strings.ToLower(code)
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}
