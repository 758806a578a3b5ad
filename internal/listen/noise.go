package listen

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Служебные метки, которые движки выдают вместо речи.
var noiseTags = []string{"[noise]", "[silence]", "[music]", "[blank_audio]", "<unk>"}

var commonFillers = []string{"uh", "um", "ah", "eh", "mm", "hmm"}

// fillers - звуки-паузы по языкам.
var fillers = map[string][]string{
	"en": {"er", "erm", "uhm", "umm", "mhm"},
	"ar": {"اه", "ام", "ممم", "هممم", "ااا", "ييي", "آه", "إمم"},
	"ru": {"э", "ээ", "эм", "ммм", "хм"},
	"fr": {"euh", "bah", "hein"},
	"de": {"äh", "ähm", "öh"},
	"es": {"em", "eeh"},
}

// NoiseFilter отбрасывает вырожденные результаты распознавания целиком.
type NoiseFilter struct {
	tokens map[string]struct{}
}

// NewNoiseFilter создаёт фильтр для языка. Общие звуки-паузы действуют всегда.
func NewNoiseFilter(lang string) *NoiseFilter {
	f := &NoiseFilter{tokens: make(map[string]struct{})}
	for _, list := range [][]string{noiseTags, commonFillers, fillers[strings.ToLower(lang)]} {
		for _, t := range list {
			f.tokens[t] = struct{}{}
		}
	}
	return f
}

// IsNoise проверяет правила по порядку: слишком короткий текст,
// повтор одного-двух символов, звук-пауза среди слов.
func (f *NoiseFilter) IsNoise(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))

	n := utf8.RuneCountInString(t)
	if n < 2 {
		return true
	}

	if n > 3 && distinctRunes(t, 2) <= 2 {
		return true
	}

	for _, field := range strings.Fields(t) {
		if f.has(field) {
			return true
		}
		if f.has(strings.TrimFunc(field, unicode.IsPunct)) {
			return true
		}
	}
	return false
}

func (f *NoiseFilter) has(token string) bool {
	if f == nil || token == "" {
		return false
	}
	_, ok := f.tokens[token]
	return ok
}

// distinctRunes считает различные символы, но не больше limit+1.
func distinctRunes(s string, limit int) int {
	seen := make(map[rune]struct{}, limit+1)
	for _, r := range s {
		seen[r] = struct{}{}
		if len(seen) > limit {
			break
		}
	}
	return len(seen)
}
