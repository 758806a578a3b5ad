package listen

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoiseFilter(t *testing.T) {
	en := NewNoiseFilter("en")
	ar := NewNoiseFilter("ar")

	tests := []struct {
		name   string
		filter *NoiseFilter
		text   string
		noise  bool
	}{
		{"single char", en, "a", true},
		{"single char padded", en, "  a  ", true},
		{"empty", en, "", true},
		{"repeated char", en, "aaaaaa", true},
		{"two chars repeated", en, "ababab", true},
		{"spaced repeat", en, "a a a a", true},
		{"three chars not repeated", en, "aaa", false},
		{"sentence", en, "hello there", false},
		{"two letters", en, "ok", false},
		{"filler", en, "um", true},
		{"filler upper", en, "Hmm", true},
		{"filler with punctuation", en, "um, I think so", true},
		{"filler inside word", en, "umbrella", false},
		{"engine tag", en, "[noise]", true},
		{"language filler", en, "erm", true},
		{"other language filler", ar, "erm", false},
		{"arabic filler", ar, "اه", true},
		{"arabic long filler", ar, "هممم", true},
		{"arabic sentence", ar, "السلام عليكم", false},
		{"arabic repeated", ar, "ااااا", true},
		{"common filler in arabic", ar, "uh", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.noise, tt.filter.IsNoise(tt.text), "%q", tt.text)
		})
	}
}

func TestNoiseFilterUnknownLanguage(t *testing.T) {
	f := NewNoiseFilter("xx")
	assert.True(t, f.IsNoise("um"))
	assert.False(t, f.IsNoise("bonjour"))
}
