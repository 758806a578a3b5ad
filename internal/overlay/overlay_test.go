package overlay

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestStatus(t *testing.T) {
	var s Status
	s.Set(StateListening, "ar", "vosk")
	s.SetText("مرحبا")

	state, lang, engine, last := s.Snapshot()
	assert.Equal(t, StateListening, state)
	assert.Equal(t, "ar", lang)
	assert.Equal(t, "vosk", engine)
	assert.Equal(t, "مرحبا", last)
}

func TestStatusKeepsTail(t *testing.T) {
	var s Status
	s.SetText(strings.Repeat("a", 200) + "END")

	_, _, _, last := s.Snapshot()
	assert.True(t, strings.HasSuffix(last, "END"))
	assert.True(t, strings.HasPrefix(last, "..."))
	assert.Equal(t, maxRunes+3, utf8.RuneCountInString(last))
}

func TestStateColors(t *testing.T) {
	assert.Equal(t, colorListening, StateListening.color())
	assert.Equal(t, colorIdle, StateIdle.color())
	assert.NotEmpty(t, StateStopping.label())
}
