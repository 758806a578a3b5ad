package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"voicetyper/internal/config"
)

func TestLabelsAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range config.AvailableKeys() {
		l := k.Label()
		assert.False(t, seen[l], l)
		seen[l] = true
	}
	for _, m := range config.AvailableModifiers() {
		assert.NotEmpty(t, modifierLabels[m])
	}
}
