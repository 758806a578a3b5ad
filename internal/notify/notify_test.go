package notify

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sent struct{ title, message string }

func capture(n *Notifier) *[]sent {
	var out []sent
	n.send = func(title, message string) error {
		out = append(out, sent{title, message})
		return nil
	}
	return &out
}

func TestNotifyDisabled(t *testing.T) {
	n := New(false)
	got := capture(n)

	n.Success("text")
	assert.Empty(t, *got)

	n.SetEnabled(true)
	n.Success("text")
	require.Len(t, *got, 1)
	assert.True(t, strings.HasPrefix((*got)[0].title, appName+": "))
	assert.Equal(t, "text", (*got)[0].message)
}

func TestInfoHasBareTitle(t *testing.T) {
	n := New(true)
	got := capture(n)

	n.Info("hello")
	require.Len(t, *got, 1)
	assert.Equal(t, appName, (*got)[0].title)
}

func TestTruncateKeepsRunes(t *testing.T) {
	long := strings.Repeat("ع", 150)
	out := truncate(long)
	assert.True(t, utf8.ValidString(out))
	assert.Equal(t, maxRunes+3, utf8.RuneCountInString(out))
	assert.Equal(t, "short", truncate("short"))
}
