package input

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordTyper struct {
	typed []string
	err   error
}

func (r *recordTyper) Type(text string) error {
	if r.err != nil {
		return r.err
	}
	r.typed = append(r.typed, text)
	return nil
}

func TestJoinerSeparatesPhrases(t *testing.T) {
	rec := &recordTyper{}
	j := NewJoiner(rec)

	for _, p := range []string{"hello world", "how are you", "?", "\n", "next line", "", "، مرحبا"} {
		require.NoError(t, j.Type(p))
	}

	assert.Equal(t, []string{"hello world", " how are you", "?", "\n", "next line", "، مرحبا"}, rec.typed)
}

func TestJoinerResetAndError(t *testing.T) {
	rec := &recordTyper{}
	j := NewJoiner(rec)

	require.NoError(t, j.Type("one"))
	j.Reset()
	require.NoError(t, j.Type("two"))

	rec.err = errors.New("boom")
	require.Error(t, j.Type("three"))

	rec.err = nil
	require.NoError(t, j.Type("four"))
	assert.Equal(t, []string{"one", "two", "four"}, rec.typed)
}

func TestNewUnknownMethod(t *testing.T) {
	_, err := New("telepathy")
	require.Error(t, err)
}
