package audio

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTempWAVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	u := NewUtterance([]Frame{NewFrame([]int16{0, 16384, -16384, 32767})})

	path, cleanup, err := WriteTempWAV(dir, u)
	require.NoError(t, err)

	samples, rate, err := ReadWAVFile(path)
	require.NoError(t, err)
	assert.Equal(t, SampleRate, rate)
	require.Len(t, samples, 4)
	assert.InDelta(t, 0.5, samples[1], 0.001)
	assert.InDelta(t, -0.5, samples[2], 0.001)

	cleanup()
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// повторный вызов не должен падать
	cleanup()
}

func TestWriteTempWAVMissingDir(t *testing.T) {
	u := NewUtterance([]Frame{NewFrame([]int16{1, 2})})
	_, cleanup, err := WriteTempWAV("/nonexistent/dir/for/test", u)
	require.Error(t, err)
	cleanup()
}

func TestReadWAVInvalid(t *testing.T) {
	path := t.TempDir() + "/bad.wav"
	require.NoError(t, os.WriteFile(path, []byte("not a wav file at all"), 0o644))
	_, _, err := ReadWAVFile(path)
	assert.Error(t, err)
}
