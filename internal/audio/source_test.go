package audio

import (
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	openErr error
	opened  int
	closed  int
}

func (s *stubSource) Open() error {
	s.opened++
	return s.openErr
}

func (s *stubSource) Read(n int) (Frame, error) {
	return NewFrame(make([]int16, n)), nil
}

func (s *stubSource) Close() error {
	s.closed++
	return nil
}

func (s *stubSource) Name() string { return s.name }

func TestFallbackSourceUsesAlternate(t *testing.T) {
	primary := &stubSource{name: "primary", openErr: &DeviceError{Backend: "primary", Reason: ReasonBackendMissing}}
	alt := &stubSource{name: "alt"}
	src := NewFallbackSource(primary, alt)

	require.NoError(t, src.Open())
	assert.Equal(t, "alt", src.Name())
	assert.Equal(t, 1, primary.closed)

	f, err := src.Read(10)
	require.NoError(t, err)
	assert.Equal(t, 10, f.Samples())

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, alt.closed)
}

func TestFallbackSourceKeepsPermissionError(t *testing.T) {
	primary := &stubSource{name: "primary", openErr: &DeviceError{Backend: "primary", Reason: ReasonPermission}}
	alt := &stubSource{name: "alt"}
	src := NewFallbackSource(primary, alt)

	err := src.Open()
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, ReasonPermission, devErr.Reason)
	assert.Equal(t, 0, alt.opened)

	_, err = src.Read(10)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestFallbackSourceReturnsPrimaryErrorWhenBothFail(t *testing.T) {
	primaryErr := &DeviceError{Backend: "primary", Reason: ReasonNoDevice, Err: errors.New("no default input")}
	src := NewFallbackSource(
		&stubSource{name: "primary", openErr: primaryErr},
		&stubSource{name: "alt", openErr: errors.New("boom")},
	)
	assert.Same(t, primaryErr, src.Open())
}

func TestDeviceErrorHint(t *testing.T) {
	err := &DeviceError{Reason: ReasonWrongDevice}
	assert.Equal(t, "error_device_wrong_device", err.Hint())
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ReasonPermission, classify(errors.New("Permission denied")))
	assert.Equal(t, ReasonWrongDevice, classify(errors.New("Invalid device")))
	assert.Equal(t, ReasonNoDevice, classify(errors.New("something else")))
}

func TestCommandSourceReadsFrames(t *testing.T) {
	if _, err := exec.LookPath("head"); err != nil {
		t.Skip("head не найден")
	}
	src := NewCommandSource([]string{"head", "-c", "8000", "/dev/zero"})
	require.NoError(t, src.Open())
	t.Cleanup(func() { _ = src.Close() })

	for i := 0; i < 2; i++ {
		f, err := src.Read(FrameSamples)
		require.NoError(t, err)
		assert.Equal(t, FrameSamples, f.Samples())
		assert.Equal(t, 0, f.Peak())
	}

	_, err := src.Read(FrameSamples)
	assert.Error(t, err)

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
}

func TestCommandSourceMissingBinary(t *testing.T) {
	src := NewCommandSource([]string{"definitely-not-a-recorder-binary"})
	err := src.Open()
	var devErr *DeviceError
	require.ErrorAs(t, err, &devErr)
	assert.Equal(t, ReasonBackendMissing, devErr.Reason)
	assert.NoError(t, src.Close())
}
