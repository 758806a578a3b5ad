package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetyper/internal/audio"
)

func frame(amp int16) audio.Frame {
	s := make([]int16, audio.FrameSamples)
	for i := range s {
		s[i] = amp
	}
	return audio.NewFrame(s)
}

func TestPeakClassify(t *testing.T) {
	p := NewPeak(0)
	require.Equal(t, DefaultThreshold, p.Threshold)

	tests := []struct {
		name   string
		frames []audio.Frame
		want   Class
	}{
		{"empty window is speech", nil, Speech},
		{"single quiet frame is speech", []audio.Frame{frame(0)}, Speech},
		{"two quiet frames", []audio.Frame{frame(10), frame(-10)}, Silence},
		{"loud then quiet", []audio.Frame{frame(2000), frame(0)}, Speech},
		{"quiet then loud", []audio.Frame{frame(0), frame(-600)}, Speech},
		{"only last two count", []audio.Frame{frame(3000), frame(0), frame(0)}, Silence},
		{"exactly threshold is speech", []audio.Frame{frame(0), frame(500)}, Speech},
		{"just below threshold", []audio.Frame{frame(499), frame(499)}, Silence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Classify(tt.frames))
		})
	}
}

func TestPeakIsStateless(t *testing.T) {
	p := NewPeak(500)
	window := []audio.Frame{frame(0), frame(0)}
	assert.Equal(t, Silence, p.Classify(window))
	assert.Equal(t, Speech, p.Classify([]audio.Frame{frame(900), frame(0)}))
	assert.Equal(t, Silence, p.Classify(window))
}

func TestWebRTCZeroFramesAreSilence(t *testing.T) {
	w, err := NewWebRTC(3)
	require.NoError(t, err)
	assert.Equal(t, Silence, w.Classify([]audio.Frame{frame(0), frame(0)}))
	assert.Equal(t, Speech, w.Classify([]audio.Frame{frame(0)}))
}
