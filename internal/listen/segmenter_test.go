package listen

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetyper/internal/audio"
)

type flushRecord struct {
	index   int
	segment Segment
}

func feed(seg *Segmenter, frames []audio.Frame, busy func(i int) bool) (flushes []flushRecord, discards int) {
	for i, f := range stamp(frames) {
		b := false
		if busy != nil {
			b = busy(i)
		}
		s, out := seg.Push(f, b)
		switch out {
		case OutcomeFlush:
			flushes = append(flushes, flushRecord{index: i, segment: s})
		case OutcomeDiscard:
			discards++
		}
	}
	return flushes, discards
}

func TestSegmenterSpeechThenSilence(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond})

	// 1.5 с речи, 1.0 с тишины, затем ещё 5 с тишины
	flushes, discards := feed(seg, pattern(12, 8+40), nil)

	require.Len(t, flushes, 1)
	assert.Zero(t, discards)
	assert.Equal(t, 18, flushes[0].index)

	u := flushes[0].segment.Utterance
	assert.Equal(t, 12, u.Len())
	assert.Equal(t, 1500*time.Millisecond, u.Duration())
	assert.Equal(t, ReasonSilence, flushes[0].segment.Reason)
	assert.NotEmpty(t, u.ID)
}

func TestSegmenterExactFrames(t *testing.T) {
	for _, n := range []int{3, 4, 7, 20, 50} {
		frames := pattern(n, 10)
		seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond, MaxPhrase: time.Minute})

		flushes, _ := feed(seg, frames, nil)
		require.Len(t, flushes, 1, "n=%d", n)

		u := flushes[0].segment.Utterance
		require.Equal(t, n, u.Len(), "n=%d", n)
		for i, f := range u.Frames {
			assert.Equal(t, frames[i].Offset, f.Offset)
			assert.Equal(t, 2000, f.Peak())
		}
	}
}

func TestSegmenterMinLengthGate(t *testing.T) {
	for _, n := range []int{1, 2} {
		seg := NewSegmenter(SegmenterConfig{})

		flushes, discards := feed(seg, pattern(n, 20), nil)
		assert.Empty(t, flushes, "n=%d", n)
		assert.Equal(t, 1, discards, "n=%d", n)
	}
}

func TestSegmenterSilenceOnly(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{})

	flushes, discards := feed(seg, pattern(0, 100), nil)
	assert.Empty(t, flushes)
	assert.Zero(t, discards)
}

func TestSegmenterMaxDuration(t *testing.T) {
	tests := []struct {
		name     string
		max      time.Duration
		frames   int
		expected int
	}{
		{"exact multiple", 2 * time.Second, 16, 6},
		{"between frames", 1300 * time.Millisecond, 11, 9},
		{"default", DefaultMaxPhrase, 64, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := NewSegmenter(SegmenterConfig{MaxPhrase: tt.max})

			flushes, _ := feed(seg, pattern(100), nil)
			require.Len(t, flushes, tt.expected)

			for i, fr := range flushes {
				u := fr.segment.Utterance
				assert.Equal(t, ReasonMaxDuration, fr.segment.Reason)
				assert.Equal(t, tt.frames, u.Len())
				assert.GreaterOrEqual(t, u.Duration(), tt.max)
				assert.Less(t, u.Duration()-frameDur, tt.max)
				assert.Equal(t, (i+1)*tt.frames-1, fr.index)
			}
		})
	}
}

func TestSegmenterSpeechResumes(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond})

	// короткая пауза 0.375 с не разрывает фразу
	frames := pattern(6, 3, 6, 12)
	flushes, _ := feed(seg, frames, nil)

	require.Len(t, flushes, 1)
	u := flushes[0].segment.Utterance
	require.Equal(t, 15, u.Len())
	for i, f := range u.Frames {
		assert.Equal(t, frames[i].Offset, f.Offset)
	}
}

func TestSegmenterBusyDefersFlush(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond})

	frames := pattern(12, 24)
	busyUntil := 35
	flushes, _ := feed(seg, frames, func(i int) bool { return i < busyUntil })

	require.Len(t, flushes, 1)
	assert.Equal(t, busyUntil, flushes[0].index)
	assert.Equal(t, 12, flushes[0].segment.Utterance.Len())
	assert.Equal(t, PhaseFlushed, seg.Phase())
}

func TestSegmenterBacklogBounded(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{MaxPhrase: time.Second})

	flushes, _ := feed(seg, pattern(200), func(int) bool { return true })
	assert.Empty(t, flushes)
	assert.LessOrEqual(t, seg.Buffered(), 3*time.Second)

	s, out := seg.Push(speechFrame(), false)
	require.Equal(t, OutcomeFlush, out)
	assert.Equal(t, ReasonMaxDuration, s.Reason)
}

// Долгая тишина во время распознавания не вытесняет уже сказанную фразу.
func TestSegmenterBusySilenceKeepsSpeech(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond, MaxPhrase: time.Second})
	frames := stamp(pattern(8, 41))

	for _, f := range frames[:48] {
		_, out := seg.Push(f, true)
		require.Equal(t, OutcomeNone, out)
	}
	assert.LessOrEqual(t, seg.Buffered(), time.Second+800*time.Millisecond)

	s, out := seg.Push(frames[48], false)
	require.Equal(t, OutcomeFlush, out)
	assert.Equal(t, ReasonSilence, s.Reason)
	require.Equal(t, 8, s.Utterance.Len())
	for i, f := range s.Utterance.Frames {
		assert.Equal(t, frames[i].Offset, f.Offset)
	}
}

func TestSegmenterBusyLeadingSilenceBounded(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{MaxPhrase: time.Second})
	frames := stamp(pattern(0, 401))

	for _, f := range frames[:400] {
		seg.Push(f, true)
	}
	assert.LessOrEqual(t, seg.Buffered(), DefaultPauseThreshold)

	_, out := seg.Push(frames[400], false)
	assert.Equal(t, OutcomeNone, out)
	assert.Zero(t, seg.Buffered())
}

func TestSegmenterBusyPauseThenSpeech(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond, MaxPhrase: 10 * time.Second})
	frames := stamp(pattern(6, 40, 6, 12))

	var flushes []Segment
	for i, f := range frames {
		s, out := seg.Push(f, i < 52)
		if out == OutcomeFlush {
			flushes = append(flushes, s)
		}
	}

	// от долгой паузы остаётся не больше порога тишины
	require.Len(t, flushes, 1)
	u := flushes[0].Utterance
	require.Equal(t, 18, u.Len())
	for i := 1; i < u.Len(); i++ {
		assert.Greater(t, u.Frames[i].Offset, u.Frames[i-1].Offset)
	}
}

func TestSegmenterPhases(t *testing.T) {
	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 800 * time.Millisecond})
	frames := stamp(pattern(4, 3, 1))

	for _, f := range frames[:4] {
		seg.Push(f, false)
	}
	assert.Equal(t, PhaseAccumulating, seg.Phase())

	seg.Push(frames[4], false)
	assert.Equal(t, PhaseAccumulating, seg.Phase())
	seg.Push(frames[5], false)
	assert.Equal(t, PhaseSilencePending, seg.Phase())
	seg.Push(frames[6], false)
	assert.Equal(t, PhaseSilencePending, seg.Phase())

	seg.Push(frames[7], false)
	assert.Equal(t, PhaseAccumulating, seg.Phase())

	seg.Reset()
	assert.Equal(t, PhaseAccumulating, seg.Phase())
	assert.Zero(t, seg.Buffered())
}

// Быстрое чередование речи и тишины с медленным распознаванием:
// фраза никогда не закрывается, пока идёт распознавание, и кадры не повторяются.
func TestSegmenterNeverFlushesWhileBusy(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	var frames []audio.Frame
	for range 2000 {
		if rng.IntN(3) == 0 {
			frames = append(frames, silentFrame())
		} else {
			frames = append(frames, speechFrame())
		}
	}
	frames = stamp(frames)

	seg := NewSegmenter(SegmenterConfig{PauseThreshold: 250 * time.Millisecond, MaxPhrase: 2 * time.Second})
	busyLeft := 0
	lastOffset := int64(-1)
	flushCount := 0

	for _, f := range frames {
		busy := busyLeft > 0
		s, out := seg.Push(f, busy)
		if busyLeft > 0 {
			busyLeft--
		}
		if out != OutcomeFlush {
			continue
		}
		require.False(t, busy)
		flushCount++
		busyLeft = rng.IntN(30)

		for _, uf := range s.Utterance.Frames {
			require.Greater(t, uf.Offset, lastOffset)
			lastOffset = uf.Offset
		}
	}
	assert.Positive(t, flushCount)
}
