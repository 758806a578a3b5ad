package listen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"voicetyper/internal/audio"
	"voicetyper/internal/speech"
)

const frameDur = 125 * time.Millisecond

func speechFrame() audio.Frame {
	samples := make([]int16, audio.FrameSamples)
	for i := range samples {
		samples[i] = 2000
	}
	return audio.NewFrame(samples)
}

func silentFrame() audio.Frame {
	samples := make([]int16, audio.FrameSamples)
	for i := range samples {
		samples[i] = int16(i%7) - 3
	}
	return audio.NewFrame(samples)
}

// pattern строит последовательность: n кадров речи, m кадров тишины, ...
func pattern(counts ...int) []audio.Frame {
	var out []audio.Frame
	for i, n := range counts {
		for range n {
			if i%2 == 0 {
				out = append(out, speechFrame())
			} else {
				out = append(out, silentFrame())
			}
		}
	}
	return out
}

// stamp проставляет смещения, как это делает цикл захвата.
func stamp(frames []audio.Frame) []audio.Frame {
	var off int64
	for i := range frames {
		frames[i].Offset = off
		off += int64(frames[i].Samples())
	}
	return frames
}

// scriptSource отдаёт заданные кадры, затем тишину.
type scriptSource struct {
	mu      sync.Mutex
	frames  []audio.Frame
	pos     int
	openErr error
	readErr error
	opened  bool
	closes  atomic.Int32
	delay   time.Duration
}

func (s *scriptSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openErr != nil {
		return s.openErr
	}
	s.opened = true
	return nil
}

func (s *scriptSource) Read(int) (audio.Frame, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.opened {
		return audio.Frame{}, audio.ErrClosed
	}
	if s.readErr != nil {
		return audio.Frame{}, s.readErr
	}
	if s.pos < len(s.frames) {
		f := s.frames[s.pos]
		s.pos++
		return f, nil
	}
	return silentFrame(), nil
}

func (s *scriptSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened = false
	s.closes.Add(1)
	return nil
}

func (s *scriptSource) Name() string { return "script" }

// countingRecognizer считает вызовы и одновременные распознавания.
type countingRecognizer struct {
	name    string
	text    string
	delay   time.Duration
	release chan struct{}
	started chan struct{}

	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	frames    atomic.Int32
	closed    atomic.Bool
}

func (r *countingRecognizer) Recognize(ctx context.Context, u audio.Utterance) (string, error) {
	r.calls.Add(1)
	r.frames.Store(int32(u.Len()))

	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		cur := r.maxFlight.Load()
		if n <= cur || r.maxFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	if r.started != nil {
		select {
		case r.started <- struct{}{}:
		default:
		}
	}
	if r.release != nil {
		<-r.release
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return r.text, nil
}

func (r *countingRecognizer) Name() string {
	if r.name == "" {
		return "fake"
	}
	return r.name
}

func (r *countingRecognizer) Close() error {
	r.closed.Store(true)
	return nil
}

// stubBuilder возвращает распознаватели по очереди.
type stubBuilder struct {
	mu    sync.Mutex
	recs  []speech.Recognizer
	err   error
	calls int
	last  speech.EngineConfig
}

func (b *stubBuilder) Build(cfg speech.EngineConfig) (speech.Recognizer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	b.last = cfg
	if b.err != nil {
		return nil, b.err
	}
	rec := b.recs[0]
	if len(b.recs) > 1 {
		b.recs = b.recs[1:]
	}
	return rec, nil
}
