// Package listen реализует непрерывное прослушивание: разбиение потока
// на фразы, отправку на распознавание и доставку текста.
package listen

import (
	"time"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
	"voicetyper/internal/vad"
)

// Phase - состояние автомата разбиения на фразы.
type Phase int

const (
	PhaseAccumulating Phase = iota
	PhaseSilencePending
	PhaseFlushed
)

func (p Phase) String() string {
	switch p {
	case PhaseAccumulating:
		return "accumulating"
	case PhaseSilencePending:
		return "silence-pending"
	case PhaseFlushed:
		return "flushed"
	default:
		return "unknown"
	}
}

// Reason - почему фраза была закрыта.
type Reason string

const (
	ReasonSilence     Reason = "silence"
	ReasonMaxDuration Reason = "max-duration"
)

// Outcome - результат обработки одного кадра.
type Outcome int

const (
	// OutcomeNone - фраза продолжается.
	OutcomeNone Outcome = iota
	// OutcomeFlush - фраза закрыта и готова к распознаванию.
	OutcomeFlush
	// OutcomeDiscard - фраза слишком короткая и выброшена.
	OutcomeDiscard
)

// Segment - закрытая фраза.
type Segment struct {
	Utterance audio.Utterance
	Reason    Reason
}

const (
	DefaultPauseThreshold = 800 * time.Millisecond
	DefaultMaxPhrase      = 8 * time.Second

	// minFrames - фразы из minFrames кадров и короче не распознаются.
	minFrames = 2
	// backlogFactor ограничивает накопление, пока идёт распознавание.
	backlogFactor = 3
)

// SegmenterConfig - параметры разбиения.
type SegmenterConfig struct {
	PauseThreshold time.Duration
	MaxPhrase      time.Duration
	Detector       vad.Detector
}

// Segmenter - конечный автомат Accumulating / SilencePending / Flushed.
// Время считается по смещениям кадров, а не по часам.
// Не безопасен для конкурентного использования: им владеет цикл захвата.
type Segmenter struct {
	pause    time.Duration
	maxDur   time.Duration
	detector vad.Detector

	phase        Phase
	frames       []audio.Frame
	tail         []audio.Frame // тишина после речи, ещё не принадлежит фразе
	window       []audio.Frame
	silenceStart time.Duration
}

// NewSegmenter создаёт автомат. Нулевые поля заменяются значениями по умолчанию.
func NewSegmenter(cfg SegmenterConfig) *Segmenter {
	if cfg.PauseThreshold <= 0 {
		cfg.PauseThreshold = DefaultPauseThreshold
	}
	if cfg.MaxPhrase <= 0 {
		cfg.MaxPhrase = DefaultMaxPhrase
	}
	if cfg.Detector == nil {
		cfg.Detector = vad.NewPeak(vad.DefaultThreshold)
	}
	return &Segmenter{
		pause:    cfg.PauseThreshold,
		maxDur:   cfg.MaxPhrase,
		detector: cfg.Detector,
	}
}

// Phase возвращает текущее состояние.
func (s *Segmenter) Phase() Phase {
	return s.phase
}

// Buffered возвращает длительность накопленного звука.
func (s *Segmenter) Buffered() time.Duration {
	return duration(s.frames) + duration(s.tail)
}

// Push обрабатывает очередной кадр. busy - идёт ли распознавание;
// пока оно идёт, фраза не закрывается и продолжает накапливаться.
func (s *Segmenter) Push(f audio.Frame, busy bool) (Segment, Outcome) {
	if s.phase == PhaseFlushed {
		s.phase = PhaseAccumulating
	}

	s.window = append(s.window, f)
	if len(s.window) > vad.DefaultWindow {
		s.window = s.window[len(s.window)-vad.DefaultWindow:]
	}
	class := s.detector.Classify(s.window)

	switch s.phase {
	case PhaseAccumulating:
		if class == vad.Speech {
			s.frames = append(s.frames, f)
			break
		}
		s.enterSilence(f)
	case PhaseSilencePending:
		if class == vad.Speech {
			// Речь вернулась: пауза внутри фразы становится её частью,
			// тишина перед первой речью отбрасывается
			if len(s.frames) > 0 {
				s.frames = append(s.frames, s.tail...)
			}
			s.frames = append(s.frames, f)
			s.tail = s.tail[:0]
			s.phase = PhaseAccumulating
			break
		}
		s.tail = append(s.tail, f)
	}

	if s.phase == PhaseSilencePending && !busy && f.End()-s.silenceStart >= s.pause {
		return s.flush(s.frames, ReasonSilence)
	}

	if !busy && s.Buffered() >= s.maxDur {
		all := append(s.frames, s.tail...)
		return s.flush(all, ReasonMaxDuration)
	}

	if busy {
		s.trimBacklog()
	}
	return Segment{}, OutcomeNone
}

// enterSilence переводит автомат в SilencePending. Тишина отсчитывается
// от начала окна, поэтому предыдущий кадр окна переносится из фразы в хвост.
func (s *Segmenter) enterSilence(f audio.Frame) {
	s.phase = PhaseSilencePending
	s.silenceStart = s.window[0].Start()

	if len(s.window) > 1 && len(s.frames) > 0 {
		last := s.frames[len(s.frames)-1]
		if last.Offset == s.window[0].Offset {
			s.frames = s.frames[:len(s.frames)-1]
			s.tail = append(s.tail, last)
		}
	}
	s.tail = append(s.tail, f)
}

func (s *Segmenter) flush(frames []audio.Frame, reason Reason) (Segment, Outcome) {
	switch {
	case len(frames) == 0:
		s.reset(PhaseAccumulating)
		return Segment{}, OutcomeNone
	case len(frames) <= minFrames:
		log.Debug().Int("frames", len(frames)).Msg("Слишком короткая фраза, пропускаем")
		s.reset(PhaseAccumulating)
		return Segment{}, OutcomeDiscard
	}

	seg := Segment{Utterance: audio.NewUtterance(frames), Reason: reason}
	s.reset(PhaseFlushed)
	return seg, OutcomeFlush
}

// reset начинает новую фразу. Окно детектора сохраняется между фразами.
func (s *Segmenter) reset(next Phase) {
	s.frames = nil
	s.tail = nil
	s.silenceStart = 0
	s.phase = next
}

// trimBacklog ограничивает накопление, пока распознавание не успевает.
// Хвост тишины держится не длиннее паузы (момент закрытия задаёт
// silenceStart), старые кадры речи отбрасываются только сверх лимита.
func (s *Segmenter) trimBacklog() {
	tailDur := duration(s.tail)
	for len(s.tail) > 0 && tailDur > s.pause {
		tailDur -= s.tail[len(s.tail)-1].Duration()
		s.tail = s.tail[:len(s.tail)-1]
	}

	limit := s.maxDur * backlogFactor
	dropped := 0
	for s.Buffered() > limit {
		if len(s.frames) > 0 {
			s.frames = s.frames[1:]
			dropped++
		} else {
			s.tail = s.tail[1:]
		}
	}
	if dropped > 0 {
		log.Warn().Int("frames", dropped).Msg("Распознавание не успевает, старые кадры отброшены")
	}
}

// Reset сбрасывает автомат вместе с окном детектора.
func (s *Segmenter) Reset() {
	s.reset(PhaseAccumulating)
	s.window = nil
}

func duration(frames []audio.Frame) time.Duration {
	var d time.Duration
	for _, f := range frames {
		d += f.Duration()
	}
	return d
}
