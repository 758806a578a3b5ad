package speech

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"voicetyper/internal/audio"
)

// streamChunk - размер порции PCM, подаваемой распознавателю.
const streamChunk = 1000

// streamEngine - потоковый распознаватель с загруженной моделью.
type streamEngine interface {
	AcceptWaveform(data []byte) int
	Result() string
	FinalResult() string
	Reset()
}

// Streaming подаёт фразу в постоянный распознаватель небольшими порциями.
type Streaming struct {
	mu    sync.Mutex
	eng   streamEngine
	free  func()
	name  string
	chunk int
}

func newStreaming(name string, eng streamEngine, free func()) *Streaming {
	return &Streaming{name: name, eng: eng, free: free, chunk: streamChunk}
}

// Name возвращает название движка.
func (s *Streaming) Name() string {
	return s.name
}

// Recognize распознаёт фразу; промежуточные результаты склеиваются через пробел.
func (s *Streaming) Recognize(ctx context.Context, u audio.Utterance) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.eng == nil {
		return "", errors.New("распознаватель закрыт")
	}

	pcm := u.PCM()
	var parts []string
	for off := 0; off < len(pcm); off += s.chunk {
		if err := ctx.Err(); err != nil {
			s.eng.Reset()
			return "", err
		}
		end := min(off+s.chunk, len(pcm))
		if s.eng.AcceptWaveform(pcm[off:end]) != 0 {
			parts = appendResult(parts, s.eng.Result())
		}
	}
	parts = appendResult(parts, s.eng.FinalResult())

	// Сбрасываем распознаватель для следующей фразы
	s.eng.Reset()

	return strings.Join(parts, " "), nil
}

// Close освобождает модель.
func (s *Streaming) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.free != nil {
		s.free()
		s.free = nil
	}
	s.eng = nil
	return nil
}

// voskResult структура для парсинга JSON результата.
type voskResult struct {
	Text string `json:"text"`
}

func appendResult(parts []string, raw string) []string {
	var r voskResult
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return parts
	}
	if text := strings.TrimSpace(r.Text); text != "" {
		parts = append(parts, text)
	}
	return parts
}
