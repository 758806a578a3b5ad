package vad

import (
	"fmt"
	"sync"

	webrtcvad "github.com/maxhawkins/go-webrtcvad"
	"github.com/rs/zerolog/log"

	"voicetyper/internal/audio"
)

// chunkBytes - 10 мс при 16 кГц, 16 бит.
const chunkBytes = audio.SampleRate / 100 * audio.BytesPerSample

// WebRTC - детектор на основе WebRTC VAD.
// Окно считается тишиной, если ни в одном 10 мс блоке нет голоса.
type WebRTC struct {
	mu     sync.Mutex
	vad    *webrtcvad.VAD
	window int
}

// NewWebRTC создаёт детектор с агрессивностью mode (0-3).
func NewWebRTC(mode int) (*WebRTC, error) {
	v, err := webrtcvad.New()
	if err != nil {
		return nil, fmt.Errorf("создание WebRTC VAD: %w", err)
	}
	if mode < 0 {
		mode = 0
	}
	if mode > 3 {
		mode = 3
	}
	if err := v.SetMode(mode); err != nil {
		return nil, fmt.Errorf("режим WebRTC VAD: %w", err)
	}
	return &WebRTC{vad: v, window: DefaultWindow}, nil
}

// Classify проверяет последние кадры блоками по 10 мс.
func (w *WebRTC) Classify(recent []audio.Frame) Class {
	if len(recent) < w.window {
		return Speech
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	for _, f := range recent[len(recent)-w.window:] {
		for off := 0; off+chunkBytes <= len(f.Data); off += chunkBytes {
			active, err := w.vad.Process(audio.SampleRate, f.Data[off:off+chunkBytes])
			if err != nil {
				log.Debug().Err(err).Msg("WebRTC VAD: ошибка обработки, считаем речью")
				return Speech
			}
			if active {
				return Speech
			}
		}
	}
	return Silence
}
