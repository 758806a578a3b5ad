// Package audio предоставляет захват аудио с микрофона и работу с PCM кадрами.
package audio

import (
	"encoding/binary"
	"time"

	"github.com/google/uuid"
)

const (
	// SampleRate - частота дискретизации (требование Vosk и Whisper).
	SampleRate = 16000
	// Channels - количество каналов (mono).
	Channels = 1
	// BytesPerSample - 16-bit signed little-endian PCM.
	BytesPerSample = 2
	// FrameSamples - размер кадра, который читает цикл прослушивания.
	FrameSamples = 2000
)

// Frame - неизменяемый блок 16-bit LE mono PCM.
// Offset - номер первого сэмпла кадра от начала сессии, задаёт аудио-время.
type Frame struct {
	Data   []byte
	Offset int64
}

// NewFrame создаёт кадр из int16 сэмплов.
func NewFrame(samples []int16) Frame {
	data := make([]byte, len(samples)*BytesPerSample)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return Frame{Data: data}
}

// Samples возвращает количество сэмплов в кадре.
func (f Frame) Samples() int {
	return len(f.Data) / BytesPerSample
}

// Start - время начала кадра относительно начала сессии.
func (f Frame) Start() time.Duration {
	return samplesToDuration(f.Offset)
}

// End - время конца кадра.
func (f Frame) End() time.Duration {
	return samplesToDuration(f.Offset + int64(f.Samples()))
}

// Duration - длительность кадра.
func (f Frame) Duration() time.Duration {
	return samplesToDuration(int64(f.Samples()))
}

// Peak возвращает максимальную абсолютную амплитуду кадра.
func (f Frame) Peak() int {
	peak := 0
	for i := 0; i+1 < len(f.Data); i += 2 {
		v := int(int16(binary.LittleEndian.Uint16(f.Data[i:])))
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return peak
}

func samplesToDuration(n int64) time.Duration {
	return time.Duration(n) * time.Second / SampleRate
}

// Utterance - упорядоченные кадры между двумя границами фразы.
// После передачи на распознавание принадлежит задаче распознавания.
type Utterance struct {
	ID     string
	Frames []Frame
}

// NewUtterance копирует кадры в новую фразу.
func NewUtterance(frames []Frame) Utterance {
	cp := make([]Frame, len(frames))
	copy(cp, frames)
	return Utterance{
		ID:     uuid.NewString(),
		Frames: cp,
	}
}

// Len возвращает количество кадров.
func (u Utterance) Len() int {
	return len(u.Frames)
}

// Samples возвращает общее количество сэмплов.
func (u Utterance) Samples() int {
	n := 0
	for _, f := range u.Frames {
		n += f.Samples()
	}
	return n
}

// Duration - длительность фразы по количеству сэмплов.
func (u Utterance) Duration() time.Duration {
	return samplesToDuration(int64(u.Samples()))
}

// PCM склеивает кадры в один PCM16 буфер.
func (u Utterance) PCM() []byte {
	size := 0
	for _, f := range u.Frames {
		size += len(f.Data)
	}
	out := make([]byte, 0, size)
	for _, f := range u.Frames {
		out = append(out, f.Data...)
	}
	return out
}

// Float32 возвращает сэмплы в диапазоне [-1, 1].
func (u Utterance) Float32() []float32 {
	return PCM16ToFloat32(u.PCM())
}

// PCM16ToFloat32 конвертирует little-endian PCM16 в float32.
func PCM16ToFloat32(b []byte) []float32 {
	out := make([]float32, len(b)/2)
	for i := range out {
		v := int16(binary.LittleEndian.Uint16(b[2*i:]))
		out[i] = float32(v) / 32768.0
	}
	return out
}
