// Package vad определяет, есть ли речь в последних кадрах.
package vad

import "voicetyper/internal/audio"

// Class - результат классификации окна кадров.
type Class int

const (
	Speech Class = iota
	Silence
)

func (c Class) String() string {
	if c == Silence {
		return "silence"
	}
	return "speech"
}

const (
	// DefaultThreshold - порог пиковой амплитуды.
	DefaultThreshold = 500
	// DefaultWindow - сколько последних кадров смотрит детектор.
	DefaultWindow = 2
)

// Detector классифицирует окно последних кадров.
type Detector interface {
	Classify(recent []audio.Frame) Class
}

// Peak сравнивает максимальную амплитуду последних кадров с порогом.
// Не хранит состояния.
type Peak struct {
	Threshold int
	Window    int
}

// NewPeak создаёт детектор. Нулевые значения заменяются значениями по умолчанию.
func NewPeak(threshold int) Peak {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Peak{Threshold: threshold, Window: DefaultWindow}
}

// Classify возвращает Silence, если пик последних Window кадров ниже порога.
// Пока кадров меньше окна, считаем что идёт речь.
func (p Peak) Classify(recent []audio.Frame) Class {
	window := p.Window
	if window <= 0 {
		window = DefaultWindow
	}
	if len(recent) < window {
		return Speech
	}
	for _, f := range recent[len(recent)-window:] {
		if f.Peak() >= p.Threshold {
			return Speech
		}
	}
	return Silence
}
