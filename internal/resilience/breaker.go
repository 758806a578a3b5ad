// Package resilience защищает обращения к внешним сервисам (облачное распознавание, Ollama) от каскадных сбоев.
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrOpen возвращается, пока выключатель разомкнут.
var ErrOpen = errors.New("circuit breaker is open")

// State - состояние выключателя.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Config - параметры выключателя. Нулевые поля заменяются значениями по умолчанию.
type Config struct {
	Name string
	// MaxFailures - подряд идущих ошибок до размыкания (по умолчанию 3).
	MaxFailures int
	// ResetTimeout - сколько ждать до пробного вызова (по умолчанию 30s).
	ResetTimeout time.Duration
	// HalfOpenMax - успешных проб для замыкания (по умолчанию 1).
	HalfOpenMax int
	// Now - источник времени, для тестов.
	Now func() time.Time
}

// Breaker - выключатель с тремя состояниями. Безопасен для конкурентного использования.
type Breaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration
	halfOpenMax  int
	now          func() time.Time

	mu            sync.Mutex
	state         State
	failures      int
	lastFailure   time.Time
	halfOpenCalls int
	halfOpenOK    int
}

// New создаёт выключатель.
func New(cfg Config) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenMax <= 0 {
		cfg.HalfOpenMax = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Breaker{
		name:         cfg.Name,
		maxFailures:  cfg.MaxFailures,
		resetTimeout: cfg.ResetTimeout,
		halfOpenMax:  cfg.HalfOpenMax,
		now:          cfg.Now,
	}
}

// Execute вызывает fn, если выключатель это разрешает.
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	switch b.state {
	case StateOpen:
		if b.now().Sub(b.lastFailure) < b.resetTimeout {
			b.mu.Unlock()
			return ErrOpen
		}
		b.state = StateHalfOpen
		b.halfOpenCalls = 0
		b.halfOpenOK = 0
		log.Info().Str("name", b.name).Msg("Выключатель: пробный режим")
	case StateHalfOpen:
		if b.halfOpenCalls >= b.halfOpenMax {
			b.mu.Unlock()
			return ErrOpen
		}
	}
	probe := b.state == StateHalfOpen
	if probe {
		b.halfOpenCalls++
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.onFailure(probe)
	} else {
		b.onSuccess(probe)
	}
	return err
}

func (b *Breaker) onFailure(probe bool) {
	b.lastFailure = b.now()
	if probe {
		b.state = StateOpen
		log.Warn().Str("name", b.name).Msg("Выключатель снова разомкнут")
		return
	}
	b.failures++
	if b.failures >= b.maxFailures && b.state == StateClosed {
		b.state = StateOpen
		log.Warn().Str("name", b.name).Int("failures", b.failures).Msg("Выключатель разомкнут")
	}
}

func (b *Breaker) onSuccess(probe bool) {
	if probe {
		b.halfOpenOK++
		if b.halfOpenOK >= b.halfOpenMax {
			b.state = StateClosed
			b.failures = 0
			log.Info().Str("name", b.name).Msg("Выключатель замкнут")
		}
		return
	}
	b.failures = 0
}

// State возвращает текущее состояние.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == StateOpen && b.now().Sub(b.lastFailure) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// Reset принудительно замыкает выключатель.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
	b.halfOpenCalls = 0
	b.halfOpenOK = 0
}
