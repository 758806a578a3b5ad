package audio

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Source - источник кадров с микрофона.
//
// Read блокирует только вызывающую горутину. Close идемпотентен
// и безопасен после неудачного Open.
type Source interface {
	Open() error
	Read(samples int) (Frame, error)
	Close() error
	Name() string
}

// DeviceReason - причина, по которой микрофон недоступен.
type DeviceReason string

const (
	ReasonNoDevice       DeviceReason = "no-device"
	ReasonPermission     DeviceReason = "permission"
	ReasonWrongDevice    DeviceReason = "wrong-device"
	ReasonBackendMissing DeviceReason = "backend-missing"
)

// ErrClosed возвращается Read после Close.
var ErrClosed = errors.New("audio: source closed")

// DeviceError - микрофон недоступен или доступ запрещён.
type DeviceError struct {
	Backend string
	Reason  DeviceReason
	Err     error
}

func (e *DeviceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("audio %s: %s", e.Backend, e.Reason)
	}
	return fmt.Sprintf("audio %s: %s: %v", e.Backend, e.Reason, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// Hint возвращает ключ i18n с подсказкой для пользователя.
func (e *DeviceError) Hint() string {
	return "error_device_" + strings.ReplaceAll(string(e.Reason), "-", "_")
}

// classify угадывает причину по тексту ошибки драйвера.
func classify(err error) DeviceReason {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "denied"), strings.Contains(msg, "not authorized"):
		return ReasonPermission
	case strings.Contains(msg, "invalid device"), strings.Contains(msg, "unavailable"), strings.Contains(msg, "busy"):
		return ReasonWrongDevice
	default:
		return ReasonNoDevice
	}
}

// FallbackSource открывает основной источник, а если его библиотека
// недоступна - альтернативный.
type FallbackSource struct {
	mu        sync.Mutex
	primary   Source
	alternate Source
	active    Source
}

// NewFallbackSource создаёт источник с резервным вариантом.
func NewFallbackSource(primary, alternate Source) *FallbackSource {
	return &FallbackSource{primary: primary, alternate: alternate}
}

// Open пробует основной источник, затем альтернативный.
func (s *FallbackSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil
	}

	err := s.primary.Open()
	if err == nil {
		s.active = s.primary
		return nil
	}
	_ = s.primary.Close()

	var devErr *DeviceError
	if s.alternate == nil || !errors.As(err, &devErr) || devErr.Reason == ReasonPermission {
		return err
	}

	log.Warn().Err(err).Str("alternate", s.alternate.Name()).Msg("Основной источник недоступен, пробуем альтернативный")
	if altErr := s.alternate.Open(); altErr != nil {
		_ = s.alternate.Close()
		log.Warn().Err(altErr).Msg("Альтернативный источник тоже недоступен")
		return err
	}
	s.active = s.alternate
	return nil
}

// Read читает кадр из открытого источника.
func (s *FallbackSource) Read(samples int) (Frame, error) {
	s.mu.Lock()
	active := s.active
	s.mu.Unlock()

	if active == nil {
		return Frame{}, ErrClosed
	}
	return active.Read(samples)
}

// Close закрывает активный источник.
func (s *FallbackSource) Close() error {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active == nil {
		return nil
	}
	return active.Close()
}

// Name возвращает имя активного (или основного) источника.
func (s *FallbackSource) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		return s.active.Name()
	}
	return s.primary.Name()
}
