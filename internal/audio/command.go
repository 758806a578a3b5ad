package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// CommandSource читает сырой PCM из внешней утилиты записи (arecord, parec, sox).
// Используется, когда PortAudio недоступен.
type CommandSource struct {
	argv []string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr *syncBuffer
}

// NewCommandSource создаёт источник. Пустой argv - автоопределение утилиты.
func NewCommandSource(argv []string) *CommandSource {
	if len(argv) == 0 {
		argv = DefaultCaptureCommand()
	}
	return &CommandSource{argv: argv}
}

// DefaultCaptureCommand ищет доступную утилиту записи.
func DefaultCaptureCommand() []string {
	rate := strconv.Itoa(SampleRate)
	candidates := [][]string{
		{"arecord", "-q", "-f", "S16_LE", "-r", rate, "-c", "1", "-t", "raw"},
		{"parec", "--format=s16le", "--rate=" + rate, "--channels=1", "--raw"},
		{"sox", "-q", "-d", "-t", "raw", "-r", rate, "-e", "signed", "-b", "16", "-c", "1", "-"},
	}
	for _, c := range candidates {
		if _, err := exec.LookPath(c[0]); err == nil {
			return c
		}
	}
	return nil
}

// Name возвращает название источника.
func (s *CommandSource) Name() string {
	if len(s.argv) == 0 {
		return "command"
	}
	return "command:" + s.argv[0]
}

// Open запускает процесс записи.
func (s *CommandSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cmd != nil {
		return nil
	}
	if len(s.argv) == 0 {
		return &DeviceError{Backend: s.Name(), Reason: ReasonBackendMissing, Err: errors.New("утилита записи не найдена")}
	}
	path, err := exec.LookPath(s.argv[0])
	if err != nil {
		return &DeviceError{Backend: s.Name(), Reason: ReasonBackendMissing, Err: err}
	}

	// Свой pipe вместо StdoutPipe: Wait не должен закрывать его под читающей горутиной.
	pr, pw, err := os.Pipe()
	if err != nil {
		return &DeviceError{Backend: s.Name(), Reason: ReasonBackendMissing, Err: err}
	}
	cmd := exec.Command(path, s.argv[1:]...)
	cmd.Stdout = pw
	stderr := &syncBuffer{}
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		pr.Close()
		pw.Close()
		return &DeviceError{Backend: s.Name(), Reason: classify(err), Err: err}
	}
	pw.Close()
	stdout := pr

	s.cmd = cmd
	s.stdout = stdout
	s.stderr = stderr
	log.Info().Str("command", strings.Join(s.argv, " ")).Msg("Запись через внешнюю утилиту")
	return nil
}

// Read читает ровно samples сэмплов.
func (s *CommandSource) Read(samples int) (Frame, error) {
	s.mu.Lock()
	stdout := s.stdout
	stderr := s.stderr
	s.mu.Unlock()

	if stdout == nil {
		return Frame{}, ErrClosed
	}

	buf := make([]byte, samples*BytesPerSample)
	if _, err := io.ReadFull(stdout, buf); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			reason := classify(errors.New(msg))
			return Frame{}, &DeviceError{Backend: s.Name(), Reason: reason, Err: fmt.Errorf("%w: %s", err, msg)}
		}
		return Frame{}, err
	}
	return Frame{Data: buf}, nil
}

// Close завершает процесс записи.
func (s *CommandSource) Close() error {
	s.mu.Lock()
	cmd := s.cmd
	stdout := s.stdout
	s.cmd = nil
	s.stdout = nil
	s.mu.Unlock()

	if cmd == nil {
		return nil
	}
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
	err := cmd.Wait()
	if stdout != nil {
		stdout.Close()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// после Kill ненулевой код выхода ожидаем
		return nil
	}
	return err
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	if b == nil {
		return ""
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
