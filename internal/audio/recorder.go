package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/rs/zerolog/log"
)

// PortAudioSource читает кадры с микрофона через PortAudio.
type PortAudioSource struct {
	device string
	frame  int

	// readMu держит Read и Close взаимоисключающими: закрывать поток
	// во время чтения из другой горутины нельзя.
	readMu sync.Mutex
	mu     sync.Mutex
	stream *portaudio.Stream
	buffer []int16
	inited bool
}

// NewPortAudioSource создаёт источник. device - имя устройства ("" или "default" - устройство по умолчанию).
func NewPortAudioSource(device string, frameSamples int) *PortAudioSource {
	if frameSamples <= 0 {
		frameSamples = FrameSamples
	}
	return &PortAudioSource{device: device, frame: frameSamples}
}

// Name возвращает название источника.
func (s *PortAudioSource) Name() string {
	return "portaudio"
}

// Open инициализирует PortAudio и открывает входной поток.
func (s *PortAudioSource) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return &DeviceError{Backend: s.Name(), Reason: ReasonBackendMissing, Err: err}
	}
	s.inited = true

	s.buffer = make([]int16, s.frame)

	stream, err := s.openStream()
	if err != nil {
		s.terminate()
		return err
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		s.terminate()
		return &DeviceError{Backend: s.Name(), Reason: classify(err), Err: err}
	}

	s.stream = stream
	log.Info().Str("device", s.deviceLabel()).Int("frame", s.frame).Msg("Микрофон открыт")
	return nil
}

func (s *PortAudioSource) openStream() (*portaudio.Stream, error) {
	if s.device == "" || s.device == "default" {
		if _, err := portaudio.DefaultInputDevice(); err != nil {
			return nil, &DeviceError{Backend: s.Name(), Reason: ReasonNoDevice, Err: err}
		}
		stream, err := portaudio.OpenDefaultStream(Channels, 0, SampleRate, s.frame, s.buffer)
		if err != nil {
			return nil, &DeviceError{Backend: s.Name(), Reason: classify(err), Err: err}
		}
		return stream, nil
	}

	device, err := findInputDevice(s.device)
	if err != nil {
		return nil, &DeviceError{Backend: s.Name(), Reason: ReasonWrongDevice, Err: err}
	}

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: Channels,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      SampleRate,
		FramesPerBuffer: s.frame,
	}
	stream, err := portaudio.OpenStream(params, s.buffer)
	if err != nil {
		return nil, &DeviceError{Backend: s.Name(), Reason: classify(err), Err: err}
	}
	return stream, nil
}

// Read блокируется до заполнения кадра.
func (s *PortAudioSource) Read(samples int) (Frame, error) {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	s.mu.Lock()
	stream := s.stream
	buf := s.buffer
	s.mu.Unlock()

	if stream == nil {
		return Frame{}, ErrClosed
	}
	if samples != len(buf) {
		return Frame{}, fmt.Errorf("audio: кадр %d сэмплов, поток открыт на %d", samples, len(buf))
	}

	if err := stream.Read(); err != nil && !errors.Is(err, portaudio.InputOverflowed) {
		return Frame{}, err
	}

	data := make([]byte, len(buf)*BytesPerSample)
	for i, v := range buf {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(v))
	}
	return Frame{Data: data}, nil
}

// Close останавливает поток и освобождает PortAudio.
func (s *PortAudioSource) Close() error {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if s.stream != nil {
		if err := s.stream.Stop(); err != nil {
			errs = append(errs, err)
		}
		if err := s.stream.Close(); err != nil {
			errs = append(errs, err)
		}
		s.stream = nil
	}
	s.terminate()
	return errors.Join(errs...)
}

func (s *PortAudioSource) terminate() {
	if s.inited {
		portaudio.Terminate()
		s.inited = false
	}
}

func (s *PortAudioSource) deviceLabel() string {
	if s.device == "" {
		return "default"
	}
	return s.device
}

func findInputDevice(name string) (*portaudio.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && d.Name == name {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.MaxInputChannels > 0 && strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			return d, nil
		}
	}
	return nil, fmt.Errorf("устройство не найдено: %s", name)
}

// DeviceInfo описывает устройство ввода.
type DeviceInfo struct {
	Name       string
	HostAPI    string
	Channels   int
	SampleRate float64
	Default    bool
}

// Devices возвращает список устройств ввода PortAudio.
func Devices() ([]DeviceInfo, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, &DeviceError{Backend: "portaudio", Reason: ReasonBackendMissing, Err: err}
	}
	defer portaudio.Terminate()

	devices, err := portaudio.Devices()
	if err != nil {
		return nil, err
	}

	var defName string
	if def, err := portaudio.DefaultInputDevice(); err == nil {
		defName = def.Name
	}

	var out []DeviceInfo
	for _, d := range devices {
		if d.MaxInputChannels <= 0 {
			continue
		}
		info := DeviceInfo{
			Name:       d.Name,
			Channels:   d.MaxInputChannels,
			SampleRate: d.DefaultSampleRate,
			Default:    d.Name == defName,
		}
		if d.HostApi != nil {
			info.HostAPI = d.HostApi.Name
		}
		out = append(out, info)
	}
	return out, nil
}
