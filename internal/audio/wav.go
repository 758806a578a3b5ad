package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WriteWAV кодирует PCM16 mono 16 kHz в WAV контейнер.
func WriteWAV(w io.WriteSeeker, pcm []byte) error {
	enc := wav.NewEncoder(w, SampleRate, 16, Channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: Channels,
			SampleRate:  SampleRate,
		},
		Data:           make([]int, len(pcm)/BytesPerSample),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// WriteTempWAV сохраняет фразу во временный WAV файл.
// cleanup удаляет файл и безопасен при повторном вызове.
func WriteTempWAV(dir string, u Utterance) (path string, cleanup func(), err error) {
	name := "utterance_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:16] + ".wav"
	path = filepath.Join(dir, name)
	if dir == "" {
		path = filepath.Join(os.TempDir(), name)
	}

	cleanup = func() {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn().Err(rmErr).Str("path", path).Msg("Не удалось удалить временный файл")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return "", func() {}, fmt.Errorf("создание WAV: %w", err)
	}
	if err := WriteWAV(f, u.PCM()); err != nil {
		f.Close()
		cleanup()
		return "", func() {}, fmt.Errorf("запись WAV: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", func() {}, fmt.Errorf("закрытие WAV: %w", err)
	}
	return path, cleanup, nil
}

// ReadWAV декодирует WAV в float32 сэмплы [-1, 1] и возвращает частоту.
func ReadWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, err
	}
	if buf == nil {
		return nil, 0, errors.New("empty wav buffer")
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int(1) << (bitDepth - 1))
	out := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		out[i] = float32(v) / scale
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	if rate == 0 {
		rate = SampleRate
	}
	return out, rate, nil
}

// ReadWAVFile открывает и декодирует WAV файл.
func ReadWAVFile(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadWAV(f)
}
