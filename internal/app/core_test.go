package app

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voicetyper/internal/audio"
	"voicetyper/internal/config"
	"voicetyper/internal/listen"
	"voicetyper/internal/models"
	"voicetyper/internal/speech"
	"voicetyper/internal/vad"
)

// talkingSource отдаёт speech кадров речи, затем тишину. Чтение слегка
// притормаживает, чтобы цикл не крутился вхолостую.
type talkingSource struct {
	mu     sync.Mutex
	speech int
	pos    int
}

func (s *talkingSource) Open() error { return nil }

func (s *talkingSource) Read(n int) (audio.Frame, error) {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()

	samples := make([]int16, n)
	if s.pos < s.speech {
		for i := range samples {
			samples[i] = 3000
		}
	}
	s.pos++
	return audio.NewFrame(samples), nil
}

func (s *talkingSource) Close() error { return nil }
func (s *talkingSource) Name() string { return "talking" }

type staticRecognizer struct{ text string }

func (r staticRecognizer) Recognize(context.Context, audio.Utterance) (string, error) {
	return r.text, nil
}
func (r staticRecognizer) Name() string { return "static" }
func (r staticRecognizer) Close() error { return nil }

type staticBuilder struct{ rec speech.Recognizer }

func (b staticBuilder) Build(speech.EngineConfig) (speech.Recognizer, error) { return b.rec, nil }

func newTestCore(t *testing.T, s config.Settings, text string) *Core {
	t.Helper()
	cfg := config.New(s)
	c := &Core{
		config: cfg,
		source: func() audio.Source { return &talkingSource{speech: 6} },
	}
	c.ctrl = listen.NewController(
		ListenConfig(s.Listening, vad.NewPeak(s.Listening.SilenceThreshold)),
		s.EngineConfig(""),
		staticBuilder{rec: staticRecognizer{text: text}},
		c.source, nil,
	)
	c.RebuildPost()
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCoreDeliversProcessedText(t *testing.T) {
	s := config.Defaults()
	s.Typing.Corrections = map[string]string{"wrold": "world"}
	c := newTestCore(t, s, "hello comma wrold period")

	got := make(chan string, 4)
	require.NoError(t, c.Start(func(text string) { got <- text }))

	select {
	case text := <-got:
		assert.Equal(t, "hello, world.", text)
	case <-time.After(5 * time.Second):
		t.Fatal("текст не доставлен")
	}

	c.Stop()
	assert.Equal(t, listen.StateIdle, c.Controller().State())
}

func TestCoreSkipsEmptyAfterCorrections(t *testing.T) {
	s := config.Defaults()
	s.Typing.Corrections = map[string]string{"thank you for watching": ""}
	c := newTestCore(t, s, "thank you for watching")

	got := make(chan string, 1)
	require.NoError(t, c.Start(func(text string) { got <- text }))

	select {
	case text := <-got:
		t.Fatalf("неожиданная доставка %q", text)
	case <-time.After(1500 * time.Millisecond):
	}
}

func TestCoreRecordOnceFiltersNoise(t *testing.T) {
	s := config.Defaults()
	s.Language = "en"
	s.Typing.Corrections = nil
	s.LLM.Enabled = false
	s.Translate.Enabled = false

	for text, want := range map[string]string{
		"um":          "",
		"[noise]":     "",
		"aaaaaa":      "",
		"hello world": "hello world",
	} {
		c := newTestCore(t, s, "")
		c.onceRec = staticRecognizer{text: text}
		c.onceCfg = s.EngineConfig("")

		got, err := c.RecordOnce(context.Background(), 100*time.Millisecond)
		require.NoError(t, err, "%q", text)
		assert.Equal(t, want, got, "%q", text)
	}
}

func TestCoreSwitchLanguageUpdatesConfig(t *testing.T) {
	s := config.Defaults()
	c := newTestCore(t, s, "")

	require.NoError(t, c.SwitchLanguage("ar"))
	assert.Equal(t, "ar", c.config.Language())
	assert.Equal(t, "ar", c.Controller().Engine().Language)

	require.NoError(t, c.Start(func(string) {}))
	err := c.SwitchLanguage("fr")
	require.ErrorIs(t, err, listen.ErrInvalidState)
	assert.Equal(t, "ar", c.config.Language())
}

func TestCoreSetEngineKind(t *testing.T) {
	s := config.Defaults()
	s.Engine.OfflineOnly = true
	c := newTestCore(t, s, "")

	require.NoError(t, c.SetEngineKind(string(speech.KindFile)))
	assert.Equal(t, string(speech.KindFile), c.config.Engine().Kind)
	assert.Equal(t, speech.KindFile, c.Controller().Engine().Kind)
}

func TestPostProcessorStages(t *testing.T) {
	s := config.Defaults()
	assert.Equal(t, 1, NewPostProcessor(s).Len())

	s.Typing.VoiceCommands = false
	assert.Equal(t, 0, NewPostProcessor(s).Len())

	s.Typing.Corrections = map[string]string{"a": "b"}
	s.LLM.Enabled = true
	s.Translate.Enabled = true
	assert.Equal(t, 3, NewPostProcessor(s).Len())
}

func TestNewDetector(t *testing.T) {
	l := config.Defaults().Listening
	det, err := NewDetector(l)
	require.NoError(t, err)
	assert.IsType(t, vad.Peak{}, det)
}

func TestNewSourceFunc(t *testing.T) {
	tests := []struct {
		backend string
		want    any
	}{
		{"portaudio", &audio.PortAudioSource{}},
		{"command", &audio.CommandSource{}},
		{"auto", &audio.FallbackSource{}},
	}
	for _, tt := range tests {
		t.Run(tt.backend, func(t *testing.T) {
			src := NewSourceFunc(config.AudioConfig{Backend: tt.backend, Command: []string{"cat"}}, audio.FrameSamples)()
			assert.IsType(t, tt.want, src)
		})
	}
}

func TestModelPath(t *testing.T) {
	mgr, err := models.NewManager(t.TempDir())
	require.NoError(t, err)
	c := &Core{models: mgr}

	assert.Empty(t, c.modelPath("ar", "", ""))

	ar, _ := models.GetModel("vosk-ar")
	require.NoError(t, os.MkdirAll(mgr.GetModelPath(ar), 0o755))

	assert.Equal(t, mgr.GetModelPath(ar), c.modelPath("ar", "", ""))
	assert.Equal(t, mgr.GetModelPath(ar), c.modelPath("ar", speech.KindStreaming, ""))
	assert.Empty(t, c.modelPath("ar", speech.KindFile, ""))
	assert.Empty(t, c.modelPath("ar", speech.KindCloud, ""))
}
