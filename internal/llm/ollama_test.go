package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrectText(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(generateResponse{Response: " مرحبا بالعالم \n", Done: true})
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL + "/", Model: "m"})
	out, err := c.CorrectText(context.Background(), "مرحبا بلعالم", "Arabic")
	require.NoError(t, err)
	assert.Equal(t, "مرحبا بالعالم", out)

	assert.Equal(t, "m", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, "Arabic")
	assert.Contains(t, got.Prompt, "مرحبا بلعالم")
	assert.InDelta(t, 0.1, got.Options.Temperature, 1e-9)
}

func TestCorrectTextErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"http", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}},
		{"api", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(generateResponse{Error: "boom"})
		}},
		{"empty", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(generateResponse{Response: "  ", Done: true})
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			out, err := New(Config{URL: srv.URL}).CorrectText(context.Background(), "text", "")
			require.Error(t, err)
			assert.Equal(t, "text", out)
		})
	}
}

func TestCorrectTextBlank(t *testing.T) {
	out, err := New(Config{}).CorrectText(context.Background(), "   ", "en")
	require.NoError(t, err)
	assert.Equal(t, "   ", out)
}

func TestAvailabilityAndModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"models":[{"name":"qwen2.5:1.5b"},{"name":"llama3"}]}`))
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	assert.True(t, c.IsAvailable(context.Background()))
	assert.Equal(t, DefaultModel, c.Model())

	names, err := c.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"qwen2.5:1.5b", "llama3"}, names)

	srv.Close()
	assert.False(t, c.IsAvailable(context.Background()))
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		name     string
		original string
		raw      string
		want     string
		rejected bool
	}{
		{"trim", "hello", "  Hello.\n", "Hello.", false},
		{"quotes", "hello world", "\"Hello, world.\"", "Hello, world.", false},
		{"guillemets", "привет мир", "«Привет, мир.»", "Привет, мир.", false},
		{"fence", "hi", "```Hi.```", "Hi.", false},
		{"quoted input kept", "\"quoted\"", "\"Quoted\"", "\"Quoted\"", false},
		{"empty", "hello", " ", "", true},
		{"explanation", "what time is it", "I am a language model and cannot know the current time. However, you can check the clock on your device to see the time.", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sanitize(tt.original, tt.raw)
			if tt.rejected {
				require.ErrorIs(t, err, ErrRejected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorrectTextBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{URL: srv.URL})
	for i := 0; i < 5; i++ {
		out, err := c.CorrectText(context.Background(), "text", "English")
		require.Error(t, err)
		assert.Equal(t, "text", out)
	}
	assert.Equal(t, int32(3), calls.Load())
}
