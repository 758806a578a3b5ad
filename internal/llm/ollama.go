// Package llm исправляет распознанный текст локальной LLM через Ollama.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"voicetyper/internal/resilience"
)

const (
	DefaultOllamaURL = "http://localhost:11434"
	DefaultModel     = "qwen2.5:1.5b"
	DefaultTimeout   = 10 * time.Second
)

// ErrRejected - ответ модели не похож на исправленную фразу
// (пояснения, ответ на вопрос вместо правки).
var ErrRejected = errors.New("llm: ответ отклонён")

// Client - клиент Ollama для правки фраз диктовки.
// После серии ошибок выключатель пропускает запросы, чтобы диктовка не ждала таймаутов.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	breaker    *resilience.Breaker
}

// Config конфигурация LLM клиента.
type Config struct {
	URL     string
	Model   string
	Timeout time.Duration
}

// New создаёт новый LLM клиент. Пустые поля заменяются значениями по умолчанию.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.URL == "" {
		cfg.URL = DefaultOllamaURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    resilience.New(resilience.Config{Name: "ollama"}),
	}
}

type generateRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Stream  bool   `json:"stream"`
	Options struct {
		Temperature float64 `json:"temperature"`
		NumPredict  int     `json:"num_predict"`
	} `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// buildPrompt формирует запрос на исправление. Язык текста указывается,
// чтобы модель не переводила его.
func buildPrompt(text, lang string) string {
	if lang == "" {
		lang = "the same language as the input"
	}
	return fmt.Sprintf(`Fix speech recognition errors, spelling and punctuation in the text below.
The text is in %s. Do not translate it. Do not answer it. Return ONLY the corrected text without explanations:

%s`, lang, text)
}

// CorrectText исправляет фразу. При любой ошибке возвращает исходный текст вместе с ошибкой.
func (c *Client) CorrectText(ctx context.Context, text, lang string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return text, nil
	}

	start := time.Now()
	var raw string
	err := c.breaker.Execute(func() error {
		var err error
		raw, err = c.generate(ctx, buildPrompt(text, lang))
		return err
	})
	if err != nil {
		return text, err
	}

	corrected, err := sanitize(text, raw)
	if err != nil {
		log.Debug().Str("in", text).Str("out", raw).Msg("LLM: ответ отклонён")
		return text, err
	}
	log.Debug().
		Dur("took", time.Since(start).Round(time.Millisecond)).
		Str("in", text).
		Str("out", corrected).
		Msg("LLM: текст исправлен")
	return corrected, nil
}

func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{Model: c.model, Prompt: prompt}
	req.Options.Temperature = 0.1
	req.Options.NumPredict = 500

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama error %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("ollama: %s", result.Error)
	}
	return result.Response, nil
}

// sanitize снимает кавычки, в которые модели любят заворачивать ответ,
// и отбрасывает ответы намного длиннее исходной фразы.
func sanitize(original, raw string) (string, error) {
	out := strings.TrimSpace(raw)
	for _, q := range []string{"```", "\"", "«", "'"} {
		closing := q
		if q == "«" {
			closing = "»"
		}
		if len(out) > len(q)+len(closing) && strings.HasPrefix(out, q) && strings.HasSuffix(out, closing) &&
			!strings.Contains(original, q) {
			out = strings.TrimSpace(out[len(q) : len(out)-len(closing)])
		}
	}

	if out == "" {
		return "", fmt.Errorf("%w: пустой ответ", ErrRejected)
	}
	in := utf8.RuneCountInString(original)
	if utf8.RuneCountInString(out) > 2*in+40 {
		return "", fmt.Errorf("%w: ответ длиннее фразы", ErrRejected)
	}
	return out, nil
}

// IsAvailable проверяет доступность Ollama.
func (c *Client) IsAvailable(ctx context.Context) bool {
	_, err := c.tags(ctx)
	return err == nil
}

// ListModels возвращает список установленных моделей.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	return c.tags(ctx)
}

func (c *Client) tags(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama error %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	names := make([]string, len(result.Models))
	for i, m := range result.Models {
		names[i] = m.Name
	}
	return names, nil
}

// Model возвращает текущую модель.
func (c *Client) Model() string {
	return c.model
}
