// Package translate переводит распознанный текст через LibreTranslate.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 8 * time.Second

type Client struct {
	base   string
	apiKey string
	http   *http.Client
}

func New(base, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:   strings.TrimRight(base, "/"),
		apiKey: apiKey,
		http:   &http.Client{Timeout: timeout},
	}
}

type request struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type response struct {
	TranslatedText string `json:"translatedText"`
	Error          string `json:"error"`
}

// Translate переводит text с source на target.
// Пустой source - автоопределение; совпадающие языки возвращают текст как есть.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if c == nil || c.base == "" || strings.TrimSpace(text) == "" {
		return text, nil
	}
	src := strings.TrimSpace(source)
	if src == "" {
		src = "auto"
	}
	if strings.EqualFold(src, target) {
		return text, nil
	}

	b, err := json.Marshal(request{Q: text, Source: src, Target: target, Format: "text", APIKey: c.apiKey})
	if err != nil {
		return text, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/translate", bytes.NewReader(b))
	if err != nil {
		return text, err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return text, fmt.Errorf("translate: %w", err)
	}
	defer resp.Body.Close()

	var lr response
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(body, &lr) == nil && lr.Error != "" {
			return text, fmt.Errorf("translate http %d: %s", resp.StatusCode, lr.Error)
		}
		return text, fmt.Errorf("translate http %d for target %s", resp.StatusCode, target)
	}
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return text, fmt.Errorf("translate: decode response: %w", err)
	}

	out := strings.TrimSpace(lr.TranslatedText)
	log.Debug().
		Str("source", src).
		Str("target", target).
		Dur("took", time.Since(start)).
		Msg("Текст переведён")
	return out, nil
}
