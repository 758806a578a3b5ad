package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/coder/websocket"

	"voicetyper/internal/audio"
)

const (
	deepgramEndpoint = "wss://api.deepgram.com/v1/listen"
	deepgramModel    = "nova-2"
	deepgramChunk    = 8000
)

type deepgramClient struct {
	apiKey   string
	endpoint string
}

func newDeepgramClient(apiKey, endpoint string) *deepgramClient {
	if endpoint == "" {
		endpoint = deepgramEndpoint
	}
	return &deepgramClient{apiKey: apiKey, endpoint: endpoint}
}

type deepgramResult struct {
	Type    string `json:"type"`
	IsFinal bool   `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string `json:"transcript"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// close: соединение открывается на каждую фразу, держать нечего.
func (d *deepgramClient) close() error {
	return nil
}

func (d *deepgramClient) buildURL(lang string) (string, error) {
	u, err := url.Parse(d.endpoint)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("model", deepgramModel)
	q.Set("language", lang)
	q.Set("punctuate", "true")
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(audio.SampleRate))
	q.Set("channels", strconv.Itoa(audio.Channels))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// transcribe отправляет всю фразу в потоковый API и собирает финальные результаты.
func (d *deepgramClient) transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	wsURL, err := d.buildURL(lang)
	if err != nil {
		return "", fmt.Errorf("deepgram: %w", err)
	}

	headers := http.Header{}
	headers.Set("Authorization", "Token "+d.apiKey)

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{HTTPHeader: headers})
	if err != nil {
		return "", fmt.Errorf("deepgram: dial: %w", err)
	}
	defer conn.CloseNow()

	for off := 0; off < len(pcm); off += deepgramChunk {
		end := min(off+deepgramChunk, len(pcm))
		if err := conn.Write(ctx, websocket.MessageBinary, pcm[off:end]); err != nil {
			return "", fmt.Errorf("deepgram: write: %w", err)
		}
	}
	if err := conn.Write(ctx, websocket.MessageText, []byte(`{"type":"CloseStream"}`)); err != nil {
		return "", fmt.Errorf("deepgram: close stream: %w", err)
	}

	var parts []string
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) == websocket.StatusNormalClosure {
				break
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			// Сервер закрывает соединение после CloseStream
			var ce websocket.CloseError
			if errors.As(err, &ce) || len(parts) > 0 {
				break
			}
			return "", fmt.Errorf("deepgram: read: %w", err)
		}

		var res deepgramResult
		if err := json.Unmarshal(data, &res); err != nil {
			continue
		}
		if res.Type != "Results" || !res.IsFinal || len(res.Channel.Alternatives) == 0 {
			continue
		}
		if t := strings.TrimSpace(res.Channel.Alternatives[0].Transcript); t != "" {
			parts = append(parts, t)
		}
	}

	conn.Close(websocket.StatusNormalClosure, "")
	return strings.Join(parts, " "), nil
}
