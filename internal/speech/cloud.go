package speech

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"voicetyper/internal/audio"
	"voicetyper/internal/resilience"
)

// Облачные провайдеры.
const (
	ProviderGoogle   = "google"
	ProviderDeepgram = "deepgram"
)

const defaultCloudTimeout = 15 * time.Second

// CloudConfig - настройки облачного распознавания.
type CloudConfig struct {
	Provider string        `yaml:"provider"`
	APIKey   string        `yaml:"api_key"`
	Endpoint string        `yaml:"endpoint"` // google: host:port, deepgram: wss URL
	Timeout  time.Duration `yaml:"timeout"`
}

// Configured сообщает, можно ли обращаться к облаку.
func (c CloudConfig) Configured() bool {
	return c.APIKey != ""
}

func (c CloudConfig) provider() string {
	if c.Provider == "" {
		return ProviderGoogle
	}
	return c.Provider
}

func (c CloudConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return defaultCloudTimeout
	}
	return c.Timeout
}

// cloudClient отправляет PCM 16 кГц в облачный API.
type cloudClient interface {
	transcribe(ctx context.Context, pcm []byte, lang string) (string, error)
	close() error
}

// Cloud распознаёт фразу через облачный API за выключателем.
type Cloud struct {
	client  cloudClient
	name    string
	lang    string
	timeout time.Duration
	breaker *resilience.Breaker
}

// openCloud создаёт облачный распознаватель выбранного провайдера.
// googleOpts дополняют настройки gRPC клиента Google.
func openCloud(cfg CloudConfig, lang string, breaker *resilience.Breaker, googleOpts ...option.ClientOption) (Recognizer, error) {
	if !cfg.Configured() {
		return nil, errors.New("не задан ключ облачного API")
	}

	var client cloudClient
	switch p := cfg.provider(); p {
	case ProviderGoogle:
		g, err := newGoogleClient(context.Background(), cfg.APIKey, cfg.Endpoint, googleOpts...)
		if err != nil {
			return nil, err
		}
		client = g
	case ProviderDeepgram:
		client = newDeepgramClient(cfg.APIKey, cfg.Endpoint)
	default:
		return nil, fmt.Errorf("неизвестный облачный провайдер %q", p)
	}

	if breaker == nil {
		breaker = resilience.New(resilience.Config{Name: "cloud-" + cfg.provider()})
	}
	return &Cloud{
		client:  client,
		name:    cfg.provider(),
		lang:    lang,
		timeout: cfg.timeout(),
		breaker: breaker,
	}, nil
}

// Name возвращает название провайдера.
func (c *Cloud) Name() string {
	return c.name
}

// Recognize отправляет фразу в облако. Сетевые ошибки возвращаются как есть.
func (c *Cloud) Recognize(ctx context.Context, u audio.Utterance) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var text string
	err := c.breaker.Execute(func() error {
		var err error
		text, err = c.client.transcribe(ctx, u.PCM(), Locale(c.lang))
		return err
	})
	if err != nil {
		log.Warn().Err(err).Str("provider", c.name).Msg("Ошибка облачного распознавания")
		return "", err
	}
	return text, nil
}

// Close закрывает соединение с провайдером.
func (c *Cloud) Close() error {
	return c.client.close()
}
