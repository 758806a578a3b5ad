package speech

import (
	"context"
	"fmt"
	"strings"

	gspeech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/api/option"

	"voicetyper/internal/audio"
)

// googleClient распознаёт фразу синхронным Recognize Google Speech-to-Text.
type googleClient struct {
	client *gspeech.Client
}

// newGoogleClient создаёт gRPC клиент с ключом API. endpoint в формате host:port
// заменяет speech.googleapis.com:443.
func newGoogleClient(ctx context.Context, apiKey, endpoint string, extra ...option.ClientOption) (*googleClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(apiKey)}
	if endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}
	opts = append(opts, extra...)

	client, err := gspeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: %w", err)
	}
	return &googleClient{client: client}, nil
}

func (g *googleClient) transcribe(ctx context.Context, pcm []byte, lang string) (string, error) {
	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   speechpb.RecognitionConfig_LINEAR16,
			SampleRateHertz:            int32(audio.SampleRate),
			AudioChannelCount:          int32(audio.Channels),
			LanguageCode:               lang,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", fmt.Errorf("google: %w", err)
	}

	var parts []string
	for _, r := range resp.GetResults() {
		alts := r.GetAlternatives()
		if len(alts) == 0 {
			continue
		}
		if t := strings.TrimSpace(alts[0].GetTranscript()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}

func (g *googleClient) close() error {
	return g.client.Close()
}
