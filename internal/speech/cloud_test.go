package speech

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"voicetyper/internal/resilience"
)

// fakeSpeechServer отвечает на Recognize заранее заданным результатом.
type fakeSpeechServer struct {
	speechpb.UnimplementedSpeechServer

	mu    sync.Mutex
	last  *speechpb.RecognizeRequest
	resp  *speechpb.RecognizeResponse
	err   error
	calls int
}

func (s *fakeSpeechServer) Recognize(_ context.Context, req *speechpb.RecognizeRequest) (*speechpb.RecognizeResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	if s.resp == nil {
		return &speechpb.RecognizeResponse{}, nil
	}
	return s.resp, nil
}

// serveSpeech поднимает сервер в памяти и возвращает опцию подключения к нему.
func serveSpeech(t *testing.T, srv *fakeSpeechServer) option.ClientOption {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer()
	speechpb.RegisterSpeechServer(gs, srv)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///speech",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return option.WithGRPCConn(conn)
}

func alternative(text string) *speechpb.SpeechRecognitionResult {
	return &speechpb.SpeechRecognitionResult{
		Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: text}},
	}
}

func TestGoogleRecognize(t *testing.T) {
	u := utterance(2)
	srv := &fakeSpeechServer{resp: &speechpb.RecognizeResponse{
		Results: []*speechpb.SpeechRecognitionResult{
			alternative("السلام عليكم"),
			{},
			alternative(" ورحمة الله "),
		},
	}}

	rec, err := openCloud(CloudConfig{APIKey: "secret"}, "ar", nil, serveSpeech(t, srv))
	require.NoError(t, err)
	defer rec.Close()
	assert.Equal(t, "google", rec.Name())

	text, err := rec.Recognize(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "السلام عليكم ورحمة الله", text)

	cfg := srv.last.GetConfig()
	assert.Equal(t, speechpb.RecognitionConfig_LINEAR16, cfg.GetEncoding())
	assert.Equal(t, int32(16000), cfg.GetSampleRateHertz())
	assert.Equal(t, "ar-SA", cfg.GetLanguageCode())
	assert.Equal(t, u.PCM(), srv.last.GetAudio().GetContent())
}

func TestGoogleEmptyResults(t *testing.T) {
	rec, err := openCloud(CloudConfig{APIKey: "k"}, "en", nil, serveSpeech(t, &fakeSpeechServer{}))
	require.NoError(t, err)
	defer rec.Close()

	text, err := rec.Recognize(context.Background(), utterance(1))
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestGoogleAPIError(t *testing.T) {
	srv := &fakeSpeechServer{err: status.Error(codes.PermissionDenied, "API key not valid")}
	rec, err := openCloud(CloudConfig{APIKey: "bad"}, "en", nil, serveSpeech(t, srv))
	require.NoError(t, err)
	defer rec.Close()

	_, err = rec.Recognize(context.Background(), utterance(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key not valid")
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestCloudBreakerOpens(t *testing.T) {
	srv := &fakeSpeechServer{err: status.Error(codes.Internal, "backend error")}

	breaker := resilience.New(resilience.Config{Name: "test", MaxFailures: 2, ResetTimeout: time.Hour})
	rec, err := openCloud(CloudConfig{APIKey: "k"}, "en", breaker, serveSpeech(t, srv))
	require.NoError(t, err)
	defer rec.Close()

	for range 2 {
		_, err = rec.Recognize(context.Background(), utterance(1))
		require.Error(t, err)
	}
	_, err = rec.Recognize(context.Background(), utterance(1))
	require.ErrorIs(t, err, resilience.ErrOpen)

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Equal(t, 2, srv.calls)
}

func TestOpenCloudRequiresKey(t *testing.T) {
	_, err := openCloud(CloudConfig{}, "en", nil)
	assert.Error(t, err)

	_, err = openCloud(CloudConfig{APIKey: "k", Provider: "azure"}, "en", nil)
	assert.Error(t, err)
}

func TestDeepgramRecognize(t *testing.T) {
	u := utterance(3)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "linear16", r.URL.Query().Get("encoding"))
		assert.Equal(t, "16000", r.URL.Query().Get("sample_rate"))
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))

		conn, err := websocket.Accept(w, r, nil)
		if !assert.NoError(t, err) {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		var received int
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				return
			}
			if typ == websocket.MessageText && strings.Contains(string(data), "CloseStream") {
				break
			}
			received += len(data)
		}
		assert.Equal(t, len(u.PCM()), received)

		msgs := []string{
			`{"type":"Results","is_final":false,"channel":{"alternatives":[{"transcript":"hel"}]}}`,
			`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"hello"}]}}`,
			`{"type":"Metadata"}`,
			`{"type":"Results","is_final":true,"channel":{"alternatives":[{"transcript":"world"}]}}`,
		}
		for _, m := range msgs {
			if err := conn.Write(ctx, websocket.MessageText, []byte(m)); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	rec, err := openCloud(CloudConfig{Provider: ProviderDeepgram, APIKey: "dg-key", Endpoint: endpoint}, "en", nil)
	require.NoError(t, err)
	assert.Equal(t, "deepgram", rec.Name())

	text, err := rec.Recognize(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}
