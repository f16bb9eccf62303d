package tts

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func newFakeElevenLabs(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/voices", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("xi-api-key") != "test-api-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]string{
				{"voice_id": "voice-a", "name": "Rachel"},
				{"voice_id": "voice-b", "name": "Domi"},
			},
		})
	})
	mux.HandleFunc("/text-to-speech/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("output_format") != "pcm_16000" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var req ElevenLabsRequest
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil || req.Text == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if !strings.HasSuffix(r.URL.Path, "/voice-b") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"voice not found"}`))
			return
		}
		// four samples of 16-bit PCM
		_, _ = w.Write([]byte{0x00, 0x00, 0x00, 0x40, 0x00, 0xc0, 0xff, 0x7f})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestValidateElevenLabsConfig(t *testing.T) {
	assert.Error(t, ValidateElevenLabsConfig(ElevenLabsConfig{}))
	assert.Error(t, ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", Stability: 1.5}))
	assert.Error(t, ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", Clarity: -0.5}))
	assert.Error(t, ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", OutputFormat: "mp3_44100_128"}))
	assert.Error(t, ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", OutputFormat: "pcm_fast"}))
	assert.NoError(t, ValidateElevenLabsConfig(ElevenLabsConfig{APIKey: "k", OutputFormat: "pcm_22050"}))
}

func TestNewElevenLabsConfigFromEnv(t *testing.T) {
	t.Setenv("ELEVEN_LABS_API_KEY", "test-api-key")
	t.Setenv("ELEVEN_LABS_STABILITY", "0.8")
	t.Setenv("ELEVEN_LABS_CLARITY", "7")

	config := NewElevenLabsConfigFromEnv()
	assert.Equal(t, "test-api-key", config.APIKey)
	assert.Equal(t, 0.8, config.Stability)
	// out of range values are ignored
	assert.Equal(t, 0.0, config.Clarity)
}

func TestNewElevenLabsTTS_LoadsVoices(t *testing.T) {
	srv := newFakeElevenLabs(t)

	tts, err := NewElevenLabsTTS(context.Background(), ElevenLabsConfig{
		APIKey:       "test-api-key",
		APIBaseURL:   srv.URL,
		OutputFormat: "pcm_16000",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, []string{"voice-a", "voice-b"}, tts.Speakers())
	assert.Equal(t, 16000, tts.SampleRate())
	assert.Equal(t, defaultModelID, tts.modelID)
	assert.Equal(t, defaultStability, tts.stability)
}

func TestNewElevenLabsTTS_BadKey(t *testing.T) {
	srv := newFakeElevenLabs(t)

	_, err := NewElevenLabsTTS(context.Background(), ElevenLabsConfig{
		APIKey:     "wrong",
		APIBaseURL: srv.URL,
	}, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestElevenLabsTTS_Synthesize(t *testing.T) {
	srv := newFakeElevenLabs(t)
	tts, err := NewElevenLabsTTS(context.Background(), ElevenLabsConfig{
		APIKey:       "test-api-key",
		APIBaseURL:   srv.URL,
		OutputFormat: "pcm_16000",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	wave, err := tts.Synthesize(context.Background(), "hello", "voice-b")
	require.NoError(t, err)
	assert.Equal(t, 16000, wave.SampleRate)
	require.Len(t, wave.Samples, 4)
	assert.InDelta(t, 0.5, wave.Samples[1], 1e-6)
	assert.InDelta(t, -0.5, wave.Samples[2], 1e-6)

	_, err = tts.Synthesize(context.Background(), "hello", "voice-a")
	assert.ErrorContains(t, err, "404")

	_, err = tts.Synthesize(context.Background(), "   ", "voice-b")
	assert.Error(t, err)
}

// Integration test - only runs if ELEVEN_LABS_API_KEY is set with real API key
func TestElevenLabsTTS_Synthesize_Integration(t *testing.T) {
	apiKey := os.Getenv("ELEVEN_LABS_API_KEY")
	if apiKey == "" || apiKey == "test-api-key" {
		t.Skip("Skipping integration test - set ELEVEN_LABS_API_KEY environment variable with real API key")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tts, err := NewElevenLabsTTS(ctx, NewElevenLabsConfigFromEnv(), zap.NewNop())
	require.NoError(t, err)
	require.NotEmpty(t, tts.Speakers())

	wave, err := tts.Synthesize(ctx, "Hello from the integration test.", tts.Speakers()[0])
	require.NoError(t, err)
	assert.NotEmpty(t, wave.Samples)
	t.Logf("received %d samples (%s)", len(wave.Samples), wave.Duration())
}
