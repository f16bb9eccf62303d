package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/satriahrh/speechbox/adapters/stt"
	"github.com/satriahrh/speechbox/adapters/tts"
	"github.com/satriahrh/speechbox/domain/entities"
	"github.com/satriahrh/speechbox/internal/api"
	"github.com/satriahrh/speechbox/internal/auth"
	"github.com/satriahrh/speechbox/usecase"
)

func TestSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tts", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req entities.SynthesisRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)

		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF...."))
	}))
	defer srv.Close()

	c := New(srv.URL, WithLogger(zaptest.NewLogger(t)))
	data, err := c.Synthesize(context.Background(), "hello")

	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF...."), data)
}

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stt", r.URL.Path)

		f, fh, err := r.FormFile("audio")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "clip.wav", fh.Filename)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "wavdata", string(data))

		_ = json.NewEncoder(w).Encode(entities.TranscriptionResponse{Text: "hi there"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	text, err := c.Transcribe(context.Background(), "clip.wav", strings.NewReader("wavdata"))

	require.NoError(t, err)
	assert.Equal(t, "hi there", text)
}

func TestStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}` + "\n"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Synthesize(context.Background(), "hello")

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Equal(t, `{"error":"forbidden"}`, statusErr.Body)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	_, err := c.Synthesize(context.Background(), "hello")

	require.Error(t, err)
}

func TestNewDefaults(t *testing.T) {
	c := New("")
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = New("http://example.test/")
	assert.Equal(t, "http://example.test", c.baseURL)
}

// httptest servers listen on 127.0.0.1, so the default policy lets the
// client through.
func TestAgainstMockServer(t *testing.T) {
	logger := zaptest.NewLogger(t)
	svc, err := usecase.NewSpeechService(
		tts.NewMockTextToSpeech(logger),
		stt.NewMockSpeechToText(logger),
		usecase.SpeakerSelection{Index: 4},
		logger,
		usecase.WithTempDir(t.TempDir()),
	)
	require.NoError(t, err)

	srv := httptest.NewServer(api.NewServer(svc, api.ServerOptions{Policy: auth.LoopbackOnly()}, logger))
	defer srv.Close()

	c := New(srv.URL, WithLogger(logger))
	ctx := context.Background()

	speakers, err := c.Speakers(ctx)
	require.NoError(t, err)
	assert.Equal(t, "p229", speakers.Selected)

	wav, err := c.Synthesize(ctx, "hello there")
	require.NoError(t, err)

	text, err := c.Transcribe(ctx, "tts.wav", strings.NewReader(string(wav)))
	require.NoError(t, err)
	assert.Contains(t, text, "hello there")

	_, err = c.Synthesize(ctx, "   ")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}
