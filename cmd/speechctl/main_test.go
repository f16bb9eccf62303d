package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satriahrh/speechbox/domain/entities"
)

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		want, got string
		expected  float64
	}{
		{"Hello there", "hello there.", 1},
		{"The quick brown fox", "the quick fox", 0.75},
		{"one one", "one", 0.5},
		{"", "anything", 0},
		{"nothing matches", "", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, wordOverlap(tt.want, tt.got), 1e-9, "%q vs %q", tt.want, tt.got)
	}
}

func fakeServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/tts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("RIFFfake"))
	})
	mux.HandleFunc("/stt", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.TranscriptionResponse{Text: "hello world"})
	})
	mux.HandleFunc("/tts/speakers", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(entities.SpeakersResponse{Speakers: []string{"a", "b"}, Selected: "b"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestCommands(t *testing.T) {
	srv := fakeServer(t)
	ctx := context.Background()
	wavPath := filepath.Join(t.TempDir(), "out.wav")

	var out bytes.Buffer
	require.NoError(t, runTTS(ctx, []string{"-server", srv.URL, "-text", "hello", "-out", wavPath}, &out))
	data, err := os.ReadFile(wavPath)
	require.NoError(t, err)
	assert.Equal(t, "RIFFfake", string(data))

	out.Reset()
	require.NoError(t, runSTT(ctx, []string{"-server", srv.URL, "-in", wavPath}, &out))
	assert.Equal(t, "hello world\n", out.String())

	out.Reset()
	require.NoError(t, runRoundTrip(ctx, []string{"-server", srv.URL, "-text", "Hello, world!"}, &out))
	assert.Contains(t, out.String(), "overlap: 100%")

	out.Reset()
	require.NoError(t, runSpeakers(ctx, []string{"-server", srv.URL}, &out))
	assert.Equal(t, "  a\n* b\n", out.String())
}

func TestCommandsRequireInput(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer

	assert.Error(t, runTTS(ctx, []string{"-text", " "}, &out))
	assert.Error(t, runSTT(ctx, nil, &out))
}
